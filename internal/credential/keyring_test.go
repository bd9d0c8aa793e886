package credential

import (
	"errors"
	"fmt"
	"testing"
)

func TestResolveRemoteKey(t *testing.T) {
	stored := func(string) (string, error) { return "from-keyring", nil }
	missing := func(k string) (string, error) {
		return "", fmt.Errorf("getting credential %q: %w", k, ErrNotFound)
	}
	broken := func(string) (string, error) { return "", errors.New("dbus down") }

	tests := []struct {
		name       string
		configured string
		lookup     func(string) (string, error)
		want       string
		wantErr    bool
	}{
		{"config wins", "from-config", stored, "from-config", false},
		{"keyring fallback", "", stored, "from-keyring", false},
		{"missing entry", "", missing, "", false},
		{"keyring error", "", broken, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveRemoteKey(tt.configured, tt.lookup)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Fatalf("ResolveRemoteKey = %q, %v", got, err)
			}
		})
	}
}
