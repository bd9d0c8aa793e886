package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

// writeConfig creates a local-only config rooted in a temp dir. The
// placeholder key keeps the keyring out of the test.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf(`remote:
  key: placeholder
storage:
  db_path: %s
  photo_dir: %s
  log_path: %s
`, filepath.Join(dir, "winterbreak.db"), filepath.Join(dir, "photos"), filepath.Join(dir, "winterbreak.log"))

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, config string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := New()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestHabitToggleThenToday(t *testing.T) {
	config := writeConfig(t)

	out, err := run(t, config, "habit", "toggle", "piano")
	if err != nil {
		t.Fatalf("habit toggle: %v", err)
	}
	if !strings.Contains(out, "Piano checked") || !strings.Contains(out, "saved on this device") {
		t.Errorf("toggle output = %q", out)
	}

	out, err = run(t, config, "today", "--offline")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	for _, want := range []string{"0 entries", "Habits", "🎹 Piano", "✔"} {
		if !strings.Contains(out, want) {
			t.Errorf("today missing %q\n%s", want, out)
		}
	}
}

func TestHabitToggleUnknown(t *testing.T) {
	if _, err := run(t, writeConfig(t), "habit", "toggle", "juggling"); err == nil {
		t.Error("expected error for unknown habit")
	}
}

func TestTodayRejectsBadDate(t *testing.T) {
	if _, err := run(t, writeConfig(t), "today", "--offline", "not-a-date"); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	config := writeConfig(t)
	ics := filepath.Join(t.TempDir(), "camp.ics")
	body := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:camp-1",
		"DTSTART:20260107T090000",
		"DTEND:20260107T110000",
		"SUMMARY:Ski camp",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")
	if err := os.WriteFile(ics, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, config, "import", ics)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "imported 1 event(s)") {
		t.Errorf("import output = %q", out)
	}

	out, err = run(t, config, "today", "--offline", "2026-01-07")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if !strings.Contains(out, "09:00-11:00") || !strings.Contains(out, "Ski camp") {
		t.Errorf("today output = %q", out)
	}

	out, err = run(t, config, "today", "--offline", "--all")
	if err != nil {
		t.Fatalf("today --all: %v", err)
	}
	if !strings.Contains(out, "2026-01-07 - 1 entry") {
		t.Errorf("today --all output = %q", out)
	}

	out, err = run(t, config, "export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "BEGIN:VCALENDAR") || !strings.Contains(out, "Ski camp") {
		t.Errorf("export output = %q", out)
	}
}

func TestQueueAndFlushLocalOnly(t *testing.T) {
	config := writeConfig(t)

	out, err := run(t, config, "queue")
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if !strings.Contains(out, "Queued writes - 0 entries") {
		t.Errorf("queue output = %q", out)
	}

	out, err = run(t, config, "flush")
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !strings.Contains(out, "replayed 0, retained 0, dropped 0, pushed 0") {
		t.Errorf("flush output = %q", out)
	}
}

func TestCacheClear(t *testing.T) {
	out, err := run(t, writeConfig(t), "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(out, "cleared 0 cached read(s)") {
		t.Errorf("cache clear output = %q", out)
	}
}

func TestReportWritesMessage(t *testing.T) {
	config := writeConfig(t)
	eml := filepath.Join(t.TempDir(), "day.eml")

	out, err := run(t, config, "report", "--out", eml)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, "report written to") {
		t.Errorf("report output = %q", out)
	}
	raw, err := os.ReadFile(eml)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "Subject:") {
		t.Errorf("message has no subject:\n%s", raw)
	}

	if _, err := run(t, config, "report", "--send"); err == nil {
		t.Error("expected error without a mailbox")
	}
}

func TestSecretRejectsUnknownName(t *testing.T) {
	if _, err := secretName("api-token"); err == nil {
		t.Error("expected error for unknown secret")
	}
	if name, err := secretName("imap-password"); err != nil || name == "" {
		t.Errorf("secretName = %q, %v", name, err)
	}
}
