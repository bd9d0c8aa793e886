package config

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/winterbreak/internal/keys"
	"github.com/nhle/winterbreak/internal/model"
	"github.com/nhle/winterbreak/internal/remote"
)

func TestApplyFormDefaults(t *testing.T) {
	m := New(model.AppConfig{}, "/tmp/none.yaml", keys.DefaultKeyMap(), 80, 24)
	m.fb.url = " https://rows.example.com/ "
	m.fb.key = "  "
	m.fb.name = "Mia"
	m.applyForm()

	if m.cfg.Remote.URL != "https://rows.example.com" {
		t.Errorf("URL = %q", m.cfg.Remote.URL)
	}
	if m.cfg.Remote.StudentID != model.DefaultStudentID {
		t.Errorf("StudentID = %q", m.cfg.Remote.StudentID)
	}
	if m.keySet {
		t.Error("blank key should not mark the key as set")
	}
	if m.cfg.Profile.Name != "Mia" {
		t.Errorf("Name = %q", m.cfg.Profile.Name)
	}
}

func TestValidateThenSave(t *testing.T) {
	var savedPath, savedKey string
	var pinged model.RemoteConfig

	cfg := model.AppConfig{Remote: model.RemoteConfig{URL: "https://rows.example.com", StudentID: model.DefaultStudentID}}
	m := New(cfg, "/tmp/cfg.yaml", keys.DefaultKeyMap(), 80, 24).
		WithPinger(func(_ context.Context, rc model.RemoteConfig) error {
			pinged = rc
			return nil
		}).
		WithSaver(func(path string, _ *model.AppConfig, key string) error {
			savedPath, savedKey = path, key
			return nil
		})
	m.cfg.Remote.Key = "secret.key.value"

	msg := m.validate()()
	if pinged.URL != cfg.Remote.URL {
		t.Errorf("pinged %q", pinged.URL)
	}
	m, _ = m.Update(msg)
	if m.mode != ModeValidateResult || m.validError != nil {
		t.Fatalf("mode = %v err = %v", m.mode, m.validError)
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected save command")
	}
	m, cmd = m.Update(cmd())
	if savedPath != "/tmp/cfg.yaml" || savedKey != "secret.key.value" {
		t.Errorf("saved %q %q", savedPath, savedKey)
	}
	if m.mode != ModeSummary {
		t.Errorf("mode = %v, want summary", m.mode)
	}
	if _, ok := cmd().(ConfigSavedMsg); !ok {
		t.Error("expected ConfigSavedMsg")
	}
}

func TestValidateFailureShowsError(t *testing.T) {
	m := New(model.AppConfig{}, "", keys.DefaultKeyMap(), 80, 24)
	m, _ = m.Update(ValidateResultMsg{Err: &remote.APIError{Status: 401, Message: "bad jwt"}})
	if m.mode != ModeValidateResult {
		t.Fatalf("mode = %v", m.mode)
	}
	if !errors.As(m.validError, new(*remote.APIError)) {
		t.Error("error should be kept for display")
	}
}

func TestValidators(t *testing.T) {
	if validateOptionalURL("") != nil || validateOptionalURL("ftp://x") == nil {
		t.Error("validateOptionalURL")
	}
	if validateOptionalUUID("") != nil || validateOptionalUUID("nope") == nil {
		t.Error("validateOptionalUUID")
	}
}
