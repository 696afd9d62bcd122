package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/latestcomment/team-alert/internal/perspective"
)

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got := store.Get()
	if got.ServerURL != "http://localhost:3000" || !got.SoundEnabled || !got.AutoStart {
		t.Fatalf("defaults = %+v", got)
	}
	if got.Boss1Shortcut != "numdiv" || got.Boss2Shortcut != "nummult" || got.MuteShortcut != "numsub" {
		t.Fatalf("default shortcuts = %q %q %q", got.Boss1Shortcut, got.Boss2Shortcut, got.MuteShortcut)
	}
	if !got.Seating.IsFlipped("Hiếu") || got.Seating.IsFlipped("Minh") {
		t.Fatalf("default seating = %v", got.Seating)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	data := `username: "  Minh  "
server_url: http://10.0.0.5:3000
sound_enabled: false
boss1_shortcut: f1
seating:
  Minh: far
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got := store.Get()
	if got.Username != "Minh" {
		t.Errorf("Username = %q", got.Username)
	}
	if got.SoundEnabled {
		t.Error("SoundEnabled = true, want false")
	}
	if got.Boss1Shortcut != "f1" || got.Boss2Shortcut != "nummult" {
		t.Errorf("shortcuts = %q %q", got.Boss1Shortcut, got.Boss2Shortcut)
	}
	if len(got.Seating) != 1 || got.Seating["Minh"] != perspective.FarSide {
		t.Errorf("seating = %v, want only Minh on the far side", got.Seating)
	}
}

func TestLoadRejectsBadFile(t *testing.T) {
	tests := map[string]string{
		"duplicate shortcut": "boss1_shortcut: f1\nboss2_shortcut: f1\n",
		"unknown shortcut":   "mute_shortcut: ctrl+q\n",
		"bad side":           "seating:\n  Minh: middle\n",
		"not yaml":           "username: [\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := Open(path); err == nil {
				t.Fatal("Open succeeded")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.Username = "Minh"

	tests := []struct {
		name   string
		modify func(*Settings)
		want   error
	}{
		{name: "valid", modify: func(*Settings) {}},
		{name: "blank username", modify: func(s *Settings) { s.Username = "  " }, want: ErrUsernameRequired},
		{name: "blank server", modify: func(s *Settings) { s.ServerURL = "" }, want: ErrServerURLRequired},
		{name: "duplicate", modify: func(s *Settings) { s.MuteShortcut = s.Boss2Shortcut }, want: ErrDuplicateShortcut},
		{name: "unknown", modify: func(s *Settings) { s.Boss1Shortcut = "space" }, want: ErrUnknownShortcut},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.modify(&s)
			err := s.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSaveReportsRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	next := store.Get()
	next.Username = "Minh"
	res, err := store.Save(next)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !res.NeedsRestart {
		t.Fatal("username change did not need a restart")
	}

	next.SoundEnabled = false
	next.Boss1Shortcut = "f2"
	res, err = store.Save(next)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if res.NeedsRestart {
		t.Fatal("sound and shortcut change needed a restart")
	}

	next.ServerURL = "http://alerts.internal:3000"
	if res, _ = store.Save(next); !res.NeedsRestart {
		t.Fatal("server change did not need a restart")
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reopened.Get()
	if got.Username != "Minh" || got.SoundEnabled || got.Boss1Shortcut != "f2" || got.ServerURL != "http://alerts.internal:3000" {
		t.Fatalf("reopened = %+v", got)
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Save(store.Get()); !errors.Is(err, ErrUsernameRequired) {
		t.Fatalf("Save without username = %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("invalid settings were written")
	}
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s := store.Get()
	s.Username = "Minh"
	if _, err := store.Save(s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	edited := strings.Replace(string(data), "username: Minh", "username: Lan", 1)
	if err := os.WriteFile(path, []byte(edited), 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := store.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if !res.NeedsRestart || res.Settings.Username != "Lan" || store.Get().Username != "Lan" {
		t.Fatalf("Reload = %+v", res)
	}
}

func TestShortcutLabel(t *testing.T) {
	if got := ShortcutLabel("numdiv"); got != "Num /" {
		t.Errorf("ShortcutLabel(numdiv) = %q", got)
	}
	if got := ShortcutLabel("f3"); got != "F3" {
		t.Errorf("ShortcutLabel(f3) = %q", got)
	}
	if got := ShortcutLabel("ctrl+x"); got != "ctrl+x" {
		t.Errorf("ShortcutLabel(ctrl+x) = %q", got)
	}
	for _, name := range ShortcutNames() {
		if ShortcutLabel(name) == name {
			t.Errorf("%q has no label", name)
		}
	}
	if len(Defaults().Seating) == 0 || Defaults().Seating.Validate() != nil {
		t.Error("default seating invalid")
	}
}
