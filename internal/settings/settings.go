// Package settings stores the desktop client's preferences in a YAML file.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/latestcomment/team-alert/internal/perspective"
)

var (
	ErrUsernameRequired  = errors.New("Please enter your username")
	ErrServerURLRequired = errors.New("Please enter the server URL")
	ErrDuplicateShortcut = errors.New("All shortcuts must be different")
	ErrUnknownShortcut   = errors.New("unknown shortcut")
)

// Shortcut names and their display labels.
var shortcutLabels = map[string]string{
	"numdiv":  "Num /",
	"nummult": "Num *",
	"numadd":  "Num +",
	"numsub":  "Num -",
	"f1":      "F1",
	"f2":      "F2",
	"f3":      "F3",
	"f4":      "F4",
}

// ShortcutLabel returns the label shown for a shortcut name, or the name
// itself when it is unknown.
func ShortcutLabel(name string) string {
	if label, ok := shortcutLabels[name]; ok {
		return label
	}
	return name
}

// ShortcutNames lists the accepted shortcut names.
func ShortcutNames() []string {
	return []string{"numdiv", "nummult", "numadd", "numsub", "f1", "f2", "f3", "f4"}
}

type Settings struct {
	Username      string              `yaml:"username"`
	ServerURL     string              `yaml:"server_url"`
	AutoStart     bool                `yaml:"auto_start"`
	SoundEnabled  bool                `yaml:"sound_enabled"`
	Boss1Shortcut string              `yaml:"boss1_shortcut"`
	Boss2Shortcut string              `yaml:"boss2_shortcut"`
	MuteShortcut  string              `yaml:"mute_shortcut"`
	Seating       perspective.Seating `yaml:"seating,omitempty"`
}

// Defaults returns a fresh install's settings.
func Defaults() Settings {
	return Settings{
		ServerURL:     "http://localhost:3000",
		AutoStart:     true,
		SoundEnabled:  true,
		Boss1Shortcut: "numdiv",
		Boss2Shortcut: "nummult",
		MuteShortcut:  "numsub",
		Seating:       perspective.FarSideSeating("Anh Danh", "Hiếu", "Phúc", "Quí"),
	}
}

// normalize trims text fields and restores default shortcuts left blank.
func (s *Settings) normalize() {
	d := Defaults()
	s.Username = strings.TrimSpace(s.Username)
	s.ServerURL = strings.TrimSpace(s.ServerURL)
	if s.Boss1Shortcut == "" {
		s.Boss1Shortcut = d.Boss1Shortcut
	}
	if s.Boss2Shortcut == "" {
		s.Boss2Shortcut = d.Boss2Shortcut
	}
	if s.MuteShortcut == "" {
		s.MuteShortcut = d.MuteShortcut
	}
}

// checkShortcuts rejects unknown and duplicate bindings.
func (s Settings) checkShortcuts() error {
	for _, name := range []string{s.Boss1Shortcut, s.Boss2Shortcut, s.MuteShortcut} {
		if _, ok := shortcutLabels[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownShortcut, name)
		}
	}
	if s.Boss1Shortcut == s.Boss2Shortcut || s.Boss1Shortcut == s.MuteShortcut || s.Boss2Shortcut == s.MuteShortcut {
		return ErrDuplicateShortcut
	}
	return nil
}

// Validate applies the checks made before saving.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Username) == "" {
		return ErrUsernameRequired
	}
	if strings.TrimSpace(s.ServerURL) == "" {
		return ErrServerURLRequired
	}
	if err := s.checkShortcuts(); err != nil {
		return err
	}
	return s.Seating.Validate()
}

// NeedsRestart reports whether moving from s to next requires a new
// relay session.
func (s Settings) NeedsRestart(next Settings) bool {
	return strings.TrimSpace(s.Username) != strings.TrimSpace(next.Username) ||
		strings.TrimSpace(s.ServerURL) != strings.TrimSpace(next.ServerURL)
}

// SaveResult is returned by Store.Save.
type SaveResult struct {
	Settings     Settings
	NeedsRestart bool
}

// Store is a settings file with the last loaded or saved value.
type Store struct {
	path string

	mu      sync.Mutex
	current Settings
}

// DefaultPath is settings.yaml under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "team-alert", "settings.yaml"), nil
}

// Open loads the store at path. A missing file yields the defaults.
func Open(path string) (*Store, error) {
	current, err := load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, current: current}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Save validates next, writes it and reports whether the session must be
// restarted.
func (s *Store) Save(next Settings) (SaveResult, error) {
	next.normalize()
	if err := next.Validate(); err != nil {
		return SaveResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := write(s.path, next); err != nil {
		return SaveResult{}, err
	}
	res := SaveResult{Settings: next, NeedsRestart: s.current.NeedsRestart(next)}
	s.current = next
	return res, nil
}

// Reload re-reads the file, typically after an external edit.
func (s *Store) Reload() (SaveResult, error) {
	next, err := load(s.path)
	if err != nil {
		return SaveResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res := SaveResult{Settings: next, NeedsRestart: s.current.NeedsRestart(next)}
	s.current = next
	return res, nil
}

func load(path string) (Settings, error) {
	defaults := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaults, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	// yaml merges into an existing map, so seating is only defaulted
	// when the file has none.
	s := defaults
	s.Seating = nil
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if s.Seating == nil {
		s.Seating = defaults.Seating
	}
	s.normalize()
	if err := s.checkShortcuts(); err != nil {
		return Settings{}, fmt.Errorf("settings %s: %w", path, err)
	}
	if err := s.Seating.Validate(); err != nil {
		return Settings{}, fmt.Errorf("settings %s: %w", path, err)
	}
	return s, nil
}

func write(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
