// Package prefs persists choices made inside the rdlink TUI.
// Preferences live in $XDG_STATE_HOME/rdlink/prefs.toml, apart from the
// hand-edited config file.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds TUI preferences. An empty Theme defers to the config file.
type Prefs struct {
	Theme string `toml:"theme"`
}

const prefsRelPath = "rdlink/prefs.toml"

// DefaultPath returns the preferences file under the XDG state home.
func DefaultPath() string {
	return filepath.Join(xdg.StateHome, filepath.FromSlash(prefsRelPath))
}

// Load reads preferences from path (DefaultPath when empty). A missing or
// unreadable file yields zero Prefs and the read error, if any, for logging.
func Load(path string) (Prefs, error) {
	data, err := os.ReadFile(orDefault(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Prefs{}, nil
		}
		return Prefs{}, fmt.Errorf("read prefs: %w", err)
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Prefs{}, fmt.Errorf("parse prefs: %w", err)
	}
	p.Theme = strings.TrimSpace(p.Theme)
	return p, nil
}

// Save writes preferences to path (DefaultPath when empty), creating
// directories as needed.
func Save(path string, p Prefs) error {
	resolved := orDefault(path)
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func orDefault(path string) string {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		return trimmed
	}
	return DefaultPath()
}
