package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RCFile is the optional ~/.emberrc.yaml a host reads at startup,
// following the teacher's ext/config.go (funxy.yaml) load-and-validate
// shape, scaled down to two settings: a module path, and where the
// REPL keeps its history database.
type RCFile struct {
	// ModulePath lists directories for source-module lookup. It is parsed
	// and kept here, but nothing reads it: `import name` resolves only
	// registered native modules.
	ModulePath []string `yaml:"module_path,omitempty"`

	// HistoryFile is the sqlite database internal/replhist opens for
	// REPL line history. Empty means "use the default".
	HistoryFile string `yaml:"history_file,omitempty"`
}

// DefaultHistoryFile is used when the rc file is absent or leaves
// HistoryFile blank.
func DefaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ember_history.db"
	}
	return filepath.Join(home, ".ember_history.db")
}

// Load reads path and parses it as an RCFile. A missing file is not an
// error: it returns a zero-value RCFile so callers can apply defaults.
func Load(path string) (*RCFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &RCFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var rc RCFile
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &rc, nil
}

// DefaultPath returns ~/.emberrc.yaml, or "" if the home directory
// cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".emberrc.yaml")
}

// EffectiveHistoryFile resolves the configured history path, falling
// back to DefaultHistoryFile when unset.
func (rc *RCFile) EffectiveHistoryFile() string {
	if rc.HistoryFile != "" {
		return rc.HistoryFile
	}
	return DefaultHistoryFile()
}
