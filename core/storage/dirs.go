// Package storage resolves the platform-native directories compass keeps its
// configuration, database, and logs in, with XDG overrides honored.
package storage

import (
	"os"
	"path/filepath"
	"sync"
)

// Dirs holds the resolved per-user directories.
type Dirs struct {
	Config string // settings, persona overrides
	Data   string // the sqlite database
	State  string // logs
}

var (
	globalDirs     *Dirs
	globalDirsOnce sync.Once
)

// ResolveDirs returns the platform-appropriate directories. Results are
// cached after the first call.
func ResolveDirs() *Dirs {
	globalDirsOnce.Do(func() {
		globalDirs = &Dirs{
			Config: resolveDir("XDG_CONFIG_HOME", platformConfigDefault()),
			Data:   resolveDir("XDG_DATA_HOME", platformDataDefault()),
			State:  resolveDir("XDG_STATE_HOME", platformStateDefault()),
		}
	})
	return globalDirs
}

func resolveDir(envVar, fallback string) string {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, "compass")
	}
	return fallback
}

// ConfigDir returns a path under the config directory.
func (d *Dirs) ConfigDir(subpath ...string) string {
	return filepath.Join(append([]string{d.Config}, subpath...)...)
}

// DataDir returns a path under the data directory.
func (d *Dirs) DataDir(subpath ...string) string {
	return filepath.Join(append([]string{d.Data}, subpath...)...)
}

// StateDir returns a path under the state directory.
func (d *Dirs) StateDir(subpath ...string) string {
	return filepath.Join(append([]string{d.State}, subpath...)...)
}

// PersonasDir is where persona override YAML files live.
func (d *Dirs) PersonasDir() string {
	return d.ConfigDir("personas")
}

// DatabasePath is the default sqlite database location.
func (d *Dirs) DatabasePath() string {
	return d.DataDir("compass.db")
}

// LogDir returns the log directory.
func (d *Dirs) LogDir() string {
	return d.StateDir("logs")
}

// EnsureAll creates the standard directories. Config is restricted to the
// owner since it may hold API keys.
func (d *Dirs) EnsureAll() error {
	if err := os.MkdirAll(d.Config, 0700); err != nil {
		return err
	}
	if err := os.MkdirAll(d.PersonasDir(), 0700); err != nil {
		return err
	}
	for _, dir := range []string{d.Data, d.State, d.LogDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
