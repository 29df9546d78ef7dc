package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDirHonorsXDGOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, filepath.Join("/custom/config", "compass"), resolveDir("XDG_CONFIG_HOME", "/fallback"))

	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Equal(t, "/fallback", resolveDir("XDG_CONFIG_HOME", "/fallback"))
}

func TestDirPaths(t *testing.T) {
	d := &Dirs{Config: "/c", Data: "/d", State: "/s"}

	assert.Equal(t, filepath.Join("/c", "config.yaml"), d.ConfigDir("config.yaml"))
	assert.Equal(t, filepath.Join("/c", "personas"), d.PersonasDir())
	assert.Equal(t, filepath.Join("/d", "compass.db"), d.DatabasePath())
	assert.Equal(t, filepath.Join("/s", "logs"), d.LogDir())
}

func TestEnsureAll(t *testing.T) {
	base := t.TempDir()
	d := &Dirs{
		Config: filepath.Join(base, "config"),
		Data:   filepath.Join(base, "data"),
		State:  filepath.Join(base, "state"),
	}

	require.NoError(t, d.EnsureAll())
	assert.DirExists(t, d.PersonasDir())
	assert.DirExists(t, d.LogDir())
}
