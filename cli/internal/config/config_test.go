package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	return home
}

func TestLoadMissingFile(t *testing.T) {
	setTempHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Server)
	assert.False(t, cfg.Joined())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	home := setTempHome(t)

	cfg := &Config{Server: "https://board.example.com", Username: "alice"}
	require.NoError(t, Save(cfg))

	// A device identity is minted on first save
	assert.Len(t, cfg.DeviceID, 36)

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://board.example.com", loaded.Server)
	assert.Equal(t, "alice", loaded.Username)
	assert.Equal(t, cfg.DeviceID, loaded.DeviceID)
	assert.True(t, loaded.Joined())

	if runtime.GOOS != "windows" {
		info, statErr := os.Stat(filepath.Join(home, ".ccboard.yaml"))
		require.NoError(t, statErr)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestSaveKeepsExistingDeviceID(t *testing.T) {
	setTempHome(t)

	cfg := &Config{Server: "https://board.example.com", DeviceID: "preset-device-id"}
	require.NoError(t, Save(cfg))
	assert.Equal(t, "preset-device-id", cfg.DeviceID)
}
