package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "conncache", cfg.Name)
	assert.Equal(t, 4, cfg.PoolCapacity)
	assert.Equal(t, 1024, cfg.MaxPools)
	assert.Equal(t, 10*time.Second, cfg.SendTimeout)
	assert.False(t, cfg.Spiffe.Enabled)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conncache.yaml")
	content := `
name: relay-cache
pool_capacity: 8
max_pools: 64
send_timeout: 5s
spiffe:
  enabled: true
  socket_path: unix:///run/spire/agent.sock
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "relay-cache", cfg.Name)
	assert.Equal(t, 8, cfg.PoolCapacity)
	assert.Equal(t, 64, cfg.MaxPools)
	assert.Equal(t, 5*time.Second, cfg.SendTimeout)
	assert.True(t, cfg.Spiffe.Enabled)
	assert.Equal(t, "unix:///run/spire/agent.sock", cfg.Spiffe.SocketPath)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("CONNCACHE_POOL_CAPACITY", "16")
	t.Setenv("CONNCACHE_SEND_TIMEOUT", "2s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.PoolCapacity)
	assert.Equal(t, 2*time.Second, cfg.SendTimeout)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "zero pool capacity",
			content: "pool_capacity: 0\n",
		},
		{
			name:    "capacity above cap",
			content: "pool_capacity: 4096\n",
		},
		{
			name:    "spiffe enabled without socket",
			content: "spiffe:\n  enabled: true\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "conncache.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
