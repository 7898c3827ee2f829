package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTOMLConfig(), config)

	// The default file was materialized and parses back identically
	_, err = os.Stat(path)
	require.NoError(t, err)

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config, reloaded)
}

func TestLoadConfigParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
tcp_port = 6000
http_port = 0
metrics_port = 0
max_connections = 16

[chat]
first_multicast_addr = "239.1.2.3"

[translate]
enabled = false
`), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	runtime := FromTOML(config)
	assert.Equal(t, 6000, runtime.TCPPort)
	assert.Equal(t, 0, runtime.HTTPPort)
	assert.Equal(t, 16, runtime.MaxConnections)
	assert.Equal(t, "239.1.2.3", runtime.FirstMulticastAddr)
	assert.False(t, config.Translate.Enabled)
}

func TestLoadConfigInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte("not toml {{{"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SG_TCP_PORT", "7777")
	t.Setenv("SG_MAX_CONNECTIONS", "8")
	t.Setenv("SG_MULTICAST_BASE", "239.9.9.9")
	t.Setenv("SG_TRANSLATE_ENABLED", "false")

	config, err := LoadConfig(filepath.Join(t.TempDir(), "server.toml"))
	require.NoError(t, err)

	assert.Equal(t, 7777, config.Server.TCPPort)
	assert.Equal(t, 8, config.Server.MaxConnections)
	assert.Equal(t, "239.9.9.9", config.Chat.FirstMulticastAddr)
	assert.False(t, config.Translate.Enabled)
}
