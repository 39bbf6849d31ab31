package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinefabric/eeproxy-go/ipc"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eeproxy.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// TEST501: Defaults are valid and match the transport defaults
func Test501_defaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "unix", cfg.Network)
	assert.Equal(t, uint16(1), cfg.Version)
	assert.Equal(t, ipc.DefaultMaxFrame, cfg.Limits.MaxFrame)
}

// TEST502: Keys present in the file override defaults; absent keys keep them
func Test502_load_overrides(t *testing.T) {
	path := writeConfig(t, `
network = "TCP"
address = " 127.0.0.1:7100 "
max_frame = 65536
log_level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp", cfg.Network)
	assert.Equal(t, "127.0.0.1:7100", cfg.Address)
	assert.Equal(t, 65536, cfg.Limits.MaxFrame)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, Default().Name, cfg.Name)
	assert.Equal(t, Default().Version, cfg.Version)
}

// TEST503: Invalid values fail with an error naming the key
func Test503_load_rejects_invalid(t *testing.T) {
	cases := map[string]string{
		`network = "udp"`:      "network",
		`address = ""`:         "address",
		`name = " "`:           "name",
		`version = 70000`:      "version",
		`max_frame = 0`:        "max_frame",
		`max_frame = 99999999`: "max_frame",
		`log_level = "loud"`:   "log_level",
		`colour = "blue"`:      "colour",
	}
	for body, key := range cases {
		_, err := Load(writeConfig(t, body))
		require.Error(t, err, body)
		assert.True(t, errors.Is(err, ErrInvalidConfig), body)
		assert.Contains(t, err.Error(), key, body)
	}
}

// TEST504: A missing or malformed file is a load error
func Test504_load_errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "network = "))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidConfig))
}
