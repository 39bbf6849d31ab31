// Package config loads the sandbox settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/machinefabric/eeproxy-go/ipc"
	"github.com/machinefabric/eeproxy-go/logging"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid")

// Config holds everything the executable needs to reach the service manager.
type Config struct {
	Network  string
	Address  string
	Name     string
	Version  uint16
	Limits   ipc.Limits
	LogLevel string
}

type fileConfig struct {
	Network  string `toml:"network"`
	Address  string `toml:"address"`
	Name     string `toml:"name"`
	Version  int    `toml:"version"`
	MaxFrame int    `toml:"max_frame"`
	LogLevel string `toml:"log_level"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Network:  "unix",
		Address:  "/tmp/ee.socket",
		Name:     "go",
		Version:  1,
		Limits:   ipc.DefaultLimits(),
		LogLevel: "info",
	}
}

// Load reads path on top of Default. Keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
	}

	if meta.IsDefined("network") {
		cfg.Network = strings.ToLower(strings.TrimSpace(raw.Network))
	}
	if meta.IsDefined("address") {
		cfg.Address = strings.TrimSpace(raw.Address)
	}
	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("version") {
		if raw.Version < 0 || raw.Version > 0xffff {
			return Config{}, fmt.Errorf("%w: version %d out of range", ErrInvalidConfig, raw.Version)
		}
		cfg.Version = uint16(raw.Version)
	}
	if meta.IsDefined("max_frame") {
		cfg.Limits.MaxFrame = raw.MaxFrame
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings, naming the first offending key.
func (c Config) Validate() error {
	switch c.Network {
	case "unix", "tcp":
	default:
		return fmt.Errorf("%w: network %q must be unix or tcp", ErrInvalidConfig, c.Network)
	}
	if c.Address == "" {
		return fmt.Errorf("%w: address is empty", ErrInvalidConfig)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidConfig)
	}
	if c.Limits.MaxFrame <= 0 || c.Limits.MaxFrame > ipc.MaxFrameHardLimit {
		return fmt.Errorf("%w: max_frame %d outside 1..%d", ErrInvalidConfig, c.Limits.MaxFrame, ipc.MaxFrameHardLimit)
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}
