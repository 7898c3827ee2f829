package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// TOMLConfig represents the structure of the server config file.
type TOMLConfig struct {
	Server    ServerSection    `toml:"server"`
	Chat      ChatSection      `toml:"chat"`
	Translate TranslateSection `toml:"translate"`
}

type ServerSection struct {
	TCPPort        int `toml:"tcp_port"`
	HTTPPort       int `toml:"http_port"`
	MetricsPort    int `toml:"metrics_port"`
	MaxConnections int `toml:"max_connections"`
}

type ChatSection struct {
	FirstMulticastAddr string `toml:"first_multicast_addr"`
}

type TranslateSection struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// DefaultTOMLConfig returns the default configuration.
func DefaultTOMLConfig() TOMLConfig {
	return TOMLConfig{
		Server: ServerSection{
			TCPPort:        5000,
			HTTPPort:       8080, // websocket bridge (/ws)
			MetricsPort:    9090, // internal only - never expose publicly!
			MaxConnections: 1024, // worker pool bound (0 = unbounded)
		},
		Chat: ChatSection{
			FirstMulticastAddr: "239.255.1.0",
		},
		Translate: TranslateSection{
			Enabled:        true,
			Endpoint:       "", // empty = public MyMemory API
			TimeoutSeconds: 5,
		},
	}
}

// LoadConfig loads configuration from a TOML file, creating the default
// file if it doesn't exist, then applies environment overrides.
func LoadConfig(path string) (TOMLConfig, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return TOMLConfig{}, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		config := DefaultTOMLConfig()
		if err := writeDefaultConfig(path, config); err != nil {
			// Can't write (permissions?) - still usable with defaults
			return applyEnvOverrides(config), nil
		}
		return applyEnvOverrides(config), nil
	}

	var config TOMLConfig
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return TOMLConfig{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	return applyEnvOverrides(config), nil
}

func writeDefaultConfig(path string, config TOMLConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(config)
}

// applyEnvOverrides lets deployments override the file without editing it.
func applyEnvOverrides(config TOMLConfig) TOMLConfig {
	if v := os.Getenv("SG_TCP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.TCPPort = port
		}
	}
	if v := os.Getenv("SG_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.HTTPPort = port
		}
	}
	if v := os.Getenv("SG_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.MetricsPort = port
		}
	}
	if v := os.Getenv("SG_MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Server.MaxConnections = n
		}
	}
	if v := os.Getenv("SG_MULTICAST_BASE"); v != "" {
		config.Chat.FirstMulticastAddr = v
	}
	if v := os.Getenv("SG_TRANSLATE_ENABLED"); v != "" {
		config.Translate.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("SG_TRANSLATE_ENDPOINT"); v != "" {
		config.Translate.Endpoint = v
	}
	return config
}

// ServerConfig holds the runtime server configuration.
type ServerConfig struct {
	TCPPort            int
	HTTPPort           int // websocket bridge port (0 = disabled)
	MetricsPort        int // internal metrics port (0 = disabled)
	MaxConnections     int // concurrent connection cap (0 = unbounded)
	FirstMulticastAddr string
}

// DefaultConfig returns the default runtime configuration.
func DefaultConfig() ServerConfig {
	return FromTOML(DefaultTOMLConfig())
}

// FromTOML converts a parsed config file to the runtime configuration.
func FromTOML(c TOMLConfig) ServerConfig {
	return ServerConfig{
		TCPPort:            c.Server.TCPPort,
		HTTPPort:           c.Server.HTTPPort,
		MetricsPort:        c.Server.MetricsPort,
		MaxConnections:     c.Server.MaxConnections,
		FirstMulticastAddr: c.Chat.FirstMulticastAddr,
	}
}
