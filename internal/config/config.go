// Package config loads the daemon configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/genricoloni/lavaqueue/internal/domain"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LAVAQUEUE_"

// Load reads and validates the configuration.
func Load(path, envFile string) (*Config, error) {
	cfg, err := Read(path, envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Read builds the configuration without validating it: defaults, then the
// TOML file at path (if any), then the .env file at envFile (if it exists),
// then LAVAQUEUE_* environment variables.
func Read(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// RESTURL returns the base URL of the node's REST API.
func (c *NodeConfig) RESTURL() string {
	scheme := "http"
	if c.Secure {
		scheme = "https"
	}
	return scheme + "://" + c.address()
}

// SocketURL returns the node's websocket endpoint.
func (c *NodeConfig) SocketURL() string {
	scheme := "ws"
	if c.Secure {
		scheme = "wss"
	}
	return scheme + "://" + c.address() + "/v4/websocket"
}

func (c *NodeConfig) address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Mode returns the parsed initial repeat mode.
func (c *PlayerConfig) Mode() domain.RepeatMode {
	m, _ := domain.ParseRepeatMode(c.RepeatMode)
	return m
}
