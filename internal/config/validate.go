package config

import (
	"errors"
	"fmt"

	"github.com/genricoloni/lavaqueue/internal/domain"
	"github.com/genricoloni/lavaqueue/internal/rest"
	"go.uber.org/zap/zapcore"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Node.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("node: %w", err))
	}
	if err := c.Discord.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("discord: %w", err))
	}
	if err := c.Player.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("player: %w", err))
	}
	if err := c.Artwork.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("artwork: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks NodeConfig for errors.
func (c *NodeConfig) Validate() error {
	if c.Host == "" {
		return errors.New("host must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if err := rest.ValidatePassphrase(c.Passphrase); err != nil {
		return err
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("requests_per_second must be non-negative")
	}
	if c.ResumeTimeout < 0 {
		return errors.New("resume_timeout must be non-negative")
	}
	return nil
}

// Validate checks DiscordConfig for errors.
func (c *DiscordConfig) Validate() error {
	if c.Token == "" {
		return &domain.ConfigurationError{Field: "Discord.Token", Reason: "must not be empty"}
	}
	return nil
}

// Validate checks PlayerConfig for errors.
func (c *PlayerConfig) Validate() error {
	if _, ok := domain.ParseRepeatMode(c.RepeatMode); !ok {
		return fmt.Errorf("invalid repeat_mode %q", c.RepeatMode)
	}
	if c.EventTimeout < 0 {
		return errors.New("event_timeout must be non-negative")
	}
	return nil
}

// Validate checks ArtworkConfig for errors.
func (c *ArtworkConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.OutputDir == "" {
		return errors.New("output_dir must be set when artwork is enabled")
	}
	if c.Size < 16 || c.Size > 4096 {
		return fmt.Errorf("size %d out of range", c.Size)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size %d must not be negative", c.CacheSize)
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level %q", c.Level)
	}
	return nil
}
