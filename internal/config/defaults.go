package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/genricoloni/lavaqueue/internal/rest"
)

// Default returns a Config populated with defaults matching a stock node.
func Default() *Config {
	return &Config{
		Node: NodeConfig{
			Host:              "localhost",
			Port:              2333,
			Passphrase:        rest.DefaultPassphrase,
			ClientName:        "lavaqueue",
			ResumeTimeout:     60 * time.Second,
			RequestTimeout:    10 * time.Second,
			ReconnectDelay:    time.Second,
			MaxReconnectDelay: 30 * time.Second,
		},
		Player: PlayerConfig{
			RepeatMode:   "none",
			SelfDeaf:     true,
			EventTimeout: 10 * time.Second,
		},
		Artwork: ArtworkConfig{
			OutputDir:    filepath.Join(os.TempDir(), "lavaqueue"),
			Size:         512,
			BlurRadius:   15,
			Debounce:     500 * time.Millisecond,
			FetchTimeout: 10 * time.Second,
			CacheSize:    32,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
