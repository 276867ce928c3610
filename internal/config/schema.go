package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Node    NodeConfig    `toml:"node" envPrefix:"NODE_"`
	Discord DiscordConfig `toml:"discord" envPrefix:"DISCORD_"`
	Player  PlayerConfig  `toml:"player" envPrefix:"PLAYER_"`
	Artwork ArtworkConfig `toml:"artwork" envPrefix:"ARTWORK_"`
	Log     LogConfig     `toml:"log" envPrefix:"LOG_"`
}

// NodeConfig holds the connection settings of the audio node.
type NodeConfig struct {
	Host       string `toml:"host" env:"HOST"`
	Port       int    `toml:"port" env:"PORT"`
	Secure     bool   `toml:"secure" env:"SECURE"`
	Passphrase string `toml:"passphrase" env:"PASSPHRASE"`
	ClientName string `toml:"client_name" env:"CLIENT_NAME"`

	// ResumeKey names the resumable session; generated when empty.
	ResumeKey     string        `toml:"resume_key" env:"RESUME_KEY"`
	ResumeTimeout time.Duration `toml:"resume_timeout" env:"RESUME_TIMEOUT"`

	RequestTimeout    time.Duration `toml:"request_timeout" env:"REQUEST_TIMEOUT"`
	RequestsPerSecond float64       `toml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	Burst             int           `toml:"burst" env:"BURST"`

	ReconnectDelay    time.Duration `toml:"reconnect_delay" env:"RECONNECT_DELAY"`
	MaxReconnectDelay time.Duration `toml:"max_reconnect_delay" env:"MAX_RECONNECT_DELAY"`
}

// DiscordConfig holds the bot credentials.
type DiscordConfig struct {
	Token string `toml:"token" env:"TOKEN"`
	// UserID overrides the id sent to the node; taken from the gateway otherwise.
	UserID string `toml:"user_id" env:"USER_ID"`
}

// PlayerConfig holds the defaults of every guild player.
type PlayerConfig struct {
	RepeatMode               string        `toml:"repeat_mode" env:"REPEAT_MODE"`
	RespectTrackRepeatOnSkip bool          `toml:"respect_track_repeat_on_skip" env:"RESPECT_TRACK_REPEAT_ON_SKIP"`
	SelfDeaf                 bool          `toml:"self_deaf" env:"SELF_DEAF"`
	EventTimeout             time.Duration `toml:"event_timeout" env:"EVENT_TIMEOUT"`
}

// ArtworkConfig holds the now-playing card settings.
type ArtworkConfig struct {
	Enabled      bool          `toml:"enabled" env:"ENABLED"`
	OutputDir    string        `toml:"output_dir" env:"OUTPUT_DIR"`
	Size         int           `toml:"size" env:"SIZE"`
	BlurRadius   float64       `toml:"blur_radius" env:"BLUR_RADIUS"`
	Debounce     time.Duration `toml:"debounce" env:"DEBOUNCE"`
	FetchTimeout time.Duration `toml:"fetch_timeout" env:"FETCH_TIMEOUT"`

	// CacheSize is how many downloaded images are kept in memory; 0 disables
	// the cache.
	CacheSize int `toml:"cache_size" env:"CACHE_SIZE"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `toml:"level" env:"LEVEL"`
	File       string `toml:"file" env:"FILE"`
	MaxSizeMB  int    `toml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `toml:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `toml:"max_age_days" env:"MAX_AGE_DAYS"`
}
