package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "roomdj"

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Room    RoomConfig    `koanf:"room"`
	YouTube YouTubeConfig `koanf:"youtube"`
	Storage StorageConfig `koanf:"storage"`
	Log     LogConfig     `koanf:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `koanf:"addr"` // default ":8080"
	// ModeratorToken grants moderator rights to chat connections that
	// present it. Empty disables moderator commands.
	ModeratorToken string `koanf:"moderator_token"`
}

// RoomConfig holds per-room playback settings.
type RoomConfig struct {
	VotesToSkip int `koanf:"votes_to_skip"` // default 3
}

// YouTubeConfig holds YouTube Data API settings.
type YouTubeConfig struct {
	APIKey         string `koanf:"api_key"`
	BaseURL        string `koanf:"base_url"`
	TimeoutSeconds int    `koanf:"timeout_seconds"` // default 10
}

// StorageConfig selects where room state is kept.
type StorageConfig struct {
	Driver string `koanf:"driver"` // "sqlite" or "memory" (default: "sqlite")
	Path   string `koanf:"path"`   // empty uses the XDG data directory
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"` // zerolog level name (default: "info")
	Pretty bool   `koanf:"pretty"`
}

// Load reads the default config locations followed by extra, later files
// overriding earlier ones. Missing default files are skipped; a missing
// extra file is an error.
func Load(extra ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, "load %s", path)
			}
		}
	}
	for _, path := range extra {
		if path == "" {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "load %s", path)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if cfg.Storage.Path != "" {
		cfg.Storage.Path = expandPath(cfg.Storage.Path)
	}
	cfg.YouTube.BaseURL = strings.TrimSuffix(cfg.YouTube.BaseURL, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/roomdj/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasYouTubeConfig returns true if song lookups can be made.
func (c *Config) HasYouTubeConfig() bool {
	return c.YouTube.APIKey != ""
}

// GetServerConfig returns the server configuration with defaults applied.
func (c *Config) GetServerConfig() ServerConfig {
	cfg := c.Server
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return cfg
}

// GetRoomConfig returns the room configuration with defaults applied.
func (c *Config) GetRoomConfig() RoomConfig {
	cfg := c.Room
	if cfg.VotesToSkip <= 0 {
		cfg.VotesToSkip = 3
	}
	return cfg
}

// GetYouTubeConfig returns the YouTube configuration with defaults applied.
func (c *Config) GetYouTubeConfig() YouTubeConfig {
	cfg := c.YouTube
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.googleapis.com/youtube/v3"
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 10
	}
	return cfg
}

// Timeout returns the lookup timeout as a duration.
func (c YouTubeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetStorageConfig returns the storage configuration with defaults applied.
func (c *Config) GetStorageConfig() StorageConfig {
	cfg := c.Storage
	switch strings.ToLower(cfg.Driver) {
	case DriverMemory:
		cfg.Driver = DriverMemory
	default:
		cfg.Driver = DriverSQLite
	}
	return cfg
}

// GetLogConfig returns the log configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	return cfg
}
