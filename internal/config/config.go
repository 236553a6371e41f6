// Package config loads and saves the peer's TOML configuration file.
package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"
	"github.com/spf13/viper"
)

var log = logging.Logger("config")

// bootstrapRelay is the default relay multiaddr baked in when none is
// configured, matching the client's own baked-in default.
const bootstrapRelay = "/ip4/127.0.0.1/udp/4001/quic-v1/p2p/12D3KooWDpJ7As7BWAwRMfu1VU2WCqNjvq387JEYKDBj4kx6nXTN"

// Config is the peer's on-disk, user-editable configuration.
type Config struct {
	Username    string   `mapstructure:"username" toml:"username"`
	MediaDirs   []string `mapstructure:"media_dirs" toml:"media_dirs"`
	Relay       string   `mapstructure:"relay" toml:"relay"`
	Room        string   `mapstructure:"room" toml:"room"`
	Password    string   `mapstructure:"password" toml:"password"`
	AutoConnect bool     `mapstructure:"auto_connect" toml:"auto_connect"`
}

// Default returns a Config with the same fallbacks the original client
// uses when no file is present: OS account name, baked-in bootstrap relay,
// nothing else.
func Default() Config {
	return Config{
		Username:    defaultUsername(),
		MediaDirs:   nil,
		Relay:       bootstrapRelay,
		Room:        "",
		Password:    "",
		AutoConnect: false,
	}
}

func defaultUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "peer"
}

// FilePath returns the default config.toml location under the platform
// config directory.
func FilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine config dir: %w", err)
	}
	return filepath.Join(dir, "meshwatch", "config.toml"), nil
}

// Load reads and parses the config file at path.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads the config at path, falling back to defaults with a
// warning log on any error — a missing or corrupt config file is never
// fatal.
func LoadOrDefault(path string) Config {
	cfg, err := Load(path)
	if err != nil {
		log.Warnw("no config loaded, using defaults", "path", path, "error", err)
		return Default()
	}
	return cfg
}

// Save writes cfg as TOML to path, creating parent directories as needed.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	v := viper.New()
	v.SetConfigType("toml")
	v.Set("username", c.Username)
	v.Set("media_dirs", c.MediaDirs)
	v.Set("relay", c.Relay)
	v.Set("room", c.Room)
	v.Set("password", c.Password)
	v.Set("auto_connect", c.AutoConnect)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
