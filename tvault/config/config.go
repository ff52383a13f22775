// Package config loads runtime configuration via viper from a YAML file
// or environment variables.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/ZanzyTHEbar/textvault/tvault"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Client   ClientConfig   `mapstructure:"client"`
}

// ServerConfig stores HTTP server specific configurations.
type ServerConfig struct {
	ListenAddr   string        `mapstructure:"listen_addr"`
	AuthToken    string        `mapstructure:"auth_token"`    // shared secret; empty means misconfigured
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`  // per-request read deadline
	WriteTimeout time.Duration `mapstructure:"write_timeout"` // per-request write deadline
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// StoreConfig selects and configures the object-store backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend"` // "local", "libsql", "memory"
	Root    string `mapstructure:"root"`    // local backend root directory
	DBPath  string `mapstructure:"db_path"` // libsql database file
	Watch   bool   `mapstructure:"watch"`   // fsnotify invalidation for the local backend
}

// SnapshotConfig bounds the client-side write-behind cache.
type SnapshotConfig struct {
	Dir        string `mapstructure:"dir"`
	MaxEntries int    `mapstructure:"max_entries"`
}

// ClientConfig stores editor client configurations.
type ClientConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(internal.DefaultConfigPath)
		v.AddConfigPath(filepath.Join(internal.DefaultDataDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Server defaults
	v.SetDefault("server.listen_addr", internal.DefaultListenAddr)
	v.SetDefault("server.auth_token", "")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "2m")

	// Store defaults
	v.SetDefault("store.backend", internal.DefaultStoreBackend)
	v.SetDefault("store.root", internal.DefaultStoreRoot)
	v.SetDefault("store.db_path", internal.DefaultDatabasePath)
	v.SetDefault("store.watch", true)

	// Snapshot defaults
	v.SetDefault("snapshot.dir", internal.DefaultSnapshotDir)
	v.SetDefault("snapshot.max_entries", internal.DefaultSnapshotCap)

	// Client defaults
	v.SetDefault("client.base_url", "http://localhost"+internal.DefaultListenAddr)
	v.SetDefault("client.token", "")

	v.SetEnvPrefix("TEXTVAULT")
	v.AutomaticEnv()
	// server.auth_token becomes TEXTVAULT_SERVER_AUTH_TOKEN
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults and env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	return &cfg, nil
}
