// Package config loads host settings from swimlane.yaml and SWIMLANE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no explicit path is given. It is optional.
const DefaultFile = "swimlane.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SWIMLANE_"

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config holds everything a host needs to open a board.
type Config struct {
	Board          string `mapstructure:"board"`
	Store          Store  `mapstructure:"store"`
	EncryptionKey  string `mapstructure:"encryption_key"`
	LogLevel       string `mapstructure:"log_level"`
	Listen         string `mapstructure:"listen"`
	ReorderHistory string `mapstructure:"reorder_history"`
}

// Store selects and configures the durable store.
type Store struct {
	Kind  string `mapstructure:"kind"`
	Dir   string `mapstructure:"dir"`
	Redis Redis  `mapstructure:"redis"`
}

// Redis configures the redis store and distributed locker.
type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Board:          "lanesState",
		Store:          Store{Kind: StoreFile, Dir: ".swimlane/boards"},
		LogLevel:       "warn",
		Listen:         ":8080",
		ReorderHistory: "crowded",
	}
}

// envKeys maps environment suffixes to config paths.
var envKeys = map[string][]string{
	"BOARD":           {"board"},
	"STORE":           {"store", "kind"},
	"STORE_DIR":       {"store", "dir"},
	"REDIS_ADDR":      {"store", "redis", "addr"},
	"REDIS_PASSWORD":  {"store", "redis", "password"},
	"REDIS_DB":        {"store", "redis", "db"},
	"REDIS_PREFIX":    {"store", "redis", "prefix"},
	"REDIS_TTL":       {"store", "redis", "ttl"},
	"ENCRYPTION_KEY":  {"encryption_key"},
	"LOG_LEVEL":       {"log_level"},
	"LISTEN":          {"listen"},
	"REORDER_HISTORY": {"reorder_history"},
}

// LookupFunc reads one environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load reads path (or DefaultFile when path is empty), applies environment overrides and validates.
// A missing DefaultFile is not an error; a missing explicit path is.
func Load(path string, lookup LookupFunc) (Config, error) {
	raw := map[string]any{}

	file := path
	if file == "" {
		file = DefaultFile
	}
	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", file, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	case path == "" && errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config %s: %w", file, err)
	}

	if lookup != nil {
		overlayEnv(raw, lookup)
	}

	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overlayEnv(raw map[string]any, lookup LookupFunc) {
	for suffix, path := range envKeys {
		value, ok := lookup(EnvPrefix + suffix)
		if !ok {
			continue
		}
		node := raw
		for _, part := range path[:len(path)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[part] = child
			}
			node = child
		}
		node[path[len(path)-1]] = value
	}
}

// Validate rejects unknown store kinds and reorder policies.
func (c Config) Validate() error {
	switch c.Store.Kind {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	switch strings.ToLower(c.ReorderHistory) {
	case "crowded", "always":
	default:
		return fmt.Errorf("unknown reorder_history %q (want crowded or always)", c.ReorderHistory)
	}
	if strings.TrimSpace(c.Board) == "" {
		return errors.New("board must not be empty")
	}
	return nil
}
