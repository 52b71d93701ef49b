package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Storage backend names
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageBadger = "badger"
)

// Config is the server configuration read from the environment
type Config struct {
	Host     string `env:"FIR_HOST,default=0.0.0.0"`
	Port     int    `env:"FIR_PORT,default=8080"`
	LogLevel string `env:"FIR_LOG_LEVEL,default=info"`

	Storage    string `env:"FIR_STORAGE,default=memory"`
	RedisURL   string `env:"FIR_REDIS_URL"`
	BadgerPath string `env:"FIR_BADGER_PATH,default=data/firgame"`

	ConnBuffer     int `env:"FIR_CONN_BUFFER,default=16"`
	RoomBuffer     int `env:"FIR_ROOM_BUFFER,default=16"`
	StoreBuffer    int `env:"FIR_STORE_BUFFER,default=10"`
	DispatchBuffer int `env:"FIR_DISPATCH_BUFFER,default=100"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	_ = godotenv.Load(files...)

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once
func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("FIR_PORT must be in 1..65535, got %d", c.Port))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	switch c.Storage {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("FIR_REDIS_URL is required when FIR_STORAGE=redis"))
		}
	case StorageBadger:
		if c.BadgerPath == "" {
			errs = append(errs, errors.New("FIR_BADGER_PATH is required when FIR_STORAGE=badger"))
		}
	default:
		errs = append(errs, fmt.Errorf("FIR_STORAGE must be memory, redis or badger, got %q", c.Storage))
	}

	for name, v := range map[string]int{
		"FIR_CONN_BUFFER":     c.ConnBuffer,
		"FIR_ROOM_BUFFER":     c.RoomBuffer,
		"FIR_STORE_BUFFER":    c.StoreBuffer,
		"FIR_DISPATCH_BUFFER": c.DispatchBuffer,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}

	return errors.Join(errs...)
}

// Addr is the listen address
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Level returns the parsed log level; Validate guarantees it parses
func (c Config) Level() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel maps a level name to a slog level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("FIR_LOG_LEVEL %q is not one of debug, info, warn, error", s)
	}
}
