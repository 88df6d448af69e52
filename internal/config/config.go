// Package config resolves runtime settings from flags, the environment and
// an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/quiznote/internal/bank"
	"github.com/abhisek/quiznote/internal/store"
)

// Environment variables.
const (
	EnvDB           = "QUIZNOTE_DB"
	EnvBank         = "QUIZNOTE_BANK"
	EnvLog          = "QUIZNOTE_LOG"
	EnvLogLevel     = "QUIZNOTE_LOG_LEVEL"
	EnvSeed         = "QUIZNOTE_SEED"
	EnvFetchTimeout = "QUIZNOTE_FETCH_TIMEOUT"
)

// DefaultBank is the bank location used when none is configured.
const DefaultBank = "./data"

// Config is the resolved runtime configuration.
type Config struct {
	DBPath       string
	Bank         string
	LogPath      string
	LogLevel     slog.Level
	Seed         int64
	FetchTimeout time.Duration
}

// Flags carries command-line overrides. Empty fields are unset.
type Flags struct {
	DB       string
	Bank     string
	Log      string
	LogLevel string
	Seed     string
}

// Load resolves the configuration. Each setting comes from the flag, then
// the environment, then envFile, then its default. A missing envFile is
// ignored; pass "" for ".env".
func Load(flags Flags, envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables already set, so the real
	// environment wins over the file.
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{
		Bank:         pick(flags.Bank, os.Getenv(EnvBank), DefaultBank),
		FetchTimeout: bank.DefaultFetchTimeout,
	}

	if p := pick(flags.DB, os.Getenv(EnvDB), ""); p != "" {
		cfg.DBPath = p
	} else {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		cfg.DBPath = p
	}
	if err := store.EnsureDir(cfg.DBPath); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	cfg.LogPath = pick(flags.Log, os.Getenv(EnvLog), filepath.Join(filepath.Dir(cfg.DBPath), "quiznote.log"))

	level := pick(flags.LogLevel, os.Getenv(EnvLogLevel), "info")
	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	if s := pick(flags.Seed, os.Getenv(EnvSeed), ""); s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse seed %q: %w", s, err)
		}
		cfg.Seed = seed
	}

	if s := os.Getenv(EnvFetchTimeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("%s=%q is not a valid duration: %w", EnvFetchTimeout, s, err)
		}
		cfg.FetchTimeout = d
	}

	return cfg, nil
}

// pick returns the first non-empty value.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
