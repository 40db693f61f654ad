// Package config holds cmd/piccolo's resolved runtime settings: log
// level, cache backend selection, and REPL history path. Grounded on
// the teacher's internal/vm.VMConfig (estevaofon-noxy), generalized
// from a single RootPath field into the CLI's full flag surface.
package config

import (
	"os"
	"path/filepath"
)

// CacheBackend names a bytecode-cache implementation (SPEC_FULL.md §10).
type CacheBackend string

const (
	CacheNone     CacheBackend = "none"
	CacheSQLite   CacheBackend = "sqlite"
	CacheDynamoDB CacheBackend = "dynamodb"
)

// Config is the CLI's resolved configuration, built from flags with
// environment-variable fallbacks (PICCOLO_LOG_LEVEL, PICCOLO_CACHE,
// PICCOLO_HISTORY), mirroring VMConfig's role as the single struct
// threaded through command construction.
type Config struct {
	LogLevel     string
	CacheBackend CacheBackend
	CachePath    string // sqlite file path
	AWSRegion    string
	DynamoTable  string
	HistoryPath  string
}

// Default returns the configuration used when no flags or environment
// variables override it.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		LogLevel:     "info",
		CacheBackend: CacheSQLite,
		CachePath:    filepath.Join(home, ".piccolo", "cache.db"),
		AWSRegion:    "us-east-1",
		HistoryPath:  filepath.Join(home, ".piccolo", "history"),
	}
}

// ApplyEnv overlays PICCOLO_* environment variables onto c.
func (c Config) ApplyEnv() Config {
	if v := os.Getenv("PICCOLO_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PICCOLO_CACHE"); v != "" {
		c.CacheBackend = CacheBackend(v)
	}
	if v := os.Getenv("PICCOLO_CACHE_PATH"); v != "" {
		c.CachePath = v
	}
	if v := os.Getenv("PICCOLO_AWS_REGION"); v != "" {
		c.AWSRegion = v
	}
	if v := os.Getenv("PICCOLO_DYNAMO_TABLE"); v != "" {
		c.DynamoTable = v
	}
	if v := os.Getenv("PICCOLO_HISTORY"); v != "" {
		c.HistoryPath = v
	}
	return c
}

// EnsureCacheDir makes the parent directory of CachePath/HistoryPath,
// since the default lives under $HOME/.piccolo which may not exist yet.
func (c Config) EnsureCacheDir() error {
	if err := os.MkdirAll(filepath.Dir(c.CachePath), 0o755); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Dir(c.HistoryPath), 0o755)
}
