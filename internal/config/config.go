package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/devlink-io/devlink/internal/session"
	"github.com/devlink-io/devlink/internal/storage"
	"github.com/devlink-io/devlink/internal/transport"
)

// Config holds configuration for the devlink binary.
type Config struct {
	Port         string        // serial port name, or a ws:// URL for a bridged device
	Baud         int           // serial line speed
	Timeout      time.Duration // read deadline for every blocking operation
	ChunkSize    int           // data bytes per write frame
	StatPrefetch bool          // stat files before reading for sized progress
	KeepAlive    time.Duration // quiet period before a mid-write ping
	LogLevel     string
}

// Parse reads configuration from flags and environment variables and
// returns it with the remaining positional arguments (subcommand and its
// operands). Flags take precedence over environment variables.
func Parse() (Config, []string) {
	return parseWithFlagSet(flag.CommandLine, os.Args[1:])
}

// parseWithFlagSet is an internal helper for testing with isolated flag sets.
func parseWithFlagSet(fs *flag.FlagSet, args []string) (Config, []string) {
	cfg := Config{
		Baud:         transport.DefaultBaud,
		Timeout:      session.DefaultTimeout,
		ChunkSize:    storage.DefaultChunkSize,
		StatPrefetch: true,
		KeepAlive:    storage.DefaultKeepAlive,
		LogLevel:     "info",
	}

	// Read from environment first
	if port := os.Getenv("DEVLINK_PORT"); port != "" {
		cfg.Port = port
	}
	if baud := os.Getenv("DEVLINK_BAUD"); baud != "" {
		if n, err := strconv.Atoi(baud); err == nil && n > 0 {
			cfg.Baud = n
		}
	}
	if timeout := os.Getenv("DEVLINK_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if logLevel := os.Getenv("DEVLINK_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Flags override environment
	fs.StringVar(&cfg.Port, "port", cfg.Port, "serial port name or ws:// bridge URL")
	fs.IntVar(&cfg.Baud, "baud", cfg.Baud, "serial line speed")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "read deadline for blocking operations")
	fs.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "data bytes per write frame")
	fs.BoolVar(&cfg.StatPrefetch, "stat-prefetch", cfg.StatPrefetch, "stat files before reading for sized progress")
	fs.DurationVar(&cfg.KeepAlive, "keep-alive", cfg.KeepAlive, "quiet period before a mid-write ping")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.Parse(args)

	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = storage.DefaultChunkSize
	}

	return cfg, fs.Args()
}
