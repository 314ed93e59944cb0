// Package logging
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Structured logging setup shared by pools, caches, endpoints and tools.
// Components log through zerolog child loggers tagged with their name.

package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the logging configuration.
type Config struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level" yaml:"level"`
	// Format is the log format (json or console).
	Format string `toml:"format" yaml:"format"`
	// Output is the destination (stdout, stderr, file or both).
	Output string `toml:"output" yaml:"output"`
	// FilePath is the log file path when Output is file or both.
	FilePath string `toml:"file_path" yaml:"file_path"`
	// MaxSize is the size in megabytes before rotation.
	MaxSize int `toml:"max_size" yaml:"max_size"`
	// MaxBackups is the number of rotated files to keep.
	MaxBackups int `toml:"max_backups" yaml:"max_backups"`
	// MaxAge is the number of days to keep rotated files.
	MaxAge int `toml:"max_age" yaml:"max_age"`
	// Compress gzips rotated files.
	Compress bool `toml:"compress" yaml:"compress"`
}

// DefaultConfig returns a Config writing info-level JSON to stderr.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "json",
		Output:     "stderr",
		FilePath:   "logs/hioload-udp.log",
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
}

// Setup configures the global zerolog logger from cfg.
func Setup(cfg Config) error {
	SetLevel(cfg.Level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var writers []io.Writer
	switch cfg.Output {
	case "file":
		w, err := fileWriter(cfg)
		if err != nil {
			return err
		}
		writers = append(writers, w)
	case "both":
		w, err := fileWriter(cfg)
		if err != nil {
			return err
		}
		writers = append(writers, consoleWriter(os.Stdout, cfg.Format), w)
	case "stdout":
		writers = append(writers, consoleWriter(os.Stdout, cfg.Format))
	default:
		writers = append(writers, consoleWriter(os.Stderr, cfg.Format))
	}

	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
	log.Debug().
		Str("level", cfg.Level).
		Str("format", cfg.Format).
		Str("output", cfg.Output).
		Msg("logger initialized")
	return nil
}

// SetLevel changes the global level; unknown names fall back to info.
func SetLevel(name string) {
	level, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// Component returns a child of the global logger tagged with component.
func Component(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Or returns *l when set, otherwise the named component logger.
func Or(l *zerolog.Logger, component string) zerolog.Logger {
	if l == nil {
		return Component(component)
	}
	return l.With().Str("component", component).Logger()
}

func consoleWriter(out io.Writer, format string) io.Writer {
	if format == "console" {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05.000"}
	}
	return out
}

func fileWriter(cfg Config) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}, nil
}
