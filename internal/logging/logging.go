// Package logging sets up the shared logrus logger. CLI progress output goes
// to stdout separately; this logger records importer internals (rate-limit
// waits, per-page progress, per-record failures) to a rotating file.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/user/rainhub/internal/config"
)

// New builds a logger from config. When a log file is configured the logger
// writes there with rotation; otherwise it writes to stderr.
func New(cfg *config.Config) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	path := cfg.LogPath()
	if path == "" {
		log.SetOutput(os.Stderr)
		return log
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.SetOutput(os.Stderr)
		log.WithError(err).Warn("could not create log directory, logging to stderr")
		return log
	}

	var out io.Writer = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}
	log.SetOutput(out)
	return log
}
