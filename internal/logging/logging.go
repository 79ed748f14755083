// Copyright 2025 The go-matbench Authors. SPDX-License-Identifier: Apache-2.0

// Package logging holds the process-wide logrus logger.
//
// Benchmark timings go to stdout; everything logged here goes to stderr
// (and optionally a file) so it never mixes with measured output.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

// Init configures the logger. An unknown level falls back to info.
func Init(level, logFile string, console bool) error {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	var writers []io.Writer
	if console {
		writers = append(writers, os.Stderr)
	}
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		writers = append(writers, f)
	}
	switch len(writers) {
	case 0:
		l.SetOutput(io.Discard)
	case 1:
		l.SetOutput(writers[0])
	default:
		l.SetOutput(io.MultiWriter(writers...))
	}

	log = l
	return nil
}

// Get returns the logger, creating a default one if Init was never called.
func Get() *logrus.Logger {
	if log == nil {
		log = logrus.New()
		log.SetOutput(os.Stderr)
	}
	return log
}

// Or returns l when non-nil and the process logger otherwise.
func Or(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}
	return Get()
}

func Debugf(format string, args ...any) {
	Get().Debugf(format, args...)
}

func Infof(format string, args ...any) {
	Get().Infof(format, args...)
}

func Warnf(format string, args ...any) {
	Get().Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	Get().Errorf(format, args...)
}
