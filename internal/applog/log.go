// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

// Package applog is a thin wrapper over logrus that binds a component name
// to every entry, mirroring the *base.LogObject calling convention the
// graph and reconciler packages this module descends from were written
// against: constructors take a logger, methods log, nothing more.
package applog

import "github.com/sirupsen/logrus"

// Logger binds a component name to a logrus entry.
type Logger struct {
	entry *logrus.Entry
}

// New returns a Logger that tags every entry with component.
func New(base *logrus.Logger, component string) *Logger {
	if base == nil {
		base = logrus.StandardLogger()
	}
	return &Logger{entry: base.WithField("component", component)}
}

// With returns a derived Logger with an additional field, useful for
// threading a reload run id through a chain of calls.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// Noticef logs at info level.
func (l *Logger) Noticef(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Error logs a single error value at error level.
func (l *Logger) Error(err error) {
	l.entry.Error(err)
}
