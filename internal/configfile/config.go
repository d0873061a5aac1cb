// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

// Package configfile parses and validates taskind's declarative config.yml
// into typed records, and translates them into the pkg/depman input shape.
package configfile

import "github.com/halvorn/taskind/pkg/timewindow"

// Config is the root of config.yml.
type Config struct {
	Categories             []CategoryConfig `yaml:"categories" validate:"dive"`
	OneoffDeps             OneoffDepsConfig `yaml:"oneoff_deps"`
	Warning                *WarningConfig   `yaml:"warning"`
	NotificationWebhookURL string           `yaml:"notification_webhook_url"`
}

// CategoryConfig is a configured category and its todos.
type CategoryConfig struct {
	Name        string       `yaml:"name" validate:"required"`
	Description string       `yaml:"description"`
	Todos       []TodoConfig `yaml:"todos" validate:"dive"`
}

// TodoConfig is a single configured recurring task.
type TodoConfig struct {
	Title               string                      `yaml:"title" validate:"required"`
	Description         string                      `yaml:"description"`
	DependsOnTodos       []string                    `yaml:"depends_on_todos"`
	DependsOnCategories  []string                    `yaml:"depends_on_categories"`
	DependsOnAllOneoffs  bool                        `yaml:"depends_on_all_oneoffs"`
	DependsOnTime        *TimeWindowConfig           `yaml:"depends_on_time"`
	DependsOnEvents      map[string]TimeWindowConfig `yaml:"depends_on_events"`
	ResetInterval        int                         `yaml:"reset_interval" validate:"min=1"`
}

// TimeWindowConfig is a configured (start, end) pair, each an optional
// offset in seconds.
type TimeWindowConfig struct {
	Start *int `yaml:"start"`
	End   *int `yaml:"end"`
}

// OneoffDepsConfig describes what the one-off sentinel pair depends on and
// gates, by name.
type OneoffDepsConfig struct {
	DependsOnTodos      []string `yaml:"depends_on_todos"`
	DependsOnCategories []string `yaml:"depends_on_categories"`
}

// WarningConfig holds the "approaching due" warning band, following
// original_source/taskin_api's config.yml shape. It is parsed and validated
// but not read anywhere else: readiness and the HTTP surface do not use it.
type WarningConfig struct {
	ThresholdSeconds int    `yaml:"threshold_seconds" validate:"min=0"`
	Message          string `yaml:"message"`
}

func (w *TimeWindowConfig) toWindow() *timewindow.Window {
	if w == nil {
		return nil
	}
	return &timewindow.Window{Start: w.Start, End: w.End}
}
