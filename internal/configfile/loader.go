// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

package configfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/halvorn/taskind/internal/applog"
	"github.com/halvorn/taskind/pkg/depman"
	"github.com/halvorn/taskind/pkg/timewindow"
)

var validate = validator.New()

// Load reads and validates config.yml at path. reset_interval < 1 is
// rejected here: the source divides by it and would crash, so the loader
// must reject it before it ever reaches the graph.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}

	if err := detectCycle(&cfg); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}

	return &cfg, nil
}

// detectCycle rejects configurations whose depends_on_todos/depends_on_categories
// edges form a cycle. The graph assumes acyclic input and leaves cycle
// behavior undefined at that layer, so it must be caught here, before any
// of it reaches pkg/depman.
func detectCycle(cfg *Config) error {
	membersByCategory := make(map[string][]string)
	for _, cat := range cfg.Categories {
		for _, todo := range cat.Todos {
			membersByCategory[cat.Name] = append(membersByCategory[cat.Name], todo.Title)
		}
	}

	edges := make(map[string][]string)
	for _, cat := range cfg.Categories {
		for _, todo := range cat.Todos {
			edges[todo.Title] = append(edges[todo.Title], todo.DependsOnTodos...)
			for _, catName := range todo.DependsOnCategories {
				edges[todo.Title] = append(edges[todo.Title], membersByCategory[catName]...)
			}
		}
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int)

	var visit func(node string, path []string) error
	visit = func(node string, path []string) error {
		switch state[node] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("dependency cycle detected: %s -> %s", strings.Join(path, " -> "), node)
		}
		state[node] = visiting
		for _, next := range edges[node] {
			if err := visit(next, append(path, node)); err != nil {
				return err
			}
		}
		state[node] = done
		return nil
	}

	for node := range edges {
		if err := visit(node, nil); err != nil {
			return err
		}
	}
	return nil
}

// ToDepmanConfig translates the parsed config into the name-keyed shape
// pkg/depman.Load resolves against the persisted category/task records.
func (c *Config) ToDepmanConfig() depman.Config {
	tasks := make(map[string]depman.TaskConfig)
	for _, cat := range c.Categories {
		for _, todo := range cat.Todos {
			tasks[todo.Title] = depman.TaskConfig{
				DependsOnTodos:      todo.DependsOnTodos,
				DependsOnCategories: todo.DependsOnCategories,
				DependsOnAllOneoffs: todo.DependsOnAllOneoffs,
				AbsoluteWindow:      todo.DependsOnTime.toWindow(),
				EventWindows:        toEventWindows(todo.DependsOnEvents),
			}
		}
	}

	return depman.Config{
		Tasks: tasks,
		OneoffDeps: depman.OneoffDepsConfig{
			DependsOnTodos:      c.OneoffDeps.DependsOnTodos,
			DependsOnCategories: c.OneoffDeps.DependsOnCategories,
		},
	}
}

func toEventWindows(in map[string]TimeWindowConfig) map[string]timewindow.Window {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]timewindow.Window, len(in))
	for name, w := range in {
		out[name] = timewindow.Window{Start: w.Start, End: w.End}
	}
	return out
}

// Watch starts an fsnotify watch on path's directory (watching the file
// itself misses the create-new-inode rewrite pattern most editors and
// config-management tools use) and calls onChange whenever path is
// written. It runs until the returned watcher is closed or the process
// exits; watcher errors are logged, not returned, and the loop keeps
// running, since a watch error should not crash the reload loop.
func Watch(path string, log *applog.Logger, onChange func()) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("starting config watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name == path && (event.Op&(fsnotify.Write|fsnotify.Create) != 0) {
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("config watcher: %v", err)
			}
		}
	}()

	return watcher, nil
}
