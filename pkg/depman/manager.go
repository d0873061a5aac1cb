// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

// Package depman owns the canonical dependency graph and publishes it under
// a single-writer, many-reader discipline: Load/Reload builds a fresh
// snapshot and swaps it in atomically; readers never block and never see a
// half-built graph.
package depman

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/halvorn/taskind/internal/applog"
	"github.com/halvorn/taskind/pkg/depgraph"
	"github.com/halvorn/taskind/pkg/timewindow"
)

// OneoffStartID and OneoffEndID are the reserved task/category ids the
// one-off sentinel pair is injected under. Anything a one-off depends on
// becomes a dep of OneoffStartID; anything that depends on "all one-offs
// complete" cat-deps on OneoffEndID.
const (
	OneoffStartID = -1000
	OneoffEndID   = -1999
)

// CategoryRecord is a persisted category row.
type CategoryRecord struct {
	ID   int
	Name string
}

// TaskRecord is a persisted todo row.
type TaskRecord struct {
	ID         int
	CategoryID int
	Name       string
}

// EventRecord is a persisted named event; only its name is needed at load
// time; its timestamp is supplied per-query (see Timeslots), not stored in
// the graph.
type EventRecord struct {
	Name string
}

// TaskConfig is a configured task's declared dependency shape, resolved by
// name against the persisted records at load time.
type TaskConfig struct {
	DependsOnTodos      []string
	DependsOnCategories []string
	DependsOnAllOneoffs bool
	AbsoluteWindow      *timewindow.Window
	EventWindows        map[string]timewindow.Window
}

// OneoffDepsConfig describes what the one-off sentinel pair itself depends
// on and gates.
type OneoffDepsConfig struct {
	DependsOnTodos      []string
	DependsOnCategories []string
}

// Config is the pre-validated, already name-resolved-to-strings
// configuration the loader hands to Load. Names are resolved against the
// persisted CategoryRecord/TaskRecord slices passed alongside it.
type Config struct {
	Tasks      map[string]TaskConfig
	OneoffDeps OneoffDepsConfig
}

type snapshot struct {
	graph        *depgraph.Graph
	taskIDByName map[string]int
	catIDByName  map[string]int
	timeDepMap   map[int]*timewindow.Window
	eventDepMap  map[int]map[string]timewindow.Window
}

// Manager owns the canonical full_graph and the name-resolution and
// time-window side tables built alongside it.
type Manager struct {
	log     *applog.Logger
	current atomic.Pointer[snapshot]
}

// NewManager returns a Manager with no graph loaded yet; call Load before
// any other method.
func NewManager(log *applog.Logger) *Manager {
	return &Manager{log: log}
}

// Load rebuilds full_graph from persisted categories/tasks/events and the
// resolved configuration, then atomically publishes it. Names in config
// that don't resolve against the persisted records are logged and skipped;
// the rest of the load proceeds.
func (m *Manager) Load(categories []CategoryRecord, tasks []TaskRecord, events []EventRecord, config Config) error {
	graph := depgraph.NewGraph()
	taskIDByName := make(map[string]int, len(tasks))
	catIDByName := make(map[string]int, len(categories))
	knownEvents := make(map[string]bool, len(events))
	for _, e := range events {
		knownEvents[e.Name] = true
	}

	for _, c := range categories {
		graph.AddCategory(c.ID)
		catIDByName[c.Name] = c.ID
	}
	for _, t := range tasks {
		graph.AddTodo(t.ID, t.CategoryID)
		taskIDByName[t.Name] = t.ID
	}

	graph.AddTodo(OneoffStartID, OneoffEndID)

	timeDepMap := make(map[int]*timewindow.Window)
	eventDepMap := make(map[int]map[string]timewindow.Window)

	for name, tc := range config.Tasks {
		tid, ok := taskIDByName[name]
		if !ok {
			m.log.Warnf("configured task %q has no matching persisted todo, skipping", name)
			continue
		}
		for _, depName := range tc.DependsOnTodos {
			depID, ok := taskIDByName[depName]
			if !ok {
				m.log.Warnf("task %q depends on unknown todo %q, skipping", name, depName)
				continue
			}
			if err := graph.AddDep(tid, depID); err != nil {
				m.log.Warnf("task %q: %s", name, err)
			}
		}
		for _, catName := range tc.DependsOnCategories {
			catID, ok := catIDByName[catName]
			if !ok {
				m.log.Warnf("task %q depends on unknown category %q, skipping", name, catName)
				continue
			}
			if err := graph.AddCatDep(tid, catID); err != nil {
				m.log.Warnf("task %q: %s", name, err)
			}
		}
		if tc.DependsOnAllOneoffs {
			if err := graph.AddCatDep(tid, OneoffEndID); err != nil {
				m.log.Warnf("task %q: %s", name, err)
			}
		}
		if tc.AbsoluteWindow != nil {
			timeDepMap[tid] = tc.AbsoluteWindow
		}
		if len(tc.EventWindows) > 0 {
			windows := make(map[string]timewindow.Window, len(tc.EventWindows))
			for eventName, win := range tc.EventWindows {
				if !knownEvents[eventName] {
					m.log.Warnf("task %q references unknown event %q, its window will never resolve", name, eventName)
				}
				windows[eventName] = win
			}
			eventDepMap[tid] = windows
		}
	}

	for _, depName := range config.OneoffDeps.DependsOnTodos {
		depID, ok := taskIDByName[depName]
		if !ok {
			m.log.Warnf("one-off deps reference unknown todo %q, skipping", depName)
			continue
		}
		if err := graph.AddDep(OneoffStartID, depID); err != nil {
			m.log.Warnf("one-off deps: %s", err)
		}
	}
	for _, catName := range config.OneoffDeps.DependsOnCategories {
		catID, ok := catIDByName[catName]
		if !ok {
			m.log.Warnf("one-off deps reference unknown category %q, skipping", catName)
			continue
		}
		if err := graph.AddCatDep(OneoffStartID, catID); err != nil {
			m.log.Warnf("one-off deps: %s", err)
		}
	}

	graph.BuildDDM()
	graph.Dedupe()

	if err := graph.Validate(); err != nil {
		return fmt.Errorf("load produced an invalid graph: %w", err)
	}

	m.current.Store(&snapshot{
		graph:        graph,
		taskIDByName: taskIDByName,
		catIDByName:  catIDByName,
		timeDepMap:   timeDepMap,
		eventDepMap:  eventDepMap,
	})
	return nil
}

// Reload is an alias for Load kept for readers of cmd/taskind: it is
// idempotent and safe to call from an fsnotify watch callback.
func (m *Manager) Reload(categories []CategoryRecord, tasks []TaskRecord, events []EventRecord, config Config) error {
	return m.Load(categories, tasks, events, config)
}

// FullGraph returns the currently published canonical graph. The returned
// handle is a read-only view: callers must not mutate it.
func (m *Manager) FullGraph() *depgraph.Graph {
	return m.current.Load().graph
}

// ScopeSubgraph delegates to full_graph.filter_out(excluded), validates the
// result, and cross-checks it against full_graph.DDM().Filter(excluded) — a
// correctness assertion, not a best-effort optimization.
func (m *Manager) ScopeSubgraph(excludedTids []int) (*depgraph.Graph, error) {
	snap := m.current.Load()
	excluded := depgraph.Ids(excludedTids...)

	scoped := snap.graph.FilterOut(excluded)
	if err := scoped.Validate(); err != nil {
		return nil, err
	}
	expected := snap.graph.DDM().Filter(excluded)
	if !scoped.DDM().Equal(expected) {
		return nil, &depgraph.InvariantViolation{
			Reason: "scoped subgraph DDM diverged from full_graph.ddm.filter(excluded)",
		}
	}
	return scoped, nil
}

// Timeslots resolves the current Timeslot for every configured task that
// carries a time or event window.
func (m *Manager) Timeslots(now time.Time, events map[string]time.Time) map[int]timewindow.Timeslot {
	snap := m.current.Load()
	out := make(map[int]timewindow.Timeslot)
	for tid, win := range snap.timeDepMap {
		out[tid] = timewindow.Resolve(now, win, snap.eventDepMap[tid], events)
	}
	for tid, wins := range snap.eventDepMap {
		if _, ok := out[tid]; ok {
			continue
		}
		out[tid] = timewindow.Resolve(now, nil, wins, events)
	}
	return out
}

// TaskID resolves a configured task name to its persisted id.
func (m *Manager) TaskID(name string) (int, bool) {
	id, ok := m.current.Load().taskIDByName[name]
	return id, ok
}

// CategoryID resolves a configured category name to its persisted id.
func (m *Manager) CategoryID(name string) (int, bool) {
	id, ok := m.current.Load().catIDByName[name]
	return id, ok
}
