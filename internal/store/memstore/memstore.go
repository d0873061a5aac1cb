// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

// Package memstore is an in-memory reference implementation of
// store.Store, useful for tests and for running taskind without wiring a
// real embedded database. Persistence itself is out of scope for the core
// (spec treats it as a contract-only external collaborator), so this
// implementation is intentionally a plain mutex-guarded map rather than
// reaching for a domain-stack storage library.
package memstore

import (
	"sync"
	"time"

	"github.com/halvorn/taskind/internal/store"
)

// Store is a goroutine-safe, in-memory store.Store.
type Store struct {
	mu         sync.RWMutex
	categories map[int]store.Category
	todos      map[int]store.Todo
	events     map[string]store.Event
	oneoffs    map[int]store.OneOffTodo
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		categories: make(map[int]store.Category),
		todos:      make(map[int]store.Todo),
		events:     make(map[string]store.Event),
		oneoffs:    make(map[int]store.OneOffTodo),
	}
}

func (s *Store) ListCategories() ([]store.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) ListTodos() ([]store.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Todo, 0, len(s.todos))
	for _, t := range s.todos {
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) ListEvents() ([]store.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) ListOneOffTodos() ([]store.OneOffTodo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.OneOffTodo, 0, len(s.oneoffs))
	for _, o := range s.oneoffs {
		out = append(out, o)
	}
	return out, nil
}

// UpsertTodo inserts t if its ID is new (defaulting Status/ResetCount per
// the persisted state layout contract), or updates the config-owned fields
// on an existing row without touching Status or ResetCount.
func (s *Store) UpsertTodo(t store.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.todos[t.ID]; ok {
		existing.Title = t.Title
		existing.Description = t.Description
		existing.CategoryID = t.CategoryID
		existing.ResetInterval = t.ResetInterval
		existing.Position = t.Position
		s.todos[t.ID] = existing
		return nil
	}
	if t.Status == "" {
		t.Status = store.StatusIncomplete
	}
	s.todos[t.ID] = t
	return nil
}

func (s *Store) UpsertCategory(c store.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return nil
}

func (s *Store) SetEventTimestamp(name string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.events[name]
	e.Name = name
	e.Timestamp = &ts
	s.events[name] = e
	return nil
}
