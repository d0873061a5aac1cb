// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

package depgraph

// DDM (Deep Dependency Map) is an opaque, reflexive-free transitive-closure
// map from a task id to every task id that must be complete before it.
// It is a value type: Filter returns a new DDM and never mutates the
// receiver, matching the "DDM is a value" guarantee in the spec.
type DDM struct {
	deps map[int]idSet
}

// NewDDM returns an empty deep dependency map.
func NewDDM() DDM {
	return DDM{deps: make(map[int]idSet)}
}

// Get returns the set of task ids that tid transitively depends on.
// A missing key returns an empty set, never nil, so callers can range over
// it unconditionally.
func (d DDM) Get(tid int) idSet {
	if s, ok := d.deps[tid]; ok {
		return s
	}
	return idSet{}
}

// Add unions deps into tid's recorded closure.
func (d DDM) Add(tid int, deps idSet) {
	existing, ok := d.deps[tid]
	if !ok {
		existing = make(idSet, len(deps))
		d.deps[tid] = existing
	}
	existing.union(deps)
}

// Filter returns a new DDM that omits every key in excluded and subtracts
// excluded from every remaining value set. It never mutates the receiver.
func (d DDM) Filter(excluded idSet) DDM {
	filtered := NewDDM()
	for tid, deps := range d.deps {
		if excluded.has(tid) {
			continue
		}
		remaining := deps.clone()
		for id := range excluded {
			remaining.remove(id)
		}
		filtered.deps[tid] = remaining
	}
	return filtered
}

// Equal performs a deep structural comparison between two DDMs.
func (d DDM) Equal(other DDM) bool {
	if len(d.deps) != len(other.deps) {
		return false
	}
	for tid, deps := range d.deps {
		otherDeps, ok := other.deps[tid]
		if !ok || !deps.equal(otherDeps) {
			return false
		}
	}
	return true
}

// Empty reports whether the map has no entries at all (the "truthiness"
// check from the spec).
func (d DDM) Empty() bool {
	return len(d.deps) == 0
}

// Contains reports whether tid has a (possibly empty) recorded closure.
func (d DDM) Contains(tid int) bool {
	_, ok := d.deps[tid]
	return ok
}
