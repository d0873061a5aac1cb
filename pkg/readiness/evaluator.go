// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

// Package readiness combines the dependency graph's deep dependency map
// with live task status, one-off completion, and time windows to compute
// the set of tasks that are actually recommended right now.
package readiness

import (
	"sort"
	"time"

	"github.com/halvorn/taskind/pkg/depgraph"
	"github.com/halvorn/taskind/pkg/timewindow"
)

// Evaluator computes the recommended set for a single full_graph snapshot.
// It holds no state of its own; everything it needs is passed to Evaluate.
type Evaluator struct{}

// NewEvaluator returns an Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate returns the stable-ordered list of recommended task ids.
//
// candidates is every task id to consider (typically every task in the
// graph). blocking is the set of task ids whose live status is incomplete
// or in_progress. oneoffBlocked reports whether any one-off todo is not yet
// complete. slots is the resolved Timeslot for every task carrying a time
// or event window; a task absent from slots is treated as unbounded.
func (e *Evaluator) Evaluate(
	now time.Time,
	ddm depgraph.DDM,
	candidates []int,
	blocking map[int]bool,
	oneoffBlocked bool,
	slots map[int]timewindow.Timeslot,
	oneoffStartID int,
) []int {
	var recommended []int

	for _, tid := range candidates {
		if !blocking[tid] {
			continue
		}
		if slot, ok := slots[tid]; ok && !slot.InWindow(now) {
			continue
		}

		closure := ddm.Get(tid)
		blockedByOther := false
		for dep := range closure {
			if blocking[dep] {
				blockedByOther = true
				break
			}
		}
		if blockedByOther {
			continue
		}

		if oneoffBlocked {
			if _, ok := closure[oneoffStartID]; ok {
				continue
			}
		}

		recommended = append(recommended, tid)
	}

	sort.Ints(recommended)
	return recommended
}
