// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

// Package timewindow computes a task's current open interval from an
// absolute daily window and any number of event-relative windows.
package timewindow

import "time"

const secondsPerDay = 86400

// Window is a pair of optional offsets. For the absolute window the offsets
// are seconds since midnight, taken modulo a day. For an event-relative
// window they are added to the event's timestamp after the same modulo-a-day
// reduction, so a negative offset lands later on, never before the event.
type Window struct {
	Start *int
	End   *int
}

// Timeslot is the resolved, current open interval for a task. Both ends are
// nil when unbounded; both nil together after an impossible fold means
// "blocked by time" for today.
type Timeslot struct {
	Start *time.Time
	End   *time.Time
}

// InWindow reports whether now falls inside the slot.
func (t Timeslot) InWindow(now time.Time) bool {
	if t.Start != nil && now.Before(*t.Start) {
		return false
	}
	if t.End != nil && now.After(*t.End) {
		return false
	}
	return true
}

// Resolve folds an absolute window and any number of named event-relative
// windows into a single current Timeslot.
//
// absolute may be nil (no absolute window declared). eventWindows maps an
// event name to its window; eventTimestamps maps an event name to its last
// known firing time. A window whose event has no timestamp is skipped
// entirely: per the adopted resolution of the "unknown event" open
// question, a missing event contributes nothing rather than blocking the
// task.
func Resolve(now time.Time, absolute *Window, eventWindows map[string]Window, eventTimestamps map[string]time.Time) Timeslot {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var start, end *time.Time

	if absolute != nil {
		if absolute.Start != nil {
			candidate := midnight.Add(time.Duration(mod(*absolute.Start, secondsPerDay)) * time.Second)
			start = maxTime(start, candidate)
		}
		if absolute.End != nil {
			candidate := midnight.Add(time.Duration(mod(*absolute.End, secondsPerDay)) * time.Second)
			end = minTime(end, candidate)
		}
	}

	for name, win := range eventWindows {
		ts, ok := eventTimestamps[name]
		if !ok {
			continue
		}
		if win.Start != nil {
			candidate := ts.Add(time.Duration(mod(*win.Start, secondsPerDay)) * time.Second)
			start = maxTime(start, candidate)
		}
		if win.End != nil {
			candidate := ts.Add(time.Duration(mod(*win.End, secondsPerDay)) * time.Second)
			end = minTime(end, candidate)
		}
	}

	if start != nil && end != nil && !start.Before(*end) {
		return Timeslot{}
	}
	return Timeslot{Start: start, End: end}
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

func maxTime(cur *time.Time, candidate time.Time) *time.Time {
	if cur == nil || candidate.After(*cur) {
		c := candidate
		return &c
	}
	return cur
}

func minTime(cur *time.Time, candidate time.Time) *time.Time {
	if cur == nil || candidate.Before(*cur) {
		c := candidate
		return &c
	}
	return cur
}
