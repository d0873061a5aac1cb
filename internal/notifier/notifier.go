// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

// Package notifier posts the recommended-todos set to a configured webhook
// whenever it changes. It follows the dispatcher idiom (a small interface,
// a named registry, a no-op default) the way the pack's webhook/slack/
// ms-teams dispatchers do, and reimplements
// original_source/taskin_api/notifier_service.py's hash-compare loop so a
// "silent" readiness change (no status changed, only a time window or
// event did) still fires the webhook.
package notifier

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/halvorn/taskind/internal/applog"
)

// TaskState is the minimal (id, status) pair the change hash is computed
// over, mirroring notifier_service.py's hashed payload.
type TaskState struct {
	ID     int
	Status string
}

// Dispatcher sends a recommended-set change notification somewhere.
// Default is the no-op fallback; Webhook is the only real implementation
// taskind ships (no CRUD/auth surface, POST only).
type Dispatcher interface {
	Dispatch(recommended []int) error
}

// Map associates dispatcher names with their implementations, following
// the pack's dispatcher registry convention.
var Map = map[string]Dispatcher{
	"default": &Default{},
}

// Default is a no-op dispatcher, used when no webhook URL is configured.
type Default struct{}

// Dispatch does nothing.
func (d *Default) Dispatch(recommended []int) error { return nil }

// Webhook POSTs the recommended set as JSON to a configured URL. No repo in
// the example pack reaches for an HTTP client library for a single POST;
// net/http is the idiom observed throughout, so that's what this uses
// rather than importing one.
type Webhook struct {
	URL    string
	Client *http.Client
}

// NewWebhook returns a Webhook dispatcher with a bounded-timeout client.
func NewWebhook(url string) *Webhook {
	return &Webhook{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

// Dispatch posts {"recommended": [...]}
func (w *Webhook) Dispatch(recommended []int) error {
	body, err := json.Marshal(struct {
		Recommended []int `json:"recommended"`
	}{Recommended: recommended})
	if err != nil {
		return fmt.Errorf("marshalling webhook payload: %w", err)
	}

	resp, err := w.Client.Post(w.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// ChangeDetector hashes the full (id, status) set of every tracked task and
// the current recommended set, and reports whether either changed since
// the last call. A recommended-set change without any status change is the
// "silent" case the source's notifier_service.py surfaces: a time window
// or event fired, not a user action.
type ChangeDetector struct {
	log            *applog.Logger
	dispatcher     Dispatcher
	lastStateHash  string
	lastRecommends string
}

// NewChangeDetector returns a ChangeDetector that dispatches through d.
func NewChangeDetector(log *applog.Logger, d Dispatcher) *ChangeDetector {
	if d == nil {
		d = &Default{}
	}
	return &ChangeDetector{log: log, dispatcher: d}
}

// Check compares the current (states, recommended) snapshot against the
// last one seen and dispatches a notification if the recommended set
// changed, regardless of whether any individual status changed.
func (c *ChangeDetector) Check(states []TaskState, recommended []int) error {
	stateHash := hashStates(states)
	recommendHash := hashIDs(recommended)

	recommendChanged := recommendHash != c.lastRecommends
	statusesChanged := stateHash != c.lastStateHash
	c.lastStateHash = stateHash
	c.lastRecommends = recommendHash

	if !recommendChanged {
		return nil
	}
	if c.log != nil {
		if statusesChanged {
			c.log.Noticef("recommended set changed alongside a status change, dispatching notification (%d tasks)", len(recommended))
		} else {
			c.log.Noticef("recommended set changed silently (time window or event, no status change), dispatching notification (%d tasks)", len(recommended))
		}
	}
	return c.dispatcher.Dispatch(recommended)
}

func hashStates(states []TaskState) string {
	sorted := append([]TaskState(nil), states...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	h := sha256.New()
	for _, s := range sorted {
		fmt.Fprintf(h, "%d:%s;", s.ID, s.Status)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func hashIDs(ids []int) string {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	h := sha256.New()
	for _, id := range sorted {
		fmt.Fprintf(h, "%d;", id)
	}
	return hex.EncodeToString(h.Sum(nil))
}
