// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

// Package httpapi is the thin, contracts-only HTTP surface over
// pkg/depman/pkg/readiness/pkg/projection: the four function-level
// contracts from the spec's external interfaces section and nothing else
// (no CRUD, no auth, no persistence logic).
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/halvorn/taskind/internal/applog"
	"github.com/halvorn/taskind/internal/store"
	"github.com/halvorn/taskind/pkg/depman"
	"github.com/halvorn/taskind/pkg/projection"
	"github.com/halvorn/taskind/pkg/readiness"
)

// Server wires the manager, store, and evaluator into a chi router.
type Server struct {
	manager   *depman.Manager
	store     store.Store
	evaluator *readiness.Evaluator
	log       *applog.Logger
	reload    func() error
}

// NewServer returns a Server. reload is invoked by the /reload endpoint;
// it is injected rather than called directly so cmd/taskind owns the
// actual config-read-then-Manager.Reload sequence.
func NewServer(manager *depman.Manager, st store.Store, log *applog.Logger, reload func() error) *Server {
	return &Server{
		manager:   manager,
		store:     st,
		evaluator: readiness.NewEvaluator(),
		log:       log,
		reload:    reload,
	}
}

// Router returns the mounted chi router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/recommended_todos", s.handleRecommendedTodos)
	r.Get("/dependency_graph", s.handleDependencyGraph)
	r.Get("/timeslots", s.handleTimeslots)
	r.Post("/reload", s.handleReload)
	return r
}

func (s *Server) liveState() (blocking map[int]bool, oneoffBlocked bool, events map[string]time.Time, err error) {
	todos, err := s.store.ListTodos()
	if err != nil {
		return nil, false, nil, err
	}
	blocking = make(map[int]bool, len(todos))
	for _, t := range todos {
		if t.Status.Blocking() {
			blocking[t.ID] = true
		}
	}

	oneoffs, err := s.store.ListOneOffTodos()
	if err != nil {
		return nil, false, nil, err
	}
	for _, o := range oneoffs {
		if o.Status.Blocking() {
			oneoffBlocked = true
			break
		}
	}

	evs, err := s.store.ListEvents()
	if err != nil {
		return nil, false, nil, err
	}
	events = make(map[string]time.Time, len(evs))
	for _, e := range evs {
		if e.Timestamp != nil {
			events[e.Name] = *e.Timestamp
		}
	}
	return blocking, oneoffBlocked, events, nil
}

func (s *Server) handleRecommendedTodos(w http.ResponseWriter, r *http.Request) {
	blocking, oneoffBlocked, events, err := s.liveState()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	now := time.Now()
	graph := s.manager.FullGraph()
	slots := s.manager.Timeslots(now, events)

	candidates := make([]int, 0, len(graph.Tasks))
	for tid := range graph.Tasks {
		candidates = append(candidates, tid)
	}

	recommended := s.evaluator.Evaluate(now, graph.DDM(), candidates, blocking, oneoffBlocked, slots, depman.OneoffStartID)
	writeJSON(w, recommended)
}

func (s *Server) handleDependencyGraph(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	filterTime := r.URL.Query().Get("filter_time") == "true"

	graph := s.manager.FullGraph()

	if scope == "scoped" {
		blocking, _, _, err := s.liveState()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		var doneIDs []int
		for tid := range graph.Tasks {
			if !blocking[tid] {
				doneIDs = append(doneIDs, tid)
			}
		}
		scoped, err := s.manager.ScopeSubgraph(doneIDs)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		graph = scoped
	}

	var excluded []int
	if filterTime {
		now := time.Now()
		_, _, events, err := s.liveState()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		slots := s.manager.Timeslots(now, events)
		for tid := range graph.Tasks {
			if slot, ok := slots[tid]; ok && !slot.InWindow(now) {
				excluded = append(excluded, tid)
			}
		}
	}

	view := projection.Filtered(graph, excluded, depman.OneoffStartID, depman.OneoffEndID)
	writeJSON(w, view)
}

func (s *Server) handleTimeslots(w http.ResponseWriter, r *http.Request) {
	_, _, events, err := s.liveState()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	slots := s.manager.Timeslots(time.Now(), events)

	out := make(map[string]struct {
		Start *time.Time `json:"start"`
		End   *time.Time `json:"end"`
	}, len(slots))
	for tid, slot := range slots {
		out[strconv.Itoa(tid)] = struct {
			Start *time.Time `json:"start"`
			End   *time.Time `json:"end"`
		}{Start: slot.Start, End: slot.End}
	}
	writeJSON(w, out)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	runID := uuid.New().String()
	log := s.log.With("run_id", runID)
	log.Noticef("reload requested")

	if err := s.reload(); err != nil {
		log.Errorf("reload failed: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	log.Noticef("reload complete")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: err.Error()})
}
