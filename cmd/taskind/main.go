// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

// Command taskind runs the dependency manager's HTTP surface: it loads
// config.yml, builds the canonical graph, watches config.yml for changes,
// and polls the recommended set for webhook notification.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/halvorn/taskind/internal/applog"
	"github.com/halvorn/taskind/internal/configfile"
	"github.com/halvorn/taskind/internal/httpapi"
	"github.com/halvorn/taskind/internal/notifier"
	"github.com/halvorn/taskind/internal/store"
	"github.com/halvorn/taskind/internal/store/memstore"
	"github.com/halvorn/taskind/pkg/depman"
	"github.com/halvorn/taskind/pkg/readiness"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var addr string

	root := &cobra.Command{
		Use:   "taskind",
		Short: "Personal recurring-task dependency engine",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yml", "path to config.yml")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Load config, build the graph, and start the HTTP surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, addr)
		},
	}
	serve.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")

	validateConfig := &cobra.Command{
		Use:   "validate-config",
		Short: "Load and validate config.yml without starting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := configfile.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Println("config ok")
			return nil
		},
	}

	root.AddCommand(serve, validateConfig)
	return root
}

func runServe(configPath, addr string) error {
	log := applog.New(nil, "taskind")

	st := memstore.New()
	manager := depman.NewManager(log)

	reload := func() error {
		return reloadFromConfig(configPath, st, manager)
	}
	if err := reload(); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	watcher, err := configfile.Watch(configPath, log, func() {
		if err := reload(); err != nil {
			log.Errorf("reload after config change failed: %v", err)
		}
	})
	if err != nil {
		log.Warnf("config watch disabled: %v", err)
	} else {
		defer watcher.Close()
	}

	cfg, err := configfile.Load(configPath)
	if err != nil {
		return err
	}
	var dispatcher notifier.Dispatcher = &notifier.Default{}
	if cfg.NotificationWebhookURL != "" {
		dispatcher = notifier.NewWebhook(cfg.NotificationWebhookURL)
	}
	detector := notifier.NewChangeDetector(log, dispatcher)
	go pollRecommendedSet(manager, st, detector, log)

	server := httpapi.NewServer(manager, st, log, reload)
	log.Noticef("listening on %s", addr)
	return http.ListenAndServe(addr, server.Router())
}

// reloadFromConfig upserts config.yml's categories/todos into the store and
// feeds the resolved records to the manager. Ids are resolved by name against
// what's already persisted, never reassigned positionally: UpsertTodo keys on
// id and never overwrites Status/ResetCount, so a name that shifts position
// in config.yml (a reorder, an insertion/removal elsewhere) must still land
// on the same id it already has, or it would silently reattach its history
// to whatever task now lands on the old sequential slot.
func reloadFromConfig(configPath string, st store.Store, manager *depman.Manager) error {
	cfg, err := configfile.Load(configPath)
	if err != nil {
		return err
	}

	existingCats, err := st.ListCategories()
	if err != nil {
		return err
	}
	catIDByName := make(map[string]int, len(existingCats))
	maxID := 0
	for _, c := range existingCats {
		catIDByName[c.Name] = c.ID
		if c.ID > maxID {
			maxID = c.ID
		}
	}

	existingTodos, err := st.ListTodos()
	if err != nil {
		return err
	}
	taskIDByTitle := make(map[string]int, len(existingTodos))
	for _, t := range existingTodos {
		taskIDByTitle[t.Title] = t.ID
		if t.ID > maxID {
			maxID = t.ID
		}
	}

	nextID := maxID + 1
	var categories []depman.CategoryRecord
	var tasks []depman.TaskRecord

	for _, cat := range cfg.Categories {
		catID, ok := catIDByName[cat.Name]
		if !ok {
			catID = nextID
			nextID++
			catIDByName[cat.Name] = catID
		}
		if err := st.UpsertCategory(store.Category{ID: catID, Name: cat.Name, Description: cat.Description}); err != nil {
			return err
		}
		categories = append(categories, depman.CategoryRecord{ID: catID, Name: cat.Name})

		for _, todo := range cat.Todos {
			taskID, ok := taskIDByTitle[todo.Title]
			if !ok {
				taskID = nextID
				nextID++
				taskIDByTitle[todo.Title] = taskID
			}
			if err := st.UpsertTodo(store.Todo{
				ID:            taskID,
				Title:         todo.Title,
				Description:   todo.Description,
				CategoryID:    catID,
				ResetInterval: todo.ResetInterval,
			}); err != nil {
				return err
			}
			tasks = append(tasks, depman.TaskRecord{ID: taskID, CategoryID: catID, Name: todo.Title})
		}
	}

	events, err := st.ListEvents()
	if err != nil {
		return err
	}
	var eventRecords []depman.EventRecord
	for _, e := range events {
		eventRecords = append(eventRecords, depman.EventRecord{Name: e.Name})
	}

	return manager.Reload(categories, tasks, eventRecords, cfg.ToDepmanConfig())
}

func pollRecommendedSet(manager *depman.Manager, st store.Store, detector *notifier.ChangeDetector, log *applog.Logger) {
	evaluator := readiness.NewEvaluator()
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		todos, err := st.ListTodos()
		if err != nil {
			log.Errorf("polling todos: %v", err)
			continue
		}
		blocking := make(map[int]bool, len(todos))
		states := make([]notifier.TaskState, 0, len(todos))
		for _, t := range todos {
			if t.Status.Blocking() {
				blocking[t.ID] = true
			}
			states = append(states, notifier.TaskState{ID: t.ID, Status: string(t.Status)})
		}

		oneoffs, err := st.ListOneOffTodos()
		if err != nil {
			log.Errorf("polling one-offs: %v", err)
			continue
		}
		oneoffBlocked := false
		for _, o := range oneoffs {
			if o.Status.Blocking() {
				oneoffBlocked = true
				break
			}
		}

		events, err := st.ListEvents()
		if err != nil {
			log.Errorf("polling events: %v", err)
			continue
		}
		eventTimestamps := make(map[string]time.Time, len(events))
		for _, e := range events {
			if e.Timestamp != nil {
				eventTimestamps[e.Name] = *e.Timestamp
			}
		}

		now := time.Now()
		graph := manager.FullGraph()
		slots := manager.Timeslots(now, eventTimestamps)

		candidates := make([]int, 0, len(graph.Tasks))
		for tid := range graph.Tasks {
			candidates = append(candidates, tid)
		}

		recommended := evaluator.Evaluate(now, graph.DDM(), candidates, blocking, oneoffBlocked, slots, depman.OneoffStartID)
		if err := detector.Check(states, recommended); err != nil {
			log.Errorf("notifier dispatch failed: %v", err)
		}
	}
}
