// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

package depman_test

import (
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/halvorn/taskind/internal/applog"
	"github.com/halvorn/taskind/pkg/depman"
	"github.com/halvorn/taskind/pkg/timewindow"
)

func intPtr(v int) *int { return &v }

func testManager(g *GomegaWithT) *depman.Manager {
	m := depman.NewManager(applog.New(nil, "depman-test"))

	categories := []depman.CategoryRecord{{ID: 100, Name: "chores"}, {ID: 200, Name: "admin"}}
	tasks := []depman.TaskRecord{
		{ID: 1, CategoryID: 100, Name: "dishes"},
		{ID: 2, CategoryID: 100, Name: "trash"},
		{ID: 3, CategoryID: 200, Name: "invoices"},
	}
	config := depman.Config{
		Tasks: map[string]depman.TaskConfig{
			"trash":    {DependsOnTodos: []string{"dishes"}},
			"invoices": {DependsOnCategories: []string{"chores"}},
		},
	}

	g.Expect(m.Load(categories, tasks, nil, config)).To(Succeed())
	return m
}

func TestLoadResolvesNamedDependencies(t *testing.T) {
	g := NewGomegaWithT(t)
	m := testManager(g)

	dishesID, ok := m.TaskID("dishes")
	g.Expect(ok).To(BeTrue())
	trashID, ok := m.TaskID("trash")
	g.Expect(ok).To(BeTrue())
	invoicesID, ok := m.TaskID("invoices")
	g.Expect(ok).To(BeTrue())

	ddm := m.FullGraph().DDM()
	g.Expect(ddm.Get(trashID)).To(HaveKey(dishesID))
	g.Expect(ddm.Get(invoicesID)).To(HaveKey(dishesID))
}

func TestLoadSkipsUnresolvableNames(t *testing.T) {
	g := NewGomegaWithT(t)
	m := depman.NewManager(applog.New(nil, "depman-test"))

	categories := []depman.CategoryRecord{{ID: 100, Name: "chores"}}
	tasks := []depman.TaskRecord{{ID: 1, CategoryID: 100, Name: "dishes"}}
	config := depman.Config{
		Tasks: map[string]depman.TaskConfig{
			"dishes": {DependsOnTodos: []string{"does-not-exist"}},
		},
	}

	g.Expect(m.Load(categories, tasks, nil, config)).To(Succeed())
	g.Expect(m.FullGraph().Validate()).To(Succeed())
}

func TestScopeSubgraphMatchesDDMFilter(t *testing.T) {
	g := NewGomegaWithT(t)
	m := testManager(g)

	trashID, _ := m.TaskID("trash")
	scoped, err := m.ScopeSubgraph([]int{trashID})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(scoped.Validate()).To(Succeed())
}

func TestTimeslotsResolvesConfiguredWindows(t *testing.T) {
	g := NewGomegaWithT(t)
	m := depman.NewManager(applog.New(nil, "depman-test"))

	window := &timewindow.Window{Start: intPtr(8 * 3600), End: intPtr(20 * 3600)}
	categories := []depman.CategoryRecord{{ID: 100, Name: "chores"}}
	tasks := []depman.TaskRecord{{ID: 1, CategoryID: 100, Name: "dishes"}}
	config := depman.Config{
		Tasks: map[string]depman.TaskConfig{
			"dishes": {AbsoluteWindow: window},
		},
	}
	g.Expect(m.Load(categories, tasks, nil, config)).To(Succeed())

	dishesID, _ := m.TaskID("dishes")
	slots := m.Timeslots(time.Now(), map[string]time.Time{})
	g.Expect(slots).To(HaveKey(dishesID))
}
