// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

package depgraph_test

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/halvorn/taskind/pkg/depgraph"
)

// Scenario 1 — linear chain: tasks {0,1,2} all in category A, edges 0->1,
// 1->2. DDM = {0:{1,2}, 1:{2}, 2:{}}. Task 2 is the only root (no deps).
func TestLinearChain(t *testing.T) {
	g := NewGomegaWithT(t)

	graph := depgraph.NewGraph()
	graph.AddTodo(0, 10)
	graph.AddTodo(1, 10)
	graph.AddTodo(2, 10)
	g.Expect(graph.AddDep(0, 1)).To(Succeed())
	g.Expect(graph.AddDep(1, 2)).To(Succeed())
	graph.BuildDDM()

	ddm := graph.DDM()
	g.Expect(ddm.Get(0)).To(HaveLen(2))
	g.Expect(ddm.Get(0)).To(HaveKey(1))
	g.Expect(ddm.Get(0)).To(HaveKey(2))
	g.Expect(ddm.Get(1)).To(Equal(depgraph.Ids(2)))
	g.Expect(ddm.Get(2)).To(BeEmpty())

	g.Expect(graph.Roots()).To(ConsistOf(2))
	g.Expect(graph.Validate()).To(Succeed())
}

// Scenario 2 — remove middle: starting from scenario 1, remove_node(1).
func TestRemoveMiddlePromotesDeps(t *testing.T) {
	g := NewGomegaWithT(t)

	graph := depgraph.NewGraph()
	graph.AddTodo(0, 10)
	graph.AddTodo(1, 10)
	graph.AddTodo(2, 10)
	g.Expect(graph.AddDep(0, 1)).To(Succeed())
	g.Expect(graph.AddDep(1, 2)).To(Succeed())

	graph.RemoveNode(1)

	g.Expect(graph.Tasks).To(HaveLen(2))
	g.Expect(graph.Tasks).To(HaveKey(0))
	g.Expect(graph.Tasks).To(HaveKey(2))
	g.Expect(graph.Tasks[0].Deps).To(Equal(depgraph.Ids(2)))
	g.Expect(graph.Tasks[2].RDeps).To(Equal(depgraph.Ids(0)))

	graph.BuildDDM()
	g.Expect(graph.DDM().Get(0)).To(Equal(depgraph.Ids(2)))
	g.Expect(graph.Categories).To(HaveKey(10))
	g.Expect(graph.Validate()).To(Succeed())
}

// Scenario 3 — category dependency: categories A {0,1} and B {2,3}, with
// 0->1, 3->2, and 2 cat-deps on A. DDM[2] must include all of A.
func TestCategoryDependencyExpandsToMembers(t *testing.T) {
	g := NewGomegaWithT(t)

	graph := depgraph.NewGraph()
	graph.AddTodo(0, 100) // category A
	graph.AddTodo(1, 100)
	graph.AddTodo(2, 200) // category B
	graph.AddTodo(3, 200)
	g.Expect(graph.AddDep(0, 1)).To(Succeed())
	g.Expect(graph.AddDep(3, 2)).To(Succeed())
	g.Expect(graph.AddCatDep(2, 100)).To(Succeed())

	graph.BuildDDM()

	ddm := graph.DDM()
	g.Expect(ddm.Get(2)).To(HaveKey(0))
	g.Expect(ddm.Get(2)).To(HaveKey(1))
	g.Expect(graph.Validate()).To(Succeed())
}

// Scenario 4 — dedupe: adding the redundant edge 0->2 on top of 0->1->2
// must not change the DDM, and the redundant direct edge must be removed.
func TestDedupeRemovesRedundantEdgeWithoutShrinkingDDM(t *testing.T) {
	g := NewGomegaWithT(t)

	graph := depgraph.NewGraph()
	graph.AddTodo(0, 10)
	graph.AddTodo(1, 10)
	graph.AddTodo(2, 10)
	g.Expect(graph.AddDep(0, 1)).To(Succeed())
	g.Expect(graph.AddDep(1, 2)).To(Succeed())
	g.Expect(graph.AddDep(0, 2)).To(Succeed())

	graph.BuildDDM()
	before := graph.DDM()

	graph.Dedupe()

	g.Expect(graph.Tasks[0].Deps).To(Equal(depgraph.Ids(1)))
	g.Expect(graph.DDM().Equal(before)).To(BeTrue())
}

// Scenario 5 — filter_out matches DDM.Filter on a fixture with six tasks
// and a category dependency.
func TestFilterOutMatchesDDMFilter(t *testing.T) {
	g := NewGomegaWithT(t)

	graph := buildSixTaskFixture(g)
	graph.BuildDDM()
	graph.Dedupe()

	excluded := depgraph.Ids(1, 3)
	scoped := graph.FilterOut(excluded)

	g.Expect(scoped.DDM().Equal(graph.DDM().Filter(excluded))).To(BeTrue())
	g.Expect(scoped.Validate()).To(Succeed())
}

func buildSixTaskFixture(g *GomegaWithT) *depgraph.Graph {
	graph := depgraph.NewGraph()
	graph.AddTodo(0, 100) // category A
	graph.AddTodo(1, 100)
	graph.AddTodo(2, 200) // category B
	graph.AddTodo(3, 200)
	graph.AddTodo(4, 300) // category C
	graph.AddTodo(5, 300)

	g.Expect(graph.AddDep(0, 1)).To(Succeed())
	g.Expect(graph.AddDep(2, 3)).To(Succeed())
	g.Expect(graph.AddDep(4, 5)).To(Succeed())
	g.Expect(graph.AddDep(4, 0)).To(Succeed())
	g.Expect(graph.AddCatDep(2, 100)).To(Succeed())
	return graph
}

// Boundary: remove_node on an absent id is a no-op.
func TestRemoveAbsentNodeIsNoop(t *testing.T) {
	g := NewGomegaWithT(t)

	graph := depgraph.NewGraph()
	graph.AddTodo(0, 10)
	graph.RemoveNode(999)

	g.Expect(graph.Tasks).To(HaveLen(1))
	g.Expect(graph.Validate()).To(Succeed())
}

// Boundary: filter_out(V) yields an empty graph.
func TestFilterOutEverythingYieldsEmptyGraph(t *testing.T) {
	g := NewGomegaWithT(t)

	graph := buildSixTaskFixture(g)
	graph.BuildDDM()

	all := depgraph.Ids(0, 1, 2, 3, 4, 5)
	scoped := graph.FilterOut(all)

	g.Expect(scoped.Tasks).To(BeEmpty())
	g.Expect(scoped.Categories).To(BeEmpty())
	g.Expect(scoped.DDM().Empty()).To(BeTrue())
}

// Boundary: one task with no deps is a root and a member of its category;
// removing it deletes the category (empty-category GC).
func TestSingleRootRemovalDeletesCategory(t *testing.T) {
	g := NewGomegaWithT(t)

	graph := depgraph.NewGraph()
	graph.AddTodo(0, 10)

	g.Expect(graph.Roots()).To(ConsistOf(0))
	g.Expect(graph.Categories).To(HaveKey(10))

	graph.RemoveNode(0)

	g.Expect(graph.Categories).To(BeEmpty())
	g.Expect(graph.Tasks).To(BeEmpty())
}

// Round-trip: build_ddm is idempotent.
func TestBuildDDMIsIdempotent(t *testing.T) {
	g := NewGomegaWithT(t)

	graph := buildSixTaskFixture(g)
	graph.BuildDDM()
	first := graph.DDM()
	graph.BuildDDM()
	g.Expect(graph.DDM().Equal(first)).To(BeTrue())
}

// Round-trip: dedupe is idempotent.
func TestDedupeIsIdempotent(t *testing.T) {
	g := NewGomegaWithT(t)

	graph := depgraph.NewGraph()
	graph.AddTodo(0, 10)
	graph.AddTodo(1, 10)
	graph.AddTodo(2, 10)
	g.Expect(graph.AddDep(0, 1)).To(Succeed())
	g.Expect(graph.AddDep(1, 2)).To(Succeed())
	g.Expect(graph.AddDep(0, 2)).To(Succeed())
	graph.BuildDDM()

	graph.Dedupe()
	g.Expect(graph.Tasks[0].Deps).To(Equal(depgraph.Ids(1)))
	graph.Dedupe()
	g.Expect(graph.Tasks[0].Deps).To(Equal(depgraph.Ids(1)))
}

// Round-trip: copy() then filter_out(empty) yields a DDM-equal graph.
func TestCopyThenFilterOutEmptyPreservesDDM(t *testing.T) {
	g := NewGomegaWithT(t)

	graph := buildSixTaskFixture(g)
	graph.BuildDDM()
	graph.Dedupe()

	copied := graph.Copy()
	scoped := copied.FilterOut(depgraph.Ids())

	g.Expect(scoped.DDM().Equal(graph.DDM())).To(BeTrue())
}

// Validate stability: after a legal sequence of mutators, validate()
// returns true.
func TestValidateStabilityAcrossMutators(t *testing.T) {
	g := NewGomegaWithT(t)

	graph := buildSixTaskFixture(g)
	g.Expect(graph.Validate()).To(Succeed())

	graph.BuildDDM()
	g.Expect(graph.Validate()).To(Succeed())

	graph.Dedupe()
	g.Expect(graph.Validate()).To(Succeed())

	graph.RemoveNode(1)
	g.Expect(graph.Validate()).To(Succeed())
}

// Failure semantics: referencing an unknown task/category fails with
// UnknownReference and does not mutate the graph.
func TestAddDepUnknownReference(t *testing.T) {
	g := NewGomegaWithT(t)

	graph := depgraph.NewGraph()
	graph.AddTodo(0, 10)

	err := graph.AddDep(0, 999)
	g.Expect(err).To(HaveOccurred())
	var unknown *depgraph.UnknownReference
	g.Expect(err).To(BeAssignableToTypeOf(unknown))
}
