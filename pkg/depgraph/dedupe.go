// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

package depgraph

// Dedupe removes edges that contribute nothing to a task's deep dependency
// closure. An edge A -> B (task or category) is redundant iff skipping just
// that one hop and re-deriving A's closure from its remaining edges still
// yields the same set DDM already recorded for A: some other path already
// accounts for everything B would have contributed. The mask is single-level
// by design — a redundant edge must be replaceable by an alternative path
// whose tail is still reachable, not by re-deriving B's own subtree from
// scratch.
//
// Dedupe never shrinks any task's DDM entry; it only removes edges that were
// already implied by the ones left behind. It rebuilds the DDM once at the
// end so direct edge counts reflect the post-dedupe graph.
func (g *Graph) Dedupe() {
	before := g.ddm

	for _, node := range g.Tasks {
		g.dedupeNode(node, before)
	}

	g.BuildDDM()
}

func (g *Graph) dedupeNode(node *TaskNode, ddm DDM) {
	full := ddm.Get(node.ID)

	for d := range node.Deps.clone() {
		if g.maskedClosure(node, ddm, d, -1).equal(full) {
			node.Deps.remove(d)
			if dep, ok := g.Tasks[d]; ok {
				dep.RDeps.remove(node.ID)
			}
		}
	}
	for c := range node.CatDeps.clone() {
		if g.maskedClosure(node, ddm, -1, c).equal(full) {
			node.CatDeps.remove(c)
			if cat, ok := g.Categories[c]; ok {
				cat.Dependants.remove(node.ID)
			}
		}
	}
}

// maskedClosure recomputes node's closure from its current (live) edge sets,
// skipping skipDep (if >= 0) among the direct task deps and skipCat (if >= 0)
// among the category deps. All other edges, including ones already removed
// earlier in this dedupe pass, contribute via the pre-dedupe ddm snapshot so
// later candidates are judged against a stable baseline.
func (g *Graph) maskedClosure(node *TaskNode, ddm DDM, skipDep, skipCat int) idSet {
	masked := newIDSet()
	for d := range node.Deps {
		if d == skipDep {
			continue
		}
		masked.add(d)
		masked.union(ddm.Get(d))
	}
	for c := range node.CatDeps {
		if c == skipCat {
			continue
		}
		cat, ok := g.Categories[c]
		if !ok {
			continue
		}
		for t := range cat.Dependencies {
			masked.add(t)
			masked.union(ddm.Get(t))
		}
	}
	return masked
}
