// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

package depgraph

import "fmt"

// Validate checks invariants 1-6 from the data model: edge bidirectionality,
// category-membership consistency, no dangling ids, and no lingering empty
// categories. It returns the first violation found, wrapped as an
// *InvariantViolation.
func (g *Graph) Validate() error {
	for tid, node := range g.Tasks {
		if node.ID != tid {
			return &InvariantViolation{Reason: fmt.Sprintf("task keyed at %d has ID %d", tid, node.ID)}
		}
		for d := range node.Deps {
			dep, ok := g.Tasks[d]
			if !ok {
				return &InvariantViolation{Reason: fmt.Sprintf("task %d deps on dangling task %d", tid, d)}
			}
			if !dep.RDeps.has(tid) {
				return &InvariantViolation{Reason: fmt.Sprintf("task %d deps on %d but %d has no reverse edge", tid, d, d)}
			}
		}
		for p := range node.RDeps {
			pNode, ok := g.Tasks[p]
			if !ok {
				return &InvariantViolation{Reason: fmt.Sprintf("task %d has dangling rdep %d", tid, p)}
			}
			if !pNode.Deps.has(tid) {
				return &InvariantViolation{Reason: fmt.Sprintf("task %d rdep %d has no forward edge", tid, p)}
			}
		}
		for c := range node.CatDeps {
			cat, ok := g.Categories[c]
			if !ok {
				return &InvariantViolation{Reason: fmt.Sprintf("task %d cat-deps on dangling category %d", tid, c)}
			}
			if !cat.Dependants.has(tid) {
				return &InvariantViolation{Reason: fmt.Sprintf("category %d missing dependant %d", c, tid)}
			}
		}
		if node.CatDependant != nil {
			cid := *node.CatDependant
			if cid != node.CategoryID {
				return &InvariantViolation{Reason: fmt.Sprintf("task %d is a member of %d but owned by %d", tid, cid, node.CategoryID)}
			}
			cat, ok := g.Categories[cid]
			if !ok || !cat.Dependencies.has(tid) {
				return &InvariantViolation{Reason: fmt.Sprintf("task %d claims membership in %d but isn't in its floor set", tid, cid)}
			}
		}
	}

	for cid, cat := range g.Categories {
		if len(cat.Dependencies) == 0 {
			return &InvariantViolation{Reason: fmt.Sprintf("empty category %d was not garbage collected", cid)}
		}
		for tid := range cat.Dependencies {
			node, ok := g.Tasks[tid]
			if !ok {
				return &InvariantViolation{Reason: fmt.Sprintf("category %d floor set references dangling task %d", cid, tid)}
			}
			if node.CatDependant == nil || *node.CatDependant != cid {
				return &InvariantViolation{Reason: fmt.Sprintf("task %d is in category %d's floor set but doesn't claim membership", tid, cid)}
			}
		}
		for p := range cat.Dependants {
			pNode, ok := g.Tasks[p]
			if !ok {
				return &InvariantViolation{Reason: fmt.Sprintf("category %d has dangling dependant %d", cid, p)}
			}
			if !pNode.CatDeps.has(cid) {
				return &InvariantViolation{Reason: fmt.Sprintf("category %d dependant %d has no forward cat-dep", cid, p)}
			}
		}
	}

	return nil
}
