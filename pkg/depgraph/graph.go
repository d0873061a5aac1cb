// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

package depgraph

// Graph is a directed bipartite-ish structure of task and category nodes.
// Every public mutator is expected to leave the invariants checked by
// Validate intact; RemoveNode is the one non-trivial mutator and builds its
// plan (promote, propagate, then drop back-pointers, then GC) before
// touching any node, per the ordering discipline this package follows
// throughout.
type Graph struct {
	Tasks      map[int]*TaskNode
	Categories map[int]*CategoryNode

	ddm DDM
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Tasks:      make(map[int]*TaskNode),
		Categories: make(map[int]*CategoryNode),
		ddm:        NewDDM(),
	}
}

// DDM returns the graph's last-built deep dependency map.
func (g *Graph) DDM() DDM {
	return g.ddm
}

// AddCategory idempotently creates a category node. Most callers never need
// to call this directly: AddTodo auto-vivifies the owning category, mirroring
// how a loader only ever walks categories-then-todos from config.
func (g *Graph) AddCategory(cid int) {
	if _, ok := g.Categories[cid]; ok {
		return
	}
	g.Categories[cid] = newCategoryNode(cid)
}

// AddTodo idempotently creates a task node under category cid. A freshly
// added task starts out as a member (floor) of its category.
func (g *Graph) AddTodo(tid, cid int) {
	if _, ok := g.Tasks[tid]; ok {
		return
	}
	g.AddCategory(cid)
	node := newTaskNode(tid, cid)
	owner := cid
	node.CatDependant = &owner
	g.Tasks[tid] = node
	g.Categories[cid].Dependencies.add(tid)
}

// AddDep adds the edge a -> b ("a depends on b"). If a and b share a
// category, b is demoted out of its category's floor set: something within
// the category now depends on it, so it is no longer a leaf.
func (g *Graph) AddDep(a, b int) error {
	aNode, ok := g.Tasks[a]
	if !ok {
		return &UnknownReference{Kind: "task", ID: a}
	}
	bNode, ok := g.Tasks[b]
	if !ok {
		return &UnknownReference{Kind: "task", ID: b}
	}

	aNode.Deps.add(b)
	bNode.RDeps.add(a)

	if aNode.CategoryID == bNode.CategoryID && bNode.isMember() {
		bNode.CatDependant = nil
		if cat, ok := g.Categories[bNode.CategoryID]; ok {
			cat.Dependencies.remove(b)
		}
	}
	return nil
}

// AddCatDep adds the edge t -> c: task t depends on the whole category c.
func (g *Graph) AddCatDep(t, c int) error {
	tNode, ok := g.Tasks[t]
	if !ok {
		return &UnknownReference{Kind: "task", ID: t}
	}
	cat, ok := g.Categories[c]
	if !ok {
		return &UnknownReference{Kind: "category", ID: c}
	}
	tNode.CatDeps.add(c)
	cat.Dependants.add(t)
	return nil
}

// Roots returns the task ids with no outgoing dependency of either kind:
// nothing left for them to wait on.
func (g *Graph) Roots() []int {
	var roots []int
	for tid, node := range g.Tasks {
		if len(node.Deps) == 0 && len(node.CatDeps) == 0 {
			roots = append(roots, tid)
		}
	}
	return roots
}

// Floors returns the category ids that nothing outside depends on.
func (g *Graph) Floors() []int {
	var floors []int
	for cid, cat := range g.Categories {
		if len(cat.Dependants) == 0 {
			floors = append(floors, cid)
		}
	}
	return floors
}

// RemoveNode deletes tid while preserving transitive reachability for every
// surviving pair of nodes. Removing an id that does not exist is a no-op.
func (g *Graph) RemoveNode(tid int) {
	node, ok := g.Tasks[tid]
	if !ok {
		return
	}

	// Snapshot tid's edges before mutating anything: every step below reads
	// from these fixed sets so a transient half-applied state is never
	// observed mid-removal.
	dependants := node.RDeps.clone()
	deps := node.Deps.clone()
	catDeps := node.CatDeps.clone()

	// Every dependant of tid inherits tid's own deps and cat_deps directly,
	// so it keeps requiring exactly what it required transitively through
	// tid.
	for p := range dependants {
		pNode, ok := g.Tasks[p]
		if !ok {
			continue
		}
		for d := range deps {
			pNode.Deps.add(d)
			if dNode, ok := g.Tasks[d]; ok {
				dNode.RDeps.add(p)
			}
		}
		for c := range catDeps {
			pNode.CatDeps.add(c)
			if cat, ok := g.Categories[c]; ok {
				cat.Dependants.add(p)
			}
		}
	}

	if node.CatDependant != nil {
		owningCat := *node.CatDependant
		for d := range deps {
			depNode, ok := g.Tasks[d]
			if !ok {
				continue
			}
			if depNode.CategoryID == node.CategoryID {
				// d was demoted only because tid (a sibling) depended on
				// it; tid is leaving, so d is promoted back to the floor.
				v := owningCat
				depNode.CatDependant = &v
				if cat, ok := g.Categories[owningCat]; ok {
					cat.Dependencies.add(d)
				}
			} else if cat, ok := g.Categories[owningCat]; ok {
				// d is outside the category: propagate it to everyone who
				// depends on the whole category, so that relation survives
				// tid's removal.
				for p := range cat.Dependants.clone() {
					pNode, ok := g.Tasks[p]
					if !ok {
						continue
					}
					pNode.Deps.add(d)
					depNode.RDeps.add(p)
				}
			}
		}
		if cat, ok := g.Categories[owningCat]; ok {
			for cd := range catDeps {
				for p := range cat.Dependants.clone() {
					pNode, ok := g.Tasks[p]
					if !ok {
						continue
					}
					pNode.CatDeps.add(cd)
					if cdCat, ok := g.Categories[cd]; ok {
						cdCat.Dependants.add(p)
					}
				}
			}
		}
	}

	for d := range deps {
		if depNode, ok := g.Tasks[d]; ok {
			depNode.RDeps.remove(tid)
		}
	}
	for p := range dependants {
		if pNode, ok := g.Tasks[p]; ok {
			pNode.Deps.remove(tid)
		}
	}
	for c := range catDeps {
		if cat, ok := g.Categories[c]; ok {
			cat.Dependants.remove(tid)
		}
	}
	if node.CatDependant != nil {
		owningCat := *node.CatDependant
		if cat, ok := g.Categories[owningCat]; ok {
			cat.Dependencies.remove(tid)
			if len(cat.Dependencies) == 0 {
				for p := range cat.Dependants {
					if pNode, ok := g.Tasks[p]; ok {
						pNode.CatDeps.remove(owningCat)
					}
				}
				delete(g.Categories, owningCat)
			}
		}
	}

	delete(g.Tasks, tid)
}

// Copy returns a structural deep copy of the graph with a freshly built DDM.
func (g *Graph) Copy() *Graph {
	out := NewGraph()
	for tid, node := range g.Tasks {
		out.Tasks[tid] = node.clone()
	}
	for cid, cat := range g.Categories {
		out.Categories[cid] = cat.clone()
	}
	out.BuildDDM()
	return out
}

// FilterOut returns a new graph with every id in excluded removed, leaving
// the receiver untouched. The result's DDM equals self.DDM().Filter(excluded)
// by construction (checked by the tests and by depman's ScopeSubgraph).
func (g *Graph) FilterOut(excluded idSet) *Graph {
	out := g.Copy()
	for tid := range excluded {
		out.RemoveNode(tid)
	}
	out.BuildDDM()
	out.Dedupe()
	return out
}
