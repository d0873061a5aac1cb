// Copyright (c) 2024 taskind authors.
// SPDX-License-Identifier: Apache-2.0

// Package projection renders a Graph into a node/edge list a UI can draw,
// adding the synthetic control nodes the source product surfaces: one
// "Wake up" per current root task, one "Go to sleep" per floor category,
// and a single "All One-Off Todos" node bridging the one-off sentinel pair
// to visible one-off items.
package projection

import (
	"strconv"

	"github.com/halvorn/taskind/pkg/depgraph"
)

// NodeKind distinguishes rendered node types.
type NodeKind string

const (
	NodeKindTask       NodeKind = "task"
	NodeKindCategory   NodeKind = "category"
	NodeKindWakeUp     NodeKind = "wake_up"
	NodeKindGoToSleep  NodeKind = "go_to_sleep"
	NodeKindAllOneoffs NodeKind = "all_oneoffs"
)

// Node is a single renderable vertex.
type Node struct {
	ID         string
	Kind       NodeKind
	TaskID     *int
	CategoryID *int
	// BorderColor is an optional status-derived hint, populated by the
	// caller from live task status before rendering; the projection itself
	// carries no task status.
	BorderColor string
}

// EdgeKind distinguishes rendered edge types.
type EdgeKind string

const (
	EdgeKindDep        EdgeKind = "dep"
	EdgeKindCatDep     EdgeKind = "cat_dep"
	EdgeKindMembership EdgeKind = "membership"
)

// Edge is a single renderable, directed edge between two Node ids.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
}

// View is the renderable projection of a Graph.
type View struct {
	Nodes []Node
	Edges []Edge
}

func taskNodeID(tid int) string { return "task:" + strconv.Itoa(tid) }
func catNodeID(cid int) string  { return "category:" + strconv.Itoa(cid) }

// Render translates g into a View, adding the synthetic control nodes.
// oneoffStartID/oneoffEndID identify the sentinel pair so the "All One-Off
// Todos" bridge node can be placed correctly; pass the same ids depman
// injects them under.
func Render(g *depgraph.Graph, oneoffStartID, oneoffEndID int) View {
	var v View

	for tid, node := range g.Tasks {
		t := tid
		v.Nodes = append(v.Nodes, Node{ID: taskNodeID(tid), Kind: NodeKindTask, TaskID: &t})
		for d := range node.Deps {
			v.Edges = append(v.Edges, Edge{From: taskNodeID(tid), To: taskNodeID(d), Kind: EdgeKindDep})
		}
		for c := range node.CatDeps {
			v.Edges = append(v.Edges, Edge{From: taskNodeID(tid), To: catNodeID(c), Kind: EdgeKindCatDep})
		}
	}

	for cid, cat := range g.Categories {
		c := cid
		v.Nodes = append(v.Nodes, Node{ID: catNodeID(cid), Kind: NodeKindCategory, CategoryID: &c})
		for member := range cat.Dependencies {
			v.Edges = append(v.Edges, Edge{From: catNodeID(cid), To: taskNodeID(member), Kind: EdgeKindMembership})
		}
	}

	for _, tid := range g.Roots() {
		wakeID := "wake_up:" + strconv.Itoa(tid)
		v.Nodes = append(v.Nodes, Node{ID: wakeID, Kind: NodeKindWakeUp})
		v.Edges = append(v.Edges, Edge{From: wakeID, To: taskNodeID(tid), Kind: EdgeKindDep})
	}

	for _, cid := range g.Floors() {
		sleepID := "go_to_sleep:" + strconv.Itoa(cid)
		v.Nodes = append(v.Nodes, Node{ID: sleepID, Kind: NodeKindGoToSleep})
		v.Edges = append(v.Edges, Edge{From: sleepID, To: catNodeID(cid), Kind: EdgeKindCatDep})
	}

	if _, ok := g.Categories[oneoffEndID]; ok {
		bridgeID := "all_oneoffs"
		v.Nodes = append(v.Nodes, Node{ID: bridgeID, Kind: NodeKindAllOneoffs})
		v.Edges = append(v.Edges, Edge{From: bridgeID, To: catNodeID(oneoffEndID), Kind: EdgeKindCatDep})
		if _, ok := g.Tasks[oneoffStartID]; ok {
			v.Edges = append(v.Edges, Edge{From: bridgeID, To: taskNodeID(oneoffStartID), Kind: EdgeKindDep})
		}
	}

	return v
}

// Filtered renders a time-window-filtered projection by delegating to
// FilterOut on a copy; it never mutates g.
func Filtered(g *depgraph.Graph, excludedTids []int, oneoffStartID, oneoffEndID int) View {
	scoped := g.FilterOut(depgraph.Ids(excludedTids...))
	return Render(scoped, oneoffStartID, oneoffEndID)
}
