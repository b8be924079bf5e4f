// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package graphutil

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
)

// DiGraph is a directed graph over the nodes 0..Order()-1. It is the common representation used to hand control
// flow graphs and call graphs to existing graph libraries: it implements yourbasic's graph.Iterator as well as
// Gonum's graph.Directed.
type DiGraph struct {
	// succs[x] are the successors of x, sorted and without duplicates
	succs [][]int

	// preds[x] are the predecessors of x, sorted and without duplicates
	preds [][]int

	// edges[x][y] means there is an edge from x to y
	edges []map[int]bool
}

// NewDiGraph returns a graph with n nodes and no edges
func NewDiGraph(n int) *DiGraph {
	g := &DiGraph{
		succs: make([][]int, n),
		preds: make([][]int, n),
		edges: make([]map[int]bool, n),
	}
	for i := range g.edges {
		g.edges[i] = map[int]bool{}
	}
	return g
}

// NewDiGraphFrom returns a graph with n nodes where the successors of x are succ(x).
func NewDiGraphFrom(n int, succ func(int) []int) *DiGraph {
	g := NewDiGraph(n)
	for x := 0; x < n; x++ {
		for _, y := range succ(x) {
			g.AddEdge(x, y)
		}
	}
	return g
}

// AddEdge adds an edge from x to y. Adding an existing edge has no effect.
func (g *DiGraph) AddEdge(x, y int) {
	if g.edges[x][y] {
		return
	}
	g.edges[x][y] = true
	g.succs[x] = insertSorted(g.succs[x], y)
	g.preds[y] = insertSorted(g.preds[y], x)
}

func insertSorted(a []int, x int) []int {
	i := sort.SearchInts(a, x)
	a = append(a, 0)
	copy(a[i+1:], a[i:])
	a[i] = x
	return a
}

// Succs returns the successors of x
func (g *DiGraph) Succs(x int) []int { return g.succs[x] }

// Preds returns the predecessors of x
func (g *DiGraph) Preds(x int) []int { return g.preds[x] }

// HasEdge returns true if there is an edge from x to y
func (g *DiGraph) HasEdge(x, y int) bool {
	return x >= 0 && x < len(g.edges) && g.edges[x][y]
}

// Order implements the order of the graph.Iterator interface for the DiGraph
func (g *DiGraph) Order() int {
	return len(g.succs)
}

// Visit implements the graph.Iterator interface for the DiGraph
func (g *DiGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if v < 0 || v >= len(g.succs) {
		return false
	}
	for _, w := range g.succs[v] {
		if do(w, 1) {
			return true
		}
	}
	return false
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface
func (g *DiGraph) Node(id int64) graph.Node {
	if id < 0 || id >= int64(len(g.succs)) {
		return nil
	}
	return Node(id)
}

// Nodes returns the set of nodes in the graph
func (g *DiGraph) Nodes() graph.Nodes {
	nodes := make([]graph.Node, len(g.succs))
	for i := range g.succs {
		nodes[i] = Node(i)
	}
	return iterator.NewOrderedNodes(nodes)
}

// From returns the successors of the node with the given id
func (g *DiGraph) From(id int64) graph.Nodes {
	if g.Node(id) == nil {
		return graph.Empty
	}
	return toNodes(g.succs[id])
}

// To returns the predecessors of the node with the given id
func (g *DiGraph) To(id int64) graph.Nodes {
	if g.Node(id) == nil {
		return graph.Empty
	}
	return toNodes(g.preds[id])
}

func toNodes(ids []int) graph.Nodes {
	if len(ids) == 0 {
		return graph.Empty
	}
	nodes := make([]graph.Node, len(ids))
	for i, x := range ids {
		nodes[i] = Node(x)
	}
	return iterator.NewOrderedNodes(nodes)
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers
func (g *DiGraph) HasEdgeBetween(xid, yid int64) bool {
	return g.HasEdge(int(xid), int(yid)) || g.HasEdge(int(yid), int(xid))
}

// HasEdgeFromTo returns whether there is an edge from uid to vid
func (g *DiGraph) HasEdgeFromTo(uid, vid int64) bool {
	return g.HasEdge(int(uid), int(vid))
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (g *DiGraph) Edge(uid, vid int64) graph.Edge {
	if g.HasEdge(int(uid), int(vid)) {
		return Edge{F: Node(uid), T: Node(vid)}
	}
	return nil
}

// Reversed returns a new graph with all edges reversed
func (g *DiGraph) Reversed() *DiGraph {
	return NewDiGraphFrom(g.Order(), g.Preds)
}

// *************** Nodes and edges **********************

// Node is a graph node identified by an integer
type Node int64

// ID returns the id of the node
func (n Node) ID() int64 { return int64(n) }

// Edge implements the graph.Edge interface
type Edge struct {
	F, T Node
}

// From returns the origin of the edge
func (e Edge) From() graph.Node { return e.F }

// To returns the destination of the edge
func (e Edge) To() graph.Node { return e.T }

// ReversedEdge returns a new value representing the reversed edge
func (e Edge) ReversedEdge() graph.Edge { return Edge{F: e.T, T: e.F} }
