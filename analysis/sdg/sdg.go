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

// Package sdg builds the system dependence graph of a program: a directed multigraph over statements whose lines
// go from a dependent statement to the statement it depends on, labelled by the kind of the dependence. Besides
// the dependences computed by the dependence analyses, the graph has call, parameter-in and parameter-out lines
// between call sites and the methods they call.
package sdg

import (
	"fmt"

	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/traverse"
)

const (
	// CallDA tags the dependence of the entry of a method on the call sites that call it
	CallDA dependence.ID = "call"
	// ParamInDA tags the dependence of the statements reading a parameter on the call sites passing it
	ParamInDA dependence.ID = "param-in"
	// ParamOutDA tags the dependence of a call site on the return statements of the methods it calls
	ParamOutDA dependence.ID = "param-out"
)

// Node is the node of a statement
type Node struct {
	id   int64
	Stmt ir.Statement
}

// ID returns the id of the node in the graph
func (n *Node) ID() int64 { return n.id }

func (n *Node) String() string {
	return fmt.Sprintf("%s@%d", n.Stmt.Parent(), n.Stmt.Index())
}

// Line is a dependence of F on T
type Line struct {
	F, T *Node
	UID  int64
	Kind dependence.ID
}

// From returns the dependent statement
func (l *Line) From() graph.Node { return l.F }

// To returns the dependee
func (l *Line) To() graph.Node { return l.T }

// ReversedLine returns the line in the other direction, with the same kind
func (l *Line) ReversedLine() graph.Line { return &Line{F: l.T, T: l.F, UID: l.UID, Kind: l.Kind} }

// ID returns the id of the line
func (l *Line) ID() int64 { return l.UID }

// Edge is a dependence as reported by Edges
type Edge struct {
	Dependent ir.Statement
	Dependee  ir.Statement
	Kind      dependence.ID
}

func (e Edge) String() string {
	return fmt.Sprintf("%s@%d -%s-> %s@%d", e.Dependent.Parent(), e.Dependent.Index(), e.Kind,
		e.Dependee.Parent(), e.Dependee.Index())
}

// Graph is a system dependence graph
type Graph struct {
	g     *multi.DirectedGraph
	nodes map[ir.Statement]*Node
	// lines avoids duplicate lines of the same kind between two nodes
	lines map[Edge]bool
}

// New returns an empty graph
func New() *Graph {
	return &Graph{
		g:     multi.NewDirectedGraph(),
		nodes: map[ir.Statement]*Node{},
		lines: map[Edge]bool{},
	}
}

// Build returns the graph of the dependences computed by the analyses over the methods of the program, together
// with the inter-procedural lines of the call graph. The analyses must be stable.
func Build(program *ir.Program, cg ir.CallGraph, analyses ...dependence.StmtAnalysis) (*Graph, error) {
	g := New()
	for _, a := range analyses {
		if !a.IsStable() {
			return nil, fmt.Errorf("building dependence graph: %v analysis is not stable", a.IDs())
		}
		kind := a.IDs()[0]
		for _, m := range program.Methods {
			for _, s := range m.Statements {
				for _, d := range a.Dependees(s, m) {
					g.Add(s, d, kind)
				}
			}
		}
	}
	if cg != nil {
		for _, m := range cg.ReachableMethods() {
			for _, e := range cg.Callees(m) {
				g.addCall(e)
			}
		}
	}
	return g, nil
}

// addCall adds the lines of the call edge e: the entry of the callee depends on the call site, the uses of the
// parameters of the callee depend on the call site, and a call site defining a result depends on the returns of
// the callee
func (g *Graph) addCall(e ir.CallTriple) {
	callee := e.Callee
	if !callee.IsConcrete() {
		return
	}
	g.Add(callee.Stmt(0), e.Site, CallDA)
	params := map[*ir.Local]bool{}
	for _, p := range callee.Params {
		params[p] = true
	}
	for _, s := range callee.Statements {
		if slices.IndexFunc(s.Uses(), func(l *ir.Local) bool { return params[l] }) >= 0 {
			g.Add(s, e.Site, ParamInDA)
		}
	}
	if e.Site.Result == nil {
		return
	}
	for _, r := range callee.Returns() {
		if r.Value != nil {
			g.Add(e.Site, r, ParamOutDA)
		}
	}
}

func (g *Graph) node(s ir.Statement) *Node {
	if n, ok := g.nodes[s]; ok {
		return n
	}
	n := &Node{id: g.g.NewNode().ID(), Stmt: s}
	g.g.AddNode(n)
	g.nodes[s] = n
	return n
}

// Add records that dependent depends on dependee with the given kind. Self dependences are ignored.
func (g *Graph) Add(dependent, dependee ir.Statement, kind dependence.ID) {
	e := Edge{Dependent: dependent, Dependee: dependee, Kind: kind}
	if dependent == dependee || g.lines[e] {
		return
	}
	g.lines[e] = true
	from, to := g.node(dependent), g.node(dependee)
	g.g.SetLine(&Line{F: from, T: to, UID: g.g.NewLine(from, to).ID(), Kind: kind})
}

// Len returns the number of lines of the graph
func (g *Graph) Len() int {
	return len(g.lines)
}

// accepts returns a filter on lines keeping the kinds provided, or all lines if kinds is empty
func accepts(kinds []dependence.ID) func(*Line) bool {
	return func(l *Line) bool {
		return len(kinds) == 0 || slices.Contains(kinds, l.Kind)
	}
}

// Dependees returns the statements s depends on through dependences of the kinds provided (all kinds if none are
// provided)
func (g *Graph) Dependees(s ir.Statement, kinds ...dependence.ID) []ir.Statement {
	n, ok := g.nodes[s]
	if !ok {
		return []ir.Statement{}
	}
	keep := accepts(kinds)
	res := []ir.Statement{}
	succs := g.g.From(n.ID())
	for succs.Next() {
		to := succs.Node().(*Node)
		if g.hasLine(n, to, keep) {
			res = append(res, to.Stmt)
		}
	}
	slices.SortFunc(res, ir.Compare)
	return res
}

func (g *Graph) hasLine(from, to graph.Node, keep func(*Line) bool) bool {
	lines := g.g.Lines(from.ID(), to.ID())
	for lines.Next() {
		if keep(lines.Line().(*Line)) {
			return true
		}
	}
	return false
}

// Edges returns all the dependences of the graph, ordered by dependent, dependee and kind
func (g *Graph) Edges() []Edge {
	res := make([]Edge, 0, len(g.lines))
	for e := range g.lines {
		res = append(res, e)
	}
	slices.SortFunc(res, func(a, b Edge) bool {
		if a.Dependent != b.Dependent {
			return ir.Compare(a.Dependent, b.Dependent)
		}
		if a.Dependee != b.Dependee {
			return ir.Compare(a.Dependee, b.Dependee)
		}
		return a.Kind < b.Kind
	})
	return res
}

// Reach returns the statements the criterion depends on, directly or transitively, through dependences of the
// kinds provided (all kinds if none are provided). The statements of the criterion are included.
func (g *Graph) Reach(criterion []ir.Statement, kinds ...dependence.ID) []ir.Statement {
	keep := accepts(kinds)
	seen := map[ir.Statement]bool{}
	bfs := traverse.BreadthFirst{
		Visit: func(n graph.Node) { seen[n.(*Node).Stmt] = true },
		Traverse: func(e graph.Edge) bool {
			return g.hasLine(e.From(), e.To(), keep)
		},
	}
	for _, s := range criterion {
		seen[s] = true
		if n, ok := g.nodes[s]; ok {
			bfs.Walk(g.g, n, nil)
		}
	}
	res := make([]ir.Statement, 0, len(seen))
	for s := range seen {
		res = append(res, s)
	}
	slices.SortFunc(res, ir.Compare)
	return res
}
