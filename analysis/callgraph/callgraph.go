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

// Package callgraph implements the call graph collaborator of the dependence analyses over the statement-level IR.
// The call graph is built from the callees resolved at each call site by the frontend.
package callgraph

import (
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/internal/funcutil"
	"github.com/awslabs/ar-go-pdg/internal/graphutil"
	"github.com/awslabs/ar-go-pdg/internal/workbag"
	"golang.org/x/exp/slices"
)

// Graph is a call graph restricted to the methods reachable from the entry points of a program
type Graph struct {
	program *ir.Program

	// methods are the reachable methods, in discovery order. The node of methods[i] in di is i.
	methods []*ir.Method
	index   map[*ir.Method]int

	callers map[*ir.Method][]ir.CallTriple
	callees map[*ir.Method][]ir.CallTriple

	di *graphutil.DiGraph
	// local has the edges of di whose call site runs the callee in the caller's thread
	local *graphutil.DiGraph

	// component[i] is the index of the strongly connected component of methods[i]
	component []int
	recursive []bool

	// reach and localReach cache the transitive callees of each method in di and local, itself included
	reach      map[int]map[int]bool
	localReach map[int]map[int]bool
}

// New builds the call graph of the program, starting from its entry points. Every method of the program is an
// entry point when the program declares none.
func New(program *ir.Program) *Graph {
	g := &Graph{
		program:    program,
		index:      map[*ir.Method]int{},
		callers:    map[*ir.Method][]ir.CallTriple{},
		callees:    map[*ir.Method][]ir.CallTriple{},
		reach:      map[int]map[int]bool{},
		localReach: map[int]map[int]bool{},
	}
	roots := program.Entries
	if len(roots) == 0 {
		roots = program.Methods
	}
	que := workbag.NewHistoryAware[*ir.Method](workbag.FIFO)
	que.AddAll(roots)
	for !que.IsEmpty() {
		m := que.Next()
		g.index[m] = len(g.methods)
		g.methods = append(g.methods, m)
		for _, site := range m.Invokes() {
			for _, callee := range site.Callees {
				e := ir.CallTriple{Caller: m, Site: site, Callee: callee}
				g.callees[m] = append(g.callees[m], e)
				g.callers[callee] = append(g.callers[callee], e)
				que.Add(callee)
			}
		}
	}
	g.di = graphutil.NewDiGraph(len(g.methods))
	g.local = graphutil.NewDiGraph(len(g.methods))
	for i, m := range g.methods {
		for _, e := range g.callees[m] {
			g.di.AddEdge(i, g.index[e.Callee])
			if e.Site.Kind != ir.StartCall {
				g.local.AddEdge(i, g.index[e.Callee])
			}
		}
	}
	g.computeComponents()
	return g
}

func (g *Graph) computeComponents() {
	g.component = make([]int, len(g.methods))
	g.recursive = make([]bool, len(g.methods))
	for i, comp := range graphutil.StrongComponents(g.di) {
		for _, n := range comp {
			g.component[n] = i
			g.recursive[n] = len(comp) > 1 || g.di.HasEdge(n, n)
		}
	}
}

// IsStable returns true: the call graph is computed entirely by New
func (g *Graph) IsStable() bool { return true }

// ReachableMethods returns the reachable methods, in breadth-first order from the entry points
func (g *Graph) ReachableMethods() []*ir.Method {
	return g.methods
}

// IsReachable returns true if m is reachable from the entry points
func (g *Graph) IsReachable(m *ir.Method) bool {
	_, ok := g.index[m]
	return ok
}

// Callers returns the call edges whose callee is m
func (g *Graph) Callers(m *ir.Method) []ir.CallTriple {
	return g.callers[m]
}

// Callees returns the call edges whose caller is m
func (g *Graph) Callees(m *ir.Method) []ir.CallTriple {
	return g.callees[m]
}

// CallSitesOf returns the call statements that may call m
func (g *Graph) CallSitesOf(m *ir.Method) []*ir.Invoke {
	var sites []*ir.Invoke
	for _, e := range g.callers[m] {
		if !slices.Contains(sites, e.Site) {
			sites = append(sites, e.Site)
		}
	}
	return sites
}

// IsRecursive returns true if m may call itself, directly or through other methods
func (g *Graph) IsRecursive(m *ir.Method) bool {
	i, ok := g.index[m]
	return ok && g.recursive[i]
}

// SameComponent returns true if a and b are mutually recursive (or are the same method)
func (g *Graph) SameComponent(a, b *ir.Method) bool {
	i, oka := g.index[a]
	j, okb := g.index[b]
	return oka && okb && g.component[i] == g.component[j]
}

// TransitiveCallees returns the methods m may call directly or transitively, m included
func (g *Graph) TransitiveCallees(m *ir.Method) map[*ir.Method]bool {
	i, ok := g.index[m]
	if !ok {
		return map[*ir.Method]bool{}
	}
	res := map[*ir.Method]bool{}
	for n := range g.reachFrom(i) {
		res[g.methods[n]] = true
	}
	return res
}

func (g *Graph) reachFrom(i int) map[int]bool {
	return cachedReach(g.reach, g.di, i)
}

func cachedReach(cache map[int]map[int]bool, di *graphutil.DiGraph, i int) map[int]bool {
	if r, ok := cache[i]; ok {
		return r
	}
	r := graphutil.Reachable(di, i)
	cache[i] = r
	return r
}

// AnyReachableFrom returns true if any of the targets may be called, directly or transitively, by site in the
// thread executing site. A thread start reaches nothing: its callees run in the new thread, and the calls they make
// follow only the edges that do not start threads.
func (g *Graph) AnyReachableFrom(site *ir.Invoke, targets map[*ir.Method]bool) bool {
	if site.Kind == ir.StartCall {
		return false
	}
	for _, callee := range site.Callees {
		i, ok := g.index[callee]
		if !ok {
			continue
		}
		reach := cachedReach(g.localReach, g.local, i)
		if funcutil.Exists(g.methodsOf(reach), func(m *ir.Method) bool { return targets[m] }) {
			return true
		}
	}
	return false
}

func (g *Graph) methodsOf(nodes map[int]bool) []*ir.Method {
	res := make([]*ir.Method, 0, len(nodes))
	for n := range nodes {
		res = append(res, g.methods[n])
	}
	return res
}

// DiGraph returns the graph of method indices underlying the call graph. Node i is ReachableMethods()[i].
func (g *Graph) DiGraph() *graphutil.DiGraph {
	return g.di
}
