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

// Package threads implements the thread graph collaborator: it colours every reachable method with the thread
// start sites it may run under.
package threads

import (
	"github.com/awslabs/ar-go-pdg/analysis/config"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/internal/funcutil"
	"github.com/awslabs/ar-go-pdg/internal/workbag"
)

// MainThread is the id of the thread running the entry points
const MainThread = 0

// Graph is the result of the thread analysis
type Graph struct {
	// Ids contains the thread start sites. Ids[0] is always nil and stands for the main thread
	Ids []*ir.Invoke

	// StartSites maps start sites to their index in Ids. The indices are >= 1.
	StartSites map[*ir.Invoke]int

	// Colors maps every reachable method to the set of threads it may run in
	Colors map[*ir.Method]map[int]bool

	// once contains the methods that execute at most once in any run of the program
	once map[*ir.Method]bool
}

// New runs the thread analysis over the call graph. The roots of the program run in the main thread: they are the
// entries of the program, or the reachable methods without callers when the program declares none.
func New(logger *config.LogGroup, program *ir.Program, cg ir.CallGraph) *Graph {
	g := &Graph{
		Ids:        []*ir.Invoke{nil},
		StartSites: map[*ir.Invoke]int{},
		Colors:     map[*ir.Method]map[int]bool{},
		once:       map[*ir.Method]bool{},
	}
	for _, m := range cg.ReachableMethods() {
		for _, site := range m.Invokes() {
			if site.Kind == ir.StartCall {
				g.StartSites[site] = len(g.Ids)
				g.Ids = append(g.Ids, site)
				if logger != nil {
					logger.Debugf("Thread start site %d: %s in %s\n", len(g.Ids)-1, site, m)
				}
			}
		}
	}

	roots := rootsOf(program, cg)
	// Computing a fixpoint on the call graph. A method is put into the queue every time the set of threads it
	// may run in changes.
	que := workbag.New[*ir.Method](workbag.FIFO)
	for _, r := range roots {
		g.Colors[r] = map[int]bool{MainThread: true}
		que.Add(r)
	}
	for !que.IsEmpty() {
		m := que.Next()
		for _, e := range cg.Callees(m) {
			if g.Colors[e.Callee] == nil {
				g.Colors[e.Callee] = map[int]bool{}
				que.Add(e.Callee)
			}
			changed := false
			if id, isStart := g.StartSites[e.Site]; isStart {
				if !g.Colors[e.Callee][id] {
					g.Colors[e.Callee][id] = true
					changed = true
				}
			} else {
				for id := range g.Colors[m] {
					if !g.Colors[e.Callee][id] {
						g.Colors[e.Callee][id] = true
						changed = true
					}
				}
			}
			if changed {
				que.Add(e.Callee)
			}
		}
	}
	g.computeOnce(roots, cg)
	return g
}

func rootsOf(program *ir.Program, cg ir.CallGraph) []*ir.Method {
	if len(program.Entries) > 0 {
		return program.Entries
	}
	roots := funcutil.Filter(cg.ReachableMethods(), func(m *ir.Method) bool { return len(cg.Callers(m)) == 0 })
	if len(roots) == 0 {
		return cg.ReachableMethods()
	}
	return roots
}

// computeOnce marks the methods that run at most once: roots, and methods with a single call edge from a method
// running once, when the call site is not in a loop. Recursive methods never run once.
func (g *Graph) computeOnce(roots []*ir.Method, cg ir.CallGraph) {
	state := map[*ir.Method]int{} // 0: unknown, 1: in progress, 2: done
	isRoot := map[*ir.Method]bool{}
	for _, r := range roots {
		isRoot[r] = true
	}
	var visit func(m *ir.Method) bool
	visit = func(m *ir.Method) bool {
		switch state[m] {
		case 1:
			return false
		case 2:
			return g.once[m]
		}
		state[m] = 1
		res := false
		callers := cg.Callers(m)
		if isRoot[m] {
			res = len(callers) == 0
		} else if len(callers) == 1 {
			e := callers[0]
			res = !inLoop(e.Site) && visit(e.Caller)
		}
		state[m] = 2
		g.once[m] = res
		return res
	}
	for m := range g.Colors {
		visit(m)
	}
}

func inLoop(s ir.Statement) bool {
	bg := s.Parent().BlockGraph()
	if bg == nil {
		return false
	}
	return bg.InNonTrivialSCC(bg.BlockOf(s))
}

// IsStable returns true: the thread graph is computed entirely by New
func (g *Graph) IsStable() bool { return true }

// CreationSites returns the thread start sites
func (g *Graph) CreationSites() []*ir.Invoke {
	return g.Ids[1:]
}

// ThreadsOf returns the threads m may run in
func (g *Graph) ThreadsOf(m *ir.Method) []int {
	return funcutil.SetToOrderedSlice(g.Colors[m])
}

// RunsOnce returns true if m executes at most once in any run of the program
func (g *Graph) RunsOnce(m *ir.Method) bool {
	return g.once[m]
}

// startsOnce returns true if the thread id is created at most once
func (g *Graph) startsOnce(id int) bool {
	if id == MainThread {
		return true
	}
	site := g.Ids[id]
	return g.once[site.Parent()] && !inLoop(site)
}

// MustOccurInSameThread returns true if a and b run only in one and the same thread, and that thread is started
// at most once. Methods that are not reachable never run in the same thread.
func (g *Graph) MustOccurInSameThread(a, b *ir.Method) bool {
	ca, cb := g.Colors[a], g.Colors[b]
	if len(ca) != 1 || len(cb) != 1 {
		return false
	}
	for id := range ca {
		return cb[id] && g.startsOnce(id)
	}
	return false
}
