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

// Package escape implements a flow-insensitive thread-escape analysis over the IR, and symbolic access paths used
// to decide whether two accesses may touch the same location.
//
// Locals that may hold the same object (copies, argument passing, returns) are merged into one node. A node
// leaks when its object is reachable from a static field, is passed to a thread start, or is reachable from a
// leaked node through field and array accesses.
package escape

import (
	"github.com/awslabs/ar-go-pdg/analysis/config"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/internal/workbag"
)

// EscapeStatus is the escape status of an object
type EscapeStatus uint8

const (
	// Local objects are reachable from a single thread
	Local EscapeStatus = 0
	// Leaked objects may be reachable from several threads
	Leaked EscapeStatus = 1
)

// Analysis is the result of the escape analysis. It implements ir.EscapeInfo.
type Analysis struct {
	parent map[*ir.Local]*ir.Local

	// contains maps the representative of a node to the representatives of the nodes reachable through one field
	// or array access
	contains map[*ir.Local]map[*ir.Local]bool

	status map[*ir.Local]EscapeStatus

	// known contains all the locals of the methods analyzed
	known map[*ir.Local]bool
}

// New analyzes the methods provided
func New(logger *config.LogGroup, methods []*ir.Method) *Analysis {
	a := &Analysis{
		parent:   map[*ir.Local]*ir.Local{},
		contains: map[*ir.Local]map[*ir.Local]bool{},
		status:   map[*ir.Local]EscapeStatus{},
		known:    map[*ir.Local]bool{},
	}
	var roots []*ir.Local
	var edges [][2]*ir.Local
	for _, m := range methods {
		for _, l := range m.Locals {
			a.known[l] = true
		}
		for _, s := range m.Statements {
			switch x := s.(type) {
			case *ir.Assign:
				r, e := a.assign(x)
				roots = append(roots, r...)
				edges = append(edges, e...)
			case *ir.Invoke:
				roots = append(roots, a.invoke(x)...)
			}
		}
	}
	for _, e := range edges {
		ra, rb := a.find(e[0]), a.find(e[1])
		if a.contains[ra] == nil {
			a.contains[ra] = map[*ir.Local]bool{}
		}
		a.contains[ra][rb] = true
	}
	que := workbag.NewHistoryAware[*ir.Local](workbag.FIFO)
	for _, r := range roots {
		que.Add(a.find(r))
	}
	for !que.IsEmpty() {
		r := que.Next()
		a.status[r] = Leaked
		for c := range a.contains[r] {
			que.Add(a.find(c))
		}
	}
	if logger != nil && logger.LogsDebug() {
		logger.Debugf("Escape analysis: %d leaked nodes\n", len(a.status))
	}
	return a
}

// assign records the effect of an assignment. It returns the locals that leak and the containment edges.
func (a *Analysis) assign(s *ir.Assign) (leaks []*ir.Local, edges [][2]*ir.Local) {
	switch lhs := s.Lhs.(type) {
	case *ir.Local:
		switch rhs := s.Rhs.(type) {
		case *ir.Local:
			a.union(lhs, rhs)
		case *ir.FieldRef:
			if rhs.Base == nil {
				leaks = append(leaks, lhs)
			} else {
				edges = append(edges, [2]*ir.Local{rhs.Base, lhs})
			}
		case *ir.ArrayRef:
			edges = append(edges, [2]*ir.Local{rhs.Base, lhs})
		}
	case *ir.FieldRef:
		if v, ok := s.Rhs.(*ir.Local); ok {
			if lhs.Base == nil {
				leaks = append(leaks, v)
			} else {
				edges = append(edges, [2]*ir.Local{lhs.Base, v})
			}
		}
	case *ir.ArrayRef:
		if v, ok := s.Rhs.(*ir.Local); ok {
			edges = append(edges, [2]*ir.Local{lhs.Base, v})
		}
	}
	return leaks, edges
}

// invoke binds arguments to parameters and returned values to the result. Values passed to a thread start leak.
func (a *Analysis) invoke(s *ir.Invoke) (leaks []*ir.Local) {
	actuals := []ir.Expr{}
	if s.Receiver != nil {
		actuals = append(actuals, s.Receiver)
	}
	actuals = append(actuals, s.Args...)
	if s.Kind == ir.StartCall {
		for _, e := range actuals {
			if l, ok := e.(*ir.Local); ok {
				leaks = append(leaks, l)
			}
		}
	}
	for _, callee := range s.Callees {
		for i, e := range actuals {
			l, ok := e.(*ir.Local)
			if !ok || i >= len(callee.Params) {
				continue
			}
			a.union(l, callee.Params[i])
		}
		if s.Result == nil {
			continue
		}
		for _, r := range callee.Returns() {
			if v, ok := r.Value.(*ir.Local); ok {
				a.union(s.Result, v)
			}
		}
	}
	return leaks
}

func (a *Analysis) find(l *ir.Local) *ir.Local {
	p, ok := a.parent[l]
	if !ok || p == l {
		return l
	}
	r := a.find(p)
	a.parent[l] = r
	return r
}

func (a *Analysis) union(x, y *ir.Local) {
	rx, ry := a.find(x), a.find(y)
	if rx != ry {
		a.parent[rx] = ry
	}
}

// Status returns the escape status of the object l points to
func (a *Analysis) Status(l *ir.Local) EscapeStatus {
	if !a.known[l] {
		return Leaked
	}
	return a.status[a.find(l)]
}

// Escapes returns true if the object l points to may be reachable from several threads. Locals the analysis has
// not seen escape.
func (a *Analysis) Escapes(l *ir.Local) bool {
	return a.Status(l) == Leaked
}

// Shared returns true if the location e denotes may be accessed by several threads: static fields, and fields or
// elements of escaping objects.
func (a *Analysis) Shared(e ir.Expr) bool {
	switch x := e.(type) {
	case *ir.FieldRef:
		return x.Base == nil || a.Escapes(x.Base)
	case *ir.ArrayRef:
		return a.Escapes(x.Base)
	case *ir.Local:
		return a.Escapes(x)
	}
	return false
}
