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

// Package monitor computes the monitor regions of a program: it pairs every enter-monitor statement with the
// exit-monitor statements releasing the same lock, and answers enclosing-monitor queries.
package monitor

import (
	"github.com/awslabs/ar-go-pdg/analysis/config"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/internal/workbag"
	"golang.org/x/exp/slices"
)

// Info implements ir.MonitorInfo
type Info struct {
	triples []ir.MonitorTriple

	// regions maps each non-synthetic triple to the statements strictly between its enter and its exit
	regions map[ir.MonitorTriple]map[ir.Statement]bool

	// delimiters maps monitor statements to the triples they delimit
	delimiters map[ir.Statement][]ir.MonitorTriple

	// synthetic maps synchronized methods to their triple
	synthetic map[*ir.Method]ir.MonitorTriple

	enclosing map[ir.Statement][]ir.MonitorTriple
}

// New computes the monitor triples of the methods provided
func New(logger *config.LogGroup, methods []*ir.Method) *Info {
	info := &Info{
		regions:    map[ir.MonitorTriple]map[ir.Statement]bool{},
		delimiters: map[ir.Statement][]ir.MonitorTriple{},
		synthetic:  map[*ir.Method]ir.MonitorTriple{},
		enclosing:  map[ir.Statement][]ir.MonitorTriple{},
	}
	for _, m := range methods {
		if m.Synchronized {
			t := ir.MonitorTriple{Method: m}
			info.triples = append(info.triples, t)
			info.synthetic[m] = t
		}
		if !m.IsConcrete() {
			continue
		}
		for _, s := range m.Statements {
			enter, ok := s.(*ir.EnterMonitor)
			if !ok {
				continue
			}
			exits, region := pair(enter)
			if len(exits) == 0 && logger != nil {
				logger.Warnf("No exit-monitor matches %s at %d in %s\n", enter, enter.Index(), m)
			}
			for _, exit := range exits {
				t := ir.MonitorTriple{Enter: enter, Exit: exit, Method: m}
				info.triples = append(info.triples, t)
				info.regions[t] = region
				info.delimiters[enter] = append(info.delimiters[enter], t)
				info.delimiters[exit] = append(info.delimiters[exit], t)
			}
		}
	}
	return info
}

// pair walks the statements following enter until an exit-monitor on the same lock is found on every path. It
// returns those exits and the statements visited before reaching them.
func pair(enter *ir.EnterMonitor) ([]*ir.ExitMonitor, map[ir.Statement]bool) {
	g := enter.Parent().BlockGraph()
	region := map[ir.Statement]bool{}
	var exits []*ir.ExitMonitor
	que := workbag.NewHistoryAware[ir.Statement](workbag.LIFO)
	que.AddAll(g.StmtSuccs(enter))
	for !que.IsEmpty() {
		s := que.Next()
		if exit, ok := s.(*ir.ExitMonitor); ok && ir.SameLock(exit.Lock, enter.Lock) {
			if !slices.Contains(exits, exit) {
				exits = append(exits, exit)
			}
			continue
		}
		if s == ir.Statement(enter) {
			continue
		}
		region[s] = true
		que.AddAll(g.StmtSuccs(s))
	}
	slices.SortFunc(exits, func(a, b *ir.ExitMonitor) bool { return a.Index() < b.Index() })
	return exits, region
}

// IsStable returns true: the triples are computed entirely by New
func (i *Info) IsStable() bool { return true }

// Monitors returns all the triples, synthetic ones included
func (i *Info) Monitors() []ir.MonitorTriple {
	return i.triples
}

// TriplesOf returns the triples delimited by s
func (i *Info) TriplesOf(s ir.Statement) []ir.MonitorTriple {
	return i.delimiters[s]
}

// SyntheticTriple returns the triple of the synchronized method m
func (i *Info) SyntheticTriple(m *ir.Method) (ir.MonitorTriple, bool) {
	t, ok := i.synthetic[m]
	return t, ok
}

// Encloses returns true if s is in the region of t
func (i *Info) Encloses(t ir.MonitorTriple, s ir.Statement) bool {
	if t.IsSynthetic() {
		return s.Parent() == t.Method
	}
	return i.regions[t][s]
}

// EnclosingMonitors returns the innermost triples whose region contains s. The synthetic triple of a
// synchronized method encloses the statements of the method that are in no other region.
func (i *Info) EnclosingMonitors(s ir.Statement) []ir.MonitorTriple {
	if res, ok := i.enclosing[s]; ok {
		return res
	}
	var candidates []ir.MonitorTriple
	for _, t := range i.triples {
		if t.Method == s.Parent() && !t.IsSynthetic() && i.regions[t][s] {
			candidates = append(candidates, t)
		}
	}
	var res []ir.MonitorTriple
	for _, t := range candidates {
		// t is innermost if no other enclosing region starts inside it
		innermost := true
		for _, u := range candidates {
			if u.Enter != t.Enter && i.regions[t][u.Enter] {
				innermost = false
				break
			}
		}
		if innermost {
			res = append(res, t)
		}
	}
	if len(res) == 0 {
		if t, ok := i.synthetic[s.Parent()]; ok {
			res = append(res, t)
		}
	}
	i.enclosing[s] = res
	return res
}

// LockOf returns the lock expression of the triple. The lock of a synchronized method is its receiver, or its
// class if the method is static.
func LockOf(t ir.MonitorTriple) ir.Expr {
	if !t.IsSynthetic() {
		return t.Enter.Lock
	}
	m := t.Method
	if !m.Static && len(m.Params) > 0 {
		return m.Params[0]
	}
	return &ir.Const{Value: m.Class.String() + ".class", Typ: m.Class}
}

// EntryOf returns the statement standing for the acquisition of the lock of t. For synchronized methods, this
// is the first statement of the method.
func EntryOf(t ir.MonitorTriple) ir.Statement {
	if !t.IsSynthetic() {
		return t.Enter
	}
	return t.Method.Stmt(0)
}

// ReleasesOf returns the statements standing for the release of the lock of t. For synchronized methods, these
// are the return statements of the method.
func ReleasesOf(t ir.MonitorTriple) []ir.Statement {
	if !t.IsSynthetic() {
		return []ir.Statement{t.Exit}
	}
	var res []ir.Statement
	for _, r := range t.Method.Returns() {
		res = append(res, r)
	}
	return res
}
