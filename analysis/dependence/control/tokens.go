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

package control

import (
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/internal/workbag"
	"golang.org/x/tools/container/intsets"
)

// fanout returns the number of outgoing edges of b, plus one for exit blocks that have successors: control may
// leave the method there instead of going to any of the successors.
func fanout(b *ir.BasicBlock) int {
	k := len(b.Succs)
	if k > 0 && ir.IsExit(b.Trailer()) {
		k++
	}
	return k
}

// tokenState holds the token sets of one run of the propagation. tokens[n][p] is the set of tokens of control
// point p that reached n: token i is set when the path through the i-th successor of p reached n.
type tokenState struct {
	g      *ir.BlockGraph
	fanout []int
	tokens []map[int]*intsets.Sparse

	// fullFor[q] contains the nodes holding all the tokens of q
	fullFor map[int]map[int]bool

	bag *workbag.Bag[int]
}

func newTokenState(g *ir.BlockGraph, order workbag.Order) *tokenState {
	n := len(g.Blocks)
	ts := &tokenState{
		g:       g,
		fanout:  make([]int, n),
		tokens:  make([]map[int]*intsets.Sparse, n),
		fullFor: map[int]map[int]bool{},
		bag:     workbag.New[int](order),
	}
	for i, b := range g.Blocks {
		ts.fanout[i] = fanout(b)
		ts.tokens[i] = map[int]*intsets.Sparse{}
	}
	return ts
}

func (ts *tokenState) isControlPoint(n int) bool {
	return ts.fanout[n] > 1
}

func (ts *tokenState) set(n, p int) *intsets.Sparse {
	s, ok := ts.tokens[n][p]
	if !ok {
		s = &intsets.Sparse{}
		ts.tokens[n][p] = s
	}
	return s
}

func (ts *tokenState) controlPointsOf(n int) []int {
	ps := make([]int, 0, len(ts.tokens[n]))
	for p := range ts.tokens[n] {
		ps = append(ps, p)
	}
	return ps
}

// changed enqueues n, and the nodes that inherit the token sets of n
func (ts *tokenState) changed(n int) {
	ts.bag.Add(n)
	for m := range ts.fullFor[n] {
		ts.bag.Add(m)
	}
}

// propagate runs the token propagation to its fixpoint
func (ts *tokenState) propagate() {
	for p, b := range ts.g.Blocks {
		if !ts.isControlPoint(p) {
			continue
		}
		for i, succ := range b.Succs {
			ts.set(succ.ID, p).Insert(i)
			ts.changed(succ.ID)
		}
	}
	for !ts.bag.IsEmpty() {
		n := ts.bag.Next()
		// a node with a single successor passes its tokens on
		if ts.fanout[n] == 1 {
			m := ts.g.Blocks[n].Succs[0].ID
			changed := false
			for _, p := range ts.controlPointsOf(n) {
				if ts.set(m, p).UnionWith(ts.tokens[n][p]) {
					changed = true
				}
			}
			if changed {
				ts.changed(m)
			}
		}
		// a node holding all the tokens of q behaves like the point where the paths from q converge
		changed := false
		for _, q := range ts.controlPointsOf(n) {
			if q == n || ts.tokens[n][q].Len() != ts.fanout[q] {
				continue
			}
			if ts.fullFor[q] == nil {
				ts.fullFor[q] = map[int]bool{}
			}
			ts.fullFor[q][n] = true
			for _, r := range ts.controlPointsOf(q) {
				if r == q {
					continue
				}
				if ts.set(n, r).UnionWith(ts.tokens[q][r]) {
					changed = true
				}
			}
		}
		if changed {
			ts.changed(n)
		}
	}
}

// dependences returns, for each block, the control points it depends on: the control points p such that
// 0 < |tokens[n][p]| < fanout(p)
func (ts *tokenState) dependences() map[int][]int {
	deps := map[int][]int{}
	for n := range ts.g.Blocks {
		for p, s := range ts.tokens[n] {
			if c := s.Len(); c > 0 && c < ts.fanout[p] {
				deps[n] = append(deps[n], p)
			}
		}
	}
	return deps
}

// tokenCount returns |tokens[n][p]|
func (ts *tokenState) tokenCount(n, p int) int {
	if s, ok := ts.tokens[n][p]; ok {
		return s.Len()
	}
	return 0
}

// sensitiveDependences computes the termination-sensitive control dependences between the blocks of g
func sensitiveDependences(g *ir.BlockGraph, order workbag.Order) map[int][]int {
	ts := newTokenState(g, order)
	ts.propagate()
	return ts.dependences()
}
