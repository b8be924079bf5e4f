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
	"github.com/awslabs/ar-go-pdg/internal/graphutil"
	"github.com/awslabs/ar-go-pdg/internal/workbag"
)

// controlSinks returns the control sinks of g: the non-trivial strongly connected components that control never
// leaves, i.e. no block of the component is an exit or has a successor outside the component.
func controlSinks(g *ir.BlockGraph) [][]int {
	di := g.DiGraph()
	var sinks [][]int
	for _, comp := range graphutil.StrongComponents(di) {
		if !graphutil.IsNonTrivial(comp, di.Succs) {
			continue
		}
		in := map[int]bool{}
		for _, b := range comp {
			in[b] = true
		}
		closed := true
		for _, b := range comp {
			if g.Blocks[b].IsExit() {
				closed = false
				break
			}
			for _, s := range di.Succs(b) {
				if !in[s] {
					closed = false
					break
				}
			}
		}
		if closed {
			sinks = append(sinks, comp)
		}
	}
	return sinks
}

// insensitiveDependences computes the termination-insensitive control dependences between the blocks of g. They
// are the termination-sensitive dependences, minus the dependences of a block n on a control point p such that every
// execution from p reaches n unless it stays forever in a loop it could leave.
func insensitiveDependences(g *ir.BlockGraph, order workbag.Order) map[int][]int {
	deps := sensitiveDependences(g, order)
	if len(deps) == 0 {
		return deps
	}
	sinks := controlSinks(g)
	sinkOf := map[int]int{}
	for i, sink := range sinks {
		for _, b := range sink {
			sinkOf[b] = i
		}
	}
	rev := g.DiGraph().Reversed()
	for n, points := range deps {
		avoid := graphutil.ReachableWithout(rev, n, escapes(g, sinks, sinkOf, n)...)
		var kept []int
		for _, p := range points {
			if avoid[p] {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(deps, n)
		} else {
			deps[n] = kept
		}
	}
	return deps
}

// escapes returns the blocks where an execution can end without reaching n: the exit blocks and the blocks of the
// control sinks that do not contain n.
func escapes(g *ir.BlockGraph, sinks [][]int, sinkOf map[int]int, n int) []int {
	var res []int
	for _, b := range g.Blocks {
		if b.IsExit() {
			res = append(res, b.ID)
		}
	}
	own, inSink := sinkOf[n]
	for i, sink := range sinks {
		if !inSink || i != own {
			res = append(res, sink...)
		}
	}
	return res
}
