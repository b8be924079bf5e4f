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

// Package control implements control dependence: entry (backward) control dependence, in its
// termination-sensitive and termination-insensitive variants, and exit (forward) control dependence.
//
// The termination-sensitive variant propagates tokens over the basic block graph of each method: every control
// point (block with more than one successor) sends one token down each of its outgoing edges, and a block depends
// on a control point when it receives some, but not all, of its tokens. Exit blocks that have successors count one
// extra edge, for the paths leaving the method there.
//
// The termination-insensitive variant does not report the dependences that only exist because a loop may never
// terminate. It keeps a termination-sensitive dependence of n on p only when some execution from p avoids n by
// ending at an exit block, or by staying forever in a control sink (a loop that control never leaves) without n.
package control

import (
	"golang.org/x/exp/slices"

	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
)

// Entry is the entry control dependence analysis. A statement depends on the trailer of the control points
// deciding whether it executes.
type Entry struct {
	dependence.Base
	sensitive bool
	program   *ir.Program
}

// NewEntry returns an entry control dependence analysis of the given variant
func NewEntry(terminationSensitive bool) *Entry {
	name := "entry control (termination-insensitive)"
	if terminationSensitive {
		name = "entry control (termination-sensitive)"
	}
	return &Entry{
		Base:      dependence.NewBase(name, dependence.Backward, dependence.NewDenseRelation(), dependence.ControlDA),
		sensitive: terminationSensitive,
	}
}

// TerminationSensitive returns true for the termination-sensitive variant
func (a *Entry) TerminationSensitive() bool { return a.sensitive }

// Setup records the methods of the program
func (a *Entry) Setup(info *dependence.Info) error {
	if err := dependence.Require(a.Name,
		dependence.Needs("program", info != nil && info.Program != nil)); err != nil {
		return err
	}
	a.program = info.Program
	return nil
}

// Analyze computes the control dependences of every concrete method
func (a *Entry) Analyze(ctx *dependence.Context) error {
	if a.program == nil {
		return &dependence.InitializationError{Analysis: a.Name, Missing: "program"}
	}
	a.Rel.Clear()
	for _, m := range a.program.Methods {
		g := m.BlockGraph()
		if g == nil {
			continue
		}
		a.Rel.Init(m)
		var deps map[int][]int
		if a.sensitive {
			deps = sensitiveDependences(g, ctx.BagOrder())
		} else {
			deps = insensitiveDependences(g, ctx.BagOrder())
		}
		recordBlockDependences(a.Rel, g, deps)
		ctx.Logger.Tracef("%s: %d dependent blocks in %s\n", a.Name, len(deps), m)
	}
	a.SetStable(true)
	return nil
}

// recordBlockDependences records that every statement of a dependent block depends on the trailer of each
// control point of the block
func recordBlockDependences(rel *dependence.Relation, g *ir.BlockGraph, deps map[int][]int) {
	for n, points := range deps {
		slices.Sort(points)
		for _, s := range g.Blocks[n].Statements() {
			for _, p := range points {
				rel.Add(s, g.Blocks[p].Trailer())
			}
		}
	}
}

// Indirect returns the transitive closure of the analysis
func (a *Entry) Indirect() dependence.StmtAnalysis {
	return dependence.NewIndirect[ir.Statement, *ir.Method, ir.Statement](a, dependence.StmtRetriever)
}
