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

// Package data implements identifier-based data dependence: a statement reading a local depends on the
// statements defining that local whose definitions may reach it.
package data

import (
	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/internal/workbag"
	"golang.org/x/tools/container/intsets"
)

// Analysis is the identifier-based data dependence analysis
type Analysis struct {
	dependence.Base
	program *ir.Program
}

// New returns a data dependence analysis
func New() *Analysis {
	return &Analysis{
		Base: dependence.NewBase("data", dependence.Backward, dependence.NewDenseRelation(),
			dependence.IdentifierBasedDataDA),
	}
}

// Setup records the methods of the program
func (a *Analysis) Setup(info *dependence.Info) error {
	if err := dependence.Require(a.Name, dependence.Needs("program", info != nil && info.Program != nil)); err != nil {
		return err
	}
	a.program = info.Program
	return nil
}

// Analyze computes the reaching definitions of every method and relates uses to the definitions reaching them
func (a *Analysis) Analyze(ctx *dependence.Context) error {
	if a.program == nil {
		return &dependence.InitializationError{Analysis: a.Name, Missing: "program"}
	}
	a.Rel.Clear()
	for _, m := range a.program.Methods {
		if g := m.BlockGraph(); g != nil {
			a.Rel.Init(m)
			a.analyzeMethod(g, ctx.BagOrder())
		}
	}
	ctx.Logger.Debugf("%s: %d dependences\n", a.Name, a.Rel.Size())
	a.SetStable(true)
	return nil
}

// reachingDefs holds the reaching definitions problem of one method. Definitions are identified by the index of
// the defining statement.
type reachingDefs struct {
	g *ir.BlockGraph
	// defsOf maps each local to the statements defining it
	defsOf map[*ir.Local]*intsets.Sparse
	gen    []intsets.Sparse
	kill   []intsets.Sparse
	in     []intsets.Sparse
	out    []intsets.Sparse
}

func newReachingDefs(g *ir.BlockGraph) *reachingDefs {
	n := len(g.Blocks)
	rd := &reachingDefs{
		g:      g,
		defsOf: map[*ir.Local]*intsets.Sparse{},
		gen:    make([]intsets.Sparse, n),
		kill:   make([]intsets.Sparse, n),
		in:     make([]intsets.Sparse, n),
		out:    make([]intsets.Sparse, n),
	}
	for _, s := range g.Method.Statements {
		for _, l := range s.Defs() {
			if rd.defsOf[l] == nil {
				rd.defsOf[l] = &intsets.Sparse{}
			}
			rd.defsOf[l].Insert(s.Index())
		}
	}
	for _, b := range g.Blocks {
		for _, s := range b.Statements() {
			rd.define(&rd.gen[b.ID], s)
			for _, l := range s.Defs() {
				rd.kill[b.ID].UnionWith(rd.defsOf[l])
			}
		}
	}
	return rd
}

// define updates the set of reaching definitions after s
func (rd *reachingDefs) define(reach *intsets.Sparse, s ir.Statement) {
	for _, l := range s.Defs() {
		reach.DifferenceWith(rd.defsOf[l])
	}
	if len(s.Defs()) > 0 {
		reach.Insert(s.Index())
	}
}

// solve computes the fixpoint of the in and out sets of the blocks
func (rd *reachingDefs) solve(order workbag.Order) {
	bag := workbag.New[*ir.BasicBlock](order)
	for _, b := range rd.g.Blocks {
		rd.out[b.ID].Copy(&rd.gen[b.ID])
		bag.Add(b)
	}
	var tmp intsets.Sparse
	for !bag.IsEmpty() {
		b := bag.Next()
		for _, p := range b.Preds {
			rd.in[b.ID].UnionWith(&rd.out[p.ID])
		}
		tmp.Difference(&rd.in[b.ID], &rd.kill[b.ID])
		tmp.UnionWith(&rd.gen[b.ID])
		if !tmp.Equals(&rd.out[b.ID]) {
			rd.out[b.ID].Copy(&tmp)
			bag.AddAll(b.Succs)
		}
	}
}

func (a *Analysis) analyzeMethod(g *ir.BlockGraph, order workbag.Order) {
	rd := newReachingDefs(g)
	rd.solve(order)
	var reach, defs intsets.Sparse
	for _, b := range g.Blocks {
		reach.Copy(&rd.in[b.ID])
		for _, s := range b.Statements() {
			for _, l := range s.Uses() {
				if rd.defsOf[l] == nil {
					continue
				}
				defs.Intersection(&reach, rd.defsOf[l])
				for _, d := range defs.AppendTo(nil) {
					a.Rel.Add(s, g.Method.Stmt(d))
				}
			}
			rd.define(&reach, s)
		}
	}
}

// Indirect returns the transitive closure of the analysis
func (a *Analysis) Indirect() dependence.StmtAnalysis {
	return dependence.NewIndirect[ir.Statement, *ir.Method, ir.Statement](a, dependence.StmtRetriever)
}
