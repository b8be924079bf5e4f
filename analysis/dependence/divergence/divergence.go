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

// Package divergence implements divergence dependence: the statements that execute after a loop that may not
// terminate depend on the point where control leaves the loop.
//
// Pre-divergence points are the trailers of the blocks that belong to a loop and have a successor outside of
// it, and the trailers of self loops. When the analysis is inter-procedural, the call sites that may reach a method
// containing a pre-divergence point are divergence points too.
package divergence

import (
	"golang.org/x/exp/slices"

	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/internal/workbag"
)

// Analysis is the divergence dependence analysis
type Analysis struct {
	dependence.Base
	interprocedural bool
	program         *ir.Program
	callGraph       ir.CallGraph

	// points contains the divergence points of the last run
	points map[ir.Statement]bool
}

// New returns a divergence dependence analysis. If interprocedural is true, the analysis needs a call graph.
func New(interprocedural bool) *Analysis {
	return &Analysis{
		Base:            dependence.NewBase("divergence", dependence.Backward, dependence.NewDenseRelation(), dependence.DivergenceDA),
		interprocedural: interprocedural,
	}
}

// Setup records the methods of the program, and the call graph for the inter-procedural analysis
func (a *Analysis) Setup(info *dependence.Info) error {
	if err := dependence.Require(a.Name,
		dependence.Needs("program", info != nil && info.Program != nil),
		dependence.Needs("call graph", info != nil && (!a.interprocedural || info.CallGraph != nil))); err != nil {
		return err
	}
	a.program = info.Program
	a.callGraph = info.CallGraph
	return nil
}

// Analyze computes the divergence dependences
func (a *Analysis) Analyze(ctx *dependence.Context) error {
	if a.program == nil {
		return &dependence.InitializationError{Analysis: a.Name, Missing: "program"}
	}
	if a.interprocedural && !dependence.UpstreamStable(a.callGraph) {
		ctx.Logger.Debugf("%s: call graph is not stable, deferring\n", a.Name)
		return nil
	}
	a.Rel.Clear()
	a.points = map[ir.Statement]bool{}
	divergent := map[*ir.Method]bool{}
	for _, m := range a.program.Methods {
		if g := m.BlockGraph(); g != nil {
			for _, p := range preDivergencePoints(g) {
				a.points[p] = true
				divergent[m] = true
			}
		}
	}
	if a.interprocedural {
		a.addCallSitePoints(ctx, divergent)
	}
	for _, m := range a.program.Methods {
		if g := m.BlockGraph(); g != nil {
			a.Rel.Init(m)
			a.propagate(g, ctx.BagOrder())
		}
	}
	ctx.Logger.Debugf("%s: %d divergence points, %d dependences\n", a.Name, len(a.points), a.Rel.Size())
	a.SetStable(true)
	return nil
}

// Points returns the divergence points found by the last run, in a deterministic order
func (a *Analysis) Points() []ir.Statement {
	res := make([]ir.Statement, 0, len(a.points))
	for p := range a.points {
		res = append(res, p)
	}
	slices.SortFunc(res, ir.Compare)
	return res
}

// preDivergencePoints returns the trailers of the loop blocks with an exit edge and of the self loops of g
func preDivergencePoints(g *ir.BlockGraph) []ir.Statement {
	var points []ir.Statement
	for _, b := range g.Blocks {
		if !g.InNonTrivialSCC(b) {
			continue
		}
		comp := g.SCCOf(b)
		if len(comp) == 1 {
			points = append(points, b.Trailer())
			continue
		}
		for _, s := range b.Succs {
			if !slices.Contains(comp, s) {
				points = append(points, b.Trailer())
				break
			}
		}
	}
	return points
}

// addCallSitePoints marks as divergence points the call sites that may reach a divergent method. The methods
// that may contain such call sites are the transitive callers of the divergent methods, found with a
// history-aware work bag so that recursion terminates. Thread starts are skipped: the caller does not wait for
// the started thread.
func (a *Analysis) addCallSitePoints(ctx *dependence.Context, divergent map[*ir.Method]bool) {
	bag := workbag.NewHistoryAware[*ir.Method](ctx.BagOrder())
	for m := range divergent {
		bag.Add(m)
	}
	for !bag.IsEmpty() {
		m := bag.Next()
		for _, e := range a.callGraph.Callers(m) {
			if e.Site.Kind == ir.StartCall {
				continue
			}
			if !a.points[e.Site] && a.callGraph.AnyReachableFrom(e.Site, divergent) {
				a.points[e.Site] = true
				ctx.Logger.Tracef("%s: call site %s in %s may diverge\n", a.Name, e.Site, e.Caller)
			}
			bag.Add(e.Caller)
		}
	}
}

// propagate records the dependences on the divergence points of g. Inside a block, the statements following a
// point up to the next point depend on it. The last point of a block is followed across blocks, breadth first,
// up to the first point of each block reached.
func (a *Analysis) propagate(g *ir.BlockGraph, order workbag.Order) {
	for _, b := range g.Blocks {
		stmts := b.Statements()
		var positions []int
		for i, s := range stmts {
			if a.points[s] {
				positions = append(positions, i)
			}
		}
		for k, i := range positions {
			p := stmts[i]
			end := len(stmts)
			if k+1 < len(positions) {
				end = positions[k+1]
			}
			for _, s := range stmts[i+1 : end] {
				a.Rel.Add(s, p)
			}
			if k+1 < len(positions) {
				continue
			}
			bag := workbag.NewHistoryAware[*ir.BasicBlock](order)
			bag.AddAll(b.Succs)
			for !bag.IsEmpty() {
				x := bag.Next()
				stopped := false
				for _, s := range x.Statements() {
					if a.points[s] {
						stopped = true
						break
					}
					a.Rel.Add(s, p)
				}
				if !stopped {
					bag.AddAll(x.Succs)
				}
			}
		}
	}
}

// Indirect returns the transitive closure of the analysis
func (a *Analysis) Indirect() dependence.StmtAnalysis {
	return dependence.NewIndirect[ir.Statement, *ir.Method, ir.Statement](a, dependence.StmtRetriever)
}
