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
	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
)

// Exit is the exit (forward) control dependence analysis. In methods with several normal exits, the control
// points deciding which exit is taken are followed by the statements they decide: every statement of a block
// reachable from such a control point depends on it.
//
// Exit is derived from an entry control dependence analysis, which must be stable before Exit can run.
type Exit struct {
	dependence.Base
	entry   dependence.StmtAnalysis
	methods []*ir.Method
}

// NewExit returns an exit control dependence analysis
func NewExit() *Exit {
	return &Exit{
		Base: dependence.NewBase("exit control", dependence.Forward, dependence.NewDenseRelation(),
			dependence.ControlDA),
	}
}

// Setup records the methods of the program and the entry control dependence analysis
func (a *Exit) Setup(info *dependence.Info) error {
	if err := dependence.Require(a.Name,
		dependence.Needs("program", info != nil && info.Program != nil),
		dependence.Needs("entry control dependence", info != nil && info.Control != nil)); err != nil {
		return err
	}
	a.methods = info.Program.Methods
	a.entry = info.Control
	return nil
}

// Analyze computes the exit control dependences. It does nothing while the entry analysis is not stable.
func (a *Exit) Analyze(ctx *dependence.Context) error {
	if a.entry == nil {
		return &dependence.InitializationError{Analysis: a.Name, Missing: "entry control dependence"}
	}
	if !a.entry.IsStable() {
		ctx.Logger.Debugf("%s: entry control dependence is not stable, deferring\n", a.Name)
		return nil
	}
	a.Rel.Clear()
	for _, m := range a.methods {
		g := m.BlockGraph()
		if g == nil {
			continue
		}
		a.Rel.Init(m)
		exits := normalExits(g)
		if len(exits) < 2 {
			continue
		}
		for _, exit := range exits {
			for _, dee := range a.entry.Dependees(exit.Trailer(), m) {
				for _, r := range g.ReachableFrom(g.BlockOf(dee)) {
					for _, s := range r.Statements() {
						a.Rel.Add(s, dee)
					}
				}
			}
		}
	}
	a.SetStable(true)
	return nil
}

// normalExits returns the blocks ending with a return
func normalExits(g *ir.BlockGraph) []*ir.BasicBlock {
	var exits []*ir.BasicBlock
	for _, b := range g.Tails() {
		if _, ok := b.Trailer().(*ir.Return); ok {
			exits = append(exits, b)
		}
	}
	return exits
}

// Indirect returns the transitive closure of the analysis
func (a *Exit) Indirect() dependence.StmtAnalysis {
	return dependence.NewIndirect[ir.Statement, *ir.Method, ir.Statement](a, dependence.StmtRetriever)
}
