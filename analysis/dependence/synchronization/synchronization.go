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

// Package synchronization implements synchronization dependence: the statements of a monitor region depend on
// the statements acquiring and releasing the monitor.
package synchronization

import (
	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
)

// Analysis is the synchronization dependence analysis
type Analysis struct {
	dependence.Base
	methods  []*ir.Method
	monitors ir.MonitorInfo
}

// New returns a synchronization dependence analysis
func New() *Analysis {
	return &Analysis{
		Base: dependence.NewBase("synchronization", dependence.Backward, dependence.NewDenseRelation(),
			dependence.SynchronizationDA),
	}
}

// Setup records the program and the monitor information
func (a *Analysis) Setup(info *dependence.Info) error {
	if err := dependence.Require(a.Name,
		dependence.Needs("program", info != nil && info.Program != nil),
		dependence.Needs("monitor info", info != nil && info.Monitors != nil)); err != nil {
		return err
	}
	a.methods = info.Program.Methods
	a.monitors = info.Monitors
	return nil
}

// Analyze computes the synchronization dependences. Statements other than monitor statements depend on the
// enter and exit statements of their innermost enclosing monitors; the enter and exit statements of a monitor
// depend on each other.
func (a *Analysis) Analyze(ctx *dependence.Context) error {
	if a.monitors == nil {
		return &dependence.InitializationError{Analysis: a.Name, Missing: "monitor info"}
	}
	if !dependence.UpstreamStable(a.monitors) {
		ctx.Logger.Debugf("%s: monitor info is not stable, deferring\n", a.Name)
		return nil
	}
	a.Rel.Clear()
	for _, m := range a.methods {
		if !m.IsConcrete() {
			continue
		}
		a.Rel.Init(m)
		for _, s := range m.Statements {
			if ir.IsMonitor(s) {
				for _, t := range a.monitors.TriplesOf(s) {
					a.addDelimiters(s, t)
				}
				continue
			}
			for _, t := range a.monitors.EnclosingMonitors(s) {
				a.addDelimiters(s, t)
			}
		}
	}
	ctx.Logger.Debugf("%s: %d dependences\n", a.Name, a.Rel.Size())
	a.SetStable(true)
	return nil
}

// addDelimiters makes s depend on the enter and exit statements of t. Synthetic triples have no such statements.
func (a *Analysis) addDelimiters(s ir.Statement, t ir.MonitorTriple) {
	if t.IsSynthetic() {
		return
	}
	a.Rel.Add(s, t.Enter)
	a.Rel.Add(s, t.Exit)
}

// Indirect returns the transitive closure of the analysis
func (a *Analysis) Indirect() dependence.StmtAnalysis {
	return dependence.NewIndirect[ir.Statement, *ir.Method, ir.Statement](a, dependence.StmtRetriever)
}
