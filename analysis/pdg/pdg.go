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

// Package pdg assembles the collaborators and the dependence analyses of a program, runs the analyses to their
// fixpoint and builds the dependence graph of the program from their results.
package pdg

import (
	"fmt"

	"github.com/awslabs/ar-go-pdg/analysis/callgraph"
	"github.com/awslabs/ar-go-pdg/analysis/config"
	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/dependence/control"
	"github.com/awslabs/ar-go-pdg/analysis/dependence/data"
	"github.com/awslabs/ar-go-pdg/analysis/dependence/divergence"
	"github.com/awslabs/ar-go-pdg/analysis/dependence/interference"
	"github.com/awslabs/ar-go-pdg/analysis/dependence/ready"
	"github.com/awslabs/ar-go-pdg/analysis/dependence/synchronization"
	"github.com/awslabs/ar-go-pdg/analysis/escape"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/analysis/monitor"
	"github.com/awslabs/ar-go-pdg/analysis/sdg"
	"github.com/awslabs/ar-go-pdg/analysis/threads"
)

// NewInfo computes the collaborators of the analyses over program. pt is the points-to oracle, and may be nil.
func NewInfo(logger *config.LogGroup, program *ir.Program, pt ir.PointsTo) *dependence.Info {
	cg := callgraph.New(program)
	reachable := cg.ReachableMethods()
	monitors := monitor.New(logger, reachable)
	esc := escape.New(logger, reachable)
	return &dependence.Info{
		Program:   program,
		CallGraph: cg,
		Threads:   threads.New(logger, program, cg),
		Monitors:  monitors,
		SafeLocks: monitor.NewSafeLocks(monitors, esc),
		PointsTo:  pt,
		Escape:    esc,
		Symbolic:  escape.NewPaths(reachable),
	}
}

// Analyses returns the analyses computing the dependence kinds provided, configured by cfg. When kinds is
// empty, all the kinds are computed.
func Analyses(cfg *config.Config, kinds ...dependence.ID) ([]dependence.StmtAnalysis, *control.Entry) {
	if len(kinds) == 0 {
		kinds = dependence.AllIDs
	}
	var res []dependence.StmtAnalysis
	var entry *control.Entry
	for _, kind := range kinds {
		switch kind {
		case dependence.ControlDA:
			entry = control.NewEntry(cfg.Dependence.TerminationSensitive)
			res = append(res, entry, control.NewExit())
		case dependence.DivergenceDA:
			res = append(res, divergence.New(cfg.Dependence.InterproceduralDivergence))
		case dependence.ReadyDA:
			res = append(res, ready.New(ready.OptionsFrom(cfg)))
		case dependence.InterferenceDA:
			res = append(res, interference.New(cfg.Dependence.InterferencePrecision))
		case dependence.SynchronizationDA:
			res = append(res, synchronization.New())
		case dependence.IdentifierBasedDataDA:
			res = append(res, data.New())
		}
	}
	return res, entry
}

// Result is the outcome of Run
type Result struct {
	Info     *dependence.Info
	Analyses []dependence.StmtAnalysis
	Graph    *sdg.Graph
}

// Run computes the dependences of the kinds provided over program, and assembles them into the dependence
// graph of the program. pt is the points-to oracle, and may be nil.
func Run(ctx *dependence.Context, program *ir.Program, pt ir.PointsTo, kinds ...dependence.ID) (*Result, error) {
	if program == nil {
		return nil, fmt.Errorf("no program to analyze")
	}
	if ctx.Config == nil {
		ctx.Config = config.NewDefault()
	}
	if ctx.Logger == nil {
		ctx.Logger = config.NewLogGroup(ctx.Config)
	}
	info := NewInfo(ctx.Logger, program, pt)
	analyses, entry := Analyses(ctx.Config, kinds...)
	if entry != nil {
		info.Control = entry
	}
	if err := dependence.Run(ctx, info, analyses...); err != nil {
		return nil, err
	}
	g, err := sdg.Build(program, info.CallGraph, analyses...)
	if err != nil {
		return nil, err
	}
	ctx.Logger.Infof("Dependence graph: %d edges over %d methods\n", g.Len(), len(program.Methods))
	return &Result{Info: info, Analyses: analyses, Graph: g}, nil
}
