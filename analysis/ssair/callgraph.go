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

package ssair

import (
	"fmt"
	"go/types"

	"github.com/awslabs/ar-go-pdg/analysis/config"
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/callgraph/rta"
	"golang.org/x/tools/go/callgraph/static"
	"golang.org/x/tools/go/callgraph/vta"
	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// CallgraphAnalysisMode selects the algorithm resolving the callees of call sites
type CallgraphAnalysisMode uint64

const (
	PointerAnalysis        CallgraphAnalysisMode = iota // PointerAnalysis is over-approximating (slow)
	StaticAnalysis                                      // StaticAnalysis is under-approximating (fast)
	ClassHierarchyAnalysis                              // ClassHierarchyAnalysis is a coarse over-approximation (fast)
	RapidTypeAnalysis                                   // RapidTypeAnalysis only considers the types instantiated from the roots
	VariableTypeAnalysis                                // VariableTypeAnalysis refines a static call graph with type flows
)

// ParseCallgraphMode returns the mode named by one of the config.CallGraph* constants
func ParseCallgraphMode(name string) (CallgraphAnalysisMode, error) {
	switch name {
	case "", config.CallGraphCHA:
		return ClassHierarchyAnalysis, nil
	case config.CallGraphStatic:
		return StaticAnalysis, nil
	case config.CallGraphRTA:
		return RapidTypeAnalysis, nil
	case config.CallGraphVTA:
		return VariableTypeAnalysis, nil
	case config.CallGraphPointer:
		return PointerAnalysis, nil
	}
	return 0, fmt.Errorf("unsupported call graph analysis %q", name)
}

// ComputeCallgraph computes the call graph of prog using the provided mode. The roots are used by the rapid
// type analysis and the variable type analysis.
func (mode CallgraphAnalysisMode) ComputeCallgraph(prog *ssa.Program, roots []*ssa.Function) (*callgraph.Graph,
	error) {
	switch mode {
	case PointerAnalysis:
		// Build the callgraph using the pointer analysis. This function returns only the
		// callgraph, and not the entire pointer analysis result.
		result, err := DoPointerAnalysis(prog, func(*ssa.Function) bool { return false }, true)
		if err != nil {
			return nil, fmt.Errorf("pointer analysis failed: %w", err)
		}
		return result.CallGraph, nil
	case StaticAnalysis:
		// Build the callgraph using only static analysis.
		return static.CallGraph(prog), nil
	case ClassHierarchyAnalysis:
		// Build the callgraph using the Class Hierarchy Analysis
		// See the documentation, and
		// "Optimization of Object-Oriented Programs Using Static Class Hierarchy Analysis",
		// J. Dean, D. Grove, and C. Chambers, ECOOP'95.
		return cha.CallGraph(prog), nil
	case VariableTypeAnalysis:
		funcs := make(map[*ssa.Function]bool, len(roots))
		for _, r := range roots {
			funcs[r] = true
		}
		return vta.CallGraph(funcs, static.CallGraph(prog)), nil
	case RapidTypeAnalysis:
		// Build the callgraph using rapid type analysis
		// See the documentation, and
		// "Fast Analysis of C++ Virtual Function Calls", D.Bacon & P. Sweeney, OOPSLA'96
		if len(roots) == 0 {
			return nil, fmt.Errorf("rapid type analysis needs at least one root")
		}
		return rta.Analyze(roots, true).CallGraph, nil
	default:
		return nil, fmt.Errorf("unsupported callgraph analysis mode %d", mode)
	}
}

// DoPointerAnalysis runs the pointer analysis on the program p, marking every value in the functions filtered by
// functionFilter as potential value to query for aliasing.
//
// - p is the program to be analyzed
//
// - functionFilter determines whether to add the values of the function in the Queries of the result
//
// - buildCallGraph determines whether the analysis must also build the callgraph of the program
func DoPointerAnalysis(p *ssa.Program, functionFilter func(*ssa.Function) bool, buildCallGraph bool) (*pointer.Result,
	error) {
	mains := ssautil.MainPackages(p.AllPackages())
	if len(mains) == 0 {
		return nil, fmt.Errorf("the pointer analysis needs a main package")
	}
	pCfg := &pointer.Config{
		Mains:          mains,
		Reflection:     false,
		BuildCallGraph: buildCallGraph,
		Queries:        make(map[ssa.Value]struct{}),
	}

	for function := range ssautil.AllFunctions(p) {
		if !functionFilter(function) {
			continue
		}
		for _, param := range function.Params {
			addQuery(pCfg, param)
		}
		for _, fv := range function.FreeVars {
			addQuery(pCfg, fv)
		}
		for _, b := range function.Blocks {
			for _, instr := range b.Instrs {
				if v, ok := instr.(ssa.Value); ok {
					addQuery(pCfg, v)
				}
			}
		}
	}

	return pointer.Analyze(pCfg)
}

// addQuery adds a query for v if it is of a type that can point
func addQuery(cfg *pointer.Config, v ssa.Value) {
	if v == nil || v.Type() == nil {
		return
	}
	if _, isTuple := v.Type().(*types.Tuple); isTuple {
		return
	}
	if pointer.CanPoint(v.Type()) {
		cfg.AddQuery(v)
	}
}
