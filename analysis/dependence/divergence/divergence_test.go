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

package divergence

import (
	"errors"
	"testing"

	"github.com/awslabs/ar-go-pdg/analysis/callgraph"
	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/internal/analysistest"
	"golang.org/x/exp/slices"
)

var (
	cls = ir.NewType("T", nil)
	one = &ir.Const{Value: "1", Typ: ir.Int}
)

// loopThenCode:
//
//	0: if c goto 3
//	1: x = 1
//	2: goto 0
//	3: y = x
//	4: return
func loopThenCode() *ir.Method {
	b := ir.NewMethodBuilder(cls, "loopThenCode")
	c, x, y := b.Local("c", ir.Bool), b.Local("x", ir.Int), b.Local("y", ir.Int)
	b.Label("head")
	b.If(c, "end")
	b.Assign(x, one)
	b.Goto("head")
	b.Label("end")
	b.Assign(y, x)
	b.Return(nil)
	return b.MustBuild()
}

// twoLoops:
//
//	0: if c goto 3
//	1: x = 1
//	2: goto 0
//	3: if d goto 6
//	4: y = 1
//	5: goto 3
//	6: return
func twoLoops() *ir.Method {
	b := ir.NewMethodBuilder(cls, "twoLoops")
	c, d := b.Local("c", ir.Bool), b.Local("d", ir.Bool)
	x, y := b.Local("x", ir.Int), b.Local("y", ir.Int)
	b.Label("h1")
	b.If(c, "h2")
	b.Assign(x, one)
	b.Goto("h1")
	b.Label("h2")
	b.If(d, "end")
	b.Assign(y, one)
	b.Goto("h2")
	b.Label("end")
	b.Return(nil)
	return b.MustBuild()
}

// spin:
//
//	0: x = 1
//	1: if c goto 1
//	2: return
func spin() *ir.Method {
	b := ir.NewMethodBuilder(cls, "spin")
	c, x := b.Local("c", ir.Bool), b.Local("x", ir.Int)
	b.Assign(x, one)
	b.Label("l")
	b.If(c, "l")
	b.Return(nil)
	return b.MustBuild()
}

// caller calls spin twice:
//
//	0: call spin
//	1: x = 1
//	2: call spin
//	3: return
func caller(callee *ir.Method) *ir.Method {
	b := ir.NewMethodBuilder(cls, "caller")
	x := b.Local("x", ir.Int)
	b.Call(ir.OrdinaryCall, "spin", callee)
	b.Assign(x, one)
	b.Call(ir.OrdinaryCall, "spin", callee)
	b.Return(nil)
	return b.MustBuild()
}

// recursive calls itself, then spin:
//
//	0: call recursive
//	1: call spin
//	2: return
func recursive(callee *ir.Method) *ir.Method {
	b := ir.NewMethodBuilder(cls, "recursive")
	b.Call(ir.OrdinaryCall, "recursive", b.Method())
	b.Call(ir.OrdinaryCall, "spin", callee)
	b.Return(nil)
	return b.MustBuild()
}

func run(t *testing.T, interprocedural bool, methods ...*ir.Method) *Analysis {
	program := &ir.Program{Methods: methods}
	a := New(interprocedural)
	info := &dependence.Info{Program: program, CallGraph: callgraph.New(program)}
	if err := dependence.Run(dependence.NewContext(nil), info, a); err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	return a
}

func expectDependees(t *testing.T, a dependence.StmtAnalysis, m *ir.Method, expected map[int][]int) {
	t.Helper()
	for _, s := range m.Statements {
		var got []int
		for _, d := range a.Dependees(s, m) {
			got = append(got, d.Index())
		}
		if !slices.Equal(got, expected[s.Index()]) {
			t.Errorf("%s@%d: expected dependees %v, got %v", m, s.Index(), expected[s.Index()], got)
		}
	}
}

func TestLoopThenCode(t *testing.T) {
	m := loopThenCode()
	a := run(t, false, m)
	expectDependees(t, a, m, map[int][]int{1: {0}, 2: {0}, 3: {0}, 4: {0}})
	if got := a.Points(); len(got) != 1 || got[0] != m.Stmt(0) {
		t.Errorf("expected the loop test to be the only divergence point, got %v", got)
	}
}

func TestTwoLoops(t *testing.T) {
	m := twoLoops()
	a := run(t, false, m)
	expectDependees(t, a, m, map[int][]int{1: {0}, 2: {0}, 4: {3}, 5: {3}, 6: {3}})
}

func TestSelfLoop(t *testing.T) {
	m := spin()
	a := run(t, false, m)
	expectDependees(t, a, m, map[int][]int{2: {1}})
}

func TestNoLoop(t *testing.T) {
	s := spin()
	m := caller(s)
	a := run(t, false, m, s)
	expectDependees(t, a, m, nil)
}

func TestInterprocedural(t *testing.T) {
	s := spin()
	m := caller(s)
	a := run(t, true, m, s)
	expectDependees(t, a, m, map[int][]int{1: {0}, 3: {2}})
	expectDependees(t, a, s, map[int][]int{2: {1}})
}

// spawner starts a thread running worker:
//
//	0: go worker
//	1: x = 1
//	2: return
func spawner(worker *ir.Method) *ir.Method {
	b := ir.NewMethodBuilder(cls, "spawner")
	x := b.Local("x", ir.Int)
	b.Call(ir.StartCall, "go", worker)
	b.Assign(x, one)
	b.Return(nil)
	return b.MustBuild()
}

func TestThreadStartDoesNotDiverge(t *testing.T) {
	w := loopThenCode()
	m := spawner(w)
	a := run(t, true, m, w)
	expectDependees(t, a, m, nil)
	if got := a.Points(); len(got) != 1 || got[0] != w.Stmt(0) {
		t.Errorf("expected the loop test of the worker to be the only divergence point, got %v", got)
	}
	// a caller of the spawner does not diverge either
	c := caller(m)
	a = run(t, true, c, m, w)
	expectDependees(t, a, c, nil)
}

func TestEmptyProgram(t *testing.T) {
	for _, interprocedural := range []bool{true, false} {
		a := run(t, interprocedural)
		if !a.IsStable() || a.Rel.Size() != 0 || len(a.Points()) != 0 {
			t.Errorf("an empty program has no divergence dependences")
		}
	}
}

func TestRecursion(t *testing.T) {
	s := spin()
	r := recursive(s)
	a := run(t, true, r, s)
	expectDependees(t, a, r, map[int][]int{1: {0}, 2: {1}})
}

func TestProperties(t *testing.T) {
	s := spin()
	methods := []*ir.Method{loopThenCode(), twoLoops(), s, caller(s), recursive(s)}
	a := run(t, true, methods...)
	analysistest.CheckSymmetry(t, a, methods)
	analysistest.CheckNoSelfDependence(t, a, methods)
	analysistest.CheckClosure(t, a, methods)
	analysistest.CheckIdempotence(t, a, dependence.NewContext(nil), methods)
}

func TestMissingCallGraph(t *testing.T) {
	a := New(true)
	err := a.Setup(&dependence.Info{Program: &ir.Program{}})
	var initErr *dependence.InitializationError
	if !errors.As(err, &initErr) || initErr.Missing != "call graph" {
		t.Errorf("expected a missing call graph error, got %v", err)
	}
	if err := New(false).Setup(&dependence.Info{Program: &ir.Program{}}); err != nil {
		t.Errorf("the intra-procedural analysis does not need a call graph, got %v", err)
	}
}
