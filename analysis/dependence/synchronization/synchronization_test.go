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

package synchronization

import (
	"errors"
	"testing"

	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/analysis/monitor"
	"github.com/awslabs/ar-go-pdg/internal/analysistest"
	"golang.org/x/exp/slices"
)

var (
	cls = ir.NewType("T", nil)
	one = &ir.Const{Value: "1", Typ: ir.Int}
)

// nested:
//
//	0: enter a
//	1: x = 1
//	2: enter b
//	3: y = 1
//	4: exit b
//	5: z = 1
//	6: exit a
//	7: return
func nested() *ir.Method {
	b := ir.NewMethodBuilder(cls, "nested")
	la, lb := b.Param("a", ir.Object), b.Param("b", ir.Object)
	x, y, z := b.Local("x", ir.Int), b.Local("y", ir.Int), b.Local("z", ir.Int)
	b.Enter(la)
	b.Assign(x, one)
	b.Enter(lb)
	b.Assign(y, one)
	b.Exit(lb)
	b.Assign(z, one)
	b.Exit(la)
	b.Return(nil)
	return b.MustBuild()
}

// twoExits:
//
//	0: enter l
//	1: if c goto 4
//	2: exit l
//	3: return
//	4: exit l
//	5: return
func twoExits() *ir.Method {
	b := ir.NewMethodBuilder(cls, "twoExits")
	l, c := b.Param("l", ir.Object), b.Param("c", ir.Bool)
	b.Enter(l)
	b.If(c, "other")
	b.Exit(l)
	b.Return(nil)
	b.Label("other")
	b.Exit(l)
	b.Return(nil)
	return b.MustBuild()
}

func synchronizedMethod() *ir.Method {
	b := ir.NewMethodBuilder(cls, "synchronized").Synchronized()
	b.Param("this", cls)
	x := b.Local("x", ir.Int)
	b.Assign(x, one)
	b.Return(nil)
	return b.MustBuild()
}

func run(t *testing.T, methods ...*ir.Method) *Analysis {
	t.Helper()
	info := &dependence.Info{Program: &ir.Program{Methods: methods}, Monitors: monitor.New(nil, methods)}
	a := New()
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

func TestNestedMonitors(t *testing.T) {
	m := nested()
	a := run(t, m)
	expectDependees(t, a, m, map[int][]int{
		0: {6},
		1: {0, 6},
		2: {4},
		3: {2, 4},
		4: {2},
		5: {0, 6},
		6: {0},
	})
}

func TestMonitorWithTwoExits(t *testing.T) {
	m := twoExits()
	a := run(t, m)
	expectDependees(t, a, m, map[int][]int{
		0: {2, 4},
		1: {0, 2, 4},
		2: {0},
		4: {0},
	})
}

func TestSynchronizedMethodHasNoDependences(t *testing.T) {
	m := synchronizedMethod()
	a := run(t, m)
	expectDependees(t, a, m, nil)
}

func TestProperties(t *testing.T) {
	methods := []*ir.Method{nested(), twoExits(), synchronizedMethod()}
	a := run(t, methods...)
	analysistest.CheckSymmetry(t, a, methods)
	analysistest.CheckNoSelfDependence(t, a, methods)
	analysistest.CheckClosure(t, a, methods)
	analysistest.CheckIdempotence(t, a, dependence.NewContext(nil), methods)
}

func TestMissingMonitors(t *testing.T) {
	var initErr *dependence.InitializationError
	err := New().Setup(&dependence.Info{Program: &ir.Program{}})
	if !errors.As(err, &initErr) || initErr.Missing != "monitor info" {
		t.Errorf("expected missing monitor info, got %v", err)
	}
}
