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

package interference

import (
	"errors"
	"testing"

	"github.com/awslabs/ar-go-pdg/analysis/callgraph"
	"github.com/awslabs/ar-go-pdg/analysis/config"
	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/analysis/threads"
	"github.com/awslabs/ar-go-pdg/internal/analysistest"
	"golang.org/x/exp/slices"
)

var (
	counter = ir.NewType("Counter", nil)
	one     = &ir.Const{Value: "1", Typ: ir.Int}
	count   = &ir.Field{Name: "count", Class: counter, Type: ir.Int}
	id      = &ir.Field{Name: "id", Class: counter, Type: ir.Int, Final: true}
	total   = &ir.Field{Name: "total", Class: counter, Type: ir.Int, Static: true}
)

type fakePointsTo map[*ir.Local][]ir.ObjectID

func (f fakePointsTo) PointsTo(l *ir.Local) ([]ir.ObjectID, bool) {
	objs, ok := f[l]
	return objs, ok
}

// method builds an instance method of Counter: body adds the statements, a return is added at the end
func method(name string, body func(b *ir.MethodBuilder, this *ir.Local)) *ir.Method {
	b := ir.NewMethodBuilder(counter, name)
	this := b.Param("this", counter)
	body(b, this)
	b.Return(nil)
	return b.MustBuild()
}

func classInit(name string, body func(b *ir.MethodBuilder)) *ir.Method {
	b := ir.NewMethodBuilder(counter, name).ClassInit()
	body(b)
	b.Return(nil)
	return b.MustBuild()
}

// run analyzes the methods, started in their own threads by a main method if start is true, and called by it
// otherwise
func run(t *testing.T, level string, pt ir.PointsTo, start bool, methods ...*ir.Method) *Analysis {
	t.Helper()
	b := ir.NewMethodBuilder(counter, "main").Static()
	kind := ir.OrdinaryCall
	if start {
		kind = ir.StartCall
	}
	for _, m := range methods {
		b.Call(kind, m.Name, m)
	}
	b.Return(nil)
	main := b.MustBuild()
	program := &ir.Program{Methods: append([]*ir.Method{main}, methods...), Entries: []*ir.Method{main}}
	cg := callgraph.New(program)
	info := &dependence.Info{
		Program:   program,
		CallGraph: cg,
		Threads:   threads.New(nil, program, cg),
		PointsTo:  pt,
	}
	a := New(level)
	if err := dependence.Run(dependence.NewContext(nil), info, a); err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	return a
}

func writeField(f *ir.Field) func(*ir.MethodBuilder, *ir.Local) {
	return func(b *ir.MethodBuilder, this *ir.Local) {
		b.Assign(&ir.FieldRef{Base: this, Field: f}, one)
	}
}

func readField(f *ir.Field) func(*ir.MethodBuilder, *ir.Local) {
	return func(b *ir.MethodBuilder, this *ir.Local) {
		x := b.Local("x", f.Type)
		b.Assign(x, &ir.FieldRef{Base: this, Field: f})
	}
}

func hasEdge(a dependence.StmtAnalysis, from, to ir.Statement) bool {
	return slices.Contains(a.Dependees(from, from.Parent()), to)
}

func TestFieldInterference(t *testing.T) {
	w := method("write", writeField(count))
	r := method("read", readField(count))
	a := run(t, config.PrecisionType, nil, true, w, r)
	if !hasEdge(a, r.Stmt(0), w.Stmt(0)) {
		t.Errorf("expected the read to depend on the write of another thread, got %v",
			analysistest.Edges(a, []*ir.Method{w, r}))
	}
	if hasEdge(a, w.Stmt(0), r.Stmt(0)) {
		t.Errorf("the write should not depend on the read")
	}
	if got := a.Locations(); !slices.Equal(got, []string{"Counter.count"}) {
		t.Errorf("expected Counter.count to be the only location written, got %v", got)
	}
	methods := []*ir.Method{w, r}
	analysistest.CheckSymmetry(t, a, methods)
	analysistest.CheckNoSelfDependence(t, a, methods)
	analysistest.CheckClosure(t, a, methods)
	analysistest.CheckIdempotence(t, a, dependence.NewContext(nil), methods)
}

func TestSameThreadNoInterference(t *testing.T) {
	w := method("write", writeField(count))
	r := method("read", readField(count))
	a := run(t, config.PrecisionType, nil, false, w, r)
	if got := analysistest.Edges(a, []*ir.Method{w, r}); len(got) != 0 {
		t.Errorf("accesses in the same thread should not interfere, got %v", got)
	}
}

func TestFinalFieldsAreIgnored(t *testing.T) {
	w := method("write", writeField(id))
	r := method("read", readField(id))
	a := run(t, config.PrecisionType, nil, true, w, r)
	if got := analysistest.Edges(a, []*ir.Method{w, r}); len(got) != 0 {
		t.Errorf("final fields should not give dependences, got %v", got)
	}
}

func TestStaticFieldsInClassInitializer(t *testing.T) {
	// two initializers of the class, started in different threads
	init := classInit("<clinit>", func(b *ir.MethodBuilder) {
		b.Assign(&ir.FieldRef{Field: total}, one)
	})
	initRead := classInit("<clinit>$1", func(b *ir.MethodBuilder) {
		x := b.Local("x", ir.Int)
		b.Assign(x, &ir.FieldRef{Field: total})
	})
	r := method("read", readField(total))
	a := run(t, config.PrecisionType, nil, true, init, initRead, r)
	if hasEdge(a, initRead.Stmt(0), init.Stmt(0)) {
		t.Errorf("accesses in the class initializer should not interfere with each other")
	}
	if !hasEdge(a, r.Stmt(0), init.Stmt(0)) {
		t.Errorf("expected the read to depend on the write of the class initializer")
	}
}

func TestArrays(t *testing.T) {
	w := method("write", func(b *ir.MethodBuilder, _ *ir.Local) {
		arr := b.Param("a", ir.ArrayOf(ir.Int))
		b.Assign(&ir.ArrayRef{Base: arr, Index: one, Elem: ir.Int}, one)
	})
	r := method("read", func(b *ir.MethodBuilder, _ *ir.Local) {
		arr := b.Param("a", ir.ArrayOf(ir.Int))
		x := b.Local("x", ir.Int)
		b.Assign(x, &ir.ArrayRef{Base: arr, Index: one, Elem: ir.Int})
	})
	other := method("readBools", func(b *ir.MethodBuilder, _ *ir.Local) {
		arr := b.Param("a", ir.ArrayOf(ir.Bool))
		x := b.Local("x", ir.Bool)
		b.Assign(x, &ir.ArrayRef{Base: arr, Index: one, Elem: ir.Bool})
	})
	a := run(t, config.PrecisionType, nil, true, w, r, other)
	if !hasEdge(a, r.Stmt(0), w.Stmt(0)) {
		t.Errorf("expected the array read to depend on the array write")
	}
	if len(a.Dependees(other.Stmt(0), other)) != 0 {
		t.Errorf("arrays of different element types should not interfere")
	}
}

func TestPointsToPrecision(t *testing.T) {
	w := method("write", writeField(count))
	r := method("read", readField(count))
	pt := fakePointsTo{w.Params[0]: {1}, r.Params[0]: {2}}
	a := run(t, config.PrecisionPointsTo, pt, true, w, r)
	if hasEdge(a, r.Stmt(0), w.Stmt(0)) {
		t.Errorf("distinct objects should not interfere")
	}
	pt[r.Params[0]] = []ir.ObjectID{1, 2}
	a = run(t, config.PrecisionPointsTo, pt, true, w, r)
	if !hasEdge(a, r.Stmt(0), w.Stmt(0)) {
		t.Errorf("aliased objects should interfere")
	}
}

func TestOpaqueExpressionsAreSkipped(t *testing.T) {
	w := method("write", func(b *ir.MethodBuilder, this *ir.Local) {
		y := b.Local("y", ir.Int)
		b.Assign(y, &ir.Opaque{Text: "this.count + 1", Typ: ir.Int, Operands: []*ir.Local{this}})
		b.Assign(&ir.FieldRef{Base: this, Field: count}, y)
	})
	a := run(t, config.PrecisionType, nil, true, w, method("read", readField(count)))
	if a.skipped != 1 {
		t.Errorf("expected one assignment to be skipped, got %d", a.skipped)
	}
}

func TestSetupErrors(t *testing.T) {
	var initErr *dependence.InitializationError
	err := New(config.PrecisionType).Setup(&dependence.Info{Program: &ir.Program{}})
	if !errors.As(err, &initErr) || initErr.Missing != "call graph" {
		t.Errorf("expected a missing call graph, got %v", err)
	}
	program := &ir.Program{}
	cg := callgraph.New(program)
	info := &dependence.Info{Program: program, CallGraph: cg, Threads: threads.New(nil, program, cg)}
	err = New(config.PrecisionPointsTo).Setup(info)
	if !errors.As(err, &initErr) || initErr.Missing != "points-to oracle" {
		t.Errorf("expected a missing points-to oracle, got %v", err)
	}
}
