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

package ir

import (
	"strings"
	"testing"

	"golang.org/x/exp/slices"
)

func blockIDs(blocks []*BasicBlock) []int {
	ids := make([]int, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}
	slices.Sort(ids)
	return ids
}

func ifElse(t *testing.T) *Method {
	cls := NewType("A", nil)
	b := NewMethodBuilder(cls, "run")
	c := b.Local("c", Bool)
	x := b.Local("x", Int)
	b.If(c, "else")
	b.Assign(x, &Const{Value: "1", Typ: Int})
	b.Goto("end")
	b.Label("else")
	b.Assign(x, &Const{Value: "2", Typ: Int})
	b.Label("end")
	b.Return(x)
	m, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return m
}

func loop(t *testing.T) *Method {
	b := NewMethodBuilder(NewType("A", nil), "loop")
	c := b.Local("c", Bool)
	x := b.Local("x", Int)
	b.Label("head")
	b.If(c, "end")
	b.Assign(x, &Const{Value: "1", Typ: Int})
	b.Goto("head")
	b.Label("end")
	b.Return(nil)
	return b.MustBuild()
}

func TestBlockGraphIfElse(t *testing.T) {
	m := ifElse(t)
	g := m.BlockGraph()
	if len(g.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(g.Blocks))
	}
	s0 := m.Stmt(0).(*If)
	if !slices.Equal(s0.Targets, []int{3, 1}) {
		t.Errorf("expected if targets [3 1], got %v", s0.Targets)
	}
	if ids := blockIDs(g.Head().Succs); !slices.Equal(ids, []int{1, 2}) {
		t.Errorf("expected head successors [1 2], got %v", ids)
	}
	if g.BlockOf(m.Stmt(2)) != g.Blocks[1] || g.Blocks[1].Leader() != m.Stmt(1) {
		t.Errorf("statements 1 and 2 should form block 1")
	}
	if ids := blockIDs(g.Tails()); !slices.Equal(ids, []int{3}) {
		t.Errorf("expected tails [3], got %v", ids)
	}
	if ids := blockIDs(g.Blocks[3].Preds); !slices.Equal(ids, []int{1, 2}) {
		t.Errorf("expected merge predecessors [1 2], got %v", ids)
	}
	succs := g.StmtSuccs(m.Stmt(1))
	if len(succs) != 1 || succs[0] != m.Stmt(2) {
		t.Errorf("expected statement 2 after statement 1, got %v", succs)
	}
	for _, b := range g.Blocks {
		if g.InNonTrivialSCC(b) {
			t.Errorf("block %s should not be in a cycle", b)
		}
	}
	if !g.Reaches(g.Head(), g.Blocks[3]) || g.Reaches(g.Blocks[1], g.Blocks[2]) {
		t.Errorf("unexpected reachability")
	}
}

func TestBlockGraphLoop(t *testing.T) {
	m := loop(t)
	g := m.BlockGraph()
	if len(g.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(g.Blocks))
	}
	if !g.InNonTrivialSCC(g.Blocks[0]) || !g.InNonTrivialSCC(g.Blocks[1]) {
		t.Errorf("loop blocks should be in a cycle")
	}
	if g.InNonTrivialSCC(g.Blocks[2]) {
		t.Errorf("exit block should not be in a cycle")
	}
	if ids := blockIDs(g.SCCOf(g.Blocks[1])); !slices.Equal(ids, []int{0, 1}) {
		t.Errorf("expected loop component [0 1], got %v", ids)
	}
	if !g.Reaches(g.Blocks[0], g.Blocks[0]) {
		t.Errorf("loop head should reach itself")
	}
	if ids := blockIDs(g.ReachableFrom(g.Blocks[2])); len(ids) != 0 {
		t.Errorf("exit block reaches nothing, got %v", ids)
	}
}

func TestBuilderErrors(t *testing.T) {
	b := NewMethodBuilder(NewType("A", nil), "bad")
	b.Goto("nowhere")
	if _, err := b.Build(); err == nil || !strings.Contains(err.Error(), "nowhere") {
		t.Errorf("expected undefined label error, got %v", err)
	}
	b = NewMethodBuilder(NewType("A", nil), "dangling")
	b.Return(nil)
	b.Label("end")
	if _, err := b.Build(); err == nil {
		t.Errorf("expected dangling label error")
	}
	b = NewMethodBuilder(NewType("A", nil), "fallsOff")
	b.If(&Const{Value: "true", Typ: Bool}, "x")
	b.Label("x")
	b.Nop("")
	b.If(&Const{Value: "true", Typ: Bool}, "x")
	if _, err := b.Build(); err == nil {
		t.Errorf("expected jump outside the method")
	}
}

func TestDefsUses(t *testing.T) {
	cls := NewType("A", nil)
	f := &Field{Name: "f", Class: cls, Type: Int}
	b := NewMethodBuilder(cls, "m")
	this := b.Param("this", cls)
	x := b.Local("x", Int)
	st := b.Assign(&FieldRef{Base: this, Field: f}, x)
	ld := b.Assign(x, &FieldRef{Base: this, Field: f})
	call := b.Call(OrdinaryCall, "g")
	call.Receiver = this
	call.Args = []Expr{x}
	call.Result = x
	b.Return(nil)
	b.MustBuild()

	if len(st.Defs()) != 0 {
		t.Errorf("a field store defines no local")
	}
	if uses := st.Uses(); len(uses) != 2 || !slices.Contains(uses, this) || !slices.Contains(uses, x) {
		t.Errorf("field store should use x and this, got %v", uses)
	}
	if defs := ld.Defs(); len(defs) != 1 || defs[0] != x {
		t.Errorf("field load should define x, got %v", defs)
	}
	if uses := call.Uses(); len(uses) != 2 {
		t.Errorf("call should use receiver and argument, got %v", uses)
	}
	if got := call.String(); got != "x = this.g(x)" {
		t.Errorf("unexpected call rendering %q", got)
	}
}

func TestAssignable(t *testing.T) {
	iface := NewType("I", nil)
	a := NewType("A", nil, iface)
	b := NewType("B", a)
	c := NewType("C", nil)
	for _, tc := range []struct {
		t, u *Type
		want bool
	}{
		{b, a, true},
		{b, iface, true},
		{a, b, false},
		{c, a, false},
		{c, Object, true},
		{ArrayOf(b), ArrayOf(a), true},
		{ArrayOf(c), ArrayOf(a), false},
		{nil, c, true},
	} {
		if got := tc.t.AssignableTo(tc.u); got != tc.want {
			t.Errorf("%s assignable to %s: expected %v, got %v", tc.t, tc.u, tc.want, got)
		}
	}
	if !Compatible(a, b) || Compatible(a, c) {
		t.Errorf("unexpected compatibility")
	}
}

func TestSameLock(t *testing.T) {
	cls := NewType("A", nil)
	f := &Field{Name: "lock", Class: cls, Type: Object, Static: true}
	l1 := &Local{Name: "l1", Typ: cls}
	l2 := &Local{Name: "l2", Typ: cls}
	if !SameLock(l1, l1) || SameLock(l1, l2) {
		t.Errorf("locals are the same lock only if they are the same local")
	}
	if !SameLock(&FieldRef{Field: f}, &FieldRef{Field: f}) {
		t.Errorf("static field references should denote the same lock")
	}
}

type fakePointsTo map[*Local][]ObjectID

func (f fakePointsTo) PointsTo(l *Local) ([]ObjectID, bool) {
	objs, ok := f[l]
	return objs, ok
}

func TestMayAlias(t *testing.T) {
	a, b, c, d := &Local{Name: "a"}, &Local{Name: "b"}, &Local{Name: "c"}, &Local{Name: "d"}
	pt := fakePointsTo{a: {1, 2}, b: {2}, c: {3}}
	if !MayAlias(pt, a, b) {
		t.Errorf("a and b share object 2")
	}
	if MayAlias(pt, a, c) {
		t.Errorf("a and c share no object")
	}
	if !MayAlias(pt, a, d) {
		t.Errorf("unknown locals may alias anything")
	}
}
