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

package escape

import (
	"testing"

	"github.com/awslabs/ar-go-pdg/analysis/ir"
)

type escapeProgram struct {
	methods                                   []*ir.Method
	local, shared, started, fromStatic, param *ir.Local
	field                                     *ir.Field
	global                                    *ir.Field
}

// newEscapeProgram builds a main method allocating a local object, storing another one in a static field and
// starting a thread with a third one.
func newEscapeProgram() escapeProgram {
	cls := ir.NewType("T", nil)
	global := &ir.Field{Name: "g", Class: cls, Type: cls, Static: true}
	field := &ir.Field{Name: "f", Class: cls, Type: cls}

	runB := ir.NewMethodBuilder(cls, "run")
	param := runB.Param("p", cls)
	runB.Return(nil)
	run := runB.MustBuild()

	b := ir.NewMethodBuilder(cls, "main")
	ep := escapeProgram{field: field, global: global, param: param}
	ep.local = b.Local("local", cls)
	ep.shared = b.Local("shared", cls)
	ep.started = b.Local("started", cls)
	ep.fromStatic = b.Local("fromStatic", cls)
	inner := b.Local("inner", cls)
	b.Assign(ep.local, &ir.New{Typ: cls})
	b.Assign(ep.shared, &ir.New{Typ: cls})
	b.Assign(ep.started, &ir.New{Typ: cls})
	b.Assign(inner, &ir.New{Typ: cls})
	b.Assign(&ir.FieldRef{Field: global}, ep.shared)
	b.Assign(&ir.FieldRef{Base: ep.shared, Field: field}, inner)
	b.Assign(ep.fromStatic, &ir.FieldRef{Field: global})
	start := b.Call(ir.StartCall, "run", run)
	start.Args = []ir.Expr{ep.started}
	b.Return(nil)
	ep.methods = []*ir.Method{b.MustBuild(), run}
	return ep
}

func TestEscapes(t *testing.T) {
	ep := newEscapeProgram()
	a := New(nil, ep.methods)
	if a.Escapes(ep.local) {
		t.Errorf("local does not escape")
	}
	if !a.Escapes(ep.shared) {
		t.Errorf("shared is stored in a static field")
	}
	if !a.Escapes(ep.started) || !a.Escapes(ep.param) {
		t.Errorf("started is passed to a new thread, and bound to the parameter of run")
	}
	if !a.Escapes(ep.fromStatic) {
		t.Errorf("values loaded from static fields escape")
	}
	if !a.Escapes(&ir.Local{Name: "unknown"}) {
		t.Errorf("unknown locals escape")
	}
	if a.Shared(&ir.FieldRef{Base: ep.local, Field: ep.field}) {
		t.Errorf("fields of local objects are not shared")
	}
	if !a.Shared(&ir.FieldRef{Field: ep.global}) {
		t.Errorf("static fields are shared")
	}
}

func TestContainedObjectsEscape(t *testing.T) {
	ep := newEscapeProgram()
	a := New(nil, ep.methods)
	var inner *ir.Local
	for _, l := range ep.methods[0].Locals {
		if l.Name == "inner" {
			inner = l
		}
	}
	if !a.Escapes(inner) {
		t.Errorf("inner is stored in a field of an escaping object")
	}
}

func TestAccessPaths(t *testing.T) {
	ep := newEscapeProgram()
	p := NewPaths(ep.methods)
	if got := p.PathOf(ep.fromStatic).String(); got != "T.g" {
		t.Errorf("expected path T.g, got %s", got)
	}
	if got := p.PathOf(&ir.FieldRef{Base: ep.fromStatic, Field: ep.field}).String(); got != "T.g.f" {
		t.Errorf("expected path T.g.f, got %s", got)
	}
	if p.PathOf(ep.param).Kind != ParamRoot {
		t.Errorf("expected a parameter root for p")
	}
	localF := &ir.FieldRef{Base: ep.local, Field: ep.field}
	sharedF := &ir.FieldRef{Base: ep.shared, Field: ep.field}
	if p.Coupled(nil, localF, nil, sharedF) {
		t.Errorf("fields of objects allocated at different sites are not coupled")
	}
	if !p.Coupled(nil, localF, nil, localF) {
		t.Errorf("a path is coupled with itself")
	}
	if !p.Coupled(nil, &ir.FieldRef{Base: ep.param, Field: ep.field}, nil, sharedF) {
		t.Errorf("parameters may point to any object")
	}
}
