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
	"go/types"

	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"golang.org/x/exp/slices"
)

// typeTable maps Go types to IR types. Identical types, as printed, share one IR type.
type typeTable struct {
	byName   map[string]*ir.Type
	goTypes  map[*ir.Type]types.Type
	packages map[*types.Package]*ir.Type
	fields   map[*types.Var]*ir.Field
	derefs   map[*ir.Type]*ir.Field
}

func newTypeTable() *typeTable {
	return &typeTable{
		byName:   map[string]*ir.Type{"bool": ir.Bool, "int": ir.Int},
		goTypes:  map[*ir.Type]types.Type{},
		packages: map[*types.Package]*ir.Type{},
		fields:   map[*types.Var]*ir.Field{},
		derefs:   map[*ir.Type]*ir.Field{},
	}
}

func qualifier(p *types.Package) string {
	return p.Name()
}

// of returns the IR type of t
func (tt *typeTable) of(t types.Type) *ir.Type {
	if t == nil {
		return nil
	}
	name := types.TypeString(t, qualifier)
	if it, ok := tt.byName[name]; ok {
		return it
	}
	it := ir.NewType(name, nil)
	tt.byName[name] = it
	tt.goTypes[it] = t
	switch u := t.Underlying().(type) {
	case *types.Slice:
		it.Elem = tt.of(u.Elem())
	case *types.Array:
		it.Elem = tt.of(u.Elem())
	}
	return it
}

// pkg returns the type standing for the package p: the class of its functions and global variables
func (tt *typeTable) pkg(p *types.Package) *ir.Type {
	if p == nil {
		return tt.of(types.Typ[types.Invalid])
	}
	if it, ok := tt.packages[p]; ok {
		return it
	}
	it := ir.NewType(p.Name(), nil)
	tt.packages[p] = it
	return it
}

// field returns the IR field of the field of the struct type st (possibly behind a pointer) at index i
func (tt *typeTable) field(st types.Type, i int) *ir.Field {
	owner := deref(st)
	s, ok := owner.Underlying().(*types.Struct)
	if !ok || i >= s.NumFields() {
		return tt.deref(st)
	}
	v := s.Field(i)
	if f, ok := tt.fields[v]; ok {
		return f
	}
	f := &ir.Field{Name: v.Name(), Class: tt.of(owner), Type: tt.of(v.Type())}
	tt.fields[v] = f
	return f
}

// deref returns the pseudo-field "*" of pointer type ptr: the location the pointer points to
func (tt *typeTable) deref(ptr types.Type) *ir.Field {
	class := tt.of(ptr)
	if f, ok := tt.derefs[class]; ok {
		return f
	}
	f := &ir.Field{Name: "*", Class: class, Type: tt.of(deref(ptr))}
	tt.derefs[class] = f
	return f
}

// linkInterfaces records, for every type of the table, the interfaces of the table it implements
func (tt *typeTable) linkInterfaces() {
	var ifaces []*ir.Type
	for it, t := range tt.goTypes {
		if types.IsInterface(t) {
			ifaces = append(ifaces, it)
		}
	}
	slices.SortFunc(ifaces, func(a, b *ir.Type) bool { return a.Name < b.Name })
	for it, t := range tt.goTypes {
		if types.IsInterface(t) {
			continue
		}
		for _, iface := range ifaces {
			if types.Implements(t, tt.goTypes[iface].Underlying().(*types.Interface)) {
				it.Interfaces = append(it.Interfaces, iface)
			}
		}
	}
}

func deref(t types.Type) types.Type {
	if p, ok := t.Underlying().(*types.Pointer); ok {
		return p.Elem()
	}
	return t
}

// elemOf returns the element type of an array, slice or map, possibly behind a pointer
func elemOf(t types.Type) types.Type {
	switch u := deref(t).Underlying().(type) {
	case *types.Slice:
		return u.Elem()
	case *types.Array:
		return u.Elem()
	case *types.Map:
		return u.Elem()
	case *types.Basic:
		return types.Typ[types.Byte]
	}
	return t
}
