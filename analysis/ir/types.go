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

// Type is a named type of the program, with an optional super type and implemented interfaces. Array types have
// a non-nil element type.
type Type struct {
	Name       string
	Super      *Type
	Interfaces []*Type
	Elem       *Type
}

var (
	// Object is the root of the type hierarchy
	Object = &Type{Name: "Object"}
	// Bool is the type of conditions
	Bool = &Type{Name: "bool"}
	// Int is the type of integer values
	Int = &Type{Name: "int"}
)

// NewType returns a new type with the given super type and interfaces. A nil super type stands for Object.
func NewType(name string, super *Type, interfaces ...*Type) *Type {
	if super == nil && name != Object.Name {
		super = Object
	}
	return &Type{Name: name, Super: super, Interfaces: interfaces}
}

// ArrayOf returns an array type whose elements are of type elem
func ArrayOf(elem *Type) *Type {
	return &Type{Name: elem.Name + "[]", Super: Object, Elem: elem}
}

// IsArray returns true if t is an array type
func (t *Type) IsArray() bool {
	return t != nil && t.Elem != nil
}

func (t *Type) String() string {
	if t == nil {
		return "?"
	}
	return t.Name
}

// AssignableTo returns true if a value of type t can be used where a value of type u is expected: u is t, one of
// its super types or one of the interfaces it implements. Array types are assignable when their element types are.
// A nil type is unknown and is assignable to, and from, every type.
func (t *Type) AssignableTo(u *Type) bool {
	if t == nil || u == nil || t == u || u == Object {
		return true
	}
	if t.Elem != nil && u.Elem != nil {
		return t.Elem.AssignableTo(u.Elem)
	}
	seen := map[*Type]bool{}
	queue := []*Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil || seen[cur] {
			continue
		}
		if cur == u {
			return true
		}
		seen[cur] = true
		queue = append(queue, cur.Super)
		queue = append(queue, cur.Interfaces...)
	}
	return false
}

// Compatible returns true if one of the types is assignable to the other, i.e. a reference of type a and a
// reference of type b may denote the same object.
func Compatible(a, b *Type) bool {
	return a.AssignableTo(b) || b.AssignableTo(a)
}

// Field is a field of a class. Static fields have a nil base in field references.
type Field struct {
	Name   string
	Class  *Type
	Type   *Type
	Static bool
	Final  bool
}

func (f *Field) String() string {
	return f.Class.String() + "." + f.Name
}
