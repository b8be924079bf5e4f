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
	"fmt"
	"strings"
)

// Expr is an expression appearing in a statement. The set of expressions is closed: *Local, *FieldRef, *ArrayRef,
// *Const, *New and *Opaque.
type Expr interface {
	// Type returns the type of the expression, which may be nil if unknown
	Type() *Type
	String() string
	expr()
}

// Local is a local variable of a method (including its parameters)
type Local struct {
	Name string
	Typ  *Type
}

// FieldRef is a reference to a field. Base is nil for static fields.
type FieldRef struct {
	Base  *Local
	Field *Field
}

// ArrayRef is a reference to an array element. Base is nil when the array is not held by a local.
type ArrayRef struct {
	Base  *Local
	Index Expr
	Elem  *Type
}

// Const is a constant value
type Const struct {
	Value string
	Typ   *Type
}

// New is an allocation site
type New struct {
	Typ *Type
}

// Opaque is an expression whose shape is not modelled (arithmetic, conversions, ...). The locals it reads are
// still recorded, so that data dependence remains correct.
type Opaque struct {
	Text     string
	Typ      *Type
	Operands []*Local
}

func (*Local) expr()    {}
func (*FieldRef) expr() {}
func (*ArrayRef) expr() {}
func (*Const) expr()    {}
func (*New) expr()      {}
func (*Opaque) expr()   {}

// Type returns the type of the local
func (l *Local) Type() *Type { return l.Typ }

// Type returns the type of the field
func (f *FieldRef) Type() *Type { return f.Field.Type }

// Type returns the element type
func (a *ArrayRef) Type() *Type { return a.Elem }

// Type returns the type of the constant
func (c *Const) Type() *Type { return c.Typ }

// Type returns the allocated type
func (n *New) Type() *Type { return n.Typ }

// Type returns the type of the expression, if known
func (o *Opaque) Type() *Type { return o.Typ }

func (l *Local) String() string { return l.Name }

func (f *FieldRef) String() string {
	if f.Base == nil {
		return f.Field.String()
	}
	return f.Base.Name + "." + f.Field.Name
}

func (a *ArrayRef) String() string {
	if a.Base == nil {
		return fmt.Sprintf("?[%s]", a.Index)
	}
	return fmt.Sprintf("%s[%s]", a.Base.Name, a.Index)
}

func (c *Const) String() string { return c.Value }

func (n *New) String() string { return "new " + n.Typ.String() }

func (o *Opaque) String() string {
	if o.Text != "" {
		return o.Text
	}
	names := make([]string, len(o.Operands))
	for i, l := range o.Operands {
		names[i] = l.Name
	}
	return "op(" + strings.Join(names, ", ") + ")"
}

// LocalsOf returns the locals read when evaluating e
func LocalsOf(e Expr) []*Local {
	switch x := e.(type) {
	case *Local:
		return []*Local{x}
	case *FieldRef:
		if x.Base != nil {
			return []*Local{x.Base}
		}
	case *ArrayRef:
		if x.Base == nil {
			return LocalsOf(x.Index)
		}
		return append([]*Local{x.Base}, LocalsOf(x.Index)...)
	case *Opaque:
		return x.Operands
	}
	return nil
}

// Base returns the local holding the object accessed by e, if e is a field or array reference or a local.
// It returns nil for static fields and other expressions.
func Base(e Expr) *Local {
	switch x := e.(type) {
	case *Local:
		return x
	case *FieldRef:
		return x.Base
	case *ArrayRef:
		return x.Base
	}
	return nil
}

// SameLock returns true if a and b are structurally the same lock expression: the same local, the same static
// field, or the same field of the same local.
func SameLock(a, b Expr) bool {
	switch x := a.(type) {
	case *Local:
		y, ok := b.(*Local)
		return ok && x == y
	case *FieldRef:
		y, ok := b.(*FieldRef)
		return ok && x.Field == y.Field && x.Base == y.Base
	case *ArrayRef:
		y, ok := b.(*ArrayRef)
		return ok && x.Base == y.Base && SameLock(x.Index, y.Index)
	case *Const:
		y, ok := b.(*Const)
		return ok && x.Value == y.Value
	}
	return false
}
