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

import "go/token"

// Method owns a statement list and, if it is concrete, the basic block graph of those statements.
type Method struct {
	Name  string
	Class *Type

	// Params are the parameters of the method. For instance methods, Params[0] is the receiver.
	Params []*Local

	// Locals are all the locals of the method, parameters included
	Locals []*Local

	Static       bool
	Synchronized bool

	// ClassInit is true for the initializer of Class (static initializer, or package init for Go programs)
	ClassInit bool

	Statements []Statement

	graph *BlockGraph
}

// NewAbstractMethod returns a method without body
func NewAbstractMethod(class *Type, name string, params ...*Local) *Method {
	return &Method{Name: name, Class: class, Params: params, Locals: params}
}

func (m *Method) String() string {
	if m == nil {
		return "<nil>"
	}
	if m.Class == nil {
		return m.Name
	}
	return m.Class.Name + "." + m.Name
}

// IsConcrete returns true if the method has a body
func (m *Method) IsConcrete() bool {
	return len(m.Statements) > 0
}

// BlockGraph returns the basic block graph of the method, or nil if the method is abstract
func (m *Method) BlockGraph() *BlockGraph {
	return m.graph
}

// Stmt returns the statement at index i, or nil if there is none
func (m *Method) Stmt(i int) Statement {
	if i < 0 || i >= len(m.Statements) {
		return nil
	}
	return m.Statements[i]
}

// Owns returns true if s is a statement of m
func (m *Method) Owns(s Statement) bool {
	return s != nil && s.Parent() == m && m.Stmt(s.Index()) == s
}

// Returns returns the return statements of the method
func (m *Method) Returns() []*Return {
	var res []*Return
	for _, s := range m.Statements {
		if r, ok := s.(*Return); ok {
			res = append(res, r)
		}
	}
	return res
}

// Invokes returns the call sites of the method
func (m *Method) Invokes() []*Invoke {
	var res []*Invoke
	for _, s := range m.Statements {
		if i, ok := s.(*Invoke); ok {
			res = append(res, i)
		}
	}
	return res
}

// Program is a set of methods with the entry points of the program
type Program struct {
	Methods []*Method
	Entries []*Method

	// Fset contains the positions of the statements, if the program was built from source
	Fset *token.FileSet
}

// Position returns the source position of s, or the zero position if it is unknown
func (p *Program) Position(s Statement) token.Position {
	if p.Fset == nil || s.Pos() == token.NoPos {
		return token.Position{}
	}
	return p.Fset.Position(s.Pos())
}

// MethodNamed returns the first method whose String() is name, or nil
func (p *Program) MethodNamed(name string) *Method {
	for _, m := range p.Methods {
		if m.String() == name || m.Name == name {
			return m
		}
	}
	return nil
}
