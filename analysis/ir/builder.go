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
)

// MethodBuilder builds the statement list of a method. Branch targets are given as labels, resolved by Build.
//
// Labels name the next statement added after the call to Label.
type MethodBuilder struct {
	m       *Method
	stmts   []Statement
	labels  map[string]int
	fixups  []fixup
	pending []string
}

type fixup struct {
	resolve func(int)
	label   string
}

// NewMethodBuilder returns a builder for the method name of class
func NewMethodBuilder(class *Type, name string) *MethodBuilder {
	return &MethodBuilder{
		m:      &Method{Name: name, Class: class},
		labels: map[string]int{},
	}
}

// Method returns the method being built. Its statements are set by Build.
func (b *MethodBuilder) Method() *Method { return b.m }

// Static marks the method static
func (b *MethodBuilder) Static() *MethodBuilder {
	b.m.Static = true
	return b
}

// Synchronized marks the method synchronized: its body runs holding the monitor of its receiver (or its class).
func (b *MethodBuilder) Synchronized() *MethodBuilder {
	b.m.Synchronized = true
	return b
}

// ClassInit marks the method as the initializer of its class
func (b *MethodBuilder) ClassInit() *MethodBuilder {
	b.m.ClassInit = true
	b.m.Static = true
	return b
}

// Param adds a parameter to the method
func (b *MethodBuilder) Param(name string, t *Type) *Local {
	l := &Local{Name: name, Typ: t}
	b.m.Params = append(b.m.Params, l)
	b.m.Locals = append(b.m.Locals, l)
	return l
}

// Local declares a local of the method
func (b *MethodBuilder) Local(name string, t *Type) *Local {
	l := &Local{Name: name, Typ: t}
	b.m.Locals = append(b.m.Locals, l)
	return l
}

// Label names the next statement
func (b *MethodBuilder) Label(name string) *MethodBuilder {
	b.pending = append(b.pending, name)
	return b
}

func (b *MethodBuilder) add(s Statement) {
	for _, l := range b.pending {
		b.labels[l] = len(b.stmts)
	}
	b.pending = b.pending[:0]
	base := s.anchor()
	base.index = len(b.stmts)
	base.parent = b.m
	b.stmts = append(b.stmts, s)
}

func (b *MethodBuilder) target(label string, resolve func(int)) {
	b.fixups = append(b.fixups, fixup{resolve: resolve, label: label})
}

// Assign adds lhs = rhs
func (b *MethodBuilder) Assign(lhs, rhs Expr) *Assign {
	s := &Assign{Lhs: lhs, Rhs: rhs}
	b.add(s)
	return s
}

// If adds a conditional branch to label when cond holds. The other target is the next statement.
func (b *MethodBuilder) If(cond Expr, label string) *If {
	s := &If{Cond: cond, Targets: make([]int, 2)}
	b.add(s)
	s.Targets[1] = s.index + 1
	b.target(label, func(i int) { s.Targets[0] = i })
	return s
}

// Switch adds a multi-way branch to labels
func (b *MethodBuilder) Switch(key Expr, labels ...string) *Switch {
	s := &Switch{Key: key, Targets: make([]int, len(labels))}
	b.add(s)
	for i, l := range labels {
		i := i
		b.target(l, func(t int) { s.Targets[i] = t })
	}
	return s
}

// Goto adds an unconditional jump to label
func (b *MethodBuilder) Goto(label string) *Goto {
	s := &Goto{}
	b.add(s)
	b.target(label, func(i int) { s.Target = i })
	return s
}

// Return adds a return of value, which may be nil
func (b *MethodBuilder) Return(value Expr) *Return {
	s := &Return{Value: value}
	b.add(s)
	return s
}

// Panic adds a panic of value that may be recovered by the handlers
func (b *MethodBuilder) Panic(value Expr, handlers ...string) *Panic {
	s := &Panic{Value: value, Handlers: make([]int, len(handlers))}
	b.add(s)
	for i, l := range handlers {
		i := i
		b.target(l, func(t int) { s.Handlers[i] = t })
	}
	return s
}

// Enter adds the acquisition of lock
func (b *MethodBuilder) Enter(lock Expr) *EnterMonitor {
	s := &EnterMonitor{Lock: lock}
	b.add(s)
	return s
}

// Exit adds the release of lock
func (b *MethodBuilder) Exit(lock Expr) *ExitMonitor {
	s := &ExitMonitor{Lock: lock}
	b.add(s)
	return s
}

// Call adds a call of the given kind. The result, receiver and arguments can be set on the returned statement.
func (b *MethodBuilder) Call(kind CallKind, name string, callees ...*Method) *Invoke {
	s := &Invoke{Kind: kind, Name: name, Callees: callees}
	b.add(s)
	return s
}

// Nop adds a statement that does nothing
func (b *MethodBuilder) Nop(comment string) *Nop {
	s := &Nop{Comment: comment}
	b.add(s)
	return s
}

// Build resolves labels, and returns the method with its block graph
func (b *MethodBuilder) Build() (*Method, error) {
	if len(b.pending) > 0 {
		return nil, fmt.Errorf("method %s: labels %v do not name a statement", b.m, b.pending)
	}
	for _, f := range b.fixups {
		i, ok := b.labels[f.label]
		if !ok {
			return nil, fmt.Errorf("method %s: undefined label %q", b.m, f.label)
		}
		f.resolve(i)
	}
	for _, s := range b.stmts {
		for _, t := range Successors(s) {
			if t < 0 || t >= len(b.stmts) {
				return nil, fmt.Errorf("method %s: statement %d (%s) jumps outside the method", b.m, s.Index(), s)
			}
		}
	}
	b.m.Statements = b.stmts
	b.m.graph = NewBlockGraph(b.m)
	return b.m, nil
}

// MustBuild is Build, but panics on error
func (b *MethodBuilder) MustBuild() *Method {
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

// SetBody sets the statements of m, numbering them, and computes its block graph. It is used by frontends
// that resolve branch targets themselves.
func SetBody(m *Method, stmts []Statement) error {
	for i, s := range stmts {
		base := s.anchor()
		base.index = i
		base.parent = m
	}
	for _, s := range stmts {
		for _, t := range Successors(s) {
			if t < 0 || t >= len(stmts) {
				return fmt.Errorf("method %s: statement %d (%s) jumps outside the method", m, s.Index(), s)
			}
		}
	}
	m.Statements = stmts
	m.graph = NewBlockGraph(m)
	return nil
}
