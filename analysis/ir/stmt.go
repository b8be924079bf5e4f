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
	"go/token"
	"strings"
)

// Statement is an element of the statement list of a method. The set of statements is closed; the concrete types
// are *Assign, *If, *Switch, *Goto, *Return, *Panic, *EnterMonitor, *ExitMonitor, *Invoke and *Nop.
type Statement interface {
	// Index returns the position of the statement in its method
	Index() int
	// Parent returns the method containing the statement
	Parent() *Method
	// Defs returns the locals defined by the statement
	Defs() []*Local
	// Uses returns the locals read by the statement
	Uses() []*Local
	// Pos returns the source position of the statement, or token.NoPos if it is unknown
	Pos() token.Pos
	String() string
	anchor() *stmtBase
}

type stmtBase struct {
	index  int
	parent *Method
	pos    token.Pos
}

func (b *stmtBase) Index() int        { return b.index }
func (b *stmtBase) Parent() *Method   { return b.parent }
func (b *stmtBase) Pos() token.Pos    { return b.pos }
func (b *stmtBase) anchor() *stmtBase { return b }

// SetPos sets the source position of s
func SetPos(s Statement, pos token.Pos) {
	s.anchor().pos = pos
}

// Assign assigns the value of Rhs to Lhs. Lhs is a *Local, *FieldRef or *ArrayRef.
type Assign struct {
	stmtBase
	Lhs Expr
	Rhs Expr
}

// If branches on Cond. Targets[0] is the statement executed when Cond holds, Targets[1] when it does not.
type If struct {
	stmtBase
	Cond    Expr
	Targets []int
}

// Switch branches to one of its targets depending on Key. The default target, if any, is one of the targets.
type Switch struct {
	stmtBase
	Key     Expr
	Targets []int
}

// Goto jumps unconditionally to Target
type Goto struct {
	stmtBase
	Target int
}

// Return exits the method, returning Value if it is not nil
type Return struct {
	stmtBase
	Value Expr
}

// Panic raises Value. Handlers are the statements control may be transferred to when the panic is recovered;
// when it has none, the statement exits the method.
type Panic struct {
	stmtBase
	Value    Expr
	Handlers []int
}

// EnterMonitor acquires the lock denoted by Lock
type EnterMonitor struct {
	stmtBase
	Lock Expr
}

// ExitMonitor releases the lock denoted by Lock
type ExitMonitor struct {
	stmtBase
	Lock Expr
}

// CallKind distinguishes the calls the concurrency-related analyses are interested in
type CallKind int

const (
	// OrdinaryCall is a call without synchronization semantics
	OrdinaryCall CallKind = iota
	// WaitCall blocks until the receiver is notified
	WaitCall
	// NotifyCall wakes up one waiter of the receiver
	NotifyCall
	// NotifyAllCall wakes up all the waiters of the receiver
	NotifyAllCall
	// StartCall starts a new thread executing the callees
	StartCall
)

func (k CallKind) String() string {
	switch k {
	case WaitCall:
		return "wait"
	case NotifyCall:
		return "notify"
	case NotifyAllCall:
		return "notifyAll"
	case StartCall:
		return "start"
	default:
		return "call"
	}
}

// Invoke calls a method. Callees are the methods the call may resolve to; a start call runs its callees in a new
// thread.
type Invoke struct {
	stmtBase
	Kind     CallKind
	Name     string
	Receiver *Local
	Args     []Expr
	Result   *Local
	Callees  []*Method
}

// IsNotify returns true for notify and notifyAll calls
func (i *Invoke) IsNotify() bool {
	return i.Kind == NotifyCall || i.Kind == NotifyAllCall
}

// Nop does nothing
type Nop struct {
	stmtBase
	Comment string
}

// Defs returns the local assigned, if any
func (s *Assign) Defs() []*Local {
	if l, ok := s.Lhs.(*Local); ok {
		return []*Local{l}
	}
	return nil
}

// Uses returns the locals read by the right-hand side and by the left-hand side reference
func (s *Assign) Uses() []*Local {
	uses := LocalsOf(s.Rhs)
	if _, isLocal := s.Lhs.(*Local); !isLocal {
		uses = append(uses, LocalsOf(s.Lhs)...)
	}
	return uses
}

// Defs returns nothing
func (s *If) Defs() []*Local { return nil }

// Uses returns the locals of the condition
func (s *If) Uses() []*Local { return LocalsOf(s.Cond) }

// Defs returns nothing
func (s *Switch) Defs() []*Local { return nil }

// Uses returns the locals of the key
func (s *Switch) Uses() []*Local { return LocalsOf(s.Key) }

// Defs returns nothing
func (s *Goto) Defs() []*Local { return nil }

// Uses returns nothing
func (s *Goto) Uses() []*Local { return nil }

// Defs returns nothing
func (s *Return) Defs() []*Local { return nil }

// Uses returns the locals of the returned value
func (s *Return) Uses() []*Local { return LocalsOf(s.Value) }

// Defs returns nothing
func (s *Panic) Defs() []*Local { return nil }

// Uses returns the locals of the value raised
func (s *Panic) Uses() []*Local { return LocalsOf(s.Value) }

// Defs returns nothing
func (s *EnterMonitor) Defs() []*Local { return nil }

// Uses returns the locals of the lock expression
func (s *EnterMonitor) Uses() []*Local { return LocalsOf(s.Lock) }

// Defs returns nothing
func (s *ExitMonitor) Defs() []*Local { return nil }

// Uses returns the locals of the lock expression
func (s *ExitMonitor) Uses() []*Local { return LocalsOf(s.Lock) }

// Defs returns the result of the call, if any
func (s *Invoke) Defs() []*Local {
	if s.Result != nil {
		return []*Local{s.Result}
	}
	return nil
}

// Uses returns the receiver and the locals of the arguments
func (s *Invoke) Uses() []*Local {
	var uses []*Local
	if s.Receiver != nil {
		uses = append(uses, s.Receiver)
	}
	for _, a := range s.Args {
		uses = append(uses, LocalsOf(a)...)
	}
	return uses
}

// Defs returns nothing
func (s *Nop) Defs() []*Local { return nil }

// Uses returns nothing
func (s *Nop) Uses() []*Local { return nil }

func (s *Assign) String() string { return fmt.Sprintf("%s = %s", s.Lhs, s.Rhs) }

func (s *If) String() string {
	return fmt.Sprintf("if %s goto %s", s.Cond, targetString(s.Targets))
}

func (s *Switch) String() string {
	return fmt.Sprintf("switch %s goto %s", s.Key, targetString(s.Targets))
}

func (s *Goto) String() string { return fmt.Sprintf("goto %d", s.Target) }

func (s *Return) String() string {
	if s.Value == nil {
		return "return"
	}
	return "return " + s.Value.String()
}

func (s *Panic) String() string { return "panic " + exprString(s.Value) }

func (s *EnterMonitor) String() string { return "entermonitor " + s.Lock.String() }

func (s *ExitMonitor) String() string { return "exitmonitor " + s.Lock.String() }

func (s *Invoke) String() string {
	var sb strings.Builder
	if s.Result != nil {
		sb.WriteString(s.Result.Name + " = ")
	}
	if s.Kind != OrdinaryCall {
		sb.WriteString(s.Kind.String() + " ")
	}
	if s.Receiver != nil {
		sb.WriteString(s.Receiver.Name + ".")
	}
	sb.WriteString(s.Name + "(")
	for i, a := range s.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(exprString(a))
	}
	sb.WriteString(")")
	return sb.String()
}

func (s *Nop) String() string {
	if s.Comment != "" {
		return "nop // " + s.Comment
	}
	return "nop"
}

func exprString(e Expr) string {
	if e == nil {
		return "nil"
	}
	return e.String()
}

func targetString(targets []int) string {
	parts := make([]string, len(targets))
	for i, t := range targets {
		parts[i] = fmt.Sprintf("%d", t)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Successors returns the indices of the statements that may execute right after s, in the order of the branch
// targets. Exits (returns, unhandled panics) have no successors.
func Successors(s Statement) []int {
	switch x := s.(type) {
	case *If:
		return x.Targets
	case *Switch:
		return x.Targets
	case *Goto:
		return []int{x.Target}
	case *Return:
		return nil
	case *Panic:
		return x.Handlers
	default:
		m := s.Parent()
		if m != nil && s.Index()+1 < len(m.Statements) {
			return []int{s.Index() + 1}
		}
		return nil
	}
}

// EndsBlock returns true if s transfers control somewhere else than its next statement
func EndsBlock(s Statement) bool {
	switch s.(type) {
	case *If, *Switch, *Goto, *Return, *Panic:
		return true
	}
	return false
}

// IsExit returns true if s may exit its method
func IsExit(s Statement) bool {
	switch s.(type) {
	case *Return, *Panic:
		return true
	}
	return false
}

// IsMonitor returns true for enter-monitor and exit-monitor statements
func IsMonitor(s Statement) bool {
	switch s.(type) {
	case *EnterMonitor, *ExitMonitor:
		return true
	}
	return false
}

// IsWait returns true for wait() call sites
func IsWait(s Statement) bool {
	i, ok := s.(*Invoke)
	return ok && i.Kind == WaitCall
}

// Compare orders statements by method name and then position. It is used to make results deterministic.
func Compare(a, b Statement) bool {
	ma, mb := a.Parent(), b.Parent()
	if ma != mb {
		return ma.String() < mb.String()
	}
	return a.Index() < b.Index()
}
