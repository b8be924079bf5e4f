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

import "fmt"

// Stable is implemented by collaborators that are computed incrementally. Dependence analyses defer their work
// until the collaborators they use are stable.
type Stable interface {
	IsStable() bool
}

// CallTriple is a call edge: Site, in Caller, may call Callee
type CallTriple struct {
	Caller *Method
	Site   *Invoke
	Callee *Method
}

func (t CallTriple) String() string {
	return fmt.Sprintf("%s@%d -> %s", t.Caller, t.Site.Index(), t.Callee)
}

// CallGraph answers call structure queries over the reachable part of a program
type CallGraph interface {
	Stable
	// ReachableMethods returns the methods reachable from the entry points, in a deterministic order
	ReachableMethods() []*Method
	// Callers returns the call edges ending in m
	Callers(m *Method) []CallTriple
	// Callees returns the call edges starting in m
	Callees(m *Method) []CallTriple
	// AnyReachableFrom returns true if one of the methods in targets may be called, directly or transitively,
	// by site in the thread executing site. Thread starts do not reach their callees.
	AnyReachableFrom(site *Invoke, targets map[*Method]bool) bool
}

// ThreadGraph describes which methods may run in which threads
type ThreadGraph interface {
	Stable
	// CreationSites returns the thread start sites of the program
	CreationSites() []*Invoke
	// MustOccurInSameThread returns true if every execution of a and b happens in one and the same thread
	MustOccurInSameThread(a, b *Method) bool
}

// MonitorTriple is a monitor region: the region of Method between Enter and Exit. The triple of a synchronized
// method is synthetic: Enter and Exit are nil and the region is the whole method.
type MonitorTriple struct {
	Enter  *EnterMonitor
	Exit   *ExitMonitor
	Method *Method
}

// IsSynthetic returns true if the triple stands for the monitor of a synchronized method
func (t MonitorTriple) IsSynthetic() bool {
	return t.Enter == nil && t.Exit == nil
}

func (t MonitorTriple) String() string {
	if t.IsSynthetic() {
		return fmt.Sprintf("synchronized %s", t.Method)
	}
	return fmt.Sprintf("%s[%d..%d]", t.Method, t.Enter.Index(), t.Exit.Index())
}

// MonitorInfo answers queries about the monitor regions of a program
type MonitorInfo interface {
	Stable
	// Monitors returns all the monitor triples
	Monitors() []MonitorTriple
	// EnclosingMonitors returns the innermost triples enclosing s. Monitor statements are not enclosed by the
	// triples they delimit.
	EnclosingMonitors(s Statement) []MonitorTriple
	// TriplesOf returns the triples s delimits, if s is a monitor statement
	TriplesOf(s Statement) []MonitorTriple
}

// SafeLockInfo identifies monitor regions whose lock can never be contended
type SafeLockInfo interface {
	Stable
	IsSafe(t MonitorTriple) bool
}

// ObjectID identifies an abstract object of a points-to analysis
type ObjectID int

// PointsTo is a points-to oracle
type PointsTo interface {
	// PointsTo returns the abstract objects l may point to. ok is false when the oracle has no information
	// about l, in which case clients must assume l may point to anything.
	PointsTo(l *Local) (objs []ObjectID, ok bool)
}

// EscapeInfo is a thread-escape oracle
type EscapeInfo interface {
	// Escapes returns true if the object l refers to may be reachable from more than one thread
	Escapes(l *Local) bool
	// Shared returns true if the location denoted by e may be accessed by more than one thread
	Shared(e Expr) bool
}

// SymbolicInfo relates accesses through their symbolic access paths
type SymbolicInfo interface {
	// Coupled returns true if the location accessed by a at sa and the one accessed by b at sb may be
	// the same, according to the access paths leading to them
	Coupled(sa Statement, a Expr, sb Statement, b Expr) bool
}

// MayAlias returns true if a and b may point to the same object according to pt. Unknown locals may alias
// anything.
func MayAlias(pt PointsTo, a, b *Local) bool {
	if a == nil || b == nil {
		return true
	}
	pa, oka := pt.PointsTo(a)
	pb, okb := pt.PointsTo(b)
	if !oka || !okb {
		return true
	}
	objs := make(map[ObjectID]bool, len(pa))
	for _, o := range pa {
		objs[o] = true
	}
	for _, o := range pb {
		if objs[o] {
			return true
		}
	}
	return false
}
