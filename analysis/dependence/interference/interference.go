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

// Package interference implements interference dependence: a read of a field or of an array element depends on
// the writes to the same location that may happen in another thread.
package interference

import (
	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/dependence/precision"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/internal/funcutil"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// bucket identifies the locations a field or array access may touch: a non-final field, or the elements of the
// arrays of an element type
type bucket struct {
	array bool
	name  string
}

func (b bucket) String() string {
	if b.array {
		return b.name + "[]"
	}
	return b.name
}

// access is a field or array access made by an assignment
type access struct {
	stmt *ir.Assign
	expr ir.Expr
}

func (a access) toPrecision() precision.Access {
	return precision.Access{Stmt: a.stmt, Expr: a.expr}
}

// Analysis is the interference dependence analysis
type Analysis struct {
	dependence.Base
	level string

	callGraph ir.CallGraph
	threads   ir.ThreadGraph
	strategy  precision.Strategy

	// per run
	writes  map[bucket][]access
	reads   map[bucket][]access
	skipped int
}

// New returns an interference dependence analysis using the precision strategy named level
func New(level string) *Analysis {
	return &Analysis{
		Base: dependence.NewBase("interference", dependence.Backward, dependence.NewSparseRelation(),
			dependence.InterferenceDA),
		level: level,
	}
}

// Setup records the call graph, the thread graph and the oracles of the precision strategy
func (a *Analysis) Setup(info *dependence.Info) error {
	if info == nil {
		return &dependence.InitializationError{Analysis: a.Name, Missing: "program"}
	}
	if err := dependence.Require(a.Name,
		dependence.Needs("call graph", info.CallGraph != nil),
		dependence.Needs("thread graph", info.Threads != nil)); err != nil {
		return err
	}
	strategy, err := precision.New(a.Name, a.level, info)
	if err != nil {
		return err
	}
	a.callGraph = info.CallGraph
	a.threads = info.Threads
	a.strategy = strategy
	return nil
}

// Analyze computes the interference dependences of the reachable methods
func (a *Analysis) Analyze(ctx *dependence.Context) error {
	if a.callGraph == nil {
		return &dependence.InitializationError{Analysis: a.Name, Missing: "call graph"}
	}
	if !dependence.UpstreamStable(a.callGraph, a.threads) {
		ctx.Logger.Debugf("%s: collaborators are not stable, deferring\n", a.Name)
		return nil
	}
	a.Rel.Clear()
	a.writes = map[bucket][]access{}
	a.reads = map[bucket][]access{}
	a.skipped = 0
	for _, m := range a.callGraph.ReachableMethods() {
		for _, s := range m.Statements {
			if assign, ok := s.(*ir.Assign); ok {
				a.collect(assign)
			}
		}
	}
	if a.skipped > 0 {
		ctx.Logger.Debugf("%s: %d assignments with unmodelled expressions ignored\n", a.Name, a.skipped)
	}

	buckets := maps.Keys(a.writes)
	slices.SortFunc(buckets, func(x, y bucket) bool { return x.String() < y.String() })
	for _, b := range buckets {
		for _, w := range a.writes[b] {
			for _, r := range a.reads[b] {
				if a.interfere(b, w, r) {
					a.Rel.Add(r.stmt, w.stmt)
					ctx.Logger.Tracef("%s: %s interferes with %s\n", a.Name, w.toPrecision(), r.toPrecision())
				}
			}
		}
	}
	ctx.Logger.Debugf("%s: %d locations written, %d dependences\n", a.Name, len(buckets), a.Rel.Size())
	a.SetStable(true)
	return nil
}

// collect records the field and array accesses of s
func (a *Analysis) collect(s *ir.Assign) {
	if _, ok := s.Lhs.(*ir.Opaque); ok {
		a.skipped++
	} else if b, ok := bucketOf(s.Lhs); ok {
		a.writes[b] = append(a.writes[b], access{stmt: s, expr: s.Lhs})
	}
	if _, ok := s.Rhs.(*ir.Opaque); ok {
		a.skipped++
	} else if b, ok := bucketOf(s.Rhs); ok {
		a.reads[b] = append(a.reads[b], access{stmt: s, expr: s.Rhs})
	}
}

func bucketOf(e ir.Expr) (bucket, bool) {
	switch x := e.(type) {
	case *ir.FieldRef:
		if x.Field.Final {
			return bucket{}, false
		}
		return bucket{name: x.Field.String()}, true
	case *ir.ArrayRef:
		return bucket{array: true, name: x.Elem.String()}, true
	}
	return bucket{}, false
}

// interfere returns true if the write w and the read r of locations of b may happen in different threads and may
// touch the same location
func (a *Analysis) interfere(b bucket, w, r access) bool {
	mw, mr := w.stmt.Parent(), r.stmt.Parent()
	if a.threads.MustOccurInSameThread(mw, mr) {
		return false
	}
	if !b.array {
		f := w.expr.(*ir.FieldRef).Field
		if f.Static && initializes(mw, f) && initializes(mr, f) {
			return false
		}
	}
	return a.strategy.Accept(w.toPrecision(), r.toPrecision())
}

// initializes returns true if m is the class initializer of the class declaring f
func initializes(m *ir.Method, f *ir.Field) bool {
	return m.ClassInit && m.Class == f.Class
}

// Locations returns the locations written by the reachable methods, as found by the last run, sorted by name
func (a *Analysis) Locations() []string {
	res := funcutil.Map(maps.Keys(a.writes), bucket.String)
	slices.Sort(res)
	return res
}

// Indirect returns the transitive closure of the analysis
func (a *Analysis) Indirect() dependence.StmtAnalysis {
	return dependence.NewIndirect[ir.Statement, *ir.Method, ir.Statement](a, dependence.StmtRetriever)
}
