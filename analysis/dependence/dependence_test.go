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

package dependence_test

import (
	"errors"
	"testing"

	"github.com/awslabs/ar-go-pdg/analysis/config"
	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/internal/analysistest"
	"golang.org/x/exp/slices"
)

// straightLine returns a method of n nops followed by a return
func straightLine(name string, n int) *ir.Method {
	b := ir.NewMethodBuilder(ir.NewType("T", nil), name)
	for i := 0; i < n; i++ {
		b.Nop("")
	}
	b.Return(nil)
	return b.MustBuild()
}

// fake is an analysis whose dependences are set by the test. It becomes stable once its upstream collaborators
// are stable.
type fake struct {
	dependence.Base
	upstream []ir.Stable
	setupErr error
	runs     int
	edges    [][2]ir.Statement
}

func newFake(rel *dependence.Relation, upstream ...ir.Stable) *fake {
	return &fake{
		Base:     dependence.NewBase("fake", dependence.Backward, rel, dependence.ControlDA),
		upstream: upstream,
	}
}

func (f *fake) Setup(*dependence.Info) error { return f.setupErr }

func (f *fake) Analyze(*dependence.Context) error {
	f.runs++
	if !dependence.UpstreamStable(f.upstream...) {
		return nil
	}
	f.Rel.Clear()
	for _, e := range f.edges {
		f.Rel.Add(e[0], e[1])
	}
	f.SetStable(true)
	return nil
}

func (f *fake) Indirect() dependence.StmtAnalysis {
	return dependence.NewIndirect[ir.Statement, *ir.Method, ir.Statement](f, dependence.StmtRetriever)
}

func TestRelation(t *testing.T) {
	m := straightLine("m", 3)
	for _, rel := range []*dependence.Relation{dependence.NewDenseRelation(), dependence.NewSparseRelation()} {
		s0, s1, s2 := m.Stmt(0), m.Stmt(1), m.Stmt(2)
		if rel.Add(s1, s1) {
			t.Errorf("self dependences must be ignored")
		}
		if !rel.Add(s2, s0) || !rel.Add(s2, s1) || !rel.Add(s1, s0) {
			t.Errorf("new dependences should be added")
		}
		if rel.Add(s2, s0) {
			t.Errorf("a dependence is only added once")
		}
		if rel.Size() != 3 {
			t.Errorf("expected 3 dependences, got %d", rel.Size())
		}
		if !rel.Has(s2, s1) || rel.Has(s1, s2) {
			t.Errorf("Has does not follow the direction of the dependences")
		}
		if !slices.Equal(rel.Dependees(s2), []ir.Statement{s0, s1}) {
			t.Errorf("unexpected dependees %v", rel.Dependees(s2))
		}
		if !slices.Equal(rel.Dependents(s0), []ir.Statement{s1, s2}) {
			t.Errorf("unexpected dependents %v", rel.Dependents(s0))
		}
		edges := rel.Edges()
		if len(edges) != 3 || edges[0].First != s1 || edges[2].Second != s1 {
			t.Errorf("unexpected edges %v", edges)
		}
		if rel.IsSparse() {
			if rel.Length(m) != 0 {
				t.Errorf("sparse relations have no per-method lists")
			}
		} else if rel.Length(m) != len(m.Statements) {
			t.Errorf("expected per-method lists of length %d, got %d", len(m.Statements), rel.Length(m))
		}
		rel.Clear()
		if rel.Size() != 0 || len(rel.Dependees(s2)) != 0 {
			t.Errorf("Clear should remove all the dependences")
		}
	}
}

func TestQueriesAreTotal(t *testing.T) {
	m := straightLine("m", 2)
	other := straightLine("other", 2)
	a := newFake(dependence.NewDenseRelation())
	a.edges = [][2]ir.Statement{{m.Stmt(1), m.Stmt(0)}}
	if err := a.Analyze(dependence.NewContext(nil)); err != nil {
		t.Fatal(err)
	}
	for _, res := range [][]ir.Statement{
		a.Dependees(m.Stmt(1), other),
		a.Dependents(m.Stmt(0), nil),
		a.Dependees(nil, m),
		a.Dependees(other.Stmt(0), other),
	} {
		if res == nil || len(res) != 0 {
			t.Errorf("expected an empty, non-nil result, got %v", res)
		}
	}
	if len(a.Dependees(m.Stmt(1), m)) != 1 {
		t.Errorf("expected one dependee")
	}
	a.Reset()
	if a.IsStable() || len(a.Dependees(m.Stmt(1), m)) != 0 {
		t.Errorf("Reset should clear the results and the stability flag")
	}
}

func TestRunOrdersAnalyses(t *testing.T) {
	m := straightLine("m", 1)
	info := &dependence.Info{Program: &ir.Program{Methods: []*ir.Method{m}}}
	upstream := newFake(dependence.NewSparseRelation())
	downstream := newFake(dependence.NewSparseRelation(), upstream)
	if err := dependence.Run(dependence.NewContext(nil), info, downstream, upstream); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !downstream.IsStable() || !upstream.IsStable() {
		t.Errorf("all the analyses should be stable")
	}
	if downstream.runs != 2 || upstream.runs != 1 {
		t.Errorf("expected 2 and 1 runs, got %d and %d", downstream.runs, upstream.runs)
	}
}

func TestRunWithoutProgress(t *testing.T) {
	never := newFake(dependence.NewSparseRelation())
	stuck := newFake(dependence.NewSparseRelation(), never)
	err := dependence.Run(dependence.NewContext(nil), &dependence.Info{}, stuck)
	if !errors.Is(err, dependence.ErrNoProgress) {
		t.Errorf("expected ErrNoProgress, got %v", err)
	}
}

func TestRunMaxRounds(t *testing.T) {
	cfg := config.NewDefault()
	cfg.Dependence.MaxRounds = 1
	upstream := newFake(dependence.NewSparseRelation())
	downstream := newFake(dependence.NewSparseRelation(), upstream)
	err := dependence.Run(dependence.NewContext(cfg), &dependence.Info{}, downstream, upstream)
	if !errors.Is(err, dependence.ErrNoProgress) {
		t.Errorf("expected ErrNoProgress after one round, got %v", err)
	}
}

func TestRunSetupError(t *testing.T) {
	a := newFake(dependence.NewSparseRelation())
	a.setupErr = dependence.Require("fake", dependence.Needs("program", false))
	err := dependence.Run(dependence.NewContext(nil), &dependence.Info{}, a)
	var initErr *dependence.InitializationError
	if !errors.As(err, &initErr) || initErr.Missing != "program" || initErr.Analysis != "fake" {
		t.Errorf("expected the initialization error of the analysis, got %v", err)
	}
	if a.runs != 0 {
		t.Errorf("an analysis that failed to set up must not run")
	}
}

func TestIndirectOnCycle(t *testing.T) {
	m := straightLine("m", 3)
	s0, s1, s2 := m.Stmt(0), m.Stmt(1), m.Stmt(2)
	a := newFake(dependence.NewDenseRelation())
	a.edges = [][2]ir.Statement{{s0, s1}, {s1, s2}, {s2, s0}}
	indirect := a.Indirect()
	if err := indirect.Analyze(dependence.NewContext(nil)); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(indirect.Dependees(s0, m), []ir.Statement{s1, s2}) {
		t.Errorf("unexpected closure %v", indirect.Dependees(s0, m))
	}
	if !slices.Equal(indirect.Dependents(s0, m), []ir.Statement{s2, s1}) {
		t.Errorf("unexpected closure %v", indirect.Dependents(s0, m))
	}
	if indirect.Indirect() != indirect || indirect.Direction() != a.Direction() {
		t.Errorf("the closure of a closure is itself")
	}
	analysistest.CheckClosure(t, a, []*ir.Method{m})
}

func TestParseID(t *testing.T) {
	for _, id := range dependence.AllIDs {
		if parsed, ok := dependence.ParseID(string(id)); !ok || parsed != id {
			t.Errorf("could not parse %s", id)
		}
	}
	if _, ok := dependence.ParseID("races"); ok {
		t.Errorf("races is not a dependence kind")
	}
}
