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

package analysistest

import (
	"testing"

	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"golang.org/x/exp/slices"
)

// Edges returns the dependences of a as (dependent, dependee) pairs of statement indices. Dependences inside a
// method are keyed by the name of the method, dependences across methods by "dependent method -> dependee method".
func Edges(a dependence.StmtAnalysis, methods []*ir.Method) map[string][][2]int {
	res := map[string][][2]int{}
	for _, m := range methods {
		for _, s := range m.Statements {
			for _, d := range a.Dependees(s, m) {
				key := m.String()
				if d.Parent() != m {
					key += " -> " + d.Parent().String()
				}
				res[key] = append(res[key], [2]int{s.Index(), d.Index()})
			}
		}
	}
	return res
}

// CheckSymmetry checks that d is a dependee of s exactly when s is a dependent of d, for all the statements of the
// methods
func CheckSymmetry(t *testing.T, a dependence.StmtAnalysis, methods []*ir.Method) {
	t.Helper()
	for _, m := range methods {
		for _, s := range m.Statements {
			for _, d := range a.Dependees(s, m) {
				if !slices.Contains(a.Dependents(d, d.Parent()), s) {
					t.Errorf("%s@%d depends on %s@%d, but is not one of its dependents",
						m, s.Index(), d.Parent(), d.Index())
				}
			}
			for _, d := range a.Dependents(s, m) {
				if !slices.Contains(a.Dependees(d, d.Parent()), s) {
					t.Errorf("%s@%d is a dependent of %s@%d, but does not depend on it",
						d.Parent(), d.Index(), m, s.Index())
				}
			}
		}
	}
}

// CheckNoSelfDependence checks that no statement depends on itself
func CheckNoSelfDependence(t *testing.T, a dependence.StmtAnalysis, methods []*ir.Method) {
	t.Helper()
	for _, m := range methods {
		for _, s := range m.Statements {
			if slices.Contains(a.Dependees(s, m), s) {
				t.Errorf("%s@%d depends on itself", m, s.Index())
			}
		}
	}
}

// CheckIdempotence checks that analyzing again, with or without a reset, gives the same dependences
func CheckIdempotence(t *testing.T, a dependence.StmtAnalysis, ctx *dependence.Context, methods []*ir.Method) {
	t.Helper()
	before := Edges(a, methods)
	if err := a.Analyze(ctx); err != nil {
		t.Fatalf("second analysis failed: %v", err)
	}
	if after := Edges(a, methods); !sameEdges(before, after) {
		t.Errorf("analyzing twice changed the results:\n%v\n%v", before, after)
	}
	a.Reset()
	if a.IsStable() {
		t.Errorf("analysis should not be stable after a reset")
	}
	if got := Edges(a, methods); len(got) != 0 {
		t.Errorf("reset should clear the results, got %v", got)
	}
	if err := a.Analyze(ctx); err != nil {
		t.Fatalf("analysis after reset failed: %v", err)
	}
	if after := Edges(a, methods); !sameEdges(before, after) {
		t.Errorf("reset and analyze changed the results:\n%v\n%v", before, after)
	}
}

// CheckClosure checks that the indirect version of a contains the direct dependees, and is closed under them
func CheckClosure(t *testing.T, a dependence.StmtAnalysis, methods []*ir.Method) {
	t.Helper()
	ind := a.Indirect()
	for _, m := range methods {
		for _, s := range m.Statements {
			closure := ind.Dependees(s, m)
			for _, d := range a.Dependees(s, m) {
				if !slices.Contains(closure, d) {
					t.Errorf("closure of %s@%d misses direct dependee %d", m, s.Index(), d.Index())
				}
			}
			for _, c := range closure {
				for _, d := range a.Dependees(c, c.Parent()) {
					if d != s && !slices.Contains(closure, d) {
						t.Errorf("closure of %s@%d is not closed: misses %d, dependee of %d",
							m, s.Index(), d.Index(), c.Index())
					}
				}
			}
		}
	}
}

func sameEdges(a, b map[string][][2]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, ea := range a {
		if !slices.Equal(ea, b[k]) {
			return false
		}
	}
	return true
}
