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

package dependence

import (
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/internal/funcutil"
	"golang.org/x/exp/slices"
)

type stmtSet = map[ir.Statement]bool

// Relation stores a dependence relation between statements, in both directions: dependent -> dependees and
// dependee -> dependents. Self dependences are never recorded.
//
// A dense relation stores, per method, one set per statement indexed by statement position. A sparse relation
// stores sets in maps keyed by statement, which is better when few statements have dependences.
type Relation struct {
	sparse bool

	// dense representation: per method, sets indexed by statement position
	denseDependees  map[*ir.Method][]stmtSet
	denseDependents map[*ir.Method][]stmtSet

	// sparse representation
	sparseDependees  map[ir.Statement]stmtSet
	sparseDependents map[ir.Statement]stmtSet

	size int
}

// NewDenseRelation returns an empty dense relation
func NewDenseRelation() *Relation {
	r := &Relation{}
	r.Clear()
	return r
}

// NewSparseRelation returns an empty sparse relation
func NewSparseRelation() *Relation {
	r := &Relation{sparse: true}
	r.Clear()
	return r
}

// IsSparse returns true if the relation is stored in maps keyed by statements
func (r *Relation) IsSparse() bool { return r.sparse }

// Clear removes all the dependences
func (r *Relation) Clear() {
	r.size = 0
	if r.sparse {
		r.sparseDependees = map[ir.Statement]stmtSet{}
		r.sparseDependents = map[ir.Statement]stmtSet{}
	} else {
		r.denseDependees = map[*ir.Method][]stmtSet{}
		r.denseDependents = map[*ir.Method][]stmtSet{}
	}
}

// Init prepares the storage for the statements of m. For dense relations, the per-method lists have the length
// of the statement list of m after Init.
func (r *Relation) Init(m *ir.Method) {
	if r.sparse {
		return
	}
	if _, ok := r.denseDependees[m]; !ok {
		r.denseDependees[m] = make([]stmtSet, len(m.Statements))
		r.denseDependents[m] = make([]stmtSet, len(m.Statements))
	}
}

// Length returns the length of the per-method lists of m, or zero for sparse relations and methods not initialized
func (r *Relation) Length(m *ir.Method) int {
	if r.sparse {
		return 0
	}
	return len(r.denseDependees[m])
}

func (r *Relation) set(dense map[*ir.Method][]stmtSet, sparse map[ir.Statement]stmtSet, s ir.Statement,
	create bool) stmtSet {
	if r.sparse {
		set := sparse[s]
		if set == nil && create {
			set = stmtSet{}
			sparse[s] = set
		}
		return set
	}
	m := s.Parent()
	if create {
		r.Init(m)
	}
	sets := dense[m]
	i := s.Index()
	if i < 0 || i >= len(sets) {
		return nil
	}
	if sets[i] == nil && create {
		sets[i] = stmtSet{}
	}
	return sets[i]
}

// Add records that dependent depends on dependee. It returns true if the dependence is new. Self dependences are
// ignored.
func (r *Relation) Add(dependent, dependee ir.Statement) bool {
	if dependent == nil || dependee == nil || dependent == dependee {
		return false
	}
	dees := r.set(r.denseDependees, r.sparseDependees, dependent, true)
	if dees[dependee] {
		return false
	}
	dees[dependee] = true
	r.set(r.denseDependents, r.sparseDependents, dependee, true)[dependent] = true
	r.size++
	return true
}

// Has returns true if dependent depends on dependee
func (r *Relation) Has(dependent, dependee ir.Statement) bool {
	return r.set(r.denseDependees, r.sparseDependees, dependent, false)[dependee]
}

// Dependees returns the statements s depends on, in a deterministic order
func (r *Relation) Dependees(s ir.Statement) []ir.Statement {
	if s == nil {
		return []ir.Statement{}
	}
	return sorted(r.set(r.denseDependees, r.sparseDependees, s, false))
}

// Dependents returns the statements depending on s, in a deterministic order
func (r *Relation) Dependents(s ir.Statement) []ir.Statement {
	if s == nil {
		return []ir.Statement{}
	}
	return sorted(r.set(r.denseDependents, r.sparseDependents, s, false))
}

// Size returns the number of dependences
func (r *Relation) Size() int { return r.size }

// Edges returns all the dependences as (dependent, dependee) pairs, in a deterministic order
func (r *Relation) Edges() []funcutil.Pair[ir.Statement, ir.Statement] {
	edges := make([]funcutil.Pair[ir.Statement, ir.Statement], 0, r.size)
	add := func(dependent ir.Statement, dees stmtSet) {
		for _, dee := range sorted(dees) {
			edges = append(edges, funcutil.NewPair(dependent, dee))
		}
	}
	if r.sparse {
		for s, dees := range r.sparseDependees {
			add(s, dees)
		}
	} else {
		for m, sets := range r.denseDependees {
			for i, dees := range sets {
				add(m.Statements[i], dees)
			}
		}
	}
	slices.SortStableFunc(edges, func(a, b funcutil.Pair[ir.Statement, ir.Statement]) bool {
		if a.First != b.First {
			return ir.Compare(a.First, b.First)
		}
		return ir.Compare(a.Second, b.Second)
	})
	return edges
}

func sorted(set stmtSet) []ir.Statement {
	res := make([]ir.Statement, 0, len(set))
	for s := range set {
		res = append(res, s)
	}
	slices.SortFunc(res, ir.Compare)
	return res
}
