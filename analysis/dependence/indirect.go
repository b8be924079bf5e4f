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
	"github.com/awslabs/ar-go-pdg/internal/funcutil"
	"github.com/awslabs/ar-go-pdg/internal/workbag"
)

// Retriever converts a result of an analysis into the query that returns its own dependences
type Retriever[E any, C any, T any] func(t T) (E, C)

// Indirect is the transitive closure of a direct analysis. Results are cached per (entity, context) once the
// direct analysis is stable; Reset clears the cache.
type Indirect[E comparable, C comparable, T comparable] struct {
	direct   Analysis[E, C, T]
	retrieve Retriever[E, C, T]

	dependees  map[funcutil.Pair[E, C]][]T
	dependents map[funcutil.Pair[E, C]][]T
}

// NewIndirect returns the transitive closure of direct
func NewIndirect[E comparable, C comparable, T comparable](direct Analysis[E, C, T],
	retrieve Retriever[E, C, T]) *Indirect[E, C, T] {
	return &Indirect[E, C, T]{
		direct:     direct,
		retrieve:   retrieve,
		dependees:  map[funcutil.Pair[E, C]][]T{},
		dependents: map[funcutil.Pair[E, C]][]T{},
	}
}

// Direct returns the analysis the closure is computed from
func (a *Indirect[E, C, T]) Direct() Analysis[E, C, T] { return a.direct }

// Dependees returns all the results e depends on transitively
func (a *Indirect[E, C, T]) Dependees(e E, ctx C) []T {
	return a.closure(e, ctx, a.dependees, a.direct.Dependees)
}

// Dependents returns all the results depending transitively on e
func (a *Indirect[E, C, T]) Dependents(e E, ctx C) []T {
	return a.closure(e, ctx, a.dependents, a.direct.Dependents)
}

func (a *Indirect[E, C, T]) closure(e E, ctx C, cache map[funcutil.Pair[E, C]][]T, step func(E, C) []T) []T {
	key := funcutil.NewPair(e, ctx)
	if res, ok := cache[key]; ok {
		return res
	}
	res := []T{}
	bag := workbag.NewHistoryAware[T](workbag.FIFO)
	bag.AddAll(step(e, ctx))
	for !bag.IsEmpty() {
		t := bag.Next()
		if any(t) != any(e) {
			res = append(res, t)
		}
		e2, ctx2 := a.retrieve(t)
		bag.AddAll(step(e2, ctx2))
	}
	if a.direct.IsStable() {
		cache[key] = res
	}
	return res
}

// Direction returns the direction of the direct analysis
func (a *Indirect[E, C, T]) Direction() Direction { return a.direct.Direction() }

// IDs returns the dependence kinds of the direct analysis
func (a *Indirect[E, C, T]) IDs() []ID { return a.direct.IDs() }

// Indirect returns a, which is already closed
func (a *Indirect[E, C, T]) Indirect() Analysis[E, C, T] { return a }

// IsStable returns true if the direct analysis is stable
func (a *Indirect[E, C, T]) IsStable() bool { return a.direct.IsStable() }

// Reset clears the cached closures and the direct analysis
func (a *Indirect[E, C, T]) Reset() {
	a.dependees = map[funcutil.Pair[E, C]][]T{}
	a.dependents = map[funcutil.Pair[E, C]][]T{}
	a.direct.Reset()
}

// Setup sets up the direct analysis
func (a *Indirect[E, C, T]) Setup(info *Info) error { return a.direct.Setup(info) }

// Analyze runs the direct analysis and clears the cached closures
func (a *Indirect[E, C, T]) Analyze(ctx *Context) error {
	a.dependees = map[funcutil.Pair[E, C]][]T{}
	a.dependents = map[funcutil.Pair[E, C]][]T{}
	return a.direct.Analyze(ctx)
}
