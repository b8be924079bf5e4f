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

// Package workbag implements the work lists used by the fixpoint computations of the dependence analyses.
//
// A work bag is either FIFO or LIFO. A history-aware work bag remembers every item that was ever added to it and
// will never accept that item again, even after it has been removed. History-aware bags are what guarantees
// termination of traversals over cyclic graphs (loops in control flow graphs, recursion in call graphs).
package workbag

// Order is the processing order of a work bag
type Order int

const (
	// FIFO bags return items in insertion order
	FIFO Order = iota
	// LIFO bags return the most recently inserted item first
	LIFO
)

func (o Order) String() string {
	if o == LIFO {
		return "lifo"
	}
	return "fifo"
}

// ParseOrder returns the order named by s ("fifo" or "lifo"). Any other value yields FIFO and false.
func ParseOrder(s string) (Order, bool) {
	switch s {
	case "fifo", "FIFO", "":
		return FIFO, true
	case "lifo", "LIFO":
		return LIFO, true
	default:
		return FIFO, false
	}
}

// Bag is a work bag of comparable items.
// The zero value is not usable; use New or NewHistoryAware.
type Bag[T comparable] struct {
	order Order
	items []T

	// pending contains the items currently in the bag, to avoid duplicates
	pending map[T]bool

	// history is non-nil for history-aware bags and contains every item ever added
	history map[T]bool

	// added counts the number of successful insertions
	added int
}

// New returns an empty bag processing items in the order provided. Items already in the bag are not added twice,
// but an item can be added again once it has been removed.
func New[T comparable](order Order) *Bag[T] {
	return &Bag[T]{
		order:   order,
		items:   []T{},
		pending: map[T]bool{},
	}
}

// NewHistoryAware returns an empty bag that never accepts an item it has already seen.
func NewHistoryAware[T comparable](order Order) *Bag[T] {
	b := New[T](order)
	b.history = map[T]bool{}
	return b
}

// Add adds x to the bag and returns true if x has been added.
func (b *Bag[T]) Add(x T) bool {
	if b.pending[x] {
		return false
	}
	if b.history != nil {
		if b.history[x] {
			return false
		}
		b.history[x] = true
	}
	b.pending[x] = true
	b.items = append(b.items, x)
	b.added++
	return true
}

// AddAll adds all the elements of xs to the bag and returns true if at least one was added.
func (b *Bag[T]) AddAll(xs []T) bool {
	changed := false
	for _, x := range xs {
		if b.Add(x) {
			changed = true
		}
	}
	return changed
}

// Next removes an item from the bag and returns it. Next panics if the bag is empty.
func (b *Bag[T]) Next() T {
	var x T
	if b.order == LIFO {
		x = b.items[len(b.items)-1]
		b.items = b.items[:len(b.items)-1]
	} else {
		x = b.items[0]
		b.items = b.items[1:]
	}
	delete(b.pending, x)
	return x
}

// IsEmpty returns true when there is no item left to process
func (b *Bag[T]) IsEmpty() bool {
	return len(b.items) == 0
}

// Len returns the number of items in the bag
func (b *Bag[T]) Len() int {
	return len(b.items)
}

// Seen returns true if x has been added to a history-aware bag at some point.
// For bags without history, it returns true only if x is currently in the bag.
func (b *Bag[T]) Seen(x T) bool {
	if b.history != nil {
		return b.history[x]
	}
	return b.pending[x]
}

// Insertions returns the total number of successful insertions since the bag was created
func (b *Bag[T]) Insertions() int {
	return b.added
}

// Clear removes all items, and the history if the bag is history-aware
func (b *Bag[T]) Clear() {
	b.items = b.items[:0]
	b.pending = map[T]bool{}
	if b.history != nil {
		b.history = map[T]bool{}
	}
}
