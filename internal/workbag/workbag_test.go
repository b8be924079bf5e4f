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

package workbag

import (
	"testing"

	"golang.org/x/exp/slices"
)

func drain[T comparable](b *Bag[T]) []T {
	var res []T
	for !b.IsEmpty() {
		res = append(res, b.Next())
	}
	return res
}

func TestOrder(t *testing.T) {
	fifo := New[int](FIFO)
	lifo := New[int](LIFO)
	for i := 1; i <= 4; i++ {
		fifo.Add(i)
		lifo.Add(i)
	}
	if got := drain(fifo); !slices.Equal(got, []int{1, 2, 3, 4}) {
		t.Errorf("fifo order: got %v", got)
	}
	if got := drain(lifo); !slices.Equal(got, []int{4, 3, 2, 1}) {
		t.Errorf("lifo order: got %v", got)
	}
}

func TestNoDuplicatesWhilePending(t *testing.T) {
	b := New[string](FIFO)
	if !b.Add("a") {
		t.Fatalf("first add should succeed")
	}
	if b.Add("a") {
		t.Errorf("a is pending, second add should fail")
	}
	b.Next()
	if !b.Add("a") {
		t.Errorf("a bag without history should accept a removed item again")
	}
}

func TestHistoryAware(t *testing.T) {
	b := NewHistoryAware[int](LIFO)
	b.AddAll([]int{1, 2, 3})
	drain(b)
	if b.AddAll([]int{1, 2, 3}) {
		t.Errorf("history-aware bag should never re-accept processed items")
	}
	if !b.Seen(2) {
		t.Errorf("2 should be in the history")
	}
	if b.Insertions() != 3 {
		t.Errorf("expected 3 insertions, got %d", b.Insertions())
	}
	b.Clear()
	if !b.Add(1) {
		t.Errorf("clear should reset the history")
	}
}

// A traversal of a cyclic graph with a history-aware bag terminates and visits every node once.
func TestHistoryAwareTerminatesOnCycles(t *testing.T) {
	succs := map[int][]int{0: {1}, 1: {2, 0}, 2: {0, 1, 3}, 3: {3}}
	b := NewHistoryAware[int](FIFO)
	b.Add(0)
	visited := 0
	for !b.IsEmpty() {
		n := b.Next()
		visited++
		b.AddAll(succs[n])
	}
	if visited != 4 || b.Insertions() != 4 {
		t.Errorf("expected 4 visits and insertions, got %d and %d", visited, b.Insertions())
	}
}

func TestParseOrder(t *testing.T) {
	if o, ok := ParseOrder("lifo"); !ok || o != LIFO {
		t.Errorf("lifo should parse")
	}
	if _, ok := ParseOrder("random"); ok {
		t.Errorf("random should not parse")
	}
}
