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

package funcutil

// Pair is a comparable pair of values. Two pairs with equal components are equal map keys, so pairs never need to
// be interned.
type Pair[A comparable, B comparable] struct {
	First  A
	Second B
}

// NewPair returns the pair (a, b)
func NewPair[A comparable, B comparable](a A, b B) Pair[A, B] {
	return Pair[A, B]{First: a, Second: b}
}

// Triple is a comparable triple of values
type Triple[A comparable, B comparable, C comparable] struct {
	First  A
	Second B
	Third  C
}

// NewTriple returns the triple (a, b, c)
func NewTriple[A comparable, B comparable, C comparable](a A, b B, c C) Triple[A, B, C] {
	return Triple[A, B, C]{First: a, Second: b, Third: c}
}
