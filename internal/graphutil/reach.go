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

package graphutil

import (
	ybgraph "github.com/yourbasic/graph"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/traverse"
)

// Reachable returns the set of nodes reachable from any of the nodes in from, including the nodes in from
// themselves.
func Reachable(g *DiGraph, from ...int) map[int]bool {
	res := map[int]bool{}
	dfs := traverse.DepthFirst{
		Visit: func(n graph.Node) { res[int(n.ID())] = true },
	}
	for _, x := range from {
		if res[x] {
			continue
		}
		dfs.Walk(g, Node(x), nil)
	}
	return res
}

// ReachableAvoiding returns the nodes reachable from start through paths whose intermediate nodes do not satisfy
// stop. Nodes that satisfy stop are included in the result but not expanded. The start node is not included
// unless it can reach itself.
func ReachableAvoiding(g *DiGraph, start int, stop func(int) bool) map[int]bool {
	res := map[int]bool{}
	bfs := traverse.BreadthFirst{
		Traverse: func(e graph.Edge) bool {
			from := int(e.From().ID())
			return from == start || !stop(from)
		},
	}
	for _, s := range g.Succs(start) {
		res[s] = true
		if stop(s) {
			continue
		}
		bfs.Walk(g, Node(s), func(n graph.Node, _ int) bool {
			res[int(n.ID())] = true
			return false
		})
		bfs.Reset()
	}
	return res
}

// ReachableWithout returns the nodes reachable from any of the nodes in from through paths that never visit skip.
// The nodes in from are included, except skip.
func ReachableWithout(g *DiGraph, skip int, from ...int) map[int]bool {
	res := map[int]bool{}
	bfs := traverse.BreadthFirst{
		Visit:    func(n graph.Node) { res[int(n.ID())] = true },
		Traverse: func(e graph.Edge) bool { return int(e.To().ID()) != skip },
	}
	for _, x := range from {
		if x == skip || res[x] {
			continue
		}
		bfs.Walk(g, Node(x), nil)
	}
	return res
}

// StrongComponents returns the strongly connected components of g using yourbasic's implementation.
func StrongComponents(g *DiGraph) [][]int {
	return ybgraph.StrongComponents(g)
}
