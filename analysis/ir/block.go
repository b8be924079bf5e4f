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

import (
	"fmt"

	"github.com/awslabs/ar-go-pdg/internal/graphutil"
)

// BasicBlock is a maximal run of statements with a single entry and a single exit
type BasicBlock struct {
	// ID is the index of the block in its graph
	ID    int
	Succs []*BasicBlock
	Preds []*BasicBlock

	graph *BlockGraph
	stmts []Statement
}

// Statements returns the statements of the block, in order
func (b *BasicBlock) Statements() []Statement { return b.stmts }

// Leader returns the first statement of the block
func (b *BasicBlock) Leader() Statement { return b.stmts[0] }

// Trailer returns the last statement of the block
func (b *BasicBlock) Trailer() Statement { return b.stmts[len(b.stmts)-1] }

// Graph returns the graph the block belongs to
func (b *BasicBlock) Graph() *BlockGraph { return b.graph }

// IsExit returns true if control may leave the method at the end of the block
func (b *BasicBlock) IsExit() bool {
	return len(b.Succs) == 0 || IsExit(b.Trailer())
}

// Contains returns true if s is in the block
func (b *BasicBlock) Contains(s Statement) bool {
	return b.graph.Method.Owns(s) && b.graph.blockOf[s.Index()] == b
}

func (b *BasicBlock) String() string {
	return fmt.Sprintf("%s#%d[%d..%d]", b.graph.Method, b.ID, b.Leader().Index(), b.Trailer().Index())
}

// BlockGraph is the control flow graph of a method, at the basic block level
type BlockGraph struct {
	Method *Method
	Blocks []*BasicBlock

	// blockOf[i] is the block of the statement of index i
	blockOf []*BasicBlock

	di   *graphutil.DiGraph
	sccs [][]*BasicBlock
	scc  []int
}

// NewBlockGraph computes the basic blocks of the statements of m. Leaders are the first statement, every branch
// target and every statement following a branch. Blocks are numbered in statement order, so the head block has
// ID 0.
func NewBlockGraph(m *Method) *BlockGraph {
	n := len(m.Statements)
	g := &BlockGraph{Method: m, blockOf: make([]*BasicBlock, n)}
	if n == 0 {
		g.di = graphutil.NewDiGraph(0)
		return g
	}
	leader := make([]bool, n)
	leader[0] = true
	for i, s := range m.Statements {
		if EndsBlock(s) {
			if i+1 < n {
				leader[i+1] = true
			}
			for _, t := range Successors(s) {
				leader[t] = true
			}
		}
	}
	var cur *BasicBlock
	for i, s := range m.Statements {
		if leader[i] {
			cur = &BasicBlock{ID: len(g.Blocks), graph: g}
			g.Blocks = append(g.Blocks, cur)
		}
		cur.stmts = append(cur.stmts, s)
		g.blockOf[i] = cur
	}
	g.di = graphutil.NewDiGraph(len(g.Blocks))
	for _, b := range g.Blocks {
		for _, t := range Successors(b.Trailer()) {
			g.di.AddEdge(b.ID, g.blockOf[t].ID)
		}
	}
	for _, b := range g.Blocks {
		for _, s := range g.di.Succs(b.ID) {
			b.Succs = append(b.Succs, g.Blocks[s])
		}
		for _, p := range g.di.Preds(b.ID) {
			b.Preds = append(b.Preds, g.Blocks[p])
		}
	}
	return g
}

// Head returns the entry block, or nil for an empty graph
func (g *BlockGraph) Head() *BasicBlock {
	if len(g.Blocks) == 0 {
		return nil
	}
	return g.Blocks[0]
}

// Tails returns the exit blocks of the graph
func (g *BlockGraph) Tails() []*BasicBlock {
	var tails []*BasicBlock
	for _, b := range g.Blocks {
		if b.IsExit() {
			tails = append(tails, b)
		}
	}
	return tails
}

// BlockOf returns the block enclosing s, or nil if s is not a statement of the method
func (g *BlockGraph) BlockOf(s Statement) *BasicBlock {
	if !g.Method.Owns(s) {
		return nil
	}
	return g.blockOf[s.Index()]
}

// DiGraph returns the graph of block IDs, for use with graph algorithms
func (g *BlockGraph) DiGraph() *graphutil.DiGraph {
	return g.di
}

// SCCs returns the strongly connected components of the graph, in reverse topological order
func (g *BlockGraph) SCCs() [][]*BasicBlock {
	if g.sccs != nil {
		return g.sccs
	}
	ids := make([]int, len(g.Blocks))
	for i := range ids {
		ids[i] = i
	}
	comps := graphutil.StronglyConnectedComponents(ids, g.di.Succs)
	g.scc = make([]int, len(g.Blocks))
	g.sccs = make([][]*BasicBlock, len(comps))
	for i, comp := range comps {
		for _, id := range comp {
			g.scc[id] = i
			g.sccs[i] = append(g.sccs[i], g.Blocks[id])
		}
	}
	return g.sccs
}

// SCCOf returns the strongly connected component containing b
func (g *BlockGraph) SCCOf(b *BasicBlock) []*BasicBlock {
	sccs := g.SCCs()
	return sccs[g.scc[b.ID]]
}

// InNonTrivialSCC returns true if b is part of a cycle (including a self loop)
func (g *BlockGraph) InNonTrivialSCC(b *BasicBlock) bool {
	comp := g.SCCOf(b)
	if len(comp) > 1 {
		return true
	}
	return g.di.HasEdge(b.ID, b.ID)
}

// StmtSuccs returns the statements that may execute right after s
func (g *BlockGraph) StmtSuccs(s Statement) []Statement {
	if !g.Method.Owns(s) {
		return nil
	}
	b := g.blockOf[s.Index()]
	if s != b.Trailer() {
		return []Statement{g.Method.Statements[s.Index()+1]}
	}
	res := make([]Statement, 0, len(b.Succs))
	for _, succ := range b.Succs {
		res = append(res, succ.Leader())
	}
	return res
}

// ReachableFrom returns the blocks reachable from b through at least one edge
func (g *BlockGraph) ReachableFrom(b *BasicBlock) []*BasicBlock {
	reach := graphutil.Reachable(g.di, g.di.Succs(b.ID)...)
	var res []*BasicBlock
	for _, blk := range g.Blocks {
		if reach[blk.ID] {
			res = append(res, blk)
		}
	}
	return res
}

// Reaches returns true if there is a path of at least one edge from a to b
func (g *BlockGraph) Reaches(a, b *BasicBlock) bool {
	return graphutil.Reachable(g.di, g.di.Succs(a.ID)...)[b.ID]
}
