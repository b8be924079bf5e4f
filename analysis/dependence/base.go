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
)

// Base implements the parts of StmtAnalysis common to all analyses: the stability flag, the relation storage and
// the queries. Analyses embed it and implement Setup, Analyze and Indirect.
type Base struct {
	// Name is used in errors and logs
	Name      string
	direction Direction
	ids       []ID
	stable    bool

	// Rel holds the results of the analysis
	Rel *Relation
}

// NewBase returns a base for an analysis with the given name, direction and storage
func NewBase(name string, direction Direction, rel *Relation, ids ...ID) Base {
	return Base{Name: name, direction: direction, ids: ids, Rel: rel}
}

// Direction returns the direction of the analysis
func (b *Base) Direction() Direction { return b.direction }

// IDs returns the dependence kinds computed by the analysis
func (b *Base) IDs() []ID { return b.ids }

// IsStable returns true once the analysis has completed
func (b *Base) IsStable() bool { return b.stable }

// SetStable sets the stability flag
func (b *Base) SetStable(stable bool) { b.stable = stable }

// Reset clears the results
func (b *Base) Reset() {
	b.stable = false
	b.Rel.Clear()
}

// Dependees returns the statements s depends on. The result is empty when s is not a statement of m.
func (b *Base) Dependees(s ir.Statement, m *ir.Method) []ir.Statement {
	if !matches(s, m) {
		return []ir.Statement{}
	}
	return b.Rel.Dependees(s)
}

// Dependents returns the statements that depend on s. The result is empty when s is not a statement of m.
func (b *Base) Dependents(s ir.Statement, m *ir.Method) []ir.Statement {
	if !matches(s, m) {
		return []ir.Statement{}
	}
	return b.Rel.Dependents(s)
}

func matches(s ir.Statement, m *ir.Method) bool {
	return s != nil && m != nil && m.Owns(s)
}

// StmtRetriever turns a statement result back into a (statement, method) query
func StmtRetriever(s ir.Statement) (ir.Statement, *ir.Method) {
	return s, s.Parent()
}
