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

// Package precision implements the precision strategies of the ready and interference dependence analyses. A
// strategy decides whether two accesses (two lock acquisitions, a wait and a notify, a write and a read) may
// touch the same object. Strategies are layered: each level first asks the level below it, and can only reject
// more pairs.
package precision

import (
	"fmt"

	"github.com/awslabs/ar-go-pdg/analysis/config"
	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
)

// Access is a statement together with the expression it accesses: a lock, the receiver of a wait or notify call,
// or a field or array reference.
type Access struct {
	Stmt ir.Statement
	Expr ir.Expr
}

func (a Access) String() string {
	return fmt.Sprintf("%s@%d:%s", a.Stmt.Parent(), a.Stmt.Index(), a.Expr)
}

// Strategy decides whether two accesses may touch the same object
type Strategy interface {
	// Name returns the precision level of the strategy
	Name() string
	// Accept returns true if a and b may access the same object
	Accept(a, b Access) bool
}

// TypeBased accepts the accesses whose types are compatible in the class hierarchy
type TypeBased struct{}

// Name returns "type"
func (TypeBased) Name() string { return config.PrecisionType }

// Accept returns true if the types of the accessed expressions are compatible
func (TypeBased) Accept(a, b Access) bool {
	return ir.Compatible(a.Expr.Type(), b.Expr.Type())
}

// PointsToBased refines its parent: the base references of the accesses must share an abstract object
type PointsToBased struct {
	Parent Strategy
	Oracle ir.PointsTo
}

// Name returns "points-to"
func (PointsToBased) Name() string { return config.PrecisionPointsTo }

// Accept returns true if the parent accepts and the base references may alias
func (s PointsToBased) Accept(a, b Access) bool {
	return s.Parent.Accept(a, b) && ir.MayAlias(s.Oracle, ir.Base(a.Expr), ir.Base(b.Expr))
}

// EscapeBased refines its parent: both accesses must be to locations shared between threads
type EscapeBased struct {
	Parent Strategy
	Oracle ir.EscapeInfo
}

// Name returns "escape"
func (EscapeBased) Name() string { return config.PrecisionEscape }

// Accept returns true if the parent accepts and both accessed locations are shared
func (s EscapeBased) Accept(a, b Access) bool {
	return s.Parent.Accept(a, b) && s.Oracle.Shared(a.Expr) && s.Oracle.Shared(b.Expr)
}

// SymbolicBased refines its parent: the symbolic access paths of the accesses must be coupled
type SymbolicBased struct {
	Parent Strategy
	Oracle ir.SymbolicInfo
}

// Name returns "symbolic"
func (SymbolicBased) Name() string { return config.PrecisionSymbolic }

// Accept returns true if the parent accepts and the access paths are coupled
func (s SymbolicBased) Accept(a, b Access) bool {
	return s.Parent.Accept(a, b) && s.Oracle.Coupled(a.Stmt, a.Expr, b.Stmt, b.Expr)
}

// New returns the strategy of the given level, built from the oracles in info. The empty level stands for the type
// level. New returns an *dependence.InitializationError naming analysis when an oracle the level needs is missing.
func New(analysis string, level string, info *dependence.Info) (Strategy, error) {
	var s Strategy = TypeBased{}
	if level == "" || level == config.PrecisionType {
		return s, nil
	}
	if !config.IsPrecision(level) {
		return nil, fmt.Errorf("%s analysis: unknown precision %q", analysis, level)
	}
	for _, l := range config.Precisions[1:] {
		switch l {
		case config.PrecisionPointsTo:
			if info.PointsTo == nil {
				return nil, &dependence.InitializationError{Analysis: analysis, Missing: "points-to oracle"}
			}
			s = PointsToBased{Parent: s, Oracle: info.PointsTo}
		case config.PrecisionEscape:
			if info.Escape == nil {
				return nil, &dependence.InitializationError{Analysis: analysis, Missing: "escape oracle"}
			}
			s = EscapeBased{Parent: s, Oracle: info.Escape}
		case config.PrecisionSymbolic:
			if info.Symbolic == nil {
				return nil, &dependence.InitializationError{Analysis: analysis, Missing: "symbolic oracle"}
			}
			s = SymbolicBased{Parent: s, Oracle: info.Symbolic}
		}
		if l == level {
			break
		}
	}
	return s, nil
}
