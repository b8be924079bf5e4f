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
	"errors"
	"fmt"

	"github.com/awslabs/ar-go-pdg/analysis/config"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/internal/workbag"
)

// Direction is the direction of a dependence analysis
type Direction int

const (
	// Forward analyses relate statements to the statements they influence later in the execution
	Forward Direction = iota
	// Backward analyses relate statements to the statements they depend on earlier in the execution
	Backward
	// BiDirectional analyses have no preferred direction
	BiDirectional
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "bidirectional"
	}
}

// ID is a dependence kind tag
type ID string

const (
	// ControlDA tags control dependences
	ControlDA ID = "control"
	// DivergenceDA tags divergence dependences
	DivergenceDA ID = "divergence"
	// ReadyDA tags ready dependences
	ReadyDA ID = "ready"
	// InterferenceDA tags interference dependences
	InterferenceDA ID = "interference"
	// SynchronizationDA tags synchronization dependences
	SynchronizationDA ID = "synchronization"
	// IdentifierBasedDataDA tags data dependences through locals
	IdentifierBasedDataDA ID = "data"
)

// AllIDs lists the dependence kinds, in the order they are reported
var AllIDs = []ID{ControlDA, DivergenceDA, ReadyDA, InterferenceDA, SynchronizationDA, IdentifierBasedDataDA}

// ParseID returns the dependence kind named s
func ParseID(s string) (ID, bool) {
	for _, id := range AllIDs {
		if string(id) == s {
			return id, true
		}
	}
	return "", false
}

// Analysis is a dependence analysis relating entities of type E, in contexts of type C, to results of type T.
//
// Dependees and Dependents are total: they return an empty, non-nil slice when there is no dependence, including
// when the entity does not belong to the context.
type Analysis[E any, C any, T any] interface {
	// Dependees returns the results e depends on in ctx
	Dependees(e E, ctx C) []T
	// Dependents returns the results that depend on e in ctx
	Dependents(e E, ctx C) []T
	// Direction returns the direction of the analysis, fixed for each instance
	Direction() Direction
	// IDs returns the dependence kinds the analysis computes
	IDs() []ID
	// Indirect returns the transitive closure of the analysis
	Indirect() Analysis[E, C, T]
	// IsStable returns true once Analyze has completed
	IsStable() bool
	// Reset clears the results of the analysis. The collaborators are kept.
	Reset()
	// Setup validates and records the collaborators of the analysis
	Setup(info *Info) error
	// Analyze computes the dependences
	Analyze(ctx *Context) error
}

// StmtAnalysis is an analysis relating statements in their methods
type StmtAnalysis = Analysis[ir.Statement, *ir.Method, ir.Statement]

// Info holds the collaborators of the analyses. Each analysis uses a subset of them; optional collaborators may
// be nil.
type Info struct {
	Program   *ir.Program
	CallGraph ir.CallGraph
	Threads   ir.ThreadGraph
	Monitors  ir.MonitorInfo

	// optional collaborators

	SafeLocks ir.SafeLockInfo
	PointsTo  ir.PointsTo
	Escape    ir.EscapeInfo
	Symbolic  ir.SymbolicInfo

	// Control is the entry control dependence analysis, used by the exit control dependence analysis
	Control StmtAnalysis
}

// Context contains the configuration and the logger of one run of the analyses
type Context struct {
	Config *config.Config
	Logger *config.LogGroup
}

// NewContext returns a context for the configuration, with a logger configured by it. A nil configuration
// stands for the default configuration.
func NewContext(cfg *config.Config) *Context {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	return &Context{Config: cfg, Logger: config.NewLogGroup(cfg)}
}

// InitializationError is returned by Setup when a collaborator required by an analysis is missing
type InitializationError struct {
	// Analysis is the name of the analysis that failed to initialize
	Analysis string
	// Missing is the name of the missing collaborator
	Missing string
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("%s analysis: missing %s", e.Analysis, e.Missing)
}

// ErrNoProgress is returned by Run when no analysis can make progress
var ErrNoProgress = errors.New("dependence analyses make no progress")

// Require returns an *InitializationError for analysis if one of the collaborators is missing. Collaborators are
// given as (name, present) pairs.
func Require(analysis string, collaborators ...Collaborator) error {
	for _, c := range collaborators {
		if !c.Present {
			return &InitializationError{Analysis: analysis, Missing: c.Name}
		}
	}
	return nil
}

// Collaborator is a named collaborator, used in Require
type Collaborator struct {
	Name    string
	Present bool
}

// Needs returns a collaborator description
func Needs(name string, present bool) Collaborator {
	return Collaborator{Name: name, Present: present}
}

// UpstreamStable returns true if all the collaborators that can be unstable are stable. Nil collaborators are
// ignored.
func UpstreamStable(collaborators ...ir.Stable) bool {
	for _, c := range collaborators {
		if c != nil && !c.IsStable() {
			return false
		}
	}
	return true
}

// BagOrder returns the work bag order selected by the configuration of the context
func (c *Context) BagOrder() workbag.Order {
	if c.Config == nil {
		return workbag.FIFO
	}
	order, _ := workbag.ParseOrder(c.Config.Dependence.WorkBag)
	return order
}
