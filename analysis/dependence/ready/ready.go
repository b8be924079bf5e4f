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

// Package ready implements ready dependence: the dependences that order the execution of threads through
// monitor acquisitions and wait/notify calls.
//
// Four rules can be enabled independently:
//   - rule 1: the statements reachable from an enter-monitor statement, up to the next enter-monitor or wait call,
//     depend on it, unless the lock is proven safe;
//   - rule 2: an enter-monitor depends on the exit-monitor statements of other threads that may release the same
//     lock;
//   - rule 3: the statements reachable from a wait call, up to the next enter-monitor or wait call, depend on it;
//   - rule 4: a wait call depends on the notify calls of other threads on the same object.
//
// Whether two locks or receivers may be the same object is decided by a precision.Strategy.
package ready

import (
	"github.com/awslabs/ar-go-pdg/analysis/config"
	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/dependence/precision"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/analysis/monitor"
	"github.com/awslabs/ar-go-pdg/internal/workbag"
)

// Options selects the rules and the precision of the analysis
type Options struct {
	// Rules is a bitmask of config.ReadyRule1 ... config.ReadyRule4
	Rules int
	// Precision is the name of the precision strategy, see config.Precisions
	Precision string
	// UseSafeLocks makes rules 1 and 2 ignore the locks the safe-lock collaborator proves uncontended
	UseSafeLocks bool
}

// OptionsFrom returns the options set in the dependence section of cfg
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Rules:        cfg.Dependence.ReadyRules,
		Precision:    cfg.Dependence.ReadyPrecision,
		UseSafeLocks: cfg.Dependence.UseSafeLocks,
	}
}

// Analysis is the ready dependence analysis
type Analysis struct {
	dependence.Base
	opts Options

	callGraph ir.CallGraph
	threads   ir.ThreadGraph
	monitors  ir.MonitorInfo
	safeLocks ir.SafeLockInfo
	strategy  precision.Strategy
}

// New returns a ready dependence analysis
func New(opts Options) *Analysis {
	return &Analysis{
		Base: dependence.NewBase("ready", dependence.Backward, dependence.NewSparseRelation(), dependence.ReadyDA),
		opts: opts,
	}
}

// Setup records the collaborators. The call graph, the thread graph and the monitor information are required, as
// well as the oracles of the precision strategy and the safe-lock information when it is used.
func (a *Analysis) Setup(info *dependence.Info) error {
	if info == nil {
		return &dependence.InitializationError{Analysis: a.Name, Missing: "program"}
	}
	if err := dependence.Require(a.Name,
		dependence.Needs("call graph", info.CallGraph != nil),
		dependence.Needs("thread graph", info.Threads != nil),
		dependence.Needs("monitor info", info.Monitors != nil),
		dependence.Needs("safe-lock info", !a.opts.UseSafeLocks || info.SafeLocks != nil)); err != nil {
		return err
	}
	strategy, err := precision.New(a.Name, a.opts.Precision, info)
	if err != nil {
		return err
	}
	a.callGraph = info.CallGraph
	a.threads = info.Threads
	a.monitors = info.Monitors
	a.strategy = strategy
	a.safeLocks = nil
	if a.opts.UseSafeLocks {
		a.safeLocks = info.SafeLocks
	}
	return nil
}

// Strategy returns the precision strategy in use
func (a *Analysis) Strategy() precision.Strategy {
	return a.strategy
}

// Analyze computes the ready dependences of the reachable methods
func (a *Analysis) Analyze(ctx *dependence.Context) error {
	if a.callGraph == nil {
		return &dependence.InitializationError{Analysis: a.Name, Missing: "call graph"}
	}
	var safeLocks ir.Stable
	if a.safeLocks != nil {
		safeLocks = a.safeLocks
	}
	if !dependence.UpstreamStable(a.monitors, a.callGraph, a.threads, safeLocks) {
		ctx.Logger.Debugf("%s: collaborators are not stable, deferring\n", a.Name)
		return nil
	}
	a.Rel.Clear()

	reachable := map[*ir.Method]bool{}
	var waits, notifies []*ir.Invoke
	for _, m := range a.callGraph.ReachableMethods() {
		reachable[m] = true
		for _, s := range m.Invokes() {
			if ir.IsWait(s) {
				waits = append(waits, s)
			} else if s.IsNotify() {
				notifies = append(notifies, s)
			}
		}
	}
	var triples []ir.MonitorTriple
	for _, t := range a.monitors.Monitors() {
		if reachable[t.Method] && t.Method.IsConcrete() {
			triples = append(triples, t)
		}
	}

	if a.enabled(config.ReadyRule1) {
		done := map[ir.Statement]bool{}
		for _, t := range triples {
			entry := monitor.EntryOf(t)
			if done[entry] || a.isSafe(t) {
				continue
			}
			done[entry] = true
			a.addUntilBarrier(ctx, entry)
		}
	}
	if a.enabled(config.ReadyRule2) {
		a.pairMonitors(triples)
	}
	if a.enabled(config.ReadyRule3) {
		for _, w := range waits {
			a.addUntilBarrier(ctx, w)
		}
	}
	if a.enabled(config.ReadyRule4) {
		for _, w := range waits {
			for _, n := range notifies {
				if a.threads.MustOccurInSameThread(w.Parent(), n.Parent()) {
					continue
				}
				if a.accept(w, receiverOf(w), n, receiverOf(n)) {
					a.Rel.Add(w, n)
				}
			}
		}
	}
	ctx.Logger.Debugf("%s: %d monitors, %d wait sites, %d notify sites, %d dependences\n",
		a.Name, len(triples), len(waits), len(notifies), a.Rel.Size())
	a.SetStable(true)
	return nil
}

func (a *Analysis) enabled(rule int) bool {
	return a.opts.Rules&rule != 0
}

func (a *Analysis) isSafe(t ir.MonitorTriple) bool {
	return a.safeLocks != nil && a.safeLocks.IsSafe(t)
}

// addUntilBarrier records that the statements reachable from start depend on start. The walk does not go past
// enter-monitor statements and wait calls, which are recorded.
func (a *Analysis) addUntilBarrier(ctx *dependence.Context, start ir.Statement) {
	g := start.Parent().BlockGraph()
	if g == nil {
		return
	}
	bag := workbag.NewHistoryAware[ir.Statement](ctx.BagOrder())
	bag.AddAll(g.StmtSuccs(start))
	for !bag.IsEmpty() {
		s := bag.Next()
		a.Rel.Add(s, start)
		if isBarrier(s) {
			continue
		}
		bag.AddAll(g.StmtSuccs(s))
	}
}

func isBarrier(s ir.Statement) bool {
	_, enter := s.(*ir.EnterMonitor)
	return enter || ir.IsWait(s)
}

// pairMonitors makes the acquisition of each monitor depend on the releases, in other threads, of the monitors
// that may have the same lock
func (a *Analysis) pairMonitors(triples []ir.MonitorTriple) {
	for _, acq := range triples {
		if a.isSafe(acq) {
			continue
		}
		entry := monitor.EntryOf(acq)
		for _, rel := range triples {
			if a.isSafe(rel) || a.threads.MustOccurInSameThread(acq.Method, rel.Method) {
				continue
			}
			for _, release := range monitor.ReleasesOf(rel) {
				if a.accept(entry, monitor.LockOf(acq), release, monitor.LockOf(rel)) {
					a.Rel.Add(entry, release)
				}
			}
		}
	}
}

// accept returns true if the strategy accepts that the objects denoted by x at s and y at t may be the same. A
// missing expression may denote any object.
func (a *Analysis) accept(s ir.Statement, x ir.Expr, t ir.Statement, y ir.Expr) bool {
	if x == nil || y == nil {
		return true
	}
	return a.strategy.Accept(precision.Access{Stmt: s, Expr: x}, precision.Access{Stmt: t, Expr: y})
}

func receiverOf(i *ir.Invoke) ir.Expr {
	if i.Receiver == nil {
		return nil
	}
	return i.Receiver
}

// Indirect returns the transitive closure of the analysis
func (a *Analysis) Indirect() dependence.StmtAnalysis {
	return dependence.NewIndirect[ir.Statement, *ir.Method, ir.Statement](a, dependence.StmtRetriever)
}
