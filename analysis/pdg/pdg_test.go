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

package pdg_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-pdg/analysis/config"
	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/analysis/pdg"
	"github.com/awslabs/ar-go-pdg/analysis/ssair"
	"github.com/awslabs/ar-go-pdg/internal/analysistest"
	"golang.org/x/exp/slices"
)

const counterDir = "../testdata/src/pdg/counter"

func runCounter(t *testing.T, kinds ...dependence.ID) (*ssair.Result, *pdg.Result, ssair.LoadedProgram) {
	lp, cfg := analysistest.LoadTest(t, counterDir, nil)
	opts, err := ssair.OptionsFrom(cfg)
	if err != nil {
		t.Fatalf("invalid options: %s", err)
	}
	ctx := dependence.NewContext(cfg)
	tr, err := ssair.Translate(ctx.Logger, lp, opts)
	if err != nil {
		t.Fatalf("translation failed: %s", err)
	}
	res, err := pdg.Run(ctx, tr.Program, tr.Oracle(), kinds...)
	if err != nil {
		t.Fatalf("analyses failed: %s", err)
	}
	return tr, res, lp
}

// lineOf returns the position of s, without the column and with the base name of its file
func lineOf(program *ir.Program, s ir.Statement) analysistest.LPos {
	pos := program.Position(s)
	return analysistest.LPos{Filename: filepath.Base(pos.Filename), Line: pos.Line}
}

func TestAnnotatedDependences(t *testing.T) {
	tr, res, _ := runCounter(t)
	expected := analysistest.GetExpectedDependences("", counterDir)
	if len(expected) == 0 {
		t.Fatalf("no annotations found in %s", counterDir)
	}
	// the dependees of each line, at line granularity
	found := map[analysistest.LPos]map[analysistest.LPos]bool{}
	for _, e := range res.Graph.Edges() {
		from := lineOf(tr.Program, e.Dependent)
		if _, ok := found[from]; !ok {
			found[from] = map[analysistest.LPos]bool{}
		}
		found[from][lineOf(tr.Program, e.Dependee)] = true
	}
	for dependent, dependees := range expected {
		dependent.Filename = filepath.Base(dependent.Filename)
		for dependee := range dependees {
			dependee.Filename = filepath.Base(dependee.Filename)
			if !found[dependent][dependee] {
				t.Errorf("expected %s to depend on %s", dependent, dependee)
			}
		}
	}
}

func TestInterferenceAcrossThreads(t *testing.T) {
	tr, res, _ := runCounter(t, dependence.InterferenceDA)
	get := tr.Program.MethodNamed("main.Counter.Get")
	incr := tr.Program.MethodNamed("main.Counter.Incr")
	if get == nil || incr == nil {
		t.Fatalf("missing methods")
	}
	interfering := false
	for _, s := range get.Statements {
		for _, d := range res.Graph.Dependees(s, dependence.InterferenceDA) {
			interfering = interfering || d.Parent() == incr
		}
	}
	if !interfering {
		t.Errorf("the read of count in Get should interfere with the write in Incr")
	}
	for _, e := range res.Graph.Edges() {
		if e.Kind != dependence.InterferenceDA {
			t.Errorf("unexpected %s edge when only interference is requested", e.Kind)
		}
	}
}

func TestCriterionSlice(t *testing.T) {
	tr, res, lp := runCounter(t)
	criteria := lp.Directives.Criteria()
	if len(criteria) != 1 {
		t.Fatalf("expected one criterion, got %v", criteria)
	}
	slice := res.Graph.Reach(tr.StatementsAt(criteria[0]))
	incr := tr.Program.MethodNamed("main.Counter.Incr")
	if slices.IndexFunc(slice, func(s ir.Statement) bool { return s.Parent() == incr }) < 0 {
		t.Errorf("the slice of the criterion should include the increment of the counter")
	}
	for _, s := range tr.StatementsAt(criteria[0]) {
		if !slices.Contains(slice, s) {
			t.Errorf("the slice should contain the criterion %s", s)
		}
	}
}

func TestAnalysesSelection(t *testing.T) {
	cfg := config.NewDefault()
	all, entry := pdg.Analyses(cfg)
	if entry == nil {
		t.Errorf("control dependence requires the entry analysis")
	}
	// control has two analyses: entry and exit
	if len(all) != len(dependence.AllIDs)+1 {
		t.Errorf("expected one analysis per kind, got %d", len(all))
	}
	some, entry := pdg.Analyses(cfg, dependence.ReadyDA, dependence.DivergenceDA)
	if entry != nil || len(some) != 2 {
		t.Errorf("unexpected analyses %v", some)
	}
}

func TestRunWithoutProgram(t *testing.T) {
	_, err := pdg.Run(dependence.NewContext(nil), nil, nil)
	if err == nil {
		t.Errorf("expected an error")
	}
	var initErr *dependence.InitializationError
	if errors.As(err, &initErr) {
		t.Errorf("a missing program is not an initialization error")
	}
}

func TestReport(t *testing.T) {
	tr, res, _ := runCounter(t, dependence.IdentifierBasedDataDA)
	cfg := config.NewDefault()
	cfg.ReportsDir = t.TempDir()
	path, err := pdg.Report(config.NewLogGroup(cfg), cfg, tr.Program, res.Graph)
	if err != nil {
		t.Fatalf("report failed: %s", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("could not read report: %s", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != res.Graph.Len()+1 {
		t.Errorf("expected a header and %d edges, got %d lines", res.Graph.Len(), len(lines))
	}
	if !strings.HasPrefix(lines[0], "kind,") {
		t.Errorf("unexpected header %q", lines[0])
	}
	kinds := []string{"data", "call", "param-in", "param-out"}
	for _, l := range lines[1:] {
		if kind, _, _ := strings.Cut(l, ","); !slices.Contains(kinds, kind) {
			t.Errorf("unexpected edge %q", l)
		}
	}
	cfg.ReportsDir = ""
	if path, err := pdg.Report(config.NewLogGroup(cfg), cfg, tr.Program, res.Graph); path != "" || err != nil {
		t.Errorf("no report expected without reports directory")
	}
}
