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

// Pdg computes the dependences between the statements of a Go program: control, divergence, ready,
// interference, synchronization and data dependences. It prints the dependences of each method and, for every
// //pdg:criterion comment of the program, the statements the commented line depends on.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/awslabs/ar-go-pdg/analysis/config"
	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/analysis/pdg"
	"github.com/awslabs/ar-go-pdg/analysis/sdg"
	"github.com/awslabs/ar-go-pdg/analysis/ssair"
	"github.com/awslabs/ar-go-pdg/internal/formatutil"
	"golang.org/x/tools/go/ssa"
)

var (
	configPath = flag.String("config", "", "Config file path for the dependence analyses")
	kindsFlag  = flag.String("kinds", "", "Comma-separated dependence kinds to compute (default: all)")
	quiet      = flag.Bool("quiet", false, "Only print the slices of the criteria")
	stats      = flag.Bool("stats", false, "Print statistics about the translated program")
	buildmode  = ssa.BuilderMode(0)
)

func init() {
	flag.Var(&buildmode, "build", ssa.BuilderModeDoc)
}

const usage = ` Compute the program dependences of your packages.
Usage:
    pdg [options] <package path(s)>
Examples:
% pdg -config config.yaml package...
% pdg -kinds ready,interference ./cmd/server
`

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		_, _ = fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
		os.Exit(2)
	}

	kinds, err := parseKinds(*kindsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	cfg := config.NewDefault()
	if *configPath != "" {
		config.SetGlobalConfig(*configPath)
		cfg, err = config.LoadGlobal()
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not load config %s: %v\n", *configPath, err)
			os.Exit(1)
		}
	}
	ctx := dependence.NewContext(cfg)
	logger := ctx.Logger

	opts, err := ssair.OptionsFrom(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid frontend options: %v\n", err)
		os.Exit(1)
	}

	logger.Infof("%s\n", formatutil.Faint("Reading sources"))
	lp, err := ssair.LoadProgram(nil, "", buildmode, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load program: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	tr, err := ssair.Translate(logger, lp, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not translate program: %v\n", err)
		os.Exit(1)
	}
	if *stats {
		fmt.Println(ssair.ProgramStatistics(tr))
	}
	res, err := pdg.Run(ctx, tr.Program, tr.Oracle(), kinds...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}
	logger.Infof("Analysis took %3.4f s\n", time.Since(start).Seconds())

	if !*quiet {
		printMethods(tr.Program, res.Graph)
	}
	for _, pos := range lp.Directives.Criteria() {
		printSlice(tr, res.Graph, pos)
	}
	if _, err := pdg.Report(logger, cfg, tr.Program, res.Graph); err != nil {
		logger.Errorf("%v\n", err)
	}
}

// parseKinds parses a comma-separated list of dependence kinds
func parseKinds(s string) ([]dependence.ID, error) {
	var kinds []dependence.ID
	if s == "" {
		return kinds, nil
	}
	for _, name := range strings.Split(s, ",") {
		id, ok := dependence.ParseID(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown dependence kind %q", name)
		}
		kinds = append(kinds, id)
	}
	return kinds, nil
}

func printMethods(program *ir.Program, g *sdg.Graph) {
	for _, m := range program.Methods {
		var lines []string
		for _, s := range m.Statements {
			for _, e := range dependencesOf(g, s) {
				lines = append(lines, fmt.Sprintf("  %-15s %s  <-  %s", formatutil.Kind(string(e.Kind)),
					describe(program, m, e.Dependent), describe(program, m, e.Dependee)))
			}
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Printf("%s\n%s\n", formatutil.Bold(m.String()), strings.Join(lines, "\n"))
	}
}

// dependencesOf returns the edges whose dependent is s
func dependencesOf(g *sdg.Graph, s ir.Statement) []sdg.Edge {
	var res []sdg.Edge
	for _, id := range append(append([]dependence.ID{}, dependence.AllIDs...), sdg.CallDA, sdg.ParamInDA,
		sdg.ParamOutDA) {
		for _, d := range g.Dependees(s, id) {
			res = append(res, sdg.Edge{Dependent: s, Dependee: d, Kind: id})
		}
	}
	return res
}

// describe prints s with its position, and its method when it is not in m
func describe(program *ir.Program, m *ir.Method, s ir.Statement) string {
	str := fmt.Sprintf("%d: %s", s.Index(), formatutil.Sanitize(s.String()))
	if s.Parent() != m {
		str = s.Parent().String() + " " + str
	}
	if pos := program.Position(s); pos.IsValid() {
		str += " " + formatutil.Faint("["+pos.String()+"]")
	}
	return str
}

func printSlice(tr *ssair.Result, g *sdg.Graph, pos ssair.DirectivePos) {
	criterion := tr.StatementsAt(pos)
	if len(criterion) == 0 {
		fmt.Printf("%s %s\n", formatutil.Yellow("No statement at criterion"), pos)
		return
	}
	slice := g.Reach(criterion)
	fmt.Printf("%s %s (%d statements)\n", formatutil.Green("Slice of"), pos, len(slice))
	for _, s := range slice {
		fmt.Printf("  %s\n", describe(tr.Program, nil, s))
	}
}
