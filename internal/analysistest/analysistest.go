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

package analysistest

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-pdg/analysis/config"
	"github.com/awslabs/ar-go-pdg/analysis/ssair"
	"github.com/awslabs/ar-go-pdg/internal/funcutil"
	"golang.org/x/tools/go/ssa"
)

// LoadTest loads the program in the directory dir, looking for a main.go and a config.yaml. If additional files
// are specified as extraFiles, the program will be loaded using those files too.
func LoadTest(t *testing.T, dir string, extraFiles []string) (ssair.LoadedProgram, *config.Config) {
	var err error
	// Load config; in command, should be set using some flag
	configFile := filepath.Join(dir, "config.yaml")
	config.SetGlobalConfig(configFile)
	files := []string{filepath.Join(dir, "./main.go")}
	for _, extraFile := range extraFiles {
		files = append(files, filepath.Join(dir, extraFile))
	}

	lp, err := ssair.LoadProgram(nil, "", ssa.BuilderMode(0), files)
	if err != nil {
		t.Fatalf("error loading packages: %s", err)
	}
	cfg, err := config.LoadGlobal()
	if err != nil {
		t.Fatalf("error loading global config.")
	}
	return lp, cfg
}

// DependeeRegex matches annotations of the form "@Dependee(id1, id2, id3)"
var DependeeRegex = regexp.MustCompile(`//.*@Dependee\(((?:\s*\w+\s*,?)+)\)`)

// DependentRegex matches annotations of the form "@Dependent(id1, id2, id3)"
var DependentRegex = regexp.MustCompile(`//.*@Dependent\(((?:\s*\w+\s*,?)+)\)`)

type LPos struct {
	Filename string
	Line     int
}

func (p LPos) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// GetExpectedDependences analyzes the files in dir and looks for comments @Dependee(id) and @Dependent(id) to
// construct the expected dependences, in the form of a map from the position of each dependent to the positions
// of the dependees it depends on.
func GetExpectedDependences(reldir string, dir string) map[LPos]map[LPos]bool {
	d := make(map[string]*ast.Package)
	fset := token.NewFileSet() // positions are relative to fset

	err := filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			d0, err := parser.ParseDir(fset, path, nil, parser.ParseComments)
			funcutil.Merge(d, d0, func(x *ast.Package, _ *ast.Package) *ast.Package { return x })
			return err
		}
		return nil
	})
	if err != nil {
		fmt.Println(err)
		return nil
	}

	dependees := map[string][]token.Position{}
	type annotation struct {
		pos token.Position
		ids []string
	}
	var dependents []annotation
	for _, pkg := range d {
		for _, f := range pkg.Files {
			for _, c := range f.Comments {
				for _, c1 := range c.List {
					pos := fset.Position(c1.Pos())
					if a := DependeeRegex.FindStringSubmatch(c1.Text); len(a) > 1 {
						for _, id := range splitIds(a[1]) {
							dependees[id] = append(dependees[id], pos)
						}
					}
					if a := DependentRegex.FindStringSubmatch(c1.Text); len(a) > 1 {
						dependents = append(dependents, annotation{pos: pos, ids: splitIds(a[1])})
					}
				}
			}
		}
	}

	expected := map[LPos]map[LPos]bool{}
	for _, dep := range dependents {
		for _, id := range dep.ids {
			for _, deePos := range dependees[id] {
				rel := relPos(dep.pos, reldir)
				if _, ok := expected[rel]; !ok {
					expected[rel] = map[LPos]bool{}
				}
				expected[rel][relPos(deePos, reldir)] = true
			}
		}
	}
	return expected
}

func splitIds(s string) []string {
	var ids []string
	for _, ident := range strings.Split(s, ",") {
		if id := strings.TrimSpace(ident); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// RemoveColumn drops the column of pos
func RemoveColumn(pos token.Position) LPos {
	return LPos{Line: pos.Line, Filename: pos.Filename}
}

// relPos drops the column of the position and prepends reldir to the filename of the position
func relPos(pos token.Position, reldir string) LPos {
	return LPos{Line: pos.Line, Filename: path.Join(reldir, pos.Filename)}
}
