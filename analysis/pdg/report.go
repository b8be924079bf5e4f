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

package pdg

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/awslabs/ar-go-pdg/analysis/config"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"github.com/awslabs/ar-go-pdg/analysis/sdg"
)

var reportHeader = []string{"kind", "dependent-method", "dependent", "dependent-pos", "dependee-method", "dependee",
	"dependee-pos"}

// WriteEdges writes the edges of g as csv records, one per edge, with the positions of the statements in program
func WriteEdges(w io.Writer, program *ir.Program, g *sdg.Graph) error {
	out := csv.NewWriter(w)
	if err := out.Write(reportHeader); err != nil {
		return err
	}
	for _, e := range g.Edges() {
		record := []string{
			string(e.Kind),
			e.Dependent.Parent().String(),
			strconv.Itoa(e.Dependent.Index()),
			program.Position(e.Dependent).String(),
			e.Dependee.Parent().String(),
			strconv.Itoa(e.Dependee.Index()),
			program.Position(e.Dependee).String(),
		}
		if err := out.Write(record); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}

// Report writes the edges of g in a new file of the reports directory of cfg, and returns the path of the file.
// It does nothing when no reports directory is set.
func Report(logger *config.LogGroup, cfg *config.Config, program *ir.Program, g *sdg.Graph) (string, error) {
	if cfg.ReportsDir == "" {
		return "", nil
	}
	f, err := os.CreateTemp(cfg.ReportsDir, "dependences-*.csv")
	if err != nil {
		return "", fmt.Errorf("could not create dependence report file: %w", err)
	}
	defer f.Close()
	if err := WriteEdges(f, program, g); err != nil {
		return "", fmt.Errorf("could not write dependence report: %w", err)
	}
	path, err := filepath.Abs(f.Name())
	if err != nil {
		path = f.Name()
	}
	logger.Infof("Saving report of dependences in %s\n", path)
	return path, nil
}
