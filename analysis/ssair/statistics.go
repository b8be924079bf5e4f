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

package ssair

import (
	"fmt"

	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"golang.org/x/tools/go/ssa"
)

// Statistics counts the elements of a translated program
type Statistics struct {
	NumberOfFunctions    uint
	NumberOfBlocks       uint
	NumberOfInstructions uint
	NumberOfStatements   uint
	NumberOfMonitors     uint
	NumberOfWaits        uint
	NumberOfNotifies     uint
	NumberOfThreadStarts uint
	NumberOfDefers       uint
	// NumberOfAbstractCallees counts the methods called by the program that are not translated
	NumberOfAbstractCallees uint
}

func (s Statistics) String() string {
	return fmt.Sprintf("%d functions, %d blocks, %d instructions -> %d statements\n"+
		"%d monitor statements, %d waits, %d notifies, %d thread starts, %d defers, %d abstract callees",
		s.NumberOfFunctions, s.NumberOfBlocks, s.NumberOfInstructions, s.NumberOfStatements,
		s.NumberOfMonitors, s.NumberOfWaits, s.NumberOfNotifies, s.NumberOfThreadStarts, s.NumberOfDefers,
		s.NumberOfAbstractCallees)
}

// ProgramStatistics returns the statistics of the translation r
func ProgramStatistics(r *Result) Statistics {
	var stats Statistics
	abstract := map[*ir.Method]bool{}
	for _, m := range r.Program.Methods {
		if f := r.Functions[m]; f != nil {
			stats.NumberOfFunctions++
			for _, b := range f.Blocks {
				stats.NumberOfBlocks++
				stats.NumberOfInstructions += uint(len(b.Instrs))
				for _, instr := range b.Instrs {
					if _, ok := instr.(*ssa.Defer); ok {
						stats.NumberOfDefers++
					}
				}
			}
		}
		for _, s := range m.Statements {
			stats.NumberOfStatements++
			if ir.IsMonitor(s) {
				stats.NumberOfMonitors++
			}
			call, ok := s.(*ir.Invoke)
			if !ok {
				continue
			}
			switch {
			case call.Kind == ir.WaitCall:
				stats.NumberOfWaits++
			case call.IsNotify():
				stats.NumberOfNotifies++
			case call.Kind == ir.StartCall:
				stats.NumberOfThreadStarts++
			}
			for _, callee := range call.Callees {
				if !callee.IsConcrete() {
					abstract[callee] = true
				}
			}
		}
	}
	stats.NumberOfAbstractCallees = uint(len(abstract))
	return stats
}
