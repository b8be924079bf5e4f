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
	"fmt"

	"github.com/awslabs/ar-go-pdg/analysis/config"
)

// Run sets up the analyses with info, then calls Analyze on every unstable analysis, round after round, until
// they are all stable. Run fails with ErrNoProgress when a round does not stabilize any analysis, or when the
// maximum number of rounds of the configuration is reached.
func Run(ctx *Context, info *Info, analyses ...StmtAnalysis) error {
	if ctx.Config == nil {
		ctx.Config = config.NewDefault()
	}
	if ctx.Logger == nil {
		ctx.Logger = config.NewLogGroup(ctx.Config)
	}
	for _, a := range analyses {
		if err := a.Setup(info); err != nil {
			return err
		}
	}
	maxRounds := config.DefaultMaxRounds
	if ctx.Config.Dependence.MaxRounds > 0 {
		maxRounds = ctx.Config.Dependence.MaxRounds
	}
	for round := 1; round <= maxRounds; round++ {
		progress := false
		pending := 0
		for _, a := range analyses {
			if a.IsStable() {
				continue
			}
			if err := a.Analyze(ctx); err != nil {
				return fmt.Errorf("%s analysis failed: %w", nameOf(a), err)
			}
			if a.IsStable() {
				progress = true
				ctx.Logger.Debugf("Round %d: %s analysis is stable\n", round, nameOf(a))
			} else {
				pending++
			}
		}
		if pending == 0 {
			ctx.Logger.Infof("Dependence analyses stable after %d round(s)\n", round)
			return nil
		}
		if !progress {
			return fmt.Errorf("%w: %d analyses unstable after round %d", ErrNoProgress, pending, round)
		}
	}
	return fmt.Errorf("%w: maximum number of rounds (%d) reached", ErrNoProgress, maxRounds)
}

func nameOf(a StmtAnalysis) string {
	ids := a.IDs()
	if len(ids) == 0 {
		return "unnamed"
	}
	return fmt.Sprintf("%s (%s)", ids[0], a.Direction())
}
