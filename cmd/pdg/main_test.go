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

package main

import (
	"testing"

	"github.com/awslabs/ar-go-pdg/analysis/dependence"
	"golang.org/x/exp/slices"
)

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds("ready, interference")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !slices.Equal(kinds, []dependence.ID{dependence.ReadyDA, dependence.InterferenceDA}) {
		t.Errorf("unexpected kinds %v", kinds)
	}
	if kinds, err := parseKinds(""); err != nil || len(kinds) != 0 {
		t.Errorf("an empty list selects all the kinds")
	}
	if _, err := parseKinds("control,races"); err == nil {
		t.Errorf("races is not a dependence kind")
	}
}
