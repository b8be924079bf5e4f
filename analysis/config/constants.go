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

package config

const (
	// DefaultMaxRounds is the default maximum number of rounds of the dependence pipeline driver
	DefaultMaxRounds = 16
)

const (
	// ReadyRule1 enables the intra-method dependence on enter-monitor statements
	ReadyRule1 = 1 << iota
	// ReadyRule2 enables the inter-thread dependence of enter-monitor statements on exit-monitor statements
	ReadyRule2
	// ReadyRule3 enables the intra-method dependence on wait() call sites
	ReadyRule3
	// ReadyRule4 enables the inter-thread dependence of wait() call sites on notify() call sites
	ReadyRule4

	// AllReadyRules enables all ready dependence rules
	AllReadyRules = ReadyRule1 | ReadyRule2 | ReadyRule3 | ReadyRule4
)

const (
	// PrecisionType only checks type compatibility
	PrecisionType = "type"
	// PrecisionPointsTo additionally checks that the points-to sets of the references intersect
	PrecisionPointsTo = "points-to"
	// PrecisionEscape additionally checks that the references escape their thread
	PrecisionEscape = "escape"
	// PrecisionSymbolic additionally checks that the references are symbolically coupled
	PrecisionSymbolic = "symbolic"
)

// Precisions lists the precision strategies, from least to most precise
var Precisions = []string{PrecisionType, PrecisionPointsTo, PrecisionEscape, PrecisionSymbolic}

const (
	// CallGraphCHA resolves calls with the class hierarchy analysis
	CallGraphCHA = "cha"
	// CallGraphStatic only resolves static calls
	CallGraphStatic = "static"
	// CallGraphRTA resolves calls with the rapid type analysis
	CallGraphRTA = "rta"
	// CallGraphVTA resolves calls with the variable type analysis
	CallGraphVTA = "vta"
	// CallGraphPointer resolves calls with the pointer analysis
	CallGraphPointer = "pointer"
)
