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

import (
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config contains the options of the dependence analyses.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:",inline"`

	sourceFile string

	// Dependence contains the options controlling the dependence analyses
	Dependence DependenceOptions `yaml:"dependence"`

	// Frontend contains the options of the translation of Go programs
	Frontend FrontendOptions `yaml:"frontend"`

	// EntryPoints lists the names of the methods the call graph is rooted at. When empty, the frontend decides
	// (for Go programs, the main and init functions of the main packages).
	EntryPoints []string `yaml:"entry-points"`
}

// Options are the general options, shared by all the tools
type Options struct {
	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`

	// ReportsDir is the directory where the dependence reports will be written. Reports are written only when the
	// directory is set.
	ReportsDir string `yaml:"reports-dir"`
}

// FrontendOptions are the options of the translation of Go programs to the statement-level representation
type FrontendOptions struct {
	// CallGraph is the algorithm resolving the callees of call sites: one of "cha", "static", "rta", "vta" or
	// "pointer"
	CallGraph string `yaml:"call-graph"`

	// PointsTo runs the pointer analysis to provide the points-to oracle of the precision strategies
	PointsTo bool `yaml:"points-to"`

	// Packages restricts the functions translated with their body to the packages whose path has one of these
	// prefixes. When empty, the packages loaded are translated.
	Packages []string `yaml:"packages"`
}

// DependenceOptions are the options of the dependence analyses
type DependenceOptions struct {
	// TerminationSensitive selects the termination-sensitive variant of control dependence. When false, control
	// dependences that only exist because a loop may not terminate are not reported.
	TerminationSensitive bool `yaml:"termination-sensitive"`

	// InterproceduralDivergence makes call sites of methods that may diverge divergence points themselves
	InterproceduralDivergence bool `yaml:"interprocedural-divergence"`

	// ReadyRules is the bitmask of ready dependence rules that are enabled (see ReadyRule1 ... ReadyRule4).
	ReadyRules int `yaml:"ready-rules"`

	// ReadyPrecision is the precision strategy of the ready dependence analysis: one of "type", "points-to",
	// "escape" or "symbolic". Each level includes the checks of the levels before it.
	ReadyPrecision string `yaml:"ready-precision"`

	// InterferencePrecision is the precision strategy of the interference dependence analysis (same values as
	// ReadyPrecision).
	InterferencePrecision string `yaml:"interference-precision"`

	// UseSafeLocks enables the safe-lock analysis: ready dependence rule 1 ignores the locks that are proven to be
	// uncontended.
	UseSafeLocks bool `yaml:"use-safe-locks"`

	// WorkBag is the order of the work bags used by the fixpoint computations: "fifo" or "lifo". The order does not
	// change the results.
	WorkBag string `yaml:"work-bag"`

	// MaxRounds bounds the number of rounds of the pipeline driver. If MaxRounds <= 0, DefaultMaxRounds is used.
	MaxRounds int `yaml:"max-rounds"`
}

// NewDefault returns a default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:  "",
		EntryPoints: nil,
		Options: Options{
			LogLevel:    int(InfoLevel),
			SilenceWarn: false,
			ReportsDir:  "",
		},
		Dependence: DependenceOptions{
			TerminationSensitive:      true,
			InterproceduralDivergence: false,
			ReadyRules:                AllReadyRules,
			ReadyPrecision:            PrecisionType,
			InterferencePrecision:     PrecisionType,
			UseSafeLocks:              false,
			WorkBag:                   "fifo",
			MaxRounds:                 DefaultMaxRounds,
		},
		Frontend: FrontendOptions{
			CallGraph: CallGraphCHA,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return LoadBytes(filename, b)
}

// LoadBytes parses the configuration b, which has been read from filename
func LoadBytes(filename string, b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}

	cfg.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	if cfg.Dependence.MaxRounds <= 0 {
		cfg.Dependence.MaxRounds = DefaultMaxRounds
	}

	if cfg.Dependence.ReadyRules & ^AllReadyRules != 0 {
		return nil, fmt.Errorf("invalid ready-rules %d: only rules 1 to 4 exist", cfg.Dependence.ReadyRules)
	}

	for _, p := range []string{cfg.Dependence.ReadyPrecision, cfg.Dependence.InterferencePrecision} {
		if !IsPrecision(p) {
			return nil, fmt.Errorf("invalid precision %q, expected one of %s", p, strings.Join(Precisions, ", "))
		}
	}

	switch cfg.Dependence.WorkBag {
	case "":
		cfg.Dependence.WorkBag = "fifo"
	case "fifo", "lifo":
	default:
		return nil, fmt.Errorf("invalid work-bag %q, expected fifo or lifo", cfg.Dependence.WorkBag)
	}

	switch cfg.Frontend.CallGraph {
	case "":
		cfg.Frontend.CallGraph = CallGraphCHA
	case CallGraphCHA, CallGraphStatic, CallGraphRTA, CallGraphVTA, CallGraphPointer:
	default:
		return nil, fmt.Errorf("invalid call-graph %q, expected one of cha, static, rta, vta or pointer",
			cfg.Frontend.CallGraph)
	}

	if cfg.ReportsDir != "" {
		if err := os.Mkdir(cfg.ReportsDir, 0750); err != nil && !os.IsExist(err) {
			return nil, fmt.Errorf("could not create directory %s", cfg.ReportsDir)
		}
	}

	return cfg, nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// ReadyRuleEnabled returns true if the ready dependence rule (one of ReadyRule1 ... ReadyRule4) is enabled
func (c Config) ReadyRuleEnabled(rule int) bool {
	return c.Dependence.ReadyRules&rule != 0
}

// IsPrecision returns true if p is the name of a precision strategy. The empty string is accepted and stands for
// PrecisionType.
func IsPrecision(p string) bool {
	if p == "" {
		return true
	}
	for _, x := range Precisions {
		if x == p {
			return true
		}
	}
	return false
}
