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
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

//go:embed testdata
var testfsys embed.FS

func loadFromTestDir(filename string) (string, *Config, error) {
	filename = filepath.Join("testdata", filename)
	b, err := testfsys.ReadFile(filename)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file %v: %v", filename, err)
	}
	config, err := LoadBytes(filename, b)
	if err != nil {
		return filename, nil, fmt.Errorf("failed to load file %v: %v", filename, err)
	}
	return filename, config, err
}

func TestNewDefault(t *testing.T) {
	c := NewDefault()
	if !c.Dependence.TerminationSensitive {
		t.Errorf("control dependence should be termination sensitive by default")
	}
	if c.Dependence.ReadyRules != AllReadyRules {
		t.Errorf("all ready rules should be enabled by default")
	}
	if c.Dependence.MaxRounds != DefaultMaxRounds {
		t.Errorf("default max rounds should be %d", DefaultMaxRounds)
	}
	if c.Verbose() {
		t.Errorf("default config should not be verbose")
	}
}

func TestReadyRuleBits(t *testing.T) {
	if ReadyRule1 != 1 || ReadyRule2 != 2 || ReadyRule3 != 4 || ReadyRule4 != 8 {
		t.Errorf("ready rules should be the bits 1, 2, 4 and 8")
	}
}

func TestLoadFullConfig(t *testing.T) {
	fileName, config, err := loadFromTestDir("config.yaml")
	if config == nil || err != nil {
		t.Fatalf("could not load %s: %v", fileName, err)
	}
	if config.LogLevel != int(DebugLevel) || !config.Verbose() {
		t.Errorf("config should set the debug level")
	}
	if len(config.EntryPoints) != 1 || config.EntryPoints[0] != "main" {
		t.Errorf("config should have main as entry point")
	}
	d := config.Dependence
	if d.TerminationSensitive {
		t.Errorf("config should set termination-sensitive to false")
	}
	if !d.InterproceduralDivergence || !d.UseSafeLocks {
		t.Errorf("config should set interprocedural-divergence and use-safe-locks")
	}
	if !config.ReadyRuleEnabled(ReadyRule1) || config.ReadyRuleEnabled(ReadyRule2) ||
		config.ReadyRuleEnabled(ReadyRule3) || !config.ReadyRuleEnabled(ReadyRule4) {
		t.Errorf("config should enable rules 1 and 4 only")
	}
	if d.ReadyPrecision != PrecisionPointsTo || d.InterferencePrecision != PrecisionSymbolic {
		t.Errorf("unexpected precisions %q and %q", d.ReadyPrecision, d.InterferencePrecision)
	}
	if d.WorkBag != "lifo" || d.MaxRounds != 4 {
		t.Errorf("unexpected work bag %q or max rounds %d", d.WorkBag, d.MaxRounds)
	}
	if f := config.Frontend; f.CallGraph != CallGraphVTA || !f.PointsTo || len(f.Packages) != 1 {
		t.Errorf("unexpected frontend options %+v", f)
	}
	if config.RelPath("x.yaml") != filepath.Join("testdata", "x.yaml") {
		t.Errorf("relative paths should be relative to the config file")
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	_, config, err := loadFromTestDir("empty.yaml")
	if err != nil {
		t.Fatalf("could not load empty config: %v", err)
	}
	if config.LogLevel != int(InfoLevel) {
		t.Errorf("log level should default to info")
	}
	if !config.SilenceWarn {
		t.Errorf("silence-warn should be set")
	}
	if !config.Dependence.TerminationSensitive || config.Dependence.ReadyRules != AllReadyRules {
		t.Errorf("unspecified dependence options should keep their defaults")
	}
	if config.Frontend.CallGraph != CallGraphCHA || config.Frontend.PointsTo {
		t.Errorf("the frontend should default to the class hierarchy analysis without points-to")
	}
}

func TestLoadErrors(t *testing.T) {
	for _, name := range []string{"bad_format.yaml", "bad_precision.yaml", "bad_rules.yaml", "bad_callgraph.yaml"} {
		_, config, err := loadFromTestDir(name)
		if config != nil || err == nil {
			t.Errorf("expected error and nil value when loading %s", name)
		}
	}
	if _, err := Load(filepath.Join("testdata", "does-not-exist.yaml")); err == nil {
		t.Errorf("expected error when loading a non existent file")
	}
}

func TestLogGroupLevels(t *testing.T) {
	c := NewDefault()
	l := NewLogGroup(c)
	var buf bytes.Buffer
	l.SetAllOutput(&buf)
	l.SetAllFlags(0)
	l.Debugf("hidden")
	l.Infof("shown %d", 1)
	l.Warnf("warning")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message should not be printed at info level")
	}
	if !strings.Contains(out, "[INFO] shown 1") || !strings.Contains(out, "[WARN] warning") {
		t.Errorf("unexpected output %q", out)
	}

	c.SilenceWarn = true
	l = NewLogGroup(c)
	buf.Reset()
	l.SetAllOutput(&buf)
	l.Warnf("warning")
	l.Errorf("error")
	if strings.Contains(buf.String(), "warning") || !strings.Contains(buf.String(), "error") {
		t.Errorf("silenced log group should only print errors, got %q", buf.String())
	}
}
