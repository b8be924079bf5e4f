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

// Package formatutil colors the output of the command line tools.
package formatutil

import (
	"fmt"

	"golang.org/x/term"
)

var (
	Bold    = Color("\033[1m%s\033[0m")
	Faint   = Color("\033[2m%s\033[0m")
	Red     = Color("\033[1;31m%s\033[0m")
	Green   = Color("\033[1;32m%s\033[0m")
	Yellow  = Color("\033[1;33m%s\033[0m")
	Purple  = Color("\033[1;34m%s\033[0m")
	Magenta = Color("\033[1;35m%s\033[0m")
	Cyan    = Color("\033[1;36m%s\033[0m")
)

// isTerminal reports whether the standard output is a terminal. Tests replace it.
var isTerminal = func() bool { return term.IsTerminal(1) }

// Color returns a function printing its arguments with the escape sequence colorString when the standard output
// is a terminal, and printing them as is otherwise
func Color(colorString string) func(...any) string {
	return func(args ...any) string {
		if isTerminal() {
			return fmt.Sprintf(colorString, fmt.Sprint(args...))
		}
		return fmt.Sprint(args...)
	}
}

var kindColors = map[string]func(...any) string{
	"control":         Purple,
	"divergence":      Magenta,
	"ready":           Yellow,
	"interference":    Red,
	"synchronization": Cyan,
	"data":            Green,
}

// Kind prints the name of a dependence kind in the color of the kind. Kinds without a color are printed faint.
func Kind(kind string) string {
	if c, ok := kindColors[kind]; ok {
		return c(kind)
	}
	return Faint(kind)
}

// Sanitize removes the escape sequences of s
func Sanitize(s string) string {
	r := fmt.Sprintf("%q", s)
	if len(r) >= 2 {
		return r[1 : len(r)-1]
	}
	return r
}
