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

package monitor

import (
	"github.com/awslabs/ar-go-pdg/analysis/ir"
)

// SafeLocks implements ir.SafeLockInfo: a monitor region is safe when its lock cannot be acquired by another
// thread, i.e. the lock is a local object that does not escape its thread.
type SafeLocks struct {
	safe map[ir.MonitorTriple]bool
}

// NewSafeLocks classifies the triples of info using the escape oracle
func NewSafeLocks(info ir.MonitorInfo, esc ir.EscapeInfo) *SafeLocks {
	s := &SafeLocks{safe: map[ir.MonitorTriple]bool{}}
	for _, t := range info.Monitors() {
		lock := LockOf(t)
		l, isLocal := lock.(*ir.Local)
		s.safe[t] = isLocal && !esc.Escapes(l)
	}
	return s
}

// IsStable returns true
func (s *SafeLocks) IsStable() bool { return true }

// IsSafe returns true if the lock of t is never contended
func (s *SafeLocks) IsSafe(t ir.MonitorTriple) bool {
	return s.safe[t]
}
