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
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
)

// PointsTo is the points-to oracle answering from the result of the pointer analysis. Every label of the
// analysis, i.e. every allocation site, is one abstract object.
type PointsTo struct {
	result *pointer.Result
	values map[*ir.Local]ssa.Value
	ids    map[*pointer.Label]ir.ObjectID
	labels []*pointer.Label
}

func newPointsTo(result *pointer.Result, values map[*ir.Local]ssa.Value) *PointsTo {
	return &PointsTo{
		result: result,
		values: values,
		ids:    map[*pointer.Label]ir.ObjectID{},
	}
}

// PointsTo returns the objects l may point to. The answer is unknown for locals that are not translated from a
// queried value, such as locals of non-pointer types.
func (p *PointsTo) PointsTo(l *ir.Local) ([]ir.ObjectID, bool) {
	if p == nil || p.result == nil {
		return nil, false
	}
	v, ok := p.values[l]
	if !ok {
		return nil, false
	}
	ptr, ok := p.result.Queries[v]
	if !ok {
		return nil, false
	}
	var objs []ir.ObjectID
	for _, label := range ptr.PointsTo().Labels() {
		objs = append(objs, p.idOf(label))
	}
	slices.Sort(objs)
	return objs, true
}

// Label returns the allocation site of the object id
func (p *PointsTo) Label(id ir.ObjectID) *pointer.Label {
	if int(id) < 0 || int(id) >= len(p.labels) {
		return nil
	}
	return p.labels[id]
}

func (p *PointsTo) idOf(label *pointer.Label) ir.ObjectID {
	if id, ok := p.ids[label]; ok {
		return id
	}
	id := ir.ObjectID(len(p.labels))
	p.ids[label] = id
	p.labels = append(p.labels, label)
	return id
}
