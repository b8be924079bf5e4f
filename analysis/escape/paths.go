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

package escape

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"golang.org/x/exp/slices"
)

// maxPathLength bounds the length of access paths, which can be infinite on recursive structures
const maxPathLength = 8

// RootKind is the kind of object an access path starts from
type RootKind int

const (
	// UnknownRoot is an object the paths cannot describe
	UnknownRoot RootKind = iota
	// StaticRoot is the value of a static field
	StaticRoot
	// ParamRoot is an object received as a parameter
	ParamRoot
	// AllocRoot is an object allocated at a given site
	AllocRoot
)

// AccessPath is a symbolic description of a location: a root object followed by a sequence of field accesses.
// Array elements are accessed through the field "[]".
type AccessPath struct {
	Kind   RootKind
	Root   string
	Fields []string
}

func (p AccessPath) String() string {
	root := p.Root
	if p.Kind == UnknownRoot {
		root = "?"
	}
	if len(p.Fields) == 0 {
		return root
	}
	return root + "." + strings.Join(p.Fields, ".")
}

func (p AccessPath) extend(field string) AccessPath {
	if p.Kind == UnknownRoot || len(p.Fields) >= maxPathLength {
		return AccessPath{Kind: UnknownRoot}
	}
	fields := make([]string, len(p.Fields), len(p.Fields)+1)
	copy(fields, p.Fields)
	return AccessPath{Kind: p.Kind, Root: p.Root, Fields: append(fields, field)}
}

// Paths computes access paths. It implements ir.SymbolicInfo.
type Paths struct {
	// defs maps each local to the assignments defining it
	defs map[*ir.Local][]*ir.Assign

	// params maps parameters to their method and position
	params map[*ir.Local]string

	// multiDefs contains the locals defined by something else than an assignment (call results)
	multiDefs map[*ir.Local]bool

	cache map[*ir.Local]AccessPath
}

// NewPaths prepares the computation of access paths in the methods provided
func NewPaths(methods []*ir.Method) *Paths {
	p := &Paths{
		defs:      map[*ir.Local][]*ir.Assign{},
		params:    map[*ir.Local]string{},
		multiDefs: map[*ir.Local]bool{},
		cache:     map[*ir.Local]AccessPath{},
	}
	for _, m := range methods {
		for i, l := range m.Params {
			p.params[l] = fmt.Sprintf("%s#%d", m, i)
		}
		for _, s := range m.Statements {
			if a, ok := s.(*ir.Assign); ok {
				if l, isLocal := a.Lhs.(*ir.Local); isLocal {
					p.defs[l] = append(p.defs[l], a)
				}
				continue
			}
			for _, l := range s.Defs() {
				p.multiDefs[l] = true
			}
		}
	}
	return p
}

// PathOf returns the access path of the location e denotes
func (p *Paths) PathOf(e ir.Expr) AccessPath {
	return p.pathOf(e, map[*ir.Local]bool{})
}

func (p *Paths) pathOf(e ir.Expr, visiting map[*ir.Local]bool) AccessPath {
	switch x := e.(type) {
	case *ir.Local:
		return p.localPath(x, visiting)
	case *ir.FieldRef:
		if x.Base == nil {
			return AccessPath{Kind: StaticRoot, Root: x.Field.String()}
		}
		return p.localPath(x.Base, visiting).extend(x.Field.Name)
	case *ir.ArrayRef:
		return p.localPath(x.Base, visiting).extend("[]")
	}
	return AccessPath{Kind: UnknownRoot}
}

func (p *Paths) localPath(l *ir.Local, visiting map[*ir.Local]bool) AccessPath {
	if path, ok := p.cache[l]; ok {
		return path
	}
	if visiting[l] {
		return AccessPath{Kind: UnknownRoot}
	}
	visiting[l] = true
	defer delete(visiting, l)

	path := AccessPath{Kind: UnknownRoot}
	defs := p.defs[l]
	root, isParam := p.params[l]
	switch {
	case p.multiDefs[l]:
	case isParam && len(defs) == 0:
		path = AccessPath{Kind: ParamRoot, Root: root}
	case !isParam && len(defs) == 1:
		def := defs[0]
		if n, ok := def.Rhs.(*ir.New); ok {
			path = AccessPath{Kind: AllocRoot, Root: fmt.Sprintf("new %s@%s:%d", n.Typ, def.Parent(), def.Index())}
		} else {
			path = p.pathOf(def.Rhs, visiting)
		}
	}
	p.cache[l] = path
	return path
}

// Coupled returns true if the locations a and b may be the same. Paths with different last fields never couple.
// Paths from unknown objects or parameters couple with any path; paths from two static fields, or from two
// allocation sites, couple only when they are equal.
func (p *Paths) Coupled(_ ir.Statement, a ir.Expr, _ ir.Statement, b ir.Expr) bool {
	pa, pb := p.PathOf(a), p.PathOf(b)
	if len(pa.Fields) > 0 && len(pb.Fields) > 0 && pa.Fields[len(pa.Fields)-1] != pb.Fields[len(pb.Fields)-1] {
		return false
	}
	if pa.Kind != pb.Kind || pa.Kind == UnknownRoot || pa.Kind == ParamRoot {
		return true
	}
	return pa.Root == pb.Root && slices.Equal(pa.Fields, pb.Fields)
}
