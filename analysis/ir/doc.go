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

/*
Package ir contains the statement-level intermediate representation the dependence analyses run on, and the
interfaces of the collaborators the analyses consume (call graph, thread graph, monitor information and the optional
points-to, escape and symbolic oracles).

A [Method] is a sequence of statements. Statements are a closed set of variants ([*Assign], [*If], [*Switch],
[*Goto], [*Return], [*Panic], [*EnterMonitor], [*ExitMonitor], [*Invoke], [*Nop]) and the analyses match on them
with type switches. The identity of a statement in its method is its position [Statement.Index].

Methods are built with a [MethodBuilder], which resolves the labels used as branch targets and computes the
[BlockGraph] of the method:

	b := ir.NewMethodBuilder(class, "run")
	c := b.Local("c", ir.Bool)
	b.If(c, "else")
	b.Assign(x, one)
	b.Goto("end")
	b.Label("else")
	b.Assign(x, two)
	b.Label("end")
	b.Return(nil)
	m := b.MustBuild()
*/
package ir
