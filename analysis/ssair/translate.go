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
	"fmt"
	"go/token"
	"strings"

	"github.com/awslabs/ar-go-pdg/analysis/config"
	"github.com/awslabs/ar-go-pdg/analysis/ir"
	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Options are the options of Translate
type Options struct {
	// CallGraph is the algorithm resolving the callees of call sites
	CallGraph CallgraphAnalysisMode
	// PointsTo runs the pointer analysis, whose results are available through Result.PointsTo
	PointsTo bool
	// Packages restricts the functions translated with their body to the packages whose path has one of these
	// prefixes. When empty, the requested packages are translated.
	Packages []string
	// Entries are the names of the root functions, e.g. "main.main" or "main.Server.Run". When empty, the
	// main and init functions of the main packages are the roots, or all the translated functions if there is no
	// main package.
	Entries []string
}

// OptionsFrom returns the frontend options of cfg
func OptionsFrom(cfg *config.Config) (Options, error) {
	mode, err := ParseCallgraphMode(cfg.Frontend.CallGraph)
	if err != nil {
		return Options{}, err
	}
	return Options{
		CallGraph: mode,
		PointsTo:  cfg.Frontend.PointsTo,
		Packages:  cfg.Frontend.Packages,
		Entries:   cfg.EntryPoints,
	}, nil
}

// Result is the translation of a Go program
type Result struct {
	// Program is the translated program
	Program *ir.Program
	// Methods maps the functions of the program to their method
	Methods map[*ssa.Function]*ir.Method
	// Functions maps the translated methods back to their function
	Functions map[*ir.Method]*ssa.Function
	// PointsTo is the points-to oracle, nil unless requested in the options
	PointsTo *PointsTo
	// Values maps the locals of the translated methods to the SSA values they stand for
	Values map[*ir.Local]ssa.Value
}

// Oracle returns the points-to oracle of the result, or nil when the pointer analysis was not requested
func (r *Result) Oracle() ir.PointsTo {
	if r.PointsTo == nil {
		return nil
	}
	return r.PointsTo
}

// StatementsAt returns the statements whose position is on the line of pos
func (r *Result) StatementsAt(pos DirectivePos) []ir.Statement {
	var res []ir.Statement
	for _, m := range r.Program.Methods {
		for _, s := range m.Statements {
			p := r.Program.Position(s)
			if p.IsValid() && p.Line == pos.Line && p.Filename == pos.Filename {
				res = append(res, s)
			}
		}
	}
	return res
}

// Translate translates the functions of the loaded program that are reachable from the roots into methods.
// Calls to functions that are not translated are calls to abstract methods. The calls to the methods of
// sync.Mutex and sync.RWMutex become monitor statements, the calls to the methods of sync.Cond become wait and
// notify calls, and go statements become thread start calls.
func Translate(logger *config.LogGroup, lp LoadedProgram, opts Options) (*Result, error) {
	prog := lp.Program
	t := &translator{
		logger:  logger,
		prog:    prog,
		types:   newTypeTable(),
		methods: map[*ssa.Function]*ir.Method{},
		locals:  map[ssa.Value]*ir.Local{},
		globals: map[*ssa.Global]*ir.Field{},
		callees: map[ssa.CallInstruction][]*ssa.Function{},
		result: &Result{
			Methods:   map[*ssa.Function]*ir.Method{},
			Functions: map[*ir.Method]*ssa.Function{},
			Values:    map[*ir.Local]ssa.Value{},
		},
	}
	t.inScope = scopeFilter(lp, opts.Packages)
	roots := t.roots(lp, opts.Entries)

	var pta *pointer.Result
	var err error
	if opts.PointsTo || opts.CallGraph == PointerAnalysis {
		pta, err = DoPointerAnalysis(prog, t.inScope, opts.CallGraph == PointerAnalysis)
		if err != nil {
			return nil, fmt.Errorf("pointer analysis failed: %w", err)
		}
	}
	var cg *callgraph.Graph
	if opts.CallGraph == PointerAnalysis {
		cg = pta.CallGraph
	} else if cg, err = opts.CallGraph.ComputeCallgraph(prog, roots); err != nil {
		return nil, fmt.Errorf("could not compute the call graph: %w", err)
	}
	t.indexCallGraph(cg)

	program := &ir.Program{Fset: prog.Fset}
	for _, r := range roots {
		program.Entries = append(program.Entries, t.methodFor(r))
	}
	for len(t.queue) > 0 {
		fn := t.queue[0]
		t.queue = t.queue[1:]
		m := t.methods[fn]
		if err := t.translateBody(fn, m); err != nil {
			return nil, err
		}
		program.Methods = append(program.Methods, m)
	}
	t.types.linkInterfaces()
	slices.SortFunc(program.Methods, func(a, b *ir.Method) bool { return a.String() < b.String() })

	t.result.Program = program
	if opts.PointsTo {
		t.result.PointsTo = newPointsTo(pta, t.result.Values)
	}
	if logger != nil {
		logger.Infof("Translated %d functions (%d entry points)\n", len(program.Methods), len(program.Entries))
	}
	return t.result, nil
}

// scopeFilter returns the filter selecting the functions translated with their body
func scopeFilter(lp LoadedProgram, prefixes []string) func(*ssa.Function) bool {
	requested := map[*ssa.Package]bool{}
	for _, p := range lp.SSAPackages() {
		requested[p] = true
	}
	return func(fn *ssa.Function) bool {
		if fn == nil || fn.Blocks == nil {
			return false
		}
		pkg := fn.Package()
		for pkg == nil && fn.Parent() != nil {
			fn = fn.Parent()
			pkg = fn.Package()
		}
		if pkg == nil {
			return false
		}
		if len(prefixes) == 0 {
			return requested[pkg]
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(pkg.Pkg.Path(), prefix) {
				return true
			}
		}
		return false
	}
}

type translator struct {
	logger  *config.LogGroup
	prog    *ssa.Program
	types   *typeTable
	inScope func(*ssa.Function) bool
	result  *Result

	methods map[*ssa.Function]*ir.Method
	queue   []*ssa.Function
	locals  map[ssa.Value]*ir.Local
	globals map[*ssa.Global]*ir.Field
	callees map[ssa.CallInstruction][]*ssa.Function

	// per function
	current *ir.Method
	defers  []*ssa.Defer
}

// roots returns the functions named by entries, or the main and init functions of the main packages, or all the
// functions in scope
func (t *translator) roots(lp LoadedProgram, entries []string) []*ssa.Function {
	var roots []*ssa.Function
	if len(entries) > 0 {
		for fn := range ssautil.AllFunctions(t.prog) {
			if t.inScope(fn) && slices.Contains(entries, t.nameOf(fn)) {
				roots = append(roots, fn)
			}
		}
	} else if mains := ssautil.MainPackages(lp.SSAPackages()); len(mains) > 0 {
		for _, p := range mains {
			for _, name := range []string{"init", "main"} {
				if fn := p.Func(name); fn != nil && t.inScope(fn) {
					roots = append(roots, fn)
				}
			}
		}
	} else {
		for fn := range ssautil.AllFunctions(t.prog) {
			if t.inScope(fn) {
				roots = append(roots, fn)
			}
		}
	}
	slices.SortFunc(roots, func(a, b *ssa.Function) bool { return a.String() < b.String() })
	return roots
}

func (t *translator) indexCallGraph(cg *callgraph.Graph) {
	if cg == nil {
		return
	}
	for fn, node := range cg.Nodes {
		if fn == nil || !t.inScope(fn) {
			continue
		}
		for _, e := range node.Out {
			if e.Site != nil && e.Callee != nil && e.Callee.Func != nil {
				t.callees[e.Site] = append(t.callees[e.Site], e.Callee.Func)
			}
		}
	}
	for site, fns := range t.callees {
		slices.SortFunc(fns, func(a, b *ssa.Function) bool { return a.String() < b.String() })
		t.callees[site] = slices.Compact(fns)
	}
}

// classOf returns the class of fn: the named receiver type of methods, the package of functions
func (t *translator) classOf(fn *ssa.Function) *ir.Type {
	if recv := fn.Signature.Recv(); recv != nil {
		return t.types.of(deref(recv.Type()))
	}
	if fn.Pkg != nil {
		return t.types.pkg(fn.Pkg.Pkg)
	}
	if fn.Parent() != nil {
		return t.classOf(fn.Parent())
	}
	return t.types.pkg(nil)
}

func (t *translator) nameOf(fn *ssa.Function) string {
	return t.classOf(fn).Name + "." + fn.Name()
}

// methodFor returns the method of fn. Functions in scope are queued for translation; the others are abstract.
func (t *translator) methodFor(fn *ssa.Function) *ir.Method {
	if m, ok := t.methods[fn]; ok {
		return m
	}
	m := ir.NewAbstractMethod(t.classOf(fn), fn.Name())
	m.Static = fn.Signature.Recv() == nil
	m.ClassInit = fn.Name() == "init" || strings.HasPrefix(fn.Name(), "init#")
	t.methods[fn] = m
	if t.inScope(fn) {
		for _, p := range fn.Params {
			m.Params = append(m.Params, t.newLocal(m, p))
		}
		for _, fv := range fn.FreeVars {
			m.Params = append(m.Params, t.newLocal(m, fv))
		}
		t.queue = append(t.queue, fn)
		t.result.Methods[fn] = m
		t.result.Functions[m] = fn
	}
	return m
}

func (t *translator) newLocal(m *ir.Method, v ssa.Value) *ir.Local {
	l := &ir.Local{Name: v.Name(), Typ: t.types.of(v.Type())}
	t.locals[v] = l
	t.result.Values[l] = v
	m.Locals = append(m.Locals, l)
	return l
}

// local returns the local standing for v, creating it in the current method if needed
func (t *translator) local(v ssa.Value) *ir.Local {
	if l, ok := t.locals[v]; ok {
		return l
	}
	return t.newLocal(t.current, v)
}

// expr returns the expression standing for the operand v
func (t *translator) expr(v ssa.Value) ir.Expr {
	switch x := v.(type) {
	case nil:
		return nil
	case *ssa.Const:
		return &ir.Const{Value: x.String(), Typ: t.types.of(x.Type())}
	case *ssa.Function:
		return &ir.Const{Value: x.String(), Typ: t.types.of(x.Type())}
	case *ssa.Builtin:
		return &ir.Const{Value: x.Name(), Typ: t.types.of(x.Type())}
	case *ssa.Global:
		return &ir.Const{Value: "&" + x.String(), Typ: t.types.of(x.Type())}
	}
	return t.local(v)
}

// base returns the local holding v, or nil if v is not held by a local
func (t *translator) base(v ssa.Value) *ir.Local {
	l, _ := t.expr(v).(*ir.Local)
	return l
}

// global returns the static field standing for the global g
func (t *translator) global(g *ssa.Global) *ir.Field {
	if f, ok := t.globals[g]; ok {
		return f
	}
	f := &ir.Field{Name: g.Name(), Class: t.types.pkg(g.Pkg.Pkg), Type: t.types.of(deref(g.Type())), Static: true}
	t.globals[g] = f
	return f
}

// ref returns the reference to the location addr points to
func (t *translator) ref(addr ssa.Value) ir.Expr {
	switch a := addr.(type) {
	case *ssa.FieldAddr:
		return &ir.FieldRef{Base: t.base(a.X), Field: t.types.field(a.X.Type(), a.Field)}
	case *ssa.IndexAddr:
		return &ir.ArrayRef{Base: t.base(a.X), Index: t.expr(a.Index), Elem: t.types.of(elemOf(a.X.Type()))}
	case *ssa.Global:
		return &ir.FieldRef{Field: t.global(a)}
	}
	return &ir.FieldRef{Base: t.base(addr), Field: t.types.deref(addr.Type())}
}

// lockOf returns the expression denoting the lock at address v. Lock expressions are structural, so that the
// acquisition and the release of a field lock are recognized as the same lock.
func (t *translator) lockOf(v ssa.Value) ir.Expr {
	switch a := v.(type) {
	case *ssa.FieldAddr, *ssa.Global:
		return t.ref(a)
	}
	return t.expr(v)
}

func (t *translator) operands(instr ssa.Instruction) []*ir.Local {
	var res []*ir.Local
	for _, op := range instr.Operands(nil) {
		if op == nil || *op == nil {
			continue
		}
		if l, ok := t.expr(*op).(*ir.Local); ok && !slices.Contains(res, l) {
			res = append(res, l)
		}
	}
	return res
}

func (t *translator) opaque(v ssa.Value, instr ssa.Instruction) *ir.Assign {
	text := instr.String()
	return &ir.Assign{
		Lhs: t.local(v),
		Rhs: &ir.Opaque{Text: text, Typ: t.types.of(v.Type()), Operands: t.operands(instr)},
	}
}

// pendingJump is a branch whose targets are blocks, resolved once the position of every block is known
type pendingJump struct {
	stmt    ir.Statement
	targets []*ssa.BasicBlock
}

// translateBody sets the statements of m, translating the blocks of fn in order
func (t *translator) translateBody(fn *ssa.Function, m *ir.Method) error {
	t.current = m
	t.defers = nil
	var stmts []ir.Statement
	var jumps []pendingJump
	start := make([]int, len(fn.Blocks))
	for _, b := range fn.Blocks {
		start[b.Index] = len(stmts)
		n := len(stmts)
		for _, instr := range b.Instrs {
			for _, s := range t.instruction(instr) {
				if s.Pos() == token.NoPos {
					ir.SetPos(s, posOf(instr))
				}
				stmts = append(stmts, s)
				switch s.(type) {
				case *ir.If, *ir.Goto:
					jumps = append(jumps, pendingJump{stmt: s, targets: b.Succs})
				}
			}
		}
		if len(stmts) == n {
			stmts = append(stmts, &ir.Nop{Comment: b.String()})
		}
	}
	for _, j := range jumps {
		switch s := j.stmt.(type) {
		case *ir.If:
			s.Targets = []int{start[j.targets[0].Index], start[j.targets[1].Index]}
		case *ir.Goto:
			s.Target = start[j.targets[0].Index]
		}
	}
	if fn.Recover != nil {
		for _, s := range stmts {
			if p, ok := s.(*ir.Panic); ok {
				p.Handlers = []int{start[fn.Recover.Index]}
			}
		}
	}
	if err := ir.SetBody(m, stmts); err != nil {
		return fmt.Errorf("translating %s: %w", fn, err)
	}
	return nil
}

// posOf returns the position of instr. Loads through an address have no position of their own: they take the
// position of the address.
func posOf(instr ssa.Instruction) token.Pos {
	if p := instr.Pos(); p.IsValid() {
		return p
	}
	if u, ok := instr.(*ssa.UnOp); ok && u.Op == token.MUL {
		return u.X.Pos()
	}
	return token.NoPos
}

// instruction returns the statements of instr
func (t *translator) instruction(instr ssa.Instruction) []ir.Statement {
	switch x := instr.(type) {
	case *ssa.DebugRef:
		return nil
	case *ssa.If:
		return []ir.Statement{&ir.If{Cond: t.expr(x.Cond)}}
	case *ssa.Jump:
		return []ir.Statement{&ir.Goto{}}
	case *ssa.Return:
		return []ir.Statement{&ir.Return{Value: t.results(x)}}
	case *ssa.Panic:
		return []ir.Statement{&ir.Panic{Value: t.expr(x.X)}}
	case *ssa.Store:
		return []ir.Statement{&ir.Assign{Lhs: t.ref(x.Addr), Rhs: t.expr(x.Val)}}
	case *ssa.MapUpdate:
		lhs := &ir.ArrayRef{Base: t.base(x.Map), Index: t.expr(x.Key), Elem: t.types.of(elemOf(x.Map.Type()))}
		return []ir.Statement{&ir.Assign{Lhs: lhs, Rhs: t.expr(x.Value)}}
	case *ssa.Send:
		return []ir.Statement{&ir.Invoke{Name: "send", Args: []ir.Expr{t.expr(x.Chan), t.expr(x.X)}}}
	case *ssa.Go:
		s := t.call(x.Common(), x)
		if call, ok := s.(*ir.Invoke); ok {
			call.Kind = ir.StartCall
			call.Result = nil
		}
		return []ir.Statement{s}
	case *ssa.Defer:
		t.defers = append(t.defers, x)
		return []ir.Statement{&ir.Nop{Comment: x.String()}}
	case *ssa.RunDefers:
		var res []ir.Statement
		for i := len(t.defers) - 1; i >= 0; i-- {
			s := t.call(t.defers[i].Common(), t.defers[i])
			if call, ok := s.(*ir.Invoke); ok {
				call.Result = nil
			}
			res = append(res, s)
		}
		if len(res) == 0 {
			res = append(res, &ir.Nop{Comment: "rundefers"})
		}
		return res
	case *ssa.Call:
		return []ir.Statement{t.call(x.Common(), x)}
	case *ssa.Alloc:
		return []ir.Statement{&ir.Assign{Lhs: t.local(x), Rhs: &ir.New{Typ: t.types.of(deref(x.Type()))}}}
	case *ssa.MakeMap:
		return []ir.Statement{&ir.Assign{Lhs: t.local(x), Rhs: &ir.New{Typ: t.types.of(x.Type())}}}
	case *ssa.MakeChan:
		return []ir.Statement{&ir.Assign{Lhs: t.local(x), Rhs: &ir.New{Typ: t.types.of(x.Type())}}}
	case *ssa.UnOp:
		if x.Op == token.MUL {
			return []ir.Statement{&ir.Assign{Lhs: t.local(x), Rhs: t.ref(x.X)}}
		}
		return []ir.Statement{t.opaque(x, x)}
	case *ssa.Field:
		rhs := &ir.FieldRef{Base: t.base(x.X), Field: t.types.field(x.X.Type(), x.Field)}
		return []ir.Statement{&ir.Assign{Lhs: t.local(x), Rhs: rhs}}
	case *ssa.Index:
		if base := t.base(x.X); base != nil {
			rhs := &ir.ArrayRef{Base: base, Index: t.expr(x.Index), Elem: t.types.of(x.Type())}
			return []ir.Statement{&ir.Assign{Lhs: t.local(x), Rhs: rhs}}
		}
		return []ir.Statement{t.opaque(x, x)}
	case *ssa.Lookup:
		if base := t.base(x.X); base != nil && !x.CommaOk {
			rhs := &ir.ArrayRef{Base: base, Index: t.expr(x.Index), Elem: t.types.of(x.Type())}
			return []ir.Statement{&ir.Assign{Lhs: t.local(x), Rhs: rhs}}
		}
		return []ir.Statement{t.opaque(x, x)}
	case ssa.Value:
		return []ir.Statement{t.opaque(x, instr)}
	}
	return []ir.Statement{&ir.Nop{Comment: instr.String()}}
}

// results returns the value returned by a return instruction
func (t *translator) results(r *ssa.Return) ir.Expr {
	switch len(r.Results) {
	case 0:
		return nil
	case 1:
		return t.expr(r.Results[0])
	}
	var operands []*ir.Local
	for _, v := range r.Results {
		if l, ok := t.expr(v).(*ir.Local); ok {
			operands = append(operands, l)
		}
	}
	return &ir.Opaque{Text: r.String(), Operands: operands}
}

// syncKind classifies the methods of the sync package the translation gives a meaning to
func syncKind(fn *ssa.Function) string {
	switch fn.String() {
	case "(*sync.Mutex).Lock", "(*sync.RWMutex).Lock", "(*sync.RWMutex).RLock":
		return "lock"
	case "(*sync.Mutex).Unlock", "(*sync.RWMutex).Unlock", "(*sync.RWMutex).RUnlock":
		return "unlock"
	case "(*sync.Cond).Wait":
		return "wait"
	case "(*sync.Cond).Signal":
		return "signal"
	case "(*sync.Cond).Broadcast":
		return "broadcast"
	}
	return ""
}

// call returns the statement of the call described by common at site
func (t *translator) call(common *ssa.CallCommon, site ssa.CallInstruction) ir.Statement {
	static := common.StaticCallee()
	if static != nil && len(common.Args) > 0 {
		switch syncKind(static) {
		case "lock":
			return &ir.EnterMonitor{Lock: t.lockOf(common.Args[0])}
		case "unlock":
			return &ir.ExitMonitor{Lock: t.lockOf(common.Args[0])}
		case "wait":
			return &ir.Invoke{Kind: ir.WaitCall, Name: "Wait", Receiver: t.base(common.Args[0])}
		case "signal":
			return &ir.Invoke{Kind: ir.NotifyCall, Name: "Signal", Receiver: t.base(common.Args[0])}
		case "broadcast":
			return &ir.Invoke{Kind: ir.NotifyAllCall, Name: "Broadcast", Receiver: t.base(common.Args[0])}
		}
	}
	call := &ir.Invoke{Kind: ir.OrdinaryCall}
	args := common.Args
	switch {
	case common.IsInvoke():
		call.Name = common.Method.Name()
		call.Receiver = t.base(common.Value)
	case static != nil:
		call.Name = static.Name()
		if static.Signature.Recv() != nil && len(args) > 0 {
			call.Receiver = t.base(args[0])
			args = args[1:]
		}
	default:
		call.Name = common.Value.Name()
		if l := t.base(common.Value); l != nil {
			call.Args = append(call.Args, l)
		}
	}
	for _, a := range args {
		call.Args = append(call.Args, t.expr(a))
	}
	if v := site.Value(); v != nil && common.Signature().Results().Len() > 0 {
		call.Result = t.local(v)
	}
	fns := t.callees[site]
	if len(fns) == 0 && static != nil {
		fns = []*ssa.Function{static}
	}
	for _, fn := range fns {
		call.Callees = append(call.Callees, t.methodFor(fn))
	}
	return call
}
