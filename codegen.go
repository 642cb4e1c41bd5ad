package cure

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// genVar is one stack slot the generator's own scope stack tracks: a
// parameter, a `let` binding, or the synthetic `temp_var` the RC
// protocol spills a wrapped managed value to.
type genVar struct {
	name    string
	slot    value.Value
	typ     *Type
	managed bool
}

// genFrame is one lexical frame of the generator's scope stack, mirroring
// a scope-clone/restore pattern at the LLVM level. Body entry pushes a
// frame; Body exit cleans it up and pops it.
type genFrame struct {
	parent *genFrame
	vars   []*genVar
}

func (f *genFrame) declare(v *genVar) { f.vars = append(f.vars, v) }

// Generator lowers a fully resolved (post-analyser) IR tree into a
// single LLVM module. Like the analyser, it implements
// NodeVisitor by storing each Visit*'s result on itself (g.result),
// retrieved by the caller right after Accept returns — but the caller
// here is almost always g.emit, which additionally applies the RC
// wrapping protocol before handing the value back.
type Generator struct {
	module *ir.Module
	target Target
	cabi   *CABI
	scope  *Scope

	refPtrType *Type

	fn    *ir.Func
	block *ir.Block
	frame *genFrame

	// currentParamNames mirrors the parameter names of whichever backend
	// function is presently being built, for DefinitionContext.Param's
	// by-name lookup. Library-authored overloads have no declared
	// parameter names, so while one is emitted it holds arg0, arg1, ….
	currentParamNames []string

	strCounter int

	result value.Value
}

// Compile lowers prog into an LLVM module named after scope's source
// file, built against target's C-ABI surface. scope must already carry the stdlib
// kernel (InstallStdlib) and have been run through Analyse.
func Compile(prog *ProgramNode, scope *Scope, target Target) (*ir.Module, error) {
	m := ir.NewModule()
	m.SourceFilename = scope.File

	for _, st := range *scope.NamedStructs {
		m.NewTypeDef(st.TypeName, st)
	}

	g := &Generator{
		module:     m,
		target:     target,
		cabi:       NewCABI(m, target),
		scope:      scope,
		refPtrType: scope.Types.MustGet("Ref").AsPointer(),
	}
	if err := prog.Accept(g); err != nil {
		return nil, err
	}
	return m, nil
}

// excludedFromRC is the node-kind set excluded from the RC wrapping
// protocol: declarations and pure control flow manage the frame
// directly in their own Visit* method instead.
func excludedFromRC(n Node) bool {
	switch n.(type) {
	case *TypeNode, *PointerTypeNode, *ParamNode, *FunctionNode, *VariableNode,
		*IdNode, *BodyNode, *AssignmentNode, *ElifNode, *IfNode, *WhileNode, *ReturnNode:
		return true
	}
	return false
}

// emit is the single entry point every Visit* method uses to evaluate a
// child node: it dispatches via Accept, then — unless n's kind is
// excluded — applies the inc/spill wrap to the result when its
// type needs memory management.
func (g *Generator) emit(n Node) (value.Value, error) {
	g.result = nil
	if err := n.Accept(g); err != nil {
		return nil, err
	}
	v := g.result
	if v == nil || excludedFromRC(n) {
		return v, nil
	}
	return g.wrapManaged(n.Type(), v)
}

// wrapManaged applies the reference-counting wrap protocol to a node
// that just produced a managed value: load through a pointer if needed,
// bump the refcount, then spill to a fresh stack slot registered as a
// `temp_var` local so scope exit's generic cleanup releases it.
func (g *Generator) wrapManaged(t *Type, v value.Value) (value.Value, error) {
	if !t.NeedsManagedMemory() {
		return v, nil
	}
	if _, ok := v.Type().(*types.PointerType); ok {
		v = g.block.NewLoad(t.Backend, v)
	}
	if err := g.emitRefInc(g.block, v, t); err != nil {
		return nil, err
	}
	slot := g.block.NewAlloca(t.Backend)
	g.block.NewStore(v, slot)
	loaded := g.block.NewLoad(t.Backend, slot)
	g.frame.declare(&genVar{name: "temp_var", slot: slot, typ: t, managed: true})
	return loaded, nil
}

func (g *Generator) emitRefInc(block *ir.Block, v value.Value, t *Type) error {
	refField := block.NewExtractValue(v, uint64(t.RefFieldIndex()))
	_, err := g.emitCall(block, "Ref.inc", []*Type{g.refPtrType}, []value.Value{refField})
	return err
}

// cleanupFrame emits Ref.dec for every managed local f introduced
// directly.
func (g *Generator) cleanupFrame(block *ir.Block, f *genFrame) error {
	for _, v := range f.vars {
		if !v.managed {
			continue
		}
		loaded := block.NewLoad(v.typ.Backend, v.slot)
		refField := block.NewExtractValue(loaded, uint64(v.typ.RefFieldIndex()))
		if _, err := g.emitCall(block, "Ref.dec", []*Type{g.refPtrType}, []value.Value{refField}); err != nil {
			return err
		}
	}
	return nil
}

// cleanupChain walks the entire function-local frame chain, used by
// Return's prologue, as opposed to Body's epilogue, which
// only cleans its own frame.
func (g *Generator) cleanupChain(block *ir.Block, f *genFrame) error {
	for cur := f; cur != nil; cur = cur.parent {
		if err := g.cleanupFrame(block, cur); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) lookupVar(name string) (*genVar, bool) {
	for f := g.frame; f != nil; f = f.parent {
		for i := len(f.vars) - 1; i >= 0; i-- {
			if f.vars[i].name == name {
				return f.vars[i], true
			}
		}
	}
	return nil, false
}

func idx(i int) *constant.Int { return constant.NewInt(types.I32, int64(i)) }

// sizeOf computes sizeof(t) the way Ref.new needs it: GEP a
// null pointer of t to index 1, then ptrtoint the result.
func (g *Generator) sizeOf(t types.Type) value.Value {
	null := constant.NewNull(types.NewPointer(t))
	gep := constant.NewGetElementPtr(t, null, constant.NewInt(types.I32, 1))
	return constant.NewPtrToInt(gep, types.I64)
}

func (g *Generator) globalCString(block *ir.Block, s string) value.Value {
	data := constant.NewCharArrayFromString(s + "\x00")
	name := fmt.Sprintf(".str.%d", g.strCounter)
	g.strCounter++
	glob := g.module.NewGlobalDef(name, data)
	glob.Immutable = true
	zero := constant.NewInt(types.I64, 0)
	return block.NewGetElementPtr(data.Type(), glob, zero, zero)
}

// emitRuntimeError backs DefinitionContext.Error: build a
// constant Cure string for message and forward it to a call of the
// stdlib kernel's own `error(string)`, then mark block
// unreachable, exactly as an in-language call of `error(...)` would
// lower via VisitCall.
func (g *Generator) emitRuntimeError(block *ir.Block, message string) error {
	lit := g.globalCString(block, message)
	length := constant.NewInt(types.I32, int64(len(message)))
	str, err := g.emitCall(block, "string.new", []*Type{
		g.scope.Types.MustGet("pointer"), g.scope.Types.MustGet("int"),
	}, []value.Value{lit, length})
	if err != nil {
		return err
	}
	if _, err := g.emitCall(block, "error", []*Type{g.scope.Types.MustGet("string")}, []value.Value{str}); err != nil {
		return err
	}
	block.NewUnreachable()
	return nil
}

// emitCall resolves name against argTypes, compiles (or
// reuses) its backend function, and emits the call instruction.
func (g *Generator) emitCall(block *ir.Block, name string, argTypes []*Type, args []value.Value) (value.Value, error) {
	o, ok := g.scope.Overloads.Resolve(name, argTypes)
	if !ok {
		return nil, fmt.Errorf("cure: internal: no overload of %q matches %v", name, argTypes)
	}
	fn, err := g.compileOverload(o, argTypes)
	if err != nil {
		return nil, err
	}
	return block.NewCall(fn, args...), nil
}

// compileOverload returns o's backend *ir.Func, building it on first
// use. Any-polymorphic overloads specialize per concrete argTypes,
// mangled and cached under Specializations; every other overload has a
// single, memoized Backend. The cache entry is populated before the body
// is emitted so a recursive call resolves to the same function instead
// of recursing into compilation itself.
func (g *Generator) compileOverload(o *Overload, argTypes []*Type) (*ir.Func, error) {
	if o.AnyPoly() {
		key := Mangle(o.Name, argTypes)
		if o.Specializations == nil {
			o.Specializations = make(map[string]any)
		}
		if cached, ok := o.Specializations[key]; ok {
			return cached.(*ir.Func), nil
		}
		fn := g.declareBackend(o, key, argTypes)
		o.Specializations[key] = fn
		if err := g.defineBackend(fn, o, argTypes); err != nil {
			return nil, err
		}
		return fn, nil
	}
	if o.Backend != nil {
		return o.Backend.(*ir.Func), nil
	}
	fn := g.declareBackend(o, Mangle(o.Name, o.Params), o.Params)
	o.Backend = fn
	if err := g.defineBackend(fn, o, o.Params); err != nil {
		return nil, err
	}
	return fn, nil
}

func (g *Generator) declareBackend(o *Overload, symbolName string, concreteParamTypes []*Type) *ir.Func {
	params := make([]*ir.Param, len(concreteParamTypes))
	for i, t := range concreteParamTypes {
		params[i] = ir.NewParam("", t.Backend)
	}
	return g.module.NewFunc(symbolName, o.ReturnType.Backend, params...)
}

func (g *Generator) defineBackend(fn *ir.Func, o *Overload, concreteParamTypes []*Type) error {
	if o.Node != nil {
		return g.emitUserBody(fn, o.Node.Params, o.Node.Body, o.ReturnType)
	}
	if o.LibBody != nil {
		return g.emitLibBody(fn, o, concreteParamTypes)
	}
	return fmt.Errorf("cure: overload %q has neither a user body nor a library body", o.Name)
}

// emitUserBody builds a user FunctionNode's backend: an entry
// block, a param_allocation block that spills every parameter to a
// stack slot, then the body's statements. Falling off the end of a `nil`
// returning function emits `ret <null byte*>`; any other falls-off is
// unreachable (a well-typed program always returns explicitly).
func (g *Generator) emitUserBody(backend *ir.Func, params []*ParamNode, body *BodyNode, retType *Type) error {
	savedFn, savedBlock, savedFrame, savedNames := g.fn, g.block, g.frame, g.currentParamNames
	defer func() { g.fn, g.block, g.frame, g.currentParamNames = savedFn, savedBlock, savedFrame, savedNames }()

	g.fn = backend
	alloc := backend.NewBlock("param_allocation")
	entry := backend.NewBlock("entry")
	g.block = alloc
	g.frame = &genFrame{}

	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
		bp := backend.Params[i]
		typ := p.Type()
		if typ.NeedsManagedMemory() {
			if err := g.emitRefInc(alloc, bp, typ); err != nil {
				return err
			}
		}
		slot := alloc.NewAlloca(typ.Backend)
		alloc.NewStore(bp, slot)
		g.frame.declare(&genVar{name: p.Name, slot: slot, typ: typ, managed: typ.NeedsManagedMemory()})
	}
	g.currentParamNames = names
	alloc.NewBr(entry)
	g.block = entry

	for _, stmt := range body.Stmts {
		if _, err := g.emit(stmt); err != nil {
			return err
		}
		if g.block.Term != nil {
			break
		}
	}

	if g.block.Term == nil {
		if err := g.cleanupFrame(g.block, g.frame); err != nil {
			return err
		}
		if retType.Display == "nil" {
			g.block.NewRet(constant.NewNull(types.NewPointer(types.I8)))
		} else {
			g.block.NewUnreachable()
		}
	}
	return nil
}

// emitLibBody builds a library-authored overload's backend by invoking
// its DefinitionBody callback directly against the entry block.
// Library bodies never declare `mut` parameters, so — unlike a user
// function — raw SSA parameter values are handed to the callback with
// no alloca spill.
func (g *Generator) emitLibBody(fn *ir.Func, o *Overload, concreteParamTypes []*Type) error {
	savedFn, savedBlock, savedFrame, savedNames := g.fn, g.block, g.frame, g.currentParamNames
	defer func() { g.fn, g.block, g.frame, g.currentParamNames = savedFn, savedBlock, savedFrame, savedNames }()

	g.fn = fn
	entry := fn.NewBlock("entry")
	g.block = entry
	g.frame = &genFrame{}

	names := make([]string, len(concreteParamTypes))
	for i := range concreteParamTypes {
		names[i] = fmt.Sprintf("arg%d", i)
	}
	g.currentParamNames = names

	params := make([]value.Value, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p
	}

	ctx := &DefinitionContext{
		Scope:      g.scope,
		Module:     g.module,
		Builder:    entry,
		CABI:       g.cabi,
		Params:     params,
		ParamTypes: concreteParamTypes,
		ReturnType: o.ReturnType,
		gen:        g,
	}
	result, err := o.LibBody(ctx)
	if err != nil {
		return err
	}
	if g.block.Term != nil {
		return nil
	}
	if result != nil {
		g.block.NewRet(result)
		return nil
	}
	if o.ReturnType.Display == "nil" {
		g.block.NewRet(constant.NewNull(types.NewPointer(types.I8)))
		return nil
	}
	g.block.NewUnreachable()
	return nil
}

func (g *Generator) overloadFor(fn *FunctionNode) *Overload {
	for _, o := range g.scope.Overloads.Lookup(fn.Name) {
		if o.Node == fn {
			return o
		}
	}
	return nil
}

// VisitProgram eagerly compiles every non-extern top-level function.
// Anything reached only through a library-authored call elsewhere
// compiles lazily via compileOverload instead.
func (g *Generator) VisitProgram(n *ProgramNode) error {
	for _, stmt := range n.Stmts {
		fn, ok := stmt.(*FunctionNode)
		if !ok || fn.Flags.Extern {
			continue
		}
		o := g.overloadFor(fn)
		if o == nil {
			return comptimeError(fn.Pos(), "internal: no overload registered for %q", fn.Name)
		}
		if _, err := g.compileOverload(o, o.Params); err != nil {
			return err
		}
	}
	g.result = nil
	return nil
}

func (g *Generator) VisitTypeNode(n *TypeNode) error        { g.result = nil; return nil }
func (g *Generator) VisitPointerTypeNode(n *PointerTypeNode) error {
	g.result = nil
	return nil
}
func (g *Generator) VisitParam(n *ParamNode) error { g.result = nil; return nil }
func (g *Generator) VisitComment(n *CommentNode) error {
	g.result = nil
	return nil
}

func (g *Generator) VisitInt(n *IntNode) error {
	g.result = constant.NewInt(types.I32, n.Value)
	return nil
}

func (g *Generator) VisitFloat(n *FloatNode) error {
	g.result = constant.NewFloat(types.Float, n.Value)
	return nil
}

func (g *Generator) VisitBool(n *BoolNode) error {
	g.result = constant.NewBool(n.Value)
	return nil
}

func (g *Generator) VisitNil(n *NilNode) error {
	g.result = constant.NewNull(types.NewPointer(types.I8))
	return nil
}

func (g *Generator) VisitStringLiteral(n *StringLiteralNode) error {
	g.result = g.globalCString(g.block, n.Value)
	return nil
}

// VisitString, VisitBinaryOp, VisitUnaryOp, VisitAttribute and VisitCast
// never reach the generator: the analyser rewrites every one of them
// into a Call before code generation starts.
func (g *Generator) VisitString(n *StringNode) error {
	return fmt.Errorf("cure: internal: unrewritten String node reached codegen")
}
func (g *Generator) VisitBinaryOp(n *BinaryOpNode) error {
	return fmt.Errorf("cure: internal: unrewritten BinaryOp node reached codegen")
}
func (g *Generator) VisitUnaryOp(n *UnaryOpNode) error {
	return fmt.Errorf("cure: internal: unrewritten UnaryOp node reached codegen")
}
func (g *Generator) VisitAttribute(n *AttributeNode) error {
	return fmt.Errorf("cure: internal: unrewritten Attribute node reached codegen")
}
func (g *Generator) VisitCast(n *CastNode) error {
	return fmt.Errorf("cure: internal: unrewritten Cast node reached codegen")
}

func (g *Generator) VisitId(n *IdNode) error {
	v, ok := g.lookupVar(n.Name)
	if !ok {
		// A bare type/namespace reference (Math, int, …): the analyser
		// resolved it through the type map solely to build an Attribute
		// callee string; there's nothing to load at this level.
		g.result = nil
		return nil
	}
	g.result = g.block.NewLoad(v.typ.Backend, v.slot)
	return nil
}

func (g *Generator) VisitCall(n *CallNode) error {
	args := make([]value.Value, len(n.Args))
	argTypes := make([]*Type, len(n.Args))
	for i, a := range n.Args {
		v, err := g.emit(a)
		if err != nil {
			return err
		}
		args[i] = v
		argTypes[i] = a.Type()
	}
	v, err := g.emitCall(g.block, n.Callee, argTypes, args)
	if err != nil {
		return err
	}
	g.result = v
	return nil
}

// VisitTernary lowers to a cond/then/else/merge diamond: both arms always
// produce a value here (the analyser already rejected a type mismatch),
// so the merge block always gets a phi.
func (g *Generator) VisitTernary(n *TernaryNode) error {
	cond, err := g.emit(n.Cond)
	if err != nil {
		return err
	}
	thenBlock := g.fn.NewBlock("ternary.then")
	elseBlock := g.fn.NewBlock("ternary.else")
	mergeBlock := g.fn.NewBlock("ternary.merge")
	g.block.NewCondBr(cond, thenBlock, elseBlock)

	g.block = thenBlock
	thenVal, err := g.emit(n.Then)
	if err != nil {
		return err
	}
	thenEnd := g.block
	if thenEnd.Term == nil {
		thenEnd.NewBr(mergeBlock)
	}

	g.block = elseBlock
	elseVal, err := g.emit(n.Else)
	if err != nil {
		return err
	}
	elseEnd := g.block
	if elseEnd.Term == nil {
		elseEnd.NewBr(mergeBlock)
	}

	g.block = mergeBlock
	g.result = mergeBlock.NewPhi(ir.NewIncoming(thenVal, thenEnd), ir.NewIncoming(elseVal, elseEnd))
	return nil
}

func (g *Generator) VisitNewArray(n *NewArrayNode) error {
	size, err := g.emit(n.Size)
	if err != nil {
		return err
	}
	elemType := n.Type().Pointee()
	elemSize := g.sizeOf(elemType.Backend)
	size64 := g.block.NewSExt(size, types.I64)
	total := g.block.NewMul(elemSize, size64)
	raw := g.block.NewCall(g.cabi.Get("malloc"), total)
	g.result = g.block.NewBitCast(raw, n.Type().Backend)
	return nil
}

// VisitBody implements "body entry clones the scope, body exit restores
// the parent scope" at the LLVM level: push a frame, run statements in
// source order, and — unless control already left the block via an
// early return — clean up exactly this frame before popping it.
func (g *Generator) VisitBody(n *BodyNode) error {
	parent := g.frame
	g.frame = &genFrame{parent: parent}
	for _, stmt := range n.Stmts {
		if _, err := g.emit(stmt); err != nil {
			return err
		}
		if g.block.Term != nil {
			break
		}
	}
	if g.block.Term == nil {
		if err := g.cleanupFrame(g.block, g.frame); err != nil {
			return err
		}
	}
	g.frame = parent
	g.result = nil
	return nil
}

func (g *Generator) VisitVariable(n *VariableNode) error {
	var v value.Value
	if n.Value != nil {
		val, err := g.emit(n.Value)
		if err != nil {
			return err
		}
		v = val
	}
	slot := g.block.NewAlloca(n.Type().Backend)
	if v != nil {
		g.block.NewStore(v, slot)
	}
	g.frame.declare(&genVar{name: n.Name, slot: slot, typ: n.Type(), managed: n.Type().NeedsManagedMemory()})
	g.result = nil
	return nil
}

func (g *Generator) VisitAssignment(n *AssignmentNode) error {
	v, err := g.emit(n.Value)
	if err != nil {
		return err
	}
	local, ok := g.lookupVar(n.Name)
	if !ok {
		return comptimeError(n.Pos(), "internal: assignment to unknown local %q", n.Name)
	}
	g.block.NewStore(v, local.slot)
	g.result = nil
	return nil
}

// VisitFunction is never invoked in practice (Cure has no nested
// function declarations; VisitProgram compiles top-level functions
// directly through compileOverload), but is implemented to satisfy
// NodeVisitor and to behave correctly if that ever changes.
func (g *Generator) VisitFunction(n *FunctionNode) error {
	o := g.overloadFor(n)
	if o == nil {
		return comptimeError(n.Pos(), "internal: no overload registered for %q", n.Name)
	}
	_, err := g.compileOverload(o, o.Params)
	g.result = nil
	return err
}

// VisitReturn performs the scope-exit cleanup prologue over the entire
// function-local frame chain — not just the innermost Body — before
// emitting the actual `ret`.
func (g *Generator) VisitReturn(n *ReturnNode) error {
	var v value.Value
	if n.Value != nil {
		val, err := g.emit(n.Value)
		if err != nil {
			return err
		}
		v = val
	}
	if err := g.cleanupChain(g.block, g.frame); err != nil {
		return err
	}
	if v == nil {
		g.block.NewRet(constant.NewNull(types.NewPointer(types.I8)))
	} else {
		g.block.NewRet(v)
	}
	g.result = nil
	return nil
}

// VisitElif is never invoked directly: VisitIf walks n.Elifs itself so
// it can thread the shared merge block through the whole chain.
func (g *Generator) VisitElif(n *ElifNode) error { g.result = nil; return nil }

// VisitIf lowers to a cond/then/else/merge diamond: one test/then pair per
// elif, an optional else block, and a single shared merge block. Bodies
// produce no value, so
// there's never a phi to build here — only Ternary needs one.
func (g *Generator) VisitIf(n *IfNode) error {
	mergeBlock := g.fn.NewBlock("if.merge")

	cond, err := g.emit(n.Cond)
	if err != nil {
		return err
	}
	thenBlock := g.fn.NewBlock("if.then")
	nextBlock := mergeBlock
	if len(n.Elifs) > 0 || n.ElseBody != nil {
		nextBlock = g.fn.NewBlock("if.next")
	}
	g.block.NewCondBr(cond, thenBlock, nextBlock)

	g.block = thenBlock
	if _, err := g.emit(n.Body); err != nil {
		return err
	}
	if g.block.Term == nil {
		g.block.NewBr(mergeBlock)
	}

	g.block = nextBlock
	for i, elif := range n.Elifs {
		if g.block != mergeBlock {
			econd, err := g.emit(elif.Cond)
			if err != nil {
				return err
			}
			ethen := g.fn.NewBlock("elif.then")
			enext := mergeBlock
			if i < len(n.Elifs)-1 || n.ElseBody != nil {
				enext = g.fn.NewBlock("elif.next")
			}
			g.block.NewCondBr(econd, ethen, enext)

			g.block = ethen
			if _, err := g.emit(elif.Body); err != nil {
				return err
			}
			if g.block.Term == nil {
				g.block.NewBr(mergeBlock)
			}
			g.block = enext
		}
	}

	if n.ElseBody != nil && g.block != mergeBlock {
		if _, err := g.emit(n.ElseBody); err != nil {
			return err
		}
		if g.block.Term == nil {
			g.block.NewBr(mergeBlock)
		}
	}

	g.block = mergeBlock
	g.result = nil
	return nil
}

// VisitWhile lowers to the usual three-block loop shape: a
// condition-test block every iteration re-enters, a body block, and an
// exit block.
func (g *Generator) VisitWhile(n *WhileNode) error {
	condBlock := g.fn.NewBlock("while.cond")
	bodyBlock := g.fn.NewBlock("while.body")
	exitBlock := g.fn.NewBlock("while.exit")

	if g.block.Term == nil {
		g.block.NewBr(condBlock)
	}
	g.block = condBlock
	cond, err := g.emit(n.Cond)
	if err != nil {
		return err
	}
	g.block.NewCondBr(cond, bodyBlock, exitBlock)

	g.block = bodyBlock
	if _, err := g.emit(n.Body); err != nil {
		return err
	}
	if g.block.Term == nil {
		g.block.NewBr(condBlock)
	}

	g.block = exitBlock
	g.result = nil
	return nil
}
