package cure

import (
	"fmt"
	"math"
)

// analyser is the single resolving pass over the untyped IR: it
// never mutates a Node in place, instead building and returning a new,
// typed and rewritten tree rooted at result. Each Visit* method stores
// whatever it produces on the analyser itself, retrieved by the caller
// right after the node's Accept returns.
type analyser struct {
	scope  *Scope
	result Node
}

// Analyse runs the resolving pass over a freshly parsed ProgramNode,
// seeded with a Scope whose Types/Overloads already carry the stdlib
// kernel registered by InstallStdlib.
func Analyse(prog *ProgramNode, scope *Scope) (*ProgramNode, error) {
	a := &analyser{scope: scope}
	if err := prog.Accept(a); err != nil {
		return nil, err
	}
	return a.result.(*ProgramNode), nil
}

func (a *analyser) sub() *analyser { return &analyser{scope: a.scope} }

// analyse re-enters the pass on a child node, reusing the current
// scope, and returns the rewritten replacement.
func (a *analyser) analyse(n Node) (Node, error) {
	child := a.sub()
	if err := n.Accept(child); err != nil {
		return nil, err
	}
	return child.result, nil
}

func (a *analyser) analyseBody(b *BodyNode) (*BodyNode, error) {
	child := &analyser{scope: a.scope.Clone()}
	if err := b.Accept(child); err != nil {
		return nil, err
	}
	return child.result.(*BodyNode), nil
}

// VisitProgram pre-registers every top-level function's signature
// before analysing bodies, so forward references between top-level
// functions resolve regardless of declaration order.
func (a *analyser) VisitProgram(n *ProgramNode) error {
	for _, stmt := range n.Stmts {
		if fn, ok := stmt.(*FunctionNode); ok {
			if err := a.registerFunctionSignature(fn); err != nil {
				return err
			}
		}
	}
	stmts := make([]Node, 0, len(n.Stmts))
	for _, stmt := range n.Stmts {
		rewritten, err := a.analyse(stmt)
		if err != nil {
			return err
		}
		stmts = append(stmts, rewritten)
		// The pre-pass registered this function's signature against
		// the un-analysed node; swap in the rewritten one now that
		// its body has been resolved, so the code generator lowers
		// the typed tree rather than the raw parse output.
		if fn, ok := rewritten.(*FunctionNode); ok {
			for _, o := range a.scope.Overloads.Lookup(fn.Name) {
				if o.Node != nil && o.Node.Name == fn.Name && len(o.Params) == len(fn.Params) {
					o.Node = fn
				}
			}
		}
	}
	a.result = NewProgramNode(n.Pos(), stmts)
	return nil
}

func (a *analyser) registerFunctionSignature(fn *FunctionNode) error {
	params := make([]*Type, 0, len(fn.Params))
	for _, p := range fn.Params {
		t, err := a.resolveTypeRef(p.Declared)
		if err != nil {
			return err
		}
		params = append(params, t)
	}
	retType := a.scope.Types.MustGet("nil")
	if fn.ReturnType != nil {
		t, err := a.resolveTypeRef(fn.ReturnType)
		if err != nil {
			return err
		}
		retType = t
	}
	a.scope.Overloads.Register(&Overload{
		Name:       fn.Name,
		Params:     params,
		ReturnType: retType,
		Flags:      fn.Flags,
		Node:       fn,
	})
	return nil
}

func (a *analyser) resolveTypeRef(n Node) (*Type, error) {
	switch t := n.(type) {
	case *TypeNode:
		typ, ok := a.scope.LookupType(t.Name)
		if !ok {
			return nil, comptimeError(t.Pos(), "unknown type %q", t.Name)
		}
		return typ, nil
	case *PointerTypeNode:
		pointee, err := a.resolveTypeRef(t.Pointee)
		if err != nil {
			return nil, err
		}
		return pointee.AsPointer(), nil
	default:
		return nil, comptimeError(n.Pos(), "not a type reference")
	}
}

func (a *analyser) VisitTypeNode(n *TypeNode) error {
	a.result = n
	return nil
}

func (a *analyser) VisitPointerTypeNode(n *PointerTypeNode) error {
	a.result = n
	return nil
}

// VisitInt enforces the i32 range invariant: a literal outside
// int32's range is a compile error, not a silent truncation.
func (a *analyser) VisitInt(n *IntNode) error {
	switch {
	case n.Value > math.MaxInt32:
		return comptimeError(n.Pos(), "integer literal %d too large for int", n.Value)
	case n.Value < math.MinInt32:
		return comptimeError(n.Pos(), "integer literal %d too small for int", n.Value)
	}
	a.result = NewIntNode(n.Pos(), n.Value, a.scope.Types.MustGet("int"))
	return nil
}

func (a *analyser) VisitFloat(n *FloatNode) error {
	a.result = NewFloatNode(n.Pos(), n.Value, a.scope.Types.MustGet("float"))
	return nil
}

func (a *analyser) VisitBool(n *BoolNode) error {
	a.result = NewBoolNode(n.Pos(), n.Value, a.scope.Types.MustGet("bool"))
	return nil
}

func (a *analyser) VisitNil(n *NilNode) error {
	a.result = NewNilNode(n.Pos(), anyType(a.scope.Types))
	return nil
}

// VisitString rewrites a surface string literal into
// Call("string.new", [StringLiteral, Int(length)]), the single
// place raw source text becomes a managed runtime string.
func (a *analyser) VisitString(n *StringNode) error {
	lit := NewStringLiteralNode(n.Pos(), n.Value, a.scope.Types.MustGet("pointer"))
	length := NewIntNode(n.Pos(), int64(len(n.Value)), a.scope.Types.MustGet("int"))
	call := NewCallNode(n.Pos(), "string.new", []Node{lit, length})
	return a.resolveCall(call)
}

func (a *analyser) VisitStringLiteral(n *StringLiteralNode) error {
	a.result = n
	return nil
}

// VisitId resolves from the symbol table or, failing that, the type
// map. The type-map fallback is what makes namespace-style
// references like `Math` (in `Math.pi`) or `int` (in `int.to_string`
// used as a bare name) resolve to something an Attribute node can
// build a callee string from — the resulting IdNode's type carries the
// type itself, with its Display equal to n.Name.
func (a *analyser) VisitId(n *IdNode) error {
	if sym, ok := a.scope.Lookup(n.Name); ok {
		a.result = NewIdNode(n.Pos(), n.Name, sym.Typ)
		return nil
	}
	if typ, ok := a.scope.LookupType(n.Name); ok {
		a.result = NewIdNode(n.Pos(), n.Name, typ)
		return nil
	}
	a.result = nil
	return comptimeError(n.Pos(), "undefined identifier %q", n.Name)
}

// binaryOpNames maps a surface operator to the stdlib method name
// suffix it's rewritten to: `lhs OP rhs` becomes
// Call("{lhs.type}.<suffix>", [lhs, rhs]).
var binaryOpNames = map[string]string{
	"+": "add", "-": "sub", "*": "mul", "/": "div", "%": "mod",
	"==": "eq", "!=": "neq",
	"<": "lt", "<=": "lte", ">": "gt", ">=": "gte",
	"&&": "and", "||": "or",
}

var unaryOpNames = map[string]string{
	"-": "sub", "!": "not_",
}

func (a *analyser) VisitBinaryOp(n *BinaryOpNode) error {
	left, err := a.analyse(n.Left)
	if err != nil {
		return err
	}
	right, err := a.analyse(n.Right)
	if err != nil {
		return err
	}
	suffix, ok := binaryOpNames[n.Op]
	if !ok {
		return comptimeError(n.Pos(), "unknown binary operator %q", n.Op)
	}
	callee := fmt.Sprintf("%s.%s_%s", left.Type().Display, suffix, right.Type().Display)
	call := NewCallNode(n.Pos(), callee, []Node{left, right})
	return a.resolveCall(call)
}

func (a *analyser) VisitUnaryOp(n *UnaryOpNode) error {
	expr, err := a.analyse(n.Expr)
	if err != nil {
		return err
	}
	suffix, ok := unaryOpNames[n.Op]
	if !ok {
		return comptimeError(n.Pos(), "unknown unary operator %q", n.Op)
	}
	callee := fmt.Sprintf("%s.%s", expr.Type().Display, suffix)
	call := NewCallNode(n.Pos(), callee, []Node{expr})
	return a.resolveCall(call)
}

func (a *analyser) VisitCall(n *CallNode) error {
	args := make([]Node, 0, len(n.Args))
	for _, arg := range n.Args {
		rewritten, err := a.analyse(arg)
		if err != nil {
			return err
		}
		args = append(args, rewritten)
	}
	call := NewCallNode(n.Pos(), n.Callee, args)
	return a.resolveCall(call)
}

// resolveCall runs the overload selection protocol against call's
// already-analysed arguments and assigns the winning overload's return
// type as call's Type. The winning *Overload is not stored on
// the node itself — the code generator re-resolves by callee name and
// argument types at lowering time, keeping Node free of backend state.
func (a *analyser) resolveCall(call *CallNode) error {
	argTypes := make([]*Type, len(call.Args))
	for i, arg := range call.Args {
		argTypes[i] = arg.Type()
	}
	overload, ok := a.scope.Overloads.Resolve(call.Callee, argTypes)
	if !ok {
		return comptimeError(call.Pos(), "no overload of %q matches argument types %v", call.Callee, argTypes)
	}
	a.result = &CallNode{
		base:   base{pos: call.Pos(), typ: overload.ReturnType},
		Callee: call.Callee,
		Args:   call.Args,
	}
	return nil
}

// VisitAttribute rewrites `obj.name` / `obj.name(args)` into a Call
// against the object's type namespace: a property read becomes
// Call("{obj.type}.name", [obj]); a method call becomes
// Call("{obj.type}.name", [obj, args...]). When the resolved callee's
// overload set was registered with flags.static (a namespace function
// like `Math.floor`, not an instance method), obj is dropped from the
// argument list instead of prepended — obj was still analysed above to
// learn its type, but it never reaches code generation.
func (a *analyser) VisitAttribute(n *AttributeNode) error {
	obj, err := a.analyse(n.Object)
	if err != nil {
		return err
	}
	callee := fmt.Sprintf("%s.%s", obj.Type().Display, n.Name)
	static := false
	for _, o := range a.scope.Overloads.Lookup(callee) {
		if o.Flags.Static {
			static = true
			break
		}
	}
	var args []Node
	if !static {
		args = append(args, obj)
	}
	for _, arg := range n.Args {
		rewritten, err := a.analyse(arg)
		if err != nil {
			return err
		}
		args = append(args, rewritten)
	}
	call := NewCallNode(n.Pos(), callee, args)
	return a.resolveCall(call)
}

// VisitCast rewrites `obj as T` into Call("{obj.type}.to_{T}", [obj]).
func (a *analyser) VisitCast(n *CastNode) error {
	obj, err := a.analyse(n.Object)
	if err != nil {
		return err
	}
	target, err := a.resolveTypeRef(n.Target)
	if err != nil {
		return err
	}
	callee := fmt.Sprintf("%s.to_%s", obj.Type().Display, target.Display)
	call := NewCallNode(n.Pos(), callee, []Node{obj})
	return a.resolveCall(call)
}

func (a *analyser) VisitTernary(n *TernaryNode) error {
	cond, err := a.analyse(n.Cond)
	if err != nil {
		return err
	}
	if !cond.Type().Equal(a.scope.Types.MustGet("bool")) {
		return comptimeError(n.Pos(), "condition is not a boolean")
	}
	then, err := a.analyse(n.Then)
	if err != nil {
		return err
	}
	els, err := a.analyse(n.Else)
	if err != nil {
		return err
	}
	if !then.Type().Equal(els.Type()) {
		return comptimeError(n.Pos(), "ternary branches disagree in type: %s vs %s", then.Type(), els.Type())
	}
	a.result = &TernaryNode{
		base: base{pos: n.Pos(), typ: then.Type()},
		Cond: cond, Then: then, Else: els,
	}
	return nil
}

func (a *analyser) VisitNewArray(n *NewArrayNode) error {
	elemType, err := a.resolveTypeRef(n.ElemType)
	if err != nil {
		return err
	}
	size, err := a.analyse(n.Size)
	if err != nil {
		return err
	}
	a.result = &NewArrayNode{
		base:     base{pos: n.Pos(), typ: elemType.AsPointer()},
		ElemType: n.ElemType,
		Size:     size,
	}
	return nil
}

func (a *analyser) VisitParam(n *ParamNode) error {
	a.result = n
	return nil
}

func (a *analyser) VisitBody(n *BodyNode) error {
	stmts := make([]Node, 0, len(n.Stmts))
	for _, stmt := range n.Stmts {
		rewritten, err := a.analyse(stmt)
		if err != nil {
			return err
		}
		stmts = append(stmts, rewritten)
	}
	a.result = NewBodyNode(n.Pos(), stmts)
	return nil
}

// VisitVariable resolves a `let`/`let mut` declaration. A re-declaration
// of a binding already visible in the current scope (including one
// inherited from an enclosing scope by Clone), with an initializer
// provided, is rewritten to an assignment instead of shadowing it with
// a second symbol-table entry — and is rejected if the existing binding
// isn't mutable. A re-declaration with no initializer (or a fresh name)
// just introduces a new binding.
func (a *analyser) VisitVariable(n *VariableNode) error {
	var value Node
	var err error
	if n.Value != nil {
		value, err = a.analyse(n.Value)
		if err != nil {
			return err
		}
	}
	typ := anyType(a.scope.Types)
	if n.Declared != nil {
		typ, err = a.resolveTypeRef(n.Declared)
		if err != nil {
			return err
		}
	} else if value != nil {
		typ = value.Type()
	}

	if existing, ok := a.scope.Lookup(n.Name); ok && value != nil {
		if !existing.IsMutable {
			return comptimeError(n.Pos(), "%q is immutable", n.Name)
		}
		a.result = &AssignmentNode{base: base{pos: n.Pos(), typ: typ}, Name: n.Name, Value: value}
		return nil
	}

	a.scope.Symbols.Set(&Symbol{Name: n.Name, Typ: typ, IsMutable: n.IsMutable})
	a.result = &VariableNode{
		base:      base{pos: n.Pos(), typ: typ},
		Name:      n.Name,
		Declared:  n.Declared,
		Value:     value,
		IsMutable: n.IsMutable,
	}
	return nil
}

func (a *analyser) VisitAssignment(n *AssignmentNode) error {
	sym, ok := a.scope.Lookup(n.Name)
	if !ok {
		return comptimeError(n.Pos(), "assignment to undeclared name %q", n.Name)
	}
	if !sym.IsMutable {
		return comptimeError(n.Pos(), "%q is not declared mut", n.Name)
	}
	value, err := a.analyse(n.Value)
	if err != nil {
		return err
	}
	a.result = &AssignmentNode{base: base{pos: n.Pos(), typ: sym.Typ}, Name: n.Name, Value: value}
	return nil
}

// VisitFunction analyses a function body in a child scope seeded with
// its parameters. The signature itself was already registered
// by VisitProgram's pre-pass, so only the body needs resolving here.
func (a *analyser) VisitFunction(n *FunctionNode) error {
	bodyScope := a.scope.Clone()
	params := make([]*ParamNode, 0, len(n.Params))
	for _, p := range n.Params {
		typ, err := a.resolveTypeRef(p.Declared)
		if err != nil {
			return err
		}
		bodyScope.Symbols.Set(&Symbol{Name: p.Name, Typ: typ, IsMutable: p.IsMutable})
		params = append(params, &ParamNode{
			base:      base{pos: p.Pos(), typ: typ},
			Name:      p.Name,
			Declared:  p.Declared,
			IsMutable: p.IsMutable,
		})
	}
	child := &analyser{scope: bodyScope}
	body, err := child.analyseBody(n.Body)
	if err != nil {
		return err
	}
	a.result = NewFunctionNode(n.Pos(), n.Name, params, n.ReturnType, body, n.Flags)
	return nil
}

func (a *analyser) VisitReturn(n *ReturnNode) error {
	var value Node
	var err error
	if n.Value != nil {
		value, err = a.analyse(n.Value)
		if err != nil {
			return err
		}
	}
	a.result = NewReturnNode(n.Pos(), value)
	return nil
}

func (a *analyser) VisitComment(n *CommentNode) error {
	a.result = n
	return nil
}

func (a *analyser) VisitElif(n *ElifNode) error {
	cond, err := a.analyse(n.Cond)
	if err != nil {
		return err
	}
	if !cond.Type().Equal(a.scope.Types.MustGet("bool")) {
		return comptimeError(n.Pos(), "condition is not a boolean")
	}
	body, err := a.analyseBody(n.Body)
	if err != nil {
		return err
	}
	a.result = NewElifNode(n.Pos(), cond, body)
	return nil
}

func (a *analyser) VisitIf(n *IfNode) error {
	cond, err := a.analyse(n.Cond)
	if err != nil {
		return err
	}
	if !cond.Type().Equal(a.scope.Types.MustGet("bool")) {
		return comptimeError(n.Pos(), "condition is not a boolean")
	}
	body, err := a.analyseBody(n.Body)
	if err != nil {
		return err
	}
	elifs := make([]*ElifNode, 0, len(n.Elifs))
	for _, elif := range n.Elifs {
		rewritten, err := a.analyse(elif)
		if err != nil {
			return err
		}
		elifs = append(elifs, rewritten.(*ElifNode))
	}
	var elseBody *BodyNode
	if n.ElseBody != nil {
		elseBody, err = a.analyseBody(n.ElseBody)
		if err != nil {
			return err
		}
	}
	a.result = NewIfNode(n.Pos(), cond, body, elifs, elseBody)
	return nil
}

func (a *analyser) VisitWhile(n *WhileNode) error {
	cond, err := a.analyse(n.Cond)
	if err != nil {
		return err
	}
	if !cond.Type().Equal(a.scope.Types.MustGet("bool")) {
		return comptimeError(n.Pos(), "condition is not a boolean")
	}
	body, err := a.analyseBody(n.Body)
	if err != nil {
		return err
	}
	a.result = NewWhileNode(n.Pos(), cond, body)
	return nil
}
