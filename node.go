package cure

// Node is the tagged-variant union of the IR: every node carries a
// Position and a Type, and accepts a NodeVisitor so passes can dispatch
// on concrete kind without a giant type switch repeated in every pass.
//
// Go has no sum types, so the "tagged union plus exhaustive match" shape
// is realized as one struct per node kind plus a visitor interface with
// one method per kind.
type Node interface {
	Pos() Position
	Type() *Type
	Accept(NodeVisitor) error
}

// NodeVisitor has one method per IR node kind. A pass
// (analyser, code generator) implements it and stores whatever result it
// produces on itself, retrieved by the caller right after Accept
// returns (Visit* returns error; results live on the visitor's own
// state).
type NodeVisitor interface {
	VisitProgram(*ProgramNode) error
	VisitTypeNode(*TypeNode) error
	VisitPointerTypeNode(*PointerTypeNode) error
	VisitInt(*IntNode) error
	VisitFloat(*FloatNode) error
	VisitString(*StringNode) error
	VisitBool(*BoolNode) error
	VisitNil(*NilNode) error
	VisitStringLiteral(*StringLiteralNode) error
	VisitId(*IdNode) error
	VisitBinaryOp(*BinaryOpNode) error
	VisitUnaryOp(*UnaryOpNode) error
	VisitCall(*CallNode) error
	VisitAttribute(*AttributeNode) error
	VisitCast(*CastNode) error
	VisitTernary(*TernaryNode) error
	VisitNewArray(*NewArrayNode) error
	VisitParam(*ParamNode) error
	VisitBody(*BodyNode) error
	VisitVariable(*VariableNode) error
	VisitAssignment(*AssignmentNode) error
	VisitFunction(*FunctionNode) error
	VisitReturn(*ReturnNode) error
	VisitComment(*CommentNode) error
	VisitElif(*ElifNode) error
	VisitIf(*IfNode) error
	VisitWhile(*WhileNode) error
}

type base struct {
	pos Position
	typ *Type
}

func (b base) Pos() Position { return b.pos }
func (b base) Type() *Type   { return b.typ }

func anyType(m *TypeMap) *Type { return m.MustGet("any") }

// ProgramNode is the translation unit: a flat sequence of top-level
// statements (let-bindings, function declarations, expressions).
type ProgramNode struct {
	base
	Stmts []Node
}

func NewProgramNode(pos Position, stmts []Node) *ProgramNode {
	return &ProgramNode{base: base{pos: pos}, Stmts: stmts}
}
func (n *ProgramNode) Accept(v NodeVisitor) error { return v.VisitProgram(n) }

// TypeNode names a type by its display name, as written in a cast
// expression, a parameter annotation, or a return-type position.
type TypeNode struct {
	base
	Name string
}

func NewTypeNode(pos Position, name string) *TypeNode {
	return &TypeNode{base: base{pos: pos}, Name: name}
}
func (n *TypeNode) Accept(v NodeVisitor) error { return v.VisitTypeNode(n) }

// PointerTypeNode wraps a type reference in one level of indirection.
type PointerTypeNode struct {
	base
	Pointee Node
}

func NewPointerTypeNode(pos Position, pointee Node) *PointerTypeNode {
	return &PointerTypeNode{base: base{pos: pos}, Pointee: pointee}
}
func (n *PointerTypeNode) Accept(v NodeVisitor) error { return v.VisitPointerTypeNode(n) }

type IntNode struct {
	base
	Value int64
}

func NewIntNode(pos Position, v int64, t *Type) *IntNode {
	return &IntNode{base: base{pos: pos, typ: t}, Value: v}
}
func (n *IntNode) Accept(v NodeVisitor) error { return v.VisitInt(n) }

type FloatNode struct {
	base
	Value float64
}

func NewFloatNode(pos Position, v float64, t *Type) *FloatNode {
	return &FloatNode{base: base{pos: pos, typ: t}, Value: v}
}
func (n *FloatNode) Accept(v NodeVisitor) error { return v.VisitFloat(n) }

// StringNode is a surface string literal, still holding its raw
// (unquoted) text. The analyser rewrites every StringNode into a
// Call("string.new", [StringLiteral, Int(length)]).
type StringNode struct {
	base
	Value string
}

func NewStringNode(pos Position, v string) *StringNode {
	return &StringNode{base: base{pos: pos}, Value: v}
}
func (n *StringNode) Accept(v NodeVisitor) error { return v.VisitString(n) }

// StringLiteralNode is the backend-facing constant: a pointer to the
// raw bytes placed in the LLVM module as a global string constant. It
// only appears as an argument of a rewritten string.new call.
type StringLiteralNode struct {
	base
	Value string
}

func NewStringLiteralNode(pos Position, v string, t *Type) *StringLiteralNode {
	return &StringLiteralNode{base: base{pos: pos, typ: t}, Value: v}
}
func (n *StringLiteralNode) Accept(v NodeVisitor) error { return v.VisitStringLiteral(n) }

type BoolNode struct {
	base
	Value bool
}

func NewBoolNode(pos Position, v bool, t *Type) *BoolNode {
	return &BoolNode{base: base{pos: pos, typ: t}, Value: v}
}
func (n *BoolNode) Accept(v NodeVisitor) error { return v.VisitBool(n) }

type NilNode struct{ base }

func NewNilNode(pos Position, t *Type) *NilNode {
	return &NilNode{base: base{pos: pos, typ: t}}
}
func (n *NilNode) Accept(v NodeVisitor) error { return v.VisitNil(n) }

// IdNode is an identifier reference, resolved against the symbol table
// or the type map.
type IdNode struct {
	base
	Name string
}

func NewIdNode(pos Position, name string, t *Type) *IdNode {
	return &IdNode{base: base{pos: pos, typ: t}, Name: name}
}
func (n *IdNode) Accept(v NodeVisitor) error { return v.VisitId(n) }

// BinaryOpNode is the surface `lhs OP rhs` form, present only before
// the analyser rewrites it into a Call.
type BinaryOpNode struct {
	base
	Op          string
	Left, Right Node
}

func NewBinaryOpNode(pos Position, op string, l, r Node) *BinaryOpNode {
	return &BinaryOpNode{base: base{pos: pos}, Op: op, Left: l, Right: r}
}
func (n *BinaryOpNode) Accept(v NodeVisitor) error { return v.VisitBinaryOp(n) }

type UnaryOpNode struct {
	base
	Op   string
	Expr Node
}

func NewUnaryOpNode(pos Position, op string, e Node) *UnaryOpNode {
	return &UnaryOpNode{base: base{pos: pos}, Op: op, Expr: e}
}
func (n *UnaryOpNode) Accept(v NodeVisitor) error { return v.VisitUnaryOp(n) }

// CallNode is a direct call by name, both at the parse-tree stage
// (`foo(args)`) and after the analyser rewrites an operator, attribute
// access or cast into one.
type CallNode struct {
	base
	Callee string
	Args   []Node
}

func NewCallNode(pos Position, callee string, args []Node) *CallNode {
	return &CallNode{base: base{pos: pos}, Callee: callee, Args: args}
}
func (n *CallNode) Accept(v NodeVisitor) error { return v.VisitCall(n) }

// AttributeNode is the surface `obj.attr` / `obj.attr(args)` form,
// present only before the analyser resolves and rewrites it.
type AttributeNode struct {
	base
	Object Node
	Name   string
	Args   []Node
	IsCall bool
}

func NewAttributeNode(pos Position, obj Node, name string, args []Node, isCall bool) *AttributeNode {
	return &AttributeNode{base: base{pos: pos}, Object: obj, Name: name, Args: args, IsCall: isCall}
}
func (n *AttributeNode) Accept(v NodeVisitor) error { return v.VisitAttribute(n) }

// CastNode is the surface `obj as T` form, present only before the
// analyser rewrites it to Call("{obj.type}.to_{T}", [obj]).
type CastNode struct {
	base
	Object Node
	Target Node
}

func NewCastNode(pos Position, obj, target Node) *CastNode {
	return &CastNode{base: base{pos: pos}, Object: obj, Target: target}
}
func (n *CastNode) Accept(v NodeVisitor) error { return v.VisitCast(n) }

type TernaryNode struct {
	base
	Cond, Then, Else Node
}

func NewTernaryNode(pos Position, cond, then, els Node) *TernaryNode {
	return &TernaryNode{base: base{pos: pos}, Cond: cond, Then: then, Else: els}
}
func (n *TernaryNode) Accept(v NodeVisitor) error { return v.VisitTernary(n) }

// NewArrayNode allocates a fixed-size buffer of a single element type;
// Cure has no slice/array element operations beyond allocation.
type NewArrayNode struct {
	base
	ElemType Node
	Size     Node
}

func NewNewArrayNode(pos Position, elemType, size Node) *NewArrayNode {
	return &NewArrayNode{base: base{pos: pos}, ElemType: elemType, Size: size}
}
func (n *NewArrayNode) Accept(v NodeVisitor) error { return v.VisitNewArray(n) }

// ParamNode is a function parameter declaration.
type ParamNode struct {
	base
	Name        string
	Declared    Node // TypeNode/PointerTypeNode naming the parameter's type
	IsMutable   bool
}

func NewParamNode(pos Position, name string, declared Node, mutable bool) *ParamNode {
	return &ParamNode{base: base{pos: pos}, Name: name, Declared: declared, IsMutable: mutable}
}
func (n *ParamNode) Accept(v NodeVisitor) error { return v.VisitParam(n) }

// BodyNode is a sequence of statements forming a lexical scope.
type BodyNode struct {
	base
	Stmts []Node
}

func NewBodyNode(pos Position, stmts []Node) *BodyNode {
	return &BodyNode{base: base{pos: pos}, Stmts: stmts}
}
func (n *BodyNode) Accept(v NodeVisitor) error { return v.VisitBody(n) }

// VariableNode is a `let`/`let mut` declaration at the parse-tree
// stage. The analyser turns a re-declaration of an existing mutable
// name into an AssignmentNode instead.
type VariableNode struct {
	base
	Name      string
	Declared  Node // optional type annotation; nil if inferred from Value
	Value     Node // optional initializer; nil for a bare declaration
	IsMutable bool
}

func NewVariableNode(pos Position, name string, declared, value Node, mutable bool) *VariableNode {
	return &VariableNode{base: base{pos: pos}, Name: name, Declared: declared, Value: value, IsMutable: mutable}
}
func (n *VariableNode) Accept(v NodeVisitor) error { return v.VisitVariable(n) }

// AssignmentNode is a re-assignment to an existing mutable binding:
// produced by the parser for `name = value`, and by the analyser when a
// `let` re-declares an existing mutable name.
type AssignmentNode struct {
	base
	Name  string
	Value Node
}

func NewAssignmentNode(pos Position, name string, value Node) *AssignmentNode {
	return &AssignmentNode{base: base{pos: pos}, Name: name, Value: value}
}
func (n *AssignmentNode) Accept(v NodeVisitor) error { return v.VisitAssignment(n) }

// FunctionFlags is the bag of modifiers a Function (or library-authored
// function) may carry.
type FunctionFlags struct {
	Static   bool
	Extern   bool
	Public   bool
	Property bool
	Method   bool
}

type FunctionNode struct {
	base
	Name       string
	Params     []*ParamNode
	ReturnType Node // TypeNode/PointerTypeNode, nil for inferred "nil" return
	Body       *BodyNode
	Flags      FunctionFlags
}

func NewFunctionNode(pos Position, name string, params []*ParamNode, ret Node, body *BodyNode, flags FunctionFlags) *FunctionNode {
	return &FunctionNode{base: base{pos: pos}, Name: name, Params: params, ReturnType: ret, Body: body, Flags: flags}
}
func (n *FunctionNode) Accept(v NodeVisitor) error { return v.VisitFunction(n) }

type ReturnNode struct {
	base
	Value Node // nil for a bare `return`
}

func NewReturnNode(pos Position, value Node) *ReturnNode {
	return &ReturnNode{base: base{pos: pos}, Value: value}
}
func (n *ReturnNode) Accept(v NodeVisitor) error { return v.VisitReturn(n) }

type CommentNode struct {
	base
	Text string
}

func NewCommentNode(pos Position, text string) *CommentNode {
	return &CommentNode{base: base{pos: pos}, Text: text}
}
func (n *CommentNode) Accept(v NodeVisitor) error { return v.VisitComment(n) }

type ElifNode struct {
	base
	Cond Node
	Body *BodyNode
}

func NewElifNode(pos Position, cond Node, body *BodyNode) *ElifNode {
	return &ElifNode{base: base{pos: pos}, Cond: cond, Body: body}
}
func (n *ElifNode) Accept(v NodeVisitor) error { return v.VisitElif(n) }

type IfNode struct {
	base
	Cond     Node
	Body     *BodyNode
	Elifs    []*ElifNode
	ElseBody *BodyNode // nil if there's no else clause
}

func NewIfNode(pos Position, cond Node, body *BodyNode, elifs []*ElifNode, elseBody *BodyNode) *IfNode {
	return &IfNode{base: base{pos: pos}, Cond: cond, Body: body, Elifs: elifs, ElseBody: elseBody}
}
func (n *IfNode) Accept(v NodeVisitor) error { return v.VisitIf(n) }

type WhileNode struct {
	base
	Cond Node
	Body *BodyNode
}

func NewWhileNode(pos Position, cond Node, body *BodyNode) *WhileNode {
	return &WhileNode{base: base{pos: pos}, Cond: cond, Body: body}
}
func (n *WhileNode) Accept(v NodeVisitor) error { return v.VisitWhile(n) }
