package cure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseProgram(t *testing.T, src string) *ProgramNode {
	t.Helper()
	p, err := NewParser([]byte(src))
	require.NoError(t, err)
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	return prog
}

func TestParser_Function(t *testing.T) {
	prog := parseProgram(t, `func add(a: int, b: int) -> int { return a + b }`)
	require.Len(t, prog.Stmts, 1)
	fn, ok := prog.Stmts[0].(*FunctionNode)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.False(t, fn.Params[0].IsMutable)
	require.Len(t, fn.Body.Stmts, 1)
	_, ok = fn.Body.Stmts[0].(*ReturnNode)
	assert.True(t, ok)
}

func TestParser_FunctionFlags(t *testing.T) {
	for _, test := range []struct {
		Name string
		Src  string
	}{
		{Name: "static", Src: "static func f() { }"},
		{Name: "extern", Src: "extern func f() { }"},
		{Name: "public", Src: "public func f() { }"},
	} {
		t.Run(test.Name, func(t *testing.T) {
			prog := parseProgram(t, test.Src)
			fn := prog.Stmts[0].(*FunctionNode)
			switch test.Name {
			case "static":
				assert.True(t, fn.Flags.Static)
			case "extern":
				assert.True(t, fn.Flags.Extern)
			case "public":
				assert.True(t, fn.Flags.Public)
			}
		})
	}
}

func TestParser_MutableParam(t *testing.T) {
	prog := parseProgram(t, `func f(mut x: int) { }`)
	fn := prog.Stmts[0].(*FunctionNode)
	assert.True(t, fn.Params[0].IsMutable)
}

func TestParser_LetAndReassignment(t *testing.T) {
	prog := parseProgram(t, `let mut x = 1
x = 2`)
	require.Len(t, prog.Stmts, 2)
	v, ok := prog.Stmts[0].(*VariableNode)
	require.True(t, ok)
	assert.True(t, v.IsMutable)
	assign, ok := prog.Stmts[1].(*AssignmentNode)
	require.True(t, ok)
	assert.Equal(t, "x", assign.Name)
}

func TestParser_IfElifElse(t *testing.T) {
	prog := parseProgram(t, `func f() {
if true { return 1 } elif false { return 2 } else { return 3 }
}`)
	fn := prog.Stmts[0].(*FunctionNode)
	ifNode, ok := fn.Body.Stmts[0].(*IfNode)
	require.True(t, ok)
	require.Len(t, ifNode.Elifs, 1)
	require.NotNil(t, ifNode.ElseBody)
}

func TestParser_While(t *testing.T) {
	prog := parseProgram(t, `func f() { while true { } }`)
	fn := prog.Stmts[0].(*FunctionNode)
	_, ok := fn.Body.Stmts[0].(*WhileNode)
	assert.True(t, ok)
}

func TestParser_BinaryPrecedence(t *testing.T) {
	prog := parseProgram(t, `1 + 2 * 3`)
	top, ok := prog.Stmts[0].(*BinaryOpNode)
	require.True(t, ok)
	assert.Equal(t, "+", top.Op)
	right, ok := top.Right.(*BinaryOpNode)
	require.True(t, ok)
	assert.Equal(t, "*", right.Op)
}

func TestParser_TernaryAndUnary(t *testing.T) {
	prog := parseProgram(t, `!true ? -1 : 2`)
	tern, ok := prog.Stmts[0].(*TernaryNode)
	require.True(t, ok)
	_, ok = tern.Cond.(*UnaryOpNode)
	assert.True(t, ok)
	_, ok = tern.Then.(*UnaryOpNode)
	assert.True(t, ok)
}

func TestParser_AttributeAndCastAndCall(t *testing.T) {
	prog := parseProgram(t, `x.y(1).length as int`)
	cast, ok := prog.Stmts[0].(*CastNode)
	require.True(t, ok)
	attr, ok := cast.Object.(*AttributeNode)
	require.True(t, ok)
	assert.Equal(t, "length", attr.Name)
	assert.False(t, attr.IsCall)

	inner, ok := attr.Object.(*AttributeNode)
	require.True(t, ok)
	assert.Equal(t, "y", inner.Name)
	assert.True(t, inner.IsCall)
	require.Len(t, inner.Args, 1)
}

func TestParser_NewArray(t *testing.T) {
	prog := parseProgram(t, `[int:10]`)
	arr, ok := prog.Stmts[0].(*NewArrayNode)
	require.True(t, ok)
	typ, ok := arr.ElemType.(*TypeNode)
	require.True(t, ok)
	assert.Equal(t, "int", typ.Name)
}

func TestParser_PointerType(t *testing.T) {
	prog := parseProgram(t, `func f(p: *int) { }`)
	fn := prog.Stmts[0].(*FunctionNode)
	_, ok := fn.Params[0].Declared.(*PointerTypeNode)
	assert.True(t, ok)
}

func TestParser_UnexpectedTokenIsCompileError(t *testing.T) {
	_, err := NewParser([]byte(`func f(`))
	require.NoError(t, err)
	p, _ := NewParser([]byte(`func f(`))
	_, err = p.ParseProgram()
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
}
