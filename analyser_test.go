package cure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyseSource(t *testing.T, src string) (*ProgramNode, error) {
	t.Helper()
	p, err := NewParser([]byte(src))
	require.NoError(t, err)
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	scope := NewRootScope("test.cure", []byte(src), Linux)
	InstallStdlib(scope)
	return Analyse(prog, scope)
}

func TestAnalyser_IntLiteralGetsTyped(t *testing.T) {
	prog, err := analyseSource(t, `1`)
	require.NoError(t, err)
	n := prog.Stmts[0].(*IntNode)
	assert.Equal(t, "int", n.Type().Display)
}

func TestAnalyser_IntLiteralOutOfRange(t *testing.T) {
	_, err := analyseSource(t, `99999999999`)
	require.Error(t, err)
}

func TestAnalyser_StringLiteralRewritesToStringNew(t *testing.T) {
	prog, err := analyseSource(t, `"hi"`)
	require.NoError(t, err)
	call, ok := prog.Stmts[0].(*CallNode)
	require.True(t, ok)
	assert.Equal(t, "string.new", call.Callee)
	assert.Equal(t, "string", call.Type().Display)
}

func TestAnalyser_BinaryOpRewritesToCall(t *testing.T) {
	prog, err := analyseSource(t, `1 + 2`)
	require.NoError(t, err)
	call, ok := prog.Stmts[0].(*CallNode)
	require.True(t, ok)
	assert.Equal(t, "int.add_int", call.Callee)
	assert.Equal(t, "int", call.Type().Display)
}

func TestAnalyser_UnaryOpRewritesToCall(t *testing.T) {
	prog, err := analyseSource(t, `-1`)
	require.NoError(t, err)
	call, ok := prog.Stmts[0].(*CallNode)
	require.True(t, ok)
	assert.Equal(t, "int.sub", call.Callee)
}

func TestAnalyser_UndefinedIdentifier(t *testing.T) {
	_, err := analyseSource(t, `x`)
	require.Error(t, err)
}

func TestAnalyser_NamespaceAttributeIsStatic(t *testing.T) {
	prog, err := analyseSource(t, `Math.pi`)
	require.NoError(t, err)
	call, ok := prog.Stmts[0].(*CallNode)
	require.True(t, ok)
	assert.Equal(t, "Math.pi", call.Callee)
	require.Len(t, call.Args, 0)
}

func TestAnalyser_CastRewritesToCall(t *testing.T) {
	prog, err := analyseSource(t, `1 as float`)
	require.NoError(t, err)
	call, ok := prog.Stmts[0].(*CallNode)
	require.True(t, ok)
	assert.Equal(t, "int.to_float", call.Callee)
	assert.Equal(t, "float", call.Type().Display)
}

func TestAnalyser_TernaryTypeMismatch(t *testing.T) {
	_, err := analyseSource(t, `true ? 1 : 1.0`)
	require.Error(t, err)
}

func TestAnalyser_TernaryOk(t *testing.T) {
	prog, err := analyseSource(t, `true ? 1 : 2`)
	require.NoError(t, err)
	tern := prog.Stmts[0].(*TernaryNode)
	assert.Equal(t, "int", tern.Type().Display)
}

func TestAnalyser_NonBooleanCondition(t *testing.T) {
	_, err := analyseSource(t, `func f() { if 1 { } }`)
	require.Error(t, err)
}

func TestAnalyser_LetAndMutableReassignment(t *testing.T) {
	prog, err := analyseSource(t, `let mut x = 1
x = 2`)
	require.NoError(t, err)
	require.Len(t, prog.Stmts, 2)
	_, ok := prog.Stmts[1].(*AssignmentNode)
	assert.True(t, ok)
}

func TestAnalyser_ReassignImmutableFails(t *testing.T) {
	_, err := analyseSource(t, `let x = 1
x = 2`)
	require.Error(t, err)
}

func TestAnalyser_RedeclareImmutableFails(t *testing.T) {
	_, err := analyseSource(t, `let x = 1
let x = 2`)
	require.Error(t, err)
}

func TestAnalyser_RedeclareMutableRewritesToAssignment(t *testing.T) {
	prog, err := analyseSource(t, `let mut x = 1
let x = 2`)
	require.NoError(t, err)
	require.Len(t, prog.Stmts, 2)
	_, ok := prog.Stmts[1].(*AssignmentNode)
	assert.True(t, ok)
}

func TestAnalyser_RedeclareWithoutInitializerShadows(t *testing.T) {
	prog, err := analyseSource(t, `let x = 1
let x`)
	require.NoError(t, err)
	require.Len(t, prog.Stmts, 2)
	v, ok := prog.Stmts[1].(*VariableNode)
	require.True(t, ok)
	assert.Nil(t, v.Value)
}

func TestAnalyser_AssignUndeclaredFails(t *testing.T) {
	_, err := analyseSource(t, `x = 2`)
	require.Error(t, err)
}

func TestAnalyser_FunctionForwardReference(t *testing.T) {
	_, err := analyseSource(t, `func a() -> int { return b() }
func b() -> int { return 1 }`)
	require.NoError(t, err)
}

func TestAnalyser_NoOverloadMatches(t *testing.T) {
	_, err := analyseSource(t, `1 + "x"`)
	require.Error(t, err)
}
