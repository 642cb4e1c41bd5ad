package cure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSource(t *testing.T, src string) string {
	t.Helper()
	p, err := NewParser([]byte(src))
	require.NoError(t, err)
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	scope := NewRootScope("test.cure", []byte(src), Linux)
	InstallStdlib(scope)
	prog, err = Analyse(prog, scope)
	require.NoError(t, err)
	mod, err := Compile(prog, scope, Linux)
	require.NoError(t, err)
	return mod.String()
}

func TestCompile_SimpleFunctionEmitsDefine(t *testing.T) {
	ir := compileSource(t, `func add(a: int, b: int) -> int { return a + b }`)
	assert.Contains(t, ir, "define i32 @add_int_int(i32")
	assert.Contains(t, ir, "ret i32")
}

func TestCompile_TernaryEmitsPhi(t *testing.T) {
	ir := compileSource(t, `func f() -> int { return true ? 1 : 2 }`)
	assert.Contains(t, ir, "phi i32")
}

func TestCompile_WhileEmitsLoopBlocks(t *testing.T) {
	ir := compileSource(t, `func f() { while true { } }`)
	assert.Contains(t, ir, "while.cond:")
	assert.Contains(t, ir, "while.body:")
	assert.Contains(t, ir, "while.exit:")
}

func TestCompile_IfElifElseEmitsAllBranches(t *testing.T) {
	ir := compileSource(t, `func f() -> int {
if true { return 1 } elif false { return 2 } else { return 3 }
}`)
	assert.Contains(t, ir, "if.then:")
	assert.Contains(t, ir, "elif.then:")
}

func TestCompile_StringLiteralCallsStringNew(t *testing.T) {
	ir := compileSource(t, `func f() { let s = "hi" }`)
	assert.True(t, strings.Contains(ir, "call") && strings.Contains(ir, "string.new"))
}

func TestCompile_DivisionByZeroGuardEmitted(t *testing.T) {
	ir := compileSource(t, `func f(a: int, b: int) -> int { return a / b }`)
	assert.Contains(t, ir, "division by zero") // int.div_int's zero guard raises this runtime error
}

func TestCompile_ExternFunctionIsNotDefined(t *testing.T) {
	ir := compileSource(t, `extern func foo() -> int { return 1 }
func bar() -> int { return 1 }`)
	assert.NotContains(t, ir, "@foo(")
	assert.Contains(t, ir, "@bar(")
}

func TestCompile_RecursiveFunctionCompilesOnce(t *testing.T) {
	ir := compileSource(t, `func fact(n: int) -> int {
if n <= 1 { return 1 }
return n * fact(n - 1)
}`)
	assert.Equal(t, 1, strings.Count(ir, "define i32 @fact_int("))
}
