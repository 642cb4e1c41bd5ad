package cure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdlibInt_DivisionGuardsZero(t *testing.T) {
	ir := compileSource(t, `func f(a: int, b: int) -> int { return a / b }`)
	assert.Contains(t, ir, "sdiv")
	assert.Contains(t, ir, "icmp eq i32")
}

func TestStdlibInt_ModuloUsesSRem(t *testing.T) {
	ir := compileSource(t, `func f(a: int, b: int) -> int { return a % b }`)
	assert.Contains(t, ir, "srem")
}

func TestStdlibInt_ComparisonUsesSignedPredicate(t *testing.T) {
	ir := compileSource(t, `func f(a: int, b: int) -> bool { return a < b }`)
	assert.Contains(t, ir, "icmp slt i32")
}

func TestStdlibInt_ToStringUsesSnprintf(t *testing.T) {
	ir := compileSource(t, `func f(a: int) -> string { return a.to_string() }`)
	assert.Contains(t, ir, "@snprintf(")
}

func TestStdlibInt_ToFloatUsesSitofp(t *testing.T) {
	ir := compileSource(t, `func f(a: int) -> float { return a as float }`)
	assert.Contains(t, ir, "sitofp")
}

func TestStdlibInt_UnaryNegationSubtractsFromZero(t *testing.T) {
	ir := compileSource(t, `func f(a: int) -> int { return -a }`)
	assert.Contains(t, ir, "sub i32 0,")
}
