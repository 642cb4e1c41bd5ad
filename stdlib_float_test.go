package cure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdlibFloat_DivisionGuardsZero(t *testing.T) {
	ir := compileSource(t, `func f(a: float, b: float) -> float { return a / b }`)
	assert.Contains(t, ir, "fdiv")
	assert.Contains(t, ir, "fcmp oeq float")
}

func TestStdlibFloat_ComparisonUsesOrderedPredicate(t *testing.T) {
	ir := compileSource(t, `func f(a: float, b: float) -> bool { return a > b }`)
	assert.Contains(t, ir, "fcmp ogt float")
}

func TestStdlibFloat_ToIntUsesFptosi(t *testing.T) {
	ir := compileSource(t, `func f(a: float) -> int { return a as int }`)
	assert.Contains(t, ir, "fptosi")
}

func TestStdlibFloat_UnaryNegationSubtractsFromZero(t *testing.T) {
	ir := compileSource(t, `func f(a: float) -> float { return -a }`)
	assert.Contains(t, ir, "fsub float 0")
}
