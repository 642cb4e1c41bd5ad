package cure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdlibMath_PiIsAFloatConstant(t *testing.T) {
	ir := compileSource(t, `func f() -> float { return Math.pi }`)
	assert.Contains(t, ir, "ret float")
}

func TestStdlibMath_FloorCallsFloorf(t *testing.T) {
	ir := compileSource(t, `func f(x: float) -> int { return Math.floor(x) }`)
	assert.Contains(t, ir, "@floorf(")
}

func TestStdlibMath_SqrtOverloadsByArgType(t *testing.T) {
	floatIR := compileSource(t, `func f(x: float) -> float { return Math.sqrt(x) }`)
	intIR := compileSource(t, `func f(x: int) -> int { return Math.sqrt(x) }`)
	assert.Contains(t, floatIR, "@sqrtf(")
	assert.Contains(t, intIR, "@sqrtf(")
	assert.Contains(t, intIR, "sitofp")
	assert.Contains(t, intIR, "fptosi")
}

func TestStdlibMath_PowCallsPowf(t *testing.T) {
	ir := compileSource(t, `func f(a: float, b: float) -> float { return Math.pow(a, b) }`)
	assert.Contains(t, ir, "@powf(")
}
