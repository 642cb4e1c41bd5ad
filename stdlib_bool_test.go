package cure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdlibBool_AndUsesBitwiseAnd(t *testing.T) {
	ir := compileSource(t, `func f(a: bool, b: bool) -> bool { return a && b }`)
	assert.Contains(t, ir, "and i1")
}

func TestStdlibBool_OrUsesBitwiseOr(t *testing.T) {
	ir := compileSource(t, `func f(a: bool, b: bool) -> bool { return a || b }`)
	assert.Contains(t, ir, "or i1")
}

func TestStdlibBool_NotUsesXorWithTrue(t *testing.T) {
	ir := compileSource(t, `func f(a: bool) -> bool { return !a }`)
	assert.Contains(t, ir, "xor i1")
}

func TestStdlibBool_ToStringPicksBetweenLiterals(t *testing.T) {
	ir := compileSource(t, `func f(a: bool) -> string { return a.to_string() }`)
	assert.Contains(t, ir, "phi i8*")
}
