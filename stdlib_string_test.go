package cure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdlibString_LengthUsesSecondField(t *testing.T) {
	ir := compileSource(t, `func f(s: string) -> int { return s.length }`)
	assert.Contains(t, ir, "extractvalue")
}

func TestStdlibString_GetCallsStringNewWithLengthOne(t *testing.T) {
	ir := compileSource(t, `func f(s: string) -> string { return s.get(0) }`)
	assert.Contains(t, ir, "@string.new_pointer_int(")
	assert.Contains(t, ir, "getelementptr")
}

func TestStdlibString_ConcatenationCallsAddString(t *testing.T) {
	ir := compileSource(t, `func f(a: string, b: string) -> string { return a + b }`)
	assert.Contains(t, ir, "@string.add_string_string_string(")
}

func TestStdlibString_EqualityCallsMemcmp(t *testing.T) {
	ir := compileSource(t, `func f(a: string, b: string) -> bool { return a == b }`)
	assert.True(t, strings.Contains(ir, "@memcmp("))
}

func TestStdlibString_ParseIntCallsStrtol(t *testing.T) {
	ir := compileSource(t, `func f(s: string) -> int { return s.parse_int() }`)
	assert.Contains(t, ir, "@strtol(")
}

func TestStdlibString_ParseFloatCallsStrtod(t *testing.T) {
	ir := compileSource(t, `func f(s: string) -> float { return s.parse_float() }`)
	assert.Contains(t, ir, "@strtod(")
}
