package cure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdlibToplevel_ErrorPutsThenExits(t *testing.T) {
	ir := compileSource(t, `func f(msg: string) { error(msg) }`)
	assert.Contains(t, ir, "@puts(")
	assert.Contains(t, ir, "@exit(")
}

func TestStdlibToplevel_PrintDispatchesToStringAndDecsTemp(t *testing.T) {
	ir := compileSource(t, `func f(x: int) { print(x) }`)
	assert.Contains(t, ir, "@puts(")
	assert.Contains(t, ir, "Ref.dec")
}

func TestStdlibToplevel_PrintLiteralUsesPrintfDirectly(t *testing.T) {
	ir := compileSource(t, `func f(s: string) { print_literal(s) }`)
	assert.Contains(t, ir, "@printf(")
}

func TestStdlibToplevel_InputWithPromptCallsInputWithoutArgs(t *testing.T) {
	ir := compileSource(t, `func f() -> string { return input("name: ") }`)
	assert.Contains(t, ir, "@fgets(")
	assert.Contains(t, ir, "@printf(")
}
