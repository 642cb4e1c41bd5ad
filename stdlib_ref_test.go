package cure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdlibRef_ReturningManagedValueIncsRefCount(t *testing.T) {
	ir := compileSource(t, `func f(s: string) -> string { return s }`)
	assert.Contains(t, ir, "Ref.inc")
}

func TestStdlibRef_StringLocalDecsOnScopeExit(t *testing.T) {
	ir := compileSource(t, `func f() { let s = "hi" }`)
	assert.Contains(t, ir, "Ref.dec")
}
