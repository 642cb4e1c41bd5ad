package cure

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// CABI owns the set of externally-linked C functions (and, on Linux, the
// libc stdin global) the code generator may need. Declarations are
// materialised lazily: the first Get for a given name appends an
// external ir.Func (or, for "stdin", an external global) to the
// current module and memoises the result, so a module that never
// touches floats never declares sqrtf.
type CABI struct {
	module *ir.Module
	target Target
	funcs  map[string]*ir.Func
	stdin  *ir.Global
}

func NewCABI(module *ir.Module, target Target) *CABI {
	return &CABI{module: module, target: target, funcs: make(map[string]*ir.Func)}
}

// signatures is the exhaustive set of C-ABI functions Cure's stdlib
// kernel is allowed to call into. Building each lazily from this
// table keeps every declaration's shape in one place instead of
// scattered across the functions that end up calling Get.
func (c *CABI) signature(name string) (ret types.Type, params []*ir.Param, variadic bool) {
	i8ptr := types.NewPointer(types.I8)
	switch name {
	case "snprintf":
		return types.I32, []*ir.Param{
			ir.NewParam("", i8ptr),
			ir.NewParam("", types.I64),
			ir.NewParam("", i8ptr),
		}, true
	case "puts":
		return types.I32, []*ir.Param{ir.NewParam("", i8ptr)}, false
	case "printf":
		return types.I32, []*ir.Param{ir.NewParam("", i8ptr)}, true
	case "exit":
		return types.Void, []*ir.Param{ir.NewParam("", types.I32)}, false
	case "malloc":
		return i8ptr, []*ir.Param{ir.NewParam("", types.I64)}, false
	case "realloc":
		return i8ptr, []*ir.Param{ir.NewParam("", i8ptr), ir.NewParam("", types.I64)}, false
	case "free":
		return types.Void, []*ir.Param{ir.NewParam("", i8ptr)}, false
	case "memcpy":
		return i8ptr, []*ir.Param{
			ir.NewParam("", i8ptr),
			ir.NewParam("", i8ptr),
			ir.NewParam("", types.I64),
		}, false
	case "memcmp":
		return types.I32, []*ir.Param{
			ir.NewParam("", i8ptr),
			ir.NewParam("", i8ptr),
			ir.NewParam("", types.I64),
		}, false
	case "strlen":
		return types.I64, []*ir.Param{ir.NewParam("", i8ptr)}, false
	case "floorf":
		return types.Float, []*ir.Param{ir.NewParam("", types.Float)}, false
	case "ceilf":
		return types.Float, []*ir.Param{ir.NewParam("", types.Float)}, false
	case "powf":
		return types.Float, []*ir.Param{ir.NewParam("", types.Float), ir.NewParam("", types.Float)}, false
	case "sqrtf":
		return types.Float, []*ir.Param{ir.NewParam("", types.Float)}, false
	case "strtol":
		return types.I64, []*ir.Param{
			ir.NewParam("", i8ptr),
			ir.NewParam("", i8ptr),
			ir.NewParam("", types.I32),
		}, false
	case "strtod":
		return types.Double, []*ir.Param{ir.NewParam("", i8ptr), ir.NewParam("", i8ptr)}, false
	case "fgets":
		return i8ptr, []*ir.Param{
			ir.NewParam("", i8ptr),
			ir.NewParam("", types.I32),
			ir.NewParam("", i8ptr),
		}, false
	case "__acrt_iob_func":
		return i8ptr, []*ir.Param{ir.NewParam("", types.I32)}, false
	default:
		panic(fmt.Sprintf("cure: no C-ABI signature registered for %q", name))
	}
}

// Get materialises (on first call) and returns the external
// declaration for name, memoised for every subsequent call.
func (c *CABI) Get(name string) *ir.Func {
	if fn, ok := c.funcs[name]; ok {
		return fn
	}
	ret, params, variadic := c.signature(name)
	fn := c.module.NewFunc(name, ret, params...)
	fn.Sig.Variadic = variadic
	c.funcs[name] = fn
	return fn
}

// Stdin returns a value yielding a FILE* for the C stream functions
// (fgets) to read from. On Windows the vcrt has no exported "stdin"
// symbol; the idiomatic way to fetch it is __acrt_iob_func(0). On
// Linux, stdin is itself an externally-linked global of type
// FILE* (i8*, for our purposes), dereferenced to get the handle.
func (c *CABI) Stdin(block *ir.Block) value.Value {
	if c.target == Windows {
		fn := c.Get("__acrt_iob_func")
		return block.NewCall(fn, constant.NewInt(types.I32, 0))
	}
	if c.stdin == nil {
		// A global with no Init is a declaration: llir/llvm emits it as
		// an external symbol, exactly like the libc headers do.
		c.stdin = c.module.NewGlobal("stdin", types.NewPointer(types.I8))
	}
	return block.NewLoad(types.NewPointer(types.I8), c.stdin)
}
