package cure

import "github.com/llir/llvm/ir/types"

// InstallStdlib populates scope's root type map and overload table with
// the built-in kernel: the primitive type aliases, the Ref runtime, the
// string runtime, the numeric operator sets, Math, and the free
// top-level functions (error, print, input). Every other compile stage
// assumes this has already run against the root scope before user
// source is analysed.
func InstallStdlib(scope *Scope) {
	installRootTypes(scope)
	installRef(scope)
	installString(scope)
	installInt(scope)
	installFloat(scope)
	installBool(scope)
	installMath(scope)
	installTopLevel(scope)
}

// installRootTypes registers the primitive display names directly
// against their LLVM backend representations, with no struct layout of their own — the LibType shape, as
// opposed to the struct-backed Class shape string/Ref use.
func installRootTypes(scope *Scope) {
	i8ptr := ptrType()

	LibType(scope, "nil", i8ptr)
	LibType(scope, "any", i8ptr)
	LibType(scope, "pointer", i8ptr)
	LibType(scope, "function", i8ptr)
	LibType(scope, "int", intBackend())
	LibType(scope, "float", floatBackend())
	LibType(scope, "bool", boolBackend())
	LibType(scope, "any_function", anyFunctionBackend())
}

// ptrType is the universal raw byte pointer backend: nil, any, pointer,
// function and every managed value's data field all lower to it.
func ptrType() types.Type { return types.NewPointer(types.I8) }

func intBackend() types.Type   { return types.I32 }
func floatBackend() types.Type { return types.Float }
func boolBackend() types.Type  { return types.I1 }

// anyFunctionBackend is the destroy_fn shape Ref carries: a pointer to
// a function taking and returning a raw byte pointer ("any_function
// = (byte*)(byte*)*").
func anyFunctionBackend() types.Type {
	fn := types.NewFunc(ptrType(), ptrType())
	return types.NewPointer(fn)
}
