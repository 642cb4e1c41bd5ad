package cure

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// DefinitionContext is the facade the code generator hands to a
// library-authored function body. It bundles everything the
// callback needs to emit instructions without reaching into the
// generator's own internals: the module and block to build into, the
// C-ABI registry, and the concrete parameter values/types the overload
// was instantiated with.
type DefinitionContext struct {
	Pos        Position
	Scope      *Scope
	Module     *ir.Module
	Builder    *ir.Block
	CABI       *CABI
	Params     []value.Value
	ParamTypes []*Type
	ReturnType *Type

	gen *Generator
}

// Param returns the value/type pair for the parameter at the given
// 0-based index or declared name. Library-authored overloads never
// declare a `mut` parameter (only user Cure functions do, and those are
// lowered by the generator's own emitUserBody), so no spill
// indirection is needed here — the value handed back is exactly what
// the caller passed.
func (ctx *DefinitionContext) Param(nameOrIndex any) (value.Value, *Type) {
	switch k := nameOrIndex.(type) {
	case int:
		return ctx.Params[k], ctx.ParamTypes[k]
	case string:
		for i, p := range ctx.gen.currentParamNames {
			if p == k {
				return ctx.Params[i], ctx.ParamTypes[i]
			}
		}
	}
	panic(fmt.Sprintf("cure: no such parameter %v", nameOrIndex))
}

// Call forwards to the generator's own overload dispatch, compiling
// (or reusing the cached compilation of) name's best-matching overload
// and emitting a call to it with args.
func (ctx *DefinitionContext) Call(name string, argTypes []*Type, args ...value.Value) (value.Value, error) {
	return ctx.gen.emitCall(ctx.Builder, name, argTypes, args)
}

// CallOn is Call against an explicit block, for a body that has already
// branched away from ctx.Builder (e.g. one arm of a diamond) but hasn't
// called SetBlock yet.
func (ctx *DefinitionContext) CallOn(block *ir.Block, name string, argTypes []*Type, args ...value.Value) (value.Value, error) {
	return ctx.gen.emitCall(block, name, argTypes, args)
}

// SetBlock repoints both ctx.Builder and the generator's own notion of
// the active block — a library body that branches into its own diamond
// (Ref.dec's free-vs-keep split, string.get's bounds check) must call
// this once it reaches the block subsequent instructions belong in, so
// the caller sees the right terminator state once the callback returns.
func (ctx *DefinitionContext) SetBlock(b *ir.Block) {
	ctx.Builder = b
	ctx.gen.block = b
}

// Error emits a call to the top-level `error(string)` builtin and marks
// the current path unreachable.
func (ctx *DefinitionContext) Error(message string) error {
	return ctx.gen.emitRuntimeError(ctx.Builder, message)
}

// ErrorOn is Error against an explicit block, for a library body
// raising a runtime error from inside an IfThen/IfElse arm before
// calling SetBlock.
func (ctx *DefinitionContext) ErrorOn(block *ir.Block, message string) error {
	return ctx.gen.emitRuntimeError(block, message)
}

// Lib groups a set of library-authored top-level functions under a
// shared installer — the same shape the stdlib kernel uses for
// `error`, `print`, `input` as opposed to a type's own methods.
type Lib struct {
	scope *Scope
}

// NewLib returns a Lib that registers functions into scope's root
// overload table.
func NewLib(scope *Scope) *Lib { return &Lib{scope: scope} }

// Function registers name as a new overload set's primary entry.
func (l *Lib) Function(name string, params []*Type, ret *Type, flags FunctionFlags, body DefinitionBody) {
	l.scope.Overloads.Register(&Overload{
		Name: name, Params: params, ReturnType: ret, Flags: flags, LibBody: body,
	})
}

// Overload registers an additional signature under an existing name.
func (l *Lib) Overload(of string, params []*Type, ret *Type, body DefinitionBody) {
	l.Function(of, params, ret, FunctionFlags{}, body)
}

// LibType registers a type alias backed directly by an existing LLVM
// type, with no struct fields of its own — the shape `int`/`float`/
// `bool` use in the root type map, as distinct from a Class, which
// always carries a struct layout.
func LibType(scope *Scope, display string, backend types.Type) *Type {
	t := NewType(display, backend)
	scope.Types.Set(display, t)
	return t
}

// Class registers a struct-backed type in the type map — the shape
// `string` and `Ref` use — plus a Lib-style
// function registrar scoped to "<Type>.<member>" callee names. When
// managed is true the struct's last field must be a `*Ref`, and the
// type becomes subject to the code generator's RC protocol.
type Class struct {
	*Lib
	Type *Type
}

// NewClass builds an identified LLVM struct type named display with
// the given fields, registers it into scope's type map, and records it
// on scope.NamedStructs so the code generator emits its definition into
// the module ("Ref (runtime struct) — fixed layout"; the same
// applies to every other Class).
func NewClass(scope *Scope, display string, fields []types.Type, managed bool) *Class {
	st := types.NewStruct(fields...)
	st.TypeName = display
	scope.RegisterNamedStruct(st)

	var typ *Type
	if managed {
		typ = NewManagedType(display, st)
	} else {
		typ = NewType(display, st)
	}
	scope.Types.Set(display, typ)
	return &Class{Lib: NewLib(scope), Type: typ}
}

// Method registers name as an instance method: f"{Type}.{name}" taking
// the receiver as its first parameter.
func (c *Class) Method(name string, params []*Type, ret *Type, body DefinitionBody) {
	allParams := append([]*Type{c.Type}, params...)
	c.Function(fmt.Sprintf("%s.%s", c.Type.Display, name), allParams, ret, FunctionFlags{Method: true}, body)
}

// Property registers a zero-argument (besides the receiver), non-static
// instance accessor: f"{Type}.{name}".
func (c *Class) Property(name string, ret *Type, body DefinitionBody) {
	c.Function(fmt.Sprintf("%s.%s", c.Type.Display, name), []*Type{c.Type}, ret,
		FunctionFlags{Property: true, Method: true}, body)
}

// StaticMethod registers a namespace-style function with no implicit
// receiver: f"{Type}.{name}" with flags.static set, so the analyser
// drops the left-hand object from the call's argument list.
func (c *Class) StaticMethod(name string, params []*Type, ret *Type, body DefinitionBody) {
	c.Function(fmt.Sprintf("%s.%s", c.Type.Display, name), params, ret, FunctionFlags{Static: true}, body)
}

// StaticProperty registers a namespace-style property (Math.pi, Math.e)
// with no implicit receiver and no arguments at all.
func (c *Class) StaticProperty(name string, ret *Type, body DefinitionBody) {
	c.Function(fmt.Sprintf("%s.%s", c.Type.Display, name), nil, ret,
		FunctionFlags{Static: true, Property: true}, body)
}

// StaticOverload registers an additional static-method signature under
// an existing namespace name (Math.sqrt(int), Math.pow(int,int)).
func (c *Class) StaticOverload(name string, params []*Type, ret *Type, body DefinitionBody) {
	c.Function(fmt.Sprintf("%s.%s", c.Type.Display, name), params, ret, FunctionFlags{Static: true}, body)
}
