package cure

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// installBool mirrors bool.py: to_string via a ternary pick between
// the "true"/"false" global strings, the logical combinators, and
// not_ for the analyser's "!" unary rewrite.
func installBool(scope *Scope) {
	c := &Class{Lib: NewLib(scope), Type: scope.Types.MustGet("bool")}
	pointerT := scope.Types.MustGet("pointer")
	intT := scope.Types.MustGet("int")
	boolT := c.Type
	stringT := scope.Types.MustGet("string")

	c.Method("to_string", nil, stringT, boolToStringBody(pointerT, intT))
	c.Method("eq_bool", []*Type{boolT}, boolT, boolBinOpBody(func(b *ir.Block, a, y value.Value) value.Value { return icmp(b, enum.IPredEQ, a, y) }))
	c.Method("neq_bool", []*Type{boolT}, boolT, boolBinOpBody(func(b *ir.Block, a, y value.Value) value.Value { return icmp(b, enum.IPredNE, a, y) }))
	c.Method("and_bool", []*Type{boolT}, boolT, boolBinOpBody(func(b *ir.Block, a, y value.Value) value.Value { return b.NewAnd(a, y) }))
	c.Method("or_bool", []*Type{boolT}, boolT, boolBinOpBody(func(b *ir.Block, a, y value.Value) value.Value { return b.NewOr(a, y) }))
	c.Method("not_", nil, boolT, boolNotBody())
}

func boolToStringBody(pointerT, intT *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		b, _ := ctx.Param(0)

		trueStr := ctx.GlobalCString("true")
		falseStr := ctx.GlobalCString("false")
		ptr := ctx.Ternary(b, trueStr, falseStr)

		trueLen := constant.NewInt(types.I32, 4)
		falseLen := constant.NewInt(types.I32, 5)
		length := ctx.Ternary(b, trueLen, falseLen)

		return ctx.Call("string.new", []*Type{pointerT, intT}, ptr, length)
	}
}

func boolBinOpBody(op func(*ir.Block, value.Value, value.Value) value.Value) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		a, _ := ctx.Param(0)
		b, _ := ctx.Param(1)
		return op(ctx.Builder, a, b), nil
	}
}

func boolNotBody() DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		a, _ := ctx.Param(0)
		return ctx.Builder.NewXor(a, constant.NewBool(true)), nil
	}
}
