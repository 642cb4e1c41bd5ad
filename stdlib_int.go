package cure

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// installInt registers int's conversions, arithmetic and comparisons,
// grounded on int.py: to_string via a 16-byte snprintf buffer,
// to_float via a plain sitofp, the five arithmetic ops with div/mod
// guarded against a zero right-hand side, the six signed comparisons,
// and the unary negation the analyser's "-" rewrite needs that the
// reference leaves implicit.
func installInt(scope *Scope) {
	c := &Class{Lib: NewLib(scope), Type: scope.Types.MustGet("int")}
	pointerT := scope.Types.MustGet("pointer")
	intT := c.Type
	stringT := scope.Types.MustGet("string")
	boolT := scope.Types.MustGet("bool")

	c.Method("to_string", nil, stringT, intToStringBody(pointerT, intT))
	c.Method("to_float", nil, scope.Types.MustGet("float"), numCastBody(floatBackend()))

	c.Method("add_int", []*Type{intT}, intT, intBinOpBody(func(b *ir.Block, a, y value.Value) value.Value { return b.NewAdd(a, y) }))
	c.Method("sub_int", []*Type{intT}, intT, intBinOpBody(func(b *ir.Block, a, y value.Value) value.Value { return b.NewSub(a, y) }))
	c.Method("mul_int", []*Type{intT}, intT, intBinOpBody(func(b *ir.Block, a, y value.Value) value.Value { return b.NewMul(a, y) }))
	c.Method("div_int", []*Type{intT}, intT, intDivModBody("division by zero", func(b *ir.Block, a, y value.Value) value.Value { return b.NewSDiv(a, y) }))
	c.Method("mod_int", []*Type{intT}, intT, intDivModBody("modulo by zero", func(b *ir.Block, a, y value.Value) value.Value { return b.NewSRem(a, y) }))

	c.Method("eq_int", []*Type{intT}, boolT, intCmpBody(enum.IPredEQ))
	c.Method("neq_int", []*Type{intT}, boolT, intCmpBody(enum.IPredNE))
	c.Method("lt_int", []*Type{intT}, boolT, intCmpBody(enum.IPredSLT))
	c.Method("gt_int", []*Type{intT}, boolT, intCmpBody(enum.IPredSGT))
	c.Method("lte_int", []*Type{intT}, boolT, intCmpBody(enum.IPredSLE))
	c.Method("gte_int", []*Type{intT}, boolT, intCmpBody(enum.IPredSGE))

	c.Method("sub", nil, intT, intNegBody())
}

func intToStringBody(pointerT, intT *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		x, _ := ctx.Param(0)
		const bufSize = 16
		buf := ctx.StaticBuffer(bufSize)
		fmtPtr := ctx.GlobalCString("%d")
		ctx.Builder.NewCall(ctx.CABI.Get("snprintf"), buf, constant.NewInt(types.I64, bufSize), fmtPtr, x)
		length := constant.NewInt(intT.Backend.(*types.IntType), bufSize)
		return ctx.Call("string.new", []*Type{pointerT, intT}, buf, length)
	}
}

func numCastBody(to types.Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		x, _ := ctx.Param(0)
		return castNumeric(ctx.Builder, x, to), nil
	}
}

func intBinOpBody(op func(*ir.Block, value.Value, value.Value) value.Value) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		a, _ := ctx.Param(0)
		b, _ := ctx.Param(1)
		return op(ctx.Builder, a, b), nil
	}
}

func intDivModBody(message string, op func(*ir.Block, value.Value, value.Value) value.Value) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		a, _ := ctx.Param(0)
		b, _ := ctx.Param(1)

		isZero := icmp(ctx.Builder, enum.IPredEQ, b, constant.NewInt(types.I32, 0))
		if err := ctx.IfThen(isZero, func(blk *ir.Block) error {
			return ctx.ErrorOn(blk, message)
		}); err != nil {
			return nil, err
		}
		return op(ctx.Builder, a, b), nil
	}
}

func intCmpBody(pred enum.IPred) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		a, _ := ctx.Param(0)
		b, _ := ctx.Param(1)
		return icmp(ctx.Builder, pred, a, b), nil
	}
}

func intNegBody() DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		x, _ := ctx.Param(0)
		return ctx.Builder.NewSub(constant.NewInt(types.I32, 0), x), nil
	}
}
