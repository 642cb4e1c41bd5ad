package cure

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// installFloat mirrors installInt against float.py: to_string via a
// 64-byte snprintf buffer, to_int via fptosi, the five arithmetic ops
// with div/mod guarded against a zero right-hand side, the six ordered
// comparisons,
// and the unary negation the analyser's "-" rewrite needs.
func installFloat(scope *Scope) {
	c := &Class{Lib: NewLib(scope), Type: scope.Types.MustGet("float")}
	pointerT := scope.Types.MustGet("pointer")
	intT := scope.Types.MustGet("int")
	floatT := c.Type
	stringT := scope.Types.MustGet("string")
	boolT := scope.Types.MustGet("bool")

	c.Method("to_string", nil, stringT, floatToStringBody(pointerT, intT))
	c.Method("to_int", nil, intT, numCastBody(intBackend()))

	c.Method("add_float", []*Type{floatT}, floatT, floatBinOpBody(func(b *ir.Block, a, y value.Value) value.Value { return b.NewFAdd(a, y) }))
	c.Method("sub_float", []*Type{floatT}, floatT, floatBinOpBody(func(b *ir.Block, a, y value.Value) value.Value { return b.NewFSub(a, y) }))
	c.Method("mul_float", []*Type{floatT}, floatT, floatBinOpBody(func(b *ir.Block, a, y value.Value) value.Value { return b.NewFMul(a, y) }))
	c.Method("div_float", []*Type{floatT}, floatT, floatDivModBody("division by zero", func(b *ir.Block, a, y value.Value) value.Value { return b.NewFDiv(a, y) }))
	c.Method("mod_float", []*Type{floatT}, floatT, floatDivModBody("modulo by zero", func(b *ir.Block, a, y value.Value) value.Value { return b.NewFRem(a, y) }))

	c.Method("eq_float", []*Type{floatT}, boolT, floatCmpBody(enum.FPredOEQ))
	c.Method("neq_float", []*Type{floatT}, boolT, floatCmpBody(enum.FPredONE))
	c.Method("lt_float", []*Type{floatT}, boolT, floatCmpBody(enum.FPredOLT))
	c.Method("gt_float", []*Type{floatT}, boolT, floatCmpBody(enum.FPredOGT))
	c.Method("lte_float", []*Type{floatT}, boolT, floatCmpBody(enum.FPredOLE))
	c.Method("gte_float", []*Type{floatT}, boolT, floatCmpBody(enum.FPredOGE))

	c.Method("sub", nil, floatT, floatNegBody())
}

func floatToStringBody(pointerT, intT *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		f, _ := ctx.Param(0)
		const bufSize = 64
		buf := ctx.StaticBuffer(bufSize)
		fmtPtr := ctx.GlobalCString("%f")
		fAsDouble := castNumeric(ctx.Builder, f, types.Double)
		ctx.Builder.NewCall(ctx.CABI.Get("snprintf"), buf, constant.NewInt(types.I64, bufSize), fmtPtr, fAsDouble)
		length := constant.NewInt(intT.Backend.(*types.IntType), bufSize)
		return ctx.Call("string.new", []*Type{pointerT, intT}, buf, length)
	}
}

func floatBinOpBody(op func(*ir.Block, value.Value, value.Value) value.Value) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		a, _ := ctx.Param(0)
		b, _ := ctx.Param(1)
		return op(ctx.Builder, a, b), nil
	}
}

func floatDivModBody(message string, op func(*ir.Block, value.Value, value.Value) value.Value) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		a, _ := ctx.Param(0)
		b, _ := ctx.Param(1)

		isZero := fcmp(ctx.Builder, enum.FPredOEQ, b, constant.NewFloat(types.Float, 0))
		if err := ctx.IfThen(isZero, func(blk *ir.Block) error {
			return ctx.ErrorOn(blk, message)
		}); err != nil {
			return nil, err
		}
		return op(ctx.Builder, a, b), nil
	}
}

func floatCmpBody(pred enum.FPred) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		a, _ := ctx.Param(0)
		b, _ := ctx.Param(1)
		return fcmp(ctx.Builder, pred, a, b), nil
	}
}

func floatNegBody() DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		x, _ := ctx.Param(0)
		return ctx.Builder.NewFSub(constant.NewFloat(types.Float, 0), x), nil
	}
}
