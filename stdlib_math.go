package cure

import (
	"math"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// installMath registers the Math namespace, grounded on
// Math.py: pi/e as static float properties, floor/ceil/sqrt/pow backed
// by the libm single-precision externs, with sqrt and pow additionally
// overloaded against int arguments by casting through float.
func installMath(scope *Scope) {
	mathType := LibType(scope, "Math", types.NewStruct())
	c := &Class{Lib: NewLib(scope), Type: mathType}

	floatT := scope.Types.MustGet("float")
	intT := scope.Types.MustGet("int")

	c.StaticProperty("pi", floatT, mathConstBody(math.Pi))
	c.StaticProperty("e", floatT, mathConstBody(math.E))

	c.StaticMethod("floor", []*Type{floatT}, intT, mathRoundBody("floorf", intT))
	c.StaticMethod("ceil", []*Type{floatT}, intT, mathRoundBody("ceilf", intT))

	c.StaticMethod("sqrt", []*Type{floatT}, floatT, mathSqrtFloatBody())
	c.StaticOverload("sqrt", []*Type{intT}, intT, mathSqrtIntBody(intT))

	c.StaticMethod("pow", []*Type{floatT, floatT}, floatT, mathPowFloatBody())
	c.StaticOverload("pow", []*Type{intT, intT}, intT, mathPowIntBody(intT))
}

func mathConstBody(v float64) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		return constant.NewFloat(types.Float, v), nil
	}
}

func mathRoundBody(fn string, intT *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		arg, _ := ctx.Param(0)
		rounded := ctx.Builder.NewCall(ctx.CABI.Get(fn), arg)
		return castNumeric(ctx.Builder, rounded, intT.Backend), nil
	}
}

func mathSqrtFloatBody() DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		arg, _ := ctx.Param(0)
		return ctx.Builder.NewCall(ctx.CABI.Get("sqrtf"), arg), nil
	}
}

func mathSqrtIntBody(intT *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		arg, _ := ctx.Param(0)
		asFloat := castNumeric(ctx.Builder, arg, types.Float)
		result := ctx.Builder.NewCall(ctx.CABI.Get("sqrtf"), asFloat)
		return castNumeric(ctx.Builder, result, intT.Backend), nil
	}
}

func mathPowFloatBody() DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		base, _ := ctx.Param(0)
		exponent, _ := ctx.Param(1)
		return ctx.Builder.NewCall(ctx.CABI.Get("powf"), base, exponent), nil
	}
}

func mathPowIntBody(intT *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		base, _ := ctx.Param(0)
		exponent, _ := ctx.Param(1)
		baseF := castNumeric(ctx.Builder, base, types.Float)
		expF := castNumeric(ctx.Builder, exponent, types.Float)
		result := ctx.Builder.NewCall(ctx.CABI.Get("powf"), baseF, expF)
		return castNumeric(ctx.Builder, result, intT.Backend), nil
	}
}
