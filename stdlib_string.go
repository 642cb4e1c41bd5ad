package cure

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// installString registers the managed string runtime: a
// struct of (data: byte*, length: i64, ref: Ref*) plus the methods the
// analyser's literal-rewrite, cast-rewrite and binary-op-rewrite paths
// all funnel through (string.new, string.to_string, .length, .get,
// .set, .parse_int, .parse_float, .add_string, .eq_string/.neq_string).
func installString(scope *Scope) {
	refT := scope.Types.MustGet("Ref")
	refPtrBackend := refT.AsPointer().Backend

	c := NewClass(scope, "string", []types.Type{ptrType(), types.I64, refPtrBackend}, true)

	pointerT := scope.Types.MustGet("pointer")
	intT := scope.Types.MustGet("int")
	floatT := scope.Types.MustGet("float")
	boolT := scope.Types.MustGet("bool")
	anyFnT := scope.Types.MustGet("any_function")
	nilT := scope.Types.MustGet("nil")

	c.StaticMethod("new", []*Type{pointerT, intT}, c.Type, stringNewBody(c.Type, pointerT, anyFnT))
	c.Method("to_string", nil, c.Type, stringToStringBody())
	c.Property("length", intT, stringLengthBody(intT))
	c.Method("get", []*Type{intT}, c.Type, stringGetBody(pointerT, intT))
	c.Method("parse_int", nil, intT, stringParseIntBody(intT))
	c.Method("parse_float", nil, floatT, stringParseFloatBody(floatT))
	c.Method("add_string", []*Type{c.Type}, c.Type, stringAddStringBody(pointerT, intT))
	c.Method("eq_string", []*Type{c.Type}, boolT, stringCmpBody(enum.IPredEQ))
	c.Method("neq_string", []*Type{c.Type}, boolT, stringCmpBody(enum.IPredNE))

	// string.set mutates through a pointer receiver, so it's registered
	// directly like Ref's pointer methods rather than through Method's
	// by-value auto-prepend. A surface call `s.set(i, v)` passes the
	// receiver by value and does not match this overload.
	c.Function("string.set", []*Type{c.Type.AsPointer(), intT, c.Type}, nilT, FunctionFlags{Method: true}, stringSetBody(c.Type))
}

func stringNewBody(stringType *Type, pointerT, anyFnT *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		literal, _ := ctx.Param(0)
		lengthParam, _ := ctx.Param(1)
		length64 := castNumeric(ctx.Builder, lengthParam, types.I64)

		one := constant.NewInt(types.I64, 1)
		totLength := ctx.Builder.NewAdd(length64, one)
		raw := ctx.Builder.NewCall(ctx.CABI.Get("malloc"), totLength)
		dataPtr := ctx.Builder.NewBitCast(raw, ptrType())

		ctx.Builder.NewCall(ctx.CABI.Get("memcpy"), dataPtr, literal, length64)

		nullPtr := ctx.Builder.NewGetElementPtr(types.I8, dataPtr, length64)
		ctx.Builder.NewStore(constant.NewInt(types.I8, 0), nullPtr)

		nullFn := constant.NewNull(anyFnT.Backend.(*types.PointerType))
		ref, err := ctx.Call("Ref.new", []*Type{pointerT, anyFnT}, dataPtr, nullFn)
		if err != nil {
			return nil, err
		}

		return buildStructValue(ctx.Builder, stringType.Backend, []value.Value{dataPtr, length64, ref}), nil
	}
}

func stringToStringBody() DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		s, _ := ctx.Param(0)
		return s, nil
	}
}

func stringLengthBody(intT *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		s, _ := ctx.Param(0)
		length := structField(ctx.Builder, s, 1)
		return castNumeric(ctx.Builder, length, intT.Backend), nil
	}
}

func stringGetBody(pointerT, intT *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		s, _ := ctx.Param(0)
		index, _ := ctx.Param(1)

		length := structField(ctx.Builder, s, 1)
		lengthI32 := castNumeric(ctx.Builder, length, types.I32)

		index, err := indexWithWrap(ctx, index, lengthI32)
		if err != nil {
			return nil, err
		}

		ptr := structField(ctx.Builder, s, 0)
		indexPtr := ctx.Builder.NewGetElementPtr(types.I8, ptr, index)
		one := constant.NewInt(intT.Backend.(*types.IntType), 1)
		return ctx.Call("string.new", []*Type{pointerT, intT}, indexPtr, one)
	}
}

func stringSetBody(stringType *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		self, _ := ctx.Param(0)
		index, _ := ctx.Param(1)
		val, _ := ctx.Param(2)

		lengthPtr := gepField(ctx.Builder, stringType.Backend, self, 1)
		length := ctx.Builder.NewLoad(types.I64, lengthPtr)
		lengthI32 := castNumeric(ctx.Builder, length, types.I32)

		index, err := indexWithWrap(ctx, index, lengthI32)
		if err != nil {
			return nil, err
		}

		ptr := gepField(ctx.Builder, stringType.Backend, self, 0)
		dataPtr := ctx.Builder.NewLoad(ptrType(), ptr)
		indexPtr := ctx.Builder.NewGetElementPtr(types.I8, dataPtr, index)

		valuePtr := structField(ctx.Builder, val, 0)
		ctx.Builder.NewStore(valuePtr, indexPtr)
		return nil, nil
	}
}

// indexWithWrap negative-wraps index against lengthI32 via a phi
// merging the wrapped and original values, then raises a runtime error
// if the (possibly wrapped) index is out of bounds.
func indexWithWrap(ctx *DefinitionContext, index, lengthI32 value.Value) (value.Value, error) {
	entryBlock := ctx.Builder
	isNeg := icmp(ctx.Builder, enum.IPredSLT, index, constant.NewInt(types.I32, 0))

	negBlock := ctx.gen.fn.NewBlock("")
	joinBlock := ctx.gen.fn.NewBlock("")
	entryBlock.NewCondBr(isNeg, negBlock, joinBlock)

	wrapped := negBlock.NewAdd(lengthI32, index)
	negBlock.NewBr(joinBlock)

	ctx.SetBlock(joinBlock)
	merged := joinBlock.NewPhi(
		ir.NewIncoming(wrapped, negBlock),
		ir.NewIncoming(index, entryBlock),
	)

	isOOB := icmp(ctx.Builder, enum.IPredSGT, merged, lengthI32)
	if err := ctx.IfThen(isOOB, func(b *ir.Block) error {
		return ctx.ErrorOn(b, "string index out of bounds")
	}); err != nil {
		return nil, err
	}
	return merged, nil
}

func stringParseIntBody(intT *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		s, _ := ctx.Param(0)
		ptr := structField(ctx.Builder, s, 0)
		base := constant.NewInt(types.I32, 10)
		null := constant.NewNull(ptrType().(*types.PointerType))
		parsed := ctx.Builder.NewCall(ctx.CABI.Get("strtol"), ptr, null, base)
		return castNumeric(ctx.Builder, parsed, intT.Backend), nil
	}
}

func stringParseFloatBody(floatT *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		s, _ := ctx.Param(0)
		ptr := structField(ctx.Builder, s, 0)
		null := constant.NewNull(ptrType().(*types.PointerType))
		parsed := ctx.Builder.NewCall(ctx.CABI.Get("strtod"), ptr, null)
		return castNumeric(ctx.Builder, parsed, floatT.Backend), nil
	}
}

func stringAddStringBody(pointerT, intT *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		a, _ := ctx.Param(0)
		b, _ := ctx.Param(1)

		aLen := structField(ctx.Builder, a, 1)
		bLen := structField(ctx.Builder, b, 1)
		totalLength := ctx.Builder.NewAdd(aLen, bLen)

		one := constant.NewInt(types.I64, 1)
		raw := ctx.Builder.NewCall(ctx.CABI.Get("malloc"), ctx.Builder.NewAdd(totalLength, one))
		ptr := ctx.Builder.NewBitCast(raw, ptrType())

		aBuf := structField(ctx.Builder, a, 0)
		bBuf := structField(ctx.Builder, b, 0)
		ctx.Builder.NewCall(ctx.CABI.Get("memcpy"), ptr, aBuf, aLen)

		ptrOffset := ctx.Builder.NewGetElementPtr(types.I8, ptr, aLen)
		ctx.Builder.NewCall(ctx.CABI.Get("memcpy"), ptrOffset, bBuf, bLen)

		nullPos := ctx.Builder.NewGetElementPtr(types.I8, ptr, totalLength)
		ctx.Builder.NewStore(constant.NewInt(types.I8, 0), nullPos)

		totalLengthI32 := castNumeric(ctx.Builder, totalLength, intT.Backend)
		return ctx.Call("string.new", []*Type{pointerT, intT}, ptr, totalLengthI32)
	}
}

// stringCmpBody grounds eq_string/neq_string on a length short-circuit
// followed by memcmp against zero, matching the reference's two
// mirror-image functions but sharing one body parameterized
// on the icmp predicate (IPredEQ for eq_string, IPredNE for neq_string).
// The length check is always "lengths differ" and returns false for
// eq_string, true for neq_string; the predicate itself is applied to
// the memcmp result.
func stringCmpBody(pred enum.IPred) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		a, _ := ctx.Param(0)
		b, _ := ctx.Param(1)

		aLen := structField(ctx.Builder, a, 1)
		bLen := structField(ctx.Builder, b, 1)

		lengthsDiffer := icmp(ctx.Builder, enum.IPredNE, aLen, bLen)
		mismatchResult := constant.NewBool(pred != enum.IPredEQ)

		return nil, ctx.IfElse(lengthsDiffer, func(thenB *ir.Block) error {
			thenB.NewRet(mismatchResult)
			return nil
		}, func(elseB *ir.Block) error {
			aPtr := structField(elseB, a, 0)
			bPtr := structField(elseB, b, 0)
			cmp := elseB.NewCall(ctx.CABI.Get("memcmp"), aPtr, bPtr, aLen)
			result := icmp(elseB, pred, cmp, constant.NewInt(types.I32, 0))
			elseB.NewRet(result)
			return nil
		})
	}
}
