package cure

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// installRef registers the Ref runtime struct and its three methods:
// the reference-count header every managed value carries a *Ref to.
// Ref's own receiver is always a pointer (unlike string's
// by-value receiver), so its methods are registered directly through
// Lib.Function rather than Class.Method/StaticMethod, which assume a
// by-value receiver type.
func installRef(scope *Scope) {
	c := NewClass(scope, "Ref", []types.Type{ptrType(), anyFunctionBackend(), types.I64}, false)
	refPtr := c.Type.AsPointer()
	pointerT := scope.Types.MustGet("pointer")
	anyFnT := scope.Types.MustGet("any_function")
	nilT := scope.Types.MustGet("nil")

	c.Function("Ref.new", []*Type{pointerT, anyFnT}, refPtr, FunctionFlags{Static: true}, refNewBody(c.Type))
	c.Function("Ref.inc", []*Type{refPtr}, nilT, FunctionFlags{Method: true}, refIncBody(c.Type))
	c.Function("Ref.dec", []*Type{refPtr}, nilT, FunctionFlags{Method: true}, refDecBody(c.Type))
}

// refNewBody allocates a Ref struct via malloc, sized by the
// null-GEP/ptrtoint trick, and stores its three fields with an
// initial ref_count of 1.
func refNewBody(refType *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		data, _ := ctx.Param(0)
		destroyFn, _ := ctx.Param(1)

		size := ctx.SizeOf(refType)
		raw := ctx.Builder.NewCall(ctx.CABI.Get("malloc"), size)
		ptr := ctx.Builder.NewBitCast(raw, refType.AsPointer().Backend)

		ctx.Builder.NewStore(data, gepField(ctx.Builder, refType.Backend, ptr, 0))
		ctx.Builder.NewStore(destroyFn, gepField(ctx.Builder, refType.Backend, ptr, 1))
		ctx.Builder.NewStore(constant.NewInt(types.I64, 1), gepField(ctx.Builder, refType.Backend, ptr, 2))
		return ptr, nil
	}
}

func refIncBody(refType *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		self, _ := ctx.Param(0)
		countPtr := gepField(ctx.Builder, refType.Backend, self, 2)
		count := ctx.Builder.NewLoad(types.I64, countPtr)
		newCount := ctx.Builder.NewAdd(count, constant.NewInt(types.I64, 1))
		ctx.Builder.NewStore(newCount, countPtr)
		return nil, nil
	}
}

// refDecBody drops the count; on reaching zero it runs destroy_fn if
// one was installed, else frees data directly, nulls the data slot and
// frees the Ref struct itself.
func refDecBody(refType *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		self, _ := ctx.Param(0)
		countPtr := gepField(ctx.Builder, refType.Backend, self, 2)
		count := ctx.Builder.NewLoad(types.I64, countPtr)
		newCount := ctx.Builder.NewSub(count, constant.NewInt(types.I64, 1))
		ctx.Builder.NewStore(newCount, countPtr)

		isZero := icmp(ctx.Builder, enum.IPredEQ, newCount, constant.NewInt(types.I64, 0))
		err := ctx.IfThen(isZero, func(b *ir.Block) error {
			dataPtr := gepField(b, refType.Backend, self, 0)
			data := b.NewLoad(ptrType(), dataPtr)
			destroyFnPtr := gepField(b, refType.Backend, self, 1)
			destroyFn := b.NewLoad(anyFunctionBackend(), destroyFnPtr)
			nullFn := constant.NewNull(anyFunctionBackend().(*types.PointerType))
			isSet := icmp(b, enum.IPredNE, destroyFn, nullFn)

			if err := ctx.IfElse(isSet, func(then *ir.Block) error {
				then.NewCall(destroyFn, data)
				return nil
			}, func(els *ir.Block) error {
				els.NewCall(ctx.CABI.Get("free"), data)
				return nil
			}); err != nil {
				return err
			}

			ctx.Builder.NewStore(constant.NewNull(types.NewPointer(types.I8)), dataPtr)
			selfBytes := ctx.Builder.NewBitCast(self, types.NewPointer(types.I8))
			ctx.Builder.NewCall(ctx.CABI.Get("free"), selfBytes)
			return nil
		})
		return nil, err
	}
}
