package cure

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// installTopLevel registers the free functions every Cure program can
// call without a receiver, grounded on builtins.py: error (puts
// the message then exit(1)), print (dispatches to {T}.to_string, puts
// the result, then manually Ref.decs the temporary string since a
// library body's own locals fall outside the code generator's RC
// bookkeeping), print_literal (printf straight off a string's data
// pointer, no intermediate string.new), and input/input(prompt) (fgets
// into a static buffer, stripping a trailing newline).
func installTopLevel(scope *Scope) {
	l := NewLib(scope)

	stringT := scope.Types.MustGet("string")
	anyT := scope.Types.MustGet("any")
	nilT := scope.Types.MustGet("nil")
	intT := scope.Types.MustGet("int")
	pointerT := scope.Types.MustGet("pointer")
	refT := scope.Types.MustGet("Ref")

	l.Function("error", []*Type{stringT}, nilT, FunctionFlags{Public: true}, errorBody(intT))
	l.Function("print", []*Type{anyT}, nilT, FunctionFlags{Public: true}, printBody(refT))
	l.Function("print_literal", []*Type{stringT}, nilT, FunctionFlags{Public: true}, printLiteralBody())
	l.Function("input", nil, stringT, FunctionFlags{Public: true}, inputBody(pointerT, intT))
	l.Overload("input", []*Type{stringT}, stringT, inputPromptBody())
}

func errorBody(intT *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		message, _ := ctx.Param(0)
		dataPtr := structField(ctx.Builder, message, 0)
		ctx.Builder.NewCall(ctx.CABI.Get("puts"), dataPtr)
		ctx.Builder.NewCall(ctx.CABI.Get("exit"), constant.NewInt(intT.Backend.(*types.IntType), 1))
		return nil, nil
	}
}

// printBody dispatches to the argument's own to_string, puts the
// result, then decrements the temporary string's ref count by hand —
// print is itself a library body, so the generic RC-wrap protocol
// around the call site never gets a chance to clean up this local.
func printBody(refT *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		x, xType := ctx.Param(0)
		callee := xType.Display + ".to_string"
		str, err := ctx.Call(callee, []*Type{xType}, x)
		if err != nil {
			return nil, err
		}

		dataPtr := structField(ctx.Builder, str, 0)
		ctx.Builder.NewCall(ctx.CABI.Get("puts"), dataPtr)

		stringT := ctx.Scope.Types.MustGet("string")
		refIdx := stringT.RefFieldIndex()
		ref := structField(ctx.Builder, str, refIdx)
		if _, err := ctx.Call("Ref.dec", []*Type{refT.AsPointer()}, ref); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

func printLiteralBody() DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		x, _ := ctx.Param(0)
		dataPtr := structField(ctx.Builder, x, 0)
		ctx.Builder.NewCall(ctx.CABI.Get("printf"), dataPtr)
		return nil, nil
	}
}

func inputBody(pointerT, intT *Type) DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		const bufSize = 256
		buf := ctx.StaticBuffer(bufSize)
		sizeConst := constant.NewInt(types.I32, bufSize)
		stdin := ctx.CABI.Stdin(ctx.Builder)
		ctx.Builder.NewCall(ctx.CABI.Get("fgets"), buf, sizeConst, stdin)

		inputLen := ctx.Builder.NewCall(ctx.CABI.Get("strlen"), buf)
		lenMinusOne := ctx.Builder.NewSub(inputLen, constant.NewInt(types.I64, 1))
		lastCharPtr := ctx.Builder.NewGetElementPtr(types.I8, buf, lenMinusOne)
		lastChar := ctx.Builder.NewLoad(types.I8, lastCharPtr)
		isNewline := icmp(ctx.Builder, enum.IPredEQ, lastChar, constant.NewInt(types.I8, int64('\n')))

		entryBlock := ctx.Builder
		newlineBlock := ctx.gen.fn.NewBlock("")
		joinBlock := ctx.gen.fn.NewBlock("")
		entryBlock.NewCondBr(isNewline, newlineBlock, joinBlock)

		newlineBlock.NewStore(constant.NewInt(types.I8, 0), lastCharPtr)
		strippedLen := newlineBlock.NewSub(inputLen, constant.NewInt(types.I64, 1))
		newlineBlock.NewBr(joinBlock)

		ctx.SetBlock(joinBlock)
		finalLen := joinBlock.NewPhi(
			ir.NewIncoming(strippedLen, newlineBlock),
			ir.NewIncoming(inputLen, entryBlock),
		)

		lenI32 := castNumeric(ctx.Builder, finalLen, intT.Backend)
		return ctx.Call("string.new", []*Type{pointerT, intT}, buf, lenI32)
	}
}

func inputPromptBody() DefinitionBody {
	return func(ctx *DefinitionContext) (value.Value, error) {
		prompt, _ := ctx.Param(0)
		fmtPtr := ctx.GlobalCString("%s")
		promptPtr := structField(ctx.Builder, prompt, 0)
		ctx.Builder.NewCall(ctx.CABI.Get("printf"), fmtPtr, promptPtr)
		return ctx.Call("input", nil)
	}
}
