package cure

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// gepField computes a pointer to field idx of a struct-typed value
// already behind a pointer — the "self: T*" shape every Ref method and
// string.set use.
func gepField(block *ir.Block, st types.Type, ptr value.Value, idx int) value.Value {
	return block.NewGetElementPtr(st, ptr, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(idx)))
}

// structField extracts field idx directly out of a struct passed by
// value — the shape string's own methods receive their receiver in
// (data, length, ref).
func structField(block *ir.Block, structVal value.Value, idx int) value.Value {
	return block.NewExtractValue(structVal, uint64(idx))
}

// buildStructValue assembles an SSA struct value field by field via a
// chain of insertvalue instructions, starting from an undef of st —
// the by-value counterpart of gepField's by-pointer field access,
// used once string.new has its three field values in hand.
func buildStructValue(block *ir.Block, st types.Type, fields []value.Value) value.Value {
	var v value.Value = constant.NewUndef(st)
	for i, f := range fields {
		v = block.NewInsertValue(v, f, uint64(i))
	}
	return v
}

// castNumeric converts v to the backend type to, covering every
// direction the stdlib kernel's casts need: int widening/narrowing,
// int<->float, float widening/narrowing, and raw pointer bitcasts.
func castNumeric(block *ir.Block, v value.Value, to types.Type) value.Value {
	from := v.Type()
	if from.Equal(to) {
		return v
	}
	switch f := from.(type) {
	case *types.IntType:
		switch t := to.(type) {
		case *types.IntType:
			if f.BitSize < t.BitSize {
				return block.NewSExt(v, t)
			}
			return block.NewTrunc(v, t)
		case *types.FloatType:
			return block.NewSIToFP(v, t)
		case *types.PointerType:
			return block.NewIntToPtr(v, t)
		}
	case *types.FloatType:
		switch t := to.(type) {
		case *types.IntType:
			return block.NewFPToSI(v, t)
		case *types.FloatType:
			if f.Kind < t.Kind {
				return block.NewFPExt(v, t)
			}
			return block.NewFPTrunc(v, t)
		}
	case *types.PointerType:
		switch to.(type) {
		case *types.IntType:
			return block.NewPtrToInt(v, to)
		}
	}
	return block.NewBitCast(v, to)
}

// IfThen runs then against a fresh block reachable only when cond
// holds, then resumes ctx on the join block — the Go counterpart of
// llvmlite's `with builder.if_then(cond):` the reference stdlib uses
// for every bounds/zero check.
func (ctx *DefinitionContext) IfThen(cond value.Value, then func(*ir.Block) error) error {
	thenBlock := ctx.gen.fn.NewBlock("")
	joinBlock := ctx.gen.fn.NewBlock("")
	ctx.Builder.NewCondBr(cond, thenBlock, joinBlock)
	ctx.SetBlock(thenBlock)
	if err := then(thenBlock); err != nil {
		return err
	}
	if ctx.Builder.Term == nil {
		ctx.Builder.NewBr(joinBlock)
	}
	ctx.SetBlock(joinBlock)
	return nil
}

// IfElse is IfThen with both arms populated — Ref.dec's destroy_fn
// null check needs this shape rather than a plain IfThen.
func (ctx *DefinitionContext) IfElse(cond value.Value, then, els func(*ir.Block) error) error {
	thenBlock := ctx.gen.fn.NewBlock("")
	elseBlock := ctx.gen.fn.NewBlock("")
	joinBlock := ctx.gen.fn.NewBlock("")
	ctx.Builder.NewCondBr(cond, thenBlock, elseBlock)

	ctx.SetBlock(thenBlock)
	if err := then(thenBlock); err != nil {
		return err
	}
	thenTerminated := ctx.Builder.Term != nil
	if !thenTerminated {
		ctx.Builder.NewBr(joinBlock)
	}

	ctx.SetBlock(elseBlock)
	if err := els(elseBlock); err != nil {
		return err
	}
	elsTerminated := ctx.Builder.Term != nil
	if !elsTerminated {
		ctx.Builder.NewBr(joinBlock)
	}

	ctx.SetBlock(joinBlock)
	if thenTerminated && elsTerminated {
		joinBlock.NewUnreachable()
	}
	return nil
}

// Ternary builds the diamond-plus-phi shape for a two-value selection
// with no further side effects in either arm — bool.to_string's
// pointer/length pick between "true"/"false".
func (ctx *DefinitionContext) Ternary(cond, thenVal, elseVal value.Value) value.Value {
	thenBlock := ctx.gen.fn.NewBlock("")
	elseBlock := ctx.gen.fn.NewBlock("")
	joinBlock := ctx.gen.fn.NewBlock("")
	ctx.Builder.NewCondBr(cond, thenBlock, elseBlock)
	thenBlock.NewBr(joinBlock)
	elseBlock.NewBr(joinBlock)
	ctx.SetBlock(joinBlock)
	return joinBlock.NewPhi(ir.NewIncoming(thenVal, thenBlock), ir.NewIncoming(elseVal, elseBlock))
}

// staticBuffer declares a module-level, zero-initialized byte array
// and returns a pointer to its first element — the backing store for
// snprintf-based to_string conversions and the input() line buffer,
// which the reference compiler likewise allocates once per defining
// function rather than per call.
func (g *Generator) staticBuffer(size int64) value.Value {
	arrType := types.NewArray(uint64(size), types.I8)
	name := fmt.Sprintf(".buf.%d", g.strCounter)
	g.strCounter++
	glob := g.module.NewGlobalDef(name, constant.NewZeroInitializer(arrType))
	zero := constant.NewInt(types.I64, 0)
	return g.block.NewGetElementPtr(arrType, glob, zero, zero)
}

// StaticBuffer is ctx's entry point to Generator.staticBuffer.
func (ctx *DefinitionContext) StaticBuffer(size int64) value.Value {
	return ctx.gen.staticBuffer(size)
}

// GlobalCString is ctx's entry point to Generator.globalCString, for a
// library body that needs a constant byte pointer (a format string, a
// literal message) rather than a full Cure string.
func (ctx *DefinitionContext) GlobalCString(s string) value.Value {
	return ctx.gen.globalCString(ctx.Builder, s)
}

// SizeOf is ctx's entry point to Generator.sizeOf, used by Ref.new to
// compute the Ref struct's allocation size via the null-GEP trick.
func (ctx *DefinitionContext) SizeOf(t *Type) value.Value {
	return ctx.gen.sizeOf(t.Backend)
}

func icmp(block *ir.Block, pred enum.IPred, x, y value.Value) value.Value {
	return block.NewICmp(pred, x, y)
}

func fcmp(block *ir.Block, pred enum.FPred, x, y value.Value) value.Value {
	return block.NewFCmp(pred, x, y)
}
