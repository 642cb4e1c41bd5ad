package cure

import (
	"strings"

	"github.com/llir/llvm/ir/value"
)

// Overload is one concrete signature registered under a callee name:
// a user FunctionNode, a library-authored function, or one of
// the stdlib kernel's built-in operator/method functions.
type Overload struct {
	Name       string
	Params     []*Type
	ReturnType *Type
	Flags      FunctionFlags

	// Node is the user source this overload came from, nil for
	// stdlib/library-authored overloads (those are built directly in
	// Go, with no Cure source to point at).
	Node *FunctionNode

	// Backend is filled in by the code generator the first time this
	// overload is actually lowered. It holds an *ir.Func once set; left
	// nil until then, and always nil for an any-polymorphic overload,
	// whose backends live in Specializations instead.
	Backend any

	// Specializations maps a mangled symbol name (built by Mangle from
	// the concrete argument types) to the *ir.Func already generated for
	// that instantiation of an any-polymorphic overload.
	Specializations map[string]any

	// LibBody is set for library-authored overloads: the stdlib
	// kernel (or any in-process extension) attaches this callback
	// instead of an ir.Function body; the code generator invokes it the
	// first time the overload (or one of its specializations) needs a
	// concrete backend function.
	LibBody DefinitionBody
}

// DefinitionBody is the backend callback a library author attaches to a
// function/overload registration. It receives a DefinitionContext
// bound to the entry block of the concrete backend function the code
// generator just created, and returns the value the function yields (or
// nil for a body that returns nothing, or that already terminated its
// own block with a ret/unreachable).
type DefinitionBody func(ctx *DefinitionContext) (value.Value, error)

// AnyPoly reports whether any parameter of this overload is the `any`
// placeholder type, making it eligible for per-call-site
// specialization instead of a single fixed backend function.
func (o *Overload) AnyPoly() bool {
	for _, p := range o.Params {
		if p.Display == "any" {
			return true
		}
	}
	return false
}

// OverloadTable is the flat, file-wide function namespace: one
// name maps to every overload registered under it, in registration
// order, spanning user functions, library-authored functions and the
// stdlib kernel's operator/method table alike.
type OverloadTable struct {
	order  []string
	byName map[string][]*Overload
}

func NewOverloadTable() *OverloadTable {
	return &OverloadTable{byName: make(map[string][]*Overload)}
}

func (t *OverloadTable) Register(o *Overload) {
	if _, exists := t.byName[o.Name]; !exists {
		t.order = append(t.order, o.Name)
	}
	t.byName[o.Name] = append(t.byName[o.Name], o)
}

func (t *OverloadTable) Lookup(name string) []*Overload {
	return t.byName[name]
}

// Resolve implements the overload selection protocol: walk the
// overloads registered under name in registration order, and return
// the first whose parameter count matches argTypes and whose every
// non-`any` parameter type equals the corresponding argument type
// exactly. `any` matches any argument type. The first match wins; no
// ambiguity check is performed even when a later overload would also
// match.
func (t *OverloadTable) Resolve(name string, argTypes []*Type) (*Overload, bool) {
	for _, o := range t.byName[name] {
		if len(o.Params) != len(argTypes) {
			continue
		}
		matched := true
		for i, pt := range o.Params {
			if pt.Display == "any" {
				continue
			}
			if !pt.Equal(argTypes[i]) {
				matched = false
				break
			}
		}
		if matched {
			return o, true
		}
	}
	return nil, false
}

// Mangle produces the backend symbol name name_T1_T2… from a callee
// name and a list of types. The code generator uses it for every
// overload it lowers: with the concrete argument types for an
// any-polymorphic overload, with the declared parameter types otherwise.
func Mangle(name string, argTypes []*Type) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, t := range argTypes {
		sb.WriteByte('_')
		sb.WriteString(t.Display)
	}
	return sb.String()
}
