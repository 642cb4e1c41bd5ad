package cure

import (
	"fmt"

	"github.com/llir/llvm/ir/types"
)

// Type is the design-level type pair: a display name used for
// diagnostics, overload-table keys and TypeMap lookups, paired with
// the LLVM backend representation the code generator lowers it to.
//
// Equality is structural on Display: every Type that reaches a TypeMap
// (built-in or user-defined) is registered under a unique display name,
// so comparing names is equivalent to comparing identity.
type Type struct {
	Display string
	Backend types.Type

	// pointee is non-nil when this Type is itself a PointerType: one
	// level of indirection wrapping another Type.
	pointee *Type

	// managed marks a type whose backend struct carries a *Ref field.
	// Only the code generator's RC protocol reads this; it's set once
	// at construction time by whichever stdlib/Class registration
	// builds the struct.
	managed bool
}

func NewType(display string, backend types.Type) *Type {
	return &Type{Display: display, Backend: backend}
}

// NewManagedType is NewType for a struct type that embeds a *Ref field,
// triggering reference-count traffic around every value of this type.
func NewManagedType(display string, backend types.Type) *Type {
	return &Type{Display: display, Backend: backend, managed: true}
}

// AsPointer wraps t in one level of pointer indirection: calling
// AsPointer on an existing PointerType returns the same Type rather
// than nesting another level, since Cure only ever needs a single
// level of indirection.
func (t *Type) AsPointer() *Type {
	if t.pointee != nil {
		return t
	}
	return &Type{
		Display: t.Display + "*",
		Backend: types.NewPointer(t.Backend),
		pointee: t,
	}
}

// IsPointer reports whether t is a PointerType.
func (t *Type) IsPointer() bool { return t.pointee != nil }

// Pointee returns the type a PointerType indirects through, or nil if
// t is not itself a pointer.
func (t *Type) Pointee() *Type { return t.pointee }

// NeedsManagedMemory reports true iff t's backend representation
// carries a *Ref field, the sole trigger for RC traffic in the code
// generator.
func (t *Type) NeedsManagedMemory() bool { return t.managed }

// RefFieldIndex returns the struct field index of the *Ref field inside
// a managed type's backend representation. Every managed Class is
// built with its *Ref field last, the same position string's own `ref`
// field takes, so this is always len(fields)-1.
func (t *Type) RefFieldIndex() int {
	st := t.Backend.(*types.StructType)
	return len(st.Fields) - 1
}

func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.Display == o.Display
}

func (t *Type) String() string { return t.Display }

// TypeMap is an ordered mapping from display name to Type. The root
// TypeMap is preloaded with every built-in; Scope.clone() copies it
// by value so a child scope's additions (e.g. a Class registered inside
// a nested body) never leak into the parent.
type TypeMap struct {
	order []string
	types map[string]*Type
}

func NewTypeMap() *TypeMap {
	return &TypeMap{types: make(map[string]*Type)}
}

func (m *TypeMap) Set(display string, t *Type) {
	if _, exists := m.types[display]; !exists {
		m.order = append(m.order, display)
	}
	m.types[display] = t
}

func (m *TypeMap) Get(display string) (*Type, bool) {
	t, ok := m.types[display]
	return t, ok
}

// MustGet panics if display isn't registered; used internally by the
// stdlib kernel, where every referenced type name is known to exist by
// construction.
func (m *TypeMap) MustGet(display string) *Type {
	t, ok := m.types[display]
	if !ok {
		panic(fmt.Sprintf("cure: type %q not in type map", display))
	}
	return t
}

// Clone makes a shallow copy whose entries can be added to/overwritten
// independently of the original.
func (m *TypeMap) Clone() *TypeMap {
	c := &TypeMap{
		order: append([]string(nil), m.order...),
		types: make(map[string]*Type, len(m.types)),
	}
	for k, v := range m.types {
		c.types[k] = v
	}
	return c
}

// Merge adopts every entry of other, appending new names to the order
// and overwriting existing ones.
func (m *TypeMap) Merge(other *TypeMap) {
	for _, name := range other.order {
		m.Set(name, other.types[name])
	}
}
