package cure

import "github.com/llir/llvm/ir/types"

// Symbol is a named, typed entity: a user function, a library
// function, a variable binding, or (for library-kernel internals) a
// raw backend handle. Value's shape depends on what Kind is.
type Symbol struct {
	Name      string
	Typ       *Type
	Value     any // *FunctionNode, Node (variables), or a backend value
	IsMutable bool
}

// SymbolTable is an ordered name -> Symbol mapping. Re-declaring a name
// shadows the previous binding.
type SymbolTable struct {
	order   []string
	symbols map[string]*Symbol

	// local marks the subset of names introduced directly in this
	// table (as opposed to inherited via clone from a parent), as
	// reported by LocalSymbols.
	local map[string]bool
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]*Symbol), local: make(map[string]bool)}
}

func (t *SymbolTable) Set(sym *Symbol) {
	if _, exists := t.symbols[sym.Name]; !exists {
		t.order = append(t.order, sym.Name)
	}
	t.symbols[sym.Name] = sym
	t.local[sym.Name] = true
}

func (t *SymbolTable) Get(name string) (*Symbol, bool) {
	s, ok := t.symbols[name]
	return s, ok
}

// LocalSymbols returns, in declaration order, every Symbol introduced
// directly in this table (not inherited by Clone from an ancestor).
// The code generator does not consult it: its scope-exit cleanup walks
// its own per-body frame of stack slots instead.
func (t *SymbolTable) LocalSymbols() []*Symbol {
	var out []*Symbol
	for _, name := range t.order {
		if t.local[name] {
			out = append(out, t.symbols[name])
		}
	}
	return out
}

// Clone forks a child table: entries are copied by value (a shallow map
// copy) so writes in the child never escape to the parent, and nothing
// in the clone starts out "local" — it only becomes local again once
// the child itself adds or shadows a name.
func (t *SymbolTable) Clone() *SymbolTable {
	c := NewSymbolTable()
	c.order = append([]string(nil), t.order...)
	for k, v := range t.symbols {
		c.symbols[k] = v
	}
	return c
}

// Merge adopts other's symbols, marking them local to this table. Its
// only caller is Scope.Merge.
func (t *SymbolTable) Merge(other *SymbolTable) {
	for _, name := range other.order {
		t.Set(other.symbols[name])
	}
}

// Scope is the lexical environment threaded through the IR builder,
// analyser and code generator. The root Scope is created exactly
// once per compile and owns the source file's bytes;
// every other Scope is produced by cloning it.
type Scope struct {
	File    string
	Parent  *Scope
	Symbols *SymbolTable
	Types   *TypeMap
	Target  Target

	// Src is the root scope's source bytes, used for diagnostic
	// printing; nil on non-root scopes (look up via Root()).
	Src []byte

	// Overloads is the flat, file-wide function namespace: Cure
	// has no per-scope function nesting, so every Scope.Clone shares
	// the same *OverloadTable pointer instead of cloning it.
	Overloads *OverloadTable

	// Dependencies is the set of external library/package names this
	// scope's declarations pulled in. Cure compiles a single file with
	// no import system of its own, so in practice this only ever holds
	// the built-in stdlib kernel's own name; it exists so Merge has a
	// well-defined set to adopt.
	Dependencies map[string]bool

	// NamedStructs collects every identified LLVM struct type the stdlib
	// kernel registers (Ref, string, and any Class a future extension
	// adds) so the code generator can copy them into the module's type
	// definitions before emitting anything that references them. Shared across every clone, like Overloads.
	NamedStructs *[]*types.StructType
}

func NewRootScope(file string, src []byte, target Target) *Scope {
	named := make([]*types.StructType, 0, 4)
	return &Scope{
		File:         file,
		Symbols:      NewSymbolTable(),
		Types:        NewTypeMap(),
		Target:       target,
		Src:          src,
		Overloads:    NewOverloadTable(),
		Dependencies: make(map[string]bool),
		NamedStructs: &named,
	}
}

// Clone forks a child scope: the symbol table and type map are copied
// by value.
func (s *Scope) Clone() *Scope {
	return &Scope{
		File:         s.File,
		Parent:       s,
		Symbols:      s.Symbols.Clone(),
		Types:        s.Types.Clone(),
		Target:       s.Target,
		Overloads:    s.Overloads,
		Dependencies: s.Dependencies,
		NamedStructs: s.NamedStructs,
	}
}

// RegisterNamedStruct records a newly built identified struct type so
// the code generator can emit its definition into the LLVM module.
func (s *Scope) RegisterNamedStruct(st *types.StructType) {
	*s.NamedStructs = append(*s.NamedStructs, st)
}

// Merge adopts other's symbols, types and dependency set into s.
func (s *Scope) Merge(other *Scope) {
	s.Symbols.Merge(other.Symbols)
	s.Types.Merge(other.Types)
	for dep := range other.Dependencies {
		s.Dependencies[dep] = true
	}
}

// Root walks up to the scope that owns the source bytes.
func (s *Scope) Root() *Scope {
	r := s
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

func (s *Scope) Lookup(name string) (*Symbol, bool) {
	return s.Symbols.Get(name)
}

func (s *Scope) LookupType(name string) (*Type, bool) {
	return s.Types.Get(name)
}
