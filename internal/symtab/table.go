// Copyright 2026 The PUS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package symtab

import (
	"sort"
)

// Table is the canonical (kind, name, file)-keyed symbol index, the Name
// Interner, and the three alias maps of spec.md §3, all together — they
// are populated in lockstep by the Tag Ingestor (4.B) and Source Scanner
// (4.C) and are meaningless apart from one another.
//
// Lifecycle: mutable (Add/SetStructAlias et al.) until Freeze is called, then
// read-only and safe to share across the goroutines of the parallel
// emission phase (spec.md §5).
type Table struct {
	symbols  map[Key]*Symbol
	interner map[string][]Key // append-only until frozen

	structAlias          map[string]Key // struct tag -> owning typedef/variable
	nestedStructToParent map[string]Key // nested struct tag -> parent struct
	enumeratorToEnum     map[string]Key // enumerator -> owning (maybe synthetic) enum

	frozen bool
}

// New creates an empty, mutable Table.
func New() *Table {
	return &Table{
		symbols:              make(map[Key]*Symbol),
		interner:             make(map[string][]Key),
		structAlias:          make(map[string]Key),
		nestedStructToParent: make(map[string]Key),
		enumeratorToEnum:     make(map[string]Key),
	}
}

func (t *Table) mustBeMutable() {
	if t.frozen {
		panic("symtab: mutation after Freeze")
	}
}

// Add interns sym, returning the existing symbol if one with the same Key
// was already present (the ingestor and scanner both tolerate re-adding
// the same key; the first write wins, matching "no definition is
// duplicated" — Invariant 4 is about emission, not ingestion).
func (t *Table) Add(sym *Symbol) *Symbol {
	t.mustBeMutable()
	if existing, ok := t.symbols[sym.Key]; ok {
		return existing
	}
	t.symbols[sym.Key] = sym
	t.interner[sym.Key.Name] = append(t.interner[sym.Key.Name], sym.Key)
	return sym
}

// Get returns the symbol for an exact key, if present.
func (t *Table) Get(key Key) (*Symbol, bool) {
	s, ok := t.symbols[key]
	return s, ok
}

// All returns every interned symbol. Order is unspecified; callers that
// need determinism should sort the result (the Partitioner does, by file
// then source order).
func (t *Table) All() []*Symbol {
	out := make([]*Symbol, 0, len(t.symbols))
	for _, s := range t.symbols {
		out = append(out, s)
	}
	return out
}

// SetStructAlias records that tag struct TAG is only reachable through
// owner (a typedef or variable key), per spec.md §4.C.6.
func (t *Table) SetStructAlias(tag string, owner Key) {
	t.mustBeMutable()
	if _, exists := t.structAlias[tag]; !exists {
		t.structAlias[tag] = owner
	}
}

// SetNestedParent records that a nested struct tag belongs lexically
// inside parent, per spec.md §4.C.5. The nested tag is also expected to be
// separately Add()-ed to the interner so general name lookups find it too.
func (t *Table) SetNestedParent(nestedTag string, parent Key) {
	t.mustBeMutable()
	if _, exists := t.nestedStructToParent[nestedTag]; !exists {
		t.nestedStructToParent[nestedTag] = parent
	}
}

// SetEnumeratorOwner links an enumerator name to its (possibly synthetic)
// enum key, per spec.md §4.C.1.
func (t *Table) SetEnumeratorOwner(enumerator string, owner Key) {
	t.mustBeMutable()
	if _, exists := t.enumeratorToEnum[enumerator]; !exists {
		t.enumeratorToEnum[enumerator] = owner
	}
}

// NestedParent looks up the parent struct/union of a nested struct tag,
// without falling through to the general name interner the way
// ResolveStructTag does — used where a caller specifically wants "is this
// tag nested, and inside what" rather than "resolve this tag somehow".
func (t *Table) NestedParent(tag string) (Key, bool) {
	k, ok := t.nestedStructToParent[tag]
	return k, ok
}

// EnumOwner looks up the enum owning an enumerator.
func (t *Table) EnumOwner(enumerator string) (Key, bool) {
	k, ok := t.enumeratorToEnum[enumerator]
	return k, ok
}

// Freeze ends the mutable ingest phase. After Freeze, Table is read-only
// and the Lookup family may be called concurrently (spec.md §5's "freeze
// boundary is a first-class lifecycle event").
func (t *Table) Freeze() {
	for name, keys := range t.interner {
		sort.SliceStable(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })
		t.interner[name] = keys
	}
	t.frozen = true
}

// Frozen reports whether Freeze has been called.
func (t *Table) Frozen() bool { return t.frozen }

func lessKey(a, b Key) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.File != b.File {
		return a.File < b.File
	}
	return a.Name < b.Name
}

// Lookup returns every symbol named name, ordered per spec.md §4.D:
// candidates in fromFile first, then symbols marked static (elsewhere —
// a degenerate case a noisy tag stream can still produce), then ordinary
// (non-static, different-file) globals. Each bucket is internally ordered
// deterministically by (kind, file) so repeated runs over the same input
// always pick the same candidate on a tie (§7 kind 4).
func (t *Table) Lookup(name, fromFile string) []Key {
	cands := t.interner[name]
	if len(cands) == 0 {
		return nil
	}

	var sameFile, statics, globals []Key
	for _, k := range cands {
		switch {
		case k.File == fromFile:
			sameFile = append(sameFile, k)
		default:
			if sym, ok := t.symbols[k]; ok && sym.IsStatic {
				statics = append(statics, k)
			} else {
				globals = append(globals, k)
			}
		}
	}

	out := make([]Key, 0, len(cands))
	out = append(out, sameFile...)
	out = append(out, statics...)
	out = append(out, globals...)
	return out
}

// LookupOne returns Lookup's first candidate, i.e. the deterministic
// tie-break choice, and whether any candidate existed.
func (t *Table) LookupOne(name, fromFile string) (Key, bool) {
	cands := t.Lookup(name, fromFile)
	if len(cands) == 0 {
		return Key{}, false
	}
	return cands[0], true
}

// ResolveStructTag resolves a bare "struct FOO" / "union FOO" reference.
// A tag recorded in nested_struct_to_parent resolves to its parent first,
// even though the Source Scanner also interns the nested tag as its own
// struct entry (§4.C.5); otherwise the order of spec.md §4.D applies: the
// direct struct/union symbol table, then struct_alias, and finally the
// name interner generally.
func (t *Table) ResolveStructTag(tag, fromFile string) (Key, bool) {
	if parent, ok := t.nestedStructToParent[tag]; ok {
		return parent, true
	}
	for _, k := range t.Lookup(tag, fromFile) {
		if k.Kind.IsAggregate() {
			return k, true
		}
	}
	if owner, ok := t.structAlias[tag]; ok {
		return owner, true
	}
	if k, ok := t.LookupOne(tag, fromFile); ok {
		return k, true
	}
	return Key{}, false
}
