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

// Package resolve implements component 4.E: given a PU's root keys,
// compute the transitive closure of declarations ("necessary") the PU
// needs in order to compile, by repeatedly scanning each symbol's raw
// text for identifiers and resolving them through the frozen Symbol
// Table.
package resolve

import (
	"regexp"
	"strings"

	"github.com/dctags/pus/internal/lexer"
	"github.com/dctags/pus/internal/perrors"
	"github.com/dctags/pus/internal/symtab"
)

// Result is the outcome of closing a PU's roots: every pu_key the PU must
// declare or define in order to compile, excluding the roots themselves
// (the caller emits those separately as the PU's own primary bodies).
type Result struct {
	Necessary map[symtab.Key]*symtab.Symbol

	// Order records insertion order (first-enqueued first), so callers
	// that want a deterministic default ordering before the Emitter's
	// own pass-specific sort don't have to re-derive one from a map.
	Order []symtab.Key

	// ForcedPass2 marks callables that the Emitter must declare in Pass 2
	// even though they return (effective) int, because something already
	// emitted in Pass 1 calls them — a struct-adjacent function body
	// ctags hoisted into a struct's own code span (bug34) — and Pass 4's
	// usual "implicit int" allowance would then be visible only after
	// the call site that already needs it.
	ForcedPass2 map[symtab.Key]bool
}

func newResult() *Result {
	return &Result{
		Necessary:   make(map[symtab.Key]*symtab.Symbol),
		ForcedPass2: make(map[symtab.Key]bool),
	}
}

func (r *Result) add(table *symtab.Table, key symtab.Key, worklist *[]symtab.Key) {
	if _, exists := r.Necessary[key]; exists {
		return
	}
	sym, ok := table.Get(key)
	if !ok {
		return
	}
	r.Necessary[key] = sym
	r.Order = append(r.Order, key)
	*worklist = append(*worklist, key)
}

// Closure computes the necessary set for a PU whose primary definitions
// are roots, per the worklist algorithm of spec.md §4.E. table must
// already be frozen. diags receives unresolved/ambiguous-reference and
// cycle diagnostics (kinds 3-5 of §7); Closure never aborts and never
// loops forever — a symbol already in Necessary is never re-enqueued, so
// a reference cycle (step 5/§9: "cyclic references... treated as a fixed
// point") simply terminates the walk at that key, recorded once via
// diags.Cycle.
func Closure(table *symtab.Table, roots []symtab.Key, diags *perrors.List) *Result {
	r := newResult()
	visitedRoots := make(map[symtab.Key]bool, len(roots))
	worklist := append([]symtab.Key(nil), roots...)
	for _, k := range roots {
		visitedRoots[k] = true
	}
	seenForCycle := make(map[symtab.Key]bool)

	for len(worklist) > 0 {
		key := worklist[0]
		worklist = worklist[1:]

		if seenForCycle[key] {
			diags.Cycle(key.String())
			continue
		}
		seenForCycle[key] = true

		sym, ok := table.Get(key)
		if !ok {
			continue
		}
		resolveOne(table, sym, r, &worklist, diags)
	}

	// A root that referenced itself or another root was added above; the
	// caller emits roots separately, so they are dropped from the result.
	for k := range visitedRoots {
		delete(r.Necessary, k)
	}
	order := r.Order[:0]
	for _, k := range r.Order {
		if !visitedRoots[k] {
			order = append(order, k)
		}
	}
	r.Order = order
	return r
}

func resolveOne(table *symtab.Table, sym *symtab.Symbol, r *Result, worklist *[]symtab.Key, diags *perrors.List) {
	for _, name := range sym.References() {
		resolveRef(table, name, sym.Key, r, worklist, diags)
	}

	// Per spec.md §4.D, any "struct FOO"/"union FOO" syntactic reference —
	// not only ones reached from a typedef — is resolved through
	// struct_map, struct_alias, and nested_struct_to_parent before falling
	// back to a plain name lookup; a bare identifier scan alone would miss
	// a struct only reachable through its alias chain. §4.E step 5's
	// typedef example is the common case, not the only one this applies to.
	cascadeStructOrUnionRefs(table, sym, r, worklist)

	switch sym.Key.Kind {
	case symtab.Function:
		if sym.IsVariadic {
			cascadeVariadicPrototype(table, sym, r, worklist)
		}
		cascadeReturnTypeTypedef(table, sym, r, worklist)
	case symtab.Prototype:
		cascadeReturnTypeTypedef(table, sym, r, worklist)
	case symtab.Enumerator:
		if owner, ok := table.EnumOwner(sym.Key.Name); ok {
			r.add(table, owner, worklist)
		}
	case symtab.Struct, symtab.Union:
		cascadeStructAdjacentCallees(table, sym, r)
	}
}

// resolveRef resolves one referenced identifier from ownerKey's raw text.
// Per §4.E's edge policy, when the top-ranked candidate shares its file
// with other same-file candidates (the "prototype and function both
// named FOO in this file" case), all of them are added — this is what
// lets a later Synthesizer pass find the verbatim prototype for a
// function whose body lives elsewhere (the bug62 fix: the prototype is
// recorded as needed regardless of whether anything ends up owning it as
// a root).
func resolveRef(table *symtab.Table, name string, ownerKey symtab.Key, r *Result, worklist *[]symtab.Key, diags *perrors.List) {
	cands := table.Lookup(name, ownerKey.File)
	if len(cands) == 0 {
		diags.Unresolved(name, ownerKey.String())
		return
	}

	top := cands[0]
	var tier []symtab.Key
	for _, k := range cands {
		if k.File == top.File {
			tier = append(tier, k)
		}
	}
	if len(tier) > 1 {
		strs := make([]string, len(tier))
		for i, k := range tier {
			strs[i] = k.String()
		}
		diags.Ambiguous(name, strs, top.String())
	}
	for _, k := range tier {
		r.add(table, k, worklist)
	}
}

var structOrUnionRef = regexp.MustCompile(`\b(struct|union)\s+([A-Za-z_]\w*)`)

// cascadeStructOrUnionRefs implements §4.E step 5 bullet 1 (generalized
// per §4.D, see resolveOne): wherever raw text mentions "struct S" or
// "union U", pull in that struct/union, resolved through the struct_alias
// chain the way a forward "struct S;" reference would be, not just a
// plain name lookup.
func cascadeStructOrUnionRefs(table *symtab.Table, sym *symtab.Symbol, r *Result, worklist *[]symtab.Key) {
	for _, m := range structOrUnionRef.FindAllStringSubmatch(sym.RawText, -1) {
		tag := m[2]
		if key, ok := table.ResolveStructTag(tag, sym.Key.File); ok {
			r.add(table, key, worklist)
		}
	}
}

// cascadeVariadicPrototype implements §4.E step 5 bullet 2: referencing a
// variadic function must also pull in its original prototype verbatim,
// since no K&R stub can spell "...".
func cascadeVariadicPrototype(table *symtab.Table, sym *symtab.Symbol, r *Result, worklist *[]symtab.Key) {
	key := symtab.Key{Kind: symtab.Prototype, Name: sym.Key.Name, File: sym.Key.File}
	if _, ok := table.Get(key); ok {
		r.add(table, key, worklist)
	}
}

// cascadeReturnTypeTypedef implements §4.E step 5 bullet 3: a callable
// whose return type names a project typedef must pull that typedef into
// necessary, so the Emitter can satisfy the "project-typedef extern
// ordering" invariant (spec.md §3.3) — the typedef has to be emitted
// before any forward declaration or prototype naming it.
func cascadeReturnTypeTypedef(table *symtab.Table, sym *symtab.Symbol, r *Result, worklist *[]symtab.Key) {
	base := baseTypeName(sym.ReturnTypeText)
	if base == "" {
		return
	}
	if key, ok := table.LookupOne(base, sym.Key.File); ok && key.Kind == symtab.Typedef {
		r.add(table, key, worklist)
	}
}

// cascadeStructAdjacentCallees implements the bug34 supplemented edge
// case: when ctags attributes a function definition's code span to an
// adjacent struct tag, the function's body text ends up trailing the
// struct's own closing brace inside that Struct/Union symbol's RawText,
// and the Emitter renders the whole thing in Pass 1 rather than Pass 4.
// Anything that trailing function calls is already pulled into necessary
// by the ordinary References() scan above (which has no brace-scope
// awareness and so sees straight through to the hoisted text); this
// cascade only marks those callees ForcedPass2, so the Emitter declares
// them ahead of Pass 1 instead of leaving them to Pass 4's implicit-int
// fallback, which would place the declaration after its own call site.
func cascadeStructAdjacentCallees(table *symtab.Table, sym *symtab.Symbol, r *Result) {
	trailer := trailingTextAfterAggregateBody(sym.RawText)
	if trailer == "" {
		return
	}
	trailerSym := &symtab.Symbol{RawText: trailer}
	for _, name := range trailerSym.References() {
		for _, key := range table.Lookup(name, sym.Key.File) {
			if !key.Kind.IsCallable() {
				continue
			}
			if _, ok := r.Necessary[key]; ok {
				r.ForcedPass2[key] = true
			}
		}
	}
}

// trailingTextAfterAggregateBody returns whatever text follows a
// struct/union's own "{...}" body (and an optional terminating ';') in
// rawText, or "" if the body runs to the end of rawText as it normally
// would. A non-empty result means the code span ctags attributed to this
// aggregate tag actually continues past it — the bug34 shape.
func trailingTextAfterAggregateBody(rawText string) string {
	openIdx := strings.IndexByte(rawText, '{')
	if openIdx < 0 {
		return ""
	}
	closeIdx, ok := lexer.ScanBalanced([]byte(rawText), openIdx, '{', '}')
	if !ok {
		return ""
	}
	rest := strings.TrimSpace(rawText[closeIdx+1:])
	rest = strings.TrimPrefix(rest, ";")
	return strings.TrimSpace(rest)
}

// baseTypeName strips leading storage/qualifier keywords and trailing
// pointer stars from a C type spelling, returning the bare type name —
// e.g. "static const cfg_t *" -> "cfg_t".
func baseTypeName(typeText string) string {
	s := strings.TrimSpace(typeText)
	s = strings.TrimRight(s, "* \t")
	fields := strings.Fields(s)
	for len(fields) > 0 && isTypeQualifier(fields[0]) {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func isTypeQualifier(s string) bool {
	switch s {
	case "static", "const", "volatile", "extern", "register", "inline", "unsigned", "signed":
		return true
	}
	return false
}
