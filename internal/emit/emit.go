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

// Package emit implements component 4.H: the fixed five-pass renderer
// that turns a Partitioner-closed PU into standalone, compilable C text.
package emit

import (
	"sort"
	"strings"

	"github.com/dctags/pus/internal/partition"
	"github.com/dctags/pus/internal/symtab"
	"github.com/dctags/pus/internal/synth"
)

// Emitter renders PUs against a frozen Symbol Table. It holds no mutable
// state of its own, so one Emitter is safely shared across the parallel
// per-PU workers internal/pus fans out (spec.md §5).
type Emitter struct {
	table *symtab.Table
}

// New creates an Emitter over table, which must already be frozen.
func New(table *symtab.Table) *Emitter {
	return &Emitter{table: table}
}

// Emit renders pu's five passes in order and returns the complete PU
// source text. Pass 2's ForcedPass2 entries (bug34: a callee a
// struct-adjacent hoisted function body — itself emitted as part of
// Pass 1 — calls before Pass 4 ever runs) are written before Pass 1,
// not after it, since a declaration is only "ahead of" a call site
// that Pass 1 already contains if it lands earlier in the output text.
func (e *Emitter) Emit(pu *partition.PU) string {
	roots := make(map[symtab.Key]bool, len(pu.RootKeys))
	for _, k := range pu.RootKeys {
		roots[k] = true
	}
	necessary := pu.Necessary.Necessary
	typedefNames := pu.NecessaryTypedefNames()
	written := make(map[symtab.Key]bool)
	forced := pu.Necessary.ForcedPass2

	var out strings.Builder
	e.pass0ForwardDecls(&out, necessary, written)
	e.pass2Prototypes(&out, necessary, roots, typedefNames, written, forced, true)
	e.pass1Types(&out, necessary, written)
	e.pass2Prototypes(&out, necessary, roots, typedefNames, written, forced, false)
	e.pass3Externs(&out, necessary, roots, typedefNames, written)
	e.pass4Bodies(&out, pu, necessary, roots, typedefNames, written)
	return out.String()
}

// pass0ForwardDecls emits every "struct X;"/"union Y;" a later pass needs
// before it can spell a pointer to X/Y: the bug47 misfiled externvar
// entries ingest.go marks with IsForwardDeclCandidate, plus every struct
// and union left in a structural cycle orderTypeKeys reports (spec.md §9).
func (e *Emitter) pass0ForwardDecls(out *strings.Builder, necessary map[symtab.Key]*symtab.Symbol, written map[symtab.Key]bool) {
	var candidates []*symtab.Symbol
	for _, sym := range necessary {
		if sym.IsForwardDeclCandidate {
			candidates = append(candidates, sym)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return lessSymbolKey(candidates[i].Key, candidates[j].Key) })
	for _, sym := range candidates {
		if written[sym.Key] {
			continue
		}
		writeLine(out, strings.TrimSpace(sym.RawText))
		written[sym.Key] = true
	}

	for _, key := range cyclicTypeKeys(e.table, necessary) {
		if written[key] || !key.Kind.IsAggregate() {
			continue
		}
		word := "struct"
		if key.Kind == symtab.Union {
			word = "union"
		}
		// Not marked written: the full body still follows in Pass 1.
		writeLine(out, word+" "+key.Name+";")
	}
}

func cyclicTypeKeys(table *symtab.Table, necessary map[symtab.Key]*symtab.Symbol) []symtab.Key {
	var typeKeys []symtab.Key
	for key := range necessary {
		if isTypeKind(key.Kind) {
			typeKeys = append(typeKeys, key)
		}
	}
	_, cyclic := orderTypeKeys(typeKeys, buildTypeDeps(table, necessary))
	return cyclic
}

// pass1Types emits structs, unions, enums, and typedefs in necessary,
// ordered by orderTypeKeys so a type is never used before its
// dependencies are declared.
func (e *Emitter) pass1Types(out *strings.Builder, necessary map[symtab.Key]*symtab.Symbol, written map[symtab.Key]bool) {
	var typeKeys []symtab.Key
	for key := range necessary {
		if isTypeKind(key.Kind) {
			typeKeys = append(typeKeys, key)
		}
	}
	ordered, cyclic := orderTypeKeys(typeKeys, buildTypeDeps(e.table, necessary))
	ordered = append(ordered, cyclic...)

	for _, key := range ordered {
		if written[key] {
			continue
		}
		sym := necessary[key]
		if key.Kind == symtab.Typedef && synth.SkipTypedefWithInternalStruct(e.table, sym) {
			written[key] = true
			continue
		}
		writeLine(out, terminated(sym.RawText))
		written[key] = true
	}
}

// pass2Prototypes emits prototypes for necessary callables whose body
// isn't owned by this PU. Called twice per Emit: once with forcedOnly
// true, before Pass 1, to place forced entries (bug34) ahead of the
// struct-adjacent hoisted body that calls them; once with forcedOnly
// false, after Pass 1, for the ordinary case — every non-`int`-returning
// callable not already written — so Pass 4's call sites never see an
// implicit-int declaration collide with the real, differently-typed one.
func (e *Emitter) pass2Prototypes(out *strings.Builder, necessary map[symtab.Key]*symtab.Symbol, roots map[symtab.Key]bool, typedefNames map[string]bool, written map[symtab.Key]bool, forced map[symtab.Key]bool, forcedOnly bool) {
	var callables []symtab.Key
	for key := range necessary {
		if key.Kind.IsCallable() && !roots[key] && !isRedundantPrototype(necessary, key) {
			callables = append(callables, key)
		}
	}
	sortKeys(callables)

	for _, key := range callables {
		if written[key] {
			continue
		}
		if forcedOnly != forced[key] {
			continue // forcedOnly pass handles only forced[key]; the later pass handles everything else
		}
		sym := necessary[key]
		if !forced[key] && isIntReturning(sym.ReturnTypeText) {
			continue // left to Pass 4: C allows the implicit-int call form
		}
		decl := synth.Declaration(e.table, sym, typedefNames)
		writeLine(out, decl)
		written[key] = true
		if proto, ok := e.table.Get(symtab.Key{Kind: symtab.Prototype, Name: key.Name, File: key.File}); ok {
			written[proto.Key] = true
		}
		if fn, ok := e.table.Get(symtab.Key{Kind: symtab.Function, Name: key.Name, File: key.File}); ok {
			written[fn.Key] = true
		}
	}
}

// pass3Externs emits "extern T v;" for necessary global variables this PU
// doesn't own, guarded by internal/synth's type-availability filter.
func (e *Emitter) pass3Externs(out *strings.Builder, necessary map[symtab.Key]*symtab.Symbol, roots map[symtab.Key]bool, typedefNames map[string]bool, written map[symtab.Key]bool) {
	var vars []symtab.Key
	for key := range necessary {
		if (key.Kind == symtab.Variable || key.Kind == symtab.ExternVar) && !roots[key] {
			vars = append(vars, key)
		}
	}
	sortKeys(vars)

	for _, key := range vars {
		if written[key] {
			continue
		}
		sym := necessary[key]
		if sym.IsForwardDeclCandidate {
			continue // already handled in Pass 0
		}
		if decl, ok := synth.ExternDeclaration(sym, typedefNames); ok {
			writeLine(out, decl)
		}
		written[key] = true
	}
}

// pass4Bodies emits the PU's own root bodies, interleaved with any K&R
// stubs or int-returning prototypes that Pass 2 intentionally deferred,
// and skips anything already_written by an earlier pass (the bug31
// duplicate-extern fix generalized to every pass, per spec.md §4.H).
func (e *Emitter) pass4Bodies(out *strings.Builder, pu *partition.PU, necessary map[symtab.Key]*symtab.Symbol, roots map[symtab.Key]bool, typedefNames map[string]bool, written map[symtab.Key]bool) {
	var remaining []symtab.Key
	for key := range necessary {
		if key.Kind.IsCallable() && !roots[key] && !written[key] && !isRedundantPrototype(necessary, key) {
			remaining = append(remaining, key)
		}
	}
	sortKeys(remaining)
	for _, key := range remaining {
		sym := necessary[key]
		decl := synth.Declaration(e.table, sym, typedefNames)
		writeLine(out, decl)
		written[key] = true
	}

	rootKeys := append([]symtab.Key(nil), pu.RootKeys...)
	sortKeys(rootKeys)
	for _, key := range rootKeys {
		sym, ok := e.table.Get(key)
		if !ok || written[key] {
			continue
		}
		writeLine(out, sym.RawText)
		written[key] = true
	}
}

func isIntReturning(returnType string) bool {
	t := strings.TrimSpace(returnType)
	if t == "" {
		return true // no known return type: implicit int is exactly what would happen anyway
	}
	for _, w := range strings.Fields(t) {
		switch w {
		case "static", "const", "volatile", "extern", "register", "inline", "signed":
			continue
		case "int":
			continue
		default:
			return false
		}
	}
	return true
}

func terminated(text string) string {
	t := strings.TrimRight(text, " \t\n")
	if strings.HasSuffix(t, ";") || strings.HasSuffix(t, "}") {
		return t
	}
	return t + ";"
}

func writeLine(out *strings.Builder, text string) {
	out.WriteString(text)
	out.WriteString("\n")
}

// isRedundantPrototype reports whether key is a standalone Prototype
// entry whose sibling Function (same name and file) is also in
// necessary — in that case the Function-keyed pass already calls
// synth.Declaration, which looks up and prefers the verbatim prototype
// itself, so processing the Prototype key separately would emit the
// identical text twice.
func isRedundantPrototype(necessary map[symtab.Key]*symtab.Symbol, key symtab.Key) bool {
	if key.Kind != symtab.Prototype {
		return false
	}
	_, ok := necessary[symtab.Key{Kind: symtab.Function, Name: key.Name, File: key.File}]
	return ok
}

func lessSymbolKey(a, b symtab.Key) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.File != b.File {
		return a.File < b.File
	}
	return a.Name < b.Name
}
