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

// Package symtab implements component 3 (the data model) and component
// 4.D (Symbol Table & Interner): the canonical, (kind, name, file)-keyed
// index of every C declaration PUS knows about, plus the alias maps that
// let a struct tag resolve through a typedef, a variable, or a containing
// struct.
package symtab

import (
	"fmt"
	"sync"

	"github.com/dctags/pus/internal/lexer"
	"github.com/dctags/pus/internal/ppos"
)

// Kind is one of the tag kinds named in spec.md §3.
type Kind int

const (
	Function Kind = iota
	Prototype
	Typedef
	Struct
	Union
	Enum
	Enumerator
	Variable
	ExternVar
	Macro
)

var kindNames = [...]string{
	Function: "function", Prototype: "prototype", Typedef: "typedef",
	Struct: "struct", Union: "union", Enum: "enum", Enumerator: "enumerator",
	Variable: "variable", ExternVar: "externvar", Macro: "macro",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind maps a tag stream "kind:" value to a Kind. ok is false for an
// unrecognized kind, which the ingestor treats as a malformed-record
// warning rather than a fatal error (§7 kind 2).
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// IsAggregate reports whether k names a struct or union, the two kinds
// that share forward-declaration and nested-tag handling.
func (k Kind) IsAggregate() bool { return k == Struct || k == Union }

// IsCallable reports whether k is a function body or a prototype.
func (k Kind) IsCallable() bool { return k == Function || k == Prototype }

// Key is the pu_key of spec.md §3: "kind:name:file".
type Key struct {
	Kind Kind
	Name string
	File string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Kind, k.Name, k.File)
}

// IsZero reports whether k is the unset Key.
func (k Key) IsZero() bool { return k.Name == "" && k.File == "" }

// Symbol is a fully interned record, as described in spec.md §3.
type Symbol struct {
	Key Key

	LineStart, LineEnd int
	Pos                ppos.Pos
	RawText            string

	ReturnTypeText string
	Signature      string // exact parameter-list text, when known (e.g. from a prototype tag)

	IsVariadic     bool
	IsAlwaysInline bool
	IsStatic       bool
	IsKRStyle      bool

	// Scope is the raw scope field from the originating tag record, if
	// any (e.g. the struct a member variable belongs to).
	Scope string

	// IsForwardDeclCandidate marks an externvar-kind symbol whose raw
	// text is actually a bare "struct NAME;" / "union NAME;" forward
	// declaration that the tag extractor mis-filed (spec.md §4.B,
	// supplemented edge case bug47). The Emitter routes these to Pass 0
	// instead of the Pass 3 extern-variable logic.
	IsForwardDeclCandidate bool

	refsOnce sync.Once
	refs     []string
}

// References returns the set of identifiers syntactically mentioned in
// RawText, in first-seen order, excluding C keywords, comments, and the
// contents of string/char literals. Computed lazily and cached, per
// spec.md §3 ("references — lazily computed").
//
// No attempt is made to exclude a function's own parameters or locals: the
// whole of RawText is tokenized and every identifier is reported, including
// ones the symbol itself introduces. Per spec.md §4.E step 3 this
// over-inclusion only costs size (an already-necessary or self-referential
// key gets added redundantly), never correctness, so the accepted tradeoff
// is to not attempt brace-scope exclusion at all.
func (s *Symbol) References() []string {
	s.refsOnce.Do(func() {
		s.refs = extractReferences(s.RawText)
	})
	return s.refs
}

func extractReferences(raw string) []string {
	file := ppos.NewFile("<raw>", len(raw))
	toks := lexer.Tokenize(file, []byte(raw), 0)

	seen := make(map[string]bool)
	var out []string
	for _, t := range toks {
		if t.Kind != lexer.Ident {
			continue
		}
		if isKeyword(t.Text) {
			continue
		}
		if seen[t.Text] {
			continue
		}
		seen[t.Text] = true
		out = append(out, t.Text)
	}
	return out
}

var cKeywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extern": true, "float": true, "for": true, "goto": true,
	"if": true, "int": true, "long": true, "register": true, "return": true,
	"short": true, "signed": true, "sizeof": true, "static": true, "struct": true,
	"switch": true, "typedef": true, "union": true, "unsigned": true, "void": true,
	"volatile": true, "while": true, "inline": true, "restrict": true,
	"_Bool": true, "_Complex": true, "_Imaginary": true, "__inline__": true,
	"__inline": true, "__const__": true, "__attribute__": true, "__restrict__": true,
	"__asm__": true, "__asm": true, "__extension__": true,
}

func isKeyword(s string) bool { return cKeywords[s] }
