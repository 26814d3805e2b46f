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

// Package synth implements component 4.F: turning a captured function
// definition (or an existing prototype) into the declaration text a PU
// that doesn't own the body needs, plus the extern-variable and
// typedef-skip filtering rules that keep a declaration from referencing
// a type the PU can't see.
package synth

import (
	"regexp"
	"strings"

	"github.com/dctags/pus/internal/lexer"
	"github.com/dctags/pus/internal/symtab"
)

var alwaysInlinePattern = regexp.MustCompile(`__attribute__\s*\(\(\s*always_inline\s*\)\)`)

// Declaration produces the declaration text for callee, a symbol that is
// needed (sym.Key is in some PU's necessary set) but whose body is not
// owned by the PU currently being emitted. table is consulted for a
// verbatim prototype and for the return-type typedef availability check.
// necessaryTypedefs is the PU's own necessary set restricted to typedef
// names, used by the K&R-stub fallback to decide between "int NAME();"
// and "RETTYPE NAME();".
func Declaration(table *symtab.Table, callee *symtab.Symbol, necessaryTypedefs map[string]bool) string {
	if proto, ok := table.Get(symtab.Key{Kind: symtab.Prototype, Name: callee.Key.Name, File: callee.Key.File}); ok {
		return stripInlineMarkers(terminateDecl(proto.RawText))
	}
	return FromDefinition(callee, necessaryTypedefs)
}

// FromDefinition converts a function *definition* span into one or more
// declarations, per §4.F's "function-body-to-declaration conversion" and
// "multiple-function code spans" rules. Most callers have exactly one
// function per span and get back that one declaration; several are
// joined with "\n" (no trailing newline). FromDefinitionAll is the
// general form.
func FromDefinition(def *symtab.Symbol, necessaryTypedefs map[string]bool) string {
	decls := FromDefinitionAll(def, necessaryTypedefs)
	return strings.Join(decls, "\n")
}

// FromDefinitionAll extracts a declaration for every top-level function
// definition found in def.RawText. Ordinarily that is just def itself,
// but a misparsed function-returning-a-function-pointer definition can
// cause the tag extractor to bundle two definitions into one span (§4.F,
// §8 scenario 4); each one gets its own declaration.
func FromDefinitionAll(def *symtab.Symbol, necessaryTypedefs map[string]bool) []string {
	src := []byte(def.RawText)
	var out []string
	i := 0
	for i < len(src) {
		openParen := strings.IndexByte(string(src[i:]), '(')
		if openParen < 0 {
			break
		}
		openParen += i
		closeParen, ok := lexer.ScanBalanced(src, openParen, '(', ')')
		if !ok {
			break
		}
		// Text between the closing ')' and the opening '{' is kept in the
		// declaration: it is empty, an attribute, or the "(void)" tail of
		// a function returning a function pointer. A ';' there (a K&R-style
		// parameter declaration block) ends extraction at this point.
		openBrace := indexByteFrom(src, closeParen+1, '{')
		if openBrace < 0 {
			break
		}
		header := strings.TrimSpace(string(src[i:openBrace]))
		out = append(out, stripInlineMarkers(header+";"))
		closeBrace, ok := lexer.ScanBalanced(src, openBrace, '{', '}')
		if !ok {
			break
		}
		i = closeBrace + 1
	}
	if len(out) == 0 {
		return []string{synthesizeKRStub(def, necessaryTypedefs)}
	}
	return out
}

func indexByteFrom(src []byte, from int, b byte) int {
	for i := from; i < len(src); i++ {
		if src[i] == b {
			return i
		}
		if src[i] == ';' {
			return -1 // hit a statement terminator before any brace: not a definition
		}
	}
	return -1
}

// terminateDecl appends ';' to prototype text that doesn't already end in
// one, e.g. when a prototype symbol's raw_text was captured without its
// trailing semicolon.
func terminateDecl(text string) string {
	trimmed := strings.TrimRight(text, " \t\n")
	if strings.HasSuffix(trimmed, ";") {
		return trimmed
	}
	return trimmed + ";"
}

// stripInlineMarkers removes always_inline/inline from a *declaration*
// (never from a definition, which keeps its body and so still needs the
// compiler to see the attribute). Spec.md §4.F: "so the compiler does not
// demand a body."
func stripInlineMarkers(text string) string {
	text = alwaysInlinePattern.ReplaceAllString(text, "")
	text = replaceWholeWord(text, "always_inline", "")
	text = replaceWholeWord(text, "__inline__", "")
	text = replaceWholeWord(text, "__inline", "")
	text = replaceWholeWord(text, "inline", "")
	return collapseSpaces(text)
}

func replaceWholeWord(s, word, repl string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	return re.ReplaceAllString(s, repl)
}

func collapseSpaces(s string) string {
	fields := strings.Fields(s)
	joined := strings.Join(fields, " ")
	joined = strings.ReplaceAll(joined, "( ", "(")
	joined = strings.ReplaceAll(joined, " )", ")")
	joined = strings.ReplaceAll(joined, " ;", ";")
	joined = strings.ReplaceAll(joined, " ,", ",")
	return joined
}

// synthesizeKRStub implements the §4.F fallback ladder: a known
// return-type typedef available in this PU beats a bare K&R stub, which
// beats nothing. Never falls back to "void *" — callers that dereference
// the result (f(x)->field) would fail to compile against that.
func synthesizeKRStub(def *symtab.Symbol, necessaryTypedefs map[string]bool) string {
	ret := strings.TrimSpace(def.ReturnTypeText)
	if ret != "" && (isBuiltinType(ret) || necessaryTypedefs[lastWord(ret)]) {
		return ret + " " + def.Key.Name + "();"
	}
	return "int " + def.Key.Name + "();"
}

func lastWord(s string) string {
	fields := strings.Fields(strings.TrimRight(s, "*"))
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

var builtinTypes = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true, "_Bool": true,
}

func isBuiltinType(typeText string) bool {
	for _, w := range strings.Fields(typeText) {
		w = strings.TrimRight(w, "*")
		if w == "" {
			continue
		}
		if !builtinTypes[w] && w != "const" && w != "volatile" && w != "static" {
			return false
		}
	}
	return true
}

// ExternDeclaration emits "extern T v;" for a referenced global, or ""
// if T's base type is neither a builtin nor present in the PU's
// necessary typedef set — spec.md §4.F's extern-variable filtering,
// which exists because leaving behind a reference to an unknown type
// (e.g. "extern clipmethod_T clipmethod;" with clipmethod_T unavailable)
// breaks compilation rather than merely bloating the PU.
func ExternDeclaration(v *symtab.Symbol, necessaryTypedefs map[string]bool) (string, bool) {
	base := lastWord(strings.TrimSpace(v.ReturnTypeText))
	if base == "" {
		base = lastWord(firstLine(v.RawText))
	}
	if base != "" && !isBuiltinType(base) && !necessaryTypedefs[base] {
		return "", false
	}
	decl := "extern " + strings.TrimSpace(firstLine(v.RawText))
	decl = strings.TrimSuffix(strings.TrimSpace(decl), ";") + ";"
	return decl, true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// SkipTypedefWithInternalStruct implements §4.F's "typedef-with-internal-
// struct skip": a typedef whose body references a struct tag beginning
// with "__" that is not otherwise in scope is simply omitted, since no
// tag extractor will ever produce a usable definition for it.
func SkipTypedefWithInternalStruct(table *symtab.Table, typedefSym *symtab.Symbol) bool {
	for _, m := range internalStructRef.FindAllStringSubmatch(typedefSym.RawText, -1) {
		tag := m[1]
		if _, ok := table.ResolveStructTag(tag, typedefSym.Key.File); !ok {
			return true
		}
	}
	return false
}

var internalStructRef = regexp.MustCompile(`\b(?:struct|union)\s+(__[A-Za-z0-9_]*)\b`)
