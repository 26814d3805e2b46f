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

// Package scan implements component 4.C: a second pass over the
// preprocessed source that fills gaps the external tag extractor leaves
// behind. It runs after the Tag Ingestor (internal/ingest) has populated
// the Symbol Table from the tag stream, and adds entries that were
// missing. The one change it makes to a symbol ctags already reported is
// the K&R header join (4.C.3), which fills in a function's empty return
// type and prepends that line to its raw text; it never replaces a symbol.
package scan

import (
	"regexp"
	"strings"

	"github.com/dctags/pus/internal/diag"
	"github.com/dctags/pus/internal/ingest"
	"github.com/dctags/pus/internal/lexer"
	"github.com/dctags/pus/internal/symtab"
)

// Scan runs every gap-filling pass (spec.md §4.C.1-6, plus the
// embedded-prototype pass 4.C.7 below) over each source in
// sources, adding recovered symbols and alias entries to table. table must
// not yet be frozen.
func Scan(table *symtab.Table, sources map[string]*ingest.Source, log *diag.Logger) {
	for _, src := range sources {
		scanAnonymousEnums(table, src, log)
		scanStaticFuncPointers(table, src, log)
		scanKRHeaders(table, src, log)
		scanMultiNameTypedefs(table, src, log)
		scanNestedStructs(table, src, log)
		scanInlineStructAliases(table, src, log)
		scanEmbeddedPrototypes(table, src, log)
	}
}

// --- 4.C.1 Anonymous-enum enumerators ---------------------------------

var anonEnumPattern = regexp.MustCompile(`\benum\s*\{`)

func scanAnonymousEnums(table *symtab.Table, src *ingest.Source, log *diag.Logger) {
	text := src.Text
	for _, loc := range anonEnumPattern.FindAllIndex(text, -1) {
		openBrace := loc[1] - 1
		closeBrace, ok := lexer.ScanBalanced(text, openBrace, '{', '}')
		if !ok {
			continue
		}
		line := src.LineAt(loc[0])
		enumKey := symtab.Key{Kind: symtab.Enum, Name: synthEnumName(line, src.Path), File: src.Path}
		body := string(text[openBrace+1 : closeBrace])

		names := splitTopLevel(body, ',')
		added := false
		for _, raw := range names {
			name := firstIdent(strings.TrimSpace(raw))
			if name == "" {
				continue
			}
			enumeratorKey := symtab.Key{Kind: symtab.Enumerator, Name: name, File: src.Path}
			sym := &symtab.Symbol{
				Key:     enumeratorKey,
				RawText: strings.TrimSpace(raw),
				Pos:     src.PosAt(loc[0]),
			}
			table.Add(sym)
			table.SetEnumeratorOwner(name, enumKey)
			added = true
		}
		if !added {
			continue
		}
		startLine, endLine := src.LineSpan(loc[0], closeBrace)
		table.Add(&symtab.Symbol{
			Key:       enumKey,
			RawText:   string(text[loc[0] : closeBrace+1]),
			LineStart: startLine,
			LineEnd:   endLine,
			Pos:       src.PosAt(loc[0]),
		})
		if log != nil {
			log.Debugf("scan: synthesized anonymous enum %s in %s", enumKey.Name, src.Path)
		}
	}
}

func synthEnumName(line int, file string) string {
	return "__anon_" + itoa(line)
}

// --- 4.C.2 Static function-pointer variables ---------------------------

// staticFuncPtrPattern matches declarations like
// "static RET *((*NAME)(ARGS))" or the more common "static RET (*NAME)(ARGS)"
// that ctags frequently fails to tag because the declared name is buried
// inside parentheses rather than appearing as a bare identifier.
var staticFuncPtrPattern = regexp.MustCompile(
	`(?m)^[ \t]*static[ \t]+[A-Za-z_][\w \t\*]*?\(+\s*\*+\s*([A-Za-z_]\w*)\s*\)+\s*\([^;{]*\)`)

func scanStaticFuncPointers(table *symtab.Table, src *ingest.Source, log *diag.Logger) {
	text := src.Text
	for _, loc := range staticFuncPtrPattern.FindAllSubmatchIndex(text, -1) {
		name := string(text[loc[2]:loc[3]])
		stmtEnd := endOfStatement(text, loc[1])
		if stmtEnd < 0 {
			continue
		}
		key := symtab.Key{Kind: symtab.Variable, Name: name, File: src.Path}
		if _, exists := table.Get(key); exists {
			continue
		}
		startLine, endLine := src.LineSpan(loc[0], stmtEnd)
		table.Add(&symtab.Symbol{
			Key:       key,
			RawText:   string(text[loc[0] : stmtEnd+1]),
			LineStart: startLine,
			LineEnd:   endLine,
			Pos:       src.PosAt(loc[0]),
			IsStatic:  true,
		})
		if log != nil {
			log.Debugf("scan: recovered static function-pointer variable %s in %s", name, src.Path)
		}
	}
}

// --- 4.C.3 K&R-style headers -------------------------------------------

// scanKRHeaders looks at every Function symbol already in the table whose
// return type could not be derived from its own first line (ingest.go's
// deriveReturnType found nothing because the name sits at column 0) and
// joins the nearest preceding non-blank, non-preprocessor line as its
// return-type prefix. Without this, a forward declaration for
//
//	void
//	limit_screen_size(void) { ... }
//
// would be synthesized as "int limit_screen_size();" and conflict with the
// real definition (spec.md §8 scenario 2).
func scanKRHeaders(table *symtab.Table, src *ingest.Source, log *diag.Logger) {
	for _, sym := range table.All() {
		if sym.Key.Kind != symtab.Function || sym.Key.File != src.Path {
			continue
		}
		if sym.ReturnTypeText != "" {
			continue
		}
		if !strings.HasPrefix(strings.TrimSpace(firstLine(sym.RawText)), sym.Key.Name) {
			continue
		}
		prefix, prefixLine, ok := src.PrecedingCodeLine(sym.LineStart)
		if !ok || prefix == "" {
			continue
		}
		sym.ReturnTypeText = prefix
		sym.IsKRStyle = true
		sym.RawText = prefix + "\n" + sym.RawText
		sym.LineStart = prefixLine
		if log != nil {
			log.Debugf("scan: joined K&R return type %q for %s in %s", prefix, sym.Key.Name, src.Path)
		}
	}
}

// --- 4.C.4 Multi-name typedefs ------------------------------------------

var typedefPattern = regexp.MustCompile(`\btypedef\b`)

func scanMultiNameTypedefs(table *symtab.Table, src *ingest.Source, log *diag.Logger) {
	text := src.Text
	for _, loc := range typedefPattern.FindAllIndex(text, -1) {
		stmtEnd := endOfStatement(text, loc[1])
		if stmtEnd < 0 {
			continue
		}
		declRegion := string(text[loc[1] : stmtEnd+1])
		declRegion = strings.TrimSuffix(strings.TrimSpace(declRegion), ";")

		parts := splitTopLevel(declRegion, ',')
		if len(parts) < 2 {
			continue // a single declarator: the ingestor's tag-driven entry already covers it
		}

		startLine, endLine := src.LineSpan(loc[0], stmtEnd)
		rawText := string(text[loc[0] : stmtEnd+1])

		for _, part := range parts {
			name := lastIdent(strings.TrimSpace(part))
			if name == "" {
				continue
			}
			key := symtab.Key{Kind: symtab.Typedef, Name: name, File: src.Path}
			if _, exists := table.Get(key); exists {
				continue
			}
			table.Add(&symtab.Symbol{
				Key:       key,
				RawText:   rawText,
				LineStart: startLine,
				LineEnd:   endLine,
				Pos:       src.PosAt(loc[0]),
			})
			if log != nil {
				log.Debugf("scan: split multi-name typedef %s out of %s", name, rawText)
			}
		}
	}
}

// --- 4.C.5 Nested struct tags --------------------------------------------

var structOpenPattern = regexp.MustCompile(`\b(struct|union)\s+([A-Za-z_]\w*)\s*\{`)

func scanNestedStructs(table *symtab.Table, src *ingest.Source, log *diag.Logger) {
	for _, outer := range table.All() {
		if !outer.Key.Kind.IsAggregate() || outer.Key.File != src.Path {
			continue
		}
		body := outer.RawText
		for i, loc := range structOpenPattern.FindAllSubmatchIndex([]byte(body), -1) {
			if i == 0 && strings.HasPrefix(strings.TrimSpace(body), body[loc[0]:loc[1]]) {
				continue // the outer tag's own opening brace, not a nested one
			}
			kindWord := body[loc[2]:loc[3]]
			tag := body[loc[4]:loc[5]]
			openBrace := loc[1] - 1
			closeBrace, ok := lexer.ScanBalanced([]byte(body), openBrace, '{', '}')
			if !ok {
				continue
			}

			kind := symtab.Struct
			if kindWord == "union" {
				kind = symtab.Union
			}
			key := symtab.Key{Kind: kind, Name: tag, File: src.Path}
			if _, exists := table.Get(key); exists {
				table.SetNestedParent(tag, outer.Key)
				continue
			}
			table.Add(&symtab.Symbol{
				Key:     key,
				RawText: body[loc[0] : closeBrace+1],
			})
			table.SetNestedParent(tag, outer.Key)
			if log != nil {
				log.Debugf("scan: interned nested %s %s inside %s", kindWord, tag, outer.Key.Name)
			}
		}
	}
}

// --- 4.C.6 Inline struct aliases ------------------------------------------

func scanInlineStructAliases(table *symtab.Table, src *ingest.Source, log *diag.Logger) {
	text := src.Text
	for _, loc := range structOpenPattern.FindAllSubmatchIndex(text, -1) {
		tag := string(text[loc[4]:loc[5]])
		openBrace := loc[1] - 1
		closeBrace, ok := lexer.ScanBalanced(text, openBrace, '{', '}')
		if !ok {
			continue
		}
		stmtEnd := endOfStatement(text, closeBrace+1)
		if stmtEnd < 0 {
			continue
		}
		trailer := strings.TrimSpace(string(text[closeBrace+1 : stmtEnd]))
		trailer = strings.TrimPrefix(trailer, "*")
		trailer = strings.TrimSpace(trailer)
		alias := lastIdent(trailer)
		if alias == "" {
			continue // a bare "struct TAG { ... };" definition, nothing to alias
		}

		prefix := string(text[:loc[0]])
		kind := symtab.Variable
		if isPrecededByKeyword(prefix, "typedef") {
			kind = symtab.Typedef
		}
		aliasKey := symtab.Key{Kind: kind, Name: alias, File: src.Path}
		table.SetStructAlias(tag, aliasKey)
		if log != nil {
			log.Debugf("scan: struct_alias[%s] = %s", tag, aliasKey)
		}
	}
}

func isPrecededByKeyword(prefix, keyword string) bool {
	trimmed := strings.TrimRight(prefix, " \t")
	return strings.HasSuffix(trimmed, keyword)
}

// --- 4.C.7 Embedded/missed prototypes (bug77) -----------------------------

// prototypeCandidatePattern matches a single-line, single-statement
// declaration shape: one or more leading "type word" tokens, a name, a
// parenthesized argument list, and a terminating ';' all on one line.
// It is deliberately loose — real prototypes ctags misses come in many
// shapes — and over-matching is corrected by the depth check and the
// keyword check in scanEmbeddedPrototypes, not by the regex itself.
var prototypeCandidatePattern = regexp.MustCompile(
	`(?m)^[ \t]*((?:[A-Za-z_]\w*[ \t\*]+)+)([A-Za-z_]\w*)[ \t]*\(([^;{}()]*)\)[ \t]*;`)

// callSiteLeadWords are the only words the regex above can capture as a
// "return type" sequence that are actually control-flow keywords
// introducing a call, not a declaration: "return f(x);" must never be
// read as a declaration of f (bug77).
var callSiteLeadWords = map[string]bool{
	"return": true, "if": true, "while": true, "for": true,
	"switch": true, "case": true, "goto": true, "do": true, "else": true,
	"sizeof": true,
}

// scanEmbeddedPrototypes recovers prototype declarations the tag
// extractor missed entirely (as opposed to 4.C.3, which only fixes up a
// K&R return-type prefix on an already-tagged function). It must reject
// lines that are function calls dressed as prototypes: "return f(x);",
// "p->g(x);", and argument-list fragments like "a, b, f());" all fail to
// match prototypeCandidatePattern's required leading type-token sequence
// or are rejected by the keyword check below; it must also reject any
// candidate found inside a function body (brace depth > 0), since a
// statement there is a call or a local declaration, never a file-scope
// prototype.
func scanEmbeddedPrototypes(table *symtab.Table, src *ingest.Source, log *diag.Logger) {
	text := src.Text
	depths := braceDepths(text)
	for _, loc := range prototypeCandidatePattern.FindAllSubmatchIndex(text, -1) {
		if depths[loc[0]] != 0 {
			continue // inside a function body: a statement, not a file-scope prototype
		}
		typeSeq := string(text[loc[2]:loc[3]])
		if leadWordIsCallSite(typeSeq) {
			continue
		}
		name := string(text[loc[4]:loc[5]])
		key := symtab.Key{Kind: symtab.Prototype, Name: name, File: src.Path}
		if _, exists := table.Get(key); exists {
			continue
		}
		startLine, endLine := src.LineSpan(loc[0], loc[1]-1)
		table.Add(&symtab.Symbol{
			Key:       key,
			RawText:   strings.TrimSpace(string(text[loc[0]:loc[1]])),
			LineStart: startLine,
			LineEnd:   endLine,
			Pos:       src.PosAt(loc[0]),
		})
		if log != nil {
			log.Debugf("scan: recovered embedded prototype %s in %s", name, src.Path)
		}
	}
}

// leadWordIsCallSite reports whether any whitespace/*-separated token in
// a candidate's captured leading sequence is a control-flow keyword,
// meaning the match is a call site, not a declaration.
func leadWordIsCallSite(typeSeq string) bool {
	for _, word := range strings.Fields(strings.ReplaceAll(typeSeq, "*", " ")) {
		if callSiteLeadWords[word] {
			return true
		}
	}
	return false
}

// braceDepths returns, for each byte offset in text, the brace nesting
// depth at that offset (0 at file scope), using the same literal/comment
// aware tracker every other brace-counting pass in this package uses.
func braceDepths(text []byte) []int {
	depths := make([]int, len(text)+1)
	t := lexer.NewBraceTracker()
	i := 0
	for i < len(text) {
		depths[i] = t.Depth
		i += t.Step(text, i)
	}
	depths[len(text)] = t.Depth
	return depths
}

// --- shared helpers --------------------------------------------------------

// splitTopLevel splits s on sep, ignoring occurrences inside parens,
// brackets, braces, char/string literals, and comments.
func splitTopLevel(s string, sep byte) []string {
	b := []byte(s)
	var parts []string
	start := 0
	depth := 0
	t := lexer.NewBraceTracker()
	i := 0
	for i < len(b) {
		c := b[i]
		if !t.InLiteralOrComment() {
			switch {
			case c == '(' || c == '[' || c == '{':
				depth++
			case c == ')' || c == ']' || c == '}':
				depth--
			case c == sep && depth == 0:
				parts = append(parts, string(b[start:i]))
				start = i + 1
			}
		}
		i += t.Step(b, i)
	}
	parts = append(parts, string(b[start:]))
	return parts
}

// endOfStatement returns the byte index of the top-level ';' terminating
// the statement beginning at from, or -1 if none is found before EOF.
func endOfStatement(src []byte, from int) int {
	t := lexer.NewBraceTracker()
	depth := 0
	i := from
	for i < len(src) {
		c := src[i]
		if !t.InLiteralOrComment() {
			switch {
			case c == '(' || c == '[' || c == '{':
				depth++
			case c == ')' || c == ']' || c == '}':
				depth--
			case c == ';' && depth <= 0:
				return i
			}
		}
		i += t.Step(src, i)
	}
	return -1
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func firstIdent(s string) string {
	i := 0
	for i < len(s) && !isIdentByte(s[i]) {
		i++
	}
	j := i
	for j < len(s) && isIdentByte(s[j]) {
		j++
	}
	return s[i:j]
}

func lastIdent(s string) string {
	j := len(s)
	for j > 0 && !isIdentByte(s[j-1]) {
		j--
	}
	i := j
	for i > 0 && isIdentByte(s[i-1]) {
		i--
	}
	return s[i:j]
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
