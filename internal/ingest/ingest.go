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

// Package ingest implements component 4.B: turning a parsed tag stream
// into populated Symbol Table entries.
package ingest

import (
	"regexp"
	"strings"

	"github.com/dctags/pus/internal/perrors"
	"github.com/dctags/pus/internal/ppos"
	"github.com/dctags/pus/internal/symtab"
	"github.com/dctags/pus/internal/tagstream"
)

// Source bundles one preprocessed file's bytes with its line table, keyed
// by the filename tag records reference. The TU itself is normally the
// only entry, but ctags can have been pointed at more than one
// already-preprocessed file during one logical invocation (e.g. a couple
// of hand-merged .i files), so Ingest accepts a map.
type Source struct {
	Path string
	Text []byte
	file *ppos.File
}

// NewSource builds a Source and its line table.
func NewSource(path string, text []byte) *Source {
	return &Source{Path: path, Text: text, file: ppos.NewFileFromSource(path, text)}
}

// PosAt returns the compact position for a byte offset into Text, for
// callers (internal/scan) that locate matches by byte offset rather than
// by line.
func (s *Source) PosAt(offset int) ppos.Pos { return s.file.Pos(offset) }

// LineAt returns the 1-based line number containing offset.
func (s *Source) LineAt(offset int) int { return s.file.Position(offset).Line }

// LineSpan returns the 1-based (startLine, endLine) pair covering the byte
// range [start, end).
func (s *Source) LineSpan(start, end int) (int, int) {
	return s.file.Position(start).Line, s.file.Position(end).Line
}

// PrecedingCodeLine returns the nearest non-blank, non-preprocessor-directive
// line strictly above the 1-based line, trimmed of surrounding whitespace —
// the "most recent non-preprocessor line above" spec.md §4.C.3 joins onto a
// K&R-style function header. ok is false if no such line exists (e.g. line
// is the first line of the file).
func (s *Source) PrecedingCodeLine(line int) (text string, lineNo int, ok bool) {
	for l := line - 1; l >= 1; l-- {
		start := s.file.LineStart(l)
		if start < 0 {
			continue
		}
		end := s.file.LineStart(l + 1)
		if end < 0 {
			end = len(s.Text)
		}
		raw := string(s.Text[start:end])
		trimmed := strings.TrimRight(strings.TrimLeft(raw, " \t"), " \t\r\n")
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		return trimmed, l, true
	}
	return "", 0, false
}

var forwardDeclPattern = regexp.MustCompile(`^(struct|union)\s+[A-Za-z_][A-Za-z0-9_]*\s*;\s*$`)

// Ingest reads every record and adds a Symbol to table for each one whose
// kind is recognized. Malformed kinds are reported via diags and skipped,
// per spec.md §7 kind 2; the caller is expected to have already used
// tagstream.Parse (which reports its own per-line malformed records) to
// produce records.
func Ingest(table *symtab.Table, records []*tagstream.Record, sources map[string]*Source, diags *perrors.List) {
	for _, rec := range records {
		ingestOne(table, rec, sources, diags)
	}
}

func ingestOne(table *symtab.Table, rec *tagstream.Record, sources map[string]*Source, diags *perrors.List) {
	kindStr, ok := rec.Kind()
	if !ok {
		diags.Malformed(ppos.NoPos, "tag record %q in %s (line %d of tag stream): missing kind field", rec.Name, rec.File, rec.LineNo)
		return
	}
	kind, ok := symtab.ParseKind(kindStr)
	if !ok {
		diags.Malformed(ppos.NoPos, "tag record %q in %s: unrecognized kind %q", rec.Name, rec.File, kindStr)
		return
	}

	lineStart, _ := rec.Line()
	lineEnd, hasEnd := rec.End()
	if !hasEnd {
		lineEnd = lineStart
	}

	sym := &symtab.Symbol{
		Key:       symtab.Key{Kind: kind, Name: rec.Name, File: rec.File},
		LineStart: lineStart,
		LineEnd:   lineEnd,
		IsStatic:  rec.IsStaticScope(),
		Scope:     firstOf(rec.Scope()),
	}

	if src, ok := sources[rec.File]; ok && lineStart > 0 {
		if start, end, ok := src.file.LineRange(src.Text, lineStart, lineEnd); ok {
			sym.RawText = string(src.Text[start:end])
			sym.Pos = src.file.Pos(start)
		}
	}

	if sig, ok := rec.Signature(); ok {
		sym.Signature = sig
		if strings.Contains(sig, "...") {
			sym.IsVariadic = true
		}
	}
	if kind.IsCallable() {
		sym.ReturnTypeText = deriveReturnType(rec.Name, sym.RawText)
	}
	if strings.Contains(sym.RawText, "always_inline") {
		sym.IsAlwaysInline = true
	}
	if !sym.IsStatic && strings.HasPrefix(strings.TrimSpace(firstLine(sym.RawText)), "static ") {
		sym.IsStatic = true
	}

	// Supplemented edge case bug47: a forward struct/union declaration
	// that ctags only captured as an externvar entry must still be
	// recognized as a Pass-0 forward-declaration candidate, not treated
	// as an ordinary extern variable nor silently dropped.
	if kind == symtab.ExternVar && forwardDeclPattern.MatchString(strings.TrimSpace(sym.RawText)) {
		sym.IsForwardDeclCandidate = true
	}

	table.Add(sym)
}

func firstOf(s string, ok bool) string {
	if ok {
		return s
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// deriveReturnType extracts the text preceding the function/prototype name
// on its first line, a best-effort normalization of "return_type_text"
// (spec.md §3). K&R-style headers where the return type sits on the
// previous physical line are handled by the Source Scanner (4.C.3), which
// overwrites this field when it finds one.
func deriveReturnType(name, rawText string) string {
	line := firstLine(rawText)
	idx := strings.Index(line, name)
	if idx <= 0 {
		return ""
	}
	return strings.TrimSpace(line[:idx])
}
