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

// Package lexer implements component 4.A: a tokenizer for already
// preprocessed C source that preserves the exact spelling of character and
// string literals. Every other component that needs to scan C text for
// identifiers, or needs to find a matching brace/paren while skipping over
// literals and comments, builds on this package rather than re-implementing
// its own character-class heuristic — that shortcut is the documented
// source of an entire bug class (spec.md §9).
package lexer

import (
	"unicode"
	"unicode/utf8"

	"github.com/dctags/pus/internal/ppos"
)

// Kind classifies a Token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Number
	CharLit
	StringLit
	Punct
	PreprocLine
	Comment
	Newline
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "IDENT"
	case Number:
		return "NUMBER"
	case CharLit:
		return "CHAR"
	case StringLit:
		return "STRING"
	case Punct:
		return "PUNCT"
	case PreprocLine:
		return "PREPROC"
	case Comment:
		return "COMMENT"
	case Newline:
		return "NEWLINE"
	default:
		return "?"
	}
}

// Token is one lexical unit. Text is always the exact original spelling of
// the token, byte for byte — this matters most for CharLit and StringLit,
// where spec.md's universal invariants require byte-for-byte preservation.
type Token struct {
	Kind   Kind
	Text   string
	Offset int
	Pos    ppos.Pos
}

// Mode controls optional lexer behavior.
type Mode uint

const (
	// ScanComments causes comments to be returned as Comment tokens
	// instead of being silently skipped.
	ScanComments Mode = 1 << iota
)

// Lexer tokenizes src incrementally. The zero value is not usable; use New.
type Lexer struct {
	file *ppos.File
	src  []byte
	mode Mode

	offset int
}

// New creates a Lexer over src, recording line offsets into file as it
// scans (file.Size() must equal len(src)).
func New(file *ppos.File, src []byte, mode Mode) *Lexer {
	return &Lexer{file: file, src: src, mode: mode}
}

func (l *Lexer) byteAt(i int) byte {
	if i < 0 || i >= len(l.src) {
		return 0
	}
	return l.src[i]
}

// Next returns the next token, or a Kind==EOF token at end of input.
func (l *Lexer) Next() Token {
	l.skipInsignificant()
	start := l.offset
	if start >= len(l.src) {
		return Token{Kind: EOF, Offset: start, Pos: l.file.Pos(start)}
	}

	c := l.src[start]
	switch {
	case c == '#' && l.atLineStart(start):
		return l.scanPreprocLine()
	case c == '\'':
		return l.scanCharLit()
	case c == '"':
		return l.scanStringLit()
	case c == '/' && (l.byteAt(start+1) == '/' || l.byteAt(start+1) == '*'):
		// Only reached in ScanComments mode; otherwise skipInsignificant
		// has already consumed the comment.
		if l.byteAt(start+1) == '/' {
			l.skipLineComment()
		} else {
			l.skipBlockComment()
		}
		return l.token(Comment, start)
	case isIdentStart(rune(c)) || c >= utf8.RuneSelf:
		return l.scanIdent()
	case isDigit(c):
		return l.scanNumber()
	default:
		return l.scanPunct()
	}
}

// skipInsignificant advances past plain whitespace and, unless
// ScanComments is set, comments. It records newlines into the File.
func (l *Lexer) skipInsignificant() {
	for l.offset < len(l.src) {
		c := l.src[l.offset]
		switch {
		case c == '\n':
			l.offset++
			l.file.AddLine(l.offset)
		case c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f':
			l.offset++
		case c == '/' && l.byteAt(l.offset+1) == '/' && l.mode&ScanComments == 0:
			l.skipLineComment()
		case c == '/' && l.byteAt(l.offset+1) == '*' && l.mode&ScanComments == 0:
			l.skipBlockComment()
		default:
			return
		}
	}
}

func (l *Lexer) skipLineComment() {
	for l.offset < len(l.src) && l.src[l.offset] != '\n' {
		l.offset++
	}
}

func (l *Lexer) skipBlockComment() {
	l.offset += 2
	for l.offset < len(l.src) {
		if l.src[l.offset] == '\n' {
			l.file.AddLine(l.offset + 1)
		}
		if l.src[l.offset] == '*' && l.byteAt(l.offset+1) == '/' {
			l.offset += 2
			return
		}
		l.offset++
	}
}

func (l *Lexer) atLineStart(offset int) bool {
	i := offset - 1
	for i >= 0 && (l.src[i] == ' ' || l.src[i] == '\t') {
		i--
	}
	return i < 0 || l.src[i] == '\n'
}

func (l *Lexer) scanPreprocLine() Token {
	start := l.offset
	for l.offset < len(l.src) {
		if l.src[l.offset] == '\\' && l.byteAt(l.offset+1) == '\n' {
			l.offset += 2
			l.file.AddLine(l.offset)
			continue
		}
		if l.src[l.offset] == '\n' {
			break
		}
		l.offset++
	}
	return l.token(PreprocLine, start)
}

// scanCharLit preserves the exact text between (and including) the quotes,
// handling backslash escapes so an escaped quote does not end the literal
// early. This is the fix the spec names for case labels like '+' and '-'
// colliding when literal text is normalized instead of copied verbatim.
func (l *Lexer) scanCharLit() Token {
	start := l.offset
	l.offset++ // opening '
	for l.offset < len(l.src) {
		c := l.src[l.offset]
		if c == '\\' && l.offset+1 < len(l.src) {
			l.offset += 2
			continue
		}
		l.offset++
		if c == '\'' {
			break
		}
		if c == '\n' {
			break // unterminated; stop without consuming the newline twice
		}
	}
	return l.token(CharLit, start)
}

func (l *Lexer) scanStringLit() Token {
	start := l.offset
	l.offset++ // opening "
	for l.offset < len(l.src) {
		c := l.src[l.offset]
		if c == '\\' && l.offset+1 < len(l.src) {
			l.offset += 2
			continue
		}
		l.offset++
		if c == '"' {
			break
		}
		if c == '\n' {
			break
		}
	}
	return l.token(StringLit, start)
}

func (l *Lexer) scanIdent() Token {
	start := l.offset
	for l.offset < len(l.src) {
		r, w := utf8.DecodeRune(l.src[l.offset:])
		if !isIdentPart(r) {
			break
		}
		l.offset += w
	}
	return l.token(Ident, start)
}

func (l *Lexer) scanNumber() Token {
	start := l.offset
	for l.offset < len(l.src) {
		c := l.src[l.offset]
		if isDigit(c) || isIdentPart(rune(c)) || c == '.' {
			l.offset++
			continue
		}
		if (c == '+' || c == '-') && l.offset > start {
			prev := l.src[l.offset-1]
			if prev == 'e' || prev == 'E' || prev == 'p' || prev == 'P' {
				l.offset++
				continue
			}
		}
		break
	}
	return l.token(Number, start)
}

// multiCharPuncts is ordered longest-first so greedy matching prefers, say,
// "->" over "-" followed by ">".
var multiCharPuncts = []string{
	"...", "<<=", ">>=",
	"->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=",
	"&&", "||", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "##",
}

func (l *Lexer) scanPunct() Token {
	start := l.offset
	rest := l.src[l.offset:]
	for _, p := range multiCharPuncts {
		if len(rest) >= len(p) && string(rest[:len(p)]) == p {
			l.offset += len(p)
			return l.token(Punct, start)
		}
	}
	l.offset++
	return l.token(Punct, start)
}

func (l *Lexer) token(kind Kind, start int) Token {
	return Token{Kind: kind, Text: string(l.src[start:l.offset]), Offset: start, Pos: l.file.Pos(start)}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokenize runs the Lexer to completion and returns every token, including
// the trailing EOF token. Convenience for components (4.C, 4.E synthesis
// helpers) that want a materialized slice rather than a pull loop.
func Tokenize(file *ppos.File, src []byte, mode Mode) []Token {
	l := New(file, src, mode)
	var toks []Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Kind == EOF {
			return toks
		}
	}
}
