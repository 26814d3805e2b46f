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

package lexer

import (
	"testing"

	"github.com/dctags/pus/internal/ppos"
)

func tokenize(t *testing.T, src string) []Token {
	t.Helper()
	file := ppos.NewFileFromSource("t.c", []byte(src))
	return Tokenize(file, []byte(src), 0)
}

func TestCharLitPreservesEscapedQuote(t *testing.T) {
	toks := tokenize(t, `case '\'': break;`)
	var lit string
	for _, tok := range toks {
		if tok.Kind == CharLit {
			lit = tok.Text
		}
	}
	if lit != `'\''` {
		t.Fatalf("expected exact literal spelling %q, got %q", `'\''`, lit)
	}
}

func TestCharLitDoesNotSwallowSubsequentCode(t *testing.T) {
	// A naive scanner that normalizes '+' to a single rune class (rather
	// than copying the literal verbatim) can misjudge where a case label
	// like '+' ends; this is the bug class spec.md §9 names.
	toks := tokenize(t, `switch (c) { case '+': return 1; case '-': return 2; }`)
	var idents []string
	for _, tok := range toks {
		if tok.Kind == Ident {
			idents = append(idents, tok.Text)
		}
	}
	want := []string{"switch", "c", "case", "return", "case", "return"}
	if len(idents) != len(want) {
		t.Fatalf("expected %d identifiers, got %d: %v", len(want), len(idents), idents)
	}
	for i, w := range want {
		if idents[i] != w {
			t.Fatalf("identifier %d: expected %q, got %q", i, w, idents[i])
		}
	}
}

func TestStringLitPreservesEscapes(t *testing.T) {
	toks := tokenize(t, `char *s = "a\"b\\c";`)
	var lit string
	for _, tok := range toks {
		if tok.Kind == StringLit {
			lit = tok.Text
		}
	}
	if lit != `"a\"b\\c"` {
		t.Fatalf("expected exact literal spelling, got %q", lit)
	}
}

func TestMultiCharPunctPrefersLongestMatch(t *testing.T) {
	toks := tokenize(t, `a->b <<= c`)
	var puncts []string
	for _, tok := range toks {
		if tok.Kind == Punct {
			puncts = append(puncts, tok.Text)
		}
	}
	want := []string{"->", "<<="}
	if len(puncts) != len(want) {
		t.Fatalf("expected %v, got %v", want, puncts)
	}
	for i, w := range want {
		if puncts[i] != w {
			t.Fatalf("punct %d: expected %q, got %q", i, w, puncts[i])
		}
	}
}

func TestLineCommentSkippedByDefault(t *testing.T) {
	toks := tokenize(t, "int x; // trailing comment\nint y;")
	for _, tok := range toks {
		if tok.Kind == Comment {
			t.Fatalf("expected comments to be skipped by default, got %q", tok.Text)
		}
	}
}

func TestScanCommentsModeReturnsComment(t *testing.T) {
	file := ppos.NewFileFromSource("t.c", []byte("int x; /* c */"))
	toks := Tokenize(file, []byte("int x; /* c */"), ScanComments)
	var found bool
	for _, tok := range toks {
		if tok.Kind == Comment && tok.Text == "/* c */" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a Comment token in ScanComments mode, got %+v", toks)
	}
}

func TestPreprocLineJoinsBackslashContinuation(t *testing.T) {
	toks := tokenize(t, "#define FOO \\\n  bar\nint x;")
	if toks[0].Kind != PreprocLine {
		t.Fatalf("expected first token to be a preprocessor line, got %v", toks[0].Kind)
	}
	if toks[0].Text != "#define FOO \\\n  bar" {
		t.Fatalf("expected continuation joined into one token, got %q", toks[0].Text)
	}
}
