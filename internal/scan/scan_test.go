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

package scan

import (
	"testing"

	"github.com/dctags/pus/internal/ingest"
	"github.com/dctags/pus/internal/symtab"
)

func TestScanAnonymousEnumEnumerators(t *testing.T) {
	src := ingest.NewSource("e.c", []byte("enum { RED, GREEN, BLUE = 10 };\n"))
	table := symtab.New()
	Scan(table, map[string]*ingest.Source{"e.c": src}, nil)

	for _, name := range []string{"RED", "GREEN", "BLUE"} {
		sym, ok := table.Get(symtab.Key{Kind: symtab.Enumerator, Name: name, File: "e.c"})
		if !ok {
			t.Fatalf("expected enumerator %s to be interned", name)
		}
		owner, ok := table.EnumOwner(name)
		if !ok || owner.Kind != symtab.Enum || owner.File != "e.c" {
			t.Fatalf("expected %s to be linked to a synthetic enum, got %+v", name, owner)
		}
		_ = sym
	}
}

func TestScanKRHeaderJoinsReturnType(t *testing.T) {
	text := "void\nlimit_screen_size(void) {\n  return;\n}\n"
	src := ingest.NewSource("k.c", []byte(text))
	table := symtab.New()
	table.Add(&symtab.Symbol{
		Key:       symtab.Key{Kind: symtab.Function, Name: "limit_screen_size", File: "k.c"},
		LineStart: 2,
		LineEnd:   4,
		RawText:   "limit_screen_size(void) {\n  return;\n}",
	})

	Scan(table, map[string]*ingest.Source{"k.c": src}, nil)

	sym, _ := table.Get(symtab.Key{Kind: symtab.Function, Name: "limit_screen_size", File: "k.c"})
	if sym.ReturnTypeText != "void" {
		t.Fatalf("ReturnTypeText = %q, want %q", sym.ReturnTypeText, "void")
	}
	if !sym.IsKRStyle {
		t.Error("expected IsKRStyle")
	}
}

func TestScanMultiNameTypedef(t *testing.T) {
	src := ingest.NewSource("t.c", []byte("typedef struct X *A, *B;\n"))
	table := symtab.New()
	Scan(table, map[string]*ingest.Source{"t.c": src}, nil)

	for _, name := range []string{"A", "B"} {
		if _, ok := table.Get(symtab.Key{Kind: symtab.Typedef, Name: name, File: "t.c"}); !ok {
			t.Errorf("expected typedef %s to be split out", name)
		}
	}
}

func TestScanNestedStructTag(t *testing.T) {
	src := ingest.NewSource("n.c", []byte(
		"struct Outer {\n  struct Inner { int x; } field;\n};\n"))
	table := symtab.New()
	table.Add(&symtab.Symbol{
		Key:     symtab.Key{Kind: symtab.Struct, Name: "Outer", File: "n.c"},
		RawText: "struct Outer {\n  struct Inner { int x; } field;\n};",
	})

	Scan(table, map[string]*ingest.Source{"n.c": src}, nil)

	if _, ok := table.Get(symtab.Key{Kind: symtab.Struct, Name: "Inner", File: "n.c"}); !ok {
		t.Fatal("expected Inner to be interned as a nested struct tag")
	}
	parent, ok := table.ResolveStructTag("Inner", "n.c")
	if !ok || parent.Name != "Outer" {
		t.Fatalf("ResolveStructTag(Inner) = %+v, %v", parent, ok)
	}
}

func TestScanEmbeddedPrototypeRecovered(t *testing.T) {
	src := ingest.NewSource("p.c", []byte("int helper(int x);\n\nint main(void) {\n  return helper(1);\n}\n"))
	table := symtab.New()
	Scan(table, map[string]*ingest.Source{"p.c": src}, nil)

	sym, ok := table.Get(symtab.Key{Kind: symtab.Prototype, Name: "helper", File: "p.c"})
	if !ok {
		t.Fatal("expected missed top-level prototype 'helper' to be recovered")
	}
	if sym.RawText != "int helper(int x);" {
		t.Errorf("RawText = %q, want %q", sym.RawText, "int helper(int x);")
	}
}

func TestScanEmbeddedPrototypeRejectsCallSites(t *testing.T) {
	text := "int main(void) {\n" +
		"  return f(x);\n" +
		"  p->g(x);\n" +
		"  a, b, f());\n" +
		"}\n"
	src := ingest.NewSource("c.c", []byte(text))
	table := symtab.New()
	Scan(table, map[string]*ingest.Source{"c.c": src}, nil)

	for _, name := range []string{"f", "g"} {
		if _, ok := table.Get(symtab.Key{Kind: symtab.Prototype, Name: name, File: "c.c"}); ok {
			t.Errorf("call site misdetected as a prototype for %s (bug77)", name)
		}
	}
}

func TestScanInlineStructAlias(t *testing.T) {
	src := ingest.NewSource("a.c", []byte(
		"typedef struct Point { int x; int y; } Point;\n"))
	table := symtab.New()
	Scan(table, map[string]*ingest.Source{"a.c": src}, nil)

	owner, ok := table.ResolveStructTag("Point", "a.c")
	if !ok {
		t.Fatal("expected struct_alias to resolve Point")
	}
	if owner.Kind != symtab.Typedef || owner.Name != "Point" {
		t.Fatalf("ResolveStructTag(Point) = %+v", owner)
	}
}
