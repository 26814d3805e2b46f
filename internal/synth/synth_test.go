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

package synth

import (
	"strings"
	"testing"

	"github.com/dctags/pus/internal/symtab"
)

func TestDeclarationPrefersVerbatimPrototype(t *testing.T) {
	table := symtab.New()
	table.Add(&symtab.Symbol{
		Key: symtab.Key{Kind: symtab.Prototype, Name: "f", File: "m.c"}, RawText: "int f(cfg*,int,...)",
	})
	def := &symtab.Symbol{Key: symtab.Key{Kind: symtab.Function, Name: "f", File: "m.c"}, RawText: "int f(cfg*x,int y,...){ return 0; }"}

	got := Declaration(table, def, nil)
	want := "int f(cfg*,int,...);"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFromDefinitionTerminatesOnSameLine(t *testing.T) {
	def := &symtab.Symbol{
		Key:     symtab.Key{Kind: symtab.Function, Name: "limit_screen_size", File: "k.c"},
		RawText: "void\nlimit_screen_size(void) {\n  return;\n}",
	}
	decls := FromDefinitionAll(def, nil)
	if len(decls) != 1 {
		t.Fatalf("got %d declarations, want 1: %v", len(decls), decls)
	}
	if !strings.HasSuffix(decls[0], ");") {
		t.Errorf("declaration %q does not terminate ')' immediately followed by ';'", decls[0])
	}
	if strings.Contains(decls[0], "\n") {
		t.Errorf("declaration %q should be single-line", decls[0])
	}
}

func TestFromDefinitionExtractsMultipleFunctions(t *testing.T) {
	def := &symtab.Symbol{
		Key: symtab.Key{Kind: symtab.Function, Name: "unixDlSym", File: "os.c"},
		RawText: "static void (*unixDlSym(int*a,void*b,const char*c))(void){ return 0; }\n" +
			"static void unixDlClose(void*p){ return; }",
	}
	decls := FromDefinitionAll(def, nil)
	if len(decls) != 2 {
		t.Fatalf("got %d declarations, want 2: %v", len(decls), decls)
	}
}

func TestKRStubFallsBackToInt(t *testing.T) {
	def := &symtab.Symbol{Key: symtab.Key{Kind: symtab.Function, Name: "mystery", File: "m.c"}}
	got := synthesizeKRStub(def, nil)
	if got != "int mystery();" {
		t.Fatalf("got %q, want %q", got, "int mystery();")
	}
}

func TestKRStubUsesKnownReturnTypedef(t *testing.T) {
	def := &symtab.Symbol{
		Key: symtab.Key{Kind: symtab.Function, Name: "make_cfg", File: "m.c"}, ReturnTypeText: "cfg_t *",
	}
	got := synthesizeKRStub(def, map[string]bool{"cfg_t": true})
	if got != "cfg_t * make_cfg();" {
		t.Fatalf("got %q", got)
	}
}

func TestStripInlineMarkersRemovesAlwaysInline(t *testing.T) {
	got := stripInlineMarkers("static __attribute__((always_inline)) inline int f(void);")
	if strings.Contains(got, "always_inline") || strings.Contains(got, "inline") {
		t.Fatalf("got %q, still contains an inline marker", got)
	}
}

func TestExternDeclarationOmitsUnavailableType(t *testing.T) {
	v := &symtab.Symbol{
		Key: symtab.Key{Kind: symtab.ExternVar, Name: "clipmethod", File: "m.c"},
		ReturnTypeText: "clipmethod_T",
		RawText:        "clipmethod_T clipmethod;",
	}
	if _, ok := ExternDeclaration(v, map[string]bool{}); ok {
		t.Fatal("expected extern declaration to be omitted when type is unavailable")
	}
	if decl, ok := ExternDeclaration(v, map[string]bool{"clipmethod_T": true}); !ok || decl != "extern clipmethod_T clipmethod;" {
		t.Fatalf("got %q, %v", decl, ok)
	}
}
