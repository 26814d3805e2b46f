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

package symtab

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLookupOrdersSameFileFirst(t *testing.T) {
	tb := New()
	tb.Add(&Symbol{Key: Key{Kind: Function, Name: "f", File: "b.c"}, IsStatic: true})
	tb.Add(&Symbol{Key: Key{Kind: Function, Name: "f", File: "a.c"}})
	tb.Freeze()

	got := tb.Lookup("f", "a.c")
	want := []Key{
		{Kind: Function, Name: "f", File: "a.c"},
		{Kind: Function, Name: "f", File: "b.c"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Lookup mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupPrefersStaticOverGlobalAcrossFiles(t *testing.T) {
	tb := New()
	tb.Add(&Symbol{Key: Key{Kind: Variable, Name: "v", File: "static_owner.c"}, IsStatic: true})
	tb.Add(&Symbol{Key: Key{Kind: Variable, Name: "v", File: "global_owner.c"}})
	tb.Freeze()

	got := tb.Lookup("v", "caller.c")
	if len(got) != 2 || got[0].File != "static_owner.c" {
		t.Fatalf("expected static candidate first, got %v", got)
	}
}

func TestResolveStructTagFallsThroughAliasChain(t *testing.T) {
	tb := New()
	owner := Key{Kind: Typedef, Name: "MyStruct", File: "a.c"}
	tb.Add(&Symbol{Key: owner})
	tb.SetStructAlias("hidden_tag", owner)
	tb.Freeze()

	got, ok := tb.ResolveStructTag("hidden_tag", "a.c")
	if !ok || got != owner {
		t.Fatalf("ResolveStructTag = %v, %v; want %v, true", got, ok, owner)
	}
}

func TestResolveStructTagViaNestedParent(t *testing.T) {
	tb := New()
	parent := Key{Kind: Struct, Name: "Outer", File: "a.c"}
	tb.Add(&Symbol{Key: parent})
	tb.SetNestedParent("Inner", parent)
	tb.Freeze()

	got, ok := tb.ResolveStructTag("Inner", "a.c")
	if !ok || got != parent {
		t.Fatalf("ResolveStructTag = %v, %v; want %v, true", got, ok, parent)
	}
}

func TestSymbolReferencesSkipsKeywordsAndLiterals(t *testing.T) {
	sym := &Symbol{RawText: `int add(int a, int b) { return helper(a, b, "c", 'd') + sizeof(int); }`}
	refs := sym.References()
	want := map[string]bool{"add": true, "a": true, "b": true, "helper": true}
	got := map[string]bool{}
	for _, r := range refs {
		got[r] = true
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("References mismatch (-want +got):\n%s", diff)
	}
	for _, kw := range []string{"int", "return", "sizeof"} {
		if got[kw] {
			t.Errorf("References should not include keyword %q", kw)
		}
	}
}

func TestMutationAfterFreezePanics(t *testing.T) {
	tb := New()
	tb.Freeze()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic mutating a frozen table")
		}
	}()
	tb.Add(&Symbol{Key: Key{Kind: Variable, Name: "x", File: "a.c"}})
}
