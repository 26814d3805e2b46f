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

package resolve

import (
	"testing"

	"github.com/dctags/pus/internal/perrors"
	"github.com/dctags/pus/internal/symtab"
)

func TestClosureFollowsDirectReference(t *testing.T) {
	table := symtab.New()
	f := &symtab.Symbol{Key: symtab.Key{Kind: symtab.Function, Name: "f", File: "m.c"}, RawText: "int f(void) { return g(); }"}
	g := &symtab.Symbol{Key: symtab.Key{Kind: symtab.Function, Name: "g", File: "m.c"}, RawText: "int g(void) { return 1; }"}
	table.Add(f)
	table.Add(g)
	table.Freeze()

	var diags perrors.List
	result := Closure(table, []symtab.Key{f.Key}, &diags)

	if _, ok := result.Necessary[g.Key]; !ok {
		t.Fatalf("expected g to be in necessary, got %v", result.Necessary)
	}
	if _, ok := result.Necessary[f.Key]; ok {
		t.Error("root key should not appear in its own necessary set")
	}
}

func TestClosureCascadesVariadicPrototype(t *testing.T) {
	table := symtab.New()
	caller := &symtab.Symbol{Key: symtab.Key{Kind: symtab.Function, Name: "caller", File: "m.c"}, RawText: "void caller(void) { f(&cfg, 1, 2); }"}
	variadicDef := &symtab.Symbol{
		Key: symtab.Key{Kind: symtab.Function, Name: "f", File: "m.c"}, RawText: "int f(cfg*,int,...){ return 0; }", IsVariadic: true,
	}
	proto := &symtab.Symbol{Key: symtab.Key{Kind: symtab.Prototype, Name: "f", File: "m.c"}, RawText: "int f(cfg*,int,...);"}
	table.Add(caller)
	table.Add(variadicDef)
	table.Add(proto)
	table.Freeze()

	var diags perrors.List
	result := Closure(table, []symtab.Key{caller.Key}, &diags)

	if _, ok := result.Necessary[proto.Key]; !ok {
		t.Fatal("expected variadic prototype to be pulled into necessary")
	}
	if _, ok := result.Necessary[variadicDef.Key]; !ok {
		t.Fatal("expected variadic function itself to be in necessary")
	}
}

func TestClosureCascadesStructAlias(t *testing.T) {
	table := symtab.New()
	typedefSym := &symtab.Symbol{
		Key: symtab.Key{Kind: symtab.Typedef, Name: "FooT", File: "m.c"}, RawText: "typedef struct Foo FooT;",
	}
	root := &symtab.Symbol{Key: symtab.Key{Kind: symtab.Function, Name: "use", File: "m.c"}, RawText: "void use(struct Foo *p) {}"}
	table.Add(typedefSym)
	table.Add(root)
	table.SetStructAlias("Foo", typedefSym.Key)
	table.Freeze()

	var diags perrors.List
	result := Closure(table, []symtab.Key{root.Key}, &diags)

	if _, ok := result.Necessary[typedefSym.Key]; !ok {
		t.Fatalf("expected typedef FooT to resolve via struct_alias, necessary = %v", result.Necessary)
	}
}

func TestClosureCascadesEnumeratorOwner(t *testing.T) {
	table := symtab.New()
	enumKey := symtab.Key{Kind: symtab.Enum, Name: "__anon_1", File: "m.c"}
	table.Add(&symtab.Symbol{Key: enumKey, RawText: "enum { RED, GREEN };"})
	enumerator := &symtab.Symbol{Key: symtab.Key{Kind: symtab.Enumerator, Name: "RED", File: "m.c"}, RawText: "RED"}
	table.Add(enumerator)
	table.SetEnumeratorOwner("RED", enumKey)
	root := &symtab.Symbol{Key: symtab.Key{Kind: symtab.Function, Name: "use", File: "m.c"}, RawText: "int use(void) { return RED; }"}
	table.Add(root)
	table.Freeze()

	var diags perrors.List
	result := Closure(table, []symtab.Key{root.Key}, &diags)

	if _, ok := result.Necessary[enumKey]; !ok {
		t.Fatal("expected enum owner to be pulled in via enumerator")
	}
}

func TestClosureForcesStructAdjacentCalleeIntoPass2(t *testing.T) {
	table := symtab.New()
	other := &symtab.Symbol{
		Key: symtab.Key{Kind: symtab.Function, Name: "other", File: "m.c"}, RawText: "int other(int y) { return y; }",
	}
	// ctags attributed helper's own definition to the struct tag above it
	// (bug34): the struct symbol's RawText trails off into helper's body.
	hoisted := &symtab.Symbol{
		Key:     symtab.Key{Kind: symtab.Struct, Name: "Box", File: "m.c"},
		RawText: "struct Box {\n  int x;\n};\nint helper(int y) {\n  return other(y);\n}",
	}
	table.Add(other)
	table.Add(hoisted)
	table.Freeze()

	var diags perrors.List
	result := Closure(table, []symtab.Key{hoisted.Key}, &diags)

	if _, ok := result.Necessary[other.Key]; !ok {
		t.Fatalf("expected other() to be pulled into necessary via the hoisted function body, got %v", result.Necessary)
	}
	if !result.ForcedPass2[other.Key] {
		t.Error("expected other() to be ForcedPass2: a struct-adjacent hoisted function calls it ahead of Pass 1 (bug34)")
	}
}

func TestClosureReportsUnresolvedReference(t *testing.T) {
	table := symtab.New()
	root := &symtab.Symbol{Key: symtab.Key{Kind: symtab.Function, Name: "use", File: "m.c"}, RawText: "void use(void) { missing_fn(); }"}
	table.Add(root)
	table.Freeze()

	var diags perrors.List
	Closure(table, []symtab.Key{root.Key}, &diags)

	if diags.Len() == 0 {
		t.Fatal("expected an unresolved-reference diagnostic")
	}
}
