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

package ingest

import (
	"strings"
	"testing"

	"github.com/dctags/pus/internal/perrors"
	"github.com/dctags/pus/internal/symtab"
	"github.com/dctags/pus/internal/tagstream"
)

const bug47Source = `struct wl_display;

struct wl_display_listener {
    void (*error)(void *data, struct wl_display *wl_display);
};
`

func TestIngestMarksMisfiledForwardDecl(t *testing.T) {
	tagLines := strings.Join([]string{
		"wl_display\tbug47.c\t1;\"\tkind:externvar\tline:1\tend:1",
		"wl_display_listener\tbug47.c\t3;\"\tkind:struct\tline:3\tend:5",
	}, "\n")

	var diags perrors.List
	records := tagstream.Parse(strings.NewReader(tagLines), &diags)

	table := symtab.New()
	sources := map[string]*Source{"bug47.c": NewSource("bug47.c", []byte(bug47Source))}
	Ingest(table, records, sources, &diags)
	table.Freeze()

	sym, ok := table.Get(symtab.Key{Kind: symtab.ExternVar, Name: "wl_display", File: "bug47.c"})
	if !ok {
		t.Fatal("expected wl_display externvar symbol to be ingested")
	}
	if !sym.IsForwardDeclCandidate {
		t.Errorf("expected IsForwardDeclCandidate, got raw_text %q", sym.RawText)
	}
}

func TestIngestSkipsUnrecognizedKind(t *testing.T) {
	var diags perrors.List
	records := tagstream.Parse(strings.NewReader("foo\tf.c\t1;\"\tkind:bogus\tline:1"), &diags)
	table := symtab.New()
	Ingest(table, records, nil, &diags)
	if len(table.All()) != 0 {
		t.Fatalf("expected no symbols ingested, got %d", len(table.All()))
	}
	if diags.Len() == 0 {
		t.Fatal("expected a malformed-kind diagnostic")
	}
}

func TestIngestCapturesVariadicSignature(t *testing.T) {
	src := "int f(cfg*,int,...){ return 0; }\n"
	var diags perrors.List
	records := tagstream.Parse(strings.NewReader("f\tv.c\t1;\"\tkind:function\tline:1\tend:1\tsignature:(cfg*,int,...)"), &diags)
	table := symtab.New()
	sources := map[string]*Source{"v.c": NewSource("v.c", []byte(src))}
	Ingest(table, records, sources, &diags)

	sym, ok := table.Get(symtab.Key{Kind: symtab.Function, Name: "f", File: "v.c"})
	if !ok {
		t.Fatal("expected f to be ingested")
	}
	if !sym.IsVariadic {
		t.Error("expected IsVariadic true")
	}
}
