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

// Package partition implements component 4.G: choosing PU roots,
// assigning every primary definition to exactly one PU, and closing each
// PU's dependencies via internal/resolve.
package partition

import (
	"sort"

	"github.com/dctags/pus/internal/config"
	"github.com/dctags/pus/internal/perrors"
	"github.com/dctags/pus/internal/resolve"
	"github.com/dctags/pus/internal/symtab"
)

// PU is one partial unit: a set of owned primary definitions (roots) plus
// the transitive closure of declarations it needs to compile, per
// spec.md §3's PU record.
type PU struct {
	ID        int
	RootKeys  []symtab.Key
	Necessary *resolve.Result
}

// NecessaryTypedefNames returns the bare names of every typedef in p's
// necessary set, the lookup table internal/synth's extern-filtering and
// K&R-stub rules consult.
func (p *PU) NecessaryTypedefNames() map[string]bool {
	out := make(map[string]bool)
	for key := range p.Necessary.Necessary {
		if key.Kind == symtab.Typedef {
			out[key.Name] = true
		}
	}
	return out
}

// isPrimary reports whether sym is a primary definition in the sense
// 4.G partitions over: an actual function body (not a bare prototype) or
// a non-extern variable. Types (structs/unions/enums/typedefs) are never
// partitioned directly — per invariant 4 their text may be duplicated
// into every PU that needs them, so they are pulled in by closure rather
// than owned by one PU the way a function body or a variable's single
// storage definition must be (invariant 1 read together with invariant 4:
// see DESIGN.md's Open Question decision on primary-definition scope).
func isPrimary(sym *symtab.Symbol) bool {
	switch sym.Key.Kind {
	case symtab.Function:
		return true
	case symtab.Variable:
		return true
	default:
		return false
	}
}

// orderPrimaries implements §4.G step 1: all primary definitions ordered
// by tag file and then by source order (line start).
func orderPrimaries(table *symtab.Table) []symtab.Key {
	var keys []symtab.Key
	for _, sym := range table.All() {
		if isPrimary(sym) {
			keys = append(keys, sym.Key)
		}
	}
	syms := make(map[symtab.Key]*symtab.Symbol, len(keys))
	for _, k := range keys {
		s, _ := table.Get(k)
		syms[k] = s
	}
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := syms[keys[i]], syms[keys[j]]
		if a.Key.File != b.Key.File {
			return a.Key.File < b.Key.File
		}
		if a.LineStart != b.LineStart {
			return a.LineStart < b.LineStart
		}
		return a.Key.Name < b.Key.Name
	})
	return keys
}

// Partition runs the full §4.G algorithm: order primaries, assign them to
// PUs by target size (respecting PASSTHROUGH_THRESHOLD, SPLIT, and
// PU_FILTER), and close each PU's roots with internal/resolve. table must
// already be frozen (internal/scan has finished).
func Partition(table *symtab.Table, cfg config.Config, diags *perrors.List) []*PU {
	primaries := orderPrimaries(table)

	if !cfg.Split || len(primaries) < cfg.PassthroughThreshold {
		pu := &PU{ID: 0, RootKeys: primaries}
		pu.Necessary = resolve.Closure(table, pu.RootKeys, diags)
		return []*PU{pu}
	}

	// A non-positive threshold together with SPLIT=1 is the corpus's
	// "split maximally" invocation (e.g. bug67's
	// PASSTHROUGH_THRESHOLD=0 SPLIT=1 PU_FILTER=367 against sqlite3.i,
	// which only makes sense against hundreds of PUs): target size 1,
	// one primary per PU, not one PU holding every primary.
	target := cfg.PassthroughThreshold
	if target <= 0 {
		target = 1
	}

	var groups [][]symtab.Key
	for start := 0; start < len(primaries); start += target {
		end := start + target
		if end > len(primaries) {
			end = len(primaries)
		}
		groups = append(groups, primaries[start:end])
	}
	if len(groups) == 0 {
		groups = [][]symtab.Key{nil}
	}

	var pus []*PU
	for i, roots := range groups {
		if cfg.PUFilter >= 0 && cfg.PUFilter != i {
			continue
		}
		pu := &PU{ID: i, RootKeys: roots}
		pu.Necessary = resolve.Closure(table, roots, diags)
		pus = append(pus, pu)
	}
	return pus
}
