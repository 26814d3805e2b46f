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

package emit

import (
	"regexp"
	"sort"

	"github.com/dctags/pus/internal/symtab"
)

// orderTypeKeys topologically sorts keys (structs, unions, enums,
// typedefs) by the edges in deps (a key's dependencies), breaking ties
// deterministically by (Kind, File, Name) the same way symtab.Table
// orders interner candidates, so repeated runs over the same input
// always produce the same Pass-1 ordering. Keys that sit in a cycle
// cannot be given a consistent order and are returned separately in
// cyclic; the caller forward-declares every struct/union among them in
// Pass 0 (spec.md §9) and then emits all of them at the end of Pass 1.
//
// Grounded on internal/core/toposort/graph.go's Kahn's-algorithm shape:
// that package additionally computes strongly-connected components and
// elementary cycles because a language evaluator needs to *report* every
// cycle precisely. PUS only needs to *break* one, which a Pass 0 forward
// declaration already does, so that machinery is not reproduced here.
func orderTypeKeys(keys []symtab.Key, deps map[symtab.Key][]symtab.Key) (ordered, cyclic []symtab.Key) {
	set := make(map[symtab.Key]bool, len(keys))
	indegree := make(map[symtab.Key]int, len(keys))
	dependents := make(map[symtab.Key][]symtab.Key)
	for _, k := range keys {
		set[k] = true
	}
	for _, k := range keys {
		for _, dep := range deps[k] {
			if dep == k || !set[dep] {
				continue
			}
			indegree[k]++
			dependents[dep] = append(dependents[dep], k)
		}
	}

	var ready []symtab.Key
	for _, k := range keys {
		if indegree[k] == 0 {
			ready = append(ready, k)
		}
	}
	sortKeys(ready)

	visited := make(map[symtab.Key]bool, len(keys))
	for len(ready) > 0 {
		k := ready[0]
		ready = ready[1:]
		if visited[k] {
			continue
		}
		visited[k] = true
		ordered = append(ordered, k)

		var newlyReady []symtab.Key
		for _, dependent := range dependents[k] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				newlyReady = append(newlyReady, dependent)
			}
		}
		sortKeys(newlyReady)
		ready = append(ready, newlyReady...)
	}

	for _, k := range keys {
		if !visited[k] {
			cyclic = append(cyclic, k)
		}
	}
	sortKeys(cyclic)
	return ordered, cyclic
}

func sortKeys(keys []symtab.Key) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Name < b.Name
	})
}

var typeStructOrUnionRef = regexp.MustCompile(`\b(struct|union)\s+([A-Za-z_]\w*)`)

// buildTypeDeps computes, for every type-kind symbol in necessary, the
// other necessary type keys its raw text mentions — the edge set
// orderTypeKeys sorts over for Pass 1 (spec.md §4.H: "typedefs after
// their struct tags; nested parents before nested references").
func buildTypeDeps(table *symtab.Table, necessary map[symtab.Key]*symtab.Symbol) map[symtab.Key][]symtab.Key {
	deps := make(map[symtab.Key][]symtab.Key)
	for key, sym := range necessary {
		if !isTypeKind(key.Kind) {
			continue
		}
		var edges []symtab.Key
		for _, m := range typeStructOrUnionRef.FindAllStringSubmatch(sym.RawText, -1) {
			if ref, ok := table.ResolveStructTag(m[2], key.File); ok && ref != key {
				edges = append(edges, ref)
			}
		}
		for _, name := range sym.References() {
			if cand, ok := table.LookupOne(name, key.File); ok && cand != key && isTypeKind(cand.Kind) {
				edges = append(edges, cand)
			}
		}
		if parent, ok := parentOf(table, key); ok {
			edges = append(edges, parent)
		}
		deps[key] = edges
	}
	return deps
}

func isTypeKind(k symtab.Kind) bool {
	return k == symtab.Struct || k == symtab.Union || k == symtab.Enum || k == symtab.Typedef
}

func parentOf(table *symtab.Table, key symtab.Key) (symtab.Key, bool) {
	if !key.Kind.IsAggregate() {
		return symtab.Key{}, false
	}
	return table.NestedParent(key.Name)
}
