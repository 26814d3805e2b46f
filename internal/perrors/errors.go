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

// Package perrors defines the recoverable-diagnostic machinery used across
// the engine. Per the error handling design (spec.md §7), only input I/O
// failures are fatal; malformed tag records, unresolved references,
// ambiguous references, and closure cycles are all recovered locally and
// recorded here instead of aborting the run.
package perrors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dctags/pus/internal/ppos"
)

// Kind classifies a recoverable diagnostic, matching spec.md §7's
// numbered error kinds (kind 1, fatal I/O, is never represented here).
type Kind int

const (
	// MalformedTag is a tag stream record that could not be parsed.
	MalformedTag Kind = iota + 2
	// UnresolvedReference is a name that resolved to no symbol.
	UnresolvedReference
	// AmbiguousReference is a name with multiple same-priority candidates.
	AmbiguousReference
	// CycleFixedPoint is a closure cycle that was cut at a fixed point.
	CycleFixedPoint
)

func (k Kind) String() string {
	switch k {
	case MalformedTag:
		return "malformed-tag"
	case UnresolvedReference:
		return "unresolved-reference"
	case AmbiguousReference:
		return "ambiguous-reference"
	case CycleFixedPoint:
		return "cycle-fixed-point"
	default:
		return "unknown"
	}
}

// Diagnostic is a single recoverable error, optionally positioned in the
// source and optionally tagged with the pu_key it concerns.
type Diagnostic struct {
	Kind    Kind
	Message string
	Pos     ppos.Pos
	PUKey   string // empty if not symbol-specific
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	if d.Pos.IsValid() {
		b.WriteString(d.Pos.String())
		b.WriteString(": ")
	}
	b.WriteString(d.Kind.String())
	if d.PUKey != "" {
		fmt.Fprintf(&b, " (%s)", d.PUKey)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// List accumulates Diagnostics across a run. It is not safe for
// concurrent use; internal/pus records into it only from its sequential
// phases (tag parsing, ingest, partitioning), never from the parallel PU
// rendering workers (§5). Merge combines separately collected lists.
type List struct {
	items []*Diagnostic
}

// Add appends a diagnostic.
func (l *List) Add(d *Diagnostic) { l.items = append(l.items, d) }

// Malformed records a malformed tag record.
func (l *List) Malformed(pos ppos.Pos, format string, args ...interface{}) {
	l.Add(&Diagnostic{Kind: MalformedTag, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Unresolved records a name that did not resolve to any symbol.
func (l *List) Unresolved(name, puKey string) {
	l.Add(&Diagnostic{Kind: UnresolvedReference, PUKey: puKey, Message: fmt.Sprintf("identifier %q did not resolve; no declaration is emitted for it", name)})
}

// Ambiguous records a name with more than one equally-ranked candidate.
func (l *List) Ambiguous(name string, candidates []string, chosen string) {
	l.Add(&Diagnostic{
		Kind:    AmbiguousReference,
		Message: fmt.Sprintf("identifier %q resolved to %d candidates %v; chose %q", name, len(candidates), candidates, chosen),
	})
}

// Cycle records a closure cycle that was cut at a fixed point.
func (l *List) Cycle(puKey string) {
	l.Add(&Diagnostic{Kind: CycleFixedPoint, PUKey: puKey, Message: "symbol reached again during closure; treated as fixed point"})
}

// Len reports how many diagnostics have been recorded.
func (l *List) Len() int { return len(l.items) }

// Items returns the recorded diagnostics in insertion order.
func (l *List) Items() []*Diagnostic { return l.items }

// Merge appends another List's items to l, preserving o's relative order
// after l's own. Used to combine per-worker lists after parallel emission.
func (l *List) Merge(o *List) {
	if o == nil {
		return
	}
	l.items = append(l.items, o.items...)
}

// SortStable orders diagnostics by position (invalid positions last) and
// then by kind, so repeated runs over the same input print identically
// regardless of which goroutine recorded which diagnostic first.
func (l *List) SortStable() {
	sort.SliceStable(l.items, func(i, j int) bool {
		a, b := l.items[i], l.items[j]
		ap, bp := a.Pos.IsValid(), b.Pos.IsValid()
		if ap != bp {
			return ap
		}
		if ap && a.Pos.Offset() != b.Pos.Offset() {
			return a.Pos.Offset() < b.Pos.Offset()
		}
		return a.Kind < b.Kind
	})
}

// Print writes every diagnostic to w, one per line.
func (l *List) Print(w interface{ Write([]byte) (int, error) }) {
	for _, d := range l.items {
		fmt.Fprintln(w, d.Error())
	}
}
