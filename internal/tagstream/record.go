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

// Package tagstream parses the external tag extractor's wire format
// (spec.md §6): one tab-separated record per line, the first three fields
// positional, the rest optional "key:value" pairs.
package tagstream

import "strconv"

// Record is one parsed tag stream line.
type Record struct {
	Name    string
	File    string // positional field 2
	Pattern string // positional field 3: a search pattern or a line number
	Fields  map[string]string
	LineNo  int // 1-based line within the tag stream, for diagnostics
}

// Kind returns the "kind:" field, if present.
func (r *Record) Kind() (string, bool) {
	v, ok := r.Fields["kind"]
	return v, ok
}

// Line returns the "line:" field as an int, if present and well-formed.
func (r *Record) Line() (int, bool) {
	return r.intField("line")
}

// End returns the "end:" field as an int, if present and well-formed.
func (r *Record) End() (int, bool) {
	return r.intField("end")
}

func (r *Record) intField(key string) (int, bool) {
	v, ok := r.Fields[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Signature returns the "signature:" field, if present.
func (r *Record) Signature() (string, bool) {
	v, ok := r.Fields["signature"]
	return v, ok
}

// Scope returns the "scope:" field, if present.
func (r *Record) Scope() (string, bool) {
	v, ok := r.Fields["scope"]
	return v, ok
}

// Typeref returns the "typeref:" field, if present.
func (r *Record) Typeref() (string, bool) {
	v, ok := r.Fields["typeref"]
	return v, ok
}

// IsStaticScope reports whether the record carries a "file:" key among its
// key:value fields — ctags' convention for flagging file-scoped (static)
// linkage, distinct from the positional File column (spec.md §6: "file
// (static scope flag)").
func (r *Record) IsStaticScope() bool {
	_, ok := r.Fields["file"]
	return ok
}
