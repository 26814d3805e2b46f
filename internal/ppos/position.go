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

// Package ppos records source positions within a preprocessed C file.
//
// A File tracks line-start offsets incrementally as the lexer advances, the
// same shape as a single-file cue/token.File but without the multi-file
// FileSet machinery PUS never needs (there is exactly one source file and
// one tag stream per run).
package ppos

import (
	"fmt"
	"sort"
)

// Position describes a printable source location.
type Position struct {
	Filename string
	Offset   int // byte offset, 0-based
	Line     int // 1-based
	Column   int // 1-based, byte count
}

// IsValid reports whether pos names a line.
func (pos Position) IsValid() bool { return pos.Line > 0 }

func (pos Position) String() string {
	if !pos.IsValid() {
		if pos.Filename != "" {
			return pos.Filename
		}
		return "-"
	}
	if pos.Filename == "" {
		return fmt.Sprintf("%d:%d", pos.Line, pos.Column)
	}
	return fmt.Sprintf("%s:%d:%d", pos.Filename, pos.Line, pos.Column)
}

// File maps byte offsets in one source file to line/column pairs. Lines are
// recorded as the scanner crosses each newline; AddLine is idempotent for a
// given offset so re-scanning never produces duplicate entries.
type File struct {
	name  string
	size  int
	lines []int // offsets of line starts, lines[0] == 0
}

// NewFile creates a File for a source of the given size.
func NewFile(name string, size int) *File {
	return &File{name: name, size: size, lines: []int{0}}
}

// NewFileFromSource eagerly scans src for every line start. Use this
// (rather than relying on the lexer to call AddLine incrementally) when a
// component needs to slice arbitrary line ranges before it has lexed the
// whole file — the Tag Ingestor and Source Scanner both do, to recover a
// tag record's raw_text span by line number.
func NewFileFromSource(name string, src []byte) *File {
	f := NewFile(name, len(src))
	for i, b := range src {
		if b == '\n' {
			f.AddLine(i + 1)
		}
	}
	return f
}

// Name returns the file's name.
func (f *File) Name() string { return f.name }

// Size returns the file's byte length.
func (f *File) Size() int { return f.size }

// AddLine records that a new line begins at offset. Calls with a
// non-increasing offset are ignored, which makes the lexer's per-character
// walk safe to call unconditionally on every '\n'.
func (f *File) AddLine(offset int) {
	if n := len(f.lines); (n == 0 || f.lines[n-1] < offset) && offset <= f.size {
		f.lines = append(f.lines, offset)
	}
}

// LineCount returns the number of lines recorded so far.
func (f *File) LineCount() int { return len(f.lines) }

// Pos returns the compact position for a byte offset.
func (f *File) Pos(offset int) Pos {
	return Pos{file: f, offset: offset}
}

// Position resolves offset to a full, human-readable Position.
func (f *File) Position(offset int) Position {
	line := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return Position{
		Filename: f.name,
		Offset:   offset,
		Line:     line + 1,
		Column:   offset - f.lines[line] + 1,
	}
}

// LineStart returns the byte offset of the start of the given 1-based line,
// or -1 if line is out of range. Used by the scanner to recover the
// "previous non-preprocessor line" for K&R header joining (spec 4.C.3).
func (f *File) LineStart(line int) int {
	if line < 1 || line > len(f.lines) {
		return -1
	}
	return f.lines[line-1]
}

// LineRange returns the half-open byte range [start, end) within src
// spanning 1-based lines startLine through endLine inclusive, with any
// trailing newline at the end of the range excluded. Returns ok=false if
// startLine is out of range. src must be the same source f was built from.
func (f *File) LineRange(src []byte, startLine, endLine int) (start, end int, ok bool) {
	start = f.LineStart(startLine)
	if start < 0 {
		return 0, 0, false
	}
	end = f.LineStart(endLine + 1)
	if end < 0 {
		end = f.size
	}
	for end > start && end <= len(src) && src[end-1] == '\n' {
		end--
	}
	return start, end, true
}

// Pos is a compact, comparable reference to a byte offset within a File.
// The zero value is NoPos.
type Pos struct {
	file   *File
	offset int
}

// NoPos is the zero Pos; it never resolves to a valid Position.
var NoPos Pos

// IsValid reports whether p refers to an actual file.
func (p Pos) IsValid() bool { return p.file != nil }

// Position resolves p to a human-readable Position.
func (p Pos) Position() Position {
	if !p.IsValid() {
		return Position{}
	}
	return p.file.Position(p.offset)
}

// Offset returns the raw byte offset, or -1 for NoPos.
func (p Pos) Offset() int {
	if !p.IsValid() {
		return -1
	}
	return p.offset
}

func (p Pos) String() string { return p.Position().String() }
