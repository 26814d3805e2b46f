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

package tagstream

import (
	"bufio"
	"io"
	"strings"

	"github.com/dctags/pus/internal/perrors"
	"github.com/dctags/pus/internal/ppos"
)

// Parse reads a newline-delimited tag stream from r. Malformed lines (fewer
// than three positional fields, or empty) are skipped with a diagnostic
// appended to diags rather than aborting the scan, per spec.md §7 kind 2.
func Parse(r io.Reader, diags *perrors.List) []*Record {
	var records []*Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := parseLine(line, lineNo)
		if err != nil {
			if diags != nil {
				diags.Malformed(ppos.NoPos, "tag stream line %d: %s", lineNo, err)
			}
			continue
		}
		records = append(records, rec)
	}
	return records
}

func parseLine(line string, lineNo int) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return nil, errTooFewFields
	}
	rec := &Record{
		Name:    fields[0],
		File:    fields[1],
		Pattern: fields[2],
		Fields:  make(map[string]string, len(fields)-3),
		LineNo:  lineNo,
	}
	if rec.Name == "" || rec.File == "" {
		return nil, errEmptyPositional
	}
	for _, kv := range fields[3:] {
		if kv == "" {
			continue
		}
		key, value, _ := strings.Cut(kv, ":")
		rec.Fields[key] = value
	}
	return rec, nil
}

type parseError string

func (e parseError) Error() string { return string(e) }

const (
	errTooFewFields    parseError = "fewer than 3 tab-separated positional fields"
	errEmptyPositional parseError = "empty name or file field"
)
