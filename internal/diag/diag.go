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

// Package diag is a minimal run-scoped logger, in the teacher's style of
// writing diagnostics straight to an io.Writer rather than reaching for a
// logging framework (cuelang.org/go itself routes everything through its
// own errors.List and a handful of printf calls gated by debug flags).
//
// Its only addition over a bare log.Logger is a per-run correlation ID,
// useful once emission fans out over a worker pool (spec.md §5) and
// diagnostics from different PUs can interleave in -v output.
package diag

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

// Logger writes tagged, run-correlated lines to an underlying writer.
// It is safe for concurrent use.
type Logger struct {
	mu      sync.Mutex
	w       io.Writer
	runID   uuid.UUID
	verbose bool
}

// New creates a Logger for one PUS invocation. verbose controls whether
// Debugf lines are actually written; Warnf and Errorf always are.
func New(w io.Writer, verbose bool) *Logger {
	return &Logger{w: w, runID: uuid.New(), verbose: verbose}
}

// RunID returns the correlation ID for this invocation.
func (l *Logger) RunID() string { return l.runID.String() }

func (l *Logger) line(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "pus[%s] %s: %s\n", l.runID.String()[:8], level, fmt.Sprintf(format, args...))
}

// Debugf logs a verbose-only diagnostic.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.verbose {
		l.line("debug", format, args...)
	}
}

// Warnf logs a recoverable condition (§7 kinds 2-5).
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.line("warn", format, args...)
}

// Errorf logs a fatal condition (§7 kind 1) before the caller returns it.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.line("error", format, args...)
}
