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

// Package pus wires components 4.A through 4.H into the single end-to-end
// pipeline spec.md §5 describes, and fans the final rendering pass out
// over a worker pool the way cmd/cue's custom.go task runner fans its
// dependency graph out with golang.org/x/sync/errgroup.
package pus

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/dctags/pus/internal/config"
	"github.com/dctags/pus/internal/diag"
	"github.com/dctags/pus/internal/emit"
	"github.com/dctags/pus/internal/ingest"
	"github.com/dctags/pus/internal/partition"
	"github.com/dctags/pus/internal/perrors"
	"github.com/dctags/pus/internal/scan"
	"github.com/dctags/pus/internal/symtab"
	"github.com/dctags/pus/internal/tagexec"
	"github.com/dctags/pus/internal/tagstream"
)

// Output is one rendered partial unit, ready to be written to disk under
// the name spec.md §6 mandates: "INPUT.i_N.pu.c".
type Output struct {
	PU   *partition.PU
	Path string
	Text string
}

// Run executes the full pipeline against inputPath: invoke the tag
// extractor, parse its stream, ingest and scan it into a frozen Symbol
// Table, partition it into PUs, and render every PU in parallel across
// cfg.Workers goroutines. It returns the rendered outputs (not yet
// written to disk — see WriteAll) and the accumulated non-fatal
// diagnostics from every phase.
func Run(ctx context.Context, inputPath string, cfg config.Config, log *diag.Logger) ([]*Output, *perrors.List, error) {
	diags := &perrors.List{}

	raw, err := tagexec.Run(ctx, cfg.TagsCmd, cfg.TagsFile, inputPath, log)
	if err != nil {
		return nil, diags, fmt.Errorf("pus: extracting tags: %w", err)
	}

	text, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, diags, fmt.Errorf("pus: reading %s: %w", inputPath, err)
	}

	records := tagstream.Parse(bytes.NewReader(raw), diags)
	log.Debugf("pus: parsed %d tag record(s)", len(records))

	src := ingest.NewSource(inputPath, text)
	sources := map[string]*ingest.Source{
		filepath.Base(inputPath): src,
		inputPath:                src,
	}

	table := symtab.New()
	ingest.Ingest(table, records, sources, diags)
	for _, src := range uniqueSources(sources) {
		scan.Scan(table, map[string]*ingest.Source{src.Path: src}, log)
	}
	table.Freeze()

	pus := partition.Partition(table, cfg, diags)
	log.Debugf("pus: partitioned into %d PU(s)", len(pus))

	outputs, err := renderAll(ctx, table, pus, inputPath, cfg)
	return outputs, diags, err
}

// renderAll renders every PU concurrently, bounded by cfg.Workers, in the
// same "shared read-only state, per-item goroutine" shape as
// cmd/cue/cmd/custom.go's task runner.
func renderAll(ctx context.Context, table *symtab.Table, pus []*partition.PU, inputPath string, cfg config.Config) ([]*Output, error) {
	emitter := emit.New(table)
	outputs := make([]*Output, len(pus))

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, pu := range pus {
		i, pu := i, pu
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			outputs[i] = &Output{
				PU:   pu,
				Path: outputPath(inputPath, pu.ID),
				Text: emitter.Emit(pu),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// WriteAll writes every rendered output to disk, creating each file named
// per spec.md §6.
func WriteAll(outputs []*Output) error {
	for _, o := range outputs {
		if err := os.WriteFile(o.Path, []byte(o.Text), 0o644); err != nil {
			return fmt.Errorf("pus: writing %s: %w", o.Path, err)
		}
	}
	return nil
}

// outputPath derives "<dir>/<INPUT.i>_N.pu.c" from inputPath, per
// spec.md §6: for a PU of index N derived from input INPUT.i, the output
// file is named INPUT.i_N.pu.c — the input's own extension is kept, not
// stripped.
func outputPath(inputPath string, id int) string {
	dir := filepath.Dir(inputPath)
	base := filepath.Base(inputPath)
	return filepath.Join(dir, fmt.Sprintf("%s_%d.pu.c", base, id))
}

func uniqueSources(sources map[string]*ingest.Source) []*ingest.Source {
	seen := make(map[string]bool, len(sources))
	var out []*ingest.Source
	for _, s := range sources {
		if seen[s.Path] {
			continue
		}
		seen[s.Path] = true
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
