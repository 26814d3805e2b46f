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

package partition

import (
	"testing"

	"github.com/dctags/pus/internal/config"
	"github.com/dctags/pus/internal/perrors"
	"github.com/dctags/pus/internal/symtab"
)

func buildTable(n int) *symtab.Table {
	table := symtab.New()
	for i := 0; i < n; i++ {
		table.Add(&symtab.Symbol{
			Key:       symtab.Key{Kind: symtab.Function, Name: letterName(i), File: "m.c"},
			LineStart: i * 10,
			RawText:   "void " + letterName(i) + "(void) {}",
		})
	}
	table.Freeze()
	return table
}

func letterName(i int) string {
	return string(rune('a' + i))
}

func TestPartitionPassthroughBelowThreshold(t *testing.T) {
	table := buildTable(3)
	cfg := config.Default()
	cfg.Split = true
	cfg.PassthroughThreshold = 10

	var diags perrors.List
	pus := Partition(table, cfg, &diags)
	if len(pus) != 1 {
		t.Fatalf("got %d PUs, want 1 (passthrough)", len(pus))
	}
	if len(pus[0].RootKeys) != 3 {
		t.Fatalf("got %d roots, want 3", len(pus[0].RootKeys))
	}
}

func TestPartitionSplitsAboveThreshold(t *testing.T) {
	table := buildTable(5)
	cfg := config.Default()
	cfg.Split = true
	cfg.PassthroughThreshold = 2

	var diags perrors.List
	pus := Partition(table, cfg, &diags)
	if len(pus) != 3 {
		t.Fatalf("got %d PUs, want 3 (ceil(5/2))", len(pus))
	}
	total := 0
	for _, pu := range pus {
		total += len(pu.RootKeys)
	}
	if total != 5 {
		t.Fatalf("got %d total roots across PUs, want 5", total)
	}
}

func TestPartitionHonorsPUFilter(t *testing.T) {
	table := buildTable(5)
	cfg := config.Default()
	cfg.Split = true
	cfg.PassthroughThreshold = 2
	cfg.PUFilter = 1

	var diags perrors.List
	pus := Partition(table, cfg, &diags)
	if len(pus) != 1 {
		t.Fatalf("got %d PUs, want 1 (filtered)", len(pus))
	}
	if pus[0].ID != 1 {
		t.Fatalf("got PU id %d, want 1", pus[0].ID)
	}
}

func TestPartitionZeroThresholdSplitsMaximally(t *testing.T) {
	table := buildTable(5)
	cfg := config.Default()
	cfg.Split = true
	cfg.PassthroughThreshold = 0

	var diags perrors.List
	pus := Partition(table, cfg, &diags)
	if len(pus) != 5 {
		t.Fatalf("got %d PUs, want 5 (one primary per PU under PASSTHROUGH_THRESHOLD=0 SPLIT=1)", len(pus))
	}
	for i, pu := range pus {
		if len(pu.RootKeys) != 1 {
			t.Fatalf("PU %d has %d roots, want 1", i, len(pu.RootKeys))
		}
	}
}

func TestPartitionDisabledSplitAlwaysPassesThrough(t *testing.T) {
	table := buildTable(100)
	cfg := config.Default()
	cfg.Split = false

	var diags perrors.List
	pus := Partition(table, cfg, &diags)
	if len(pus) != 1 {
		t.Fatalf("got %d PUs, want 1 (split disabled)", len(pus))
	}
}
