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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("PASSTHROUGH_THRESHOLD", "7")
	t.Setenv("SPLIT", "true")
	t.Setenv("PU_FILTER", "2")

	cfg := FromEnvironment(Default())
	if cfg.PassthroughThreshold != 7 {
		t.Errorf("PassthroughThreshold = %d, want 7", cfg.PassthroughThreshold)
	}
	if !cfg.Split {
		t.Errorf("Split = false, want true")
	}
	if cfg.PUFilter != 2 {
		t.Errorf("PUFilter = %d, want 2", cfg.PUFilter)
	}
}

func TestFromYAMLNextToOverlaysAndLeavesAbsentFieldsAlone(t *testing.T) {
	dir := t.TempDir()
	yaml := "passthrough_threshold: 99\nworkers: 8\n"
	if err := os.WriteFile(filepath.Join(dir, "pus.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := FromYAMLNextTo(Default(), filepath.Join(dir, "input.i"))
	if err != nil {
		t.Fatalf("FromYAMLNextTo: %v", err)
	}
	if cfg.PassthroughThreshold != 99 {
		t.Errorf("PassthroughThreshold = %d, want 99", cfg.PassthroughThreshold)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.Split {
		t.Errorf("Split = true, want default false since pus.yaml did not set it")
	}
}

func TestFromYAMLNextToToleratesMissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := FromYAMLNextTo(Default(), filepath.Join(dir, "input.i"))
	if err != nil {
		t.Fatalf("expected a missing pus.yaml to be tolerated, got %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected defaults unchanged, got %+v", cfg)
	}
}
