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

// Package config resolves PUS's external interface (spec.md §6) through
// three layers, lowest precedence first: environment variables, an optional
// pus.yaml beside the input file, and command-line flags. Flags always win;
// this mirrors the teacher's own precedence for its CLI flags over its
// config files.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the resolved settings for one PUS run.
type Config struct {
	// PassthroughThreshold is the minimum primary-definition count below
	// which the TU is not split: every primary goes into a single PU. That
	// PU is rendered by the Emitter like any other, so its text is not a
	// byte-for-byte copy of the input.
	PassthroughThreshold int
	// Split enables partitioning; when false the engine always passes
	// through regardless of PassthroughThreshold.
	Split bool
	// PUFilter, if non-negative, restricts emission to a single PU id.
	PUFilter int
	// Workers bounds the Pass-H emission worker pool (domain stack §5).
	Workers int
	// TagsCmd is the external tag extractor invocation, e.g.
	// "ctags -x --c-kinds=+p". Split with shlex at call sites because it
	// is one configuration string that may carry its own arguments.
	TagsCmd string
	// TagsFile, if set, is a pre-captured tag stream to read instead of
	// invoking TagsCmd (offline/test use, see cmd/pus --tags).
	TagsFile string
	Verbose  bool
}

// file mirrors the subset of Config that pus.yaml may override. Fields use
// pointers so "absent from the file" is distinguishable from "zero value".
type file struct {
	PassthroughThreshold *int    `yaml:"passthrough_threshold"`
	Split                *bool   `yaml:"split"`
	PUFilter             *int    `yaml:"pu_filter"`
	Workers              *int    `yaml:"workers"`
	TagsCmd              *string `yaml:"tags_cmd"`
}

// Default returns PUS's built-in defaults before any layer is applied.
func Default() Config {
	return Config{
		PassthroughThreshold: 50,
		Split:                false,
		PUFilter:             -1,
		Workers:              4,
		TagsCmd:              "ctags -x --c-kinds=+p",
	}
}

// FromEnvironment overlays recognized environment variables onto cfg.
func FromEnvironment(cfg Config) Config {
	if v, ok := os.LookupEnv("PASSTHROUGH_THRESHOLD"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PassthroughThreshold = n
		}
	}
	if v, ok := os.LookupEnv("SPLIT"); ok {
		cfg.Split = v == "1" || v == "true"
	}
	if v, ok := os.LookupEnv("PU_FILTER"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PUFilter = n
		}
	}
	return cfg
}

// FromYAMLNextTo looks for a pus.yaml in the same directory as inputPath
// and, if present, overlays its settings onto cfg. A missing file is not
// an error; a malformed one is returned as an error per §7 kind 1 (this
// is config I/O, treated like any other unreadable input).
func FromYAMLNextTo(cfg Config, inputPath string) (Config, error) {
	dir := filepath.Dir(inputPath)
	data, err := os.ReadFile(filepath.Join(dir, "pus.yaml"))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return cfg, err
	}
	if f.PassthroughThreshold != nil {
		cfg.PassthroughThreshold = *f.PassthroughThreshold
	}
	if f.Split != nil {
		cfg.Split = *f.Split
	}
	if f.PUFilter != nil {
		cfg.PUFilter = *f.PUFilter
	}
	if f.Workers != nil {
		cfg.Workers = *f.Workers
	}
	if f.TagsCmd != nil {
		cfg.TagsCmd = *f.TagsCmd
	}
	return cfg, nil
}
