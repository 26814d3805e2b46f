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

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// flagName mirrors the teacher's own flags.go: a typed flag name that
// double-checks, at read time, that the flag it names was actually
// registered on the command asking for it.
type flagName string

const (
	flagSplit     flagName = "split"
	flagThreshold flagName = "passthrough-threshold"
	flagPU        flagName = "pu"
	flagWorkers   flagName = "workers"
	flagVerbose   flagName = "verbose"
	flagTagsCmd   flagName = "tags-cmd"
	flagTagsFile  flagName = "tags"
)

// addPUSFlags registers every pus flag on f, mirroring the env vars and
// pus.yaml keys of spec.md §6.
func addPUSFlags(f *pflag.FlagSet) {
	f.Bool(string(flagSplit), false, "partition the translation unit into multiple PUs instead of passing it through unchanged")
	f.Int(string(flagThreshold), 50, "minimum primary-definition count below which the TU is always passed through as one PU")
	f.Int(string(flagPU), -1, "emit only the PU with this id (-1 emits all)")
	f.Int(string(flagWorkers), 4, "number of PUs to render concurrently")
	f.BoolP(string(flagVerbose), "v", false, "log debug diagnostics to stderr")
	f.String(string(flagTagsCmd), "ctags -x --c-kinds=+p", "external tag extractor invocation")
	f.String(string(flagTagsFile), "", "read a pre-captured tag stream from this file instead of invoking --tags-cmd")
}

func (f flagName) ensureAdded(cmd *cobra.Command) {
	if cmd.Flags().Lookup(string(f)) == nil {
		panic(fmt.Sprintf("command %q uses flag %q without adding it", cmd.Name(), f))
	}
}

func (f flagName) changed(cmd *cobra.Command) bool {
	f.ensureAdded(cmd)
	return cmd.Flags().Changed(string(f))
}

func (f flagName) bool(cmd *cobra.Command) bool {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetBool(string(f))
	return v
}

func (f flagName) int(cmd *cobra.Command) int {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetInt(string(f))
	return v
}

func (f flagName) string(cmd *cobra.Command) string {
	f.ensureAdded(cmd)
	v, _ := cmd.Flags().GetString(string(f))
	return v
}
