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

// Package cmd is the cobra CLI surface over internal/pus, kept thin in
// the teacher's style: flag parsing and config-layer wiring live here,
// every actual algorithm lives under internal/.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dctags/pus/internal/config"
	"github.com/dctags/pus/internal/diag"
	"github.com/dctags/pus/internal/pus"
)

// ErrPrintedError is returned by a RunE once its error has already been
// written to stderr, telling Main not to print it a second time — the
// same sentinel shape the teacher's cmd/cue uses.
var ErrPrintedError = fmt.Errorf("pus: command failed")

// New builds the root command. args is normally os.Args[1:]; tests pass
// their own slice.
func New(args []string) *cobra.Command {
	root := &cobra.Command{
		Use:           "pus <input.i>",
		Short:         "pus splits a preprocessed C translation unit into independently-compilable partial units.",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runPUS,
	}

	addPUSFlags(root.Flags())
	root.SetArgs(args)
	return root
}

func runPUS(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	cfg := config.Default()
	cfg = config.FromEnvironment(cfg)
	cfg, err := config.FromYAMLNextTo(cfg, inputPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "pus: reading pus.yaml: %v\n", err)
		return ErrPrintedError
	}

	if flagSplit.changed(cmd) {
		cfg.Split = flagSplit.bool(cmd)
	}
	if flagThreshold.changed(cmd) {
		cfg.PassthroughThreshold = flagThreshold.int(cmd)
	}
	if flagPU.changed(cmd) {
		cfg.PUFilter = flagPU.int(cmd)
	}
	if flagWorkers.changed(cmd) {
		cfg.Workers = flagWorkers.int(cmd)
	}
	if flagTagsCmd.changed(cmd) {
		cfg.TagsCmd = flagTagsCmd.string(cmd)
	}
	cfg.TagsFile = flagTagsFile.string(cmd)
	cfg.Verbose = flagVerbose.bool(cmd)

	log := diag.New(cmd.ErrOrStderr(), cfg.Verbose)
	outputs, diags, err := pus.Run(cmd.Context(), inputPath, cfg, log)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "pus: %v\n", err)
		return ErrPrintedError
	}
	diags.SortStable()
	diags.Print(cmd.ErrOrStderr())

	if err := pus.WriteAll(outputs); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "pus: %v\n", err)
		return ErrPrintedError
	}
	for _, o := range outputs {
		fmt.Fprintln(cmd.OutOrStdout(), o.Path)
	}
	printSummary(cmd.ErrOrStderr(), outputs)
	return nil
}

// getLang picks a message.Printer locale from the environment, in the
// teacher's own cmd/cue/cmd/common.go fashion.
func getLang() language.Tag {
	loc := os.Getenv("LC_ALL")
	if loc == "" {
		loc = os.Getenv("LANG")
	}
	loc = strings.Split(loc, ".")[0]
	return language.Make(loc)
}

// printSummary writes the end-of-run "Split N primaries into M PUs"
// line with thousands separators, the same flavor of report
// cmd/cue/cmd/root.go's statsEncoder produces for $CUE_STATS.
func printSummary(w io.Writer, outputs []*pus.Output) {
	primaries := 0
	for _, o := range outputs {
		primaries += len(o.PU.RootKeys)
	}
	p := message.NewPrinter(getLang())
	p.Fprintf(w, "pus: split %d primary definition(s) into %d PU(s)\n", primaries, len(outputs))
}

// Main runs pus and returns the process exit code, in the same shape as
// the teacher's cmd/cue Main.
func Main() int {
	root := New(os.Args[1:])
	if err := root.ExecuteContext(context.Background()); err != nil {
		if err != ErrPrintedError {
			fmt.Fprintf(os.Stderr, "pus: %v\n", err)
		}
		return 1
	}
	return 0
}
