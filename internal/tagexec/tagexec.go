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

// Package tagexec invokes the external tag extractor named by
// config.Config.TagsCmd (spec.md §6) and returns its stdout as a tag
// stream ready for internal/tagstream.Parse.
package tagexec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/google/shlex"

	"github.com/dctags/pus/internal/diag"
)

// Run executes cfg's tags_cmd against inputPath and returns its stdout.
// If tagsFile is non-empty, the command is skipped entirely and the file
// is read instead — the offline/test path cmd/pus's --tags flag enables,
// so CLI integration tests never depend on a real ctags binary being on
// PATH.
func Run(ctx context.Context, tagsCmd, tagsFile, inputPath string, log *diag.Logger) ([]byte, error) {
	if tagsFile != "" {
		log.Debugf("tagexec: reading pre-captured tag stream from %s", tagsFile)
		return os.ReadFile(tagsFile)
	}

	args, err := shlex.Split(tagsCmd)
	if err != nil {
		return nil, fmt.Errorf("tagexec: parsing tags_cmd %q: %w", tagsCmd, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("tagexec: empty tags_cmd")
	}
	args = append(args, inputPath)

	log.Debugf("tagexec: running %v", args)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tagexec: %v: %w (stderr: %s)", args, err, stderr.String())
	}
	return stdout.Bytes(), nil
}
