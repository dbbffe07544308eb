// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildspec parses per-project build specifications. A project
// may carry a codebot.jsonc file at its build root (JSON extended with
// // line comments, /* block comments */, and trailing commas)
// overriding how its submissions are checked:
//
//	{
//	    // run instead of the default compiler invocation
//	    "check_command": ["make", "-C", "build", "check"],
//	    "format_style": "Google",
//	}
//
// Projects without the file get Default(). The spec is read fresh for
// every staged submission so edits take effect without restarting the
// bot.
package buildspec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// SpecFileName is the per-project spec file looked up under the build
// root.
const SpecFileName = "codebot.jsonc"

// Spec is a project's build specification.
type Spec struct {
	// CheckCommand is the argv run (in the build root) by project-mode
	// checks. Empty means the checker's default compiler invocation.
	CheckCommand []string `json:"check_command"`

	// FormatStyle is the clang-format style name for submissions to
	// this project. Empty means the formatter's default.
	FormatStyle string `json:"format_style"`
}

// Default returns the spec used by projects without a codebot.jsonc.
func Default() *Spec {
	return &Spec{}
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Spec.
func Parse(data []byte) (*Spec, error) {
	stripped := jsonc.ToJSON(data)

	var spec Spec
	if err := json.Unmarshal(stripped, &spec); err != nil {
		return nil, fmt.Errorf("parsing build spec: %w", err)
	}
	return &spec, nil
}

// Load reads the spec for the project rooted at root. A missing spec
// file is not an error — Default() is returned. A present but
// malformed file is an error, so typos fail loud instead of silently
// reverting to defaults.
func Load(root string) (*Spec, error) {
	path := filepath.Join(root, SpecFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	spec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}
