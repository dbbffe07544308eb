// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

// Package format provides typed access to the code formatter CLI.
// CodeBot pipes submitted source through clang-format before checking
// it; the formatted text is what users see in the reply.
package format

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds one formatter invocation. Formatting is
// near-instant for chat-sized submissions; a hung formatter must not
// stall the pipeline.
const DefaultTimeout = 30 * time.Second

// Options configures a Formatter.
type Options struct {
	// Binary is the formatter executable. Default: "clang-format".
	Binary string
	// Style is the default style name passed as --style. Default: "LLVM".
	Style string
	// Timeout bounds each invocation. Default: DefaultTimeout.
	Timeout time.Duration
}

// Formatter invokes the external code formatter. Safe for concurrent
// use; each Format call runs an independent subprocess.
type Formatter struct {
	binary  string
	style   string
	timeout time.Duration
}

// New returns a Formatter with defaults applied.
func New(options Options) *Formatter {
	if options.Binary == "" {
		options.Binary = "clang-format"
	}
	if options.Style == "" {
		options.Style = "LLVM"
	}
	if options.Timeout == 0 {
		options.Timeout = DefaultTimeout
	}
	return &Formatter{
		binary:  options.Binary,
		style:   options.Style,
		timeout: options.Timeout,
	}
}

// Format runs the formatter over source and returns the formatted
// text. style overrides the configured default when non-empty. A
// non-zero exit is a formatting failure; the tool's stderr is carried
// in the returned error.
func (f *Formatter) Format(ctx context.Context, source, style string) (string, error) {
	if style == "" {
		style = f.style
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, f.binary, "--style="+style)
	command.Stdin = strings.NewReader(source)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%s timed out after %v", f.binary, f.timeout)
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("%s: %s", f.binary, detail)
	}
	return stdout.String(), nil
}
