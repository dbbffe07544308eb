// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildcheck runs the compiler over submissions to verify
// that they build. Text submissions are checked as a single snippet;
// file submissions are checked against the project's staging root,
// optionally with a per-project check command from the project's
// codebot.jsonc.
package buildcheck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/codebot-io/codebot/lib/attachment"
)

// DefaultTimeout bounds one compiler invocation. Syntax-only checks
// finish in well under this; a wedged toolchain must not hold a
// project lock forever.
const DefaultTimeout = 2 * time.Minute

// snippetFileName is the temp file text submissions are checked as.
const snippetFileName = "snippet.cpp"

// CheckError reports a failed check. Output carries the tool's
// diagnostic text verbatim; the bot shows it to the submitter.
type CheckError struct {
	Output string
}

func (e *CheckError) Error() string {
	return e.Output
}

// Options configures a Checker.
type Options struct {
	// Compiler is the compiler executable. Default: "g++".
	Compiler string
	// Args are passed before the source files on every default
	// invocation. Default: ["-fsyntax-only", "-Wall", "-Wextra"].
	Args []string
	// Timeout bounds each invocation. Default: DefaultTimeout.
	Timeout time.Duration
}

// Checker verifies that submitted code compiles. Safe for concurrent
// use; each check runs an independent subprocess.
type Checker struct {
	compiler string
	args     []string
	timeout  time.Duration
}

// New returns a Checker with defaults applied.
func New(options Options) *Checker {
	if options.Compiler == "" {
		options.Compiler = "g++"
	}
	if options.Args == nil {
		options.Args = []string{"-fsyntax-only", "-Wall", "-Wextra"}
	}
	if options.Timeout == 0 {
		options.Timeout = DefaultTimeout
	}
	return &Checker{
		compiler: options.Compiler,
		args:     options.Args,
		timeout:  options.Timeout,
	}
}

// CheckText compiles source as a standalone snippet. On success it
// returns the compiler's diagnostic output (warnings, possibly
// empty). On failure it returns a *CheckError carrying that output.
func (c *Checker) CheckText(ctx context.Context, source string) (string, error) {
	dir, err := os.MkdirTemp("", "codebot-check-")
	if err != nil {
		return "", fmt.Errorf("creating check directory: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, snippetFileName)
	if err := os.WriteFile(path, []byte(source), 0o600); err != nil {
		return "", fmt.Errorf("writing snippet: %w", err)
	}

	argv := append([]string{c.compiler}, c.args...)
	argv = append(argv, snippetFileName)
	return c.run(ctx, dir, argv)
}

// CheckProject checks the project rooted at root. command, when
// non-empty, replaces the default compiler invocation; it runs with
// root as the working directory. The default invocation compiles
// every source file found under root.
func (c *Checker) CheckProject(ctx context.Context, root string, command []string) (string, error) {
	if len(command) == 0 {
		sources, err := sourceFiles(root)
		if err != nil {
			return "", err
		}
		if len(sources) == 0 {
			return "", fmt.Errorf("no source files under %s", root)
		}
		command = append([]string{c.compiler}, c.args...)
		command = append(command, sources...)
	}
	return c.run(ctx, root, command)
}

// run executes argv in dir and applies the check-result policy: exit
// zero means success with the tool output as warnings, non-zero means
// *CheckError.
func (c *Checker) run(ctx context.Context, dir string, argv []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var output bytes.Buffer
	command := exec.CommandContext(ctx, argv[0], argv[1:]...)
	command.Dir = dir
	command.Stdout = &output
	command.Stderr = &output

	err := command.Run()
	text := strings.TrimSpace(output.String())
	if err == nil {
		return text, nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("%s timed out after %v", argv[0], c.timeout)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if text == "" {
			text = err.Error()
		}
		return "", &CheckError{Output: text}
	}
	return "", fmt.Errorf("running %s: %w", argv[0], err)
}

// headerExtensions are source files that are found via #include
// rather than handed to the compiler directly.
var headerExtensions = map[string]bool{".h": true, ".hh": true, ".hpp": true}

// sourceFiles lists compilable source files under root, relative to
// root. Headers are excluded; the compiler pulls them in itself.
func sourceFiles(root string) ([]string, error) {
	var sources []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if attachment.Classify(entry.Name()) != attachment.SourceFile {
			return nil
		}
		if headerExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			return nil
		}
		relative, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		sources = append(sources, relative)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return sources, nil
}
