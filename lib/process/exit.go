// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for CodeBot
// binaries. Fatal centralizes the one legitimate raw stderr write that
// exists before the structured logger is initialized.
package process

import (
	"fmt"
	"os"
)

// Fatal writes "error: err" to stderr and exits with code 1. This is
// the standard CodeBot binary entrypoint error handler. Use it in
// main() for errors from run() where the structured logger may not be
// initialized.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
