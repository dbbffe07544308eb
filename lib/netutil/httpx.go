// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O utilities for CodeBot.
//
// ReadResponse bounds response body reads at MaxResponseSize to
// prevent unbounded memory allocation from a misbehaving or malicious
// server. It is for JSON API responses (the chat platform API) — not
// for attachment downloads, which lib/stage reads incrementally with
// its own size bound.
package netutil

import "io"

// MaxResponseSize is the bound on JSON API response body reads: 64 MB.
// This exists solely to prevent a pathological response from exhausting
// system memory. Legitimate chat API responses are orders of magnitude
// smaller; the limit is intentionally generous so that it never
// interferes with normal operation.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads a JSON API response body up to MaxResponseSize
// bytes. Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}
