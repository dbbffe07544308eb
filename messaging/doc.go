// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the chat platform's client-server API for
// CodeBot's needs.
//
// The package provides two core types. [Client] is an unauthenticated
// client holding the platform URL and HTTP transport. [Client.Login]
// exchanges the bot token for an authenticated [DirectSession], which
// implements the [Session] interface the rest of CodeBot consumes:
// sending, editing, and deleting channel messages, resolving channel
// metadata, and long-polling the event stream.
//
// The core deliberately depends only on [Session]. Transport concerns —
// reconnection, rate limiting, gateway details — live behind this
// boundary; tests substitute fake Sessions.
//
// All API errors are returned as [*ChatError] with the platform error
// code and HTTP status code. [IsChatError] tests for a specific code.
// Request URLs are built by string concatenation rather than url.URL
// to avoid double-encoding of path segments.
//
// [RunEventLoop] is the inbound side: a long-poll loop that delivers
// each batch of events to a handler, retrying transient failures with
// exponential backoff.
package messaging
