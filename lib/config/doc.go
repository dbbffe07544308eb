// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading and persistence
// for CodeBot.
//
// Configuration is loaded from a single file specified by either the
// CODEBOT_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// Unlike most service configuration, the CodeBot config is mutable at
// runtime: admin commands add and remove channels, promote and demote
// admins, and rebind channels to projects. Each mutation is applied to
// the in-memory [Config] and then persisted with [Store.Save] before
// the command is acknowledged. Save failures do not roll the mutation
// back — the admin sees the error and the in-memory state stands
// (optimistic-write policy).
//
// Key exports:
//
//   - [Config] -- token, admins, channels, projects, welcome lines
//   - [Project] -- a named build root with a staging directory
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Store] -- owns the Config and persists it atomically
//   - [Config.Validate] -- startup invariant checks, including the
//     required "empty" fallback project
//
// This package depends on no other CodeBot packages.
package config
