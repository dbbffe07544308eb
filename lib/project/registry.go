// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

// Package project resolves channels to build projects and enforces the
// exclusivity invariant: a channel ID appears in at most one project's
// channel list system-wide.
package project

import (
	"errors"
	"slices"

	"github.com/codebot-io/codebot/lib/config"
)

// ErrNoFallbackProject reports that no project named "empty" exists.
// Config.Validate catches this at startup; Resolve returns it only if
// the configuration degraded after validation.
var ErrNoFallbackProject = errors.New("project: no fallback project named \"empty\"")

// Registry resolves channels to projects. It holds no state of its
// own — every query reads the live configuration.
type Registry struct {
	config *config.Config
}

// NewRegistry returns a Registry over the given configuration.
func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{config: cfg}
}

// Resolve returns the project whose channel list contains channelID.
// Channels with no explicit binding route to the "empty" fallback
// project. Returns ErrNoFallbackProject if the fallback is missing.
func (r *Registry) Resolve(channelID string) (*config.Project, error) {
	for _, candidate := range r.config.Projects {
		if slices.Contains(candidate.Channels, channelID) {
			return candidate, nil
		}
	}
	if fallback := r.config.ProjectNamed(config.FallbackProjectName); fallback != nil {
		return fallback, nil
	}
	return nil, ErrNoFallbackProject
}

// Bind points channelID at the project named projectName. The channel
// is first removed from every project's channel list — not just its
// previous owner — so the exclusivity invariant holds even if prior
// state was corrupted. If no project has that name, the channel is left
// unbound (routing to the fallback via Resolve) and found is false.
//
// The caller persists the configuration; Bind only mutates memory.
func (r *Registry) Bind(channelID, projectName string) (bound *config.Project, found bool) {
	for _, candidate := range r.config.Projects {
		if index := slices.Index(candidate.Channels, channelID); index >= 0 {
			candidate.Channels = slices.Delete(candidate.Channels, index, index+1)
		}
	}

	target := r.config.ProjectNamed(projectName)
	if target == nil {
		return nil, false
	}
	target.Channels = append(target.Channels, channelID)
	return target, true
}
