// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"

	"github.com/codebot-io/codebot/lib/attachment"
	"github.com/codebot-io/codebot/lib/buildcheck"
	"github.com/codebot-io/codebot/lib/buildspec"
	"github.com/codebot-io/codebot/lib/config"
	"github.com/codebot-io/codebot/lib/content"
	"github.com/codebot-io/codebot/lib/format"
	"github.com/codebot-io/codebot/lib/stage"
	"github.com/codebot-io/codebot/messaging"
)

// Formatter is the code-formatting collaborator.
type Formatter interface {
	Format(ctx context.Context, source, style string) (string, error)
}

// Checker is the build-check collaborator.
type Checker interface {
	CheckText(ctx context.Context, source string) (string, error)
	CheckProject(ctx context.Context, root string, command []string) (string, error)
}

// Stager is the file-staging collaborator.
type Stager interface {
	ClearDirectory(dir string) error
	DownloadFile(ctx context.Context, fileURL, destDir string) (*stage.Staged, error)
}

var (
	_ Formatter = (*format.Formatter)(nil)
	_ Checker   = (*buildcheck.Checker)(nil)
	_ Stager    = (*stage.Stager)(nil)
)

// Pipeline runs one code submission through format, stage, check, and
// report. Failures in any stage become user-visible replies; nothing
// escapes to the event loop.
type Pipeline struct {
	session   messaging.Session
	formatter Formatter
	checker   Checker
	stager    Stager
	logger    *slog.Logger
}

// Run processes one submission routed to proj. The caller holds the
// project's submission lock for the whole call, so staging for one
// project never interleaves.
func (p *Pipeline) Run(ctx context.Context, event messaging.Event, proj *config.Project) {
	logger := p.logger.With(
		"channel", event.ChannelID,
		"author", event.AuthorID,
		"project", proj.Name,
	)

	spec, err := buildspec.Load(proj.Root)
	if err != nil {
		// A broken codebot.jsonc should not reject submissions; the
		// defaults still give a usable check.
		logger.Warn("ignoring malformed project build spec", "error", err)
		spec = buildspec.Default()
	}

	code, err := p.formatter.Format(ctx, content.ExtractCode(event.Content), spec.FormatStyle)
	if err != nil {
		// No placeholder exists yet and the original message stays:
		// the user may want to fix and resend the same text.
		logger.Info("format failed", "error", err)
		p.send(ctx, event.ChannelID, renderFormatFailure(event.AuthorID, event.Content, err), nil)
		return
	}

	placeholder, err := p.session.SendMessage(ctx, event.ChannelID, ackBody, event.Attachments)
	if err != nil {
		logger.Error("posting placeholder", "error", err)
		return
	}

	header := submissionHeader(event.AuthorID, code)
	p.edit(ctx, placeholder, renderBuilding(header))

	warnings, checkErr := p.check(ctx, event, proj, spec, code)
	if checkErr != nil {
		logger.Info("check failed", "error", checkErr)
		p.edit(ctx, placeholder, renderFailure(header, checkErr.Error()))
	} else {
		logger.Info("check passed", "warnings", warnings != "")
		p.edit(ctx, placeholder, renderSuccess(header, warnings))
	}

	// The placeholder now carries the submission and its result; the
	// original message would be duplicate content.
	if err := p.session.DeleteMessage(ctx, messaging.MessageRef{
		ChannelID: event.ChannelID,
		MessageID: event.ID,
	}); err != nil {
		logger.Warn("deleting original message", "error", err)
	}
}

// check stages the submission and invokes the build check, branching
// on the attachment shape.
func (p *Pipeline) check(ctx context.Context, event messaging.Event, proj *config.Project, spec *buildspec.Spec, code string) (string, error) {
	if len(event.Attachments) == 0 {
		return p.checker.CheckText(ctx, code)
	}
	if len(event.Attachments) > 1 {
		return "", errorString(fileTypeUnsupported)
	}

	attached := event.Attachments[0]
	name := attached.Filename
	if name == "" {
		name = attached.URL
	}
	switch attachment.Classify(name) {
	case attachment.SourceFile:
		if err := p.stager.ClearDirectory(proj.Upload); err != nil {
			return "", err
		}
		if _, err := p.stager.DownloadFile(ctx, attached.URL, proj.Upload); err != nil {
			return "", err
		}
		return p.checker.CheckProject(ctx, proj.Root, spec.CheckCommand)
	case attachment.Archive:
		return "", errorString(archivesUnsupported)
	default:
		return "", errorString(fileTypeUnsupported)
	}
}

func (p *Pipeline) send(ctx context.Context, channelID, body string, attachments []messaging.Attachment) {
	if _, err := p.session.SendMessage(ctx, channelID, body, attachments); err != nil {
		p.logger.Error("sending reply", "channel", channelID, "error", err)
	}
}

func (p *Pipeline) edit(ctx context.Context, ref messaging.MessageRef, body string) {
	if err := p.session.EditMessage(ctx, ref, body); err != nil {
		p.logger.Error("editing placeholder", "message", ref.MessageID, "error", err)
	}
}

// errorString is a fixed user-facing failure reason.
type errorString string

func (e errorString) Error() string { return string(e) }
