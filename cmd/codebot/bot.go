// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codebot-io/codebot/lib/command"
	"github.com/codebot-io/codebot/lib/config"
	"github.com/codebot-io/codebot/lib/project"
	"github.com/codebot-io/codebot/messaging"
)

// Bot routes inbound events: command invocations go to the
// dispatcher, submissions in enabled channels go to the pipeline,
// everything else is ignored.
type Bot struct {
	session    messaging.Session
	store      *config.Store
	registry   *project.Registry
	locks      *project.Locks
	dispatcher *command.Dispatcher
	pipeline   *Pipeline
	logger     *slog.Logger

	startedAt time.Time

	// submissionsHandled counts pipeline runs, for the status socket.
	submissionsHandled atomic.Int64

	// inFlight tracks running submission goroutines so Wait can drain
	// them at shutdown.
	inFlight sync.WaitGroup
}

// NewBot wires the bot over an authenticated session.
func NewBot(session messaging.Session, store *config.Store, pipeline *Pipeline, startedAt time.Time, logger *slog.Logger) *Bot {
	registry := project.NewRegistry(store.Config())
	return &Bot{
		session:    session,
		store:      store,
		registry:   registry,
		locks:      project.NewLocks(),
		dispatcher: command.NewDispatcher(store, registry, logger),
		pipeline:   pipeline,
		logger:     logger,
		startedAt:  startedAt,
	}
}

// SendWelcomes posts a randomly chosen welcome line to every enabled
// channel. Send failures are logged and skipped; an unreachable
// channel must not keep the bot from starting.
func (b *Bot) SendWelcomes(ctx context.Context) {
	cfg := b.store.Config()
	if len(cfg.Welcome) == 0 {
		return
	}
	for _, channelID := range cfg.Channels {
		greeting := cfg.Welcome[rand.IntN(len(cfg.Welcome))]
		if _, err := b.session.SendMessage(ctx, channelID, greeting, nil); err != nil {
			b.logger.Warn("sending welcome", "channel", channelID, "error", err)
		}
	}
}

// HandleEvents processes one batch from the event stream. Commands
// run synchronously: each completes its full read-modify-save
// sequence before the next event is examined. Submissions run in
// goroutines serialized per project, so submissions to different
// projects interleave while same-project staging never does.
func (b *Bot) HandleEvents(ctx context.Context, events []messaging.Event) {
	for _, event := range events {
		if event.AuthorID == b.session.UserID() {
			// Bot's own message.
			continue
		}
		if command.Matches(event.Content) {
			reply := b.dispatcher.Dispatch(event.ChannelID, event.AuthorID, event.Content)
			if _, err := b.session.SendMessage(ctx, event.ChannelID,
				renderCommandReply(event.AuthorID, reply), nil); err != nil {
				b.logger.Error("sending command reply", "channel", event.ChannelID, "error", err)
			}
			continue
		}
		if !b.store.Config().HasChannel(event.ChannelID) {
			// Channel not enabled.
			continue
		}
		b.startSubmission(ctx, event)
	}
}

// startSubmission resolves the submission's project and runs the
// pipeline under that project's lock.
func (b *Bot) startSubmission(ctx context.Context, event messaging.Event) {
	proj, err := b.registry.Resolve(event.ChannelID)
	if err != nil {
		// Validate guarantees a fallback at startup; reaching this
		// means the configuration degraded at runtime.
		b.logger.Error("resolving project", "channel", event.ChannelID, "error", err)
		return
	}

	b.inFlight.Add(1)
	go func() {
		defer b.inFlight.Done()
		lock := b.locks.For(proj.Name)
		lock.Lock()
		defer lock.Unlock()

		// Detached from the event-loop context: shutdown stops the
		// poll loop, but an in-flight submission still finishes its
		// chat updates. The timeout bounds the detached work.
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), submissionTimeout)
		defer cancel()

		b.pipeline.Run(runCtx, event, proj)
		b.submissionsHandled.Add(1)
	}()
}

// submissionTimeout bounds one detached submission end to end. The
// formatter and checker carry their own per-invocation timeouts; this
// is the outer stop for everything else (downloads, chat calls).
const submissionTimeout = 5 * time.Minute

// Wait blocks until all in-flight submissions have completed.
func (b *Bot) Wait() {
	b.inFlight.Wait()
}
