// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/codebot-io/codebot/lib/clock"
)

// EventLoopConfig configures the long-poll event loop.
type EventLoopConfig struct {
	// Timeout is the server-side long-poll hold in milliseconds. The
	// server holds the connection open for this duration when no
	// events are available, then returns an empty batch.
	// Default: 30000 (30s).
	Timeout int

	// MaxBackoff is the maximum duration between retry attempts on
	// transient poll errors. The loop uses exponential backoff
	// starting at 1 second. Default: 30 seconds.
	MaxBackoff time.Duration
}

// EventHandler is called for each non-empty event batch. The next poll
// starts after the handler returns; handlers that do slow work should
// hand it off to a goroutine.
type EventHandler func(ctx context.Context, events []Event)

// RunEventLoop polls the platform event stream and calls handler for
// each batch of events. The loop continues until ctx is cancelled.
//
// On transient errors, the loop retries with exponential backoff
// (1 second to config.MaxBackoff) and drops idle HTTP connections so
// the retry opens a fresh socket. On context cancellation, the loop
// returns cleanly.
func RunEventLoop(ctx context.Context, session Session, config EventLoopConfig, since string, handler EventHandler, clk clock.Clock, logger *slog.Logger) {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30000
	}
	maxBackoff := config.MaxBackoff
	if maxBackoff == 0 {
		maxBackoff = 30 * time.Second
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		response, err := session.Events(ctx, since, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("event poll failed, retrying", "error", err, "backoff", backoff)
			if closer, ok := session.(interface{ CloseIdleConnections() }); ok {
				closer.CloseIdleConnections()
			}
			select {
			case <-ctx.Done():
				return
			case <-clk.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		backoff = time.Second
		since = response.NextBatch

		if len(response.Events) > 0 {
			handler(ctx, response.Events)
		}
	}
}
