// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import "context"

// Session is the chat platform surface the rest of CodeBot consumes.
// Production code uses *DirectSession; tests substitute fakes.
type Session interface {
	// UserID returns the bot's own user ID, for echo suppression.
	UserID() string

	// SendMessage posts a message to a channel, optionally carrying
	// attachments forward, and returns a ref for later edits.
	SendMessage(ctx context.Context, channelID, content string, attachments []Attachment) (MessageRef, error)

	// EditMessage replaces the content of a previously sent message.
	EditMessage(ctx context.Context, ref MessageRef, content string) error

	// DeleteMessage removes a message from its channel.
	DeleteMessage(ctx context.Context, ref MessageRef) error

	// ResolveChannel fetches channel metadata by ID.
	ResolveChannel(ctx context.Context, channelID string) (*Channel, error)

	// Events long-polls the event stream. since is the position token
	// from the previous batch ("" for the first call); timeout is the
	// server-side hold in milliseconds.
	Events(ctx context.Context, since string, timeout int) (*EventsResponse, error)
}

// Compile-time check: *DirectSession implements Session.
var _ Session = (*DirectSession)(nil)
