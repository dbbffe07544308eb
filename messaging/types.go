// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

// Event is one inbound message delivered by the event stream.
type Event struct {
	// ID is the message ID, usable as an edit/delete target.
	ID string `json:"id"`
	// ChannelID is the channel the message was posted in.
	ChannelID string `json:"channel_id"`
	// AuthorID is the posting user's ID.
	AuthorID string `json:"author_id"`
	// Content is the raw message text.
	Content string `json:"content"`
	// Attachments lists files attached to the message.
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a file reference carried by a message. The content is
// fetched separately from URL; the platform never inlines file bytes
// in events.
type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Channel is channel metadata returned by ResolveChannel.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MessageRef identifies a sent message for later edits and deletes.
type MessageRef struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

// IsZero reports whether the ref identifies no message.
func (r MessageRef) IsZero() bool {
	return r.ChannelID == "" && r.MessageID == ""
}

// EventsResponse is one batch from the long-poll event stream.
type EventsResponse struct {
	Events []Event `json:"events"`
	// NextBatch is the position token for the next poll.
	NextBatch string `json:"next_batch"`
}

// loginRequest and loginResponse are the /v1/login wire shapes.
type loginRequest struct {
	Token string `json:"token"`
}

type loginResponse struct {
	UserID string `json:"user_id"`
}

type sendMessageRequest struct {
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type sendMessageResponse struct {
	MessageID string `json:"message_id"`
}

type editMessageRequest struct {
	Content string `json:"content"`
}
