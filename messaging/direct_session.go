// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// DirectSession is an authenticated connection to the chat platform.
// It is lightweight — a pointer to the parent Client plus the bot
// token — and all methods are safe for concurrent use.
type DirectSession struct {
	client *Client
	token  string
	userID string
}

// UserID returns the bot's own user ID.
func (s *DirectSession) UserID() string {
	return s.userID
}

// CloseIdleConnections drops pooled connections on the parent Client.
// The event loop calls this after transient errors so retries open
// fresh sockets.
func (s *DirectSession) CloseIdleConnections() {
	s.client.CloseIdleConnections()
}

// SendMessage posts a message to a channel and returns a ref for
// later edits and deletes.
func (s *DirectSession) SendMessage(ctx context.Context, channelID, content string, attachments []Attachment) (MessageRef, error) {
	path := "/v1/channels/" + url.PathEscape(channelID) + "/messages"
	body, err := s.client.doRequest(ctx, http.MethodPost, path, s.token, sendMessageRequest{
		Content:     content,
		Attachments: attachments,
	})
	if err != nil {
		return MessageRef{}, fmt.Errorf("sending message to channel %s: %w", channelID, err)
	}

	var response sendMessageResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return MessageRef{}, fmt.Errorf("parsing send response: %w", err)
	}
	return MessageRef{ChannelID: channelID, MessageID: response.MessageID}, nil
}

// EditMessage replaces the content of a previously sent message.
func (s *DirectSession) EditMessage(ctx context.Context, ref MessageRef, content string) error {
	path := "/v1/channels/" + url.PathEscape(ref.ChannelID) + "/messages/" + url.PathEscape(ref.MessageID)
	if _, err := s.client.doRequest(ctx, http.MethodPatch, path, s.token, editMessageRequest{Content: content}); err != nil {
		return fmt.Errorf("editing message %s in channel %s: %w", ref.MessageID, ref.ChannelID, err)
	}
	return nil
}

// DeleteMessage removes a message from its channel.
func (s *DirectSession) DeleteMessage(ctx context.Context, ref MessageRef) error {
	path := "/v1/channels/" + url.PathEscape(ref.ChannelID) + "/messages/" + url.PathEscape(ref.MessageID)
	if _, err := s.client.doRequest(ctx, http.MethodDelete, path, s.token, nil); err != nil {
		return fmt.Errorf("deleting message %s in channel %s: %w", ref.MessageID, ref.ChannelID, err)
	}
	return nil
}

// ResolveChannel fetches channel metadata by ID.
func (s *DirectSession) ResolveChannel(ctx context.Context, channelID string) (*Channel, error) {
	path := "/v1/channels/" + url.PathEscape(channelID)
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.token, nil)
	if err != nil {
		return nil, fmt.Errorf("resolving channel %s: %w", channelID, err)
	}

	var channel Channel
	if err := json.Unmarshal(body, &channel); err != nil {
		return nil, fmt.Errorf("parsing channel response: %w", err)
	}
	return &channel, nil
}

// Events long-polls the event stream. The server holds the connection
// for up to timeout milliseconds, returning as soon as events arrive.
func (s *DirectSession) Events(ctx context.Context, since string, timeout int) (*EventsResponse, error) {
	query := url.Values{}
	if since != "" {
		query.Set("since", since)
	}
	query.Set("timeout", strconv.Itoa(timeout))

	body, err := s.client.doRequest(ctx, http.MethodGet, "/v1/events", s.token, nil, query)
	if err != nil {
		return nil, fmt.Errorf("polling events: %w", err)
	}

	var response EventsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("parsing events response: %w", err)
	}
	return &response, nil
}
