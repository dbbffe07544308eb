// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
)

// ChatError represents a structured error response from the chat
// platform. Callers can use errors.As to extract the structured
// information:
//
//	var chatErr *ChatError
//	if errors.As(err, &chatErr) {
//	    if chatErr.Code == ErrCodeNotFound { ... }
//	}
type ChatError struct {
	// Code is the platform error code (e.g., "not_found").
	Code string `json:"code"`
	// Message is the human-readable description from the server.
	Message string `json:"message"`
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("chat: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Standard platform error codes.
const (
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeUnknown      = "unknown"
)

// IsChatError checks whether err is a *ChatError with the given code.
func IsChatError(err error, code string) bool {
	var chatErr *ChatError
	if errors.As(err, &chatErr) {
		return chatErr.Code == code
	}
	return false
}
