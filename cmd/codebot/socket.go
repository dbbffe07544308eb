// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/codebot-io/codebot/lib/codec"
	"github.com/codebot-io/codebot/lib/version"
)

// The status socket is a local CBOR request-response protocol over a
// Unix socket. Each connection carries exactly one request: the
// client writes a CBOR value with an "action" field, the server
// writes a CBOR response, and the connection closes. Operators use it
// to inspect a running bot without touching the chat platform.

// socketResponse is the wire envelope for all socket replies.
type socketResponse struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// actionFunc handles one socket action. The returned value, if
// non-nil, becomes the response's data field.
type actionFunc func(ctx context.Context) (any, error)

const (
	socketReadTimeout  = 30 * time.Second
	socketWriteTimeout = 10 * time.Second
	maxSocketRequest   = 64 * 1024
)

// SocketServer serves the status protocol for one Bot.
type SocketServer struct {
	path     string
	handlers map[string]actionFunc
	logger   *slog.Logger

	active sync.WaitGroup
}

// NewSocketServer builds the server with the status actions
// registered over bot.
func NewSocketServer(path string, bot *Bot, logger *slog.Logger) *SocketServer {
	server := &SocketServer{
		path:     path,
		handlers: make(map[string]actionFunc),
		logger:   logger,
	}
	server.handlers["status"] = bot.statusAction
	server.handlers["channels"] = bot.channelsAction
	server.handlers["projects"] = bot.projectsAction
	return server
}

// Serve accepts connections until ctx is cancelled, then waits for
// in-flight requests. Any stale socket file is replaced; the socket
// file is removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.path, err)
	}

	listener, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.path, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.path)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("status socket listening", "path", s.path)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.active.Add(1)
		go func() {
			defer s.active.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.active.Wait()
	return nil
}

// handleConnection processes one request-response cycle.
func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(socketReadTimeout))

	// CBOR is self-delimiting, so no framing is needed. LimitReader
	// keeps a bad client from exhausting memory.
	var request struct {
		Action string `cbor:"action"`
	}
	if err := codec.NewDecoder(io.LimitReader(conn, maxSocketRequest)).Decode(&request); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if request.Action == "" {
		s.writeError(conn, "missing required field: action")
		return
	}

	handler, ok := s.handlers[request.Action]
	if !ok {
		s.writeError(conn, fmt.Sprintf("unknown action %q", request.Action))
		return
	}

	result, err := handler(ctx)
	if err != nil {
		s.writeError(conn, err.Error())
		return
	}
	s.writeSuccess(conn, result)
}

func (s *SocketServer) writeError(conn net.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(socketWriteTimeout))
	if err := codec.NewEncoder(conn).Encode(socketResponse{
		OK:    false,
		Error: message,
	}); err != nil {
		s.logger.Debug("writing error response", "error", err)
	}
}

func (s *SocketServer) writeSuccess(conn net.Conn, result any) {
	conn.SetWriteDeadline(time.Now().Add(socketWriteTimeout))

	response := socketResponse{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeError(conn, fmt.Sprintf("internal: marshaling response: %v", err))
			return
		}
		response.Data = data
	}
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("writing response", "error", err)
	}
}

// botStatus is the "status" action payload.
type botStatus struct {
	UserID             string `cbor:"user_id"`
	Version            string `cbor:"version"`
	StartedAt          string `cbor:"started_at"`
	UptimeSeconds      int64  `cbor:"uptime_seconds"`
	SubmissionsHandled int64  `cbor:"submissions_handled"`
	Channels           int    `cbor:"channels"`
	Projects           int    `cbor:"projects"`
}

// The actions run on socket-connection goroutines while admin
// commands mutate the configuration on the event loop, so each action
// snapshots what it needs under the store's read lock. The snapshot
// must be a copy: the response is marshaled after the lock is
// released.

func (b *Bot) statusAction(ctx context.Context) (any, error) {
	b.store.RLock()
	cfg := b.store.Config()
	channels, projects := len(cfg.Channels), len(cfg.Projects)
	b.store.RUnlock()

	return botStatus{
		UserID:             b.session.UserID(),
		Version:            version.Info(),
		StartedAt:          b.startedAt.UTC().Format(time.RFC3339),
		UptimeSeconds:      int64(time.Since(b.startedAt).Seconds()),
		SubmissionsHandled: b.submissionsHandled.Load(),
		Channels:           channels,
		Projects:           projects,
	}, nil
}

func (b *Bot) channelsAction(ctx context.Context) (any, error) {
	b.store.RLock()
	channels := slices.Clone(b.store.Config().Channels)
	b.store.RUnlock()

	return struct {
		Channels []string `cbor:"channels"`
	}{Channels: channels}, nil
}

// projectBinding is one entry in the "projects" action payload.
type projectBinding struct {
	Name     string   `cbor:"name"`
	Root     string   `cbor:"root"`
	Channels []string `cbor:"channels,omitempty"`
}

func (b *Bot) projectsAction(ctx context.Context) (any, error) {
	b.store.RLock()
	cfg := b.store.Config()
	bindings := make([]projectBinding, 0, len(cfg.Projects))
	for _, proj := range cfg.Projects {
		bindings = append(bindings, projectBinding{
			Name:     proj.Name,
			Root:     proj.Root,
			Channels: slices.Clone(proj.Channels),
		})
	}
	b.store.RUnlock()

	return struct {
		Projects []projectBinding `cbor:"projects"`
	}{Projects: bindings}, nil
}
