// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codebot-io/codebot/lib/codec"
	"github.com/codebot-io/codebot/messaging"
)

// startSocket serves the status protocol for h's bot on a temp socket
// and returns its path. The server shuts down with the test.
func startSocket(t *testing.T, h *testHarness) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codebot.sock")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	server := NewSocketServer(path, h.bot, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Serve(ctx); err != nil {
			t.Errorf("Serve: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Wait for the socket file to appear.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		if time.Now().After(deadline) {
			t.Fatal("socket never appeared")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// call performs one request-response cycle against the socket.
func call(t *testing.T, path string, request any) socketResponse {
	t.Helper()
	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		t.Fatalf("encode request: %v", err)
	}
	var response socketResponse
	if err := codec.NewDecoder(conn).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return response
}

func TestSocketStatus(t *testing.T) {
	h := newHarness(t)
	path := startSocket(t, h)

	response := call(t, path, map[string]string{"action": "status"})
	if !response.OK {
		t.Fatalf("status failed: %s", response.Error)
	}
	var status botStatus
	if err := codec.Unmarshal(response.Data, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.UserID != botUserID {
		t.Errorf("unexpected user_id: %q", status.UserID)
	}
	if status.Channels != 1 || status.Projects != 2 {
		t.Errorf("unexpected counts: channels=%d projects=%d", status.Channels, status.Projects)
	}
}

func TestSocketChannels(t *testing.T) {
	h := newHarness(t)
	path := startSocket(t, h)

	response := call(t, path, map[string]string{"action": "channels"})
	if !response.OK {
		t.Fatalf("channels failed: %s", response.Error)
	}
	var payload struct {
		Channels []string `cbor:"channels"`
	}
	if err := codec.Unmarshal(response.Data, &payload); err != nil {
		t.Fatalf("decode channels: %v", err)
	}
	if len(payload.Channels) != 1 || payload.Channels[0] != testChannelID {
		t.Fatalf("unexpected channels: %v", payload.Channels)
	}
}

func TestSocketProjects(t *testing.T) {
	h := newHarness(t)
	path := startSocket(t, h)

	response := call(t, path, map[string]string{"action": "projects"})
	if !response.OK {
		t.Fatalf("projects failed: %s", response.Error)
	}
	var payload struct {
		Projects []projectBinding `cbor:"projects"`
	}
	if err := codec.Unmarshal(response.Data, &payload); err != nil {
		t.Fatalf("decode projects: %v", err)
	}
	if len(payload.Projects) != 2 {
		t.Fatalf("unexpected projects: %v", payload.Projects)
	}
	if payload.Projects[0].Name != "empty" || payload.Projects[1].Name != "kernel" {
		t.Fatalf("unexpected project names: %v", payload.Projects)
	}
}

// The socket actions run on connection goroutines while admin
// commands mutate the channel and project lists on the event loop.
// This exercises both sides at once so the race detector can catch
// any unsynchronized access.
func TestSocketReadsDuringCommandMutations(t *testing.T) {
	h := newHarness(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			if _, err := h.bot.channelsAction(context.Background()); err != nil {
				t.Errorf("channels action: %v", err)
				return
			}
			if _, err := h.bot.projectsAction(context.Background()); err != nil {
				t.Errorf("projects action: %v", err)
				return
			}
			if _, err := h.bot.statusAction(context.Background()); err != nil {
				t.Errorf("status action: %v", err)
				return
			}
		}
	}()

	admin := func(content string) messaging.Event {
		return messaging.Event{
			ID:        "$cmd",
			ChannelID: testChannelID,
			AuthorID:  testAdminID,
			Content:   content,
		}
	}
	for i := 0; i < 100; i++ {
		h.bot.HandleEvents(context.Background(), []messaging.Event{
			admin("!codebot chdel"),
			admin("!codebot chadd"),
			admin("!codebot prset kernel"),
			admin("!codebot prset empty"),
		})
	}
	<-done
}

func TestSocketUnknownAction(t *testing.T) {
	h := newHarness(t)
	path := startSocket(t, h)

	response := call(t, path, map[string]string{"action": "explode"})
	if response.OK {
		t.Fatal("unknown action succeeded")
	}
	if response.Error == "" {
		t.Fatal("unknown action produced no error message")
	}
}

func TestSocketMissingAction(t *testing.T) {
	h := newHarness(t)
	path := startSocket(t, h)

	response := call(t, path, map[string]int{"junk": 1})
	if response.OK {
		t.Fatal("request without action succeeded")
	}
}
