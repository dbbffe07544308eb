// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codebot-io/codebot/lib/config"
	"github.com/codebot-io/codebot/lib/stage"
	"github.com/codebot-io/codebot/messaging"
)

const (
	botUserID     = "@codebot:chat.example.com"
	testAuthorID  = "@alice:chat.example.com"
	testAdminID   = "@admin:chat.example.com"
	testChannelID = "!code:chat.example.com"
)

// fakeSession records every chat operation. Safe for concurrent use;
// submission pipelines run in goroutines.
type fakeSession struct {
	mu      sync.Mutex
	nextID  int
	sent    []sentMessage
	edits   map[string][]string
	deleted []messaging.MessageRef
}

type sentMessage struct {
	ID          string
	ChannelID   string
	Content     string
	Attachments []messaging.Attachment
}

func newFakeSession() *fakeSession {
	return &fakeSession{edits: make(map[string][]string)}
}

func (s *fakeSession) UserID() string { return botUserID }

func (s *fakeSession) SendMessage(ctx context.Context, channelID, content string, attachments []messaging.Attachment) (messaging.MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("$msg-%d", s.nextID)
	s.sent = append(s.sent, sentMessage{
		ID:          id,
		ChannelID:   channelID,
		Content:     content,
		Attachments: attachments,
	})
	return messaging.MessageRef{ChannelID: channelID, MessageID: id}, nil
}

func (s *fakeSession) EditMessage(ctx context.Context, ref messaging.MessageRef, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits[ref.MessageID] = append(s.edits[ref.MessageID], content)
	return nil
}

func (s *fakeSession) DeleteMessage(ctx context.Context, ref messaging.MessageRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, ref)
	return nil
}

func (s *fakeSession) ResolveChannel(ctx context.Context, channelID string) (*messaging.Channel, error) {
	return &messaging.Channel{ID: channelID, Name: "code"}, nil
}

func (s *fakeSession) Events(ctx context.Context, since string, timeout int) (*messaging.EventsResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

var _ messaging.Session = (*fakeSession)(nil)

func (s *fakeSession) sentMessages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

func (s *fakeSession) lastEdit(t *testing.T, messageID string) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	edits := s.edits[messageID]
	if len(edits) == 0 {
		t.Fatalf("message %s was never edited", messageID)
	}
	return edits[len(edits)-1]
}

func (s *fakeSession) deletedMessages() []messaging.MessageRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]messaging.MessageRef(nil), s.deleted...)
}

// fakeFormatter echoes the source back, recording the style it was
// asked for. A non-nil err fails every call. A non-nil block channel
// stalls Format until the channel closes, and the context error seen
// after the stall is recorded alongside the style.
type fakeFormatter struct {
	mu      sync.Mutex
	styles  []string
	ctxErrs []error
	err     error
	block   chan struct{}
}

func (f *fakeFormatter) Format(ctx context.Context, source, style string) (string, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.styles = append(f.styles, style)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return source, nil
}

// buildEnv fakes the Checker and Stager together so the serialization
// tests can observe the whole clear-download-check critical section.
type buildEnv struct {
	mu            sync.Mutex
	textCalls     []string
	clearedDirs   []string
	downloads     []string
	projectRoots  []string
	checkCommands [][]string

	textWarnings    string
	textErr         error
	projectWarnings string
	projectErr      error

	// downloadDelay widens the staging window so interleaving, if
	// possible, actually happens.
	downloadDelay time.Duration

	// staging guards the invariant that at most one submission is
	// between ClearDirectory and CheckProject at a time.
	staging  bool
	overlaps int
}

func (e *buildEnv) CheckText(ctx context.Context, source string) (string, error) {
	e.mu.Lock()
	e.textCalls = append(e.textCalls, source)
	e.mu.Unlock()
	return e.textWarnings, e.textErr
}

func (e *buildEnv) CheckProject(ctx context.Context, root string, command []string) (string, error) {
	e.mu.Lock()
	e.projectRoots = append(e.projectRoots, root)
	e.checkCommands = append(e.checkCommands, command)
	e.staging = false
	e.mu.Unlock()
	return e.projectWarnings, e.projectErr
}

func (e *buildEnv) ClearDirectory(dir string) error {
	e.mu.Lock()
	if e.staging {
		e.overlaps++
	}
	e.staging = true
	e.clearedDirs = append(e.clearedDirs, dir)
	e.mu.Unlock()
	return nil
}

func (e *buildEnv) DownloadFile(ctx context.Context, fileURL, destDir string) (*stage.Staged, error) {
	if e.downloadDelay > 0 {
		time.Sleep(e.downloadDelay)
	}
	e.mu.Lock()
	e.downloads = append(e.downloads, fileURL)
	e.mu.Unlock()
	return &stage.Staged{Path: filepath.Join(destDir, "upload.cpp"), Size: 1}, nil
}

// testHarness wires a Bot over fakes plus a real config store.
type testHarness struct {
	bot       *Bot
	session   *fakeSession
	env       *buildEnv
	formatter *fakeFormatter
	store     *config.Store
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	cfg := config.Default()
	cfg.Admins = []string{testAdminID}
	cfg.Channels = []string{testChannelID}
	cfg.Projects = []*config.Project{
		{Name: "empty", Root: t.TempDir(), Upload: t.TempDir()},
		{Name: "kernel", Root: t.TempDir(), Upload: t.TempDir()},
	}
	store := config.NewStore(filepath.Join(t.TempDir(), "config.yaml"), cfg)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	session := newFakeSession()
	env := &buildEnv{}
	formatter := &fakeFormatter{}
	pipeline := &Pipeline{
		session:   session,
		formatter: formatter,
		checker:   env,
		stager:    env,
		logger:    logger,
	}
	bot := NewBot(session, store, pipeline, time.Now(), logger)
	return &testHarness{bot: bot, session: session, env: env, formatter: formatter, store: store}
}

func (h *testHarness) handle(events ...messaging.Event) {
	h.bot.HandleEvents(context.Background(), events)
	h.bot.Wait()
}

func submission(content string, attachments ...messaging.Attachment) messaging.Event {
	return messaging.Event{
		ID:          "$orig-1",
		ChannelID:   testChannelID,
		AuthorID:    testAuthorID,
		Content:     content,
		Attachments: attachments,
	}
}

func TestIgnoresOwnMessages(t *testing.T) {
	h := newHarness(t)
	h.handle(messaging.Event{ID: "$e", ChannelID: testChannelID, AuthorID: botUserID, Content: "int x;"})
	if got := h.session.sentMessages(); len(got) != 0 {
		t.Fatalf("bot replied to its own message: %v", got)
	}
}

func TestIgnoresUnregisteredChannels(t *testing.T) {
	h := newHarness(t)
	h.handle(messaging.Event{ID: "$e", ChannelID: "!random:chat.example.com", AuthorID: testAuthorID, Content: "int x;"})
	if got := h.session.sentMessages(); len(got) != 0 {
		t.Fatalf("bot replied in an unregistered channel: %v", got)
	}
}

func TestCommandRouting(t *testing.T) {
	h := newHarness(t)
	h.handle(messaging.Event{ID: "$e", ChannelID: testChannelID, AuthorID: testAuthorID, Content: "!codebot help"})
	sent := h.session.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(sent))
	}
	if !strings.HasPrefix(sent[0].Content, "<@"+testAuthorID+">, CodeBot help") {
		t.Fatalf("unexpected command reply: %q", sent[0].Content)
	}
	if len(h.env.textCalls) != 0 {
		t.Fatal("command invocation reached the pipeline")
	}
}

func TestCommandsWorkInUnregisteredChannels(t *testing.T) {
	h := newHarness(t)
	h.handle(messaging.Event{ID: "$e", ChannelID: "!random:chat.example.com", AuthorID: testAdminID, Content: "!codebot chadd"})
	sent := h.session.sentMessages()
	if len(sent) != 1 || !strings.Contains(sent[0].Content, "Channel added!") {
		t.Fatalf("chadd did not work from an unregistered channel: %v", sent)
	}
}

func TestWelcomeMessages(t *testing.T) {
	h := newHarness(t)
	h.store.Config().Welcome = []string{"hello", "welcome"}
	h.bot.SendWelcomes(context.Background())

	sent := h.session.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("expected one welcome per channel, got %d", len(sent))
	}
	if sent[0].ChannelID != testChannelID {
		t.Fatalf("welcome sent to wrong channel: %s", sent[0].ChannelID)
	}
	if sent[0].Content != "hello" && sent[0].Content != "welcome" {
		t.Fatalf("welcome not drawn from the configured lines: %q", sent[0].Content)
	}
}

func TestSameProjectSubmissionsSerialize(t *testing.T) {
	h := newHarness(t)
	h.env.downloadDelay = 30 * time.Millisecond

	first := submission("int a;", messaging.Attachment{Filename: "a.cpp", URL: "http://files/a.cpp"})
	second := submission("int b;", messaging.Attachment{Filename: "b.cpp", URL: "http://files/b.cpp"})
	second.ID = "$orig-2"

	h.handle(first, second)

	if h.env.overlaps != 0 {
		t.Fatalf("staging interleaved %d times for the same project", h.env.overlaps)
	}
	if len(h.env.clearedDirs) != 2 || len(h.env.downloads) != 2 {
		t.Fatalf("both submissions should stage: cleared=%d downloads=%d",
			len(h.env.clearedDirs), len(h.env.downloads))
	}
}

func TestSubmissionFinishesAfterEventLoopStops(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.formatter.block = release

	ctx, cancel := context.WithCancel(context.Background())
	h.bot.HandleEvents(ctx, []messaging.Event{submission("int x = 1;")})

	// Shut the event loop down while the submission is still stalled,
	// then let it proceed. It must run to completion on an uncancelled
	// context.
	cancel()
	close(release)
	h.bot.Wait()

	h.formatter.mu.Lock()
	ctxErrs := append([]error(nil), h.formatter.ctxErrs...)
	h.formatter.mu.Unlock()
	if len(ctxErrs) != 1 || ctxErrs[0] != nil {
		t.Fatalf("submission ran on a cancelled context: %v", ctxErrs)
	}

	final := h.session.lastEdit(t, placeholderOf(t, h).ID)
	if !strings.Contains(final, "Build successful!") {
		t.Fatalf("submission did not finish after shutdown: %q", final)
	}
	if got := h.session.deletedMessages(); len(got) != 1 {
		t.Fatalf("original message was not cleaned up: %v", got)
	}
}
