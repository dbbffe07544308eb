// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

// Package command implements the administrative command layer.
// Commands arrive as chat messages carrying the bot prefix; the
// dispatcher parses the command name and arguments, enforces the
// admin gate, applies the mutation to the shared configuration, and
// returns the reply text for the bot to post.
package command

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/codebot-io/codebot/lib/config"
	"github.com/codebot-io/codebot/lib/project"
)

// Prefix distinguishes command invocations from code submissions.
const Prefix = "!codebot "

// Fixed reply texts for dispatch-level outcomes.
const (
	replyNotFound         = "Command not found"
	replyPermissionDenied = "This command requires admin permissions"
)

// wordPattern tokenizes the invocation text. Mention syntax such as
// <@123456> reduces to the bare identifier, which is what promote and
// demote want.
var wordPattern = regexp.MustCompile(`\w+`)

// Invocation carries the event-local inputs a handler needs.
type Invocation struct {
	ChannelID string
	AuthorID  string
	// Args are the tokens after the command name.
	Args []string
}

// Command is one entry in the static dispatch table.
type Command struct {
	Name string
	// Admin gates the command on membership in the admins list.
	Admin bool
	// Summary is the one-line help text.
	Summary string
	Run     func(d *Dispatcher, inv Invocation) string
}

// Dispatcher routes command invocations to handlers over a shared
// configuration store. Dispatch is not safe for concurrent use; the
// event loop invokes it one event at a time.
type Dispatcher struct {
	store    *config.Store
	registry *project.Registry
	logger   *slog.Logger
}

// NewDispatcher returns a Dispatcher over store and registry.
func NewDispatcher(store *config.Store, registry *project.Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{store: store, registry: registry, logger: logger}
}

// Matches reports whether content is a command invocation rather than
// a code submission.
func Matches(content string) bool {
	return strings.HasPrefix(content, Prefix)
}

// Dispatch parses content, runs the named command, and returns the
// reply text. Unknown names and failed permission checks produce
// their fixed replies; no configuration is touched in either case.
func (d *Dispatcher) Dispatch(channelID, authorID, content string) string {
	words := wordPattern.FindAllString(content, -1)
	// words[0] is the prefix token itself.
	if len(words) < 2 {
		return replyNotFound
	}
	name := words[1]

	cmd, ok := table[name]
	if !ok {
		d.logger.Info("unknown command", "name", name, "author", authorID)
		return replyNotFound
	}

	// The whole read-modify-save sequence runs under the store's
	// write lock so status-socket readers never see a half-applied
	// mutation.
	d.store.Lock()
	defer d.store.Unlock()

	if cmd.Admin && !d.store.Config().IsAdmin(authorID) {
		d.logger.Info("permission denied",
			"command", name,
			"author", authorID,
			"channel", channelID)
		return replyPermissionDenied
	}

	d.logger.Info("dispatching command",
		"command", name,
		"author", authorID,
		"channel", channelID)
	return cmd.Run(d, Invocation{
		ChannelID: channelID,
		AuthorID:  authorID,
		Args:      words[2:],
	})
}

// persist saves the configuration after a mutation. The in-memory
// change is kept even when the write fails; the reply tells the admin
// the change did not reach disk.
func (d *Dispatcher) persist(success string) string {
	if err := d.store.Save(); err != nil {
		d.logger.Error("saving configuration", "error", err)
		return "Configuration change applied but could not be saved: " + err.Error()
	}
	return success
}

// arg returns the i-th argument or "".
func (inv Invocation) arg(i int) string {
	if i >= len(inv.Args) {
		return ""
	}
	return inv.Args[i]
}
