// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package command

import "strings"

// table is the static dispatch table, keyed by command name. Handlers
// are pure functions of the dispatcher state and the invocation; they
// never capture event-local variables.
var table = make(map[string]*Command)

func register(commands ...*Command) {
	for _, cmd := range commands {
		table[cmd.Name] = cmd
	}
}

func init() {
	register(
		&Command{
			Name:    "chadd",
			Admin:   true,
			Summary: "!codebot chadd - Adds the current channel to CodeBot",
			Run: func(d *Dispatcher, inv Invocation) string {
				if !d.store.Config().AddChannel(inv.ChannelID) {
					return "Channel is already added!"
				}
				return d.persist("Channel added!")
			},
		},
		&Command{
			Name:    "chdel",
			Admin:   true,
			Summary: "!codebot chdel - Removes the current channel from CodeBot",
			Run: func(d *Dispatcher, inv Invocation) string {
				if !d.store.Config().RemoveChannel(inv.ChannelID) {
					return "Channel is not added!"
				}
				return d.persist("Channel removed!")
			},
		},
		&Command{
			Name:    "chlist",
			Admin:   true,
			Summary: "!codebot chlist - Lists channels added to CodeBot",
			Run: func(d *Dispatcher, inv Invocation) string {
				return "List of CodeBot channels:\n" +
					strings.Join(d.store.Config().Channels, "\n")
			},
		},
		&Command{
			Name:    "promote",
			Admin:   true,
			Summary: "!codebot promote [id] - Sets user as admin",
			Run: func(d *Dispatcher, inv Invocation) string {
				user := inv.arg(0)
				if user == "" {
					return "Usage: !codebot promote [id]"
				}
				if !d.store.Config().AddAdmin(user) {
					return "User is already an admin!"
				}
				return d.persist("User promoted!")
			},
		},
		&Command{
			Name:    "demote",
			Admin:   true,
			Summary: "!codebot demote [id] - Removes the user from admins",
			Run: func(d *Dispatcher, inv Invocation) string {
				user := inv.arg(0)
				if user == "" {
					return "Usage: !codebot demote [id]"
				}
				if !d.store.Config().RemoveAdmin(user) {
					return "User is not an admin!"
				}
				return d.persist("User demoted!")
			},
		},
		&Command{
			Name:    "prset",
			Admin:   true,
			Summary: "!codebot prset [name] - Sets the project to use for current channel",
			Run: func(d *Dispatcher, inv Invocation) string {
				// Bind unconditionally clears the channel's prior
				// binding, even when the named project does not
				// exist; the channel then routes to the fallback.
				bound, found := d.registry.Bind(inv.ChannelID, inv.arg(0))
				if !found {
					return d.persist("Project not found, using empty project.")
				}
				return d.persist(`Project for this channel is set to "` + bound.Name + `"!`)
			},
		},
		&Command{
			Name:    "admins",
			Admin:   true,
			Summary: "!codebot admins - Lists all the admins of CodeBot",
			Run: func(d *Dispatcher, inv Invocation) string {
				return "List of CodeBot admins:\n" +
					strings.Join(d.store.Config().Admins, "\n")
			},
		},
		&Command{
			Name:    "ahelp",
			Admin:   true,
			Summary: "!codebot ahelp - Shows this page",
			Run: func(d *Dispatcher, inv Invocation) string {
				return adminHelp()
			},
		},
		&Command{
			Name:    "help",
			Summary: "!codebot help - Shows user help page",
			Run: func(d *Dispatcher, inv Invocation) string {
				return "CodeBot help\n" +
					"Just send me your code and I'll format it and check it for any errors!\n" +
					"!codebot help - Shows this page\n" +
					"!codebot ahelp - Shows admin help page"
			},
		},
	)
}

// adminHelp renders the admin help page from the table so it never
// drifts from the registered commands.
func adminHelp() string {
	order := []string{
		"chadd", "chdel", "chlist", "promote", "demote",
		"admins", "prset", "ahelp", "help",
	}
	lines := []string{"CodeBot admin help"}
	for _, name := range order {
		lines = append(lines, table[name].Summary)
	}
	return strings.Join(lines, "\n")
}
