// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/codebot-io/codebot/lib/content"

// Message bodies posted into channels. The submission flow edits one
// placeholder message in place as the pipeline progresses, so users
// see a single evolving reply rather than a stream of messages.
const (
	ackBody      = "Working, please wait..."
	buildingMark = "Building..."
	successMark  = ":white_check_mark:  Build successful! Warnings:\n"
	failureMark  = ":no_entry:  Build failed:\n"
	noWarnings   = "None!"

	archivesUnsupported = "Archives are not yet supported"
	fileTypeUnsupported = "File type not supported"
)

// submissionHeader renders the mention plus formatted code fence that
// prefixes every pipeline reply.
func submissionHeader(authorID, code string) string {
	return content.Mention(authorID) + "," + content.CodeFence("cpp", code)
}

// renderBuilding is the placeholder body while the check runs.
func renderBuilding(header string) string {
	return header + buildingMark
}

// renderSuccess is the final body for a passing check. An empty
// warnings string renders the explicit "None!" marker.
func renderSuccess(header, warnings string) string {
	if warnings == "" {
		warnings = noWarnings
	}
	return header + successMark + warnings
}

// renderFailure is the final body for a failed check; reason is the
// tool's diagnostic text or a fixed unsupported-attachment message.
func renderFailure(header, reason string) string {
	return header + failureMark + reason
}

// renderFormatFailure is the direct reply posted when formatting
// itself fails. No placeholder exists at that point and the original
// message is left in place.
func renderFormatFailure(authorID, original string, err error) string {
	return content.Mention(authorID) + ", Your message: \n\"" +
		original + "\"\n" +
		":warning:  Could not be formatted!\n" +
		"Reason: " + err.Error()
}

// renderCommandReply prefixes a dispatcher reply with the invoking
// user's mention.
func renderCommandReply(authorID, text string) string {
	return content.Mention(authorID) + ", " + text
}
