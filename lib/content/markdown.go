// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

// Package content provides message body helpers: extracting submitted
// code from chat markdown and rendering CodeBot's reply bodies.
package content

import (
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// markdownParserInstance is initialized once and reused. The parser
// configuration never changes and the goldmark Parser is safe to
// share — actual parsing creates per-call state via Parse(reader).
var (
	markdownParserInstance goldmark.Markdown
	markdownParserOnce     sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParserInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownParserInstance
}

// ExtractCode returns the code a submission carries. Users often wrap
// code in markdown fences when posting; the formatter and checker want
// the bare source. When the message contains fenced or indented code
// blocks, their concatenated contents are returned. A message with no
// code blocks is treated as bare source and returned trimmed.
func ExtractCode(body string) string {
	source := []byte(body)
	reader := text.NewReader(source)
	document := getMarkdownParser().Parser().Parse(reader)

	var blocks []string
	ast.Walk(document, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			var block strings.Builder
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				segment := lines.At(i)
				block.Write(segment.Value(source))
			}
			blocks = append(blocks, strings.TrimRight(block.String(), "\n"))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	if len(blocks) == 0 {
		return strings.TrimSpace(body)
	}
	return strings.Join(blocks, "\n")
}

// CodeFence wraps source in a fenced code block tagged with the given
// language, the shape the chat platform renders with highlighting.
func CodeFence(language, source string) string {
	return "```" + language + "\n" + source + "\n```\n"
}

// Mention renders a user mention the platform turns into a ping.
func Mention(userID string) string {
	return "<@" + userID + ">"
}
