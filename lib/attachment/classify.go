// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

// Package attachment classifies submitted files into a closed set of
// kinds. Classification is decoupled from staging: the pipeline
// branches on the Kind and never inspects filenames itself.
package attachment

import (
	"path"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// Kind is the closed classification of an attachment.
type Kind int

const (
	// SourceFile is a single source file the checker can build.
	SourceFile Kind = iota
	// Archive is a multi-file bundle. Recognized so the pipeline can
	// reject it with a specific message; archive submissions are not
	// supported.
	Archive
	// Unsupported is everything else.
	Unsupported
)

func (k Kind) String() string {
	switch k {
	case SourceFile:
		return "source-file"
	case Archive:
		return "archive"
	default:
		return "unsupported"
	}
}

// sourceExtensions are the file extensions accepted as buildable
// source, lowercased.
var sourceExtensions = map[string]bool{
	".c":   true,
	".cc":  true,
	".cpp": true,
	".cxx": true,
	".h":   true,
	".hh":  true,
	".hpp": true,
}

// archiveExtensions are extensions recognized as multi-file bundles.
var archiveExtensions = map[string]bool{
	".zip": true,
	".tar": true,
	".tgz": true,
	".gz":  true,
	".bz2": true,
	".xz":  true,
	".7z":  true,
	".rar": true,
}

// Classify maps a filename (or URL path) to its Kind. The extension
// table decides the common cases; for unknown extensions a chroma
// lexer lookup backstops detection so unusual C/C++ suffixes still
// classify as source.
func Classify(name string) Kind {
	base := path.Base(strings.TrimSpace(name))
	extension := strings.ToLower(path.Ext(base))

	if sourceExtensions[extension] {
		return SourceFile
	}
	if archiveExtensions[extension] {
		return Archive
	}

	if lexer := lexers.Match(base); lexer != nil {
		switch lexer.Config().Name {
		case "C", "C++":
			return SourceFile
		}
	}
	return Unsupported
}
