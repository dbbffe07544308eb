// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		want Kind
	}{
		{"main.cpp", SourceFile},
		{"main.c", SourceFile},
		{"util.cc", SourceFile},
		{"header.hpp", SourceFile},
		{"HEADER.H", SourceFile},
		{"https://files.example.com/uploads/main.cpp", SourceFile},
		{"project.zip", Archive},
		{"project.tar", Archive},
		{"project.tgz", Archive},
		{"backup.7z", Archive},
		{"notes.pdf", Unsupported},
		{"image.png", Unsupported},
		{"README", Unsupported},
		{"", Unsupported},
	}

	for _, tc := range cases {
		if got := Classify(tc.name); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
