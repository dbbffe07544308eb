// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codebot.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const validConfig = `
token: secret
admins: ["100"]
channels: ["C1"]
projects:
  - name: empty
    root: /srv/empty
    upload: /srv/empty/upload
  - name: demo
    root: /srv/demo
    upload: /srv/demo/upload
    channels: ["C1"]
welcome: ["hello"]
`

func TestLoadFile(t *testing.T) {
	store, err := LoadFile(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	cfg := store.Config()
	if cfg.Token != "secret" {
		t.Errorf("token = %q, want %q", cfg.Token, "secret")
	}
	if len(cfg.Projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(cfg.Projects))
	}
	if cfg.Projects[1].Upload != "/srv/demo/upload" {
		t.Errorf("upload = %q, want /srv/demo/upload", cfg.Projects[1].Upload)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *LoadError, got %v", err)
	}
}

func TestLoadFileCorrupt(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "{token: [unclosed"))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *LoadError, got %v", err)
	}
}

func TestLoadRequiresEnvVariable(t *testing.T) {
	t.Setenv("CODEBOT_CONFIG", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when CODEBOT_CONFIG not set")
	}
	if !strings.Contains(err.Error(), "CODEBOT_CONFIG") {
		t.Errorf("error %q does not mention CODEBOT_CONFIG", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	store, err := LoadFile(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	store.Config().AddChannel("C2")
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := LoadFile(store.Path())
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if !reloaded.Config().HasChannel("C2") {
		t.Error("saved config lost channel C2")
	}
	if !reloaded.Config().HasChannel("C1") {
		t.Error("saved config lost channel C1")
	}
}

func TestSaveFailureKeepsMutation(t *testing.T) {
	cfg := Default()
	cfg.Token = "secret"
	store := NewStore(filepath.Join(t.TempDir(), "no-such-dir", "codebot.yaml"), cfg)

	cfg.AddChannel("C1")
	err := store.Save()
	var saveErr *SaveError
	if !errors.As(err, &saveErr) {
		t.Fatalf("expected *SaveError, got %v", err)
	}
	if !cfg.HasChannel("C1") {
		t.Error("save failure rolled back the in-memory mutation")
	}
}

func TestValidateRequiresFallbackProject(t *testing.T) {
	cfg := Default()
	cfg.Token = "secret"
	cfg.Projects = []*Project{{Name: "demo"}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error without fallback project")
	}
	if !strings.Contains(err.Error(), FallbackProjectName) {
		t.Errorf("error %q does not mention the fallback project", err)
	}
}

func TestValidateRejectsSharedChannel(t *testing.T) {
	cfg := Default()
	cfg.Token = "secret"
	cfg.Projects = []*Project{
		{Name: FallbackProjectName},
		{Name: "a", Channels: []string{"C1"}},
		{Name: "b", Channels: []string{"C1"}},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for channel bound to two projects")
	}
}

func TestAddChannelIdempotent(t *testing.T) {
	cfg := Default()

	if !cfg.AddChannel("C1") {
		t.Error("first AddChannel returned false")
	}
	if cfg.AddChannel("C1") {
		t.Error("second AddChannel returned true")
	}

	count := 0
	for _, c := range cfg.Channels {
		if c == "C1" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("channel C1 appears %d times, want 1", count)
	}
}

func TestRemoveChannelAbsent(t *testing.T) {
	cfg := Default()
	cfg.Channels = []string{"C1", "C2"}

	if cfg.RemoveChannel("C3") {
		t.Error("RemoveChannel of absent channel returned true")
	}
	if len(cfg.Channels) != 2 {
		t.Errorf("channel list corrupted: %v", cfg.Channels)
	}

	if !cfg.RemoveChannel("C1") {
		t.Error("RemoveChannel of present channel returned false")
	}
	if len(cfg.Channels) != 1 || cfg.Channels[0] != "C2" {
		t.Errorf("channels = %v, want [C2]", cfg.Channels)
	}
}

func TestRemoveAdminAbsent(t *testing.T) {
	cfg := Default()
	cfg.Admins = []string{"100"}

	if cfg.RemoveAdmin("200") {
		t.Error("RemoveAdmin of non-member returned true")
	}
	if len(cfg.Admins) != 1 {
		t.Errorf("admin list corrupted: %v", cfg.Admins)
	}
}
