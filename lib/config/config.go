// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// FallbackProjectName is the name of the project that receives
// submissions from channels with no explicit binding. A project with
// this name must exist in every valid configuration.
const FallbackProjectName = "empty"

// Config is the persisted CodeBot configuration. One instance exists
// per process, owned by the Store that loaded it. Admin commands
// mutate it in memory and call Store.Save before acknowledging.
type Config struct {
	// Token is the chat platform credential. Loaded once at startup,
	// never mutated at runtime.
	Token string `yaml:"token"`

	// Admins are the user IDs allowed to run admin commands.
	Admins []string `yaml:"admins"`

	// Channels are the channel IDs enabled for submissions. A channel
	// appears at most once.
	Channels []string `yaml:"channels"`

	// Projects are the build configurations channels can bind to.
	Projects []*Project `yaml:"projects"`

	// Welcome holds greeting lines; one is picked at random and sent
	// to every enabled channel at startup.
	Welcome []string `yaml:"welcome"`
}

// Project is a named build configuration. Channels listed here route
// their submissions to this project's build root.
type Project struct {
	// Name is the unique project key.
	Name string `yaml:"name"`

	// Root is the build root the syntax checker runs against.
	Root string `yaml:"root"`

	// Upload is the staging directory cleared and repopulated for each
	// file submission.
	Upload string `yaml:"upload"`

	// Channels are the channel IDs bound to this project. System-wide,
	// a channel ID appears in at most one project's list.
	Channels []string `yaml:"channels"`
}

// LoadError reports that the configuration file could not be read or
// parsed. Treated as a fatal startup failure.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading config %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError reports that the configuration file could not be written.
// The in-memory mutation that triggered the save is kept; the invoking
// admin sees the failure as a command error. This is a documented
// optimistic-write policy, not a transactional one.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saving config %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Default returns a Config with empty lists and a placeholder welcome
// line. It exists to give every field a sensible zero value before the
// file is loaded — the config file is required.
func Default() *Config {
	return &Config{
		Admins:   []string{},
		Channels: []string{},
		Projects: []*Project{},
		Welcome:  []string{"CodeBot is up. Send me your code!"},
	}
}

// Load loads configuration from the path in the CODEBOT_CONFIG
// environment variable. There are no fallbacks or automatic discovery —
// if CODEBOT_CONFIG is not set, this fails. This ensures deterministic,
// auditable configuration with no hidden overrides.
func Load() (*Store, error) {
	path := os.Getenv("CODEBOT_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("CODEBOT_CONFIG environment variable not set; " +
			"set it to the path of your codebot.yaml config file, or use the --config flag")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path. Missing
// fields keep their Default values. Unreadable or unparsable files
// produce a *LoadError.
func LoadFile(path string) (*Store, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	return &Store{path: path, config: cfg}, nil
}

// Validate checks the configuration invariants. Called once at
// startup; violations are fatal. In particular, the absence of the
// "empty" fallback project is caught here rather than discovered
// per-submission.
func (c *Config) Validate() error {
	var errs []error

	if c.Token == "" {
		errs = append(errs, fmt.Errorf("token is required"))
	}

	seenChannels := make(map[string]bool)
	for _, channel := range c.Channels {
		if seenChannels[channel] {
			errs = append(errs, fmt.Errorf("duplicate channel %q", channel))
		}
		seenChannels[channel] = true
	}

	seenProjects := make(map[string]bool)
	owner := make(map[string]string)
	for _, project := range c.Projects {
		if project.Name == "" {
			errs = append(errs, fmt.Errorf("project with empty name"))
			continue
		}
		if seenProjects[project.Name] {
			errs = append(errs, fmt.Errorf("duplicate project %q", project.Name))
		}
		seenProjects[project.Name] = true

		for _, channel := range project.Channels {
			if prev, bound := owner[channel]; bound {
				errs = append(errs, fmt.Errorf("channel %q bound to both %q and %q", channel, prev, project.Name))
			}
			owner[channel] = project.Name
		}
	}

	if !seenProjects[FallbackProjectName] {
		errs = append(errs, fmt.Errorf("no fallback project named %q", FallbackProjectName))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// IsAdmin reports whether userID is in the admin list.
func (c *Config) IsAdmin(userID string) bool {
	return slices.Contains(c.Admins, userID)
}

// HasChannel reports whether channelID is enabled for submissions.
func (c *Config) HasChannel(channelID string) bool {
	return slices.Contains(c.Channels, channelID)
}

// AddChannel enables channelID for submissions. Returns false when the
// channel is already enabled (no mutation).
func (c *Config) AddChannel(channelID string) bool {
	if slices.Contains(c.Channels, channelID) {
		return false
	}
	c.Channels = append(c.Channels, channelID)
	return true
}

// RemoveChannel disables channelID. Returns false when the channel was
// not enabled (no mutation). The explicit membership check matters:
// removing by a searched index without checking for absence silently
// corrupts the list.
func (c *Config) RemoveChannel(channelID string) bool {
	index := slices.Index(c.Channels, channelID)
	if index < 0 {
		return false
	}
	c.Channels = slices.Delete(c.Channels, index, index+1)
	return true
}

// AddAdmin grants admin rights to userID. Returns false when already
// an admin.
func (c *Config) AddAdmin(userID string) bool {
	if slices.Contains(c.Admins, userID) {
		return false
	}
	c.Admins = append(c.Admins, userID)
	return true
}

// RemoveAdmin revokes admin rights from userID. Returns false when the
// user was not an admin (no mutation).
func (c *Config) RemoveAdmin(userID string) bool {
	index := slices.Index(c.Admins, userID)
	if index < 0 {
		return false
	}
	c.Admins = slices.Delete(c.Admins, index, index+1)
	return true
}

// ProjectNamed returns the project with the given name, or nil.
func (c *Config) ProjectNamed(name string) *Project {
	for _, project := range c.Projects {
		if project.Name == name {
			return project
		}
	}
	return nil
}
