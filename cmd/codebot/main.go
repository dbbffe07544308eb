// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

// CodeBot accepts code submissions in chat channels, formats them,
// runs a build check against the channel's project, and reports the
// result back into the channel. Admins manage channels and project
// bindings with !codebot commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/codebot-io/codebot/lib/buildcheck"
	"github.com/codebot-io/codebot/lib/clock"
	"github.com/codebot-io/codebot/lib/config"
	"github.com/codebot-io/codebot/lib/format"
	"github.com/codebot-io/codebot/lib/process"
	"github.com/codebot-io/codebot/lib/stage"
	"github.com/codebot-io/codebot/lib/version"
	"github.com/codebot-io/codebot/messaging"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath   string
		platformURL  string
		socketPath   string
		formatBinary string
		checkBinary  string
		showVersion  bool
	)

	pflag.StringVar(&configPath, "config", "", "path to the config file (default: $CODEBOT_CONFIG)")
	pflag.StringVar(&platformURL, "platform-url", "http://localhost:8008", "chat platform base URL")
	pflag.StringVar(&socketPath, "status-socket", "", "Unix socket path for the status protocol (disabled when empty)")
	pflag.StringVar(&formatBinary, "format-binary", "", "formatter executable (default: clang-format)")
	pflag.StringVar(&checkBinary, "check-binary", "", "compiler executable (default: g++)")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("codebot %s\n", version.Info())
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *config.Store
	var err error
	if configPath != "" {
		store, err = config.LoadFile(configPath)
	} else {
		store, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := store.Config().Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Info("configuration loaded",
		"path", store.Path(),
		"channels", len(store.Config().Channels),
		"projects", len(store.Config().Projects),
	)

	client, err := messaging.NewClient(messaging.ClientConfig{
		PlatformURL: platformURL,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating chat client: %w", err)
	}
	defer client.CloseIdleConnections()

	session, err := client.Login(ctx, store.Config().Token)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	logger.Info("logged in", "user_id", session.UserID())

	pipeline := &Pipeline{
		session:   session,
		formatter: format.New(format.Options{Binary: formatBinary}),
		checker:   buildcheck.New(buildcheck.Options{Compiler: checkBinary}),
		stager:    stage.New(stage.Options{Logger: logger}),
		logger:    logger,
	}

	clk := clock.Real()
	bot := NewBot(session, store, pipeline, clk.Now(), logger)
	bot.SendWelcomes(ctx)

	if socketPath != "" {
		server := NewSocketServer(socketPath, bot, logger)
		go func() {
			if err := server.Serve(ctx); err != nil {
				logger.Error("status socket failed", "error", err)
			}
		}()
	}

	messaging.RunEventLoop(ctx, session, messaging.EventLoopConfig{}, "", bot.HandleEvents, clk, logger)

	// Let in-flight submissions finish their chat updates before the
	// process exits.
	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		bot.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-drainCtx.Done():
		logger.Warn("shutdown timed out waiting for in-flight submissions")
	}

	logger.Info("codebot stopped")
	return nil
}
