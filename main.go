// mull - a terminal client for a thinking-capable chat proxy.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/mull-tui/internal/api"
	"github.com/jeranaias/mull-tui/internal/config"
	"github.com/jeranaias/mull-tui/internal/store"
	"github.com/jeranaias/mull-tui/internal/ui/chat"
	"github.com/jeranaias/mull-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	var (
		prompt      = flag.String("p", "", "ask a single question and print the answer (no TUI)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("mull %s (%s)\n", Version, GitCommit)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mull: %v\n", err)
		os.Exit(1)
	}

	closeLog := setupLogging()
	defer closeLog()

	client := newClient(cfg)

	if *prompt != "" {
		if err := runOneShot(client, *prompt); err != nil {
			fmt.Fprintf(os.Stderr, "mull: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runTUI(cfg, client); err != nil {
		fmt.Fprintf(os.Stderr, "mull: %v\n", err)
		os.Exit(1)
	}
}

// newClient builds the API client from config.
func newClient(cfg *config.Config) *api.Client {
	return api.NewClient(cfg.API.Token).
		WithBaseURL(cfg.API.BaseURL).
		WithModel(cfg.API.Model).
		WithSystem(cfg.API.System).
		WithMaxTokens(cfg.API.MaxTokens).
		WithThinkingBudget(cfg.API.ThinkingBudget)
}

// setupLogging sends the standard logger to ~/.mull/mull.log. The TUI owns
// the terminal, so nothing may write to stderr while it runs.
func setupLogging() func() {
	path, err := config.LogPath()
	if err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	if err := config.EnsureConfigDir(); err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	return func() { f.Close() }
}

// runOneShot asks a single question over the non-streaming endpoint and
// prints the answer. Thinking is suppressed; this mode exists for piping.
func runOneShot(client *api.Client, question string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	answer, err := client.Ask(ctx, question)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

// runTUI starts the Bubble Tea program with the persistent session store
// and the config file watcher wired in.
func runTUI(cfg *config.Config, client *api.Client) error {
	sessionsPath, err := cfg.SessionsPath()
	if err != nil {
		return err
	}
	st, err := store.Open(sessionsPath, cfg.Storage.MaxSessions)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}

	theme := styles.NewTheme(cfg.UI.Theme)
	m := chat.New(cfg, client, st, theme)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Live config reload: a token edit in ~/.mull/config.toml takes effect
	// without restarting.
	if cfgPath, err := config.ConfigPath(); err == nil {
		if w, werr := config.Watch(cfgPath, func(next *config.Config) {
			p.Send(chat.ConfigReloadedMsg{Config: next})
		}); werr == nil {
			defer w.Close()
		} else {
			log.Printf("config watcher unavailable: %v", werr)
		}
	}

	_, err = p.Run()
	return err
}
