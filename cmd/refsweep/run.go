// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/RefSweep/pkg/logging"
	"github.com/AleutianAI/RefSweep/services/refsweep/catalog"
	"github.com/AleutianAI/RefSweep/services/refsweep/config"
	"github.com/AleutianAI/RefSweep/services/refsweep/report"
	"github.com/AleutianAI/RefSweep/services/refsweep/scan"
	"github.com/AleutianAI/RefSweep/services/refsweep/tui"
	"github.com/AleutianAI/RefSweep/services/refsweep/walker"
	"github.com/AleutianAI/RefSweep/services/refsweep/watch"
)

// buildSession wires catalog, walker, and session from project config.
func buildSession() (*scan.Session, *logging.Logger, error) {
	cfg, err := config.Load(projectRoot)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(level),
		LogDir:  cfg.Logging.Dir,
		Service: "refsweep",
	})

	cat := catalog.New(osfs.New(projectRoot),
		catalog.WithItemSuffixes(cfg.ItemSuffixes...),
		catalog.WithGraphSuffixes(cfg.GraphSuffixes...),
		catalog.WithTypeSuffixes(cfg.TypeSuffixes...),
	)
	w := walker.NewIndexWalker(catalog.NewLiveResolver(cat))

	session := scan.NewSession(cat, w,
		scan.WithExcludedOrigins(cfg.ExcludedOrigins...),
		scan.WithLogger(logger),
	)
	return session, logger, nil
}

// runScanCommand runs an interactive scan, falling back to the plain
// report off-terminal.
func runScanCommand(cmd *cobra.Command, args []string) error {
	if watchMode {
		noTUI = true
	}
	if noTUI || !isatty.IsTerminal(os.Stdout.Fd()) {
		return runPlain()
	}

	session, logger, err := buildSession()
	if err != nil {
		return err
	}
	defer logger.Close()

	model := tui.NewTreeModel(session, tui.DefaultTreeConfig())
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run report browser: %w", err)
	}
	return nil
}

// runReportCommand is the one-shot plain report.
func runReportCommand(cmd *cobra.Command, args []string) error {
	watchMode = false
	return runPlain()
}

// runPlain scans once and prints the indented report; in watch mode it
// keeps rescanning on debounced file changes until interrupted.
func runPlain() error {
	session, logger, err := buildSession()
	if err != nil {
		return err
	}
	defer logger.Close()

	scanAndPrint := func() error {
		stats, err := session.Scan()
		if err != nil {
			return err
		}
		if err := report.WritePlain(os.Stdout, session.Root(), "Broken references"); err != nil {
			return err
		}
		fmt.Printf("\n%d items scanned, %d load failures, %d skipped, %d broken links\n",
			stats.ItemsVisited, stats.LoadFailures, stats.Skipped, stats.BrokenLinks)
		return nil
	}

	if err := scanAndPrint(); err != nil {
		return err
	}
	if !watchMode {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := watch.New(projectRoot, func() {
		if err := scanAndPrint(); err != nil {
			logger.Error("rescan failed", "error", err.Error())
		}
	}, nil)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	logger.Info("watching for changes", "root", projectRoot)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	return nil
}
