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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	projectRoot string
	noTUI       bool
	watchMode   bool
	logLevel    string

	rootCmd = &cobra.Command{
		Use:   "refsweep",
		Short: "A scanner that finds broken serialized references in content projects",
		Long: `RefSweep locates every serialized reference in a project that points
at an object, type, or callback target that no longer exists, and
presents the findings grouped by storage folder.`,
	}

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Scan the project and browse findings interactively",
		RunE:  runScanCommand, // Defined in run.go
	}

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Scan the project and print a plain text report",
		RunE:  runReportCommand, // Defined in run.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", ".", "Project root directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override config log level (debug|info|warn|error)")

	scanCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Print a plain report instead of the interactive browser")
	scanCmd.Flags().BoolVar(&watchMode, "watch", false, "Rescan on file changes (implies --no-tui)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(reportCmd)
}
