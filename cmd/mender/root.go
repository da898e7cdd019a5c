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
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/mender/pkg/logging"
	"github.com/AleutianAI/mender/pkg/ux"
	"github.com/AleutianAI/mender/services/llm"
	"github.com/AleutianAI/mender/services/mend"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	flagTestToRun  string // Shell command that runs the test suite once
	flagFileToFix  string // Path of the single file eligible for modification
	flagAPIKey     string // Bearer credential for the completion endpoint
	flagWatchFiles string // Optional glob enabling watch mode
	flagModel      string // Completion model
	flagDebug      bool   // Verbose diagnostic logging
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "mender",
	Short: "Fix a failing test by asking an LLM for a corrected file",
	Long: `mender runs your test command and, when it fails, sends the failure
output together with the target file to a chat-completion endpoint. The
proposed replacement is shown as a character-level diff and written back
only when you confirm it.

Examples:
  mender -t "go test ./..." -f pkg/broken/broken.go -a $OPENAI_API_KEY
  mender -t "npm test" -f src/index.js -a $KEY -w "src/*.js"

With --watchFiles the process keeps watching: every change to a matching
file cancels any in-flight cycle and starts a fresh one (latest wins).
Quote the glob so your shell does not expand it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRootCommand,
}

func init() {
	rootCmd.Flags().StringVarP(&flagTestToRun, "testToRun", "t", "",
		"Shell command that runs the test suite once")
	rootCmd.Flags().StringVarP(&flagFileToFix, "fileToFix", "f", "",
		"Path (relative to cwd) of the single file eligible for modification")
	rootCmd.Flags().StringVarP(&flagAPIKey, "apiKey", "a", "",
		"Bearer credential for the completion endpoint")
	rootCmd.Flags().StringVarP(&flagWatchFiles, "watchFiles", "w", "",
		"Glob pattern; when present, restarts the cycle on matching changes")
	rootCmd.Flags().StringVarP(&flagModel, "model", "m", llm.DefaultModel,
		"Completion model")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false,
		"Enable verbose diagnostic logging")
}

// Execute runs the root command. Errors are reported here so main only
// maps them to the exit code.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		os.Stderr.WriteString(ux.Errorf("%v", err) + "\n")
	}
	return err
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runRootCommand wires the collaborators and runs either one fix cycle or
// the watch loop. Interactive prompts go through stdin/stdout; diagnostics
// go to stderr via the structured logger.
func runRootCommand(cmd *cobra.Command, args []string) error {
	level := logging.LevelInfo
	if flagDebug {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{Level: level, Service: "mender"})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	cfg := mend.RunConfig{
		TestCommand:  flagTestToRun,
		TargetFile:   flagFileToFix,
		APIKey:       flagAPIKey,
		WatchPattern: flagWatchFiles,
		Model:        flagModel,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	completer, err := llm.NewOpenAIClient(llm.ClientConfig{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		Logger: logger.Slog(),
	})
	if err != nil {
		return err
	}

	cycle := mend.NewCycle(cfg,
		mend.NewShellRunner(logger.Slog()),
		completer,
		ux.NewConfirmPrompter(os.Stdin, os.Stdout),
		os.Stdout,
		logger.Slog(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.WatchPattern != "" {
		return mend.NewTrigger(cfg.WatchPattern, cycle, logger.Slog()).Start(ctx)
	}

	err = cycle.Run(ctx)
	if errors.Is(err, context.Canceled) {
		// Interrupted by signal; not a failure.
		return nil
	}
	return err
}
