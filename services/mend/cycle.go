// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package mend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/AleutianAI/mender/pkg/ux"
	"github.com/AleutianAI/mender/services/mend/diff"
)

// fixInstruction is the fixed system message sent with every completion
// request. The endpoint must return only the corrected file contents so the
// response can be written back verbatim.
const fixInstruction = "You are a developer. You will be given the contents of a file " +
	"and the output of a failing test. Return only the corrected contents of the file. " +
	"Do not include explanations, commentary, or code block formatting."

// previewLines is how much of the target file is shown for orientation.
const previewLines = 10

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// Completer requests a fix proposal from a completion endpoint.
type Completer interface {
	// Complete returns the assistant's message content for one
	// system+user message pair. It must honor ctx cancellation by
	// aborting the in-flight call.
	Complete(ctx context.Context, system, user string) (string, error)
}

// Prompter asks the user synchronous yes/no questions.
type Prompter interface {
	// Confirm blocks until the user answers or ctx is cancelled, in
	// which case it returns the context error and the eventual stale
	// answer is discarded.
	Confirm(ctx context.Context, title string) (bool, error)
}

// =============================================================================
// FIX CYCLE
// =============================================================================

// Cycle drives one attempt at diagnosing and optionally repairing the
// target file, with the possibility of looping at the user's request.
//
// All collaborators are explicit fields so multiple cycles can run in
// isolated tests; there is no package-level state.
//
// Thread Safety: a single Cycle must not Run concurrently with itself. The
// Trigger guarantees this by cancelling the previous run before starting
// the next.
type Cycle struct {
	cfg       RunConfig
	runner    Runner
	completer Completer
	prompter  Prompter
	out       io.Writer
	logger    *slog.Logger
}

// NewCycle assembles a Cycle from its collaborators. A nil out writer uses
// os.Stdout; a nil logger uses slog.Default().
func NewCycle(cfg RunConfig, runner Runner, completer Completer, prompter Prompter, out io.Writer, logger *slog.Logger) *Cycle {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cycle{
		cfg:       cfg,
		runner:    runner,
		completer: completer,
		prompter:  prompter,
		out:       out,
		logger:    logger,
	}
}

// Run executes fix cycles until the tests pass, the user declines a
// re-run, an error occurs, or ctx is cancelled. "Run again" is an explicit
// loop rather than recursion so manual retries never grow the stack.
//
// Cancellation of ctx (supersession in watch mode) surfaces as an error
// satisfying errors.Is(err, context.Canceled); callers treat it as a
// silent abandonment, not a failure.
func (c *Cycle) Run(ctx context.Context) error {
	for {
		again, err := c.runOnce(ctx)
		if err != nil {
			return err
		}
		if !again {
			return nil
		}
		c.logger.Info("re-running cycle at user request")
	}
}

// runOnce performs one full pass: validate, run tests, request a fix,
// review, optionally apply. It reports whether the user asked to go again.
func (c *Cycle) runOnce(ctx context.Context) (bool, error) {
	if err := c.cfg.Validate(); err != nil {
		return false, err
	}

	logger := c.logger.With(slog.String("cycle_id", uuid.New().String()))

	// Resolve the target relative to the working directory and fail
	// distinctly when it is absent, before any subprocess runs.
	path, err := filepath.Abs(c.cfg.TargetFile)
	if err != nil {
		return false, fmt.Errorf("resolve target path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("%w: %s", ErrTargetNotFound, c.cfg.TargetFile)
		}
		return false, fmt.Errorf("stat target file: %w", err)
	}

	original, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read target file: %w", err)
	}

	fmt.Fprintln(c.out, ux.RenderFilePreview(c.cfg.TargetFile, string(original), previewLines))

	logger.Info("running test command", slog.String("command", c.cfg.TestCommand))
	result, err := c.runner.Run(ctx, c.cfg.TestCommand)
	if err != nil {
		return false, err
	}

	if result.Passed() {
		logger.Info("tests passed", slog.Duration("duration", result.Duration))
		fmt.Fprintln(c.out, ux.Successf("tests passed, nothing to fix"))
		return false, nil
	}

	failure := result.Stderr
	if IsCommandNotFound(failure) {
		return false, fmt.Errorf("%w: %s", ErrCommandNotRunnable, strings.TrimSpace(failure))
	}

	logger.Info("tests failed, requesting fix proposal",
		slog.Int("exit_code", result.ExitCode),
		slog.Bool("output_truncated", result.Truncated),
	)
	fmt.Fprintln(c.out, ux.Errorf("tests failed (exit %d)", result.ExitCode))

	proposal, err := c.completer.Complete(ctx, fixInstruction, buildUserMessage(failure, string(original)))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("cycle superseded while awaiting completion")
		}
		return false, err
	}

	segments := diff.Compute(string(original), proposal)
	fmt.Fprintln(c.out, diff.Render(segments))

	apply, err := c.prompter.Confirm(ctx, "Apply the proposed fix?")
	if err != nil {
		return false, err
	}
	if apply {
		// A proposal from a superseded cycle must never touch the file.
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if err := os.WriteFile(path, []byte(proposal), info.Mode().Perm()); err != nil {
			return false, fmt.Errorf("write target file: %w", err)
		}
		logger.Info("fix applied", slog.String("file", c.cfg.TargetFile), slog.Int("bytes", len(proposal)))
		fmt.Fprintln(c.out, ux.Successf("applied fix to %s", c.cfg.TargetFile))
	} else {
		logger.Info("fix declined")
	}

	return c.prompter.Confirm(ctx, "Run the tests again?")
}

// buildUserMessage formats the completion request body: the failure output
// followed by the full file contents.
func buildUserMessage(failure, source string) string {
	return fmt.Sprintf("Failing Test:\n%s\n\nFile:\n%s", failure, source)
}
