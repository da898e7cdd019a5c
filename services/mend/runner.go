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
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// defaultMaxOutput caps captured test output so a runaway suite cannot
// exhaust memory or flood the completion prompt.
const defaultMaxOutput = 256 * 1024

// notFoundMarkers identify "my invocation is broken" failures in shell
// stderr: sh/bash ("command not found"), dash ("x: not found"), and
// cmd.exe ("is not recognized").
var notFoundMarkers = []string{
	"command not found",
	": not found",
	"is not recognized",
}

// =============================================================================
// RUNNER
// =============================================================================

// RunResult captures one test command execution.
type RunResult struct {
	// ExitCode is the subprocess exit status.
	ExitCode int

	// Stdout is the captured standard output, capped at the output limit.
	Stdout string

	// Stderr is the captured standard error, capped at the output limit.
	// On failure this is the "failure text" sent to the completion
	// endpoint.
	Stderr string

	// Truncated reports whether either stream hit the output limit.
	Truncated bool

	// Duration is the wall-clock execution time.
	Duration time.Duration
}

// Passed reports whether the command exited zero.
func (r *RunResult) Passed() bool { return r.ExitCode == 0 }

// Runner executes the test command once per call.
type Runner interface {
	// Run executes command and returns its captured result. A non-zero
	// exit status is NOT an error; errors are reserved for the command
	// failing to start and for context cancellation.
	Run(ctx context.Context, command string) (*RunResult, error)
}

// ShellRunner runs commands through "sh -c".
//
// Thread Safety: Safe for concurrent use. Each execution creates its own
// process.
type ShellRunner struct {
	workDir   string
	maxOutput int
	logger    *slog.Logger
}

// NewShellRunner creates a runner. A nil logger uses slog.Default().
func NewShellRunner(logger *slog.Logger) *ShellRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ShellRunner{
		maxOutput: defaultMaxOutput,
		logger:    logger,
	}
}

// SetWorkingDir sets the directory commands execute in. Empty means the
// process working directory.
func (r *ShellRunner) SetWorkingDir(dir string) {
	r.workDir = dir
}

// Run executes command via the shell with capped output capture.
func (r *ShellRunner) Run(ctx context.Context, command string) (*RunResult, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if r.workDir != "" {
		cmd.Dir = r.workDir
	}

	var stdout, stderr bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdout, limit: r.maxOutput}
	stderrLimited := &limitedWriter{w: &stderr, limit: r.maxOutput}
	cmd.Stdout = stdoutLimited
	cmd.Stderr = stderrLimited

	r.logger.Debug("executing test command",
		slog.String("command", command),
	)

	start := time.Now()
	err := cmd.Run()

	result := &RunResult{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdoutLimited.truncated || stderrLimited.truncated,
		Duration:  time.Since(start),
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			// The shell itself could not start.
			return nil, fmt.Errorf("%w: %v", ErrCommandNotRunnable, err)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	r.logger.Debug("test command finished",
		slog.Int("exit_code", result.ExitCode),
		slog.Duration("duration", result.Duration),
		slog.Int("stderr_bytes", len(result.Stderr)),
	)

	return result, nil
}

// IsCommandNotFound reports whether failure output indicates the test
// command itself could not be located or run, which distinguishes "my
// invocation is broken" from "my code is broken".
func IsCommandNotFound(output string) bool {
	lower := strings.ToLower(output)
	for _, marker := range notFoundMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// =============================================================================
// LIMITED WRITER
// =============================================================================

// limitedWriter wraps a writer with a size limit, silently discarding the
// overflow while reporting the original length to callers.
type limitedWriter struct {
	w         io.Writer
	limit     int
	written   int
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (n int, err error) {
	// Always report the caller's full length; a short count here would
	// surface as io.ErrShortWrite inside os/exec's output copy.
	total := len(p)

	if lw.written >= lw.limit {
		lw.truncated = true
		return total, nil
	}

	remaining := lw.limit - lw.written
	if len(p) > remaining {
		p = p[:remaining]
		lw.truncated = true
	}

	n, err = lw.w.Write(p)
	lw.written += n
	return total, err
}
