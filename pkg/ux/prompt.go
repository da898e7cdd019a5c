// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// This file contains the interactive confirmation prompter.
//
// Two rendering modes share one contract:
//
//   - TTY: a huh confirm form, cancellable via context.
//   - non-TTY (pipes, tests): a plain "[y/N]" line prompt backed by a single
//     long-lived reader goroutine, also cancellable via context.
//
// Cancellation semantics: when the context is cancelled while a prompt is
// pending, Confirm returns the context error immediately and records that
// one answer is owed to an abandoned prompt. The next prompt skips exactly
// that many lines whenever they arrive, so a stale answer is never applied
// to a newer question.
package ux

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// =============================================================================
// Confirm Prompter
// =============================================================================

// ConfirmPrompter asks the user synchronous yes/no questions.
//
// Thread Safety: Confirm must not be called concurrently on the same
// prompter; cycles are serialized by design so this never happens in
// practice.
type ConfirmPrompter struct {
	in          io.Reader
	out         io.Writer
	interactive bool

	lines chan lineResult

	// stale counts answers owed to prompts abandoned by cancellation;
	// that many incoming lines are dropped before any answer is accepted.
	// Only touched by Confirm, which is never called concurrently.
	stale int
}

type lineResult struct {
	text string
	err  error
}

// NewConfirmPrompter creates a prompter reading answers from in and writing
// questions to out. When in is a terminal, prompts render as huh confirm
// forms; otherwise a plain line prompt is used.
func NewConfirmPrompter(in io.Reader, out io.Writer) *ConfirmPrompter {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	p := &ConfirmPrompter{
		in:          in,
		out:         out,
		interactive: interactive,
		lines:       make(chan lineResult),
	}
	// The reader lives for the prompter's lifetime so a line typed for an
	// abandoned prompt is always captured, whether it arrives before or
	// after the next prompt renders. In TTY mode huh owns the input, so
	// no line reader runs.
	if !interactive {
		go p.readLines()
	}
	return p
}

// Confirm asks a yes/no question and blocks until the user answers or ctx
// is cancelled. Returns the context error on cancellation; a user abort
// (Esc in the form, EOF on the line reader) counts as a decline, not an
// error.
func (p *ConfirmPrompter) Confirm(ctx context.Context, title string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if p.interactive {
		return p.confirmForm(ctx, title)
	}
	return p.confirmLine(ctx, title)
}

// confirmForm renders a huh confirm field bound to the cycle context.
func (p *ConfirmPrompter) confirmForm(ctx context.Context, title string) (bool, error) {
	var accepted bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&accepted),
	)).WithTheme(menderTheme())

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return accepted, nil
}

// confirmLine prints "title [y/N]: " and waits for one line of input,
// skipping any lines owed to previously abandoned prompts.
func (p *ConfirmPrompter) confirmLine(ctx context.Context, title string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", title)

	for {
		select {
		case <-ctx.Done():
			// The eventual answer to this prompt is stale; skip it when
			// it arrives.
			p.stale++
			return false, ctx.Err()
		case line := <-p.lines:
			if p.stale > 0 && line.text != "" {
				p.stale--
				continue
			}
			if err := ctx.Err(); err != nil {
				// Cancelled and answered in the same instant: the line
				// was consumed, so nothing further is owed.
				return false, err
			}
			if line.err != nil && line.text == "" {
				// EOF or closed input: treat as decline.
				return false, nil
			}
			answer := strings.ToLower(strings.TrimSpace(line.text))
			return answer == "y" || answer == "yes", nil
		}
	}
}

// readLines feeds input lines to the prompt loop for the life of the
// prompter. A single goroutine owns the reader so abandoned prompts never
// race a newer prompt for the same stream.
func (p *ConfirmPrompter) readLines() {
	reader := bufio.NewReader(p.in)
	for {
		text, err := reader.ReadString('\n')
		p.lines <- lineResult{text: text, err: err}
		if err != nil {
			return
		}
	}
}

// =============================================================================
// Theme
// =============================================================================

// menderTheme returns the Aleutian-palette huh theme used by all prompts.
func menderTheme() *huh.Theme {
	theme := huh.ThemeBase()
	theme.Focused.Title = theme.Focused.Title.Foreground(ColorTealBright).Bold(true)
	theme.Blurred.Title = theme.Blurred.Title.Foreground(ColorTealPrimary)
	theme.Focused.FocusedButton = theme.Focused.FocusedButton.Background(ColorTealDeep)
	return theme
}
