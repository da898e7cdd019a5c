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
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CANCELLATION TOKENS
// =============================================================================

// tokenSource issues at most one live cancellation token at a time. Next
// cancels the previous token before handing out a fresh one, so the newest
// request always wins; the swap is atomic relative to concurrent callers.
type tokenSource struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

// Next invalidates the current token and returns a new context derived
// from parent.
func (s *tokenSource) Next(parent context.Context) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	return ctx
}

// Stop invalidates the current token without issuing a new one.
func (s *tokenSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// =============================================================================
// CHANGE TRIGGER
// =============================================================================

// CycleRunner is the unit of work the trigger restarts on file changes.
type CycleRunner interface {
	Run(ctx context.Context) error
}

// Trigger observes a watch glob and restarts the fix cycle on each
// modification, cancelling whatever cycle was in flight. Events arriving
// mid-cycle cancel rather than queue: latest wins.
//
// State (watcher handle, current token) lives in explicit fields so
// independent triggers can run in isolated tests.
type Trigger struct {
	pattern string
	cycle   CycleRunner
	tokens  tokenSource
	logger  *slog.Logger

	// running tracks in-flight cycle goroutines for clean teardown.
	running sync.WaitGroup
}

// NewTrigger creates a trigger for pattern around cycle. A nil logger uses
// slog.Default().
func NewTrigger(pattern string, cycle CycleRunner, logger *slog.Logger) *Trigger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{
		pattern: pattern,
		cycle:   cycle,
		logger:  logger.With(slog.String("component", "trigger")),
	}
}

// Start resolves the glob, runs the initial cycle, and then blocks
// restarting the cycle on every matching change until ctx is cancelled.
// The watch subscription is released on return.
//
// A glob that matches nothing is a configuration error: the pattern most
// likely did not survive shell expansion.
func (t *Trigger) Start(ctx context.Context) error {
	matches, err := filepath.Glob(t.pattern)
	if err != nil {
		return fmt.Errorf("invalid watch pattern %q: %w", t.pattern, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("%w: %s", ErrNoWatchMatches, t.pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	matched := make(map[string]struct{}, len(matches))
	dirs := make(map[string]struct{})
	for _, m := range matches {
		matched[filepath.Clean(m)] = struct{}{}
		dirs[filepath.Dir(m)] = struct{}{}
	}
	// Watch directories rather than the files themselves: editors that
	// save via rename-replace would otherwise silently detach the watch.
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	t.logger.Info("watching for changes",
		slog.String("pattern", t.pattern),
		slog.Int("matches", len(matches)),
	)

	// LIFO: Stop must cancel the live token before Wait blocks on the
	// cycle goroutine it unblocks.
	defer t.running.Wait()
	defer t.tokens.Stop()

	// Initial cycle; the first change event supersedes it like any other.
	t.restart(ctx)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !t.relevant(event, matched) {
				continue
			}
			t.logger.Info("change detected, restarting cycle",
				slog.String("path", event.Name),
				slog.String("op", event.Op.String()),
			)
			t.restart(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			t.logger.Warn("watcher error", slog.String("error", err.Error()))

		case <-ctx.Done():
			t.logger.Debug("trigger stopping")
			return nil
		}
	}
}

// relevant reports whether an event should restart the cycle: a write or
// create on a path that was in the initial match set or matches the glob.
func (t *Trigger) relevant(event fsnotify.Event, matched map[string]struct{}) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	if _, ok := matched[name]; ok {
		return true
	}
	ok, err := filepath.Match(t.pattern, name)
	return err == nil && ok
}

// restart invalidates the in-flight cycle's token and launches a new cycle
// bound to a fresh one. Cancellation of the superseded cycle is silent;
// other errors are logged but never stop the watch loop.
func (t *Trigger) restart(parent context.Context) {
	tokenCtx := t.tokens.Next(parent)

	t.running.Add(1)
	go func() {
		defer t.running.Done()
		err := t.cycle.Run(tokenCtx)
		switch {
		case err == nil:
			t.logger.Debug("cycle finished, waiting for changes")
		case errors.Is(err, context.Canceled):
			t.logger.Debug("cycle superseded")
		default:
			t.logger.Error("cycle failed", slog.String("error", err.Error()))
		}
	}()
}
