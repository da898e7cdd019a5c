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
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingCycle captures every context it is started with and blocks until
// that context is cancelled, so supersession is observable.
type recordingCycle struct {
	mu       sync.Mutex
	contexts []context.Context
	started  chan struct{}
}

func newRecordingCycle() *recordingCycle {
	return &recordingCycle{started: make(chan struct{}, 16)}
}

func (r *recordingCycle) Run(ctx context.Context) error {
	r.mu.Lock()
	r.contexts = append(r.contexts, ctx)
	r.mu.Unlock()
	r.started <- struct{}{}
	<-ctx.Done()
	return ctx.Err()
}

func (r *recordingCycle) snapshot() []context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]context.Context(nil), r.contexts...)
}

func waitStarted(t *testing.T, c *recordingCycle) {
	t.Helper()
	select {
	case <-c.started:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a cycle to start")
	}
}

func TestTokenSource_NextCancelsPrevious(t *testing.T) {
	var tokens tokenSource

	first := tokens.Next(context.Background())
	require.NoError(t, first.Err())

	second := tokens.Next(context.Background())
	assert.ErrorIs(t, first.Err(), context.Canceled, "issuing a new token must cancel the old one")
	require.NoError(t, second.Err())

	tokens.Stop()
	assert.ErrorIs(t, second.Err(), context.Canceled)
}

func TestTokenSource_StopIsIdempotent(t *testing.T) {
	var tokens tokenSource
	tokens.Stop()

	ctx := tokens.Next(context.Background())
	tokens.Stop()
	tokens.Stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestTrigger_Start_NoMatches(t *testing.T) {
	pattern := filepath.Join(t.TempDir(), "*.none")
	trigger := NewTrigger(pattern, newRecordingCycle(), nil)

	err := trigger.Start(context.Background())
	assert.ErrorIs(t, err, ErrNoWatchMatches)
}

func TestTrigger_Start_InvalidPattern(t *testing.T) {
	trigger := NewTrigger("[", newRecordingCycle(), nil)

	err := trigger.Start(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoWatchMatches)
}

func TestTrigger_Start_LatestWins(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	cycle := newRecordingCycle()
	trigger := NewTrigger(filepath.Join(dir, "*.go"), cycle, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- trigger.Start(ctx) }()

	// Initial cycle starts without any event.
	waitStarted(t, cycle)

	// A write supersedes it.
	require.NoError(t, os.WriteFile(target, []byte("package main // edited\n"), 0o644))
	waitStarted(t, cycle)

	contexts := cycle.snapshot()
	require.GreaterOrEqual(t, len(contexts), 2)
	assert.ErrorIs(t, contexts[0].Err(), context.Canceled,
		"the in-flight cycle must be cancelled by the newer change")
	require.NoError(t, contexts[len(contexts)-1].Err(),
		"the newest cycle must stay live")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err, "parent cancellation is a clean stop")
	case <-time.After(5 * time.Second):
		t.Fatal("trigger did not stop on context cancellation")
	}
}

func TestTrigger_Start_IgnoresUnmatchedFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	cycle := newRecordingCycle()
	trigger := NewTrigger(filepath.Join(dir, "*.go"), cycle, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- trigger.Start(ctx) }()

	waitStarted(t, cycle)

	// A sibling file outside the glob must not restart anything.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	select {
	case <-cycle.started:
		t.Fatal("a non-matching file restarted the cycle")
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("trigger did not stop on context cancellation")
	}
}

func TestTrigger_Relevant(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\n"), 0o644))

	trigger := NewTrigger(filepath.Join(dir, "*.go"), newRecordingCycle(), nil)
	matched := map[string]struct{}{filepath.Clean(target): {}}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write to matched file", fsnotify.Event{Name: target, Op: fsnotify.Write}, true},
		{"create of new glob match", fsnotify.Event{Name: filepath.Join(dir, "other.go"), Op: fsnotify.Create}, true},
		{"write outside glob", fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Write}, false},
		{"chmod on matched file", fsnotify.Event{Name: target, Op: fsnotify.Chmod}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trigger.relevant(tt.event, matched))
		})
	}
}
