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

import "errors"

// Configuration errors. Reported before any work begins; each one names
// the flag the user must supply.
var (
	// ErrMissingTestCommand indicates --testToRun was not provided.
	ErrMissingTestCommand = errors.New("missing required flag: --testToRun (-t)")

	// ErrMissingTargetFile indicates --fileToFix was not provided.
	ErrMissingTargetFile = errors.New("missing required flag: --fileToFix (-f)")

	// ErrMissingAPIKey indicates --apiKey was not provided.
	ErrMissingAPIKey = errors.New("missing required flag: --apiKey (-a)")

	// ErrNoWatchMatches indicates the watch glob matched nothing. The most
	// common cause is the shell expanding the pattern before the process
	// saw it, so the message carries that hint.
	ErrNoWatchMatches = errors.New("watch pattern matched no files (quote the pattern so the shell does not expand it)")
)

// Environment errors. Fatal; never treated as fix opportunities.
var (
	// ErrTargetNotFound indicates the file to fix does not exist at the
	// resolved path.
	ErrTargetNotFound = errors.New("target file does not exist")

	// ErrCommandNotRunnable indicates the test command itself could not be
	// located or executed, as opposed to running and failing.
	ErrCommandNotRunnable = errors.New("test command could not be run")
)
