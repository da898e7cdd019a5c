// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package mend implements the fix-apply-retry control loop at the heart of
// the mender CLI.
//
// # Overview
//
// A Cycle runs the configured test command. On failure it sends the failure
// output and the target file to a chat-completion endpoint, shows the
// proposed replacement as a character-level diff, and applies it only on
// explicit user confirmation. The user may then re-run the cycle
// immediately.
//
// A Trigger wraps the Cycle for watch mode: every modification to a file
// matching the watch glob cancels any in-flight cycle and starts a fresh
// one. The policy is latest-wins; superseded cycles are abandoned silently
// and their pending work (network call, prompts) unwinds via context
// cancellation. At most one cycle is ever active.
//
// # Error taxonomy
//
//   - Configuration errors (missing flag, unmatched watch glob) are fatal
//     and reported before any work begins.
//   - Environment errors (target file missing, test command not runnable)
//     are fatal and never treated as fix opportunities.
//   - A failing test is the expected, handled case and never an error.
//   - Transport/response errors are fatal for the current cycle; the only
//     retry mechanism is the manual "run again" prompt.
//   - Cancellation (supersession by a newer change event) is silent.
package mend
