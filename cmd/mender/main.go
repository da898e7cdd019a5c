// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command mender runs a test command and, when it fails, asks a
// chat-completion endpoint for a corrected version of one target file,
// shows the proposal as a character diff, and applies it on confirmation.
//
// Usage:
//
//	mender -t "go test ./..." -f pkg/broken/broken.go -a $OPENAI_API_KEY
//	mender -t "npm test" -f src/index.js -a $KEY -w "src/*.js"
//
// With --watchFiles the process keeps running, restarting the fix cycle on
// every matching change; the newest change always cancels the cycle in
// flight.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
