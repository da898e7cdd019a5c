// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diff computes and renders character-level diffs between the
// current contents of the target file and a proposed replacement.
package diff

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// =============================================================================
// SEGMENTS
// =============================================================================

// Op classifies a diff segment.
type Op int

const (
	// OpCommon marks text present in both the original and the proposal.
	OpCommon Op = iota

	// OpAdded marks text present only in the proposal.
	OpAdded

	// OpRemoved marks text present only in the original.
	OpRemoved
)

// String returns "common", "added", or "removed".
func (o Op) String() string {
	switch o {
	case OpAdded:
		return "added"
	case OpRemoved:
		return "removed"
	default:
		return "common"
	}
}

// Segment is one contiguous run of classified text.
type Segment struct {
	Op   Op
	Text string
}

// Compute returns the character-level segments between original and
// proposed. Semantic cleanup is applied so the result reads naturally;
// the reconstruction invariants below hold regardless:
//
//   - concatenating common+removed segments in order yields original
//   - concatenating common+added segments in order yields proposed
func Compute(original, proposed string) []Segment {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, proposed, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	segments := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		seg := Segment{Text: d.Text}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			seg.Op = OpAdded
		case diffmatchpatch.DiffDelete:
			seg.Op = OpRemoved
		default:
			seg.Op = OpCommon
		}
		segments = append(segments, seg)
	}
	return segments
}

// Original reconstructs the original text from segments.
func Original(segments []Segment) string {
	var n int
	for _, s := range segments {
		if s.Op != OpAdded {
			n += len(s.Text)
		}
	}
	b := make([]byte, 0, n)
	for _, s := range segments {
		if s.Op != OpAdded {
			b = append(b, s.Text...)
		}
	}
	return string(b)
}

// Proposed reconstructs the proposed text from segments.
func Proposed(segments []Segment) string {
	var n int
	for _, s := range segments {
		if s.Op != OpRemoved {
			n += len(s.Text)
		}
	}
	b := make([]byte, 0, n)
	for _, s := range segments {
		if s.Op != OpRemoved {
			b = append(b, s.Text...)
		}
	}
	return string(b)
}

// Stats returns the number of added and removed characters.
func Stats(segments []Segment) (added, removed int) {
	for _, s := range segments {
		switch s.Op {
		case OpAdded:
			added += len(s.Text)
		case OpRemoved:
			removed += len(s.Text)
		}
	}
	return added, removed
}
