// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diff

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Styles
// =============================================================================

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Strikethrough(true)
	commonStyle  = lipgloss.NewStyle()
	statsStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// =============================================================================
// Rendering
// =============================================================================

// Render produces the colored inline diff: insertions green, deletions red
// with strikethrough, unchanged spans unstyled. A stats line follows.
func Render(segments []Segment) string {
	var b strings.Builder

	for _, s := range segments {
		switch s.Op {
		case OpAdded:
			b.WriteString(addedStyle.Render(s.Text))
		case OpRemoved:
			b.WriteString(removedStyle.Render(s.Text))
		default:
			b.WriteString(commonStyle.Render(s.Text))
		}
	}

	added, removed := Stats(segments)
	b.WriteString("\n")
	b.WriteString(statsStyle.Render(fmt.Sprintf("+%d -%d characters", added, removed)))

	return b.String()
}
