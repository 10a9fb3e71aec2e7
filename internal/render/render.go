// Package render draws a snapshot of the toast stack for the terminal.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/chirp/internal/core/notify"
)

// Stack renders notifications stacked vertically, oldest at the top.
// Dismissing notifications render faint so an exit can be seen before the
// record is removed.
func Stack(records []notify.Notification, width int) string {
	if len(records) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(records))
	for _, n := range records {
		if n.Status == notify.StatusRemoved {
			continue
		}
		rendered = append(rendered, Toast(n, width))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

// Toast renders a single notification.
func Toast(n notify.Notification, width int) string {
	icon, style := variantStyle(n.Variant)

	lines := []string{icon + " " + titleStyle.Render(n.Title)}
	if n.Description != "" {
		lines = append(lines, descriptionStyle.Render(n.Description))
	}
	if n.Action != nil && n.Action.Label != "" {
		lines = append(lines, actionStyle.Render("["+n.Action.Label+"]"))
	}

	if n.Status == notify.StatusDismissing {
		style = style.Faint(true)
	}
	if width > 0 {
		style = style.Width(width)
	}

	return style.Render(strings.Join(lines, "\n"))
}
