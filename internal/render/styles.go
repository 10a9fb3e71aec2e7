package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/chirp/internal/core/notify"
)

// Icons per variant.
var (
	IconDefault     = "•"
	IconSuccess     = "✓"
	IconDestructive = "✗"
	IconWarning     = "!"
	IconInfo        = "i"
)

var (
	colorDefault     = lipgloss.Color("#a6adc8")
	colorSuccess     = lipgloss.Color("#a6e3a1")
	colorDestructive = lipgloss.Color("#f38ba8")
	colorWarning     = lipgloss.Color("#f9e2af")
	colorInfo        = lipgloss.Color("#89b4fa")
	colorMuted       = lipgloss.Color("#6c7086")
)

var (
	toastBase = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	titleStyle       = lipgloss.NewStyle().Bold(true)
	descriptionStyle = lipgloss.NewStyle().Foreground(colorMuted)
	actionStyle      = lipgloss.NewStyle().Underline(true)
)

func variantStyle(v notify.Variant) (string, lipgloss.Style) {
	switch v {
	case notify.VariantSuccess:
		return IconSuccess, toastBase.BorderForeground(colorSuccess)
	case notify.VariantDestructive:
		return IconDestructive, toastBase.BorderForeground(colorDestructive)
	case notify.VariantWarning:
		return IconWarning, toastBase.BorderForeground(colorWarning)
	case notify.VariantInfo:
		return IconInfo, toastBase.BorderForeground(colorInfo)
	default:
		return IconDefault, toastBase.BorderForeground(colorDefault)
	}
}
