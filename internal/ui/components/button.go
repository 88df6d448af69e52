package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quiznote/internal/ui/theme"
)

// Button is a labelled action with a shortcut key.
type Button struct {
	Key      string
	Label    string
	Disabled bool
}

// View renders the button.
func (b Button) View() string {
	label := "[" + b.Key + "] " + b.Label
	if b.Disabled {
		return theme.ButtonInactive.Render(label)
	}
	return theme.ButtonActive.Render(label)
}

// ButtonRow renders buttons side by side, centered in width.
func ButtonRow(width int, buttons ...Button) string {
	views := make([]string, 0, len(buttons)*2)
	for i, b := range buttons {
		if i > 0 {
			views = append(views, "  ")
		}
		views = append(views, b.View())
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.JoinHorizontal(lipgloss.Center, views...))
}
