package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quiznote/internal/quiz"
	"github.com/abhisek/quiznote/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector component. It only moves the
// cursor; the caller grades and then locks it with the chosen id.
type MultiChoice struct {
	Choices  []quiz.Choice
	Correct  string
	Selected int
	Locked   bool
	Chosen   string
}

// NewMultiChoice creates a selector over choices. correct is the cid of the
// right choice, or "" when the bank has none.
func NewMultiChoice(choices []quiz.Choice, correct string) MultiChoice {
	return MultiChoice{
		Choices: choices,
		Correct: correct,
	}
}

// Update handles cursor movement. Digit keys jump to the nth choice.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Locked {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Choices)-1 {
			m.Selected++
		}
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if i := int(key[0] - '1'); i < len(m.Choices) {
				m.Selected = i
			}
		}
	}

	return m, nil
}

// SelectedCID returns the cid under the cursor.
func (m MultiChoice) SelectedCID() string {
	if m.Selected < 0 || m.Selected >= len(m.Choices) {
		return ""
	}
	return m.Choices[m.Selected].CID
}

// Lock freezes the selector and marks chosen as the submitted answer.
func (m *MultiChoice) Lock(chosen string) {
	m.Locked = true
	m.Chosen = chosen
	for i, c := range m.Choices {
		if c.CID == chosen {
			m.Selected = i
		}
	}
}

// View renders the choices. Once locked the correct choice is marked ✓ and
// a wrong pick ✗.
func (m MultiChoice) View() string {
	var b strings.Builder
	for i, c := range m.Choices {
		prefix := "  "
		if i == m.Selected && !m.Locked {
			prefix = "▸ "
		}

		mark := " "
		if m.Locked {
			switch {
			case c.CID == m.Correct:
				mark = "✓"
			case c.CID == m.Chosen:
				mark = "✗"
			}
		}

		line := fmt.Sprintf("%s%s %d) %s", prefix, mark, i+1, c.Text)

		switch {
		case m.Locked && c.CID == m.Correct:
			b.WriteString(theme.Correct.Render(line))
		case m.Locked && c.CID == m.Chosen:
			b.WriteString(theme.Incorrect.Render(line))
		case m.Locked:
			b.WriteString(theme.Hint.Render(line))
		case i == m.Selected:
			b.WriteString(theme.Selected.Render(line))
		default:
			b.WriteString(theme.Unselected.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// IsCorrect returns true if the locked choice is the correct one.
func (m MultiChoice) IsCorrect() bool {
	return m.Locked && m.Correct != "" && m.Chosen == m.Correct
}
