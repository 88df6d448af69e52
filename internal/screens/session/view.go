package session

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quiznote/internal/quiz"
	"github.com/abhisek/quiznote/internal/ui/components"
	"github.com/abhisek/quiznote/internal/ui/layout"
	"github.com/abhisek/quiznote/internal/ui/theme"
)

// maxDots is how many question markers fit on the navigation line.
const maxDots = 30

func (s *SessionScreen) View(width, height int) string {
	if s.confirmQuit {
		return renderQuitConfirm(width)
	}

	q, ok := s.machine.Current()
	if !ok {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\n  No question to show.")
	}

	inner := width - 4
	var b strings.Builder

	b.WriteString(s.renderInfoLine(q, inner))
	b.WriteString("\n")
	b.WriteString("  " + s.renderDots())
	b.WriteString("\n")
	b.WriteString("  " + components.NewProgressBar("", s.answeredRatio(), false, inner).View())
	b.WriteString("\n")
	b.WriteString("  " + layout.Divider(inner))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(inner).
		PaddingLeft(2).
		Foreground(theme.Text).
		Bold(true).
		Render(q.Prompt))
	b.WriteString("\n\n")

	b.WriteString(s.renderAnswerArea(q))

	if s.feedback != nil {
		b.WriteString("\n")
		b.WriteString(s.renderFeedback(inner, layout.IsCompactHeight(height)))
	}

	if s.notice != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render("  " + s.notice))
	}

	return b.String()
}

func (s *SessionScreen) renderInfoLine(q quiz.Question, width int) string {
	left := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("  Range: %s", q.Range))

	right := fmt.Sprintf("Q %d/%d  Score %d", s.machine.Index()+1, s.machine.Len(), s.machine.Score())
	if s.machine.CurrentImportant() {
		right = theme.Badge.Render("★ Important") + "  " + right
	}
	if s.machine.WrongNoteMode() {
		right = theme.Hint.Render("wrong note") + "  " + right
	}
	right = lipgloss.NewStyle().Foreground(theme.TextDim).Render(right)

	pad := width - lipgloss.Width(left) - lipgloss.Width(right)
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + right
}

// renderDots draws one marker per question: ○ open, ● answered in the
// outcome color, with the current question bracketed.
func (s *SessionScreen) renderDots() string {
	n := s.machine.Len()
	cur := s.machine.Index()
	start := 0
	if n > maxDots {
		start = max(0, min(cur-maxDots/2, n-maxDots))
	}
	end := min(n, start+maxDots)

	var parts []string
	if start > 0 {
		parts = append(parts, theme.Hint.Render("…"))
	}
	for i := start; i < end; i++ {
		dot := "○"
		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		if rec := s.machine.Record(i); rec != nil {
			dot = "●"
			switch rec.Outcome {
			case quiz.OutcomeCorrect:
				style = style.Foreground(theme.Success)
			case quiz.OutcomeWrong:
				style = style.Foreground(theme.Error)
			}
		}
		if i == cur {
			parts = append(parts, theme.Selected.Render("[")+style.Render(dot)+theme.Selected.Render("]"))
			continue
		}
		parts = append(parts, style.Render(dot))
	}
	if end < n {
		parts = append(parts, theme.Hint.Render("…"))
	}
	return strings.Join(parts, " ")
}

func (s *SessionScreen) answeredRatio() float64 {
	n := s.machine.Len()
	if n == 0 {
		return 0
	}
	answered := 0
	for i := 0; i < n; i++ {
		if s.machine.Record(i) != nil {
			answered++
		}
	}
	return float64(answered) / float64(n)
}

func (s *SessionScreen) renderAnswerArea(q quiz.Question) string {
	switch q.Type {
	case quiz.TypeMCQ:
		return s.mc.View()
	case quiz.TypeShort:
		return "  Answer: " + s.input.View() + "\n"
	default:
		if s.feedback != nil {
			return ""
		}
		return theme.Hint.Render("  Essay question. Think it through, then press Enter to see the explanation.") + "\n"
	}
}

func (s *SessionScreen) renderFeedback(width int, compact bool) string {
	fb := s.feedback
	var b strings.Builder

	switch fb.Record.Outcome {
	case quiz.OutcomeCorrect:
		b.WriteString(theme.Correct.Render("  Correct!"))
	case quiz.OutcomeWrong:
		b.WriteString(theme.Incorrect.Render("  Not quite"))
		b.WriteString("\n")
		answer := fb.CorrectDisplay
		if answer == "" {
			answer = "-"
		}
		b.WriteString(theme.Body.Render("  Correct answer: " + answer))
	default:
		b.WriteString(theme.Selected.Render("  Explanation"))
	}
	b.WriteString("\n")

	if fb.Resolved {
		b.WriteString(theme.Hint.Render("  Removed from your wrong-answer note."))
		b.WriteString("\n")
	}

	if fb.Explanation != "" && (!compact || fb.Record.Outcome == quiz.OutcomeUngraded) {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Width(min(width, 76)).
			PaddingLeft(2).
			Foreground(theme.Text).
			Render(fb.Explanation))
		b.WriteString("\n")
	}

	return b.String()
}

// renderQuitConfirm renders the quit confirmation dialog.
func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render("Leave this session?"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("Misses so far stay in your wrong-answer note."))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render("[Y] Yes, leave"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Render("[N] No, keep going"))

	return b.String()
}
