package summary

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quiznote/internal/router"
	"github.com/abhisek/quiznote/internal/screen"
	"github.com/abhisek/quiznote/internal/session"
	"github.com/abhisek/quiznote/internal/ui/components"
	"github.com/abhisek/quiznote/internal/ui/layout"
	"github.com/abhisek/quiznote/internal/ui/theme"
)

// SummaryScreen displays the results of a completed session.
type SummaryScreen struct {
	svc    screen.Services
	quiz   func() screen.Screen
	report *session.Report
	offset int
	errMsg string
	notice string
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a SummaryScreen for the completed session in svc.Machine.
// quiz builds the screen a retry continues on.
func New(svc screen.Services, quiz func() screen.Screen) *SummaryScreen {
	s := &SummaryScreen{svc: svc, quiz: quiz}
	report, err := svc.Machine.Report()
	if err != nil {
		s.errMsg = err.Error()
	}
	s.report = report
	return s
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Results"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "r", Description: "Retry"},
	}
	if s.report != nil && s.report.CanRetryWrong() {
		hints = append(hints, layout.KeyHint{Key: "w", Description: "Retry wrong"})
	}
	return append(hints,
		layout.KeyHint{Key: "↑↓", Description: "Scroll"},
		layout.KeyHint{Key: "Enter", Description: "Home"},
	)
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch kmsg.String() {
	case "enter", "esc":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "up", "k":
		if s.offset > 0 {
			s.offset--
		}
	case "down", "j":
		s.offset++
	case "r":
		return s.retry(s.svc.Machine.Retry)
	case "w":
		if s.report != nil && s.report.CanRetryWrong() {
			return s.retry(s.svc.Machine.RetryWrongOnly)
		}
	}
	return s, nil
}

// retry restarts the session and hands over to a fresh quiz screen. The
// ranges are already resident, so this never waits on the network.
func (s *SummaryScreen) retry(start func(context.Context) error) (screen.Screen, tea.Cmd) {
	if err := start(context.Background()); err != nil {
		s.notice = err.Error()
		return s, nil
	}
	next := s.quiz()
	return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (s *SummaryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render("\n\n  " + s.errMsg)
	}

	lines := strings.Split(s.render(width), "\n")
	if s.notice != "" {
		lines = append([]string{lipgloss.NewStyle().Foreground(theme.Error).Render("  " + s.notice)}, lines...)
	}

	// Scroll, but never past the last screenful.
	if maxOffset := len(lines) - height; s.offset > maxOffset {
		s.offset = max(0, maxOffset)
	}
	end := min(len(lines), s.offset+height)
	return strings.Join(lines[s.offset:end], "\n")
}

func (s *SummaryScreen) render(width int) string {
	r := s.report
	cw := min(width-8, 70)
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render("Session complete!"))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Render(fmt.Sprintf("Score: %d / %d        %d%%", r.Score, r.GradedTotal, r.Percentage)))
	b.WriteString("\n")
	b.WriteString(layout.Center(width,
		components.NewProgressBar("", float64(r.Percentage)/100, false, cw).View()))
	b.WriteString("\n\n")

	b.WriteString(section("Ranges", width, cw))
	for _, rs := range r.Ranges {
		line := fmt.Sprintf("%-30s %d / %d", rs.Range, rs.Correct, rs.Total)
		b.WriteString(layout.Center(width, theme.Body.Width(cw).Render(line)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(section("Review", width, cw))
	marks := make([]string, 0, len(r.Review))
	for _, it := range r.Review {
		mark := fmt.Sprintf("%d%s", it.Index+1, it.Status.Symbol())
		switch it.Status {
		case session.ReviewCorrect:
			mark = theme.Correct.Render(mark)
		case session.ReviewWrong:
			mark = theme.Incorrect.Render(mark)
		default:
			mark = theme.Hint.Render(mark)
		}
		marks = append(marks, mark)
	}
	b.WriteString(layout.Center(width, lipgloss.NewStyle().Width(cw).Render(strings.Join(marks, "  "))))
	b.WriteString("\n\n")

	if len(r.WrongAnswers) > 0 {
		b.WriteString(section("Wrong answers", width, cw))
		for _, w := range r.WrongAnswers {
			b.WriteString(layout.Center(width, renderWrong(w, cw)))
			b.WriteString("\n\n")
		}
	}

	b.WriteString(components.ButtonRow(width,
		components.Button{Key: "r", Label: "Retry"},
		components.Button{Key: "w", Label: "Retry wrong only", Disabled: !r.CanRetryWrong()},
		components.Button{Key: "Enter", Label: "Home"},
	))

	return b.String()
}

func section(title string, width, cw int) string {
	return layout.Center(width, theme.Hint.Render(title)) + "\n" +
		layout.Center(width, layout.Divider(cw)) + "\n"
}

func renderWrong(w session.WrongAnswer, cw int) string {
	correct := w.CorrectAnswer
	if correct == "" {
		correct = "-"
	}
	var b strings.Builder
	b.WriteString(theme.Body.Bold(true).Render(w.Question.Prompt))
	b.WriteString("\n")
	b.WriteString(theme.Incorrect.Render("Your answer: " + displayAnswer(w)))
	b.WriteString("\n")
	b.WriteString(theme.Correct.Render("Correct: " + correct))
	if w.Question.Explanation != "" {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render(w.Question.Explanation))
	}
	return lipgloss.NewStyle().Width(cw).Render(b.String())
}

// displayAnswer shows a multiple-choice answer by its text.
func displayAnswer(w session.WrongAnswer) string {
	for _, c := range w.Question.Choices {
		if c.CID == w.UserAnswer {
			return c.CID + ". " + c.Text
		}
	}
	return w.UserAnswer
}
