package session

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quiznote/internal/quiz"
	"github.com/abhisek/quiznote/internal/router"
	"github.com/abhisek/quiznote/internal/screen"
	"github.com/abhisek/quiznote/internal/screens/summary"
	sess "github.com/abhisek/quiznote/internal/session"
	"github.com/abhisek/quiznote/internal/ui/components"
	"github.com/abhisek/quiznote/internal/ui/layout"
)

// SessionScreen implements screen.Screen for the active session. The
// machine must already be in progress when it is pushed.
type SessionScreen struct {
	svc         screen.Services
	machine     *sess.Machine
	mc          components.MultiChoice
	input       components.TextInput
	feedback    *sess.Feedback
	notice      string
	confirmQuit bool
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)

// New creates a SessionScreen over svc.Machine.
func New(svc screen.Services) *SessionScreen {
	s := &SessionScreen{svc: svc, machine: svc.Machine}
	s.load()
	return s
}

func (s *SessionScreen) Init() tea.Cmd {
	return s.focus()
}

// focus starts the cursor of an unanswered short-answer input.
func (s *SessionScreen) focus() tea.Cmd {
	if !s.answering(quiz.TypeShort) {
		return nil
	}
	return s.input.Init()
}

func (s *SessionScreen) Title() string {
	if s.machine.WrongNoteMode() {
		return "Wrong-Answer Study"
	}
	return "Quiz"
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	if s.confirmQuit {
		return []layout.KeyHint{
			{Key: "Y", Description: "Leave session"},
			{Key: "N", Description: "Keep going"},
		}
	}
	nav := layout.KeyHint{Key: "PgUp/PgDn", Description: "Jump"}
	if s.machine.Status(s.machine.Index()) != sess.StatusPresented {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Next"},
			{Key: "i", Description: "Important"},
			nav,
			{Key: "Esc", Description: "Quit"},
		}
	}
	q, _ := s.machine.Current()
	submit := layout.KeyHint{Key: "Enter", Description: "Submit"}
	if !q.Gradable() {
		submit.Description = "Reveal"
	}
	return []layout.KeyHint{submit, nav, {Key: "Esc", Description: "Quit"}}
}

// load rebuilds the input widgets for the current question, restoring the
// locked state of an already answered one.
func (s *SessionScreen) load() {
	s.feedback = nil
	s.notice = ""

	q, ok := s.machine.Current()
	if !ok {
		return
	}
	rec := s.machine.Record(s.machine.Index())

	switch q.Type {
	case quiz.TypeMCQ:
		s.mc = components.NewMultiChoice(q.Choices, q.Correct.First())
		if rec != nil {
			s.mc.Lock(rec.Answer)
		}
	case quiz.TypeShort:
		s.input = components.NewTextInput("Type your answer...", 200)
		if rec != nil {
			s.input.Submit(rec.Answer, rec.Outcome == quiz.OutcomeCorrect)
		}
	}

	if rec != nil {
		s.feedback = &sess.Feedback{
			Record:         *rec,
			CorrectDisplay: q.Correct.Display(),
			Explanation:    q.Explanation,
		}
	}
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		return s.handleKey(kmsg)
	}

	// Cursor blink and friends.
	if s.answering(quiz.TypeShort) {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

// answering reports whether the current question of type t still awaits
// an answer.
func (s *SessionScreen) answering(t quiz.Type) bool {
	q, ok := s.machine.Current()
	return ok && q.Type == t && s.machine.Status(s.machine.Index()) == sess.StatusPresented
}

func (s *SessionScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.machine.Abandon()
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	switch key {
	case "esc":
		s.confirmQuit = true
		return s, nil
	case "pgup":
		return s.jump(s.machine.Index() - 1)
	case "pgdown":
		return s.jump(s.machine.Index() + 1)
	}

	if s.machine.Status(s.machine.Index()) != sess.StatusPresented {
		switch key {
		case "enter", "n", "right":
			return s.advance()
		case "i":
			s.toggleImportant()
		}
		return s, nil
	}

	if key == "enter" {
		s.submit()
		return s, nil
	}

	q, _ := s.machine.Current()
	var cmd tea.Cmd
	switch q.Type {
	case quiz.TypeMCQ:
		s.mc, cmd = s.mc.Update(msg)
	case quiz.TypeShort:
		s.input, cmd = s.input.Update(msg)
	}
	return s, cmd
}

// submit grades mcq and short answers and reveals essays.
func (s *SessionScreen) submit() {
	q, ok := s.machine.Current()
	if !ok {
		return
	}

	var (
		fb  sess.Feedback
		err error
	)
	switch q.Type {
	case quiz.TypeMCQ:
		fb, err = s.machine.Submit(context.Background(), s.mc.SelectedCID())
	case quiz.TypeShort:
		fb, err = s.machine.Submit(context.Background(), s.input.Value())
	default:
		fb, err = s.machine.Reveal()
	}
	if err != nil {
		s.notice = describe(err)
		return
	}

	switch q.Type {
	case quiz.TypeMCQ:
		s.mc.Lock(fb.Record.Answer)
	case quiz.TypeShort:
		s.input.Submit(fb.Record.Answer, fb.Record.Outcome == quiz.OutcomeCorrect)
	}
	s.feedback = &fb
	s.notice = ""
}

func (s *SessionScreen) toggleImportant() {
	if _, err := s.machine.ToggleImportant(context.Background()); err != nil {
		s.notice = describe(err)
		return
	}
	s.notice = ""
}

func (s *SessionScreen) jump(index int) (screen.Screen, tea.Cmd) {
	if index < 0 || index >= s.machine.Len() {
		return s, nil
	}
	if err := s.machine.GoTo(index); err != nil {
		s.notice = describe(err)
		return s, nil
	}
	s.load()
	return s, s.focus()
}

func (s *SessionScreen) advance() (screen.Screen, tea.Cmd) {
	if err := s.machine.Advance(context.Background()); err != nil {
		s.notice = describe(err)
		return s, nil
	}
	if s.machine.State() == sess.StateCompleted {
		results := summary.New(s.svc, func() screen.Screen { return New(s.svc) })
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: results} }
	}
	s.load()
	return s, s.focus()
}

// describe turns machine errors into notices for the learner.
func describe(err error) string {
	switch {
	case errors.Is(err, sess.ErrBlankAnswer):
		return "Type an answer first."
	case errors.Is(err, sess.ErrNotAnswered):
		return "Answer the question before marking it."
	default:
		return err.Error()
	}
}
