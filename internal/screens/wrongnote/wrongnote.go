// Package wrongnote is the wrong-answer notebook screen: browse, filter and
// sort entries, drop or clear them, and start a study session over them.
package wrongnote

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quiznote/internal/ledger"
	"github.com/abhisek/quiznote/internal/quiz"
	"github.com/abhisek/quiznote/internal/router"
	"github.com/abhisek/quiznote/internal/screen"
	sessionscreen "github.com/abhisek/quiznote/internal/screens/session"
	"github.com/abhisek/quiznote/internal/ui/layout"
	"github.com/abhisek/quiznote/internal/ui/theme"
)

var sortOrders = []ledger.SortOrder{ledger.SortInsertion, ledger.SortRecent, ledger.SortCount}

var sortNames = map[ledger.SortOrder]string{
	ledger.SortInsertion: "added",
	ledger.SortRecent:    "most recent",
	ledger.SortCount:     "most missed",
}

// studyReadyMsg reports that the notebook's ranges are resident.
type studyReadyMsg struct {
	Err error
}

// Screen lists notebook entries.
type Screen struct {
	svc      screen.Services
	entries  []ledger.Entry
	filter   string
	sort     ledger.SortOrder
	shuffle  bool
	selected int
	expanded map[string]bool
	confirm  bool
	starting bool
	notice   string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.Resumer = (*Screen)(nil)

// New creates the notebook screen showing every range.
func New(svc screen.Services) *Screen {
	s := &Screen{
		svc:      svc,
		filter:   ledger.AllRanges,
		expanded: make(map[string]bool),
	}
	s.refresh()
	return s
}

func (s *Screen) Init() tea.Cmd {
	return nil
}

// Resume reloads the list after a study session changed the notebook.
func (s *Screen) Resume() tea.Cmd {
	s.refresh()
	return nil
}

func (s *Screen) Title() string {
	return "Wrong-Answer Note"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.confirm {
		return []layout.KeyHint{
			{Key: "Y", Description: "Clear all"},
			{Key: "N", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "p", Description: "Study"},
		{Key: "f", Description: "Filter"},
		{Key: "s", Description: "Sort"},
		{Key: "z", Description: "Shuffle"},
		{Key: "d", Description: "Delete"},
		{Key: "c", Description: "Clear"},
		{Key: "Esc", Description: "Back"},
	}
}

// Entries returns the listed entries in display order.
func (s *Screen) Entries() []ledger.Entry {
	return s.entries
}

func (s *Screen) refresh() {
	if s.filter != ledger.AllRanges && !slices.Contains(s.svc.Ledger.Ranges(), s.filter) {
		s.filter = ledger.AllRanges
	}
	s.entries = s.svc.Ledger.List(ledger.ListOptions{Range: s.filter, Sort: s.sort})
	if s.selected >= len(s.entries) {
		s.selected = max(0, len(s.entries)-1)
	}
}

// nextFilter cycles all → each range → all.
func (s *Screen) nextFilter() {
	options := append([]string{ledger.AllRanges}, s.svc.Ledger.Ranges()...)
	for i, o := range options {
		if o == s.filter {
			s.filter = options[(i+1)%len(options)]
			return
		}
	}
	s.filter = ledger.AllRanges
}

func (s *Screen) nextSort() {
	for i, o := range sortOrders {
		if o == s.sort {
			s.sort = sortOrders[(i+1)%len(sortOrders)]
			return
		}
	}
	s.sort = ledger.SortInsertion
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case studyReadyMsg:
		return s.handleStudyReady(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	ctx := context.Background()
	key := msg.String()

	if s.confirm {
		switch key {
		case "y", "Y":
			s.confirm = false
			if err := s.svc.Ledger.Clear(ctx); err != nil {
				s.notice = err.Error()
			}
			s.refresh()
		case "n", "N", "esc":
			s.confirm = false
		}
		return s, nil
	}

	s.notice = ""
	switch key {
	case "esc":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < len(s.entries)-1 {
			s.selected++
		}
	case "enter":
		if e, ok := s.current(); ok {
			s.expanded[e.QID] = !s.expanded[e.QID]
		}
	case "f":
		s.nextFilter()
		s.selected = 0
		s.refresh()
	case "s":
		s.nextSort()
		s.refresh()
	case "z":
		s.shuffle = !s.shuffle
	case "d", "delete":
		if e, ok := s.current(); ok {
			if err := s.svc.Ledger.Remove(ctx, e.QID); err != nil {
				s.notice = err.Error()
			}
			s.refresh()
		}
	case "c":
		if s.svc.Ledger.Count() > 0 {
			s.confirm = true
		}
	case "p":
		return s, s.study()
	}
	return s, nil
}

func (s *Screen) current() (ledger.Entry, bool) {
	if s.selected < 0 || s.selected >= len(s.entries) {
		return ledger.Entry{}, false
	}
	return s.entries[s.selected], true
}

// study makes the notebook's ranges resident off the update loop; the
// session starts once they are.
func (s *Screen) study() tea.Cmd {
	if s.starting {
		return nil
	}
	if s.svc.Ledger.Count() == 0 {
		s.notice = ledger.ErrEmpty.Error()
		return nil
	}
	s.starting = true
	ranges := s.svc.Ledger.Ranges()
	loader := s.svc.Bank
	return func() tea.Msg {
		return studyReadyMsg{Err: loader.Ensure(context.Background(), ranges)}
	}
}

func (s *Screen) handleStudyReady(msg studyReadyMsg) (screen.Screen, tea.Cmd) {
	s.starting = false
	err := msg.Err
	if err == nil {
		err = s.svc.Machine.StartWrongNote(context.Background(), quiz.BuildOptions{Shuffle: s.shuffle})
	}
	if err != nil {
		s.notice = err.Error()
		return s, nil
	}
	return s, func() tea.Msg {
		return router.PushScreenMsg{Screen: sessionscreen.New(s.svc)}
	}
}

func (s *Screen) View(width, height int) string {
	if s.confirm {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Text).Bold(true).
			Render(fmt.Sprintf("\n\n\nDelete all %d entries from the wrong-answer note?\n\n[Y] Yes   [N] No",
				s.svc.Ledger.Count()))
	}

	var b strings.Builder
	b.WriteString("\n")

	shuffle := "off"
	if s.shuffle {
		shuffle = "on"
	}
	status := fmt.Sprintf("  %d entries   Range: %s   Sort: %s   Shuffle: %s",
		len(s.entries), s.filter, sortNames[s.sort], shuffle)
	b.WriteString(theme.Hint.Render(status))
	b.WriteString("\n")
	b.WriteString("  " + layout.Divider(width-4))
	b.WriteString("\n")

	if s.starting {
		b.WriteString(theme.Hint.Render("  Loading questions..."))
		b.WriteString("\n")
	}
	if s.notice != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render("  " + s.notice))
		b.WriteString("\n")
	}

	if len(s.entries) == 0 {
		b.WriteString(lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n  Nothing here. Missed questions show up automatically."))
		return b.String()
	}

	lines := s.renderEntries(width)
	// Keep the selected entry on screen.
	room := max(1, height-5)
	start := 0
	if sel := s.lineOf(s.selected); sel >= room {
		start = sel - room + 1
	}
	end := min(len(lines), start+room)
	b.WriteString(strings.Join(lines[start:end], "\n"))

	return b.String()
}

// lineOf is the index of entry i's first line in renderEntries output.
func (s *Screen) lineOf(i int) int {
	n := 0
	for j := 0; j < i && j < len(s.entries); j++ {
		n++
		if s.expanded[s.entries[j].QID] {
			n += len(detailLines(s.entries[j]))
		}
	}
	return n
}

func (s *Screen) renderEntries(width int) []string {
	var lines []string
	for i, e := range s.entries {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		mark := " "
		if e.Important {
			mark = "★"
		}

		prompt := e.Prompt
		if limit := width - 40; limit > 10 && len([]rune(prompt)) > limit {
			prompt = string([]rune(prompt)[:limit-1]) + "…"
		}
		line := fmt.Sprintf("%s%s %-10s ×%-2d %s", prefix, mark, e.Range, e.WrongCount, prompt)

		style := theme.Unselected
		if i == s.selected {
			style = theme.Selected
		}
		lines = append(lines, style.Render(line))

		if s.expanded[e.QID] {
			for _, d := range detailLines(e) {
				lines = append(lines, theme.Hint.Render(d))
			}
		}
	}
	return lines
}

func detailLines(e ledger.Entry) []string {
	answer := e.UserAnswer()
	if answer == "" {
		answer = "-"
	}
	correct := e.CorrectDisplay
	if correct == "" {
		correct = "-"
	}
	lines := []string{
		"      Q. " + e.Prompt,
		"      Your answer: " + answer,
		"      Correct: " + correct,
		"      Last miss: " + e.LastWrongDate.In(ledger.ReferenceZone).Format("2006-01-02 15:04"),
	}
	if e.Explanation != "" {
		lines = append(lines, "      "+e.Explanation)
	}
	return lines
}
