package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quiznote/internal/bank"
	"github.com/abhisek/quiznote/internal/quiz"
	"github.com/abhisek/quiznote/internal/router"
	"github.com/abhisek/quiznote/internal/screen"
	"github.com/abhisek/quiznote/internal/screens/history"
	sessionscreen "github.com/abhisek/quiznote/internal/screens/session"
	"github.com/abhisek/quiznote/internal/screens/wrongnote"
	"github.com/abhisek/quiznote/internal/ui/components"
	"github.com/abhisek/quiznote/internal/ui/layout"
	"github.com/abhisek/quiznote/internal/ui/theme"
)

type manifestLoadedMsg struct {
	Ranges []bank.RangeInfo
	Err    error
}

// rangesReadyMsg reports that the selected ranges are resident.
type rangesReadyMsg struct {
	Ranges []string
	Opts   quiz.BuildOptions
	Err    error
}

// HomeScreen picks ranges and options and starts a session.
type HomeScreen struct {
	svc      screen.Services
	ranges   []bank.RangeInfo
	selected map[string]bool
	mcqOnly  bool
	shuffle  bool
	menu     components.Menu
	loaded   bool
	starting bool
	errMsg   string
	notice   string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)
var _ screen.Resumer = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(svc screen.Services) *HomeScreen {
	h := &HomeScreen{
		svc:      svc,
		selected: make(map[string]bool),
	}
	h.menu = components.NewMenu(h.items())
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	loader := h.svc.Bank
	return func() tea.Msg {
		ranges, err := loader.Manifest(context.Background())
		return manifestLoadedMsg{Ranges: ranges, Err: err}
	}
}

// Resume refreshes the notebook count after a pushed screen is popped.
func (h *HomeScreen) Resume() tea.Cmd {
	h.refresh()
	return nil
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Space", Description: "Toggle"},
		{Key: "a", Description: "All ranges"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Total is the number of questions the current selection would yield.
func (h *HomeScreen) Total() int {
	return bank.TotalQuestions(h.ranges, h.selected, h.mcqOnly)
}

func (h *HomeScreen) selectedRanges() []string {
	var ids []string
	for _, r := range h.ranges {
		if h.selected[r.ID] {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func (h *HomeScreen) items() []components.MenuItem {
	items := make([]components.MenuItem, 0, len(h.ranges)+7)
	for _, r := range h.ranges {
		id := r.ID
		items = append(items, components.MenuItem{
			Label: fmt.Sprintf("%s %s (%d)", checkbox(h.selected[id]), r.Title, r.QuestionCount(h.mcqOnly)),
			Action: func() tea.Cmd {
				h.selected[id] = !h.selected[id]
				return nil
			},
		})
	}

	total := h.Total()
	startLabel := fmt.Sprintf("Start quiz (%d questions)", total)
	if h.starting {
		startLabel = "Loading questions..."
	}

	dark := "off"
	if theme.IsDark() {
		dark = "on"
	}

	return append(items,
		components.MenuItem{
			Label: checkbox(h.mcqOnly) + " Multiple choice only",
			Action: func() tea.Cmd {
				h.mcqOnly = !h.mcqOnly
				return nil
			},
		},
		components.MenuItem{
			Label: checkbox(h.shuffle) + " Shuffle",
			Action: func() tea.Cmd {
				h.shuffle = !h.shuffle
				return nil
			},
		},
		components.MenuItem{
			Label:    startLabel,
			Action:   h.start,
			Disabled: total == 0 || h.starting,
		},
		components.MenuItem{
			Label: fmt.Sprintf("Wrong-answer note (%d)", h.svc.Ledger.Count()),
			Action: func() tea.Cmd {
				return func() tea.Msg { return router.PushScreenMsg{Screen: wrongnote.New(h.svc)} }
			},
		},
		components.MenuItem{
			Label: "History",
			Action: func() tea.Cmd {
				return func() tea.Msg { return router.PushScreenMsg{Screen: history.New(h.svc.History)} }
			},
		},
		components.MenuItem{
			Label:  "Dark mode: " + dark,
			Action: h.toggleDarkMode,
		},
		components.MenuItem{
			Label:  "Quit",
			Action: func() tea.Cmd { return tea.Quit },
		},
	)
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (h *HomeScreen) refresh() {
	h.menu.SetItems(h.items())
}

// start makes the selected ranges resident off the update loop. The
// session itself starts in Update once they are.
func (h *HomeScreen) start() tea.Cmd {
	ranges := h.selectedRanges()
	opts := quiz.BuildOptions{MCQOnly: h.mcqOnly, Shuffle: h.shuffle}
	loader := h.svc.Bank
	h.starting = true
	h.notice = ""
	return func() tea.Msg {
		err := loader.Ensure(context.Background(), ranges)
		return rangesReadyMsg{Ranges: ranges, Opts: opts, Err: err}
	}
}

func (h *HomeScreen) toggleDarkMode() tea.Cmd {
	settings, err := h.svc.Settings.ToggleDarkMode(context.Background())
	if err != nil {
		h.notice = err.Error()
		return nil
	}
	theme.Apply(settings.DarkMode)
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case manifestLoadedMsg:
		h.loaded = true
		if msg.Err != nil {
			h.errMsg = msg.Err.Error()
		} else {
			h.ranges = msg.Ranges
		}
		h.refresh()
		return h, nil

	case rangesReadyMsg:
		return h.handleRangesReady(msg)

	case tea.KeyMsg:
		if msg.String() == "a" {
			all := len(h.selectedRanges()) < len(h.ranges)
			for _, r := range h.ranges {
				h.selected[r.ID] = all
			}
			h.refresh()
			return h, nil
		}
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	h.refresh()
	return h, cmd
}

func (h *HomeScreen) handleRangesReady(msg rangesReadyMsg) (screen.Screen, tea.Cmd) {
	h.starting = false
	defer h.refresh()

	err := msg.Err
	if err == nil {
		err = h.svc.Machine.Start(context.Background(), msg.Ranges, msg.Opts)
	}
	if err != nil {
		h.notice = err.Error()
		return h, nil
	}
	return h, func() tea.Msg {
		return router.PushScreenMsg{Screen: sessionscreen.New(h.svc)}
	}
}

func (h *HomeScreen) View(width, height int) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render("QuizNote"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(width).Render("Pick ranges, answer, and review what you missed."))
	b.WriteString("\n\n")

	switch {
	case !h.loaded:
		b.WriteString(theme.Hint.Render("  Loading ranges..."))
		b.WriteString("\n\n")
	case h.errMsg != "":
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render("  Could not load ranges: " + h.errMsg))
		b.WriteString("\n\n")
	case len(h.ranges) == 0:
		b.WriteString(theme.Hint.Render("  The question bank has no ranges."))
		b.WriteString("\n\n")
	}

	b.WriteString(h.menu.View())

	if h.notice != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render("  " + h.notice))
		b.WriteString("\n")
	}

	return b.String()
}
