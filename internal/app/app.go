package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quiznote/internal/router"
	"github.com/abhisek/quiznote/internal/screen"
	"github.com/abhisek/quiznote/internal/screens/home"
	sessionscreen "github.com/abhisek/quiznote/internal/screens/session"
	"github.com/abhisek/quiznote/internal/ui/layout"
)

// Options configures the TUI launch.
type Options struct {
	// Study opens straight into the session already started on the
	// machine, with home underneath it.
	Study bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	svc    screen.Services
	router *router.Router
	study  bool
	width  int
	height int

	// wrongCount mirrors the notebook size for the header badge. It is a
	// pointer so the ledger callback and the model copies share it.
	wrongCount *int
}

// newAppModel creates a new AppModel with the home screen.
func newAppModel(svc screen.Services, opts Options) AppModel {
	count := svc.Ledger.Count()
	m := AppModel{
		svc:        svc,
		router:     router.New(home.New(svc)),
		study:      opts.Study,
		wrongCount: &count,
	}
	svc.Ledger.OnChange(func(n int) { *m.wrongCount = n })
	return m
}

func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.router.Active().Init()}
	if m.study {
		svc := m.svc
		cmds = append(cmds, func() tea.Msg {
			return router.PushScreenMsg{Screen: sessionscreen.New(svc)}
		})
	}
	return tea.Batch(cmds...)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.svc.Machine != nil {
				m.svc.Machine.Abandon()
			}
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	header := layout.RenderHeader(active.Title(), *m.wrongCount, m.width)
	footer := layout.RenderFooter(m.footerHints(active), m.width)

	content := m.router.View(m.width, layout.ContentHeight(m.height, header, footer))
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	if p, ok := active.(screen.KeyHintProvider); ok {
		return p.KeyHints()
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run starts the Bubble Tea program.
func Run(svc screen.Services, opts Options) error {
	p := tea.NewProgram(newAppModel(svc, opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
