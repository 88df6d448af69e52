// Package screentest builds fully wired screen.Services over an in-memory
// database and a fixed question bank for screen tests.
package screentest

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quiznote/internal/bank"
	"github.com/abhisek/quiznote/internal/ledger"
	"github.com/abhisek/quiznote/internal/screen"
	"github.com/abhisek/quiznote/internal/session"
	"github.com/abhisek/quiznote/internal/store"
)

// Fetcher serves bank resources from memory.
type Fetcher map[string]string

func (f Fetcher) Fetch(_ context.Context, name string) ([]byte, error) {
	body, ok := f[name]
	if !ok {
		return nil, &bank.StatusError{Status: 404}
	}
	return []byte(body), nil
}

const manifest = `{"ranges": [
  {"id": "geo", "title": "Geography", "count": 3, "mcqCount": 2},
  {"id": "hist", "title": "History", "count": 1, "mcqCount": 0}
]}`

const geo = `{
  "questions": [
    {"qid": "geo-1", "type": "mcq", "prompt": "Capital of France?",
     "choices": [{"cid": "a", "text": "Lyon"}, {"cid": "b", "text": "Paris"}]},
    {"qid": "geo-2", "type": "mcq", "prompt": "Largest ocean?",
     "choices": [{"cid": "a", "text": "Pacific"}, {"cid": "b", "text": "Atlantic"}]},
    {"qid": "geo-3", "type": "short", "prompt": "Longest river?"}
  ],
  "answers": [
    {"qid": "geo-1", "correct": "b"},
    {"qid": "geo-2", "correct": "a"},
    {"qid": "geo-3", "correct": ["Nile", "The Nile"]}
  ],
  "explanations": [
    {"qid": "geo-1", "explanation": "Paris has been the capital since 987."}
  ]
}`

const hist = `{
  "questions": [
    {"qid": "hist-1", "type": "essay", "prompt": "Describe the causes of WWI."}
  ],
  "explanations": [
    {"qid": "hist-1", "explanation": "Alliances, militarism, nationalism."}
  ]
}`

// Bank returns the fixture bank.
func Bank() Fetcher {
	return Fetcher{
		bank.ManifestFile: manifest,
		"geo.json":        geo,
		"hist.json":       hist,
	}
}

// New wires Services over the fixture bank. Each call gets its own
// database.
func New(t *testing.T) screen.Services {
	t.Helper()
	return NewWithFetcher(t, Bank())
}

// NewWithFetcher is New over a custom bank.
func NewWithFetcher(t *testing.T, f bank.Fetcher) screen.Services {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	l := ledger.New(st.BlobRepo())
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("load ledger: %v", err)
	}

	loader := bank.NewLoader(f, nil)
	return screen.Services{
		Machine: session.NewMachine(session.Config{
			Bank:   loader,
			Ledger: l,
			Events: st.SessionEventRepo(),
			Rand:   rand.New(rand.NewSource(1)),
		}),
		Ledger:   l,
		Bank:     loader,
		Settings: ledger.NewSettingsStore(st.BlobRepo()),
		History:  st.SessionEventRepo(),
	}
}

// KeyPress is a printable key press.
func KeyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// SpecialKey is a non-printable key press such as tea.KeyEnter.
func SpecialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// Run executes cmd and returns its message, or nil.
func Run(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}
