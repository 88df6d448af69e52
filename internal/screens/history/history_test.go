package history

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quiznote/internal/router"
	"github.com/abhisek/quiznote/internal/screen/screentest"
	"github.com/abhisek/quiznote/internal/store"
)

type fakeEvents struct {
	events []store.SessionEvent
	err    error
}

func (f *fakeEvents) Append(context.Context, store.SessionEvent) error { return nil }

func (f *fakeEvents) RecentCompleted(_ context.Context, limit int) ([]store.SessionEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && limit < len(f.events) {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func loaded(t *testing.T, repo store.SessionEventRepo) *HistoryScreen {
	t.Helper()
	s := New(repo)
	s.Update(screentest.Run(s.Init()))
	return s
}

func TestHistoryScreen_Lists(t *testing.T) {
	repo := &fakeEvents{events: []store.SessionEvent{
		{SessionID: "s2", Action: store.ActionComplete, Mode: "bank", Ranges: []string{"geo"},
			QuestionCount: 3, Score: 2, GradedTotal: 3, Timestamp: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)},
		{SessionID: "s1", Action: store.ActionComplete, Mode: "wrongnote", Ranges: []string{"geo", "hist"},
			QuestionCount: 1, Score: 0, GradedTotal: 0, Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
	}}
	s := loaded(t, repo)

	view := s.View(100, 24)
	for _, want := range []string{"bank", "2/3", "67%", "wrongnote", "0%"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestHistoryScreen_ExpandDetails(t *testing.T) {
	repo := &fakeEvents{events: []store.SessionEvent{
		{SessionID: "s1", Mode: "bank", Ranges: []string{"geo", "hist"}, GradedTotal: 1},
		{SessionID: "s2", Mode: "bank", Ranges: []string{"geo"}, GradedTotal: 1},
	}}
	s := loaded(t, repo)

	s.Update(screentest.SpecialKey(tea.KeyDown))
	s.Update(screentest.SpecialKey(tea.KeyEnter))

	if !s.expanded[1] {
		t.Fatal("expected second session expanded")
	}
	if !strings.Contains(s.View(100, 24), "Session: s2") {
		t.Error("expanded view should show the session id")
	}
}

func TestHistoryScreen_Empty(t *testing.T) {
	s := loaded(t, &fakeEvents{})
	if !strings.Contains(s.View(80, 24), "No finished sessions yet") {
		t.Error("expected empty-state message")
	}
}

func TestHistoryScreen_Error(t *testing.T) {
	s := loaded(t, &fakeEvents{err: errors.New("db locked")})
	if !strings.Contains(s.View(80, 24), "db locked") {
		t.Error("expected error message")
	}
}

func TestHistoryScreen_Esc(t *testing.T) {
	s := loaded(t, &fakeEvents{})
	_, cmd := s.Update(screentest.SpecialKey(tea.KeyEscape))
	if _, ok := screentest.Run(cmd).(router.PopScreenMsg); !ok {
		t.Error("expected Esc to pop")
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		score, graded, want int
	}{
		{0, 0, 0},
		{1, 2, 50},
		{2, 3, 67},
		{1, 3, 33},
		{3, 3, 100},
	}
	for _, tt := range tests {
		got := percent(store.SessionEvent{Score: tt.score, GradedTotal: tt.graded})
		if got != tt.want {
			t.Errorf("percent(%d/%d) = %d, want %d", tt.score, tt.graded, got, tt.want)
		}
	}
}
