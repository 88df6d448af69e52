package app

import (
	"context"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quiznote/internal/quiz"
	"github.com/abhisek/quiznote/internal/screen/screentest"
	"github.com/abhisek/quiznote/internal/session"
)

func TestAppModel_BadgeFollowsLedger(t *testing.T) {
	svc := screentest.New(t)
	m := newAppModel(svc, Options{})
	assert.Equal(t, 0, *m.wrongCount)

	ctx := context.Background()
	require.NoError(t, svc.Machine.Start(ctx, []string{"geo"}, quiz.BuildOptions{}))
	_, err := svc.Machine.Submit(ctx, "a")
	require.NoError(t, err)

	assert.Equal(t, 1, *m.wrongCount)
}

func TestAppModel_StudyOpensQuiz(t *testing.T) {
	svc := screentest.New(t)
	require.NoError(t, svc.Machine.Start(context.Background(), []string{"hist"}, quiz.BuildOptions{}))

	model := tea.Model(newAppModel(svc, Options{Study: true}))
	msgs, ok := model.Init()().(tea.BatchMsg)
	require.True(t, ok)
	for _, cmd := range msgs {
		model, _ = model.Update(screentest.Run(cmd))
	}

	m := model.(AppModel)
	assert.Equal(t, 2, m.router.Depth())
	assert.Equal(t, "Quiz", m.router.Active().Title())
}

func TestAppModel_CtrlCAbandons(t *testing.T) {
	svc := screentest.New(t)
	require.NoError(t, svc.Machine.Start(context.Background(), []string{"geo"}, quiz.BuildOptions{}))

	m := newAppModel(svc, Options{})
	_, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})

	assert.IsType(t, tea.QuitMsg{}, screentest.Run(cmd))
	assert.Equal(t, session.StateNotStarted, svc.Machine.State())
}

func TestAppModel_WindowSize(t *testing.T) {
	m := newAppModel(screentest.New(t), Options{})

	model, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Equal(t, 100, model.(AppModel).width)
	assert.Equal(t, 30, model.(AppModel).height)
}
