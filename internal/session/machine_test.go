package session

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quiznote/internal/bank"
	"github.com/abhisek/quiznote/internal/ledger"
	"github.com/abhisek/quiznote/internal/quiz"
	"github.com/abhisek/quiznote/internal/store"
)

type fakeBank struct {
	data    map[string]*quiz.Dataset
	ensured [][]string
}

func (b *fakeBank) Ensure(_ context.Context, ranges []string) error {
	b.ensured = append(b.ensured, append([]string(nil), ranges...))
	for _, r := range ranges {
		if _, ok := b.data[r]; !ok {
			return &bank.LoadError{Range: r, Status: 404}
		}
	}
	return nil
}

func (b *fakeBank) Dataset(id string) (*quiz.Dataset, bool) {
	d, ok := b.data[id]
	return d, ok
}

type blobs struct {
	m       map[string][]byte
	failPut bool
}

func (s *blobs) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := s.m[key]
	return b, ok, nil
}

func (s *blobs) Put(_ context.Context, key string, data []byte) error {
	if s.failPut {
		return errors.New("write failed")
	}
	s.m[key] = data
	return nil
}

func (s *blobs) Delete(_ context.Context, key string) error {
	delete(s.m, key)
	return nil
}

type recordedEvents struct {
	events []store.SessionEvent
}

func (r *recordedEvents) Append(_ context.Context, ev store.SessionEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *recordedEvents) RecentCompleted(context.Context, int) ([]store.SessionEvent, error) {
	return nil, nil
}

func mcqDataset(ids ...string) *quiz.Dataset {
	d := &quiz.Dataset{}
	next := map[string]string{"A": "B", "B": "A"}
	correct := "A"
	for _, id := range ids {
		d.Questions = append(d.Questions, quiz.BankQuestion{
			QID:     id,
			Type:    quiz.TypeMCQ,
			Prompt:  "Prompt " + id,
			Choices: []quiz.Choice{{CID: "A", Text: "a"}, {CID: "B", Text: "b"}, {CID: "C", Text: "c"}},
		})
		d.Answers = append(d.Answers, quiz.BankAnswer{QID: id, Correct: quiz.Single(correct)})
		d.Explanations = append(d.Explanations, quiz.BankExplanation{QID: id, Explanation: "Because " + id})
		correct = next[correct]
	}
	return d
}

type harness struct {
	m      *Machine
	bank   *fakeBank
	ledger *ledger.Ledger
	blobs  *blobs
	events *recordedEvents
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		bank: &fakeBank{data: map[string]*quiz.Dataset{
			// Q1 correct "A", Q2 correct "B".
			"R1": mcqDataset("Q1", "Q2"),
			"R2": {
				Questions: []quiz.BankQuestion{
					{QID: "S1", Type: quiz.TypeShort, Prompt: "Capital?"},
					{QID: "E1", Type: quiz.TypeEssay, Prompt: "Discuss."},
				},
				Answers:      []quiz.BankAnswer{{QID: "S1", Correct: quiz.AnyOf("seoul", "Seoul ")}},
				Explanations: []quiz.BankExplanation{{QID: "E1", Explanation: "Model answer."}},
			},
			"ESSAYS": {
				Questions: []quiz.BankQuestion{
					{QID: "E2", Type: quiz.TypeEssay, Prompt: "One."},
					{QID: "E3", Type: quiz.TypeEssay, Prompt: "Two."},
				},
			},
		}},
		blobs:  &blobs{m: make(map[string][]byte)},
		events: &recordedEvents{},
	}
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h.ledger = ledger.New(h.blobs, ledger.WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	require.NoError(t, h.ledger.Load(context.Background()))
	h.m = NewMachine(Config{Bank: h.bank, Ledger: h.ledger, Events: h.events})
	return h
}

// answerAll submits answers in order, advancing after each. An empty
// answer reveals the question instead.
func (h *harness) answerAll(t *testing.T, answers ...string) {
	t.Helper()
	ctx := context.Background()
	for _, a := range answers {
		var err error
		if a == "" {
			_, err = h.m.Reveal()
		} else {
			_, err = h.m.Submit(ctx, a)
		}
		require.NoError(t, err)
		require.NoError(t, h.m.Advance(ctx))
	}
}

func TestScenarioOneRightOneWrong(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.m.Start(ctx, []string{"R1"}, quiz.BuildOptions{}))
	assert.Equal(t, StateInProgress, h.m.State())

	fb, err := h.m.Submit(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, quiz.OutcomeCorrect, fb.Record.Outcome)
	require.NoError(t, h.m.Advance(ctx))

	fb, err = h.m.Submit(ctx, "C")
	require.NoError(t, err)
	assert.Equal(t, quiz.OutcomeWrong, fb.Record.Outcome)
	assert.Equal(t, "B", fb.CorrectDisplay)
	require.NoError(t, h.m.Advance(ctx))

	assert.Equal(t, StateCompleted, h.m.State())
	assert.Equal(t, 1, h.m.Score())

	assert.Equal(t, 1, h.ledger.Count())
	e, ok := h.ledger.Get("Q2")
	require.True(t, ok)
	assert.Equal(t, 1, e.WrongCount)
	assert.Equal(t, "C", e.UserAnswer())

	r, err := h.m.Report()
	require.NoError(t, err)
	assert.Equal(t, []RangeScore{{Range: "R1", Correct: 1, Total: 2}}, r.Ranges)
	assert.Equal(t, 50, r.Percentage)
	assert.True(t, r.CanRetryWrong())
	require.Len(t, r.WrongAnswers, 1)
	assert.Equal(t, "Q2", r.WrongAnswers[0].Question.QID)
	assert.Equal(t, "C", r.WrongAnswers[0].UserAnswer)
}

func TestWrongNoteCorrectAnswerRemovesEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.Start(ctx, []string{"R1"}, quiz.BuildOptions{}))
	h.answerAll(t, "B", "A") // both wrong
	require.Equal(t, 2, h.ledger.Count())

	require.NoError(t, h.m.StartWrongNote(ctx, quiz.BuildOptions{}))
	assert.True(t, h.m.WrongNoteMode())
	assert.Equal(t, []string{"R1"}, h.bank.ensured[len(h.bank.ensured)-1])

	fb, err := h.m.Submit(ctx, "A")
	require.NoError(t, err)
	assert.True(t, fb.Resolved)
	assert.Equal(t, 1, h.ledger.Count())
	_, ok := h.ledger.Get("Q1")
	assert.False(t, ok)
}

func TestWrongNoteFlaggedEntryPersists(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.Start(ctx, []string{"R1"}, quiz.BuildOptions{}))
	h.answerAll(t, "B", "B")

	q1, _ := h.m.Question(0)
	require.NoError(t, h.ledger.FlagImportant(ctx, q1))

	require.NoError(t, h.m.StartWrongNote(ctx, quiz.BuildOptions{}))
	fb, err := h.m.Submit(ctx, "A")
	require.NoError(t, err)
	assert.False(t, fb.Resolved)

	after, ok := h.ledger.Get("Q1")
	require.True(t, ok)
	assert.True(t, after.Important)
	assert.Equal(t, 0, after.WrongCount)
	assert.Nil(t, after.LastUserAnswer)
}

func TestWrongNoteMissIncrements(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.Start(ctx, []string{"R1"}, quiz.BuildOptions{}))
	h.answerAll(t, "B", "B")

	q1, _ := h.m.Question(0)
	require.NoError(t, h.ledger.FlagImportant(ctx, q1))

	require.NoError(t, h.m.StartWrongNote(ctx, quiz.BuildOptions{}))
	_, err := h.m.Submit(ctx, "C")
	require.NoError(t, err)

	e, _ := h.ledger.Get("Q1")
	assert.Equal(t, 2, e.WrongCount)
	assert.True(t, e.Important)
}

func TestAllEssaysScoreZeroPercent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.Start(ctx, []string{"ESSAYS"}, quiz.BuildOptions{}))
	h.answerAll(t, "", "")

	r, err := h.m.Report()
	require.NoError(t, err)
	assert.Zero(t, r.GradedTotal)
	assert.Zero(t, r.Percentage)
	assert.False(t, r.CanRetryWrong())
	assert.Equal(t, []RangeScore{{Range: "ESSAYS"}}, r.Ranges)
	assert.Zero(t, h.ledger.Count())
}

func TestStartFailureLeavesStateUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.m.Start(ctx, []string{"R1", "MISSING"}, quiz.BuildOptions{})
	var le *bank.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "MISSING", le.Range)
	assert.Equal(t, StateNotStarted, h.m.State())
	assert.Empty(t, h.events.events)

	// A failed start from a completed session keeps its results.
	require.NoError(t, h.m.Start(ctx, []string{"R1"}, quiz.BuildOptions{}))
	h.answerAll(t, "A", "A")
	id := h.m.ID()

	require.Error(t, h.m.Start(ctx, []string{"MISSING"}, quiz.BuildOptions{}))
	assert.Equal(t, StateCompleted, h.m.State())
	assert.Equal(t, id, h.m.ID())
	assert.Equal(t, 1, h.m.Score())
}

func TestStartPreconditions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.ErrorIs(t, h.m.Start(ctx, nil, quiz.BuildOptions{}), ErrNoQuestions)
	assert.ErrorIs(t, h.m.Start(ctx, []string{"ESSAYS"}, quiz.BuildOptions{MCQOnly: true}), ErrNoQuestions)
	assert.ErrorIs(t, h.m.StartWrongNote(ctx, quiz.BuildOptions{}), ledger.ErrEmpty)
	assert.Equal(t, StateNotStarted, h.m.State())

	require.NoError(t, h.m.Start(ctx, []string{"R1"}, quiz.BuildOptions{}))
	assert.ErrorIs(t, h.m.Start(ctx, []string{"R1"}, quiz.BuildOptions{}), ErrInProgress)
}

func TestAnsweredQuestionsAreImmutable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.Start(ctx, []string{"R1"}, quiz.BuildOptions{}))

	_, err := h.m.Submit(ctx, "C")
	require.NoError(t, err)
	_, err = h.m.Submit(ctx, "A")
	assert.ErrorIs(t, err, ErrAlreadyAnswered)

	require.NoError(t, h.m.GoTo(1))
	require.NoError(t, h.m.GoTo(0))
	_, err = h.m.Submit(ctx, "A")
	assert.ErrorIs(t, err, ErrAlreadyAnswered)

	rec := h.m.Record(0)
	require.NotNil(t, rec)
	assert.Equal(t, "C", rec.Answer)
	assert.Equal(t, quiz.OutcomeWrong, rec.Outcome)
	assert.Equal(t, StatusAnswered, h.m.Status(0))
	assert.Equal(t, StatusPresented, h.m.Status(1))
	assert.Zero(t, h.m.Score())

	e, _ := h.ledger.Get("Q1")
	assert.Equal(t, 1, e.WrongCount)

	assert.ErrorIs(t, h.m.GoTo(2), ErrIndexOutOfRange)
	assert.ErrorIs(t, h.m.GoTo(-1), ErrIndexOutOfRange)
	assert.Equal(t, 0, h.m.Index())
}

func TestSubmitValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.m.Submit(ctx, "A")
	assert.ErrorIs(t, err, ErrNotInProgress)

	require.NoError(t, h.m.Start(ctx, []string{"R2"}, quiz.BuildOptions{}))

	_, err = h.m.Submit(ctx, "   ")
	assert.ErrorIs(t, err, ErrBlankAnswer)
	_, err = h.m.Reveal()
	assert.ErrorIs(t, err, ErrNotEssay)

	fb, err := h.m.Submit(ctx, "  SEOUL")
	require.NoError(t, err)
	assert.Equal(t, quiz.OutcomeCorrect, fb.Record.Outcome)
	assert.Equal(t, "SEOUL", fb.Record.Answer)
	assert.Equal(t, "seoul or Seoul ", fb.CorrectDisplay)
	require.NoError(t, h.m.Advance(ctx))

	_, err = h.m.Submit(ctx, "anything")
	assert.ErrorIs(t, err, ErrEssay)
	fb, err = h.m.Reveal()
	require.NoError(t, err)
	assert.Equal(t, quiz.OutcomeUngraded, fb.Record.Outcome)
	assert.Equal(t, "essay", fb.Record.Answer)
	assert.Equal(t, "Model answer.", fb.Explanation)
	assert.Equal(t, StatusRevealed, h.m.Status(1))
}

func TestAdvanceWithoutAnsweringIsSkip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.Start(ctx, []string{"R1"}, quiz.BuildOptions{}))
	require.NoError(t, h.m.Advance(ctx))
	_, err := h.m.Submit(ctx, "B")
	require.NoError(t, err)
	require.NoError(t, h.m.Advance(ctx))

	r, err := h.m.Report()
	require.NoError(t, err)
	assert.Equal(t, []ReviewStatus{ReviewSkip, ReviewCorrect}, []ReviewStatus{r.Review[0].Status, r.Review[1].Status})
	assert.Equal(t, 1, r.Score)
	assert.Equal(t, 2, r.GradedTotal)

	assert.ErrorIs(t, h.m.Advance(ctx), ErrNotInProgress)
}

func TestRetryAndRetryWrongOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.ErrorIs(t, h.m.Retry(ctx), ErrNotCompleted)

	require.NoError(t, h.m.Start(ctx, []string{"R1", "R2"}, quiz.BuildOptions{}))
	h.answerAll(t, "A", "C", "busan", "")
	first := h.m.ID()

	r, err := h.m.Report()
	require.NoError(t, err)
	assert.Equal(t, []RangeScore{{"R1", 1, 2}, {"R2", 0, 1}}, r.Ranges)
	assert.Equal(t, 33, r.Percentage)

	require.NoError(t, h.m.RetryWrongOnly(ctx))
	assert.NotEqual(t, first, h.m.ID())
	assert.True(t, h.m.WrongNoteMode())
	assert.Equal(t, 2, h.m.Len())
	assert.Zero(t, h.m.Score())
	assert.Empty(t, h.m.WrongAnswers())

	// Q2 answered correctly now comes out of the notebook.
	fb, err := h.m.Submit(ctx, "B")
	require.NoError(t, err)
	assert.True(t, fb.Resolved)
	require.NoError(t, h.m.Advance(ctx))
	_, err = h.m.Submit(ctx, "seoul")
	require.NoError(t, err)
	require.NoError(t, h.m.Advance(ctx))
	assert.Zero(t, h.ledger.Count())

	assert.ErrorIs(t, h.m.RetryWrongOnly(ctx), ErrNothingToRetry)
	assert.Equal(t, StateCompleted, h.m.State())

	require.NoError(t, h.m.Retry(ctx))
	assert.False(t, h.m.WrongNoteMode())
	assert.Equal(t, 4, h.m.Len())
	assert.Equal(t, []string{"R1", "R2"}, h.m.SelectedRanges())
}

func TestToggleImportant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.Start(ctx, []string{"R1"}, quiz.BuildOptions{}))

	_, err := h.m.ToggleImportant(ctx)
	assert.ErrorIs(t, err, ErrNotAnswered)
	assert.False(t, h.m.CurrentImportant())

	// Correct answer: flag creates an entry, unflag removes it.
	_, err = h.m.Submit(ctx, "A")
	require.NoError(t, err)
	on, err := h.m.ToggleImportant(ctx)
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, h.m.CurrentImportant())
	e, ok := h.ledger.Get("Q1")
	require.True(t, ok)
	assert.Zero(t, e.WrongCount)

	on, err = h.m.ToggleImportant(ctx)
	require.NoError(t, err)
	assert.False(t, on)
	_, ok = h.ledger.Get("Q1")
	assert.False(t, ok)

	// Wrong answer: the miss survives unflagging.
	require.NoError(t, h.m.Advance(ctx))
	_, err = h.m.Submit(ctx, "C")
	require.NoError(t, err)
	_, err = h.m.ToggleImportant(ctx)
	require.NoError(t, err)
	_, err = h.m.ToggleImportant(ctx)
	require.NoError(t, err)
	e, ok = h.ledger.Get("Q2")
	require.True(t, ok)
	assert.False(t, e.Important)
	assert.Equal(t, 1, e.WrongCount)
}

func TestIsImportantNeedsRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.Start(ctx, []string{"R1"}, quiz.BuildOptions{}))
	q, _ := h.m.Current()
	require.NoError(t, h.ledger.FlagImportant(ctx, q))

	assert.False(t, h.m.IsImportant(q.QID, nil))
	assert.True(t, h.m.IsImportant(q.QID, &AnswerRecord{QID: q.QID}))
}

func TestLedgerFailureLeavesAnswerUnrecorded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.Start(ctx, []string{"R1"}, quiz.BuildOptions{}))

	h.blobs.failPut = true
	_, err := h.m.Submit(ctx, "C")
	require.Error(t, err)
	assert.Nil(t, h.m.Record(0))
	assert.Empty(t, h.m.WrongAnswers())
	assert.Zero(t, h.ledger.Count())

	h.blobs.failPut = false
	_, err = h.m.Submit(ctx, "C")
	require.NoError(t, err)
	assert.Equal(t, 1, h.ledger.Count())
}

func TestSeededShuffleIsDeterministic(t *testing.T) {
	order := func(seed int64) []string {
		h := newHarness(t)
		h.bank.data["BIG"] = mcqDataset("a", "b", "c", "d", "e", "f", "g", "h")
		h.m = NewMachine(Config{Bank: h.bank, Ledger: h.ledger, Rand: rand.New(rand.NewSource(seed))})
		require.NoError(t, h.m.Start(context.Background(), []string{"BIG"}, quiz.BuildOptions{Shuffle: true}))
		var out []string
		for i := 0; i < h.m.Len(); i++ {
			q, _ := h.m.Question(i)
			out = append(out, q.QID)
		}
		return out
	}

	first := order(42)
	assert.Equal(t, first, order(42))
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, first)
}

func TestSessionEventsRecorded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.Start(ctx, []string{"R1"}, quiz.BuildOptions{}))
	h.answerAll(t, "A", "B")

	require.Len(t, h.events.events, 2)
	start, done := h.events.events[0], h.events.events[1]
	assert.Equal(t, store.ActionStart, start.Action)
	assert.Equal(t, store.ActionComplete, done.Action)
	assert.Equal(t, h.m.ID(), done.SessionID)
	assert.Equal(t, string(ModeBank), done.Mode)
	assert.Equal(t, 2, done.Score)
	assert.Equal(t, 2, done.GradedTotal)
	assert.Equal(t, []string{"R1"}, done.Ranges)
}

func TestAbandon(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.m.Start(ctx, []string{"R1"}, quiz.BuildOptions{}))
	h.m.Abandon()
	assert.Equal(t, StateNotStarted, h.m.State())
	require.Len(t, h.events.events, 1)
	require.NoError(t, h.m.Start(ctx, []string{"R1"}, quiz.BuildOptions{}))
}
