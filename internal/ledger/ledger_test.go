package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quiznote/internal/quiz"
)

// memStorage is an in-memory Storage with injectable write failures.
type memStorage struct {
	blobs   map[string][]byte
	puts    int
	failPut error
}

func newMemStorage() *memStorage {
	return &memStorage{blobs: make(map[string][]byte)}
}

func (m *memStorage) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := m.blobs[key]
	return b, ok, nil
}

func (m *memStorage) Put(_ context.Context, key string, data []byte) error {
	if m.failPut != nil {
		return m.failPut
	}
	m.puts++
	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	delete(m.blobs, key)
	return nil
}

// fakeClock advances by one minute per call.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newTestLedger(t *testing.T) (*Ledger, *memStorage, *fakeClock) {
	t.Helper()
	st := newMemStorage()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	l := New(st, WithClock(clock.Now))
	require.NoError(t, l.Load(context.Background()))
	return l, st, clock
}

func mcq(qid, rangeID, correct string) quiz.Question {
	return quiz.Question{
		QID:     qid,
		Range:   rangeID,
		Type:    quiz.TypeMCQ,
		Prompt:  "Prompt " + qid,
		Choices: []quiz.Choice{{CID: "A", Text: "a"}, {CID: "B", Text: "b"}, {CID: "C", Text: "c"}},
		Correct: quiz.Single(correct),
	}
}

func TestUpsertMissCountsCalls(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()
	q := mcq("Q1", "R1", "A")

	answers := []string{"B", "C", "B", "C"}
	var lastDate time.Time
	for i, a := range answers {
		require.NoError(t, l.UpsertMiss(ctx, q, a))
		e, ok := l.Get("Q1")
		require.True(t, ok)
		assert.Equal(t, i+1, e.WrongCount)
		assert.Equal(t, a, e.UserAnswer())
		assert.True(t, e.LastWrongDate.After(lastDate))
		lastDate = e.LastWrongDate
	}

	e, _ := l.Get("Q1")
	assert.Equal(t, "Prompt Q1", e.Prompt)
	assert.Equal(t, "A", e.CorrectDisplay)
	assert.False(t, e.Important)
	assert.Equal(t, 1, l.Count())
}

func TestUpsertMissCorrectDisplay(t *testing.T) {
	l, _, _ := newTestLedger(t)
	q := quiz.Question{QID: "S1", Range: "R1", Type: quiz.TypeShort, Correct: quiz.AnyOf("seoul", "Seoul City")}

	require.NoError(t, l.UpsertMiss(context.Background(), q, "busan"))
	e, _ := l.Get("S1")
	assert.Equal(t, "seoul or Seoul City", e.CorrectDisplay)
	assert.Nil(t, e.Choices)
}

func TestFlagThenUnflagLeavesNoEntry(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, l.UpsertMiss(ctx, mcq("Q1", "R1", "A"), "B"))
	before := l.Entries().All()

	require.NoError(t, l.FlagImportant(ctx, mcq("Q2", "R1", "A")))
	e, ok := l.Get("Q2")
	require.True(t, ok)
	assert.True(t, e.Important)
	assert.Zero(t, e.WrongCount)
	assert.Nil(t, e.LastUserAnswer)

	require.NoError(t, l.UnflagImportant(ctx, "Q2"))
	assert.Equal(t, before, l.Entries().All())
}

func TestFlagPreservesMissHistory(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()
	q := mcq("Q1", "R1", "A")

	require.NoError(t, l.UpsertMiss(ctx, q, "B"))
	require.NoError(t, l.FlagImportant(ctx, q))

	e, _ := l.Get("Q1")
	assert.True(t, e.Important)
	assert.Equal(t, 1, e.WrongCount)

	require.NoError(t, l.UnflagImportant(ctx, "Q1"))
	e, ok := l.Get("Q1")
	require.True(t, ok, "entry with misses survives unflag")
	assert.False(t, e.Important)
	assert.Equal(t, 1, e.WrongCount)
}

func TestResolveMiss(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, l.UpsertMiss(ctx, mcq("Q1", "R1", "A"), "B"))
	require.NoError(t, l.UpsertMiss(ctx, mcq("Q2", "R1", "A"), "B"))
	require.NoError(t, l.FlagImportant(ctx, mcq("Q2", "R1", "A")))

	removed, err := l.ResolveMiss(ctx, "Q1")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 1, l.Count())

	removed, err = l.ResolveMiss(ctx, "Q2")
	require.NoError(t, err)
	assert.False(t, removed)
	after, ok := l.Get("Q2")
	require.True(t, ok)
	assert.True(t, after.Important)
	assert.Equal(t, 0, after.WrongCount)
	assert.Nil(t, after.LastUserAnswer)

	removed, err = l.ResolveMiss(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestResolvedFlaggedEntryGoesAwayOnUnflag(t *testing.T) {
	l, st, _ := newTestLedger(t)
	ctx := context.Background()
	q := mcq("Q1", "R1", "A")
	require.NoError(t, l.UpsertMiss(ctx, q, "B"))
	require.NoError(t, l.FlagImportant(ctx, q))

	removed, err := l.ResolveMiss(ctx, "Q1")
	require.NoError(t, err)
	assert.False(t, removed)

	reloaded := New(st)
	require.NoError(t, reloaded.Load(ctx))
	e, ok := reloaded.Get("Q1")
	require.True(t, ok)
	assert.Equal(t, 0, e.WrongCount)

	require.NoError(t, l.UnflagImportant(ctx, "Q1"))
	_, ok = l.Get("Q1")
	assert.False(t, ok)
	assert.Equal(t, 0, l.Count())
}

func TestRemoveAndClear(t *testing.T) {
	l, st, _ := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, l.UpsertMiss(ctx, mcq("Q1", "R1", "A"), "B"))
	require.NoError(t, l.UpsertMiss(ctx, mcq("Q2", "R2", "A"), "B"))

	puts := st.puts
	require.NoError(t, l.Remove(ctx, "absent"))
	assert.Equal(t, puts, st.puts, "no-op removal does not write")

	require.NoError(t, l.Remove(ctx, "Q1"))
	_, ok := l.Get("Q1")
	assert.False(t, ok)

	require.NoError(t, l.Clear(ctx))
	assert.Zero(t, l.Count())
}

func TestPersistAndReload(t *testing.T) {
	l, st, _ := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, l.UpsertMiss(ctx, mcq("Q2", "R1", "A"), "B"))
	require.NoError(t, l.UpsertMiss(ctx, mcq("Q1", "R1", "A"), "C"))
	require.NoError(t, l.FlagImportant(ctx, mcq("Q3", "R2", "B")))

	reloaded := New(st)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, l.Entries().All(), reloaded.Entries().All())

	var qids []string
	for _, e := range reloaded.Entries().All() {
		qids = append(qids, e.QID)
	}
	assert.Equal(t, []string{"Q2", "Q1", "Q3"}, qids)
}

func TestPersistFailureRollsBack(t *testing.T) {
	l, st, _ := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, l.UpsertMiss(ctx, mcq("Q1", "R1", "A"), "B"))
	before := l.Entries().All()

	st.failPut = errors.New("disk full")
	err := l.UpsertMiss(ctx, mcq("Q1", "R1", "A"), "C")
	require.Error(t, err)
	assert.ErrorIs(t, err, st.failPut)
	assert.Equal(t, before, l.Entries().All())

	err = l.Clear(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, l.Count())
}

func TestOnChangeReportsCount(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()

	var counts []int
	l.OnChange(func(n int) { counts = append(counts, n) })

	require.NoError(t, l.UpsertMiss(ctx, mcq("Q1", "R1", "A"), "B"))
	require.NoError(t, l.FlagImportant(ctx, mcq("Q2", "R1", "A")))
	require.NoError(t, l.Remove(ctx, "Q1"))
	assert.Equal(t, []int{1, 2, 1}, counts)
}

func TestListFilterAndSort(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.UpsertMiss(ctx, mcq("A1", "R1", "A"), "B"))
	require.NoError(t, l.UpsertMiss(ctx, mcq("B1", "R2", "A"), "B"))
	require.NoError(t, l.UpsertMiss(ctx, mcq("B1", "R2", "A"), "C"))
	require.NoError(t, l.UpsertMiss(ctx, mcq("A2", "R1", "A"), "B"))

	qids := func(es []Entry) []string {
		var out []string
		for _, e := range es {
			out = append(out, e.QID)
		}
		return out
	}

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"insertion", ListOptions{}, []string{"A1", "B1", "A2"}},
		{"all ranges", ListOptions{Range: AllRanges}, []string{"A1", "B1", "A2"}},
		{"range filter", ListOptions{Range: "R1"}, []string{"A1", "A2"}},
		{"recent", ListOptions{Sort: SortRecent}, []string{"A2", "B1", "A1"}},
		{"count", ListOptions{Sort: SortCount}, []string{"B1", "A1", "A2"}},
		{"unknown range", ListOptions{Range: "R9"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, qids(l.List(tt.opts)))
		})
	}

	assert.Equal(t, []string{"R1", "R2"}, l.Ranges())
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    SortOrder
		wantErr bool
	}{
		{"", SortInsertion, false},
		{"default", SortInsertion, false},
		{"recent", SortRecent, false},
		{"count", SortCount, false},
		{"alpha", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSortOrder(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortOrder(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSortOrder(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuestionsFromEntries(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()
	q := mcq("Q1", "R1", "B")
	q.Explanation = "because"
	require.NoError(t, l.UpsertMiss(ctx, q, "A"))

	qs := l.Questions()
	require.Len(t, qs, 1)
	assert.Equal(t, q, qs[0])
}
