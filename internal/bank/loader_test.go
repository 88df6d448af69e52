package bank

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const r1JSON = `{
  "questions": [
    {"qid": "Q1", "type": "mcq", "prompt": "Pick A", "choices": [{"cid": "A", "text": "a"}, {"cid": "B", "text": "b"}]},
    {"qid": "Q2", "type": "short", "prompt": "Capital of Korea?"}
  ],
  "answers": [{"qid": "Q1", "correct": "A"}, {"qid": "Q2", "correct": ["seoul", "Seoul "]}],
  "explanations": [{"qid": "Q1", "explanation": "A is first."}]
}`

const r2JSON = `{"questions": [{"qid": "Q3", "type": "essay", "prompt": "Discuss."}]}`

const manifestJSON = `{"ranges": [
  {"id": "R1", "title": "Range one", "count": 2, "mcqCount": 1},
  {"id": "R2", "title": "Range two", "count": 1, "mcqCount": 0}
]}`

// countingFetcher serves fixed resources and counts requests per name.
type countingFetcher struct {
	mu    sync.Mutex
	files map[string]string
	calls map[string]int
}

func newCountingFetcher(files map[string]string) *countingFetcher {
	return &countingFetcher{files: files, calls: make(map[string]int)}
}

func (f *countingFetcher) Fetch(_ context.Context, name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	body, ok := f.files[name]
	if !ok {
		return nil, &StatusError{Status: http.StatusNotFound}
	}
	return []byte(body), nil
}

func TestEnsureCachesRanges(t *testing.T) {
	f := newCountingFetcher(map[string]string{"R1.json": r1JSON, "R2.json": r2JSON})
	l := NewLoader(f, nil)
	ctx := context.Background()

	require.NoError(t, l.Ensure(ctx, []string{"R1", "R2", "R1"}))

	d, ok := l.Dataset("R1")
	require.True(t, ok)
	assert.Len(t, d.Questions, 2)
	assert.Equal(t, "A", d.Answers[0].Correct.First())
	assert.Equal(t, []string{"seoul", "Seoul "}, d.Answers[1].Correct.Values)

	// Cached ranges are not fetched again.
	require.NoError(t, l.Ensure(ctx, []string{"R1", "R2"}))
	assert.Equal(t, 1, f.calls["R1.json"])
	assert.Equal(t, 1, f.calls["R2.json"])
}

func TestEnsureEmpty(t *testing.T) {
	l := NewLoader(newCountingFetcher(nil), nil)
	assert.NoError(t, l.Ensure(context.Background(), nil))
}

func TestEnsureFailureReportsRangeAndStatus(t *testing.T) {
	f := newCountingFetcher(map[string]string{"R1.json": r1JSON})
	l := NewLoader(f, nil)

	err := l.Ensure(context.Background(), []string{"R1", "R9"})
	require.Error(t, err)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "R9", le.Range)
	assert.Equal(t, http.StatusNotFound, le.Status)
	assert.Equal(t, `load range "R9": status 404`, le.Error())

	// The sibling fetch still ran to completion.
	assert.Equal(t, 1, f.calls["R1.json"])
	_, ok := l.Dataset("R9")
	assert.False(t, ok)
}

func TestEnsureMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"questions": [`},
		{"missing questions", `{"answers": []}`},
		{"bad type", `{"questions": [{"qid": "Q1", "type": "matching", "prompt": "x"}]}`},
		{"missing qid", `{"questions": [{"type": "mcq", "prompt": "x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoader(newCountingFetcher(map[string]string{"R1.json": tt.body}), nil)
			err := l.Ensure(context.Background(), []string{"R1"})

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, "R1", le.Range)
			assert.Zero(t, le.Status)
			_, ok := l.Dataset("R1")
			assert.False(t, ok)
		})
	}
}

func TestEnsureFetchesInParallel(t *testing.T) {
	var inFlight, peak atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{}, 2)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		started <- struct{}{}
		<-release
		inFlight.Add(-1)
		w.Write([]byte(r2JSON))
	}))
	defer srv.Close()

	l := NewLoader(NewHTTPFetcher(srv.URL, 0), nil)
	done := make(chan error, 1)
	go func() { done <- l.Ensure(context.Background(), []string{"R1", "R2"}) }()

	<-started
	<-started
	close(release)

	require.NoError(t, <-done)
	assert.Equal(t, int32(2), peak.Load())
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bank/R1.json":
			w.Write([]byte(r1JSON))
		case "/bank/index.json":
			w.Write([]byte(manifestJSON))
		case "/bank/R5.json":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewLoader(NewFetcher(srv.URL+"/bank/", 0), nil)
	ctx := context.Background()

	require.NoError(t, l.Ensure(ctx, []string{"R1"}))

	ranges, err := l.Manifest(ctx)
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, RangeInfo{ID: "R1", Title: "Range one", Count: 2, MCQCount: 1}, ranges[0])

	err = l.Ensure(ctx, []string{"R5"})
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, http.StatusInternalServerError, le.Status)
}

func TestDirFetcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "R1.json"), []byte(r1JSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifestJSON), 0o644))

	f := NewFetcher(dir, 0)
	_, isDir := f.(*DirFetcher)
	require.True(t, isDir)

	l := NewLoader(f, nil)
	ctx := context.Background()
	require.NoError(t, l.Ensure(ctx, []string{"R1"}))

	err := l.Ensure(ctx, []string{"missing"})
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, http.StatusNotFound, le.Status)

	ranges, err := l.Manifest(ctx)
	require.NoError(t, err)
	assert.Len(t, ranges, 2)
}

func TestDirFetcherStaysInRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "bank")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.json"), []byte(r1JSON), 0o644))

	f := NewDirFetcher(root)
	for _, name := range []string{"../secret.json", "/etc/passwd", "a/../../secret.json"} {
		_, err := f.Fetch(context.Background(), name)
		assert.Error(t, err, name)
	}

	l := NewLoader(f, nil)
	err := l.Ensure(context.Background(), []string{"../secret"})
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "../secret", le.Range)
	_, ok := l.Dataset("../secret")
	assert.False(t, ok)
}

func TestTotalQuestions(t *testing.T) {
	ranges := []RangeInfo{
		{ID: "R1", Count: 10, MCQCount: 4},
		{ID: "R2", Count: 3, MCQCount: 0},
	}

	tests := []struct {
		selected map[string]bool
		mcqOnly  bool
		want     int
	}{
		{map[string]bool{}, false, 0},
		{map[string]bool{"R1": true}, false, 10},
		{map[string]bool{"R1": true}, true, 4},
		{map[string]bool{"R1": true, "R2": true}, false, 13},
		{map[string]bool{"R2": true}, true, 0},
	}

	for _, tt := range tests {
		got := TotalQuestions(ranges, tt.selected, tt.mcqOnly)
		if got != tt.want {
			t.Errorf("TotalQuestions(%v, mcqOnly=%v) = %d, want %d", tt.selected, tt.mcqOnly, got, tt.want)
		}
	}
}
