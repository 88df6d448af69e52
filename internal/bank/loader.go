// Package bank fetches and caches per-range question datasets.
package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/quiznote/internal/quiz"
	"github.com/abhisek/quiznote/internal/schema"
)

// ManifestFile is the resource listing the bank's ranges.
const ManifestFile = "index.json"

// RangeInfo describes one selectable range from the manifest.
type RangeInfo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Count    int    `json:"count"`
	MCQCount int    `json:"mcqCount"`
}

// QuestionCount returns the number of questions a selection of this range
// contributes under the MCQ-only filter.
func (r RangeInfo) QuestionCount(mcqOnly bool) int {
	if mcqOnly {
		return r.MCQCount
	}
	return r.Count
}

// TotalQuestions sums QuestionCount over the selected ranges.
func TotalQuestions(ranges []RangeInfo, selected map[string]bool, mcqOnly bool) int {
	total := 0
	for _, r := range ranges {
		if selected[r.ID] {
			total += r.QuestionCount(mcqOnly)
		}
	}
	return total
}

type manifest struct {
	Ranges []RangeInfo `json:"ranges"`
}

// Loader keeps fetched range datasets resident in memory.
type Loader struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[string]*quiz.Dataset
}

var _ quiz.DatasetSource = (*Loader)(nil)

// NewLoader creates a Loader. A nil logger discards output.
func NewLoader(fetcher Fetcher, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		fetcher: fetcher,
		logger:  logger,
		cache:   make(map[string]*quiz.Dataset),
	}
}

// Ensure makes every range in ranges resident, fetching the uncached ones in
// parallel. It is all-or-nothing: if any fetch fails, Ensure waits for the
// remaining fetches to settle and returns the first *LoadError. Ranges that
// did load stay cached.
func (l *Loader) Ensure(ctx context.Context, ranges []string) error {
	var g errgroup.Group
	seen := make(map[string]bool, len(ranges))

	for _, id := range ranges {
		if seen[id] || l.cached(id) {
			continue
		}
		seen[id] = true

		g.Go(func() error {
			d, err := l.fetchRange(ctx, id)
			if err != nil {
				l.logger.Warn("range fetch failed", "range", id, "err", err)
				return err
			}
			l.mu.Lock()
			l.cache[id] = d
			l.mu.Unlock()
			l.logger.Debug("range cached", "range", id, "questions", len(d.Questions))
			return nil
		})
	}

	return g.Wait()
}

// Dataset returns a cached dataset.
func (l *Loader) Dataset(rangeID string) (*quiz.Dataset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	d, ok := l.cache[rangeID]
	return d, ok
}

func (l *Loader) cached(rangeID string) bool {
	_, ok := l.Dataset(rangeID)
	return ok
}

func (l *Loader) fetchRange(ctx context.Context, rangeID string) (*quiz.Dataset, error) {
	raw, err := l.fetcher.Fetch(ctx, rangeID+".json")
	if err != nil {
		return nil, newLoadError(rangeID, err)
	}
	if err := schema.Validate(DatasetSchema, raw); err != nil {
		return nil, newLoadError(rangeID, err)
	}

	var d quiz.Dataset
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, newLoadError(rangeID, fmt.Errorf("decode dataset: %w", err))
	}
	return &d, nil
}

// Manifest fetches the list of available ranges.
func (l *Loader) Manifest(ctx context.Context) ([]RangeInfo, error) {
	raw, err := l.fetcher.Fetch(ctx, ManifestFile)
	if err != nil {
		return nil, newLoadError("index", err)
	}
	if err := schema.Validate(ManifestSchema, raw); err != nil {
		return nil, newLoadError("index", err)
	}

	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, newLoadError("index", fmt.Errorf("decode manifest: %w", err))
	}
	return m.Ranges, nil
}
