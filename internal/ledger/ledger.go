// Package ledger is the persistent wrong-answer notebook. A Ledger owns the
// in-memory entry set; every mutation is persisted before it returns.
package ledger

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/abhisek/quiznote/internal/quiz"
)

// ErrEmpty is returned by ledger-seeded actions when there are no entries.
var ErrEmpty = errors.New("wrong-answer notebook is empty")

// StorageKey is the blob key the entry set is persisted under.
const StorageKey = "ledger"

// Storage is a keyed blob store.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Ledger is the wrong-answer notebook.
type Ledger struct {
	storage  Storage
	logger   *slog.Logger
	now      func() time.Time
	onChange func(count int)

	entries Entries
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger for mutation events.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides time.Now for miss timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates an empty Ledger backed by storage. Call Load to read the
// persisted entries.
func New(storage Storage, opts ...Option) *Ledger {
	l := &Ledger{
		storage: storage,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnChange registers fn to receive the entry count after every mutation.
func (l *Ledger) OnChange(fn func(count int)) {
	l.onChange = fn
}

// Load replaces the in-memory entries with the persisted ones. A missing
// blob loads as an empty ledger.
func (l *Ledger) Load(ctx context.Context) error {
	raw, ok, err := l.storage.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}

	var entries Entries
	if ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("decode ledger: %w", err)
		}
	}
	l.entries = entries
	l.logger.Debug("ledger loaded", "entries", entries.Len())
	return nil
}

func (l *Ledger) persist(ctx context.Context) error {
	raw, err := json.Marshal(l.entries)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := l.storage.Put(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}

// mutate applies fn to the entries and persists the result. fn reports
// whether it changed anything; unchanged sets are not written. On a persist
// failure the previous entries are restored.
func (l *Ledger) mutate(ctx context.Context, op, qid string, fn func(es *Entries) bool) error {
	prev := l.entries.clone()
	if !fn(&l.entries) {
		return nil
	}

	if err := l.persist(ctx); err != nil {
		l.entries = prev
		l.logger.Error("ledger persist failed", "op", op, "qid", qid, "err", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	count := l.entries.Len()
	l.logger.Info("ledger updated", "op", op, "qid", qid, "entries", count)
	if l.onChange != nil {
		l.onChange(count)
	}
	return nil
}

// UpsertMiss records a wrong answer to q.
func (l *Ledger) UpsertMiss(ctx context.Context, q quiz.Question, userAnswer string) error {
	now := l.now().UTC()
	return l.mutate(ctx, "upsert miss", q.QID, func(es *Entries) bool {
		e, ok := es.Get(q.QID)
		if !ok {
			e = newEntry(q, now)
		}
		e.WrongCount++
		e.LastUserAnswer = &userAnswer
		e.LastWrongDate = now
		es.set(e)
		return true
	})
}

// FlagImportant marks q important, creating an entry with no miss history
// if needed.
func (l *Ledger) FlagImportant(ctx context.Context, q quiz.Question) error {
	now := l.now().UTC()
	return l.mutate(ctx, "flag important", q.QID, func(es *Entries) bool {
		e, ok := es.Get(q.QID)
		if !ok {
			e = newEntry(q, now)
		}
		if e.Important && ok {
			return false
		}
		e.Important = true
		es.set(e)
		return true
	})
}

// UnflagImportant clears the flag. An entry with no miss history exists only
// because of the flag and is deleted.
func (l *Ledger) UnflagImportant(ctx context.Context, qid string) error {
	return l.mutate(ctx, "unflag important", qid, func(es *Entries) bool {
		e, ok := es.Get(qid)
		if !ok {
			return false
		}
		if e.WrongCount == 0 {
			return es.delete(qid)
		}
		if !e.Important {
			return false
		}
		e.Important = false
		es.set(e)
		return true
	})
}

// Remove deletes the entry for qid.
func (l *Ledger) Remove(ctx context.Context, qid string) error {
	return l.mutate(ctx, "remove", qid, func(es *Entries) bool {
		return es.delete(qid)
	})
}

// ResolveMiss handles a correct answer in wrong-note study. Unflagged entries
// are removed. Flagged ones stay but lose their miss history, so a later
// unflag drops them. It reports whether the entry was removed.
func (l *Ledger) ResolveMiss(ctx context.Context, qid string) (bool, error) {
	e, ok := l.entries.Get(qid)
	if !ok {
		return false, nil
	}
	if e.Important {
		err := l.mutate(ctx, "resolve miss", qid, func(es *Entries) bool {
			if e.WrongCount == 0 && e.LastUserAnswer == nil {
				return false
			}
			e.WrongCount = 0
			e.LastUserAnswer = nil
			es.set(e)
			return true
		})
		return false, err
	}
	if err := l.Remove(ctx, qid); err != nil {
		return false, err
	}
	return true, nil
}

// Clear deletes every entry.
func (l *Ledger) Clear(ctx context.Context) error {
	return l.mutate(ctx, "clear", "", func(es *Entries) bool {
		if es.Len() == 0 {
			return false
		}
		*es = Entries{}
		return true
	})
}

// Replace swaps in a whole new entry set.
func (l *Ledger) Replace(ctx context.Context, entries Entries) error {
	return l.mutate(ctx, "replace", "", func(es *Entries) bool {
		*es = entries.clone()
		return true
	})
}

func (l *Ledger) Get(qid string) (Entry, bool) {
	return l.entries.Get(qid)
}

// IsImportant reports whether qid carries the importance flag.
func (l *Ledger) IsImportant(qid string) bool {
	e, ok := l.entries.Get(qid)
	return ok && e.Important
}

// Count is the number of entries, shown as the notebook badge.
func (l *Ledger) Count() int {
	return l.entries.Len()
}

// Entries returns a copy of the full entry set.
func (l *Ledger) Entries() Entries {
	return l.entries.clone()
}

// Questions maps every entry into question shape, in insertion order.
func (l *Ledger) Questions() []quiz.Question {
	all := l.entries.All()
	qs := make([]quiz.Question, 0, len(all))
	for _, e := range all {
		qs = append(qs, e.Question())
	}
	return qs
}

// Ranges returns the distinct ranges present, sorted.
func (l *Ledger) Ranges() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range l.entries.All() {
		if !seen[e.Range] {
			seen[e.Range] = true
			out = append(out, e.Range)
		}
	}
	slices.Sort(out)
	return out
}

// SortOrder selects the listing order.
type SortOrder string

const (
	SortInsertion SortOrder = ""
	SortRecent    SortOrder = "recent"
	SortCount     SortOrder = "count"
)

// ParseSortOrder accepts "recent", "count", or "" / "default".
func ParseSortOrder(s string) (SortOrder, error) {
	switch s {
	case "", "default":
		return SortInsertion, nil
	case string(SortRecent):
		return SortRecent, nil
	case string(SortCount):
		return SortCount, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// AllRanges disables the range filter.
const AllRanges = "all"

// ListOptions filters and orders List.
type ListOptions struct {
	Range string
	Sort  SortOrder
}

// List returns entries for the notebook view. Sorts are stable so ties keep
// insertion order.
func (l *Ledger) List(opts ListOptions) []Entry {
	var out []Entry
	for _, e := range l.entries.All() {
		if opts.Range != "" && opts.Range != AllRanges && e.Range != opts.Range {
			continue
		}
		out = append(out, e)
	}

	switch opts.Sort {
	case SortRecent:
		slices.SortStableFunc(out, func(a, b Entry) int {
			return b.LastWrongDate.Compare(a.LastWrongDate)
		})
	case SortCount:
		slices.SortStableFunc(out, func(a, b Entry) int {
			return cmp.Compare(b.WrongCount, a.WrongCount)
		})
	}
	return out
}
