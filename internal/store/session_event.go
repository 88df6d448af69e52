package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// sessionEventRepo implements SessionEventRepo over the session_events table.
type sessionEventRepo struct {
	drv *entsql.Driver
}

func (r *sessionEventRepo) Append(ctx context.Context, ev SessionEvent) error {
	ranges := ev.Ranges
	if ranges == nil {
		ranges = []string{}
	}
	rangesJSON, err := json.Marshal(ranges)
	if err != nil {
		return fmt.Errorf("marshal ranges: %w", err)
	}

	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(sessionEventsTable).
		Columns("session_id", "action", "mode", "ranges", "question_count", "score", "graded_total", "timestamp").
		Values(ev.SessionID, ev.Action, ev.Mode, string(rangesJSON), ev.QuestionCount, ev.Score, ev.GradedTotal,
			ts.UTC().Format(time.RFC3339Nano)).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *sessionEventRepo) RecentCompleted(ctx context.Context, limit int) ([]SessionEvent, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select("id", "session_id", "action", "mode", "ranges", "question_count", "score", "graded_total", "timestamp").
		From(entsql.Table(sessionEventsTable)).
		Where(entsql.EQ("action", ActionComplete)).
		OrderBy(entsql.Desc("id"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	defer rows.Close()

	var out []SessionEvent
	for rows.Next() {
		var (
			ev         SessionEvent
			rangesJSON string
			ts         string
		)
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Action, &ev.Mode, &rangesJSON,
			&ev.QuestionCount, &ev.Score, &ev.GradedTotal, &ts); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		if err := json.Unmarshal([]byte(rangesJSON), &ev.Ranges); err != nil {
			return nil, fmt.Errorf("unmarshal ranges: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}
		ev.Timestamp = parsed
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session events: %w", err)
	}
	return out, nil
}
