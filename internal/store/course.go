package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/noobular/noobular/internal/ledger"
	"github.com/noobular/noobular/internal/mastery"
)

// CourseStore holds the ledger, mastery cache and sessions of one course.
// It satisfies ledger.Ledger.
type CourseStore struct {
	drv    *entsql.Driver
	course string
}

var _ ledger.Ledger = (*CourseStore)(nil)

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// withTx runs fn in a transaction, rolling back on error.
func (c *CourseStore) withTx(ctx context.Context, fn func(tx dialect.Tx) error) error {
	tx, err := c.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertEvent(ctx context.Context, tx dialect.Tx, course string, ev ledger.Event) (ledger.Event, error) {
	seq, err := nextSequence(ctx, tx)
	if err != nil {
		return ledger.Event{}, err
	}
	ev.Sequence = seq
	ev.Timestamp = ev.Timestamp.UTC()

	q, args := builder().Insert(tableEvents).
		Columns("sequence", "timestamp", "course_id", "learner_id", "node_id",
			"outcome", "score", "effort_spent", "session_id", "category").
		Values(ev.Sequence, toNanos(ev.Timestamp), course, ev.LearnerID, ev.NodeID,
			string(ev.Outcome), ev.Score, ev.EffortSpent, ev.SessionID, string(ev.Category)).
		Query()
	if err := tx.Exec(ctx, q, args, nil); err != nil {
		return ledger.Event{}, fmt.Errorf("insert attempt event: %w", err)
	}
	return ev, nil
}

// Append stores one attempt event in its own transaction.
func (c *CourseStore) Append(ctx context.Context, ev ledger.Event) (ledger.Event, error) {
	var out ledger.Event
	err := c.withTx(ctx, func(tx dialect.Tx) error {
		var err error
		out, err = insertEvent(ctx, tx, c.course, ev)
		return err
	})
	return out, err
}

var eventColumns = []string{
	"sequence", "timestamp", "learner_id", "node_id", "outcome",
	"score", "effort_spent", "session_id", "category",
}

func (c *CourseStore) EventsFor(ctx context.Context, learnerID string) iter.Seq2[ledger.Event, error] {
	return c.events(ctx, entsql.And(
		entsql.EQ("course_id", c.course),
		entsql.EQ("learner_id", learnerID),
	))
}

// SessionEvents yields the events recorded against one session.
func (c *CourseStore) SessionEvents(ctx context.Context, sessionID string) iter.Seq2[ledger.Event, error] {
	return c.events(ctx, entsql.And(
		entsql.EQ("course_id", c.course),
		entsql.EQ("session_id", sessionID),
	))
}

func (c *CourseStore) events(ctx context.Context, where *entsql.Predicate) iter.Seq2[ledger.Event, error] {
	return func(yield func(ledger.Event, error) bool) {
		q, args := builder().Select(eventColumns...).
			From(entsql.Table(tableEvents)).
			Where(where).
			OrderBy("sequence").
			Query()

		var rows entsql.Rows
		if err := c.drv.Query(ctx, q, args, &rows); err != nil {
			yield(ledger.Event{}, fmt.Errorf("query attempt events: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				ev               ledger.Event
				ts               int64
				outcome, category string
			)
			if err := rows.Scan(&ev.Sequence, &ts, &ev.LearnerID, &ev.NodeID, &outcome,
				&ev.Score, &ev.EffortSpent, &ev.SessionID, &category); err != nil {
				yield(ledger.Event{}, fmt.Errorf("scan attempt event: %w", err))
				return
			}
			ev.Timestamp = fromNanos(ts)
			ev.Outcome = ledger.Outcome(outcome)
			ev.Category = ledger.Category(category)
			if !yield(ev, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(ledger.Event{}, fmt.Errorf("iterate attempt events: %w", err))
		}
	}
}

// LatestSequence returns the sequence of the learner's most recent event,
// or 0 when there is none.
func (c *CourseStore) LatestSequence(ctx context.Context, learnerID string) (int64, error) {
	q, args := builder().Select(entsql.Max("sequence")).
		From(entsql.Table(tableEvents)).
		Where(entsql.And(
			entsql.EQ("course_id", c.course),
			entsql.EQ("learner_id", learnerID),
		)).
		Query()

	var rows entsql.Rows
	if err := c.drv.Query(ctx, q, args, &rows); err != nil {
		return 0, fmt.Errorf("query latest sequence: %w", err)
	}
	defer rows.Close()

	var seq sql.NullInt64
	if rows.Next() {
		if err := rows.Scan(&seq); err != nil {
			return 0, fmt.Errorf("scan latest sequence: %w", err)
		}
	}
	return seq.Int64, rows.Err()
}

// CommitAttempt appends ev and writes the node's updated mastery record in
// one transaction, advancing the cache cursor to the new event. rec must
// have been derived from a cache at cursor; if another writer has moved the
// cursor since, nothing is written and mastery.ErrStaleCache is returned.
func (c *CourseStore) CommitAttempt(ctx context.Context, ev ledger.Event, rec mastery.Record, cursor int64) (ledger.Event, error) {
	var out ledger.Event
	err := c.withTx(ctx, func(tx dialect.Tx) error {
		var err error
		// The insert takes the write lock, so the cursor read below sees
		// every committed attempt.
		if out, err = insertEvent(ctx, tx, c.course, ev); err != nil {
			return err
		}
		cur, err := readCursor(ctx, tx, c.course, ev.LearnerID)
		if err != nil {
			return err
		}
		if cur != cursor {
			return fmt.Errorf("%w: cursor at %d, record derived at %d", mastery.ErrStaleCache, cur, cursor)
		}
		if err := upsertRecords(ctx, tx, c.course, ev.LearnerID, []mastery.Record{rec}); err != nil {
			return err
		}
		return upsertCursor(ctx, tx, c.course, ev.LearnerID, out.Sequence)
	})
	return out, err
}
