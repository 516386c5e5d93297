package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/noobular/noobular/internal/ledger"
)

// SaveSession inserts or updates a session's lifecycle row.
func (c *CourseStore) SaveSession(ctx context.Context, s ledger.Session) error {
	var ended any
	if !s.EndedAt.IsZero() {
		ended = toNanos(s.EndedAt)
	}
	q, args := builder().Insert(tableSessions).
		Columns("id", "course_id", "learner_id", "budget", "started_at", "ended_at").
		Values(s.ID, c.course, s.LearnerID, s.Budget, toNanos(s.StartedAt), ended).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := c.drv.Exec(ctx, q, args, nil); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// OpenSession returns the learner's most recently started open session, or
// nil when there is none.
func (c *CourseStore) OpenSession(ctx context.Context, learnerID string) (*ledger.Session, error) {
	q, args := builder().Select("id", "budget", "started_at").
		From(entsql.Table(tableSessions)).
		Where(entsql.And(
			entsql.EQ("course_id", c.course),
			entsql.EQ("learner_id", learnerID),
			entsql.IsNull("ended_at"),
		)).
		OrderBy(entsql.Desc("started_at")).
		Limit(1).
		Query()

	var rows entsql.Rows
	if err := c.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("query open session: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}

	s := ledger.Session{LearnerID: learnerID}
	var started int64
	if err := rows.Scan(&s.ID, &s.Budget, &started); err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	s.StartedAt = fromNanos(started)
	return &s, nil
}

// Session looks a session up by id. It returns sql.ErrNoRows when absent.
func (c *CourseStore) Session(ctx context.Context, id string) (ledger.Session, error) {
	q, args := builder().Select("learner_id", "budget", "started_at", "ended_at").
		From(entsql.Table(tableSessions)).
		Where(entsql.And(entsql.EQ("course_id", c.course), entsql.EQ("id", id))).
		Query()

	var rows entsql.Rows
	if err := c.drv.Query(ctx, q, args, &rows); err != nil {
		return ledger.Session{}, fmt.Errorf("query session: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return ledger.Session{}, err
		}
		return ledger.Session{}, sql.ErrNoRows
	}

	s := ledger.Session{ID: id}
	var started int64
	var ended sql.NullInt64
	if err := rows.Scan(&s.LearnerID, &s.Budget, &started, &ended); err != nil {
		return ledger.Session{}, fmt.Errorf("scan session: %w", err)
	}
	s.StartedAt = fromNanos(started)
	s.EndedAt = fromNanos(ended.Int64)
	return s, nil
}
