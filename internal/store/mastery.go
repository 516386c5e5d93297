package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/noobular/noobular/internal/mastery"
)

func upsertRecords(ctx context.Context, tx dialect.Tx, course, learnerID string, recs []mastery.Record) error {
	if len(recs) == 0 {
		return nil
	}
	ins := builder().Insert(tableMastery).
		Columns("course_id", "learner_id", "node_id", "level", "last_reviewed_at", "attempt_count", "ever_mastered")
	for _, r := range recs {
		ins.Values(course, learnerID, r.NodeID, r.Level, toNanos(r.LastReviewedAt), r.AttemptCount, r.EverMastered)
	}
	q, args := ins.OnConflict(
		entsql.ConflictColumns("course_id", "learner_id", "node_id"),
		entsql.ResolveWithNewValues(),
	).Query()
	if err := tx.Exec(ctx, q, args, nil); err != nil {
		return fmt.Errorf("upsert mastery records: %w", err)
	}
	return nil
}

func upsertCursor(ctx context.Context, tx dialect.Tx, course, learnerID string, seq int64) error {
	q, args := builder().Insert(tableCursors).
		Columns("course_id", "learner_id", "last_sequence").
		Values(course, learnerID, seq).
		OnConflict(
			entsql.ConflictColumns("course_id", "learner_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if err := tx.Exec(ctx, q, args, nil); err != nil {
		return fmt.Errorf("upsert mastery cursor: %w", err)
	}
	return nil
}

// LoadMastery reads the learner's cached mastery snapshot. LastSequence is
// the last event folded into the cache; compare it with LatestSequence to
// detect a stale cache.
func (c *CourseStore) LoadMastery(ctx context.Context, learnerID string) (*mastery.Snapshot, error) {
	snap := mastery.NewSnapshot()
	learner := entsql.And(
		entsql.EQ("course_id", c.course),
		entsql.EQ("learner_id", learnerID),
	)

	q, args := builder().Select("node_id", "level", "last_reviewed_at", "attempt_count", "ever_mastered").
		From(entsql.Table(tableMastery)).
		Where(learner).
		OrderBy("node_id").
		Query()
	var rows entsql.Rows
	if err := c.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("query mastery records: %w", err)
	}
	for rows.Next() {
		var (
			rec mastery.Record
			ts  int64
		)
		if err := rows.Scan(&rec.NodeID, &rec.Level, &ts, &rec.AttemptCount, &rec.EverMastered); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan mastery record: %w", err)
		}
		rec.LastReviewedAt = fromNanos(ts)
		snap.Set(rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate mastery records: %w", err)
	}
	rows.Close()

	seq, err := readCursor(ctx, c.drv, c.course, learnerID)
	if err != nil {
		return nil, err
	}
	snap.LastSequence = seq
	return snap, nil
}

// readCursor returns the sequence of the last event folded into the
// learner's cache, 0 when no cache has been written.
func readCursor(ctx context.Context, q dialect.ExecQuerier, course, learnerID string) (int64, error) {
	query, args := builder().Select("last_sequence").
		From(entsql.Table(tableCursors)).
		Where(entsql.And(
			entsql.EQ("course_id", course),
			entsql.EQ("learner_id", learnerID),
		)).
		Query()
	var rows entsql.Rows
	if err := q.Query(ctx, query, args, &rows); err != nil {
		return 0, fmt.Errorf("query mastery cursor: %w", err)
	}
	defer rows.Close()

	var seq int64
	if rows.Next() {
		if err := rows.Scan(&seq); err != nil {
			return 0, fmt.Errorf("scan mastery cursor: %w", err)
		}
	}
	return seq, rows.Err()
}

// SaveMastery replaces the learner's cached records with snap.
func (c *CourseStore) SaveMastery(ctx context.Context, learnerID string, snap *mastery.Snapshot) error {
	return c.withTx(ctx, func(tx dialect.Tx) error {
		q, args := builder().Delete(tableMastery).
			Where(entsql.And(
				entsql.EQ("course_id", c.course),
				entsql.EQ("learner_id", learnerID),
			)).
			Query()
		if err := tx.Exec(ctx, q, args, nil); err != nil {
			return fmt.Errorf("clear mastery records: %w", err)
		}

		recs := make([]mastery.Record, 0, len(snap.Records))
		for _, id := range snap.NodeIDs() {
			recs = append(recs, snap.Records[id])
		}
		if err := upsertRecords(ctx, tx, c.course, learnerID, recs); err != nil {
			return err
		}
		return upsertCursor(ctx, tx, c.course, learnerID, snap.LastSequence)
	})
}
