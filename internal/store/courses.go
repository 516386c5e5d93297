package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// CourseRecord is a course document the store has seen.
type CourseRecord struct {
	Hash     string
	Title    string
	LoadedAt time.Time
}

// RecordCourse remembers a course document by content hash. It reports
// false when the same document was recorded before.
func (s *Store) RecordCourse(ctx context.Context, c CourseRecord) (bool, error) {
	q, args := builder().Insert(tableCourses).
		Columns("hash", "title", "loaded_at").
		Values(c.Hash, c.Title, toNanos(c.LoadedAt)).
		OnConflict(
			entsql.ConflictColumns("hash"),
			entsql.DoNothing(),
		).
		Query()

	var res sql.Result
	if err := s.drv.Exec(ctx, q, args, &res); err != nil {
		return false, fmt.Errorf("record course: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record course: %w", err)
	}
	return n > 0, nil
}

// Courses lists recorded course documents, most recently loaded first.
func (s *Store) Courses(ctx context.Context) ([]CourseRecord, error) {
	q, args := builder().Select("hash", "title", "loaded_at").
		From(entsql.Table(tableCourses)).
		OrderBy(entsql.Desc("loaded_at"), "hash").
		Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var out []CourseRecord
	for rows.Next() {
		var c CourseRecord
		var loaded int64
		if err := rows.Scan(&c.Hash, &c.Title, &loaded); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		c.LoadedAt = fromNanos(loaded)
		out = append(out, c)
	}
	return out, rows.Err()
}
