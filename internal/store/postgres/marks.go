package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

func (s *Store) LastDate(ctx context.Context, source string) (time.Time, bool, error) {
	var t time.Time
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT last_date FROM source_marks WHERE source = $1`, source,
	).Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading mark of %s: %w", source, err)
	}
	return t.UTC(), true, nil
}

func (s *Store) SetLastDate(ctx context.Context, source string, t time.Time) error {
	_, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO source_marks (source, last_date) VALUES ($1, $2)
		ON CONFLICT (source) DO UPDATE SET last_date = EXCLUDED.last_date`,
		source, t.UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing mark of %s: %w", source, err)
	}
	return nil
}
