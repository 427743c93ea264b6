package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
	"github.com/lib/pq"
)

const commentColumns = `source, id, author, date, raw, cooked, thread_id, parent_id, url,
	links, controversiality, score, polarity, emotion, tokens`

func (s *Store) InsertComment(ctx context.Context, c *ingestion.Comment) error {
	tokens, err := json.Marshal(c.Tokens)
	if err != nil {
		return fmt.Errorf("encoding tokens of %s: %w", c.ID, err)
	}
	res, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO comments (`+commentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10::text[], '{}'), $11, $12, $13, $14, $15)
		ON CONFLICT (source, id) DO NOTHING`,
		c.Source, c.ID, c.Author, c.Date.UTC(), c.Raw, c.Cooked, c.ThreadID, c.ParentID, c.URL,
		pq.Array(c.Links), c.Controversiality, c.Score, c.Polarity, c.Emotion, tokens,
	)
	if err != nil {
		return fmt.Errorf("inserting comment %s/%s: %w", c.Source, c.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting comment %s/%s: %w", c.Source, c.ID, err)
	}
	if n == 0 {
		return apperrors.Newf(apperrors.ErrDuplicateEvent, 409, "comment %s/%s", c.Source, c.ID)
	}
	return nil
}

func (s *Store) GetComment(ctx context.Context, source, id string) (*ingestion.Comment, error) {
	row := s.db.DB.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE source = $1 AND id = $2`, source, id)
	c, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.Newf(apperrors.ErrNotFound, 404, "comment %s/%s", source, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading comment %s/%s: %w", source, id, err)
	}
	return c, nil
}

func (s *Store) ScanComments(ctx context.Context, source string, start, stop time.Time, fn func(*ingestion.Comment) error) error {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments
		WHERE source = $1 AND date >= $2 AND date < $3
		ORDER BY date`,
		source, start.UTC(), stop.UTC(),
	)
	if err != nil {
		return fmt.Errorf("scanning comments of %s: %w", source, err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return fmt.Errorf("scanning comment row: %w", err)
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) SourceExists(ctx context.Context, source string) (bool, error) {
	var exists bool
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM comments WHERE source = $1)`, source,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking source %s: %w", source, err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*ingestion.Comment, error) {
	var (
		c        ingestion.Comment
		polarity sql.NullFloat64
		tokens   []byte
	)
	err := row.Scan(
		&c.Source, &c.ID, &c.Author, &c.Date, &c.Raw, &c.Cooked, &c.ThreadID, &c.ParentID, &c.URL,
		pq.Array(&c.Links), &c.Controversiality, &c.Score, &polarity, &c.Emotion, &tokens,
	)
	if err != nil {
		return nil, err
	}
	c.Date = c.Date.UTC()
	if polarity.Valid {
		p := polarity.Float64
		c.Polarity = &p
	}
	if err := json.Unmarshal(tokens, &c.Tokens); err != nil {
		return nil, fmt.Errorf("decoding tokens of %s: %w", c.ID, err)
	}
	return &c, nil
}
