package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token"
	"github.com/lib/pq"
)

func (s *Store) LookupTerm(ctx context.Context, v token.Variant, length int, key string) (int64, bool, error) {
	var idx int64
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT idx FROM dictionary WHERE variant = $1 AND length = $2 AND term_key = $3`,
		v.String(), length, key,
	).Scan(&idx)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("looking up %s/%d %q: %w", v, length, key, err)
	}
	return idx, true, nil
}

// NextIndex is the only read-modify-write in the schema. The returned value
// is the counter before the increment, so an absent counter yields 0.
func (s *Store) NextIndex(ctx context.Context, v token.Variant, length int) (int64, error) {
	var idx int64
	err := s.db.DB.QueryRowContext(ctx,
		`INSERT INTO counters (variant, length, next_index) VALUES ($1, $2, 1)
		ON CONFLICT (variant, length) DO UPDATE SET next_index = counters.next_index + 1
		RETURNING next_index - 1`,
		v.String(), length,
	).Scan(&idx)
	if err != nil {
		return 0, fmt.Errorf("incrementing counter %s/%d: %w", v, length, err)
	}
	return idx, nil
}

func (s *Store) InsertTerm(ctx context.Context, v token.Variant, length int, key string, idx int64) (int64, bool, error) {
	var stored int64
	err := s.db.DB.QueryRowContext(ctx,
		`INSERT INTO dictionary (variant, length, term_key, idx) VALUES ($1, $2, $3, $4)
		ON CONFLICT (variant, length, term_key) DO NOTHING
		RETURNING idx`,
		v.String(), length, key, idx,
	).Scan(&stored)
	if err == nil {
		return stored, true, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, fmt.Errorf("inserting %s/%d %q: %w", v, length, key, err)
	}
	// Lost the race: another writer committed the key first.
	existing, ok, err := s.LookupTerm(ctx, v, length, key)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, fmt.Errorf("inserting %s/%d %q: conflicting row vanished", v, length, key)
	}
	return existing, false, nil
}

func (s *Store) SeedTerms(ctx context.Context, v token.Variant, length int, keys []string) (bool, error) {
	seeded := false
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		var next int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO counters (variant, length, next_index) VALUES ($1, $2, $3)
			ON CONFLICT (variant, length) DO NOTHING
			RETURNING next_index`,
			v.String(), length, len(keys),
		).Scan(&next)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("creating counter %s/%d: %w", v, length, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO dictionary (variant, length, term_key, idx)
			SELECT $1, $2, k, i - 1 FROM unnest($3::text[]) WITH ORDINALITY AS t(k, i)`,
			v.String(), length, pq.Array(keys),
		)
		if err != nil {
			return fmt.Errorf("seeding dictionary %s/%d: %w", v, length, err)
		}
		seeded = true
		return nil
	})
	return seeded, err
}

func (s *Store) DictionarySize(ctx context.Context, v token.Variant, length int) (int64, error) {
	var next int64
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT next_index FROM counters WHERE variant = $1 AND length = $2`,
		v.String(), length,
	).Scan(&next)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading counter %s/%d: %w", v, length, err)
	}
	return next, nil
}
