package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store"
	"github.com/lib/pq"
)

const dayLayout = "2006-01-02"

// Merge upserts one contribution. Set columns only grow when the value is
// new; sample columns always grow. The whole update runs under the row lock
// taken by ON CONFLICT.
func (s *Store) Merge(ctx context.Context, c store.Contribution) error {
	_, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO aggregates (source, day, variant, length, term_key, raw_forms, pos_forms,
			count, total, users, documents, polarity_samples, controversy_samples, emotion_samples)
		VALUES ($1, $2::date, $3, $4, $5, ARRAY[$6::text], ARRAY[$7::text],
			1, 1, ARRAY[$8::text], ARRAY[$9::text], ARRAY[$10::double precision], ARRAY[$11::integer], ARRAY[$12::text])
		ON CONFLICT (source, day, variant, length, term_key) DO UPDATE SET
			count = aggregates.count + 1,
			total = aggregates.total + 1,
			raw_forms = CASE WHEN $6::text = ANY (aggregates.raw_forms)
				THEN aggregates.raw_forms ELSE array_append(aggregates.raw_forms, $6::text) END,
			pos_forms = CASE WHEN $7::text = ANY (aggregates.pos_forms)
				THEN aggregates.pos_forms ELSE array_append(aggregates.pos_forms, $7::text) END,
			users = CASE WHEN $8::text = ANY (aggregates.users)
				THEN aggregates.users ELSE array_append(aggregates.users, $8::text) END,
			documents = CASE WHEN $9::text = ANY (aggregates.documents)
				THEN aggregates.documents ELSE array_append(aggregates.documents, $9::text) END,
			polarity_samples = array_append(aggregates.polarity_samples, $10::double precision),
			controversy_samples = array_append(aggregates.controversy_samples, $11::integer),
			emotion_samples = array_append(aggregates.emotion_samples, $12::text)`,
		c.Source, c.Day.UTC().Format(dayLayout), c.Variant.String(), c.Length, c.Key, c.Raw, c.POS,
		c.User, c.Document, c.Polarity, c.Controversiality, c.Emotion,
	)
	if err != nil {
		return fmt.Errorf("merging %s/%d %q on %s: %w", c.Variant, c.Length, c.Key, c.Day.Format(dayLayout), err)
	}
	return nil
}

func (s *Store) ScanAggregates(ctx context.Context, f store.AggregateFilter, fn func(*store.AggregateRecord) error) error {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT to_char(a.day, 'YYYY-MM-DD'), a.term_key, COALESCE(d.idx, -1), a.raw_forms, a.pos_forms,
			a.count, a.total, a.users, a.documents,
			a.polarity_samples, a.controversy_samples, a.emotion_samples
		FROM aggregates a
		LEFT JOIN dictionary d
			ON d.variant = a.variant AND d.length = a.length AND d.term_key = a.term_key
		WHERE a.source = $1 AND a.variant = $2 AND a.length = $3
			AND a.day >= $4::date AND a.day < $5::date
			AND ($6::text = '' OR a.term_key = $6::text)
		ORDER BY a.day, a.term_key`,
		f.Source, f.Variant.String(), f.Length,
		f.From.UTC().Format(dayLayout), f.To.UTC().Format(dayLayout), f.Key,
	)
	if err != nil {
		return fmt.Errorf("scanning aggregates of %s: %w", f.Source, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			day         string
			polarity    []sql.NullFloat64
			controversy pq.Int64Array
			rec         = store.AggregateRecord{Source: f.Source, Variant: f.Variant, Length: f.Length}
		)
		err := rows.Scan(&day, &rec.Key, &rec.Index,
			pq.Array(&rec.RawForms), pq.Array(&rec.POSForms),
			&rec.Count, &rec.Total, pq.Array(&rec.Users), pq.Array(&rec.Documents),
			pq.Array(&polarity), &controversy, pq.Array(&rec.EmotionSamples),
		)
		if err != nil {
			return fmt.Errorf("scanning aggregate row: %w", err)
		}
		rec.Day, err = time.Parse(dayLayout, day)
		if err != nil {
			return fmt.Errorf("parsing aggregate day %q: %w", day, err)
		}
		rec.PolaritySamples = make([]*float64, len(polarity))
		for i, p := range polarity {
			if p.Valid {
				v := p.Float64
				rec.PolaritySamples[i] = &v
			}
		}
		rec.ControversySamples = make([]int, len(controversy))
		for i, c := range controversy {
			rec.ControversySamples[i] = int(c)
		}
		if err := fn(&rec); err != nil {
			return err
		}
	}
	return rows.Err()
}
