package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/dictionary"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/store/memstore"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/token/tokentest"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/metrics"
)

func BenchmarkInsert(b *testing.B) {
	s := memstore.New()
	d, err := dictionary.New(s, 4096, metrics.NewNop())
	if err != nil {
		b.Fatal(err)
	}
	p := New(s, s, d, []int{1, 2, 3}, metrics.NewNop())
	n := tokentest.Normalizer()
	ctx := context.Background()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c, err := ingestion.NewComment(ingestion.RawComment{
			ID:     fmt.Sprintf("c%d", i),
			Source: "food",
			Author: fmt.Sprintf("user%d", i%50),
			Date:   day.Add(time.Duration(i) * time.Second),
			Raw:    "the fried pickles are better than the fries",
		}, n)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := p.Insert(ctx, c); err != nil {
			b.Fatal(err)
		}
	}
}
