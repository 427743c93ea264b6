package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/resilience"
	"golang.org/x/time/rate"
)

// statusError is a non-200 listing response. wait is the server's
// Retry-After, if it sent one.
type statusError struct {
	code int
	wait time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("listing returned HTTP %d", e.code)
}

func (e *statusError) RetryAfter() time.Duration { return e.wait }

func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// retryable treats network failures, 429 and 5xx as transient.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return !errors.Is(err, context.Canceled)
}

// Reddit pages through a subreddit's newest comments.
type Reddit struct {
	client    *http.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
	pageSize  int
	maxPages  int
	timeout   time.Duration
	retry     resilience.RetryConfig
	logger    *slog.Logger
}

// NewReddit creates a fetcher. All requests share one limiter, so several
// sources crawled concurrently still respect the configured rate.
func NewReddit(cfg config.CrawlerConfig) *Reddit {
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Reddit{
		client:    &http.Client{},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(limit, burst),
		pageSize:  cfg.PageSize,
		maxPages:  cfg.MaxPages,
		timeout:   cfg.RequestTimeout,
		retry: resilience.RetryConfig{
			MaxAttempts:  4,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Retryable:    retryable,
		},
		logger: slog.Default().With("component", "reddit"),
	}
}

type listing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string        `json:"kind"`
			Data redditComment `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditComment struct {
	Name             string  `json:"name"`
	Author           string  `json:"author"`
	Body             string  `json:"body"`
	CreatedUTC       float64 `json:"created_utc"`
	LinkID           string  `json:"link_id"`
	ParentID         string  `json:"parent_id"`
	Permalink        string  `json:"permalink"`
	Controversiality int     `json:"controversiality"`
	Score            int     `json:"score"`
}

func (c redditComment) date() time.Time {
	sec, frac := math.Modf(c.CreatedUTC)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// Fetch emits comments of source newer than since, newest first, stopping
// at the first one that is not. Comments by deleted accounts are skipped.
func (r *Reddit) Fetch(ctx context.Context, source string, since time.Time, emit func(ingestion.RawComment) error) error {
	after := ""
	for page := 0; r.maxPages <= 0 || page < r.maxPages; page++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		var l *listing
		err := resilience.Retry(ctx, "reddit-listing", r.retry, func() error {
			var err error
			l, err = r.page(ctx, source, after)
			return err
		})
		if err != nil {
			return fmt.Errorf("fetching %s page %d: %w", source, page, err)
		}

		for _, child := range l.Data.Children {
			if child.Kind != "t1" {
				continue
			}
			c := child.Data
			if !c.date().After(since) {
				return nil
			}
			if c.Author == "" || c.Author == "[deleted]" {
				continue
			}
			if err := emit(r.translate(source, c)); err != nil {
				return err
			}
		}
		if l.Data.After == "" {
			return nil
		}
		after = l.Data.After
	}
	r.logger.Warn("page limit reached before high-water mark", "source", source, "max_pages", r.maxPages)
	return nil
}

func (r *Reddit) translate(source string, c redditComment) ingestion.RawComment {
	raw := ingestion.RawComment{
		ID:               c.Name,
		Source:           source,
		Author:           c.Author,
		Date:             c.date(),
		Raw:              c.Body,
		ThreadID:         c.LinkID,
		ParentID:         c.ParentID,
		Controversiality: c.Controversiality,
		Score:            c.Score,
	}
	if c.Permalink != "" {
		raw.URL = r.baseURL + c.Permalink
	}
	raw.Cooked, raw.Links = ingestion.Cook(raw.Raw)
	return raw
}

func (r *Reddit) page(ctx context.Context, source, after string) (*listing, error) {
	var l listing
	err := resilience.WithTimeout(ctx, r.timeout, "reddit-request", func(ctx context.Context) error {
		q := url.Values{}
		q.Set("raw_json", "1")
		if r.pageSize > 0 {
			q.Set("limit", strconv.Itoa(r.pageSize))
		}
		if after != "" {
			q.Set("after", after)
		}
		u := fmt.Sprintf("%s/r/%s/comments.json?%s", r.baseURL, url.PathEscape(source), q.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", r.userAgent)
		resp, err := r.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return &statusError{code: resp.StatusCode, wait: retryAfter(resp.Header)}
		}
		return json.NewDecoder(resp.Body).Decode(&l)
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}
