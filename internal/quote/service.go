package quote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"quoteservice/internal/metrics"
	"quoteservice/internal/provider"
	"quoteservice/internal/provider/cache"
)

// TimestampLayout is ISO-8601 with a numeric UTC offset, e.g. 2025-07-09T15:12:04-04:00.
const TimestampLayout = "2006-01-02T15:04:05-07:00"

const defaultTimeout = 3 * time.Second

// Result is a successful lookup. Timestamp is the time the lookup was
// answered, not when the price was fetched; FetchedAt carries the latter.
type Result struct {
	Ticker    string
	Price     float64
	Timestamp time.Time
	FetchedAt time.Time
	Cached    bool
}

// FormatTimestamp renders Timestamp with TimestampLayout.
func (r Result) FormatTimestamp() string { return r.Timestamp.Format(TimestampLayout) }

type Option func(*Service)

// WithTimeout bounds each upstream request.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service answers quote lookups from its cache, falling back to the upstream
// provider on a miss. Concurrent misses for one ticker share a single
// upstream call.
type Service struct {
	provider provider.Provider
	cache    *cache.Cache
	timeout  time.Duration
	now      func() time.Time
	log      *zap.Logger
	metrics  *metrics.Metrics

	sf singleflight.Group
}

func NewService(p provider.Provider, c *cache.Cache, opts ...Option) *Service {
	s := &Service{
		provider: p,
		cache:    c,
		timeout:  defaultTimeout,
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalize uppercases raw and checks that it is a non-empty run of ASCII letters.
func Normalize(raw string) (string, error) {
	ticker := strings.ToUpper(raw)
	if ticker == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidInput)
	}
	for i := 0; i < len(ticker); i++ {
		if ch := ticker[i]; ch < 'A' || ch > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidInput, raw)
		}
	}
	return ticker, nil
}

// Lookup returns the price for raw, serving from the cache while the entry is
// younger than the cache TTL.
func (s *Service) Lookup(ctx context.Context, raw string) (Result, error) {
	ticker, err := Normalize(raw)
	if err != nil {
		return Result{}, err
	}

	now := s.now()
	if e, ok := s.cache.Get(ticker, now); ok {
		s.metrics.CacheHit()
		return Result{Ticker: ticker, Price: e.Price, Timestamp: now, FetchedAt: e.FetchedAt, Cached: true}, nil
	}
	s.metrics.CacheMiss()

	v, err, shared := s.sf.Do(ticker, func() (any, error) {
		return s.fetch(ctx, ticker)
	})
	if err != nil {
		return Result{}, err
	}
	if shared {
		s.log.Debug("coalesced upstream fetch", zap.String("ticker", ticker))
	}
	e := v.(cache.Entry)
	return Result{Ticker: ticker, Price: e.Price, Timestamp: e.FetchedAt, FetchedAt: e.FetchedAt}, nil
}

func (s *Service) fetch(ctx context.Context, ticker string) (cache.Entry, error) {
	// the fetch may be shared, so one caller going away must not cancel it
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	start := time.Now()
	qs, err := s.provider.Fetch(ctx, []string{ticker})
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveUpstream(metrics.OutcomeError, elapsed)
		s.log.Warn("upstream quote request failed",
			zap.String("ticker", ticker),
			zap.String("provider", s.provider.Name()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return cache.Entry{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if len(qs) == 0 {
		s.metrics.ObserveUpstream(metrics.OutcomeNotFound, elapsed)
		return cache.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}
	s.metrics.ObserveUpstream(metrics.OutcomeOK, elapsed)

	e := cache.Entry{Price: qs[0].Price, FetchedAt: s.now()}
	s.cache.Put(ticker, e)
	s.metrics.SetCacheEntries(s.cache.Len())
	s.log.Debug("fetched quote",
		zap.String("ticker", ticker),
		zap.Float64("price", e.Price),
		zap.Duration("elapsed", elapsed),
	)
	return e, nil
}

// RunSweeper drops stale cache entries every interval until ctx is done.
// It returns immediately when interval is not positive.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.cache.Sweep(s.now()); n > 0 {
				s.log.Debug("swept stale quotes", zap.Int("removed", n))
			}
			s.metrics.SetCacheEntries(s.cache.Len())
		}
	}
}
