package market

import (
	"context"
	"strings"

	"golang.org/x/time/rate"

	"finance-tracker/internal/logger"
)

// Provider is the live market-data capability. Any call may fail or hang;
// callers bound the wait themselves.
//
//go:generate mockgen -source=provider.go -destination=mock_provider_test.go -package=market
type Provider interface {
	Quote(ctx context.Context, symbol string) (*RawQuote, error)
	Search(ctx context.Context, text string) ([]SearchHit, error)
	Historical(ctx context.Context, symbol string, q HistoryQuery) ([]Candle, error)
}

type absentProvider struct{}

// Absent returns the provider bound when no live source is configured or the
// live source failed to initialize. Every call fails with
// ErrProviderUnavailable.
func Absent() Provider { return absentProvider{} }

func (absentProvider) Quote(context.Context, string) (*RawQuote, error) {
	return nil, ErrProviderUnavailable
}

func (absentProvider) Search(context.Context, string) ([]SearchHit, error) {
	return nil, ErrProviderUnavailable
}

func (absentProvider) Historical(context.Context, string, HistoryQuery) ([]Candle, error) {
	return nil, ErrProviderUnavailable
}

// RateLimited gates a provider with a token bucket. It never waits for a
// token: when the bucket is empty the call fails with ErrRateLimited so the
// caller falls back immediately.
type RateLimited struct {
	P Provider
	L *rate.Limiter
}

// NewRateLimited wraps p with perMinute requests per minute and the given
// burst. perMinute <= 0 disables limiting and returns p unchanged.
func NewRateLimited(p Provider, perMinute, burst int) Provider {
	if perMinute <= 0 {
		return p
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{P: p, L: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst)}
}

func (r *RateLimited) Quote(ctx context.Context, symbol string) (*RawQuote, error) {
	if !r.L.Allow() {
		return nil, ErrRateLimited
	}
	return r.P.Quote(ctx, symbol)
}

func (r *RateLimited) Search(ctx context.Context, text string) ([]SearchHit, error) {
	if !r.L.Allow() {
		return nil, ErrRateLimited
	}
	return r.P.Search(ctx, text)
}

func (r *RateLimited) Historical(ctx context.Context, symbol string, q HistoryQuery) ([]Candle, error) {
	if !r.L.Allow() {
		return nil, ErrRateLimited
	}
	return r.P.Historical(ctx, symbol, q)
}

// BindProvider is the single initialization step that picks the live source.
// Kind "none", an unknown kind, or a failed initialization binds Absent.
func BindProvider(kind string, cfg YahooConfig, perMinute, burst int, log *logger.Entry) Provider {
	if strings.ToLower(kind) != "yahoo" {
		return Absent()
	}
	p, err := NewYahooProvider(cfg)
	if err != nil {
		if log != nil {
			log.WithError(err).Warn("yahoo provider init failed, market data will use fallback")
		}
		return Absent()
	}
	return NewRateLimited(p, perMinute, burst)
}
