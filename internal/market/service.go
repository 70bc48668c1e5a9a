package market

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"finance-tracker/internal/logger"
)

const (
	DefaultQuoteTimeout   = 1500 * time.Millisecond
	DefaultSearchTimeout  = 5 * time.Second
	DefaultHistoryTimeout = 5 * time.Second
	maxSearchResults      = 5
)

// Index is one of the fixed instruments shown on the live ticker.
type Index struct {
	Name   string
	Symbol string
}

// LiveIndices is the fixed ticker set; results keep this order.
var LiveIndices = []Index{
	{Name: "Nifty 50", Symbol: "^NSEI"},
	{Name: "Sensex", Symbol: "^BSESN"},
	{Name: "Gold 24k", Symbol: "GC=F"},
	{Name: "USD / INR", Symbol: "INR=X"},
}

type IndexQuote struct {
	Index
	Quote Quote
}

type Config struct {
	QuoteTimeout   time.Duration
	SearchTimeout  time.Duration
	HistoryTimeout time.Duration
}

// Fallback reasons, used as counter keys.
const (
	ReasonTimeout     = "timeout"
	ReasonError       = "error"
	ReasonEmpty       = "empty"
	ReasonUnavailable = "unavailable"
	ReasonRateLimited = "rate_limited"
)

// Service resolves quotes, searches and history against a live provider and
// falls back to mock data on any failure. It holds no per-request state.
type Service struct {
	provider Provider
	cfg      Config
	log      *logger.Entry
	now      func() time.Time

	fallbacks map[string]*atomic.Int64
}

func NewService(provider Provider, cfg Config, log *logger.Log) *Service {
	if provider == nil {
		provider = Absent()
	}
	if cfg.QuoteTimeout <= 0 {
		cfg.QuoteTimeout = DefaultQuoteTimeout
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = DefaultSearchTimeout
	}
	if cfg.HistoryTimeout <= 0 {
		cfg.HistoryTimeout = DefaultHistoryTimeout
	}
	if log == nil {
		log = logger.GetLogger()
	}
	fallbacks := make(map[string]*atomic.Int64)
	for _, r := range []string{ReasonTimeout, ReasonError, ReasonEmpty, ReasonUnavailable, ReasonRateLimited} {
		fallbacks[r] = new(atomic.Int64)
	}
	return &Service{
		provider:  provider,
		cfg:       cfg,
		log:       log.WithComponent("market"),
		now:       time.Now,
		fallbacks: fallbacks,
	}
}

// GetQuote never fails: it returns live data when the provider answers in
// time with a usable price, otherwise mock or synthesized data.
func (s *Service) GetQuote(ctx context.Context, symbol string) Quote {
	raw, err := callWithDeadline(ctx, s.cfg.QuoteTimeout, func(ctx context.Context) (*RawQuote, error) {
		return s.provider.Quote(ctx, symbol)
	})
	if err == nil && (raw == nil || !usablePrice(raw.Price)) {
		err = ErrEmptyResult
	}
	if err != nil {
		s.recordFallback("quote", symbol, err)
		return fallbackQuote(symbol)
	}
	return liveQuote(symbol, raw)
}

// GetLiveIndices fetches the fixed ticker set concurrently. A failure for one
// symbol only affects that symbol.
func (s *Service) GetLiveIndices(ctx context.Context) []IndexQuote {
	out := make([]IndexQuote, len(LiveIndices))
	var g errgroup.Group
	for i, idx := range LiveIndices {
		g.Go(func() error {
			out[i] = IndexQuote{Index: idx, Quote: s.GetQuote(ctx, idx.Symbol)}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Search returns up to five enriched quotes for query. An empty query never
// reaches the provider.
func (s *Service) Search(ctx context.Context, query string) []Quote {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Quote{}
	}

	hits, err := callWithDeadline(ctx, s.cfg.SearchTimeout, func(ctx context.Context) ([]SearchHit, error) {
		return s.provider.Search(ctx, query)
	})
	if err == nil && len(hits) == 0 {
		err = ErrEmptyResult
	}
	if err != nil {
		s.recordFallback("search", query, err)
		hits = mockCandidates(query)
	}
	if len(hits) > maxSearchResults {
		hits = hits[:maxSearchResults]
	}

	enriched := make([]*Quote, len(hits))
	var g errgroup.Group
	for i, hit := range hits {
		g.Go(func() error {
			q, ok := s.enrich(ctx, hit)
			if ok {
				enriched[i] = &q
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Quote, 0, len(enriched))
	for _, q := range enriched {
		if q != nil {
			out = append(out, *q)
		}
	}
	return out
}

func (s *Service) enrich(ctx context.Context, hit SearchHit) (Quote, bool) {
	symbol := strings.TrimSpace(hit.Symbol)
	if symbol == "" {
		s.log.WithFields(logger.Fields{"op": "search"}).Warn("dropping search hit without symbol")
		return Quote{}, false
	}
	if ctx.Err() != nil {
		return Quote{}, false
	}
	return s.GetQuote(ctx, symbol), true
}

// History returns the closing-price series for symbol over the range token,
// oldest first. On any provider failure it returns a synthesized daily series.
func (s *Service) History(ctx context.Context, symbol, token string) []HistoryPoint {
	r := ParseRange(token)
	now := s.now().UTC()
	start, interval := r.Window(now)

	candles, err := callWithDeadline(ctx, s.cfg.HistoryTimeout, func(ctx context.Context) ([]Candle, error) {
		return s.provider.Historical(ctx, symbol, HistoryQuery{Start: start, Interval: interval})
	})
	if err == nil && len(candles) == 0 {
		err = ErrEmptyResult
	}
	if err != nil {
		s.recordFallback("history", symbol, err)
		return mockHistory(r.mockPoints(), now)
	}

	out := make([]HistoryPoint, 0, len(candles))
	for _, c := range candles {
		out = append(out, HistoryPoint{
			Date:  c.Date.UTC().Format(time.DateOnly),
			Value: c.Close.InexactFloat64(),
		})
	}
	return out
}

// FallbackStats returns the number of fallbacks taken per reason since start.
func (s *Service) FallbackStats() map[string]int64 {
	out := make(map[string]int64, len(s.fallbacks))
	for k, v := range s.fallbacks {
		out[k] = v.Load()
	}
	return out
}

func (s *Service) recordFallback(op, subject string, err error) {
	reason := fallbackReason(err)
	s.fallbacks[reason].Add(1)
	s.log.WithFields(logger.Fields{
		"op":      op,
		"subject": subject,
		"reason":  reason,
	}).WithError(err).Warn("live market data unavailable, using fallback")
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrDeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, ErrProviderUnavailable):
		return ReasonUnavailable
	case errors.Is(err, ErrRateLimited):
		return ReasonRateLimited
	case errors.Is(err, ErrEmptyResult):
		return ReasonEmpty
	default:
		return ReasonError
	}
}

func liveQuote(symbol string, raw *RawQuote) Quote {
	q := Quote{
		Symbol:        symbol,
		Price:         raw.Price,
		ChangePercent: raw.ChangePercent,
		Currency:      firstNonEmpty(raw.Currency, DefaultCurrency),
		QuoteType:     firstNonEmpty(raw.QuoteType, DefaultQuoteType),
		DisplayName:   firstNonEmpty(raw.LongName, raw.ShortName, symbol),
		Live:          true,
	}
	if math.IsNaN(q.ChangePercent) || math.IsInf(q.ChangePercent, 0) {
		q.ChangePercent = 0
	}
	return q
}

// usablePrice rejects only a missing (zero) or non-finite price; some
// instruments legitimately trade below zero.
func usablePrice(p float64) bool {
	return p != 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
