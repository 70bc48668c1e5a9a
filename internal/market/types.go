package market

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrProviderUnavailable = errors.New("market provider unavailable")
	ErrDeadlineExceeded    = errors.New("market provider deadline exceeded")
	ErrRateLimited         = errors.New("market provider rate limited")
	ErrEmptyResult         = errors.New("market provider returned no data")
)

const (
	DefaultCurrency  = "INR"
	DefaultQuoteType = "EQUITY"
)

// Quote is a point-in-time price snapshot. It is rebuilt on every request.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"changePercent"`
	Currency      string  `json:"currency"`
	QuoteType     string  `json:"quoteType"`
	DisplayName   string  `json:"displayName"`
	// Live is false when the quote came from the mock table or was synthesized.
	Live bool `json:"-"`
}

type HistoryPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// RawQuote is what a provider returns for a single symbol. Optional fields
// are left empty when the upstream omits them.
type RawQuote struct {
	Price         float64
	ChangePercent float64
	Currency      string
	QuoteType     string
	LongName      string
	ShortName     string
}

type SearchHit struct {
	Symbol    string
	ShortName string
	LongName  string
	QuoteType string
	Exchange  string
}

type Candle struct {
	Date  time.Time
	Close decimal.Decimal
}

type HistoryQuery struct {
	Start    time.Time
	Interval string
}

// Range is a history range token.
type Range string

const (
	Range1D Range = "1D"
	Range1W Range = "1W"
	Range1M Range = "1M"
	Range6M Range = "6M"
	Range1Y Range = "1Y"
	Range5Y Range = "5Y"
)

// ParseRange maps a token to a Range; empty or unknown tokens become 1M.
func ParseRange(token string) Range {
	switch r := Range(token); r {
	case Range1D, Range1W, Range1M, Range6M, Range1Y, Range5Y:
		return r
	default:
		return Range1M
	}
}

// Window returns the lookback start relative to now and the sampling interval.
func (r Range) Window(now time.Time) (time.Time, string) {
	switch r {
	case Range1D:
		return now.AddDate(0, 0, -2), "15m"
	case Range1W:
		return now.AddDate(0, 0, -7), "1h"
	case Range6M:
		return now.AddDate(0, -6, 0), "1d"
	case Range1Y:
		return now.AddDate(-1, 0, 0), "1wk"
	case Range5Y:
		return now.AddDate(-5, 0, 0), "1mo"
	default:
		return now.AddDate(0, -1, 0), "1d"
	}
}

// mockPoints is the length of the synthesized series for r.
func (r Range) mockPoints() int {
	switch r {
	case Range1D:
		return 24
	case Range1W:
		return 7
	default:
		return 30
	}
}
