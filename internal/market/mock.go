package market

import (
	"math/rand/v2"
	"strings"
	"time"
)

type mockEntry struct {
	Symbol        string
	Price         float64
	ChangePercent float64
}

// mockTable is the last-resort price source. It is never mutated and its
// order is the scan order for search fallback.
var mockTable = []mockEntry{
	{Symbol: "^NSEI", Price: 22055.20, ChangePercent: 0.5},
	{Symbol: "^BSESN", Price: 72400.15, ChangePercent: 0.35},
	{Symbol: "GC=F", Price: 65000.00, ChangePercent: 0.1},
	{Symbol: "INR=X", Price: 83.15, ChangePercent: -0.05},
	{Symbol: "RELIANCE.NS", Price: 2980.50, ChangePercent: 1.2},
	{Symbol: "TCS.NS", Price: 4120.00, ChangePercent: -0.5},
	{Symbol: "HDFCBANK.NS", Price: 1450.75, ChangePercent: 0.2},
	{Symbol: "INFY.NS", Price: 1650.00, ChangePercent: 0.8},
	{Symbol: "SBI.NS", Price: 750.25, ChangePercent: 1.5},
	{Symbol: "SBIN.NS", Price: 760.00, ChangePercent: 1.1},
}

var mockIndex = func() map[string]mockEntry {
	m := make(map[string]mockEntry, len(mockTable))
	for _, e := range mockTable {
		m[e.Symbol] = e
	}
	return m
}()

const (
	searchSuffix     = ".NS"
	mockHistoryStart = 1000.0
	mockHistoryStep  = 25.0
)

// fallbackQuote answers from the mock table (exact, then upper-cased symbol)
// or synthesizes a price in [100,150) and change in [-1,1).
func fallbackQuote(symbol string) Quote {
	e, ok := mockIndex[symbol]
	if !ok {
		e, ok = mockIndex[strings.ToUpper(symbol)]
	}
	if !ok {
		e = mockEntry{
			Price:         100 + rand.Float64()*50,
			ChangePercent: (rand.Float64() - 0.5) * 2,
		}
	}
	return Quote{
		Symbol:        symbol,
		Price:         e.Price,
		ChangePercent: e.ChangePercent,
		Currency:      DefaultCurrency,
		QuoteType:     DefaultQuoteType,
		DisplayName:   symbol,
	}
}

// mockCandidates scans the mock table for symbols containing the upper-cased
// query and falls back to a single QUERY.NS candidate.
func mockCandidates(query string) []SearchHit {
	term := strings.ToUpper(query)
	var out []SearchHit
	for _, e := range mockTable {
		if strings.Contains(e.Symbol, term) {
			out = append(out, SearchHit{Symbol: e.Symbol})
		}
	}
	if len(out) == 0 {
		out = append(out, SearchHit{Symbol: term + searchSuffix})
	}
	return out
}

// mockHistory is a random walk of n daily points ending on today's date.
func mockHistory(n int, today time.Time) []HistoryPoint {
	out := make([]HistoryPoint, 0, n)
	price := mockHistoryStart
	for i := 0; i < n; i++ {
		price += (rand.Float64() - 0.5) * 2 * mockHistoryStep
		out = append(out, HistoryPoint{
			Date:  today.AddDate(0, 0, i-(n-1)).Format(time.DateOnly),
			Value: price,
		})
	}
	return out
}
