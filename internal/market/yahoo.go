package market

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
)

const defaultSearchEndpoint = "https://query2.finance.yahoo.com/v1/finance/search"

// Doer is the subset of the hertz client used for search requests.
type Doer interface {
	Do(ctx context.Context, req *protocol.Request, resp *protocol.Response) error
}

type YahooConfig struct {
	SearchEndpoint string
	Timeout        time.Duration
	UserAgent      string
}

// YahooProvider reads quotes and candles through finance-go and searches via
// the Yahoo search endpoint. finance-go calls take no context; callers bound
// them with a deadline.
type YahooProvider struct {
	cfg    YahooConfig
	client Doer
}

func NewYahooProvider(cfg YahooConfig) (*YahooProvider, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	c, err := client.NewClient(
		client.WithDialer(standard.NewDialer()),
		client.WithTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}),
		client.WithDialTimeout(3*time.Second),
		client.WithClientReadTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("build search client: %w", err)
	}
	return NewYahooProviderWithClient(cfg, c), nil
}

// NewYahooProviderWithClient uses doer for search requests.
func NewYahooProviderWithClient(cfg YahooConfig, doer Doer) *YahooProvider {
	if cfg.SearchEndpoint == "" {
		cfg.SearchEndpoint = defaultSearchEndpoint
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (compatible; finance-tracker/1.0)"
	}
	return &YahooProvider{cfg: cfg, client: doer}
}

func (p *YahooProvider) Quote(_ context.Context, symbol string) (*RawQuote, error) {
	q, err := equity.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}
	if q == nil {
		return nil, ErrEmptyResult
	}
	return &RawQuote{
		Price:         q.RegularMarketPrice,
		ChangePercent: q.RegularMarketChangePercent,
		Currency:      q.CurrencyID,
		QuoteType:     string(q.QuoteType),
		LongName:      q.LongName,
		ShortName:     q.ShortName,
	}, nil
}

func (p *YahooProvider) Historical(_ context.Context, symbol string, hq HistoryQuery) ([]Candle, error) {
	start := hq.Start
	end := time.Now()
	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.Interval(hq.Interval),
	})

	var out []Candle
	for iter.Next() {
		bar := iter.Bar()
		out = append(out, Candle{
			Date:  time.Unix(int64(bar.Timestamp), 0).UTC(),
			Close: bar.Close,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	return out, nil
}

type yahooSearchResp struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		QuoteType string `json:"quoteType"`
		Exchange  string `json:"exchange"`
	} `json:"quotes"`
}

func (p *YahooProvider) Search(ctx context.Context, text string) ([]SearchHit, error) {
	u, err := url.Parse(p.cfg.SearchEndpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", text)
	q.Set("quotesCount", "10")
	q.Set("newsCount", "0")
	u.RawQuery = q.Encode()

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()
	req.SetRequestURI(u.String())
	req.SetMethod(consts.MethodGet)
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	if err := p.client.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("request yahoo search: %w", err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return nil, fmt.Errorf("yahoo search status %d", code)
	}

	var payload yahooSearchResp
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("decode yahoo search: %w", err)
	}
	out := make([]SearchHit, 0, len(payload.Quotes))
	for _, item := range payload.Quotes {
		if strings.TrimSpace(item.Symbol) == "" {
			continue
		}
		out = append(out, SearchHit{
			Symbol:    item.Symbol,
			ShortName: item.ShortName,
			LongName:  item.LongName,
			QuoteType: item.QuoteType,
			Exchange:  item.Exchange,
		})
	}
	return out, nil
}
