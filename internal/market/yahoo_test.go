package market

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/stretchr/testify/require"
)

type fakeDoer struct {
	status int
	body   string
	err    error

	gotURI string
	gotUA  string
}

func (f *fakeDoer) Do(_ context.Context, req *protocol.Request, resp *protocol.Response) error {
	f.gotURI = string(req.URI().FullURI())
	f.gotUA = string(req.Header.Peek("User-Agent"))
	if f.err != nil {
		return f.err
	}
	resp.SetStatusCode(f.status)
	resp.SetBodyString(f.body)
	return nil
}

func TestYahooSearch_ParsesQuotes(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{status: 200, body: `{"quotes":[
		{"symbol":"RELIANCE.NS","shortname":"RELIANCE IND","longname":"Reliance Industries Limited","quoteType":"EQUITY","exchange":"NSI"},
		{"symbol":"","shortname":"news item"},
		{"symbol":"RELIANCE.BO","shortname":"RELIANCE","quoteType":"EQUITY","exchange":"BSE"}
	]}`}
	p := NewYahooProviderWithClient(YahooConfig{SearchEndpoint: "https://example.test/v1/finance/search"}, doer)

	hits, err := p.Search(t.Context(), "reliance ind")
	require.NoError(t, err)
	require.Equal(t, []SearchHit{
		{Symbol: "RELIANCE.NS", ShortName: "RELIANCE IND", LongName: "Reliance Industries Limited", QuoteType: "EQUITY", Exchange: "NSI"},
		{Symbol: "RELIANCE.BO", ShortName: "RELIANCE", QuoteType: "EQUITY", Exchange: "BSE"},
	}, hits)

	u, err := url.Parse(doer.gotURI)
	require.NoError(t, err)
	require.Equal(t, "example.test", u.Host)
	require.Equal(t, "reliance ind", u.Query().Get("q"))
	require.Equal(t, "0", u.Query().Get("newsCount"))
	require.NotEmpty(t, doer.gotUA)
}

func TestYahooSearch_Failures(t *testing.T) {
	t.Parallel()

	cases := map[string]*fakeDoer{
		"transport": {err: errors.New("dial tcp: i/o timeout")},
		"status":    {status: 429, body: "Too Many Requests"},
		"decode":    {status: 200, body: "<html>"},
	}
	for name, doer := range cases {
		t.Run(name, func(t *testing.T) {
			p := NewYahooProviderWithClient(YahooConfig{}, doer)
			hits, err := p.Search(t.Context(), "tcs")
			require.Error(t, err)
			require.Nil(t, hits)
		})
	}
}

func TestYahooSearch_DefaultEndpoint(t *testing.T) {
	t.Parallel()

	doer := &fakeDoer{status: 200, body: `{"quotes":[]}`}
	p := NewYahooProviderWithClient(YahooConfig{}, doer)

	hits, err := p.Search(t.Context(), "x")
	require.NoError(t, err)
	require.Empty(t, hits)
	u, err := url.Parse(doer.gotURI)
	require.NoError(t, err)
	require.Equal(t, "query2.finance.yahoo.com", u.Host)
}
