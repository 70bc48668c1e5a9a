package api

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/route"

	"finance-tracker/internal/market"
)

type liveItem struct {
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Change   float64 `json:"change"`
	Currency string  `json:"currency"`
	Source   string  `json:"source"`
}

type searchItem struct {
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Change   float64 `json:"change"`
	Currency string  `json:"currency"`
	Type     string  `json:"type"`
}

// Market routes never fail: the resolver always has an answer.
func registerMarket(g *route.RouterGroup, svc *market.Service) {
	g.GET("/live", func(ctx context.Context, c *app.RequestContext) {
		indices := svc.GetLiveIndices(ctx)
		out := make([]liveItem, 0, len(indices))
		for _, iq := range indices {
			out = append(out, liveItem{
				Name:     iq.Name,
				Symbol:   iq.Symbol,
				Price:    iq.Quote.Price,
				Change:   iq.Quote.ChangePercent,
				Currency: iq.Quote.Currency,
				// Always LIVE, including fallback values.
				Source: "LIVE",
			})
		}
		c.JSON(http.StatusOK, out)
	})

	g.GET("/search", func(ctx context.Context, c *app.RequestContext) {
		quotes := svc.Search(ctx, c.Query("q"))
		out := make([]searchItem, 0, len(quotes))
		for _, q := range quotes {
			out = append(out, searchItem{
				Name:     q.DisplayName,
				Symbol:   q.Symbol,
				Price:    q.Price,
				Change:   q.ChangePercent,
				Currency: q.Currency,
				Type:     q.QuoteType,
			})
		}
		c.JSON(http.StatusOK, out)
	})

	g.GET("/history/:symbol", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(http.StatusOK, svc.History(ctx, c.Param("symbol"), c.Query("range")))
	})

	g.GET("/stats", func(_ context.Context, c *app.RequestContext) {
		c.JSON(http.StatusOK, map[string]any{"fallbacks": svc.FallbackStats()})
	})
}
