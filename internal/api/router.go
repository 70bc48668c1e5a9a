package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/hertz-contrib/cors"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/logger"
	"finance-tracker/internal/market"
	"finance-tracker/internal/store"
)

const healthText = "NEXORACREW backend running 🚀"

type Deps struct {
	Store       *store.Store
	Auth        *auth.Service
	Market      *market.Service
	Log         *logger.Log
	CORSOrigins []string
}

func RegisterRoutes(h *server.Hertz, d Deps) {
	if d.Log == nil {
		d.Log = logger.GetLogger()
	}
	log := d.Log.WithComponent("api")
	if d.Market == nil {
		d.Market = market.NewService(market.Absent(), market.Config{}, d.Log)
	}

	h.Use(accessLog(log))
	if len(d.CORSOrigins) > 0 {
		h.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	h.GET("/", func(_ context.Context, c *app.RequestContext) {
		c.String(http.StatusOK, healthText)
	})
	h.GET("/healthz", func(_ context.Context, c *app.RequestContext) {
		c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})

	v1 := h.Group("/api/v1")
	authGroup := v1.Group("/auth")
	if d.Auth == nil {
		authGroup.Use(notConfigured("auth service"))
	}
	registerAuth(authGroup, d.Auth, log)
	registerUsers(v1.Group("/users"), d.Store, log)
	registerTransactions(v1.Group("/transactions"), d.Store, log)
	registerBanks(v1.Group("/banks"))
	registerSipPlans(v1.Group("/sip-plans"), d.Store, log)
	registerMarket(v1.Group("/market"), d.Market)
}

// notConfigured answers every request in a group whose backing service was
// not supplied. A nil Store needs no guard: its methods report that themselves.
func notConfigured(what string) app.HandlerFunc {
	return func(_ context.Context, c *app.RequestContext) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, map[string]any{"message": what + " not configured"})
	}
}

func writeMessage(c *app.RequestContext, status int, msg string) {
	c.JSON(status, map[string]any{"message": msg})
}

// writeStoreError maps store failures onto the HTTP status the clients expect.
func writeStoreError(c *app.RequestContext, log *logger.Entry, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeMessage(c, http.StatusNotFound, "Not found")
	case errors.Is(err, store.ErrDuplicateEmail):
		writeMessage(c, http.StatusBadRequest, "User with this email already exists")
	case errors.Is(err, store.ErrInvalid):
		writeMessage(c, http.StatusBadRequest, err.Error())
	default:
		log.WithFields(logger.Fields{"op": op}).WithError(err).Error("store operation failed")
		writeMessage(c, http.StatusInternalServerError, err.Error())
	}
}

// decodeBody unmarshals the raw request body onto v, so fields absent from the
// body keep their current value.
func decodeBody(c *app.RequestContext, v any) error {
	body := c.Request.Body()
	if len(body) == 0 {
		return errors.New("empty request body")
	}
	return json.Unmarshal(body, v)
}

// bodyHasField reports whether the top-level JSON object in the body has key.
func bodyHasField(c *app.RequestContext, key string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(c.Request.Body(), &fields); err != nil {
		return false
	}
	_, ok := fields[key]
	return ok
}

func accessLog(log *logger.Entry) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)
		log.WithFields(logger.Fields{
			"method":     string(c.Method()),
			"path":       string(c.Path()),
			"status":     c.Response.StatusCode(),
			"latency_ms": time.Since(start).Milliseconds(),
		}).Info("request")
	}
}
