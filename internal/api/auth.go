package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/route"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/logger"
	"finance-tracker/internal/store"
)

func registerAuth(g *route.RouterGroup, svc *auth.Service, log *logger.Entry) {
	g.POST("/register", func(_ context.Context, c *app.RequestContext) {
		var req auth.RegisterInput
		if err := c.BindJSON(&req); err != nil {
			writeMessage(c, http.StatusBadRequest, "invalid json body")
			return
		}
		sess, err := svc.Register(req)
		switch {
		case errors.Is(err, auth.ErrMissingFields):
			writeMessage(c, http.StatusBadRequest, "All fields required")
			return
		case errors.Is(err, store.ErrDuplicateEmail):
			writeMessage(c, http.StatusBadRequest, "Email already exists")
			return
		case errors.Is(err, store.ErrInvalid):
			writeMessage(c, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			log.WithError(err).Error("register failed")
			writeMessage(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusCreated, map[string]any{"user": sess})
	})

	g.POST("/login", func(_ context.Context, c *app.RequestContext) {
		var req auth.LoginInput
		if err := c.BindJSON(&req); err != nil {
			writeMessage(c, http.StatusBadRequest, "invalid json body")
			return
		}
		sess, err := svc.Login(req)
		switch {
		case errors.Is(err, auth.ErrMissingFields):
			writeMessage(c, http.StatusBadRequest, "Email and password are required")
			return
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeMessage(c, http.StatusUnauthorized, "Invalid credentials")
			return
		case err != nil:
			log.WithError(err).Error("login failed")
			writeMessage(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, map[string]any{"user": sess})
	})

	g.GET("/me", auth.RequireAuth(svc), func(_ context.Context, c *app.RequestContext) {
		u, err := svc.Me(auth.UserID(c))
		if errors.Is(err, auth.ErrInvalidToken) {
			writeMessage(c, http.StatusUnauthorized, "Not authorized, user not found")
			return
		}
		if err != nil {
			writeStoreError(c, log, "me", err)
			return
		}
		c.JSON(http.StatusOK, u)
	})
}
