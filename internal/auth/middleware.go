package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
)

// UserIDKey is the request-context key RequireAuth stores the caller's id under.
const UserIDKey = "userID"

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(s *Service) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		header := string(c.GetHeader("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, map[string]any{"message": "Not authorized, no token"})
			return
		}
		id, err := s.Verify(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, map[string]any{"message": "Not authorized, token failed"})
			return
		}
		c.Set(UserIDKey, id)
		c.Next(ctx)
	}
}

// UserID returns the id set by RequireAuth.
func UserID(c *app.RequestContext) string {
	return c.GetString(UserIDKey)
}
