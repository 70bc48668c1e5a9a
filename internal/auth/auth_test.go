package auth

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"finance-tracker/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	s, err := NewService(st, Config{Secret: "test-secret", BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	return s, st
}

func TestNewService_RequiresSecret(t *testing.T) {
	_, err := NewService(nil, Config{})
	require.Error(t, err)
}

func TestRegisterThenLogin(t *testing.T) {
	s, st := newTestService(t)

	// Act
	sess, err := s.Register(RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "pw123", Position: "CFO"})

	// Assert
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	require.Equal(t, "CFO", sess.Position)
	id, err := s.Verify(sess.Token)
	require.NoError(t, err)
	require.Equal(t, sess.ID, id)

	stored, err := st.GetUser(sess.ID)
	require.NoError(t, err)
	require.NotEqual(t, "pw123", stored.Password)

	logged, err := s.Login(LoginInput{Email: "asha@example.com", Password: "pw123"})
	require.NoError(t, err)
	require.Equal(t, sess.ID, logged.ID)
}

func TestRegister_Failures(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Register(RegisterInput{Name: "A", Email: "a@example.com", Position: "P"})
	require.ErrorIs(t, err, ErrMissingFields)

	_, err = s.Register(RegisterInput{Name: "A", Email: "a@example.com", Password: "x", Position: "P"})
	require.NoError(t, err)
	_, err = s.Register(RegisterInput{Name: "B", Email: "a@example.com", Password: "y", Position: "P"})
	require.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func TestLogin_Failures(t *testing.T) {
	s, st := newTestService(t)
	_, err := s.Register(RegisterInput{Name: "A", Email: "a@example.com", Password: "right", Position: "P"})
	require.NoError(t, err)
	_, err = st.CreateUser(store.User{Name: "NoPw", Email: "nopw@example.com", Position: "P"})
	require.NoError(t, err)

	cases := map[string]struct {
		in   LoginInput
		want error
	}{
		"missing password": {LoginInput{Email: "a@example.com"}, ErrMissingFields},
		"unknown email":    {LoginInput{Email: "z@example.com", Password: "x"}, ErrInvalidCredentials},
		"wrong password":   {LoginInput{Email: "a@example.com", Password: "wrong"}, ErrInvalidCredentials},
		"no password set":  {LoginInput{Email: "nopw@example.com", Password: "x"}, ErrInvalidCredentials},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Login(tc.in)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestVerify_RejectsExpiredAndForeignTokens(t *testing.T) {
	s, _ := newTestService(t)
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }

	tok, err := s.IssueToken("user-1")
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(6 * 24 * time.Hour) }
	_, err = s.Verify(tok)
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(8 * 24 * time.Hour) }
	_, err = s.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)

	s.now = time.Now
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = s.Verify(foreign)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Verify("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireAuth(t *testing.T) {
	s, _ := newTestService(t)
	tok, err := s.IssueToken("user-42")
	require.NoError(t, err)

	engine := route.NewEngine(config.NewOptions([]config.Option{}))
	engine.GET("/me", RequireAuth(s), func(_ context.Context, c *app.RequestContext) {
		c.String(http.StatusOK, UserID(c))
	})

	w := ut.PerformRequest(engine, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusUnauthorized, w.Result().StatusCode())

	w = ut.PerformRequest(engine, http.MethodGet, "/me", nil, ut.Header{Key: "Authorization", Value: "Bearer garbage"})
	require.Equal(t, http.StatusUnauthorized, w.Result().StatusCode())

	w = ut.PerformRequest(engine, http.MethodGet, "/me", nil, ut.Header{Key: "Authorization", Value: "Bearer " + tok})
	require.Equal(t, http.StatusOK, w.Result().StatusCode())
	require.Equal(t, "user-42", string(w.Result().Body()))
}
