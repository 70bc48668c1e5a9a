package api

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/route"
	"golang.org/x/crypto/bcrypt"

	"finance-tracker/internal/logger"
	"finance-tracker/internal/store"
)

type createUserRequest struct {
	store.User
	// Password is optional here; users created without one cannot log in.
	Password string `json:"password"`
}

func registerUsers(g *route.RouterGroup, st *store.Store, log *logger.Entry) {
	g.GET("", func(_ context.Context, c *app.RequestContext) {
		users, err := st.ListUsers()
		if err != nil {
			writeStoreError(c, log, "list users", err)
			return
		}
		c.JSON(http.StatusOK, users)
	})

	g.POST("", func(_ context.Context, c *app.RequestContext) {
		var req createUserRequest
		if err := decodeBody(c, &req); err != nil {
			writeMessage(c, http.StatusBadRequest, "invalid json body")
			return
		}
		u := req.User
		if req.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
			if err != nil {
				writeMessage(c, http.StatusInternalServerError, err.Error())
				return
			}
			u.Password = string(hash)
		}
		created, err := st.CreateUser(u)
		if err != nil {
			writeStoreError(c, log, "create user", err)
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	g.PUT("/:id", func(_ context.Context, c *app.RequestContext) {
		updated, err := st.UpdateUser(c.Param("id"), func(u *store.User) error {
			return decodeBody(c, u)
		})
		if err != nil {
			writeStoreError(c, log, "update user", err)
			return
		}
		c.JSON(http.StatusOK, updated)
	})

	g.DELETE("/:id", func(_ context.Context, c *app.RequestContext) {
		if err := st.DeleteUser(c.Param("id")); err != nil {
			writeStoreError(c, log, "delete user", err)
			return
		}
		writeMessage(c, http.StatusOK, "User deleted successfully")
	})
}

func registerTransactions(g *route.RouterGroup, st *store.Store, log *logger.Entry) {
	g.GET("", func(_ context.Context, c *app.RequestContext) {
		txs, err := st.ListTransactions(c.Query("userId"))
		if err != nil {
			writeStoreError(c, log, "list transactions", err)
			return
		}
		c.JSON(http.StatusOK, txs)
	})

	g.POST("", func(_ context.Context, c *app.RequestContext) {
		var tx store.Transaction
		if err := decodeBody(c, &tx); err != nil {
			writeMessage(c, http.StatusBadRequest, "invalid json body")
			return
		}
		created, err := st.CreateTransaction(tx)
		if err != nil {
			writeStoreError(c, log, "create transaction", err)
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	g.PUT("/:id", func(_ context.Context, c *app.RequestContext) {
		updated, err := st.UpdateTransaction(c.Param("id"), func(tx *store.Transaction) error {
			return decodeBody(c, tx)
		})
		if err != nil {
			writeStoreError(c, log, "update transaction", err)
			return
		}
		c.JSON(http.StatusOK, updated)
	})

	g.DELETE("/:id", func(_ context.Context, c *app.RequestContext) {
		if err := st.DeleteTransaction(c.Param("id")); err != nil {
			writeStoreError(c, log, "delete transaction", err)
			return
		}
		writeMessage(c, http.StatusOK, "Transaction deleted")
	})
}

func registerSipPlans(g *route.RouterGroup, st *store.Store, log *logger.Entry) {
	g.GET("", func(_ context.Context, c *app.RequestContext) {
		plans, err := st.ListSipPlans()
		if err != nil {
			writeStoreError(c, log, "list sip plans", err)
			return
		}
		c.JSON(http.StatusOK, plans)
	})

	g.POST("", func(_ context.Context, c *app.RequestContext) {
		var p store.SipPlan
		if err := decodeBody(c, &p); err != nil {
			writeMessage(c, http.StatusBadRequest, "invalid json body")
			return
		}
		created, err := st.CreateSipPlan(p)
		if err != nil {
			writeStoreError(c, log, "create sip plan", err)
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	g.PUT("/:id", func(_ context.Context, c *app.RequestContext) {
		updated, err := st.UpdateSipPlan(c.Param("id"), func(p *store.SipPlan) error {
			// Members in the body replace the stored list; they never merge into it.
			if bodyHasField(c, "members") {
				p.Members = nil
			}
			return decodeBody(c, p)
		})
		if err != nil {
			writeStoreError(c, log, "update sip plan", err)
			return
		}
		c.JSON(http.StatusOK, updated)
	})

	g.DELETE("/:id", func(_ context.Context, c *app.RequestContext) {
		if err := st.DeactivateSipPlan(c.Param("id")); err != nil {
			writeStoreError(c, log, "deactivate sip plan", err)
			return
		}
		writeMessage(c, http.StatusOK, "Plan deactivated")
	})
}

// Banks are not persisted yet; the routes keep the client contract.
func registerBanks(g *route.RouterGroup) {
	g.GET("", func(_ context.Context, c *app.RequestContext) {
		c.JSON(http.StatusOK, []any{})
	})
	g.POST("", func(_ context.Context, c *app.RequestContext) {
		writeMessage(c, http.StatusOK, "Bank added")
	})
	g.DELETE("/:id", func(_ context.Context, c *app.RequestContext) {
		writeMessage(c, http.StatusOK, "Bank deleted")
	})
}
