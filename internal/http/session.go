package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"blogboard/internal/domain"
	"blogboard/internal/repository"
)

const (
	sessionCookie = "token"
	userKey       = "session_user"
)

// requireSession redirects to /login unless the request carries a valid session cookie
// for an existing user, and stores that user on the context.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err != nil || token == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		userID, err := h.tokens.Verify(token)
		if err != nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		user, err := h.users.GetByID(c.Request.Context(), userID)
		if errors.Is(err, repository.ErrNotFound) {
			h.clearSession(c)
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if err != nil {
			h.fail(c, err, "load session user")
			c.Abort()
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*domain.User); ok {
			return user
		}
	}
	return nil
}

func (h *Handler) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, 0, "/", "", h.cookieSecure, true)
}

func (h *Handler) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", h.cookieSecure, true)
}
