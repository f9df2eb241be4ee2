package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"blogboard/internal/service"
)

type signupForm struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type loginForm struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func (h *Handler) signupPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.tmpl", nil)
}

func (h *Handler) loginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.tmpl", nil)
}

func (h *Handler) signup(c *gin.Context) {
	var form signupForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "Email and password are required")
		return
	}
	fh, err := c.FormFile("profileImage")
	if err != nil {
		c.String(http.StatusBadRequest, "Profile image is required")
		return
	}

	ctx := c.Request.Context()
	ref, err := h.uploads.Store(ctx, fh)
	if err != nil {
		h.fail(c, err, "store profile image")
		return
	}

	if _, err := h.users.Register(ctx, form.Email, form.Password, ref); err != nil {
		if delErr := h.uploads.Delete(ctx, ref); delErr != nil {
			h.logger.WithField("ref", ref).Warnf("discard profile image: %v", delErr)
		}
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			c.String(http.StatusBadRequest, "Email already registered")
		case errors.Is(err, service.ErrInvalidInput):
			c.String(http.StatusBadRequest, err.Error())
		default:
			h.fail(c, err, "signup")
		}
		return
	}

	c.Redirect(http.StatusFound, "/login")
}

func (h *Handler) login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusUnauthorized, "Invalid credentials")
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), form.Email, form.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		c.String(http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.fail(c, err, "login")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.fail(c, err, "issue session token")
		return
	}
	h.setSession(c, token)
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) logout(c *gin.Context) {
	h.clearSession(c)
	c.Redirect(http.StatusFound, "/login")
}
