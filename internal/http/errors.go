package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"blogboard/internal/domain"
	"blogboard/internal/repository"
	"blogboard/internal/service"
)

// respond maps service errors onto plain-text responses.
func (h *Handler) respond(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.String(http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrIndexOutOfRange), errors.Is(err, domain.ErrCommentNotFound):
		c.String(http.StatusBadRequest, "No such comment")
	case errors.Is(err, service.ErrInvalidInput):
		c.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		c.String(http.StatusForbidden, "Forbidden")
	default:
		h.fail(c, err, action)
	}
}

func (h *Handler) fail(c *gin.Context, err error, action string) {
	h.logger.WithField("path", c.Request.URL.Path).Errorf("%s: %v", action, err)
	c.String(http.StatusInternalServerError, "Something went wrong")
}
