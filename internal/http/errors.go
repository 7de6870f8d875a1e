package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"blog-posts/internal/apperr"
)

const (
	messageNotFound      = "not found"
	messageBadRequest    = "bad request"
	messageInternalError = "Something went wrong"
)

// writeError turns err into a plain-text response. Only NotFound and
// BadRequest say anything about what went wrong.
func (s *Server) writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var ae *apperr.Error
	if !errors.As(err, &ae) {
		s.logger.ErrorContext(c.Request.Context(), "unclassified error", "err", err)
		c.String(http.StatusInternalServerError, messageInternalError)
		return
	}

	switch ae.Kind {
	case apperr.KindNotFound:
		c.String(http.StatusNotFound, messageNotFound)
	case apperr.KindBadRequest:
		reason := ae.Reason
		if reason == "" {
			reason = messageBadRequest
		}
		c.String(http.StatusBadRequest, reason)
	default:
		c.String(http.StatusInternalServerError, messageInternalError)
	}
}
