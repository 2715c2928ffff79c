package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"personal-calendar/internal/auth"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20
)

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)

		c.Next()

		fields := logrus.Fields{
			"request_id": reqID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start),
		}
		if id, ok := auth.IdentityFromContext(c.Request.Context()); ok {
			fields["user_id"] = id.UserID
		}
		entry := logger.WithFields(fields)

		if err := c.Errors.Last(); err != nil {
			entry.WithError(err.Err).Error("request failed")
			return
		}
		entry.Info("request")
	}
}

// requireAuth resolves the bearer token and stores the caller in the
// request context.
func (h *Handler) requireAuth(c *gin.Context) {
	id, err := h.gate.Resolve(c.GetHeader("Authorization"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
	c.Next()
}

// requireBody rejects requests whose body is empty or only whitespace.
func requireBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorBody{Error: "Request body too large", Code: "body_too_large"})
				return
			}
			writeError(c, errInvalidBody)
			return
		}
		if len(bytes.TrimSpace(body)) == 0 {
			writeError(c, errMissingBody)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}

func identity(c *gin.Context) auth.Identity {
	id, _ := auth.IdentityFromContext(c.Request.Context())
	return id
}
