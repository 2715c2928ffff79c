package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"personal-calendar/internal/auth"
	"personal-calendar/internal/service"
)

var (
	errMissingBody   = errors.New("request body is required")
	errInvalidBody   = errors.New("request body must be a JSON object")
	errInvalidID     = errors.New("invalid event id")
	errRouteNotFound = errors.New("route not found")
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorSpec struct {
	target  error
	status  int
	code    string
	message string
}

// errorTable maps every known failure to its response. Messages from a
// service.ValidationError take precedence over the defaults here.
var errorTable = []errorSpec{
	{errMissingBody, http.StatusBadRequest, "missing_body", "Request body is required"},
	{errInvalidBody, http.StatusBadRequest, "invalid_body", "Request body must be a JSON object"},
	{errInvalidID, http.StatusBadRequest, "invalid_id", "Invalid event ID"},
	{errRouteNotFound, http.StatusNotFound, "route_not_found", "Route not found"},
	{auth.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated", "Authorization token required"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "invalid_token", "Invalid or expired token"},
	{service.ErrMissingField, http.StatusBadRequest, "missing_field", "Required fields are missing"},
	{service.ErrWeakPassword, http.StatusBadRequest, "weak_password", "Password must be at least 6 characters"},
	{service.ErrDuplicateEmail, http.StatusConflict, "duplicate_email", "Email already registered"},
	{service.ErrDuplicatePhone, http.StatusConflict, "duplicate_phone", "Phone number already registered"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password"},
	{service.ErrInvalidDate, http.StatusBadRequest, "invalid_date", "Invalid date format"},
	{service.ErrInvalidRange, http.StatusBadRequest, "invalid_range", "start_date must be before end_date"},
	{service.ErrEmptyTitle, http.StatusBadRequest, "empty_title", "Title cannot be empty"},
	{service.ErrTitleTooLong, http.StatusBadRequest, "title_too_long", "Title is too long"},
	{service.ErrNoFields, http.StatusBadRequest, "no_fields", "No fields to update"},
	{service.ErrNotFound, http.StatusNotFound, "not_found", "Event not found"},
	{service.ErrPublishingDisabled, http.StatusServiceUnavailable, "publishing_disabled", "Export publishing is not configured"},
}

// writeError aborts the request with the mapped status. Anything unmapped
// is recorded on the context for the access log and reported as a 500.
func writeError(c *gin.Context, err error) {
	for _, entry := range errorTable {
		if !errors.Is(err, entry.target) {
			continue
		}
		msg := entry.message
		var ve *service.ValidationError
		if errors.As(err, &ve) && ve.Message != "" {
			msg = ve.Message
		}
		c.AbortWithStatusJSON(entry.status, errorBody{Error: msg, Code: entry.code})
		return
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "Internal server error", Code: "internal_error"})
}
