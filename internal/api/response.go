package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tally-dev/tally/internal/auth"
	"github.com/tally-dev/tally/internal/backup"
	"github.com/tally-dev/tally/internal/logger"
	"github.com/tally-dev/tally/internal/model"
	"github.com/tally-dev/tally/internal/store"
)

// envelope wraps every JSON response.
type envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Message string   `json:"message,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, envelope{Error: msg})
}

// nonNil makes empty lists encode as [] instead of being dropped.
func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

// respondError maps service errors to status codes. notFound is the message
// used for store.ErrNotFound.
func respondError(c *gin.Context, err error, notFound string) {
	var verrs model.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, envelope{Error: "Validation failed", Errors: verrs.Messages()})
	case errors.Is(err, store.ErrNotFound):
		fail(c, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrConflict):
		fail(c, http.StatusConflict, "A generated transaction already exists for this template, date and company")
	case errors.Is(err, backup.ErrInvalidFormat):
		fail(c, http.StatusBadRequest, "Invalid backup format")
	case errors.Is(err, auth.ErrPINFormat):
		fail(c, http.StatusBadRequest, "PIN must be 6 digits")
	case errors.Is(err, auth.ErrAlreadySet):
		fail(c, http.StatusConflict, "PIN is already set")
	case errors.Is(err, auth.ErrNotSet):
		fail(c, http.StatusNotFound, "No PIN has been set")
	case errors.Is(err, auth.ErrInvalidPIN):
		fail(c, http.StatusUnauthorized, "Invalid PIN")
	case errors.Is(err, auth.ErrInvalidAnswer):
		fail(c, http.StatusUnauthorized, "Invalid security answer")
	default:
		log := logger.FromContext(c.Request.Context())
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
}

// bindJSON decodes the request body, answering 400 on malformed input.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Error: "Invalid request body", Errors: []string{err.Error()}})
		return false
	}
	return true
}
