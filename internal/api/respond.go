package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fitwell/backend/internal/apperr"
	"fitwell/backend/internal/domain"
	"fitwell/backend/internal/logger"
)

// statusFor maps an error kind to the HTTP status sent to the client.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindIncompleteProfile:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotFound, apperr.KindNoActivePlan:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindActivePlanConflict:
		return http.StatusConflict
	case apperr.KindInsufficientHistory:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondOK writes {"success": true} merged with payload.
func respondOK(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// respondError converts err into the error envelope. Errors without a kind
// are treated as internal and their cause is only logged.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal(err)
	}
	status := statusFor(e.Kind)

	message := e.Message
	if status >= http.StatusInternalServerError {
		fields := append([]interface{}{"method", c.Request.Method, "path", c.FullPath()}, e.LogFields()...)
		log.Error("Request failed", fields...)
		message = "An unexpected error occurred"
	}

	body := gin.H{
		"success": false,
		"error":   string(e.Kind),
		"message": message,
	}
	for k, v := range e.Details {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}

// Helper to return an error envelope from middleware, before any service ran.
func abortWithError(c *gin.Context, status int, kind apperr.Kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   string(kind),
		"message": message,
	})
}

// bindJSON decodes the request body into dst. An empty body is accepted
// when optional is true so endpoints with all-default inputs can be called
// without one.
func bindJSON(c *gin.Context, dst interface{}, optional bool) error {
	err := c.ShouldBindJSON(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return nil
	}
	return apperr.Validation("invalid request body: %v", err)
}

// queryDate reads an ISO date query parameter, defaulting to today.
func queryDate(c *gin.Context, name string, now func() time.Time) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return domain.DateOnly(now()), nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperr.Validation("%s must use the %s format", name, domain.DateLayout)
	}
	return d, nil
}

// queryInt reads an optional integer query parameter; zero means absent.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", name)
	}
	return n, nil
}

func pathInt(c *gin.Context, name string) (int, error) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n < 0 {
		return 0, apperr.Validation("%s must be a non-negative integer", name)
	}
	return n, nil
}
