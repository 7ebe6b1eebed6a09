package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lllllllleong/pagepick/internal/middleware"
	"github.com/Lllllllleong/pagepick/internal/models"
	"github.com/Lllllllleong/pagepick/internal/selector"
)

// APIResponse is the standard envelope for all JSON responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapError translates service errors to HTTP status codes and error codes.
func MapError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, models.ErrNotPDF):
		return http.StatusBadRequest, "NOT_PDF", "uploaded file is not a PDF"
	case errors.Is(err, models.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, models.ErrTooManyFiles):
		return http.StatusBadRequest, "TOO_MANY_FILES", "too many files in batch"
	case errors.Is(err, models.ErrMissingSelector):
		return http.StatusBadRequest, "MISSING_SELECTOR", "pages field is required in manual mode"
	case errors.Is(err, selector.ErrInvalidRange):
		return http.StatusBadRequest, "INVALID_RANGE", err.Error()
	case errors.Is(err, selector.ErrUnknownMode):
		return http.StatusBadRequest, "UNKNOWN_MODE", "mode must be one of manual, range, odd, even"
	case errors.Is(err, models.ErrInvalidDocument):
		return http.StatusUnprocessableEntity, "INVALID_DOCUMENT", "file could not be read as a PDF document"
	case errors.Is(err, models.ErrNoPagesSelected):
		return http.StatusUnprocessableEntity, "NO_PAGES_SELECTED", "the selector matched no pages of this document"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps err and writes the error response. Unexpected errors are logged.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapError(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed.", "requestId", middleware.GetRequestID(c), "error", err)
	}
	RespondError(c, status, code, msg)
}
