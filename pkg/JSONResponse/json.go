package jsonresponse

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/axionnode/CryptoRadar/internal/core/domain"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound      = errors.New("requested resource not found")
	ErrInvalidInput  = errors.New("invalid input provided")
	ErrInternalError = errors.New("internal server error")
)

type AppError struct {
	Code    int    `json:"-"`     // HTTP Status Code
	Message string `json:"error"` // User-friendly message
	Err     error  `json:"-"`     // Internal error (for logging)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap error with additional context.
func WrapError(err error, message string, code int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// FromDomain maps core errors onto HTTP status codes.
func FromDomain(err error) *AppError {
	switch {
	case errors.Is(err, domain.ErrUnknownAsset),
		errors.Is(err, domain.ErrUnknownExchange),
		errors.Is(err, domain.ErrUnsupportedCurrency):
		return WrapError(err, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		return WrapError(err, ErrNotFound.Error(), http.StatusNotFound)
	default:
		return WrapError(err, "Internal Server Error", http.StatusInternalServerError)
	}
}

// WriteResponse sends a JSON response with the given status code and data.
// Optional headers can be provided to set additional response headers.
func WriteResponse(c *gin.Context, statusCode int, data interface{}, headers ...map[string]string) {
	if len(headers) > 0 {
		for key, value := range headers[0] {
			c.Header(key, value)
		}
	}

	c.JSON(statusCode, data)
}

func WriteError(c *gin.Context, err error) {
	var appErr *AppError

	if errors.As(err, &appErr) {
		slog.Error("Error handling request", "error", appErr.Err, "message", appErr.Message)
		c.AbortWithStatusJSON(appErr.Code, gin.H{"error": appErr.Message})
	} else {
		slog.Error("Unknown error occurred", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}
