package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/flashmart/order-service/pkg/errors"
)

// APIErrorResponse is the uniform error envelope returned by all endpoints
type APIErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	Timestamp string            `json:"timestamp"`
	Path      string            `json:"path,omitempty"`
}

// ErrorHandler converts errors attached to the gin context into the
// envelope format. Handlers either respond directly via ErrorResponder
// or call c.Error and let this middleware render the result.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr := toAppError(err)

		logError(c, logger, appErr)

		c.JSON(appErr.HTTPStatus, newErrorResponse(c, appErr))
	}
}

func newErrorResponse(c *gin.Context, appErr *apperrors.AppError) APIErrorResponse {
	return APIErrorResponse{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Details:   appErr.Details,
		RequestID: requestIDFrom(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
	}
}

func toAppError(err error) *apperrors.AppError {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr
	}
	return apperrors.MapDomainError(err)
}

func logError(c *gin.Context, logger *slog.Logger, appErr *apperrors.AppError) {
	attrs := []any{
		"code", appErr.Code,
		"status", appErr.HTTPStatus,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"requestId", requestIDFrom(c),
	}
	if appErr.Err != nil {
		attrs = append(attrs, "error", appErr.Err.Error())
	}

	if appErr.HTTPStatus >= 500 {
		logger.ErrorContext(c.Request.Context(), appErr.Message, attrs...)
	} else {
		logger.WarnContext(c.Request.Context(), appErr.Message, attrs...)
	}
}

func requestIDFrom(c *gin.Context) string {
	if v, ok := c.Get(ContextKeyRequestID); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// ErrorResponder renders application errors from handlers
type ErrorResponder struct {
	logger *slog.Logger
}

func NewErrorResponder(logger *slog.Logger) *ErrorResponder {
	return &ErrorResponder{logger: logger}
}

// Respond maps any error to the envelope and writes it
func (r *ErrorResponder) Respond(c *gin.Context, err error) {
	appErr := toAppError(err)
	logError(c, r.logger, appErr)
	c.JSON(appErr.HTTPStatus, newErrorResponse(c, appErr))
}

// RespondCreated writes a 201 with the given payload
func (r *ErrorResponder) RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondOK writes a 200 with the given payload
func (r *ErrorResponder) RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
