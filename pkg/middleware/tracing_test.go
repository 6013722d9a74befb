package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracedRouter(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(sdktrace.NewTracerProvider())
	})

	router := gin.New()
	router.Use(RequestID())
	router.Use(CorrelationID())
	router.Use(Tracing(DefaultTracingConfig("order-service-test")))
	return router, recorder
}

func TestTracingRecordsServerSpan(t *testing.T) {
	router, recorder := setupTracedRouter(t)
	router.GET("/api/v1/orders/:orderId", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/ord-1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]

	assert.Equal(t, "GET /api/v1/orders/:orderId", span.Name())
	assert.Equal(t, codes.Ok, span.Status().Code)

	attrs := make(map[string]any)
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "GET", attrs["http.method"])
	assert.Equal(t, "/api/v1/orders/:orderId", attrs["http.route"])
	assert.EqualValues(t, http.StatusOK, attrs["http.status_code"])
	assert.NotEmpty(t, attrs["request.id"])
	assert.NotEmpty(t, attrs["correlation.id"])
}

func TestTracingMarksErrorResponses(t *testing.T) {
	router, recorder := setupTracedRouter(t)
	router.GET("/boom", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "HTTP 500", spans[0].Status().Description)
}

func TestTracingSkipsOperationalPaths(t *testing.T) {
	router, recorder := setupTracedRouter(t)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, recorder.Ended())
}
