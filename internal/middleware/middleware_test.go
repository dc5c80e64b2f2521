package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMiddleware_BasicMetrics(t *testing.T) {
	// Отдельный регистр для изоляции тестов
	registry := prometheus.NewRegistry()

	gin.SetMode(gin.TestMode)
	r := gin.New()

	promMw := NewPrometheusMiddleware("test", registry)
	r.Use(promMw.Handler())

	r.GET("/grid", func(c *gin.Context) {
		time.Sleep(5 * time.Millisecond)
		c.JSON(200, gin.H{"ok": true})
	})
	r.POST("/update", func(c *gin.Context) {
		c.JSON(400, gin.H{"status": "error"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/grid", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)

	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("POST", "/update", nil)
	r.ServeHTTP(w2, req2)
	assert.Equal(t, 400, w2.Code)

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	var durationFound, errorsFound bool
	for _, mf := range metricFamilies {
		switch mf.GetName() {
		case "test_http_request_duration_seconds":
			durationFound = true
			assert.Len(t, mf.Metric, 2)
		case "test_http_request_errors_total":
			errorsFound = true
			// только 400
			require.Len(t, mf.Metric, 1)
			assert.Equal(t, float64(1), mf.Metric[0].GetCounter().GetValue())
		}
	}

	assert.True(t, durationFound, "Duration metric not found")
	assert.True(t, errorsFound, "Errors metric not found")
}

func TestPrometheusMiddleware_MetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()

	gin.SetMode(gin.TestMode)
	r := gin.New()

	promMw := NewPrometheusMiddleware("endpoint", registry)
	r.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(r)
	r.GET("/ping", func(c *gin.Context) { c.String(200, "pong") })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ping", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "endpoint_http_request_duration_seconds")
}

func TestPrometheusMiddleware_UnmatchedPath(t *testing.T) {
	registry := prometheus.NewRegistry()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewPrometheusMiddleware("nf", registry).Handler())

	for _, p := range []string{"/a", "/b", "/c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", p, nil))
	}

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range metricFamilies {
		if mf.GetName() == "nf_http_request_errors_total" {
			require.Len(t, mf.Metric, 1)
			assert.Equal(t, float64(3), mf.Metric[0].GetCounter().GetValue())
		}
	}
}

func TestRequestLogger_TraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRequestLogger().Handler())

	var captured string
	r.GET("/grid", func(c *gin.Context) {
		captured = c.GetString(TraceIDKey)
		c.Status(200)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/grid", nil))

	assert.Equal(t, 200, w.Code)
	assert.NotEmpty(t, captured)
	assert.Equal(t, captured, w.Header().Get("X-Trace-Id"))
	assert.Len(t, strings.ReplaceAll(captured, "-", ""), 32)
}

func TestCORS_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS())
	r.POST("/api/update_voxel", func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/api/update_voxel", nil))
	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/api/update_voxel", nil))
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
