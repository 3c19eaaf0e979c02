package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	m := NewMetrics("test")
	r := gin.New()
	r.Use(RequestLogger(zerolog.New(&buf)), RequestMetrics(m))
	r.GET("/model/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.POST("/events", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	requests := []struct{ method, path string }{
		{http.MethodGet, "/model/a"},
		{http.MethodGet, "/model/b"},
		{http.MethodGet, "/missing"},
		{http.MethodPost, "/events"},
	}
	for _, req := range requests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(req.method, req.path, nil))
	}

	if got := promtest.ToFloat64(m.httpRequests.WithLabelValues("GET", "/model/:id", "200")); got != 2 {
		t.Errorf("route requests = %v, want 2", got)
	}
	if got := promtest.ToFloat64(m.httpRequests.WithLabelValues("GET", "/missing", "404")); got != 1 {
		t.Errorf("not-found requests = %v, want 1", got)
	}
	if got := promtest.CollectAndCount(m.httpDuration); got != 3 {
		t.Errorf("duration series = %d, want 3", got)
	}

	out := buf.String()
	if strings.Count(out, "request served") != len(requests) {
		t.Errorf("expected %d request log lines, got:\n%s", len(requests), out)
	}
	if !strings.Contains(out, `"route":"/model/:id"`) {
		t.Errorf("route template not logged:\n%s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("404 not logged at warn:\n%s", out)
	}
	if !strings.Contains(out, `"level":"error"`) {
		t.Errorf("500 not logged at error:\n%s", out)
	}
}

func TestStatusLevel(t *testing.T) {
	tests := []struct {
		status int
		want   zerolog.Level
	}{
		{http.StatusOK, zerolog.InfoLevel},
		{http.StatusNoContent, zerolog.InfoLevel},
		{http.StatusBadRequest, zerolog.WarnLevel},
		{http.StatusConflict, zerolog.WarnLevel},
		{http.StatusInternalServerError, zerolog.ErrorLevel},
		{http.StatusServiceUnavailable, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := statusLevel(tt.status); got != tt.want {
			t.Errorf("statusLevel(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
