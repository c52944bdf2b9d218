package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("/items/:id", "418"))
	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	if got := testutil.ToFloat64(RequestsTotal.WithLabelValues("/items/:id", "418")) - before; got != 2 {
		t.Errorf("route counter grew by %v, want 2", got)
	}
	if got := testutil.ToFloat64(RequestsTotal.WithLabelValues("unmatched", "404")); got < 1 {
		t.Errorf("unmatched counter = %v, want at least 1", got)
	}
}

func TestObserveQueryAndHandler(t *testing.T) {
	before := testutil.ToFloat64(QueryResultsTotal.WithLabelValues("test"))
	ObserveQuery("test", 3*time.Millisecond, 4)
	if got := testutil.ToFloat64(QueryResultsTotal.WithLabelValues("test")) - before; got != 4 {
		t.Errorf("results counter grew by %v, want 4", got)
	}

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "spatialgrid_query_duration_ms") {
		t.Error("exposition is missing spatialgrid_query_duration_ms")
	}
}
