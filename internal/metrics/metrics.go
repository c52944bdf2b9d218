package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spatialgrid_requests_total",
		Help: "Total number of HTTP requests by route and status",
	}, []string{"route", "status"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spatialgrid_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	QueryDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spatialgrid_query_duration_ms",
		Help:    "Query execution time in milliseconds by kind",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000, 5000},
	}, []string{"kind"})
	QueryResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spatialgrid_query_results_total",
		Help: "Total number of objects or pairs returned by kind",
	}, []string{"kind"})
	DatasetObjects = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "spatialgrid_dataset_objects",
		Help: "Number of objects loaded per dataset label",
	}, []string{"label"})
	SnapshotsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spatialgrid_snapshots_total",
		Help: "Dataset snapshots written to PostgreSQL by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(QueryDurationMs)
	prometheus.MustRegister(QueryResultsTotal)
	prometheus.MustRegister(DatasetObjects)
	prometheus.MustRegister(SnapshotsTotal)
}

// ObserveQuery records the duration and result size of one query
func ObserveQuery(kind string, elapsed time.Duration, results int) {
	QueryDurationMs.WithLabelValues(kind).Observe(float64(elapsed) / float64(time.Millisecond))
	QueryResultsTotal.WithLabelValues(kind).Add(float64(results))
}

// Middleware counts requests and their duration per matched route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		RequestDurationMs.WithLabelValues(route).Observe(float64(time.Since(start)) / float64(time.Millisecond))
	}
}

// Handler exposes the registered metrics for scraping
func Handler() http.Handler { return promhttp.Handler() }
