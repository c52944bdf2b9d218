package routes

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"spatialgrid/internal/export"
	"spatialgrid/internal/grid"
	"spatialgrid/internal/join"
	"spatialgrid/internal/knn"
	"spatialgrid/internal/service/query"
	"spatialgrid/internal/skyline"
)

type queryHandlers struct {
	svc *query.QueryService
}

// SetupQueryHandlers registers the query endpoints
func SetupQueryHandlers(router *gin.RouterGroup, svc *query.QueryService) {
	h := &queryHandlers{svc: svc}

	router.GET("/knn", h.KNN)
	router.GET("/knn/linear", h.LinearKNN)
	router.GET("/join", h.Join)
	router.GET("/skyline", h.Skyline)
	router.GET("/results/:key", h.GetResult)
}

func pointQuery(c *gin.Context) (x, y float64, k int, err error) {
	if x, err = floatQuery(c, "x"); err != nil {
		return
	}
	if y, err = floatQuery(c, "y"); err != nil {
		return
	}
	k, err = intQuery(c, "k", 1)
	return
}

// respondNeighbors writes k-NN results as JSON, GeoJSON or tab separated text
func (h *queryHandlers) respondNeighbors(c *gin.Context, kind string, x, y float64, neighbors []knn.Neighbor, stats fmt.Stringer) {
	switch c.Query("format") {
	case "geojson":
		c.JSON(http.StatusOK, export.NeighborsGeoJSON(x, y, neighbors))
	case "text":
		var buf bytes.Buffer
		if err := export.WriteNeighbors(&buf, neighbors); err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
	default:
		respondResult(c, h.svc, kind, gin.H{
			"results":    neighbors,
			"stats":      stats,
			"statistics": stats.String(),
		})
	}
}

// KNN handles the grid k-NN endpoint
func (h *queryHandlers) KNN(c *gin.Context) {
	x, y, k, err := pointQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	metric, err := knn.ParseMetric(c.Query("metric"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	hops, err := intQuery(c, "max_hops", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	neighbors, stats := h.svc.KNN(x, y, k, knn.Options{
		Label:   c.DefaultQuery("label", grid.DefaultLabel),
		MaxHops: hops,
		Metric:  metric,
	})
	h.respondNeighbors(c, "knn", x, y, neighbors, stats)
}

// LinearKNN handles the linear scan k-NN endpoint
func (h *queryHandlers) LinearKNN(c *gin.Context) {
	x, y, k, err := pointQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	neighbors, stats, err := h.svc.LinearKNN(c.DefaultQuery("label", grid.DefaultLabel), x, y, k)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondNeighbors(c, "knn-linear", x, y, neighbors, stats)
}

// Join handles the spatial join endpoint for datasets A and B
func (h *queryHandlers) Join(c *gin.Context) {
	alg, err := join.ParseAlgorithm(c.Query("algorithm"))
	if err != nil {
		respondError(c, err)
		return
	}

	pairs, stats, err := h.svc.Join(alg)
	if err != nil {
		respondError(c, err)
		return
	}

	switch c.Query("format") {
	case "geojson":
		c.JSON(http.StatusOK, export.PairsGeoJSON(pairs))
	case "text":
		var buf bytes.Buffer
		if err := export.WritePairs(&buf, pairs); err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
	default:
		respondResult(c, h.svc, "join", gin.H{
			"algorithm":  alg,
			"count":      len(pairs),
			"pairs":      pairs,
			"stats":      stats,
			"statistics": stats.String(),
		})
	}
}

// Skyline handles the skyline endpoint, dims selects 2 (corner) or 4 (bounds) coordinates
func (h *queryHandlers) Skyline(c *gin.Context) {
	n, err := intQuery(c, "dims", 2)
	if err != nil {
		respondError(c, err)
		return
	}
	dims, err := skyline.DimensionsFor(n)
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	result, stats := h.svc.Skyline(c.DefaultQuery("label", grid.DefaultLabel), dims)

	switch c.Query("format") {
	case "geojson":
		c.JSON(http.StatusOK, export.ObjectsGeoJSON(result))
	case "text":
		var buf bytes.Buffer
		if err := export.WriteObjects(&buf, result); err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
	default:
		respondResult(c, h.svc, "skyline", gin.H{
			"results":    result,
			"stats":      stats,
			"statistics": stats.String(),
		})
	}
}

// GetResult returns a previously saved result
func (h *queryHandlers) GetResult(c *gin.Context) {
	data, err := h.svc.GetResult(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}
