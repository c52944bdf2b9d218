package routes

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spatialgrid/internal/join"
	"spatialgrid/internal/loader"
	"spatialgrid/internal/service/query"
)

var errBadRequest = errors.New("bad request")

// respondError maps service errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, loader.ErrMalformedRecord),
		errors.Is(err, join.ErrUnknownAlgorithm):
		status = http.StatusBadRequest
	case errors.Is(err, query.ErrUnknownDataset),
		errors.Is(err, query.ErrUnknownObject),
		errors.Is(err, query.ErrResultNotFound):
		status = http.StatusNotFound
	case errors.Is(err, query.ErrResultsDisabled):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{
		"status":  "error",
		"message": err.Error(),
	})
}

func floatQuery(c *gin.Context, name string) (float64, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return 0, fmt.Errorf("%w: missing parameter %s", errBadRequest, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parameter %s is not a number", errBadRequest, name)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: parameter %s must be finite", errBadRequest, name)
	}
	return v, nil
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: parameter %s is not an integer", errBadRequest, name)
	}
	return v, nil
}

// respondResult writes body as JSON. With save=true the body is also stored
// and the response carries its key.
func respondResult(c *gin.Context, svc *query.QueryService, kind string, body gin.H) {
	if c.Query("save") == "true" {
		key, err := svc.SaveResult(c.Request.Context(), kind, body)
		if err != nil {
			respondError(c, err)
			return
		}
		body["key"] = key
	}
	c.JSON(http.StatusOK, body)
}
