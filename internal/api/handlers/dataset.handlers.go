package routes

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"spatialgrid/internal/export"
	"spatialgrid/internal/loader"
	"spatialgrid/internal/model"
	"spatialgrid/internal/service/query"
)

type datasetHandlers struct {
	svc *query.QueryService
}

// SetupDatasetHandlers registers dataset and grid endpoints
func SetupDatasetHandlers(router *gin.RouterGroup, svc *query.QueryService) {
	h := &datasetHandlers{svc: svc}

	router.GET("/grid", h.GetGrid)
	router.GET("/grid/geojson", h.GetGridGeoJSON)

	datasets := router.Group("/datasets")
	datasets.PUT("/:label", h.PutDataset)
	datasets.POST("/:label/csv", h.PostDatasetCSV)
	datasets.GET("/:label", h.GetDataset)

	router.GET("/objects/:id", h.GetObject)
}

// GetGrid handles the grid summary endpoint
func (h *datasetHandlers) GetGrid(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.GridSummary())
}

// GetGridGeoJSON handles the grid cells export endpoint
func (h *datasetHandlers) GetGridGeoJSON(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.GridGeoJSON())
}

// PutDataset replaces a dataset with the JSON array in the body
func (h *datasetHandlers) PutDataset(c *gin.Context) {
	label := c.Param("label")

	var records []model.MBR
	if err := c.ShouldBindJSON(&records); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := h.svc.LoadDataset(label, records); err != nil {
		respondError(c, err)
		return
	}

	log.Printf("Dataset %s replaced with %d records", label, len(records))
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"label":    label,
		"accepted": len(records),
	})
}

// PostDatasetCSV replaces a dataset with the CSV records in the body.
// Malformed lines are skipped and reported.
func (h *datasetHandlers) PostDatasetCSV(c *gin.Context) {
	label := c.Param("label")

	records, report, err := loader.ParseCSV(c.Request.Body)
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := h.svc.LoadDataset(label, records); err != nil {
		respondError(c, err)
		return
	}

	log.Printf("Dataset %s loaded from CSV: %s", label, report)
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"label":  label,
		"report": report,
	})
}

// GetDataset returns a dataset as JSON, or as GeoJSON with format=geojson
func (h *datasetHandlers) GetDataset(c *gin.Context) {
	data, err := h.svc.Dataset(c.Param("label"))
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "geojson" {
		c.JSON(http.StatusOK, export.ObjectsGeoJSON(data))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"label":   c.Param("label"),
		"count":   len(data),
		"objects": data,
	})
}

// GetObject finds an object by ID across all datasets
func (h *datasetHandlers) GetObject(c *gin.Context) {
	obj, label, err := h.svc.Object(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"label":  label,
		"object": obj,
	})
}
