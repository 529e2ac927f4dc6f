package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gmontoya2483/Shushme/module/core/domain"
)

type placeService interface {
	ReplacePlaces(ctx context.Context, places []domain.Place) error
}

type regionState interface {
	State() domain.State
	Match(lat, lon float64) []domain.Region
}

type operationService interface {
	ListRecent(ctx context.Context, limit int) ([]domain.OperationRecord, error)
}

type placesRequest struct {
	Places *[]domain.Place `json:"places"`
}

type RegionHandler struct {
	placeSvc     placeService
	regions      regionState
	operationSvc operationService
}

func NewRegionHandler(placeSvc placeService, regions regionState, operationSvc operationService) *RegionHandler {
	return &RegionHandler{placeSvc: placeSvc, regions: regions, operationSvc: operationSvc}
}

func (h *RegionHandler) Register(r *gin.RouterGroup) {
	r.GET("/regions", h.GetRegions)
	r.PUT("/regions", h.ReplacePlaces)
	r.GET("/regions/match", h.MatchRegions)
	r.GET("/operations", h.GetOperations)
}

func (h *RegionHandler) GetRegions(c *gin.Context) {
	c.JSON(http.StatusOK, h.regions.State())
}

func (h *RegionHandler) ReplacePlaces(c *gin.Context) {
	var req placesRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Places == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must contain a places array"})
		return
	}

	if err := h.placeSvc.ReplacePlaces(c.Request.Context(), *req.Places); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store places"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"accepted": len(*req.Places)})
}

func (h *RegionHandler) MatchRegions(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil || lat < -90 || lat > 90 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid latitude parameter"})
		return
	}

	lon, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil || lon < -180 || lon > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid longitude parameter"})
		return
	}

	c.JSON(http.StatusOK, h.regions.Match(lat, lon))
}

func (h *RegionHandler) GetOperations(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
			return
		}
		limit = n
	}

	records, err := h.operationSvc.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch operations"})
		return
	}
	if records == nil {
		records = []domain.OperationRecord{}
	}
	c.JSON(http.StatusOK, records)
}
