package locations

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"assettracker/internal/core/httperror"
	custom_error "assettracker/pkg/errors"
	"assettracker/pkg/models"

	"github.com/gin-gonic/gin"
)

// InventoryQuery lists the assets held by a location.
type InventoryQuery interface {
	ListAssets(ctx context.Context, locationID int) ([]models.AssetSummary, error)
}

type LocationHandler struct {
	Repository *LocationRepository
	inventory  InventoryQuery
}

func NewLocationHandler(r *LocationRepository, inventory InventoryQuery) *LocationHandler {
	return &LocationHandler{Repository: r, inventory: inventory}
}

func (h *LocationHandler) RegisterRoutes(router gin.IRoutes) {
	router.POST("/locations", h.CreateLocation)
	router.GET("/locations", h.GetLocations)
	router.GET("/locations/:id/assets", h.GetLocationAssets)
	router.PATCH("/locations/:id", h.UpdateLocation)
	router.DELETE("/locations/:id", h.RemoveLocation)
}

func (h *LocationHandler) GetLocations(c *gin.Context) {
	locations, err := h.Repository.GetLocations(c.Request.Context())
	if err != nil {
		httperror.Abort(c, "Could not list locations", custom_error.WrapCollaboratorError("list locations", err))
		return
	}

	c.JSON(http.StatusOK, locations)
}

func (h *LocationHandler) CreateLocation(c *gin.Context) {
	var location Location
	if err := c.ShouldBindJSON(&location); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	err := h.Repository.PersistLocation(c.Request.Context(), &location)
	var uniqueErr *custom_error.UniqueViolationError
	if errors.As(err, &uniqueErr) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Could not insert location, name not unique", "details": err.Error()})
		return
	} else if err != nil {
		httperror.Abort(c, "Could not insert location", custom_error.WrapCollaboratorError("insert location", err))
		return
	}

	c.JSON(http.StatusCreated, location)
}

// GetLocationAssets lists the codes used in the location's numbering space.
func (h *LocationHandler) GetLocationAssets(c *gin.Context) {
	id, ok := locationID(c)
	if !ok {
		return
	}

	assets, err := h.inventory.ListAssets(c.Request.Context(), id)
	if err != nil {
		httperror.Abort(c, "Could not get location assets", custom_error.WrapCollaboratorError("list location assets", err))
		return
	}

	c.JSON(http.StatusOK, assets)
}

func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	id, ok := locationID(c)
	if !ok {
		return
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	location, err := h.Repository.UpdateLocation(c.Request.Context(), id, req)
	if err != nil {
		h.abort(c, "Could not update location", err)
		return
	}

	c.JSON(http.StatusOK, location)
}

func (h *LocationHandler) RemoveLocation(c *gin.Context) {
	id, ok := locationID(c)
	if !ok {
		return
	}

	if err := h.Repository.RemoveLocation(c.Request.Context(), id); err != nil {
		h.abort(c, "Could not delete location", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Location deleted successfully"})
}

func (h *LocationHandler) abort(c *gin.Context, message string, err error) {
	var (
		uniqueErr     *custom_error.UniqueViolationError
		foreignKeyErr *custom_error.ForeignKeyViolationError
	)
	switch {
	case errors.As(err, &uniqueErr), errors.As(err, &foreignKeyErr):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": message, "details": err.Error()})
	case errors.Is(err, ErrLocationNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": message, "details": err.Error()})
	default:
		httperror.Abort(c, message, custom_error.WrapCollaboratorError("location", err))
	}
}

func locationID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid id parameter, must be an integer"})
		return 0, false
	}
	return id, true
}
