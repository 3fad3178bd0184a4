package assets

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"assettracker/internal/core/httperror"
	"assettracker/internal/inventory/records"
	"assettracker/pkg/models"

	"github.com/gin-gonic/gin"
)

type AssetHandler struct {
	service *AssetService
}

type UpdateAssetRequest struct {
	Asset         models.AssetRecord `json:"asset"`
	Justification string             `json:"justification"`
}

type JustificationRequest struct {
	Justification string `json:"justification"`
}

func NewAssetHandler(service *AssetService) *AssetHandler {
	return &AssetHandler{service: service}
}

func (h *AssetHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/assets", h.GetAssets)
	router.GET("/assets/:id", h.GetAsset)
	router.GET("/assets/:id/history", h.GetAssetHistory)
	router.GET("/assets/:id/warranty", h.GetAssetWarranty)
	router.POST("/assets", h.RegisterAsset)
	router.PUT("/assets/:id", h.UpdateAsset)
	router.POST("/assets/:id/decommission", h.DecommissionAsset)
}

func (h *AssetHandler) GetAssets(c *gin.Context) {
	var filter Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters", "details": err.Error()})
		return
	}

	assets, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		httperror.Abort(c, "Unable to get assets", err)
		return
	}

	c.JSON(http.StatusOK, assets)
}

func (h *AssetHandler) GetAsset(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}

	asset, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httperror.Abort(c, "Unable to get asset", err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

func (h *AssetHandler) GetAssetHistory(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}

	history, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		httperror.Abort(c, "Unable to get asset history", err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *AssetHandler) GetAssetWarranty(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}

	result, err := h.service.Warranty(c.Request.Context(), id)
	if err != nil {
		httperror.Abort(c, "Unable to compute warranty", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegisterAsset accepts either a JSON asset or a multipart body with a JSON
// data part and binary photo and document parts.
func (h *AssetHandler) RegisterAsset(c *gin.Context) {
	record, ok := bindAsset(c)
	if !ok {
		return
	}

	result, err := h.service.Register(c.Request.Context(), record)
	if err != nil {
		httperror.Abort(c, "Unable to register asset", err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}

	var req UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	result, err := h.service.Update(c.Request.Context(), id, req.Asset, req.Justification)
	if err != nil {
		httperror.Abort(c, "Unable to update asset", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AssetHandler) DecommissionAsset(c *gin.Context) {
	id, ok := assetID(c)
	if !ok {
		return
	}

	var req JustificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	result, err := h.service.Decommission(c.Request.Context(), id, req.Justification)
	if err != nil {
		httperror.Abort(c, "Unable to decommission asset", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func assetID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid id parameter, must be an integer"})
		return 0, false
	}
	return id, true
}

// maxAssetBodyBytes matches gin's default MaxMultipartMemory.
const maxAssetBodyBytes = 32 << 20

func bindAsset(c *gin.Context) (models.AssetRecord, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAssetBodyBytes)

	mediaType, params, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if err == nil && mediaType == "multipart/form-data" {
		record, err := records.ReadMultipart(c.Request.Body, params["boundary"], nil)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, records.ErrPartTooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Payload too large", "details": err.Error()})
			return models.AssetRecord{}, false
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart payload", "details": err.Error()})
			return models.AssetRecord{}, false
		}
		return record, true
	}

	var record models.AssetRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return models.AssetRecord{}, false
	}
	return record, true
}
