package category

import (
	"net/http"
	"strconv"

	"assettracker/internal/core/httperror"
	"assettracker/pkg/schema"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	service *CategoryService
}

func NewCategoryHandler(service *CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

func (h *CategoryHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/categories", h.GetCategories)
	router.GET("/categories/:name", h.GetCategory)
	router.POST("/categories", h.CreateCategory)
	router.PUT("/categories/:id", h.UpdateCategory)
}

func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.service.List(c.Request.Context())
	if err != nil {
		httperror.Abort(c, "Unable to get categories", err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	def, err := h.service.Resolve(c.Request.Context(), c.Param("name"))
	if err != nil {
		httperror.Abort(c, "Unable to get category", err)
		return
	}

	c.JSON(http.StatusOK, def)
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req schema.CategoryDefinition
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		httperror.Abort(c, "Unable to create category", err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid id parameter, must be an integer"})
		return
	}

	var req schema.CategoryDefinition
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		httperror.Abort(c, "Unable to update category", err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
