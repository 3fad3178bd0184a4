package transfers

import (
	"errors"
	"net/http"
	"strconv"

	"assettracker/internal/core/httperror"
	custom_error "assettracker/pkg/errors"

	"github.com/gin-gonic/gin"
)

type TransferHandler struct {
	service *TransferService
}

// TransferRequest is a transfer submitted in one round trip. AcceptedCode
// carries the suggestion the operator agreed to after a previous attempt
// reported a collision.
type TransferRequest struct {
	Request
	AcceptedCode string `json:"accepted_code"`
}

func NewTransferHandler(service *TransferService) *TransferHandler {
	return &TransferHandler{service: service}
}

func (h *TransferHandler) RegisterRoutes(router gin.IRoutes) {
	router.POST("/assets/:id/transfers/check", h.CheckTransfer)
	router.POST("/assets/:id/transfers", h.CreateTransfer)
}

// CheckTransfer runs validation and the collision check without committing.
func (h *TransferHandler) CheckTransfer(c *gin.Context) {
	workflow, req, ok := h.begin(c)
	if !ok {
		return
	}

	err := workflow.Submit(c.Request.Context(), req.Request)
	var collision *custom_error.CollisionError
	if err != nil && !errors.As(err, &collision) {
		httperror.Abort(c, "Transfer validation failed", err)
		return
	}

	ready := workflow.Ready()
	_ = workflow.Cancel()

	c.JSON(http.StatusOK, gin.H{
		"collision":  collision != nil,
		"suggestion": workflow.Suggestion,
		"ready":      ready,
	})
}

func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	workflow, req, ok := h.begin(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	err := workflow.Submit(ctx, req.Request)
	var collision *custom_error.CollisionError
	if errors.As(err, &collision) && req.AcceptedCode != "" {
		err = workflow.AcceptCode(req.AcceptedCode)
	}
	if err != nil {
		httperror.Abort(c, "Unable to transfer asset", err)
		return
	}

	moved, err := workflow.Commit(ctx)
	if err != nil {
		httperror.Abort(c, "Unable to transfer asset", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transfer_id": workflow.ID,
		"state":       workflow.State,
		"asset":       moved,
	})
}

func (h *TransferHandler) begin(c *gin.Context) (*Workflow, TransferRequest, bool) {
	var req TransferRequest

	assetID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assetID <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid id parameter, must be an integer"})
		return nil, req, false
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return nil, req, false
	}

	workflow, err := h.service.Begin(c.Request.Context(), assetID)
	if err != nil {
		httperror.Abort(c, "Unable to start transfer", err)
		return nil, req, false
	}

	return workflow, req, true
}
