package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/slotswap/swap_backend/internal/model"
	"github.com/slotswap/swap_backend/internal/service"
)

type SwapHandler struct {
	swaps  *service.SwapService
	logger *zap.Logger
}

func NewSwapHandler(swaps *service.SwapService, logger *zap.Logger) *SwapHandler {
	return &SwapHandler{swaps: swaps, logger: logger}
}

type proposeRequest struct {
	MySlotID    int64 `json:"mySlotId" binding:"required"`
	TheirSlotID int64 `json:"theirSlotId" binding:"required"`
}

// Propose обрабатывает POST /api/swap-requests
func (h *SwapHandler) Propose(c *gin.Context) {
	var req proposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mySlotId and theirSlotId are required"})
		return
	}

	result, err := h.swaps.Propose(c.Request.Context(), callerID(c), req.MySlotID, req.TheirSlotID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

type respondRequest struct {
	Action string `json:"action" binding:"required"`
}

// Respond обрабатывает POST /api/swap-requests/:id/respond
func (h *SwapHandler) Respond(c *gin.Context) {
	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action is required"})
		return
	}

	result, err := h.swaps.Respond(c.Request.Context(), callerID(c), requestID, req.Action)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// List обрабатывает GET /api/swap-requests?direction=incoming|outgoing
func (h *SwapHandler) List(c *gin.Context) {
	var (
		reqs []*model.SwapRequest
		err  error
	)

	switch c.Query("direction") {
	case "incoming":
		reqs, err = h.swaps.Incoming(c.Request.Context(), callerID(c))
	case "outgoing":
		reqs, err = h.swaps.Outgoing(c.Request.Context(), callerID(c))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be either incoming or outgoing"})
		return
	}

	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	if reqs == nil {
		reqs = []*model.SwapRequest{}
	}
	c.JSON(http.StatusOK, reqs)
}
