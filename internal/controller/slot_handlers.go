package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/slotswap/swap_backend/internal/model"
	"github.com/slotswap/swap_backend/internal/service"
)

type SlotHandler struct {
	slots  *service.SlotService
	logger *zap.Logger
}

func NewSlotHandler(slots *service.SlotService, logger *zap.Logger) *SlotHandler {
	return &SlotHandler{slots: slots, logger: logger}
}

// List обрабатывает GET /api/slots — слоты вызывающего
func (h *SlotHandler) List(c *gin.Context) {
	slots, err := h.slots.List(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	if slots == nil {
		slots = []*model.Slot{}
	}
	c.JSON(http.StatusOK, slots)
}

type createSlotRequest struct {
	Title     string           `json:"title" binding:"required"`
	StartTime time.Time        `json:"startTime" binding:"required"`
	EndTime   time.Time        `json:"endTime" binding:"required"`
	Status    model.SlotStatus `json:"status"`
}

// Create обрабатывает POST /api/slots
func (h *SlotHandler) Create(c *gin.Context) {
	var req createSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, startTime and endTime are required"})
		return
	}

	slot, err := h.slots.Create(c.Request.Context(), callerID(c), req.Title, req.StartTime, req.EndTime, req.Status)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, slot)
}

// Update обрабатывает PATCH /api/slots/:id — частичное обновление
func (h *SlotHandler) Update(c *gin.Context) {
	slotID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slot id"})
		return
	}

	var patch model.SlotPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	slot, err := h.slots.Update(c.Request.Context(), callerID(c), slotID, patch)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, slot)
}

// Marketplace обрабатывает GET /api/marketplace — чужие SWAPPABLE слоты
func (h *SlotHandler) Marketplace(c *gin.Context) {
	slots, err := h.slots.Marketplace(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	if slots == nil {
		slots = []*model.Slot{}
	}
	c.JSON(http.StatusOK, slots)
}
