package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aegisgrid/aegischat/backend/internal/effects"
	"github.com/aegisgrid/aegischat/backend/internal/gate"
	"github.com/aegisgrid/aegischat/backend/internal/services"
)

type ControlHandler struct {
	control *services.ControlService
	gate    *gate.Gate
}

func NewControlHandler(control *services.ControlService, g *gate.Gate) *ControlHandler {
	return &ControlHandler{control: control, gate: g}
}

// Poll returns the live broadcast banner and reality effect. Public; clients
// poll this alongside the chat socket.
func (h *ControlHandler) Poll(c *gin.Context) {
	resp := gin.H{"effect": h.control.CurrentEffect()}
	if msg, ok := h.control.CurrentBroadcast(); ok {
		resp["broadcast"] = msg
	}
	c.JSON(http.StatusOK, resp)
}

type broadcastRequest struct {
	Message string `json:"message" binding:"required"`
}

// Broadcast publishes a banner to every connected client.
func (h *ControlHandler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message required"})
		return
	}
	h.control.Broadcast(req.Message)
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

type effectRequest struct {
	Effect effects.Effect `json:"effect" binding:"required"`
}

// TriggerEffect activates a reality effect.
func (h *ControlHandler) TriggerEffect(c *gin.Context) {
	var req effectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "effect required"})
		return
	}
	if err := h.control.TriggerEffect(req.Effect); err != nil {
		if errors.Is(err, services.ErrUnknownEffect) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown effect"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to trigger effect"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"effect": h.control.CurrentEffect()})
}

type forcedRequest struct {
	Response string `json:"response" binding:"required"`
}

// QueueForced stores a response served verbatim to the next chat turn.
func (h *ControlHandler) QueueForced(c *gin.Context) {
	var req forcedRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Response) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "response required"})
		return
	}
	h.gate.QueueForced(req.Response)
	c.JSON(http.StatusOK, gin.H{"queued": true})
}
