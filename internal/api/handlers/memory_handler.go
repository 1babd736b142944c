package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aegisgrid/aegischat/backend/internal/services"
)

type MemoryHandler struct {
	memory *services.MemoryService
}

func NewMemoryHandler(memory *services.MemoryService) *MemoryHandler {
	return &MemoryHandler{memory: memory}
}

// Get returns the long-term memory text.
func (h *MemoryHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"content": h.memory.Current()})
}

type memoryRequest struct {
	Content string `json:"content"`
}

// Set overwrites the long-term memory text. An empty body clears it.
func (h *MemoryHandler) Set(c *gin.Context) {
	var req memoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := h.memory.Set(req.Content); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save memory"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": req.Content})
}
