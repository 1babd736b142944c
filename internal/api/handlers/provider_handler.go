package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aegisgrid/aegischat/backend/internal/services"
)

type ProviderHandler struct {
	notifications *services.NotificationService
}

func NewProviderHandler(notifications *services.NotificationService) *ProviderHandler {
	return &ProviderHandler{notifications: notifications}
}

// List returns all notification providers.
func (h *ProviderHandler) List(c *gin.Context) {
	providers, err := h.notifications.ListProviders()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list providers"})
		return
	}
	c.JSON(http.StatusOK, providers)
}

type providerRequest struct {
	Name           string `json:"name" binding:"required"`
	URL            string `json:"url" binding:"required"`
	NotifySecurity *bool  `json:"notify_security"`
}

// Create registers a notification provider.
func (h *ProviderHandler) Create(c *gin.Context) {
	var req providerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and url required"})
		return
	}
	notifySecurity := true
	if req.NotifySecurity != nil {
		notifySecurity = *req.NotifySecurity
	}
	provider, err := h.notifications.CreateProvider(req.Name, req.URL, notifySecurity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create provider"})
		return
	}
	c.JSON(http.StatusCreated, provider)
}

// Delete removes a notification provider.
func (h *ProviderHandler) Delete(c *gin.Context) {
	if err := h.notifications.DeleteProvider(c.Param("uuid")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete provider"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("uuid")})
}
