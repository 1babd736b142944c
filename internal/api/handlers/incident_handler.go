package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aegisgrid/aegischat/backend/internal/defense"
	"github.com/aegisgrid/aegischat/backend/internal/models"
	"github.com/aegisgrid/aegischat/backend/internal/services"
)

type IncidentHandler struct {
	incidents *services.IncidentService
	machine   *defense.Machine
}

func NewIncidentHandler(incidents *services.IncidentService, machine *defense.Machine) *IncidentHandler {
	return &IncidentHandler{incidents: incidents, machine: machine}
}

// List returns recent incidents, optionally filtered by category.
func (h *IncidentHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	incidents, err := h.incidents.List(models.IncidentCategory(c.Query("category")), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list incidents"})
		return
	}
	c.JSON(http.StatusOK, incidents)
}

// Stats returns aggregate incident counts for the dashboard.
func (h *IncidentHandler) Stats(c *gin.Context) {
	stats, err := h.incidents.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DefenseState returns the unmasked machine state, honeypot included.
func (h *IncidentHandler) DefenseState(c *gin.Context) {
	c.JSON(http.StatusOK, h.machine.Snapshot())
}
