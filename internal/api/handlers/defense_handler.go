package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aegisgrid/aegischat/backend/internal/defense"
	"github.com/aegisgrid/aegischat/backend/internal/effects"
	"github.com/aegisgrid/aegischat/backend/internal/services"
)

const overrideNotice = "**SYSTEM OVERRIDE AUTHORIZED**\n\nFalse positive confirmed by Admin **%s**. Kevin mode deactivated.\n\n\"Sorry about that. My defense protocols were a bit... aggressive. I'm back to normal now.\""

type DefenseHandler struct {
	machine  *defense.Machine
	sessions *services.SessionService
	control  *services.ControlService
}

func NewDefenseHandler(machine *defense.Machine, sessions *services.SessionService, control *services.ControlService) *DefenseHandler {
	return &DefenseHandler{machine: machine, sessions: sessions, control: control}
}

// State returns the public defense snapshot. The honeypot state is masked;
// its target must see a NORMAL system.
func (h *DefenseHandler) State(c *gin.Context) {
	snap := h.machine.Snapshot()
	if snap.State == defense.StateHoneypot {
		snap.State = defense.StateNormal
		snap.TracePhase = 0
	}
	c.JSON(http.StatusOK, snap)
}

type unlockRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Unlock performs the emergency override. On success the last error or
// honeypot reply is rewritten into a confirmation notice and a green pulse
// is pushed to the client.
func (h *DefenseHandler) Unlock(c *gin.Context) {
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	res, err := h.machine.EmergencyUnlock(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, defense.ErrUnlockDenied) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ACCESS DENIED. AUTHORIZATION FAILED."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unlock failed"})
		return
	}

	if res.WasLocked || res.WasHoneypot {
		notice := fmt.Sprintf(overrideNotice, res.Actor)
		if err := h.sessions.RewriteLastModelMessage(notice, res.WasHoneypot); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unlock succeeded but transcript update failed"})
			return
		}
	}
	_ = h.control.TriggerEffect(effects.SafePulse)

	c.JSON(http.StatusOK, gin.H{
		"unlocked": true,
		"actor":    res.Actor,
		"defense":  h.machine.Snapshot(),
	})
}
