package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aegisgrid/aegischat/backend/internal/services"
)

// ActiveSessionHeader carries the client's currently open session so a delete
// response can tell it whether to clear its view.
const ActiveSessionHeader = "X-Active-Session"

type SessionHandler struct {
	sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// List returns all sessions, most recently active first.
func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.sessions.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// Get returns one session with its transcript.
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("uuid"))
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
		return
	}
	c.JSON(http.StatusOK, session)
}

// Delete removes a session. The response tells the client whether it just
// deleted the session it was viewing.
func (h *SessionHandler) Delete(c *gin.Context) {
	target := c.Param("uuid")
	if err := h.sessions.Delete(target); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deleted":        target,
		"cleared_active": c.GetHeader(ActiveSessionHeader) == target,
	})
}
