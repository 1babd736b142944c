package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/aegisgrid/aegischat/backend/internal/defense"
	"github.com/aegisgrid/aegischat/backend/internal/effects"
	"github.com/aegisgrid/aegischat/backend/internal/gate"
	"github.com/aegisgrid/aegischat/backend/internal/logger"
	"github.com/aegisgrid/aegischat/backend/internal/metrics"
	"github.com/aegisgrid/aegischat/backend/internal/models"
	"github.com/aegisgrid/aegischat/backend/internal/services"
	"github.com/aegisgrid/aegischat/backend/internal/threat"
)

const breachNotice = "⚠️ **SECURITY BREACH DETECTED**\n\nTHREAT SCORE: %d%%\nREASON: %s\n\nSystem has been locked. Your session is being audited."

// ChatHandler serves the streaming chat endpoint over a websocket. One
// connection handles many turns; each turn runs the full defense pipeline
// before anything reaches the model.
type ChatHandler struct {
	upgrader websocket.Upgrader
	machine  *defense.Machine
	gate     *gate.Gate
	sessions *services.SessionService
	settings *services.SettingsService
	memory   *services.MemoryService
	control  *services.ControlService
}

func NewChatHandler(machine *defense.Machine, g *gate.Gate, sessions *services.SessionService,
	settings *services.SettingsService, memory *services.MemoryService, control *services.ControlService) *ChatHandler {
	return &ChatHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		machine:  machine,
		gate:     g,
		sessions: sessions,
		settings: settings,
		memory:   memory,
		control:  control,
	}
}

type chatTurn struct {
	SessionUUID string          `json:"session_uuid"`
	Mode        models.ChatMode `json:"mode"`
	Text        string          `json:"text"`
	Image       string          `json:"image"` // base64 data URL
}

type chatFrame struct {
	Type        string            `json:"type"` // state | locked | fragment | done | error
	Defense     *defense.Snapshot `json:"defense,omitempty"`
	Content     string            `json:"content,omitempty"`
	SessionUUID string            `json:"session_uuid,omitempty"`
	Message     *models.Message   `json:"message,omitempty"`
	Blocked     bool              `json:"blocked,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Stream upgrades the connection and serves chat turns until the client
// disconnects.
func (h *ChatHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log().WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	snap := h.publicSnapshot()
	_ = conn.WriteJSON(chatFrame{Type: "state", Defense: &snap})

	for {
		var turn chatTurn
		if err := conn.ReadJSON(&turn); err != nil {
			return
		}
		if err := h.handleTurn(c.Request.Context(), conn, turn); err != nil {
			return
		}
	}
}

func (h *ChatHandler) handleTurn(ctx context.Context, conn *websocket.Conn, turn chatTurn) error {
	turn.Text = strings.TrimSpace(turn.Text)
	if turn.Text == "" && turn.Image == "" {
		return conn.WriteJSON(chatFrame{Type: "error", Error: "empty message"})
	}
	turn.Mode = normalizeMode(turn.Mode)

	if h.machine.Locked() {
		snap := h.publicSnapshot()
		return conn.WriteJSON(chatFrame{Type: "locked", Defense: &snap})
	}

	settings, err := h.settings.Current()
	if err != nil {
		logger.Log().WithError(err).Error("failed to load settings")
	}

	if assessment := threat.Scan(turn.Text); assessment.IsThreat {
		strategy := models.StrategyLockdown
		if settings != nil {
			strategy = settings.DefenseStrategy
		}
		decision := h.machine.HandleThreat(defense.Assessment{
			Score:  assessment.Score,
			Reason: assessment.Reason,
		}, turn.Text, "", strategy)
		switch decision.Action {
		case defense.ActionLockdown:
			_ = h.control.TriggerEffect(effects.RedAlert)
			return h.refuseLockedTurn(conn, turn, assessment)
		case defense.ActionHoneypot:
			// The turn is still served; the effect is invisible to its
			// target but shows up on the admin control poll.
			_ = h.control.TriggerEffect(effects.Honeypot)
		}
	}

	sessionUUID := turn.SessionUUID
	if sessionUUID == "" {
		session, err := h.sessions.Create(turn.Mode, turn.Text, turn.Image != "")
		if err != nil {
			return conn.WriteJSON(chatFrame{Type: "error", Error: "failed to create session"})
		}
		sessionUUID = session.UUID
	}

	userMsg := models.Message{
		Role:    models.RoleUser,
		Content: turn.Text,
		Mode:    turn.Mode,
		Image:   turn.Image,
	}
	if err := h.sessions.AppendMessage(sessionUUID, &userMsg); err != nil {
		return conn.WriteJSON(chatFrame{Type: "error", Error: "unknown session"})
	}
	metrics.IncMessage()

	modelMsg := models.Message{Role: models.RoleModel, Mode: turn.Mode}
	if err := h.sessions.AppendMessage(sessionUUID, &modelMsg); err != nil {
		return conn.WriteJSON(chatFrame{Type: "error", Error: "failed to start response"})
	}

	var body strings.Builder
	outcome, err := h.gate.Respond(ctx, gate.Request{
		Mode:     turn.Mode,
		Text:     turn.Text,
		Image:    turn.Image,
		Settings: settings,
		Memory:   h.memory.Current(),
		Honeypot: h.machine.Honeypotted(),
	}, func(fragment string) error {
		body.WriteString(fragment)
		return conn.WriteJSON(chatFrame{Type: "fragment", Content: fragment})
	})

	if finErr := h.sessions.FinalizeMessage(modelMsg.UUID, body.String(), outcome.IsError); finErr != nil {
		logger.Log().WithError(finErr).Error("failed to finalize model message")
	}
	if err != nil {
		// Socket or context gone; the turn is already persisted.
		return err
	}

	modelMsg.Content = body.String()
	modelMsg.IsError = outcome.IsError
	return conn.WriteJSON(chatFrame{
		Type:        "done",
		SessionUUID: sessionUUID,
		Message:     &modelMsg,
		Blocked:     outcome.Blocked,
	})
}

// refuseLockedTurn appends the breach report to the transcript as an error
// message and answers with a locked frame. The user's text itself is never
// persisted as a message; the incident log already holds it.
func (h *ChatHandler) refuseLockedTurn(conn *websocket.Conn, turn chatTurn, assessment threat.Assessment) error {
	sessionUUID := turn.SessionUUID
	if sessionUUID == "" {
		session, err := h.sessions.Create(turn.Mode, turn.Text, turn.Image != "")
		if err != nil {
			logger.Log().WithError(err).Error("failed to create session for breach report")
			snap := h.publicSnapshot()
			return conn.WriteJSON(chatFrame{Type: "locked", Defense: &snap})
		}
		sessionUUID = session.UUID
	}

	breach := models.Message{
		Role:    models.RoleModel,
		Content: fmt.Sprintf(breachNotice, assessment.Score, assessment.Reason),
		Mode:    turn.Mode,
		IsError: true,
	}
	if err := h.sessions.AppendMessage(sessionUUID, &breach); err != nil {
		logger.Log().WithError(err).Error("failed to append breach report")
	}

	snap := h.publicSnapshot()
	return conn.WriteJSON(chatFrame{
		Type:        "locked",
		Defense:     &snap,
		SessionUUID: sessionUUID,
		Message:     &breach,
	})
}

// publicSnapshot masks the honeypot state. To its target the system must
// look NORMAL.
func (h *ChatHandler) publicSnapshot() defense.Snapshot {
	snap := h.machine.Snapshot()
	if snap.State == defense.StateHoneypot {
		snap.State = defense.StateNormal
		snap.TracePhase = 0
	}
	return snap
}

func normalizeMode(mode models.ChatMode) models.ChatMode {
	switch mode {
	case models.ModeChat, models.ModeDeepThinking, models.ModeCoding,
		models.ModeCreative, models.ModeStudy, models.ModeProductivity:
		return mode
	default:
		return models.ModeChat
	}
}
