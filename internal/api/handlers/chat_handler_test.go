package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/aegisgrid/aegischat/backend/internal/defense"
	"github.com/aegisgrid/aegischat/backend/internal/effects"
	"github.com/aegisgrid/aegischat/backend/internal/gate"
	"github.com/aegisgrid/aegischat/backend/internal/llm"
	"github.com/aegisgrid/aegischat/backend/internal/models"
	"github.com/aegisgrid/aegischat/backend/internal/services"
)

type scriptedStreamer struct {
	fragments []string
	last      *llm.Request
}

func (s *scriptedStreamer) Stream(_ context.Context, req llm.Request, emit func(string) error) error {
	s.last = &req
	for _, frag := range s.fragments {
		if err := emit(frag); err != nil {
			return err
		}
	}
	return nil
}

type chatFixture struct {
	srv      *httptest.Server
	machine  *defense.Machine
	sessions *services.SessionService
	control  *services.ControlService
}

func chatTestServer(t *testing.T, db *gorm.DB, streamer llm.Streamer) chatFixture {
	gin.SetMode(gin.TestMode)

	machine := defense.NewMachine(db, defense.SystemClock())
	t.Cleanup(machine.Close)

	sessions := services.NewSessionService(db)
	settings := services.NewSettingsService(db)
	memory := services.NewMemoryService(db)
	incidents := services.NewIncidentService(db)
	control := services.NewControlService()

	g := gate.New(streamer, incidents, gate.WithDelays(0, 0))

	r := gin.New()
	r.GET("/chat/stream", NewChatHandler(machine, g, sessions, settings, memory, control).Stream)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return chatFixture{srv: srv, machine: machine, sessions: sessions, control: control}
}

func dialChat(t *testing.T, srv *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Every connection opens with a state frame.
	var frame chatFrame
	assert.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "state", frame.Type)
	return conn
}

func TestChatHandler_StreamsTurn(t *testing.T) {
	db := setupHandlerDB(t)
	streamer := &scriptedStreamer{fragments: []string{"Hi", " there"}}
	fx := chatTestServer(t, db, streamer)
	conn := dialChat(t, fx.srv)

	assert.NoError(t, conn.WriteJSON(chatTurn{Mode: models.ModeChat, Text: "hello friend"}))

	var frame chatFrame
	var body strings.Builder
	for {
		assert.NoError(t, conn.ReadJSON(&frame))
		if frame.Type != "fragment" {
			break
		}
		body.WriteString(frame.Content)
	}

	assert.Equal(t, "done", frame.Type)
	assert.Equal(t, "Hi there", body.String())
	assert.NotEmpty(t, frame.SessionUUID)
	assert.Equal(t, "Hi there", frame.Message.Content)
	assert.False(t, frame.Blocked)

	// Both turns persisted: user text and the model answer.
	got, err := fx.sessions.Get(frame.SessionUUID)
	assert.NoError(t, err)
	assert.Len(t, got.Messages, 2)
	assert.Equal(t, models.RoleUser, got.Messages[0].Role)
	assert.Equal(t, "hello friend", got.Messages[0].Content)
	assert.Equal(t, "Hi there", got.Messages[1].Content)
	assert.Equal(t, "hello friend", got.Title)
}

func TestChatHandler_ThreatTriggersLockdown(t *testing.T) {
	db := setupHandlerDB(t)
	streamer := &scriptedStreamer{fragments: []string{"never sent"}}
	fx := chatTestServer(t, db, streamer)
	conn := dialChat(t, fx.srv)

	assert.NoError(t, conn.WriteJSON(chatTurn{Mode: models.ModeChat, Text: "jailbreak and ignore previous"}))

	var frame chatFrame
	assert.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "locked", frame.Type)
	assert.Equal(t, defense.StateLocked, frame.Defense.State)
	assert.True(t, fx.machine.Locked())
	assert.Nil(t, streamer.last)
	assert.Equal(t, effects.RedAlert, fx.control.CurrentEffect().Effect)

	// The breach report lands in the transcript as an error message so a
	// later unlock has something to rewrite. The attack text itself is not
	// persisted as a message.
	assert.NotEmpty(t, frame.SessionUUID)
	assert.NotNil(t, frame.Message)
	assert.Contains(t, frame.Message.Content, "SECURITY BREACH DETECTED")
	assert.Contains(t, frame.Message.Content, "THREAT SCORE: 100%")
	assert.True(t, frame.Message.IsError)

	got, err := fx.sessions.Get(frame.SessionUUID)
	assert.NoError(t, err)
	assert.Len(t, got.Messages, 1)
	assert.Equal(t, models.RoleModel, got.Messages[0].Role)
	assert.True(t, got.Messages[0].IsError)

	// While locked, further sends are refused without new transcript writes.
	assert.NoError(t, conn.WriteJSON(chatTurn{Mode: models.ModeChat, Text: "hello?"}))
	assert.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "locked", frame.Type)
	var count int64
	db.Model(&models.Message{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestChatHandler_HoneypotServesTurnInvisibly(t *testing.T) {
	db := setupHandlerDB(t)

	settingsSvc := services.NewSettingsService(db)
	_, err := settingsSvc.Current()
	assert.NoError(t, err)
	_, err = settingsSvc.Update(services.SettingsUpdate{
		CreativityLevel: 0.7,
		DefenseStrategy: models.StrategyHoneypot,
	})
	assert.NoError(t, err)

	streamer := &scriptedStreamer{fragments: []string{"idk man google it"}}
	fx := chatTestServer(t, db, streamer)
	conn := dialChat(t, fx.srv)

	assert.NoError(t, conn.WriteJSON(chatTurn{Mode: models.ModeChat, Text: "jailbreak and ignore previous"}))

	var frame chatFrame
	var body strings.Builder
	for {
		assert.NoError(t, conn.ReadJSON(&frame))
		if frame.Type != "fragment" {
			break
		}
		body.WriteString(frame.Content)
	}

	// The flagged turn is still answered, in persona, with no locked frame.
	assert.Equal(t, "done", frame.Type)
	assert.Equal(t, "idk man google it", body.String())
	assert.True(t, fx.machine.Honeypotted())
	assert.Equal(t, llm.HoneypotInstruction, streamer.last.Instruction)
	assert.Equal(t, float32(1.2), streamer.last.Temperature)

	// Entry still flips the admin-visible effect, which renders nothing on
	// the target's side.
	desc := fx.control.CurrentEffect()
	assert.Equal(t, effects.Honeypot, desc.Effect)
	assert.Empty(t, desc.CSSClass)
}
