package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aegisgrid/aegischat/backend/internal/models"
)

func setupSessionTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.ChatSession{}, &models.Message{})
	assert.NoError(t, err)

	return db
}

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t, "New Chat", DeriveTitle("", false))
	assert.Equal(t, "New Chat", DeriveTitle("   ", false))
	assert.Equal(t, "Image Chat", DeriveTitle("", true))
	assert.Equal(t, "Short question", DeriveTitle("Short question", false))
	assert.Equal(t, "Explain quicksort please in de...",
		DeriveTitle("Explain quicksort please in detail with examples", false))
}

func TestDeriveTitle_CountsRunes(t *testing.T) {
	// 31 multibyte runes must truncate after 30 runes, not 30 bytes.
	text := strings.Repeat("α", 31)
	got := DeriveTitle(text, false)
	assert.Equal(t, 33, len([]rune(got)))
	assert.Equal(t, strings.Repeat("α", 30)+"...", got)
}

func TestSessionService_CreateAndGet(t *testing.T) {
	svc := NewSessionService(setupSessionTestDB(t))

	session, err := svc.Create(models.ModeCoding, "Write a binary search in Go please", false)
	assert.NoError(t, err)
	assert.Equal(t, "Write a binary search in Go pl...", session.Title)
	assert.Equal(t, models.ModeCoding, session.Mode)

	got, err := svc.Get(session.UUID)
	assert.NoError(t, err)
	assert.Equal(t, session.UUID, got.UUID)
	assert.Empty(t, got.Messages)

	_, err = svc.Get("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_ListMostRecentFirst(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)

	first, err := svc.Create(models.ModeChat, "first", false)
	assert.NoError(t, err)
	second, err := svc.Create(models.ModeChat, "second", false)
	assert.NoError(t, err)

	// Backdate the second session, then touch the first with a message.
	db.Model(&models.ChatSession{}).Where("uuid = ?", second.UUID).
		Update("last_active_at", time.Now().Add(-time.Hour))

	err = svc.AppendMessage(first.UUID, &models.Message{Role: models.RoleUser, Content: "hi"})
	assert.NoError(t, err)

	sessions, err := svc.List()
	assert.NoError(t, err)
	assert.Len(t, sessions, 2)
	assert.Equal(t, first.UUID, sessions[0].UUID)
	assert.Equal(t, second.UUID, sessions[1].UUID)
}

func TestSessionService_AppendFillsPlaceholderTitle(t *testing.T) {
	svc := NewSessionService(setupSessionTestDB(t))

	session, err := svc.Create(models.ModeChat, "", false)
	assert.NoError(t, err)
	assert.Equal(t, "New Chat", session.Title)

	err = svc.AppendMessage(session.UUID, &models.Message{
		Role:    models.RoleUser,
		Content: "What is a goroutine exactly and when to use one",
	})
	assert.NoError(t, err)

	got, err := svc.Get(session.UUID)
	assert.NoError(t, err)
	assert.Equal(t, "What is a goroutine exactly an...", got.Title)
}

func TestSessionService_DeleteCascades(t *testing.T) {
	db := setupSessionTestDB(t)
	svc := NewSessionService(db)

	session, err := svc.Create(models.ModeChat, "bye", false)
	assert.NoError(t, err)
	assert.NoError(t, svc.AppendMessage(session.UUID, &models.Message{Role: models.RoleUser, Content: "bye"}))

	assert.NoError(t, svc.Delete(session.UUID))
	assert.ErrorIs(t, svc.Delete(session.UUID), ErrSessionNotFound)

	var count int64
	db.Model(&models.Message{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestSessionService_FinalizeMessage(t *testing.T) {
	svc := NewSessionService(setupSessionTestDB(t))

	session, err := svc.Create(models.ModeChat, "q", false)
	assert.NoError(t, err)

	msg := models.Message{Role: models.RoleModel}
	assert.NoError(t, svc.AppendMessage(session.UUID, &msg))

	assert.NoError(t, svc.FinalizeMessage(msg.UUID, "full answer", false))
	assert.ErrorIs(t, svc.FinalizeMessage("missing", "x", false), ErrMessageNotFound)

	got, err := svc.Get(session.UUID)
	assert.NoError(t, err)
	assert.Equal(t, "full answer", got.Messages[1].Content)
}

func TestSessionService_AppendSystemNotice(t *testing.T) {
	svc := NewSessionService(setupSessionTestDB(t))

	// No sessions: notice is dropped silently.
	assert.NoError(t, svc.AppendSystemNotice("restored"))

	session, err := svc.Create(models.ModeStudy, "q", false)
	assert.NoError(t, err)

	assert.NoError(t, svc.AppendSystemNotice("restored"))

	got, err := svc.Get(session.UUID)
	assert.NoError(t, err)
	assert.Len(t, got.Messages, 1)
	assert.Equal(t, models.RoleModel, got.Messages[0].Role)
	assert.Equal(t, "restored", got.Messages[0].Content)
	assert.Equal(t, models.ModeStudy, got.Messages[0].Mode)
}

func TestSessionService_RewriteLastModelMessage(t *testing.T) {
	svc := NewSessionService(setupSessionTestDB(t))

	session, err := svc.Create(models.ModeChat, "q", false)
	assert.NoError(t, err)

	errMsg := models.Message{Role: models.RoleModel, Content: "apology", IsError: true}
	assert.NoError(t, svc.AppendMessage(session.UUID, &errMsg))

	assert.NoError(t, svc.RewriteLastModelMessage("override notice", false))

	got, err := svc.Get(session.UUID)
	assert.NoError(t, err)
	last := got.Messages[len(got.Messages)-1]
	assert.Equal(t, "override notice", last.Content)
	assert.False(t, last.IsError)
}

func TestSessionService_RewriteSkipsHealthyMessageUnlessForced(t *testing.T) {
	svc := NewSessionService(setupSessionTestDB(t))

	session, err := svc.Create(models.ModeChat, "q", false)
	assert.NoError(t, err)

	healthy := models.Message{Role: models.RoleModel, Content: "kevin says hi"}
	assert.NoError(t, svc.AppendMessage(session.UUID, &healthy))

	// Not an error message: untouched without the honeypot override.
	assert.NoError(t, svc.RewriteLastModelMessage("notice", false))
	got, _ := svc.Get(session.UUID)
	assert.Equal(t, "kevin says hi", got.Messages[0].Content)

	assert.NoError(t, svc.RewriteLastModelMessage("notice", true))
	got, _ = svc.Get(session.UUID)
	assert.Equal(t, "notice", got.Messages[0].Content)
}
