package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aegisgrid/aegischat/backend/internal/models"
)

var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrMessageNotFound = errors.New("message not found")
)

// titleRuneLimit caps derived session titles before the ellipsis is added.
const titleRuneLimit = 30

type SessionService struct {
	db *gorm.DB
}

// NewSessionService returns a SessionService using the provided DB.
func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

// Create starts a new session. The title is derived from the first message
// text; sessions created without text get a placeholder until the first
// message arrives.
func (s *SessionService) Create(mode models.ChatMode, firstText string, hasImage bool) (*models.ChatSession, error) {
	session := models.ChatSession{
		UUID:         uuid.NewString(),
		Title:        DeriveTitle(firstText, hasImage),
		Mode:         mode,
		LastActiveAt: time.Now(),
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// List returns all sessions most-recently-active first, without transcripts.
func (s *SessionService) List() ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	if err := s.db.Order("last_active_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// Get returns one session with its full transcript in chronological order.
func (s *SessionService) Get(sessionUUID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("messages.id ASC")
	}).Where("uuid = ?", sessionUUID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Delete removes a session and, via the cascade, its transcript.
func (s *SessionService) Delete(sessionUUID string) error {
	var session models.ChatSession
	if err := s.db.Where("uuid = ?", sessionUUID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return s.db.Select("Messages").Delete(&session).Error
}

// AppendMessage adds a message to a session, bumps its activity timestamp,
// and fills in a placeholder title from the first real user text.
func (s *SessionService) AppendMessage(sessionUUID string, msg *models.Message) error {
	var session models.ChatSession
	if err := s.db.Where("uuid = ?", sessionUUID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	if msg.UUID == "" {
		msg.UUID = uuid.NewString()
	}
	msg.SessionID = session.ID
	if err := s.db.Create(msg).Error; err != nil {
		return err
	}

	updates := map[string]interface{}{"last_active_at": time.Now()}
	if isPlaceholderTitle(session.Title) && msg.Role == models.RoleUser && strings.TrimSpace(msg.Content) != "" {
		updates["title"] = DeriveTitle(msg.Content, msg.Image != "")
	}
	return s.db.Model(&session).Updates(updates).Error
}

// UpdateMessageContent replaces a message body, located by UUID. Used to grow
// a model message while its stream is in flight.
func (s *SessionService) UpdateMessageContent(messageUUID, content string) error {
	res := s.db.Model(&models.Message{}).Where("uuid = ?", messageUUID).Update("content", content)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// FinalizeMessage writes the completed body and error flag of a streamed
// model message.
func (s *SessionService) FinalizeMessage(messageUUID, content string, isError bool) error {
	res := s.db.Model(&models.Message{}).Where("uuid = ?", messageUUID).Updates(map[string]interface{}{
		"content":  content,
		"is_error": isError,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// Latest returns the most recently active session, or ErrSessionNotFound when
// none exist.
func (s *SessionService) Latest() (*models.ChatSession, error) {
	var session models.ChatSession
	if err := s.db.Order("last_active_at DESC").First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// AppendSystemNotice appends a model-role message to the most recently active
// session. Used for the post-lockdown restoration notice. Missing sessions
// are not an error; the notice is simply dropped.
func (s *SessionService) AppendSystemNotice(notice string) error {
	session, err := s.Latest()
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}
	return s.AppendMessage(session.UUID, &models.Message{
		Role:    models.RoleModel,
		Content: notice,
		Mode:    session.Mode,
	})
}

// RewriteLastModelMessage replaces the content of the newest model message in
// the most recently active session and clears its error flag. Used by the
// emergency unlock to overwrite the apology or honeypot reply it interrupted.
// Unless includeNonError is set, only an error message is rewritten.
func (s *SessionService) RewriteLastModelMessage(content string, includeNonError bool) error {
	session, err := s.Latest()
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}
	var msg models.Message
	err = s.db.Where("session_id = ? AND role = ?", session.ID, models.RoleModel).
		Order("id DESC").First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if !msg.IsError && !includeNonError {
		return nil
	}
	return s.db.Model(&msg).Updates(map[string]interface{}{
		"content":  content,
		"is_error": false,
	}).Error
}

// DeriveTitle builds a session title from the first user text: the first 30
// runes plus an ellipsis when truncated. Image-only messages get a fixed
// title, empty ones a placeholder.
func DeriveTitle(text string, hasImage bool) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		if hasImage {
			return "Image Chat"
		}
		return "New Chat"
	}
	runes := []rune(trimmed)
	if len(runes) <= titleRuneLimit {
		return trimmed
	}
	return string(runes[:titleRuneLimit]) + "..."
}

func isPlaceholderTitle(title string) bool {
	return title == "New Chat" || title == "Image Chat"
}
