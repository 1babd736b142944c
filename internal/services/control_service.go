package services

import (
	"errors"
	"sync"
	"time"

	"github.com/aegisgrid/aegischat/backend/internal/effects"
)

var ErrUnknownEffect = errors.New("unknown reality effect")

const (
	broadcastTTL = 6 * time.Second
	safePulseTTL = 2 * time.Second
)

// ControlService holds the transient admin control state: the current
// broadcast banner and the active reality effect. Both are in-memory only
// and expire on their own; clients poll rather than subscribe.
type ControlService struct {
	mu             sync.Mutex
	now            func() time.Time
	broadcast      string
	broadcastUntil time.Time
	effect         effects.Effect
	effectUntil    time.Time // zero means no expiry
}

// NewControlService returns a ControlService.
func NewControlService() *ControlService {
	return &ControlService{now: time.Now, effect: effects.None}
}

// Broadcast publishes a banner message that expires after a few seconds.
func (s *ControlService) Broadcast(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcast = message
	s.broadcastUntil = s.now().Add(broadcastTTL)
}

// CurrentBroadcast returns the live banner, if any.
func (s *ControlService) CurrentBroadcast() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broadcast == "" || s.now().After(s.broadcastUntil) {
		return "", false
	}
	return s.broadcast, true
}

// TriggerEffect activates a reality effect. SAFE_PULSE clears itself after a
// short flash; every other effect stays until replaced.
func (s *ControlService) TriggerEffect(effect effects.Effect) error {
	if !effects.Valid(effect) {
		return ErrUnknownEffect
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.effect = effect
	s.effectUntil = time.Time{}
	if effect == effects.SafePulse {
		s.effectUntil = s.now().Add(safePulseTTL)
	}
	return nil
}

// CurrentEffect returns the descriptor of the active effect.
func (s *ControlService) CurrentEffect() effects.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.effect != effects.None && !s.effectUntil.IsZero() && s.now().After(s.effectUntil) {
		s.effect = effects.None
		s.effectUntil = time.Time{}
	}
	return effects.Describe(s.effect)
}
