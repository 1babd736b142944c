package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aegisgrid/aegischat/backend/internal/effects"
)

func TestControlService_BroadcastExpires(t *testing.T) {
	now := time.Now()
	svc := NewControlService()
	svc.now = func() time.Time { return now }

	_, ok := svc.CurrentBroadcast()
	assert.False(t, ok)

	svc.Broadcast("scheduled downtime at noon")
	msg, ok := svc.CurrentBroadcast()
	assert.True(t, ok)
	assert.Equal(t, "scheduled downtime at noon", msg)

	now = now.Add(7 * time.Second)
	_, ok = svc.CurrentBroadcast()
	assert.False(t, ok)
}

func TestControlService_TriggerEffect(t *testing.T) {
	svc := NewControlService()

	assert.ErrorIs(t, svc.TriggerEffect("DISCO"), ErrUnknownEffect)

	assert.NoError(t, svc.TriggerEffect(effects.Matrix))
	desc := svc.CurrentEffect()
	assert.Equal(t, effects.Matrix, desc.Effect)
	assert.NotEmpty(t, desc.CSSClass)
}

func TestControlService_SafePulseClearsItself(t *testing.T) {
	now := time.Now()
	svc := NewControlService()
	svc.now = func() time.Time { return now }

	assert.NoError(t, svc.TriggerEffect(effects.SafePulse))
	assert.Equal(t, effects.SafePulse, svc.CurrentEffect().Effect)

	now = now.Add(3 * time.Second)
	assert.Equal(t, effects.None, svc.CurrentEffect().Effect)
}

func TestControlService_StickyEffectSurvives(t *testing.T) {
	now := time.Now()
	svc := NewControlService()
	svc.now = func() time.Time { return now }

	assert.NoError(t, svc.TriggerEffect(effects.Glitch))
	now = now.Add(time.Hour)
	assert.Equal(t, effects.Glitch, svc.CurrentEffect().Effect)
}
