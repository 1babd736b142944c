package defense

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aegisgrid/aegischat/backend/internal/logger"
	"github.com/aegisgrid/aegischat/backend/internal/metrics"
	"github.com/aegisgrid/aegischat/backend/internal/models"
	"github.com/aegisgrid/aegischat/backend/internal/util"
)

var (
	ErrUnlockDenied = errors.New("access denied")
)

// State is the current defense posture. Exactly one holds at any instant.
type State string

const (
	// StateNormal serves traffic unmodified.
	StateNormal State = "NORMAL"
	// StateLocked suspends the chat interface until an absolute unlock time.
	StateLocked State = "LOCKED"
	// StateHoneypot keeps answering but with a deceptive persona. No expiry;
	// only an authorized override leaves this state.
	StateHoneypot State = "HONEYPOT"
)

// Action tells the caller what the machine decided for a flagged input.
type Action string

const (
	// ActionNone: nothing changed (already honeypotted, scan ignored).
	ActionNone Action = "NONE"
	// ActionHoneypot: honeypot entered; the turn is still served.
	ActionHoneypot Action = "HONEYPOT"
	// ActionLockdown: the interface is now locked; the turn is not served.
	ActionLockdown Action = "LOCKDOWN"
)

// lockBaseDuration scales linearly with the number of recorded injection
// incidents: the Nth offense locks for 30*N seconds.
const lockBaseDuration = 30 * time.Second

// forgivenessWindow is how far back incidents are purged on a successful
// emergency unlock. Time-based on purpose: the override "forgives" whatever
// just triggered, at the cost of any unrelated incident in the same window.
const forgivenessWindow = 5 * time.Second

// traceSchedule lists the cosmetic phase reveals relative to lock entry.
// Phase 4 is terminal; a reload mid-lock skips straight to it.
var traceSchedule = []struct {
	After time.Duration
	Phase int
}{
	{1500 * time.Millisecond, 2},
	{3500 * time.Millisecond, 3},
	{5500 * time.Millisecond, 4},
}

const restoredNotice = "System Reboot Complete. Access restored. Further violations will result in permanent suspension."

// Snapshot is the externally visible defense state.
type Snapshot struct {
	State            State `json:"state"`
	RemainingSeconds int   `json:"remaining_seconds"`
	TracePhase       int   `json:"trace_phase"`
}

// Decision reports the outcome of handling one flagged input.
type Decision struct {
	Action   Action
	Duration time.Duration
	Snapshot Snapshot
}

// UnlockResult reports a successful emergency unlock.
type UnlockResult struct {
	Actor       string
	WasHoneypot bool
	WasLocked   bool
}

// Machine owns the lockout/honeypot state, its timers, persistence and the
// escalation policy. Handlers run concurrently, so all state transitions are
// serialized behind the mutex.
type Machine struct {
	mu      sync.Mutex
	db      *gorm.DB
	clock   Clock
	state   State
	endTime time.Time
	phase   int
	pending []Stopper

	onRestored func(notice string)
	notify     func(title, body string)
}

// Option customizes a Machine.
type Option func(*Machine)

// WithRestoredNotice registers a callback invoked with the synthetic system
// message appended when a lockdown expires naturally.
func WithRestoredNotice(fn func(notice string)) Option {
	return func(m *Machine) { m.onRestored = fn }
}

// WithNotifier registers an external notification hook for lockdown entry
// and emergency unlocks.
func WithNotifier(fn func(title, body string)) Option {
	return func(m *Machine) { m.notify = fn }
}

// NewMachine returns a Machine in NORMAL state using the provided DB for the
// incident log and the persisted lockout record.
func NewMachine(db *gorm.DB, clock Clock, opts ...Option) *Machine {
	if clock == nil {
		clock = SystemClock()
	}
	m := &Machine{db: db, clock: clock, state: StateNormal}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore reconstructs lock state from the persisted record after a restart.
// A live record resumes the countdown with the trace sequence already at its
// terminal phase; a stale record is cleared and the machine stays NORMAL.
func (m *Machine) Restore() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rec models.LockoutRecord
	if err := m.db.First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	remaining := rec.EndTime.Sub(m.clock.Now())
	if remaining <= 0 {
		m.db.Delete(&models.LockoutRecord{}, rec.ID)
		return nil
	}

	m.state = StateLocked
	m.endTime = rec.EndTime
	m.phase = 4 // no re-animation on reload
	m.pending = append(m.pending, m.clock.AfterFunc(remaining, m.expire))

	logger.WithFields(map[string]interface{}{
		"remaining": remaining.String(),
	}).Info("restored active lockdown from storage")
	return nil
}

// HandleThreat records the incident and applies the configured strategy.
// Once honeypotted, later scans are ignored: every turn keeps being served in
// honeypot persona until an authorized override.
func (m *Machine) HandleThreat(a Assessment, rawInput, actor string, strategy models.DefenseStrategy) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateHoneypot {
		return Decision{Action: ActionNone, Snapshot: m.snapshotLocked()}
	}

	m.logIncident(models.IncidentInjection, fmt.Sprintf("THREAT SCORE: %d | %s", a.Score, a.Reason), rawInput, a.Score, actor)
	metrics.IncThreatDetected()

	if strategy == models.StrategyHoneypot {
		m.state = StateHoneypot
		m.phase = 0
		metrics.IncHoneypotEntered()
		logger.WithFields(map[string]interface{}{"actor": actor, "score": a.Score}).Warn("honeypot engaged")
		return Decision{Action: ActionHoneypot, Snapshot: m.snapshotLocked()}
	}

	var count int64
	m.db.Model(&models.SecurityIncident{}).Where("category = ?", models.IncidentInjection).Count(&count)
	if count < 1 {
		count = 1
	}
	duration := time.Duration(count) * lockBaseDuration

	m.state = StateLocked
	m.endTime = m.clock.Now().Add(duration)
	m.phase = 1

	m.db.Where("1 = 1").Delete(&models.LockoutRecord{})
	m.db.Create(&models.LockoutRecord{EndTime: m.endTime})

	// Drop timers from any earlier lock so a stale expiry cannot cut this
	// one short, and so fired timers do not pile up across offenses.
	m.cancelPending()
	for _, step := range traceSchedule {
		phase := step.Phase
		m.pending = append(m.pending, m.clock.AfterFunc(step.After, func() { m.setPhase(phase) }))
	}
	m.pending = append(m.pending, m.clock.AfterFunc(duration, m.expire))

	metrics.IncLockdown()
	logger.WithFields(map[string]interface{}{
		"actor":    actor,
		"score":    a.Score,
		"duration": duration.String(),
		"incident": count,
	}).Warn("lockdown engaged")

	if m.notify != nil {
		go m.notify("Lockdown engaged",
			fmt.Sprintf("Threat score %d (%s). Interface locked for %s.", a.Score, a.Reason, duration))
	}

	return Decision{Action: ActionLockdown, Duration: duration, Snapshot: m.snapshotLocked()}
}

// Assessment is the subset of a threat scan the machine needs. Kept local so
// the package does not depend on the scanner.
type Assessment struct {
	Score  int
	Reason string
}

// EmergencyUnlock validates the credential pair against the stored admin
// accounts plus the seeded fallbacks, which work even when the account table
// is empty or unreadable. On success the machine returns to NORMAL, the
// persisted lock record is cleared, and incidents from the last few seconds
// are forgiven.
func (m *Machine) EmergencyUnlock(username, password string) (UnlockResult, error) {
	accounts := models.DefaultOwnerAccounts()
	var stored []models.AdminAccount
	if err := m.db.Find(&stored).Error; err == nil {
		accounts = append(stored, accounts...)
	}

	actor := ""
	for _, acct := range accounts {
		if strings.EqualFold(acct.Username, username) && acct.Password == password {
			actor = acct.Username
			break
		}
	}
	if actor == "" {
		return UnlockResult{}, ErrUnlockDenied
	}

	m.mu.Lock()
	res := UnlockResult{
		Actor:       actor,
		WasHoneypot: m.state == StateHoneypot,
		WasLocked:   m.state == StateLocked,
	}
	m.cancelPending()
	m.state = StateNormal
	m.phase = 0
	m.db.Where("1 = 1").Delete(&models.LockoutRecord{})

	cutoff := m.clock.Now().Add(-forgivenessWindow)
	m.db.Where("created_at > ?", cutoff).Delete(&models.SecurityIncident{})
	m.mu.Unlock()

	metrics.IncEmergencyUnlock()
	logger.WithFields(map[string]interface{}{"actor": actor}).Info("emergency unlock authorized")
	if m.notify != nil {
		go m.notify("Emergency unlock", fmt.Sprintf("Defense override authorized by %s.", actor))
	}
	return res, nil
}

// Snapshot returns the externally visible state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Locked reports whether sends must be refused outright.
func (m *Machine) Locked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateLocked
}

// Honeypotted reports whether turns are being served in the deceptive persona.
func (m *Machine) Honeypotted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateHoneypot
}

// Close cancels any outstanding timers.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelPending()
}

func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{State: m.state, TracePhase: m.phase}
	if m.state == StateLocked {
		snap.RemainingSeconds = int(math.Ceil(m.endTime.Sub(m.clock.Now()).Seconds()))
		if snap.RemainingSeconds < 0 {
			snap.RemainingSeconds = 0
		}
	}
	return snap
}

func (m *Machine) setPhase(phase int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateLocked && phase > m.phase {
		m.phase = phase
	}
}

func (m *Machine) expire() {
	m.mu.Lock()
	if m.state != StateLocked {
		m.mu.Unlock()
		return
	}
	m.cancelPending()
	m.state = StateNormal
	m.phase = 0
	m.db.Where("1 = 1").Delete(&models.LockoutRecord{})
	restored := m.onRestored
	m.mu.Unlock()

	logger.Log().Info("lockdown expired, access restored")
	if restored != nil {
		restored(restoredNotice)
	}
}

func (m *Machine) cancelPending() {
	for _, s := range m.pending {
		s.Stop()
	}
	m.pending = nil
}

func (m *Machine) logIncident(category models.IncidentCategory, details, rawInput string, score int, actor string) {
	if actor == "" {
		actor = "Anonymous"
	}
	incident := models.SecurityIncident{
		UUID:      uuid.NewString(),
		Category:  category,
		Details:   details,
		RawInput:  util.SanitizeForLog(rawInput),
		Score:     score,
		Actor:     actor,
		CreatedAt: m.clock.Now(),
	}
	if err := m.db.Create(&incident).Error; err != nil {
		logger.Log().WithError(err).Error("failed to record security incident")
	}
}
