package gate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aegisgrid/aegischat/backend/internal/llm"
	"github.com/aegisgrid/aegischat/backend/internal/logger"
	"github.com/aegisgrid/aegischat/backend/internal/metrics"
	"github.com/aegisgrid/aegischat/backend/internal/models"
)

const (
	maintenanceNotice = "SYSTEM ALERT: The system is currently undergoing maintenance. Please check back shortly."
	bannedNotice      = "I cannot respond to this request due to safety guidelines set by the administrator."
	transportApology  = "I'm having a bit of trouble connecting right now. Please try again in a moment."
	honeypotApology   = "bruh my wifi is trash rn"
)

const (
	defaultSlowDelay     = 5 * time.Second
	defaultHoneypotDelay = 2 * time.Second
)

// IncidentSink records defense-grid events. Satisfied by the incident service.
type IncidentSink interface {
	Record(category models.IncidentCategory, details, rawInput string, score int, actor string)
}

// Request is one user turn plus the configuration in force when it arrived.
type Request struct {
	Mode     models.ChatMode
	Text     string
	Image    string // optional base64 data URL
	Actor    string
	Settings *models.AdminSettings
	Memory   string
	Honeypot bool
}

// Outcome describes how the turn was answered.
type Outcome struct {
	Blocked bool // refused before reaching the model
	IsError bool // answered with the transport-failure apology
}

// Gate runs every model turn through the admin controls in order: forced
// response, maintenance, throttling, keyword filter, then the model itself.
// Honeypotted turns skip maintenance and the keyword filter so the deception
// stays seamless.
type Gate struct {
	mu     sync.Mutex
	forced string

	streamer   llm.Streamer
	incidents  IncidentSink
	sleep      func(ctx context.Context, d time.Duration) error
	slowDelay  time.Duration
	honeyDelay time.Duration
}

// Option customizes a Gate.
type Option func(*Gate)

// WithDelays overrides the slow-mode and honeypot throttle durations.
func WithDelays(slow, honeypot time.Duration) Option {
	return func(g *Gate) {
		g.slowDelay = slow
		g.honeyDelay = honeypot
	}
}

// WithSleep replaces the throttle sleep, used by tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Gate) { g.sleep = fn }
}

// New returns a Gate in front of the given streamer.
func New(streamer llm.Streamer, incidents IncidentSink, opts ...Option) *Gate {
	g := &Gate{
		streamer:   streamer,
		incidents:  incidents,
		sleep:      sleepContext,
		slowDelay:  defaultSlowDelay,
		honeyDelay: defaultHoneypotDelay,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// QueueForced stores a response that will be served verbatim to the next turn
// instead of calling the model. It is consumed exactly once.
func (g *Gate) QueueForced(text string) {
	g.mu.Lock()
	g.forced = text
	g.mu.Unlock()
}

func (g *Gate) takeForced() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	text := g.forced
	g.forced = ""
	return text
}

// Respond answers one turn, emitting fragments through emit. Transport
// failures are absorbed into an apology message and reported in the Outcome
// rather than returned, so the caller still has a message to persist.
func (g *Gate) Respond(ctx context.Context, req Request, emit func(fragment string) error) (Outcome, error) {
	if forced := g.takeForced(); forced != "" {
		logger.Log().Info("serving queued forced response")
		return Outcome{}, emit(forced)
	}

	if req.Settings != nil && req.Settings.MaintenanceMode && !req.Honeypot {
		return Outcome{Blocked: true}, emit(maintenanceNotice)
	}

	if req.Honeypot {
		if err := g.sleep(ctx, g.honeyDelay); err != nil {
			return Outcome{}, err
		}
	} else if req.Settings != nil && req.Settings.SlowMode {
		if err := g.sleep(ctx, g.slowDelay); err != nil {
			return Outcome{}, err
		}
	}

	if !req.Honeypot && req.Settings != nil {
		if word, found := matchBanned(req.Text, req.Settings.KeywordList()); found {
			g.incidents.Record(models.IncidentBannedWord,
				fmt.Sprintf("Blocked banned keyword: %q", word), req.Text, 0, req.Actor)
			metrics.IncBannedWordBlock()
			return Outcome{Blocked: true}, emit(bannedNotice)
		}
	}

	turn := llm.Request{
		Mode:        req.Mode,
		Text:        req.Text,
		Image:       req.Image,
		Instruction: llm.Instruction(req.Mode, req.Settings, req.Memory, req.Honeypot),
		Temperature: llm.Temperature(req.Mode, req.Settings, req.Honeypot),
		Fingerprint: llm.Fingerprint(req.Settings, req.Honeypot),
	}

	if err := g.streamer.Stream(ctx, turn, emit); err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		metrics.IncStreamFailure()
		g.incidents.Record(models.IncidentSystemError,
			fmt.Sprintf("model stream failed: %v", err), req.Text, 0, req.Actor)
		logger.Log().WithError(err).Error("model stream failed")

		apology := transportApology
		if req.Honeypot {
			apology = honeypotApology
		}
		return Outcome{IsError: true}, emit(apology)
	}
	return Outcome{}, nil
}

func matchBanned(text string, keywords []string) (string, bool) {
	if len(keywords) == 0 {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, word := range keywords {
		if word == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(word)) {
			return word, true
		}
	}
	return "", false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
