package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	threatsDetectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aegischat_threats_detected_total",
		Help: "Total number of inputs flagged by the threat scanner",
	})
	lockdownsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aegischat_lockdowns_total",
		Help: "Total number of lockdowns engaged",
	})
	honeypotEnteredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aegischat_honeypot_entered_total",
		Help: "Total number of honeypot activations",
	})
	emergencyUnlocksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aegischat_emergency_unlocks_total",
		Help: "Total number of successful emergency unlocks",
	})
	messagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aegischat_messages_total",
		Help: "Total number of user messages accepted for a model turn",
	})
	bannedWordBlocksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aegischat_banned_word_blocks_total",
		Help: "Total number of inputs refused by the banned keyword filter",
	})
	streamFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aegischat_stream_failures_total",
		Help: "Total number of model streams that failed mid-flight",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		threatsDetectedTotal,
		lockdownsTotal,
		honeypotEnteredTotal,
		emergencyUnlocksTotal,
		messagesTotal,
		bannedWordBlocksTotal,
		streamFailuresTotal,
	)
}

// IncThreatDetected increments the flagged input counter.
func IncThreatDetected() { threatsDetectedTotal.Inc() }

// IncLockdown increments the lockdown counter.
func IncLockdown() { lockdownsTotal.Inc() }

// IncHoneypotEntered increments the honeypot activation counter.
func IncHoneypotEntered() { honeypotEnteredTotal.Inc() }

// IncEmergencyUnlock increments the successful unlock counter.
func IncEmergencyUnlock() { emergencyUnlocksTotal.Inc() }

// IncMessage increments the accepted message counter.
func IncMessage() { messagesTotal.Inc() }

// IncBannedWordBlock increments the keyword refusal counter.
func IncBannedWordBlock() { bannedWordBlocksTotal.Inc() }

// IncStreamFailure increments the mid-stream failure counter.
func IncStreamFailure() { streamFailuresTotal.Inc() }
