package threat

import (
	"fmt"
	"regexp"
	"strings"
)

// Assessment is the result of scanning one input. Derived, never persisted.
type Assessment struct {
	IsThreat bool   `json:"is_threat"`
	Score    int    `json:"score"` // clamped to 0-100 for reporting
	RawScore int    `json:"-"`     // pre-clamp sum, used for the threshold
	Reason   string `json:"reason"`
}

// threatThreshold is the raw score at or above which an input is flagged.
const threatThreshold = 40

var (
	// Direct override attempts. Each match contributes independently.
	overrideKeywords = []string{
		"ignore previous",
		"system override",
		"developer mode",
		"jailbreak",
		"unrestricted",
		"god mode",
	}

	// Harmful intent phrases. Each match contributes independently.
	harmfulKeywords = []string{
		"generate malware",
		"keylogger",
		"bomb",
		"exploit",
		"hack into",
	}

	// Legacy jailbreak tokens that must match as standalone words.
	danPattern = regexp.MustCompile(`\bdan\b`)
	aimPattern = regexp.MustCompile(`\baim\b`)
)

// Scan scores free-text input for prompt-injection and jailbreak intent.
// Pure and deterministic: case-insensitive substring and word-boundary
// matching against five independent rule categories whose points add without
// deduplication.
func Scan(text string) Assessment {
	lower := strings.ToLower(text)
	score := 0
	var reasons []string

	for _, word := range overrideKeywords {
		if strings.Contains(lower, word) {
			score += 50
			reasons = append(reasons, fmt.Sprintf("Detected override keyword: %q", word))
		}
	}

	if (strings.Contains(lower, "pretend") || strings.Contains(lower, "act as")) &&
		(strings.Contains(lower, "unfiltered") || strings.Contains(lower, "hacker") || strings.Contains(lower, "evil")) {
		score += 40
		reasons = append(reasons, "Malicious persona injection detected")
	}

	if strings.Contains(lower, "do anything now") || danPattern.MatchString(lower) || aimPattern.MatchString(lower) {
		score += 30
		reasons = append(reasons, "Known jailbreak pattern (DAN/AIM)")
	}

	if strings.Contains(lower, "never refuse") || strings.Contains(lower, "no rules") || strings.Contains(lower, "disregard safety") {
		score += 45
		reasons = append(reasons, "Safety rule bypass attempt")
	}

	for _, word := range harmfulKeywords {
		if strings.Contains(lower, word) {
			score += 60
			reasons = append(reasons, fmt.Sprintf("Harmful intent detected: %q", word))
		}
	}

	reason := strings.Join(reasons, " | ")
	if reason == "" {
		// Not reachable while every point comes from a matched rule.
		reason = "Suspicious pattern matched"
	}

	clamped := score
	if clamped > 100 {
		clamped = 100
	}

	return Assessment{
		IsThreat: score >= threatThreshold,
		Score:    clamped,
		RawScore: score,
		Reason:   reason,
	}
}
