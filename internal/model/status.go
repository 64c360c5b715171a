package model

import "strings"

const (
	StatusQueued     = "queued"
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// The backend owns job state; this table only describes what a well-behaved
// backend does so the client can flag snapshots that go backwards.
var allowedTransitions = map[string]map[string]bool{
	"": {
		StatusQueued:     true,
		StatusPending:    true,
		StatusProcessing: true,
		StatusCompleted:  true,
		StatusFailed:     true,
	},
	StatusQueued: {
		StatusQueued:     true,
		StatusPending:    true,
		StatusProcessing: true,
		StatusCompleted:  true,
		StatusFailed:     true,
	},
	StatusPending: {
		StatusPending:    true,
		StatusProcessing: true,
		StatusCompleted:  true,
		StatusFailed:     true,
	},
	StatusProcessing: {
		StatusProcessing: true,
		StatusCompleted:  true,
		StatusFailed:     true,
	},
	StatusCompleted: {
		StatusCompleted: true,
	},
	StatusFailed: {
		StatusFailed: true,
	},
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

func IsKnownStatus(status string) bool {
	s := normalizeStatus(status)
	if s == "" {
		return false
	}
	_, ok := allowedTransitions[s]
	return ok
}

// IsTerminal reports whether progress and video_path can no longer change.
func IsTerminal(status string) bool {
	switch normalizeStatus(status) {
	case StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// IsFailed matches the failed status regardless of case or padding.
func IsFailed(status string) bool {
	return normalizeStatus(status) == StatusFailed
}

func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[normalizeStatus(from)]
	if !ok {
		return false
	}
	return next[normalizeStatus(to)]
}
