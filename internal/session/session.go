package session

import (
	"strings"
	"time"
)

// Status represents the lifecycle state of a session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// ProtocolACP marks sessions whose runner speaks the structured event
// protocol rather than emitting plain text logs.
const ProtocolACP = "acp"

// Session holds the metadata for a single agent session as reported by
// the backend. This package only reads it; all mutation happens
// backend-side.
type Session struct {
	ID         string     `json:"id"`
	Status     Status     `json:"status"`
	Runner     string     `json:"runner"`
	Mode       string     `json:"mode"`
	SpecIDs    []string   `json:"specIds"`
	StartedAt  time.Time  `json:"startedAt"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
	DurationMs int64      `json:"durationMs,omitempty"`
	TokenCount int64      `json:"tokenCount,omitempty"`
	// Protocol is the backend's explicit protocol marker. When empty the
	// runner name decides.
	Protocol string `json:"protocol,omitempty"`
}

// acpRunners are the runner CLIs known to speak the structured protocol.
var acpRunners = map[string]bool{
	"claude": true,
	"gemini": true,
	"codex":  true,
	"cursor": true,
}

// IsACP reports whether the session speaks the structured event
// protocol. Plain sessions only ever produce log events and get the raw
// scrollback view; structured sessions get the conversation view with
// facet filters.
func IsACP(s Session) bool {
	if s.Protocol != "" {
		return s.Protocol == ProtocolACP
	}
	return acpRunners[strings.ToLower(s.Runner)]
}

// Terminal reports whether the session has reached a final state and no
// further stream events are expected.
func (s Session) Terminal() bool {
	switch s.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
