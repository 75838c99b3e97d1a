package stream

import (
	"encoding/json"
	"strings"
	"time"
)

// envelope captures every field a structured payload may carry. Both
// parsers decode into it once, then hand it to the builder chain.
type envelope struct {
	Type string `json:"type"`
	Kind string `json:"kind"`

	Timestamp time.Time `json:"timestamp"`

	Level   Level  `json:"level"`
	Message string `json:"message"`

	Role    string  `json:"role"`
	Content *string `json:"content"`
	Done    bool    `json:"done"`

	ID      string                 `json:"id"`
	Tool    string                 `json:"tool"`
	Status  string                 `json:"status"`
	Args    map[string]interface{} `json:"args"`
	Result  interface{}            `json:"result"`
	Options []string               `json:"options"`

	Entries []PlanEntry `json:"entries"`

	Mode string `json:"mode"`

	DurationMs int64 `json:"duration_ms"`
}

// discriminator returns the explicit event type, preferring "type" over
// the legacy "kind" field.
func (env *envelope) discriminator() EventType {
	if env.Type != "" {
		return EventType(env.Type)
	}
	return EventType(env.Kind)
}

// ParseLogRecord turns one persisted log line into a timeline event.
// JSON-shaped messages are reclassified as structured events when they
// match a known shape; everything else, including malformed JSON,
// degrades to a log event so no information is lost. It never fails.
func ParseLogRecord(rec LogRecord) Event {
	trimmed := strings.TrimSpace(rec.Message)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var env envelope
		if err := json.Unmarshal([]byte(trimmed), &env); err == nil {
			if ev, ok := decodeEnvelope(&env, rec.Timestamp); ok {
				return ev
			}
		}
	}

	return Event{
		Type:      EventLog,
		Timestamp: rec.Timestamp,
		Level:     normalizeLevel(rec.Level),
		Message:   rec.Message,
	}
}

// decodeEnvelope resolves an envelope to an event. The explicit
// discriminator wins; otherwise shape sniffers are tried in a fixed
// priority order. Returns false when no decoder matches.
func decodeEnvelope(env *envelope, fallbackTS time.Time) (Event, bool) {
	ts := env.Timestamp
	if ts.IsZero() {
		ts = fallbackTS
	}

	if t := env.discriminator(); knownTypes[t] {
		if ev, err := buildEvent(t, env, ts); err == nil {
			return ev, true
		}
		return Event{}, false
	}

	for _, sniff := range shapeSniffers {
		if t, ok := sniff(env); ok {
			if ev, err := buildEvent(t, env, ts); err == nil {
				return ev, true
			}
			return Event{}, false
		}
	}

	return Event{}, false
}

// shapeSniffers infer the event type of an envelope without an explicit
// discriminator. Order matters: first match wins.
var shapeSniffers = []func(*envelope) (EventType, bool){
	func(env *envelope) (EventType, bool) { // conversational turn
		return EventMessage, env.Role != "" && env.Content != nil
	},
	func(env *envelope) (EventType, bool) { // tool invocation
		return EventToolCall, env.Tool != "" && env.Status != ""
	},
	func(env *envelope) (EventType, bool) { // plan
		return EventPlan, len(env.Entries) > 0
	},
	func(env *envelope) (EventType, bool) { // approval gate
		return EventPermissionRequest, env.Tool != "" && len(env.Options) > 0
	},
	func(env *envelope) (EventType, bool) { // mode change
		return EventModeUpdate, env.Mode != ""
	},
}
