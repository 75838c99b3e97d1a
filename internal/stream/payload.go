package stream

import (
	"encoding/json"
	"fmt"
	"time"
)

// ParseStreamPayload validates a raw push-channel payload and turns it
// into a timeline event. Unlike ParseLogRecord it requires an explicit
// type discriminator and rejects payloads missing required fields; a
// non-nil error means the caller should drop the payload and keep the
// channel alive.
func ParseStreamPayload(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, fmt.Errorf("invalid JSON: %w", err)
	}

	t := env.discriminator()
	if t == "" {
		return Event{}, fmt.Errorf("missing 'type' field")
	}
	if !knownTypes[t] {
		return Event{}, fmt.Errorf("unknown event type: %s", t)
	}

	return buildEvent(t, &env, env.Timestamp)
}

// buildEvent constructs the event for a resolved type, enforcing the
// required fields of each shape.
func buildEvent(t EventType, env *envelope, ts time.Time) (Event, error) {
	ev := Event{Type: t, Timestamp: ts}

	switch t {
	case EventLog:
		if env.Message == "" {
			return Event{}, fmt.Errorf("log event missing 'message'")
		}
		ev.Level = normalizeLevel(env.Level)
		ev.Message = env.Message

	case EventMessage:
		if env.Role != RoleUser && env.Role != RoleAssistant {
			return Event{}, fmt.Errorf("message event has invalid role %q", env.Role)
		}
		if env.Content == nil {
			return Event{}, fmt.Errorf("message event missing 'content'")
		}
		ev.Role = env.Role
		ev.Content = *env.Content

	case EventThought:
		if env.Content == nil {
			return Event{}, fmt.Errorf("thought event missing 'content'")
		}
		ev.Content = *env.Content
		ev.Done = env.Done

	case EventToolCall:
		if env.ID == "" {
			return Event{}, fmt.Errorf("tool call event missing 'id'")
		}
		if env.Tool == "" {
			return Event{}, fmt.Errorf("tool call event missing 'tool'")
		}
		if !validToolStatuses[env.Status] {
			return Event{}, fmt.Errorf("tool call event has invalid status %q", env.Status)
		}
		ev.ID = env.ID
		ev.Tool = env.Tool
		ev.Status = env.Status
		ev.Args = env.Args
		ev.Result = env.Result

	case EventPlan:
		if env.Entries == nil {
			return Event{}, fmt.Errorf("plan event missing 'entries'")
		}
		ev.Entries = env.Entries
		ev.Done = env.Done

	case EventPermissionRequest:
		if env.ID == "" {
			return Event{}, fmt.Errorf("permission request missing 'id'")
		}
		if env.Tool == "" {
			return Event{}, fmt.Errorf("permission request missing 'tool'")
		}
		ev.ID = env.ID
		ev.Tool = env.Tool
		ev.Args = env.Args
		ev.Options = env.Options

	case EventModeUpdate:
		if env.Mode == "" {
			return Event{}, fmt.Errorf("mode update missing 'mode'")
		}
		ev.Mode = env.Mode

	case EventComplete:
		ev.Status = env.Status
		ev.DurationMs = env.DurationMs

	default:
		return Event{}, fmt.Errorf("unknown event type: %s", t)
	}

	return ev, nil
}
