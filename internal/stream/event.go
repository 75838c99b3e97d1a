package stream

import "time"

// EventType discriminates the kinds of events that can appear on a
// session timeline.
type EventType string

const (
	// EventLog is a raw backend log line not recognized as a structured
	// protocol message.
	EventLog EventType = "log"
	// EventMessage is a conversational turn (user or assistant).
	EventMessage EventType = "acp_message"
	// EventThought is a reasoning stream; chunks with Done=false belong
	// to the same logical thought.
	EventThought EventType = "acp_thought"
	// EventToolCall is a tool invocation identified by ID; its status
	// transitions over its lifetime.
	EventToolCall EventType = "acp_tool_call"
	// EventPlan is a plan whose entries are updated in place as work
	// progresses.
	EventPlan EventType = "acp_plan"
	// EventPermissionRequest is a pending approval gate identified by ID.
	EventPermissionRequest EventType = "acp_permission_request"
	// EventModeUpdate signals a session mode change.
	EventModeUpdate EventType = "acp_mode_update"
	// EventComplete is the terminal marker for the whole stream.
	EventComplete EventType = "complete"
)

// Level is the severity of a log event.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Tool call statuses.
const (
	ToolRunning   = "running"
	ToolCompleted = "completed"
	ToolFailed    = "failed"
)

// Plan entry statuses.
const (
	PlanPending = "pending"
	PlanRunning = "running"
	PlanDone    = "done"
)

// LogRecord is one persisted backend log line, as returned by the logs
// endpoint in ascending timestamp order.
type LogRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
}

// PlanEntry is a single step in a plan, keyed by ID.
type PlanEntry struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// Event is the timeline event union, discriminated by Type. Only the
// fields for the given type are populated; the rest stay zero.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// log
	Level   Level  `json:"level,omitempty"`
	Message string `json:"message,omitempty"`

	// acp_message / acp_thought
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done,omitempty"`

	// acp_tool_call / acp_permission_request
	ID      string                 `json:"id,omitempty"`
	Tool    string                 `json:"tool,omitempty"`
	Args    map[string]interface{} `json:"args,omitempty"`
	Result  interface{}            `json:"result,omitempty"`
	Options []string               `json:"options,omitempty"`

	// acp_tool_call / complete
	Status string `json:"status,omitempty"`

	// acp_plan
	Entries []PlanEntry `json:"entries,omitempty"`

	// acp_mode_update
	Mode string `json:"mode,omitempty"`

	// complete
	DurationMs int64 `json:"duration_ms,omitempty"`
}

// knownTypes is the closed set of event types the parsers accept.
var knownTypes = map[EventType]bool{
	EventLog:               true,
	EventMessage:           true,
	EventThought:           true,
	EventToolCall:          true,
	EventPlan:              true,
	EventPermissionRequest: true,
	EventModeUpdate:        true,
	EventComplete:          true,
}

// validLevels is the set of accepted log severities.
var validLevels = map[Level]bool{
	LevelDebug: true,
	LevelInfo:  true,
	LevelWarn:  true,
	LevelError: true,
}

// validToolStatuses is the set of accepted tool call statuses.
var validToolStatuses = map[string]bool{
	ToolRunning:   true,
	ToolCompleted: true,
	ToolFailed:    true,
}

// normalizeLevel maps unknown severities to info so malformed records
// still carry a usable level.
func normalizeLevel(l Level) Level {
	if validLevels[l] {
		return l
	}
	return LevelInfo
}
