package stream

import (
	"testing"
	"time"
)

var parseTS = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func record(level Level, message string) LogRecord {
	return LogRecord{ID: "rec-1", Timestamp: parseTS, Level: level, Message: message}
}

func TestParseLogRecord_PlainText(t *testing.T) {
	ev := ParseLogRecord(record(LevelInfo, "agent started"))
	if ev.Type != EventLog {
		t.Fatalf("expected log event, got %s", ev.Type)
	}
	if ev.Message != "agent started" {
		t.Errorf("expected message preserved, got %q", ev.Message)
	}
	if ev.Level != LevelInfo {
		t.Errorf("expected level info, got %s", ev.Level)
	}
	if !ev.Timestamp.Equal(parseTS) {
		t.Errorf("expected record timestamp, got %v", ev.Timestamp)
	}
}

func TestParseLogRecord_ReclassifiesModeUpdate(t *testing.T) {
	ev := ParseLogRecord(record(LevelInfo, `{"type":"acp_mode_update","mode":"autonomous"}`))
	if ev.Type != EventModeUpdate {
		t.Fatalf("expected acp_mode_update, got %s", ev.Type)
	}
	if ev.Mode != "autonomous" {
		t.Errorf("expected mode 'autonomous', got %q", ev.Mode)
	}
}

func TestParseLogRecord_DegradeOnGarbage(t *testing.T) {
	ev := ParseLogRecord(record(LevelError, "{not json"))
	if ev.Type != EventLog {
		t.Fatalf("expected log event, got %s", ev.Type)
	}
	if ev.Level != LevelError {
		t.Errorf("expected level error, got %s", ev.Level)
	}
	if ev.Message != "{not json" {
		t.Errorf("expected original message, got %q", ev.Message)
	}
	if !ev.Timestamp.Equal(parseTS) {
		t.Errorf("expected record timestamp, got %v", ev.Timestamp)
	}
}

func TestParseLogRecord_JSONArrayStaysLog(t *testing.T) {
	ev := ParseLogRecord(record(LevelInfo, `[1,2,3]`))
	if ev.Type != EventLog {
		t.Fatalf("expected log event, got %s", ev.Type)
	}
}

func TestParseLogRecord_UnrecognizedObjectStaysLog(t *testing.T) {
	ev := ParseLogRecord(record(LevelDebug, `{"foo":"bar"}`))
	if ev.Type != EventLog {
		t.Fatalf("expected log event, got %s", ev.Type)
	}
	if ev.Message != `{"foo":"bar"}` {
		t.Errorf("expected original message, got %q", ev.Message)
	}
}

func TestParseLogRecord_SniffsMessage(t *testing.T) {
	ev := ParseLogRecord(record(LevelInfo, `{"role":"assistant","content":"hello there"}`))
	if ev.Type != EventMessage {
		t.Fatalf("expected acp_message, got %s", ev.Type)
	}
	if ev.Role != RoleAssistant || ev.Content != "hello there" {
		t.Errorf("unexpected message fields: role=%q content=%q", ev.Role, ev.Content)
	}
}

func TestParseLogRecord_SniffsToolCall(t *testing.T) {
	ev := ParseLogRecord(record(LevelInfo, `{"id":"t1","tool":"grep","status":"running","args":{"pattern":"foo"}}`))
	if ev.Type != EventToolCall {
		t.Fatalf("expected acp_tool_call, got %s", ev.Type)
	}
	if ev.ID != "t1" || ev.Tool != "grep" || ev.Status != ToolRunning {
		t.Errorf("unexpected tool call fields: %+v", ev)
	}
	if ev.Args["pattern"] != "foo" {
		t.Errorf("expected args preserved, got %v", ev.Args)
	}
}

func TestParseLogRecord_SniffsPlan(t *testing.T) {
	ev := ParseLogRecord(record(LevelInfo, `{"entries":[{"id":"a","title":"Step A","status":"pending"}]}`))
	if ev.Type != EventPlan {
		t.Fatalf("expected acp_plan, got %s", ev.Type)
	}
	if len(ev.Entries) != 1 || ev.Entries[0].ID != "a" {
		t.Errorf("unexpected plan entries: %+v", ev.Entries)
	}
}

func TestParseLogRecord_SniffsPermissionRequest(t *testing.T) {
	ev := ParseLogRecord(record(LevelInfo, `{"id":"p1","tool":"bash","options":["allow","deny"]}`))
	if ev.Type != EventPermissionRequest {
		t.Fatalf("expected acp_permission_request, got %s", ev.Type)
	}
	if len(ev.Options) != 2 {
		t.Errorf("expected 2 options, got %d", len(ev.Options))
	}
}

func TestParseLogRecord_SniffsModeUpdate(t *testing.T) {
	ev := ParseLogRecord(record(LevelInfo, `{"mode":"plan"}`))
	if ev.Type != EventModeUpdate {
		t.Fatalf("expected acp_mode_update, got %s", ev.Type)
	}
	if ev.Mode != "plan" {
		t.Errorf("expected mode 'plan', got %q", ev.Mode)
	}
}

func TestParseLogRecord_ToolCallSniffWinsOverPermission(t *testing.T) {
	// Both tool+status and tool+options present: decoders run in fixed
	// priority order, so the tool call shape wins.
	ev := ParseLogRecord(record(LevelInfo, `{"id":"t1","tool":"bash","status":"running","options":["allow"]}`))
	if ev.Type != EventToolCall {
		t.Fatalf("expected acp_tool_call, got %s", ev.Type)
	}
}

func TestParseLogRecord_ExplicitTypeWinsOverShape(t *testing.T) {
	// Explicit discriminator beats the message-shaped role+content pair.
	ev := ParseLogRecord(record(LevelInfo, `{"type":"acp_thought","role":"assistant","content":"hmm","done":true}`))
	if ev.Type != EventThought {
		t.Fatalf("expected acp_thought, got %s", ev.Type)
	}
	if !ev.Done {
		t.Error("expected done=true")
	}
}

func TestParseLogRecord_KindDiscriminator(t *testing.T) {
	ev := ParseLogRecord(record(LevelInfo, `{"kind":"complete","status":"success","duration_ms":1234}`))
	if ev.Type != EventComplete {
		t.Fatalf("expected complete, got %s", ev.Type)
	}
	if ev.Status != "success" || ev.DurationMs != 1234 {
		t.Errorf("unexpected completion fields: %+v", ev)
	}
}

func TestParseLogRecord_InvalidStructuredDegradesToLog(t *testing.T) {
	// Explicit tool call type but missing required id: keep the line as
	// a log event instead of dropping it.
	ev := ParseLogRecord(record(LevelWarn, `{"type":"acp_tool_call","tool":"grep"}`))
	if ev.Type != EventLog {
		t.Fatalf("expected log event, got %s", ev.Type)
	}
	if ev.Level != LevelWarn {
		t.Errorf("expected level warn, got %s", ev.Level)
	}
}

func TestParseLogRecord_EmbeddedTimestampWins(t *testing.T) {
	ev := ParseLogRecord(record(LevelInfo, `{"type":"acp_message","role":"user","content":"hi","timestamp":"2026-03-14T12:00:00Z"}`))
	want := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	if !ev.Timestamp.Equal(want) {
		t.Errorf("expected embedded timestamp %v, got %v", want, ev.Timestamp)
	}
}

func TestParseLogRecord_HeartbeatStillProduced(t *testing.T) {
	// Heartbeat suppression is a display concern; the parser must still
	// produce the event.
	ev := ParseLogRecord(record(LevelDebug, "heartbeat ok"))
	if ev.Type != EventLog {
		t.Fatalf("expected log event, got %s", ev.Type)
	}
	if ev.Message != "heartbeat ok" {
		t.Errorf("expected heartbeat message preserved, got %q", ev.Message)
	}
}

func TestParseLogRecord_UnknownLevelNormalized(t *testing.T) {
	ev := ParseLogRecord(record(Level("trace"), "low level detail"))
	if ev.Level != LevelInfo {
		t.Errorf("expected unknown level normalized to info, got %s", ev.Level)
	}
}

func TestParseLogRecord_LeadingWhitespaceJSON(t *testing.T) {
	ev := ParseLogRecord(record(LevelInfo, `   {"mode":"autonomous"}`))
	if ev.Type != EventModeUpdate {
		t.Fatalf("expected acp_mode_update, got %s", ev.Type)
	}
}
