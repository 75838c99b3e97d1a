package session

import "testing"

func TestIsACP_KnownRunners(t *testing.T) {
	tests := []struct {
		runner string
		want   bool
	}{
		{"claude", true},
		{"Claude", true},
		{"gemini", true},
		{"codex", true},
		{"cursor", true},
		{"bash", false},
		{"custom-cli", false},
		{"", false},
	}

	for _, tt := range tests {
		got := IsACP(Session{Runner: tt.runner})
		if got != tt.want {
			t.Errorf("IsACP(runner=%q) = %v, want %v", tt.runner, got, tt.want)
		}
	}
}

func TestIsACP_ExplicitProtocolWins(t *testing.T) {
	// The backend's explicit marker overrides the runner heuristic in
	// both directions.
	if !IsACP(Session{Runner: "custom-cli", Protocol: ProtocolACP}) {
		t.Error("explicit acp protocol should force structured handling")
	}
	if IsACP(Session{Runner: "claude", Protocol: "text"}) {
		t.Error("explicit non-acp protocol should force plain handling")
	}
}

func TestTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusPaused, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}

	for _, tt := range tests {
		got := Session{Status: tt.status}.Terminal()
		if got != tt.want {
			t.Errorf("Terminal(status=%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
