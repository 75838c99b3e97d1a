package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"specdeck/internal/client"
	"specdeck/internal/stream"
	"specdeck/internal/viewer"
)

// Config holds tail configuration, loaded from environment variables.
type Config struct {
	BackendURL   string
	PollInterval time.Duration
	Verbose      bool
}

func loadConfig() Config {
	cfg := Config{
		BackendURL:   "http://localhost:8420",
		PollInterval: 3 * time.Second,
	}

	if v := os.Getenv("BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PollInterval = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("VERBOSE"); v == "1" || v == "true" {
		cfg.Verbose = true
	}

	return cfg
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: streamtail <session-id>")
		os.Exit(2)
	}
	sessionID := os.Args[1]
	cfg := loadConfig()

	c := client.New(cfg.BackendURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	view, err := viewer.Open(ctx, c, sessionID)
	cancel()
	if err != nil {
		log.Fatalf("open session view: %v", err)
	}
	defer view.Close()

	sess := view.Session()
	log.Printf("session %s: status=%s runner=%s acp=%v", sess.ID, sess.Status, sess.Runner, view.ACP())

	if !sess.Terminal() && !view.Live() {
		log.Printf("live stream unavailable, polling every %s", cfg.PollInterval)
		view.StartPolling(cfg.PollInterval)
	}

	opts := stream.FilterOptions{ShowVerbose: cfg.Verbose}
	if cfg.Verbose || !view.ACP() {
		opts.DisplayMode = stream.DisplayVerbose
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var rendered []string
	for {
		select {
		case <-sigCh:
			log.Println("closing view")
			return

		case <-ticker.C:
			events := view.Events()
			rendered = renderDelta(os.Stdout, events, rendered, opts)

			if done := lastComplete(events); done != nil {
				log.Printf("stream complete: status=%s duration=%dms", done.Status, done.DurationMs)
				return
			}
		}
	}
}

// renderDelta prints timeline entries that are new or whose rendering
// changed since the last tick. Merges update events in place, so an
// entry below the high-water mark can still change (a tool call
// flipping to completed, a plan entry advancing) and must be printed
// again. Returns the updated per-entry render state.
func renderDelta(out io.Writer, events []stream.Event, rendered []string, opts stream.FilterOptions) []string {
	if len(events) < len(rendered) {
		// Poll re-hydration replaced the timeline; reprint from scratch.
		rendered = rendered[:0]
	}
	for i, e := range events {
		line := ""
		if stream.IsVisible(e, opts) {
			line = formatEvent(e)
		}
		if i < len(rendered) {
			if line != "" && line != rendered[i] {
				fmt.Fprintln(out, line)
			}
			rendered[i] = line
			continue
		}
		if line != "" {
			fmt.Fprintln(out, line)
		}
		rendered = append(rendered, line)
	}
	return rendered
}

func lastComplete(events []stream.Event) *stream.Event {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == stream.EventComplete {
			return &events[i]
		}
	}
	return nil
}

func formatEvent(e stream.Event) string {
	switch e.Type {
	case stream.EventLog:
		return fmt.Sprintf("[%s] %s", e.Level, e.Message)
	case stream.EventMessage:
		return fmt.Sprintf("%s: %s", e.Role, e.Content)
	case stream.EventThought:
		return fmt.Sprintf("(thinking) %s", e.Content)
	case stream.EventToolCall:
		return fmt.Sprintf("tool %s [%s] %s", e.Tool, e.Status, compactArgs(e.Args))
	case stream.EventPlan:
		parts := make([]string, 0, len(e.Entries))
		for _, entry := range e.Entries {
			parts = append(parts, fmt.Sprintf("%s(%s)", entry.Title, entry.Status))
		}
		return "plan: " + strings.Join(parts, ", ")
	case stream.EventPermissionRequest:
		return fmt.Sprintf("permission? %s options=%s", e.Tool, strings.Join(e.Options, "|"))
	case stream.EventModeUpdate:
		return fmt.Sprintf("mode -> %s", e.Mode)
	case stream.EventComplete:
		return fmt.Sprintf("complete: %s (%dms)", e.Status, e.DurationMs)
	}
	return fmt.Sprintf("%v", e)
}

func compactArgs(args map[string]interface{}) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, 0, len(args))
	for k, v := range args {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, " ")
}
