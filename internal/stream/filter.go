package stream

import (
	"encoding/json"
	"strings"
)

// Facet is the display category an event belongs to in the structured
// conversation view. Events that only appear in the verbose view (logs,
// mode updates, completion markers) have no facet.
type Facet string

const (
	FacetMessages Facet = "messages"
	FacetThoughts Facet = "thoughts"
	FacetTools    Facet = "tools"
	FacetPlan     Facet = "plan"
	FacetNone     Facet = ""
)

// DisplayMode selects between the structured conversation view and the
// raw scrollback view.
type DisplayMode string

const (
	DisplayMessages DisplayMode = "messages"
	DisplayVerbose  DisplayMode = "verbose"
)

// heartbeatMarker identifies periodic liveness log lines that are
// suppressed from the default view.
const heartbeatMarker = "heartbeat"

// minSearchLen is the minimum query length before search filtering
// kicks in.
const minSearchLen = 2

// FilterOptions controls event visibility. The zero value shows the
// structured conversation view with no filtering.
type FilterOptions struct {
	// LevelFilter holds selected filter chips: facet names for ACP
	// events, level names for log events. Empty means no restriction.
	LevelFilter map[string]bool
	// SearchQuery hides events whose text projection does not contain
	// the query (case-insensitive, ignored under 2 characters).
	SearchQuery string
	// ShowVerbose includes heartbeat log lines.
	ShowVerbose bool
	// DisplayMode defaults to DisplayMessages when empty.
	DisplayMode DisplayMode
}

// Classify returns the filter facet for an event, or FacetNone for
// events that have no chip in the structured view. Permission requests
// surface alongside the tool calls they gate.
func Classify(e Event) Facet {
	switch e.Type {
	case EventMessage:
		return FacetMessages
	case EventThought:
		return FacetThoughts
	case EventToolCall, EventPermissionRequest:
		return FacetTools
	case EventPlan:
		return FacetPlan
	}
	return FacetNone
}

// IsVisible reports whether an event should be displayed under the given
// options. It is a pure function of its arguments.
func IsVisible(e Event, opts FilterOptions) bool {
	if e.Type == EventLog {
		mode := opts.DisplayMode
		if mode == "" {
			mode = DisplayMessages
		}
		if mode == DisplayMessages {
			return false
		}
		if !opts.ShowVerbose && isHeartbeat(e.Message) {
			return false
		}
	}

	if len(opts.LevelFilter) > 0 {
		key := string(Classify(e))
		if e.Type == EventLog {
			key = string(e.Level)
		}
		if !opts.LevelFilter[key] {
			return false
		}
	}

	if q := strings.ToLower(strings.TrimSpace(opts.SearchQuery)); len(q) >= minSearchLen {
		if !strings.Contains(strings.ToLower(searchText(e)), q) {
			return false
		}
	}

	return true
}

// FilterTimeline returns the events visible under the given options,
// preserving timeline order. The timeline itself is never mutated.
func FilterTimeline(events []Event, opts FilterOptions) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if IsVisible(e, opts) {
			out = append(out, e)
		}
	}
	return out
}

// AvailableFacets lists the distinct filter chips present in a timeline,
// in first-seen order: facet names for structured sessions, log levels
// for plain ones.
func AvailableFacets(events []Event, acp bool) []string {
	seen := make(map[string]bool)
	var facets []string

	for _, e := range events {
		var key string
		if acp {
			key = string(Classify(e))
		} else if e.Type == EventLog {
			key = string(e.Level)
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		facets = append(facets, key)
	}

	return facets
}

func isHeartbeat(message string) bool {
	return strings.Contains(strings.ToLower(message), heartbeatMarker)
}

// searchText is the per-type text projection used for search matching.
func searchText(e Event) string {
	switch e.Type {
	case EventLog:
		return e.Message
	case EventMessage, EventThought:
		return e.Content
	case EventToolCall:
		return e.Tool + " " + stringify(e.Args) + " " + stringify(e.Result)
	case EventPermissionRequest:
		return e.Tool + " " + stringify(e.Args)
	case EventPlan:
		titles := make([]string, 0, len(e.Entries))
		for _, entry := range e.Entries {
			titles = append(titles, entry.Title)
		}
		return strings.Join(titles, " ")
	case EventModeUpdate:
		return e.Mode
	case EventComplete:
		return e.Status
	}
	return ""
}

func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
