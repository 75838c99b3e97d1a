// Package viewer ties the backend accessors and the stream reducer into
// a per-session timeline view: hydrate once from persisted logs, fold
// live payloads as they arrive, and expose read-only snapshots for
// display.
package viewer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"specdeck/internal/client"
	"specdeck/internal/session"
	"specdeck/internal/stream"
)

// View owns the timeline for one open session view. The timeline is
// never shared across views and is only mutated through the fold, so a
// snapshot taken at any moment is a consistent prefix of the stream.
type View struct {
	client  *client.Client
	session *session.Session
	acp     bool

	mu       sync.RWMutex
	timeline []stream.Event

	push   *client.PushChannel
	subID  string
	poller *client.Poller

	closeOnce sync.Once
}

// Open fetches the session and its persisted logs, builds the initial
// timeline, and attaches to the live stream unless the session already
// reached a terminal state.
func Open(ctx context.Context, c *client.Client, sessionID string) (*View, error) {
	sess, err := c.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	logs, err := c.FetchSessionLogs(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetch session logs: %w", err)
	}

	v := &View{
		client:   c,
		session:  sess,
		acp:      session.IsACP(*sess),
		timeline: stream.BuildInitialTimeline(logs),
	}

	if !sess.Terminal() {
		push, err := c.OpenPushChannel(sessionID)
		if err != nil {
			// Live stream unavailable; the caller can fall back to
			// polling with StartPolling.
			return v, nil
		}
		v.push = push
		v.subID = push.Subscribe(v.applyPayload)
	}

	return v, nil
}

// Session returns the session metadata the view was opened with.
func (v *View) Session() *session.Session {
	return v.session
}

// ACP reports whether the session speaks the structured protocol, which
// decides between the conversation view and the raw scrollback view.
func (v *View) ACP() bool {
	return v.acp
}

// Live reports whether a push channel is currently attached.
func (v *View) Live() bool {
	if v.push == nil {
		return false
	}
	select {
	case <-v.push.Done():
		return false
	default:
		return true
	}
}

// StartPolling begins interval-based re-hydration for sessions without a
// working push channel. Each poll replaces the timeline with one rebuilt
// from the full log set, which yields the same result as live folding.
func (v *View) StartPolling(interval time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.poller != nil {
		return
	}
	v.poller = client.NewPoller(v.client, v.session.ID, interval, v.replaceTimeline)
	go v.poller.Run()
}

// Events returns a snapshot of the current timeline.
func (v *View) Events() []stream.Event {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]stream.Event, len(v.timeline))
	copy(out, v.timeline)
	return out
}

// Filtered returns the events visible under the given filter options.
func (v *View) Filtered(opts stream.FilterOptions) []stream.Event {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return stream.FilterTimeline(v.timeline, opts)
}

// Facets returns the filter chips present in the current timeline.
func (v *View) Facets() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return stream.AvailableFacets(v.timeline, v.acp)
}

// Rehydrate rebuilds the timeline from the persisted log set. Called
// after a push channel reconnect, where replay from empty is the only
// safe way to restore exactly-once delivery.
func (v *View) Rehydrate(ctx context.Context) error {
	logs, err := v.client.FetchSessionLogs(ctx, v.session.ID)
	if err != nil {
		return fmt.Errorf("fetch session logs: %w", err)
	}
	v.replaceTimeline(stream.BuildInitialTimeline(logs))
	return nil
}

// Close detaches from the live stream and discards the view's resources.
// The timeline is not shared, so no folds outlive the view.
func (v *View) Close() {
	v.closeOnce.Do(func() {
		if v.push != nil {
			v.push.Unsubscribe(v.subID)
			v.push.Close()
		}
		v.mu.Lock()
		if v.poller != nil {
			v.poller.Stop()
		}
		v.mu.Unlock()
	})
}

// applyPayload folds one live payload into the timeline. Invoked
// sequentially by the push channel, in arrival order.
func (v *View) applyPayload(raw []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.timeline = stream.ApplyLivePayload(v.timeline, raw)
}

func (v *View) replaceTimeline(timeline []stream.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.timeline = timeline
}
