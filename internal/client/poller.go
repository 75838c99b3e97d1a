package client

import (
	"context"
	"log"
	"sync"
	"time"

	"specdeck/internal/stream"
)

// Poller is the fallback delivery path when no push channel is
// available. On each tick it re-fetches the full persisted log set and
// rebuilds the timeline from empty, which is safe because replay through
// the folder is idempotent.
type Poller struct {
	client    *Client
	sessionID string
	interval  time.Duration
	apply     func([]stream.Event)

	cancel   chan struct{}
	stopOnce sync.Once
}

// NewPoller creates a poller that hands each rebuilt timeline to apply.
func NewPoller(c *Client, sessionID string, interval time.Duration, apply func([]stream.Event)) *Poller {
	return &Poller{
		client:    c,
		sessionID: sessionID,
		interval:  interval,
		apply:     apply,
		cancel:    make(chan struct{}),
	}
}

// Run polls until Stop is called. Fetch failures are logged and retried
// on the next tick.
func (p *Poller) Run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.cancel:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), p.interval)
			logs, err := p.client.FetchSessionLogs(ctx, p.sessionID)
			cancel()
			if err != nil {
				log.Printf("poll session %s: %v", p.sessionID, err)
				continue
			}
			p.apply(stream.BuildInitialTimeline(logs))
		}
	}
}

// Stop ends the poll loop. Safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.cancel) })
}
