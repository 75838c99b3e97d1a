package client

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pingInterval  = 30 * time.Second
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second

	historyCapacity = 1000
)

// PayloadHandler receives one raw push payload. Handlers are invoked
// sequentially in arrival order on the channel's read goroutine, so a
// handler that folds payloads into a timeline sees them one at a time.
type PayloadHandler func(raw []byte)

// PushChannel is a live WebSocket subscription to a session's event
// stream. Recent payloads are buffered so handlers attached late still
// see them exactly once.
type PushChannel struct {
	conn    *websocket.Conn
	history *RingBuffer

	// mu orders history writes, fan-out, and handler registration so
	// each payload reaches each handler exactly once.
	mu       sync.Mutex
	handlers map[string]PayloadHandler

	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// OpenPushChannel dials the live stream endpoint for a session.
func (c *Client) OpenPushChannel(id string) (*PushChannel, error) {
	conn, _, err := websocket.DefaultDialer.Dial(c.streamURL(id), nil)
	if err != nil {
		return nil, err
	}

	pc := &PushChannel{
		conn:     conn,
		history:  NewRingBuffer(historyCapacity),
		handlers: make(map[string]PayloadHandler),
		done:     make(chan struct{}),
	}

	go pc.readLoop()
	go pc.pingLoop()

	return pc, nil
}

// Subscribe registers a handler and returns an ID for unsubscribing.
// Buffered payloads are replayed to the handler before it starts
// receiving live ones.
func (pc *PushChannel) Subscribe(handler PayloadHandler) string {
	id := uuid.New().String()

	pc.mu.Lock()
	defer pc.mu.Unlock()

	for _, payload := range pc.history.ReadAll() {
		handler(payload)
	}
	pc.handlers[id] = handler

	return id
}

// Unsubscribe removes a handler.
func (pc *PushChannel) Unsubscribe(id string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	delete(pc.handlers, id)
}

// Done is closed when the channel stops delivering payloads, whether by
// Close or by a transport failure. After Done the caller should
// re-hydrate from persisted logs rather than assume continuity.
func (pc *PushChannel) Done() <-chan struct{} {
	return pc.done
}

// Err returns the transport error that ended the channel, if any.
func (pc *PushChannel) Err() error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.err
}

// Close tears down the connection. Safe to call more than once.
func (pc *PushChannel) Close() {
	pc.closeOnce.Do(func() {
		close(pc.done)
		pc.conn.Close()
	})
}

// readLoop reads payloads from the WebSocket connection and fans them
// out until the connection fails or the channel is closed.
func (pc *PushChannel) readLoop() {
	defer pc.Close()

	pc.conn.SetReadDeadline(time.Now().Add(readDeadline))
	pc.conn.SetPongHandler(func(string) error {
		pc.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		_, payload, err := pc.conn.ReadMessage()
		if err != nil {
			select {
			case <-pc.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("push channel read error: %v", err)
				}
				pc.mu.Lock()
				pc.err = err
				pc.mu.Unlock()
			}
			return
		}

		pc.dispatch(payload)
	}
}

func (pc *PushChannel) dispatch(payload []byte) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.history.Write(payload)
	for _, handler := range pc.handlers {
		handler(payload)
	}
}

// pingLoop keeps the connection alive with periodic pings.
func (pc *PushChannel) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-pc.done:
			return
		case <-ticker.C:
			pc.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := pc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				pc.Close()
				return
			}
		}
	}
}
