package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"specdeck/internal/session"
	"specdeck/internal/stream"
)

const defaultRequestTimeout = 15 * time.Second

// Client talks to the backend's REST API for session metadata and
// persisted logs.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the given backend base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

// GetSession fetches the metadata for a session.
func (c *Client) GetSession(ctx context.Context, id string) (*session.Session, error) {
	var sess session.Session
	if err := c.getJSON(ctx, "/sessions/"+url.PathEscape(id), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// FetchSessionLogs fetches the persisted log records for a session,
// ordered by timestamp ascending.
func (c *Client) FetchSessionLogs(ctx context.Context, id string) ([]stream.LogRecord, error) {
	var logs []stream.LogRecord
	if err := c.getJSON(ctx, "/sessions/"+url.PathEscape(id)+"/logs", &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("not found: %s", path)
	default:
		return fmt.Errorf("request %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// streamURL converts the REST base URL into the WebSocket endpoint for a
// session's live stream.
func (c *Client) streamURL(id string) string {
	wsBase := c.baseURL
	if strings.HasPrefix(wsBase, "https://") {
		wsBase = "wss://" + strings.TrimPrefix(wsBase, "https://")
	} else if strings.HasPrefix(wsBase, "http://") {
		wsBase = "ws://" + strings.TrimPrefix(wsBase, "http://")
	}
	return wsBase + "/sessions/" + url.PathEscape(id) + "/stream"
}
