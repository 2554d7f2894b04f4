// Package webapp reaches a spreadsheet web app over HTTP: queries are GET
// requests with an action parameter and commands are JSON POSTs whose response
// body is ignored.
package webapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"ledgerbook/internal/transport"
)

const maxBodyBytes = 10 << 20

type Client struct {
	endpoint *url.URL
	http     *http.Client
	timeout  time.Duration
	now      func() time.Time
}

var (
	_ transport.Querier   = (*Client)(nil)
	_ transport.Commander = (*Client)(nil)
)

// New creates a client for the web app deployed at rawURL. Every request is
// bounded by timeout.
func New(rawURL string, timeout time.Duration) (*Client, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errors.New("missing web app url")
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid web app url %q", rawURL)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{endpoint: u, http: newHTTPClient(timeout), timeout: timeout, now: time.Now}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			ForceAttemptHTTP2:   true,
		},
		Timeout: timeout,
	}
}

// Query runs a GET for the action and returns the raw body. Network errors,
// timeouts and non-2xx statuses wrap transport.ErrTransport.
func (c *Client) Query(ctx context.Context, action transport.Action) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.endpoint
	q := u.Query()
	q.Set("action", action.String())
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", transport.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", transport.ErrTransport, action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %v", transport.ErrTransport, action, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: query %s: status %d", transport.ErrTransport, action, resp.StatusCode)
	}

	slog.DebugContext(ctx, "Web app query completed",
		"action", action.String(),
		"bytes", len(body),
		"duration", time.Since(start))
	return body, nil
}

// Send posts the command. The response body is drained and discarded; only
// the absence of a network error is reported.
func (c *Client) Send(ctx context.Context, cmd transport.Command) (transport.Dispatch, error) {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	body, err := json.Marshal(cmd)
	if err != nil {
		return transport.Dispatch{}, fmt.Errorf("marshal command: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return transport.Dispatch{}, fmt.Errorf("%w: build request: %v", transport.ErrTransport, err)
	}
	// text/plain keeps Apps Script deployments from rejecting a preflight.
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return transport.Dispatch{}, fmt.Errorf("%w: send %s: %v", transport.ErrTransport, cmd.Operation, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()

	slog.InfoContext(ctx, "Command dispatched",
		"operation", cmd.Operation.String(),
		"command_id", cmd.ID,
		"status", resp.StatusCode)
	return transport.Dispatch{CommandID: cmd.ID, Operation: cmd.Operation, SentAt: c.now()}, nil
}
