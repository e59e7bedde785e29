// Package client implements the signer/coordinator side of the relay
// protocol: a polling reader and a posting sender, both driven by the
// same exponential back-off schedule the relay's poll loop specifies.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/frost-relay/frostrelay/internal/backoff"
)

// Client talks to a single relay endpoint over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds a relay client for the given relay base URL (e.g.
// "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Post sends envelope bytes to the relay, retrying on transport failure
// with the default relay back-off schedule until ctx is done.
func (c *Client) Post(ctx context.Context, body []byte) error {
	sched := backoff.DefaultRelaySchedule()
	var lastErr error
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("client: build post request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
			err = fmt.Errorf("client: relay returned status %d", resp.StatusCode)
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return fmt.Errorf("client: post timed out after %w: %w", ctx.Err(), lastErr)
		case <-time.After(sched.Next()):
		}
	}
}

// Get issues one GET /?id=<readerID> request and returns the message
// bytes, or nil if the relay had nothing new.
func (c *Client) Get(ctx context.Context, readerID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?id="+readerID, nil)
	if err != nil {
		return nil, fmt.Errorf("client: build get request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: get request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("client: relay returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: read response body: %w", err)
	}
	if len(body) == 0 {
		return nil, nil
	}
	return body, nil
}
