// Package appscript talks to a Google Apps Script web app that stores one
// JSON snapshot per account key.
package appscript

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

	"viaggi/internal/core"
	"viaggi/internal/remote"
)

const maxResponseBytes = 16 << 20

var _ remote.Store = (*Client)(nil)

type Client struct {
	endpoint string
	http     *http.Client
}

// New returns a client for the web app deployed at endpoint.
func New(endpoint string, timeout time.Duration) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q", endpoint)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{endpoint: endpoint, http: newHTTPClient(timeout)}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// Fetch implements remote.SnapshotReader.
func (c *Client) Fetch(ctx context.Context, key string) (*core.Account, error) {
	u, _ := url.Parse(c.endpoint)
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch snapshot: status %d", resp.StatusCode)
	}
	a, err := remote.DecodeAccount(body)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "Fetched snapshot from Apps Script", "bytes", len(body), "new_account", a == nil)
	return a, nil
}

type saveRequest struct {
	Key  string        `json:"key"`
	Data *core.Account `json:"data"`
}

type saveResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Save implements remote.SnapshotWriter. The body is sent as text/plain,
// the only content type Apps Script accepts without a preflight.
func (c *Client) Save(ctx context.Context, key string, a *core.Account) error {
	if a == nil {
		a = core.DefaultAccount()
	}
	payload, err := json.Marshal(saveRequest{Key: key, Data: a})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	var res saveResponse
	decodeErr := json.Unmarshal(body, &res)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && res.Error != "" {
			return fmt.Errorf("save snapshot: status %d: %s", resp.StatusCode, res.Error)
		}
		return fmt.Errorf("save snapshot: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("save snapshot: unreadable response: %w", decodeErr)
	}
	if !res.Success {
		if res.Error == "" {
			return errors.New("save snapshot: unknown error")
		}
		return fmt.Errorf("save snapshot: %s", res.Error)
	}
	slog.DebugContext(ctx, "Saved snapshot to Apps Script", "bytes", len(payload))
	return nil
}
