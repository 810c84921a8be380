package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/standardbeagle/lcc/internal/completer"
	"github.com/standardbeagle/lcc/internal/core"
	lccerrors "github.com/standardbeagle/lcc/internal/errors"
)

// Client connects to a running IndexServer
type Client struct {
	httpClient *http.Client
	socketPath string
}

// NewClient creates a client for the server of the project rooted at root
func NewClient(root string) *Client {
	return NewClientWithSocket(GetSocketPathForRoot(root))
}

// NewClientWithSocket creates a client for a custom socket path
func NewClientWithSocket(socketPath string) *Client {
	// Create HTTP client that uses Unix socket
	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
		Timeout: 30 * time.Second,
	}

	return &Client{
		httpClient: httpClient,
		socketPath: socketPath,
	}
}

// SocketPath returns the socket this client dials
func (c *Client) SocketPath() string {
	return c.socketPath
}

// Close releases idle connections
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// call sends req (nil for no body) and decodes the reply into out. A 503 is
// reported as ErrIndexNotReady.
func (c *Client) call(method, path string, req, out interface{}) error {
	var body io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequest(method, "http://unix"+path, body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to reach server at %s: %w", c.socketPath, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return lccerrors.ErrIndexNotReady
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// IsServerRunning checks if the server is accessible
func (c *Client) IsServerRunning() bool {
	_, err := c.Ping()
	return err == nil
}

// Ping sends a health check to the server
func (c *Client) Ping() (*PingResponse, error) {
	var resp PingResponse
	if err := c.call(http.MethodPost, "/ping", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStatus retrieves the current index status
func (c *Client) GetStatus() (*IndexStatus, error) {
	var status IndexStatus
	if err := c.call(http.MethodGet, "/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// NotifyEvent delivers an editor event
func (c *Client) NotifyEvent(req EventNotificationRequest) error {
	var resp EventNotificationResponse
	if err := c.call(http.MethodPost, "/event_notification", req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("event %s failed: %s", req.EventName, resp.Error)
	}
	return nil
}

// Completions asks for ranked candidates
func (c *Client) Completions(req CompletionsRequest) ([]completer.Candidate, error) {
	var resp CompletionsResponse
	if err := c.call(http.MethodPost, "/completions", req, &resp); err != nil {
		return nil, err
	}
	return resp.Completions, nil
}

// Ingest bulk-loads identifiers and returns the number of files written
func (c *Client) Ingest(files core.FiletypeIdentifierMap) (int, error) {
	var resp IngestResponse
	if err := c.call(http.MethodPost, "/ingest", IngestRequest{Files: files}, &resp); err != nil {
		return 0, err
	}
	return resp.Files, nil
}

// Reindex starts a rescan of path, or of the project root when path is empty
func (c *Client) Reindex(path string) error {
	var resp ReindexResponse
	if err := c.call(http.MethodPost, "/reindex", ReindexRequest{Path: path}, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("reindex failed: %s", resp.Message)
	}
	return nil
}

// Shutdown asks the server to exit
func (c *Client) Shutdown(force bool) error {
	var resp ShutdownResponse
	if err := c.call(http.MethodPost, "/shutdown", ShutdownRequest{Force: force}, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("shutdown failed: %s", resp.Message)
	}
	return nil
}

// WaitForReady waits until the startup scan has finished or timeout passes
func (c *Client) WaitForReady(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for index to be ready")
		case <-ticker.C:
			status, err := c.GetStatus()
			if err != nil {
				continue
			}
			if status.Ready {
				return nil
			}
		}
	}
}
