package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Analyze opens the incremental answer channel for a prompt. The returned
// body yields the answer as raw text chunks; closure is the only
// end-of-stream signal. The caller owns the body.
func (c *Client) Analyze(ctx context.Context, sessionID, query string) (io.ReadCloser, error) {
	payload, err := json.Marshal(map[string]string{
		"query":      query,
		"session_id": sessionID,
	})
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST /analyze: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, checkStatus(resp, http.MethodPost, "/analyze")
	}
	return resp.Body, nil
}
