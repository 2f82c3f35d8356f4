// Package api is the HTTP client for the assistant backend: session CRUD,
// the incremental /analyze channel, and multipart document upload. It
// implements the service interfaces the chat controller is built against.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"docchat/internal/chat"
)

const defaultTimeout = 30 * time.Second

// ErrUnauthorized reports a rejected or expired token.
var ErrUnauthorized = errors.New("unauthorized")

type Client struct {
	baseURL string
	token   string
	log     *logrus.Entry

	// http carries the request timeout for plain JSON calls. stream has no
	// overall timeout: it would cut a long answer off mid-body.
	http   *http.Client
	stream *http.Client
}

func New(baseURL, token string, timeout time.Duration, log *logrus.Entry) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		log = logrus.NewEntry(silent)
	}
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		log:     log,
		http:    &http.Client{Timeout: timeout, Transport: transport},
		stream:  &http.Client{Transport: transport},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	// Request IDs let backend logs be matched to client-side failures.
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// doJSON issues a request with an optional JSON body and decodes the JSON
// response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, method, path); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func checkStatus(resp *http.Response, method, path string) error {
	if resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(detail)))
}

// List fetches the session directory, most recent first.
func (c *Client) List(ctx context.Context) ([]chat.Session, error) {
	var out []chat.Session
	if err := c.doJSON(ctx, http.MethodGet, "/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, title string) (chat.Session, error) {
	var out chat.Session
	body := map[string]string{"title": title}
	if err := c.doJSON(ctx, http.MethodPost, "/sessions", body, &out); err != nil {
		return chat.Session{}, err
	}
	return out, nil
}

func (c *Client) Rename(ctx context.Context, id, title string) error {
	body := map[string]string{"title": title}
	return c.doJSON(ctx, http.MethodPatch, "/sessions/"+id, body, nil)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/sessions/"+id, nil, nil)
}

func (c *Client) History(ctx context.Context, id string) ([]chat.Message, error) {
	var out struct {
		Messages []chat.Message `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/sessions/"+id+"/history", nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *Client) Files(ctx context.Context, id string) ([]chat.UploadedFile, error) {
	var out []chat.UploadedFile
	if err := c.doJSON(ctx, http.MethodGet, "/sessions/"+id+"/files", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteFile(ctx context.Context, sessionID, fileID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/sessions/"+sessionID+"/files/"+fileID, nil, nil)
}

// AutoTitle asks the backend to name a session from its first user message.
func (c *Client) AutoTitle(ctx context.Context, id, seed string) (string, error) {
	var out struct {
		Title string `json:"title"`
	}
	body := map[string]string{"query": seed}
	if err := c.doJSON(ctx, http.MethodPost, "/sessions/"+id+"/auto-title", body, &out); err != nil {
		return "", err
	}
	return out.Title, nil
}
