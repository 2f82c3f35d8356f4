package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"docchat/internal/chat"
)

// Upload sends local files to the backend as one multipart request scoped
// to sessionID and returns the per-file outcomes. The whole request fails
// before anything is read if a path cannot be opened.
func (c *Client) Upload(ctx context.Context, sessionID string, paths []string) ([]chat.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("upload: %w", err)
		}
		part, err := mw.CreateFormFile("files", filepath.Base(p))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", p, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	path := "/upload?session_id=" + url.QueryEscape(sessionID)
	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST /upload: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, http.MethodPost, "/upload"); err != nil {
		return nil, err
	}

	var out struct {
		Uploaded []chat.UploadResult `json:"uploaded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("POST /upload: decode response: %w", err)
	}
	return out.Uploaded, nil
}
