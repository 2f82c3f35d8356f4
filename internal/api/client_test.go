package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"docchat/internal/chat"
)

func TestClient_ListAndAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/sessions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"session_id":"s1","title":"One","created_at":"2025-01-02T03:04:05Z"}]`)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok", time.Second, nil)
	got, err := c.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "s1" || got[0].Title != "One" {
		t.Fatalf("List = %v", got)
	}
}

func TestClient_CreateRenameAutoTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "POST /sessions":
			io.WriteString(w, `{"session_id":"s-new","title":"New Chat","created_at":"2025-01-02T03:04:05Z"}`)
		case "PATCH /sessions/s-new":
			w.WriteHeader(http.StatusNoContent)
		case "POST /sessions/s-new/auto-title":
			io.WriteString(w, `{"title":"Contract review"}`)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second, nil)
	ctx := context.Background()

	s, err := c.Create(ctx, "New Chat")
	if err != nil {
		t.Fatal(err)
	}
	if s.ID != "s-new" {
		t.Fatalf("Create = %+v", s)
	}
	if err := c.Rename(ctx, "s-new", "Renamed"); err != nil {
		t.Fatal(err)
	}
	title, err := c.AutoTitle(ctx, "s-new", "please review this contract")
	if err != nil {
		t.Fatal(err)
	}
	if title != "Contract review" {
		t.Fatalf("AutoTitle = %q", title)
	}
}

func TestClient_HistoryUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"messages":[{"role":"user","content":"A"},{"role":"assistant","content":"B"}]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second, nil)
	got, err := c.History(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Role != chat.RoleUser || got[1].Content != "B" {
		t.Fatalf("History = %v", got)
	}
}

func TestClient_UnauthorizedIsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "stale", time.Second, nil)
	_, err := c.List(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestClient_AnalyzeStreamsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fl, _ := w.(http.Flusher)
		io.WriteString(w, "Hel")
		if fl != nil {
			fl.Flush()
		}
		io.WriteString(w, "lo")
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second, nil)
	body, err := c.Analyze(context.Background(), "s1", "hi")
	if err != nil {
		t.Fatal(err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Hello" {
		t.Fatalf("stream = %q", data)
	}
}

func TestClient_AnalyzeServerErrorClosesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second, nil)
	if _, err := c.Analyze(context.Background(), "s1", "hi"); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestClient_UploadMultipartAndSessionScope(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.pdf")
	p2 := filepath.Join(dir, "b.pdf")
	for _, p := range []string{p1, p2} {
		if err := os.WriteFile(p, []byte("content of "+filepath.Base(p)), 0644); err != nil {
			t.Fatal(err)
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("session_id"); got != "s1" {
			t.Errorf("session_id = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if n := len(r.MultipartForm.File["files"]); n != 2 {
			t.Errorf("got %d files, want 2", n)
		}
		io.WriteString(w, `{"uploaded":[
			{"status":"Success","file_id":"f1","filename":"a.pdf"},
			{"status":"Failed","file_id":"","filename":"b.pdf"}
		]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second, nil)
	got, err := c.Upload(context.Background(), "s1", []string{p1, p2})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Status != chat.StatusSuccess || got[1].Status == chat.StatusSuccess {
		t.Fatalf("Upload = %v", got)
	}
}

func TestClient_UploadMissingFileFailsBeforeRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.Second, nil)
	if _, err := c.Upload(context.Background(), "s1", []string{"/does/not/exist.pdf"}); err == nil {
		t.Fatal("expected error for missing file")
	}
	if called {
		t.Fatal("request was sent despite unreadable file")
	}
}
