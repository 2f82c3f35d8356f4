package chat

import (
	"context"
	"io"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a session timeline. The backend round-trips history
// as an ordered list of these.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is a named conversation scope. IDs are minted by the backend; the
// client only ever echoes them.
type Session struct {
	ID        string    `json:"session_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadedFile is a reference document attached to a session.
type UploadedFile struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
}

// UploadResult is the per-file outcome reported by the upload service. Only
// entries with StatusSuccess are adopted into the attachment set.
type UploadResult struct {
	Status   string `json:"status"`
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
}

const StatusSuccess = "Success"

// PlaceholderTitle is the title a session is created with before auto-title
// replaces it.
const PlaceholderTitle = "New Chat"

// Greeting is the synthetic assistant message shown for an empty
// conversation. It never reaches the backend and is dropped from the
// timeline the moment a real user message is appended.
var Greeting = Message{
	Role: RoleAssistant,
	Content: "👋 **Hello! I am your Legal AI Assistant.**\n\n" +
		"I can help you:\n" +
		"* 📄 **Analyze** contracts and documents\n" +
		"* ⚖️ **Check** regulatory compliance\n" +
		"* 🔍 **Answer** complex legal queries\n\n" +
		"**Upload a document** or **type a question** to get started!",
}

// connectFailedText is appended as a lone assistant entry when a stream
// cannot be established at all. A failure after content has started arriving
// keeps the partial answer instead.
const connectFailedText = "❌ Error connecting to server."

// SessionService is the backend session API (list/create/rename/delete,
// per-session history, attachments, auto-title).
type SessionService interface {
	List(ctx context.Context) ([]Session, error)
	Create(ctx context.Context, title string) (Session, error)
	Rename(ctx context.Context, id, title string) error
	Delete(ctx context.Context, id string) error
	History(ctx context.Context, id string) ([]Message, error)
	Files(ctx context.Context, id string) ([]UploadedFile, error)
	DeleteFile(ctx context.Context, sessionID, fileID string) error
	AutoTitle(ctx context.Context, id, seed string) (string, error)
}

// AnalysisService opens an incremental answer channel for a prompt. The
// concatenation of everything read from the body is the full answer; closure
// is the only end-of-stream signal.
type AnalysisService interface {
	Analyze(ctx context.Context, sessionID, query string) (io.ReadCloser, error)
}

// UploadService sends local files to the backend and reports per-file
// outcomes.
type UploadService interface {
	Upload(ctx context.Context, sessionID string, paths []string) ([]UploadResult, error)
}

// EventKind names a controller state change the presentation layer may want
// to react to.
type EventKind string

const (
	EventSessions   EventKind = "sessions"    // directory changed (list, title, removal)
	EventTimeline   EventKind = "timeline"    // timeline changed (append, chunk, truncate)
	EventFiles      EventKind = "files"       // attachment set changed
	EventStreamDone EventKind = "stream_done" // an in-flight stream settled
	EventUploadDone EventKind = "upload_done" // an upload settled
	EventNotice     EventKind = "notice"      // alert-level failure to surface
)

type Event struct {
	Kind      EventKind
	SessionID string
	Err       error
}
