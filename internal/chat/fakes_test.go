package chat

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

// fakeService is a hand-rolled SessionService with canned data and call
// counters.
type fakeService struct {
	mu sync.Mutex

	sessions  []Session
	histories map[string][]Message
	files     map[string][]UploadedFile

	createErr    error
	listErr      error
	historyErr   error
	filesErr     error
	renameErr    error
	deleteErr    error
	autoTitleErr error

	listCalls       int
	createCalls     int
	renameCalls     int
	deleteCalls     int
	deleteFileCalls int

	autoTitleSeed chan string
}

func newFakeService() *fakeService {
	return &fakeService{
		histories:     make(map[string][]Message),
		files:         make(map[string][]UploadedFile),
		autoTitleSeed: make(chan string, 4),
	}
}

func (f *fakeService) List(context.Context) ([]Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]Session(nil), f.sessions...), nil
}

func (f *fakeService) Create(_ context.Context, title string) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return Session{}, f.createErr
	}
	s := Session{ID: "s-created", Title: title, CreatedAt: time.Now()}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeService) Rename(_ context.Context, id, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renameCalls++
	return f.renameErr
}

func (f *fakeService) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

func (f *fakeService) History(_ context.Context, id string) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return append([]Message(nil), f.histories[id]...), nil
}

func (f *fakeService) Files(_ context.Context, id string) ([]UploadedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.filesErr != nil {
		return nil, f.filesErr
	}
	return append([]UploadedFile(nil), f.files[id]...), nil
}

func (f *fakeService) DeleteFile(_ context.Context, sessionID, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteFileCalls++
	return nil
}

func (f *fakeService) AutoTitle(_ context.Context, id, seed string) (string, error) {
	f.mu.Lock()
	err := f.autoTitleErr
	f.mu.Unlock()
	f.autoTitleSeed <- seed
	if err != nil {
		return "", err
	}
	return "Titled: " + seed, nil
}

// chunkReader yields one scripted chunk per Read call, then failErr or EOF.
type chunkReader struct {
	chunks  []string
	pos     int
	failErr error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.chunks) {
		if r.failErr != nil {
			return 0, r.failErr
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.pos])
	r.pos++
	return n, nil
}

// fakeAnalysis scripts the answer stream. With gate set, Analyze blocks the
// stream goroutine on the returned pipe until the test writes/closes it.
type fakeAnalysis struct {
	mu      sync.Mutex
	calls   int
	queries []string

	chunks     []string
	failErr    error // mid-stream failure after chunks
	connectErr error // Analyze itself fails

	pipe *io.PipeReader // takes precedence over chunks when set
}

func (f *fakeAnalysis) Analyze(_ context.Context, sessionID, query string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queries = append(f.queries, query)
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	if f.pipe != nil {
		return io.NopCloser(f.pipe), nil
	}
	return io.NopCloser(&chunkReader{chunks: f.chunks, failErr: f.failErr}), nil
}

func (f *fakeAnalysis) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAnalysis) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return ""
	}
	return f.queries[len(f.queries)-1]
}

type fakeUploads struct {
	mu      sync.Mutex
	calls   int
	results []UploadResult
	err     error
}

func (f *fakeUploads) Upload(_ context.Context, sessionID string, paths []string) ([]UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]UploadResult(nil), f.results...), nil
}

// recorder collects controller events and exposes settle channels for the
// async stream and upload paths.
type recorder struct {
	mu         sync.Mutex
	events     []Event
	streamDone chan Event
	uploadDone chan Event
}

func newRecorder() *recorder {
	return &recorder{
		streamDone: make(chan Event, 8),
		uploadDone: make(chan Event, 8),
	}
}

func (r *recorder) notify(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	switch ev.Kind {
	case EventStreamDone:
		r.streamDone <- ev
	case EventUploadDone:
		r.uploadDone <- ev
	}
}

func (r *recorder) waitStream(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-r.streamDone:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for stream to settle")
		return Event{}
	}
}

var errBoom = errors.New("boom")

func newTestController(svc *fakeService, an *fakeAnalysis, up *fakeUploads, rec *recorder) *Controller {
	var notify func(Event)
	if rec != nil {
		notify = rec.notify
	}
	return New(svc, an, up, nil, notify)
}
