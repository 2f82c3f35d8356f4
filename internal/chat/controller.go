// Package chat implements the client-side session controller: the state
// machine that keeps the session directory, message timeline, and attachment
// set coherent while sends, streams, edits, uploads, and the fire-and-forget
// auto-title call settle asynchronously.
package chat

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const autoTitleTimeout = 30 * time.Second

// Controller orchestrates session lifecycle, optimistic timeline updates,
// incremental response ingestion, and the edit/regenerate/auto-title
// protocols. All mutations are applied atomically under one mutex; the
// presentation layer observes changes through the notify callback and reads
// state through the accessors.
type Controller struct {
	svc      SessionService
	analysis AnalysisService
	uploads  UploadService
	log      *logrus.Entry
	notify   func(Event)

	sessions *Directory
	timeline *Timeline
	files    *AttachmentSet
	ingestor Ingestor

	mu        sync.Mutex
	activeID  string
	pristine  bool // timeline holds only greeting + non-user notices; no real exchange yet
	sending   bool
	uploading bool
	editIndex int
	draft     string
}

// New wires a controller. notify may be nil; it is invoked outside the
// controller lock and must not block for long.
func New(svc SessionService, analysis AnalysisService, uploads UploadService, log *logrus.Entry, notify func(Event)) *Controller {
	if log == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		log = logrus.NewEntry(silent)
	}
	c := &Controller{
		svc:       svc,
		analysis:  analysis,
		uploads:   uploads,
		log:       log,
		notify:    notify,
		sessions:  NewDirectory(),
		timeline:  NewTimeline(Greeting),
		files:     NewAttachmentSet(),
		pristine:  true,
		editIndex: -1,
	}
	return c
}

func (c *Controller) emit(ev Event) {
	if c.notify != nil {
		c.notify(ev)
	}
}

// RefreshSessions replaces the directory from the session service. A load
// failure is logged and leaves the prior directory untouched.
func (c *Controller) RefreshSessions(ctx context.Context) error {
	list, err := c.svc.List(ctx)
	if err != nil {
		c.log.WithError(err).Warn("session list failed; keeping prior directory")
		return err
	}
	c.sessions.Replace(list)
	c.emit(Event{Kind: EventSessions})
	return nil
}

// NewChat resets the view to an empty conversation. Session creation is
// deferred until the first send or upload.
func (c *Controller) NewChat() {
	c.mu.Lock()
	c.activeID = ""
	c.pristine = true
	c.editIndex = -1
	c.draft = ""
	c.timeline.Reset(Greeting)
	c.files.Clear()
	c.mu.Unlock()
	c.emit(Event{Kind: EventTimeline})
	c.emit(Event{Kind: EventFiles})
}

// SelectSession makes id the active session, fetching its history and
// attachment list concurrently. On any fetch failure the previous view is
// kept whole; half-updated state is never exposed.
func (c *Controller) SelectSession(ctx context.Context, id string) error {
	var (
		wg      sync.WaitGroup
		history []Message
		files   []UploadedFile
		histErr error
		fileErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		history, histErr = c.svc.History(ctx, id)
	}()
	go func() {
		defer wg.Done()
		files, fileErr = c.svc.Files(ctx, id)
	}()
	wg.Wait()
	if histErr != nil {
		c.log.WithError(histErr).WithField("session", id).Warn("history load failed; keeping prior view")
		return histErr
	}
	if fileErr != nil {
		c.log.WithError(fileErr).WithField("session", id).Warn("attachment load failed; keeping prior view")
		return fileErr
	}

	c.mu.Lock()
	c.activeID = id
	c.editIndex = -1
	if len(history) == 0 {
		c.pristine = true
		c.timeline.Reset(Greeting)
	} else {
		c.pristine = false
		c.timeline.Reset(history...)
	}
	c.files.Replace(files)
	c.mu.Unlock()
	c.emit(Event{Kind: EventTimeline, SessionID: id})
	c.emit(Event{Kind: EventFiles, SessionID: id})
	return nil
}

// Send submits a user message against the active session, creating one
// first if none exists. The user turn is appended optimistically; the
// assistant answer streams into the slot appended by the ingest goroutine.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrBlankMessage
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return ErrBusy
	}
	targetID := c.activeID
	first := c.pristine
	c.mu.Unlock()

	if targetID == "" {
		created, err := c.svc.Create(ctx, PlaceholderTitle)
		if err != nil {
			c.log.WithError(err).Error("session create failed")
			c.timeline.Append(Message{Role: RoleAssistant, Content: connectFailedText})
			c.emit(Event{Kind: EventTimeline})
			c.emit(Event{Kind: EventNotice, Err: err})
			return err
		}
		first = true
		targetID = created.ID
		c.sessions.Prepend(created)
		c.emit(Event{Kind: EventSessions, SessionID: created.ID})
	}

	c.mu.Lock()
	if c.sending {
		// A competing send won the race while the session was being created.
		c.mu.Unlock()
		return ErrBusy
	}
	c.activeID = targetID
	c.draft = ""
	c.editIndex = -1
	if c.pristine {
		// The greeting placeholder leaves the timeline the moment a real
		// user message lands; it must never reach a history context.
		c.dropGreetingLocked()
		c.pristine = false
	}
	c.timeline.Append(Message{Role: RoleUser, Content: text})
	c.sending = true
	c.mu.Unlock()
	c.emit(Event{Kind: EventTimeline, SessionID: targetID})

	if first {
		c.autoTitle(targetID, text)
	}

	go c.runStream(ctx, targetID, text)
	return nil
}

// dropGreetingLocked removes the pre-seeded greeting slot. Callers hold
// c.mu. The pristine flag, not content comparison, decides that slot 0 is
// the placeholder; anything appended after it (upload notices) survives.
func (c *Controller) dropGreetingLocked() {
	if c.timeline.Len() > 0 {
		c.timeline.DropFirst()
	}
}

// autoTitle fires the one deliberately unfenced async call: naming the
// session must not add latency to the first answer, so it runs detached and
// its only allowed side effect is a directory title update. Failures keep
// the placeholder title.
func (c *Controller) autoTitle(sessionID, seed string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), autoTitleTimeout)
		defer cancel()
		title, err := c.svc.AutoTitle(ctx, sessionID, seed)
		if err != nil {
			c.log.WithError(err).WithField("session", sessionID).Warn("auto-title failed")
			return
		}
		c.sessions.UpsertTitle(sessionID, title)
		c.emit(Event{Kind: EventSessions, SessionID: sessionID})
	}()
}

// runStream opens the incremental answer channel and folds chunks into the
// last timeline slot. Every write is gated on sessionID still being active,
// so a stream left behind by a session switch can never scribble on the new
// session's timeline.
func (c *Controller) runStream(ctx context.Context, sessionID, query string) {
	body, err := c.analysis.Analyze(ctx, sessionID, query)
	if err != nil {
		c.log.WithError(err).WithField("session", sessionID).Error("stream connect failed")
		c.applyIfActive(sessionID, func() {
			c.timeline.Append(Message{Role: RoleAssistant, Content: connectFailedText})
		})
		c.settleStream(sessionID, err)
		return
	}
	defer body.Close()

	// Stable slot for the answer before the first chunk arrives.
	c.applyIfActive(sessionID, func() {
		c.timeline.Append(Message{Role: RoleAssistant, Content: ""})
	})

	text, err := c.ingestor.Run(body, func(full string) {
		if c.applyIfActive(sessionID, func() { c.timeline.SetLastContent(full) }) {
			c.emit(Event{Kind: EventTimeline, SessionID: sessionID})
		}
	})
	if err != nil {
		if text == "" {
			// Channel died before any content: same treatment as a failed
			// connection.
			c.applyIfActive(sessionID, func() { c.timeline.SetLastContent(connectFailedText) })
		} else {
			// A partial answer is more useful than none; keep it silently.
			c.log.WithError(err).WithField("session", sessionID).Warn("stream failed mid-flight; keeping partial answer")
			err = nil
		}
	}
	c.settleStream(sessionID, err)
}

// applyIfActive runs fn under the lock only if sessionID still owns the
// timeline. Reports whether fn ran.
func (c *Controller) applyIfActive(sessionID string, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeID != sessionID {
		return false
	}
	fn()
	return true
}

func (c *Controller) settleStream(sessionID string, err error) {
	c.mu.Lock()
	c.sending = false
	c.mu.Unlock()
	c.emit(Event{Kind: EventTimeline, SessionID: sessionID})
	c.emit(Event{Kind: EventStreamDone, SessionID: sessionID, Err: err})
}

// Regenerate drops the last answer and re-streams the preceding user prompt
// against the same session. A timeline too short to have a prompt/answer
// pair makes this a no-op; the shape of the last two entries is the
// caller's concern.
func (c *Controller) Regenerate(ctx context.Context) error {
	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.activeID == "" || c.timeline.Len() < 2 {
		c.mu.Unlock()
		return nil
	}
	prompt, _ := c.timeline.At(c.timeline.Len() - 2)
	c.timeline.DropLast()
	c.sending = true
	sessionID := c.activeID
	c.mu.Unlock()
	c.emit(Event{Kind: EventTimeline, SessionID: sessionID})

	go c.runStream(ctx, sessionID, prompt.Content)
	return nil
}

// BeginEdit opens a prior user turn for in-place editing and returns its
// current content as the draft seed. Editing is blocked while a stream is
// in flight.
func (c *Controller) BeginEdit(index int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sending {
		return "", ErrBusy
	}
	msg, ok := c.timeline.At(index)
	if !ok || msg.Role != RoleUser {
		return "", ErrBadIndex
	}
	c.editIndex = index
	c.draft = msg.Content
	return msg.Content, nil
}

func (c *Controller) CancelEdit() {
	c.mu.Lock()
	c.editIndex = -1
	c.draft = ""
	c.mu.Unlock()
}

// SubmitEdit truncates the timeline to everything before index — a
// destructive rewrite of the conversational future — then behaves exactly
// like a fresh send of newText. An auto-title that already fired is not
// reverted; only a future opportunity is consumed.
func (c *Controller) SubmitEdit(ctx context.Context, index int, newText string) error {
	newText = strings.TrimSpace(newText)
	if newText == "" {
		return ErrBlankMessage
	}
	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return ErrBusy
	}
	if _, ok := c.timeline.At(index); !ok {
		c.mu.Unlock()
		return ErrBadIndex
	}
	c.timeline.Truncate(index)
	c.editIndex = -1
	c.draft = ""
	c.mu.Unlock()
	c.emit(Event{Kind: EventTimeline, SessionID: c.ActiveSessionID()})

	return c.Send(ctx, newText)
}

// RenameSession renames a session through the service and mirrors the new
// title into the directory. Blank titles are a silent no-op; the timeline is
// never touched.
func (c *Controller) RenameSession(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	if err := c.svc.Rename(ctx, id, title); err != nil {
		c.log.WithError(err).WithField("session", id).Warn("rename failed")
		return err
	}
	c.sessions.UpsertTitle(id, title)
	c.emit(Event{Kind: EventSessions, SessionID: id})
	return nil
}

// DeleteSession removes a session server-side and from the directory. If it
// was the active session the view resets as if New Chat had been chosen.
func (c *Controller) DeleteSession(ctx context.Context, id string) error {
	if err := c.svc.Delete(ctx, id); err != nil {
		c.log.WithError(err).WithField("session", id).Warn("session delete failed")
		return err
	}
	c.sessions.Remove(id)
	c.emit(Event{Kind: EventSessions, SessionID: id})
	if c.ActiveSessionID() == id {
		c.NewChat()
	}
	return nil
}

// Upload sends local files to the backend, creating a session first when
// none is active. Only entries the service reports as successful join the
// attachment set; a wholesale failure adopts nothing. Uploads and sends are
// independent concurrency domains, each gated by its own flag.
func (c *Controller) Upload(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	c.mu.Lock()
	if c.uploading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.uploading = true
	targetID := c.activeID
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.uploading = false
		c.mu.Unlock()
	}()

	if targetID == "" {
		created, err := c.svc.Create(ctx, PlaceholderTitle)
		if err != nil {
			c.log.WithError(err).Error("session create failed")
			c.emit(Event{Kind: EventNotice, Err: err})
			return err
		}
		targetID = created.ID
		c.mu.Lock()
		c.activeID = targetID
		c.mu.Unlock()
		c.sessions.Prepend(created)
		c.emit(Event{Kind: EventSessions, SessionID: created.ID})
	}

	results, err := c.uploads.Upload(ctx, targetID, paths)
	if err != nil {
		c.log.WithError(err).WithField("session", targetID).Error("upload failed")
		c.emit(Event{Kind: EventNotice, Err: err})
		c.emit(Event{Kind: EventUploadDone, SessionID: targetID, Err: err})
		return err
	}

	var adopted []UploadedFile
	for _, r := range results {
		if r.Status == StatusSuccess {
			adopted = append(adopted, UploadedFile{FileID: r.FileID, Filename: r.Filename})
		}
	}
	c.applyIfActive(targetID, func() {
		c.files.Add(adopted...)
		c.timeline.Append(Message{
			Role:    RoleAssistant,
			Content: uploadNotice(len(adopted)),
		})
	})
	c.emit(Event{Kind: EventFiles, SessionID: targetID})
	c.emit(Event{Kind: EventTimeline, SessionID: targetID})
	c.emit(Event{Kind: EventUploadDone, SessionID: targetID})
	return nil
}

func uploadNotice(n int) string {
	return fmt.Sprintf("✅ **System:** Successfully uploaded %d document(s).", n)
}

// DeleteFile removes one attachment from the active session. The network
// call is gated on the caller's explicit confirmation; the timeline is never
// touched, even though removing a file changes what future turns will see.
func (c *Controller) DeleteFile(ctx context.Context, fileID string, confirmed bool) error {
	if !confirmed {
		return nil
	}
	sessionID := c.ActiveSessionID()
	if sessionID == "" {
		return ErrNoSession
	}
	if err := c.svc.DeleteFile(ctx, sessionID, fileID); err != nil {
		c.log.WithError(err).WithField("session", sessionID).Warn("file delete failed")
		return err
	}
	c.files.Remove(fileID)
	c.emit(Event{Kind: EventFiles, SessionID: sessionID})
	return nil
}

// Accessors. All return copies or scalars and are safe from any goroutine.

func (c *Controller) Sessions() []Session       { return c.sessions.List() }
func (c *Controller) Messages() []Message       { return c.timeline.Messages() }
func (c *Controller) Files() []UploadedFile     { return c.files.List() }
func (c *Controller) Session(id string) (Session, bool) { return c.sessions.Get(id) }

func (c *Controller) ActiveSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

func (c *Controller) IsSending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

func (c *Controller) IsUploading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploading
}

func (c *Controller) IsPristine() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pristine
}

// EditingIndex returns the timeline index open for editing, or -1.
func (c *Controller) EditingIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editIndex
}

func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}
