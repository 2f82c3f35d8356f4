package chat

import "sync"

// Timeline is the ordered log of turns for the active session. It is
// append-only except for the last slot (which grows while a stream is in
// flight) and the truncation performed by an edit.
type Timeline struct {
	mu   sync.RWMutex
	msgs []Message
}

func NewTimeline(msgs ...Message) *Timeline {
	t := &Timeline{}
	t.Reset(msgs...)
	return t
}

// Reset replaces the whole log.
func (t *Timeline) Reset(msgs ...Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append([]Message(nil), msgs...)
}

func (t *Timeline) Append(m Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append(t.msgs, m)
}

// Truncate keeps everything before index n, discarding the rest.
func (t *Timeline) Truncate(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n < len(t.msgs) {
		t.msgs = t.msgs[:n]
	}
}

// DropFirst removes the first entry. Used to retire the greeting placeholder
// when the first real user message arrives.
func (t *Timeline) DropFirst() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.msgs) > 0 {
		t.msgs = t.msgs[1:]
	}
}

// DropLast removes the last entry. Used by regenerate to discard the answer
// being replaced.
func (t *Timeline) DropLast() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.msgs) > 0 {
		t.msgs = t.msgs[:len(t.msgs)-1]
	}
}

// SetLastContent overwrites the content of the last entry with the full
// accumulated answer. Writing the accumulator rather than the delta keeps
// each stream update idempotent.
func (t *Timeline) SetLastContent(content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.msgs) > 0 {
		t.msgs[len(t.msgs)-1].Content = content
	}
}

func (t *Timeline) At(i int) (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.msgs) {
		return Message{}, false
	}
	return t.msgs[i], true
}

func (t *Timeline) Last() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.msgs) == 0 {
		return Message{}, false
	}
	return t.msgs[len(t.msgs)-1], true
}

func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.msgs)
}

// Messages returns a copy of the log in order.
func (t *Timeline) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Message(nil), t.msgs...)
}
