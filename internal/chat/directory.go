package chat

import "sync"

// Directory holds the known sessions, most-recent-first.
type Directory struct {
	mu       sync.RWMutex
	sessions []Session
}

func NewDirectory() *Directory {
	return &Directory{}
}

// Replace swaps in a full listing from the session service.
func (d *Directory) Replace(list []Session) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions = append([]Session(nil), list...)
}

// Prepend puts an auto-created session at the front without a full reload.
func (d *Directory) Prepend(s Session) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions = append([]Session{s}, d.sessions...)
}

// UpsertTitle replaces the title of the matching entry in place. Absent ids
// are a no-op.
func (d *Directory) UpsertTitle(id, title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.sessions {
		if d.sessions[i].ID == id {
			d.sessions[i].Title = title
			return
		}
	}
}

// Remove deletes the entry and reports whether it was present.
func (d *Directory) Remove(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.sessions {
		if d.sessions[i].ID == id {
			d.sessions = append(d.sessions[:i], d.sessions[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Directory) Get(id string) (Session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return Session{}, false
}

// List returns a copy of the directory in display order.
func (d *Directory) List() []Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Session(nil), d.sessions...)
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}
