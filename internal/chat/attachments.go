package chat

import "sync"

// AttachmentSet is the set of uploaded reference files scoped to the active
// session, keyed by file id and kept in insertion order for display.
type AttachmentSet struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]UploadedFile
}

func NewAttachmentSet() *AttachmentSet {
	return &AttachmentSet{byID: make(map[string]UploadedFile)}
}

func (a *AttachmentSet) Add(files ...UploadedFile) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, f := range files {
		if _, ok := a.byID[f.FileID]; !ok {
			a.order = append(a.order, f.FileID)
		}
		a.byID[f.FileID] = f
	}
}

// Replace swaps in the attachment list fetched for a newly selected session.
func (a *AttachmentSet) Replace(files []UploadedFile) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.order = a.order[:0]
	a.byID = make(map[string]UploadedFile, len(files))
	for _, f := range files {
		if _, ok := a.byID[f.FileID]; !ok {
			a.order = append(a.order, f.FileID)
		}
		a.byID[f.FileID] = f
	}
}

func (a *AttachmentSet) Remove(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byID[id]; !ok {
		return false
	}
	delete(a.byID, id)
	for i, fid := range a.order {
		if fid == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

func (a *AttachmentSet) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.order = a.order[:0]
	a.byID = make(map[string]UploadedFile)
}

func (a *AttachmentSet) Has(id string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.byID[id]
	return ok
}

// List returns the attachments in insertion order.
func (a *AttachmentSet) List() []UploadedFile {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]UploadedFile, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.byID[id])
	}
	return out
}

func (a *AttachmentSet) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.byID)
}
