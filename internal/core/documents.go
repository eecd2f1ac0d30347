package core

import (
	"context"
	"sync"

	"gwi.com/pdf-chat/internal/qaclient"
)

// DocumentLister is the slice of the backend API the registry refreshes from.
type DocumentLister interface {
	ListDocuments(ctx context.Context) ([]qaclient.Document, error)
}

// DocumentRegistry tracks uploaded documents and the single active one that
// questions are scoped to. The active id is always a registered id or unset.
type DocumentRegistry struct {
	mu        sync.RWMutex
	docs      []qaclient.Document
	activeID  int64
	hasActive bool
}

func NewDocumentRegistry() *DocumentRegistry {
	return &DocumentRegistry{}
}

// Register inserts doc unless its id is already known, and makes it active
// when nothing is. It reports whether doc was inserted.
func (r *DocumentRegistry) Register(doc qaclient.Document) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(doc.ID) >= 0 {
		return false
	}
	r.docs = append(r.docs, doc)
	if !r.hasActive {
		r.activeID, r.hasActive = doc.ID, true
	}
	return true
}

// SetActive makes id active if it is registered; otherwise nothing changes.
func (r *DocumentRegistry) SetActive(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(id) < 0 {
		return false
	}
	r.activeID, r.hasActive = id, true
	return true
}

// Refresh replaces the document set with the backend's list. The active id
// survives if still listed, else the first listed document becomes active.
// On error the registry is left untouched.
func (r *DocumentRegistry) Refresh(ctx context.Context, lister DocumentLister) error {
	docs, err := lister.ListDocuments(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset(docs)
	return nil
}

func (r *DocumentRegistry) reset(docs []qaclient.Document) {
	seen := make(map[int64]struct{}, len(docs))
	r.docs = make([]qaclient.Document, 0, len(docs))
	for _, d := range docs {
		if _, dup := seen[d.ID]; dup {
			continue
		}
		seen[d.ID] = struct{}{}
		r.docs = append(r.docs, d)
	}

	if r.hasActive {
		if _, ok := seen[r.activeID]; ok {
			return
		}
	}
	if len(r.docs) == 0 {
		r.activeID, r.hasActive = 0, false
		return
	}
	r.activeID, r.hasActive = r.docs[0].ID, true
}

func (r *DocumentRegistry) ActiveID() (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID, r.hasActive
}

func (r *DocumentRegistry) Get(id int64) (qaclient.Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.docs[i], true
	}
	return qaclient.Document{}, false
}

func (r *DocumentRegistry) Documents() []qaclient.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]qaclient.Document, len(r.docs))
	copy(out, r.docs)
	return out
}

// indexOf expects r.mu to be held.
func (r *DocumentRegistry) indexOf(id int64) int {
	for i, d := range r.docs {
		if d.ID == id {
			return i
		}
	}
	return -1
}
