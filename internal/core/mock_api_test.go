package core

import (
	"context"
	"io"
	"sync"

	"gwi.com/pdf-chat/internal/qaclient"
	"gwi.com/pdf-chat/internal/store"
)

// mockAPI implements API for testing. Unset funcs succeed with canned data.
type mockAPI struct {
	mu sync.Mutex

	uploadFn    func(filename string, data []byte) (*qaclient.Document, error)
	listFn      func() ([]qaclient.Document, error)
	askFn       func(documentID int64, question string) (*qaclient.Answer, error)
	historyFn   func(documentID int64) ([]qaclient.QAPair, error)
	summarizeFn func(documentID int64) (*qaclient.Summary, error)

	uploads   []string
	questions []string
	listCalls int
}

func (m *mockAPI) UploadDocument(ctx context.Context, filename string, content io.Reader) (*qaclient.Document, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.uploads = append(m.uploads, filename)
	m.mu.Unlock()
	if m.uploadFn != nil {
		return m.uploadFn(filename, data)
	}
	return &qaclient.Document{ID: 1, Filename: filename}, nil
}

func (m *mockAPI) ListDocuments(ctx context.Context) ([]qaclient.Document, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()
	if m.listFn != nil {
		return m.listFn()
	}
	return []qaclient.Document{}, nil
}

func (m *mockAPI) AskQuestion(ctx context.Context, documentID int64, question string) (*qaclient.Answer, error) {
	m.mu.Lock()
	m.questions = append(m.questions, question)
	m.mu.Unlock()
	if m.askFn != nil {
		return m.askFn(documentID, question)
	}
	return &qaclient.Answer{Answer: "42"}, nil
}

func (m *mockAPI) GetHistory(ctx context.Context, documentID int64) ([]qaclient.QAPair, error) {
	if m.historyFn != nil {
		return m.historyFn(documentID)
	}
	return []qaclient.QAPair{}, nil
}

func (m *mockAPI) Summarize(ctx context.Context, documentID int64) (*qaclient.Summary, error) {
	if m.summarizeFn != nil {
		return m.summarizeFn(documentID)
	}
	return &qaclient.Summary{Summary: "short"}, nil
}

func (m *mockAPI) uploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads)
}

func (m *mockAPI) questionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.questions)
}

// recordingNotifier keeps every notification it receives.
type recordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recordingNotifier) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// mockJournal implements Journal for testing.
type mockJournal struct {
	mu      sync.Mutex
	entries []store.Activity
	err     error
}

func (m *mockJournal) RecordActivity(ctx context.Context, a *store.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *a)
	return nil
}

func (m *mockJournal) kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.entries {
		out = append(out, e.Kind+":"+e.Status)
	}
	return out
}
