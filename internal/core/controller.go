package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"gwi.com/pdf-chat/internal/qaclient"
	"gwi.com/pdf-chat/internal/store"
	"gwi.com/pdf-chat/internal/utils"
)

var (
	ErrBusy             = errors.New("another upload or question is still in progress")
	ErrNoActiveDocument = errors.New("no document selected")
)

const (
	GreetingText     = "Hi! Upload a PDF document and ask me questions about it."
	ThinkingText     = "Thinking..."
	AskErrorText     = "I'm sorry, I encountered an error while processing your question. Please try again."
	SummaryErrorText = "I'm sorry, I encountered an error while summarizing the document. Please try again."
	SummaryPrompt    = "Summarize this document."
)

// API is the question-answering backend as the controller uses it.
type API interface {
	DocumentLister
	UploadDocument(ctx context.Context, filename string, content io.Reader) (*qaclient.Document, error)
	AskQuestion(ctx context.Context, documentID int64, question string) (*qaclient.Answer, error)
	GetHistory(ctx context.Context, documentID int64) ([]qaclient.QAPair, error)
	Summarize(ctx context.Context, documentID int64) (*qaclient.Summary, error)
}

// Journal records what the controller did, for diagnostics.
type Journal interface {
	RecordActivity(ctx context.Context, a *store.Activity) error
}

type Options struct {
	// ReplacePlaceholderOnError overwrites the "Thinking..." placeholder with
	// the apology when a question fails, instead of appending the apology
	// after it.
	ReplacePlaceholderOnError bool
}

// File is a user-selected file as handed over by a file picker.
type File struct {
	Name string
	Type string // MIME type
	Data []byte
}

type UploadReport struct {
	Uploaded []qaclient.Document `json:"uploaded"`
	Rejected []string            `json:"rejected"`
	Failed   []string            `json:"failed"`
}

// State is a point-in-time copy of a conversation for rendering.
type State struct {
	Messages         []Message           `json:"messages"`
	Documents        []qaclient.Document `json:"documents"`
	ActiveDocumentID *int64              `json:"active_document_id"`
	IsLoading        bool                `json:"is_loading"`
}

// Controller owns one conversation: its messages, its documents and the
// loading flag. Network calls are made without holding any lock; only one
// upload, question or summary may be outstanding at a time.
type Controller struct {
	id       string
	api      API
	notifier Notifier
	journal  Journal
	opts     Options

	messages *MessageStore
	docs     *DocumentRegistry

	mu          sync.Mutex
	loading     bool
	subscribers map[int]chan struct{}
	nextSubID   int
}

func NewController(id string, api API, notifier Notifier, journal Journal, opts Options) *Controller {
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}
	c := &Controller{
		id:          id,
		api:         api,
		notifier:    notifier,
		journal:     journal,
		opts:        opts,
		messages:    NewMessageStore(),
		docs:        NewDocumentRegistry(),
		subscribers: make(map[int]chan struct{}),
	}
	c.messages.Append(RoleAssistant, GreetingText)
	return c
}

func (c *Controller) ID() string { return c.id }

// Refresh reloads the document list from the backend.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.refreshDocuments(ctx)
}

// SetActive scopes subsequent questions to document id, if it is known.
func (c *Controller) SetActive(id int64) bool {
	if !c.docs.SetActive(id) {
		return false
	}
	c.changed()
	return true
}

// Upload sends every PDF in files to the backend, one after another. Files
// that are not PDFs are reported and skipped. A failed upload does not stop
// the remaining ones. The only error returned is ErrBusy.
func (c *Controller) Upload(ctx context.Context, files []File) (UploadReport, error) {
	report := UploadReport{
		Uploaded: []qaclient.Document{},
		Rejected: []string{},
		Failed:   []string{},
	}

	var accepted []File
	for _, f := range files {
		if utils.IsPDF(f.Type) {
			accepted = append(accepted, f)
		} else {
			report.Rejected = append(report.Rejected, f.Name)
		}
	}

	if len(accepted) > 0 {
		if err := c.begin(); err != nil {
			return UploadReport{}, err
		}
		defer c.end()
	}

	if len(report.Rejected) > 0 {
		c.notify("Invalid File Type",
			fmt.Sprintf("Please upload only PDF files. Skipped: %s", strings.Join(report.Rejected, ", ")),
			SeverityDestructive)
		for _, name := range report.Rejected {
			c.record(ctx, store.KindUpload, nil, store.StatusRejected, name)
		}
	}

	for _, f := range accepted {
		c.uploadOne(ctx, f, &report)
	}
	return report, nil
}

func (c *Controller) uploadOne(ctx context.Context, f File, report *UploadReport) {
	doc, err := c.api.UploadDocument(ctx, f.Name, bytes.NewReader(f.Data))
	if err != nil {
		msg := userMessage(err, "There was an error uploading your file. Please try again.")
		log.Printf("Session %s: upload of %q failed: %v", c.id, f.Name, describe(err))
		report.Failed = append(report.Failed, f.Name)
		c.notify("Upload Failed", msg, SeverityDestructive)
		c.record(ctx, store.KindUpload, nil, store.StatusFailed, fmt.Sprintf("%s: %s", f.Name, msg))
		return
	}
	if doc.Filename == "" {
		doc.Filename = f.Name
	}

	// A failed refresh is already notified; the upload itself still counts.
	_ = c.refreshDocuments(ctx)

	if doc.ID != 0 {
		if _, known := c.docs.Get(doc.ID); !known {
			c.docs.Register(*doc)
		}
		c.docs.SetActive(doc.ID)
	}

	c.messages.Append(RoleAssistant,
		fmt.Sprintf("I've processed your document \"%s\". You can now ask me questions about it.", f.Name))
	report.Uploaded = append(report.Uploaded, *doc)

	c.notify("Upload Complete", fmt.Sprintf("%s has been successfully uploaded!", f.Name), SeverityInfo)
	c.record(ctx, store.KindUpload, documentRef(doc.ID), store.StatusOK, f.Name)
}

// Send asks content about the active document. Blank content is ignored.
// Without an active document the user is notified, nothing else changes and
// ErrNoActiveDocument is returned.
func (c *Controller) Send(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	return c.exchange(ctx, store.KindAsk, content, AskErrorText,
		"Failed to get an answer. Please try again.",
		func(ctx context.Context, documentID int64) (string, error) {
			answer, err := c.api.AskQuestion(ctx, documentID, content)
			if err != nil {
				return "", err
			}
			return answer.Answer, nil
		})
}

// Summarize asks the backend for a summary of the active document and
// shows it as an assistant reply.
func (c *Controller) Summarize(ctx context.Context) error {
	return c.exchange(ctx, store.KindSummarize, SummaryPrompt, SummaryErrorText,
		"Failed to generate a summary. Please try again.",
		func(ctx context.Context, documentID int64) (string, error) {
			summary, err := c.api.Summarize(ctx, documentID)
			if err != nil {
				return "", err
			}
			return summary.Summary, nil
		})
}

// exchange runs the user-message / placeholder / reply cycle shared by
// questions and summaries. On failure apology goes into the conversation and
// failureNote into the notification.
func (c *Controller) exchange(ctx context.Context, kind, prompt, apology, failureNote string,
	call func(ctx context.Context, documentID int64) (string, error)) error {

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrBusy
	}
	documentID, ok := c.docs.ActiveID()
	if !ok {
		c.mu.Unlock()
		c.notify("No Document Selected", "Please upload a document first.", SeverityDestructive)
		c.record(ctx, kind, nil, store.StatusRejected, ErrNoActiveDocument.Error())
		return ErrNoActiveDocument
	}
	c.messages.Append(RoleUser, prompt)
	c.loading = true
	placeholderID := c.messages.Append(RoleAssistant, ThinkingText)
	c.mu.Unlock()
	c.changed()

	reply, err := call(ctx, documentID)
	if err != nil {
		log.Printf("Session %s: %s on document %d failed: %v", c.id, kind, documentID, describe(err))
		if c.opts.ReplacePlaceholderOnError {
			c.replace(placeholderID, apology)
		} else {
			c.messages.Append(RoleAssistant, apology)
		}
		c.end()
		c.notify("Error", failureNote, SeverityDestructive)
		c.record(ctx, kind, documentRef(documentID), store.StatusFailed, userMessage(err, failureNote))
		return nil
	}

	c.replace(placeholderID, reply)
	c.end()
	c.record(ctx, kind, documentRef(documentID), store.StatusOK, "")
	return nil
}

// History fetches past questions and answers for the active document. It
// does not touch the conversation.
func (c *Controller) History(ctx context.Context) ([]qaclient.QAPair, error) {
	documentID, ok := c.docs.ActiveID()
	if !ok {
		c.notify("No Document Selected", "Please upload a document first.", SeverityDestructive)
		return nil, ErrNoActiveDocument
	}

	pairs, err := c.api.GetHistory(ctx, documentID)
	if err != nil {
		log.Printf("Session %s: history for document %d failed: %v", c.id, documentID, describe(err))
		c.notify("Error", "Failed to load the question history. Please try again.", SeverityDestructive)
		c.record(ctx, store.KindHistory, documentRef(documentID), store.StatusFailed, userMessage(err, ""))
		return nil, err
	}
	c.record(ctx, store.KindHistory, documentRef(documentID), store.StatusOK, "")
	return pairs, nil
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := State{
		Messages:  c.messages.List(),
		Documents: c.docs.Documents(),
		IsLoading: c.loading,
	}
	if id, ok := c.docs.ActiveID(); ok {
		state.ActiveDocumentID = &id
	}
	return state
}

func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Subscribe returns a channel that receives a signal after state changes or
// notifications. Signals are coalesced; read a Snapshot on receipt. Call
// the returned func to unsubscribe.
func (c *Controller) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, id)
			c.mu.Unlock()
		})
	}
}

func (c *Controller) HasSubscribers() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscribers) > 0
}

// WaitIdle blocks until no action is outstanding or ctx is done.
func (c *Controller) WaitIdle(ctx context.Context) error {
	changes, unsubscribe := c.Subscribe()
	defer unsubscribe()

	for {
		if !c.IsLoading() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changes:
		}
	}
}

func (c *Controller) begin() error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrBusy
	}
	c.loading = true
	c.mu.Unlock()
	c.changed()
	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) refreshDocuments(ctx context.Context) error {
	if err := c.docs.Refresh(ctx, c.api); err != nil {
		log.Printf("Session %s: fetching documents failed: %v", c.id, describe(err))
		c.notify("Error", "Failed to fetch documents. Please try again.", SeverityDestructive)
		c.record(ctx, store.KindRefresh, nil, store.StatusFailed, userMessage(err, ""))
		return err
	}
	c.changed()
	return nil
}

func (c *Controller) replace(id int, content string) {
	if !c.messages.Replace(id, content) {
		log.Printf("Session %s: logic error, placeholder message %d not found", c.id, id)
	}
}

func (c *Controller) notify(title, description string, severity Severity) {
	c.notifier.Notify(Notification{Title: title, Description: description, Severity: severity})
	c.changed()
}

// changed must not be called with c.mu held.
func (c *Controller) changed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (c *Controller) record(ctx context.Context, kind string, documentID *int64, status, detail string) {
	if c.journal == nil {
		return
	}
	err := c.journal.RecordActivity(ctx, &store.Activity{
		SessionID:  c.id,
		Kind:       kind,
		DocumentID: documentID,
		Status:     status,
		Detail:     detail,
	})
	if err != nil {
		log.Printf("Session %s: failed to record %s activity: %v", c.id, kind, err)
	}
}

func documentRef(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// userMessage returns the backend's human-readable message when err carries one.
func userMessage(err error, fallback string) string {
	var apiErr *qaclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if fallback == "" {
		return err.Error()
	}
	return fallback
}

// describe includes the transport cause for logs.
func describe(err error) string {
	var apiErr *qaclient.APIError
	if errors.As(err, &apiErr) && apiErr.Err != nil {
		return fmt.Sprintf("%s (%v)", apiErr.Message, apiErr.Err)
	}
	return err.Error()
}
