package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"gwi.com/pdf-chat/internal/core"
	"gwi.com/pdf-chat/internal/qaclient"
	"gwi.com/pdf-chat/internal/store"
	"gwi.com/pdf-chat/internal/utils"
)

//go:embed web/index.html
var indexHTML []byte

// ActivityLister reads the activity journal.
type ActivityLister interface {
	ListActivity(ctx context.Context, limit int) ([]store.Activity, error)
}

type APIHandler struct {
	sessions       *core.SessionService
	activity       ActivityLister
	maxUploadBytes int64
	allowedOrigins []string
	originPatterns []string
}

func NewAPIHandler(sessions *core.SessionService, activity ActivityLister, maxUploadBytes int64, allowedOrigins []string) *APIHandler {
	return &APIHandler{
		sessions:       sessions,
		activity:       activity,
		maxUploadBytes: maxUploadBytes,
		allowedOrigins: allowedOrigins,
		originPatterns: originHosts(allowedOrigins),
	}
}

// originHosts turns CORS origins into the host patterns websocket.Accept
// checks the Origin header against.
func originHosts(origins []string) []string {
	var hosts []string
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		} else if o != "" {
			hosts = append(hosts, o)
		}
	}
	return hosts
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func (h *APIHandler) session(w http.ResponseWriter, r *http.Request) (*core.Session, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (h *APIHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

type CreateSessionResponse struct {
	ID    string     `json:"id"`
	State core.State `json:"state"`
}

func (h *APIHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Create(r.Context())
	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		ID:    sess.ID,
		State: sess.Controller.Snapshot(),
	})
}

func (h *APIHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Controller.Snapshot())
}

func (h *APIHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.sessions.Delete(sessionID); err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type UploadResponse struct {
	Report core.UploadReport `json:"report"`
	State  core.State        `json:"state"`
}

func (h *APIHandler) UploadDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Upload is too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid multipart body: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		http.Error(w, "At least one file is required", http.StatusBadRequest)
		return
	}

	files := make([]core.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			log.Printf("Error opening upload %q for session %s: %v", fh.Filename, sess.ID, err)
			http.Error(w, "Failed to read upload", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			log.Printf("Error reading upload %q for session %s: %v", fh.Filename, sess.ID, err)
			http.Error(w, "Failed to read upload", http.StatusBadRequest)
			return
		}
		files = append(files, core.File{
			Name: fh.Filename,
			Type: utils.DetectContentType(fh.Header.Get("Content-Type"), data),
			Data: data,
		})
	}

	// Issued backend calls are not cancelled when the page goes away.
	report, err := sess.Controller.Upload(context.WithoutCancel(r.Context()), files)
	if errors.Is(err, core.ErrBusy) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, UploadResponse{Report: report, State: sess.Controller.Snapshot()})
}

func (h *APIHandler) RefreshDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	// Failures are queued as notifications on the session.
	_ = sess.Controller.Refresh(r.Context())
	writeJSON(w, http.StatusOK, sess.Controller.Snapshot())
}

type SetActiveDocumentRequest struct {
	DocumentID *int64 `json:"document_id"`
}

func (h *APIHandler) SetActiveDocumentHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SetActiveDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.DocumentID == nil {
		http.Error(w, "document_id is required", http.StatusBadRequest)
		return
	}
	if !sess.Controller.SetActive(*req.DocumentID) {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess.Controller.Snapshot())
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		http.Error(w, "Message content is required", http.StatusBadRequest)
		return
	}

	err := sess.Controller.Send(context.WithoutCancel(r.Context()), req.Content)
	if h.writeActionError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, sess.Controller.Snapshot())
}

func (h *APIHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	err := sess.Controller.Summarize(context.WithoutCancel(r.Context()))
	if h.writeActionError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, sess.Controller.Snapshot())
}

// writeActionError maps controller precondition errors to a response and
// reports whether one was written.
func (h *APIHandler) writeActionError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, core.ErrBusy), errors.Is(err, core.ErrNoActiveDocument):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Request failed", http.StatusInternalServerError)
	}
	return true
}

func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	pairs, err := sess.Controller.History(r.Context())
	if err != nil {
		if errors.Is(err, core.ErrNoActiveDocument) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		msg := "Failed to get QA history"
		var apiErr *qaclient.APIError
		if errors.As(err, &apiErr) {
			msg = apiErr.Message
		}
		http.Error(w, msg, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, pairs)
}

func (h *APIHandler) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Notifications.Drain())
}

func (h *APIHandler) ListActivityHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.activity.ListActivity(r.Context(), limit)
	if err != nil {
		log.Printf("Error listing activity: %v", err)
		http.Error(w, "Failed to list activity", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
