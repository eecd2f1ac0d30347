package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"gwi.com/pdf-chat/internal/core"
)

const wsWriteTimeout = 10 * time.Second

// wsFrame is one server push. Type is "state" or "notification".
type wsFrame struct {
	Type         string             `json:"type"`
	State        *core.State        `json:"state,omitempty"`
	Notification *core.Notification `json:"notification,omitempty"`
}

// SessionSocketHandler pushes queued notifications and a fresh snapshot to
// the page whenever the session changes. The socket is write-only; client
// frames are discarded. It is closed when the session is deleted.
func (h *APIHandler) SessionSocketHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		log.Printf("Failed to accept websocket for session %s: %v", sess.ID, err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := conn.CloseRead(r.Context())
	changes, unsubscribe := sess.Controller.Subscribe()
	defer unsubscribe()

	for {
		if err := pushUpdates(ctx, conn, sess); err != nil {
			if !isClosed(ctx, err) {
				log.Printf("Websocket write failed for session %s: %v", sess.ID, err)
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-sess.Done():
			conn.Close(websocket.StatusNormalClosure, "session closed")
			return
		case <-changes:
		}
	}
}

func pushUpdates(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()

	for _, n := range sess.Notifications.Drain() {
		if err := wsjson.Write(ctx, conn, wsFrame{Type: "notification", Notification: &n}); err != nil {
			return err
		}
	}
	state := sess.Controller.Snapshot()
	return wsjson.Write(ctx, conn, wsFrame{Type: "state", State: &state})
}

func isClosed(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}
