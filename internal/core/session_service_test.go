package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"gwi.com/pdf-chat/internal/qaclient"
)

func TestSessionService_CreateLoadsDocuments(t *testing.T) {
	api := &mockAPI{listFn: func() ([]qaclient.Document, error) {
		return []qaclient.Document{{ID: 4, Filename: "a.pdf"}}, nil
	}}
	svc := NewSessionService(api, nil, Options{})

	sess := svc.Create(context.Background())
	if sess.ID == "" || sess.Controller.ID() != sess.ID {
		t.Fatalf("unexpected session: %+v", sess)
	}
	state := sess.Controller.Snapshot()
	if state.ActiveDocumentID == nil || *state.ActiveDocumentID != 4 {
		t.Errorf("expected active document 4, got %v", state.ActiveDocumentID)
	}

	got, err := svc.Get(sess.ID)
	if err != nil || got != sess {
		t.Fatalf("Get: %v", err)
	}
	if svc.Len() != 1 {
		t.Errorf("expected 1 session, got %d", svc.Len())
	}
}

func TestSessionService_CreateQueuesRefreshFailure(t *testing.T) {
	api := &mockAPI{listFn: func() ([]qaclient.Document, error) { return nil, errors.New("down") }}
	svc := NewSessionService(api, nil, Options{})

	sess := svc.Create(context.Background())
	got := sess.Notifications.Drain()
	if len(got) != 1 || got[0].Description != "Failed to fetch documents. Please try again." {
		t.Errorf("unexpected notifications: %+v", got)
	}
}

func TestSessionService_Delete(t *testing.T) {
	svc := NewSessionService(&mockAPI{}, nil, Options{})
	sess := svc.Create(context.Background())

	select {
	case <-sess.Done():
		t.Fatal("Done closed before Delete")
	default:
	}

	if err := svc.Delete(sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	select {
	case <-sess.Done():
	default:
		t.Error("expected Done to be closed after Delete")
	}
	if _, err := svc.Get(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.Delete(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestSessionService_Sweep(t *testing.T) {
	svc := NewSessionService(&mockAPI{}, nil, Options{})
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	idle := svc.Create(context.Background())
	watched := svc.Create(context.Background())
	_, unsubscribe := watched.Controller.Subscribe()
	defer unsubscribe()

	now = now.Add(10 * time.Minute)
	fresh := svc.Create(context.Background())

	if n := svc.Sweep(5 * time.Minute); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if _, err := svc.Get(idle.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Error("expected idle session to be evicted")
	}
	select {
	case <-idle.Done():
	default:
		t.Error("expected Done to be closed for an evicted session")
	}
	for _, sess := range []*Session{watched, fresh} {
		if _, err := svc.Get(sess.ID); err != nil {
			t.Errorf("session %s should survive: %v", sess.ID, err)
		}
	}
}
