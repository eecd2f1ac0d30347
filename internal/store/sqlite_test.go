package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "activity.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_RecordAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docID := int64(7)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	entries := []*Activity{
		{SessionID: "s1", Kind: KindUpload, DocumentID: &docID, Status: StatusOK, CreatedAt: base},
		{SessionID: "s1", Kind: KindAsk, DocumentID: &docID, Status: StatusFailed, Detail: "Failed to get answer", CreatedAt: base.Add(time.Minute)},
		{SessionID: "s2", Kind: KindUpload, Status: StatusRejected, Detail: "notes.txt", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, a := range entries {
		if err := s.RecordActivity(ctx, a); err != nil {
			t.Fatalf("record failed: %v", err)
		}
		if a.ID == 0 {
			t.Error("expected ID to be assigned")
		}
	}

	got, err := s.ListActivity(ctx, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].Status != StatusRejected || got[0].DocumentID != nil {
		t.Errorf("newest entry should be the rejected upload without document: %+v", got[0])
	}
	if got[1].Kind != KindAsk || got[1].DocumentID == nil || *got[1].DocumentID != 7 {
		t.Errorf("unexpected second entry: %+v", got[1])
	}
	if got[1].Detail != "Failed to get answer" {
		t.Errorf("detail not stored: %q", got[1].Detail)
	}
}

func TestSQLiteStore_ListLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := s.RecordActivity(ctx, &Activity{SessionID: "s", Kind: KindRefresh, Status: StatusOK}); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	got, err := s.ListActivity(ctx, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 entries, got %d", len(got))
	}

	got, err = s.ListActivity(ctx, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("default limit should return all 5, got %d", len(got))
	}
}

func TestSQLiteStore_RejectsUnknownKind(t *testing.T) {
	s := newTestStore(t)
	err := s.RecordActivity(context.Background(), &Activity{SessionID: "s", Kind: "delete", Status: StatusOK})
	if err == nil {
		t.Error("expected check constraint failure for unknown kind")
	}
}

func TestSQLiteStore_Prune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := &Activity{SessionID: "s", Kind: KindAsk, Status: StatusOK, CreatedAt: now.Add(-48 * time.Hour)}
	recent := &Activity{SessionID: "s", Kind: KindAsk, Status: StatusOK, CreatedAt: now}
	for _, a := range []*Activity{old, recent} {
		if err := s.RecordActivity(ctx, a); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	removed, err := s.PruneActivity(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 pruned entry, got %d", removed)
	}

	got, _ := s.ListActivity(ctx, 10)
	if len(got) != 1 || got[0].ID != recent.ID {
		t.Errorf("expected only the recent entry to remain, got %+v", got)
	}
}
