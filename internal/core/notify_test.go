package core

import "testing"

func TestNotificationQueue_DrainEmpties(t *testing.T) {
	q := NewNotificationQueue(0)
	if got := q.Drain(); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}

	q.Notify(Notification{Title: "a"})
	q.Notify(Notification{Title: "b"})

	got := q.Drain()
	if len(got) != 2 || got[0].Title != "a" || got[1].Title != "b" {
		t.Fatalf("unexpected drain: %+v", got)
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be stamped")
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}

func TestNotificationQueue_DropsOldest(t *testing.T) {
	q := NewNotificationQueue(2)
	for _, title := range []string{"a", "b", "c"} {
		q.Notify(Notification{Title: title})
	}

	got := q.Drain()
	if len(got) != 2 || got[0].Title != "b" || got[1].Title != "c" {
		t.Errorf("expected newest two, got %+v", got)
	}
}
