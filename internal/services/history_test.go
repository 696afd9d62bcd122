package services

import (
	"testing"

	"github.com/latestcomment/team-alert/internal/models"
)

func TestHistoryNeverExceedsSize(t *testing.T) {
	h := NewHistory(0)
	for i := int64(1); i <= 120; i++ {
		h.Push(models.AlertEvent{Timestamp: i})
		if h.Len() > DefaultHistorySize {
			t.Fatalf("len %d after %d pushes", h.Len(), i)
		}
	}
	all := h.Recent(0)
	if len(all) != DefaultHistorySize {
		t.Fatalf("len = %d", len(all))
	}
	if all[0].Timestamp != 120 || all[len(all)-1].Timestamp != 71 {
		t.Fatalf("window = [%d..%d], want [120..71]", all[0].Timestamp, all[len(all)-1].Timestamp)
	}
}

func TestHistoryRecentCopies(t *testing.T) {
	h := NewHistory(3)
	h.Push(models.AlertEvent{Message: "a"})
	h.Push(models.AlertEvent{Message: "b"})

	got := h.Recent(10)
	if len(got) != 2 || got[0].Message != "b" || got[1].Message != "a" {
		t.Fatalf("Recent = %+v", got)
	}
	got[0].Message = "mutated"
	if h.Recent(1)[0].Message != "b" {
		t.Fatalf("Recent exposed internal storage")
	}
}

func TestRosterRemoveKeepsOrder(t *testing.T) {
	r := NewRoster()
	for _, id := range []string{"a", "b", "c"} {
		r.Put(models.Participant{ConnectionID: id, Username: id})
	}
	if replaced := r.Put(models.Participant{ConnectionID: "b", Username: "B"}); !replaced {
		t.Fatalf("Put on existing id should report replacement")
	}
	if _, ok := r.Remove("a"); !ok {
		t.Fatalf("Remove(a) not found")
	}
	if _, ok := r.Remove("a"); ok {
		t.Fatalf("second Remove(a) should miss")
	}
	got := r.Snapshot()
	if len(got) != 2 || got[0].Username != "B" || got[1].Username != "c" {
		t.Fatalf("Snapshot = %+v", got)
	}
}
