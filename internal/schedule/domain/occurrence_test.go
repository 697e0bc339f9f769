package schedule

import (
	"errors"
	"testing"
	"time"
)

func pendingOccurrence() ScheduledOccurrence {
	return ScheduledOccurrence{
		ID:       "occ-1",
		TenantID: "tenant-a",
		HomeID:   "home-1",
		SystemID: "system-furnace",
		DueDate:  date(2025, time.September, 1),
		Status:   StatusPending,
		Priority: PriorityMedium,
	}
}

func TestOccurrence_Reschedule(t *testing.T) {
	now := time.Date(2025, time.August, 1, 10, 30, 0, 0, time.UTC)

	occ := pendingOccurrence()
	if err := occ.Reschedule(date(2025, time.October, 1), now); err != nil {
		t.Fatalf("reschedule error: %v", err)
	}
	if !occ.DueDate.Equal(date(2025, time.October, 1)) {
		t.Fatalf("expected due date moved, got %s", occ.DueDate)
	}

	occ = pendingOccurrence()
	if err := occ.Reschedule(date(2025, time.July, 15), now); !errors.Is(err, ErrPastDueDate) {
		t.Fatalf("expected ErrPastDueDate, got %v", err)
	}

	// Same-day reschedule is allowed.
	occ = pendingOccurrence()
	if err := occ.Reschedule(date(2025, time.August, 1), now); err != nil {
		t.Fatalf("same-day reschedule error: %v", err)
	}
}

func TestOccurrence_TerminalStatesAreFinal(t *testing.T) {
	now := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)

	completed := pendingOccurrence()
	if err := completed.Complete(now); err != nil {
		t.Fatalf("complete error: %v", err)
	}
	if err := completed.Reschedule(date(2025, time.December, 1), now); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition on rescheduling completed, got %v", err)
	}
	if err := completed.Cancel(now); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition on cancelling completed, got %v", err)
	}

	cancelled := pendingOccurrence()
	if err := cancelled.Cancel(now); err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if err := cancelled.Complete(now); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition on completing cancelled, got %v", err)
	}
}

func TestOccurrence_CompleteStampsTime(t *testing.T) {
	now := time.Date(2025, time.August, 1, 9, 0, 0, 0, time.UTC)
	occ := pendingOccurrence()
	if err := occ.Complete(now); err != nil {
		t.Fatalf("complete error: %v", err)
	}
	if occ.Status != StatusCompleted {
		t.Fatalf("expected completed status, got %s", occ.Status)
	}
	if !occ.CompletedAt.Equal(now) {
		t.Fatalf("expected completed at %s, got %s", now, occ.CompletedAt)
	}
}
