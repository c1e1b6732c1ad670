package order

import (
	"errors"
	"testing"
	"time"

	"github.com/technest-ghazi/backend-bnpl/internal/installment"
)

func testSchedule(t *testing.T) []installment.Installment {
	t.Helper()
	orderDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	schedule := installment.Schedule(90000, 3, orderDate)
	if len(schedule) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(schedule))
	}
	return schedule
}

func TestApplyPayment(t *testing.T) {
	schedule := testSchedule(t)
	paidAt := time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)

	updated, err := ApplyPayment(schedule, 1, paidAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated[0].Paid || updated[0].PaidAt == nil || !updated[0].PaidAt.Equal(paidAt) {
		t.Fatalf("first installment not marked paid: %+v", updated[0])
	}
	if updated[0].Status != installment.StatusPaid {
		t.Fatalf("expected status Paid, got %s", updated[0].Status)
	}
	if schedule[0].Paid {
		t.Fatalf("input schedule must not be mutated")
	}

	if _, err := ApplyPayment(updated, 1, paidAt); !errors.Is(err, ErrInstallmentAlreadyPaid) {
		t.Fatalf("expected ErrInstallmentAlreadyPaid, got %v", err)
	}
	if _, err := ApplyPayment(updated, 9, paidAt); !errors.Is(err, ErrInstallmentNotFound) {
		t.Fatalf("expected ErrInstallmentNotFound, got %v", err)
	}
}

func TestFlagOverdue(t *testing.T) {
	schedule := testSchedule(t)
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC) // first two due dates passed

	updated, changed := FlagOverdue(schedule, now, 500)
	if !changed {
		t.Fatalf("expected changes")
	}
	if updated[0].Status != installment.StatusOverdue || updated[0].Penalty != 500 {
		t.Fatalf("first installment should be overdue with penalty: %+v", updated[0])
	}
	if updated[1].Status != installment.StatusOverdue {
		t.Fatalf("second installment should be overdue: %+v", updated[1])
	}
	if updated[2].Status != installment.StatusPending {
		t.Fatalf("third installment is not yet due: %+v", updated[2])
	}

	// A second scan must not stack penalties.
	again, changed := FlagOverdue(updated, now, 500)
	if changed {
		t.Fatalf("second scan should be a no-op")
	}
	if again[0].Penalty != 500 {
		t.Fatalf("penalty applied twice: %d", again[0].Penalty)
	}
}

func TestRecomputeStatus(t *testing.T) {
	schedule := testSchedule(t)
	paidAt := time.Now()

	if got := RecomputeStatus(StatusUnpaidBNPL, schedule); got != StatusUnpaidBNPL {
		t.Fatalf("untouched schedule should keep status, got %s", got)
	}

	partial, err := ApplyPayment(schedule, 1, paidAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := RecomputeStatus(StatusUnpaidBNPL, partial); got != StatusPartiallyPaid {
		t.Fatalf("expected Partially Paid, got %s", got)
	}

	overdue, _ := FlagOverdue(partial, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), 0)
	if got := RecomputeStatus(StatusPartiallyPaid, overdue); got != StatusOverdue {
		t.Fatalf("overdue should dominate partial payment, got %s", got)
	}

	full := partial
	for _, n := range []int{2, 3} {
		full, err = ApplyPayment(full, n, paidAt)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := RecomputeStatus(StatusPartiallyPaid, full); got != StatusCompleted {
		t.Fatalf("expected Completed, got %s", got)
	}
}

func TestIncompleteStatuses(t *testing.T) {
	for _, st := range IncompleteStatuses() {
		if !st.Incomplete() {
			t.Fatalf("%s should be incomplete", st)
		}
	}
	for _, st := range []PaymentStatus{StatusUnpaidCOD, StatusCompleted, StatusPendingReview, StatusMixedPending} {
		if st.Incomplete() {
			t.Fatalf("%s should not block checkout", st)
		}
	}
}
