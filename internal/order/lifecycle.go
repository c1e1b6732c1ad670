package order

import (
	"errors"
	"time"

	"github.com/technest-ghazi/backend-bnpl/internal/installment"
	"github.com/technest-ghazi/backend-bnpl/internal/pricing"
)

var (
	// ErrInstallmentNotFound indicates the installment number does not exist
	// in the order's schedule.
	ErrInstallmentNotFound = errors.New("installment not found")
	// ErrInstallmentAlreadyPaid indicates the installment was already
	// settled.
	ErrInstallmentAlreadyPaid = errors.New("installment already paid")
)

// ApplyPayment returns a copy of the schedule with the numbered installment
// marked paid at paidAt. The input schedule is not mutated.
func ApplyPayment(schedule []installment.Installment, number int, paidAt time.Time) ([]installment.Installment, error) {
	out := make([]installment.Installment, len(schedule))
	copy(out, schedule)
	for i := range out {
		if out[i].Number != number {
			continue
		}
		if out[i].Paid {
			return nil, ErrInstallmentAlreadyPaid
		}
		at := paidAt
		out[i].Paid = true
		out[i].PaidAt = &at
		out[i].Status = installment.StatusPaid
		return out, nil
	}
	return nil, ErrInstallmentNotFound
}

// FlagOverdue marks unpaid installments whose due date has passed as overdue
// and applies the flat penalty once per installment. It reports whether
// anything changed.
func FlagOverdue(schedule []installment.Installment, now time.Time, penalty pricing.Money) ([]installment.Installment, bool) {
	out := make([]installment.Installment, len(schedule))
	copy(out, schedule)
	changed := false
	for i := range out {
		if out[i].Paid || out[i].Status == installment.StatusOverdue {
			continue
		}
		if !out[i].DueDate.Before(now) {
			continue
		}
		out[i].Status = installment.StatusOverdue
		out[i].Penalty += penalty
		changed = true
	}
	return out, changed
}

// RecomputeStatus derives the overall payment status after the schedule has
// changed. Overdue dominates partial payment; a fully settled schedule
// completes the order.
func RecomputeStatus(current PaymentStatus, schedule []installment.Installment) PaymentStatus {
	if len(schedule) == 0 {
		return current
	}
	paid := 0
	overdue := false
	for _, ins := range schedule {
		if ins.Paid {
			paid++
			continue
		}
		if ins.Status == installment.StatusOverdue {
			overdue = true
		}
	}
	switch {
	case paid == len(schedule):
		return StatusCompleted
	case overdue:
		return StatusOverdue
	case paid > 0:
		return StatusPartiallyPaid
	default:
		return current
	}
}
