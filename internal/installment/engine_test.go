package installment

import (
	"testing"
	"time"
)

func TestScheduleSumsExactly(t *testing.T) {
	orderDate := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	for months := 1; months <= 60; months++ {
		for _, total := range []int64{1, 99, 10000, 123457, 9999999} {
			schedule := Schedule(total, months, orderDate)
			if len(schedule) != months {
				t.Fatalf("expected %d installments, got %d", months, len(schedule))
			}
			if got := Total(schedule); got != total {
				t.Fatalf("months=%d total=%d: schedule sums to %d", months, total, got)
			}
			for _, ins := range schedule {
				if ins.Amount < 0 {
					t.Fatalf("months=%d total=%d: negative installment %d", months, total, ins.Number)
				}
			}
		}
	}
}

func TestScheduleSmallTotalOverManyMonths(t *testing.T) {
	// A tiny total spread over many months leaves most of the value in the
	// division remainder; it must land on the last installment, never push
	// it below zero.
	orderDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	schedule := Schedule(99, 18, orderDate)
	for _, ins := range schedule[:17] {
		if ins.Amount != 5 {
			t.Fatalf("installment %d: amount %d, want 5", ins.Number, ins.Amount)
		}
	}
	if last := schedule[17].Amount; last != 14 {
		t.Fatalf("final installment: amount %d, want 14", last)
	}
	if got := Total(schedule); got != 99 {
		t.Fatalf("schedule sums to %d, want 99", got)
	}
}

func TestScheduleRoundingDriftGoesToLast(t *testing.T) {
	orderDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	schedule := Schedule(10000, 3, orderDate)
	if len(schedule) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(schedule))
	}
	if schedule[0].Amount != 3333 || schedule[1].Amount != 3333 {
		t.Fatalf("expected first two installments of 3333, got %d and %d", schedule[0].Amount, schedule[1].Amount)
	}
	if schedule[2].Amount != 3334 {
		t.Fatalf("expected final installment of 3334, got %d", schedule[2].Amount)
	}
}

func TestScheduleDueDatesOneMonthApart(t *testing.T) {
	orderDate := time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)
	schedule := Schedule(120000, 12, orderDate)
	prev := orderDate
	for _, ins := range schedule {
		want := prev.AddDate(0, 1, 0)
		if !ins.DueDate.Equal(want) {
			t.Fatalf("installment %d: due %v, want %v", ins.Number, ins.DueDate, want)
		}
		prev = ins.DueDate
	}
}

func TestScheduleGuards(t *testing.T) {
	now := time.Now()
	if got := Schedule(10000, 0, now); len(got) != 0 {
		t.Fatalf("zero duration should yield empty schedule, got %d entries", len(got))
	}
	if got := Schedule(0, 5, now); len(got) != 0 {
		t.Fatalf("zero amount should yield empty schedule, got %d entries", len(got))
	}
	if got := Schedule(-100, 5, now); len(got) != 0 {
		t.Fatalf("negative amount should yield empty schedule, got %d entries", len(got))
	}
}

func TestScheduleDefaults(t *testing.T) {
	schedule := Schedule(5000, 2, time.Now())
	for _, ins := range schedule {
		if ins.Paid || ins.PaidAt != nil || ins.Penalty != 0 || ins.Status != StatusPending {
			t.Fatalf("installment %d not in pristine pending state: %+v", ins.Number, ins)
		}
	}
}

func TestAddMonthsEndOfMonthRollover(t *testing.T) {
	base := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	got := AddMonths(base, 1)
	// 2024 is a leap year; Jan 31 + 1 month normalizes to Mar 2.
	want := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("AddMonths(%v, 1) = %v, want %v", base, got, want)
	}
}

func TestOutstandingSkipsPaid(t *testing.T) {
	schedule := Schedule(9000, 3, time.Now())
	schedule[0].Paid = true
	schedule[2].Penalty = 150
	if got := Outstanding(schedule); got != 3000+3000+150 {
		t.Fatalf("expected outstanding 6150, got %d", got)
	}
}
