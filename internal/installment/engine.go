package installment

import (
	"time"

	"github.com/technest-ghazi/backend-bnpl/internal/pricing"
)

// Status values an installment moves through. New schedules always start
// Pending; Paid and Overdue are applied later by payment recording and the
// overdue scanner.
const (
	StatusPending = "Pending"
	StatusPaid    = "Paid"
	StatusOverdue = "Overdue"
)

// Installment is one scheduled payment within an installment plan.
type Installment struct {
	Number  int           `json:"installmentNumber"`
	Amount  pricing.Money `json:"amount"`
	DueDate time.Time     `json:"dueDate"`
	Paid    bool          `json:"paid"`
	PaidAt  *time.Time    `json:"paidAt"`
	Penalty pricing.Money `json:"penalty"`
	Status  string        `json:"status"`
}

// AddMonths returns base advanced by the given number of calendar months.
// Day-of-month overflow rolls into the following month (Jan 31 + 1 month
// lands in early March), matching time.AddDate normalization.
func AddMonths(base time.Time, months int) time.Time {
	return base.AddDate(0, months, 0)
}

// Schedule splits total into months equal monthly installments due one
// calendar month apart starting one month after orderDate. The amount is
// floor-divided so the division remainder lands on the final installment;
// the amounts always sum to total exactly and none can go negative. A
// non-positive total or month count yields an empty schedule, which callers
// treat as "no installment component".
func Schedule(total pricing.Money, months int, orderDate time.Time) []Installment {
	if total <= 0 || months <= 0 {
		return nil
	}
	per := total / pricing.Money(months)
	out := make([]Installment, 0, months)
	for i := 1; i <= months; i++ {
		amount := per
		if i == months {
			amount = total - per*pricing.Money(months-1)
		}
		out = append(out, Installment{
			Number:  i,
			Amount:  amount,
			DueDate: AddMonths(orderDate, i),
			Status:  StatusPending,
		})
	}
	return out
}

// Total returns the sum of installment amounts in the schedule.
func Total(schedule []Installment) pricing.Money {
	var sum pricing.Money
	for _, ins := range schedule {
		sum += ins.Amount
	}
	return sum
}

// Outstanding returns the sum of unpaid installment amounts including
// accumulated penalties.
func Outstanding(schedule []Installment) pricing.Money {
	var sum pricing.Money
	for _, ins := range schedule {
		if ins.Paid {
			continue
		}
		sum += ins.Amount + ins.Penalty
	}
	return sum
}
