package checkout

import (
	"time"

	"github.com/technest-ghazi/backend-bnpl/internal/installment"
	"github.com/technest-ghazi/backend-bnpl/internal/order"
	"github.com/technest-ghazi/backend-bnpl/internal/plan"
	"github.com/technest-ghazi/backend-bnpl/internal/pricing"
)

// Compose assembles the pre-persistence order record for a cart. It is a
// pure single-pass computation: identity, persistence, and notification are
// the service's concern. orderDate must be captured once by the caller and
// threaded through so that the installment schedule and fixed-duration due
// date stay mutually consistent.
//
// grandTotal may carry upstream adjustments (tax, delivery); when it is not
// positive the items subtotal is used.
//
// When a cart mixes several different BNPL plans only the first one found
// governs the order's BNPL branch. That single-representative behavior is a
// known limitation carried over from the storefront and must not be
// "fixed" here without a product decision.
func Compose(items []order.LineItem, orderDate time.Time, grandTotal pricing.Money) order.Order {
	var (
		codSubtotal  pricing.Money
		bnplSubtotal pricing.Money
		rep          *plan.Plan
		sawCOD       bool
		sawBNPL      bool
	)
	for _, it := range items {
		switch {
		case it.Method == order.MethodCOD:
			sawCOD = true
			codSubtotal += it.Subtotal()
		case (it.Method == order.MethodBNPL || it.Method == order.MethodFixedDuration) && it.Plan != nil:
			sawBNPL = true
			bnplSubtotal += it.Subtotal()
			if rep == nil {
				p := *it.Plan
				rep = &p
			}
		}
	}

	subtotal := codSubtotal + bnplSubtotal
	if grandTotal <= 0 {
		grandTotal = subtotal
	}

	out := order.Order{
		Items:      snapshotItems(items),
		Subtotal:   subtotal,
		GrandTotal: grandTotal,
		CODAmount:  codSubtotal,
		BNPLAmount: bnplSubtotal,
	}

	switch {
	case sawCOD && sawBNPL:
		out.Method = order.MethodMixed
	case sawBNPL:
		if rep != nil && rep.PlanType == plan.TypeFixedDuration {
			out.Method = order.MethodFixedDuration
		} else {
			out.Method = order.MethodBNPL
		}
	case sawCOD:
		out.Method = order.MethodCOD
	default:
		out.Method = order.MethodUnknown
	}

	switch {
	case rep == nil:
		if sawCOD {
			out.Status = order.StatusUnpaidCOD
		} else {
			// Nothing classifiable. Flag for manual follow-up rather than
			// guessing; money must never vanish into a silent default.
			out.Status = order.StatusPendingReview
		}
	case rep.DurationMonths <= 0 || bnplSubtotal <= 0:
		out.Status = order.StatusPendingReview
	case rep.PlanType == plan.TypeInstallment:
		out.Installments = installment.Schedule(bnplSubtotal, rep.DurationMonths, orderDate)
		out.Status = order.StatusUnpaidBNPL
		if sawCOD {
			out.Status = order.StatusMixedPending
		}
		pref := order.PreferencePendingChoice
		out.Preference = &pref
	case rep.PlanType == plan.TypeFixedDuration:
		due := installment.AddMonths(orderDate, rep.DurationMonths)
		out.FixedDurationDueDate = &due
		amountDue := bnplSubtotal
		out.FixedDurationAmountDue = &amountDue
		out.Status = order.StatusUnpaidFixedDuration
		if sawCOD {
			out.Status = order.StatusMixedPending
		}
	default:
		out.Status = order.StatusPendingReview
	}

	return out
}

func snapshotItems(items []order.LineItem) []order.LineItem {
	out := make([]order.LineItem, len(items))
	copy(out, items)
	for i := range out {
		if out[i].Plan != nil {
			p := *out[i].Plan
			out[i].Plan = &p
		}
	}
	return out
}
