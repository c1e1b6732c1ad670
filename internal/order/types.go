package order

import (
	"time"

	"github.com/technest-ghazi/backend-bnpl/internal/installment"
	"github.com/technest-ghazi/backend-bnpl/internal/plan"
	"github.com/technest-ghazi/backend-bnpl/internal/pricing"
)

// PaymentMethod classifies how a line item, or a whole order, is paid.
type PaymentMethod string

const (
	MethodCOD           PaymentMethod = "COD"
	MethodBNPL          PaymentMethod = "BNPL"
	MethodFixedDuration PaymentMethod = "FixedDuration"
	MethodMixed         PaymentMethod = "Mixed"
	MethodUnknown       PaymentMethod = "Unknown"
)

// PaymentStatus is the closed vocabulary of overall order payment states.
// The strings are load-bearing: the admin back-office and historical records
// use them verbatim.
type PaymentStatus string

const (
	StatusUnpaidCOD               PaymentStatus = "Unpaid (COD)"
	StatusUnpaidBNPL              PaymentStatus = "Unpaid (BNPL)"
	StatusUnpaidFixedDuration     PaymentStatus = "Unpaid (Fixed Duration)"
	StatusMixedPending            PaymentStatus = "Mixed (COD/BNPL Pending)"
	StatusPendingReview           PaymentStatus = "Pending Review"
	StatusPendingFirstInstallment PaymentStatus = "Pending First Installment"
	StatusPartiallyPaid           PaymentStatus = "Partially Paid"
	StatusOverdue                 PaymentStatus = "Overdue"
	StatusCompleted               PaymentStatus = "Completed"
)

// incompleteStatuses lists the states that block a user from opening another
// BNPL or fixed-duration order.
var incompleteStatuses = []PaymentStatus{
	StatusPartiallyPaid,
	StatusUnpaidFixedDuration,
	StatusOverdue,
	StatusUnpaidBNPL,
	StatusPendingFirstInstallment,
}

// IncompleteStatuses returns the set of statuses that count as an open BNPL
// obligation for the checkout restriction rule.
func IncompleteStatuses() []PaymentStatus {
	out := make([]PaymentStatus, len(incompleteStatuses))
	copy(out, incompleteStatuses)
	return out
}

// Incomplete reports whether the status blocks new BNPL checkouts.
func (s PaymentStatus) Incomplete() bool {
	for _, candidate := range incompleteStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Preference records the user's post-confirmation choice for the first
// installment. Orders start in Pending Choice and are patched once the user
// answers the prompt.
type Preference string

const (
	PreferencePendingChoice Preference = "Pending Choice"
	PreferencePayNow        Preference = "Pay Now"
	PreferencePayAtDelivery Preference = "Pay at Delivery"
)

// Valid reports whether p is an answer the preference endpoint accepts.
// Pending Choice is the initial state, not a valid answer.
func (p Preference) Valid() bool {
	return p == PreferencePayNow || p == PreferencePayAtDelivery
}

// LineItem is one product quantity-selection snapshotted into an order.
type LineItem struct {
	ProductID string        `json:"productId"`
	Title     string        `json:"title"`
	UnitPrice pricing.Money `json:"unitPrice"`
	Quantity  int           `json:"quantity"`
	Method    PaymentMethod `json:"paymentMethod"`
	Plan      *plan.Plan    `json:"plan,omitempty"`
}

// Subtotal returns the line total.
func (li LineItem) Subtotal() pricing.Money {
	if li.Quantity <= 0 {
		return 0
	}
	return pricing.Money(li.Quantity) * li.UnitPrice
}

// Order is the persisted aggregate produced by checkout. Identity is
// assigned by the store on creation. Items are immutable after creation;
// only the preference field and installment payment state mutate later.
type Order struct {
	ID                     string                    `json:"id"`
	UserID                 string                    `json:"userId"`
	CustomerName           string                    `json:"customerName"`
	Items                  []LineItem                `json:"items"`
	Subtotal               pricing.Money             `json:"subtotal"`
	GrandTotal             pricing.Money             `json:"grandTotal"`
	CODAmount              pricing.Money             `json:"codAmount"`
	BNPLAmount             pricing.Money             `json:"bnplAmount"`
	Method                 PaymentMethod             `json:"overallPaymentMethod"`
	Status                 PaymentStatus             `json:"overallPaymentStatus"`
	Installments           []installment.Installment `json:"installments,omitempty"`
	FixedDurationDueDate   *time.Time                `json:"fixedDurationDueDate,omitempty"`
	FixedDurationAmountDue *pricing.Money            `json:"fixedDurationAmountDue,omitempty"`
	Preference             *Preference               `json:"firstInstallmentPaymentPreference"`
	Currency               string                    `json:"currency"`
	CreatedAt              time.Time                 `json:"createdAt"`
	UpdatedAt              time.Time                 `json:"updatedAt"`
}

// HasBNPLComponent reports whether the order carries any deferred payment
// obligation (installment schedule or fixed-duration due date).
func (o Order) HasBNPLComponent() bool {
	return len(o.Installments) > 0 || o.FixedDurationDueDate != nil
}
