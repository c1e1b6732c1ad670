package plan

import "time"

// Type discriminates the two BNPL plan shapes.
type Type string

const (
	// TypeInstallment splits the financed amount into equal monthly payments.
	TypeInstallment Type = "Installment"
	// TypeFixedDuration defers the full financed amount to a single payment
	// due after the plan duration.
	TypeFixedDuration Type = "FixedDuration"
)

// Valid reports whether t is a known plan type.
func (t Type) Valid() bool {
	return t == TypeInstallment || t == TypeFixedDuration
}

// Plan describes a BNPL payment plan offered at checkout.
//
// InterestRateBps is informational only. The storefront advertises the rate
// but never applies it to the financed principal.
type Plan struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	PlanType        Type      `json:"planType"`
	DurationMonths  int       `json:"durationMonths"`
	InterestRateBps int32     `json:"interestRateBps"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
}
