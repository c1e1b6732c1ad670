package cart

import (
	"time"

	"github.com/technest-ghazi/backend-bnpl/internal/order"
	"github.com/technest-ghazi/backend-bnpl/internal/pricing"
)

// Item is one line in a user's cart. Method records how the shopper chose
// to pay for this product; PlanID is set only for installment methods.
type Item struct {
	ID        string              `json:"id"`
	ProductID string              `json:"productId"`
	Title     string              `json:"title"`
	UnitPrice pricing.Money       `json:"unitPrice"`
	Quantity  int32               `json:"quantity"`
	Method    order.PaymentMethod `json:"paymentMethod"`
	PlanID    string              `json:"planId,omitempty"`
	AddedAt   time.Time           `json:"addedAt"`
}

// Cart is a user's open cart with its current line items.
type Cart struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Items  []Item `json:"items"`
}

// Subtotal is the cart total before any installment math.
func (c Cart) Subtotal() pricing.Money {
	items := make([]pricing.Item, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, pricing.Item{Qty: int(it.Quantity), UnitPrice: it.UnitPrice})
	}
	return pricing.Subtotal(items)
}
