package checkout

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/technest-ghazi/backend-bnpl/internal/cart"
	"github.com/technest-ghazi/backend-bnpl/internal/common"
	"github.com/technest-ghazi/backend-bnpl/internal/events"
	"github.com/technest-ghazi/backend-bnpl/internal/obs"
	"github.com/technest-ghazi/backend-bnpl/internal/order"
)

// Service turns a cart into a persisted order. It enforces the open
// obligation rule: a user with an unfinished installment order may not open
// another BNPL or fixed-duration order.
type Service struct {
	Orders   *order.Store
	Cart     *cart.Service
	Bus      *events.Bus
	Log      zerolog.Logger
	Currency string
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Input carries the checkout request fields beyond the cart itself.
type Input struct {
	CustomerName string
}

// Checkout composes and persists an order from the user's cart, then clears
// the cart. Event emission and cart clearing are best effort; the created
// order is returned even when they fail.
func (s *Service) Checkout(ctx context.Context, userID string, in Input) (order.Order, error) {
	c, err := s.Cart.Store.Get(ctx, userID)
	if err != nil {
		return order.Order{}, err
	}
	if len(c.Items) == 0 {
		return order.Order{}, common.NewAppError("EMPTY_CART", "cart is empty", http.StatusBadRequest, nil)
	}

	items, err := s.Cart.LineItems(ctx, c)
	if err != nil {
		return order.Order{}, err
	}

	if needsObligation(items) {
		blocked, err := s.Orders.HasIncompleteBNPL(ctx, userID)
		if err != nil {
			return order.Order{}, err
		}
		if blocked {
			return order.Order{}, common.NewAppError(
				"RESTRICTED",
				"finish paying your current installment order before starting a new one",
				http.StatusConflict, nil)
		}
	}

	o := Compose(items, s.now(), 0)
	o.UserID = userID
	o.CustomerName = in.CustomerName
	o.Currency = s.Currency

	created, err := s.Orders.Create(ctx, o)
	if err != nil {
		return order.Order{}, err
	}

	if obs.OrdersComposedTotal != nil {
		obs.OrdersComposedTotal.WithLabelValues(string(created.Method)).Inc()
	}
	if obs.InstallmentsGeneratedTotal != nil && len(created.Installments) > 0 {
		obs.InstallmentsGeneratedTotal.Add(float64(len(created.Installments)))
	}

	if s.Bus != nil {
		if _, err := s.Bus.Emit(ctx, events.TopicOrderCreated, created.ID, orderCreatedPayload(created)); err != nil {
			s.Log.Warn().Err(err).Str("order_id", created.ID).Msg("order created event emission failed")
		}
	}
	if err := s.Cart.Store.Clear(ctx, c.ID); err != nil {
		s.Log.Warn().Err(err).Str("cart_id", c.ID).Msg("cart clear after checkout failed")
	}

	return created, nil
}

func needsObligation(items []order.LineItem) bool {
	for _, it := range items {
		if it.Method == order.MethodBNPL || it.Method == order.MethodFixedDuration {
			return true
		}
	}
	return false
}

func orderCreatedPayload(o order.Order) map[string]any {
	return map[string]any{
		"orderId":              o.ID,
		"userId":               o.UserID,
		"customerName":         o.CustomerName,
		"overallPaymentMethod": o.Method,
		"overallPaymentStatus": o.Status,
		"grandTotal":           o.GrandTotal,
		"bnplAmount":           o.BNPLAmount,
		"installmentCount":     len(o.Installments),
	}
}
