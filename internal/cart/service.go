package cart

import (
	"context"
	"errors"
	"net/http"

	"github.com/technest-ghazi/backend-bnpl/internal/catalog"
	"github.com/technest-ghazi/backend-bnpl/internal/common"
	"github.com/technest-ghazi/backend-bnpl/internal/order"
	"github.com/technest-ghazi/backend-bnpl/internal/plan"
)

type productResolver interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
}

type planResolver interface {
	ResolveForCheckout(ctx context.Context, id string, wantType plan.Type) (plan.Plan, error)
}

// Service applies cart rules on top of the store: products must exist and be
// in stock, and installment methods must carry a matching plan.
type Service struct {
	Store    *Store
	Products productResolver
	Plans    planResolver
}

func NewService(store *Store, products productResolver, plans planResolver) *Service {
	return &Service{Store: store, Products: products, Plans: plans}
}

// AddInput is one add-to-cart request.
type AddInput struct {
	ProductID string
	Quantity  int32
	Method    order.PaymentMethod
	PlanID    string
}

// Add validates and inserts a cart line for the user.
func (s *Service) Add(ctx context.Context, userID string, in AddInput) (Cart, error) {
	if in.Quantity < 1 {
		return Cart{}, common.NewAppError("VALIDATION", "quantity must be at least 1", http.StatusBadRequest, nil)
	}

	switch in.Method {
	case order.MethodCOD:
		if in.PlanID != "" {
			return Cart{}, common.NewAppError("VALIDATION", "cash on delivery lines do not take a plan", http.StatusBadRequest, nil)
		}
	case order.MethodBNPL:
		if _, err := s.resolvePlan(ctx, in.PlanID, plan.TypeInstallment); err != nil {
			return Cart{}, err
		}
	case order.MethodFixedDuration:
		if _, err := s.resolvePlan(ctx, in.PlanID, plan.TypeFixedDuration); err != nil {
			return Cart{}, err
		}
	default:
		return Cart{}, common.NewAppError("VALIDATION", "unknown payment method", http.StatusBadRequest, nil)
	}

	product, err := s.Products.Get(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Cart{}, common.NewAppError("PRODUCT_NOT_FOUND", "product not found", http.StatusNotFound, err)
		}
		return Cart{}, err
	}
	if !product.Active {
		return Cart{}, common.NewAppError("PRODUCT_INACTIVE", "product is not available", http.StatusConflict, nil)
	}
	if product.Stock < in.Quantity {
		return Cart{}, common.NewAppError("OUT_OF_STOCK", "not enough stock for the requested quantity", http.StatusConflict, nil)
	}

	cartID, err := s.Store.Ensure(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	if err := s.Store.AddItem(ctx, cartID, in.ProductID, in.Quantity, in.Method, in.PlanID); err != nil {
		return Cart{}, err
	}
	return s.Store.Get(ctx, userID)
}

func (s *Service) resolvePlan(ctx context.Context, planID string, want plan.Type) (plan.Plan, error) {
	if planID == "" {
		return plan.Plan{}, common.NewAppError("VALIDATION", "installment methods require a plan", http.StatusBadRequest, nil)
	}
	return s.Plans.ResolveForCheckout(ctx, planID, want)
}

// UpdateQuantity changes the quantity on one line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int32) (Cart, error) {
	if quantity < 1 {
		return Cart{}, common.NewAppError("VALIDATION", "quantity must be at least 1", http.StatusBadRequest, nil)
	}
	cartID, err := s.Store.Ensure(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	if err := s.Store.UpdateItemQuantity(ctx, cartID, itemID, quantity); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return Cart{}, common.NewAppError("NOT_FOUND", "cart item not found", http.StatusNotFound, err)
		}
		return Cart{}, err
	}
	return s.Store.Get(ctx, userID)
}

// Remove deletes one line.
func (s *Service) Remove(ctx context.Context, userID, itemID string) (Cart, error) {
	cartID, err := s.Store.Ensure(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	if err := s.Store.RemoveItem(ctx, cartID, itemID); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return Cart{}, common.NewAppError("NOT_FOUND", "cart item not found", http.StatusNotFound, err)
		}
		return Cart{}, err
	}
	return s.Store.Get(ctx, userID)
}

// LineItems resolves the cart into order line items with plan snapshots,
// ready for checkout composition.
func (s *Service) LineItems(ctx context.Context, c Cart) ([]order.LineItem, error) {
	items := make([]order.LineItem, 0, len(c.Items))
	for _, it := range c.Items {
		li := order.LineItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			UnitPrice: it.UnitPrice,
			Quantity:  int(it.Quantity),
			Method:    it.Method,
		}
		if it.PlanID != "" {
			want := plan.TypeInstallment
			if it.Method == order.MethodFixedDuration {
				want = plan.TypeFixedDuration
			}
			p, err := s.Plans.ResolveForCheckout(ctx, it.PlanID, want)
			if err != nil {
				return nil, err
			}
			li.Plan = &p
		}
		items = append(items, li)
	}
	return items, nil
}
