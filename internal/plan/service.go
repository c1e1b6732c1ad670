package plan

import (
	"context"
	"net/http"

	"github.com/technest-ghazi/backend-bnpl/internal/common"
)

// Service validates plan catalog changes on top of the store.
type Service struct {
	Store     *Store
	MaxMonths int32
}

func NewService(store *Store, maxMonths int32) *Service {
	if maxMonths <= 0 {
		maxMonths = 60
	}
	return &Service{Store: store, MaxMonths: maxMonths}
}

func (s *Service) validate(p Plan) error {
	if !p.PlanType.Valid() {
		return common.NewAppError("VALIDATION", "unknown plan type", http.StatusBadRequest, nil)
	}
	if p.DurationMonths < 1 || p.DurationMonths > int(s.MaxMonths) {
		return common.NewAppError("VALIDATION", "duration out of range", http.StatusBadRequest, nil)
	}
	if p.InterestRateBps < 0 {
		return common.NewAppError("VALIDATION", "interest rate must not be negative", http.StatusBadRequest, nil)
	}
	return nil
}

// Create adds a new plan to the catalog.
func (s *Service) Create(ctx context.Context, p Plan) (Plan, error) {
	if err := s.validate(p); err != nil {
		return Plan{}, err
	}
	return s.Store.Create(ctx, p)
}

// Update replaces a plan's mutable fields.
func (s *Service) Update(ctx context.Context, p Plan) (Plan, error) {
	if err := s.validate(p); err != nil {
		return Plan{}, err
	}
	return s.Store.Update(ctx, p)
}

// ResolveForCheckout loads a plan and confirms a shopper may attach it to a
// cart line: it must exist, be active, and match the requested plan type.
func (s *Service) ResolveForCheckout(ctx context.Context, id string, wantType Type) (Plan, error) {
	p, err := s.Store.Get(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return Plan{}, common.NewAppError("PLAN_NOT_FOUND", "installment plan not found", http.StatusNotFound, err)
		}
		return Plan{}, err
	}
	if !p.Active {
		return Plan{}, common.NewAppError("PLAN_INACTIVE", "installment plan is no longer offered", http.StatusConflict, nil)
	}
	if p.PlanType != wantType {
		return Plan{}, common.NewAppError("PLAN_TYPE_MISMATCH", "plan type does not match the chosen payment method", http.StatusBadRequest, nil)
	}
	return p, nil
}
