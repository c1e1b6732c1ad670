package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/technest-ghazi/backend-bnpl/internal/common"
	"github.com/technest-ghazi/backend-bnpl/internal/events"
	"github.com/technest-ghazi/backend-bnpl/internal/installment"
	"github.com/technest-ghazi/backend-bnpl/internal/obs"
	"github.com/technest-ghazi/backend-bnpl/internal/pricing"
)

// Service owns post-checkout order mutations: the deferred first-installment
// preference and installment payment recording.
type Service struct {
	Store  *Store
	Events *events.Bus
	Log    zerolog.Logger
	Now    func() time.Time
}

func (s *Service) emit(ctx context.Context, topic, orderID string, payload map[string]any) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(ctx, topic, orderID, payload); err != nil {
		s.Log.Warn().Err(err).Str("topic", topic).Str("order_id", orderID).Msg("event emission failed")
	}
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SetFirstInstallmentPreference records the user's answer to the
// post-confirmation prompt. Orders are created in Pending Choice and patched
// exactly once; a second answer is rejected.
func (s *Service) SetFirstInstallmentPreference(ctx context.Context, orderID, userID string, pref Preference) (Order, error) {
	if s == nil || s.Store == nil {
		return Order{}, errors.New("order service not configured")
	}
	if !pref.Valid() {
		return Order{}, common.NewAppError("VALIDATION", "preference must be Pay Now or Pay at Delivery", http.StatusBadRequest, nil)
	}
	current, err := s.Store.GetForUser(ctx, orderID, userID)
	if err != nil {
		return Order{}, err
	}
	if len(current.Installments) == 0 || current.Preference == nil {
		return Order{}, common.NewAppError("INVALID_STATE", "order has no pending installment preference", http.StatusConflict, nil)
	}
	if *current.Preference != PreferencePendingChoice {
		return Order{}, common.NewAppError("INVALID_STATE", "preference already recorded", http.StatusConflict, nil)
	}
	updated, err := s.Store.UpdatePreference(ctx, orderID, userID, pref)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Lost the race with another submission.
			return Order{}, common.NewAppError("INVALID_STATE", "preference already recorded", http.StatusConflict, nil)
		}
		return Order{}, err
	}
	if pref == PreferencePayNow && updated.Status.Incomplete() {
		// Paying the first installment up front parks the order until that
		// payment is recorded.
		if err := s.Store.UpdateStatus(ctx, updated.ID, StatusPendingFirstInstallment); err != nil {
			return Order{}, err
		}
		updated.Status = StatusPendingFirstInstallment
	}
	s.emit(ctx, events.TopicOrderPreferenceSet, updated.ID, map[string]any{
		"orderId":    updated.ID,
		"preference": string(pref),
		"status":     string(updated.Status),
	})
	return updated, nil
}

// RecordInstallmentPayment marks one installment paid and recomputes the
// overall status. Admin-only: customers never settle installments through
// the storefront API.
func (s *Service) RecordInstallmentPayment(ctx context.Context, orderID string, number int) (Order, error) {
	if s == nil || s.Store == nil {
		return Order{}, errors.New("order service not configured")
	}
	current, err := s.Store.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if len(current.Installments) == 0 {
		return Order{}, common.NewAppError("INVALID_STATE", "order has no installment schedule", http.StatusConflict, nil)
	}
	updated, err := ApplyPayment(current.Installments, number, s.now())
	if err != nil {
		switch {
		case errors.Is(err, ErrInstallmentNotFound):
			return Order{}, common.NewAppError("NOT_FOUND", fmt.Sprintf("installment %d not found", number), http.StatusNotFound, err)
		case errors.Is(err, ErrInstallmentAlreadyPaid):
			return Order{}, common.NewAppError("INVALID_STATE", fmt.Sprintf("installment %d already paid", number), http.StatusConflict, err)
		default:
			return Order{}, err
		}
	}
	status := RecomputeStatus(current.Status, updated)
	if err := s.Store.SaveInstallments(ctx, orderID, updated, status); err != nil {
		return Order{}, err
	}
	if obs.InstallmentPaymentsTotal != nil {
		obs.InstallmentPaymentsTotal.WithLabelValues(string(status)).Inc()
	}
	current.Installments = updated
	current.Status = status
	s.emit(ctx, events.TopicInstallmentPaid, current.ID, map[string]any{
		"orderId":           current.ID,
		"installmentNumber": number,
		"status":            string(status),
	})
	if status == StatusCompleted {
		s.emit(ctx, events.TopicOrderCompleted, current.ID, map[string]any{
			"orderId": current.ID,
		})
	}
	return current, nil
}

// ScanOverdue walks open installment orders, flags past-due installments,
// applies the flat penalty, and transitions orders to Overdue. It returns
// the number of orders changed.
func (s *Service) ScanOverdue(ctx context.Context, penalty pricing.Money, batch int32) (int, error) {
	if s == nil || s.Store == nil {
		return 0, errors.New("order service not configured")
	}
	if batch <= 0 {
		batch = 200
	}
	orders, err := s.Store.ListOpenInstallmentOrders(ctx, batch)
	if err != nil {
		return 0, err
	}
	now := s.now()
	changed := 0
	for _, o := range orders {
		updated, dirty := FlagOverdue(o.Installments, now, penalty)
		if !dirty {
			continue
		}
		status := RecomputeStatus(o.Status, updated)
		if err := s.Store.SaveInstallments(ctx, o.ID, updated, status); err != nil {
			return changed, err
		}
		flagged := newlyOverdue(o.Installments, updated)
		if obs.OverdueFlaggedTotal != nil {
			obs.OverdueFlaggedTotal.Add(float64(flagged))
		}
		s.emit(ctx, events.TopicInstallmentOverdue, o.ID, map[string]any{
			"orderId":      o.ID,
			"status":       string(status),
			"overdueCount": flagged,
		})
		changed++
	}
	return changed, nil
}

func newlyOverdue(before, after []installment.Installment) int {
	n := 0
	for i := range after {
		if after[i].Status == installment.StatusOverdue && before[i].Status != installment.StatusOverdue {
			n++
		}
	}
	return n
}
