package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/technest-ghazi/backend-bnpl/internal/installment"
	"github.com/technest-ghazi/backend-bnpl/internal/pricing"
)

// ErrNotFound indicates the requested order could not be located.
var ErrNotFound = errors.New("order not found")

// Store persists orders in Postgres. Line items, the installment schedule,
// and the fixed-duration component are stored as JSONB document columns:
// they are written once at checkout and read back whole, so relational
// decomposition buys nothing.
type Store struct {
	Pool *pgxpool.Pool
}

const orderColumns = `id::text, user_id::text, customer_name, items, subtotal, grand_total,
	cod_amount, bnpl_amount, payment_method, payment_status, installments,
	fixed_due_date, fixed_amount_due, first_installment_preference, currency,
	created_at, updated_at`

// Create durably stores a composed order and returns it with the assigned
// identity and timestamps.
func (s *Store) Create(ctx context.Context, o Order) (Order, error) {
	if s == nil || s.Pool == nil {
		return Order{}, errors.New("order store not configured")
	}
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return Order{}, fmt.Errorf("encode order items: %w", err)
	}
	var installmentsJSON []byte
	if len(o.Installments) > 0 {
		installmentsJSON, err = json.Marshal(o.Installments)
		if err != nil {
			return Order{}, fmt.Errorf("encode installments: %w", err)
		}
	}
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO orders (
			user_id, customer_name, items, subtotal, grand_total, cod_amount,
			bnpl_amount, payment_method, payment_status, installments,
			fixed_due_date, fixed_amount_due, first_installment_preference, currency
		) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+orderColumns,
		o.UserID, o.CustomerName, itemsJSON, o.Subtotal, o.GrandTotal, o.CODAmount,
		o.BNPLAmount, string(o.Method), string(o.Status), installmentsJSON,
		o.FixedDurationDueDate, o.FixedDurationAmountDue, preferenceValue(o.Preference), o.Currency,
	)
	return scanOrder(row)
}

// HasIncompleteBNPL reports whether the user has any order in a state that
// blocks a new BNPL checkout.
func (s *Store) HasIncompleteBNPL(ctx context.Context, userID string) (bool, error) {
	if s == nil || s.Pool == nil {
		return false, errors.New("order store not configured")
	}
	statuses := IncompleteStatuses()
	values := make([]string, 0, len(statuses))
	for _, st := range statuses {
		values = append(values, string(st))
	}
	var exists bool
	err := s.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE user_id = $1::uuid AND payment_status = ANY($2)
		)`, userID, values).Scan(&exists)
	return exists, err
}

// GetForUser loads an order scoped to its owner.
func (s *Store) GetForUser(ctx context.Context, id, userID string) (Order, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE id = $1::uuid AND user_id = $2::uuid`, id, userID)
	return scanOrder(row)
}

// ListForUser returns the user's orders, newest first.
func (s *Store) ListForUser(ctx context.Context, userID string, limit, offset int32) ([]Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1::uuid
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

// CountForUser returns the total number of orders the user owns.
func (s *Store) CountForUser(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1::uuid`, userID).Scan(&total)
	return total, err
}

// List returns orders across all users, optionally narrowed by status.
// Used by the admin back-office.
func (s *Store) List(ctx context.Context, status *string, limit, offset int32) ([]Order, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status != nil && *status != "" {
		rows, err = s.Pool.Query(ctx, `
			SELECT `+orderColumns+` FROM orders
			WHERE payment_status = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`, *status, limit, offset)
	} else {
		rows, err = s.Pool.Query(ctx, `
			SELECT `+orderColumns+` FROM orders
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

// Get loads an order by id regardless of owner.
func (s *Store) Get(ctx context.Context, id string) (Order, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1::uuid`, id)
	return scanOrder(row)
}

// UpdatePreference applies the user's first-installment choice. The update
// only succeeds while the order is still in Pending Choice, making the
// two-phase create-then-patch write idempotent against double submission.
func (s *Store) UpdatePreference(ctx context.Context, id, userID string, pref Preference) (Order, error) {
	row := s.Pool.QueryRow(ctx, `
		UPDATE orders
		SET first_installment_preference = $3, updated_at = now()
		WHERE id = $1::uuid AND user_id = $2::uuid
		  AND first_installment_preference = $4
		RETURNING `+orderColumns,
		id, userID, string(pref), string(PreferencePendingChoice))
	return scanOrder(row)
}

// UpdateStatus transitions the overall payment status.
func (s *Store) UpdateStatus(ctx context.Context, id string, status PaymentStatus) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE orders SET payment_status = $2, updated_at = now()
		WHERE id = $1::uuid`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveInstallments rewrites the installment schedule and overall status in
// one statement, used by payment recording and the overdue scanner.
func (s *Store) SaveInstallments(ctx context.Context, id string, schedule []installment.Installment, status PaymentStatus) error {
	data, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("encode installments: %w", err)
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE orders SET installments = $2, payment_status = $3, updated_at = now()
		WHERE id = $1::uuid`, id, data, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOpenInstallmentOrders returns orders that still carry unpaid
// installments, for the overdue scanner.
func (s *Store) ListOpenInstallmentOrders(ctx context.Context, limit int32) ([]Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE installments IS NOT NULL
		  AND payment_status = ANY($1)
		ORDER BY created_at ASC
		LIMIT $2`,
		[]string{
			string(StatusUnpaidBNPL), string(StatusMixedPending),
			string(StatusPartiallyPaid), string(StatusPendingFirstInstallment),
			string(StatusOverdue),
		}, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func preferenceValue(p *Preference) *string {
	if p == nil {
		return nil
	}
	v := string(*p)
	return &v
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	out := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var (
		o                Order
		itemsJSON        []byte
		installmentsJSON []byte
		method, status   string
		pref             *string
		fixedDue         *time.Time
		fixedAmount      *int64
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.CustomerName, &itemsJSON, &o.Subtotal, &o.GrandTotal,
		&o.CODAmount, &o.BNPLAmount, &method, &status, &installmentsJSON,
		&fixedDue, &fixedAmount, &pref, &o.Currency, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	o.Method = PaymentMethod(method)
	o.Status = PaymentStatus(status)
	o.FixedDurationDueDate = fixedDue
	if fixedAmount != nil {
		amount := pricing.Money(*fixedAmount)
		o.FixedDurationAmountDue = &amount
	}
	if pref != nil {
		p := Preference(*pref)
		o.Preference = &p
	}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return Order{}, fmt.Errorf("decode order items: %w", err)
		}
	}
	if len(installmentsJSON) > 0 {
		if err := json.Unmarshal(installmentsJSON, &o.Installments); err != nil {
			return Order{}, fmt.Errorf("decode installments: %w", err)
		}
	}
	return o, nil
}
