package plan

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a plan id does not exist.
var ErrNotFound = errors.New("plan not found")

const planColumns = `id::text, name, plan_type, duration_months, interest_rate_bps, active, created_at`

// Store persists the installment plan catalog.
type Store struct {
	Pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// Create inserts a plan and returns it with its assigned id.
func (s *Store) Create(ctx context.Context, p Plan) (Plan, error) {
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO plans (name, plan_type, duration_months, interest_rate_bps, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+planColumns,
		p.Name, string(p.PlanType), p.DurationMonths, p.InterestRateBps, p.Active,
	).Scan(&p.ID, &p.Name, &p.PlanType, &p.DurationMonths, &p.InterestRateBps, &p.Active, &p.CreatedAt)
	return p, err
}

// Get loads one plan by id.
func (s *Store) Get(ctx context.Context, id string) (Plan, error) {
	var p Plan
	err := s.Pool.QueryRow(ctx, `
		SELECT `+planColumns+` FROM plans WHERE id = $1::uuid`, id,
	).Scan(&p.ID, &p.Name, &p.PlanType, &p.DurationMonths, &p.InterestRateBps, &p.Active, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Plan{}, ErrNotFound
	}
	return p, err
}

// ListActive returns plans shoppers can currently pick at checkout.
func (s *Store) ListActive(ctx context.Context) ([]Plan, error) {
	return s.list(ctx, `SELECT `+planColumns+` FROM plans WHERE active ORDER BY duration_months, name`)
}

// ListAll returns every plan, active or not, for the admin catalog.
func (s *Store) ListAll(ctx context.Context) ([]Plan, error) {
	return s.list(ctx, `SELECT `+planColumns+` FROM plans ORDER BY created_at DESC`)
}

func (s *Store) list(ctx context.Context, query string) ([]Plan, error) {
	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Plan, 0)
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.PlanType, &p.DurationMonths, &p.InterestRateBps, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of a plan.
func (s *Store) Update(ctx context.Context, p Plan) (Plan, error) {
	err := s.Pool.QueryRow(ctx, `
		UPDATE plans
		SET name = $2, plan_type = $3, duration_months = $4, interest_rate_bps = $5, active = $6
		WHERE id = $1::uuid
		RETURNING `+planColumns,
		p.ID, p.Name, string(p.PlanType), p.DurationMonths, p.InterestRateBps, p.Active,
	).Scan(&p.ID, &p.Name, &p.PlanType, &p.DurationMonths, &p.InterestRateBps, &p.Active, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Plan{}, ErrNotFound
	}
	return p, err
}

// Deactivate hides a plan from new checkouts. Existing orders keep the plan
// snapshot they were created with.
func (s *Store) Deactivate(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE plans SET active = false WHERE id = $1::uuid`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
