package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/technest-ghazi/backend-bnpl/internal/order"
)

// ErrItemNotFound is returned when a cart line does not exist.
var ErrItemNotFound = errors.New("cart item not found")

// Store persists carts and their line items.
type Store struct {
	Pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// Ensure returns the user's cart id, creating the cart on first use.
func (s *Store) Ensure(ctx context.Context, userID string) (string, error) {
	var id string
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO carts (user_id)
		VALUES ($1::uuid)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id::text`, userID).Scan(&id)
	return id, err
}

// Get loads the user's cart with its items. A user that never added anything
// gets an empty cart back.
func (s *Store) Get(ctx context.Context, userID string) (Cart, error) {
	cartID, err := s.Ensure(ctx, userID)
	if err != nil {
		return Cart{}, err
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT ci.id::text, ci.product_id::text, p.title, p.price, ci.quantity,
		       ci.payment_method, COALESCE(ci.plan_id::text, ''), ci.added_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1::uuid
		ORDER BY ci.added_at`, cartID)
	if err != nil {
		return Cart{}, err
	}
	defer rows.Close()

	c := Cart{ID: cartID, UserID: userID, Items: make([]Item, 0)}
	for rows.Next() {
		var it Item
		var method string
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Title, &it.UnitPrice, &it.Quantity, &method, &it.PlanID, &it.AddedAt); err != nil {
			return Cart{}, err
		}
		it.Method = order.PaymentMethod(method)
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

// AddItem inserts a line, or bumps the quantity when the same product with
// the same payment choice is already present.
func (s *Store) AddItem(ctx context.Context, cartID, productID string, quantity int32, method order.PaymentMethod, planID string) error {
	var planArg any
	if planID != "" {
		planArg = planID
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity, payment_method, plan_id)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5::uuid)
		ON CONFLICT (cart_id, product_id, payment_method) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity,
		    plan_id = EXCLUDED.plan_id`,
		cartID, productID, quantity, string(method), planArg)
	return err
}

// UpdateItemQuantity sets the quantity on an existing line.
func (s *Store) UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int32) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE cart_items SET quantity = $3
		WHERE cart_id = $1::uuid AND id = $2::uuid`, cartID, itemID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// RemoveItem deletes a single line.
func (s *Store) RemoveItem(ctx context.Context, cartID, itemID string) error {
	tag, err := s.Pool.Exec(ctx, `
		DELETE FROM cart_items
		WHERE cart_id = $1::uuid AND id = $2::uuid`, cartID, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Clear drops every line from the cart. Used after a successful checkout.
func (s *Store) Clear(ctx context.Context, cartID string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1::uuid`, cartID)
	return err
}
