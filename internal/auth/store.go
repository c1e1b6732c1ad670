package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	errUserNotFound    = errors.New("auth: user not found")
	errSessionNotFound = errors.New("auth: session not found")
)

// userRecord is the persisted user row.
type userRecord struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// sessionRecord is one refresh token session.
type sessionRecord struct {
	ID        string
	UserID    string
	TokenHash string
	UserAgent string
	IP        string
	ExpiresAt time.Time
}

// Store persists users and refresh sessions.
type Store struct {
	Pool *pgxpool.Pool
}

func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash, role string) (userRecord, error) {
	var u userRecord
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, name, email, password_hash, role, created_at, updated_at`,
		name, email, passwordHash, role,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (userRecord, error) {
	var u userRecord
	err := s.Pool.QueryRow(ctx, `
		SELECT id::text, name, email, password_hash, role, created_at, updated_at
		FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return userRecord{}, errUserNotFound
	}
	return u, err
}

func (s *Store) GetUserByID(ctx context.Context, id string) (userRecord, error) {
	var u userRecord
	err := s.Pool.QueryRow(ctx, `
		SELECT id::text, name, email, password_hash, role, created_at, updated_at
		FROM users WHERE id = $1::uuid`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return userRecord{}, errUserNotFound
	}
	return u, err
}

func (s *Store) CreateSession(ctx context.Context, userID, tokenHash, userAgent, ip string, expiresAt time.Time) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO sessions (user_id, token_hash, user_agent, ip, expires_at)
		VALUES ($1::uuid, $2, $3, $4, $5)`,
		userID, tokenHash, userAgent, ip, expiresAt)
	return err
}

func (s *Store) GetSessionByToken(ctx context.Context, tokenHash string) (sessionRecord, error) {
	var sess sessionRecord
	err := s.Pool.QueryRow(ctx, `
		SELECT id::text, user_id::text, token_hash, user_agent, ip, expires_at
		FROM sessions WHERE token_hash = $1`, tokenHash,
	).Scan(&sess.ID, &sess.UserID, &sess.TokenHash, &sess.UserAgent, &sess.IP, &sess.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return sessionRecord{}, errSessionNotFound
	}
	return sess, err
}

func (s *Store) RotateSessionToken(ctx context.Context, sessionID, newTokenHash string, expiresAt time.Time) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE sessions SET token_hash = $2, expires_at = $3
		WHERE id = $1::uuid`, sessionID, newTokenHash, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errSessionNotFound
	}
	return nil
}

func (s *Store) DeleteSessionByToken(ctx context.Context, tokenHash string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	return err
}
