package store

import (
	"context"

	"github.com/google/uuid"
)

// GetAdminByUsername returns the admin account with the given username.
func (s *Store) GetAdminByUsername(ctx context.Context, username string) (AdminUser, error) {
	const q = `SELECT id, username, password_hash FROM admin_users WHERE username = $1`
	var a AdminUser
	err := s.db.QueryRow(ctx, q, username).Scan(&a.ID, &a.Username, &a.PasswordHash)
	return a, err
}

// GetAdminByID returns the admin account with the given id.
func (s *Store) GetAdminByID(ctx context.Context, id uuid.UUID) (AdminUser, error) {
	const q = `SELECT id, username, password_hash FROM admin_users WHERE id = $1`
	var a AdminUser
	err := s.db.QueryRow(ctx, q, id).Scan(&a.ID, &a.Username, &a.PasswordHash)
	return a, err
}

// CreateAdmin inserts a new admin account.
func (s *Store) CreateAdmin(ctx context.Context, username, passwordHash string) (AdminUser, error) {
	const q = `
		INSERT INTO admin_users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash`
	var a AdminUser
	err := s.db.QueryRow(ctx, q, username, passwordHash).Scan(&a.ID, &a.Username, &a.PasswordHash)
	return a, err
}
