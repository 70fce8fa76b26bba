// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// TOTP is an admin's second-factor enrollment.
type TOTP struct {
	UserID  string
	Email   string
	Secret  string
	Enabled bool
}

// TOTPStore handles admin_totp operations.
type TOTPStore struct {
	db *sql.DB
}

// NewTOTPStore creates a new TOTPStore.
func NewTOTPStore(db *sql.DB) *TOTPStore {
	return &TOTPStore{db: db}
}

// Get returns the enrollment for userID, or nil if none exists.
func (s *TOTPStore) Get(userID string) (*TOTP, error) {
	var t TOTP
	err := s.db.QueryRow(`
		SELECT user_id, email, secret, enabled
		FROM admin_totp WHERE user_id = $1
	`, userID).Scan(&t.UserID, &t.Email, &t.Secret, &t.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get totp: %w", err)
	}
	return &t, nil
}

// SetSecret stores a new, not yet enabled secret for userID, replacing any
// previous enrollment.
func (s *TOTPStore) SetSecret(userID, email, secret string) error {
	_, err := s.db.Exec(`
		INSERT INTO admin_totp (user_id, email, secret, enabled)
		VALUES ($1, $2, $3, FALSE)
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email, secret = EXCLUDED.secret, enabled = FALSE, updated_at = NOW()
	`, userID, email, secret)
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	return nil
}

// Enable marks the enrollment as confirmed.
func (s *TOTPStore) Enable(userID string) error {
	res, err := s.db.Exec(`
		UPDATE admin_totp SET enabled = TRUE, updated_at = NOW() WHERE user_id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("enable totp: no secret for user %s", userID)
	}
	return nil
}

// Reset removes the enrollment so the admin sets up 2FA again.
func (s *TOTPStore) Reset(userID string) error {
	if _, err := s.db.Exec(`DELETE FROM admin_totp WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("reset totp: %w", err)
	}
	return nil
}
