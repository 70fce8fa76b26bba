// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store holds the dashboard's own PostgreSQL-backed records. Forms,
// categories and users live in the SafeCheck backend; this package only
// keeps the audit trail of dashboard actions and admin 2FA secrets.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Audit actions.
const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionActivate   = "activate"
	ActionDeactivate = "deactivate"
	ActionLogin      = "login"
)

// AuditEntry is one recorded dashboard action.
type AuditEntry struct {
	ID         int64
	ActorID    string
	ActorEmail string
	Action     string
	EntityType string
	EntityID   string
	Detail     string
	CreatedAt  time.Time
}

// AuditStore handles audit log operations.
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

// Log records an action. Failures are logged and otherwise ignored.
func (s *AuditStore) Log(e AuditEntry) {
	_, err := s.db.Exec(`
		INSERT INTO audit_log (actor_id, actor_email, action, entity_type, entity_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ActorID, e.ActorEmail, e.Action, e.EntityType, e.EntityID, e.Detail)
	if err != nil {
		slog.Warn("failed to write audit entry",
			"action", e.Action,
			"entity_type", e.EntityType,
			"entity_id", e.EntityID,
			"error", err,
		)
		return
	}
	slog.Debug("audit entry written",
		"action", e.Action,
		"entity_type", e.EntityType,
		"entity_id", e.EntityID,
	)
}

// Recent returns the most recent entries, newest first.
func (s *AuditStore) Recent(limit int) ([]AuditEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, actor_id, actor_email, action, entity_type, entity_id, detail, created_at
		FROM audit_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorEmail, &e.Action, &e.EntityType, &e.EntityID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
