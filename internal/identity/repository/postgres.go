package repository

import (
	"context"
	"database/sql"
	"fmt"

	auditdomain "casas-auth/internal/audit/domain"
	auditrepo "casas-auth/internal/audit/repository"
	"casas-auth/internal/db"
	revocationdomain "casas-auth/internal/revocation/domain"
	revocationrepo "casas-auth/internal/revocation/repository"
)

// PostgresRecorder writes logouts in a single transaction.
type PostgresRecorder struct {
	db *sql.DB
}

// NewPostgresRecorder returns a LogoutRecorder backed by logout_events and token_revocations.
func NewPostgresRecorder(conn *sql.DB) *PostgresRecorder {
	return &PostgresRecorder{db: conn}
}

// RecordLogout appends the event and inserts the entry in one transaction. A conflicting token
// still commits the event.
func (r *PostgresRecorder) RecordLogout(ctx context.Context, ev *auditdomain.LogoutEvent, entry *revocationdomain.Entry) (bool, error) {
	var inserted bool
	err := db.InTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := auditrepo.NewPostgresRepository(tx).Create(ctx, ev); err != nil {
			return fmt.Errorf("append logout event: %w", err)
		}
		ok, err := revocationrepo.NewPostgresRepository(tx).Insert(ctx, entry)
		if err != nil {
			return fmt.Errorf("insert revocation: %w", err)
		}
		inserted = ok
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}
