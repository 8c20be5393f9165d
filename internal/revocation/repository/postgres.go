package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"casas-auth/internal/db"
	"casas-auth/internal/revocation/domain"
)

const (
	existsSQL = `SELECT 1 FROM token_revocations WHERE token = $1`
	insertSQL = `INSERT INTO token_revocations (token, owner_id, expires_at, reason, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (token) DO NOTHING`
	deleteExpiredSQL = `DELETE FROM token_revocations WHERE expires_at < $1`
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a revocation repository backed by the token_revocations table.
// Pass a *sql.Tx to run inside a transaction.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Exists reports whether token is revoked. It returns an error only for database failures.
func (r *PostgresRepository) Exists(ctx context.Context, token string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, existsSQL, token).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Insert stores e. A conflicting token leaves the existing row untouched and reports inserted=false.
func (r *PostgresRepository) Insert(ctx context.Context, e *domain.Entry) (bool, error) {
	reason := e.Reason
	if reason == "" {
		reason = domain.ReasonLogout
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, insertSQL, e.Token, e.OwnerID, e.ExpiresAt.UTC(), reason, createdAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteExpired removes entries with expires_at < before.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteExpiredSQL, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
