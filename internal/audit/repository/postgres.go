package repository

import (
	"context"
	"database/sql"

	"casas-auth/internal/audit/domain"
	"casas-auth/internal/db"
)

const createEventSQL = `INSERT INTO logout_events (id, owner_id, token, token_expires_at, ip_address, user_agent, logged_out_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a logout event repository. Pass a *sql.Tx to write inside a transaction.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create persists e. The event must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.LogoutEvent) error {
	ip := sql.NullString{String: e.ClientIP, Valid: e.ClientIP != ""}
	ua := sql.NullString{String: e.UserAgent, Valid: e.UserAgent != ""}
	_, err := r.db.ExecContext(ctx, createEventSQL, e.ID, e.OwnerID, e.Token, e.TokenExpiresAt, ip, ua, e.LoggedOutAt)
	return err
}
