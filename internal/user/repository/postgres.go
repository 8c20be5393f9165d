package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"casas-auth/internal/db"
	"casas-auth/internal/user/domain"
)

const userColumns = `id, ci, first_name, last_name, email, password_hash, address, roles, is_active, created_at`

const (
	getUserSQL        = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	createUserSQL     = `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	updateRolesSQL    = `UPDATE users SET roles = $2 WHERE id = $1 RETURNING ` + userColumns
	setActiveSQL      = `UPDATE users SET is_active = $2 WHERE id = $1 RETURNING ` + userColumns
	updateProfileSQL  = `UPDATE users SET first_name = COALESCE($2, first_name), last_name = COALESCE($3, last_name),
address = CASE WHEN $4::text IS NULL THEN address ELSE NULLIF($4::text, '') END
WHERE id = $1 RETURNING ` + userColumns
)

type PostgresRepository struct {
	db    db.DBTX
	types *pgtype.Map
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn, types: pgtype.NewMap()}
}

// GetByID returns the user for id, or nil if not found. An id that is not a UUID is not found.
// PasswordHash is not populated. It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !isUUID(id) {
		return nil, nil
	}
	u, err := r.scanUser(r.db.QueryRowContext(ctx, getUserSQL, id))
	if u != nil {
		u.PasswordHash = ""
	}
	return u, err
}

// GetByEmail returns the user with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, getUserByEmailSQL, domain.NormalizeEmail(email)))
}

// Create persists the user. The user must have ID and PasswordHash set; CreatedAt defaults to now.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	addr := sql.NullString{String: u.Address, Valid: u.Address != ""}
	_, err := r.db.ExecContext(ctx, createUserSQL,
		u.ID, u.CI, u.FirstName, u.LastName, domain.NormalizeEmail(u.Email), u.PasswordHash,
		addr, rolesToText(u.Roles), u.Active, u.CreatedAt)
	return err
}

// UpdateRoles replaces the role set of user id. Returns nil if no such user.
func (r *PostgresRepository) UpdateRoles(ctx context.Context, id string, roles []domain.Role) (*domain.User, error) {
	if !isUUID(id) {
		return nil, nil
	}
	u, err := r.scanUser(r.db.QueryRowContext(ctx, updateRolesSQL, id, rolesToText(roles)))
	if u != nil {
		u.PasswordHash = ""
	}
	return u, err
}

// UpdateProfile applies the set fields of p to user id. Returns nil if no such user.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, p domain.ProfileUpdate) (*domain.User, error) {
	if !isUUID(id) {
		return nil, nil
	}
	u, err := r.scanUser(r.db.QueryRowContext(ctx, updateProfileSQL, id,
		nullable(p.FirstName), nullable(p.LastName), nullable(p.Address)))
	if u != nil {
		u.PasswordHash = ""
	}
	return u, err
}

// SetActive sets is_active for user id. Returns nil if no such user.
func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	if !isUUID(id) {
		return nil, nil
	}
	u, err := r.scanUser(r.db.QueryRowContext(ctx, setActiveSQL, id, active))
	if u != nil {
		u.PasswordHash = ""
	}
	return u, err
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u     domain.User
		addr  sql.NullString
		roles []string
	)
	err := row.Scan(&u.ID, &u.CI, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&addr, r.types.SQLScanner(&roles), &u.Active, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Address = addr.String
	u.Roles = make([]domain.Role, len(roles))
	for i, s := range roles {
		u.Roles[i] = domain.Role(s)
	}
	return &u, nil
}

// isUUID reports whether id can be compared against the uuid primary key without a cast error.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func rolesToText(roles []domain.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
