package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/shopcore/backend/domain"
	"github.com/shopcore/backend/repository"
)

type userRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger *zap.Logger) repository.UserRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &userRepository{pool: pool, logger: logger}
}

const userColumns = `id, username, email, password_hash, first_name, last_name,
	COALESCE(phone, ''), is_active, last_login_at, created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, login))
}

func (r *userRepository) Create(ctx context.Context, nu repository.NewUser) (*domain.User, error) {
	user := nu.User
	if user == nil || nu.RoleName == "" {
		return nil, domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodePersistence, "begin registration", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertUser = `
	INSERT INTO users (id, username, email, password_hash, first_name, last_name, phone, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
	RETURNING created_at, updated_at
	`
	if err := tx.QueryRow(ctx, insertUser,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		nullString(user.Phone),
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateAccount
		}
		return nil, domain.WrapError(domain.ErrCodePersistence, "insert user", err)
	}
	user.IsActive = true

	var roleID int64
	if err := tx.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, nu.RoleName).Scan(&roleID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, domain.WrapError(domain.ErrCodePersistence, "lookup role", err)
	}

	const assignRole = `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`
	if _, err := tx.Exec(ctx, assignRole, user.ID, roleID); err != nil {
		return nil, domain.WrapError(domain.ErrCodePersistence, "assign role", err)
	}

	if nu.RoleName == domain.RoleCustomer {
		if err := r.initLoyalty(ctx, tx, user.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.WrapError(domain.ErrCodePersistence, "commit registration", err)
	}
	return user, nil
}

// initLoyalty seeds the Bronze record inside the registration transaction. A
// missing Bronze tier skips the step with a warning instead of failing the
// signup; the seed migration makes that state unreachable in practice.
func (r *userRepository) initLoyalty(ctx context.Context, tx pgx.Tx, userID string) error {
	var tierID int64
	err := tx.QueryRow(ctx, `SELECT id FROM loyalty_tiers WHERE name = $1`, domain.TierBronze).Scan(&tierID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("loyalty tier seed row missing, skipping loyalty init",
				zap.String("tier", domain.TierBronze),
				zap.String("user_id", userID))
			return nil
		}
		return domain.WrapError(domain.ErrCodePersistence, "lookup loyalty tier", err)
	}

	const insertLoyalty = `
	INSERT INTO customer_loyalty (user_id, tier_id, current_points, lifetime_points)
	VALUES ($1, $2, 0, 0)
	`
	if _, err := tx.Exec(ctx, insertLoyalty, userID, tierID); err != nil {
		return domain.WrapError(domain.ErrCodePersistence, "init loyalty", err)
	}
	return nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET last_login_at = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, at)
	return err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.IsActive,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
