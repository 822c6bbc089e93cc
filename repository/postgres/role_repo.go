package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopcore/backend/repository"
)

type roleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository returns a Postgres-backed implementation of RoleRepository.
func NewRoleRepository(pool *pgxpool.Pool) repository.RoleRepository {
	return &roleRepository{pool: pool}
}

func (r *roleRepository) ListForUser(ctx context.Context, userID string) ([]string, error) {
	const query = `
	SELECT r.name
	FROM user_roles ur
	JOIN roles r ON r.id = ur.role_id
	WHERE ur.user_id = $1
	ORDER BY r.name
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *roleRepository) Assign(ctx context.Context, userID string, roleID int64) error {
	const query = `
	INSERT INTO user_roles (user_id, role_id)
	VALUES ($1, $2)
	ON CONFLICT (user_id, role_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, userID, roleID)
	return err
}

func (r *roleRepository) Revoke(ctx context.Context, userID string, roleID int64) error {
	const query = `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`
	_, err := r.pool.Exec(ctx, query, userID, roleID)
	return err
}
