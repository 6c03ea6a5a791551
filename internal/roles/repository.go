package roles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-admin/atrium/internal/platform/db"
	"github.com/atrium-admin/atrium/internal/platform/httpx"
)

// RepositoryPort defines data access for role management.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]RoleDefinition, error)
	GetRole(ctx context.Context, id int64) (RoleDefinition, error)
	CreateRole(ctx context.Context, name, description string, payload json.RawMessage) (RoleDefinition, error)
	UpdateRole(ctx context.Context, id int64, name, description string, payload json.RawMessage) (RoleDefinition, error)
	DeactivateRole(ctx context.Context, id int64) error
	AssignRole(ctx context.Context, userID, roleID, assignedBy int64) error
	RevokeRole(ctx context.Context, userID, roleID int64) error
	ListAssigneeIDs(ctx context.Context, roleID int64) ([]int64, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const uniqueViolation = "23505"

const roleColumns = `id, name, description, permission_payload, is_active, created_at, updated_at`

// ListRoles returns all active roles.
func (r *Repository) ListRoles(ctx context.Context) ([]RoleDefinition, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("roles: list: %w", err)
	}
	defer rows.Close()

	var defs []RoleDefinition
	for rows.Next() {
		def, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roles: list: %w", err)
	}
	return defs, nil
}

// GetRole fetches a role by id.
func (r *Repository) GetRole(ctx context.Context, id int64) (RoleDefinition, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	def, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleDefinition{}, httpx.ErrNotFound
		}
		return RoleDefinition{}, err
	}
	return def, nil
}

// CreateRole inserts a new role definition.
func (r *Repository) CreateRole(ctx context.Context, name, description string, payload json.RawMessage) (RoleDefinition, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO roles (name, description, permission_payload, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, NOW(), NOW())
		RETURNING `+roleColumns, name, description, []byte(payload))
	def, err := scanRole(row)
	if err != nil {
		if isUniqueViolation(err) {
			return RoleDefinition{}, httpx.ErrDuplicate
		}
		return RoleDefinition{}, err
	}
	return def, nil
}

// UpdateRole replaces name, description and payload of a role.
func (r *Repository) UpdateRole(ctx context.Context, id int64, name, description string, payload json.RawMessage) (RoleDefinition, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE roles SET name = $2, description = $3, permission_payload = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+roleColumns, id, name, description, []byte(payload))
	def, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleDefinition{}, httpx.ErrNotFound
		}
		if isUniqueViolation(err) {
			return RoleDefinition{}, httpx.ErrDuplicate
		}
		return RoleDefinition{}, err
	}
	return def, nil
}

// DeactivateRole soft-deletes a role definition and its active
// assignments in one transaction.
func (r *Repository) DeactivateRole(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE roles SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`, id)
		if err != nil {
			return fmt.Errorf("roles: deactivate: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `UPDATE role_assignments SET is_active = FALSE WHERE role_id = $1 AND is_active`, id); err != nil {
			return fmt.Errorf("roles: deactivate assignments: %w", err)
		}
		return nil
	})
}

// AssignRole links a user to a role, reactivating a prior assignment if
// one exists.
func (r *Repository) AssignRole(ctx context.Context, userID, roleID, assignedBy int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO role_assignments (user_id, role_id, assigned_by, is_active, created_at)
		VALUES ($1, $2, $3, TRUE, NOW())
		ON CONFLICT (user_id, role_id)
		DO UPDATE SET is_active = TRUE, assigned_by = EXCLUDED.assigned_by`, userID, roleID, assignedBy)
	if err != nil {
		return fmt.Errorf("roles: assign: %w", err)
	}
	return nil
}

// RevokeRole deactivates an assignment.
func (r *Repository) RevokeRole(ctx context.Context, userID, roleID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE role_assignments SET is_active = FALSE
		WHERE user_id = $1 AND role_id = $2 AND is_active`, userID, roleID)
	if err != nil {
		return fmt.Errorf("roles: revoke: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ListAssigneeIDs returns the user ids holding an active assignment of
// the role. Used for invalidation fan-out on role edits.
func (r *Repository) ListAssigneeIDs(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM role_assignments WHERE role_id = $1 AND is_active ORDER BY user_id`, roleID)
	if err != nil {
		return nil, fmt.Errorf("roles: list assignees: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("roles: scan assignee: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roles: list assignees: %w", err)
	}
	return ids, nil
}

func scanRole(row pgx.Row) (RoleDefinition, error) {
	var def RoleDefinition
	var payload []byte
	err := row.Scan(&def.ID, &def.Name, &def.Description, &payload, &def.IsActive, &def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return RoleDefinition{}, err
	}
	def.Payload = json.RawMessage(payload)
	return def, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ RepositoryPort = (*Repository)(nil)
