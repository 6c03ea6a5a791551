package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RoleStore is the read-only projection over persisted role definitions
// and active assignments consumed by the resolver.
type RoleStore interface {
	// ListActiveRolesFor returns the active roles assigned to a
	// principal. A principal with no roles yields an empty slice.
	ListActiveRolesFor(ctx context.Context, principalID int64) ([]RoleRecord, error)
}

// storeTimeout bounds every role store round trip so a slow database
// degrades to a deny instead of stalling request handlers.
const storeTimeout = 3 * time.Second

// PGRoleStore implements RoleStore using PostgreSQL.
type PGRoleStore struct {
	pool *pgxpool.Pool
}

// NewPGRoleStore constructs the store.
func NewPGRoleStore(pool *pgxpool.Pool) *PGRoleStore {
	return &PGRoleStore{pool: pool}
}

// ListActiveRolesFor joins active assignments to active role definitions.
func (s *PGRoleStore) ListActiveRolesFor(ctx context.Context, principalID int64) ([]RoleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.name, r.permission_payload
		FROM role_assignments a
		JOIN roles r ON r.id = a.role_id
		WHERE a.user_id = $1 AND a.is_active AND r.is_active
		ORDER BY r.id`, principalID)
	if err != nil {
		return nil, fmt.Errorf("authz: list active roles: %w", err)
	}
	defer rows.Close()

	records := make([]RoleRecord, 0, 4)
	for rows.Next() {
		var rec RoleRecord
		var payload []byte
		if err := rows.Scan(&rec.ID, &rec.Name, &payload); err != nil {
			return nil, fmt.Errorf("authz: scan role: %w", err)
		}
		rec.Payload = json.RawMessage(payload)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("authz: list active roles: %w", err)
	}
	return records, nil
}

var _ RoleStore = (*PGRoleStore)(nil)
