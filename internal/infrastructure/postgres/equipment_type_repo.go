package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rfbooking/rfbooking/internal/domain"
)

const typeColumns = `id, name, description, is_active, manager_notifications_enabled, created_at`

type EquipmentTypeRepository struct {
	pool *pgxpool.Pool
}

func NewEquipmentTypeRepository(pool *pgxpool.Pool) *EquipmentTypeRepository {
	return &EquipmentTypeRepository{pool: pool}
}

func (r *EquipmentTypeRepository) List(ctx context.Context, includeInactive bool) ([]*domain.EquipmentType, error) {
	query := `SELECT ` + typeColumns + ` FROM equipment_types`
	if !includeInactive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list equipment types: %w", err)
	}
	defer rows.Close()

	var types []*domain.EquipmentType
	for rows.Next() {
		t, err := scanEquipmentType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (r *EquipmentTypeRepository) GetByID(ctx context.Context, id int64) (*domain.EquipmentType, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+typeColumns+` FROM equipment_types WHERE id = $1`, id)
	return scanEquipmentType(row)
}

func (r *EquipmentTypeRepository) Create(ctx context.Context, t *domain.EquipmentType) (*domain.EquipmentType, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO equipment_types (name, description, is_active, manager_notifications_enabled)
		VALUES ($1, $2, $3, $4)
		RETURNING `+typeColumns,
		t.Name, t.Description, t.IsActive, t.ManagerNotifications,
	)
	created, err := scanEquipmentType(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrTypeNameConflict
		}
		return nil, err
	}
	return created, nil
}

func (r *EquipmentTypeRepository) Update(ctx context.Context, t *domain.EquipmentType) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE equipment_types
		SET name = $2, description = $3, is_active = $4, manager_notifications_enabled = $5
		WHERE id = $1`,
		t.ID, t.Name, t.Description, t.IsActive, t.ManagerNotifications,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrTypeNameConflict
		}
		return fmt.Errorf("update equipment type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEquipmentTypeNotFound
	}
	return nil
}

func (r *EquipmentTypeRepository) Delete(ctx context.Context, id int64) error {
	var inUse bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM equipment WHERE type_id = $1)`, id).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("check type usage: %w", err)
	}
	if inUse {
		return domain.ErrEquipmentTypeInUse
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM equipment_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete equipment type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEquipmentTypeNotFound
	}
	return nil
}

func (r *EquipmentTypeRepository) ListUsers(ctx context.Context, typeID int64) ([]*domain.TypeAccess, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, type_id, user_id, granted_at, granted_by
		FROM equipment_type_users
		WHERE type_id = $1
		ORDER BY granted_at`, typeID)
	if err != nil {
		return nil, fmt.Errorf("list type users: %w", err)
	}
	defer rows.Close()

	var grants []*domain.TypeAccess
	for rows.Next() {
		var g domain.TypeAccess
		if err := rows.Scan(&g.ID, &g.TypeID, &g.UserID, &g.GrantedAt, &g.GrantedBy); err != nil {
			return nil, fmt.Errorf("scan type access: %w", err)
		}
		grants = append(grants, &g)
	}
	return grants, rows.Err()
}

func (r *EquipmentTypeRepository) Grant(ctx context.Context, typeID, userID int64, grantedBy *int64) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO equipment_type_users (type_id, user_id, granted_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (type_id, user_id) DO NOTHING`,
		typeID, userID, grantedBy,
	)
	if err != nil {
		return fmt.Errorf("grant type access: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccessAlreadyGranted
	}
	return nil
}

func (r *EquipmentTypeRepository) Revoke(ctx context.Context, typeID, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM equipment_type_users WHERE type_id = $1 AND user_id = $2`, typeID, userID)
	if err != nil {
		return fmt.Errorf("revoke type access: %w", err)
	}
	return nil
}

func (r *EquipmentTypeRepository) GrantAllActive(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO equipment_type_users (type_id, user_id)
		SELECT id, $1 FROM equipment_types WHERE is_active
		ON CONFLICT (type_id, user_id) DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("grant all active types: %w", err)
	}
	return nil
}

func (r *EquipmentTypeRepository) AccessibleTypeIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT type_id FROM equipment_type_users WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("accessible type ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan type id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanEquipmentType(row rowScanner) (*domain.EquipmentType, error) {
	var t domain.EquipmentType
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.IsActive, &t.ManagerNotifications, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEquipmentTypeNotFound
		}
		return nil, fmt.Errorf("scan equipment type: %w", err)
	}
	return &t, nil
}
