package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/repository"
)

const equipmentColumns = `e.id, e.name, e.description, e.location, e.type_id, t.name,
	e.next_calibration_date, e.is_active, e.created_at`

const equipmentFrom = ` FROM equipment e LEFT JOIN equipment_types t ON t.id = e.type_id`

type EquipmentRepository struct {
	pool *pgxpool.Pool
}

func NewEquipmentRepository(pool *pgxpool.Pool) *EquipmentRepository {
	return &EquipmentRepository{pool: pool}
}

func (r *EquipmentRepository) List(ctx context.Context, input repository.ListEquipmentInput) ([]*domain.Equipment, error) {
	var (
		where []string
		args  []any
	)
	if !input.IncludeInactive {
		where = append(where, "e.is_active")
	}
	if input.TypeID != nil {
		args = append(args, *input.TypeID)
		where = append(where, fmt.Sprintf("e.type_id = $%d", len(args)))
	}
	if input.AccessibleTypeIDs != nil {
		args = append(args, input.AccessibleTypeIDs)
		where = append(where, fmt.Sprintf("(e.type_id = ANY($%d) OR e.type_id IS NULL)", len(args)))
	}

	query := `SELECT ` + equipmentColumns + equipmentFrom
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY e.name, e.id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	defer rows.Close()
	return collectEquipment(rows)
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id int64) (*domain.Equipment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+equipmentColumns+equipmentFrom+` WHERE e.id = $1`, id)
	return scanEquipment(row)
}

func (r *EquipmentRepository) Create(ctx context.Context, e *domain.Equipment) (*domain.Equipment, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO equipment (name, description, location, type_id, next_calibration_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		e.Name, e.Description, e.Location, e.TypeID, e.NextCalibrationDate, e.IsActive,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create equipment: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *EquipmentRepository) Update(ctx context.Context, e *domain.Equipment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE equipment
		SET name = $2, description = $3, location = $4, type_id = $5,
		    next_calibration_date = $6, is_active = $7
		WHERE id = $1`,
		e.ID, e.Name, e.Description, e.Location, e.TypeID, e.NextCalibrationDate, e.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update equipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEquipmentNotFound
	}
	return nil
}

func (r *EquipmentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEquipmentNotFound
	}
	return nil
}

func (r *EquipmentRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE equipment SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate equipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEquipmentNotFound
	}
	return nil
}

func (r *EquipmentRepository) HasActiveBookings(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE equipment_id = $1 AND status = 'active' AND end_date >= CURRENT_DATE
		)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active bookings: %w", err)
	}
	return exists, nil
}

func (r *EquipmentRepository) ListByCalibrationDate(ctx context.Context, day time.Time) ([]*domain.Equipment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+equipmentColumns+equipmentFrom+`
		 WHERE e.is_active AND e.next_calibration_date = $1
		 ORDER BY e.name`, day)
	if err != nil {
		return nil, fmt.Errorf("list by calibration date: %w", err)
	}
	defer rows.Close()
	return collectEquipment(rows)
}

func (r *EquipmentRepository) ListManagers(ctx context.Context, equipmentID int64) ([]*domain.ManagerAssignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, equipment_id, manager_id, assigned_at, assigned_by
		FROM equipment_managers
		WHERE equipment_id = $1
		ORDER BY assigned_at`, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("list equipment managers: %w", err)
	}
	defer rows.Close()

	var assignments []*domain.ManagerAssignment
	for rows.Next() {
		var a domain.ManagerAssignment
		if err := rows.Scan(&a.ID, &a.EquipmentID, &a.ManagerID, &a.AssignedAt, &a.AssignedBy); err != nil {
			return nil, fmt.Errorf("scan manager assignment: %w", err)
		}
		assignments = append(assignments, &a)
	}
	return assignments, rows.Err()
}

// managerUserColumns qualifies userColumns with the u alias; the joined
// equipment_managers table carries its own id column.
const managerUserColumns = `u.id, u.email, u.name, u.role_id, u.is_active,
	u.email_notifications_enabled, u.created_at, u.last_login_at`

func (r *EquipmentRepository) ManagerUsers(ctx context.Context, equipmentID int64) ([]*domain.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+managerUserColumns+` FROM users u
		JOIN equipment_managers m ON m.manager_id = u.id
		WHERE m.equipment_id = $1 AND u.is_active
		ORDER BY u.name`, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("list manager users: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *EquipmentRepository) AssignManager(ctx context.Context, equipmentID, managerID int64, assignedBy *int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO equipment_managers (equipment_id, manager_id, assigned_by)
		VALUES ($1, $2, $3)`,
		equipmentID, managerID, assignedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrManagerAlreadySet
		}
		return fmt.Errorf("assign manager: %w", err)
	}
	return nil
}

func (r *EquipmentRepository) RemoveManager(ctx context.Context, equipmentID, managerID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM equipment_managers WHERE equipment_id = $1 AND manager_id = $2`,
		equipmentID, managerID)
	if err != nil {
		return fmt.Errorf("remove manager: %w", err)
	}
	return nil
}

func (r *EquipmentRepository) IsManagedBy(ctx context.Context, equipmentID, userID int64) (bool, error) {
	var managed bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM equipment_managers WHERE equipment_id = $1 AND manager_id = $2
		)`, equipmentID, userID).Scan(&managed)
	if err != nil {
		return false, fmt.Errorf("check manager: %w", err)
	}
	return managed, nil
}

func (r *EquipmentRepository) ListManagedBy(ctx context.Context, managerID int64) ([]*domain.Equipment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+equipmentColumns+equipmentFrom+`
		 JOIN equipment_managers m ON m.equipment_id = e.id
		 WHERE m.manager_id = $1 AND e.is_active
		 ORDER BY e.name`, managerID)
	if err != nil {
		return nil, fmt.Errorf("list managed equipment: %w", err)
	}
	defer rows.Close()
	return collectEquipment(rows)
}

func (r *EquipmentRepository) ControlledTypeIDs(ctx context.Context, managerID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT e.type_id FROM equipment e
		JOIN equipment_managers m ON m.equipment_id = e.id
		WHERE m.manager_id = $1 AND e.type_id IS NOT NULL`, managerID)
	if err != nil {
		return nil, fmt.Errorf("controlled type ids: %w", err)
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

func scanEquipment(row rowScanner) (*domain.Equipment, error) {
	var e domain.Equipment
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Location, &e.TypeID, &e.TypeName,
		&e.NextCalibrationDate, &e.IsActive, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("scan equipment: %w", err)
	}
	return &e, nil
}

func collectEquipment(rows pgx.Rows) ([]*domain.Equipment, error) {
	var items []*domain.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
