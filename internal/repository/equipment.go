package repository

import (
	"context"
	"time"

	"github.com/rfbooking/rfbooking/internal/domain"
)

type EquipmentTypeRepository interface {
	List(ctx context.Context, includeInactive bool) ([]*domain.EquipmentType, error)
	GetByID(ctx context.Context, id int64) (*domain.EquipmentType, error)
	Create(ctx context.Context, t *domain.EquipmentType) (*domain.EquipmentType, error)
	Update(ctx context.Context, t *domain.EquipmentType) error
	// Delete fails with ErrEquipmentTypeInUse while equipment references the type.
	Delete(ctx context.Context, id int64) error

	ListUsers(ctx context.Context, typeID int64) ([]*domain.TypeAccess, error)
	Grant(ctx context.Context, typeID, userID int64, grantedBy *int64) error
	Revoke(ctx context.Context, typeID, userID int64) error
	// GrantAllActive gives a new user access to every active type.
	GrantAllActive(ctx context.Context, userID int64) error
	AccessibleTypeIDs(ctx context.Context, userID int64) ([]int64, error)
}

type ListEquipmentInput struct {
	// AccessibleTypeIDs restricts results to these types plus untyped
	// equipment. Nil means no restriction (admin view).
	AccessibleTypeIDs []int64
	TypeID            *int64
	IncludeInactive   bool
}

type EquipmentRepository interface {
	List(ctx context.Context, input ListEquipmentInput) ([]*domain.Equipment, error)
	GetByID(ctx context.Context, id int64) (*domain.Equipment, error)
	Create(ctx context.Context, e *domain.Equipment) (*domain.Equipment, error)
	Update(ctx context.Context, e *domain.Equipment) error
	Delete(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error
	HasActiveBookings(ctx context.Context, id int64) (bool, error)
	// ListByCalibrationDate returns active equipment whose next calibration
	// falls exactly on the given day.
	ListByCalibrationDate(ctx context.Context, day time.Time) ([]*domain.Equipment, error)

	ListManagers(ctx context.Context, equipmentID int64) ([]*domain.ManagerAssignment, error)
	ManagerUsers(ctx context.Context, equipmentID int64) ([]*domain.User, error)
	AssignManager(ctx context.Context, equipmentID, managerID int64, assignedBy *int64) error
	RemoveManager(ctx context.Context, equipmentID, managerID int64) error
	IsManagedBy(ctx context.Context, equipmentID, userID int64) (bool, error)
	ListManagedBy(ctx context.Context, managerID int64) ([]*domain.Equipment, error)
	// ControlledTypeIDs are the distinct types of equipment the user manages.
	ControlledTypeIDs(ctx context.Context, managerID int64) ([]int64, error)
}
