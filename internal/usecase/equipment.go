package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/repository"
)

type EquipmentUsecase struct {
	equipment repository.EquipmentRepository
	types     repository.EquipmentTypeRepository
	users     repository.UserRepository
	logger    *slog.Logger
}

func NewEquipmentUsecase(
	equipment repository.EquipmentRepository,
	types repository.EquipmentTypeRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *EquipmentUsecase {
	return &EquipmentUsecase{
		equipment: equipment,
		types:     types,
		users:     users,
		logger:    logger,
	}
}

// List shows admins everything; other users only equipment of types they
// were granted plus untyped items.
func (u *EquipmentUsecase) List(ctx context.Context, actor *domain.User, typeID *int64, includeInactive bool) ([]*domain.Equipment, error) {
	input := repository.ListEquipmentInput{
		TypeID:          typeID,
		IncludeInactive: includeInactive && actor.IsAdmin(),
	}
	if !actor.IsAdmin() {
		ids, err := u.types.AccessibleTypeIDs(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("load accessible types: %w", err)
		}
		input.AccessibleTypeIDs = ids
	}
	return u.equipment.List(ctx, input)
}

func (u *EquipmentUsecase) Get(ctx context.Context, id int64) (*domain.Equipment, error) {
	return u.equipment.GetByID(ctx, id)
}

func (u *EquipmentUsecase) Create(ctx context.Context, e *domain.Equipment) (*domain.Equipment, error) {
	if e.TypeID != nil {
		if _, err := u.types.GetByID(ctx, *e.TypeID); err != nil {
			return nil, err
		}
	}
	return u.equipment.Create(ctx, e)
}

func (u *EquipmentUsecase) Update(ctx context.Context, e *domain.Equipment) (*domain.Equipment, error) {
	if e.TypeID != nil {
		if _, err := u.types.GetByID(ctx, *e.TypeID); err != nil {
			return nil, err
		}
	}
	if err := u.equipment.Update(ctx, e); err != nil {
		return nil, err
	}
	return u.equipment.GetByID(ctx, e.ID)
}

// Delete removes the equipment outright unless it still has active future
// bookings, in which case it is only deactivated so history stays intact.
func (u *EquipmentUsecase) Delete(ctx context.Context, id int64) (deactivated bool, err error) {
	busy, err := u.equipment.HasActiveBookings(ctx, id)
	if err != nil {
		return false, err
	}
	if busy {
		if err := u.equipment.Deactivate(ctx, id); err != nil {
			return false, err
		}
		u.logger.Info("equipment deactivated instead of deleted", "equipment_id", id)
		return true, nil
	}
	return false, u.equipment.Delete(ctx, id)
}

func (u *EquipmentUsecase) Managers(ctx context.Context, equipmentID int64) ([]*domain.User, error) {
	if _, err := u.equipment.GetByID(ctx, equipmentID); err != nil {
		return nil, err
	}
	return u.equipment.ManagerUsers(ctx, equipmentID)
}

// AssignManager requires the assignee to hold the manager or admin role.
func (u *EquipmentUsecase) AssignManager(ctx context.Context, equipmentID, managerID int64, assignedBy *int64) error {
	if _, err := u.equipment.GetByID(ctx, equipmentID); err != nil {
		return err
	}
	assignee, err := u.users.FindByID(ctx, managerID)
	if err != nil {
		return err
	}
	if !assignee.IsManager() {
		return domain.ErrNotAManager
	}
	return u.equipment.AssignManager(ctx, equipmentID, managerID, assignedBy)
}

func (u *EquipmentUsecase) RemoveManager(ctx context.Context, equipmentID, managerID int64) error {
	return u.equipment.RemoveManager(ctx, equipmentID, managerID)
}

func (u *EquipmentUsecase) ListManagedBy(ctx context.Context, managerID int64) ([]*domain.Equipment, error) {
	return u.equipment.ListManagedBy(ctx, managerID)
}

func (u *EquipmentUsecase) ControlledTypeIDs(ctx context.Context, managerID int64) ([]int64, error) {
	return u.equipment.ControlledTypeIDs(ctx, managerID)
}

func (u *EquipmentUsecase) ListTypes(ctx context.Context, includeInactive bool) ([]*domain.EquipmentType, error) {
	return u.types.List(ctx, includeInactive)
}

func (u *EquipmentUsecase) CreateType(ctx context.Context, t *domain.EquipmentType) (*domain.EquipmentType, error) {
	return u.types.Create(ctx, t)
}

func (u *EquipmentUsecase) UpdateType(ctx context.Context, t *domain.EquipmentType) (*domain.EquipmentType, error) {
	if err := u.types.Update(ctx, t); err != nil {
		return nil, err
	}
	return u.types.GetByID(ctx, t.ID)
}

func (u *EquipmentUsecase) DeleteType(ctx context.Context, id int64) error {
	return u.types.Delete(ctx, id)
}

func (u *EquipmentUsecase) TypeUsers(ctx context.Context, typeID int64) ([]*domain.TypeAccess, error) {
	if _, err := u.types.GetByID(ctx, typeID); err != nil {
		return nil, err
	}
	return u.types.ListUsers(ctx, typeID)
}

func (u *EquipmentUsecase) GrantTypeAccess(ctx context.Context, typeID, userID int64, grantedBy *int64) error {
	if _, err := u.types.GetByID(ctx, typeID); err != nil {
		return err
	}
	if _, err := u.users.FindByID(ctx, userID); err != nil {
		return err
	}
	return u.types.Grant(ctx, typeID, userID, grantedBy)
}

func (u *EquipmentUsecase) RevokeTypeAccess(ctx context.Context, typeID, userID int64) error {
	return u.types.Revoke(ctx, typeID, userID)
}
