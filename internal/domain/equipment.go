package domain

import (
	"errors"
	"time"
)

var (
	ErrEquipmentNotFound     = errors.New("equipment not found or inactive")
	ErrEquipmentTypeNotFound = errors.New("equipment type not found")
	ErrEquipmentTypeInUse    = errors.New("equipment type has equipment attached")
	ErrTypeNameConflict      = errors.New("equipment type with this name already exists")
	ErrAccessAlreadyGranted  = errors.New("user already has access to this type")
	ErrManagerAlreadySet     = errors.New("user already manages this equipment")
	ErrNotAManager           = errors.New("assignee must hold the manager or admin role")
)

type EquipmentType struct {
	ID                   int64
	Name                 string
	Description          *string
	IsActive             bool
	ManagerNotifications bool
	CreatedAt            time.Time
}

type Equipment struct {
	ID                  int64
	Name                string
	Description         *string
	Location            *string
	TypeID              *int64
	TypeName            *string
	NextCalibrationDate *time.Time
	IsActive            bool
	CreatedAt           time.Time
}

// TypeAccess grants a user booking access to every equipment of a type.
// Untyped equipment needs no grant.
type TypeAccess struct {
	ID        int64
	TypeID    int64
	UserID    int64
	GrantedAt time.Time
	GrantedBy *int64
}

// ManagerAssignment gives a manager oversight of one equipment item:
// viewing and mutating its bookings, calibration reminders, weekly reports.
type ManagerAssignment struct {
	ID          int64
	EquipmentID int64
	ManagerID   int64
	AssignedAt  time.Time
	AssignedBy  *int64
}
