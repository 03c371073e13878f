package repository

import (
	"context"
	"time"

	"github.com/rfbooking/rfbooking/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	UpdateRole(ctx context.Context, id int64, role domain.RoleID) error
	SetActive(ctx context.Context, id int64, active bool) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	CountAdmins(ctx context.Context) (int, error)

	// ListNotifiableManagers returns active admin and manager users with
	// email notifications enabled, for weekly reports.
	ListNotifiableManagers(ctx context.Context) ([]*domain.User, error)
}
