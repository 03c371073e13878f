package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/repository"
)

// jobTrigger lets the admin surface fire a cron job outside its schedule.
// Implemented by the cron runner.
type jobTrigger interface {
	RunJob(ctx context.Context, key string) error
}

type AdminUsecase struct {
	users   repository.UserRepository
	auth    repository.AuthRepository
	cron    repository.CronJobRepository
	trigger jobTrigger
	logger  *slog.Logger
}

func NewAdminUsecase(
	users repository.UserRepository,
	auth repository.AuthRepository,
	cronJobs repository.CronJobRepository,
	trigger jobTrigger,
	logger *slog.Logger,
) *AdminUsecase {
	return &AdminUsecase{
		users:   users,
		auth:    auth,
		cron:    cronJobs,
		trigger: trigger,
		logger:  logger,
	}
}

func (u *AdminUsecase) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return u.users.List(ctx)
}

// UpdateUserRole refuses to demote the last remaining admin. Admins also
// cannot change their own role.
func (u *AdminUsecase) UpdateUserRole(ctx context.Context, actor *domain.User, id int64, role domain.RoleID) (*domain.User, error) {
	if actor.ID == id {
		return nil, domain.ErrAdminSelfChange
	}
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.RoleID == domain.RoleAdmin && role != domain.RoleAdmin {
		admins, err := u.users.CountAdmins(ctx)
		if err != nil {
			return nil, err
		}
		if admins <= 1 {
			return nil, domain.ErrLastAdmin
		}
	}
	if err := u.users.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}
	u.logger.Info("user role updated", "user_id", id, "role", role.String())
	return u.users.FindByID(ctx, id)
}

// SetUserActive deactivation also revokes every live session of the user.
// The last admin cannot be deactivated, and admins cannot toggle themselves.
func (u *AdminUsecase) SetUserActive(ctx context.Context, actor *domain.User, id int64, active bool) (*domain.User, error) {
	if actor.ID == id {
		return nil, domain.ErrAdminSelfChange
	}
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !active && user.RoleID == domain.RoleAdmin {
		admins, err := u.users.CountAdmins(ctx)
		if err != nil {
			return nil, err
		}
		if admins <= 1 {
			return nil, domain.ErrLastAdmin
		}
	}
	if err := u.users.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	if !active {
		if err := u.auth.RevokeUserTokens(ctx, id); err != nil {
			return nil, fmt.Errorf("revoke tokens: %w", err)
		}
	}
	u.logger.Info("user active flag updated", "user_id", id, "active", active)
	return u.users.FindByID(ctx, id)
}

func (u *AdminUsecase) RevokeUserTokens(ctx context.Context, id int64) error {
	if _, err := u.users.FindByID(ctx, id); err != nil {
		return err
	}
	return u.auth.RevokeUserTokens(ctx, id)
}

func (u *AdminUsecase) ListCronJobs(ctx context.Context) ([]*domain.CronJob, error) {
	return u.cron.List(ctx)
}

// UpdateCronJob validates a new schedule with the same parser the runner
// uses before persisting it.
func (u *AdminUsecase) UpdateCronJob(ctx context.Context, id int64, schedule *string, enabled *bool) (*domain.CronJob, error) {
	if schedule != nil {
		if _, err := cron.ParseStandard(*schedule); err != nil {
			return nil, domain.ErrInvalidCronExpr
		}
	}
	if err := u.cron.UpdateSettings(ctx, id, schedule, enabled); err != nil {
		return nil, err
	}
	return u.cron.GetByID(ctx, id)
}

// TriggerCronJob runs the job immediately, outside its schedule. Disabled
// jobs are rejected.
func (u *AdminUsecase) TriggerCronJob(ctx context.Context, id int64) (*domain.CronJob, error) {
	job, err := u.cron.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !job.IsEnabled {
		return nil, domain.ErrCronJobDisabled
	}
	if err := u.trigger.RunJob(ctx, job.JobKey); err != nil {
		return nil, err
	}
	return u.cron.GetByID(ctx, id)
}

// PurgeExpiredCredentials removes expired auth tokens and magic links older
// than the cutoff. Exposed to admins and used by the daily cleanup job.
func (u *AdminUsecase) PurgeExpiredCredentials(ctx context.Context, cutoff time.Time) (tokens, links int64, err error) {
	tokens, err = u.auth.DeleteExpiredTokens(ctx, cutoff)
	if err != nil {
		return 0, 0, err
	}
	links, err = u.auth.DeleteExpiredMagicLinks(ctx, cutoff)
	if err != nil {
		return tokens, 0, err
	}
	return tokens, links, nil
}
