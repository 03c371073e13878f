package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/transport/http/middleware"
	"github.com/rfbooking/rfbooking/internal/usecase"
)

type AdminHandler struct {
	uc     *usecase.AdminUsecase
	logger *slog.Logger
}

func NewAdminHandler(uc *usecase.AdminUsecase, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{uc: uc, logger: logger.With("component", "admin_handler")}
}

// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("list users", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

type updateRoleRequest struct {
	RoleID domain.RoleID `json:"role_id" binding:"required,min=1,max=3"`
}

// PUT /api/admin/users/:id/role
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.uc.UpdateUserRole(c.Request.Context(), middleware.CurrentUser(c), id, req.RoleID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// PUT /api/admin/users/:id/status
// Deactivating a user revokes all of their auth tokens.
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.uc.SetUserActive(c.Request.Context(), middleware.CurrentUser(c), id, *req.IsActive)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

// POST /api/admin/users/:id/revoke-tokens
func (h *AdminHandler) RevokeUserTokens(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.uc.RevokeUserTokens(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tokens revoked"})
}

type cronJobResponse struct {
	ID                int64   `json:"id"`
	JobKey            string  `json:"job_key"`
	JobName           string  `json:"job_name"`
	Description       string  `json:"description"`
	CronSchedule      string  `json:"cron_schedule"`
	IsEnabled         bool    `json:"is_enabled"`
	LastRunAt         *string `json:"last_run_at,omitempty"`
	LastRunStatus     *string `json:"last_run_status,omitempty"`
	LastRunDurationMS *int64  `json:"last_run_duration_ms,omitempty"`
	TotalRuns         int     `json:"total_runs"`
	TotalErrors       int     `json:"total_errors"`
}

func toCronJobResponse(j *domain.CronJob) cronJobResponse {
	resp := cronJobResponse{
		ID:                j.ID,
		JobKey:            j.JobKey,
		JobName:           j.JobName,
		Description:       j.Description,
		CronSchedule:      j.CronSchedule,
		IsEnabled:         j.IsEnabled,
		LastRunStatus:     j.LastRunStatus,
		LastRunDurationMS: j.LastRunDurationMS,
		TotalRuns:         j.TotalRuns,
		TotalErrors:       j.TotalErrors,
	}
	if j.LastRunAt != nil {
		ts := j.LastRunAt.Format(time.RFC3339)
		resp.LastRunAt = &ts
	}
	return resp
}

// GET /api/admin/cron-jobs
func (h *AdminHandler) ListCronJobs(c *gin.Context) {
	jobs, err := h.uc.ListCronJobs(c.Request.Context())
	if err != nil {
		h.logger.Error("list cron jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	out := make([]cronJobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toCronJobResponse(j))
	}
	c.JSON(http.StatusOK, gin.H{"cron_jobs": out})
}

type updateCronJobRequest struct {
	CronSchedule *string `json:"cron_schedule"`
	IsEnabled    *bool   `json:"is_enabled"`
}

// PUT /api/admin/cron-jobs/:id
func (h *AdminHandler) UpdateCronJob(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateCronJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.uc.UpdateCronJob(c.Request.Context(), id, req.CronSchedule, req.IsEnabled)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCronJobResponse(job))
}

// POST /api/admin/cron-jobs/:id/trigger
// Runs the job immediately regardless of its enabled flag.
func (h *AdminHandler) TriggerCronJob(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	job, err := h.uc.TriggerCronJob(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job triggered", "job_key": job.JobKey})
}

// POST /api/admin/maintenance/purge-credentials
func (h *AdminHandler) PurgeCredentials(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	tokens, links, err := h.uc.PurgeExpiredCredentials(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Error("purge credentials", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	h.logger.Info("expired credentials purged", "admin_id", actor.ID, "tokens", tokens, "links", links)
	c.JSON(http.StatusOK, gin.H{"tokens_removed": tokens, "links_removed": links})
}

func (h *AdminHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errUserNotFound})
	case errors.Is(err, domain.ErrCronJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrCronJobNotFound.Error()})
	case errors.Is(err, domain.ErrLastAdmin):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrLastAdmin.Error()})
	case errors.Is(err, domain.ErrAdminSelfChange):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrAdminSelfChange.Error()})
	case errors.Is(err, domain.ErrCronJobDisabled):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrCronJobDisabled.Error()})
	case errors.Is(err, domain.ErrInvalidCronExpr):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidCronExpr.Error()})
	case errors.Is(err, domain.ErrUnknownJobKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrUnknownJobKey.Error()})
	default:
		h.logger.Error("admin operation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
