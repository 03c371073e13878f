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

type EquipmentHandler struct {
	uc     *usecase.EquipmentUsecase
	logger *slog.Logger
}

func NewEquipmentHandler(uc *usecase.EquipmentUsecase, logger *slog.Logger) *EquipmentHandler {
	return &EquipmentHandler{uc: uc, logger: logger.With("component", "equipment_handler")}
}

type equipmentRequest struct {
	Name                string  `json:"name" binding:"required,min=1,max=200"`
	Description         *string `json:"description"`
	Location            *string `json:"location"`
	TypeID              *int64  `json:"type_id"`
	NextCalibrationDate *string `json:"next_calibration_date" binding:"omitempty,datetime=2006-01-02"`
	IsActive            *bool   `json:"is_active"`
}

type equipmentResponse struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	Description         *string `json:"description,omitempty"`
	Location            *string `json:"location,omitempty"`
	TypeID              *int64  `json:"type_id,omitempty"`
	TypeName            *string `json:"type_name,omitempty"`
	NextCalibrationDate *string `json:"next_calibration_date,omitempty"`
	IsActive            bool    `json:"is_active"`
	CreatedAt           string  `json:"created_at"`
}

func toEquipmentResponse(e *domain.Equipment) equipmentResponse {
	resp := equipmentResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Location:    e.Location,
		TypeID:      e.TypeID,
		TypeName:    e.TypeName,
		IsActive:    e.IsActive,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
	if e.NextCalibrationDate != nil {
		d := e.NextCalibrationDate.Format(dateLayout)
		resp.NextCalibrationDate = &d
	}
	return resp
}

func toEquipmentResponses(items []*domain.Equipment) []equipmentResponse {
	out := make([]equipmentResponse, 0, len(items))
	for _, e := range items {
		out = append(out, toEquipmentResponse(e))
	}
	return out
}

// GET /api/equipment
func (h *EquipmentHandler) List(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	items, err := h.uc.List(c.Request.Context(), middleware.CurrentUser(c), queryInt64(c, "type_id"), includeInactive)
	if err != nil {
		h.logger.Error("list equipment", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, gin.H{"equipment": toEquipmentResponses(items)})
}

// GET /api/equipment/:id
func (h *EquipmentHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	e, err := h.uc.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEquipmentResponse(e))
}

// POST /api/admin/equipment
func (h *EquipmentHandler) Create(c *gin.Context) {
	e, ok := h.bindEquipment(c)
	if !ok {
		return
	}
	created, err := h.uc.Create(c.Request.Context(), e)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toEquipmentResponse(created))
}

// PUT /api/admin/equipment/:id
func (h *EquipmentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	e, ok := h.bindEquipment(c)
	if !ok {
		return
	}
	e.ID = id
	updated, err := h.uc.Update(c.Request.Context(), e)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEquipmentResponse(updated))
}

// DELETE /api/admin/equipment/:id
// Equipment with active bookings is deactivated instead of removed.
func (h *EquipmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deactivated, err := h.uc.Delete(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if deactivated {
		c.JSON(http.StatusOK, gin.H{"message": "Equipment has active bookings and was deactivated instead"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Equipment deleted"})
}

// GET /api/admin/equipment/:id/managers
func (h *EquipmentHandler) Managers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	managers, err := h.uc.Managers(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]userResponse, 0, len(managers))
	for _, m := range managers {
		out = append(out, toUserResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"managers": out})
}

type assignManagerRequest struct {
	UserID int64 `json:"user_id" binding:"required,min=1"`
}

// POST /api/admin/equipment/:id/managers
func (h *EquipmentHandler) AssignManager(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req assignManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.CurrentUser(c)
	if err := h.uc.AssignManager(c.Request.Context(), id, req.UserID, &actor.ID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Manager assigned"})
}

// DELETE /api/admin/equipment/:id/managers/:userID
func (h *EquipmentHandler) RemoveManager(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userID")
	if !ok {
		return
	}
	if err := h.uc.RemoveManager(c.Request.Context(), id, userID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Manager removed"})
}

// GET /api/manager/equipment
func (h *EquipmentHandler) ListManaged(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	var (
		items []*domain.Equipment
		err   error
	)
	if actor.IsAdmin() {
		items, err = h.uc.List(c.Request.Context(), actor, nil, true)
	} else {
		items, err = h.uc.ListManagedBy(c.Request.Context(), actor.ID)
	}
	if err != nil {
		h.logger.Error("list managed equipment", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, gin.H{"equipment": toEquipmentResponses(items)})
}

func (h *EquipmentHandler) bindEquipment(c *gin.Context) (*domain.Equipment, bool) {
	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	e := &domain.Equipment{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		TypeID:      req.TypeID,
		IsActive:    true,
	}
	if req.IsActive != nil {
		e.IsActive = *req.IsActive
	}
	if req.NextCalibrationDate != nil {
		d, _ := time.Parse(dateLayout, *req.NextCalibrationDate)
		e.NextCalibrationDate = &d
	}
	return e, true
}

func (h *EquipmentHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEquipmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errEquipmentMissing})
	case errors.Is(err, domain.ErrEquipmentTypeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errTypeMissing})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errUserNotFound})
	case errors.Is(err, domain.ErrNotAManager):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrNotAManager.Error()})
	case errors.Is(err, domain.ErrManagerAlreadySet):
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrManagerAlreadySet.Error()})
	default:
		h.logger.Error("equipment operation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
