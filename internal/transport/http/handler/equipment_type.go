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

type EquipmentTypeHandler struct {
	uc     *usecase.EquipmentUsecase
	logger *slog.Logger
}

func NewEquipmentTypeHandler(uc *usecase.EquipmentUsecase, logger *slog.Logger) *EquipmentTypeHandler {
	return &EquipmentTypeHandler{uc: uc, logger: logger.With("component", "equipment_type_handler")}
}

type equipmentTypeRequest struct {
	Name                 string  `json:"name" binding:"required,min=1,max=200"`
	Description          *string `json:"description"`
	IsActive             *bool   `json:"is_active"`
	ManagerNotifications *bool   `json:"manager_notifications"`
}

type equipmentTypeResponse struct {
	ID                   int64   `json:"id"`
	Name                 string  `json:"name"`
	Description          *string `json:"description,omitempty"`
	IsActive             bool    `json:"is_active"`
	ManagerNotifications bool    `json:"manager_notifications"`
	CreatedAt            string  `json:"created_at"`
}

func toEquipmentTypeResponse(t *domain.EquipmentType) equipmentTypeResponse {
	return equipmentTypeResponse{
		ID:                   t.ID,
		Name:                 t.Name,
		Description:          t.Description,
		IsActive:             t.IsActive,
		ManagerNotifications: t.ManagerNotifications,
		CreatedAt:            t.CreatedAt.Format(time.RFC3339),
	}
}

// GET /api/manager/equipment-types
// Types that contain at least one piece of equipment the actor manages;
// admins get the full list.
func (h *EquipmentTypeHandler) ListControlled(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	types, err := h.uc.ListTypes(c.Request.Context(), false)
	if err != nil {
		h.logger.Error("list controlled types", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	if !actor.IsAdmin() {
		ids, err := h.uc.ControlledTypeIDs(c.Request.Context(), actor.ID)
		if err != nil {
			h.logger.Error("list controlled type ids", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
			return
		}
		controlled := make(map[int64]bool, len(ids))
		for _, id := range ids {
			controlled[id] = true
		}
		filtered := types[:0]
		for _, t := range types {
			if controlled[t.ID] {
				filtered = append(filtered, t)
			}
		}
		types = filtered
	}

	resp := make([]equipmentTypeResponse, 0, len(types))
	for _, t := range types {
		resp = append(resp, toEquipmentTypeResponse(t))
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/equipment-types
func (h *EquipmentTypeHandler) List(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	includeInactive := actor.IsAdmin() && c.Query("include_inactive") == "true"

	types, err := h.uc.ListTypes(c.Request.Context(), includeInactive)
	if err != nil {
		h.logger.Error("list equipment types", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	out := make([]equipmentTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, toEquipmentTypeResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"equipment_types": out})
}

// POST /api/admin/equipment-types
func (h *EquipmentTypeHandler) Create(c *gin.Context) {
	t, ok := h.bindType(c)
	if !ok {
		return
	}
	created, err := h.uc.CreateType(c.Request.Context(), t)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toEquipmentTypeResponse(created))
}

// PUT /api/admin/equipment-types/:id
func (h *EquipmentTypeHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, ok := h.bindType(c)
	if !ok {
		return
	}
	t.ID = id
	updated, err := h.uc.UpdateType(c.Request.Context(), t)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEquipmentTypeResponse(updated))
}

// DELETE /api/admin/equipment-types/:id
func (h *EquipmentTypeHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.uc.DeleteType(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Equipment type deleted"})
}

type typeAccessResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	GrantedAt string `json:"granted_at"`
	GrantedBy *int64 `json:"granted_by,omitempty"`
}

// GET /api/admin/equipment-types/:id/users
func (h *EquipmentTypeHandler) Users(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	grants, err := h.uc.TypeUsers(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]typeAccessResponse, 0, len(grants))
	for _, g := range grants {
		out = append(out, typeAccessResponse{
			ID:        g.ID,
			UserID:    g.UserID,
			GrantedAt: g.GrantedAt.Format(time.RFC3339),
			GrantedBy: g.GrantedBy,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

type grantAccessRequest struct {
	UserID int64 `json:"user_id" binding:"required,min=1"`
}

// POST /api/admin/equipment-types/:id/users
func (h *EquipmentTypeHandler) GrantAccess(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req grantAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.CurrentUser(c)
	if err := h.uc.GrantTypeAccess(c.Request.Context(), id, req.UserID, &actor.ID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Access granted"})
}

// DELETE /api/admin/equipment-types/:id/users/:userID
func (h *EquipmentTypeHandler) RevokeAccess(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userID")
	if !ok {
		return
	}
	if err := h.uc.RevokeTypeAccess(c.Request.Context(), id, userID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Access revoked"})
}

func (h *EquipmentTypeHandler) bindType(c *gin.Context) (*domain.EquipmentType, bool) {
	var req equipmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	t := &domain.EquipmentType{
		Name:                 req.Name,
		Description:          req.Description,
		IsActive:             true,
		ManagerNotifications: true,
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if req.ManagerNotifications != nil {
		t.ManagerNotifications = *req.ManagerNotifications
	}
	return t, true
}

func (h *EquipmentTypeHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrEquipmentTypeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errTypeMissing})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errUserNotFound})
	case errors.Is(err, domain.ErrTypeNameConflict):
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrTypeNameConflict.Error()})
	case errors.Is(err, domain.ErrEquipmentTypeInUse):
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrEquipmentTypeInUse.Error()})
	case errors.Is(err, domain.ErrAccessAlreadyGranted):
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrAccessAlreadyGranted.Error()})
	default:
		h.logger.Error("equipment type operation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
