package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/metrics"
	"github.com/rfbooking/rfbooking/internal/transport/http/middleware"
	"github.com/rfbooking/rfbooking/internal/usecase"
)

type BookingHandler struct {
	uc     *usecase.BookingUsecase
	logger *slog.Logger
}

func NewBookingHandler(uc *usecase.BookingUsecase, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{uc: uc, logger: logger.With("component", "booking_handler")}
}

type bookingRequest struct {
	EquipmentID int64   `json:"equipment_id" binding:"required,min=1"`
	StartDate   string  `json:"start_date"   binding:"required,datetime=2006-01-02"`
	EndDate     string  `json:"end_date"     binding:"required,datetime=2006-01-02"`
	StartTime   string  `json:"start_time"   binding:"required,datetime=15:04"`
	EndTime     string  `json:"end_time"     binding:"required,datetime=15:04"`
	Description *string `json:"description"`
}

type bookingResponse struct {
	ID                int64   `json:"id"`
	UserID            int64   `json:"user_id"`
	UserName          string  `json:"user_name"`
	EquipmentID       int64   `json:"equipment_id"`
	EquipmentName     string  `json:"equipment_name"`
	EquipmentLocation *string `json:"equipment_location,omitempty"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	StartTime         string  `json:"start_time"`
	EndTime           string  `json:"end_time"`
	Description       *string `json:"description,omitempty"`
	Status            string  `json:"status"`
	CreatedAt         string  `json:"created_at"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:                b.ID,
		UserID:            b.UserID,
		UserName:          b.UserName,
		EquipmentID:       b.EquipmentID,
		EquipmentName:     b.EquipmentName,
		EquipmentLocation: b.EquipmentLocation,
		StartDate:         b.StartDate.Format(dateLayout),
		EndDate:           b.EndDate.Format(dateLayout),
		StartTime:         b.StartTime,
		EndTime:           b.EndTime,
		Description:       b.Description,
		Status:            string(b.Status),
		CreatedAt:         b.CreatedAt.Format(time.RFC3339),
	}
}

func toBookingResponses(bookings []*domain.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	return out
}

// GET /api/bookings
func (h *BookingHandler) List(c *gin.Context) {
	filter := usecase.ListBookingsFilter{
		EquipmentID: queryInt64(c, "equipment_id"),
		UserID:      queryInt64(c, "user_id"),
		StartDate:   queryDate(c, "start_date"),
		EndDate:     queryDate(c, "end_date"),
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.BookingStatus(raw)
		filter.Status = &status
	}

	bookings, err := h.uc.List(c.Request.Context(), middleware.CurrentUser(c), filter)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": errForbidden})
			return
		}
		h.logger.Error("list bookings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": toBookingResponses(bookings)})
}

// GET /api/bookings/:id
func (h *BookingHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	b, err := h.uc.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

// POST /api/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	input, ok := h.bindBooking(c)
	if !ok {
		return
	}

	b, conflicts, err := h.uc.Create(c.Request.Context(), middleware.CurrentUser(c), input)
	if err != nil {
		h.respondBookingError(c, err, conflicts)
		return
	}

	metrics.BookingsCreatedTotal.Inc()
	c.JSON(http.StatusCreated, toBookingResponse(b))
}

// PUT /api/bookings/:id
func (h *BookingHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	input, ok := h.bindBooking(c)
	if !ok {
		return
	}

	b, conflicts, err := h.uc.Update(c.Request.Context(), middleware.CurrentUser(c), id, input)
	if err != nil {
		h.respondBookingError(c, err, conflicts)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

// PATCH /api/bookings/:id/description
func (h *BookingHandler) UpdateDescription(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Description *string `json:"description" binding:"omitempty,max=1024"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.uc.UpdateDescription(c.Request.Context(), middleware.CurrentUser(c), id, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

// POST /api/bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.uc.Cancel(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		h.respondError(c, err)
		return
	}

	metrics.BookingsCancelledTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled"})
}

// GET /api/bookings/conflicts?equipment_id=&start_date=&end_date=&start_time=&end_time=
// Dry-run conflict probe used by the booking form.
func (h *BookingHandler) CheckConflicts(c *gin.Context) {
	equipmentID := queryInt64(c, "equipment_id")
	startDate := queryDate(c, "start_date")
	endDate := queryDate(c, "end_date")
	if equipmentID == nil || startDate == nil || endDate == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "equipment_id, start_date and end_date are required"})
		return
	}
	startTime, endTime := c.Query("start_time"), c.Query("end_time")
	if startTime == "" {
		startTime = "00:00"
	}
	if endTime == "" {
		endTime = "23:59"
	}

	var excludeID int64
	if v := queryInt64(c, "exclude_id"); v != nil {
		excludeID = *v
	}

	conflicts, err := h.uc.CheckConflicts(c.Request.Context(), *equipmentID,
		domain.Date(*startDate), domain.Date(*endDate), startTime, endTime, excludeID)
	if err != nil {
		h.logger.Error("check conflicts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"has_conflicts": len(conflicts) > 0,
		"conflicts":     toBookingResponses(conflicts),
	})
}

func (h *BookingHandler) bindBooking(c *gin.Context) (usecase.BookingInput, bool) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return usecase.BookingInput{}, false
	}

	startDate, _ := time.Parse(dateLayout, req.StartDate)
	endDate, _ := time.Parse(dateLayout, req.EndDate)
	return usecase.BookingInput{
		EquipmentID: req.EquipmentID,
		StartDate:   startDate,
		EndDate:     endDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
	}, true
}

func (h *BookingHandler) respondBookingError(c *gin.Context, err error, conflicts []*domain.Booking) {
	if errors.Is(err, domain.ErrBookingConflict) {
		metrics.BookingConflictsTotal.Inc()
		c.JSON(http.StatusConflict, gin.H{
			"error":     domain.ErrBookingConflict.Error(),
			"conflicts": toBookingResponses(conflicts),
		})
		return
	}
	h.respondError(c, err)
}

func (h *BookingHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errBookingMissing})
	case errors.Is(err, domain.ErrEquipmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errEquipmentMissing})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": errForbidden})
	case errors.Is(err, domain.ErrNoEquipmentAccess):
		c.JSON(http.StatusForbidden, gin.H{"error": domain.ErrNoEquipmentAccess.Error()})
	case errors.Is(err, domain.ErrBookingRange),
		errors.Is(err, domain.ErrBookingTooLong),
		errors.Is(err, domain.ErrBookingInPast),
		errors.Is(err, domain.ErrBookingCancelled),
		errors.Is(err, domain.ErrBookingImmutable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDailyLimitReached):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": domain.ErrDailyLimitReached.Error()})
	default:
		h.logger.Error("booking operation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
