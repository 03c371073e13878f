package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/transport/http/middleware"
	"github.com/rfbooking/rfbooking/internal/usecase"
)

type ReportHandler struct {
	uc     *usecase.ReportUsecase
	logger *slog.Logger
}

func NewReportHandler(uc *usecase.ReportUsecase, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{uc: uc, logger: logger.With("component", "report_handler")}
}

type equipmentUsageResponse struct {
	EquipmentID   int64   `json:"equipment_id"`
	Name          string  `json:"name"`
	Location      *string `json:"location,omitempty"`
	TypeName      *string `json:"type_name,omitempty"`
	TotalBookings int     `json:"total_bookings"`
	UniqueUsers   int     `json:"unique_users"`
}

// GET /api/reports/equipment-usage?from=&to=&equipment_id=&type_id=
func (h *ReportHandler) EquipmentUsage(c *gin.Context) {
	from, to := h.uc.Window(queryDate(c, "from"), queryDate(c, "to"))

	rows, err := h.uc.EquipmentUsage(c.Request.Context(), from, to,
		queryInt64(c, "equipment_id"), queryInt64(c, "type_id"))
	if err != nil {
		h.logger.Error("equipment usage report", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	out := make([]equipmentUsageResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, equipmentUsageResponse{
			EquipmentID:   r.EquipmentID,
			Name:          r.Name,
			Location:      r.Location,
			TypeName:      r.TypeName,
			TotalBookings: r.TotalBookings,
			UniqueUsers:   r.UniqueUsers,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"from":  from.Format(dateLayout),
		"to":    to.Format(dateLayout),
		"usage": out,
	})
}

type userActivityResponse struct {
	UserID          int64  `json:"user_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	TotalBookings   int    `json:"total_bookings"`
	UniqueEquipment int    `json:"unique_equipment"`
}

// GET /api/reports/user-activity?from=&to=&user_id=
func (h *ReportHandler) UserActivity(c *gin.Context) {
	from, to := h.uc.Window(queryDate(c, "from"), queryDate(c, "to"))

	rows, err := h.uc.UserActivity(c.Request.Context(), middleware.CurrentUser(c), from, to, queryInt64(c, "user_id"))
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": errForbidden})
			return
		}
		h.logger.Error("user activity report", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	out := make([]userActivityResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, userActivityResponse{
			UserID:          r.UserID,
			Name:            r.Name,
			Email:           r.Email,
			TotalBookings:   r.TotalBookings,
			UniqueEquipment: r.UniqueEquipment,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"from":     from.Format(dateLayout),
		"to":       to.Format(dateLayout),
		"activity": out,
	})
}

type statusCountResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type dailyCountResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type topEquipmentResponse struct {
	EquipmentID  int64  `json:"equipment_id"`
	Name         string `json:"name"`
	BookingCount int    `json:"booking_count"`
}

// GET /api/reports/booking-stats?from=&to=
func (h *ReportHandler) BookingStats(c *gin.Context) {
	from, to := h.uc.Window(queryDate(c, "from"), queryDate(c, "to"))

	stats, err := h.uc.BookingStats(c.Request.Context(), from, to)
	if err != nil {
		h.logger.Error("booking stats report", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	statuses := make([]statusCountResponse, 0, len(stats.StatusCounts))
	for _, s := range stats.StatusCounts {
		statuses = append(statuses, statusCountResponse{Status: s.Status, Count: s.Count})
	}
	daily := make([]dailyCountResponse, 0, len(stats.DailyCounts))
	for _, d := range stats.DailyCounts {
		daily = append(daily, dailyCountResponse{Date: d.Day.Format(dateLayout), Count: d.Count})
	}
	top := make([]topEquipmentResponse, 0, len(stats.TopEquipment))
	for _, t := range stats.TopEquipment {
		top = append(top, topEquipmentResponse{EquipmentID: t.EquipmentID, Name: t.Name, BookingCount: t.BookingCount})
	}

	c.JSON(http.StatusOK, gin.H{
		"from":          from.Format(dateLayout),
		"to":            to.Format(dateLayout),
		"status_counts": statuses,
		"daily_counts":  daily,
		"top_equipment": top,
	})
}
