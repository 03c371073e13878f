package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/rfbooking/rfbooking/internal/transport/http/handler"
	"github.com/rfbooking/rfbooking/internal/transport/http/middleware"
	"github.com/rfbooking/rfbooking/internal/usecase"
)

type Handlers struct {
	Auth          *handler.AuthHandler
	Booking       *handler.BookingHandler
	Equipment     *handler.EquipmentHandler
	EquipmentType *handler.EquipmentTypeHandler
	Admin         *handler.AdminHandler
	AI            *handler.AIHandler
	Report        *handler.ReportHandler
}

func NewRouter(logger *slog.Logger, h Handlers, auth *usecase.AuthUsecase) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	authMW := middleware.Auth(auth)
	csrfMW := middleware.CSRF()

	api := r.Group("/api")

	// Public: magic link request and redemption.
	api.POST("/auth/register", h.Auth.Register)
	api.GET("/auth/verify", h.Auth.Verify)

	session := api.Group("/auth", authMW, csrfMW)
	session.GET("/me", h.Auth.Me)
	session.POST("/logout", h.Auth.Logout)

	bookings := api.Group("/bookings", authMW, csrfMW)
	bookings.GET("", h.Booking.List)
	bookings.POST("", h.Booking.Create)
	bookings.GET("/conflicts", h.Booking.CheckConflicts)
	bookings.GET("/:id", h.Booking.GetByID)
	bookings.PUT("/:id", h.Booking.Update)
	bookings.PATCH("/:id/description", h.Booking.UpdateDescription)
	bookings.POST("/:id/cancel", h.Booking.Cancel)

	equipment := api.Group("/equipment", authMW, csrfMW)
	equipment.GET("", h.Equipment.List)
	equipment.GET("/:id", h.Equipment.GetByID)

	types := api.Group("/equipment-types", authMW, csrfMW)
	types.GET("", h.EquipmentType.List)

	ai := api.Group("/ai", authMW, csrfMW)
	ai.POST("/analyze", h.AI.Analyze)

	reports := api.Group("/reports", authMW, csrfMW, middleware.RequireManager())
	reports.GET("/equipment-usage", h.Report.EquipmentUsage)
	reports.GET("/booking-stats", h.Report.BookingStats)

	// User activity allows non-managers to query their own row.
	api.GET("/reports/user-activity", authMW, csrfMW, h.Report.UserActivity)

	manager := api.Group("/manager", authMW, csrfMW, middleware.RequireManager())
	manager.GET("/equipment", h.Equipment.ListManaged)
	manager.GET("/equipment-types", h.EquipmentType.ListControlled)

	admin := api.Group("/admin", authMW, csrfMW, middleware.RequireAdmin())

	admin.GET("/users", h.Admin.ListUsers)
	admin.PUT("/users/:id/role", h.Admin.UpdateUserRole)
	admin.PUT("/users/:id/status", h.Admin.SetUserActive)
	admin.POST("/users/:id/revoke-tokens", h.Admin.RevokeUserTokens)

	admin.POST("/equipment", h.Equipment.Create)
	admin.PUT("/equipment/:id", h.Equipment.Update)
	admin.DELETE("/equipment/:id", h.Equipment.Delete)
	admin.GET("/equipment/:id/managers", h.Equipment.Managers)
	admin.POST("/equipment/:id/managers", h.Equipment.AssignManager)
	admin.DELETE("/equipment/:id/managers/:userID", h.Equipment.RemoveManager)

	admin.POST("/equipment-types", h.EquipmentType.Create)
	admin.PUT("/equipment-types/:id", h.EquipmentType.Update)
	admin.DELETE("/equipment-types/:id", h.EquipmentType.Delete)
	admin.GET("/equipment-types/:id/users", h.EquipmentType.Users)
	admin.POST("/equipment-types/:id/users", h.EquipmentType.GrantAccess)
	admin.DELETE("/equipment-types/:id/users/:userID", h.EquipmentType.RevokeAccess)

	admin.GET("/cron-jobs", h.Admin.ListCronJobs)
	admin.PUT("/cron-jobs/:id", h.Admin.UpdateCronJob)
	admin.POST("/cron-jobs/:id/trigger", h.Admin.TriggerCronJob)
	admin.POST("/maintenance/purge-credentials", h.Admin.PurgeCredentials)

	admin.POST("/ai/chat", h.AI.Chat)
	admin.GET("/ai/usage", h.AI.Usage)
	admin.GET("/ai/rules", h.AI.ListRules)
	admin.POST("/ai/rules", h.AI.CreateRule)
	admin.PUT("/ai/rules/:id", h.AI.UpdateRule)
	admin.DELETE("/ai/rules/:id", h.AI.DeleteRule)

	return r
}
