// Package server assembles services, handlers and routes into a fiber app.
package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/sikayetim/backend/internal/auth"
	"github.com/sikayetim/backend/internal/config"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/handler"
	"github.com/sikayetim/backend/internal/importer"
	"github.com/sikayetim/backend/internal/logger"
	"github.com/sikayetim/backend/internal/mailer"
	"github.com/sikayetim/backend/internal/metrics"
	"github.com/sikayetim/backend/internal/middleware"
	"github.com/sikayetim/backend/internal/realtime"
	"github.com/sikayetim/backend/internal/repository"
	"github.com/sikayetim/backend/internal/service"
	"github.com/sikayetim/backend/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the infrastructure pieces built by the caller.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Mailer  *mailer.Mailer
	Store   storage.ObjectStore // nil disables uploads
	Redis   *redis.Client       // nil when the relay bridge is off
	Metrics *metrics.Metrics    // nil skips instrumentation
}

type Server struct {
	App *fiber.App
	Hub *realtime.Hub
}

func New(d Deps) *Server {
	cfg := d.Config
	db := d.DB

	// Repositories
	userRepo := repository.NewUserRepository(db)
	authRepo := repository.NewAuthRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	sectorRepo := repository.NewSectorRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// Services
	templates := mailer.NewTemplates(cfg.App.URL)
	sessions := auth.NewSessionService(cfg)
	notifier := service.NewNotificationService(notificationRepo, userRepo, d.Mailer, templates)
	complaints := service.NewComplaintService(db, notifier, service.ComplaintOptions{
		Moderation: cfg.Complaint.Moderation,
		MaxImages:  cfg.Complaint.MaxImages,
		Location:   cfg.App.Location(),
	})
	approvals := service.NewApprovalService(db, notifier)
	support := service.NewSupportService(db, notifier)
	stats := service.NewStatsService(db)

	hub := realtime.NewHub(support)
	if d.Metrics != nil {
		hub.OnConnectionChange(func(delta int) {
			if delta > 0 {
				d.Metrics.ClientConnected()
			} else {
				d.Metrics.ClientDisconnected()
			}
		})
	}

	// Middleware
	authMW := middleware.NewAuthMiddleware(sessions, db, cfg.Session.CookieName)
	companyMW := middleware.NewCompanyMiddleware(db)

	// Handlers
	authHandler := handler.NewAuthHandler(userRepo, authRepo, sessions, authMW, d.Mailer, templates)
	companyHandler := handler.NewCompanyHandler(companyRepo, sectorRepo, reviewRepo)
	complaintHandler := handler.NewComplaintHandler(complaints, complaintRepo, d.Store)
	requestHandler := handler.NewRequestHandler(approvals, requestRepo)
	adminHandler := handler.NewAdminHandler(userRepo, companyRepo, sectorRepo, approvals, stats)
	settingsHandler := handler.NewSettingsHandler(settingRepo, d.Mailer, templates)
	importHandler := handler.NewImportHandler(importer.New(db))
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	uploadHandler := handler.NewUploadHandler(d.Store, companyRepo)
	supportHandler := handler.NewSupportHandler(support, hub)
	wsHandler := handler.NewWebSocketHandler(hub, authMW, cfg.CORS.Origins)
	healthHandler := handler.NewHealthHandler(db, d.Redis, hub)

	app := fiber.New(fiber.Config{
		AppName:      "sikayet-api",
		BodyLimit:    6 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.App.IsProduction()}))
	app.Use(logger.RequestID())
	app.Use(logger.Middleware())
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
		app.Get("/metrics", d.Metrics.Handler())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORS.Origins, ","),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization," + logger.RequestIDHeader,
		AllowCredentials: true,
	}))

	// Realtime relay
	app.Use("/ws", wsHandler.Upgrade())
	app.Get("/ws", wsHandler.Handle())

	api := app.Group("/api")
	api.Get("/health", healthHandler.Check)
	api.Get("/stats", adminHandler.PublicStats)

	required := authMW.Required()
	userOnly := authMW.RequireRoles(domain.RoleUser)
	companyOnly := authMW.CompanyOnly()
	approvedCompany := companyMW.RequireApprovedCompany()

	// Auth
	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/logout", required, authHandler.Logout)
	authRoutes.Get("/session", authMW.Optional(), authHandler.Session)
	authRoutes.Post("/verify-email/send", required, authHandler.SendVerification)
	authRoutes.Post("/verify-email", required, authHandler.VerifyEmail)
	authRoutes.Post("/2fa/setup", required, authHandler.SetupTwoFactor)
	authRoutes.Post("/2fa/enable", required, authHandler.EnableTwoFactor)
	authRoutes.Post("/2fa/disable", required, authHandler.DisableTwoFactor)

	// Directory
	api.Get("/sectors", companyHandler.ListSectors)
	api.Get("/companies", companyHandler.List)
	api.Get("/companies/:slug", authMW.Optional(), companyHandler.Get)
	api.Get("/companies/:slug/reviews", companyHandler.Reviews)

	// Complaints
	complaintRoutes := api.Group("/complaints")
	complaintRoutes.Get("/", complaintHandler.List)
	complaintRoutes.Post("/", userOnly, complaintHandler.Create)
	complaintRoutes.Get("/:id", authMW.Optional(), complaintHandler.Get)
	complaintRoutes.Post("/:id/response", companyOnly, approvedCompany, complaintHandler.Respond)
	complaintRoutes.Post("/:id/solve", required, complaintHandler.Solve)
	complaintRoutes.Post("/:id/reviews", required, complaintHandler.Review)

	// Me
	api.Get("/me/complaints", required, complaintHandler.Mine)
	api.Get("/me/verification-requests", required, requestHandler.MyVerifications)

	// Company representative
	// guards sit on each route: a "/company" group prefix would also match "/company-requests"
	companyMember := authMW.RequireRoles(domain.RoleCompany, domain.RoleCompanyPending)
	api.Get("/company/profile", companyMember, companyHandler.MyCompany)
	api.Patch("/company/profile", companyOnly, approvedCompany, companyHandler.UpdateProfile)
	api.Get("/company/complaints", companyOnly, complaintHandler.ForCompany)

	// Requests
	api.Post("/verification-requests", userOnly, requestHandler.CreateVerification)
	api.Post("/company-requests", required, requestHandler.CreateCompanyRequest)

	// Notifications
	notificationRoutes := api.Group("/notifications", required)
	notificationRoutes.Get("/", notificationHandler.List)
	notificationRoutes.Get("/count", notificationHandler.Count)
	notificationRoutes.Post("/read-all", notificationHandler.MarkAllAsRead)
	notificationRoutes.Patch("/:id/read", notificationHandler.MarkAsRead)
	notificationRoutes.Delete("/:id", notificationHandler.Delete)

	// Uploads
	uploadRoutes := api.Group("/uploads", required)
	uploadRoutes.Post("/presign", uploadHandler.Presign)
	uploadRoutes.Post("/confirm", uploadHandler.Confirm)
	uploadRoutes.Delete("/*", uploadHandler.Delete)

	// Support
	supportRoutes := api.Group("/support", authMW.RequireRoles(domain.RoleCompany, domain.RoleAdmin))
	supportRoutes.Get("/unread", supportHandler.Unread)
	supportRoutes.Get("/tickets", supportHandler.ListTickets)
	supportRoutes.Post("/tickets", companyOnly, supportHandler.CreateTicket)
	supportRoutes.Get("/tickets/:id/messages", supportHandler.Messages)
	supportRoutes.Post("/tickets/:id/messages", supportHandler.SendMessage)

	// Admin
	adminRoutes := api.Group("/admin", authMW.AdminOnly())

	adminRoutes.Get("/stats", adminHandler.Stats)

	adminRoutes.Get("/complaints", complaintHandler.AdminList)
	adminRoutes.Post("/complaints/:id/approve", complaintHandler.Approve)
	adminRoutes.Post("/complaints/:id/reject", complaintHandler.Reject)
	adminRoutes.Delete("/complaints/:id", complaintHandler.Delete)

	adminRoutes.Get("/verification-requests", requestHandler.ListVerifications)
	adminRoutes.Post("/verification-requests/:id/approve", requestHandler.ApproveVerification)
	adminRoutes.Post("/verification-requests/:id/reject", requestHandler.RejectVerification)
	adminRoutes.Get("/company-requests", requestHandler.ListCompanyRequests)
	adminRoutes.Post("/company-requests/:id/approve", requestHandler.ApproveCompanyRequest)
	adminRoutes.Post("/company-requests/:id/reject", requestHandler.RejectCompanyRequest)

	adminRoutes.Get("/companies", adminHandler.ListCompanies)
	adminRoutes.Post("/companies", adminHandler.CreateCompany)
	adminRoutes.Post("/companies/import", importHandler.ImportCompanies)
	adminRoutes.Get("/companies/import/template", importHandler.DownloadTemplate)
	adminRoutes.Patch("/companies/:id", adminHandler.UpdateCompany)
	adminRoutes.Patch("/companies/:id/status", adminHandler.UpdateCompanyStatus)
	adminRoutes.Delete("/companies/:id", adminHandler.DeleteCompany)

	adminRoutes.Post("/sectors", adminHandler.CreateSector)
	adminRoutes.Patch("/sectors/:id", adminHandler.UpdateSector)
	adminRoutes.Delete("/sectors/:id", adminHandler.DeleteSector)

	adminRoutes.Get("/users", adminHandler.ListUsers)
	adminRoutes.Patch("/users/:id/role", adminHandler.UpdateUserRole)
	adminRoutes.Patch("/users/:id/active", adminHandler.UpdateUserActive)
	adminRoutes.Delete("/users/:id", adminHandler.DeleteUser)

	adminRoutes.Get("/settings/smtp", settingsHandler.GetSMTP)
	adminRoutes.Put("/settings/smtp", settingsHandler.UpdateSMTP)
	adminRoutes.Post("/settings/smtp/test", settingsHandler.TestSMTP)

	adminRoutes.Patch("/support/tickets/:id/status", supportHandler.UpdateStatus)

	return &Server{App: app, Hub: hub}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	errCode, message := "INTERNAL_ERROR", "Beklenmeyen bir hata oluştu"
	switch code {
	case fiber.StatusNotFound:
		errCode, message = "NOT_FOUND", "İstenen kaynak bulunamadı"
	case fiber.StatusMethodNotAllowed:
		errCode, message = "METHOD_NOT_ALLOWED", "Bu yöntem desteklenmiyor"
	case fiber.StatusRequestEntityTooLarge:
		errCode, message = "PAYLOAD_TOO_LARGE", "İstek gövdesi çok büyük"
	case fiber.StatusUpgradeRequired:
		errCode, message = "UPGRADE_REQUIRED", "WebSocket bağlantısı gerekli"
	}
	if code >= fiber.StatusInternalServerError {
		logger.FromCtx(c).Error("Unhandled error", zap.Error(err))
	}
	return c.Status(code).JSON(dto.ErrorResponse(errCode, message))
}
