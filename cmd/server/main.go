package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fibra-backend/internal/activity"
	"fibra-backend/internal/admin"
	"fibra-backend/internal/audit"
	"fibra-backend/internal/auth"
	"fibra-backend/internal/company"
	"fibra-backend/internal/config"
	"fibra-backend/internal/database"
	"fibra-backend/internal/expense"
	"fibra-backend/internal/lock"
	"fibra-backend/internal/middleware"
	"fibra-backend/internal/models"
	"fibra-backend/internal/personnel"
	"fibra-backend/internal/production"
	"fibra-backend/internal/segment"
	"fibra-backend/internal/statement"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger := config.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	config.SetLogLevel(cfg.LogLevel)
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	if err := database.Init(cfg); err != nil {
		logger.WithError(err).Fatal("database init failed")
	}
	if created, err := auth.EnsureAdmin(database.DB, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.WithError(err).Fatal("bootstrap admin failed")
	} else if created {
		logger.WithField("username", cfg.AdminUsername).Info("bootstrap admin created")
	}

	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisAddress != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		r, err := lock.Connect(ctx, cfg.RedisAddress)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, statement locks are local to this process")
		} else {
			locker = r
			logger.WithField("addr", cfg.RedisAddress).Info("redis statement locks enabled")
		}
	}

	engine := statement.NewEngine(database.DB, cfg.StatementPrefix)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(corsOrigins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition, " + middleware.HeaderRequestID,
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler())
	api.Post("/auth/login", auth.LoginHandler(cfg))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))
	protected.Get("/auth/me", auth.MeHandler())

	write := auth.CanWrite()

	// Companies and workers
	protected.Get("/companies", company.ListCompaniesHandler())
	protected.Get("/companies/:id", company.GetCompanyHandler())
	protected.Post("/companies", write, company.CreateCompanyHandler())
	protected.Put("/companies/:id", write, company.UpdateCompanyHandler())
	protected.Delete("/companies/:id", write, company.DeleteCompanyHandler())

	protected.Get("/workers", personnel.ListWorkersHandler())
	protected.Post("/workers", write, personnel.CreateWorkerHandler())
	protected.Put("/workers/:id", write, personnel.UpdateWorkerHandler())
	protected.Delete("/workers/:id", write, personnel.DeleteWorkerHandler())

	// Rates and segments
	protected.Get("/activities", activity.ListActivitiesHandler())
	protected.Post("/activities", write, activity.CreateActivityHandler())
	protected.Put("/activities/:id", write, activity.UpdateActivityHandler())
	protected.Delete("/activities/:id", write, activity.DeleteActivityHandler())

	protected.Get("/segments", segment.ListSegmentsHandler())
	protected.Post("/segments", write, segment.CreateSegmentHandler())
	protected.Put("/segments/:id", write, segment.UpdateSegmentHandler())
	protected.Delete("/segments/:id", write, segment.DeleteSegmentHandler())

	// Production and expenses
	protected.Get("/production/summary", production.SummaryHandler())
	protected.Get("/production/summary/export", production.SummaryExportHandler())
	protected.Get("/production", production.ListProductionHandler())
	protected.Post("/production", write, production.CreateProductionHandler())
	protected.Put("/production/:id", write, production.UpdateProductionHandler())
	protected.Delete("/production/:id", write, production.DeleteProductionHandler())

	protected.Get("/expenses", expense.ListExpensesHandler())
	protected.Post("/expenses", write, expense.CreateExpenseHandler())
	protected.Delete("/expenses/:id", write, expense.DeleteExpenseHandler())

	// Payment statements
	protected.Get("/statements/eligible", statement.EligibleHandler(engine))
	protected.Post("/statements/preview", statement.PreviewHandler(engine))
	protected.Post("/statements", write, statement.CommitHandler(engine, locker))
	protected.Get("/statements", statement.ListHandler(engine))
	protected.Get("/statements/:id", statement.GetHandler(engine))
	protected.Get("/statements/:id/export", statement.ExportHandler(engine, cfg.Issuer))

	// Admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))
	adminRoutes.Get("/users", admin.ListUsersHandler())
	adminRoutes.Post("/users", admin.CreateUserHandler())
	adminRoutes.Put("/users/:id", admin.UpdateUserHandler())
	adminRoutes.Delete("/users/:id", admin.DeleteUserHandler())
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler())

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Error("shutdown")
		}
	}()

	logger.WithField("port", cfg.HTTPPort).Info("server listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
