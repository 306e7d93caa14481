package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"schoolfees_go/config"
	"schoolfees_go/controllers"
	"schoolfees_go/database"
	"schoolfees_go/database/seeders"
	"schoolfees_go/middleware"
	"schoolfees_go/routes"
	"schoolfees_go/services"
	"schoolfees_go/storage"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func init() {
	// Load configuration
	config.LoadConfig()

	// Initialize logging
	setupLogging(config.AppConfig)

	// Connect to database
	database.Connect()

	if config.AppConfig.SeedDemoData {
		seeders.SeedAll(database.GetDB())
	}
}

func main() {
	cfg := config.AppConfig
	db := database.GetDB()

	ledgers := storage.NewGormLedgerStore(db)
	pricing := storage.NewGormPricingStore(db)
	students := storage.NewGormStudentDirectory(db)
	users := storage.NewGormUserStore(db)

	feeService := services.NewFeeService(ledgers, pricing, students)
	feeService.SetReportCache(services.NewReportCache(database.GetRedisClient(), cfg.ReportCacheTTL))
	feeService.SetRetryPolicy(cfg.LedgerRetryAttempts, 50*time.Millisecond)
	feeService.SetDefaultGracePeriod(cfg.DefaultGracePeriod)

	exportService := services.NewFeeExportService(feeService)
	if cfg.ExportsEnabled() {
		s3Service, err := storage.NewStorageService(context.Background(), cfg)
		if err != nil {
			logrus.WithError(err).Warn("S3 exports disabled")
		} else {
			exportService.SetUploader(s3Service, storage.NewGormExportStore(db))
		}
	}

	var sweeper *services.OverdueSweeper
	if cfg.OverdueSweepCron != "" {
		sweeper = services.NewOverdueSweeper(feeService, pricing)
		if err := sweeper.Start(cfg.OverdueSweepCron); err != nil {
			log.Fatal("Invalid OVERDUE_SWEEP_CRON:", err)
		}
	}

	healthService := services.NewHealthService("", "")
	healthService.SetDependencies(db, database.GetRedisClient(), cfg)

	auth := middleware.NewAuth(cfg.JWTSecret, cfg.JWTExpiresIn, users)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    4 * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))
	app.Use(middleware.LoggerMiddleware())

	routes.SetupRoutes(app, routes.Handlers{
		Auth:    auth,
		AuthCtl: controllers.NewAuthController(auth, users),
		Fees:    controllers.NewFeeController(feeService, exportService),
		Health:  controllers.NewHealthController(healthService),
	})
	app.Use(routes.NotFound)

	go func() {
		addr := ":" + cfg.Port
		log.Printf("🚀 Server starting on port %s", cfg.Port)
		log.Printf("🌍 Environment: %s", cfg.AppEnv)
		if err := app.Listen(addr); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down")
	if sweeper != nil {
		sweeper.Stop()
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
	database.Close()
}

// setupLogging configures the logging system
func setupLogging(cfg *config.Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	// Log to stdout in development, to LOG_FILE otherwise
	if cfg.AppEnv == "development" || cfg.LogFile == "" {
		logrus.SetOutput(os.Stdout)
		return
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		log.Printf("Warning: Could not create log directory: %v", err)
	}
	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		logrus.SetOutput(file)
	}
}

// customErrorHandler handles application errors
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	logrus.WithFields(logrus.Fields{
		"error":      err.Error(),
		"path":       c.Path(),
		"method":     c.Method(),
		"ip":         c.IP(),
		"status":     code,
		"request_id": middleware.RequestID(c),
	}).Error("Request error")

	return c.Status(code).JSON(fiber.Map{
		"error":  message,
		"code":   code,
		"path":   c.Path(),
		"method": c.Method(),
	})
}
