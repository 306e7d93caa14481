package routes

import (
	"schoolfees_go/controllers"
	"schoolfees_go/middleware"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles what the routes need.
type Handlers struct {
	Auth    *middleware.Auth
	AuthCtl *controllers.AuthController
	Fees    *controllers.FeeController
	Health  *controllers.HealthController
}

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, h Handlers) {
	app.Get("/health", h.Health.GetHealthStatus)

	api := app.Group("/api")

	// Authentication routes (no middleware)
	auth := api.Group("/auth")
	auth.Post("/login", h.AuthCtl.Login)

	// Protected routes (require authentication)
	protected := api.Group("/", h.Auth.JWTMiddleware())
	protected.Get("/profile", h.AuthCtl.GetProfile)

	fees := protected.Group("/fees")
	read := middleware.RequireFeeReader()
	manage := middleware.RequireFeeManager()

	// Configuration
	fees.Get("/config", read, h.Fees.GetConfig)
	fees.Put("/config", manage, h.Fees.SaveConfig)
	fees.Get("/grades", read, h.Fees.GetGrades)

	// Reports
	fees.Get("/dashboard", read, h.Fees.GetDashboard)
	fees.Get("/stats/monthly", read, h.Fees.GetMonthlyStats)
	fees.Get("/export", read, h.Fees.Export)

	// Student ledgers
	students := fees.Group("/students")
	students.Get("/", read, h.Fees.ListStudents)
	students.Get("/:studentId", read, h.Fees.GetStudentLedger)
	students.Get("/:studentId/monthly-due", read, h.Fees.GetMonthlyDue)
	students.Delete("/:studentId", manage, h.Fees.DeleteLedger)
	students.Post("/:studentId/generate", manage, h.Fees.GenerateLedger)
	students.Put("/:studentId/components", manage, h.Fees.UpdateComponents)

	payments := students.Group("/:studentId/payments", manage)
	payments.Post("/uniform", h.Fees.PayUniform)
	payments.Post("/registration", h.Fees.PayRegistration)
	payments.Post("/tuition/monthly", h.Fees.PayTuitionMonth)
	payments.Post("/tuition/annual", h.Fees.PayTuitionAnnual)
	payments.Post("/transportation/monthly", h.Fees.PayTransportationMonth)

	students.Post("/:studentId/discount", manage, h.Fees.ApplyDiscount)
	students.Delete("/:studentId/discount", manage, h.Fees.RemoveDiscount)

	// Bulk operations
	bulk := fees.Group("/bulk", manage)
	bulk.Post("/generate", h.Fees.BulkGenerate)
	bulk.Put("/apply-config", h.Fees.BulkApplyConfig)
	bulk.Delete("/", h.Fees.BulkDelete)
}

// NotFound is the catch-all handler registered after every route.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":  "Route not found",
		"path":   c.Path(),
		"method": c.Method(),
	})
}
