package controllers

import (
	"schoolfees_go/middleware"
	"schoolfees_go/models"
	"schoolfees_go/services"
	"schoolfees_go/services/ledger"
	"schoolfees_go/utils"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// FeeController serves the /api/fees routes.
type FeeController struct {
	fees   *services.FeeService
	export *services.FeeExportService
}

func NewFeeController(fees *services.FeeService, export *services.FeeExportService) *FeeController {
	if export == nil {
		export = services.NewFeeExportService(fees)
	}
	return &FeeController{fees: fees, export: export}
}

// PaymentRequest is the payment metadata shared by every payment route.
type PaymentRequest struct {
	Method  models.PaymentMethod `json:"method" validate:"omitempty,oneof=cash check bank_transfer online"`
	Date    *time.Time           `json:"date"`
	Receipt string               `json:"receipt" validate:"max=100"`
	Notes   string               `json:"notes" validate:"max=1000"`
}

type InstallmentPaymentRequest struct {
	PaymentRequest
	MonthIndex *int            `json:"month_index" validate:"required,min=0,max=11"`
	Amount     decimal.Decimal `json:"amount"`
}

type AnnualPaymentRequest struct {
	PaymentRequest
	// DiscountAmount overrides the configured annual discount when set.
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
}

type GenerateRequest struct {
	HasUniform             bool   `json:"has_uniform"`
	TransportTier          string `json:"transport_tier" validate:"omitempty,oneof=none close far"`
	IncludeRegistrationFee *bool  `json:"include_registration_fee"`
}

type BulkGenerateRequest struct {
	GenerateRequest
	StudentIDs []uint `json:"student_ids" validate:"omitempty,dive,gt=0"`
}

type ComponentsRequest struct {
	HasUniform         bool   `json:"has_uniform"`
	TransportTier      string `json:"transport_tier" validate:"omitempty,oneof=none close far"`
	HasRegistrationFee bool   `json:"has_registration_fee"`
}

type DiscountRequest struct {
	Type       models.DiscountType `json:"type" validate:"required,oneof=monthly annual"`
	Percentage decimal.Decimal     `json:"percentage"`
	Notes      string              `json:"notes" validate:"max=1000"`
}

func transportTier(raw string) models.TransportTier {
	if raw == "none" {
		return models.TransportNone
	}
	return models.TransportTier(raw)
}

func (r GenerateRequest) options() ledger.GenerateOptions {
	opts := ledger.GenerateOptions{
		HasUniform:             r.HasUniform,
		TransportTier:          transportTier(r.TransportTier),
		IncludeRegistrationFee: true,
	}
	if r.IncludeRegistrationFee != nil {
		opts.IncludeRegistrationFee = *r.IncludeRegistrationFee
	}
	return opts
}

func (r PaymentRequest) payment(userID uint) ledger.Payment {
	p := ledger.Payment{
		Method:     r.Method,
		Receipt:    strings.TrimSpace(r.Receipt),
		Notes:      utils.SanitizeString(r.Notes),
		RecordedBy: userID,
	}
	if r.Date != nil {
		p.Date = *r.Date
	}
	return p
}

// yearScope resolves the school and the mandatory academicYear query parameter.
func yearScope(c *fiber.Ctx) (uint, string, error) {
	schoolID, err := middleware.SchoolScope(c)
	if err != nil {
		return 0, "", err
	}
	year := strings.TrimSpace(c.Query("academicYear"))
	if year == "" {
		return 0, "", fiber.NewError(fiber.StatusBadRequest, "academicYear query parameter is required")
	}
	if _, err := models.ParseAcademicYear(year); err != nil {
		return 0, "", err
	}
	return schoolID, year, nil
}

func ledgerKey(c *fiber.Ctx) (services.LedgerKey, error) {
	schoolID, year, err := yearScope(c)
	if err != nil {
		return services.LedgerKey{}, err
	}
	id, err := strconv.ParseUint(c.Params("studentId"), 10, 32)
	if err != nil || id == 0 {
		return services.LedgerKey{}, fiber.NewError(fiber.StatusBadRequest, "Invalid student ID")
	}
	return services.LedgerKey{SchoolID: schoolID, StudentID: uint(id), AcademicYear: year}, nil
}

func currentUserID(c *fiber.Ctx) uint {
	if claims, err := middleware.GetCurrentClaims(c); err == nil {
		return claims.UserID
	}
	return 0
}

// parseOptionalBody accepts an empty body for routes whose fields are all optional.
func parseOptionalBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return checkStruct(out)
	}
	return parseBody(c, out)
}

func ledgerResponse(c *fiber.Ctx, status int, message string, l *models.StudentFeeLedger) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"ledger":  l,
		"summary": utils.ToLedgerSummary(l),
	})
}

// ListStudents returns the students of the school with their ledger for the year
func (fc *FeeController) ListStudents(c *fiber.Ctx) error {
	schoolID, year, err := yearScope(c)
	if err != nil {
		return respondError(c, err)
	}
	filter := services.StudentListFilter{
		Grade:         c.Query("grade"),
		GradeCategory: models.GradeCategory(c.Query("gradeCategory")),
		Search:        c.Query("search"),
		Status:        models.Status(c.Query("status")),
	}
	rows, err := fc.fees.ListStudentsWithLedgers(c.UserContext(), schoolID, year, filter)
	if err != nil {
		return respondError(c, err)
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	total := len(rows)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return c.JSON(fiber.Map{
		"students": rows[start:end],
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetStudentLedger returns one ledger with statuses as of now
func (fc *FeeController) GetStudentLedger(c *fiber.Ctx) error {
	key, err := ledgerKey(c)
	if err != nil {
		return respondError(c, err)
	}
	l, err := fc.fees.GetLedger(c.UserContext(), key)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"ledger":  l,
		"summary": utils.ToLedgerSummary(l),
	})
}

// GetMonthlyDue returns what a student owes for one calendar month
func (fc *FeeController) GetMonthlyDue(c *fiber.Ctx) error {
	key, err := ledgerKey(c)
	if err != nil {
		return respondError(c, err)
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		return respondError(c, fiber.NewError(fiber.StatusBadRequest, "month query parameter must be 1-12"))
	}
	amount, err := fc.fees.MonthlyAmountDue(c.UserContext(), key, month)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"student_id":    key.StudentID,
		"academic_year": key.AcademicYear,
		"month":         month,
		"month_name":    ledger.MonthName(month),
		"amount":        amount,
	})
}

// GenerateLedger creates the ledger of one student
func (fc *FeeController) GenerateLedger(c *fiber.Ctx) error {
	key, err := ledgerKey(c)
	if err != nil {
		return respondError(c, err)
	}
	var req GenerateRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return respondError(c, err)
	}
	l, err := fc.fees.GenerateLedger(c.UserContext(), key, req.options(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return ledgerResponse(c, fiber.StatusCreated, "Fee ledger generated", l)
}

// UpdateComponents changes uniform, transport and registration applicability
func (fc *FeeController) UpdateComponents(c *fiber.Ctx) error {
	key, err := ledgerKey(c)
	if err != nil {
		return respondError(c, err)
	}
	var req ComponentsRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	l, err := fc.fees.ReconfigureComponents(c.UserContext(), key, ledger.ComponentOptions{
		HasUniform:         req.HasUniform,
		TransportTier:      transportTier(req.TransportTier),
		HasRegistrationFee: req.HasRegistrationFee,
	})
	if err != nil {
		return respondError(c, err)
	}
	return ledgerResponse(c, fiber.StatusOK, "Fee components updated", l)
}

func (fc *FeeController) recordLumpSum(c *fiber.Ctx, component models.LumpSumComponent) error {
	key, err := ledgerKey(c)
	if err != nil {
		return respondError(c, err)
	}
	var req PaymentRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return respondError(c, err)
	}
	l, err := fc.fees.RecordLumpSumPayment(c.UserContext(), key, component, req.payment(currentUserID(c)))
	if err != nil {
		return respondError(c, err)
	}
	return ledgerResponse(c, fiber.StatusOK, "Payment recorded", l)
}

// PayUniform settles the uniform fee
func (fc *FeeController) PayUniform(c *fiber.Ctx) error {
	return fc.recordLumpSum(c, models.ComponentUniform)
}

// PayRegistration settles the registration fee
func (fc *FeeController) PayRegistration(c *fiber.Ctx) error {
	return fc.recordLumpSum(c, models.ComponentRegistrationFee)
}

func (fc *FeeController) recordInstallment(c *fiber.Ctx, track models.Track) error {
	key, err := ledgerKey(c)
	if err != nil {
		return respondError(c, err)
	}
	var req InstallmentPaymentRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	l, err := fc.fees.RecordInstallmentPayment(c.UserContext(), key, track, *req.MonthIndex, req.Amount, req.payment(currentUserID(c)))
	if err != nil {
		return respondError(c, err)
	}
	return ledgerResponse(c, fiber.StatusOK, "Payment recorded", l)
}

// PayTuitionMonth records money against one tuition installment
func (fc *FeeController) PayTuitionMonth(c *fiber.Ctx) error {
	return fc.recordInstallment(c, models.TrackTuition)
}

// PayTransportationMonth records money against one transportation installment
func (fc *FeeController) PayTransportationMonth(c *fiber.Ctx) error {
	return fc.recordInstallment(c, models.TrackTransportation)
}

// PayTuitionAnnual settles the whole tuition in one payment
func (fc *FeeController) PayTuitionAnnual(c *fiber.Ctx) error {
	key, err := ledgerKey(c)
	if err != nil {
		return respondError(c, err)
	}
	var req AnnualPaymentRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return respondError(c, err)
	}
	l, err := fc.fees.RecordAnnualTuitionPayment(c.UserContext(), key, req.DiscountAmount, req.payment(currentUserID(c)))
	if err != nil {
		return respondError(c, err)
	}
	return ledgerResponse(c, fiber.StatusOK, "Annual tuition payment recorded", l)
}

// ApplyDiscount sets a percentage discount on tuition
func (fc *FeeController) ApplyDiscount(c *fiber.Ctx) error {
	key, err := ledgerKey(c)
	if err != nil {
		return respondError(c, err)
	}
	var req DiscountRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	l, err := fc.fees.ApplyDiscount(c.UserContext(), key, ledger.DiscountInput{
		Type:       req.Type,
		Percentage: req.Percentage,
		Notes:      utils.SanitizeString(req.Notes),
		AppliedBy:  currentUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return ledgerResponse(c, fiber.StatusOK, "Discount applied", l)
}

// RemoveDiscount restores the undiscounted tuition
func (fc *FeeController) RemoveDiscount(c *fiber.Ctx) error {
	key, err := ledgerKey(c)
	if err != nil {
		return respondError(c, err)
	}
	l, err := fc.fees.RemoveDiscount(c.UserContext(), key)
	if err != nil {
		return respondError(c, err)
	}
	return ledgerResponse(c, fiber.StatusOK, "Discount removed", l)
}

// DeleteLedger removes one student's ledger
func (fc *FeeController) DeleteLedger(c *fiber.Ctx) error {
	key, err := ledgerKey(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := fc.fees.DeleteLedger(c.UserContext(), key); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Fee ledger deleted"})
}

// BulkGenerate creates ledgers for many students at once
func (fc *FeeController) BulkGenerate(c *fiber.Ctx) error {
	schoolID, year, err := yearScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var req BulkGenerateRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return respondError(c, err)
	}
	res, err := fc.fees.BulkGenerate(c.UserContext(), schoolID, year, req.StudentIDs, req.options(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Bulk generation finished",
		"result":  res,
	})
}

// BulkApplyConfig reprices existing ledgers from the active configuration
func (fc *FeeController) BulkApplyConfig(c *fiber.Ctx) error {
	schoolID, year, err := yearScope(c)
	if err != nil {
		return respondError(c, err)
	}
	onlyUnpaid := c.QueryBool("onlyUnpaid", true)
	res, err := fc.fees.ApplyConfigurationToLedgers(c.UserContext(), schoolID, year, onlyUnpaid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":     "Configuration applied",
		"only_unpaid": onlyUnpaid,
		"result":      res,
	})
}

// BulkDelete removes every ledger of the year
func (fc *FeeController) BulkDelete(c *fiber.Ctx) error {
	schoolID, year, err := yearScope(c)
	if err != nil {
		return respondError(c, err)
	}
	res, err := fc.fees.DeleteAllLedgers(c.UserContext(), schoolID, year)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Fee ledgers deleted",
		"result":  res,
	})
}
