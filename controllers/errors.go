package controllers

import (
	"schoolfees_go/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var validate = validator.New()

// StatusForFeeError maps a ledger failure kind to an HTTP status.
func StatusForFeeError(kind models.FeeErrorKind) int {
	switch kind {
	case models.KindLedgerNotFound, models.KindStudentNotFound,
		models.KindInstallmentNotFound, models.KindConfigurationMissing:
		return fiber.StatusNotFound
	case models.KindAlreadyExists, models.KindAlreadyPaid, models.KindAnnualAlreadyPaid,
		models.KindComponentAlreadyPaid, models.KindTierLockedByPayment, models.KindVersionConflict:
		return fiber.StatusConflict
	}
	return fiber.StatusBadRequest
}

// respondError writes err as JSON. Fee errors keep their kind so clients can
// branch on it; anything else is logged and reported as a 500.
func respondError(c *fiber.Ctx, err error) error {
	var fe *models.FeeError
	if errors.As(err, &fe) {
		return c.Status(StatusForFeeError(fe.Kind)).JSON(fiber.Map{
			"error":  fe.Error(),
			"kind":   fe.Kind,
			"detail": fe.Detail,
		})
	}
	var bad *invalidRequest
	if errors.As(err, &bad) {
		body := fiber.Map{"error": bad.message}
		if len(bad.fields) > 0 {
			body["fields"] = bad.fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	logrus.WithError(err).WithFields(logrus.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.Locals("request_id"),
	}).Error("Fee request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

// invalidRequest reports a body that failed to decode or validate.
type invalidRequest struct {
	message string
	fields  map[string]string
}

func (e *invalidRequest) Error() string { return e.message }

// parseBody decodes and validates a request body.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return &invalidRequest{message: "Invalid request body"}
	}
	return checkStruct(out)
}

func checkStruct(out interface{}) error {
	err := validate.Struct(out)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return &invalidRequest{message: "Invalid input"}
	}
	fields := make(map[string]string, len(ve))
	for _, fieldErr := range ve {
		fields[fieldErr.Field()] = fieldErr.Tag()
	}
	return &invalidRequest{message: "Validation failed", fields: fields}
}
