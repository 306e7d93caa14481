package controllers

import (
	"schoolfees_go/models"

	"github.com/gofiber/fiber/v2"
)

// GetConfig returns the active pricing configuration. An unconfigured year
// answers with defaults and exists=false so the form can be prefilled.
func (fc *FeeController) GetConfig(c *fiber.Ctx) error {
	schoolID, year, err := yearScope(c)
	if err != nil {
		return respondError(c, err)
	}
	cfg, exists, err := fc.fees.ConfigurationOrDefault(c.UserContext(), schoolID, year)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"configuration": cfg,
		"exists":        exists,
	})
}

// SaveConfig creates or replaces the active pricing configuration
func (fc *FeeController) SaveConfig(c *fiber.Ctx) error {
	schoolID, year, err := yearScope(c)
	if err != nil {
		return respondError(c, err)
	}
	var cfg models.PricingConfiguration
	if err := c.BodyParser(&cfg); err != nil {
		return respondError(c, &invalidRequest{message: "Invalid request body"})
	}
	saved, err := fc.fees.SaveConfiguration(c.UserContext(), schoolID, year, &cfg, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":       "Configuration saved",
		"configuration": saved,
	})
}

// GetGrades lists the known grade labels with their category
func (fc *FeeController) GetGrades(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"grades": models.KnownGrades,
	})
}
