package controllers

import (
	"schoolfees_go/models"
	"schoolfees_go/services"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GetDashboard returns collection totals for the year
func (fc *FeeController) GetDashboard(c *fiber.Ctx) error {
	schoolID, year, err := yearScope(c)
	if err != nil {
		return respondError(c, err)
	}
	d, err := fc.fees.Dashboard(c.UserContext(), schoolID, year)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"dashboard": d})
}

// GetMonthlyStats returns expected and collected amounts per schedule month
func (fc *FeeController) GetMonthlyStats(c *fiber.Ctx) error {
	schoolID, year, err := yearScope(c)
	if err != nil {
		return respondError(c, err)
	}
	stats, err := fc.fees.MonthlyStats(c.UserContext(), schoolID, year)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"academic_year": year,
		"months":        stats,
	})
}

// Export streams the ledger workbook, or with upload=true stores it and
// returns a download link.
func (fc *FeeController) Export(c *fiber.Ctx) error {
	schoolID, year, err := yearScope(c)
	if err != nil {
		return respondError(c, err)
	}
	filter := services.ExportFilter{
		Status: models.Status(c.Query("status")),
		Grade:  c.Query("grade"),
	}
	upload := c.QueryBool("upload", false)
	if upload && !fc.export.CanUpload() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Export storage is not configured",
		})
	}

	res, err := fc.export.Export(c.UserContext(), schoolID, year, filter, upload, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	if upload {
		return c.JSON(fiber.Map{
			"message": "Export uploaded",
			"export":  res,
		})
	}

	c.Attachment(res.FileName)
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(res.Data)
}
