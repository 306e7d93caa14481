package ledger

import (
	"schoolfees_go/models"
	"time"

	"github.com/shopspring/decimal"
)

// Due days of month for each track.
const (
	TuitionDueDay   = 15
	TransportDueDay = 5
)

var monthNames = [12]string{
	"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
	"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
}

// MonthName returns the display name of a 1-based month.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// GenerateSchedule lays out totalMonths installments of monthlyAmount from
// startMonth onwards. Months after December fall in the second year of the
// academic year label. endMonth is accepted for symmetry with the pricing
// configuration; the walk length is totalMonths.
func GenerateSchedule(startMonth, endMonth, totalMonths int, monthlyAmount decimal.Decimal, academicYear string, dueDay int) ([]models.Installment, error) {
	startYear, err := models.ParseAcademicYear(academicYear)
	if err != nil {
		return nil, err
	}
	if startMonth < 1 || startMonth > 12 || endMonth < 1 || endMonth > 12 {
		return nil, models.ErrInvalidConfiguration.With("schedule months must be between 1 and 12")
	}
	if totalMonths < 1 || totalMonths > 12 {
		return nil, models.ErrInvalidConfiguration.With("schedule must cover 1 to 12 months, got %d", totalMonths)
	}

	out := make([]models.Installment, 0, totalMonths)
	for i := 0; i < totalMonths; i++ {
		month := (startMonth-1+i)%12 + 1
		year := startYear
		if startMonth-1+i >= 12 {
			year++
		}
		out = append(out, models.Installment{
			Month:      month,
			MonthName:  MonthName(month),
			DueDate:    dueDate(year, month, dueDay),
			Amount:     monthlyAmount,
			PaidAmount: decimal.Zero,
			Status:     models.StatusPending,
		})
	}
	return out, nil
}

// dueDate clamps day to the length of the month.
func dueDate(year, month, day int) time.Time {
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// buildSchedule generates a schedule whose amounts sum exactly to total.
func buildSchedule(ps models.PaymentSchedule, total decimal.Decimal, academicYear string, dueDay int) ([]models.Installment, error) {
	months := models.TotalMonthsBetween(ps.StartMonth, ps.EndMonth)
	inst, err := GenerateSchedule(ps.StartMonth, ps.EndMonth, months, decimal.Zero, academicYear, dueDay)
	if err != nil {
		return nil, err
	}
	for i, amount := range spread(total, len(inst)) {
		inst[i].Amount = amount
	}
	return inst, nil
}
