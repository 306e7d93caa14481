package ledger

import (
	"schoolfees_go/models"
	"time"
)

// InstallmentStatus derives the status of one installment. Only an
// installment with nothing paid can be overdue; a partial payment keeps it
// partial after the grace window closes.
func InstallmentStatus(inst models.Installment, graceDays int, now time.Time) models.Status {
	switch {
	case inst.PaidAmount.GreaterThanOrEqual(inst.Amount):
		return models.StatusPaid
	case inst.PaidAmount.IsPositive():
		return models.StatusPartial
	case isPastGrace(inst.DueDate, graceDays, now):
		return models.StatusOverdue
	}
	return models.StatusPending
}

// isPastGrace compares calendar days in UTC: due 15th with 5 days of grace
// turns overdue on the 21st.
func isPastGrace(due time.Time, graceDays int, now time.Time) bool {
	if graceDays < 0 {
		graceDays = 0
	}
	n := now.UTC()
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	d := due.UTC()
	limit := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, graceDays)
	return today.After(limit)
}

// TrackStatus folds installment statuses into a component status.
func TrackStatus(schedule []models.Installment, applicable bool) models.Status {
	if !applicable {
		return models.StatusNotApplicable
	}
	allPaid, anyOverdue, anyProgress := true, false, false
	for _, inst := range schedule {
		switch inst.Status {
		case models.StatusPaid:
			anyProgress = true
		case models.StatusPartial:
			anyProgress = true
			allPaid = false
		case models.StatusOverdue:
			anyOverdue = true
			allPaid = false
		default:
			allPaid = false
		}
	}
	switch {
	case allPaid:
		return models.StatusCompleted
	case anyOverdue:
		return models.StatusOverdue
	case anyProgress:
		return models.StatusPartial
	}
	return models.StatusPending
}

// LumpSumStatus is binary: a lump sum is either settled or not.
func LumpSumStatus(fee models.LumpSumFee) models.Status {
	switch {
	case !fee.Applicable:
		return models.StatusNotApplicable
	case fee.IsPaid:
		return models.StatusCompleted
	}
	return models.StatusPending
}

// OverallStatus combines the applicable component statuses. Mixed
// completion counts as partial.
func OverallStatus(cs models.ComponentStatus) models.Status {
	statuses := []models.Status{cs.Tuition, cs.RegistrationFee, cs.Uniform, cs.Transportation}
	allCompleted, anyOverdue, anyProgress, applicable := true, false, false, 0
	for _, s := range statuses {
		if s == models.StatusNotApplicable || s == "" {
			continue
		}
		applicable++
		switch s {
		case models.StatusCompleted:
			anyProgress = true
		case models.StatusPartial:
			anyProgress = true
			allCompleted = false
		case models.StatusOverdue:
			anyOverdue = true
			allCompleted = false
		default:
			allCompleted = false
		}
	}
	switch {
	case applicable > 0 && allCompleted:
		return models.StatusCompleted
	case anyOverdue:
		return models.StatusOverdue
	case anyProgress:
		return models.StatusPartial
	}
	return models.StatusPending
}

// refreshStatuses rewrites every installment, component and overall status in place.
func refreshStatuses(l *models.StudentFeeLedger, graceDays int, now time.Time) {
	for i := range l.Tuition.Schedule {
		l.Tuition.Schedule[i].Status = InstallmentStatus(l.Tuition.Schedule[i], graceDays, now)
	}
	for i := range l.Transportation.Schedule {
		l.Transportation.Schedule[i].Status = InstallmentStatus(l.Transportation.Schedule[i], graceDays, now)
	}
	l.ComponentStatus = models.ComponentStatus{
		Tuition:         TrackStatus(l.Tuition.Schedule, true),
		RegistrationFee: LumpSumStatus(l.RegistrationFee),
		Uniform:         LumpSumStatus(l.Uniform),
		Transportation:  TrackStatus(l.Transportation.Schedule, l.Transportation.Using),
	}
	if l.AnnualPayment.IsPaid {
		l.ComponentStatus.Tuition = models.StatusCompleted
	}
	l.OverallStatus = OverallStatus(l.ComponentStatus)
}

// RecomputeStatuses returns a copy of l with aggregates and statuses derived
// for the given grace period and instant. It does not touch l and gives the
// same result when applied twice.
func RecomputeStatuses(l *models.StudentFeeLedger, graceDays int, now time.Time) *models.StudentFeeLedger {
	out := clone(l)
	recomputeAmounts(out)
	refreshStatuses(out, graceDays, now)
	return out
}
