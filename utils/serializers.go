package utils

import (
	"schoolfees_go/models"
	"time"

	"github.com/shopspring/decimal"
)

// Compact representations used across APIs

type UserShort struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role"`
	SchoolID uint   `json:"school_id"`
}

func ToUserShort(u models.User) UserShort {
	return UserShort{ID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role, SchoolID: u.SchoolID}
}

// InstallmentProgress counts the installments of a track by state.
type InstallmentProgress struct {
	Total   int `json:"total"`
	Paid    int `json:"paid"`
	Partial int `json:"partial"`
	Overdue int `json:"overdue"`
}

// LedgerSummary is the list view of a ledger, without schedules.
type LedgerSummary struct {
	ID              uint                    `json:"id"`
	StudentID       uint                    `json:"student_id"`
	StudentName     string                  `json:"student_name"`
	AcademicYear    string                  `json:"academic_year"`
	Grade           string                  `json:"grade"`
	GradeCategory   models.GradeCategory    `json:"grade_category"`
	PaymentType     models.PaymentType      `json:"payment_type"`
	Totals          models.ComponentAmounts `json:"totals"`
	Paid            models.ComponentAmounts `json:"paid"`
	Remaining       models.ComponentAmounts `json:"remaining"`
	ComponentStatus models.ComponentStatus  `json:"component_status"`
	OverallStatus   models.Status           `json:"overall_status"`
	HasDiscount     bool                    `json:"has_discount"`
	DiscountAmount  decimal.Decimal         `json:"discount_amount"`
	UsesTransport   bool                    `json:"uses_transport"`
	Tuition         InstallmentProgress     `json:"tuition"`
	Transportation  InstallmentProgress     `json:"transportation"`
	NextDueDate     *time.Time              `json:"next_due_date,omitempty"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

func progress(schedule []models.Installment) InstallmentProgress {
	p := InstallmentProgress{Total: len(schedule)}
	for _, inst := range schedule {
		switch inst.Status {
		case models.StatusPaid:
			p.Paid++
		case models.StatusPartial:
			p.Partial++
		case models.StatusOverdue:
			p.Overdue++
		}
	}
	return p
}

// nextDue is the earliest due date among installments not fully paid.
func nextDue(schedules ...[]models.Installment) *time.Time {
	var next *time.Time
	for _, s := range schedules {
		for i := range s {
			if s[i].Status == models.StatusPaid {
				continue
			}
			if next == nil || s[i].DueDate.Before(*next) {
				d := s[i].DueDate
				next = &d
			}
		}
	}
	return next
}

func ToLedgerSummary(l *models.StudentFeeLedger) LedgerSummary {
	var transport []models.Installment
	if l.Transportation.Using {
		transport = l.Transportation.Schedule
	}
	return LedgerSummary{
		ID:              l.ID,
		StudentID:       l.StudentID,
		StudentName:     l.StudentName,
		AcademicYear:    l.AcademicYear,
		Grade:           l.Grade,
		GradeCategory:   l.GradeCategory,
		PaymentType:     l.PaymentType,
		Totals:          l.Totals,
		Paid:            l.Paid,
		Remaining:       l.Remaining,
		ComponentStatus: l.ComponentStatus,
		OverallStatus:   l.OverallStatus,
		HasDiscount:     l.Discount.Enabled,
		DiscountAmount:  l.Discount.Amount,
		UsesTransport:   l.Transportation.Using,
		Tuition:         progress(l.Tuition.Schedule),
		Transportation:  progress(transport),
		NextDueDate:     nextDue(l.Tuition.Schedule, transport),
		UpdatedAt:       l.UpdatedAt,
	}
}
