package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Status values shared by installments, components and the ledger as a whole.
type Status string

const (
	StatusNotApplicable Status = "not_applicable"
	StatusPending       Status = "pending"
	StatusPartial       Status = "partial"
	StatusPaid          Status = "paid"
	StatusCompleted     Status = "completed"
	StatusOverdue       Status = "overdue"
)

// StatusNoRecord is a listing filter for students without a ledger; no ledger carries it.
const StatusNoRecord Status = "no_record"

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCheck        PaymentMethod = "check"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodOnline       PaymentMethod = "online"
)

// IsValid reports whether m is an accepted payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodCheck, MethodBankTransfer, MethodOnline:
		return true
	}
	return false
}

type PaymentType string

const (
	PaymentMonthly PaymentType = "monthly"
	PaymentAnnual  PaymentType = "annual"
)

type DiscountType string

const (
	DiscountMonthly DiscountType = "monthly"
	DiscountAnnual  DiscountType = "annual"
)

// Track is a scheduled component.
type Track string

const (
	TrackTuition        Track = "tuition"
	TrackTransportation Track = "transportation"
)

// LumpSumComponent is a component settled in one payment.
type LumpSumComponent string

const (
	ComponentUniform         LumpSumComponent = "uniform"
	ComponentRegistrationFee LumpSumComponent = "registration_fee"
)

// PaymentMeta records who took a payment, when and how.
type PaymentMeta struct {
	Date       *time.Time    `json:"date,omitempty"`
	Method     PaymentMethod `json:"method,omitempty" gorm:"size:20"`
	Receipt    string        `json:"receipt,omitempty" gorm:"size:100"`
	Notes      string        `json:"notes,omitempty" gorm:"type:text"`
	RecordedBy uint          `json:"recorded_by,omitempty"`
}

// Installment is one month of a tuition or transportation schedule.
type Installment struct {
	Month      int             `json:"month"`
	MonthName  string          `json:"month_name"`
	DueDate    time.Time       `json:"due_date"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Status     Status          `json:"status"`
	Payment    PaymentMeta     `json:"payment"`
}

// Outstanding is what is left to collect on the installment, never negative.
func (i Installment) Outstanding() decimal.Decimal {
	rest := i.Amount.Sub(i.PaidAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

type TuitionFees struct {
	BaseAmount    decimal.Decimal                  `json:"base_amount" gorm:"type:decimal(12,2);default:0"`
	AnnualAmount  decimal.Decimal                  `json:"annual_amount" gorm:"type:decimal(12,2);default:0"`
	MonthlyAmount decimal.Decimal                  `json:"monthly_amount" gorm:"type:decimal(12,2);default:0"`
	Schedule      datatypes.JSONSlice[Installment] `json:"schedule"`
}

type LumpSumFee struct {
	Applicable bool            `json:"applicable"`
	Price      decimal.Decimal `json:"price" gorm:"type:decimal(12,2);default:0"`
	IsPaid     bool            `json:"is_paid"`
	Payment    PaymentMeta     `json:"payment" gorm:"embedded;embeddedPrefix:payment_"`
}

type TransportationFees struct {
	Using        bool                             `json:"using"`
	Tier         TransportTier                    `json:"tier" gorm:"size:10"`
	MonthlyPrice decimal.Decimal                  `json:"monthly_price" gorm:"type:decimal(12,2);default:0"`
	TotalAmount  decimal.Decimal                  `json:"total_amount" gorm:"type:decimal(12,2);default:0"`
	Schedule     datatypes.JSONSlice[Installment] `json:"schedule"`
}

type AnnualTuitionPayment struct {
	IsPaid   bool            `json:"is_paid"`
	Discount decimal.Decimal `json:"discount" gorm:"type:decimal(12,2);default:0"`
	Payment  PaymentMeta     `json:"payment" gorm:"embedded;embeddedPrefix:payment_"`
}

// ComponentAmounts carries one figure per component plus their sum.
type ComponentAmounts struct {
	Tuition         decimal.Decimal `json:"tuition" gorm:"type:decimal(12,2);default:0"`
	RegistrationFee decimal.Decimal `json:"registration_fee" gorm:"type:decimal(12,2);default:0"`
	Uniform         decimal.Decimal `json:"uniform" gorm:"type:decimal(12,2);default:0"`
	Transportation  decimal.Decimal `json:"transportation" gorm:"type:decimal(12,2);default:0"`
	GrandTotal      decimal.Decimal `json:"grand_total" gorm:"type:decimal(12,2);default:0"`
}

type ComponentStatus struct {
	Tuition         Status `json:"tuition" gorm:"size:20"`
	RegistrationFee Status `json:"registration_fee" gorm:"size:20"`
	Uniform         Status `json:"uniform" gorm:"size:20"`
	Transportation  Status `json:"transportation" gorm:"size:20"`
}

type Discount struct {
	Enabled     bool            `json:"enabled"`
	Type        DiscountType    `json:"type,omitempty" gorm:"size:10"`
	Percentage  decimal.Decimal `json:"percentage" gorm:"type:decimal(5,2);default:0"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);default:0"`
	AppliedBy   uint            `json:"applied_by,omitempty"`
	AppliedDate *time.Time      `json:"applied_date,omitempty"`
	Notes       string          `json:"notes,omitempty" gorm:"type:text"`
}

// StudentFeeLedger is the fee record of one student for one academic year.
// Totals, Paid, Remaining and the statuses are derived; they are rewritten
// after every mutation.
type StudentFeeLedger struct {
	BaseModel
	StudentID     uint          `json:"student_id" gorm:"not null;uniqueIndex:idx_ledger_student_year"`
	AcademicYear  string        `json:"academic_year" gorm:"size:9;not null;uniqueIndex:idx_ledger_student_year;index:idx_ledger_school_year"`
	SchoolID      uint          `json:"school_id" gorm:"not null;index:idx_ledger_school_year"`
	StudentName   string        `json:"student_name" gorm:"size:200"`
	Grade         string        `json:"grade" gorm:"size:50;not null"`
	GradeCategory GradeCategory `json:"grade_category" gorm:"size:20;index"`
	PaymentType   PaymentType   `json:"payment_type" gorm:"size:10;not null;default:'monthly'"`
	GracePeriod   int           `json:"grace_period"`

	Tuition         TuitionFees          `json:"tuition" gorm:"embedded;embeddedPrefix:tuition_"`
	RegistrationFee LumpSumFee           `json:"registration_fee" gorm:"embedded;embeddedPrefix:registration_"`
	Uniform         LumpSumFee           `json:"uniform" gorm:"embedded;embeddedPrefix:uniform_"`
	Transportation  TransportationFees   `json:"transportation" gorm:"embedded;embeddedPrefix:transport_"`
	AnnualPayment   AnnualTuitionPayment `json:"annual_payment" gorm:"embedded;embeddedPrefix:annual_"`

	Totals    ComponentAmounts `json:"totals" gorm:"embedded;embeddedPrefix:total_"`
	Paid      ComponentAmounts `json:"paid" gorm:"embedded;embeddedPrefix:paid_"`
	Remaining ComponentAmounts `json:"remaining" gorm:"embedded;embeddedPrefix:remaining_"`

	Discount        Discount        `json:"discount" gorm:"embedded;embeddedPrefix:discount_"`
	ComponentStatus ComponentStatus `json:"component_status" gorm:"embedded;embeddedPrefix:status_"`
	OverallStatus   Status          `json:"overall_status" gorm:"size:20;index"`

	Version   uint `json:"version" gorm:"not null;default:1"`
	CreatedBy uint `json:"created_by"`
}

// Schedule returns the installments of a track, or nil for an unknown track.
func (l *StudentFeeLedger) Schedule(track Track) []Installment {
	switch track {
	case TrackTuition:
		return l.Tuition.Schedule
	case TrackTransportation:
		return l.Transportation.Schedule
	}
	return nil
}

// MonthlyAmountDue sums the tuition and transportation installments falling
// in the given calendar month.
func (l *StudentFeeLedger) MonthlyAmountDue(month int) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range l.Tuition.Schedule {
		if inst.Month == month {
			total = total.Add(inst.Amount)
		}
	}
	if l.Transportation.Using {
		for _, inst := range l.Transportation.Schedule {
			if inst.Month == month {
				total = total.Add(inst.Amount)
			}
		}
	}
	return total
}
