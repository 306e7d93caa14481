package models

import "fmt"

// FeeErrorKind names one ledger failure condition.
type FeeErrorKind string

const (
	KindUnknownGrade         FeeErrorKind = "unknown_grade"
	KindTierDisabled         FeeErrorKind = "tier_disabled"
	KindConfigurationMissing FeeErrorKind = "configuration_missing"
	KindInvalidConfiguration FeeErrorKind = "invalid_configuration"
	KindNoClassAssigned      FeeErrorKind = "no_class_assigned"
	KindAlreadyExists        FeeErrorKind = "already_exists"
	KindNotApplicable        FeeErrorKind = "not_applicable"
	KindAlreadyPaid          FeeErrorKind = "already_paid"
	KindInstallmentNotFound  FeeErrorKind = "installment_not_found"
	KindTrackNotApplicable   FeeErrorKind = "track_not_applicable"
	KindAnnualAlreadyPaid    FeeErrorKind = "annual_already_paid"
	KindNoDiscountApplied    FeeErrorKind = "no_discount_applied"
	KindComponentAlreadyPaid FeeErrorKind = "component_already_paid"
	KindTierLockedByPayment  FeeErrorKind = "tier_locked_by_payment"
	KindInvalidAmount        FeeErrorKind = "invalid_amount"
	KindInvalidDiscount      FeeErrorKind = "invalid_discount"
	KindInvalidMethod        FeeErrorKind = "invalid_payment_method"
	KindInvalidAcademicYear  FeeErrorKind = "invalid_academic_year"
	KindLedgerNotFound       FeeErrorKind = "ledger_not_found"
	KindStudentNotFound      FeeErrorKind = "student_not_found"
	KindVersionConflict      FeeErrorKind = "version_conflict"
)

// FeeError is returned by every pricing and ledger operation that refuses
// its input. Two FeeErrors match under errors.Is when their kinds are equal,
// so the Err* values below work as sentinels while still carrying detail.
type FeeError struct {
	Kind   FeeErrorKind
	Detail string
}

func (e *FeeError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Detail
}

func (e *FeeError) Is(target error) bool {
	t, ok := target.(*FeeError)
	return ok && t.Kind == e.Kind
}

// With returns a copy of the error carrying a formatted detail message.
func (e *FeeError) With(format string, args ...interface{}) *FeeError {
	return &FeeError{Kind: e.Kind, Detail: fmt.Sprintf(format, args...)}
}

var (
	ErrUnknownGrade         = &FeeError{Kind: KindUnknownGrade}
	ErrTierDisabled         = &FeeError{Kind: KindTierDisabled}
	ErrConfigurationMissing = &FeeError{Kind: KindConfigurationMissing}
	ErrInvalidConfiguration = &FeeError{Kind: KindInvalidConfiguration}
	ErrNoClassAssigned      = &FeeError{Kind: KindNoClassAssigned}
	ErrAlreadyExists        = &FeeError{Kind: KindAlreadyExists}
	ErrNotApplicable        = &FeeError{Kind: KindNotApplicable}
	ErrAlreadyPaid          = &FeeError{Kind: KindAlreadyPaid}
	ErrInstallmentNotFound  = &FeeError{Kind: KindInstallmentNotFound}
	ErrTrackNotApplicable   = &FeeError{Kind: KindTrackNotApplicable}
	ErrAnnualAlreadyPaid    = &FeeError{Kind: KindAnnualAlreadyPaid}
	ErrNoDiscountApplied    = &FeeError{Kind: KindNoDiscountApplied}
	ErrComponentAlreadyPaid = &FeeError{Kind: KindComponentAlreadyPaid}
	ErrTierLockedByPayment  = &FeeError{Kind: KindTierLockedByPayment}
	ErrInvalidAmount        = &FeeError{Kind: KindInvalidAmount}
	ErrInvalidDiscount      = &FeeError{Kind: KindInvalidDiscount}
	ErrInvalidMethod        = &FeeError{Kind: KindInvalidMethod}
	ErrInvalidAcademicYear  = &FeeError{Kind: KindInvalidAcademicYear}
	ErrLedgerNotFound       = &FeeError{Kind: KindLedgerNotFound}
	ErrStudentNotFound      = &FeeError{Kind: KindStudentNotFound}
	ErrVersionConflict      = &FeeError{Kind: KindVersionConflict}
)
