// Package ledger holds the fee ledger rules: building a ledger from a
// pricing configuration, recording payments, discounts and component
// changes, and deriving totals and statuses.
//
// Every operation takes the current ledger and returns a new one. On error
// the returned ledger is nil and the input is left as it was, so callers can
// reload and retry without compensating for half-applied changes.
package ledger

import (
	"schoolfees_go/models"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// StudentInfo is what the engine needs to know about a student.
type StudentInfo struct {
	ID       uint
	SchoolID uint
	Name     string
	Grade    string
}

// GenerateOptions picks the optional components of a new ledger.
type GenerateOptions struct {
	HasUniform             bool
	TransportTier          models.TransportTier
	IncludeRegistrationFee bool
}

// ComponentOptions is the wanted applicability of the optional components.
type ComponentOptions struct {
	HasUniform         bool
	TransportTier      models.TransportTier
	HasRegistrationFee bool
}

// Payment describes money received. Zero Method means cash and zero Date
// means now.
type Payment struct {
	Method     models.PaymentMethod
	Date       time.Time
	Receipt    string
	Notes      string
	RecordedBy uint
}

// DiscountInput describes a tuition discount.
type DiscountInput struct {
	Type       models.DiscountType
	Percentage decimal.Decimal
	Notes      string
	AppliedBy  uint
}

// Engine applies ledger operations against a clock.
type Engine struct {
	now func() time.Time
}

// NewEngine returns an engine reading time from now, or time.Now when nil.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Now returns the engine clock reading.
func (e *Engine) Now() time.Time {
	return e.now()
}

func (e *Engine) finalize(l *models.StudentFeeLedger) *models.StudentFeeLedger {
	recomputeAmounts(l)
	refreshStatuses(l, l.GracePeriod, e.now())
	return l
}

func (e *Engine) meta(p Payment) (models.PaymentMeta, error) {
	method := p.Method
	if method == "" {
		method = models.MethodCash
	}
	if !method.IsValid() {
		return models.PaymentMeta{}, models.ErrInvalidMethod.With("%q", p.Method)
	}
	date := p.Date
	if date.IsZero() {
		date = e.now()
	}
	return models.PaymentMeta{
		Date:       &date,
		Method:     method,
		Receipt:    p.Receipt,
		Notes:      p.Notes,
		RecordedBy: p.RecordedBy,
	}, nil
}

// Generate builds the ledger of a student from the active configuration.
// Whether a ledger already exists is the store's concern.
func (e *Engine) Generate(student StudentInfo, cfg *models.PricingConfiguration, opts GenerateOptions, createdBy uint) (*models.StudentFeeLedger, error) {
	if cfg == nil {
		return nil, models.ErrConfigurationMissing
	}
	if student.Grade == "" {
		return nil, models.ErrNoClassAssigned.With("student %d", student.ID)
	}
	tuition, err := cfg.LookupTuition(student.Grade)
	if err != nil {
		return nil, err
	}
	category := models.ClassifyGrade(student.Grade)

	l := &models.StudentFeeLedger{
		StudentID:     student.ID,
		SchoolID:      student.SchoolID,
		StudentName:   student.Name,
		AcademicYear:  cfg.AcademicYear,
		Grade:         student.Grade,
		GradeCategory: category,
		PaymentType:   models.PaymentMonthly,
		GracePeriod:   cfg.GracePeriod,
		Version:       1,
		CreatedBy:     createdBy,
	}
	if l.SchoolID == 0 {
		l.SchoolID = cfg.SchoolID
	}

	months := models.TotalMonthsBetween(cfg.PaymentSchedule.StartMonth, cfg.PaymentSchedule.EndMonth)
	schedule, err := buildSchedule(cfg.PaymentSchedule, tuition, cfg.AcademicYear, TuitionDueDay)
	if err != nil {
		return nil, err
	}
	l.Tuition = models.TuitionFees{
		BaseAmount:    tuition,
		AnnualAmount:  tuition,
		MonthlyAmount: monthlyShare(tuition, months),
		Schedule:      schedule,
	}

	if opts.HasUniform {
		if !cfg.Uniform.Enabled {
			return nil, models.ErrNotApplicable.With("uniforms are not offered for %s", cfg.AcademicYear)
		}
		l.Uniform = models.LumpSumFee{Applicable: true, Price: cfg.Uniform.Price}
	}

	if opts.IncludeRegistrationFee && cfg.RegistrationFee.Enabled {
		l.RegistrationFee = models.LumpSumFee{Applicable: true, Price: cfg.LookupRegistrationFee(category)}
	}

	if opts.TransportTier != models.TransportNone {
		t, err := transportFees(cfg, opts.TransportTier)
		if err != nil {
			return nil, err
		}
		l.Transportation = t
	}

	return e.finalize(l), nil
}

func transportFees(cfg *models.PricingConfiguration, tier models.TransportTier) (models.TransportationFees, error) {
	price, err := cfg.LookupTransportTariff(tier)
	if err != nil {
		return models.TransportationFees{}, err
	}
	months := models.TotalMonthsBetween(cfg.PaymentSchedule.StartMonth, cfg.PaymentSchedule.EndMonth)
	schedule, err := GenerateSchedule(cfg.PaymentSchedule.StartMonth, cfg.PaymentSchedule.EndMonth, months, price, cfg.AcademicYear, TransportDueDay)
	if err != nil {
		return models.TransportationFees{}, err
	}
	return models.TransportationFees{
		Using:        true,
		Tier:         tier,
		MonthlyPrice: price,
		TotalAmount:  price.Mul(decimal.NewFromInt(int64(months))),
		Schedule:     schedule,
	}, nil
}

func lumpSum(l *models.StudentFeeLedger, c models.LumpSumComponent) *models.LumpSumFee {
	switch c {
	case models.ComponentUniform:
		return &l.Uniform
	case models.ComponentRegistrationFee:
		return &l.RegistrationFee
	}
	return nil
}

// RecordLumpSumPayment settles the uniform or the registration fee in full.
func (e *Engine) RecordLumpSumPayment(l *models.StudentFeeLedger, c models.LumpSumComponent, p Payment) (*models.StudentFeeLedger, error) {
	out := clone(l)
	fee := lumpSum(out, c)
	if fee == nil || !fee.Applicable {
		return nil, models.ErrNotApplicable.With("%s is not part of this ledger", c)
	}
	if fee.IsPaid {
		return nil, models.ErrAlreadyPaid.With("%s already paid", c)
	}
	meta, err := e.meta(p)
	if err != nil {
		return nil, err
	}
	fee.IsPaid = true
	fee.Payment = meta
	return e.finalize(out), nil
}

// RecordInstallmentPayment adds amount to one installment of a track.
// Payments accumulate, so an installment can be settled in several parts.
func (e *Engine) RecordInstallmentPayment(l *models.StudentFeeLedger, track models.Track, monthIndex int, amount decimal.Decimal, p Payment) (*models.StudentFeeLedger, error) {
	if !amount.IsPositive() {
		return nil, models.ErrInvalidAmount.With("payment must be positive, got %s", amount)
	}
	if !inCents(amount) {
		return nil, models.ErrInvalidAmount.With("payment %s has fractions of a cent", amount)
	}
	out := clone(l)

	var schedule datatypes.JSONSlice[models.Installment]
	var paid *decimal.Decimal
	switch track {
	case models.TrackTuition:
		if out.AnnualPayment.IsPaid {
			return nil, models.ErrAnnualAlreadyPaid.With("tuition was settled annually")
		}
		schedule, paid = out.Tuition.Schedule, &out.Paid.Tuition
	case models.TrackTransportation:
		if !out.Transportation.Using {
			return nil, models.ErrTrackNotApplicable.With("student does not use transportation")
		}
		schedule, paid = out.Transportation.Schedule, &out.Paid.Transportation
	default:
		return nil, models.ErrTrackNotApplicable.With("unknown track %q", track)
	}
	if monthIndex < 0 || monthIndex >= len(schedule) {
		return nil, models.ErrInstallmentNotFound.With("%s installment %d of %d", track, monthIndex, len(schedule))
	}
	meta, err := e.meta(p)
	if err != nil {
		return nil, err
	}

	schedule[monthIndex].PaidAmount = schedule[monthIndex].PaidAmount.Add(amount)
	schedule[monthIndex].Payment = meta
	*paid = paid.Add(amount)
	return e.finalize(out), nil
}

// RecordAnnualTuitionPayment settles the whole tuition at once. The amount
// collected replaces whatever was paid monthly before, and the billed
// tuition becomes that amount so nothing is left outstanding.
func (e *Engine) RecordAnnualTuitionPayment(l *models.StudentFeeLedger, discountAmount decimal.Decimal, p Payment) (*models.StudentFeeLedger, error) {
	if l.AnnualPayment.IsPaid {
		return nil, models.ErrAlreadyPaid.With("annual tuition already recorded")
	}
	if discountAmount.IsNegative() || discountAmount.GreaterThan(l.Tuition.AnnualAmount) {
		return nil, models.ErrInvalidAmount.With("annual discount %s outside 0..%s", discountAmount, l.Tuition.AnnualAmount)
	}
	if !inCents(discountAmount) {
		return nil, models.ErrInvalidAmount.With("annual discount %s has fractions of a cent", discountAmount)
	}
	meta, err := e.meta(p)
	if err != nil {
		return nil, err
	}
	out := clone(l)

	final := out.Tuition.AnnualAmount.Sub(discountAmount)
	out.Paid.Tuition = final
	out.Tuition.AnnualAmount = final
	for i := range out.Tuition.Schedule {
		out.Tuition.Schedule[i].PaidAmount = out.Tuition.Schedule[i].Amount
		out.Tuition.Schedule[i].Payment = meta
	}
	out.AnnualPayment = models.AnnualTuitionPayment{IsPaid: true, Discount: discountAmount, Payment: meta}
	out.PaymentType = models.PaymentAnnual
	return e.finalize(out), nil
}

// ApplyDiscount reduces tuition by a percentage of the grade price. A new
// discount replaces the previous one rather than stacking on it. Monthly
// discounts are spread over the installments nothing has been paid on yet;
// annual ones leave the schedule at the undiscounted price.
func (e *Engine) ApplyDiscount(l *models.StudentFeeLedger, in DiscountInput) (*models.StudentFeeLedger, error) {
	if l.AnnualPayment.IsPaid {
		return nil, models.ErrAnnualAlreadyPaid.With("cannot discount settled tuition")
	}
	if in.Type != models.DiscountMonthly && in.Type != models.DiscountAnnual {
		return nil, models.ErrInvalidDiscount.With("unknown discount type %q", in.Type)
	}
	if in.Percentage.IsNegative() || in.Percentage.GreaterThan(hundred) {
		return nil, models.ErrInvalidDiscount.With("percentage %s outside 0..100", in.Percentage)
	}
	if !inCents(in.Percentage) {
		return nil, models.ErrInvalidDiscount.With("percentage %s has more than two decimals", in.Percentage)
	}
	wasMonthly := l.Discount.Enabled && l.Discount.Type == models.DiscountMonthly
	out := clone(l)

	amount := percentOf(out.Tuition.BaseAmount, in.Percentage)
	out.Tuition.AnnualAmount = out.Tuition.BaseAmount.Sub(amount)
	out.Tuition.MonthlyAmount = monthlyShare(out.Tuition.AnnualAmount, len(out.Tuition.Schedule))
	now := e.now()
	out.Discount = models.Discount{
		Enabled:     true,
		Type:        in.Type,
		Percentage:  in.Percentage,
		Amount:      amount,
		AppliedBy:   in.AppliedBy,
		AppliedDate: &now,
		Notes:       in.Notes,
	}
	if in.Type == models.DiscountMonthly || wasMonthly {
		respreadPending(out, scheduleTarget(out))
	}
	return e.finalize(out), nil
}

// RemoveDiscount restores tuition to the configuration's current grade price.
func (e *Engine) RemoveDiscount(l *models.StudentFeeLedger, cfg *models.PricingConfiguration) (*models.StudentFeeLedger, error) {
	if l.AnnualPayment.IsPaid {
		return nil, models.ErrAnnualAlreadyPaid.With("cannot change settled tuition")
	}
	if !l.Discount.Enabled {
		return nil, models.ErrNoDiscountApplied
	}
	if cfg == nil {
		return nil, models.ErrConfigurationMissing
	}
	price, err := cfg.LookupTuition(l.Grade)
	if err != nil {
		return nil, err
	}
	out := clone(l)
	out.Tuition.BaseAmount = price
	out.Tuition.AnnualAmount = price
	out.Tuition.MonthlyAmount = monthlyShare(price, len(out.Tuition.Schedule))
	out.Discount = models.Discount{}
	respreadPending(out, price)
	return e.finalize(out), nil
}

// ReconfigureComponents switches the optional components on or off. It
// refuses to drop a component that already holds collected money.
func (e *Engine) ReconfigureComponents(l *models.StudentFeeLedger, cfg *models.PricingConfiguration, opts ComponentOptions) (*models.StudentFeeLedger, error) {
	if cfg == nil {
		return nil, models.ErrConfigurationMissing
	}
	out := clone(l)

	if err := toggleLumpSum(&out.Uniform, models.ComponentUniform, opts.HasUniform, cfg.Uniform.Enabled, cfg.Uniform.Price); err != nil {
		return nil, err
	}
	regPrice := cfg.LookupRegistrationFee(out.GradeCategory)
	if err := toggleLumpSum(&out.RegistrationFee, models.ComponentRegistrationFee, opts.HasRegistrationFee, cfg.RegistrationFee.Enabled, regPrice); err != nil {
		return nil, err
	}
	if err := retierTransport(out, cfg, opts.TransportTier); err != nil {
		return nil, err
	}

	out.GracePeriod = cfg.GracePeriod
	return e.finalize(out), nil
}

func toggleLumpSum(fee *models.LumpSumFee, c models.LumpSumComponent, want, offered bool, price decimal.Decimal) error {
	switch {
	case fee.Applicable && !want:
		if fee.IsPaid {
			return models.ErrComponentAlreadyPaid.With("%s was paid and cannot be removed", c)
		}
		*fee = models.LumpSumFee{}
	case !fee.Applicable && want:
		if !offered {
			return models.ErrNotApplicable.With("%s is not offered", c)
		}
		*fee = models.LumpSumFee{Applicable: true, Price: price}
	}
	return nil
}

func retierTransport(l *models.StudentFeeLedger, cfg *models.PricingConfiguration, tier models.TransportTier) error {
	cur := &l.Transportation
	switch {
	case tier == models.TransportNone:
		if !cur.Using {
			return nil
		}
		if l.Paid.Transportation.IsPositive() {
			return models.ErrComponentAlreadyPaid.With("transportation has %s collected", l.Paid.Transportation)
		}
		*cur = models.TransportationFees{}
		l.Paid.Transportation = decimal.Zero
		return nil
	case cur.Using && cur.Tier == tier:
		return nil
	}

	if cur.Using {
		for _, inst := range cur.Schedule {
			if inst.PaidAmount.GreaterThanOrEqual(inst.Amount) && inst.PaidAmount.IsPositive() {
				return models.ErrTierLockedByPayment.With("%s transport already paid", inst.MonthName)
			}
		}
	}
	next, err := transportFees(cfg, tier)
	if err != nil {
		return err
	}
	if cur.Using {
		carryPartials(next.Schedule, cur.Schedule)
	}
	*cur = next
	return nil
}

// carryPartials keeps money already received on the old schedule, matched by month.
func carryPartials(next, prev []models.Installment) {
	byMonth := make(map[int]models.Installment, len(prev))
	for _, inst := range prev {
		if inst.PaidAmount.IsPositive() {
			byMonth[inst.Month] = inst
		}
	}
	for i := range next {
		if old, ok := byMonth[next[i].Month]; ok {
			next[i].PaidAmount = old.PaidAmount
			next[i].Payment = old.Payment
		}
	}
}

// Reprice brings an existing ledger in line with a changed configuration.
// Paid lump sums and paid or partial installments keep their amounts. With
// onlyUnpaid, ledgers whose tuition was settled annually are refused.
func (e *Engine) Reprice(l *models.StudentFeeLedger, cfg *models.PricingConfiguration, onlyUnpaid bool) (*models.StudentFeeLedger, error) {
	if cfg == nil {
		return nil, models.ErrConfigurationMissing
	}
	if onlyUnpaid && l.AnnualPayment.IsPaid {
		return nil, models.ErrAnnualAlreadyPaid.With("tuition settled annually")
	}
	out := clone(l)

	if !out.AnnualPayment.IsPaid {
		price, err := cfg.LookupTuition(out.Grade)
		if err != nil {
			return nil, err
		}
		out.Tuition.BaseAmount = price
		out.Tuition.AnnualAmount = price
		if out.Discount.Enabled {
			out.Discount.Amount = percentOf(price, out.Discount.Percentage)
			out.Tuition.AnnualAmount = price.Sub(out.Discount.Amount)
		}
		out.Tuition.MonthlyAmount = monthlyShare(out.Tuition.AnnualAmount, len(out.Tuition.Schedule))
		respreadPending(out, scheduleTarget(out))
	}

	repriceLumpSum(&out.Uniform, cfg.Uniform.Enabled, cfg.Uniform.Price)
	repriceLumpSum(&out.RegistrationFee, cfg.RegistrationFee.Enabled, cfg.LookupRegistrationFee(out.GradeCategory))

	if out.Transportation.Using {
		if price, err := cfg.LookupTransportTariff(out.Transportation.Tier); err == nil {
			out.Transportation.MonthlyPrice = price
			total := decimal.Zero
			for i := range out.Transportation.Schedule {
				inst := &out.Transportation.Schedule[i]
				if !inst.PaidAmount.IsPositive() {
					inst.Amount = price
				}
				total = total.Add(inst.Amount)
			}
			out.Transportation.TotalAmount = total
		}
	}

	out.GracePeriod = cfg.GracePeriod
	return e.finalize(out), nil
}

func repriceLumpSum(fee *models.LumpSumFee, offered bool, price decimal.Decimal) {
	if !fee.Applicable || fee.IsPaid {
		return
	}
	if !offered {
		*fee = models.LumpSumFee{}
		return
	}
	fee.Price = price
}

// Refresh re-derives aggregates and statuses at the engine clock.
func (e *Engine) Refresh(l *models.StudentFeeLedger, graceDays int) *models.StudentFeeLedger {
	return RecomputeStatuses(l, graceDays, e.now())
}
