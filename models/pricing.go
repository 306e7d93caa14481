package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Schedule defaults: September through May, five days of grace.
const (
	DefaultStartMonth  = 9
	DefaultEndMonth    = 5
	DefaultGracePeriod = 5
	MaxGracePeriod     = 30
)

// TransportTier selects a transportation tariff.
type TransportTier string

const (
	TransportClose TransportTier = "close"
	TransportFar   TransportTier = "far"
	TransportNone  TransportTier = ""
)

// IsValid reports whether t names a tariff. TransportNone is not a tariff.
func (t TransportTier) IsValid() bool {
	return t == TransportClose || t == TransportFar
}

// GradeAmounts maps a grade label to its annual tuition.
type GradeAmounts map[string]decimal.Decimal

func (g GradeAmounts) Value() (driver.Value, error) {
	if g == nil {
		return nil, nil
	}
	b, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (g *GradeAmounts) Scan(value interface{}) error {
	if value == nil {
		*g = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported grade amounts column type %T", value)
	}
	out := GradeAmounts{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*g = out
	return nil
}

// Grades returns the configured grade labels sorted alphabetically.
func (g GradeAmounts) Grades() []string {
	out := make([]string, 0, len(g))
	for k := range g {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type UniformPricing struct {
	Enabled     bool            `json:"enabled"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);default:0"`
	Description string          `json:"description" gorm:"size:255"`
	IsOptional  bool            `json:"is_optional"`
}

type TransportTariff struct {
	Enabled      bool            `json:"enabled"`
	MonthlyPrice decimal.Decimal `json:"monthly_price" gorm:"type:decimal(12,2);default:0"`
	Description  string          `json:"description" gorm:"size:255"`
}

type TransportPricing struct {
	Enabled    bool            `json:"enabled"`
	Close      TransportTariff `json:"close" gorm:"embedded;embeddedPrefix:close_"`
	Far        TransportTariff `json:"far" gorm:"embedded;embeddedPrefix:far_"`
	IsOptional bool            `json:"is_optional"`
}

// RegistrationFeePricing holds the early (maternelle, primaire) and late
// (secondaire) registration prices.
type RegistrationFeePricing struct {
	Enabled   bool            `json:"enabled"`
	EarlyTier decimal.Decimal `json:"early_tier" gorm:"type:decimal(12,2);default:0"`
	LateTier  decimal.Decimal `json:"late_tier" gorm:"type:decimal(12,2);default:0"`
}

type PaymentSchedule struct {
	StartMonth  int `json:"start_month"`
	EndMonth    int `json:"end_month"`
	TotalMonths int `json:"total_months"`
}

// AnnualDiscountPolicy is the default reduction offered when tuition is
// settled in one payment. Amount wins over Percentage when both are set.
type AnnualDiscountPolicy struct {
	Enabled    bool            `json:"enabled"`
	Percentage decimal.Decimal `json:"percentage" gorm:"type:decimal(5,2);default:0"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);default:0"`
}

// PricingConfiguration is the fee table of one school for one academic year.
type PricingConfiguration struct {
	BaseModel
	SchoolID              uint                   `json:"school_id" gorm:"not null;index:idx_pricing_school_year"`
	AcademicYear          string                 `json:"academic_year" gorm:"size:9;not null;index:idx_pricing_school_year"`
	GradeAmounts          GradeAmounts           `json:"grade_amounts" gorm:"type:json"`
	Uniform               UniformPricing         `json:"uniform" gorm:"embedded;embeddedPrefix:uniform_"`
	Transportation        TransportPricing       `json:"transportation" gorm:"embedded;embeddedPrefix:transport_"`
	RegistrationFee       RegistrationFeePricing `json:"registration_fee" gorm:"embedded;embeddedPrefix:registration_"`
	PaymentSchedule       PaymentSchedule        `json:"payment_schedule" gorm:"embedded;embeddedPrefix:schedule_"`
	GracePeriod           int                    `json:"grace_period" gorm:"not null;default:5"`
	AnnualPaymentDiscount AnnualDiscountPolicy   `json:"annual_payment_discount" gorm:"embedded;embeddedPrefix:annual_discount_"`
	IsActive              bool                   `json:"is_active" gorm:"index"`
	CreatedBy             uint                   `json:"created_by"`
	UpdatedBy             uint                   `json:"updated_by"`
}

// TotalMonthsBetween counts the months from start to end inclusive, wrapping
// over the calendar year end (9 to 5 gives 9).
func TotalMonthsBetween(start, end int) int {
	n := end - start + 1
	if n <= 0 {
		n += 12
	}
	return n
}

// Normalize fills defaults and derives TotalMonths from the month range.
// A stored TotalMonths is never trusted.
func (p *PricingConfiguration) Normalize() {
	if p.PaymentSchedule.StartMonth == 0 {
		p.PaymentSchedule.StartMonth = DefaultStartMonth
	}
	if p.PaymentSchedule.EndMonth == 0 {
		p.PaymentSchedule.EndMonth = DefaultEndMonth
	}
	p.PaymentSchedule.TotalMonths = TotalMonthsBetween(p.PaymentSchedule.StartMonth, p.PaymentSchedule.EndMonth)
	if p.GradeAmounts == nil {
		p.GradeAmounts = GradeAmounts{}
	}
}

// Validate checks ranges, signs and grade coverage.
func (p *PricingConfiguration) Validate() error {
	if _, err := ParseAcademicYear(p.AcademicYear); err != nil {
		return err
	}
	s := p.PaymentSchedule
	if s.StartMonth < 1 || s.StartMonth > 12 || s.EndMonth < 1 || s.EndMonth > 12 {
		return ErrInvalidConfiguration.With("payment months must be between 1 and 12")
	}
	if s.TotalMonths != TotalMonthsBetween(s.StartMonth, s.EndMonth) {
		return ErrInvalidConfiguration.With("total months %d disagrees with range %d-%d", s.TotalMonths, s.StartMonth, s.EndMonth)
	}
	if p.GracePeriod < 0 || p.GracePeriod > MaxGracePeriod {
		return ErrInvalidConfiguration.With("grace period must be between 0 and %d days", MaxGracePeriod)
	}
	for _, g := range KnownGrades {
		amount, ok := p.GradeAmounts[g.Grade]
		if !ok {
			return ErrInvalidConfiguration.With("missing tuition for grade %q", g.Grade)
		}
		if amount.IsNegative() {
			return ErrInvalidConfiguration.With("tuition for grade %q cannot be negative", g.Grade)
		}
	}
	for grade := range p.GradeAmounts {
		if !IsKnownGrade(grade) {
			return ErrInvalidConfiguration.With("unknown grade %q", grade)
		}
	}
	negatives := map[string]decimal.Decimal{
		"uniform price":         p.Uniform.Price,
		"close transport price": p.Transportation.Close.MonthlyPrice,
		"far transport price":   p.Transportation.Far.MonthlyPrice,
		"early registration":    p.RegistrationFee.EarlyTier,
		"late registration":     p.RegistrationFee.LateTier,
		"annual discount":       p.AnnualPaymentDiscount.Amount,
	}
	for name, v := range negatives {
		if v.IsNegative() {
			return ErrInvalidConfiguration.With("%s cannot be negative", name)
		}
	}
	pct := p.AnnualPaymentDiscount.Percentage
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidConfiguration.With("annual discount percentage must be between 0 and 100")
	}
	return nil
}

// BeforeSave keeps TotalMonths derived on every write.
func (p *PricingConfiguration) BeforeSave(tx *gorm.DB) error {
	p.Normalize()
	return p.Validate()
}

// LookupTuition returns the annual tuition of grade.
func (p *PricingConfiguration) LookupTuition(grade string) (decimal.Decimal, error) {
	amount, ok := p.GradeAmounts[grade]
	if !ok {
		return decimal.Zero, ErrUnknownGrade.With("no tuition configured for %q", grade)
	}
	return amount, nil
}

// LookupRegistrationFee returns the registration price for a grade category,
// or zero when the fee is disabled or the category has no tier.
func (p *PricingConfiguration) LookupRegistrationFee(category GradeCategory) decimal.Decimal {
	if !p.RegistrationFee.Enabled {
		return decimal.Zero
	}
	switch category.RegistrationTier() {
	case TierEarly:
		return p.RegistrationFee.EarlyTier
	case TierLate:
		return p.RegistrationFee.LateTier
	}
	return decimal.Zero
}

// LookupTransportTariff returns the monthly price of an enabled tier.
func (p *PricingConfiguration) LookupTransportTariff(tier TransportTier) (decimal.Decimal, error) {
	if !p.Transportation.Enabled {
		return decimal.Zero, ErrTierDisabled.With("transportation is disabled")
	}
	var tariff TransportTariff
	switch tier {
	case TransportClose:
		tariff = p.Transportation.Close
	case TransportFar:
		tariff = p.Transportation.Far
	default:
		return decimal.Zero, ErrTierDisabled.With("unknown transport tier %q", tier)
	}
	if !tariff.Enabled {
		return decimal.Zero, ErrTierDisabled.With("transport tier %q is disabled", tier)
	}
	return tariff.MonthlyPrice, nil
}

// UniformPrice returns the uniform price, or zero when uniforms are not sold.
func (p *PricingConfiguration) UniformPrice() decimal.Decimal {
	if !p.Uniform.Enabled {
		return decimal.Zero
	}
	return p.Uniform.Price
}

// AnnualDiscountFor returns the default annual-settlement discount on tuition.
func (p *PricingConfiguration) AnnualDiscountFor(tuition decimal.Decimal) decimal.Decimal {
	d := p.AnnualPaymentDiscount
	if !d.Enabled {
		return decimal.Zero
	}
	if d.Amount.IsPositive() {
		return decimal.Min(d.Amount, tuition).Round(2)
	}
	return tuition.Mul(d.Percentage).Div(decimal.NewFromInt(100)).Round(2)
}

// NewPricingConfiguration returns a configuration with the default schedule,
// grace period and a zero price for every known grade.
func NewPricingConfiguration(schoolID uint, academicYear string) *PricingConfiguration {
	amounts := GradeAmounts{}
	for _, g := range KnownGrades {
		amounts[g.Grade] = decimal.Zero
	}
	p := &PricingConfiguration{
		SchoolID:     schoolID,
		AcademicYear: academicYear,
		GradeAmounts: amounts,
		Uniform:      UniformPricing{Description: "Uniforme scolaire complet", IsOptional: true},
		Transportation: TransportPricing{
			Close:      TransportTariff{Enabled: true, Description: "Transport scolaire - Zone proche"},
			Far:        TransportTariff{Enabled: true, Description: "Transport scolaire - Zone éloignée"},
			IsOptional: true,
		},
		GracePeriod: DefaultGracePeriod,
		IsActive:    true,
	}
	p.Normalize()
	return p
}
