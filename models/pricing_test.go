package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAcademicYear(t *testing.T) {
	tests := []struct {
		label string
		start int
		ok    bool
	}{
		{"2024-2025", 2024, true},
		{" 2030-2031 ", 2030, true},
		{"2024-2026", 0, false},
		{"2024/2025", 0, false},
		{"24-25", 0, false},
		{"abcd-2025", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			start, err := ParseAcademicYear(tt.label)
			if !tt.ok {
				assert.True(t, errors.Is(err, ErrInvalidAcademicYear))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.start, start)
		})
	}
}

func TestAcademicYearAt(t *testing.T) {
	assert.Equal(t, "2024-2025", AcademicYearAt(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), 9))
	assert.Equal(t, "2024-2025", AcademicYearAt(time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC), 9))
	assert.Equal(t, "2023-2024", AcademicYearAt(time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC), 9))
}

func TestRegistrationTiers(t *testing.T) {
	assert.Equal(t, TierEarly, ClassifyGrade("Maternal").RegistrationTier())
	assert.Equal(t, TierEarly, ClassifyGrade("3ème année primaire").RegistrationTier())
	assert.Equal(t, TierLate, ClassifyGrade("2ème année lycée").RegistrationTier())
	assert.Equal(t, TierNone, ClassifyGrade("CP").RegistrationTier())
}

func TestTotalMonthsBetween(t *testing.T) {
	assert.Equal(t, 9, TotalMonthsBetween(9, 5))
	assert.Equal(t, 12, TotalMonthsBetween(1, 12))
	assert.Equal(t, 1, TotalMonthsBetween(4, 4))
	assert.Equal(t, 12, TotalMonthsBetween(9, 8))
}

func TestPricingValidate(t *testing.T) {
	valid := func() *PricingConfiguration {
		return NewPricingConfiguration(1, "2024-2025")
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(p *PricingConfiguration)
	}{
		{"bad month", func(p *PricingConfiguration) { p.PaymentSchedule.StartMonth = 13 }},
		{"stale total", func(p *PricingConfiguration) { p.PaymentSchedule.TotalMonths = 10 }},
		{"grace too long", func(p *PricingConfiguration) { p.GracePeriod = MaxGracePeriod + 1 }},
		{"missing grade", func(p *PricingConfiguration) { delete(p.GradeAmounts, "Maternal") }},
		{"unknown grade", func(p *PricingConfiguration) { p.GradeAmounts["CP"] = decimal.NewFromInt(1) }},
		{"negative tuition", func(p *PricingConfiguration) { p.GradeAmounts["8ème année"] = decimal.NewFromInt(-1) }},
		{"negative uniform", func(p *PricingConfiguration) { p.Uniform.Price = decimal.NewFromInt(-5) }},
		{"percentage over 100", func(p *PricingConfiguration) { p.AnnualPaymentDiscount.Percentage = decimal.NewFromInt(101) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			assert.True(t, errors.Is(p.Validate(), ErrInvalidConfiguration))
		})
	}

	p := valid()
	p.AcademicYear = "2024"
	assert.True(t, errors.Is(p.Validate(), ErrInvalidAcademicYear))
}

func TestPricingLookups(t *testing.T) {
	p := NewPricingConfiguration(1, "2024-2025")
	p.GradeAmounts["7ème année"] = decimal.NewFromInt(3150)
	p.RegistrationFee = RegistrationFeePricing{Enabled: true, EarlyTier: decimal.NewFromInt(150), LateTier: decimal.NewFromInt(200)}

	amount, err := p.LookupTuition("7ème année")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(3150)))
	_, err = p.LookupTuition("CP")
	assert.True(t, errors.Is(err, ErrUnknownGrade))

	assert.True(t, p.LookupRegistrationFee(CategoryPrimaire).Equal(decimal.NewFromInt(150)))
	assert.True(t, p.LookupRegistrationFee(CategorySecondaire).Equal(decimal.NewFromInt(200)))
	assert.True(t, p.LookupRegistrationFee(CategoryUnknown).IsZero())

	_, err = p.LookupTransportTariff(TransportClose)
	assert.True(t, errors.Is(err, ErrTierDisabled), "transport starts disabled")
	p.Transportation.Enabled = true
	p.Transportation.Far.MonthlyPrice = decimal.NewFromInt(90)
	tariff, err := p.LookupTransportTariff(TransportFar)
	require.NoError(t, err)
	assert.True(t, tariff.Equal(decimal.NewFromInt(90)))

	assert.True(t, p.UniformPrice().IsZero())
	assert.True(t, p.AnnualDiscountFor(decimal.NewFromInt(1000)).IsZero())

	p.AnnualPaymentDiscount = AnnualDiscountPolicy{Enabled: true, Percentage: decimal.NewFromInt(5)}
	assert.Equal(t, "50", p.AnnualDiscountFor(decimal.NewFromInt(1000)).String())
	p.AnnualPaymentDiscount.Amount = decimal.NewFromInt(2000)
	assert.Equal(t, "1000", p.AnnualDiscountFor(decimal.NewFromInt(1000)).String(), "fixed amount is capped at tuition")
}
