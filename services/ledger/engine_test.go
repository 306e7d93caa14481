package ledger

import (
	"errors"
	"schoolfees_go/models"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var septFirst = time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, context ...interface{}) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s got %s %v", want, got.String(), context)
}

func testConfig() *models.PricingConfiguration {
	cfg := models.NewPricingConfiguration(1, "2024-2025")
	cfg.GradeAmounts["7ème année"] = dec("1200")
	cfg.GradeAmounts["Maternal"] = dec("900")
	cfg.Uniform.Enabled = true
	cfg.Uniform.Price = dec("150")
	cfg.Transportation.Enabled = true
	cfg.Transportation.Close.MonthlyPrice = dec("40")
	cfg.Transportation.Far.MonthlyPrice = dec("60")
	cfg.RegistrationFee.Enabled = true
	cfg.RegistrationFee.EarlyTier = dec("100")
	cfg.RegistrationFee.LateTier = dec("200")
	return cfg
}

func seventhGrader() StudentInfo {
	return StudentInfo{ID: 42, SchoolID: 1, Name: "Amine Ben Salah", Grade: "7ème année"}
}

// assertInvariants checks the aggregate rules every reachable ledger must satisfy.
func assertInvariants(t *testing.T, l *models.StudentFeeLedger) {
	t.Helper()
	tot, paid, rem := l.Totals, l.Paid, l.Remaining
	pairs := []struct {
		name             string
		total, paid, rem decimal.Decimal
	}{
		{"tuition", tot.Tuition, paid.Tuition, rem.Tuition},
		{"registration", tot.RegistrationFee, paid.RegistrationFee, rem.RegistrationFee},
		{"uniform", tot.Uniform, paid.Uniform, rem.Uniform},
		{"transportation", tot.Transportation, paid.Transportation, rem.Transportation},
		{"grand total", tot.GrandTotal, paid.GrandTotal, rem.GrandTotal},
	}
	for _, p := range pairs {
		assert.True(t, p.rem.Equal(p.total.Sub(p.paid)), "remaining %s: %s != %s - %s", p.name, p.rem, p.total, p.paid)
	}
	assert.True(t, tot.GrandTotal.Equal(tot.Tuition.Add(tot.RegistrationFee).Add(tot.Uniform).Add(tot.Transportation)), "totals grand total")
	assert.True(t, paid.GrandTotal.Equal(paid.Tuition.Add(paid.RegistrationFee).Add(paid.Uniform).Add(paid.Transportation)), "paid grand total")

	for _, sched := range [][]models.Installment{l.Tuition.Schedule, l.Transportation.Schedule} {
		for _, inst := range sched {
			switch {
			case inst.PaidAmount.GreaterThanOrEqual(inst.Amount):
				assert.Equal(t, models.StatusPaid, inst.Status, inst.MonthName)
			case inst.PaidAmount.IsPositive():
				assert.Equal(t, models.StatusPartial, inst.Status, inst.MonthName)
			default:
				assert.Contains(t, []models.Status{models.StatusPending, models.StatusOverdue}, inst.Status, inst.MonthName)
			}
		}
	}
	if !l.Uniform.Applicable {
		assert.Equal(t, models.StatusNotApplicable, l.ComponentStatus.Uniform)
		assert.True(t, tot.Uniform.IsZero())
	}
	if !l.RegistrationFee.Applicable {
		assert.Equal(t, models.StatusNotApplicable, l.ComponentStatus.RegistrationFee)
		assert.True(t, tot.RegistrationFee.IsZero())
	}
	if !l.Transportation.Using {
		assert.Equal(t, models.StatusNotApplicable, l.ComponentStatus.Transportation)
		assert.True(t, tot.Transportation.IsZero())
	}
}

func generateTuitionOnly(t *testing.T, e *Engine) *models.StudentFeeLedger {
	t.Helper()
	l, err := e.Generate(seventhGrader(), testConfig(), GenerateOptions{}, 7)
	require.NoError(t, err)
	return l
}

func TestGenerateTuitionOnly(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l := generateTuitionOnly(t, e)

	assertAmount(t, "1200", l.Totals.Tuition)
	assertAmount(t, "1200", l.Totals.GrandTotal)
	require.Len(t, l.Tuition.Schedule, 9)
	for i, inst := range l.Tuition.Schedule[:8] {
		assertAmount(t, "133.33", inst.Amount, "installment", i)
	}
	assertAmount(t, "133.36", l.Tuition.Schedule[8].Amount)
	assertAmount(t, "133.33", l.Tuition.MonthlyAmount)

	assert.Equal(t, models.StatusPending, l.OverallStatus)
	assert.Equal(t, models.StatusPending, l.ComponentStatus.Tuition)
	assert.Equal(t, models.CategorySecondaire, l.GradeCategory)
	assert.Equal(t, models.PaymentMonthly, l.PaymentType)
	assert.Equal(t, "Septembre", l.Tuition.Schedule[0].MonthName)
	assert.Equal(t, time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC), l.Tuition.Schedule[8].DueDate)
	assertInvariants(t, l)
}

func TestGenerateWithAllComponents(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l, err := e.Generate(seventhGrader(), testConfig(), GenerateOptions{
		HasUniform:             true,
		TransportTier:          models.TransportFar,
		IncludeRegistrationFee: true,
	}, 7)
	require.NoError(t, err)

	assertAmount(t, "150", l.Totals.Uniform)
	assertAmount(t, "200", l.Totals.RegistrationFee)
	assertAmount(t, "540", l.Totals.Transportation)
	assertAmount(t, "2090", l.Totals.GrandTotal)
	require.Len(t, l.Transportation.Schedule, 9)
	assert.Equal(t, 5, l.Transportation.Schedule[0].DueDate.Day())
	assert.Equal(t, models.StatusPending, l.ComponentStatus.Uniform)
	assert.Equal(t, models.StatusPending, l.ComponentStatus.Transportation)
	assertInvariants(t, l)

	maternal, err := e.Generate(StudentInfo{ID: 3, SchoolID: 1, Grade: "Maternal"}, testConfig(), GenerateOptions{IncludeRegistrationFee: true}, 7)
	require.NoError(t, err)
	assertAmount(t, "100", maternal.Totals.RegistrationFee)
}

func TestGenerateFailures(t *testing.T) {
	disabledFar := testConfig()
	disabledFar.Transportation.Far.Enabled = false
	noUniform := testConfig()
	noUniform.Uniform.Enabled = false

	tests := []struct {
		name    string
		student StudentInfo
		cfg     *models.PricingConfiguration
		opts    GenerateOptions
		want    error
	}{
		{"missing configuration", seventhGrader(), nil, GenerateOptions{}, models.ErrConfigurationMissing},
		{"no class", StudentInfo{ID: 1}, testConfig(), GenerateOptions{}, models.ErrNoClassAssigned},
		{"unknown grade", StudentInfo{ID: 1, Grade: "Terminale"}, testConfig(), GenerateOptions{}, models.ErrUnknownGrade},
		{"disabled tier", seventhGrader(), disabledFar, GenerateOptions{TransportTier: models.TransportFar}, models.ErrTierDisabled},
		{"bogus tier", seventhGrader(), testConfig(), GenerateOptions{TransportTier: "medium"}, models.ErrTierDisabled},
		{"uniform not offered", seventhGrader(), noUniform, GenerateOptions{HasUniform: true}, models.ErrNotApplicable},
	}
	e := NewEngine(fixedClock(septFirst))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := e.Generate(tt.student, tt.cfg, tt.opts, 1)
			assert.Nil(t, l)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestInstallmentPaymentMarksPaid(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l := generateTuitionOnly(t, e)

	got, err := e.RecordInstallmentPayment(l, models.TrackTuition, 0, dec("133.33"), Payment{Receipt: "R-1", RecordedBy: 7})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPaid, got.Tuition.Schedule[0].Status)
	assertAmount(t, "133.33", got.Paid.Tuition)
	assert.Equal(t, models.StatusPartial, got.ComponentStatus.Tuition)
	assert.Equal(t, models.StatusPartial, got.OverallStatus)
	assert.Equal(t, models.MethodCash, got.Tuition.Schedule[0].Payment.Method)
	assertInvariants(t, got)

	// the input ledger is untouched
	assert.True(t, l.Paid.Tuition.IsZero())
	assert.Equal(t, models.StatusPending, l.Tuition.Schedule[0].Status)
}

func TestInstallmentPaymentsAccumulate(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l := generateTuitionOnly(t, e)

	var err error
	prev := l.Paid
	for _, amt := range []string{"50", "50", "33.33"} {
		l, err = e.RecordInstallmentPayment(l, models.TrackTuition, 1, dec(amt), Payment{})
		require.NoError(t, err)
		assert.True(t, l.Paid.Tuition.GreaterThan(prev.Tuition))
		assert.True(t, l.Paid.GrandTotal.GreaterThan(prev.GrandTotal))
		prev = l.Paid
		assertInvariants(t, l)
	}
	assert.Equal(t, models.StatusPaid, l.Tuition.Schedule[1].Status)
	assertAmount(t, "133.33", l.Tuition.Schedule[1].PaidAmount)
}

func TestInstallmentPaymentFailures(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l := generateTuitionOnly(t, e)
	annual, err := e.RecordAnnualTuitionPayment(l, decimal.Zero, Payment{})
	require.NoError(t, err)

	tests := []struct {
		name   string
		ledger *models.StudentFeeLedger
		track  models.Track
		index  int
		amount string
		method models.PaymentMethod
		want   error
	}{
		{"zero amount", l, models.TrackTuition, 0, "0", "", models.ErrInvalidAmount},
		{"negative amount", l, models.TrackTuition, 0, "-5", "", models.ErrInvalidAmount},
		{"index too high", l, models.TrackTuition, 9, "10", "", models.ErrInstallmentNotFound},
		{"negative index", l, models.TrackTuition, -1, "10", "", models.ErrInstallmentNotFound},
		{"no transport", l, models.TrackTransportation, 0, "10", "", models.ErrTrackNotApplicable},
		{"after annual", annual, models.TrackTuition, 0, "10", "", models.ErrAnnualAlreadyPaid},
		{"bad method", l, models.TrackTuition, 0, "10", "barter", models.ErrInvalidMethod},
		{"fraction of a cent", l, models.TrackTuition, 0, "0.001", "", models.ErrInvalidAmount},
		{"sub-cent tuition", l, models.TrackTuition, 1, "133.333", "", models.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.RecordInstallmentPayment(tt.ledger, tt.track, tt.index, dec(tt.amount), Payment{Method: tt.method})
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestMonthlyDiscountRespreadsPendingOnly(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l := generateTuitionOnly(t, e)
	l, err := e.RecordInstallmentPayment(l, models.TrackTuition, 0, dec("133.33"), Payment{})
	require.NoError(t, err)

	l, err = e.ApplyDiscount(l, DiscountInput{Type: models.DiscountMonthly, Percentage: dec("10"), AppliedBy: 7})
	require.NoError(t, err)

	assertAmount(t, "1080", l.Totals.Tuition)
	assertAmount(t, "120", l.Discount.Amount)
	assertAmount(t, "133.33", l.Tuition.Schedule[0].Amount)
	assert.Equal(t, models.StatusPaid, l.Tuition.Schedule[0].Status)
	for i := 1; i < 8; i++ {
		assertAmount(t, "118.33", l.Tuition.Schedule[i].Amount, "installment", i)
	}
	assertAmount(t, "118.36", l.Tuition.Schedule[8].Amount)

	sum := decimal.Zero
	for _, inst := range l.Tuition.Schedule {
		sum = sum.Add(inst.Amount)
	}
	assertAmount(t, "1080", sum)
	assert.True(t, l.Discount.Enabled)
	assertInvariants(t, l)
}

func TestPartialInstallmentKeepsAmountUnderDiscount(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l := generateTuitionOnly(t, e)
	l, err := e.RecordInstallmentPayment(l, models.TrackTuition, 0, dec("50"), Payment{})
	require.NoError(t, err)

	l, err = e.ApplyDiscount(l, DiscountInput{Type: models.DiscountMonthly, Percentage: dec("25")})
	require.NoError(t, err)
	assertAmount(t, "133.33", l.Tuition.Schedule[0].Amount)
	assert.Equal(t, models.StatusPartial, l.Tuition.Schedule[0].Status)
	assertInvariants(t, l)
}

func TestApplyDiscountReplacesPrevious(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l := generateTuitionOnly(t, e)

	l, err := e.ApplyDiscount(l, DiscountInput{Type: models.DiscountMonthly, Percentage: dec("10")})
	require.NoError(t, err)
	l, err = e.ApplyDiscount(l, DiscountInput{Type: models.DiscountMonthly, Percentage: dec("20")})
	require.NoError(t, err)

	assertAmount(t, "960", l.Totals.Tuition)
	assertAmount(t, "1200", l.Tuition.BaseAmount)
}

func TestAnnualDiscountLeavesScheduleAlone(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l := generateTuitionOnly(t, e)

	l, err := e.ApplyDiscount(l, DiscountInput{Type: models.DiscountAnnual, Percentage: dec("5")})
	require.NoError(t, err)
	assertAmount(t, "1140", l.Totals.Tuition)
	assertAmount(t, "133.33", l.Tuition.Schedule[3].Amount)
	assertInvariants(t, l)
}

func TestRepriceKeepsAnnualDiscountOffSchedule(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l := generateTuitionOnly(t, e)
	l, err := e.ApplyDiscount(l, DiscountInput{Type: models.DiscountAnnual, Percentage: dec("10")})
	require.NoError(t, err)
	assertAmount(t, "1080", l.Totals.Tuition)
	assertAmount(t, "1200", scheduleSum(l.Tuition.Schedule))

	got, err := e.Reprice(l, testConfig(), true)
	require.NoError(t, err)
	assertAmount(t, "1080", got.Totals.Tuition)
	assertAmount(t, "1200", scheduleSum(got.Tuition.Schedule))
	assertAmount(t, "133.33", got.Tuition.Schedule[0].Amount)
	assert.Equal(t, models.DiscountAnnual, got.Discount.Type)
	assertInvariants(t, got)

	cfg := testConfig()
	cfg.GradeAmounts["7ème année"] = dec("1500")
	got, err = e.Reprice(l, cfg, true)
	require.NoError(t, err)
	assertAmount(t, "1350", got.Totals.Tuition)
	assertAmount(t, "1500", scheduleSum(got.Tuition.Schedule))
}

func TestSwitchingMonthlyToAnnualDiscountRestoresSchedule(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l := generateTuitionOnly(t, e)
	l, err := e.ApplyDiscount(l, DiscountInput{Type: models.DiscountMonthly, Percentage: dec("10")})
	require.NoError(t, err)
	assertAmount(t, "1080", scheduleSum(l.Tuition.Schedule))

	l, err = e.ApplyDiscount(l, DiscountInput{Type: models.DiscountAnnual, Percentage: dec("10")})
	require.NoError(t, err)
	assertAmount(t, "1200", scheduleSum(l.Tuition.Schedule))
	assertAmount(t, "1080", l.Totals.Tuition)
}

func scheduleSum(schedule []models.Installment) decimal.Decimal {
	sum := decimal.Zero
	for _, inst := range schedule {
		sum = sum.Add(inst.Amount)
	}
	return sum
}

func TestDiscountFailures(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l := generateTuitionOnly(t, e)
	annual, err := e.RecordAnnualTuitionPayment(l, decimal.Zero, Payment{})
	require.NoError(t, err)

	tests := []struct {
		name   string
		ledger *models.StudentFeeLedger
		in     DiscountInput
		want   error
	}{
		{"over 100", l, DiscountInput{Type: models.DiscountMonthly, Percentage: dec("101")}, models.ErrInvalidDiscount},
		{"negative", l, DiscountInput{Type: models.DiscountMonthly, Percentage: dec("-1")}, models.ErrInvalidDiscount},
		{"bad type", l, DiscountInput{Type: "weekly", Percentage: dec("10")}, models.ErrInvalidDiscount},
		{"three decimals", l, DiscountInput{Type: models.DiscountMonthly, Percentage: dec("12.345")}, models.ErrInvalidDiscount},
		{"annual settled", annual, DiscountInput{Type: models.DiscountMonthly, Percentage: dec("10")}, models.ErrAnnualAlreadyPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ApplyDiscount(tt.ledger, tt.in)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err = e.RemoveDiscount(l, testConfig())
	assert.True(t, errors.Is(err, models.ErrNoDiscountApplied))
	_, err = e.RemoveDiscount(annual, testConfig())
	assert.True(t, errors.Is(err, models.ErrAnnualAlreadyPaid))
}

func TestRemoveDiscountRestoresGradePrice(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l := generateTuitionOnly(t, e)
	before := l.Totals.Tuition

	discounted, err := e.ApplyDiscount(l, DiscountInput{Type: models.DiscountMonthly, Percentage: dec("15")})
	require.NoError(t, err)
	restored, err := e.RemoveDiscount(discounted, testConfig())
	require.NoError(t, err)

	assert.True(t, before.Equal(restored.Totals.Tuition))
	assert.False(t, restored.Discount.Enabled)
	for i := range l.Tuition.Schedule {
		assert.True(t, l.Tuition.Schedule[i].Amount.Equal(restored.Tuition.Schedule[i].Amount), "installment %d", i)
	}
	assertInvariants(t, restored)

	// price changed in the configuration since generation
	cfg := testConfig()
	cfg.GradeAmounts["7ème année"] = dec("1350")
	restored, err = e.RemoveDiscount(discounted, cfg)
	require.NoError(t, err)
	assertAmount(t, "1350", restored.Totals.Tuition)
}

func TestAnnualTuitionPayment(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l := generateTuitionOnly(t, e)
	original := make([]decimal.Decimal, len(l.Tuition.Schedule))
	for i, inst := range l.Tuition.Schedule {
		original[i] = inst.Amount
	}

	got, err := e.RecordAnnualTuitionPayment(l, dec("50"), Payment{Method: models.MethodBankTransfer, Receipt: "ANN-1"})
	require.NoError(t, err)

	assertAmount(t, "1150", got.Paid.Tuition)
	assertAmount(t, "0", got.Remaining.Tuition)
	assert.Equal(t, models.StatusCompleted, got.ComponentStatus.Tuition)
	assert.Equal(t, models.StatusCompleted, got.OverallStatus)
	assert.Equal(t, models.PaymentAnnual, got.PaymentType)
	assert.True(t, got.AnnualPayment.IsPaid)
	assertAmount(t, "50", got.AnnualPayment.Discount)
	for i, inst := range got.Tuition.Schedule {
		assert.Equal(t, models.StatusPaid, inst.Status)
		assert.True(t, original[i].Equal(inst.Amount))
		assert.Equal(t, "ANN-1", inst.Payment.Receipt)
	}
	assertInvariants(t, got)

	_, err = e.RecordAnnualTuitionPayment(got, decimal.Zero, Payment{})
	assert.True(t, errors.Is(err, models.ErrAlreadyPaid))
}

func TestAnnualPaymentReplacesMonthlyPaid(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l := generateTuitionOnly(t, e)
	l, err := e.RecordInstallmentPayment(l, models.TrackTuition, 0, dec("133.33"), Payment{})
	require.NoError(t, err)

	got, err := e.RecordAnnualTuitionPayment(l, dec("100"), Payment{})
	require.NoError(t, err)
	assertAmount(t, "1100", got.Paid.Tuition)
	assertAmount(t, "1100", got.Paid.GrandTotal)
	assertInvariants(t, got)

	_, err = e.RecordAnnualTuitionPayment(l, dec("1300"), Payment{})
	assert.True(t, errors.Is(err, models.ErrInvalidAmount))
	_, err = e.RecordAnnualTuitionPayment(l, dec("10.005"), Payment{})
	assert.True(t, errors.Is(err, models.ErrInvalidAmount))
}

func TestLumpSumPayments(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l, err := e.Generate(seventhGrader(), testConfig(), GenerateOptions{HasUniform: true, IncludeRegistrationFee: true}, 7)
	require.NoError(t, err)

	l, err = e.RecordLumpSumPayment(l, models.ComponentUniform, Payment{Method: models.MethodCheck})
	require.NoError(t, err)
	assertAmount(t, "150", l.Paid.Uniform)
	assert.Equal(t, models.StatusCompleted, l.ComponentStatus.Uniform)
	assert.Equal(t, models.StatusPartial, l.OverallStatus)
	assertInvariants(t, l)

	_, err = e.RecordLumpSumPayment(l, models.ComponentUniform, Payment{})
	assert.True(t, errors.Is(err, models.ErrAlreadyPaid))

	tuitionOnly := generateTuitionOnly(t, e)
	_, err = e.RecordLumpSumPayment(tuitionOnly, models.ComponentRegistrationFee, Payment{})
	assert.True(t, errors.Is(err, models.ErrNotApplicable))
}

func TestReconfigureRefusesPaidUniformRemoval(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l, err := e.Generate(seventhGrader(), testConfig(), GenerateOptions{HasUniform: true}, 7)
	require.NoError(t, err)
	l, err = e.RecordLumpSumPayment(l, models.ComponentUniform, Payment{})
	require.NoError(t, err)

	got, err := e.ReconfigureComponents(l, testConfig(), ComponentOptions{HasUniform: false})
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, models.ErrComponentAlreadyPaid))
	assert.True(t, l.Uniform.IsPaid)
	assertAmount(t, "150", l.Totals.Uniform)
	assertAmount(t, "150", l.Paid.Uniform)
}

func TestReconfigureTogglesComponents(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l := generateTuitionOnly(t, e)

	l, err := e.ReconfigureComponents(l, testConfig(), ComponentOptions{HasUniform: true, HasRegistrationFee: true, TransportTier: models.TransportClose})
	require.NoError(t, err)
	assertAmount(t, "150", l.Totals.Uniform)
	assertAmount(t, "200", l.Totals.RegistrationFee)
	assertAmount(t, "360", l.Totals.Transportation)
	assertAmount(t, "1910", l.Totals.GrandTotal)
	assertInvariants(t, l)

	l, err = e.ReconfigureComponents(l, testConfig(), ComponentOptions{})
	require.NoError(t, err)
	assertAmount(t, "1200", l.Totals.GrandTotal)
	assert.False(t, l.Transportation.Using)
	assertInvariants(t, l)
}

func TestReconfigureTransportTier(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l, err := e.Generate(seventhGrader(), testConfig(), GenerateOptions{TransportTier: models.TransportClose}, 7)
	require.NoError(t, err)

	t.Run("partial payment carries over", func(t *testing.T) {
		partial, err := e.RecordInstallmentPayment(l, models.TrackTransportation, 0, dec("20"), Payment{})
		require.NoError(t, err)
		got, err := e.ReconfigureComponents(partial, testConfig(), ComponentOptions{TransportTier: models.TransportFar})
		require.NoError(t, err)
		assertAmount(t, "60", got.Transportation.Schedule[0].Amount)
		assertAmount(t, "20", got.Transportation.Schedule[0].PaidAmount)
		assertAmount(t, "20", got.Paid.Transportation)
		assertAmount(t, "540", got.Totals.Transportation)
		assertInvariants(t, got)
	})

	t.Run("paid installment locks the tier", func(t *testing.T) {
		paid, err := e.RecordInstallmentPayment(l, models.TrackTransportation, 0, dec("40"), Payment{})
		require.NoError(t, err)
		got, err := e.ReconfigureComponents(paid, testConfig(), ComponentOptions{TransportTier: models.TransportFar})
		assert.Nil(t, got)
		assert.True(t, errors.Is(err, models.ErrTierLockedByPayment))

		got, err = e.ReconfigureComponents(paid, testConfig(), ComponentOptions{})
		assert.Nil(t, got)
		assert.True(t, errors.Is(err, models.ErrComponentAlreadyPaid))
	})
}

func TestRepriceKeepsCollectedMoney(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l, err := e.Generate(seventhGrader(), testConfig(), GenerateOptions{HasUniform: true, IncludeRegistrationFee: true}, 7)
	require.NoError(t, err)
	l, err = e.RecordLumpSumPayment(l, models.ComponentUniform, Payment{})
	require.NoError(t, err)
	l, err = e.RecordInstallmentPayment(l, models.TrackTuition, 0, dec("133.33"), Payment{})
	require.NoError(t, err)

	cfg := testConfig()
	cfg.GradeAmounts["7ème année"] = dec("1400")
	cfg.Uniform.Price = dec("180")
	cfg.RegistrationFee.LateTier = dec("250")
	cfg.GracePeriod = 10

	got, err := e.Reprice(l, cfg, true)
	require.NoError(t, err)
	assertAmount(t, "1400", got.Totals.Tuition)
	assertAmount(t, "150", got.Totals.Uniform)
	assertAmount(t, "250", got.Totals.RegistrationFee)
	assertAmount(t, "133.33", got.Tuition.Schedule[0].Amount)
	assert.Equal(t, 10, got.GracePeriod)
	assertInvariants(t, got)

	annual, err := e.RecordAnnualTuitionPayment(l, decimal.Zero, Payment{})
	require.NoError(t, err)
	_, err = e.Reprice(annual, cfg, true)
	assert.True(t, errors.Is(err, models.ErrAnnualAlreadyPaid))
	got, err = e.Reprice(annual, cfg, false)
	require.NoError(t, err)
	assert.True(t, annual.Totals.Tuition.Equal(got.Totals.Tuition))
}

func TestRecomputeStatusesIsIdempotent(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l := generateTuitionOnly(t, e)
	l, err := e.RecordInstallmentPayment(l, models.TrackTuition, 2, dec("10"), Payment{})
	require.NoError(t, err)

	later := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	once := RecomputeStatuses(l, 5, later)
	twice := RecomputeStatuses(once, 5, later)
	assert.Equal(t, once, twice)

	assert.Equal(t, models.StatusOverdue, once.Tuition.Schedule[0].Status)
	assert.Equal(t, models.StatusOverdue, once.Tuition.Schedule[1].Status)
	assert.Equal(t, models.StatusPartial, once.Tuition.Schedule[2].Status)
	assert.Equal(t, models.StatusPending, once.Tuition.Schedule[3].Status)
	assert.Equal(t, models.StatusOverdue, once.ComponentStatus.Tuition)
	assert.Equal(t, models.StatusOverdue, once.OverallStatus)
	assert.Equal(t, models.StatusPending, l.Tuition.Schedule[0].Status)
	assertInvariants(t, once)
}

func TestMonthlyAmountDue(t *testing.T) {
	e := NewEngine(fixedClock(septFirst))
	l, err := e.Generate(seventhGrader(), testConfig(), GenerateOptions{TransportTier: models.TransportClose}, 7)
	require.NoError(t, err)
	assertAmount(t, "173.33", l.MonthlyAmountDue(9))
	assertAmount(t, "173.36", l.MonthlyAmountDue(5))
	assertAmount(t, "0", l.MonthlyAmountDue(7))
}
