package services

import (
	"context"
	"schoolfees_go/models"
	"schoolfees_go/services/ledger"
	"schoolfees_go/storage"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	reportDashboard = "dashboard"
	reportMonthly   = "monthly"
)

// CategoryBreakdown aggregates the ledgers of one grade category.
type CategoryBreakdown struct {
	Ledgers   int             `json:"ledgers"`
	Expected  decimal.Decimal `json:"expected"`
	Collected decimal.Decimal `json:"collected"`
}

// FeeDashboard is the collection overview of a school year.
type FeeDashboard struct {
	SchoolID       uint                                        `json:"school_id"`
	AcademicYear   string                                      `json:"academic_year"`
	Students       int                                         `json:"students"`
	WithLedger     int                                         `json:"with_ledger"`
	WithoutLedger  int                                         `json:"without_ledger"`
	Totals         models.ComponentAmounts                     `json:"totals"`
	Paid           models.ComponentAmounts                     `json:"paid"`
	Remaining      models.ComponentAmounts                     `json:"remaining"`
	CollectionRate decimal.Decimal                             `json:"collection_rate"`
	StatusCounts   map[models.Status]int                       `json:"status_counts"`
	ByCategory     map[models.GradeCategory]*CategoryBreakdown `json:"by_category"`
	AnnualPayers   int                                         `json:"annual_payers"`
	Discounted     int                                         `json:"discounted"`
	GeneratedAt    time.Time                                   `json:"generated_at"`
}

// MonthStat aggregates the installments falling in one month.
type MonthStat struct {
	Month        int             `json:"month"`
	MonthName    string          `json:"month_name"`
	Expected     decimal.Decimal `json:"expected"`
	Collected    decimal.Decimal `json:"collected"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	PaidCount    int             `json:"paid_count"`
	OverdueCount int             `json:"overdue_count"`
}

func addAmounts(a, b models.ComponentAmounts) models.ComponentAmounts {
	return models.ComponentAmounts{
		Tuition:         a.Tuition.Add(b.Tuition),
		RegistrationFee: a.RegistrationFee.Add(b.RegistrationFee),
		Uniform:         a.Uniform.Add(b.Uniform),
		Transportation:  a.Transportation.Add(b.Transportation),
		GrandTotal:      a.GrandTotal.Add(b.GrandTotal),
	}
}

// Dashboard returns the collection overview of a school year.
func (s *FeeService) Dashboard(ctx context.Context, schoolID uint, year string) (*FeeDashboard, error) {
	if _, err := models.ParseAcademicYear(year); err != nil {
		return nil, err
	}
	var cached FeeDashboard
	if s.cache.Load(ctx, reportDashboard, schoolID, year, &cached) {
		return &cached, nil
	}

	students, err := s.students.ListStudents(ctx, schoolID, storage.StudentFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "dashboard students")
	}
	ledgers, err := s.ListLedgers(ctx, storage.LedgerQuery{SchoolID: schoolID, AcademicYear: year})
	if err != nil {
		return nil, errors.Wrap(err, "dashboard ledgers")
	}

	d := &FeeDashboard{
		SchoolID:     schoolID,
		AcademicYear: year,
		Students:     len(students),
		WithLedger:   len(ledgers),
		StatusCounts: map[models.Status]int{},
		ByCategory:   map[models.GradeCategory]*CategoryBreakdown{},
		GeneratedAt:  s.engine.Now().UTC(),
	}
	if d.Students > d.WithLedger {
		d.WithoutLedger = d.Students - d.WithLedger
	}
	for _, l := range ledgers {
		d.Totals = addAmounts(d.Totals, l.Totals)
		d.Paid = addAmounts(d.Paid, l.Paid)
		d.StatusCounts[l.OverallStatus]++
		cat, ok := d.ByCategory[l.GradeCategory]
		if !ok {
			cat = &CategoryBreakdown{}
			d.ByCategory[l.GradeCategory] = cat
		}
		cat.Ledgers++
		cat.Expected = cat.Expected.Add(l.Totals.GrandTotal)
		cat.Collected = cat.Collected.Add(l.Paid.GrandTotal)
		if l.AnnualPayment.IsPaid {
			d.AnnualPayers++
		}
		if l.Discount.Enabled {
			d.Discounted++
		}
	}
	d.Remaining = models.ComponentAmounts{
		Tuition:         d.Totals.Tuition.Sub(d.Paid.Tuition),
		RegistrationFee: d.Totals.RegistrationFee.Sub(d.Paid.RegistrationFee),
		Uniform:         d.Totals.Uniform.Sub(d.Paid.Uniform),
		Transportation:  d.Totals.Transportation.Sub(d.Paid.Transportation),
		GrandTotal:      d.Totals.GrandTotal.Sub(d.Paid.GrandTotal),
	}
	if d.Totals.GrandTotal.IsPositive() {
		d.CollectionRate = d.Paid.GrandTotal.Div(d.Totals.GrandTotal).Mul(decimal.NewFromInt(100)).Round(2)
	}

	s.cache.Store(ctx, reportDashboard, schoolID, year, d)
	return d, nil
}

// MonthlyStats aggregates tuition and transportation installments per month,
// in academic order starting from the configured first month.
func (s *FeeService) MonthlyStats(ctx context.Context, schoolID uint, year string) ([]MonthStat, error) {
	if _, err := models.ParseAcademicYear(year); err != nil {
		return nil, err
	}
	var cached []MonthStat
	if s.cache.Load(ctx, reportMonthly, schoolID, year, &cached) {
		return cached, nil
	}

	start := models.DefaultStartMonth
	cfg, err := s.pricing.ActiveConfiguration(ctx, schoolID, year)
	switch {
	case err == nil:
		start = cfg.PaymentSchedule.StartMonth
	case !errors.Is(err, models.ErrConfigurationMissing):
		return nil, err
	}

	ledgers, err := s.ListLedgers(ctx, storage.LedgerQuery{SchoolID: schoolID, AcademicYear: year})
	if err != nil {
		return nil, err
	}

	byMonth := map[int]*MonthStat{}
	add := func(inst models.Installment) {
		st, ok := byMonth[inst.Month]
		if !ok {
			st = &MonthStat{Month: inst.Month, MonthName: ledger.MonthName(inst.Month)}
			byMonth[inst.Month] = st
		}
		st.Expected = st.Expected.Add(inst.Amount)
		st.Collected = st.Collected.Add(inst.PaidAmount)
		st.Outstanding = st.Outstanding.Add(inst.Outstanding())
		switch inst.Status {
		case models.StatusPaid:
			st.PaidCount++
		case models.StatusOverdue:
			st.OverdueCount++
		}
	}
	for _, l := range ledgers {
		for _, inst := range l.Tuition.Schedule {
			add(inst)
		}
		if l.Transportation.Using {
			for _, inst := range l.Transportation.Schedule {
				add(inst)
			}
		}
	}

	out := make([]MonthStat, 0, len(byMonth))
	for i := 0; i < 12; i++ {
		m := (start-1+i)%12 + 1
		if st, ok := byMonth[m]; ok {
			out = append(out, *st)
		}
	}
	s.cache.Store(ctx, reportMonthly, schoolID, year, out)
	return out, nil
}
