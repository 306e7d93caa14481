package services

import (
	"context"
	"schoolfees_go/models"
	"schoolfees_go/services/ledger"
	"schoolfees_go/storage"
	"schoolfees_go/utils"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// StudentDirectory resolves the students of a school.
type StudentDirectory interface {
	GetStudent(ctx context.Context, schoolID, studentID uint) (*models.Student, error)
	ListStudents(ctx context.Context, schoolID uint, f storage.StudentFilter) ([]models.Student, error)
}

// PricingStore keeps one active pricing configuration per school and year.
type PricingStore interface {
	ActiveConfiguration(ctx context.Context, schoolID uint, year string) (*models.PricingConfiguration, error)
	SaveConfiguration(ctx context.Context, cfg *models.PricingConfiguration) error
	ListActive(ctx context.Context) ([]models.PricingConfiguration, error)
}

// LedgerStore persists ledgers. Mutate must serialize read-modify-write
// cycles per ledger and report lost races as ErrVersionConflict.
type LedgerStore interface {
	Create(ctx context.Context, l *models.StudentFeeLedger) error
	Get(ctx context.Context, schoolID, studentID uint, year string) (*models.StudentFeeLedger, error)
	Mutate(ctx context.Context, schoolID, studentID uint, year string, fn storage.MutateFunc) (*models.StudentFeeLedger, error)
	Delete(ctx context.Context, schoolID, studentID uint, year string) error
	List(ctx context.Context, q storage.LedgerQuery) ([]models.StudentFeeLedger, error)
}

// LedgerKey identifies a ledger inside a school.
type LedgerKey struct {
	SchoolID     uint
	StudentID    uint
	AcademicYear string
}

func (k LedgerKey) fields() logrus.Fields {
	return logrus.Fields{
		"school_id":     k.SchoolID,
		"student_id":    k.StudentID,
		"academic_year": k.AcademicYear,
	}
}

// FeeService runs ledger operations against the stores.
type FeeService struct {
	ledgers      LedgerStore
	pricing      PricingStore
	students     StudentDirectory
	engine       *ledger.Engine
	cache        *ReportCache
	retries      int
	backoff      time.Duration
	defaultGrace int
}

func NewFeeService(ledgers LedgerStore, pricing PricingStore, students StudentDirectory) *FeeService {
	return &FeeService{
		ledgers:      ledgers,
		pricing:      pricing,
		students:     students,
		engine:       ledger.NewEngine(nil),
		retries:      3,
		backoff:      50 * time.Millisecond,
		defaultGrace: models.DefaultGracePeriod,
	}
}

// SetClock replaces the wall clock used for dates and overdue checks.
func (s *FeeService) SetClock(now func() time.Time) {
	s.engine = ledger.NewEngine(now)
}

// SetReportCache enables caching of dashboard figures.
func (s *FeeService) SetReportCache(c *ReportCache) {
	s.cache = c
}

// SetRetryPolicy sets how often a mutation is retried after losing a race.
func (s *FeeService) SetRetryPolicy(attempts int, backoff time.Duration) {
	if attempts > 0 {
		s.retries = attempts
	}
	if backoff >= 0 {
		s.backoff = backoff
	}
}

// SetDefaultGracePeriod sets the grace period of configurations created from scratch.
func (s *FeeService) SetDefaultGracePeriod(days int) {
	if days >= 0 && days <= models.MaxGracePeriod {
		s.defaultGrace = days
	}
}

// Now is the service clock reading.
func (s *FeeService) Now() time.Time {
	return s.engine.Now()
}

func isFeeError(err error) bool {
	var fe *models.FeeError
	return errors.As(err, &fe)
}

// mutate runs fn against the stored ledger, retrying on version conflicts.
func (s *FeeService) mutate(ctx context.Context, op string, key LedgerKey, fn storage.MutateFunc) (*models.StudentFeeLedger, error) {
	if _, err := models.ParseAcademicYear(key.AcademicYear); err != nil {
		return nil, err
	}
	log := logrus.WithFields(key.fields()).WithField("op", op)

	var err error
	for attempt := 1; attempt <= s.retries; attempt++ {
		var l *models.StudentFeeLedger
		l, err = s.ledgers.Mutate(ctx, key.SchoolID, key.StudentID, key.AcademicYear, fn)
		if err == nil {
			s.invalidateReports(ctx, key.SchoolID, key.AcademicYear)
			log.WithFields(logrus.Fields{
				"version":        l.Version,
				"overall_status": l.OverallStatus,
			}).Info("Fee ledger updated")
			return l, nil
		}
		if !errors.Is(err, models.ErrVersionConflict) {
			break
		}
		log.WithField("attempt", attempt).Warn("Fee ledger changed concurrently, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt*attempt) * s.backoff):
		}
	}
	if !isFeeError(err) {
		log.WithError(err).Error("Fee ledger update failed")
	}
	return nil, err
}

func (s *FeeService) configuration(ctx context.Context, schoolID uint, year string) (*models.PricingConfiguration, error) {
	if _, err := models.ParseAcademicYear(year); err != nil {
		return nil, err
	}
	return s.pricing.ActiveConfiguration(ctx, schoolID, year)
}

// GetConfiguration returns the active configuration of a school year.
func (s *FeeService) GetConfiguration(ctx context.Context, schoolID uint, year string) (*models.PricingConfiguration, error) {
	return s.configuration(ctx, schoolID, year)
}

// ConfigurationOrDefault returns the active configuration, or an unsaved
// all-zero one when the year has not been configured. The flag reports
// whether the configuration exists.
func (s *FeeService) ConfigurationOrDefault(ctx context.Context, schoolID uint, year string) (*models.PricingConfiguration, bool, error) {
	cfg, err := s.configuration(ctx, schoolID, year)
	if err == nil {
		return cfg, true, nil
	}
	if !errors.Is(err, models.ErrConfigurationMissing) {
		return nil, false, err
	}
	cfg = models.NewPricingConfiguration(schoolID, year)
	cfg.GracePeriod = s.defaultGrace
	return cfg, false, nil
}

// SaveConfiguration creates or replaces the active configuration of a
// school year. Existing ledgers keep their amounts until
// ApplyConfigurationToLedgers is run.
func (s *FeeService) SaveConfiguration(ctx context.Context, schoolID uint, year string, cfg *models.PricingConfiguration, userID uint) (*models.PricingConfiguration, error) {
	if _, err := models.ParseAcademicYear(year); err != nil {
		return nil, err
	}
	cfg.SchoolID = schoolID
	cfg.AcademicYear = year
	cfg.UpdatedBy = userID

	existing, err := s.pricing.ActiveConfiguration(ctx, schoolID, year)
	switch {
	case err == nil:
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
		cfg.CreatedBy = existing.CreatedBy
	case errors.Is(err, models.ErrConfigurationMissing):
		cfg.ID = 0
		cfg.CreatedBy = userID
	default:
		return nil, err
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.pricing.SaveConfiguration(ctx, cfg); err != nil {
		return nil, err
	}
	s.invalidateReports(ctx, schoolID, year)
	logrus.WithFields(logrus.Fields{
		"school_id":     schoolID,
		"academic_year": year,
		"config_id":     cfg.ID,
		"updated_by":    userID,
	}).Info("Pricing configuration saved")
	return cfg, nil
}

func studentInfo(st *models.Student) ledger.StudentInfo {
	return ledger.StudentInfo{
		ID:       st.ID,
		SchoolID: st.SchoolID,
		Name:     st.FullName(),
		Grade:    st.Grade(),
	}
}

// GenerateLedger creates the ledger of one student for a year.
func (s *FeeService) GenerateLedger(ctx context.Context, key LedgerKey, opts ledger.GenerateOptions, userID uint) (*models.StudentFeeLedger, error) {
	if _, err := models.ParseAcademicYear(key.AcademicYear); err != nil {
		return nil, err
	}
	_, err := s.ledgers.Get(ctx, key.SchoolID, key.StudentID, key.AcademicYear)
	if err == nil {
		return nil, models.ErrAlreadyExists.With("student %d, %s", key.StudentID, key.AcademicYear)
	}
	if !errors.Is(err, models.ErrLedgerNotFound) {
		return nil, err
	}

	st, err := s.students.GetStudent(ctx, key.SchoolID, key.StudentID)
	if err != nil {
		return nil, err
	}
	if st.Grade() == "" {
		return nil, models.ErrNoClassAssigned.With("student %d", st.ID)
	}
	cfg, err := s.pricing.ActiveConfiguration(ctx, key.SchoolID, key.AcademicYear)
	if err != nil {
		return nil, err
	}

	l, err := s.engine.Generate(studentInfo(st), cfg, opts, userID)
	if err != nil {
		return nil, err
	}
	if err := s.ledgers.Create(ctx, l); err != nil {
		return nil, err
	}
	s.invalidateReports(ctx, key.SchoolID, key.AcademicYear)
	logrus.WithFields(key.fields()).WithFields(logrus.Fields{
		"grade":       l.Grade,
		"grand_total": l.Totals.GrandTotal.String(),
	}).Info("Fee ledger generated")
	return l, nil
}

// BulkItem explains why one student of a bulk run did not succeed.
type BulkItem struct {
	StudentID uint                `json:"student_id"`
	Kind      models.FeeErrorKind `json:"kind,omitempty"`
	Reason    string              `json:"reason"`
}

// BulkResult summarizes a bulk run. Each student is handled on its own, so
// failures never undo the successes listed here.
type BulkResult struct {
	Succeeded []uint     `json:"succeeded"`
	Skipped   []BulkItem `json:"skipped"`
	Failed    []BulkItem `json:"failed"`
}

func newBulkResult() *BulkResult {
	return &BulkResult{Succeeded: []uint{}, Skipped: []BulkItem{}, Failed: []BulkItem{}}
}

func (r *BulkResult) add(studentID uint, err error, skip ...*models.FeeError) {
	if err == nil {
		r.Succeeded = append(r.Succeeded, studentID)
		return
	}
	item := BulkItem{StudentID: studentID, Reason: err.Error()}
	var fe *models.FeeError
	if errors.As(err, &fe) {
		item.Kind = fe.Kind
	}
	for _, k := range skip {
		if errors.Is(err, k) {
			r.Skipped = append(r.Skipped, item)
			return
		}
	}
	r.Failed = append(r.Failed, item)
}

// BulkGenerate generates ledgers for the given students, or for every active
// student of the school when studentIDs is empty. Students that already have
// a ledger or no class are skipped.
func (s *FeeService) BulkGenerate(ctx context.Context, schoolID uint, year string, studentIDs []uint, opts ledger.GenerateOptions, userID uint) (*BulkResult, error) {
	if _, err := s.configuration(ctx, schoolID, year); err != nil {
		return nil, err
	}
	if len(studentIDs) == 0 {
		students, err := s.students.ListStudents(ctx, schoolID, storage.StudentFilter{})
		if err != nil {
			return nil, err
		}
		for _, st := range students {
			studentIDs = append(studentIDs, st.ID)
		}
	}

	res := newBulkResult()
	for _, id := range studentIDs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		_, err := s.GenerateLedger(ctx, LedgerKey{SchoolID: schoolID, StudentID: id, AcademicYear: year}, opts, userID)
		res.add(id, err, models.ErrAlreadyExists, models.ErrNoClassAssigned)
	}
	logrus.WithFields(logrus.Fields{
		"school_id":     schoolID,
		"academic_year": year,
		"succeeded":     len(res.Succeeded),
		"skipped":       len(res.Skipped),
		"failed":        len(res.Failed),
	}).Info("Bulk ledger generation finished")
	return res, nil
}

func (s *FeeService) withReceipt(p ledger.Payment) ledger.Payment {
	if p.Receipt == "" {
		at := p.Date
		if at.IsZero() {
			at = s.engine.Now()
		}
		p.Receipt = utils.GenerateReceiptNumber(at)
	}
	return p
}

// RecordLumpSumPayment settles the uniform or the registration fee.
func (s *FeeService) RecordLumpSumPayment(ctx context.Context, key LedgerKey, c models.LumpSumComponent, p ledger.Payment) (*models.StudentFeeLedger, error) {
	p = s.withReceipt(p)
	return s.mutate(ctx, "lump_sum_payment", key, func(cur *models.StudentFeeLedger) (*models.StudentFeeLedger, error) {
		return s.engine.RecordLumpSumPayment(cur, c, p)
	})
}

// RecordInstallmentPayment adds a payment to one tuition or transportation month.
func (s *FeeService) RecordInstallmentPayment(ctx context.Context, key LedgerKey, track models.Track, monthIndex int, amount decimal.Decimal, p ledger.Payment) (*models.StudentFeeLedger, error) {
	p = s.withReceipt(p)
	return s.mutate(ctx, "installment_payment", key, func(cur *models.StudentFeeLedger) (*models.StudentFeeLedger, error) {
		return s.engine.RecordInstallmentPayment(cur, track, monthIndex, amount, p)
	})
}

// RecordAnnualTuitionPayment settles the tuition for the whole year. A nil
// discount falls back to the configured annual payment discount.
func (s *FeeService) RecordAnnualTuitionPayment(ctx context.Context, key LedgerKey, discount *decimal.Decimal, p ledger.Payment) (*models.StudentFeeLedger, error) {
	var cfg *models.PricingConfiguration
	if discount == nil {
		var err error
		cfg, err = s.configuration(ctx, key.SchoolID, key.AcademicYear)
		if err != nil && !errors.Is(err, models.ErrConfigurationMissing) {
			return nil, err
		}
	}
	p = s.withReceipt(p)
	return s.mutate(ctx, "annual_payment", key, func(cur *models.StudentFeeLedger) (*models.StudentFeeLedger, error) {
		amount := decimal.Zero
		switch {
		case discount != nil:
			amount = *discount
		case cfg != nil:
			amount = cfg.AnnualDiscountFor(cur.Tuition.AnnualAmount)
		}
		return s.engine.RecordAnnualTuitionPayment(cur, amount, p)
	})
}

// ApplyDiscount sets the tuition discount of a ledger.
func (s *FeeService) ApplyDiscount(ctx context.Context, key LedgerKey, in ledger.DiscountInput) (*models.StudentFeeLedger, error) {
	return s.mutate(ctx, "apply_discount", key, func(cur *models.StudentFeeLedger) (*models.StudentFeeLedger, error) {
		return s.engine.ApplyDiscount(cur, in)
	})
}

// RemoveDiscount drops the discount and restores the configured tuition.
func (s *FeeService) RemoveDiscount(ctx context.Context, key LedgerKey) (*models.StudentFeeLedger, error) {
	cfg, err := s.configuration(ctx, key.SchoolID, key.AcademicYear)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, "remove_discount", key, func(cur *models.StudentFeeLedger) (*models.StudentFeeLedger, error) {
		return s.engine.RemoveDiscount(cur, cfg)
	})
}

// ReconfigureComponents changes uniform, transportation and registration
// applicability on an existing ledger.
func (s *FeeService) ReconfigureComponents(ctx context.Context, key LedgerKey, opts ledger.ComponentOptions) (*models.StudentFeeLedger, error) {
	cfg, err := s.configuration(ctx, key.SchoolID, key.AcademicYear)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, "reconfigure_components", key, func(cur *models.StudentFeeLedger) (*models.StudentFeeLedger, error) {
		return s.engine.ReconfigureComponents(cur, cfg, opts)
	})
}

// GetLedger returns a ledger with statuses derived at the current time.
func (s *FeeService) GetLedger(ctx context.Context, key LedgerKey) (*models.StudentFeeLedger, error) {
	if _, err := models.ParseAcademicYear(key.AcademicYear); err != nil {
		return nil, err
	}
	l, err := s.ledgers.Get(ctx, key.SchoolID, key.StudentID, key.AcademicYear)
	if err != nil {
		return nil, err
	}
	return s.engine.Refresh(l, l.GracePeriod), nil
}

// ListLedgers returns the ledgers matching q with statuses derived at the
// current time. The status filter applies to the derived status.
func (s *FeeService) ListLedgers(ctx context.Context, q storage.LedgerQuery) ([]models.StudentFeeLedger, error) {
	if _, err := models.ParseAcademicYear(q.AcademicYear); err != nil {
		return nil, err
	}
	want := q.Status
	q.Status = ""
	stored, err := s.ledgers.List(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]models.StudentFeeLedger, 0, len(stored))
	for i := range stored {
		l := s.engine.Refresh(&stored[i], stored[i].GracePeriod)
		if want != "" && l.OverallStatus != want {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

// StudentListFilter narrows the student fee listing. Status may be
// StatusNoRecord to find students without a ledger.
type StudentListFilter struct {
	Grade         string
	GradeCategory models.GradeCategory
	Search        string
	Status        models.Status
}

// StudentFeeRow is one student of the fee listing with its ledger, if any.
type StudentFeeRow struct {
	StudentID     uint                 `json:"student_id"`
	Name          string               `json:"name"`
	Grade         string               `json:"grade"`
	GradeCategory models.GradeCategory `json:"grade_category"`
	ParentName    string               `json:"parent_name,omitempty"`
	ParentPhone   string               `json:"parent_phone,omitempty"`
	Status        models.Status        `json:"status"`
	Ledger        *utils.LedgerSummary `json:"ledger,omitempty"`
}

// ListStudentsWithLedgers joins the student directory with the ledgers of a year.
func (s *FeeService) ListStudentsWithLedgers(ctx context.Context, schoolID uint, year string, f StudentListFilter) ([]StudentFeeRow, error) {
	if _, err := models.ParseAcademicYear(year); err != nil {
		return nil, err
	}
	students, err := s.students.ListStudents(ctx, schoolID, storage.StudentFilter{Grade: f.Grade, Search: f.Search})
	if err != nil {
		return nil, err
	}
	ledgers, err := s.ListLedgers(ctx, storage.LedgerQuery{SchoolID: schoolID, AcademicYear: year, Grade: f.Grade})
	if err != nil {
		return nil, err
	}
	byStudent := make(map[uint]*models.StudentFeeLedger, len(ledgers))
	for i := range ledgers {
		byStudent[ledgers[i].StudentID] = &ledgers[i]
	}

	rows := make([]StudentFeeRow, 0, len(students))
	for _, st := range students {
		grade := st.Grade()
		row := StudentFeeRow{
			StudentID:     st.ID,
			Name:          st.FullName(),
			Grade:         grade,
			GradeCategory: models.ClassifyGrade(grade),
			ParentName:    st.ParentName,
			ParentPhone:   st.ParentPhone,
			Status:        models.StatusNoRecord,
		}
		if l, ok := byStudent[st.ID]; ok {
			summary := utils.ToLedgerSummary(l)
			row.Ledger = &summary
			row.Status = l.OverallStatus
		}
		if f.GradeCategory != "" && row.GradeCategory != f.GradeCategory {
			continue
		}
		if f.Status != "" && row.Status != f.Status {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// DeleteLedger removes one ledger.
func (s *FeeService) DeleteLedger(ctx context.Context, key LedgerKey) error {
	if _, err := models.ParseAcademicYear(key.AcademicYear); err != nil {
		return err
	}
	if err := s.ledgers.Delete(ctx, key.SchoolID, key.StudentID, key.AcademicYear); err != nil {
		return err
	}
	s.invalidateReports(ctx, key.SchoolID, key.AcademicYear)
	logrus.WithFields(key.fields()).Warn("Fee ledger deleted")
	return nil
}

// DeleteAllLedgers removes every ledger of a school year, one at a time.
func (s *FeeService) DeleteAllLedgers(ctx context.Context, schoolID uint, year string) (*BulkResult, error) {
	ledgers, err := s.listStored(ctx, schoolID, year)
	if err != nil {
		return nil, err
	}
	res := newBulkResult()
	for _, l := range ledgers {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		err := s.ledgers.Delete(ctx, schoolID, l.StudentID, year)
		res.add(l.StudentID, err, models.ErrLedgerNotFound)
	}
	s.invalidateReports(ctx, schoolID, year)
	logrus.WithFields(logrus.Fields{
		"school_id":     schoolID,
		"academic_year": year,
		"deleted":       len(res.Succeeded),
		"failed":        len(res.Failed),
	}).Warn("Fee ledgers deleted in bulk")
	return res, nil
}

func (s *FeeService) listStored(ctx context.Context, schoolID uint, year string) ([]models.StudentFeeLedger, error) {
	if _, err := models.ParseAcademicYear(year); err != nil {
		return nil, err
	}
	return s.ledgers.List(ctx, storage.LedgerQuery{SchoolID: schoolID, AcademicYear: year})
}

// ApplyConfigurationToLedgers reprices every ledger of a year with the active
// configuration. With onlyUnpaid, ledgers settled annually are skipped.
func (s *FeeService) ApplyConfigurationToLedgers(ctx context.Context, schoolID uint, year string, onlyUnpaid bool) (*BulkResult, error) {
	cfg, err := s.configuration(ctx, schoolID, year)
	if err != nil {
		return nil, err
	}
	ledgers, err := s.listStored(ctx, schoolID, year)
	if err != nil {
		return nil, err
	}
	res := newBulkResult()
	for _, l := range ledgers {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		key := LedgerKey{SchoolID: schoolID, StudentID: l.StudentID, AcademicYear: year}
		_, err := s.mutate(ctx, "reprice", key, func(cur *models.StudentFeeLedger) (*models.StudentFeeLedger, error) {
			return s.engine.Reprice(cur, cfg, onlyUnpaid)
		})
		res.add(l.StudentID, err, models.ErrAnnualAlreadyPaid)
	}
	logrus.WithFields(logrus.Fields{
		"school_id":     schoolID,
		"academic_year": year,
		"only_unpaid":   onlyUnpaid,
		"updated":       len(res.Succeeded),
		"skipped":       len(res.Skipped),
		"failed":        len(res.Failed),
	}).Info("Pricing configuration applied to ledgers")
	return res, nil
}

// RefreshStatuses persists freshly derived statuses for every ledger of a
// school year and returns how many ledgers changed.
func (s *FeeService) RefreshStatuses(ctx context.Context, schoolID uint, year string) (int, error) {
	ledgers, err := s.listStored(ctx, schoolID, year)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, l := range ledgers {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		touched := false
		_, err := s.ledgers.Mutate(ctx, schoolID, l.StudentID, year, func(cur *models.StudentFeeLedger) (*models.StudentFeeLedger, error) {
			next := s.engine.Refresh(cur, cur.GracePeriod)
			if sameStatuses(cur, next) {
				return nil, nil
			}
			touched = true
			return next, nil
		})
		if err != nil {
			logrus.WithError(err).WithField("student_id", l.StudentID).Warn("Skipping ledger during status refresh")
			continue
		}
		if touched {
			changed++
		}
	}
	if changed > 0 {
		s.invalidateReports(ctx, schoolID, year)
	}
	return changed, nil
}

func sameStatuses(a, b *models.StudentFeeLedger) bool {
	if a.OverallStatus != b.OverallStatus || a.ComponentStatus != b.ComponentStatus {
		return false
	}
	return sameInstallmentStatuses(a.Tuition.Schedule, b.Tuition.Schedule) &&
		sameInstallmentStatuses(a.Transportation.Schedule, b.Transportation.Schedule)
}

func sameInstallmentStatuses(a, b []models.Installment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Status != b[i].Status {
			return false
		}
	}
	return true
}

// MonthlyAmountDue is what a student owes for one calendar month across
// tuition and transportation.
func (s *FeeService) MonthlyAmountDue(ctx context.Context, key LedgerKey, month int) (decimal.Decimal, error) {
	if month < 1 || month > 12 {
		return decimal.Zero, models.ErrInvalidAmount.With("month %d outside 1..12", month)
	}
	l, err := s.GetLedger(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	return l.MonthlyAmountDue(month), nil
}

func (s *FeeService) invalidateReports(ctx context.Context, schoolID uint, year string) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, schoolID, year)
}
