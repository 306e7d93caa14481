package storage

import (
	"context"
	"schoolfees_go/models"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"
)

type ledgerKey struct {
	studentID uint
	year      string
}

// MemoryLedgerStore is a LedgerStore kept in process memory. Mutations on
// the whole store are serialized, which is enough for tests and demos.
type MemoryLedgerStore struct {
	mutex  sync.Mutex
	nextID uint
	t      map[ledgerKey]*models.StudentFeeLedger
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{t: make(map[ledgerKey]*models.StudentFeeLedger)}
}

func copyLedger(l *models.StudentFeeLedger) *models.StudentFeeLedger {
	c := *l
	c.Tuition.Schedule = append(datatypes.JSONSlice[models.Installment](nil), l.Tuition.Schedule...)
	c.Transportation.Schedule = append(datatypes.JSONSlice[models.Installment](nil), l.Transportation.Schedule...)
	return &c
}

func (s *MemoryLedgerStore) Create(_ context.Context, l *models.StudentFeeLedger) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	k := ledgerKey{l.StudentID, l.AcademicYear}
	if _, ok := s.t[k]; ok {
		return models.ErrAlreadyExists.With("student %d, %s", l.StudentID, l.AcademicYear)
	}
	s.nextID++
	now := time.Now().UTC()
	l.ID = s.nextID
	l.CreatedAt, l.UpdatedAt = now, now
	if l.Version == 0 {
		l.Version = 1
	}
	s.t[k] = copyLedger(l)
	return nil
}

func (s *MemoryLedgerStore) lookup(schoolID, studentID uint, year string) (*models.StudentFeeLedger, error) {
	l, ok := s.t[ledgerKey{studentID, year}]
	if !ok || l.SchoolID != schoolID {
		return nil, models.ErrLedgerNotFound.With("student %d, %s", studentID, year)
	}
	return l, nil
}

func (s *MemoryLedgerStore) Get(_ context.Context, schoolID, studentID uint, year string) (*models.StudentFeeLedger, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	l, err := s.lookup(schoolID, studentID, year)
	if err != nil {
		return nil, err
	}
	return copyLedger(l), nil
}

func (s *MemoryLedgerStore) Mutate(_ context.Context, schoolID, studentID uint, year string, fn MutateFunc) (*models.StudentFeeLedger, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cur, err := s.lookup(schoolID, studentID, year)
	if err != nil {
		return nil, err
	}
	next, err := fn(copyLedger(cur))
	if err != nil {
		return nil, err
	}
	if next == nil {
		return copyLedger(cur), nil
	}
	if next.Version != cur.Version {
		return nil, models.ErrVersionConflict.With("student %d, %s at version %d", studentID, year, cur.Version)
	}
	next.ID, next.CreatedAt = cur.ID, cur.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	next.Version = cur.Version + 1
	s.t[ledgerKey{studentID, year}] = copyLedger(next)
	return copyLedger(next), nil
}

func (s *MemoryLedgerStore) Delete(_ context.Context, schoolID, studentID uint, year string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, err := s.lookup(schoolID, studentID, year); err != nil {
		return err
	}
	delete(s.t, ledgerKey{studentID, year})
	return nil
}

func (s *MemoryLedgerStore) List(_ context.Context, q LedgerQuery) ([]models.StudentFeeLedger, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	ids := make(map[uint]bool, len(q.StudentIDs))
	for _, id := range q.StudentIDs {
		ids[id] = true
	}
	var out []models.StudentFeeLedger
	for _, l := range s.t {
		switch {
		case l.SchoolID != q.SchoolID || l.AcademicYear != q.AcademicYear:
			continue
		case q.Status != "" && l.OverallStatus != q.Status:
			continue
		case q.Grade != "" && l.Grade != q.Grade:
			continue
		case q.GradeCategory != "" && l.GradeCategory != q.GradeCategory:
			continue
		case len(ids) > 0 && !ids[l.StudentID]:
			continue
		}
		out = append(out, *copyLedger(l))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StudentName != out[j].StudentName {
			return out[i].StudentName < out[j].StudentName
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}

type pricingKey struct {
	schoolID uint
	year     string
}

// MemoryPricingStore keeps the active configuration of each school and year.
type MemoryPricingStore struct {
	mutex  sync.RWMutex
	nextID uint
	t      map[pricingKey]*models.PricingConfiguration
}

func NewMemoryPricingStore() *MemoryPricingStore {
	return &MemoryPricingStore{t: make(map[pricingKey]*models.PricingConfiguration)}
}

func copyPricing(cfg *models.PricingConfiguration) *models.PricingConfiguration {
	c := *cfg
	c.GradeAmounts = make(models.GradeAmounts, len(cfg.GradeAmounts))
	for grade, amount := range cfg.GradeAmounts {
		c.GradeAmounts[grade] = amount
	}
	return &c
}

func (s *MemoryPricingStore) ActiveConfiguration(_ context.Context, schoolID uint, year string) (*models.PricingConfiguration, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	cfg, ok := s.t[pricingKey{schoolID, year}]
	if !ok {
		return nil, models.ErrConfigurationMissing.With("school %d, %s", schoolID, year)
	}
	return copyPricing(cfg), nil
}

func (s *MemoryPricingStore) SaveConfiguration(_ context.Context, cfg *models.PricingConfiguration) error {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if cfg.ID == 0 {
		s.nextID++
		cfg.ID = s.nextID
	}
	cfg.IsActive = true
	s.t[pricingKey{cfg.SchoolID, cfg.AcademicYear}] = copyPricing(cfg)
	return nil
}

func (s *MemoryPricingStore) ListActive(_ context.Context) ([]models.PricingConfiguration, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]models.PricingConfiguration, 0, len(s.t))
	for _, cfg := range s.t {
		out = append(out, *copyPricing(cfg))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SchoolID != out[j].SchoolID {
			return out[i].SchoolID < out[j].SchoolID
		}
		return out[i].AcademicYear < out[j].AcademicYear
	})
	return out, nil
}

// MemoryStudentDirectory serves students registered with Put.
type MemoryStudentDirectory struct {
	mutex sync.RWMutex
	t     map[uint]models.Student
}

func NewMemoryStudentDirectory(students ...models.Student) *MemoryStudentDirectory {
	d := &MemoryStudentDirectory{t: make(map[uint]models.Student)}
	for _, st := range students {
		d.Put(st)
	}
	return d
}

func (d *MemoryStudentDirectory) Put(st models.Student) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.t[st.ID] = st
}

func (d *MemoryStudentDirectory) GetStudent(_ context.Context, schoolID, studentID uint) (*models.Student, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	st, ok := d.t[studentID]
	if !ok || st.SchoolID != schoolID {
		return nil, models.ErrStudentNotFound.With("student %d", studentID)
	}
	return &st, nil
}

func (d *MemoryStudentDirectory) ListStudents(_ context.Context, schoolID uint, f StudentFilter) ([]models.Student, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	ids := make(map[uint]bool, len(f.StudentIDs))
	for _, id := range f.StudentIDs {
		ids[id] = true
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	var out []models.Student
	for _, st := range d.t {
		switch {
		case st.SchoolID != schoolID || (st.Status != "" && st.Status != "active"):
			continue
		case f.Grade != "" && st.Grade() != f.Grade:
			continue
		case len(ids) > 0 && !ids[st.ID]:
			continue
		case search != "" && !strings.Contains(strings.ToLower(st.FullName()+" "+st.ParentName), search):
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
