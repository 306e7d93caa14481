package storage

import (
	"context"
	"schoolfees_go/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerQuery narrows a ledger listing. Zero fields do not filter.
type LedgerQuery struct {
	SchoolID      uint
	AcademicYear  string
	Status        models.Status
	Grade         string
	GradeCategory models.GradeCategory
	StudentIDs    []uint
}

// MutateFunc derives the next ledger from the current one. Returning a nil
// ledger with a nil error leaves the stored ledger untouched.
type MutateFunc func(cur *models.StudentFeeLedger) (*models.StudentFeeLedger, error)

// GormLedgerStore keeps ledgers in a relational database.
type GormLedgerStore struct {
	db *gorm.DB
}

func NewGormLedgerStore(db *gorm.DB) *GormLedgerStore {
	return &GormLedgerStore{db: db}
}

func scopeLedger(schoolID, studentID uint, year string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("school_id = ? AND student_id = ? AND academic_year = ?", schoolID, studentID, year)
	}
}

// Create inserts a new ledger. A second ledger for the same student and year
// fails with ErrAlreadyExists.
func (s *GormLedgerStore) Create(ctx context.Context, l *models.StudentFeeLedger) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.StudentFeeLedger{}).
			Where("student_id = ? AND academic_year = ?", l.StudentID, l.AcademicYear).
			Count(&count).Error; err != nil {
			return errors.Wrap(err, "count ledgers")
		}
		if count > 0 {
			return models.ErrAlreadyExists.With("student %d, %s", l.StudentID, l.AcademicYear)
		}
		if l.Version == 0 {
			l.Version = 1
		}
		if err := tx.Create(l).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.ErrAlreadyExists.With("student %d, %s", l.StudentID, l.AcademicYear)
			}
			return errors.Wrap(err, "insert ledger")
		}
		return nil
	})
}

func (s *GormLedgerStore) Get(ctx context.Context, schoolID, studentID uint, year string) (*models.StudentFeeLedger, error) {
	var l models.StudentFeeLedger
	err := s.db.WithContext(ctx).Scopes(scopeLedger(schoolID, studentID, year)).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrLedgerNotFound.With("student %d, %s", studentID, year)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load ledger")
	}
	return &l, nil
}

// Mutate applies fn to the ledger under a row lock and writes the result back
// only if nobody bumped the version meanwhile.
func (s *GormLedgerStore) Mutate(ctx context.Context, schoolID, studentID uint, year string, fn MutateFunc) (*models.StudentFeeLedger, error) {
	var result *models.StudentFeeLedger
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.StudentFeeLedger
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(scopeLedger(schoolID, studentID, year)).
			First(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrLedgerNotFound.With("student %d, %s", studentID, year)
		}
		if err != nil {
			return errors.Wrap(err, "lock ledger")
		}

		next, err := fn(&cur)
		if err != nil {
			return err
		}
		if next == nil {
			result = &cur
			return nil
		}

		next.ID = cur.ID
		next.CreatedAt = cur.CreatedAt
		next.Version = cur.Version + 1
		res := tx.Model(next).
			Where("version = ?", cur.Version).
			Select("*").
			Omit("created_at", "deleted_at").
			Updates(next)
		if res.Error != nil {
			return errors.Wrap(res.Error, "update ledger")
		}
		if res.RowsAffected == 0 {
			return models.ErrVersionConflict.With("student %d, %s at version %d", studentID, year, cur.Version)
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the ledger for good.
func (s *GormLedgerStore) Delete(ctx context.Context, schoolID, studentID uint, year string) error {
	res := s.db.WithContext(ctx).Unscoped().
		Scopes(scopeLedger(schoolID, studentID, year)).
		Delete(&models.StudentFeeLedger{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete ledger")
	}
	if res.RowsAffected == 0 {
		return models.ErrLedgerNotFound.With("student %d, %s", studentID, year)
	}
	return nil
}

func (s *GormLedgerStore) List(ctx context.Context, q LedgerQuery) ([]models.StudentFeeLedger, error) {
	db := s.db.WithContext(ctx).Model(&models.StudentFeeLedger{}).
		Where("school_id = ? AND academic_year = ?", q.SchoolID, q.AcademicYear)
	if q.Status != "" {
		db = db.Where("overall_status = ?", q.Status)
	}
	if q.Grade != "" {
		db = db.Where("grade = ?", q.Grade)
	}
	if q.GradeCategory != "" {
		db = db.Where("grade_category = ?", q.GradeCategory)
	}
	if len(q.StudentIDs) > 0 {
		db = db.Where("student_id IN ?", q.StudentIDs)
	}

	var out []models.StudentFeeLedger
	if err := db.Order("student_name ASC, student_id ASC").Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list ledgers")
	}
	return out, nil
}
