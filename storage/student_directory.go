package storage

import (
	"context"
	"schoolfees_go/models"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// StudentFilter narrows a student listing. Zero fields do not filter.
type StudentFilter struct {
	Grade      string
	Search     string
	StudentIDs []uint
}

// GormStudentDirectory reads students and their classes.
type GormStudentDirectory struct {
	db *gorm.DB
}

func NewGormStudentDirectory(db *gorm.DB) *GormStudentDirectory {
	return &GormStudentDirectory{db: db}
}

func (d *GormStudentDirectory) GetStudent(ctx context.Context, schoolID, studentID uint) (*models.Student, error) {
	var st models.Student
	err := d.db.WithContext(ctx).Preload("Class").
		Where("id = ? AND school_id = ?", studentID, schoolID).
		First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrStudentNotFound.With("student %d", studentID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load student")
	}
	return &st, nil
}

// ListStudents returns the active students of a school ordered by name.
func (d *GormStudentDirectory) ListStudents(ctx context.Context, schoolID uint, f StudentFilter) ([]models.Student, error) {
	db := d.db.WithContext(ctx).Model(&models.Student{}).Preload("Class").
		Where("students.school_id = ? AND students.status = ?", schoolID, "active")
	if f.Grade != "" {
		db = db.Joins("JOIN classes ON classes.id = students.class_id").Where("classes.grade = ?", f.Grade)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		db = db.Where("LOWER(students.first_name) LIKE ? OR LOWER(students.last_name) LIKE ? OR LOWER(students.parent_name) LIKE ?", like, like, like)
	}
	if len(f.StudentIDs) > 0 {
		db = db.Where("students.id IN ?", f.StudentIDs)
	}

	var out []models.Student
	if err := db.Order("students.last_name ASC, students.first_name ASC").Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "list students")
	}
	return out, nil
}

// GormExportStore records workbook exports.
type GormExportStore struct {
	db *gorm.DB
}

func NewGormExportStore(db *gorm.DB) *GormExportStore {
	return &GormExportStore{db: db}
}

func (s *GormExportStore) SaveExportRecord(ctx context.Context, rec *models.ExportRecord) error {
	return errors.Wrap(s.db.WithContext(ctx).Save(rec).Error, "save export record")
}
