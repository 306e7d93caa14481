package storage

import (
	"context"
	"schoolfees_go/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormPricingStore keeps pricing configurations. At most one configuration
// per school and academic year is active.
type GormPricingStore struct {
	db *gorm.DB
}

func NewGormPricingStore(db *gorm.DB) *GormPricingStore {
	return &GormPricingStore{db: db}
}

func (s *GormPricingStore) ActiveConfiguration(ctx context.Context, schoolID uint, year string) (*models.PricingConfiguration, error) {
	var cfg models.PricingConfiguration
	err := s.db.WithContext(ctx).
		Where("school_id = ? AND academic_year = ? AND is_active = ?", schoolID, year, true).
		Order("updated_at DESC").
		First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrConfigurationMissing.With("school %d, %s", schoolID, year)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load pricing configuration")
	}
	return &cfg, nil
}

// SaveConfiguration stores cfg as the active configuration of its school and
// year, deactivating any other.
func (s *GormPricingStore) SaveConfiguration(ctx context.Context, cfg *models.PricingConfiguration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg.IsActive = true
		if err := tx.Save(cfg).Error; err != nil {
			return errors.Wrap(err, "save pricing configuration")
		}
		err := tx.Model(&models.PricingConfiguration{}).
			Where("school_id = ? AND academic_year = ? AND id <> ?", cfg.SchoolID, cfg.AcademicYear, cfg.ID).
			UpdateColumn("is_active", false).Error
		return errors.Wrap(err, "deactivate previous configurations")
	})
}

// ListActive returns every active configuration, across schools and years.
func (s *GormPricingStore) ListActive(ctx context.Context) ([]models.PricingConfiguration, error) {
	var out []models.PricingConfiguration
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("school_id ASC, academic_year ASC").
		Find(&out).Error
	return out, errors.Wrap(err, "list active configurations")
}
