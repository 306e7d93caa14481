package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// OverdueSweeper periodically persists derived statuses so that listings
// filtered on the stored status see overdue ledgers without a read first.
type OverdueSweeper struct {
	fees    *FeeService
	pricing PricingStore
	cron    *cron.Cron
	timeout time.Duration
}

func NewOverdueSweeper(fees *FeeService, pricing PricingStore) *OverdueSweeper {
	return &OverdueSweeper{
		fees:    fees,
		pricing: pricing,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		timeout: 10 * time.Minute,
	}
}

// Start schedules the sweep with a standard five field cron spec.
func (w *OverdueSweeper) Start(spec string) error {
	if _, err := w.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()
		if _, err := w.Sweep(ctx); err != nil {
			logrus.WithError(err).Error("Overdue sweep failed")
		}
	}); err != nil {
		return errors.Wrapf(err, "schedule overdue sweep %q", spec)
	}
	w.cron.Start()
	logrus.WithField("schedule", spec).Info("Overdue sweeper started")
	return nil
}

// Stop halts the schedule and waits for a running sweep.
func (w *OverdueSweeper) Stop() {
	<-w.cron.Stop().Done()
}

// Sweep refreshes the ledgers of every active configuration and returns how
// many changed status.
func (w *OverdueSweeper) Sweep(ctx context.Context) (int, error) {
	configs, err := w.pricing.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, cfg := range configs {
		n, err := w.fees.RefreshStatuses(ctx, cfg.SchoolID, cfg.AcademicYear)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"school_id":     cfg.SchoolID,
				"academic_year": cfg.AcademicYear,
			}).Warn("Overdue sweep skipped a school year")
			continue
		}
		total += n
	}
	logrus.WithFields(logrus.Fields{
		"configurations": len(configs),
		"changed":        total,
	}).Info("Overdue sweep finished")
	return total, nil
}
