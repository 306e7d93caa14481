package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const reportCachePrefix = "fees:report"

// ReportCache keeps computed fee reports in Redis. A nil cache or a nil
// client disables caching; Redis failures only cost a recomputation.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ReportCache{client: client, ttl: ttl}
}

func reportKey(kind string, schoolID uint, year string) string {
	return fmt.Sprintf("%s:%s:%d:%s", reportCachePrefix, kind, schoolID, year)
}

func (c *ReportCache) enabled() bool {
	return c != nil && c.client != nil
}

// Load decodes a cached report into dest and reports whether it was found.
func (c *ReportCache) Load(ctx context.Context, kind string, schoolID uint, year string, dest interface{}) bool {
	if !c.enabled() {
		return false
	}
	raw, err := c.client.Get(ctx, reportKey(kind, schoolID, year)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logrus.WithError(err).Warn("Report cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logrus.WithError(err).Warn("Discarding undecodable cached report")
		return false
	}
	return true
}

func (c *ReportCache) Store(ctx context.Context, kind string, schoolID uint, year string, v interface{}) {
	if !c.enabled() {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).Warn("Report not cacheable")
		return
	}
	if err := c.client.Set(ctx, reportKey(kind, schoolID, year), raw, c.ttl).Err(); err != nil {
		logrus.WithError(err).Warn("Report cache write failed")
	}
}

// Invalidate drops every cached report of a school year.
func (c *ReportCache) Invalidate(ctx context.Context, schoolID uint, year string) {
	if !c.enabled() {
		return
	}
	keys := []string{
		reportKey(reportDashboard, schoolID, year),
		reportKey(reportMonthly, schoolID, year),
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"school_id":     schoolID,
			"academic_year": year,
		}).Warn("Report cache invalidation failed")
	}
}
