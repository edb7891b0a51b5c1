package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"meridian/internal/domain/creditreport"
	"meridian/pkg/errors"
)

// DefaultReportTTL bounds how long a pulled bureau report may be reused
// before a fresh pull is required.
const DefaultReportTTL = 24 * time.Hour

// ReportCache caches pulled credit reports in Redis so retried attempts
// within the TTL reuse the same report instead of pulling a new one.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a new credit report cache
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	return &ReportCache{client: client, ttl: ttl}
}

// Get retrieves the cached report for an application
func (c *ReportCache) Get(ctx context.Context, applicationID uuid.UUID) (*creditreport.Report, error) {
	key := c.getKey(applicationID)

	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "no cached credit report for application=%s", applicationID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get credit report from redis: application=%s", applicationID)
	}

	var report creditreport.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal cached credit report: application=%s", applicationID)
	}

	return &report, nil
}

// Save stores a report under the cache TTL
func (c *ReportCache) Save(ctx context.Context, report *creditreport.Report) error {
	key := c.getKey(report.ApplicationID)

	data, err := json.Marshal(report)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal credit report: application=%s", report.ApplicationID)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to cache credit report: application=%s", report.ApplicationID)
	}

	return nil
}

// Delete evicts the cached report, forcing the next attempt to pull fresh
func (c *ReportCache) Delete(ctx context.Context, applicationID uuid.UUID) error {
	if err := c.client.Del(ctx, c.getKey(applicationID)).Err(); err != nil {
		return errors.Wrapf(err, "failed to evict credit report: application=%s", applicationID)
	}
	return nil
}

func (c *ReportCache) getKey(applicationID uuid.UUID) string {
	return fmt.Sprintf("credit_report:%s", applicationID)
}
