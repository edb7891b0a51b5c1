package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/domain/creditreport"
	"meridian/pkg/errors"
)

func newTestCache(t *testing.T) (*ReportCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewReportCache(client, time.Hour), mr
}

func TestReportCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	report := &creditreport.Report{
		ID:            uuid.New(),
		ApplicationID: uuid.New(),
		Score:         688,
		ScoreModel:    creditreport.ScoreModelFICO8,
		FraudScore:    25,
		PulledAt:      time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, cache.Save(ctx, report))

	got, err := cache.Get(ctx, report.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, 688, got.Score)
	assert.True(t, report.PulledAt.Equal(got.PulledAt))
}

func TestReportCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.Get(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestReportCacheTTL(t *testing.T) {
	cache, mr := newTestCache(t)

	report := &creditreport.Report{ID: uuid.New(), ApplicationID: uuid.New()}
	require.NoError(t, cache.Save(context.Background(), report))

	key := "credit_report:" + report.ApplicationID.String()
	assert.Equal(t, time.Hour, mr.TTL(key))

	mr.FastForward(2 * time.Hour)
	_, err := cache.Get(context.Background(), report.ApplicationID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestReportCacheDelete(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	report := &creditreport.Report{ID: uuid.New(), ApplicationID: uuid.New()}
	require.NoError(t, cache.Save(ctx, report))
	require.NoError(t, cache.Delete(ctx, report.ApplicationID))

	_, err := cache.Get(ctx, report.ApplicationID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestReportCacheDefaultTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cache := NewReportCache(client, 0)
	assert.Equal(t, DefaultReportTTL, cache.ttl)
}
