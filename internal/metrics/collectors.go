package metrics

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"meridian/pkg/logger"
)

// CustomCollector collects pipeline-state metrics from the databases
type CustomCollector struct {
	log      *logger.Logger
	postgres *sqlx.DB
	redis    *redis.Client

	// Descriptors
	applicationsByStatus *prometheus.Desc
	assessmentsByStatus  *prometheus.Desc
	assessments24h       *prometheus.Desc
	avgScore24h          *prometheus.Desc
	cachedReports        *prometheus.Desc
}

// NewCustomCollector creates a new pipeline-state collector
func NewCustomCollector(log *logger.Logger, postgres *sqlx.DB, rdb *redis.Client) *CustomCollector {
	return &CustomCollector{
		log:      log,
		postgres: postgres,
		redis:    rdb,

		applicationsByStatus: prometheus.NewDesc(
			"meridian_applications_count",
			"Number of loan applications by status",
			[]string{"status"}, nil,
		),
		assessmentsByStatus: prometheus.NewDesc(
			"meridian_assessments_count",
			"Number of assessment attempts by status",
			[]string{"status"}, nil,
		),
		assessments24h: prometheus.NewDesc(
			"meridian_assessments_completed_24h",
			"Assessments completed in the last 24h",
			nil, nil,
		),
		avgScore24h: prometheus.NewDesc(
			"meridian_assessment_avg_score_24h",
			"Average overall risk score over the last 24h",
			nil, nil,
		),
		cachedReports: prometheus.NewDesc(
			"meridian_credit_reports_cached",
			"Number of credit reports currently cached in Redis",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *CustomCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.applicationsByStatus
	ch <- c.assessmentsByStatus
	ch <- c.assessments24h
	ch <- c.avgScore24h
	ch <- c.cachedReports
}

// Collect implements prometheus.Collector
func (c *CustomCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.collectApplicationStats(ctx, ch)
	c.collectAssessmentStats(ctx, ch)
	c.collectRecentAssessments(ctx, ch)
	c.collectCachedReports(ctx, ch)
}

func (c *CustomCollector) collectApplicationStats(ctx context.Context, ch chan<- prometheus.Metric) {
	type statusStat struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}

	var stats []statusStat
	err := c.postgres.SelectContext(ctx, &stats, `
		SELECT status, COUNT(*) as count
		FROM applications
		GROUP BY status
	`)
	if err != nil {
		c.log.Error("Failed to collect application stats", "error", err)
		return
	}

	for _, stat := range stats {
		ch <- prometheus.MustNewConstMetric(
			c.applicationsByStatus,
			prometheus.GaugeValue,
			float64(stat.Count),
			stat.Status,
		)
	}
}

func (c *CustomCollector) collectAssessmentStats(ctx context.Context, ch chan<- prometheus.Metric) {
	type statusStat struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}

	var stats []statusStat
	err := c.postgres.SelectContext(ctx, &stats, `
		SELECT status, COUNT(*) as count
		FROM assessments
		GROUP BY status
	`)
	if err != nil {
		c.log.Error("Failed to collect assessment stats", "error", err)
		return
	}

	for _, stat := range stats {
		ch <- prometheus.MustNewConstMetric(
			c.assessmentsByStatus,
			prometheus.GaugeValue,
			float64(stat.Count),
			stat.Status,
		)
	}
}

func (c *CustomCollector) collectRecentAssessments(ctx context.Context, ch chan<- prometheus.Metric) {
	var count int
	err := c.postgres.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM assessments
		WHERE status = 'completed'
		AND completed_at > NOW() - INTERVAL '24 hours'
	`)
	if err != nil {
		c.log.Error("Failed to collect recent assessment count", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.assessments24h,
		prometheus.GaugeValue,
		float64(count),
	)

	if count == 0 {
		return
	}

	var avg float64
	err = c.postgres.GetContext(ctx, &avg, `
		SELECT AVG(overall_score)
		FROM assessments
		WHERE status = 'completed'
		AND completed_at > NOW() - INTERVAL '24 hours'
	`)
	if err != nil {
		c.log.Error("Failed to collect average score", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(
		c.avgScore24h,
		prometheus.GaugeValue,
		avg,
	)
}

func (c *CustomCollector) collectCachedReports(ctx context.Context, ch chan<- prometheus.Metric) {
	var count int64
	var cursor uint64
	for {
		keys, next, err := c.redis.Scan(ctx, cursor, "credit_report:*", 500).Result()
		if err != nil {
			c.log.Error("Failed to scan cached reports", "error", err)
			return
		}
		count += int64(len(keys))
		cursor = next
		if cursor == 0 {
			break
		}
	}

	ch <- prometheus.MustNewConstMetric(
		c.cachedReports,
		prometheus.GaugeValue,
		float64(count),
	)
}

// RegisterCustomCollector registers the custom collector
func RegisterCustomCollector(collector *CustomCollector) {
	prometheus.MustRegister(collector)
}
