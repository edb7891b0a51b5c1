package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meridian_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meridian_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Agent metrics
	AgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_agent_calls_total",
			Help: "Total number of AI agent calls",
		},
		[]string{"agent", "provider", "status"}, // status: success|error
	)

	AgentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meridian_agent_latency_seconds",
			Help:    "AI agent execution latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"agent", "provider"},
	)

	AgentTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_agent_tokens_total",
			Help: "Total tokens used by AI agents",
		},
		[]string{"agent", "provider"},
	)

	// Assessment metrics
	AssessmentAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_assessment_attempts_total",
			Help: "Total number of assessment attempts",
		},
		[]string{"status"}, // status: completed|failed|skipped
	)

	AssessmentScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meridian_assessment_overall_score",
			Help:    "Distribution of overall risk scores (0-100)",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	AssessmentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "meridian_assessment_duration_seconds",
			Help:    "End-to-end assessment duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	AssessmentRecommendations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_assessment_recommendations_total",
			Help: "Total assessments by final recommendation",
		},
		[]string{"recommendation", "risk_band"},
	)

	// Bureau metrics
	BureauPulls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_bureau_pulls_total",
			Help: "Total number of credit bureau pulls",
		},
		[]string{"status"}, // status: success|error|cache_hit
	)

	// Database metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"database", "operation", "status"}, // database: postgres|redis
	)

	DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meridian_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"database", "operation"},
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meridian_kafka_messages_total",
			Help: "Total Kafka messages produced/consumed",
		},
		[]string{"topic", "direction", "status"}, // direction: produced|consumed
	)
)

// Init registers all metrics with Prometheus
func Init() {
	// Worker metrics
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	// Agent metrics
	prometheus.MustRegister(AgentCalls)
	prometheus.MustRegister(AgentLatency)
	prometheus.MustRegister(AgentTokens)

	// Assessment metrics
	prometheus.MustRegister(AssessmentAttempts)
	prometheus.MustRegister(AssessmentScore)
	prometheus.MustRegister(AssessmentDuration)
	prometheus.MustRegister(AssessmentRecommendations)

	// Bureau metrics
	prometheus.MustRegister(BureauPulls)

	// Database metrics
	prometheus.MustRegister(DBQueries)
	prometheus.MustRegister(DBQueryDuration)

	// System metrics
	prometheus.MustRegister(KafkaMessages)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordAgentCall records an AI agent invocation
func RecordAgentCall(agent, provider string, latency time.Duration, tokens int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	AgentCalls.WithLabelValues(agent, provider, status).Inc()
	AgentLatency.WithLabelValues(agent, provider).Observe(latency.Seconds())

	if tokens > 0 {
		AgentTokens.WithLabelValues(agent, provider).Add(float64(tokens))
	}
}

// RecordAssessment records a finished assessment attempt
func RecordAssessment(score float64, recommendation, riskBand string, duration time.Duration, err error) {
	if err != nil {
		AssessmentAttempts.WithLabelValues("failed").Inc()
		return
	}

	AssessmentAttempts.WithLabelValues("completed").Inc()
	AssessmentScore.Observe(score)
	AssessmentDuration.Observe(duration.Seconds())
	AssessmentRecommendations.WithLabelValues(recommendation, riskBand).Inc()
}

// RecordBureauPull records a credit bureau pull outcome
func RecordBureauPull(cacheHit bool, err error) {
	switch {
	case err != nil:
		BureauPulls.WithLabelValues("error").Inc()
	case cacheHit:
		BureauPulls.WithLabelValues("cache_hit").Inc()
	default:
		BureauPulls.WithLabelValues("success").Inc()
	}
}

// RecordDBQuery records a database query
func RecordDBQuery(database, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	DBQueries.WithLabelValues(database, operation, status).Inc()
	DBQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}
