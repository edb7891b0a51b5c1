package bootstrap

import (
	"meridian/internal/adapters/ai"
	"meridian/internal/adapters/config"
	errnoop "meridian/internal/adapters/errors/noop"
	"meridian/internal/adapters/errors/sentry"
	"meridian/internal/adapters/kafka"
	pgclient "meridian/internal/adapters/postgres"
	redisclient "meridian/internal/adapters/redis"
	"meridian/internal/agents"
	"meridian/internal/api"
	"meridian/internal/api/health"
	"meridian/internal/bureau"
	"meridian/internal/events"
	"meridian/internal/metrics"
	pgrepo "meridian/internal/repository/postgres"
	redisrepo "meridian/internal/repository/redis"
	assessmentsvc "meridian/internal/services/assessment"
	"meridian/internal/workers"
	"meridian/pkg/errors"
	"meridian/pkg/logger"
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	// Initialize error tracker
	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure initializes data stores (Postgres, Redis)
func (c *Container) MustInitInfrastructure() {
	var err error

	// PostgreSQL
	c.Log.Info("Connecting to PostgreSQL...")
	c.PG, err = pgclient.NewClient(c.Config.Postgres)
	if err != nil {
		c.Log.Fatalf("failed to connect postgres: %v", err)
	}
	c.Log.Info("✓ PostgreSQL connected")

	// Redis
	c.Log.Info("Connecting to Redis...")
	c.Redis, err = redisclient.NewClient(c.Config.Redis)
	if err != nil {
		c.Log.Fatalf("failed to connect redis: %v", err)
	}
	c.Log.Info("✓ Redis connected")
}

// ========================================
// Phase 3: Domain Layer - Repositories
// ========================================

// MustInitRepositories initializes all domain repositories
func (c *Container) MustInitRepositories() {
	c.Repos.Applications = pgrepo.NewApplicationRepository(c.PG.DB())
	c.Repos.CreditReports = pgrepo.NewCreditReportRepository(c.PG.DB())
	c.Repos.Assessments = pgrepo.NewAssessmentRepository(c.PG.DB())
	c.Repos.ReportCache = redisrepo.NewReportCache(c.Redis.Client(), redisrepo.DefaultReportTTL)

	c.Log.Info("✓ Repositories initialized")
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters initializes external adapters (Kafka, AI gateway)
func (c *Container) MustInitAdapters() {
	// Kafka
	c.Adapters.KafkaProducer = provideKafkaProducer(c.Config, c.Log)
	c.Adapters.SubmissionConsumer = provideKafkaConsumer(c.Config, kafka.TopicApplicationsSubmitted, c.Log)

	// AI gateway
	if c.Config.AI.Enabled() {
		c.Adapters.AIRegistry = ai.BuildRegistry(c.Config.AI, c.Redis.Client())
		c.Adapters.AIGateway = ai.NewGateway(c.Adapters.AIRegistry)
		c.Log.Infow("✓ AI gateway initialized",
			"providers", c.Adapters.AIRegistry.Len(),
			"default", c.Config.AI.DefaultProvider,
		)
	} else {
		c.Log.Warn("No AI provider configured, assessments fall back to the rule engine")
	}
}

// ========================================
// Phase 5: Business Logic
// ========================================

// MustInitBusiness wires the bureau, pipeline, events and assessment service
func (c *Container) MustInitBusiness() {
	c.Business.Bureau = bureau.NewSimulator()
	c.Business.Publisher = events.NewPublisher(c.Adapters.KafkaProducer)

	if c.Adapters.AIGateway != nil {
		c.Business.Pipeline = agents.NewPipeline(c.Adapters.AIGateway, c.Config.Pipeline)
	} else {
		c.Business.Pipeline = agents.NewPipeline(nil, c.Config.Pipeline)
	}

	c.Business.Assessment = assessmentsvc.NewService(
		c.Repos.Applications,
		c.Repos.CreditReports,
		c.Repos.Assessments,
		c.Business.Bureau,
		c.Repos.ReportCache,
		c.Business.Pipeline,
		c.Business.Publisher,
	)

	c.Log.Info("✓ Assessment service initialized")
}

// ========================================
// Phase 6: Application Layer
// ========================================

// MustInitApplication initializes the operational HTTP surface
func (c *Container) MustInitApplication() {
	metrics.Init()
	if c.Config.Metrics.Enabled {
		metrics.RegisterCustomCollector(
			metrics.NewCustomCollector(c.Log, c.PG.DB(), c.Redis.Client()),
		)
	}

	c.Application.HealthHandler = health.New(
		c.Log,
		c.PG.DB(),
		c.Redis.Client(),
		c.Config.App.Name,
		version,
	)

	c.Application.HTTPServer = api.NewServer(api.ServerConfig{
		Addr:        c.Config.Metrics.Addr,
		ServiceName: c.Config.App.Name,
		Version:     version,
	}, c.Application.HealthHandler, c.Log)
}

// ========================================
// Phase 7: Background Processing
// ========================================

// MustInitBackground initializes the worker scheduler
func (c *Container) MustInitBackground() {
	useAI := c.Config.Pipeline.UseAI && c.Config.AI.Enabled()

	c.Background.AssessmentWorker = workers.NewAssessmentWorker(
		c.Adapters.SubmissionConsumer,
		c.Business.Assessment,
		c.Config.Workers,
		useAI,
	)

	c.Background.WorkerScheduler = workers.NewScheduler()
	c.Background.WorkerScheduler.RegisterWorker(c.Background.AssessmentWorker)

	c.Log.Infow("✓ Background workers initialized", "use_ai", useAI)
}

// version is stamped at build time via -ldflags
var version = "dev"

// ========================================
// Providers
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	log.Info("Initializing Kafka producer...")
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("Kafka brokers not configured, using default localhost:9092")
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Async:   false,
	})
	log.Info("✓ Kafka producer initialized")
	return producer
}

func provideKafkaConsumer(cfg *config.Config, topic string, log *logger.Logger) *kafka.Consumer {
	log.Infow("Initializing Kafka consumer", "topic", topic)
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}

	consumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.GroupID,
		Topic:   topic,
	})
	log.Infow("✓ Kafka consumer initialized", "topic", topic)
	return consumer
}
