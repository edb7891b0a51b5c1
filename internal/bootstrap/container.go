package bootstrap

import (
	"context"
	"sync"

	"meridian/internal/adapters/config"
	"meridian/internal/adapters/kafka"
	pgclient "meridian/internal/adapters/postgres"
	redisclient "meridian/internal/adapters/redis"
	"meridian/internal/adapters/ai"
	"meridian/internal/agents"
	"meridian/internal/api"
	"meridian/internal/api/health"
	"meridian/internal/bureau"
	"meridian/internal/domain/application"
	domainassessment "meridian/internal/domain/assessment"
	"meridian/internal/domain/creditreport"
	"meridian/internal/events"
	redisrepo "meridian/internal/repository/redis"
	assessmentsvc "meridian/internal/services/assessment"
	"meridian/internal/workers"
	"meridian/pkg/errors"
	"meridian/pkg/logger"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer (Data stores)
	PG    *pgclient.Client
	Redis *redisclient.Client

	// Domain Layer - Repositories
	Repos *Repositories

	// External Adapters
	Adapters *Adapters

	// Business Logic
	Business *Business

	// Application Layer
	Application *Application

	// Background Processing
	Background *Background

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups all domain repositories
type Repositories struct {
	Applications  application.Repository
	CreditReports creditreport.Repository
	Assessments   domainassessment.Repository
	ReportCache   *redisrepo.ReportCache
}

// Adapters groups all external adapters
type Adapters struct {
	// Kafka
	KafkaProducer      *kafka.Producer
	SubmissionConsumer *kafka.Consumer

	// AI gateway (nil when no provider is configured)
	AIRegistry *ai.Registry
	AIGateway  *ai.Gateway
}

// Business groups business logic components
type Business struct {
	Bureau     *bureau.Simulator
	Pipeline   *agents.Pipeline
	Publisher  *events.Publisher
	Assessment *assessmentsvc.Service
}

// Application groups application layer components
type Application struct {
	HTTPServer    *api.Server
	HealthHandler *health.Handler
}

// Background groups all background processing components
type Background struct {
	WorkerScheduler  *workers.Scheduler
	AssessmentWorker *workers.AssessmentWorker
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:       &Repositories{},
		Adapters:    &Adapters{},
		Business:    &Business{},
		Application: &Application{},
		Background:  &Background{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes all components in the correct order
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitBusiness()
	c.MustInitApplication()
	c.MustInitBackground()
}

// Start starts all background components
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	// Start HTTP server
	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	// Start workers
	if err := c.Background.WorkerScheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "failed to start workers")
	}

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	// Cancel application context to signal all components to stop
	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.Application.HTTPServer,
		c.Background.WorkerScheduler,
		c.Adapters.SubmissionConsumer,
		c.Adapters.KafkaProducer,
		c.PG,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}
