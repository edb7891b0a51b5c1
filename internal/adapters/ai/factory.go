package ai

import (
	"github.com/redis/go-redis/v9"

	"meridian/internal/adapters/config"
	"meridian/pkg/logger"
)

// BuildRegistry constructs the provider registry from configuration.
// Providers without credentials are skipped; the configured default provider
// is promoted to the front of the failover order. redisClient may be nil,
// in which case in-memory rate limiters are used.
func BuildRegistry(cfg config.AIConfig, redisClient *redis.Client) *Registry {
	registry := NewRegistry()

	var limiterRedis *redis.Client
	if cfg.DistributedRateLimit {
		limiterRedis = redisClient
	}
	limiters := NewRateLimiterFactory(limiterRedis)

	if cfg.OpenAIKey != "" {
		limiter := limiters.Create(ProviderNameOpenAI, RateLimitConfig{
			Enabled:      cfg.OpenAIRPM > 0,
			ReqPerMinute: cfg.OpenAIRPM,
		})
		registry.Register(
			ProviderNameOpenAI,
			NewOpenAIProvider(cfg.OpenAIKey, cfg.RequestTimeout, limiter),
			cfg.OpenAIModel,
		)
		logger.Get().Infow("Registered AI provider", "provider", ProviderNameOpenAI, "model", cfg.OpenAIModel)
	}

	if cfg.AnthropicKey != "" {
		limiter := limiters.Create(ProviderNameAnthropic, RateLimitConfig{
			Enabled:      cfg.AnthropicRPM > 0,
			ReqPerMinute: cfg.AnthropicRPM,
		})
		registry.Register(
			ProviderNameAnthropic,
			NewAnthropicProvider(cfg.AnthropicKey, cfg.RequestTimeout, limiter),
			cfg.AnthropicModel,
		)
		logger.Get().Infow("Registered AI provider", "provider", ProviderNameAnthropic, "model", cfg.AnthropicModel)
	}

	if cfg.LocalBaseURL != "" {
		limiter := limiters.Create(ProviderNameLocal, RateLimitConfig{
			Enabled:      cfg.LocalRPM > 0,
			ReqPerMinute: cfg.LocalRPM,
		})
		registry.Register(
			ProviderNameLocal,
			NewLocalProvider(cfg.LocalBaseURL, cfg.RequestTimeout, limiter),
			cfg.LocalModel,
		)
		logger.Get().Infow("Registered AI provider", "provider", ProviderNameLocal, "model", cfg.LocalModel)
	}

	if name := ProviderName(cfg.DefaultProvider); name.IsValid() {
		registry.SetPreferred(name)
	}

	return registry
}
