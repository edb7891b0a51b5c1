package testsupport

import (
	"log"
	"os"
	"sync"

	"meridian/internal/adapters/config"
)

var (
	cfg     *config.Config
	cfgOnce sync.Once
	cfgErr  error
)

// init forces ENV=test so config.Load picks up .env.test
func init() {
	if os.Getenv("ENV") == "" {
		_ = os.Setenv("ENV", "test")
	}
}

func loadConfig() {
	cfgOnce.Do(func() {
		cfg, cfgErr = config.Load()
		if cfgErr != nil {
			log.Printf("Warning: failed to load config in testsupport: %v", cfgErr)
		}
	})
}

// GetConfig returns the test configuration, loading it once on first use.
// Panics if loading failed; integration tests cannot proceed without it.
func GetConfig() *config.Config {
	loadConfig()
	if cfgErr != nil {
		panic(cfgErr)
	}
	return cfg
}
