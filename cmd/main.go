package main

import (
	"os"
	"os/signal"
	"syscall"

	"meridian/internal/bootstrap"
)

func main() {
	container := bootstrap.NewContainer()
	container.MustInit()

	log := container.Log

	if err := container.Start(); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	// Wait for a shutdown signal or a fatal internal error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Infow("Received shutdown signal", "signal", sig.String())
	case <-container.Context.Done():
		log.Warn("Internal context cancelled, shutting down")
	}

	container.Shutdown()
}
