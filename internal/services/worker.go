package services

import (
	"context"
	"sync"
	"time"

	"github.com/runslash/runslash/internal/logger"
)

// LaunchPoller launches a goroutine that invokes one poll cycle per tick
// until the context is cancelled. The cadence is fixed here; the cycle itself
// never loops.
func LaunchPoller(ctx context.Context, wg *sync.WaitGroup, poller *Poller, interval time.Duration) {
	defer wg.Done()

	logger.Info("Poller started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Poller received shutdown signal, stopping...")
			return
		case <-ticker.C:
			if err := poller.RunCycle(ctx); err != nil {
				logger.Errorf("Poll cycle failed: %v", err)
			}
		}
	}
}
