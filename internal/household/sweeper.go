package household

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// Sweeper periodically expires overdue pending invitations.
type Sweeper struct {
	mu       sync.RWMutex
	service  *Service
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSweeper creates an invitation expiry sweeper. A non-positive
// interval defaults to one minute.
func NewSweeper(service *Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the sweep loop.
func (sw *Sweeper) Start(ctx context.Context) {
	sw.mu.Lock()
	ctx, sw.cancel = context.WithCancel(ctx)
	sw.done = make(chan struct{})
	sw.mu.Unlock()

	go func() {
		defer close(sw.done)
		ticker := time.NewTicker(sw.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sw.tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the sweeper.
func (sw *Sweeper) Stop() {
	sw.mu.RLock()
	cancel := sw.cancel
	done := sw.done
	sw.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// tick runs one sweep, retrying briefly on failure. A sweep that still
// fails is logged and retried on the next interval; it is never fatal.
func (sw *Sweeper) tick(ctx context.Context) {
	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(200*time.Millisecond))

	var expired int
	err := retry.Do(ctx, backoff, func(context.Context) error {
		n, err := sw.service.SweepExpired(time.Now().UTC())
		if err != nil {
			return retry.RetryableError(err)
		}
		expired = n
		return nil
	})
	if err != nil {
		sw.logger.Error("invitation sweep failed", "error", err)
		return
	}
	if expired > 0 {
		sw.logger.Info("expired invitations", "count", expired)
	}
}
