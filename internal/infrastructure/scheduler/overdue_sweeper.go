package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// OverdueSweep is the unit of work the sweeper runs on each tick
type OverdueSweep interface {
	MarkOverduePayments(ctx context.Context, now time.Time) (int, error)
}

// SweeperConfig holds the sweep loop configuration
type SweeperConfig struct {
	Enabled       bool
	CheckInterval time.Duration
}

// OverdueSweeper periodically flags unsettled payments whose due date has
// passed. One sweep runs at a time; a slow sweep skips the next tick
// rather than stacking up.
type OverdueSweeper struct {
	config SweeperConfig
	sweep  OverdueSweep
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewOverdueSweeper creates a new sweeper
func NewOverdueSweeper(config SweeperConfig, sweep OverdueSweep, logger *zap.Logger) *OverdueSweeper {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Hour
	}
	return &OverdueSweeper{
		config: config,
		sweep:  sweep,
		logger: logger,
	}
}

// Start launches the sweep loop. Returns immediately when disabled.
func (s *OverdueSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning || !s.config.Enabled {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("overdue sweeper started",
		zap.Duration("check_interval", s.config.CheckInterval))
	return nil
}

// Stop gracefully stops the sweep loop
func (s *OverdueSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("overdue sweeper stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("overdue sweeper stop timed out")
		return ctx.Err()
	}
}

func (s *OverdueSweeper) run(ctx context.Context) {
	defer s.wg.Done()

	// Sweep once at startup so a restart doesn't delay overdue flags by
	// a full interval
	s.runOnce(ctx)

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce executes a single sweep
func (s *OverdueSweeper) runOnce(ctx context.Context) {
	swept, err := s.sweep.MarkOverduePayments(ctx, time.Now())
	if err != nil {
		s.logger.Error("overdue sweep failed", zap.Error(err))
		return
	}
	if swept > 0 {
		s.logger.Info("payments marked overdue", zap.Int("count", swept))
	}
}
