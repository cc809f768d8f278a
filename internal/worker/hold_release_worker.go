package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prohmpiriya/ringside/pkg/logger"
)

// maxBatchesPerScan caps how many full batches one scan drains
const maxBatchesPerScan = 10

// ExpiredHoldReleaser is the part of reservation.Reserver the worker uses
type ExpiredHoldReleaser interface {
	ReleaseExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

// HoldReleaseWorkerConfig contains configuration for the hold release worker
type HoldReleaseWorkerConfig struct {
	// ScanInterval is the interval between scans for expired holds
	ScanInterval time.Duration
	// BatchSize is the number of holds released per call
	BatchSize int
}

// DefaultHoldReleaseWorkerConfig returns default configuration
func DefaultHoldReleaseWorkerConfig() *HoldReleaseWorkerConfig {
	return &HoldReleaseWorkerConfig{
		ScanInterval: 30 * time.Second,
		BatchSize:    100,
	}
}

// HoldReleaseWorker returns seats of abandoned holds to their zones
type HoldReleaseWorker struct {
	releaser ExpiredHoldReleaser
	config   *HoldReleaseWorkerConfig
	log      *logger.Logger
	now      func() time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool

	totalReleased    int64
	lastScanTime     time.Time
	lastReleaseCount int
}

// NewHoldReleaseWorker creates a new hold release worker
func NewHoldReleaseWorker(releaser ExpiredHoldReleaser, config *HoldReleaseWorkerConfig) *HoldReleaseWorker {
	defaults := DefaultHoldReleaseWorkerConfig()
	if config == nil {
		config = defaults
	}
	if config.ScanInterval <= 0 {
		config.ScanInterval = defaults.ScanInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}

	return &HoldReleaseWorker{
		releaser: releaser,
		config:   config,
		log:      logger.Get(),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the scan loop in the background
func (w *HoldReleaseWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("hold release worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting hold release worker", "interval", w.config.ScanInterval.String(), "batch_size", w.config.BatchSize)

	w.wg.Add(1)
	go w.scanLoop(ctx)

	return nil
}

// Stop stops the worker and waits for the current scan to finish
func (w *HoldReleaseWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping hold release worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Hold release worker stopped")
}

func (w *HoldReleaseWorker) scanLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.ScanInterval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce releases expired holds until a batch comes back short.
// It returns the number of holds released.
func (w *HoldReleaseWorker) RunOnce(ctx context.Context) int {
	now := w.now()
	released := 0

	for i := 0; i < maxBatchesPerScan; i++ {
		n, err := w.releaser.ReleaseExpired(ctx, now, w.config.BatchSize)
		released += n
		if err != nil {
			w.log.Error(fmt.Sprintf("Failed to release expired holds: %v", err))
			break
		}
		if n < w.config.BatchSize {
			break
		}
	}

	w.mu.Lock()
	w.lastScanTime = now
	w.lastReleaseCount = released
	w.totalReleased += int64(released)
	w.mu.Unlock()

	if released > 0 {
		w.log.Info(fmt.Sprintf("Released %d expired holds", released))
	}
	return released
}

// GetStats returns worker statistics
func (w *HoldReleaseWorker) GetStats() *HoldReleaseWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &HoldReleaseWorkerStats{
		IsRunning:        w.running,
		TotalReleased:    w.totalReleased,
		LastScanTime:     w.lastScanTime,
		LastReleaseCount: w.lastReleaseCount,
	}
}

// HoldReleaseWorkerStats contains worker statistics
type HoldReleaseWorkerStats struct {
	IsRunning        bool      `json:"is_running"`
	TotalReleased    int64     `json:"total_released"`
	LastScanTime     time.Time `json:"last_scan_time"`
	LastReleaseCount int       `json:"last_release_count"`
}
