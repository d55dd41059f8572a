package service

import (
	"context"
	"sync"
	"time"

	"github.com/fitpulse/insights/pkg/logger"
)

// DetectionWorker periodically runs both detectors. Disabled by default:
// production deployments normally trigger detection through the admin
// routes from an external scheduler, and running both would double-scan.
type DetectionWorker struct {
	atRisk   *AtRiskService
	leakage  *LeakageService
	interval time.Duration
	period   int

	running  bool
	ctx      context.Context
	cancel   context.CancelFunc
	runMutex sync.Mutex
}

func NewDetectionWorker(atRisk *AtRiskService, leakage *LeakageService, interval time.Duration, leakagePeriodDays int) *DetectionWorker {
	return &DetectionWorker{
		atRisk:   atRisk,
		leakage:  leakage,
		interval: interval,
		period:   leakagePeriodDays,
	}
}

// Start begins the periodic runs
func (w *DetectionWorker) Start() {
	if w.running {
		logger.Warn("DETECTION: Worker already running", nil)
		return
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.running = true

	logger.Info("DETECTION: Starting detection worker", map[string]interface{}{
		"interval": w.interval.String(),
	})

	// Run once on startup, then on the interval
	go w.run()

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				w.run()
			case <-w.ctx.Done():
				logger.Info("DETECTION: Worker stopped", nil)
				return
			}
		}
	}()
}

// Stop halts the worker
func (w *DetectionWorker) Stop() {
	if !w.running {
		return
	}
	logger.Info("DETECTION: Stopping detection worker", nil)
	w.cancel()
	w.running = false
}

func (w *DetectionWorker) run() {
	if !w.runMutex.TryLock() {
		logger.Warn("DETECTION: Run already in progress, skipping this cycle", nil)
		return
	}
	defer w.runMutex.Unlock()

	start := time.Now()

	atRiskResult, err := w.atRisk.DetectAll(w.ctx)
	if err != nil {
		logger.Error("DETECTION: At-risk run failed", err, nil)
	}

	leakageResult, err := w.leakage.DetectLeakage(w.ctx, w.period)
	if err != nil {
		logger.Error("DETECTION: Leakage run failed", err, nil)
	}

	fields := map[string]interface{}{
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if atRiskResult != nil {
		fields["at_risk_detected"] = atRiskResult.Detected
	}
	if leakageResult != nil {
		fields["leakage_detected"] = leakageResult.Detected
	}
	logger.Info("DETECTION: Run complete", fields)
}
