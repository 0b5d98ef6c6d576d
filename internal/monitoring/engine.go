// internal/monitoring/engine.go
package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fleetwatch/internal/config"
	"fleetwatch/internal/database"
	"fleetwatch/internal/metrics"
)

// Engine owns the evaluators and their tickers. The file and level
// evaluators run on independent tickers; each tick runs to completion
// before the next tick of the same evaluator starts. Heartbeat ingestion
// is reactive (driven by the transport) and aggregation is read-only, so
// neither participates in the tick loops.
type Engine struct {
	config     *config.Config
	store      database.Store
	metrics    *metrics.Collector
	heartbeat  *HeartbeatEvaluator
	files      *FileFreshnessEvaluator
	level      *LevelComplianceEvaluator
	aggregator *StatusAggregator
	alerter    *Alerter

	mu      sync.RWMutex
	running bool
}

func NewEngine(cfg *config.Config, store database.Store, metricsCollector *metrics.Collector) *Engine {
	heartbeat := NewHeartbeatEvaluator(store, cfg.Monitoring.HeartbeatInterval)

	return &Engine{
		config:     cfg,
		store:      store,
		metrics:    metricsCollector,
		heartbeat:  heartbeat,
		files:      NewFileFreshnessEvaluator(store, cfg.Components),
		level:      NewLevelComplianceEvaluator(store, cfg.Components),
		aggregator: NewStatusAggregator(store, heartbeat),
		alerter:    NewAlerter(store, cfg.Alerting),
	}
}

func (e *Engine) Heartbeat() *HeartbeatEvaluator { return e.heartbeat }

func (e *Engine) Aggregator() *StatusAggregator { return e.aggregator }

func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = true
	e.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"components":    len(e.config.Components),
		"tick_interval": e.config.Monitoring.TickInterval,
	}).Info("Starting compliance engine")

	e.alerter.SchedulePeriodicPurge(ctx, e.config.Database.PurgeInterval)

	go e.runTicks(ctx, "files", e.files.Tick)
	go e.runTicks(ctx, "level", e.level.Tick)
	go e.runAlertLoop(ctx)

	return nil
}

func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	logrus.Info("Stopping compliance engine")
	e.running = false
}

// runTicks drives one evaluator. Calling tick synchronously in the loop
// is what guarantees no overlapping ticks for a single evaluator.
func (e *Engine) runTicks(ctx context.Context, name string, tick func(context.Context)) {
	e.runOneTick(ctx, name, tick)

	ticker := time.NewTicker(e.config.Monitoring.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.runOneTick(ctx, name, tick)
		}
	}
}

func (e *Engine) runOneTick(ctx context.Context, name string, tick func(context.Context)) {
	runID := uuid.New().String()
	start := time.Now()

	tick(ctx)

	duration := time.Since(start)
	e.metrics.RecordTick(name, duration)

	logrus.WithFields(logrus.Fields{
		"evaluator": name,
		"run_id":    runID,
		"duration":  duration,
	}).Debug("Tick completed")
}

// runAlertLoop periodically aggregates the fleet and feeds the snapshot
// to the alerter so status transitions are noticed even when nobody is
// querying the API.
func (e *Engine) runAlertLoop(ctx context.Context) {
	ticker := time.NewTicker(e.config.Monitoring.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fleet, err := e.aggregator.FleetStatus(ctx)
			if err != nil {
				logrus.WithError(err).Error("Fleet aggregation failed in alert loop")
				continue
			}
			e.alerter.ObserveFleet(ctx, fleet)
		}
	}
}
