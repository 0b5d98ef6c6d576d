// internal/monitoring/heartbeat.go
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetwatch/internal/config"
	"fleetwatch/internal/database"
)

var (
	ErrInvalidComponentID = errors.New("invalid component id")
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
)

// HeartbeatSignal is the ingestion payload delivered by the transport.
type HeartbeatSignal struct {
	ProcessExists bool   `json:"process_exists"`
	Timestamp     string `json:"timestamp"`
	DeclaredLevel *int   `json:"declared_level,omitempty"`
}

// HeartbeatEvaluator turns incoming signals into stored heartbeat records
// and classifies liveness from the most recent record. Only the latest
// signal matters; there is no history and no averaging.
type HeartbeatEvaluator struct {
	store    database.Store
	interval time.Duration
	now      func() time.Time
}

func NewHeartbeatEvaluator(store database.Store, interval time.Duration) *HeartbeatEvaluator {
	return &HeartbeatEvaluator{
		store:    store,
		interval: interval,
		now:      time.Now,
	}
}

// Ingest validates and stores one heartbeat signal. The record overwrites
// any previous one for the component and expires on the store's TTL
// regardless of the signal's own cadence.
func (e *HeartbeatEvaluator) Ingest(ctx context.Context, componentID string, sig HeartbeatSignal) (*database.HeartbeatRecord, error) {
	if !config.ComponentIDPattern.MatchString(componentID) {
		return nil, ErrInvalidComponentID
	}

	observedAt, err := time.Parse(time.RFC3339, sig.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimestamp, sig.Timestamp)
	}

	declared := sig.DeclaredLevel
	if declared != nil && (*declared < 1 || *declared > 4) {
		// Out-of-range declarations are dropped, not rejected.
		declared = nil
	}

	rec := &database.HeartbeatRecord{
		ComponentID:   componentID,
		ProcessExists: sig.ProcessExists,
		ObservedAt:    observedAt,
		DeclaredLevel: declared,
		ReceivedAt:    e.now(),
	}

	if err := e.store.PutHeartbeat(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to store heartbeat: %w", err)
	}

	return rec, nil
}

// Classify maps a heartbeat record to a health class. A nil record means
// no recent signal. A component that reports its process gone is critical
// no matter how fresh the signal is.
func (e *HeartbeatEvaluator) Classify(rec *database.HeartbeatRecord) database.HealthClass {
	if rec == nil {
		return database.HealthOffline
	}
	if !rec.ProcessExists {
		return database.HealthCritical
	}

	delta := e.now().Sub(rec.ObservedAt)
	switch {
	case delta <= e.interval:
		return database.HealthHealthy
	case delta <= 2*e.interval:
		return database.HealthWarning
	default:
		return database.HealthCritical
	}
}
