// internal/database/store.go
package database

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist or has expired.
var ErrNotFound = errors.New("record not found")

// Store defines the record store shared by the evaluators and the
// aggregator. Each record category is written by exactly one evaluator;
// writes to a given component key are last-writer-wins. Reads during
// aggregation may observe records produced on different ticks; bounded
// staleness is accepted.
type Store interface {
	// Heartbeat records carry a fixed TTL; GetHeartbeat treats an
	// expired record the same as an absent one.
	PutHeartbeat(ctx context.Context, rec *HeartbeatRecord) error
	GetHeartbeat(ctx context.Context, componentID string) (*HeartbeatRecord, error)

	// File and level records persist until the next tick overwrites them.
	PutFileRecord(ctx context.Context, rec *FileMonitorRecord) error
	GetFileRecord(ctx context.Context, componentID string) (*FileMonitorRecord, error)
	PutLevelRecord(ctx context.Context, rec *LevelComplianceRecord) error
	GetLevelRecord(ctx context.Context, componentID string) (*LevelComplianceRecord, error)

	// ComponentIDs returns the sorted union of component ids seen across
	// the three record categories, excluding expired heartbeats.
	ComponentIDs(ctx context.Context) ([]string, error)

	// Alert operations
	PutAlert(ctx context.Context, ev *AlertEvent) error
	GetAlerts(ctx context.Context, limit int) ([]AlertEvent, error)

	// DeleteComponent removes every record belonging to one component.
	DeleteComponent(ctx context.Context, componentID string) error

	// PurgeExpired drops expired heartbeats and stale alerts, returning
	// how many records were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)

	// Close the database connection
	Close() error
}
