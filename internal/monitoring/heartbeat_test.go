// internal/monitoring/heartbeat_test.go
package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleetwatch/internal/database"
)

func intPtr(v int) *int { return &v }

func TestHeartbeatIngest(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	store := database.NewMemStore(300*time.Second, time.Hour)
	store.Now = func() time.Time { return base }

	eval := NewHeartbeatEvaluator(store, 30*time.Second)
	eval.now = func() time.Time { return base }

	ctx := context.Background()

	rec, err := eval.Ingest(ctx, "pricing-engine", HeartbeatSignal{
		ProcessExists: true,
		Timestamp:     "2026-03-10T10:29:55Z",
		DeclaredLevel: intPtr(3),
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if rec.DeclaredLevel == nil || *rec.DeclaredLevel != 3 {
		t.Errorf("DeclaredLevel = %v, want 3", rec.DeclaredLevel)
	}
	if !rec.ReceivedAt.Equal(base) {
		t.Errorf("ReceivedAt = %v, want %v", rec.ReceivedAt, base)
	}

	stored, err := store.GetHeartbeat(ctx, "pricing-engine")
	if err != nil {
		t.Fatalf("GetHeartbeat() error = %v", err)
	}
	if !stored.ObservedAt.Equal(time.Date(2026, 3, 10, 10, 29, 55, 0, time.UTC)) {
		t.Errorf("ObservedAt = %v", stored.ObservedAt)
	}
}

func TestHeartbeatIngestValidation(t *testing.T) {
	store := database.NewMemStore(300*time.Second, time.Hour)
	eval := NewHeartbeatEvaluator(store, 30*time.Second)
	ctx := context.Background()

	tests := []struct {
		name        string
		componentID string
		sig         HeartbeatSignal
		wantErr     error
	}{
		{
			name:        "bad component id",
			componentID: "pricing engine",
			sig:         HeartbeatSignal{ProcessExists: true, Timestamp: "2026-03-10T10:30:00Z"},
			wantErr:     ErrInvalidComponentID,
		},
		{
			name:        "empty component id",
			componentID: "",
			sig:         HeartbeatSignal{ProcessExists: true, Timestamp: "2026-03-10T10:30:00Z"},
			wantErr:     ErrInvalidComponentID,
		},
		{
			name:        "bad timestamp",
			componentID: "pricing-engine",
			sig:         HeartbeatSignal{ProcessExists: true, Timestamp: "not-a-time"},
			wantErr:     ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eval.Ingest(ctx, tt.componentID, tt.sig)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Ingest() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHeartbeatIngestDropsOutOfRangeLevel(t *testing.T) {
	store := database.NewMemStore(300*time.Second, time.Hour)
	eval := NewHeartbeatEvaluator(store, 30*time.Second)
	ctx := context.Background()

	for _, level := range []int{0, 5, -1, 99} {
		rec, err := eval.Ingest(ctx, "pricing-engine", HeartbeatSignal{
			ProcessExists: true,
			Timestamp:     "2026-03-10T10:30:00Z",
			DeclaredLevel: intPtr(level),
		})
		if err != nil {
			t.Fatalf("Ingest(level=%d) error = %v", level, err)
		}
		if rec.DeclaredLevel != nil {
			t.Errorf("Ingest(level=%d) kept declared level %d, want dropped", level, *rec.DeclaredLevel)
		}
	}
}

func TestHeartbeatExpiry(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	store := database.NewMemStore(300*time.Second, time.Hour)
	store.Now = func() time.Time { return base }

	eval := NewHeartbeatEvaluator(store, 30*time.Second)
	eval.now = func() time.Time { return base }

	ctx := context.Background()
	if _, err := eval.Ingest(ctx, "pricing-engine", HeartbeatSignal{
		ProcessExists: true,
		Timestamp:     base.Format(time.RFC3339),
	}); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	// Visible up to exactly the TTL, gone one second after.
	store.Now = func() time.Time { return base.Add(300 * time.Second) }
	if _, err := store.GetHeartbeat(ctx, "pricing-engine"); err != nil {
		t.Errorf("GetHeartbeat() at TTL boundary error = %v, want record", err)
	}

	store.Now = func() time.Time { return base.Add(301 * time.Second) }
	if _, err := store.GetHeartbeat(ctx, "pricing-engine"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("GetHeartbeat() past TTL error = %v, want ErrNotFound", err)
	}
}

func TestHeartbeatClassify(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	store := database.NewMemStore(300*time.Second, time.Hour)
	eval := NewHeartbeatEvaluator(store, 30*time.Second)
	eval.now = func() time.Time { return base }

	record := func(processExists bool, age time.Duration) *database.HeartbeatRecord {
		return &database.HeartbeatRecord{
			ComponentID:   "pricing-engine",
			ProcessExists: processExists,
			ObservedAt:    base.Add(-age),
			ReceivedAt:    base.Add(-age),
		}
	}

	tests := []struct {
		name string
		rec  *database.HeartbeatRecord
		want database.HealthClass
	}{
		{"no record", nil, database.HealthOffline},
		{"process gone", record(false, 0), database.HealthCritical},
		{"process gone even when fresh", record(false, time.Second), database.HealthCritical},
		{"fresh", record(true, 10*time.Second), database.HealthHealthy},
		{"exactly one interval", record(true, 30*time.Second), database.HealthHealthy},
		{"between one and two intervals", record(true, 45*time.Second), database.HealthWarning},
		{"exactly two intervals", record(true, 60*time.Second), database.HealthWarning},
		{"past two intervals", record(true, 61*time.Second), database.HealthCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eval.Classify(tt.rec); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}
