package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "fleetwatch.db"), 300*time.Second, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltHeartbeatRoundTrip(t *testing.T) {
	store := newTestBoltStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	level := 3
	rec := &HeartbeatRecord{
		ComponentID:   "order-gateway",
		ProcessExists: true,
		ObservedAt:    base.Add(-5 * time.Second),
		DeclaredLevel: &level,
		ReceivedAt:    base,
	}
	if err := store.PutHeartbeat(ctx, rec); err != nil {
		t.Fatalf("PutHeartbeat: %v", err)
	}

	got, err := store.GetHeartbeat(ctx, "order-gateway")
	if err != nil {
		t.Fatalf("GetHeartbeat: %v", err)
	}
	if got.ComponentID != rec.ComponentID || !got.ProcessExists {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.DeclaredLevel == nil || *got.DeclaredLevel != 3 {
		t.Errorf("declared level lost: %+v", got.DeclaredLevel)
	}

	if _, err := store.GetHeartbeat(ctx, "no-such-component"); err != ErrNotFound {
		t.Errorf("missing record: got %v, want ErrNotFound", err)
	}
}

func TestBoltHeartbeatExpiry(t *testing.T) {
	store := newTestBoltStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	rec := &HeartbeatRecord{ComponentID: "md-feed", ProcessExists: true, ObservedAt: base, ReceivedAt: base}
	if err := store.PutHeartbeat(ctx, rec); err != nil {
		t.Fatalf("PutHeartbeat: %v", err)
	}

	// Still live just inside the TTL.
	store.now = func() time.Time { return base.Add(300 * time.Second) }
	if _, err := store.GetHeartbeat(ctx, "md-feed"); err != nil {
		t.Fatalf("heartbeat at TTL boundary should be live: %v", err)
	}

	// Expired once the TTL has elapsed.
	store.now = func() time.Time { return base.Add(301 * time.Second) }
	if _, err := store.GetHeartbeat(ctx, "md-feed"); err != ErrNotFound {
		t.Errorf("expired heartbeat: got %v, want ErrNotFound", err)
	}

	// The expired id must also drop out of the fleet id union.
	ids, err := store.ComponentIDs(ctx)
	if err != nil {
		t.Fatalf("ComponentIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ComponentIDs = %v, want empty after expiry", ids)
	}
}

func TestBoltComponentIDsUnion(t *testing.T) {
	store := newTestBoltStore(t)
	ctx := context.Background()

	now := time.Now()
	if err := store.PutHeartbeat(ctx, &HeartbeatRecord{ComponentID: "beta", ProcessExists: true, ObservedAt: now, ReceivedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := store.PutFileRecord(ctx, &FileMonitorRecord{ComponentID: "alpha", OverallOK: true, CheckedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := store.PutLevelRecord(ctx, &LevelComplianceRecord{ComponentID: "gamma", ExpectedLevel: 1, CheckedAt: now}); err != nil {
		t.Fatal(err)
	}

	ids, err := store.ComponentIDs(ctx)
	if err != nil {
		t.Fatalf("ComponentIDs: %v", err)
	}
	want := []string{"alpha", "beta", "gamma"}
	if len(ids) != len(want) {
		t.Fatalf("ComponentIDs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ComponentIDs = %v, want sorted %v", ids, want)
		}
	}
}

func TestBoltDeleteComponent(t *testing.T) {
	store := newTestBoltStore(t)
	ctx := context.Background()

	now := time.Now()
	if err := store.PutHeartbeat(ctx, &HeartbeatRecord{ComponentID: "risk-engine", ProcessExists: true, ObservedAt: now, ReceivedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := store.PutFileRecord(ctx, &FileMonitorRecord{ComponentID: "risk-engine", OverallOK: true, CheckedAt: now}); err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteComponent(ctx, "risk-engine"); err != nil {
		t.Fatalf("DeleteComponent: %v", err)
	}

	if _, err := store.GetHeartbeat(ctx, "risk-engine"); err != ErrNotFound {
		t.Errorf("heartbeat after delete: got %v, want ErrNotFound", err)
	}
	if _, err := store.GetFileRecord(ctx, "risk-engine"); err != ErrNotFound {
		t.Errorf("file record after delete: got %v, want ErrNotFound", err)
	}
}

func TestBoltAlertsNewestFirstAndPurge(t *testing.T) {
	store := newTestBoltStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a1", "a2", "a3"} {
		ev := &AlertEvent{
			ID:          id,
			ComponentID: "md-feed",
			From:        HealthHealthy,
			To:          HealthWarning,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.PutAlert(ctx, ev); err != nil {
			t.Fatalf("PutAlert: %v", err)
		}
	}

	alerts, err := store.GetAlerts(ctx, 2)
	if err != nil {
		t.Fatalf("GetAlerts: %v", err)
	}
	if len(alerts) != 2 || alerts[0].ID != "a3" || alerts[1].ID != "a2" {
		t.Errorf("GetAlerts order wrong: %+v", alerts)
	}

	purged, err := store.PurgeExpired(ctx, base.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if purged != 3 {
		t.Errorf("purged = %d, want 3", purged)
	}
	alerts, _ = store.GetAlerts(ctx, 0)
	if len(alerts) != 0 {
		t.Errorf("alerts after purge: %+v", alerts)
	}
}
