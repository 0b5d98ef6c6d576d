// internal/database/memstore.go - in-memory Store for tests and ephemeral runs
package database

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is a thread-safe in-memory Store. Heartbeat expiry uses an
// injectable clock so tests can advance time deterministically.
type MemStore struct {
	mu             sync.RWMutex
	heartbeats     map[string]*HeartbeatRecord
	fileRecords    map[string]*FileMonitorRecord
	levelRecords   map[string]*LevelComplianceRecord
	alerts         []AlertEvent
	heartbeatTTL   time.Duration
	alertRetention time.Duration
	Now            func() time.Time
}

func NewMemStore(heartbeatTTL, alertRetention time.Duration) *MemStore {
	return &MemStore{
		heartbeats:     make(map[string]*HeartbeatRecord),
		fileRecords:    make(map[string]*FileMonitorRecord),
		levelRecords:   make(map[string]*LevelComplianceRecord),
		heartbeatTTL:   heartbeatTTL,
		alertRetention: alertRetention,
		Now:            time.Now,
	}
}

func (s *MemStore) expired(rec *HeartbeatRecord) bool {
	return s.Now().Sub(rec.ReceivedAt) > s.heartbeatTTL
}

func (s *MemStore) PutHeartbeat(ctx context.Context, rec *HeartbeatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.heartbeats[rec.ComponentID] = &cp
	return nil
}

func (s *MemStore) GetHeartbeat(ctx context.Context, componentID string) (*HeartbeatRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.heartbeats[componentID]
	if !ok || s.expired(rec) {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemStore) PutFileRecord(ctx context.Context, rec *FileMonitorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.fileRecords[rec.ComponentID] = &cp
	return nil
}

func (s *MemStore) GetFileRecord(ctx context.Context, componentID string) (*FileMonitorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.fileRecords[componentID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemStore) PutLevelRecord(ctx context.Context, rec *LevelComplianceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.levelRecords[rec.ComponentID] = &cp
	return nil
}

func (s *MemStore) GetLevelRecord(ctx context.Context, componentID string) (*LevelComplianceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.levelRecords[componentID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemStore) ComponentIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for id, rec := range s.heartbeats {
		if !s.expired(rec) {
			seen[id] = true
		}
	}
	for id := range s.fileRecords {
		seen[id] = true
	}
	for id := range s.levelRecords {
		seen[id] = true
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemStore) PutAlert(ctx context.Context, ev *AlertEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, *ev)
	return nil
}

func (s *MemStore) GetAlerts(ctx context.Context, limit int) ([]AlertEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]AlertEvent, 0, len(s.alerts))
	for i := len(s.alerts) - 1; i >= 0; i-- {
		out = append(out, s.alerts[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemStore) DeleteComponent(ctx context.Context, componentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.heartbeats, componentID)
	delete(s.fileRecords, componentID)
	delete(s.levelRecords, componentID)
	return nil
}

func (s *MemStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for id, rec := range s.heartbeats {
		if now.Sub(rec.ReceivedAt) > s.heartbeatTTL {
			delete(s.heartbeats, id)
			purged++
		}
	}

	cutoff := now.Add(-s.alertRetention)
	kept := s.alerts[:0]
	for _, ev := range s.alerts {
		if ev.CreatedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, ev)
	}
	s.alerts = kept

	return purged, nil
}

func (s *MemStore) Close() error {
	return nil
}
