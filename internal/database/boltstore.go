// internal/database/boltstore.go - BoltDB implementation of Store
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

var (
	HeartbeatsBucket  = []byte("heartbeats")
	FileStatusBucket  = []byte("file_status")
	LevelStatusBucket = []byte("level_status")
	AlertsBucket      = []byte("alerts")
)

type BoltStore struct {
	db             *bbolt.DB
	path           string
	heartbeatTTL   time.Duration
	alertRetention time.Duration
	now            func() time.Time
}

func NewBoltStore(path string, heartbeatTTL, alertRetention time.Duration) (*BoltStore, error) {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}

	store := &BoltStore{
		db:             db,
		path:           path,
		heartbeatTTL:   heartbeatTTL,
		alertRetention: alertRetention,
		now:            time.Now,
	}

	if err := store.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return store, nil
}

func (s *BoltStore) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{HeartbeatsBucket, FileStatusBucket, LevelStatusBucket, AlertsBucket}
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
}

func (s *BoltStore) expired(rec *HeartbeatRecord) bool {
	return s.now().Sub(rec.ReceivedAt) > s.heartbeatTTL
}

func (s *BoltStore) PutHeartbeat(ctx context.Context, rec *HeartbeatRecord) error {
	return s.put(HeartbeatsBucket, rec.ComponentID, rec)
}

func (s *BoltStore) GetHeartbeat(ctx context.Context, componentID string) (*HeartbeatRecord, error) {
	var rec HeartbeatRecord
	if err := s.get(HeartbeatsBucket, componentID, &rec); err != nil {
		return nil, err
	}
	// Expiry is enforced on read; the purge loop reclaims space later.
	if s.expired(&rec) {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *BoltStore) PutFileRecord(ctx context.Context, rec *FileMonitorRecord) error {
	return s.put(FileStatusBucket, rec.ComponentID, rec)
}

func (s *BoltStore) GetFileRecord(ctx context.Context, componentID string) (*FileMonitorRecord, error) {
	var rec FileMonitorRecord
	if err := s.get(FileStatusBucket, componentID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *BoltStore) PutLevelRecord(ctx context.Context, rec *LevelComplianceRecord) error {
	return s.put(LevelStatusBucket, rec.ComponentID, rec)
}

func (s *BoltStore) GetLevelRecord(ctx context.Context, componentID string) (*LevelComplianceRecord, error) {
	var rec LevelComplianceRecord
	if err := s.get(LevelStatusBucket, componentID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *BoltStore) ComponentIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)

	err := s.db.View(func(tx *bbolt.Tx) error {
		hb := tx.Bucket(HeartbeatsBucket)
		if err := hb.ForEach(func(k, v []byte) error {
			var rec HeartbeatRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil // Skip malformed entries
			}
			if !s.expired(&rec) {
				seen[string(k)] = true
			}
			return nil
		}); err != nil {
			return err
		}

		for _, bucket := range [][]byte{FileStatusBucket, LevelStatusBucket} {
			if err := tx.Bucket(bucket).ForEach(func(k, v []byte) error {
				seen[string(k)] = true
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *BoltStore) PutAlert(ctx context.Context, ev *AlertEvent) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(AlertsBucket)

		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal alert: %w", err)
		}

		// Nanosecond prefix keeps alerts in chronological key order.
		key := fmt.Sprintf("%020d:%s", ev.CreatedAt.UnixNano(), ev.ID)
		return b.Put([]byte(key), data)
	})
}

func (s *BoltStore) GetAlerts(ctx context.Context, limit int) ([]AlertEvent, error) {
	var alerts []AlertEvent

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(AlertsBucket).Cursor()

		// Newest first
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var ev AlertEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				continue
			}
			alerts = append(alerts, ev)

			if limit > 0 && len(alerts) >= limit {
				break
			}
		}
		return nil
	})

	return alerts, err
}

func (s *BoltStore) DeleteComponent(ctx context.Context, componentID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{HeartbeatsBucket, FileStatusBucket, LevelStatusBucket} {
			if err := tx.Bucket(bucket).Delete([]byte(componentID)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	purged := 0

	err := s.db.Update(func(tx *bbolt.Tx) error {
		hb := tx.Bucket(HeartbeatsBucket)
		var stale [][]byte
		if err := hb.ForEach(func(k, v []byte) error {
			var rec HeartbeatRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				stale = append(stale, append([]byte(nil), k...))
				return nil
			}
			if now.Sub(rec.ReceivedAt) > s.heartbeatTTL {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := hb.Delete(k); err != nil {
				return err
			}
			purged++
		}

		alerts := tx.Bucket(AlertsBucket)
		cutoff := now.Add(-s.alertRetention)
		var old [][]byte
		if err := alerts.ForEach(func(k, v []byte) error {
			var ev AlertEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				old = append(old, append([]byte(nil), k...))
				return nil
			}
			if ev.CreatedAt.Before(cutoff) {
				old = append(old, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range old {
			if err := alerts.Delete(k); err != nil {
				return err
			}
			purged++
		}

		return nil
	})

	return purged, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) put(bucket []byte, key string, value interface{}) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)

		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}

		return b.Put([]byte(key), data)
	})
}

func (s *BoltStore) get(bucket []byte, key string, out interface{}) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, out)
	})
}
