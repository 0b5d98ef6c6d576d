// internal/monitoring/aggregator.go
package monitoring

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"fleetwatch/internal/database"
)

// StatusAggregator merges the three per-component record categories into
// one verdict per component and a fleet-wide summary. Any category may be
// absent (never produced, or expired); absence is data, not an error. For
// a fixed store snapshot the output is a pure function of that snapshot.
type StatusAggregator struct {
	store     database.Store
	heartbeat *HeartbeatEvaluator
	now       func() time.Time
}

func NewStatusAggregator(store database.Store, heartbeat *HeartbeatEvaluator) *StatusAggregator {
	return &StatusAggregator{
		store:     store,
		heartbeat: heartbeat,
		now:       time.Now,
	}
}

// ComponentStatus builds the aggregate view for one component. It returns
// ErrNotFound only when the id is entirely unknown to the store.
func (a *StatusAggregator) ComponentStatus(ctx context.Context, componentID string) (*database.ComponentStatus, error) {
	st := a.buildStatus(ctx, componentID)
	if st.Heartbeat == nil && st.Files == nil && st.Level == nil {
		return nil, database.ErrNotFound
	}
	return st, nil
}

// FleetStatus aggregates every component known to any record category and
// tallies per-class counts.
func (a *StatusAggregator) FleetStatus(ctx context.Context) (*database.FleetStatus, error) {
	ids, err := a.store.ComponentIDs(ctx)
	if err != nil {
		return nil, err
	}

	fleet := &database.FleetStatus{
		Components: make([]database.ComponentStatus, 0, len(ids)),
		QueriedAt:  a.now(),
	}

	for _, id := range ids {
		st := a.buildStatus(ctx, id)
		fleet.Components = append(fleet.Components, *st)

		switch st.Overall {
		case database.HealthHealthy:
			fleet.Counts.Healthy++
		case database.HealthWarning:
			fleet.Counts.Warning++
		case database.HealthCritical:
			fleet.Counts.Critical++
		case database.HealthOffline:
			fleet.Counts.Offline++
		default:
			fleet.Counts.Unknown++
		}
	}

	fleet.TotalCount = len(fleet.Components)
	return fleet, nil
}

func (a *StatusAggregator) buildStatus(ctx context.Context, componentID string) *database.ComponentStatus {
	st := &database.ComponentStatus{ComponentID: componentID}

	// Each category is read independently; a read failure degrades that
	// category to absent rather than failing the whole component.
	if hb, err := a.store.GetHeartbeat(ctx, componentID); err == nil {
		st.Heartbeat = hb
	} else if !errors.Is(err, database.ErrNotFound) {
		logrus.WithError(err).WithField("component", componentID).Warn("Heartbeat read failed during aggregation")
	}

	if files, err := a.store.GetFileRecord(ctx, componentID); err == nil {
		st.Files = files
	} else if !errors.Is(err, database.ErrNotFound) {
		logrus.WithError(err).WithField("component", componentID).Warn("File record read failed during aggregation")
	}

	if level, err := a.store.GetLevelRecord(ctx, componentID); err == nil {
		st.Level = level
	} else if !errors.Is(err, database.ErrNotFound) {
		logrus.WithError(err).WithField("component", componentID).Warn("Level record read failed during aggregation")
	}

	st.HeartbeatHealth = a.heartbeat.Classify(st.Heartbeat)
	st.Overall = overall(st)
	return st
}

// overall applies worst-of precedence: a missing or dead heartbeat is
// critical outright; failing file or level verdicts degrade to warning;
// a healthy heartbeat with no file and no level data at all is unknown,
// which is deliberately distinct from healthy.
func overall(st *database.ComponentStatus) database.HealthClass {
	hb := st.HeartbeatHealth

	switch {
	case st.Heartbeat == nil, hb == database.HealthOffline, hb == database.HealthCritical:
		return database.HealthCritical
	case st.Files != nil && !st.Files.OverallOK:
		return database.HealthWarning
	case st.Level != nil && !st.Level.Compliant:
		return database.HealthWarning
	case hb == database.HealthWarning:
		return database.HealthWarning
	case st.Files == nil && st.Level == nil:
		return database.HealthUnknown
	default:
		return database.HealthHealthy
	}
}
