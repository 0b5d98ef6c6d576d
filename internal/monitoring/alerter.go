// internal/monitoring/alerter.go
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fleetwatch/internal/config"
	"fleetwatch/internal/database"
)

// Alerter tracks overall-status transitions between aggregation passes
// and records an alert event for each one worth telling someone about.
// Delivery is a single webhook POST with no retry.
type Alerter struct {
	store  database.Store
	cfg    config.AlertingConfig
	client *http.Client
	now    func() time.Time

	mu   sync.Mutex
	last map[string]database.HealthClass
}

func NewAlerter(store database.Store, cfg config.AlertingConfig) *Alerter {
	return &Alerter{
		store:  store,
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
		last:   make(map[string]database.HealthClass),
	}
}

// ObserveFleet inspects one fleet snapshot for transitions.
func (a *Alerter) ObserveFleet(ctx context.Context, fleet *database.FleetStatus) {
	for i := range fleet.Components {
		a.observe(ctx, &fleet.Components[i])
	}
}

func (a *Alerter) observe(ctx context.Context, st *database.ComponentStatus) {
	a.mu.Lock()
	prev, seen := a.last[st.ComponentID]
	a.last[st.ComponentID] = st.Overall
	a.mu.Unlock()

	if !seen || prev == st.Overall {
		return
	}

	var message string
	switch {
	case st.Overall == database.HealthCritical || st.Overall == database.HealthWarning:
		message = fmt.Sprintf("component %s degraded from %s to %s", st.ComponentID, prev, st.Overall)
	case st.Overall == database.HealthHealthy && (prev == database.HealthWarning || prev == database.HealthCritical):
		message = fmt.Sprintf("component %s recovered from %s", st.ComponentID, prev)
	default:
		// Transitions through unknown carry no signal.
		return
	}

	ev := &database.AlertEvent{
		ID:          uuid.New().String(),
		ComponentID: st.ComponentID,
		From:        prev,
		To:          st.Overall,
		Message:     message,
		CreatedAt:   a.now(),
	}

	if err := a.store.PutAlert(ctx, ev); err != nil {
		logrus.WithError(err).WithField("component", st.ComponentID).Error("Failed to store alert")
	}

	logrus.WithFields(logrus.Fields{
		"component": st.ComponentID,
		"from":      prev,
		"to":        st.Overall,
	}).Warn(message)

	if a.cfg.Enabled && a.cfg.WebhookURL != "" {
		a.notify(ctx, ev)
	}
}

func (a *Alerter) notify(ctx context.Context, ev *database.AlertEvent) {
	body, err := json.Marshal(ev)
	if err != nil {
		logrus.WithError(err).Error("Failed to encode alert webhook payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		logrus.WithError(err).Error("Failed to build alert webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		logrus.WithError(err).WithField("alert", ev.ID).Error("Alert webhook delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logrus.WithFields(logrus.Fields{
			"alert":  ev.ID,
			"status": resp.StatusCode,
		}).Error("Alert webhook rejected")
	}
}

// SchedulePeriodicPurge drops expired heartbeats and aged-out alerts on
// an interval until ctx is cancelled.
func (a *Alerter) SchedulePeriodicPurge(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logrus.Debug("Stopping periodic purge")
				return
			case now := <-ticker.C:
				purged, err := a.store.PurgeExpired(ctx, now)
				if err != nil {
					logrus.WithError(err).Error("Scheduled purge failed")
					continue
				}
				if purged > 0 {
					logrus.WithField("purged", purged).Debug("Purged expired records")
				}
			}
		}
	}()

	logrus.WithField("interval", interval).Info("Scheduled periodic record purging")
}
