// internal/monitoring/files.go
package monitoring

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"fleetwatch/internal/config"
	"fleetwatch/internal/database"
	"fleetwatch/internal/schedule"
)

// FileFreshnessEvaluator checks, once per tick, whether every declared
// file of every component was updated inside its allowed window. Each
// component's record is rewritten wholesale; failures stay local to the
// single file or component they concern.
type FileFreshnessEvaluator struct {
	store      database.Store
	components []config.ComponentConfig
	now        func() time.Time
}

func NewFileFreshnessEvaluator(store database.Store, components []config.ComponentConfig) *FileFreshnessEvaluator {
	return &FileFreshnessEvaluator{
		store:      store,
		components: components,
		now:        time.Now,
	}
}

// Tick runs one full evaluation pass. It always completes: a component
// whose record cannot be stored is logged and skipped, never aborting the
// remaining components.
func (e *FileFreshnessEvaluator) Tick(ctx context.Context) {
	now := e.now()
	checked := 0

	for _, comp := range e.components {
		if len(comp.Files) == 0 {
			continue
		}

		rec := e.CheckComponent(comp, now)
		if err := e.store.PutFileRecord(ctx, rec); err != nil {
			logrus.WithError(err).WithField("component", comp.ID).Error("Failed to store file record")
			continue
		}
		checked++
	}

	logrus.WithField("components", checked).Debug("File freshness tick completed")
}

// CheckComponent evaluates all of one component's files against now.
func (e *FileFreshnessEvaluator) CheckComponent(comp config.ComponentConfig, now time.Time) *database.FileMonitorRecord {
	results := make([]database.FileCheckResult, 0, len(comp.Files))
	overall := true

	for _, spec := range comp.Files {
		res := checkFile(spec, now)
		if !res.IsCompliant {
			overall = false
		}
		results = append(results, res)
	}

	return &database.FileMonitorRecord{
		ComponentID: comp.ID,
		Results:     results,
		OverallOK:   overall,
		CheckedAt:   now,
	}
}

func checkFile(spec config.FileSpec, now time.Time) database.FileCheckResult {
	res := database.FileCheckResult{
		Path:               spec.Path,
		Role:               spec.Role,
		ExpectedUpdateRule: spec.ExpectedUpdateRule,
	}

	lastDue, err := schedule.LastDueBefore(spec.ExpectedUpdateRule, now)
	if err != nil {
		// Config validation keeps bad expressions out, but a config file
		// edited underneath a running process must not crash the tick.
		msg := fmt.Sprintf("invalid update rule: %v", err)
		res.Alert = &msg
		return res
	}

	// Same expression, so this cannot fail once LastDueBefore succeeded.
	res.NextExpectedUpdate, _ = schedule.NextDueAfter(spec.ExpectedUpdateRule, now)

	info, err := os.Stat(spec.Path)
	if err != nil {
		var msg string
		if os.IsNotExist(err) {
			msg = "file missing"
		} else {
			msg = fmt.Sprintf("cannot access file: %v", err)
		}
		res.Alert = &msg
		return res
	}

	mtime := info.ModTime()
	res.LastModified = &mtime
	res.FileSize = info.Size()

	// Compliant iff mtime >= lastDue - grace. A file refreshed slightly
	// early (upstream batch finishing ahead of schedule) must not be
	// flagged; the same inequality deliberately accepts mtimes in the
	// future (clock skew, restored backups).
	deadline := lastDue.Add(-spec.Grace())
	res.IsCompliant = !mtime.Before(deadline)

	if !res.IsCompliant {
		overdue := now.Sub(lastDue).Round(time.Second)
		msg := fmt.Sprintf("stale for %s: last modified %s, update due by %s",
			overdue, mtime.Format(time.RFC3339), lastDue.Format(time.RFC3339))
		res.Alert = &msg
	}

	return res
}
