// internal/monitoring/level.go
package monitoring

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"fleetwatch/internal/config"
	"fleetwatch/internal/database"
	"fleetwatch/internal/schedule"
)

// UnreportedLevel is the observed level recorded when a component has no
// live heartbeat or no declared level. It sits outside the valid [1,4]
// range so it can never spuriously equal an expected level.
const UnreportedLevel = 0

// ObserveLevelFunc decides which capability level the engine trusts,
// given the level the component declared (nil when unreported). The
// default mirrors the declaration; a real independent measurement can be
// swapped in without touching the evaluator's control flow.
type ObserveLevelFunc func(declared *int) int

// MirrorDeclared is the default observation strategy.
func MirrorDeclared(declared *int) int {
	if declared != nil {
		return *declared
	}
	return UnreportedLevel
}

// LevelComplianceEvaluator compares, once per tick, the capability level
// each component should be running at against the level it is observed
// at, and persists a verdict per component.
type LevelComplianceEvaluator struct {
	store      database.Store
	components []config.ComponentConfig
	observe    ObserveLevelFunc
	now        func() time.Time
}

func NewLevelComplianceEvaluator(store database.Store, components []config.ComponentConfig) *LevelComplianceEvaluator {
	return &LevelComplianceEvaluator{
		store:      store,
		components: components,
		observe:    MirrorDeclared,
		now:        time.Now,
	}
}

// Tick evaluates every component with a level schedule. A failure for one
// component never affects another's evaluation.
func (e *LevelComplianceEvaluator) Tick(ctx context.Context) {
	now := e.now()
	checked := 0

	for _, comp := range e.components {
		if !comp.LevelSchedule.Enabled() {
			continue
		}

		rec := e.Evaluate(ctx, comp, now)
		if err := e.store.PutLevelRecord(ctx, rec); err != nil {
			logrus.WithError(err).WithField("component", comp.ID).Error("Failed to store level record")
			continue
		}
		checked++
	}

	logrus.WithField("components", checked).Debug("Level compliance tick completed")
}

// Evaluate produces one component's level verdict for now.
func (e *LevelComplianceEvaluator) Evaluate(ctx context.Context, comp config.ComponentConfig, now time.Time) *database.LevelComplianceRecord {
	expected := comp.LevelSchedule.FallbackLevel
	var ruleName *string
	if rule, ok := schedule.Match(comp.LevelSchedule.Compiled, now); ok {
		expected = rule.Level
		if rule.Name != "" {
			name := rule.Name
			ruleName = &name
		}
	}

	var declared *int
	hb, err := e.store.GetHeartbeat(ctx, comp.ID)
	if err == nil {
		declared = hb.DeclaredLevel
	} else if !errors.Is(err, database.ErrNotFound) {
		logrus.WithError(err).WithField("component", comp.ID).Warn("Heartbeat lookup failed, treating level as unreported")
	}

	observed := e.observe(declared)

	return &database.LevelComplianceRecord{
		ComponentID:     comp.ID,
		ExpectedLevel:   expected,
		ObservedLevel:   observed,
		DeclaredLevel:   declared,
		Compliant:       observed == expected,
		MatchedRuleName: ruleName,
		CheckedAt:       now,
	}
}
