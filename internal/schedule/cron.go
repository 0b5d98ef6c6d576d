// internal/schedule/cron.go
package schedule

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

// ValidExpr reports whether expr is a parseable cron expression.
func ValidExpr(expr string) bool {
	return gronx.New().IsValid(expr)
}

// NextDueAfter returns the earliest trigger instant of expr at or after ref.
func NextDueAfter(expr string, ref time.Time) (time.Time, error) {
	t, err := gronx.NextTickAfter(expr, ref, true)
	if err != nil {
		return time.Time{}, fmt.Errorf("next due for %q: %w", expr, err)
	}
	return t, nil
}

// LastDueBefore returns the latest trigger instant of expr at or before ref.
// It answers "when was an update most recently due" for freshness checks.
func LastDueBefore(expr string, ref time.Time) (time.Time, error) {
	t, err := gronx.PrevTickBefore(expr, ref, true)
	if err != nil {
		return time.Time{}, fmt.Errorf("last due for %q: %w", expr, err)
	}
	return t, nil
}
