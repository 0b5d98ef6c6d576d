// internal/schedule/window.go
package schedule

import (
	"fmt"
	"time"
)

// Clock is a time-of-day expressed as minutes since midnight.
type Clock int

// ParseClock parses an "HH:MM" string into a Clock.
func ParseClock(s string) (Clock, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid clock %q: out of range", s)
	}
	return Clock(hour*60 + minute), nil
}

// ClockOf extracts the Clock for the wall time of t.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// InRange reports whether check falls inside [start, end], both ends
// inclusive. A start later than end means the window crosses midnight
// (e.g. 22:00-06:00) and matches check >= start or check <= end. Callers
// never special-case overnight windows themselves.
func InRange(check, start, end Clock) bool {
	if start <= end {
		return start <= check && check <= end
	}
	return check >= start || check <= end
}

// Rule is one expected-level window, compiled from configuration.
type Rule struct {
	Name  string
	Start Clock
	End   Clock
	Level int
}

// Match returns the first rule, in declaration order, whose window
// contains now's time of day. Overlapping rules are resolved by that
// first-match priority alone. The second return is false when no rule
// matches; the caller supplies its own fallback level.
func Match(rules []Rule, now time.Time) (*Rule, bool) {
	check := ClockOf(now)
	for i := range rules {
		if InRange(check, rules[i].Start, rules[i].End) {
			return &rules[i], true
		}
	}
	return nil, false
}
