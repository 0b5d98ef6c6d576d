package schedule

import (
	"testing"
	"time"
)

func mustClock(t *testing.T, s string) Clock {
	t.Helper()
	c, err := ParseClock(s)
	if err != nil {
		t.Fatalf("ParseClock(%q): %v", s, err)
	}
	return c
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "09:15", want: 9*60 + 15},
		{in: "00:00", want: 0},
		{in: "23:59", want: 23*60 + 59},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClock(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestInRange(t *testing.T) {
	cases := []struct {
		name              string
		check, start, end string
		want              bool
	}{
		{name: "inside same-day window", check: "10:00", start: "09:00", end: "11:00", want: true},
		{name: "at window start", check: "09:00", start: "09:00", end: "11:00", want: true},
		{name: "at window end", check: "11:00", start: "09:00", end: "11:00", want: true},
		{name: "before same-day window", check: "08:59", start: "09:00", end: "11:00", want: false},
		{name: "after same-day window", check: "11:01", start: "09:00", end: "11:00", want: false},
		{name: "overnight before midnight", check: "23:30", start: "22:00", end: "06:00", want: true},
		{name: "overnight after midnight", check: "03:00", start: "22:00", end: "06:00", want: true},
		{name: "outside overnight window", check: "12:00", start: "22:00", end: "06:00", want: false},
		{name: "overnight at start", check: "22:00", start: "22:00", end: "06:00", want: true},
		{name: "overnight at end", check: "06:00", start: "22:00", end: "06:00", want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := InRange(mustClock(t, tc.check), mustClock(t, tc.start), mustClock(t, tc.end))
			if got != tc.want {
				t.Errorf("InRange(%s, %s, %s) = %v, want %v", tc.check, tc.start, tc.end, got, tc.want)
			}
		})
	}
}

func TestMatchFirstRuleWins(t *testing.T) {
	rules := []Rule{
		{Name: "morning_session", Start: mustClock(t, "09:15"), End: mustClock(t, "11:30"), Level: 4},
		{Name: "overlapping", Start: mustClock(t, "09:00"), End: mustClock(t, "12:00"), Level: 2},
	}
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	// Overlap resolution must be deterministic across repeated evaluations.
	for i := 0; i < 5; i++ {
		rule, ok := Match(rules, now)
		if !ok {
			t.Fatal("Match returned no rule")
		}
		if rule.Name != "morning_session" || rule.Level != 4 {
			t.Fatalf("Match picked %q (level %d), want first declared rule", rule.Name, rule.Level)
		}
	}
}

func TestMatchNoRule(t *testing.T) {
	rules := []Rule{
		{Name: "day", Start: mustClock(t, "09:00"), End: mustClock(t, "17:00"), Level: 3},
	}
	now := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)

	if rule, ok := Match(rules, now); ok {
		t.Fatalf("Match = %+v, want no match", rule)
	}
}

func TestMatchOvernightRule(t *testing.T) {
	rules := []Rule{
		{Name: "night_batch", Start: mustClock(t, "22:00"), End: mustClock(t, "06:00"), Level: 2},
	}

	inside := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
	if _, ok := Match(rules, inside); !ok {
		t.Error("23:30 should match the 22:00-06:00 window")
	}

	outside := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	if _, ok := Match(rules, outside); ok {
		t.Error("12:00 should not match the 22:00-06:00 window")
	}
}
