package schedule

import (
	"testing"
	"time"
)

func TestLastDueBefore(t *testing.T) {
	everyFive := "*/5 * * * *"

	cases := []struct {
		name string
		ref  time.Time
		want time.Time
	}{
		{
			name: "exactly on a trigger instant",
			ref:  time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC),
			want: time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "between triggers",
			ref:  time.Date(2025, 3, 10, 10, 32, 12, 0, time.UTC),
			want: time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LastDueBefore(everyFive, tc.ref)
			if err != nil {
				t.Fatalf("LastDueBefore: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("LastDueBefore = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNextDueAfter(t *testing.T) {
	ref := time.Date(2025, 3, 10, 10, 31, 0, 0, time.UTC)
	got, err := NextDueAfter("*/5 * * * *", ref)
	if err != nil {
		t.Fatalf("NextDueAfter: %v", err)
	}
	want := time.Date(2025, 3, 10, 10, 35, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextDueAfter = %v, want %v", got, want)
	}
}

func TestInvalidExpr(t *testing.T) {
	if ValidExpr("not a cron") {
		t.Error("ValidExpr accepted garbage")
	}
	if ValidExpr("") {
		t.Error("ValidExpr accepted empty expression")
	}
	if !ValidExpr("*/5 * * * *") {
		t.Error("ValidExpr rejected a valid expression")
	}

	if _, err := LastDueBefore("not a cron", time.Now()); err == nil {
		t.Error("LastDueBefore accepted garbage expression")
	}
	if _, err := NextDueAfter("not a cron", time.Now()); err == nil {
		t.Error("NextDueAfter accepted garbage expression")
	}
}
