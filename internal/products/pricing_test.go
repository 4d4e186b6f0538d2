package products

import (
	"testing"
	"time"
)

func TestEffectivePriceCents(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)
	pct := func(v int) *int { return &v }

	cases := []struct {
		name     string
		original int
		percent  *int
		startsAt *time.Time
		endsAt   *time.Time
		want     int
	}{
		{name: "no discount", original: 1000, want: 1000},
		{name: "active window", original: 1000, percent: pct(25), startsAt: &past, endsAt: &future, want: 750},
		{name: "open ended", original: 1999, percent: pct(10), want: 1799},
		{name: "not started", original: 1000, percent: pct(50), startsAt: &future, want: 1000},
		{name: "expired", original: 1000, percent: pct(50), endsAt: &past, want: 1000},
		{name: "full discount", original: 1000, percent: pct(100), want: 0},
		{name: "rounds to nearest cent", original: 999, percent: pct(33), want: 669},
		{name: "zero percent ignored", original: 500, percent: pct(0), want: 500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EffectivePriceCents(tc.original, tc.percent, tc.startsAt, tc.endsAt, now)
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
