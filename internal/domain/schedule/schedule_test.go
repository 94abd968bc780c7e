package schedule

import (
	"testing"
	"time"

	"github.com/medminder/go-mas/internal/domain/medicine"
)

func TestSlotsForCanonicalTable(t *testing.T) {
	cases := []struct {
		timesPerDay int
		want        []string
	}{
		{1, []string{"08:00"}},
		{2, []string{"08:00", "20:00"}},
		{3, []string{"08:00", "14:00", "20:00"}},
		{4, []string{"06:00", "12:00", "18:00", "22:00"}},
	}

	for _, tc := range cases {
		slots := SlotsFor(tc.timesPerDay)
		if len(slots) != len(tc.want) {
			t.Fatalf("SlotsFor(%d): got %d slots, want %d", tc.timesPerDay, len(slots), len(tc.want))
		}
		for i, want := range tc.want {
			if slots[i].Time != want {
				t.Errorf("SlotsFor(%d)[%d] = %s, want %s", tc.timesPerDay, i, slots[i].Time, want)
			}
		}
	}
}

func TestSlotsForFallback(t *testing.T) {
	for _, timesPerDay := range []int{0, 5, -1, 100} {
		slots := SlotsFor(timesPerDay)
		if len(slots) != 1 {
			t.Fatalf("SlotsFor(%d): got %d slots, want 1-slot fallback", timesPerDay, len(slots))
		}
		if slots[0].Time != "08:00" {
			t.Errorf("SlotsFor(%d) fallback slot = %s, want 08:00", timesPerDay, slots[0].Time)
		}
	}
}

func TestSlotsForAscending(t *testing.T) {
	slots := SlotsFor(2)
	if len(slots) != 2 {
		t.Fatalf("got %d slots, want 2", len(slots))
	}
	if slots[0].Time >= slots[1].Time {
		t.Errorf("slots not ascending: %s before %s", slots[0].Time, slots[1].Time)
	}
}

func TestSlotsForReturnsCopy(t *testing.T) {
	slots := SlotsFor(1)
	slots[0].Time = "23:59"
	if again := SlotsFor(1); again[0].Time != "08:00" {
		t.Error("SlotsFor result aliases the canonical table")
	}
}

func TestEndDateFor(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		duration *medicine.Duration
		want     *time.Time
	}{
		{"nil duration", nil, nil},
		{"zero value", &medicine.Duration{Value: 0, Unit: "days"}, nil},
		{"days", &medicine.Duration{Value: 10, Unit: "days"}, timePtr(now.AddDate(0, 0, 10))},
		{"weeks", &medicine.Duration{Value: 2, Unit: "weeks"}, timePtr(now.AddDate(0, 0, 14))},
		{"months", &medicine.Duration{Value: 1, Unit: "months"}, timePtr(now.AddDate(0, 1, 0))},
		{"unknown unit defaults to a week", &medicine.Duration{Value: 3, Unit: "fortnights"}, timePtr(now.AddDate(0, 0, 7))},
	}

	for _, tc := range cases {
		got := EndDateFor(tc.duration, now)
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("%s: got %v, want nil", tc.name, got)
		case tc.want != nil && got == nil:
			t.Errorf("%s: got nil, want %v", tc.name, tc.want)
		case tc.want != nil && !got.Equal(*tc.want):
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func timePtr(t time.Time) *time.Time { return &t }
