package dates

import (
	"testing"
	"time"
)

func TestDayFloor(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2024, 3, 15, 23, 45, 12, 999, loc)

	floored := DayFloor(ts)
	if floored.Hour() != 0 || floored.Minute() != 0 || floored.Second() != 0 {
		t.Errorf("expected midnight, got %v", floored)
	}
	if floored.Day() != 15 {
		t.Errorf("expected day 15, got %d", floored.Day())
	}
}

func TestDaysBetween(t *testing.T) {
	testCases := []struct {
		name     string
		from     time.Time
		to       time.Time
		expected int
	}{
		{
			name:     "same day different times",
			from:     time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC),
			to:       time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC),
			expected: 0,
		},
		{
			name:     "one day apart",
			from:     time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC),
			to:       time.Date(2024, 3, 16, 1, 0, 0, 0, time.UTC),
			expected: 1,
		},
		{
			name:     "a week apart",
			from:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			to:       time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC),
			expected: 7,
		},
		{
			name:     "negative when to is earlier",
			from:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			to:       time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
			expected: -3,
		},
		{
			name:     "across month boundary",
			from:     time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
			to:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			expected: 2, // 2024 is a leap year
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysBetween(tc.from, tc.to); got != tc.expected {
				t.Errorf("expected %d days, got %d", tc.expected, got)
			}
		})
	}
}

func TestOnOrBefore(t *testing.T) {
	day := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	if !OnOrBefore(day, day.Add(2*time.Hour)) {
		t.Error("expected same day to count as on-or-before")
	}
	if !OnOrBefore(day, day.AddDate(0, 0, 1)) {
		t.Error("expected earlier day to count as on-or-before")
	}
	if OnOrBefore(day, day.AddDate(0, 0, -1)) {
		t.Error("expected later day not to count as on-or-before")
	}
}

func TestAddDays(t *testing.T) {
	start := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)
	got := AddDays(start, 3)
	want := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
