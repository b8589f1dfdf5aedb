package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Monday 2026-03-02 is a weekday; 2026-03-07/08 are Sat/Sun.
func weekdayAt(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.Local)
}

func TestStatusStates(t *testing.T) {
	d := NewDetector(DefaultSessionConfig())

	tests := []struct {
		name      string
		at        time.Time
		wantState State
		wantOpen  bool
	}{
		{"saturday", time.Date(2026, 3, 7, 10, 0, 0, 0, time.Local), StateClosed, false},
		{"sunday", time.Date(2026, 3, 8, 14, 0, 0, 0, time.Local), StateClosed, false},
		{"early morning", weekdayAt(8, 0), StatePreMarket, false},
		{"just before open", weekdayAt(9, 29), StatePreMarket, false},
		{"morning open boundary", weekdayAt(9, 30), StateOpen, true},
		{"mid morning", weekdayAt(10, 15), StateOpen, true},
		{"morning close boundary", weekdayAt(11, 30), StateOpen, true},
		{"lunch start", weekdayAt(11, 31), StateLunchBreak, false},
		{"mid lunch", weekdayAt(12, 30), StateLunchBreak, false},
		{"just before afternoon", weekdayAt(12, 59), StateLunchBreak, false},
		{"afternoon open boundary", weekdayAt(13, 0), StateOpen, true},
		{"mid afternoon", weekdayAt(14, 30), StateOpen, true},
		{"afternoon close boundary", weekdayAt(15, 0), StateOpen, true},
		{"after close", weekdayAt(15, 1), StateAfterHours, false},
		{"evening", weekdayAt(20, 0), StateAfterHours, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Status(tt.at)
			assert.Equal(t, tt.wantState, got.State)
			assert.Equal(t, tt.wantOpen, got.IsOpen)
			assert.Equal(t, tt.at, got.CheckedAt)
		})
	}
}

func TestClosingEdgeEndsAfterZeroSecond(t *testing.T) {
	d := NewDetector(DefaultSessionConfig())

	tests := []struct {
		name      string
		at        time.Time
		wantState State
		wantOpen  bool
	}{
		{"morning close exact", time.Date(2026, 3, 2, 11, 30, 0, 0, time.Local), StateOpen, true},
		{"one second past morning close", time.Date(2026, 3, 2, 11, 30, 1, 0, time.Local), StateLunchBreak, false},
		{"last second before open", time.Date(2026, 3, 2, 9, 29, 59, 0, time.Local), StatePreMarket, false},
		{"afternoon close exact", time.Date(2026, 3, 2, 15, 0, 0, 0, time.Local), StateOpen, true},
		{"one second past afternoon close", time.Date(2026, 3, 2, 15, 0, 1, 0, time.Local), StateAfterHours, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Status(tt.at)
			assert.Equal(t, tt.wantState, got.State)
			assert.Equal(t, tt.wantOpen, got.IsOpen)
		})
	}
}

func TestOpenOnlyDuringSessions(t *testing.T) {
	d := NewDetector(DefaultSessionConfig())

	// Sweep a whole week minute by minute: open iff weekday and inside
	// [09:30,11:30] or [13:00,15:00].
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local) // Monday
	for i := 0; i < 7*24*60; i++ {
		at := start.Add(time.Duration(i) * time.Minute)
		minutes := at.Hour()*60 + at.Minute()
		weekday := at.Weekday() != time.Saturday && at.Weekday() != time.Sunday
		inSession := (minutes >= 9*60+30 && minutes <= 11*60+30) ||
			(minutes >= 13*60 && minutes <= 15*60)

		want := weekday && inSession
		if got := d.IsTradingTime(at); got != want {
			t.Fatalf("IsTradingTime(%s) = %v, want %v", at, got, want)
		}
	}
}

func TestStatusMessages(t *testing.T) {
	d := NewDetector(DefaultSessionConfig())

	assert.Equal(t, "morning session", d.Status(weekdayAt(10, 0)).Message)
	assert.Equal(t, "afternoon session", d.Status(weekdayAt(14, 0)).Message)
}
