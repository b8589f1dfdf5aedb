// Package market detects the A-share trading session for a point in time.
package market

import (
	"time"
)

// State is one of the five session states.
type State string

const (
	StateOpen       State = "open"
	StateClosed     State = "closed"
	StatePreMarket  State = "pre_market"
	StateLunchBreak State = "lunch_break"
	StateAfterHours State = "after_hours"
)

// Status describes the market at a point in time.
type Status struct {
	IsOpen    bool      `json:"is_open"`
	State     State     `json:"state"`
	Message   string    `json:"message"`
	CheckedAt time.Time `json:"checked_at"`
}

// SessionConfig holds the trading windows as minutes since midnight.
// Session edges are inclusive: the closing minute counts only at its
// zero second, so 11:30:00 is open and 11:30:01 is not.
type SessionConfig struct {
	MorningOpen    int
	MorningClose   int
	AfternoonOpen  int
	AfternoonClose int
}

// DefaultSessionConfig returns the A-share sessions: 09:30-11:30 and
// 13:00-15:00.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MorningOpen:    9*60 + 30,
		MorningClose:   11*60 + 30,
		AfternoonOpen:  13 * 60,
		AfternoonClose: 15 * 60,
	}
}

// Detector maps a timestamp to a session state. It has no hidden state and
// is safe for concurrent use.
type Detector struct {
	cfg SessionConfig
}

// NewDetector creates a detector for the given session windows.
func NewDetector(cfg SessionConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Status evaluates the session state for t. Weekends are closed; weekday
// states are pre_market, open (either session, edges inclusive),
// lunch_break and after_hours.
func (d *Detector) Status(t time.Time) Status {
	weekday := t.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return Status{
			IsOpen:    false,
			State:     StateClosed,
			Message:   "market closed for the weekend",
			CheckedAt: t,
		}
	}

	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()

	switch {
	case secs < d.cfg.MorningOpen*60:
		return Status{
			IsOpen:    false,
			State:     StatePreMarket,
			Message:   "pre-market, waiting for the open",
			CheckedAt: t,
		}
	case secs <= d.cfg.MorningClose*60:
		return Status{
			IsOpen:    true,
			State:     StateOpen,
			Message:   "morning session",
			CheckedAt: t,
		}
	case secs < d.cfg.AfternoonOpen*60:
		return Status{
			IsOpen:    false,
			State:     StateLunchBreak,
			Message:   "lunch break",
			CheckedAt: t,
		}
	case secs <= d.cfg.AfternoonClose*60:
		return Status{
			IsOpen:    true,
			State:     StateOpen,
			Message:   "afternoon session",
			CheckedAt: t,
		}
	default:
		return Status{
			IsOpen:    false,
			State:     StateAfterHours,
			Message:   "market closed for the day",
			CheckedAt: t,
		}
	}
}

// IsTradingTime reports whether t falls inside a trading session.
func (d *Detector) IsTradingTime(t time.Time) bool {
	return d.Status(t).IsOpen
}
