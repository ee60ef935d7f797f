package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScheduleEntry is a programming block. Recurring entries repeat every
// Weekday; one-off entries happen once on Date (only year, month and day are
// meaningful).
type ScheduleEntry struct {
	ID       string
	Name     string
	Host     string
	Color    string
	Weekday  time.Weekday
	Date     time.Time
	OneOff   bool
	Start    time.Duration
	Duration time.Duration
}

type ShowInstance struct {
	EntryID    string `json:"entry_id"`
	Name       string `json:"name"`
	Host       string `json:"host"`
	Color      string `json:"color,omitempty"`
	OneOff     bool   `json:"one_off"`
	Start      int64  `json:"start"`
	End        int64  `json:"end"`
	StartLocal string `json:"start_local"`
	EndLocal   string `json:"end_local"`
}

type CrashEvent struct {
	Timestamp int64   `json:"timestamp"`
	Before    float64 `json:"before"`
	After     float64 `json:"after"`
	ElapsedMs int64   `json:"elapsed_ms"`
}

var ErrInvalidClock = errors.New("invalid clock time, expected HH:MM")

// ParseClock converts a "HH:MM" wall clock time into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}
