package events

import (
	"fmt"
	"listenerd/internal/models"
	"listenerd/internal/structures"
	"sort"
	"time"
)

const localLayout = "2006-01-02 15:04 MST"

// Schedule is the static programming grid, resolved once from config.
type Schedule struct {
	location *time.Location
	display  *time.Location
	entries  []models.ScheduleEntry
}

func NewSchedule(conf *structures.Config) (*Schedule, error) {
	sc := &conf.Schedule
	loc, err := time.LoadLocation(sc.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule timezone: %w", err)
	}
	display, err := time.LoadLocation(sc.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("schedule display timezone: %w", err)
	}

	s := &Schedule{
		location: loc,
		display:  display,
		entries:  make([]models.ScheduleEntry, 0, len(sc.Recurring)+len(sc.OneOff)),
	}
	for _, e := range sc.Recurring {
		entry, err := newEntry(e)
		if err != nil {
			return nil, err
		}
		if e.DayOfWeek < 0 || e.DayOfWeek > 6 {
			return nil, fmt.Errorf("schedule entry %q: dayOfWeek %d out of range", e.ID, e.DayOfWeek)
		}
		entry.Weekday = time.Weekday(e.DayOfWeek)
		s.entries = append(s.entries, entry)
	}
	for _, e := range sc.OneOff {
		entry, err := newEntry(e)
		if err != nil {
			return nil, err
		}
		date, err := time.ParseInLocation(time.DateOnly, e.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("schedule entry %q: date: %w", e.ID, err)
		}
		entry.OneOff = true
		entry.Date = date
		s.entries = append(s.entries, entry)
	}
	return s, nil
}

func newEntry(e structures.ScheduleEntryConfig) (models.ScheduleEntry, error) {
	start, err := models.ParseClock(e.Start)
	if err != nil {
		return models.ScheduleEntry{}, fmt.Errorf("schedule entry %q: %w", e.ID, err)
	}
	return models.ScheduleEntry{
		ID:       e.ID,
		Name:     e.Name,
		Host:     e.Host,
		Color:    e.Color,
		Start:    start,
		Duration: time.Duration(e.Duration) * time.Minute,
	}, nil
}

func (s *Schedule) Location() *time.Location { return s.location }

func (s *Schedule) DisplayLocation() *time.Location { return s.display }

func (s *Schedule) Entries() []models.ScheduleEntry { return s.entries }

// Overlapping materializes every show that overlaps [start, end], both ends
// inclusive. Days are walked in the reference zone from the day containing
// start through the day containing end; a show is attributed to the day it
// starts on, so one that began before that first day is not reported. One-off
// entries are evaluated independently of recurring ones and never replace
// them. A nil display zone uses the configured one; it only affects the
// formatted local times. The result is ordered by start time, then entry id.
func (s *Schedule) Overlapping(start, end time.Time, display *time.Location) []models.ShowInstance {
	if display == nil {
		display = s.display
	}
	shows := make([]models.ShowInstance, 0)
	if end.Before(start) {
		return shows
	}

	first := start.In(s.location)
	day := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, s.location)
	last := end.In(s.location)
	lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, s.location)

	for !day.After(lastDay) {
		for _, entry := range s.entries {
			if !occursOn(entry, day) {
				continue
			}
			showStart := atClock(day, entry.Start)
			showEnd := showStart.Add(entry.Duration)
			if showEnd.Before(start) || showStart.After(end) {
				continue
			}
			shows = append(shows, models.ShowInstance{
				EntryID:    entry.ID,
				Name:       entry.Name,
				Host:       entry.Host,
				Color:      entry.Color,
				OneOff:     entry.OneOff,
				Start:      showStart.UnixMilli(),
				End:        showEnd.UnixMilli(),
				StartLocal: showStart.In(display).Format(localLayout),
				EndLocal:   showEnd.In(display).Format(localLayout),
			})
		}
		day = time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, s.location)
	}

	sort.SliceStable(shows, func(i, j int) bool {
		if shows[i].Start != shows[j].Start {
			return shows[i].Start < shows[j].Start
		}
		return shows[i].EntryID < shows[j].EntryID
	})
	return shows
}

func occursOn(entry models.ScheduleEntry, day time.Time) bool {
	if entry.OneOff {
		y, m, d := entry.Date.Date()
		dy, dm, dd := day.Date()
		return y == dy && m == dm && d == dd
	}
	return day.Weekday() == entry.Weekday
}

// atClock places a wall clock offset on day without drifting across DST
// transitions.
func atClock(day time.Time, offset time.Duration) time.Time {
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}
