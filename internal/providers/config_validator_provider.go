package providers

import (
	"errors"
	"fmt"
	"listenerd/internal/models"
	"listenerd/internal/structures"
	"time"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

// Validate runs the struct tag rules first, then checks the references
// between endpoints, entities and the schedule.
func (cv *CnfValidator) Validate() error {
	if err := validateStruct(cv.conf); err != nil {
		return err
	}
	if len(cv.conf.Endpoints) == 0 {
		return errors.New("config: at least one endpoint is required")
	}
	if len(cv.conf.Entities) == 0 {
		return errors.New("config: at least one entity is required")
	}

	endpoints := make(map[string]struct{}, len(cv.conf.Endpoints))
	for i := range cv.conf.Endpoints {
		ep := &cv.conf.Endpoints[i]
		if err := validateStruct(ep); err != nil {
			return fmt.Errorf("endpoint #%d: %w", i, err)
		}
		if _, dup := endpoints[ep.ID]; dup {
			return fmt.Errorf("endpoint %q: duplicate id", ep.ID)
		}
		endpoints[ep.ID] = struct{}{}
	}

	ids := make(map[string]struct{}, len(cv.conf.Entities))
	labels := make(map[string]struct{}, len(cv.conf.Entities))
	for i := range cv.conf.Entities {
		e := &cv.conf.Entities[i]
		if err := validateStruct(e); err != nil {
			return fmt.Errorf("entity #%d: %w", i, err)
		}
		if _, ok := endpoints[e.Endpoint]; !ok {
			return fmt.Errorf("entity %q: unknown endpoint %q", e.ID, e.Endpoint)
		}
		if _, dup := ids[e.ID]; dup {
			return fmt.Errorf("entity %q: duplicate id", e.ID)
		}
		ids[e.ID] = struct{}{}
		if e.Label == models.TotalSeries {
			return fmt.Errorf("entity %q: label %q is reserved", e.ID, models.TotalSeries)
		}
		if _, dup := labels[e.Label]; dup && e.IncludeInHistory {
			return fmt.Errorf("entity %q: duplicate series label %q", e.ID, e.Label)
		}
		if e.IncludeInHistory {
			labels[e.Label] = struct{}{}
		}
	}

	crash := cv.conf.Events.Crash
	if crash.Low < 0 || crash.High < 0 || crash.Low > crash.High {
		return fmt.Errorf("events.crash: low (%v) must be between 0 and high (%v)", crash.Low, crash.High)
	}

	return cv.validateSchedule()
}

func (cv *CnfValidator) validateSchedule() error {
	sc := &cv.conf.Schedule
	if _, err := time.LoadLocation(sc.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if _, err := time.LoadLocation(sc.DisplayTimezone); err != nil {
		return fmt.Errorf("schedule.displayTimezone: %w", err)
	}

	for i := range sc.Recurring {
		entry := &sc.Recurring[i]
		if err := validateStruct(entry); err != nil {
			return fmt.Errorf("schedule.recurring #%d: %w", i, err)
		}
		if entry.DayOfWeek < 0 || entry.DayOfWeek > 6 {
			return fmt.Errorf("schedule entry %q: dayOfWeek must be 0-6", entry.ID)
		}
		if _, err := models.ParseClock(entry.Start); err != nil {
			return fmt.Errorf("schedule entry %q: %w", entry.ID, err)
		}
	}
	for i := range sc.OneOff {
		entry := &sc.OneOff[i]
		if err := validateStruct(entry); err != nil {
			return fmt.Errorf("schedule.oneOff #%d: %w", i, err)
		}
		if _, err := time.Parse(time.DateOnly, entry.Date); err != nil {
			return fmt.Errorf("schedule entry %q: date: %w", entry.ID, err)
		}
		if _, err := models.ParseClock(entry.Start); err != nil {
			return fmt.Errorf("schedule entry %q: %w", entry.ID, err)
		}
	}
	return nil
}

func validateStruct(data interface{}) error {
	v := validate.Struct(data)
	if !v.Validate() {
		return v.Errors
	}
	return nil
}
