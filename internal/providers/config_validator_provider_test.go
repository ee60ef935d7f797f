package providers

import (
	"listenerd/internal/structures"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *structures.Config {
	conf := &structures.Config{
		WebServer: structures.Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Persistence: structures.Persistence{
			FilePath:     "/tmp/listenerd.dat",
			SaveInterval: 30 * time.Second,
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/tmp/logs",
		},
		Collector: structures.CollectorConfig{
			Interval: time.Minute,
		},
		Endpoints: []structures.Endpoint{
			{ID: "main", URL: "http://radio.example.com:8000"},
		},
		Entities: []structures.Entity{
			{ID: "t1", Label: "Tower 1", Endpoint: "main", Mount: "/tower1", IncludeInTotals: true, IncludeInHistory: true},
			{ID: "test", Label: "Test", Endpoint: "main", Mount: "/test"},
		},
		Archive: structures.ArchiveConfig{
			Dir: "/tmp/archive",
		},
		Schedule: structures.ScheduleConfig{
			Timezone: "America/New_York",
			Recurring: []structures.ScheduleEntryConfig{
				{ID: "morning", Name: "Morning Show", DayOfWeek: 1, Start: "08:00", Duration: 120},
			},
			OneOff: []structures.ScheduleEntryConfig{
				{ID: "special", Name: "Special", Date: "2024-05-04", Start: "20:30", Duration: 60},
			},
		},
	}
	conf.ApplyDefaults()
	return conf
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_EmptyHost(t *testing.T) {
	c := validConfig()
	c.WebServer.Host = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_ZeroPort(t *testing.T) {
	c := validConfig()
	c.WebServer.Port = 0
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_EmptyLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_InvalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_UnknownEndpoint(t *testing.T) {
	c := validConfig()
	c.Entities[0].Endpoint = "backup"
	err := NewCnfValidator(c).Validate()
	assert.ErrorContains(t, err, "unknown endpoint")
}

func TestConfigValidator_DuplicateEntityID(t *testing.T) {
	c := validConfig()
	c.Entities[1].ID = "t1"
	assert.ErrorContains(t, NewCnfValidator(c).Validate(), "duplicate id")
}

func TestConfigValidator_ReservedLabel(t *testing.T) {
	c := validConfig()
	c.Entities[0].Label = "Total"
	assert.ErrorContains(t, NewCnfValidator(c).Validate(), "reserved")
}

func TestConfigValidator_NoEntities(t *testing.T) {
	c := validConfig()
	c.Entities = nil
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_CrashThresholdsInverted(t *testing.T) {
	c := validConfig()
	c.Events.Crash.Low = 500
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_BadSchedule(t *testing.T) {
	c := validConfig()
	c.Schedule.Recurring[0].Start = "25:00"
	assert.Error(t, NewCnfValidator(c).Validate())

	c = validConfig()
	c.Schedule.Recurring[0].DayOfWeek = 7
	assert.Error(t, NewCnfValidator(c).Validate())

	c = validConfig()
	c.Schedule.OneOff[0].Date = "04/05/2024"
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_UnknownTimezone(t *testing.T) {
	c := validConfig()
	c.Schedule.Timezone = "Mars/Olympus"
	assert.Error(t, NewCnfValidator(c).Validate())
}
