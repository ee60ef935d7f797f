package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
	Compression  string        `yaml:"compression" validate:"in:fastest,default,better,best"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CollectorConfig struct {
	Interval     time.Duration `yaml:"interval" validate:"required|min:1"`
	Timeout      time.Duration `yaml:"timeout"`
	Concurrency  int           `yaml:"concurrency"`
	UserAgent    string        `yaml:"userAgent"`
	HTMLFallback bool          `yaml:"htmlFallback"`
}

// Endpoint is one streaming server exposing a status document.
type Endpoint struct {
	ID         string `yaml:"id" validate:"required"`
	URL        string `yaml:"url" validate:"required|fullUrl"`
	StatusPath string `yaml:"statusPath"`
	HTMLPath   string `yaml:"htmlPath"`
}

// Entity binds a tracked source to one mount of one endpoint.
type Entity struct {
	ID               string `yaml:"id" validate:"required"`
	Label            string `yaml:"label" validate:"required"`
	Endpoint         string `yaml:"endpoint" validate:"required"`
	Mount            string `yaml:"mount" validate:"required"`
	IncludeInTotals  bool   `yaml:"includeInTotals"`
	IncludeInHistory bool   `yaml:"includeInHistory"`
}

type ArchiveConfig struct {
	Dir           string        `yaml:"dir" validate:"required|unixPath"`
	RollingWindow time.Duration `yaml:"rollingWindow"`
	Buckets       bool          `yaml:"buckets"`
	MirrorPath    string        `yaml:"mirrorPath"`
}

type CrashConfig struct {
	High   float64       `yaml:"high"`
	Low    float64       `yaml:"low"`
	Window time.Duration `yaml:"window"`
}

type EventsConfig struct {
	Crash CrashConfig `yaml:"crash"`
}

// ScheduleEntryConfig describes a programming block. Recurring entries set
// DayOfWeek (0 = Sunday), one-off entries set Date (YYYY-MM-DD).
type ScheduleEntryConfig struct {
	ID        string `yaml:"id" validate:"required"`
	Name      string `yaml:"name" validate:"required"`
	Host      string `yaml:"host"`
	DayOfWeek int    `yaml:"dayOfWeek"`
	Date      string `yaml:"date"`
	Start     string `yaml:"start" validate:"required"`
	Duration  int    `yaml:"duration" validate:"required|min:1"`
	Color     string `yaml:"color"`
}

type ScheduleConfig struct {
	Timezone        string                `yaml:"timezone"`
	DisplayTimezone string                `yaml:"displayTimezone"`
	Recurring       []ScheduleEntryConfig `yaml:"recurring"`
	OneOff          []ScheduleEntryConfig `yaml:"oneOff"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Collector   CollectorConfig `yaml:"collector"`
	Endpoints   []Endpoint      `yaml:"endpoints"`
	Entities    []Entity        `yaml:"entities"`
	Archive     ArchiveConfig   `yaml:"archive"`
	Events      EventsConfig    `yaml:"events"`
	Schedule    ScheduleConfig  `yaml:"schedule"`
	WebServer   Server          `yaml:"webServer"`
	Persistence Persistence     `yaml:"persistence"`
	Logger      LoggerConfig    `yaml:"logger"`
	Cache       CacheConfig     `yaml:"cache"`
	Metrics     MetricsConfig   `yaml:"metrics"`
}

// EndpointByID returns the configured endpoint with the given id.
func (c *Config) EndpointByID(id string) (Endpoint, bool) {
	for _, ep := range c.Endpoints {
		if ep.ID == id {
			return ep, true
		}
	}
	return Endpoint{}, false
}

// HistoryLabels returns the series names written on every cycle, in
// configuration order.
func (c *Config) HistoryLabels() []string {
	labels := make([]string, 0, len(c.Entities))
	for _, e := range c.Entities {
		if e.IncludeInHistory {
			labels = append(labels, e.Label)
		}
	}
	return labels
}
