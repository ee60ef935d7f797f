package structures

import (
	"strings"
	"time"
)

const (
	DefaultCollectTimeout = 15 * time.Second
	DefaultRollingWindow  = 24 * time.Hour
	DefaultUserAgent      = "ListenerDaemon/1.0"
	DefaultStatusPath     = "/status-json.xsl"
	DefaultHTMLPath       = "/status.xsl"
	DefaultCompression    = "default"

	DefaultCrashHigh   = 200
	DefaultCrashLow    = 10
	DefaultCrashWindow = 5 * time.Minute
)

// ApplyDefaults fills zero values that have a sensible default.
func (c *Config) ApplyDefaults() {
	if c.Collector.Timeout <= 0 {
		c.Collector.Timeout = DefaultCollectTimeout
	}
	if c.Collector.Concurrency <= 0 {
		c.Collector.Concurrency = max(len(c.Endpoints), 1)
	}
	if c.Collector.UserAgent == "" {
		c.Collector.UserAgent = DefaultUserAgent
	}
	for i := range c.Endpoints {
		if c.Endpoints[i].StatusPath == "" {
			c.Endpoints[i].StatusPath = DefaultStatusPath
		}
		if c.Endpoints[i].HTMLPath == "" {
			c.Endpoints[i].HTMLPath = DefaultHTMLPath
		}
	}
	for i := range c.Entities {
		if m := c.Entities[i].Mount; m != "" && !strings.HasPrefix(m, "/") {
			c.Entities[i].Mount = "/" + m
		}
	}
	if c.Persistence.Compression == "" {
		c.Persistence.Compression = DefaultCompression
	}
	if c.Archive.RollingWindow <= 0 {
		c.Archive.RollingWindow = DefaultRollingWindow
	}
	if c.Events.Crash.High == 0 {
		c.Events.Crash.High = DefaultCrashHigh
	}
	if c.Events.Crash.Low == 0 {
		c.Events.Crash.Low = DefaultCrashLow
	}
	if c.Events.Crash.Window <= 0 {
		c.Events.Crash.Window = DefaultCrashWindow
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "UTC"
	}
	if c.Schedule.DisplayTimezone == "" {
		c.Schedule.DisplayTimezone = c.Schedule.Timezone
	}
}
