// Package events derives annotations from archived series: abrupt listener
// drops and the scheduled shows overlapping a time range.
package events

import (
	"listenerd/internal/models"
	"listenerd/internal/structures"
	"time"
)

type CrashThresholds struct {
	High   float64
	Low    float64
	Window time.Duration
}

func ThresholdsFromConfig(conf *structures.Config) CrashThresholds {
	return CrashThresholds{
		High:   conf.Events.Crash.High,
		Low:    conf.Events.Crash.Low,
		Window: conf.Events.Crash.Window,
	}
}

// DetectCrashes compares each pair of adjacent points. A pair fires when the
// earlier value is at least High, the later one is below Low and the two
// samples are at most Window apart. Every qualifying pair fires on its own.
func DetectCrashes(points []models.SeriesPoint, th CrashThresholds) []models.CrashEvent {
	crashes := make([]models.CrashEvent, 0)
	window := th.Window.Milliseconds()
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		elapsed := cur.Timestamp - prev.Timestamp
		if prev.Value >= th.High && cur.Value < th.Low && elapsed <= window {
			crashes = append(crashes, models.CrashEvent{
				Timestamp: cur.Timestamp,
				Before:    prev.Value,
				After:     cur.Value,
				ElapsedMs: elapsed,
			})
		}
	}
	return crashes
}
