package archive

import (
	"listenerd/internal/models"
	"listenerd/internal/testutil"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// After any sequence of appends no rolling point is older than the window
// measured from the latest write, and the full payload keeps every point.
func TestProperty_RollingWindowBound(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	window := time.Hour.Milliseconds()

	properties.Property("rolling payload stays inside the window", prop.ForAll(
		func(gaps []int64, listeners int) bool {
			a := NewArchive(archiveConfig(t.TempDir(), false), &testutil.MockLogger{}, testutil.NewMockMetrics())
			if err := a.Restore(); err != nil {
				return false
			}

			var ts int64
			for _, gap := range gaps {
				ts += gap
				if err := a.Append(cycle(ts, listeners, 1, 0)); err != nil {
					return false
				}
			}
			if len(gaps) == 0 {
				return true
			}

			rolling, err := a.Load(models.ArchiveRange{Kind: models.RangeRolling})
			if err != nil {
				return false
			}
			for _, s := range rolling.Series {
				for _, p := range s.Points {
					if p.Timestamp < ts-window {
						return false
					}
				}
			}
			full, err := a.Load(models.ArchiveRange{Kind: models.RangeFull})
			if err != nil {
				return false
			}
			return len(full.Find(models.TotalSeries).Points) == len(gaps)
		},
		gen.SliceOf(gen.Int64Range(0, 40*60*1000)),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
