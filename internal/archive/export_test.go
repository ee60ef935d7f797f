package archive

import (
	"bytes"
	"fmt"
	"listenerd/internal/models"
	"sort"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV_UnionOfTimestampsWithBlanks(t *testing.T) {
	p := &models.ArchivePayload{Series: []*models.Series{
		{Name: "Tower 1", Points: []models.SeriesPoint{{Timestamp: 2000, Value: 4}, {Timestamp: 1000, Value: 3}}},
		{Name: "Total", Points: []models.SeriesPoint{{Timestamp: 1000, Value: 3.5}, {Timestamp: 3000, Value: 9}}},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, p))

	want := strings.Join([]string{
		"timestamp,Tower 1,Total",
		"1000,3,3.5",
		"2000,4,",
		"3000,,9",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_EmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, &models.ArchivePayload{}))
	assert.Equal(t, "timestamp\n", buf.String())
}

func TestReadCSV_RejectsBadInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("time,A\n1,2\n"))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("timestamp,A\nx,2\n"))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("timestamp,A\n1,abc\n"))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

type triple struct {
	ts    int64
	name  string
	value float64
}

func triples(p *models.ArchivePayload) []triple {
	out := make([]triple, 0)
	for _, s := range p.Series {
		for _, pt := range s.Points {
			out = append(out, triple{pt.Timestamp, s.Name, pt.Value})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ts != out[j].ts {
			return out[i].ts < out[j].ts
		}
		return out[i].name < out[j].name
	})
	return out
}

// Exporting then re-reading reproduces the same (timestamp, series, value)
// triples when no series repeats a timestamp.
func TestProperty_CSVRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("csv round trip keeps triples", prop.ForAll(
		func(a, b []int) bool {
			p := &models.ArchivePayload{Series: []*models.Series{
				{Name: "Tower 1", Points: make([]models.SeriesPoint, 0)},
				{Name: "Total", Points: make([]models.SeriesPoint, 0)},
			}}
			for i, v := range a {
				p.Series[0].Points = append(p.Series[0].Points, models.SeriesPoint{Timestamp: int64(i * 60000), Value: float64(v)})
			}
			for i, v := range b {
				p.Series[1].Points = append(p.Series[1].Points, models.SeriesPoint{Timestamp: int64(i*90000 + 30000), Value: float64(v) / 2})
			}

			var buf bytes.Buffer
			if err := WriteCSV(&buf, p); err != nil {
				return false
			}
			back, err := ReadCSV(&buf)
			if err != nil {
				return false
			}
			return fmt.Sprint(triples(p)) == fmt.Sprint(triples(back))
		},
		gen.SliceOf(gen.IntRange(0, 10000)),
		gen.SliceOf(gen.IntRange(0, 10000)),
	))

	properties.TestingRun(t)
}
