package models

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

// TotalSeries is the reserved name of the aggregate series.
const TotalSeries = "Total"

// SeriesPoint is a (timestamp ms, value) pair, stored as a two element JSON
// array.
type SeriesPoint struct {
	Timestamp int64
	Value     float64
}

func (p SeriesPoint) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 32)
	buf = append(buf, '[')
	buf = strconv.AppendInt(buf, p.Timestamp, 10)
	buf = append(buf, ',')
	buf = strconv.AppendFloat(buf, p.Value, 'f', -1, 64)
	buf = append(buf, ']')
	return buf, nil
}

func (p *SeriesPoint) UnmarshalJSON(data []byte) error {
	var pair []json.Number
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("series point: expected 2 elements, got %d", len(pair))
	}
	ts, err := pair[0].Int64()
	if err != nil {
		f, ferr := pair[0].Float64()
		if ferr != nil {
			return fmt.Errorf("series point timestamp: %w", err)
		}
		ts = int64(f)
	}
	v, err := pair[1].Float64()
	if err != nil {
		return fmt.Errorf("series point value: %w", err)
	}
	p.Timestamp = ts
	p.Value = v
	return nil
}

type Series struct {
	Name   string        `json:"name"`
	Points []SeriesPoint `json:"points"`
}

type ArchivePayload struct {
	GeneratedAt string    `json:"generated_at"`
	Range       RangeKind `json:"range"`
	Key         string    `json:"key,omitempty"`
	Series      []*Series `json:"series"`
}

func NewArchivePayload(r ArchiveRange) *ArchivePayload {
	return &ArchivePayload{
		Range:  r.Kind,
		Key:    r.Key,
		Series: make([]*Series, 0),
	}
}

// Find returns the series with the given name, or nil.
func (p *ArchivePayload) Find(name string) *Series {
	for _, s := range p.Series {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Ensure returns the named series, appending an empty one when missing.
func (p *ArchivePayload) Ensure(name string) *Series {
	if s := p.Find(name); s != nil {
		return s
	}
	s := &Series{Name: name, Points: make([]SeriesPoint, 0)}
	p.Series = append(p.Series, s)
	return s
}

// PointCount returns the number of points across all series.
func (p *ArchivePayload) PointCount() int {
	n := 0
	for _, s := range p.Series {
		n += len(s.Points)
	}
	return n
}
