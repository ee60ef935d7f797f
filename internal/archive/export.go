package archive

import (
	"encoding/csv"
	"fmt"
	"io"
	"listenerd/internal/models"
	"sort"
	"strconv"
	"strings"
)

const timestampColumn = "timestamp"

// WriteCSV writes one row per distinct timestamp across all series, in
// ascending order. Columns are the timestamp then one per series in payload
// order; a series without a point at that timestamp leaves its cell blank.
// When a series repeats a timestamp the last value wins.
func WriteCSV(w io.Writer, p *models.ArchivePayload) error {
	header := make([]string, 0, len(p.Series)+1)
	header = append(header, timestampColumn)

	byTimestamp := make(map[int64][]string)
	for col, s := range p.Series {
		header = append(header, s.Name)
		for _, pt := range s.Points {
			row, ok := byTimestamp[pt.Timestamp]
			if !ok {
				row = make([]string, len(p.Series))
				byTimestamp[pt.Timestamp] = row
			}
			row[col] = strconv.FormatFloat(pt.Value, 'f', -1, 64)
		}
	}

	timestamps := make([]int64, 0, len(byTimestamp))
	for ts := range byTimestamp {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for _, ts := range timestamps {
		record[0] = strconv.FormatInt(ts, 10)
		copy(record[1:], byTimestamp[ts])
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the format produced by WriteCSV. Blank cells are skipped.
func ReadCSV(r io.Reader) (*models.ArchivePayload, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	if len(header) == 0 || strings.TrimSpace(header[0]) != timestampColumn {
		return nil, fmt.Errorf("csv header: first column must be %q", timestampColumn)
	}

	p := &models.ArchivePayload{Series: make([]*models.Series, 0, len(header)-1)}
	for _, name := range header[1:] {
		p.Series = append(p.Series, &models.Series{Name: name, Points: make([]models.SeriesPoint, 0)})
	}

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		ts, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: timestamp: %w", line, err)
		}
		for i, cell := range record[1:] {
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d: %s: %w", line, header[i+1], err)
			}
			p.Series[i].Points = append(p.Series[i].Points, models.SeriesPoint{Timestamp: ts, Value: v})
		}
	}
	return p, nil
}
