package models

type Snapshot struct {
	CycleID        string                   `json:"cycle_id"`
	Entities       map[string]*SourceRecord `json:"entities"`
	TotalListeners int                      `json:"total_listeners"`
	CapturedAt     int64                    `json:"captured_at"`
}

// SumTotals adds up listeners of every record flagged for totals. The
// aggregator and the archive's Total series both go through this.
func SumTotals(records map[string]*SourceRecord) int {
	total := 0
	for _, rec := range records {
		if rec != nil && rec.IncludeInTotals {
			total += rec.Listeners
		}
	}
	return total
}

func (s *Snapshot) Get(id string) (*SourceRecord, bool) {
	rec, ok := s.Entities[id]
	return rec, ok
}

func (s *Snapshot) OfflineCount() int {
	n := 0
	for _, rec := range s.Entities {
		if rec.Offline {
			n++
		}
	}
	return n
}
