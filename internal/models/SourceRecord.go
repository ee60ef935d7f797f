package models

// Metadata is the descriptive part of a mount status. Every field is
// optional because servers omit or rename them freely.
type Metadata struct {
	Description Nullable[string] `json:"description"`
	Bitrate     Nullable[int]    `json:"bitrate"`
	Codec       Nullable[string] `json:"codec"`
	Genre       Nullable[string] `json:"genre"`
	StreamStart Nullable[string] `json:"stream_start"`
	Connected   Nullable[int]    `json:"connected"`
}

// SourceRecord is the canonical status of one mount, or of one configured
// entity once the aggregator has resolved it. Records are never mutated after
// they are produced.
type SourceRecord struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Mount            string           `json:"mount"`
	Listeners        int              `json:"listeners"`
	Peak             Nullable[int]    `json:"listener_peak"`
	Title            Nullable[string] `json:"title"`
	Metadata         Metadata         `json:"metadata"`
	Offline          bool             `json:"offline"`
	IncludeInTotals  bool             `json:"include_in_totals"`
	IncludeInHistory bool             `json:"include_in_history"`
}

// OfflineRecord is the placeholder recorded for an entity whose endpoint or
// mount could not be resolved in a cycle.
func OfflineRecord(id, name, mount string, includeInTotals, includeInHistory bool) *SourceRecord {
	return &SourceRecord{
		ID:               id,
		Name:             name,
		Mount:            mount,
		Offline:          true,
		IncludeInTotals:  includeInTotals,
		IncludeInHistory: includeInHistory,
	}
}
