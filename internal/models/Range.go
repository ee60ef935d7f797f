package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

type RangeKind string

const (
	RangeRolling RangeKind = "rolling"
	RangeFull    RangeKind = "full"
	RangeMonthly RangeKind = "monthly"
	RangeYearly  RangeKind = "yearly"
)

var ErrInvalidRange = errors.New("invalid archive range")

var (
	monthKeyRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	yearKeyRe  = regexp.MustCompile(`^\d{4}$`)
)

// ArchiveRange selects one persisted payload. Key is only set for calendar
// buckets.
type ArchiveRange struct {
	Kind RangeKind
	Key  string
}

func (r ArchiveRange) String() string {
	if r.Key == "" {
		return string(r.Kind)
	}
	return string(r.Kind) + ":" + r.Key
}

// ParseRange accepts "rolling", "24h", "full", "all", "month:YYYY-MM",
// "YYYY-MM", "year:YYYY" and "YYYY". An empty string means rolling.
func ParseRange(s string) (ArchiveRange, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", "rolling", "24h":
		return ArchiveRange{Kind: RangeRolling}, nil
	case "full", "all":
		return ArchiveRange{Kind: RangeFull}, nil
	}

	if key, ok := strings.CutPrefix(s, "month:"); ok {
		return bucketRange(RangeMonthly, key)
	}
	if key, ok := strings.CutPrefix(s, "year:"); ok {
		return bucketRange(RangeYearly, key)
	}
	if monthKeyRe.MatchString(s) {
		return ArchiveRange{Kind: RangeMonthly, Key: s}, nil
	}
	if yearKeyRe.MatchString(s) {
		return ArchiveRange{Kind: RangeYearly, Key: s}, nil
	}
	return ArchiveRange{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
}

func bucketRange(kind RangeKind, key string) (ArchiveRange, error) {
	if !ValidBucketKey(kind, key) {
		return ArchiveRange{}, fmt.Errorf("%w: %s key %q", ErrInvalidRange, kind, key)
	}
	return ArchiveRange{Kind: kind, Key: key}, nil
}

// ValidBucketKey reports whether key is well formed for the bucket kind.
func ValidBucketKey(kind RangeKind, key string) bool {
	switch kind {
	case RangeMonthly:
		return monthKeyRe.MatchString(key)
	case RangeYearly:
		return yearKeyRe.MatchString(key)
	}
	return false
}

// BucketKey returns the calendar bucket a millisecond timestamp falls in,
// using UTC.
func BucketKey(kind RangeKind, ts int64) string {
	t := time.UnixMilli(ts).UTC()
	switch kind {
	case RangeMonthly:
		return t.Format("2006-01")
	case RangeYearly:
		return t.Format("2006")
	}
	return ""
}
