package icecast

import (
	"listenerd/internal/models"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

var (
	plainIntRe = regexp.MustCompile(`^\+?[0-9]+$`)
	decimalRe  = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
)

// toInt converts a decoded JSON value into a non-negative integer. Numbers
// are truncated, strings must hold a plain decimal integer.
func toInt(v interface{}) (int, bool) {
	var (
		n   int
		err error
	)
	switch x := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		s := strings.TrimSpace(x)
		if !plainIntRe.MatchString(s) {
			return 0, false
		}
		n, err = castDecimal(s)
	case json.Number:
		if decimalRe.MatchString(x.String()) {
			n, err = castDecimal(x.String())
			break
		}
		var f float64
		f, err = x.Float64()
		n = int(f)
	default:
		n, err = cast.ToIntE(v)
	}
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// castDecimal hands a base-10 literal to cast. Leading zeros are dropped
// since cast honours base prefixes and would read "010" as octal.
func castDecimal(s string) (int, error) {
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimLeft(strings.TrimLeft(s, "+-"), "0")
	if digits == "" || digits[0] == '.' {
		digits = "0" + digits
	}
	if neg {
		digits = "-" + digits
	}
	return cast.ToIntE(digits)
}

// SafeInt returns v as an integer, or fallback when v is missing, empty,
// negative or not numeric.
func SafeInt(v interface{}, fallback int) int {
	if n, ok := toInt(v); ok {
		return n
	}
	return fallback
}

// OptionalInt is SafeInt with an absent fallback.
func OptionalInt(v interface{}) models.Nullable[int] {
	if n, ok := toInt(v); ok {
		return models.Some(n)
	}
	return models.None[int]()
}

// OptionalString keeps non-empty strings and numbers rendered as text.
func OptionalString(v interface{}) models.Nullable[string] {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return models.None[string]()
		}
		return models.Some(x)
	case json.Number:
		return models.Some(x.String())
	}
	return models.None[string]()
}

func firstString(src map[string]interface{}, keys ...string) models.Nullable[string] {
	for _, k := range keys {
		if s := OptionalString(src[k]); s.Valid {
			return s
		}
	}
	return models.None[string]()
}
