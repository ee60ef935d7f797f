// Package icecast turns the status documents published by Icecast style
// streaming servers into canonical per-mount records.
package icecast

import (
	"bytes"
	"errors"
	"fmt"
	"listenerd/internal/models"
	"net/url"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
)

var ErrMalformed = errors.New("malformed status document")

var trailingPathRe = regexp.MustCompile(`(/[^/]+)$`)

// ParseStatusJSON normalizes a status-json.xsl document. The "source" field
// may be a single object or a list of them. A document without the
// icestats envelope yields an empty map; only input that is not JSON at all
// returns an error. Sources without an identifiable mount are dropped.
func ParseStatusJSON(raw []byte) (map[string]*models.SourceRecord, error) {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	result := make(map[string]*models.SourceRecord)

	root, _ := doc.(map[string]interface{})
	stats, _ := root["icestats"].(map[string]interface{})

	var sources []interface{}
	switch src := stats["source"].(type) {
	case map[string]interface{}:
		sources = []interface{}{src}
	case []interface{}:
		sources = src
	default:
		return result, nil
	}

	for _, s := range sources {
		fields, ok := s.(map[string]interface{})
		if !ok {
			continue
		}
		rec := parseSource(fields)
		if rec == nil {
			continue
		}
		result[rec.Mount] = rec
	}
	return result, nil
}

func parseSource(src map[string]interface{}) *models.SourceRecord {
	mount := mountFromListenURL(OptionalString(src["listenurl"]).OrElse(""))
	if mount == "" {
		mount = normalizeMount(OptionalString(src["mount"]).OrElse(""))
	}
	if mount == "" {
		return nil
	}

	return &models.SourceRecord{
		ID:        mount,
		Name:      OptionalString(src["server_name"]).OrElse(mount),
		Mount:     mount,
		Listeners: SafeInt(src["listeners"], 0),
		Peak:      OptionalInt(src["listener_peak"]),
		Title:     firstString(src, "title", "yp_currently_playing"),
		Metadata: models.Metadata{
			Description: OptionalString(src["server_description"]),
			Bitrate:     OptionalInt(src["bitrate"]),
			Codec:       firstString(src, "server_type", "subtype"),
			Genre:       OptionalString(src["genre"]),
			StreamStart: OptionalString(src["stream_start_iso8601"]),
			Connected:   OptionalInt(src["connected"]),
		},
	}
}

// mountFromListenURL extracts the path of a listen URL such as
// "http://host:8000/tower1". A bare "/" does not identify a mount.
func mountFromListenURL(listenURL string) string {
	if listenURL == "" {
		return ""
	}
	var path string
	if u, err := url.Parse(listenURL); err == nil {
		path = u.Path
	} else if m := trailingPathRe.FindStringSubmatch(listenURL); m != nil {
		path = m[1]
	}
	return normalizeMount(path)
}

func normalizeMount(mount string) string {
	mount = strings.TrimSpace(mount)
	if mount == "" || mount == "/" {
		return ""
	}
	if !strings.HasPrefix(mount, "/") {
		mount = "/" + mount
	}
	return mount
}
