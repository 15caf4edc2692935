package ledger

// timestamp.go — resolves one authoritative UTC timestamp per ledger file.
//
// Ledgers are hand-authored, so the payload timestamp field is sometimes
// missing. The filename convention (2026-11-23_post_repair.yaml or a full
// ISO stamp as the first _-delimited token) is a first-class fallback, not
// an error condition. Records that resolve nowhere get the zero time and
// sort first instead of crashing the sort.

import (
	"path/filepath"
	"strings"
	"time"
)

// payloadTimeKeys are probed in order when resolving a payload timestamp.
var payloadTimeKeys = []string{"started_utc", "timestamp_utc", "date"}

// isoLayouts cover the ISO-8601-like shapes found in hand-written ledgers.
// Layouts with a -07:00 block carry an explicit offset; the rest are naive
// and interpreted as UTC.
var isoLayouts = []struct {
	layout string
	offset bool
}{
	{"2006-01-02T15:04:05.999999999-07:00", true},
	{"2006-01-02T15:04:05-07:00", true},
	{"2006-01-02T15:04-07:00", true},
	{"2006-01-02 15:04:05-07:00", true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{"2006-01-02", false},
}

// ParseISO parses an ISO-8601-like timestamp value and normalizes it to UTC.
// A trailing "Z" is treated as "+00:00"; timestamps without an offset are
// assumed UTC; timestamps with an offset are converted to UTC. Non-string
// and blank values report false.
func ParseISO(raw any) (time.Time, bool) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	return parseISOString(s)
}

func parseISOString(s string) (time.Time, bool) {
	for _, l := range isoLayouts {
		if l.offset {
			if t, err := time.Parse(l.layout, s); err == nil {
				return t.UTC(), true
			}
			continue
		}
		if t, err := time.ParseInLocation(l.layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TimestampFromFilename extracts a date or datetime from a ledger filename
// stem. The first _-delimited token is tried as a full ISO timestamp (an
// HH-MM-SS time suffix is reinterpreted as HH:MM:SS when the time part has
// no offset), then as a bare YYYY-MM-DD date at midnight UTC.
func TimestampFromFilename(path string) (time.Time, bool) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	first := stem
	if i := strings.Index(stem, "_"); i >= 0 {
		first = stem[:i]
	}

	full := strings.ReplaceAll(first, "Z", "+00:00")
	if i := strings.Index(full, "T"); i >= 0 {
		datePart, timePart := full[:i], full[i+1:]
		// Filenames can't contain colons, so times are hyphen-separated:
		// 2026-03-01T09-30-00 means 09:30:00.
		if !strings.Contains(timePart, "+") && strings.Count(timePart, "-") >= 2 {
			parts := strings.Split(timePart, "-")
			if len(parts) >= 3 {
				full = datePart + "T" + strings.Join(parts[:3], ":")
			}
		}
	}

	if t, ok := parseISOString(full); ok {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02", first, time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ResolveTimestamp produces the authoritative UTC timestamp for a ledger
// file. Fallback chain, first match wins: recognized payload field, then
// filename-encoded timestamp, then the zero time sentinel.
func ResolveTimestamp(payload map[string]any, path string) time.Time {
	for _, key := range payloadTimeKeys {
		if t, ok := ParseISO(payload[key]); ok {
			return t
		}
	}
	if t, ok := TimestampFromFilename(path); ok {
		return t
	}
	return time.Time{}
}

// PayloadDate returns the YYYY-MM-DD date of the first recognized payload
// timestamp field, or "" when none parses. Used for display columns.
func PayloadDate(payload map[string]any) string {
	for _, key := range payloadTimeKeys {
		if t, ok := ParseISO(payload[key]); ok {
			return t.Format("2006-01-02")
		}
	}
	return ""
}
