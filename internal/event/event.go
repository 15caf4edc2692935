// Package event loads the QC and maintenance event ledgers belonging to one
// instrument. Events are append-only, one YAML file per event, laid out as
// <base>/<microscope>/<year>/<file>.yaml.
package event

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fleetdash/internal/ledger"
)

// Record types of the two event ledgers.
const (
	TypeQCSession   = "qc_session"
	TypeMaintenance = "maintenance_event"
)

// Entry is one loaded event: its source location, resolved UTC timestamp,
// and the raw payload mapping.
type Entry struct {
	SourcePath string
	Filename   string
	Timestamp  time.Time
	Payload    map[string]any
}

// Stem returns the entry's filename without extension; it identifies the
// event in generated output paths.
func (e Entry) Stem() string {
	return strings.TrimSuffix(e.Filename, filepath.Ext(e.Filename))
}

// LoadForInstrument returns every event under baseDir whose microscope field
// (or the legacy instrument_id field) equals instrumentID, sorted ascending
// by (resolved timestamp, source path). The path component of the sort key
// is a pure tie-break for determinism. A blank instrumentID means nothing to
// report: empty result, no error. Unreadable ledgers are accumulated as load
// errors and do not block the rest.
func LoadForInstrument(baseDir, instrumentID string) ([]Entry, []*ledger.LoadError) {
	target := strings.TrimSpace(instrumentID)
	if target == "" {
		return nil, nil
	}

	var entries []Entry
	var loadErrs []*ledger.LoadError

	for _, path := range ledger.Scan(baseDir) {
		payload, lerr := ledger.LoadMapping(path)
		if lerr != nil {
			loadErrs = append(loadErrs, lerr)
			continue
		}

		owner, ok := payload["microscope"].(string)
		if !ok {
			owner, _ = payload["instrument_id"].(string)
		}
		if owner != target {
			continue
		}

		entries = append(entries, Entry{
			SourcePath: filepath.ToSlash(path),
			Filename:   filepath.Base(path),
			Timestamp:  ledger.ResolveTimestamp(payload, path),
			Payload:    payload,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		}
		return entries[i].SourcePath < entries[j].SourcePath
	})
	return entries, loadErrs
}

// Latest returns the payload of the newest entry, or nil for an empty
// history.
func Latest(entries []Entry) map[string]any {
	if len(entries) == 0 {
		return nil
	}
	return entries[len(entries)-1].Payload
}
