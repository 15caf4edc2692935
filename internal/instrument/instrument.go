// Package instrument normalizes heterogeneous instrument registry YAML into
// one canonical record per physical device.
//
// The registry carries several schema generations at once (contacts as a
// single mapping or a list, software as a component map or a flat list,
// location as a string, a structured mapping, or packed into legacy notes).
// Normalization probes the known shapes in priority order and degrades
// unknown or malformed optional input to empty fields; only identity is ever
// an error, and only in strict mode.
package instrument

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// imageExts is the fixed probe order for instrument photos.
var imageExts = []string{".jpg", ".jpeg", ".png", ".webp", ".svg"}

// placeholderImage is used when no photo exists for an instrument.
const placeholderImage = "placeholder.svg"

// SoftwareRow is one normalized software entry.
type SoftwareRow struct {
	Component string `yaml:"component"`
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	URL       string `yaml:"url,omitempty"`
}

// Hardware groups the typed equipment categories of one instrument. Each
// category is an ordered sequence of attribute rows, order as declared.
type Hardware struct {
	LightSources []map[string]any `yaml:"light_sources,omitempty"`
	Detectors    []map[string]any `yaml:"detectors,omitempty"`
	Objectives   []map[string]any `yaml:"objectives,omitempty"`
	Splitters    []map[string]any `yaml:"splitters,omitempty"`
	Filters      []map[string]any `yaml:"filters,omitempty"`
}

// Instrument is the canonical record for one physical device. Built once per
// build from one registry file and immutable thereafter.
type Instrument struct {
	ID               string
	DisplayName      string
	Manufacturer     string
	Model            string
	StandOrientation string
	Notes            string
	NotesFields      map[string]any // decomposed legacy compact notes, nil when unused
	Location         string
	BookingURL       string
	Contacts         []string
	Modalities       []string
	Modules          []string
	Software         []SoftwareRow
	Hardware         Hardware
	ImageFilename    string
	SourcePath       string
}

// Options selects the deployment profile for normalization.
type Options struct {
	// Strict rejects records with a missing or invalid instrument_id instead
	// of synthesizing a fallback slug from the display name.
	Strict bool
	// ImagesDir is probed for <id><ext> photos; empty disables probing.
	ImagesDir string
}

// Normalize maps one raw registry payload to the canonical Instrument.
// In permissive mode (the default) a missing or invalid instrument_id is
// replaced by "scope-<slug of display name>"; in strict mode it is an error.
func Normalize(payload map[string]any, sourcePath string, opts Options) (*Instrument, error) {
	section, _ := payload["instrument"].(map[string]any)

	displayName := strOf(section["display_name"])
	if displayName == "" {
		displayName = fileStem(sourcePath)
	}

	id := strOf(section["instrument_id"])
	if !IsValidID(id) {
		if opts.Strict {
			if id == "" {
				return nil, fmt.Errorf("%s: missing instrument.instrument_id", sourcePath)
			}
			return nil, fmt.Errorf("%s: invalid instrument.instrument_id %q", sourcePath, id)
		}
		id = "scope-" + Slugify(displayName)
	}

	notes := strOf(section["notes"])
	notesFields := ParseCompactNotes(notes)

	location := formatLocation(section["location"])
	if location == "" {
		// Legacy registries packed the location into the notes notation.
		if loc, ok := notesFields["location"].(string); ok {
			location = strings.TrimSpace(loc)
		}
	}

	bookingURL := strOf(section["booking_url"])
	if bookingURL == "" {
		if booking, ok := section["booking"].(map[string]any); ok {
			bookingURL = strOf(booking["url"])
		}
	}

	return &Instrument{
		ID:               id,
		DisplayName:      displayName,
		Manufacturer:     strOf(section["manufacturer"]),
		Model:            strOf(section["model"]),
		StandOrientation: strOf(section["stand_orientation"]),
		Notes:            notes,
		NotesFields:      notesFields,
		Location:         location,
		BookingURL:       bookingURL,
		Contacts:         formatContacts(section["contacts"]),
		Modalities:       stringList(payload["modalities"]),
		Modules:          stringList(payload["modules"]),
		Software:         normalizeSoftware(payload["software"]),
		Hardware:         normalizeHardware(payload["hardware"]),
		ImageFilename:    findImageFilename(opts.ImagesDir, id),
		SourcePath:       filepath.ToSlash(sourcePath),
	}, nil
}

// ---------------------------------------------------------------------------
// Shape probes
// ---------------------------------------------------------------------------

// formatLocation accepts a plain string or a {site, building, room} mapping
// joined with " · ". Anything else is an empty location.
func formatLocation(raw any) string {
	if s := strOf(raw); s != "" {
		return s
	}
	section, ok := raw.(map[string]any)
	if !ok {
		return ""
	}
	var parts []string
	for _, key := range []string{"site", "building", "room"} {
		if v := strOf(section[key]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " · ")
}

// formatContacts accepts a single contact mapping or a list of strings and
// mappings, and builds compact "Name <email> (role)" labels from whichever
// parts are present. Entries with neither a name nor an email are dropped.
func formatContacts(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		if single, isMap := raw.(map[string]any); isMap {
			items = []any{single}
		} else {
			return nil
		}
	}

	var out []string
	for _, item := range items {
		if s := strOf(item); s != "" {
			out = append(out, s)
			continue
		}
		contact, isMap := item.(map[string]any)
		if !isMap {
			continue
		}
		name := strOf(contact["name"])
		email := strOf(contact["email"])
		role := strOf(contact["role"])

		label := name
		if label == "" {
			label = email
		}
		if label == "" {
			continue
		}
		if name != "" && email != "" {
			label = name + " <" + email + ">"
		}
		if role != "" {
			label = label + " (" + role + ")"
		}
		out = append(out, label)
	}
	return out
}

// normalizeSoftware accepts either a mapping keyed by component name (value:
// single entry or list of entries) or a flat list of entries carrying their
// own component field. Entries without a usable name are dropped.
func normalizeSoftware(raw any) []SoftwareRow {
	var out []SoftwareRow

	add := func(component string, entry any) {
		switch e := entry.(type) {
		case map[string]any:
			name := strOf(e["name"])
			if name == "" {
				return
			}
			out = append(out, SoftwareRow{
				Component: component,
				Name:      name,
				Version:   strOf(e["version"]),
				URL:       strOf(e["url"]),
			})
		default:
			if name := strOf(entry); name != "" {
				out = append(out, SoftwareRow{Component: component, Name: name})
			}
		}
	}

	switch sw := raw.(type) {
	case map[string]any:
		for _, component := range sortedKeys(sw) {
			entry := sw[component]
			if list, ok := entry.([]any); ok {
				for _, item := range list {
					add(component, item)
				}
			} else {
				add(component, entry)
			}
		}
	case []any:
		for _, item := range sw {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			component := strOf(entry["component"])
			if component == "" {
				component = "software"
			}
			add(component, entry)
		}
	}
	return out
}

// normalizeHardware filters each known equipment category to its
// mapping-shaped rows, preserving declared order.
func normalizeHardware(raw any) Hardware {
	section, ok := raw.(map[string]any)
	if !ok {
		return Hardware{}
	}
	return Hardware{
		LightSources: attributeRows(section["light_sources"]),
		Detectors:    attributeRows(section["detectors"]),
		Objectives:   attributeRows(section["objectives"]),
		Splitters:    attributeRows(section["splitters"]),
		Filters:      attributeRows(section["filters"]),
	}
}

func attributeRows(raw any) []map[string]any {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	var rows []map[string]any
	for _, item := range list {
		if row, isMap := item.(map[string]any); isMap {
			rows = append(rows, row)
		}
	}
	return rows
}

// findImageFilename probes the fixed extension list against
// <imagesDir>/<id><ext>; the first existing file wins.
func findImageFilename(imagesDir, id string) string {
	if imagesDir == "" {
		return placeholderImage
	}
	for _, ext := range imageExts {
		candidate := filepath.Join(imagesDir, id+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return filepath.Base(candidate)
		}
	}
	return placeholderImage
}

// ---------------------------------------------------------------------------
// Loose-tree coercion helpers
// ---------------------------------------------------------------------------

// strOf returns the trimmed string value of v, or "" for anything else.
func strOf(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// stringList keeps the non-blank string items of a YAML sequence, trimmed,
// order as declared.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s := strOf(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// sortedKeys returns map keys in sorted order; component maps have no
// declared order, so sorting keeps software rows deterministic.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
