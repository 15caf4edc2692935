// Package validate checks the source ledger trees before a site build:
// instrument identity rules first, then event placement, typing, and
// maintenance payload shape. Issues are collected, never fatal; callers
// decide whether a non-empty report aborts the build.
package validate

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"fleetdash/internal/event"
	"fleetdash/internal/instrument"
	"fleetdash/internal/ledger"
)

// AllowedRecordTypes are the record_type values an event ledger may carry.
var AllowedRecordTypes = []string{event.TypeQCSession, event.TypeMaintenance}

// AllowedMaintenanceStatuses are the normalized values accepted in
// microscope_status_before/after.
var AllowedMaintenanceStatuses = []string{"in_service", "limited", "out_of_service"}

var (
	yearPattern         = regexp.MustCompile(`^\d{4}$`)
	isoYearPattern      = regexp.MustCompile(`^(\d{4})-`)
	filenameDatePattern = regexp.MustCompile(`^(\d{4})-\d{2}-\d{2}(?:_|$)`)
)

// Issue is one validation finding. Path is the offending source file for
// per-file issues, or the colliding key for duplicate issues.
type Issue struct {
	Code    string
	Path    string
	Message string
}

// Registry validates the instrument ledger tree and returns the set of
// well-formed instrument ids alongside any issues. Files under a retired/
// segment are skipped. A file that fails an identity check contributes no
// id, so later event checks report its events as unknown_microscope.
func Registry(instrumentsDir string) (map[string]bool, []Issue) {
	var issues []Issue
	ids := make(map[string]bool)
	idToFiles := make(map[string][]string)

	for _, path := range ledger.Scan(instrumentsDir) {
		if hasRetiredSegment(instrumentsDir, path) {
			continue
		}

		payload, loadErr := ledger.LoadMapping(path)
		if loadErr != nil {
			issues = append(issues, Issue{
				Code:    "yaml_parse_error",
				Path:    filepath.ToSlash(path),
				Message: loadErr.Message,
			})
			continue
		}

		section, ok := payload["instrument"].(map[string]any)
		if !ok {
			issues = append(issues, Issue{
				Code:    "missing_instrument_section",
				Path:    filepath.ToSlash(path),
				Message: "Missing required top-level mapping key 'instrument'.",
			})
			continue
		}

		id, ok := section["instrument_id"].(string)
		if !ok || strings.TrimSpace(id) == "" {
			issues = append(issues, Issue{
				Code:    "missing_instrument_id",
				Path:    filepath.ToSlash(path),
				Message: "Missing required instrument.instrument_id (must be a non-empty string).",
			})
			continue
		}

		id = strings.TrimSpace(id)
		if !instrument.IsValidID(id) {
			issues = append(issues, Issue{
				Code:    "invalid_instrument_id",
				Path:    filepath.ToSlash(path),
				Message: "Invalid instrument.instrument_id; expected URL-safe slug (lowercase letters, numbers, and single hyphens only).",
			})
			continue
		}

		ids[id] = true
		idToFiles[id] = append(idToFiles[id], filepath.ToSlash(path))
	}

	for _, id := range sortedKeys(idToFiles) {
		sources := idToFiles[id]
		if len(sources) <= 1 {
			continue
		}
		sort.Strings(sources)
		issues = append(issues, Issue{
			Code:    "duplicate_instrument_id",
			Path:    id,
			Message: fmt.Sprintf("Duplicate instrument.instrument_id '%s' defined in: %s.", id, strings.Join(sources, ", ")),
		})
	}

	return ids, issues
}

// Events validates both event ledger trees against the known instrument
// ids. Each tree expects exactly one record_type; placement must follow
// <microscope>/<YYYY>/<file>.yaml with the year matching the event's own
// timestamp. Generated output paths must be unique across both trees.
func Events(instrumentIDs map[string]bool, qcBaseDir, maintenanceBaseDir string) []Issue {
	var issues []Issue
	outputToSources := make(map[string][]string)

	sources := []struct {
		baseDir      string
		expectedType string
	}{
		{qcBaseDir, event.TypeQCSession},
		{maintenanceBaseDir, event.TypeMaintenance},
	}

	for _, src := range sources {
		for _, path := range ledger.Scan(src.baseDir) {
			relParts := relativeParts(src.baseDir, path)

			payload, loadErr := ledger.LoadMapping(path)
			if loadErr != nil {
				issues = append(issues, Issue{
					Code:    "yaml_parse_error",
					Path:    filepath.ToSlash(path),
					Message: loadErr.Message,
				})
				continue
			}

			microscope, ok := payload["microscope"].(string)
			if !ok || strings.TrimSpace(microscope) == "" {
				issues = append(issues, Issue{
					Code:    "missing_microscope",
					Path:    filepath.ToSlash(path),
					Message: "Missing required 'microscope' field.",
				})
				continue
			}

			if !instrumentIDs[microscope] {
				known := make([]string, 0, len(instrumentIDs))
				for id := range instrumentIDs {
					known = append(known, id)
				}
				sort.Strings(known)
				issues = append(issues, Issue{
					Code:    "unknown_microscope",
					Path:    filepath.ToSlash(path),
					Message: fmt.Sprintf("Unknown microscope '%s'. Expected one of instrument IDs in registry: %s.", microscope, strings.Join(known, ", ")),
				})
			}

			issues = append(issues, checkPlacement(src.baseDir, path, relParts, microscope, payload)...)
			issues = append(issues, checkRecordType(src.baseDir, path, payload, src.expectedType)...)

			if recordType, _ := payload["record_type"].(string); recordType == event.TypeMaintenance {
				issues = append(issues, checkMaintenanceFields(path, payload)...)
			}

			outputPath := fmt.Sprintf("events/%s/%s.md", microscope, fileStem(path))
			outputToSources[outputPath] = append(outputToSources[outputPath], filepath.ToSlash(path))
		}
	}

	for _, outputPath := range sortedKeys(outputToSources) {
		sources := outputToSources[outputPath]
		if len(sources) <= 1 {
			continue
		}
		sort.Strings(sources)
		issues = append(issues, Issue{
			Code:    "duplicate_event_output_path",
			Path:    outputPath,
			Message: fmt.Sprintf("Duplicate generated event path '%s' from: %s.", outputPath, strings.Join(sources, ", ")),
		})
	}

	return issues
}

// Run validates both ledger halves in order and returns the combined
// issue list.
func Run(instrumentsDir, qcBaseDir, maintenanceBaseDir string) []Issue {
	ids, issues := Registry(instrumentsDir)
	return append(issues, Events(ids, qcBaseDir, maintenanceBaseDir)...)
}

// PrintReport writes the numbered failure report. No output when the
// issue list is empty.
func PrintReport(w io.Writer, issues []Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintln(w, "\nValidation failures detected:")
	for i, issue := range issues {
		fmt.Fprintf(w, "  %d. [%s] %s\n", i+1, issue.Code, issue.Path)
		fmt.Fprintf(w, "     %s\n", issue.Message)
	}
	fmt.Fprintf(w, "\nTotal validation failures: %d\n", len(issues))
}

// ---------------------------------------------------------------------------
// Per-file checks
// ---------------------------------------------------------------------------

// checkPlacement verifies the <microscope>/<YYYY>/<file>.yaml structure and
// that the year folder matches the year derivable from the payload or the
// filename date prefix.
func checkPlacement(baseDir, path string, relParts []string, microscope string, payload map[string]any) []Issue {
	if len(relParts) < 3 {
		return []Issue{{
			Code:    "invalid_event_path_structure",
			Path:    filepath.ToSlash(path),
			Message: fmt.Sprintf("Expected event path under '%s' to follow '<microscope>/<YYYY>/<file>.yaml'.", filepath.ToSlash(baseDir)),
		}}
	}

	var issues []Issue
	pathMicroscope := relParts[0]
	pathYear := relParts[1]

	if microscope != pathMicroscope {
		issues = append(issues, Issue{
			Code:    "microscope_mismatch_with_path",
			Path:    filepath.ToSlash(path),
			Message: fmt.Sprintf("Path microscope '%s' does not match payload microscope '%s'.", pathMicroscope, microscope),
		})
	}

	if !yearPattern.MatchString(pathYear) {
		issues = append(issues, Issue{
			Code:    "invalid_event_year_folder",
			Path:    filepath.ToSlash(path),
			Message: fmt.Sprintf("Invalid year folder '%s'. Expected a 4-digit year like '2026'.", pathYear),
		})
		return issues
	}

	eventYear := startedYear(payload, path)
	switch {
	case eventYear == "":
		issues = append(issues, Issue{
			Code:    "missing_event_year_source",
			Path:    filepath.ToSlash(path),
			Message: "Could not derive event year from payload.started_utc or filename date prefix (YYYY-MM-DD_...).",
		})
	case pathYear != eventYear:
		issues = append(issues, Issue{
			Code:    "year_mismatch_with_path",
			Path:    filepath.ToSlash(path),
			Message: fmt.Sprintf("Path year '%s' does not match derived event year '%s' from started_utc/filename.", pathYear, eventYear),
		})
	}
	return issues
}

// checkRecordType verifies record_type is present, allowed, and matches
// the tree the file lives under.
func checkRecordType(baseDir, path string, payload map[string]any, expectedType string) []Issue {
	recordType, ok := payload["record_type"].(string)
	if !ok || strings.TrimSpace(recordType) == "" {
		return []Issue{{
			Code:    "missing_record_type",
			Path:    filepath.ToSlash(path),
			Message: "Missing required 'record_type' field.",
		}}
	}
	if !containsString(AllowedRecordTypes, recordType) {
		allowed := append([]string(nil), AllowedRecordTypes...)
		sort.Strings(allowed)
		return []Issue{{
			Code:    "invalid_record_type",
			Path:    filepath.ToSlash(path),
			Message: fmt.Sprintf("Invalid record_type '%s'. Allowed values: %s.", recordType, strings.Join(allowed, ", ")),
		}}
	}
	if recordType != expectedType {
		return []Issue{{
			Code:    "unexpected_record_type_for_location",
			Path:    filepath.ToSlash(path),
			Message: fmt.Sprintf("record_type '%s' does not match expected value '%s' for files under '%s'.", recordType, expectedType, filepath.ToSlash(baseDir)),
		}}
	}
	return nil
}

// checkMaintenanceFields enforces the maintenance payload contract:
// required free-text fields, exactly one of maintenance_id/event_id, and
// the status enum on before/after transitions (absent values are fine).
func checkMaintenanceFields(path string, payload map[string]any) []Issue {
	var issues []Issue

	for _, field := range []string{"started_utc", "service_provider", "reason_details", "action"} {
		if isNonEmptyString(payload[field]) {
			continue
		}
		issues = append(issues, Issue{
			Code:    "missing_maintenance_field",
			Path:    filepath.ToSlash(path),
			Message: fmt.Sprintf("Missing required maintenance field '%s' (must be a non-empty string).", field),
		})
	}

	hasMaintenanceID := isNonEmptyString(payload["maintenance_id"])
	hasEventID := isNonEmptyString(payload["event_id"])
	if hasMaintenanceID == hasEventID {
		issues = append(issues, Issue{
			Code:    "invalid_maintenance_id_shape",
			Path:    filepath.ToSlash(path),
			Message: "Maintenance events must include exactly one ID field: either 'maintenance_id' or 'event_id'.",
		})
	}

	for _, statusKey := range []string{"microscope_status_before", "microscope_status_after"} {
		raw, present := payload[statusKey]
		if !present || raw == nil {
			continue
		}
		value, isStr := raw.(string)
		if !isStr || strings.TrimSpace(value) == "" {
			issues = append(issues, Issue{
				Code:    "invalid_maintenance_status",
				Path:    filepath.ToSlash(path),
				Message: fmt.Sprintf("Invalid %s: expected one of %s.", statusKey, strings.Join(AllowedMaintenanceStatuses, ", ")),
			})
			continue
		}
		if !containsString(AllowedMaintenanceStatuses, strings.TrimSpace(value)) {
			issues = append(issues, Issue{
				Code:    "invalid_maintenance_status",
				Path:    filepath.ToSlash(path),
				Message: fmt.Sprintf("Invalid %s '%s'. Use normalized lowercase values from: %s.", statusKey, value, strings.Join(AllowedMaintenanceStatuses, ", ")),
			})
		}
	}

	return issues
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// startedYear derives the 4-digit event year from started_utc, falling
// back to a YYYY-MM-DD filename prefix. Empty string when neither yields
// a year.
func startedYear(payload map[string]any, path string) string {
	if raw, ok := payload["started_utc"].(string); ok {
		if m := isoYearPattern.FindStringSubmatch(strings.TrimSpace(raw)); m != nil {
			return m[1]
		}
	}
	if m := filenameDatePattern.FindStringSubmatch(fileStem(path)); m != nil {
		return m[1]
	}
	return ""
}

// relativeParts splits path relative to baseDir into path segments, or
// nil when path does not sit under baseDir.
func relativeParts(baseDir, path string) []string {
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil
	}
	return strings.Split(filepath.ToSlash(rel), "/")
}

func hasRetiredSegment(baseDir, path string) bool {
	for _, part := range relativeParts(baseDir, path) {
		if part == "retired" {
			return true
		}
	}
	return false
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isNonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func sortedKeys[M ~map[string][]string](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
