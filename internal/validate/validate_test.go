package validate

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLedger(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func codes(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.Code)
	}
	return out
}

func findIssue(t *testing.T, issues []Issue, code string) Issue {
	t.Helper()
	for _, issue := range issues {
		if issue.Code == code {
			return issue
		}
	}
	t.Fatalf("no issue with code %q in %v", code, codes(issues))
	return Issue{}
}

const validInstrument = "instrument:\n  instrument_id: scope-a\n  display_name: Scope A\n"

func maintenanceDoc(extra string) string {
	return "microscope: scope-a\nrecord_type: maintenance_event\n" +
		"started_utc: 2026-03-15T09:00:00Z\nservice_provider: Vendor GmbH\n" +
		"reason_details: laser fault\naction: replaced laser\n" + extra
}

// ---------------------------------------------------------------------------
// Instrument half
// ---------------------------------------------------------------------------

func TestRegistry_ValidTree(t *testing.T) {
	dir := t.TempDir()
	writeLedger(t, filepath.Join(dir, "scope-a.yaml"), validInstrument)
	writeLedger(t, filepath.Join(dir, "scope-b.yaml"),
		"instrument:\n  instrument_id: scope-b\n")

	ids, issues := Registry(dir)
	assert.Empty(t, issues)
	assert.Equal(t, map[string]bool{"scope-a": true, "scope-b": true}, ids)
}

func TestRegistry_IdentityFailures(t *testing.T) {
	dir := t.TempDir()
	writeLedger(t, filepath.Join(dir, "broken.yaml"), "a: [unclosed\n")
	writeLedger(t, filepath.Join(dir, "no-section.yaml"), "display_name: Orphan\n")
	writeLedger(t, filepath.Join(dir, "no-id.yaml"), "instrument:\n  display_name: Nameless\n")
	writeLedger(t, filepath.Join(dir, "bad-id.yaml"), "instrument:\n  instrument_id: Scope_A\n")

	ids, issues := Registry(dir)
	assert.Empty(t, ids)
	assert.ElementsMatch(t, []string{
		"yaml_parse_error",
		"missing_instrument_section",
		"missing_instrument_id",
		"invalid_instrument_id",
	}, codes(issues))
}

func TestRegistry_DuplicateIDNamesBothFiles(t *testing.T) {
	dir := t.TempDir()
	writeLedger(t, filepath.Join(dir, "first.yaml"), validInstrument)
	writeLedger(t, filepath.Join(dir, "second.yaml"), validInstrument)

	ids, issues := Registry(dir)
	assert.True(t, ids["scope-a"])

	require.Len(t, issues, 1)
	dup := issues[0]
	assert.Equal(t, "duplicate_instrument_id", dup.Code)
	assert.Equal(t, "scope-a", dup.Path)
	assert.Contains(t, dup.Message, "first.yaml")
	assert.Contains(t, dup.Message, "second.yaml")
}

func TestRegistry_SkipsRetired(t *testing.T) {
	dir := t.TempDir()
	writeLedger(t, filepath.Join(dir, "scope-a.yaml"), validInstrument)
	writeLedger(t, filepath.Join(dir, "retired", "old.yaml"),
		"instrument:\n  instrument_id: Broken Beyond Repair\n")

	ids, issues := Registry(dir)
	assert.Empty(t, issues)
	assert.Len(t, ids, 1)
}

// ---------------------------------------------------------------------------
// Event half
// ---------------------------------------------------------------------------

func TestEvents_WellPlacedTree(t *testing.T) {
	qcDir, maintDir := t.TempDir(), t.TempDir()
	writeLedger(t, filepath.Join(qcDir, "scope-a", "2026", "2026-03-10_monthly.yaml"),
		"microscope: scope-a\nrecord_type: qc_session\nstarted_utc: 2026-03-10T09:00:00Z\n")
	writeLedger(t, filepath.Join(maintDir, "scope-a", "2026", "2026-03-15_repair.yaml"),
		maintenanceDoc("maintenance_id: MAINT-2026-001\n"))

	issues := Events(map[string]bool{"scope-a": true}, qcDir, maintDir)
	assert.Empty(t, issues)
}

func TestEvents_UnknownMicroscope(t *testing.T) {
	qcDir := t.TempDir()
	writeLedger(t, filepath.Join(qcDir, "scope-x", "2026", "s.yaml"),
		"microscope: scope-x\nrecord_type: qc_session\nstarted_utc: 2026-01-01T00:00:00Z\n")

	issues := Events(map[string]bool{"scope-a": true, "scope-b": true}, qcDir, t.TempDir())
	unknown := findIssue(t, issues, "unknown_microscope")
	assert.Contains(t, unknown.Message, "scope-a, scope-b")
}

func TestEvents_MicroscopeMismatchWithPath(t *testing.T) {
	qcDir := t.TempDir()
	writeLedger(t, filepath.Join(qcDir, "scope-a", "2026", "s.yaml"),
		"microscope: scope-b\nrecord_type: qc_session\nstarted_utc: 2026-01-01T00:00:00Z\n")

	issues := Events(map[string]bool{"scope-a": true, "scope-b": true}, qcDir, t.TempDir())
	mismatch := findIssue(t, issues, "microscope_mismatch_with_path")
	assert.Contains(t, mismatch.Message, "'scope-a'")
	assert.Contains(t, mismatch.Message, "'scope-b'")
}

func TestEvents_PathStructureAndYear(t *testing.T) {
	ids := map[string]bool{"scope-a": true}

	t.Run("too shallow", func(t *testing.T) {
		qcDir := t.TempDir()
		writeLedger(t, filepath.Join(qcDir, "stray.yaml"),
			"microscope: scope-a\nrecord_type: qc_session\nstarted_utc: 2026-01-01T00:00:00Z\n")
		issues := Events(ids, qcDir, t.TempDir())
		findIssue(t, issues, "invalid_event_path_structure")
	})

	t.Run("bad year folder", func(t *testing.T) {
		qcDir := t.TempDir()
		writeLedger(t, filepath.Join(qcDir, "scope-a", "latest", "s.yaml"),
			"microscope: scope-a\nrecord_type: qc_session\nstarted_utc: 2026-01-01T00:00:00Z\n")
		issues := Events(ids, qcDir, t.TempDir())
		findIssue(t, issues, "invalid_event_year_folder")
	})

	t.Run("no year source", func(t *testing.T) {
		qcDir := t.TempDir()
		writeLedger(t, filepath.Join(qcDir, "scope-a", "2026", "undated.yaml"),
			"microscope: scope-a\nrecord_type: qc_session\n")
		issues := Events(ids, qcDir, t.TempDir())
		findIssue(t, issues, "missing_event_year_source")
	})

	t.Run("year mismatch", func(t *testing.T) {
		qcDir := t.TempDir()
		writeLedger(t, filepath.Join(qcDir, "scope-a", "2025", "s.yaml"),
			"microscope: scope-a\nrecord_type: qc_session\nstarted_utc: 2026-01-01T00:00:00Z\n")
		issues := Events(ids, qcDir, t.TempDir())
		mismatch := findIssue(t, issues, "year_mismatch_with_path")
		assert.Contains(t, mismatch.Message, "'2025'")
		assert.Contains(t, mismatch.Message, "'2026'")
	})

	t.Run("filename date fallback satisfies year check", func(t *testing.T) {
		qcDir := t.TempDir()
		writeLedger(t, filepath.Join(qcDir, "scope-a", "2026", "2026-03-10_monthly.yaml"),
			"microscope: scope-a\nrecord_type: qc_session\n")
		issues := Events(ids, qcDir, t.TempDir())
		assert.Empty(t, issues)
	})
}

func TestEvents_RecordTypeChecks(t *testing.T) {
	ids := map[string]bool{"scope-a": true}

	t.Run("missing", func(t *testing.T) {
		qcDir := t.TempDir()
		writeLedger(t, filepath.Join(qcDir, "scope-a", "2026", "2026-01-01_s.yaml"),
			"microscope: scope-a\n")
		issues := Events(ids, qcDir, t.TempDir())
		assert.Equal(t, []string{"missing_record_type"}, codes(issues))
	})

	t.Run("invalid", func(t *testing.T) {
		qcDir := t.TempDir()
		writeLedger(t, filepath.Join(qcDir, "scope-a", "2026", "2026-01-01_s.yaml"),
			"microscope: scope-a\nrecord_type: calibration_run\n")
		issues := Events(ids, qcDir, t.TempDir())
		invalid := findIssue(t, issues, "invalid_record_type")
		assert.Contains(t, invalid.Message, "maintenance_event, qc_session")
	})

	t.Run("wrong tree", func(t *testing.T) {
		qcDir := t.TempDir()
		writeLedger(t, filepath.Join(qcDir, "scope-a", "2026", "2026-03-15_repair.yaml"),
			maintenanceDoc("maintenance_id: MAINT-1\n"))
		issues := Events(ids, qcDir, t.TempDir())
		assert.Equal(t, []string{"unexpected_record_type_for_location"}, codes(issues))
	})
}

func TestEvents_MaintenanceFieldChecks(t *testing.T) {
	ids := map[string]bool{"scope-a": true}

	t.Run("missing required fields", func(t *testing.T) {
		maintDir := t.TempDir()
		writeLedger(t, filepath.Join(maintDir, "scope-a", "2026", "2026-03-15_r.yaml"),
			"microscope: scope-a\nrecord_type: maintenance_event\nstarted_utc: 2026-03-15T09:00:00Z\nmaintenance_id: M-1\n")
		issues := Events(ids, t.TempDir(), maintDir)
		missing := 0
		for _, issue := range issues {
			if issue.Code == "missing_maintenance_field" {
				missing++
			}
		}
		assert.Equal(t, 3, missing, "service_provider, reason_details, action")
	})

	t.Run("both id fields present", func(t *testing.T) {
		maintDir := t.TempDir()
		writeLedger(t, filepath.Join(maintDir, "scope-a", "2026", "2026-03-15_r.yaml"),
			maintenanceDoc("maintenance_id: M-1\nevent_id: E-1\n"))
		issues := Events(ids, t.TempDir(), maintDir)
		assert.Equal(t, []string{"invalid_maintenance_id_shape"}, codes(issues))
	})

	t.Run("neither id field present", func(t *testing.T) {
		maintDir := t.TempDir()
		writeLedger(t, filepath.Join(maintDir, "scope-a", "2026", "2026-03-15_r.yaml"),
			maintenanceDoc(""))
		issues := Events(ids, t.TempDir(), maintDir)
		assert.Equal(t, []string{"invalid_maintenance_id_shape"}, codes(issues))
	})

	t.Run("status enum", func(t *testing.T) {
		maintDir := t.TempDir()
		writeLedger(t, filepath.Join(maintDir, "scope-a", "2026", "2026-03-15_r.yaml"),
			maintenanceDoc("maintenance_id: M-1\nmicroscope_status_after: Broken\n"))
		issues := Events(ids, t.TempDir(), maintDir)
		bad := findIssue(t, issues, "invalid_maintenance_status")
		assert.Contains(t, bad.Message, "in_service, limited, out_of_service")
	})

	t.Run("absent status fields allowed", func(t *testing.T) {
		maintDir := t.TempDir()
		writeLedger(t, filepath.Join(maintDir, "scope-a", "2026", "2026-03-15_r.yaml"),
			maintenanceDoc("event_id: E-1\n"))
		issues := Events(ids, t.TempDir(), maintDir)
		assert.Empty(t, issues)
	})
}

// A QC session and a maintenance event with the same microscope and
// filename stem would render to the same page; exactly one issue names
// both sources.
func TestEvents_DuplicateOutputPathAcrossTrees(t *testing.T) {
	qcDir, maintDir := t.TempDir(), t.TempDir()
	qcPath := filepath.Join(qcDir, "scope-a", "2026", "2026-03-15_visit.yaml")
	maintPath := filepath.Join(maintDir, "scope-a", "2026", "2026-03-15_visit.yaml")
	writeLedger(t, qcPath,
		"microscope: scope-a\nrecord_type: qc_session\nstarted_utc: 2026-03-15T09:00:00Z\n")
	writeLedger(t, maintPath, maintenanceDoc("maintenance_id: M-1\n"))

	issues := Events(map[string]bool{"scope-a": true}, qcDir, maintDir)
	require.Len(t, issues, 1)
	dup := issues[0]
	assert.Equal(t, "duplicate_event_output_path", dup.Code)
	assert.Equal(t, "events/scope-a/2026-03-15_visit.md", dup.Path)
	assert.Contains(t, dup.Message, filepath.ToSlash(qcPath))
	assert.Contains(t, dup.Message, filepath.ToSlash(maintPath))
}

func TestRun_CombinesBothHalves(t *testing.T) {
	root := t.TempDir()
	instDir := filepath.Join(root, "instruments")
	qcDir := filepath.Join(root, "qc", "sessions")
	writeLedger(t, filepath.Join(instDir, "bad.yaml"), "instrument:\n  instrument_id: BAD\n")
	writeLedger(t, filepath.Join(qcDir, "scope-a", "2026", "2026-01-01_s.yaml"),
		"microscope: scope-a\nrecord_type: qc_session\n")

	issues := Run(instDir, qcDir, filepath.Join(root, "maintenance", "events"))
	assert.Contains(t, codes(issues), "invalid_instrument_id")
	assert.Contains(t, codes(issues), "unknown_microscope")
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, nil)
	assert.Empty(t, buf.String())

	PrintReport(&buf, []Issue{
		{Code: "missing_microscope", Path: "qc/sessions/x.yaml", Message: "Missing required 'microscope' field."},
	})
	out := buf.String()
	assert.Contains(t, out, "Validation failures detected:")
	assert.Contains(t, out, "1. [missing_microscope] qc/sessions/x.yaml")
	assert.Contains(t, out, "Total validation failures: 1")
}
