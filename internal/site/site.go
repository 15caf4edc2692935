// Package site renders the assembled fleet model into a MkDocs document
// tree: fleet overview, system health, per-instrument spec and history
// pages, and one detail page per event.
//
// Output layout:
//
//	index.md                     — fleet overview table
//	status.md                    — instruments needing attention
//	instruments/<id>/index.md    — specification sheet
//	instruments/<id>/history.md  — QC and maintenance history tables
//	events/<microscope>/<stem>.md — event detail with raw ledger
package site

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"fleetdash/internal/config"
	"fleetdash/internal/event"
	"fleetdash/internal/fleet"
)

// Bundle holds pre-generated page content (path → markdown). Paths are
// relative to the output directory, using forward slashes.
type Bundle struct {
	pages map[string]string
}

// Pages returns the page paths in sorted order.
func (b *Bundle) Pages() []string {
	paths := make([]string, 0, len(b.pages))
	for p := range b.pages {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Page returns the content for one page path.
func (b *Bundle) Page(path string) string {
	return b.pages[path]
}

// Generate builds all dashboard pages from the fleet model. Event detail
// pages embed the raw ledger text; when the source file cannot be read
// back the loaded payload is re-marshalled instead.
func Generate(f *fleet.Fleet, cfg *config.Settings) *Bundle {
	pages := make(map[string]string)

	pages["index.md"] = buildOverviewPage(f)
	pages["status.md"] = buildStatusPage(f)

	for _, view := range f.Instruments {
		pages["instruments/"+view.ID+"/index.md"] = buildSpecPage(view, cfg)
		pages["instruments/"+view.ID+"/history.md"] = buildHistoryPage(view, cfg)

		for _, e := range append(append([]event.Entry{}, view.QCEvents...), view.MaintEvents...) {
			pages["events/"+view.ID+"/"+e.Stem()+".md"] = buildEventPage(view, e, rawLedgerText(e))
		}
	}

	return &Bundle{pages: pages}
}

// Write writes all pages to outputDir in sorted path order, so repeated
// runs over the same model touch files identically.
func Write(bundle *Bundle, outputDir string) error {
	for _, p := range bundle.Pages() {
		abs := filepath.Join(outputDir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", filepath.Dir(abs), err)
		}
		if err := os.WriteFile(abs, []byte(bundle.pages[p]), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", p, err)
		}
	}
	return nil
}

// rawLedgerText reads the event's source file back for verbatim display.
func rawLedgerText(e event.Entry) string {
	data, err := os.ReadFile(e.SourcePath)
	if err == nil {
		return string(data)
	}
	remarshalled, err := yaml.Marshal(e.Payload)
	if err != nil {
		return ""
	}
	return string(remarshalled)
}
