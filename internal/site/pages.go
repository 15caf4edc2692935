package site

// pages.go — markdown builders for the dashboard page tree. All builders
// are pure string assembly; sorting happens here so page content is
// deterministic for a given fleet model.

import (
	"fmt"
	"sort"
	"strings"

	"fleetdash/internal/config"
	"fleetdash/internal/event"
	"fleetdash/internal/fleet"
	"fleetdash/internal/ledger"
	"fleetdash/internal/status"
)

// buildOverviewPage builds index.md — the fleet table with status badges
// and the modality filter list.
func buildOverviewPage(f *fleet.Fleet) string {
	var b strings.Builder
	b.WriteString("# Fleet Overview\n\n")
	b.WriteString(fmt.Sprintf("**%d** instruments — 🟢 %d · 🟡 %d · 🔴 %d\n\n",
		f.Stats.Total, f.Stats.Green, f.Stats.Yellow, f.Stats.Red))

	if len(f.Modalities) > 0 {
		b.WriteString("**Modalities**: " + strings.Join(f.Modalities, ", ") + "\n\n")
	}

	b.WriteString("| Status | Instrument | Manufacturer | Model | Location | Modalities |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, view := range byDisplayName(f.Instruments) {
		b.WriteString(fmt.Sprintf("| %s | [%s](instruments/%s/index.md) | %s | %s | %s | %s |\n",
			view.Status.Badge, view.DisplayName, view.ID,
			view.Manufacturer, view.Model, view.Location,
			strings.Join(view.Modalities, ", ")))
	}
	return b.String()
}

// buildStatusPage builds status.md — only instruments that are red or
// yellow, red first.
func buildStatusPage(f *fleet.Fleet) string {
	var issues []*fleet.InstrumentView
	for _, view := range f.Instruments {
		if view.Status.Color == status.ColorRed || view.Status.Color == status.ColorYellow {
			issues = append(issues, view)
		}
	}
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Status.Color != issues[j].Status.Color {
			return issues[i].Status.Color < issues[j].Status.Color
		}
		return strings.ToLower(issues[i].DisplayName) < strings.ToLower(issues[j].DisplayName)
	})

	var b strings.Builder
	b.WriteString("# System Health\n\n")
	if len(issues) == 0 {
		b.WriteString("All instruments are operational. 🟢\n")
		return b.String()
	}

	b.WriteString("| Status | Instrument | Reason | Last QC | Last maintenance |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, view := range issues {
		b.WriteString(fmt.Sprintf("| %s | [%s](instruments/%s/index.md) | %s | %s | %s |\n",
			view.Status.Badge, view.DisplayName, view.ID,
			view.Status.Reason, orDash(view.Status.LastQCDate), orDash(view.Status.LastMaintDate)))
	}
	return b.String()
}

// buildSpecPage builds instruments/<id>/index.md — the specification
// sheet plus the newest QC snapshot.
func buildSpecPage(view *fleet.InstrumentView, cfg *config.Settings) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", view.DisplayName))
	b.WriteString(fmt.Sprintf("%s · [Service history](history.md)\n\n", view.Status.Badge))

	if view.ImageFilename != "" {
		b.WriteString(fmt.Sprintf("![%s](../../assets/images/%s){ width=320 }\n\n",
			view.DisplayName, view.ImageFilename))
	}

	b.WriteString("## Specification\n\n")
	writeFact(&b, "Manufacturer", view.Manufacturer)
	writeFact(&b, "Model", view.Model)
	writeFact(&b, "Stand orientation", view.StandOrientation)
	writeFact(&b, "Location", view.Location)
	if view.BookingURL != "" {
		b.WriteString(fmt.Sprintf("- **Booking**: <%s>\n", view.BookingURL))
	}
	writeFact(&b, "Modalities", strings.Join(view.Modalities, ", "))
	writeFact(&b, "Modules", strings.Join(view.Modules, ", "))
	if len(view.Contacts) > 0 {
		b.WriteString("- **Contacts**: " + strings.Join(view.Contacts, "; ") + "\n")
	}
	b.WriteString("\n")

	if view.Notes != "" {
		b.WriteString("## Notes\n\n" + view.Notes + "\n\n")
	}

	if len(view.Software) > 0 {
		b.WriteString("## Software\n\n")
		b.WriteString("| Component | Name | Version |\n|---|---|---|\n")
		for _, row := range view.Software {
			name := row.Name
			if row.URL != "" {
				name = fmt.Sprintf("[%s](%s)", row.Name, row.URL)
			}
			b.WriteString(fmt.Sprintf("| %s | %s | %s |\n", row.Component, name, orDash(row.Version)))
		}
		b.WriteString("\n")
	}

	writeHardwareSection(&b, "Light sources", view.Hardware.LightSources)
	writeHardwareSection(&b, "Detectors", view.Hardware.Detectors)
	writeHardwareSection(&b, "Objectives", view.Hardware.Objectives)
	writeHardwareSection(&b, "Splitters", view.Hardware.Splitters)
	writeHardwareSection(&b, "Filters", view.Hardware.Filters)

	if len(view.LatestMetrics) > 0 {
		b.WriteString("## Latest QC\n\n")
		if view.LatestQCOverall != "" {
			b.WriteString(fmt.Sprintf("Overall: **%s** (as of %s)\n\n",
				view.LatestQCOverall, orDash(view.Status.LastQCDate)))
		}
		b.WriteString("| Metric | Value | Unit |\n|---|---|---|\n")
		for _, m := range view.LatestMetrics {
			b.WriteString(fmt.Sprintf("| %s | %v | %s |\n",
				cfg.MetricName(m.MetricID), orDashAny(m.Value), orDash(m.Unit)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// buildHistoryPage builds instruments/<id>/history.md — QC and
// maintenance event tables, newest first, plus per-metric trend tables.
func buildHistoryPage(view *fleet.InstrumentView, cfg *config.Settings) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s — Service History\n\n", view.DisplayName))
	b.WriteString("[Back to specification](index.md)\n\n")

	b.WriteString("## QC sessions\n\n")
	if len(view.QCEvents) == 0 {
		b.WriteString("No QC sessions recorded.\n\n")
	} else {
		b.WriteString("| Date | Session | Reason | Operator | Result |\n|---|---|---|---|---|\n")
		for _, e := range newestFirst(view.QCEvents) {
			evaluation, _ := e.Payload["evaluation"].(map[string]any)
			overall, _ := evaluation["overall_status"].(string)
			b.WriteString(fmt.Sprintf("| %s | [%s](../../events/%s/%s.md) | %s | %s | %s |\n",
				orDash(eventDate(e)), e.Stem(), view.ID, e.Stem(),
				orDashAny(e.Payload["reason"]), orDashAny(e.Payload["performed_by"]), orDash(overall)))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Maintenance events\n\n")
	if len(view.MaintEvents) == 0 {
		b.WriteString("No maintenance events recorded.\n\n")
	} else {
		b.WriteString("| Date | Event | Reason | Provider | Status after |\n|---|---|---|---|---|\n")
		for _, e := range newestFirst(view.MaintEvents) {
			provider := firstString(e.Payload["company"], e.Payload["service_provider"])
			b.WriteString(fmt.Sprintf("| %s | [%s](../../events/%s/%s.md) | %s | %s | %s |\n",
				orDash(eventDate(e)), e.Stem(), view.ID, e.Stem(),
				orDashAny(e.Payload["reason"]), orDash(provider),
				orDashAny(e.Payload["microscope_status_after"])))
		}
		b.WriteString("\n")
	}

	if len(view.Charts) > 0 {
		b.WriteString("## Metric trends\n\n")
		ids := make([]string, 0, len(view.Charts))
		for id := range view.Charts {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			series := view.Charts[id]
			b.WriteString(fmt.Sprintf("### %s\n\n", cfg.MetricName(id)))
			b.WriteString("| Date | Value |\n|---|---|\n")
			for i, label := range series.Labels {
				value := "—"
				if series.Values[i] != nil {
					value = fmt.Sprintf("%g", *series.Values[i])
				}
				b.WriteString(fmt.Sprintf("| %s | %s |\n", label, value))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// buildEventPage builds events/<microscope>/<stem>.md — the structured
// summary followed by the raw ledger.
func buildEventPage(view *fleet.InstrumentView, e event.Entry, rawYAML string) string {
	recordType, _ := e.Payload["record_type"].(string)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", e.Stem()))
	b.WriteString(fmt.Sprintf("[%s](../../instruments/%s/index.md) · %s\n\n",
		view.DisplayName, view.ID, orDash(recordType)))

	writeFact(&b, "Date", eventDate(e))
	actor := firstString(e.Payload["performed_by"], e.Payload["service_provider"], e.Payload["company"])
	writeFact(&b, "Actor", actor)
	writeFactAny(&b, "Reason", e.Payload["reason"])
	writeFactAny(&b, "Action", e.Payload["action"])
	writeFactAny(&b, "Status after", e.Payload["microscope_status_after"])
	writeFactAny(&b, "Summary", e.Payload["summary"])
	b.WriteString("\n")

	if recordType == event.TypeQCSession {
		if evaluation, ok := e.Payload["evaluation"].(map[string]any); ok {
			if overall, ok := evaluation["overall_status"].(string); ok && overall != "" {
				b.WriteString(fmt.Sprintf("## Evaluation — %s\n\n", overall))
			} else {
				b.WriteString("## Evaluation\n\n")
			}
			if results, ok := evaluation["results"].([]any); ok && len(results) > 0 {
				b.WriteString("| Metric | Status | Threshold | Message |\n|---|---|---|---|\n")
				for _, raw := range results {
					r, ok := raw.(map[string]any)
					if !ok {
						continue
					}
					metricID, okID := r["metric_id"].(string)
					resultStatus, okStatus := r["status"].(string)
					if !okID || !okStatus {
						continue
					}
					b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
						metricID, resultStatus, orDashAny(r["threshold"]), orDashAny(r["message"])))
				}
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("## Raw ledger\n\n")
	b.WriteString("```yaml\n")
	b.WriteString(rawYAML)
	if !strings.HasSuffix(rawYAML, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n")
	return b.String()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func byDisplayName(views []*fleet.InstrumentView) []*fleet.InstrumentView {
	sorted := append([]*fleet.InstrumentView{}, views...)
	sort.Slice(sorted, func(i, j int) bool {
		li, lj := strings.ToLower(sorted[i].DisplayName), strings.ToLower(sorted[j].DisplayName)
		if li != lj {
			return li < lj
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func newestFirst(events []event.Entry) []event.Entry {
	reversed := make([]event.Entry, len(events))
	for i, e := range events {
		reversed[len(events)-1-i] = e
	}
	return reversed
}

// eventDate is the display date of an event: taken from the payload's own
// timestamp fields, blank when the event is only dated by its filename.
func eventDate(e event.Entry) string {
	return ledger.PayloadDate(e.Payload)
}

func writeFact(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- **%s**: %s\n", label, value)
}

func writeFactAny(b *strings.Builder, label string, value any) {
	if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
		writeFact(b, label, s)
	}
}

func writeHardwareSection(b *strings.Builder, title string, rows []map[string]any) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %v", k, row[k]))
		}
		fmt.Fprintf(b, "- %s\n", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

func orDashAny(v any) string {
	if v == nil {
		return "—"
	}
	if s, ok := v.(string); ok {
		return orDash(s)
	}
	return fmt.Sprintf("%v", v)
}

func firstString(values ...any) string {
	for _, v := range values {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
