// Package status derives the red/yellow/green fleet-health summary of one
// instrument from its newest QC and maintenance events. Evaluate is a pure
// projection: no event data is read from disk or mutated.
package status

import (
	"fmt"
	"strings"
	"time"

	"fleetdash/internal/ledger"
)

// Status colors, in descending severity.
const (
	ColorRed    = "red"
	ColorYellow = "yellow"
	ColorGreen  = "green"
)

// Maintenance status values allowed in microscope_status_before/after.
const (
	MaintInService    = "in_service"
	MaintLimited      = "limited"
	MaintOutOfService = "out_of_service"
)

// Status is the derived health summary of one instrument.
type Status struct {
	Color         string
	Badge         string
	Reason        string
	LastQCDate    string
	LastMaintDate string
}

// Evaluate derives the status from the newest QC and maintenance payloads
// (either may be nil). Rules fire in priority order, first match wins:
//
//  1. red when maintenance left the instrument out_of_service or the QC
//     overall status is fail
//  2. yellow when maintenance limited the instrument or QC warned
//  3. yellow when the newest QC is older than overdueDays (disabled at 0)
//  4. green otherwise — including the no-history-at-all case
func Evaluate(latestQC, latestMaint map[string]any, now time.Time, overdueDays int) Status {
	lastQC, hasQC := ledger.ParseISO(latestQC["started_utc"])
	lastMaint, _ := ledger.ParseISO(latestMaint["started_utc"])

	st := Status{}
	if hasQC {
		st.LastQCDate = lastQC.Format("2006-01-02")
	}
	if !lastMaint.IsZero() {
		st.LastMaintDate = lastMaint.Format("2006-01-02")
	}

	maintStatus, maintReason := maintSummary(latestMaint)
	qcStatus, qcReason := qcSummary(latestQC)

	switch {
	case maintStatus == MaintOutOfService || qcStatus == "fail":
		st.Color = ColorRed
		st.Badge = "🔴 Offline"
		st.Reason = firstNonEmpty(maintReason, qcReason, "Out of service")
	case maintStatus == MaintLimited || qcStatus == "warn":
		st.Color = ColorYellow
		st.Badge = "🟡 Warning"
		st.Reason = firstNonEmpty(maintReason, qcReason, "Limited operation")
	case overdueDays > 0 && hasQC && !lastQC.After(now.AddDate(0, 0, -overdueDays)):
		st.Color = ColorYellow
		st.Badge = "🟡 Warning"
		st.Reason = fmt.Sprintf("QC overdue (> %d days)", overdueDays)
	default:
		st.Color = ColorGreen
		st.Badge = "🟢 Online"
		st.Reason = "Operational"
	}
	return st
}

// maintSummary extracts the normalized status_after value and the first
// present reason text (reason_details, action_details, action).
func maintSummary(latestMaint map[string]any) (string, string) {
	if latestMaint == nil {
		return "", ""
	}
	var maintStatus string
	if raw, ok := latestMaint["microscope_status_after"].(string); ok {
		maintStatus = strings.ToLower(strings.TrimSpace(raw))
	}
	var reason string
	for _, key := range []string{"reason_details", "action_details", "action"} {
		if v, ok := latestMaint[key].(string); ok && strings.TrimSpace(v) != "" {
			reason = strings.TrimSpace(v)
			break
		}
	}
	return maintStatus, reason
}

// qcSummary extracts the normalized evaluation.overall_status and the first
// per-metric result message.
func qcSummary(latestQC map[string]any) (string, string) {
	evaluation, ok := latestQC["evaluation"].(map[string]any)
	if !ok {
		return "", ""
	}
	var qcStatus string
	if raw, isStr := evaluation["overall_status"].(string); isStr {
		qcStatus = strings.ToLower(strings.TrimSpace(raw))
	}
	var reason string
	if results, isList := evaluation["results"].([]any); isList && len(results) > 0 {
		if first, isMap := results[0].(map[string]any); isMap {
			if msg, isStr := first["message"].(string); isStr && strings.TrimSpace(msg) != "" {
				reason = strings.TrimSpace(msg)
			}
		}
	}
	return qcStatus, reason
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
