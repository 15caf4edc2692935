// Package charts pivots an instrument's time-ordered QC events into
// per-metric label/value series for downstream charting. Metric ids are
// opaque keys here; display names are renderer configuration.
package charts

import (
	"sort"
	"strings"

	"fleetdash/internal/event"
	"fleetdash/internal/ledger"
)

// Metric is one normalized metrics_computed row.
type Metric struct {
	MetricID string
	Value    any
	Unit     string
	Details  string
}

// Series is a parallel pair of date labels and values for one metric.
// A nil value marks an event that did not report the metric (or reported a
// non-numeric value); lengths are always equal.
type Series struct {
	Labels []string
	Values []*float64
}

// MetricsList normalizes a payload's metrics_computed sequence, dropping
// entries without a usable metric_id. Wrong-shaped input yields nil.
func MetricsList(metricsComputed any) []Metric {
	list, ok := metricsComputed.([]any)
	if !ok {
		return nil
	}
	var out []Metric
	for _, item := range list {
		entry, isMap := item.(map[string]any)
		if !isMap {
			continue
		}
		id, isStr := entry["metric_id"].(string)
		if !isStr || strings.TrimSpace(id) == "" {
			continue
		}
		m := Metric{MetricID: strings.TrimSpace(id), Value: entry["value"]}
		if unit, isStr := entry["unit"].(string); isStr {
			m.Unit = unit
		}
		if details, isStr := entry["details"].(string); isStr {
			m.Details = details
		}
		out = append(out, m)
	}
	return out
}

// Build pivots time-sorted QC events into {metric_id: series}. Every metric
// seen anywhere in the series gets one value slot per charted event, in
// event order; metrics that never yield a numeric value are dropped. Events
// without a parseable started_utc are skipped entirely (no date label to
// plot against). Metric ids iterate sorted, so output is deterministic.
func Build(qcEvents []event.Entry) map[string]Series {
	type point struct {
		label  string
		values map[string]any
	}

	metricIDs := make(map[string]bool)
	var points []point

	for _, e := range qcEvents {
		t, ok := ledger.ParseISO(e.Payload["started_utc"])
		if !ok {
			continue
		}
		values := make(map[string]any)
		for _, m := range MetricsList(e.Payload["metrics_computed"]) {
			metricIDs[m.MetricID] = true
			values[m.MetricID] = m.Value
		}
		points = append(points, point{label: t.Format("2006-01-02"), values: values})
	}

	ids := make([]string, 0, len(metricIDs))
	for id := range metricIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	charts := make(map[string]Series)
	for _, id := range ids {
		series := Series{
			Labels: make([]string, 0, len(points)),
			Values: make([]*float64, 0, len(points)),
		}
		seen := false
		for _, p := range points {
			series.Labels = append(series.Labels, p.label)
			v := numeric(p.values[id])
			if v != nil {
				seen = true
			}
			series.Values = append(series.Values, v)
		}
		if seen {
			charts[id] = series
		}
	}
	return charts
}

// numeric returns the value as a float pointer when it is a YAML number;
// anything else is an absent point, not an error.
func numeric(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case float64:
		f = n
	default:
		return nil
	}
	return &f
}
