// Package fleet assembles the full dashboard model: the instrument
// registry joined with each instrument's event history, derived status,
// and chart series. Assemble is the single read path the site renderer
// consumes.
package fleet

import (
	"sort"
	"strings"
	"time"

	"fleetdash/internal/charts"
	"fleetdash/internal/event"
	"fleetdash/internal/instrument"
	"fleetdash/internal/ledger"
	"fleetdash/internal/logger"
	"fleetdash/internal/status"
)

// InstrumentView is one instrument with everything its pages need.
type InstrumentView struct {
	*instrument.Instrument

	QCEvents    []event.Entry
	MaintEvents []event.Entry
	Status      status.Status
	Charts      map[string]charts.Series

	// LatestMetrics is the metrics_computed list of the newest QC session,
	// nil when the instrument has no QC history.
	LatestMetrics []charts.Metric
	// LatestQCOverall is the newest QC session's evaluation.overall_status.
	LatestQCOverall string
}

// Stats counts instruments per status color.
type Stats struct {
	Total  int
	Green  int
	Yellow int
	Red    int
}

// Fleet is the assembled dashboard model.
type Fleet struct {
	Instruments []*InstrumentView
	Stats       Stats
	// Modalities is the deduplicated union of instrument modalities,
	// sorted case-insensitively.
	Modalities []string
	// LoadErrors aggregates every ledger that failed to load, across the
	// instrument and both event trees.
	LoadErrors []*ledger.LoadError
}

// Options configures an Assemble pass.
type Options struct {
	Instrument  instrument.Options
	QCDir       string
	MaintDir    string
	Now         time.Time
	OverdueDays int
}

// Assemble loads the registry and each instrument's event history, then
// derives status and chart series. Load failures are collected, logged,
// and never abort the pass.
func Assemble(instrumentsDir string, opts Options) *Fleet {
	reg := instrument.LoadRegistry(instrumentsDir, opts.Instrument)

	f := &Fleet{LoadErrors: reg.LoadErrors}
	modalities := make(map[string]bool)

	for _, inst := range reg.Instruments {
		qcEvents, qcErrs := event.LoadForInstrument(opts.QCDir, inst.ID)
		maintEvents, maintErrs := event.LoadForInstrument(opts.MaintDir, inst.ID)
		f.LoadErrors = append(f.LoadErrors, qcErrs...)
		f.LoadErrors = append(f.LoadErrors, maintErrs...)

		latestQC := event.Latest(qcEvents)
		view := &InstrumentView{
			Instrument:  inst,
			QCEvents:    qcEvents,
			MaintEvents: maintEvents,
			Status:      status.Evaluate(latestQC, event.Latest(maintEvents), opts.Now, opts.OverdueDays),
			Charts:      charts.Build(qcEvents),
		}
		if latestQC != nil {
			view.LatestMetrics = charts.MetricsList(latestQC["metrics_computed"])
			if evaluation, ok := latestQC["evaluation"].(map[string]any); ok {
				if overall, ok := evaluation["overall_status"].(string); ok {
					view.LatestQCOverall = strings.ToLower(strings.TrimSpace(overall))
				}
			}
		}

		f.Instruments = append(f.Instruments, view)
		for _, m := range inst.Modalities {
			modalities[m] = true
		}

		f.Stats.Total++
		switch view.Status.Color {
		case status.ColorRed:
			f.Stats.Red++
		case status.ColorYellow:
			f.Stats.Yellow++
		default:
			f.Stats.Green++
		}
	}

	for m := range modalities {
		f.Modalities = append(f.Modalities, m)
	}
	sort.Slice(f.Modalities, func(i, j int) bool {
		li, lj := strings.ToLower(f.Modalities[i]), strings.ToLower(f.Modalities[j])
		if li != lj {
			return li < lj
		}
		return f.Modalities[i] < f.Modalities[j]
	})

	for _, loadErr := range f.LoadErrors {
		logger.Warn().Str("path", loadErr.Path).Msg(loadErr.Message)
	}

	return f
}

// ByID returns the view for an instrument id, or nil.
func (f *Fleet) ByID(id string) *InstrumentView {
	for _, view := range f.Instruments {
		if view.ID == id {
			return view
		}
	}
	return nil
}
