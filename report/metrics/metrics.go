// Package metrics publishes profiler snapshots as Prometheus gauges.
//
// Publish reads a Snapshot, which is a copy, so it may run on any goroutine
// while the instrumented code keeps its single call stack.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/tinyprof/prof"
	"github.com/roach88/tinyprof/report"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "tinyprof"

// Exporter holds one gauge per reported column.
type Exporter struct {
	ticks        *prometheus.GaugeVec
	invocations  *prometheus.GaugeVec
	minTicks     *prometheus.GaugeVec
	maxTicks     *prometheus.GaugeVec
	averageTicks *prometheus.GaugeVec
	percentage   *prometheus.GaugeVec
	maxRecursion *prometheus.GaugeVec
	gapUnderrun  *prometheus.GaugeVec

	outerViolated prometheus.Gauge
	stackUnderrun prometheus.Gauge
}

// NewExporter registers the gauges with reg under namespace.
func NewExporter(reg prometheus.Registerer, namespace string) *Exporter {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)
	gapVec := func(name, help string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gap",
			Name:      name,
			Help:      help,
		}, []string{"gap"})
	}

	return &Exporter{
		ticks:        gapVec("ticks", "cumulative ticks spent in the gap"),
		invocations:  gapVec("invocations", "number of outermost entries into the gap"),
		minTicks:     gapVec("min_ticks", "shortest invocation in ticks, 0 before the first"),
		maxTicks:     gapVec("max_ticks", "longest invocation in ticks"),
		averageTicks: gapVec("average_ticks", "average ticks per invocation as reported"),
		percentage:   gapVec("percentage", "share of the reference total, -1 when nesting was inconsistent"),
		maxRecursion: gapVec("max_recursion", "deepest recursion seen"),
		gapUnderrun:  gapVec("underrun", "1 if the gap was stopped more often than started"),
		outerViolated: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outer_violated",
			Help:      "1 if the outer gap consistency check failed",
		}),
		stackUnderrun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stack_underrun",
			Help:      "1 if the global depth went negative",
		}),
	}
}

// Publish sets every gauge from snap. The average column follows mode.
func (e *Exporter) Publish(snap prof.Snapshot, mode report.Mode) {
	e.outerViolated.Set(flag(snap.Global.OuterViolated))
	e.stackUnderrun.Set(flag(snap.Global.Underrun))

	for _, g := range snap.Gaps {
		if !g.Gap.Enabled() {
			continue
		}
		e.ticks.WithLabelValues(g.Name).Set(float64(g.Cumulative))
		e.invocations.WithLabelValues(g.Name).Set(float64(g.Count))
		e.minTicks.WithLabelValues(g.Name).Set(float64(report.MinTicks(g.Record)))
		e.maxTicks.WithLabelValues(g.Name).Set(float64(g.Max))
		e.averageTicks.WithLabelValues(g.Name).Set(float64(report.AverageTicks(g.Record, mode)))
		e.percentage.WithLabelValues(g.Name).Set(g.Percentage)
		e.maxRecursion.WithLabelValues(g.Name).Set(float64(g.MaxRecursion))
		e.gapUnderrun.WithLabelValues(g.Name).Set(flag(g.Underrun))
	}
}

// WriteText gathers g and writes the metric families in the Prometheus
// text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
