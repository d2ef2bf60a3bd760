package cli

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/tinyprof/prof"
	"github.com/roach88/tinyprof/report"
	"github.com/roach88/tinyprof/report/metrics"
)

// writeMetrics appends snap in the Prometheus text exposition format.
func writeMetrics(w io.Writer, snap prof.Snapshot, mode report.Mode) error {
	reg := prometheus.NewRegistry()
	metrics.NewExporter(reg, metrics.DefaultNamespace).Publish(snap, mode)

	fmt.Fprintln(w)
	if err := metrics.WriteText(w, reg); err != nil {
		return WrapExitError(ExitCommandError, "failed to write metrics", err)
	}
	return nil
}
