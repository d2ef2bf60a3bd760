package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/tinyprof/internal/config"
	"github.com/roach88/tinyprof/internal/testutil"
	"github.com/roach88/tinyprof/prof"
	"github.com/roach88/tinyprof/report"
)

// Harness is the scenario execution engine.
// It drives a registry with a manual tick source.
type Harness struct {
	registry *prof.Registry
	ticks    *testutil.ManualTicks
	table    *config.GapTable
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
// Registry warnings are discarded.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger executes a scenario, sending registry warnings to logger.
//
// Execution flow:
// 1. Resolve and validate the gap table
// 2. Create a fresh registry on a manual tick source
// 3. Replay events, recording a trace
// 4. Terminate with the table's reference and render the report
// 5. Evaluate assertions
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	if scenario.Config == nil && scenario.Table != "" {
		if err := scenario.resolveTable(); err != nil {
			return nil, err
		}
	}
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	ticks := testutil.NewManualTicks(0)
	h := &Harness{
		registry: prof.NewRegistry(scenario.Config.ProfConfig(ticks.Source(), logger)),
		ticks:    ticks,
		table:    scenario.Config,
		logger:   logger,
	}

	result := NewResult()
	result.Session = testutil.NewFixedSessionGenerator(scenario.Session).Generate()
	for _, ev := range scenario.Events {
		h.replay(ev, result)
	}

	result.Total = h.registry.Terminate(h.table.Ref(h.registry))
	result.Snapshot = h.registry.Snapshot()
	result.Report = report.String(result.Snapshot, h.table.Mode())

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// replay applies one event and records its trace entry.
func (h *Harness) replay(ev Event, result *Result) {
	tick := prof.Tick(ev.At)
	h.ticks.Set(tick)

	if ev.Op == OpInit {
		h.registry.Init()
		result.AddTrace(ev.Op, "", tick, h.registry.Global().Depth, 0)
		return
	}

	g, _ := h.registry.Lookup(ev.Gap)
	switch ev.Op {
	case OpStart:
		h.registry.Start(g)
	case OpStop:
		h.registry.Stop(g)
	case OpSuspend:
		h.registry.Suspend(g)
	case OpResume:
		h.registry.Resume(g)
	}

	rec, _ := h.registry.Record(g)
	result.AddTrace(ev.Op, ev.Gap, tick, h.registry.Global().Depth, rec.Depth)
	h.logger.Debug("replayed event",
		"op", ev.Op,
		"gap", ev.Gap,
		"tick", ev.At,
		"depth", rec.Depth)
}
