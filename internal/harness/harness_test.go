package harness

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tinyprof/internal/config"
	"github.com/roach88/tinyprof/prof"
)

func u64(v uint64) *uint64 { return &v }
func i32(v int32) *int32   { return &v }
func boolp(v bool) *bool   { return &v }
func f64(v float64) *float64 {
	return &v
}

func inlineScenario(gaps []string, events ...Event) *Scenario {
	return &Scenario{
		Name:        "inline",
		Description: "inline scenario",
		Config:      &config.GapTable{Gaps: gaps},
		Events:      events,
	}
}

func TestRun_NestedScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/nested_main.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, prof.Tick(20), result.Total)
	assert.Equal(t, "test-session-default", result.Session)
	assert.Contains(t, result.Report, "tiny-prof statistics:")
}

func TestRun_Trace(t *testing.T) {
	s := inlineScenario([]string{"a", "b"},
		Event{Op: OpStart, Gap: "a", At: 0},
		Event{Op: OpStart, Gap: "b", At: 3},
		Event{Op: OpStart, Gap: "b", At: 4},
		Event{Op: OpStop, Gap: "b", At: 5},
		Event{Op: OpStop, Gap: "b", At: 6},
		Event{Op: OpStop, Gap: "a", At: 9},
	)

	result, err := Run(s)
	require.NoError(t, err)

	require.Len(t, result.Trace, 6)
	assert.Equal(t, TraceEvent{Seq: 1, Op: OpStart, Gap: "a", Tick: 0, GlobalDepth: 1, LocalDepth: 1}, result.Trace[0])
	assert.Equal(t, TraceEvent{Seq: 3, Op: OpStart, Gap: "b", Tick: 4, GlobalDepth: 3, LocalDepth: 2}, result.Trace[2])
	assert.Equal(t, TraceEvent{Seq: 6, Op: OpStop, Gap: "a", Tick: 9, GlobalDepth: 0, LocalDepth: 0}, result.Trace[5])

	b, ok := result.Snapshot.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, prof.Tick(3), b.Cumulative)
	assert.Equal(t, int32(2), b.MaxRecursion)
	assert.Equal(t, prof.Tick(12), result.Total)
}

func TestRun_SuspendResume(t *testing.T) {
	s := inlineScenario([]string{"main", "io"},
		Event{Op: OpStart, Gap: "main", At: 0},
		Event{Op: OpStart, Gap: "io", At: 0},
		Event{Op: OpSuspend, Gap: "io", At: 5},
		Event{Op: OpResume, Gap: "io", At: 15},
		Event{Op: OpStop, Gap: "io", At: 18},
		Event{Op: OpStop, Gap: "main", At: 20},
	)
	s.Assertions = []Assertion{
		{Type: AssertGap, Gap: "io", Ticks: u64(5 + 8), Count: u64(1), Min: u64(8), Max: u64(8)},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_InitResets(t *testing.T) {
	s := inlineScenario([]string{"a"},
		Event{Op: OpStart, Gap: "a", At: 0},
		Event{Op: OpStop, Gap: "a", At: 50},
		Event{Op: OpInit, At: 60},
		Event{Op: OpStart, Gap: "a", At: 60},
		Event{Op: OpStop, Gap: "a", At: 65},
	)
	s.Assertions = []Assertion{
		{Type: AssertGap, Gap: "a", Ticks: u64(5), Count: u64(1)},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, TraceEvent{Seq: 3, Op: OpInit, Tick: 60}, result.Trace[2])
}

func TestRun_Anomalies(t *testing.T) {
	s := inlineScenario([]string{"a", "b"},
		Event{Op: OpStart, Gap: "a", At: 0},
		Event{Op: OpStart, Gap: "b", At: 1},
		Event{Op: OpStop, Gap: "a", At: 2},
		Event{Op: OpStop, Gap: "b", At: 3},
		Event{Op: OpStop, Gap: "b", At: 4},
	)
	s.Assertions = []Assertion{
		{Type: AssertGlobal, OuterViolated: boolp(true), StackUnderrun: boolp(true), GlobalDepth: i32(-1)},
		{Type: AssertGap, Gap: "b", Underrun: boolp(true), Depth: i32(-1), Percentage: f64(-1)},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, result.Report, "outer is incorrect")
	assert.Contains(t, result.Report, "stack underrun")
}

func TestRunWithLogger_ForwardsWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := inlineScenario([]string{"a"}, Event{Op: OpStop, Gap: "a", At: 0})
	_, err := RunWithLogger(s, logger)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "level=WARN")
}

func TestRun_ResolvesTableWhenConfigMissing(t *testing.T) {
	s := &Scenario{
		Name:        "programmatic",
		Description: "table path set without LoadScenario",
		Table:       "testdata/tables/work.cue",
		Events:      []Event{{Op: OpStart, Gap: "work", At: 0}, {Op: OpStop, Gap: "work", At: 7}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, prof.Tick(7), result.Total)
}

func TestRun_InvalidScenario(t *testing.T) {
	_, err := Run(&Scenario{Name: "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scenario")
}

func TestRun_Width32Wraparound(t *testing.T) {
	s := inlineScenario([]string{"a"},
		Event{Op: OpStart, Gap: "a", At: 0xFFFFFFF0},
		Event{Op: OpStop, Gap: "a", At: 0x1_0000_0010},
	)
	s.Config.TickWidth = 32
	s.Assertions = []Assertion{{Type: AssertGap, Gap: "a", Ticks: u64(0x20)}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
