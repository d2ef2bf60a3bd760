package prof_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tinyprof/internal/testutil"
	"github.com/roach88/tinyprof/prof"
)

// newRegistry builds a registry over a manual tick source starting at 0.
func newRegistry(t *testing.T, names ...string) (*prof.Registry, *testutil.ManualTicks) {
	t.Helper()
	ticks := testutil.NewManualTicks(0)
	reg := prof.NewRegistry(prof.Config{Names: names, Ticks: ticks.Source()})
	require.Equal(t, len(names), reg.Len())
	return reg, ticks
}

func record(t *testing.T, reg *prof.Registry, g prof.Gap) prof.Record {
	t.Helper()
	rec, ok := reg.Record(g)
	require.True(t, ok)
	return rec
}

func TestInit_Baseline(t *testing.T) {
	reg, _ := newRegistry(t, "a", "b")

	for i := 0; i < reg.Len(); i++ {
		rec := record(t, reg, prof.GapID(i))
		assert.Equal(t, prof.Width64.Max(), rec.Min)
		assert.Equal(t, prof.Width64.Max(), rec.SecondMin)
		assert.Zero(t, rec.Max)
		assert.Zero(t, rec.SecondMax)
		assert.Zero(t, rec.Count)
		assert.Zero(t, rec.Cumulative)
		assert.Zero(t, rec.Depth)
		assert.False(t, rec.Outer)
		assert.False(t, rec.Suspended)
		assert.False(t, rec.Underrun)
		assert.False(t, rec.Sampled())
	}
	assert.Equal(t, prof.GlobalState{}, reg.Global())
}

func TestInit_ResetsSession(t *testing.T) {
	reg, ticks := newRegistry(t, "a")
	a := prof.GapID(0)

	reg.Stop(a) // underrun
	reg.Start(a)
	reg.Start(a)
	ticks.Set(9)
	reg.Stop(a)
	require.True(t, reg.Global().Underrun)

	reg.Init()

	assert.Equal(t, prof.GlobalState{}, reg.Global())
	rec := record(t, reg, a)
	assert.False(t, rec.Underrun)
	assert.Zero(t, rec.Count)
	assert.Zero(t, rec.Depth)
	assert.Equal(t, prof.Width64.Max(), rec.Min)
}

func TestStartStop_CountsPairedInvocations(t *testing.T) {
	reg, ticks := newRegistry(t, "a")
	a := prof.GapID(0)

	const n = 7
	for i := 0; i < n; i++ {
		reg.Start(a)
		ticks.Advance(3)
		reg.Stop(a)
		ticks.Advance(1)
	}

	rec := record(t, reg, a)
	assert.Equal(t, uint64(n), rec.Count)
	assert.Equal(t, prof.Tick(3*n), rec.Cumulative)
	assert.Equal(t, prof.Tick(3), rec.Min)
	assert.Equal(t, prof.Tick(3), rec.Max)
	assert.Equal(t, int32(1), rec.MaxRecursion)
	assert.Zero(t, rec.Depth)
	assert.False(t, reg.Global().OuterViolated)
}

func TestStartStop_ReadsTicksOnlyAtOuterTransitions(t *testing.T) {
	reg, ticks := newRegistry(t, "main", "a")
	main, a := prof.GapID(0), prof.GapID(1)

	reg.Start(main) // read
	reg.Start(a)    // read
	reg.Start(a)
	reg.Start(a)
	reg.Stop(a)
	reg.Stop(a)
	reg.Stop(a)    // read
	reg.Stop(main) // read

	assert.Equal(t, 4, ticks.Reads())
}

func TestStartStop_Recursion(t *testing.T) {
	reg, ticks := newRegistry(t, "main", "a")
	main, a := prof.GapID(0), prof.GapID(1)

	reg.Start(main)
	ticks.Set(10)
	reg.Start(a)
	ticks.Set(12)
	reg.Start(a)
	ticks.Set(20)
	reg.Stop(a)
	ticks.Set(25)
	reg.Stop(a)
	ticks.Set(30)
	reg.Stop(main)

	rec := record(t, reg, a)
	assert.Equal(t, uint64(1), rec.Count)
	assert.Equal(t, int32(2), rec.MaxRecursion)
	assert.Equal(t, prof.Tick(15), rec.Cumulative, "only the outermost span counts")
	assert.Equal(t, prof.Tick(15), rec.Min)
	assert.Equal(t, prof.Tick(15), rec.Max)
	assert.False(t, reg.Global().OuterViolated)
	assert.Zero(t, reg.Global().Depth)
}

func TestStartStop_RecursionOfOuterGapFlagsViolation(t *testing.T) {
	reg, ticks := newRegistry(t, "a")
	a := prof.GapID(0)

	reg.Start(a)
	reg.Start(a)
	ticks.Set(4)
	reg.Stop(a)
	reg.Stop(a)

	rec := record(t, reg, a)
	assert.Equal(t, uint64(1), rec.Count)
	assert.Equal(t, int32(2), rec.MaxRecursion)
	assert.Equal(t, prof.Tick(4), rec.Cumulative)
	assert.True(t, reg.Global().OuterViolated, "outer gap re-entered while open")
}

func TestStartStop_NoRecursionTracking(t *testing.T) {
	ticks := testutil.NewManualTicks(0)
	reg := prof.NewRegistry(prof.Config{
		Names:               []string{"a"},
		Ticks:               ticks.Source(),
		NoRecursionTracking: true,
	})
	a := prof.GapID(0)

	reg.Start(a)
	reg.Start(a)
	reg.Stop(a)
	reg.Stop(a)

	assert.Zero(t, record(t, reg, a).MaxRecursion)
}

func TestOuter_CleanSession(t *testing.T) {
	reg, ticks := newRegistry(t, "main", "a", "b")
	main, a, b := prof.GapID(0), prof.GapID(1), prof.GapID(2)

	reg.Start(main)
	assert.True(t, record(t, reg, main).Outer)

	reg.Start(a)
	assert.False(t, record(t, reg, a).Outer)
	ticks.Advance(2)
	reg.Stop(a)

	reg.Start(b)
	assert.False(t, record(t, reg, b).Outer)
	ticks.Advance(2)
	reg.Stop(b)

	assert.True(t, record(t, reg, main).Outer)
	reg.Stop(main)

	assert.False(t, record(t, reg, main).Outer)
	assert.False(t, reg.Global().OuterViolated)
}

func TestOuter_SequentialTopLevelGaps(t *testing.T) {
	reg, _ := newRegistry(t, "a", "b")
	a, b := prof.GapID(0), prof.GapID(1)

	reg.Start(a)
	reg.Stop(a)
	reg.Start(b)
	assert.True(t, record(t, reg, b).Outer)
	reg.Stop(b)

	assert.False(t, reg.Global().OuterViolated)
}

func TestOuter_InterleavedGapsFlagViolation(t *testing.T) {
	reg, ticks := newRegistry(t, "a", "b")
	a, b := prof.GapID(0), prof.GapID(1)

	reg.Start(a)
	ticks.Set(1)
	reg.Start(b)
	ticks.Set(2)
	reg.Stop(a) // closes the outer gap while b is still open
	ticks.Set(3)
	reg.Stop(b)

	g := reg.Global()
	assert.True(t, g.OuterViolated)
	assert.False(t, g.Underrun)
	assert.Zero(t, g.Depth)
	assert.True(t, record(t, reg, a).Outer, "outer flag is never auto-corrected")
}

func TestOuter_ViolationIsSticky(t *testing.T) {
	reg, _ := newRegistry(t, "a", "b")
	a, b := prof.GapID(0), prof.GapID(1)

	reg.Start(a)
	reg.Start(b)
	reg.Stop(a)
	reg.Stop(b)
	require.True(t, reg.Global().OuterViolated)

	// a correctly nested session afterwards does not clear the flag
	reg.Start(b)
	reg.Stop(b)
	assert.True(t, reg.Global().OuterViolated)
}

func TestSuspendResume_SingleInvocationSingleSample(t *testing.T) {
	reg, ticks := newRegistry(t, "a", "x")
	a, x := prof.GapID(0), prof.GapID(1)

	reg.Start(a)
	ticks.Set(5)
	reg.Suspend(a)

	rec := record(t, reg, a)
	assert.True(t, rec.Suspended)
	assert.Equal(t, prof.Tick(5), rec.OpenSpan)
	assert.Equal(t, prof.Tick(5), rec.Cumulative)
	assert.False(t, rec.Sampled(), "suspended span must not produce a sample")

	reg.Start(x)
	ticks.Set(15)
	reg.Stop(x)

	reg.Resume(a)
	rec = record(t, reg, a)
	assert.False(t, rec.Suspended)
	assert.Equal(t, uint64(1), rec.Count)

	ticks.Set(18)
	reg.Stop(a)

	rec = record(t, reg, a)
	assert.Equal(t, uint64(1), rec.Count)
	// the 5 ticks before the suspend are added again with the open span
	assert.Equal(t, prof.Tick(5+8), rec.Cumulative)
	assert.Equal(t, prof.Tick(8), rec.Min)
	assert.Equal(t, prof.Tick(8), rec.Max)
	assert.Equal(t, prof.Width64.Max(), rec.SecondMin)
	assert.Zero(t, rec.SecondMax)
	assert.Zero(t, rec.OpenSpan)

	assert.Equal(t, prof.Tick(10), record(t, reg, x).Cumulative)
	assert.False(t, reg.Global().OuterViolated)
}

func TestSuspendResume_RepeatedSuspends(t *testing.T) {
	reg, ticks := newRegistry(t, "a")
	a := prof.GapID(0)

	reg.Start(a)
	ticks.Set(2)
	reg.Suspend(a)
	ticks.Set(10)
	reg.Resume(a)
	ticks.Set(13)
	reg.Suspend(a)
	ticks.Set(20)
	reg.Resume(a)
	ticks.Set(24)
	reg.Stop(a)

	rec := record(t, reg, a)
	assert.Equal(t, uint64(1), rec.Count)
	assert.Equal(t, prof.Tick(2+5+9), rec.Cumulative)
	assert.Equal(t, prof.Tick(9), rec.Max)
	assert.Equal(t, prof.Tick(9), rec.Min)
}

func TestSuspendResume_CumulativeAddsOpenSpan(t *testing.T) {
	reg, ticks := newRegistry(t, "a")
	a := prof.GapID(0)

	reg.Start(a)
	ticks.Set(10)
	reg.Suspend(a)
	assert.Equal(t, prof.Tick(10), record(t, reg, a).Cumulative)

	ticks.Set(20)
	reg.Resume(a)
	ticks.Set(30)
	reg.Stop(a)

	rec := record(t, reg, a)
	assert.Equal(t, prof.Tick(10+20), rec.Cumulative)
	assert.Equal(t, prof.Tick(20), rec.Max)
	assert.Equal(t, prof.Tick(20), rec.Min)
	assert.Zero(t, rec.OpenSpan)
	assert.Equal(t, prof.Tick(30), rec.Average())
}

func TestUnderrun_MoreStopsThanStarts(t *testing.T) {
	var logs bytes.Buffer
	ticks := testutil.NewManualTicks(0)
	reg := prof.NewRegistry(prof.Config{
		Names:  []string{"a"},
		Ticks:  ticks.Source(),
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
	})
	a := prof.GapID(0)

	reg.Start(a)
	reg.Stop(a)
	reg.Stop(a)

	rec := record(t, reg, a)
	assert.True(t, rec.Underrun)
	assert.Equal(t, int32(-1), rec.Depth, "depth is not clamped")

	g := reg.Global()
	assert.True(t, g.Underrun)
	assert.Equal(t, int32(-1), g.Depth)

	assert.Contains(t, logs.String(), "global stack underrun")
	assert.Contains(t, logs.String(), "local stack underrun")

	// the negative depth keeps propagating: the next start does not open a
	// new invocation
	reg.Start(a)
	rec = record(t, reg, a)
	assert.Zero(t, rec.Depth)
	assert.Equal(t, uint64(1), rec.Count)
	assert.True(t, rec.Underrun)
}

func TestUnderrun_LoggedOnce(t *testing.T) {
	var logs bytes.Buffer
	reg := prof.NewRegistry(prof.Config{
		Names:  []string{"a"},
		Ticks:  testutil.NewManualTicks(0).Source(),
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
	})
	a := prof.GapID(0)

	reg.Stop(a)
	reg.Stop(a)
	reg.Stop(a)

	assert.Equal(t, 1, bytes.Count(logs.Bytes(), []byte("local stack underrun")))
	assert.Equal(t, int32(-3), record(t, reg, a).Depth)
}

func TestNoGap_IsNoop(t *testing.T) {
	reg, ticks := newRegistry(t, "a")

	reg.Start(prof.NoGap)
	reg.Suspend(prof.NoGap)
	reg.Resume(prof.NoGap)
	reg.Stop(prof.NoGap)
	reg.Stop(prof.NoGap)

	assert.Equal(t, prof.GlobalState{}, reg.Global())
	assert.Zero(t, ticks.Reads())
	_, ok := reg.Record(prof.NoGap)
	assert.False(t, ok)
}

func TestOutOfRangeGap_IsNoop(t *testing.T) {
	reg, ticks := newRegistry(t, "a")

	reg.Start(prof.GapID(5))
	reg.Stop(prof.GapID(5))

	assert.Equal(t, prof.GlobalState{}, reg.Global())
	assert.Zero(t, ticks.Reads())
	assert.Equal(t, "", reg.Name(prof.GapID(5)))
}

func TestWidth32_Wraparound(t *testing.T) {
	ticks := testutil.NewManualTicks(0xFFFF_FFF0)
	reg := prof.NewRegistry(prof.Config{
		Names: []string{"a"},
		Ticks: ticks.Source(),
		Width: prof.Width32,
	})
	a := prof.GapID(0)

	assert.Equal(t, prof.Tick(0xFFFF_FFFF), record(t, reg, a).Min)

	reg.Start(a)
	ticks.Set(0x1_0000_0010) // source itself is wider than 32 bits
	reg.Stop(a)

	rec := record(t, reg, a)
	assert.Equal(t, prof.Tick(0x20), rec.Cumulative)
	assert.Equal(t, prof.Tick(0x20), rec.Max)
}

func TestExtremals_TrackTwoLowestAndHighest(t *testing.T) {
	reg, ticks := newRegistry(t, "a")
	a := prof.GapID(0)

	for _, d := range []prof.Tick{30, 100, 10, 40, 20} {
		reg.Start(a)
		ticks.Advance(d)
		reg.Stop(a)
	}

	rec := record(t, reg, a)
	assert.Equal(t, prof.Tick(10), rec.Min)
	assert.Equal(t, prof.Tick(20), rec.SecondMin)
	assert.Equal(t, prof.Tick(100), rec.Max)
	assert.Equal(t, prof.Tick(40), rec.SecondMax)
}

func TestLookupAndName(t *testing.T) {
	reg, _ := newRegistry(t, "parse", "eval")

	g, ok := reg.Lookup("eval")
	require.True(t, ok)
	assert.Equal(t, prof.GapID(1), g)
	assert.Equal(t, "eval", reg.Name(g))

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}
