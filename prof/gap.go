package prof

// Gap is a handle to a registry slot. The zero value is NoGap, which turns
// every operation into a no-op; call sites use it to disable profiling
// locally without removing the brackets.
type Gap struct {
	slot int // index+1, 0 means disabled
}

// NoGap is the disabled gap handle.
var NoGap Gap

// GapID returns the handle for registry index id. Negative ids yield NoGap.
func GapID(id int) Gap {
	if id < 0 {
		return NoGap
	}
	return Gap{slot: id + 1}
}

// Index returns the registry index of g and false for NoGap.
func (g Gap) Index() (int, bool) {
	return g.slot - 1, g.slot > 0
}

// Enabled reports whether g refers to a registry slot.
func (g Gap) Enabled() bool {
	return g.slot > 0
}

// Reference selects which gaps make up the 100% total at Terminate.
type Reference struct {
	gap Gap
}

// AllGaps sums every gap's cumulative ticks into the total.
var AllGaps Reference

// RefGap uses a single gap's cumulative ticks as the total. RefGap(NoGap) is
// the same as AllGaps.
func RefGap(g Gap) Reference {
	return Reference{gap: g}
}

// All reports whether the reference covers every gap.
func (r Reference) All() bool {
	return !r.gap.Enabled()
}

// Gap returns the single reference gap, or NoGap for AllGaps.
func (r Reference) Gap() Gap {
	return r.gap
}

// Record holds the per-gap accounting state.
type Record struct {
	// Cumulative is the total of ticks attributed to this gap in the session.
	Cumulative Tick
	// Start is the tick read when Depth went from 0 to 1.
	Start Tick
	// OpenSpan accumulates ticks of the current invocation across suspends.
	OpenSpan Tick

	Min       Tick
	SecondMin Tick
	Max       Tick
	SecondMax Tick

	// Count is the number of top-level invocations.
	Count uint64
	// Percentage of the reference total, set by Terminate. -1 when the
	// outer-consistency flag was raised.
	Percentage float64

	// Depth is the current nesting depth of this gap. It goes negative on
	// underrun and is never clamped.
	Depth        int32
	MaxRecursion int32

	Outer     bool
	Suspended bool
	Underrun  bool
}

// GlobalState holds the fields shared by every gap.
type GlobalState struct {
	// Depth is the combined nesting depth of all gaps.
	Depth int32
	// OuterViolated is set when the single-outer-gap assumption broke.
	OuterViolated bool
	// Underrun is set when Depth ever went negative.
	Underrun bool
}
