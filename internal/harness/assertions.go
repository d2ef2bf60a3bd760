package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/tinyprof/prof"
	"github.com/roach88/tinyprof/report"
)

// percentageTolerance absorbs float rounding in expected percentages.
const percentageTolerance = 0.05

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Subject  string       // Gap name, or "global"
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s %s\n", e.Type, e.Subject)

	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %-7s %-12s @%d global=%d local=%d\n",
			event.Seq, event.Op, event.Gap, event.Tick, event.GlobalDepth, event.LocalDepth)
	}

	return buf.String()
}

// mismatches collects expected/actual pairs for the fields an assertion sets.
type mismatches struct {
	expected []string
	actual   []string
}

func (m *mismatches) add(field string, want, got any) {
	m.expected = append(m.expected, fmt.Sprintf("%s=%v", field, want))
	m.actual = append(m.actual, fmt.Sprintf("%s=%v", field, got))
}

func (m *mismatches) err(typ, subject string, trace []TraceEvent) error {
	if len(m.expected) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Subject:  subject,
		Expected: strings.Join(m.expected, " "),
		Actual:   strings.Join(m.actual, " "),
		Trace:    trace,
	}
}

func checkUint(m *mismatches, field string, want *uint64, got prof.Tick) {
	if want != nil && *want != uint64(got) {
		m.add(field, *want, got)
	}
}

func checkInt(m *mismatches, field string, want *int32, got int32) {
	if want != nil && *want != got {
		m.add(field, *want, got)
	}
}

func checkBool(m *mismatches, field string, want *bool, got bool) {
	if want != nil && *want != got {
		m.add(field, *want, got)
	}
}

// assertGap compares the named gap's statistics.
func assertGap(result *Result, a Assertion) error {
	stats, ok := result.Snapshot.Lookup(a.Gap)
	if !ok {
		return &AssertionError{
			Type:     AssertGap,
			Subject:  a.Gap,
			Expected: "gap registered",
			Actual:   "not found in snapshot",
			Trace:    result.Trace,
		}
	}
	rec := stats.Record

	var m mismatches
	checkUint(&m, "ticks", a.Ticks, rec.Cumulative)
	if a.Count != nil && *a.Count != rec.Count {
		m.add("count", *a.Count, rec.Count)
	}
	checkUint(&m, "min", a.Min, report.MinTicks(rec))
	checkUint(&m, "max", a.Max, rec.Max)
	checkUint(&m, "average", a.Average, rec.Average())
	if a.TrimmedAverage != nil {
		avg, defined := rec.TrimmedAverage()
		switch {
		case !defined:
			m.add("trimmed_average", *a.TrimmedAverage, "undefined")
		case *a.TrimmedAverage != uint64(avg):
			m.add("trimmed_average", *a.TrimmedAverage, avg)
		}
	}
	if a.Percentage != nil && math.Abs(*a.Percentage-rec.Percentage) > percentageTolerance {
		m.add("percentage", fmt.Sprintf("%.1f", *a.Percentage), fmt.Sprintf("%.1f", rec.Percentage))
	}
	checkInt(&m, "max_recursion", a.MaxRecursion, rec.MaxRecursion)
	checkInt(&m, "depth", a.Depth, rec.Depth)
	checkBool(&m, "underrun", a.Underrun, rec.Underrun)

	return m.err(AssertGap, a.Gap, result.Trace)
}

// assertGlobal compares the global flags and the terminate total.
func assertGlobal(result *Result, a Assertion) error {
	g := result.Snapshot.Global

	var m mismatches
	checkUint(&m, "total", a.Total, result.Total)
	checkInt(&m, "global_depth", a.GlobalDepth, g.Depth)
	checkBool(&m, "outer_violated", a.OuterViolated, g.OuterViolated)
	checkBool(&m, "stack_underrun", a.StackUnderrun, g.Underrun)

	return m.err(AssertGlobal, "global", result.Trace)
}

// EvaluateAssertions runs all assertions and returns error messages.
// Returns an empty slice if all assertions pass.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertGap:
			err = assertGap(result, assertion)
		case AssertGlobal:
			err = assertGlobal(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
