// Package report renders a prof.Snapshot as the tinyprof statistics table or
// as canonical JSON.
//
// Output goes through a printf-style function so the table can be written on
// targets without an io.Writer; Fprintf adapts an io.Writer.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/tinyprof/prof"
)

// Printf is a printf-style output function.
type Printf func(format string, args ...any) (int, error)

// Fprintf returns a Printf writing to w.
func Fprintf(w io.Writer) Printf {
	return func(format string, args ...any) (int, error) {
		return fmt.Fprintf(w, format, args...)
	}
}

// Mode selects the average shown in the ave.ticks column.
type Mode int

const (
	// Simple shows Cumulative/Count.
	Simple Mode = iota
	// Trimmed shows the average without the two highest and two lowest
	// samples, or 0 when there are four invocations or fewer.
	Trimmed
)

// String returns the mode name used by flags and config files.
func (m Mode) String() string {
	switch m {
	case Simple:
		return "simple"
	case Trimmed:
		return "trimmed"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "simple" or "trimmed". The empty string is Simple.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "simple":
		return Simple, nil
	case "trimmed":
		return Trimmed, nil
	default:
		return Simple, fmt.Errorf("invalid average mode %q: must be simple or trimmed", s)
	}
}

const (
	nameWidth = 30

	bannerTitle    = "\n\ntiny-prof statistics:\n====================\n"
	bannerOuter    = "outer is incorrect, i.e. intervals may be partially interleave\n(cannot calculate percentage due to incorrect nesting, -1.0 will be printed)\n\n"
	bannerUnderrun = "Profiler's stack underrun! Probably some intervals aren't balanced properly.\n\n"
	columnHeader   = " id |                           gap |       ticks |    count | min.ticks | ave.ticks |  max.ticks | percentage | recur |notes\n"
	columnRule     = "----+-------------------------------+-------------+----------+-----------+-----------+------------+------------+-------+-----\n"
	rowFormat      = "%3d |%30s |%12d |%9d |%10d |%10d |%11d |     % 6.1f | % 5d | %s\n"

	// UnbalancedNote marks a gap whose own depth went negative.
	UnbalancedNote = "starts and ends aren't balanced"
)

// Header writes the banner, the anomaly warnings raised in g, and the column
// header.
func Header(pf Printf, g prof.GlobalState) error {
	parts := []string{bannerTitle}
	if g.OuterViolated {
		parts = append(parts, bannerOuter)
	}
	if g.Underrun {
		parts = append(parts, bannerUnderrun)
	}
	parts = append(parts, columnHeader, columnRule)

	for _, p := range parts {
		if _, err := pf("%s", p); err != nil {
			return err
		}
	}
	return nil
}

// Row writes one table row for s. Rows for NoGap are skipped.
func Row(pf Printf, s prof.GapStats, mode Mode) error {
	id, ok := s.Gap.Index()
	if !ok {
		return nil
	}

	note := ""
	if s.Underrun {
		note = UnbalancedNote
	}

	_, err := pf(rowFormat,
		id,
		truncate(s.Name, nameWidth),
		uint64(s.Cumulative),
		s.Count,
		uint64(MinTicks(s.Record)),
		uint64(AverageTicks(s.Record, mode)),
		uint64(s.Max),
		s.Percentage,
		s.MaxRecursion,
		note,
	)
	return err
}

// Write writes the header followed by a row for every gap in snap.
func Write(pf Printf, snap prof.Snapshot, mode Mode) error {
	if err := Header(pf, snap.Global); err != nil {
		return err
	}
	for _, g := range snap.Gaps {
		if err := Row(pf, g, mode); err != nil {
			return err
		}
	}
	return nil
}

// String renders snap as a table.
func String(snap prof.Snapshot, mode Mode) string {
	var b strings.Builder
	// strings.Builder never fails
	_ = Write(Fprintf(&b), snap, mode)
	return b.String()
}

// MinTicks returns the smallest sample, or 0 when the gap has none.
func MinTicks(rec prof.Record) prof.Tick {
	if !rec.Sampled() {
		return 0
	}
	return rec.Min
}

// AverageTicks returns the average selected by mode.
func AverageTicks(rec prof.Record, mode Mode) prof.Tick {
	if mode == Trimmed {
		avg, _ := rec.TrimmedAverage()
		return avg
	}
	return rec.Average()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
