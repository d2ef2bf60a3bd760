package report

import (
	"strconv"

	"github.com/roach88/tinyprof/internal/canonical"
	"github.com/roach88/tinyprof/prof"
)

// JSON encodes snap as canonical JSON. Percentages are strings with one
// decimal, matching the table. session is omitted when empty.
func JSON(snap prof.Snapshot, mode Mode, session string) ([]byte, error) {
	return canonical.Marshal(Document(snap, mode, session))
}

// Document builds the map encoded by JSON.
func Document(snap prof.Snapshot, mode Mode, session string) map[string]any {
	gaps := make([]any, 0, len(snap.Gaps))
	for _, g := range snap.Gaps {
		id, ok := g.Gap.Index()
		if !ok {
			continue
		}
		entry := map[string]any{
			"id":            id,
			"name":          g.Name,
			"ticks":         uint64(g.Cumulative),
			"count":         g.Count,
			"min":           uint64(MinTicks(g.Record)),
			"second_min":    uint64(secondMin(g.Record, snap.Width)),
			"max":           uint64(g.Max),
			"second_max":    uint64(g.SecondMax),
			"average":       uint64(g.Average()),
			"percentage":    strconv.FormatFloat(g.Percentage, 'f', 1, 64),
			"max_recursion": g.MaxRecursion,
			"underrun":      g.Underrun,
		}
		if avg, ok := g.TrimmedAverage(); ok {
			entry["trimmed_average"] = uint64(avg)
		}
		gaps = append(gaps, entry)
	}

	doc := map[string]any{
		"average":        mode.String(),
		"tick_width":     int(snap.Width),
		"outer_violated": snap.Global.OuterViolated,
		"stack_underrun": snap.Global.Underrun,
		"gaps":           gaps,
	}
	if session != "" {
		doc["session"] = session
	}
	return doc
}

// secondMin returns 0 while the second-smallest slot still holds its
// baseline.
func secondMin(rec prof.Record, width prof.TickWidth) prof.Tick {
	if rec.SecondMin == width.Max() {
		return 0
	}
	return rec.SecondMin
}
