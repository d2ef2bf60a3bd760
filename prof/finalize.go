package prof

// Terminate ends the session's accounting and writes Percentage for every
// gap. The total is the cumulative ticks of ref's gap, or of all gaps for
// AllGaps. If the outer-consistency flag is set every percentage is -1. A
// zero total yields 0 for every gap. Terminate returns the total.
func (r *Registry) Terminate(ref Reference) Tick {
	var total Tick
	refIndex, single := ref.Gap().Index()
	if single && refIndex >= len(r.gaps) {
		r.logger.Warn("reference gap out of range, using all gaps", "index", refIndex, "gaps", len(r.gaps))
		single = false
	}
	for i := range r.gaps {
		if !single || i == refIndex {
			total += r.gaps[i].Cumulative
		}
	}

	for i := range r.gaps {
		rec := &r.gaps[i]
		switch {
		case r.global.OuterViolated:
			rec.Percentage = -1
		case total == 0:
			rec.Percentage = 0
		default:
			rec.Percentage = 100 * float64(rec.Cumulative) / float64(total)
		}
	}
	return total
}
