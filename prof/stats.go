package prof

// GapStats is a reporting view of one gap.
type GapStats struct {
	Record

	Gap  Gap
	Name string
}

// Snapshot is a copy of the registry taken for reporting.
type Snapshot struct {
	Global GlobalState
	Width  TickWidth
	Gaps   []GapStats
}

// Snapshot copies the registry's current state.
func (r *Registry) Snapshot() Snapshot {
	s := Snapshot{
		Global: r.global,
		Width:  r.width,
		Gaps:   make([]GapStats, len(r.gaps)),
	}
	for i := range r.gaps {
		s.Gaps[i] = GapStats{
			Record: r.gaps[i],
			Gap:    GapID(i),
			Name:   r.names[i],
		}
	}
	return s
}

// Lookup returns the stats of the gap named name.
func (s Snapshot) Lookup(name string) (GapStats, bool) {
	for _, g := range s.Gaps {
		if g.Name == name {
			return g, true
		}
	}
	return GapStats{}, false
}

// Sampled reports whether at least one invocation produced a min/max sample.
func (rec Record) Sampled() bool {
	return rec.Min <= rec.Max
}

// Average returns Cumulative/Count, or 0 before the first invocation.
func (rec Record) Average() Tick {
	if rec.Count == 0 {
		return 0
	}
	return rec.Cumulative / Tick(rec.Count)
}

// TrimmedAverage returns the mean with the two largest and two smallest
// samples removed. It is defined only when Count > 4; ok is false otherwise.
// If the extremes exceed Cumulative (possible only after caller misuse) the
// result is 0.
func (rec Record) TrimmedAverage() (avg Tick, ok bool) {
	if rec.Count <= 4 {
		return 0, false
	}
	rest := rec.Cumulative
	for _, v := range [...]Tick{rec.Max, rec.SecondMax, rec.Min, rec.SecondMin} {
		if v > rest {
			return 0, true
		}
		rest -= v
	}
	return rest / Tick(rec.Count-4), true
}
