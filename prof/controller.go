package prof

// Start enters gap g.
//
// The gap claims the outer role when nothing else is open. A gap that is
// already outer and is entered again while anything is open breaks the
// single-outer assumption. The tick source is read and an invocation counted
// only when g goes from depth 0 to 1; recursive entries just deepen.
func (r *Registry) Start(g Gap) {
	i, ok := r.index(g)
	if !ok {
		return
	}
	rec := &r.gaps[i]

	if rec.Outer {
		if r.global.Depth > 0 {
			r.raiseOuter(i, "start")
		}
	} else if r.global.Depth == 0 {
		rec.Outer = true
	}

	r.global.Depth++

	if rec.Depth == 0 {
		rec.Start = r.now()
		rec.Count++
	}

	rec.Depth++
	if r.trackRecursion && rec.Depth > rec.MaxRecursion {
		rec.MaxRecursion = rec.Depth
	}
}

// Stop leaves gap g.
//
// When g fully unwinds, the span since its Start is added to the invocation's
// open span and the open span is added to the cumulative total. Unless the gap
// is suspended the open span becomes one min/max sample and is reset. After a
// suspend the earlier part of the invocation is therefore counted again when
// the invocation closes. The outer role is released
// only when nothing else remains open; any other combination raises the
// outer-consistency flag. Negative depths raise the underrun flags and are
// left as they are.
func (r *Registry) Stop(g Gap) {
	i, ok := r.index(g)
	if !ok {
		return
	}
	rec := &r.gaps[i]

	rec.Depth--
	r.global.Depth--

	if rec.Depth == 0 {
		elapsed := r.width.Elapsed(r.now(), rec.Start)
		rec.OpenSpan += elapsed
		rec.Cumulative += rec.OpenSpan

		if !rec.Suspended {
			rec.sample(rec.OpenSpan)
			rec.OpenSpan = 0
		}

		if rec.Outer {
			if r.global.Depth != 0 {
				r.raiseOuter(i, "stop")
			} else {
				rec.Outer = false
			}
		} else if r.global.Depth == 0 {
			r.raiseOuter(i, "stop")
		}
	}

	if r.global.Depth < 0 {
		r.raiseGlobalUnderrun(i)
	}
	if rec.Depth < 0 {
		r.raiseLocalUnderrun(i)
	}
}

// Suspend stops g without closing its invocation. The span so far is kept
// in the open span and added to the cumulative total but produces no min/max
// sample.
func (r *Registry) Suspend(g Gap) {
	i, ok := r.index(g)
	if !ok {
		return
	}
	r.gaps[i].Suspended = true
	r.Stop(g)
}

// Resume restarts a suspended g as a continuation of the same invocation:
// the invocation count is left unchanged.
func (r *Registry) Resume(g Gap) {
	i, ok := r.index(g)
	if !ok {
		return
	}
	count := r.gaps[i].Count
	r.Start(g)
	r.gaps[i].Count = count
	r.gaps[i].Suspended = false
}

// sample folds one finished invocation into the extremal fields, keeping the
// two smallest and two largest values seen.
func (rec *Record) sample(v Tick) {
	switch {
	case v > rec.Max:
		rec.SecondMax = rec.Max
		rec.Max = v
	case v > rec.SecondMax:
		rec.SecondMax = v
	}
	switch {
	case v < rec.Min:
		rec.SecondMin = rec.Min
		rec.Min = v
	case v < rec.SecondMin:
		rec.SecondMin = v
	}
}
