package prof

import (
	"io"
	"log/slog"
)

// Config configures a Registry.
type Config struct {
	// Names labels the gaps. Gap i is named Names[i]; the registry has
	// exactly len(Names) slots.
	Names []string

	// Ticks is the tick source. Defaults to MonotonicTicks().
	Ticks TickSource

	// Width is the tick width. Defaults to Width64.
	Width TickWidth

	// NoRecursionTracking leaves Record.MaxRecursion at zero.
	NoRecursionTracking bool

	// Logger receives one warning per anomaly flag raised. Defaults to a
	// discarding logger.
	Logger *slog.Logger
}

// Registry is the fixed-size table of gap records plus the global state.
// It is allocated once; interval operations never allocate.
type Registry struct {
	global GlobalState
	gaps   []Record
	names  []string

	ticks          TickSource
	width          TickWidth
	trackRecursion bool
	logger         *slog.Logger
}

// NewRegistry allocates a registry for cfg.Names and initializes it.
func NewRegistry(cfg Config) *Registry {
	r := &Registry{
		gaps:           make([]Record, len(cfg.Names)),
		names:          append([]string(nil), cfg.Names...),
		ticks:          cfg.Ticks,
		width:          cfg.Width,
		trackRecursion: !cfg.NoRecursionTracking,
		logger:         cfg.Logger,
	}
	if r.ticks == nil {
		r.ticks = MonotonicTicks()
	}
	if !r.width.Valid() {
		r.width = Width64
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r.Init()
	return r
}

// Init resets every record to its idle baseline and clears the global
// state and all anomaly flags.
func (r *Registry) Init() {
	r.global = GlobalState{}
	for i := range r.gaps {
		r.gaps[i] = Record{
			Min:       r.width.Max(),
			SecondMin: r.width.Max(),
		}
	}
}

// Len returns the number of gaps.
func (r *Registry) Len() int {
	return len(r.gaps)
}

// Width returns the tick width.
func (r *Registry) Width() TickWidth {
	return r.width
}

// Name returns the configured name of g, or "" for NoGap and out-of-range
// handles.
func (r *Registry) Name(g Gap) string {
	i, ok := r.index(g)
	if !ok {
		return ""
	}
	return r.names[i]
}

// Lookup returns the handle of the first gap named name.
func (r *Registry) Lookup(name string) (Gap, bool) {
	for i, n := range r.names {
		if n == name {
			return GapID(i), true
		}
	}
	return NoGap, false
}

// Record returns a copy of g's record.
func (r *Registry) Record(g Gap) (Record, bool) {
	i, ok := r.index(g)
	if !ok {
		return Record{}, false
	}
	return r.gaps[i], true
}

// Global returns a copy of the global state.
func (r *Registry) Global() GlobalState {
	return r.global
}

func (r *Registry) index(g Gap) (int, bool) {
	i, ok := g.Index()
	if !ok {
		return 0, false
	}
	if i >= len(r.gaps) {
		r.logger.Warn("gap handle out of range", "index", i, "gaps", len(r.gaps))
		return 0, false
	}
	return i, true
}

func (r *Registry) now() Tick {
	return r.ticks() & r.width.Max()
}

func (r *Registry) raiseOuter(i int, op string) {
	if r.global.OuterViolated {
		return
	}
	r.global.OuterViolated = true
	r.logger.Warn("outer gap consistency violated",
		"op", op,
		"gap", r.names[i],
		"global_depth", r.global.Depth,
	)
}

func (r *Registry) raiseGlobalUnderrun(i int) {
	if r.global.Underrun {
		return
	}
	r.global.Underrun = true
	r.logger.Warn("global stack underrun", "gap", r.names[i], "global_depth", r.global.Depth)
}

func (r *Registry) raiseLocalUnderrun(i int) {
	rec := &r.gaps[i]
	if rec.Underrun {
		return
	}
	rec.Underrun = true
	r.logger.Warn("local stack underrun", "gap", r.names[i], "depth", rec.Depth)
}
