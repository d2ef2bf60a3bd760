package prof

// Profiler is the interval-accounting interface. *Registry is the real
// implementation and Noop the compiled-out one; New picks between them by
// build tag.
type Profiler interface {
	Init()
	Start(g Gap)
	Stop(g Gap)
	Suspend(g Gap)
	Resume(g Gap)
	Terminate(ref Reference) Tick
	Snapshot() Snapshot
}

var (
	_ Profiler = (*Registry)(nil)
	_ Profiler = Noop{}
)

// Noop is a Profiler that does nothing.
type Noop struct{}

func (Noop) Init()                    {}
func (Noop) Start(Gap)                {}
func (Noop) Stop(Gap)                 {}
func (Noop) Suspend(Gap)              {}
func (Noop) Resume(Gap)               {}
func (Noop) Terminate(Reference) Tick { return 0 }
func (Noop) Snapshot() Snapshot       { return Snapshot{Width: Width64} }

// Span starts g and returns the matching stop, for use with defer:
//
//	defer prof.Span(p, g)()
func Span(p Profiler, g Gap) func() {
	p.Start(g)
	return func() { p.Stop(g) }
}
