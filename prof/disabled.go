//go:build notinyprof

package prof

// Enabled reports whether profiling is compiled in.
const Enabled = false

// New returns Noop; the notinyprof build tag compiles profiling out.
func New(Config) Profiler {
	return Noop{}
}
