//go:build !notinyprof

package prof

// Enabled reports whether profiling is compiled in.
const Enabled = true

// New returns a Registry for cfg.
func New(cfg Config) Profiler {
	return NewRegistry(cfg)
}
