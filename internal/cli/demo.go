package cli

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/tinyprof/internal/harness"
	"github.com/roach88/tinyprof/prof"
	"github.com/roach88/tinyprof/report"
)

// Demo gaps. Handles are fixed slots in demoGaps.
var (
	demoGaps = []string{"main", "fib", "sort", "verify"}

	gapMain   = prof.GapID(0)
	gapFib    = prof.GapID(1)
	gapSort   = prof.GapID(2)
	gapVerify = prof.GapID(3)
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	Depth   int    // fibonacci argument, also the expected fib recursion depth
	Items   int    // number of values sorted per round
	Rounds  int    // sort rounds
	Average string // simple|trimmed
	Seed    int64  // workload seed
	Metrics bool   // append Prometheus text exposition
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Profile a small recursive workload",
		Long: `Instrument a recursive fibonacci and a few sort rounds with the
monotonic tick source and print the resulting statistics.

"fib" shows recursion depth tracking; "sort" is suspended while "verify"
checks each round, so its samples exclude the checks. Percentages are
relative to "main".

Built with -tags notinyprof, every profiler call is a no-op and the report
has no rows.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Depth, "depth", 20, "fibonacci argument")
	cmd.Flags().IntVar(&opts.Items, "items", 10000, "values sorted per round")
	cmd.Flags().IntVar(&opts.Rounds, "rounds", 5, "sort rounds")
	cmd.Flags().StringVar(&opts.Average, "average", "simple", "average column: simple|trimmed")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "workload seed")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "append Prometheus metrics (text format only)")

	return cmd
}

func runDemo(opts *DemoOptions, cmd *cobra.Command) error {
	mode, err := report.ParseMode(opts.Average)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --average", err)
	}
	if opts.Depth < 0 || opts.Items < 0 || opts.Rounds < 0 {
		return NewExitError(ExitCommandError, "--depth, --items and --rounds must be non-negative")
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	p := prof.New(prof.Config{
		Names:  demoGaps,
		Ticks:  prof.MonotonicTicks(),
		Logger: logger,
	})

	logger.Debug("running demo workload", "depth", opts.Depth, "items", opts.Items, "rounds", opts.Rounds)
	runWorkload(p, opts, logger)
	p.Terminate(prof.RefGap(gapMain))
	snap := p.Snapshot()

	if opts.Format == "json" {
		session := harness.UUIDv7Generator{}.Generate()
		doc, err := report.JSON(snap, mode, session)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to encode report", err)
		}
		return newOutput(opts.RootOptions, cmd).OK(session, json.RawMessage(doc))
	}

	if err := report.Write(report.Fprintf(cmd.OutOrStdout()), snap, mode); err != nil {
		return err
	}
	if opts.Metrics {
		return writeMetrics(cmd.OutOrStdout(), snap, mode)
	}
	return nil
}

// runWorkload is the instrumented program.
func runWorkload(p prof.Profiler, opts *DemoOptions, logger *slog.Logger) {
	defer prof.Span(p, gapMain)()

	fib(p, opts.Depth)

	rng := rand.New(rand.NewSource(opts.Seed))
	values := make([]int, opts.Items)
	for round := 0; round < opts.Rounds; round++ {
		for i := range values {
			values[i] = rng.Intn(1 << 20)
		}

		p.Start(gapSort)
		slices.Sort(values)
		p.Suspend(gapSort)

		p.Start(gapVerify)
		verifySorted(values, round, logger)
		p.Stop(gapVerify)

		p.Resume(gapSort)
		slices.Reverse(values)
		p.Stop(gapSort)
	}
}

// verifySorted warns when a sort round left values out of order.
func verifySorted(values []int, round int, logger *slog.Logger) bool {
	if slices.IsSorted(values) {
		return true
	}
	logger.Warn("sort round produced unsorted values", "round", round, "items", len(values))
	return false
}

func fib(p prof.Profiler, n int) int {
	defer prof.Span(p, gapFib)()
	if n < 2 {
		return n
	}
	return fib(p, n-1) + fib(p, n-2)
}
