package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tinyprof/internal/harness"
	"github.com/roach88/tinyprof/report"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Average string // overrides the gap table's average mode
	Session string // overrides the scenario's session id
	Trace   bool   // include the replay trace
	Metrics bool   // append Prometheus text exposition
}

// ReplayResult is the JSON payload of the replay command.
type ReplayResult struct {
	Scenario string          `json:"scenario"`
	Pass     bool            `json:"pass"`
	Errors   []string        `json:"errors,omitempty"`
	Report   json.RawMessage `json:"report"`
	Trace    json.RawMessage `json:"trace,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scenario>",
		Short: "Replay a scripted session and print its report",
		Long: `Replay a scenario's profiler calls against a fresh registry and print
the statistics table.

Each event sets the tick source to its "at" value before the call, so the
report is exact and reproducible. Registry warnings (outer inconsistency,
stack underrun) are logged to stderr.

Exit codes:
  0 - Report printed, all assertions hold
  1 - One or more scenario assertions failed
  2 - Command error (scenario not found, invalid gap table, etc.)

Examples:
  tinyprof replay ./scenarios/nested.yaml
  tinyprof replay ./scenarios/nested.yaml --average trimmed
  tinyprof replay ./scenarios/nested.yaml --format json --session run-42`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Average, "average", "", "average column: simple|trimmed (default: from gap table)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id stamped on JSON reports")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "include the replay trace")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "append Prometheus metrics (text format only)")

	return cmd
}

func runReplay(opts *ReplayOptions, scenarioPath string, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	scenario, err := harness.LoadScenario(scenarioPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	logger.Debug("loaded scenario", "name", scenario.Name, "events", len(scenario.Events))

	mode := scenario.Config.Mode()
	if opts.Average != "" {
		mode, err = report.ParseMode(opts.Average)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --average", err)
		}
	}

	result, err := harness.RunWithLogger(scenario, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to replay scenario", err)
	}

	session := result.Session
	if opts.Session != "" {
		session = opts.Session
	}

	if opts.Format == "json" {
		if err := outputReplayJSON(opts, cmd, scenario.Name, session, mode, result); err != nil {
			return err
		}
	} else {
		if err := outputReplayText(opts, cmd, mode, result); err != nil {
			return err
		}
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%d assertion(s) failed", len(result.Errors)))
	}
	return nil
}

func outputReplayJSON(opts *ReplayOptions, cmd *cobra.Command, name, session string, mode report.Mode, result *harness.Result) error {
	doc, err := report.JSON(result.Snapshot, mode, session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode report", err)
	}

	payload := ReplayResult{
		Scenario: name,
		Pass:     result.Pass,
		Errors:   result.Errors,
		Report:   doc,
	}
	if opts.Trace {
		trace, err := harness.TraceJSON(name, result)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to encode trace", err)
		}
		payload.Trace = trace
	}

	return newOutput(opts.RootOptions, cmd).OK(session, payload)
}

func outputReplayText(opts *ReplayOptions, cmd *cobra.Command, mode report.Mode, result *harness.Result) error {
	w := cmd.OutOrStdout()

	if err := report.Write(report.Fprintf(w), result.Snapshot, mode); err != nil {
		return err
	}

	if opts.Trace {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Trace:")
		for _, ev := range result.Trace {
			fmt.Fprintf(w, "  [%d] %-7s %-12s @%d global=%d local=%d\n",
				ev.Seq, ev.Op, ev.Gap, ev.Tick, ev.GlobalDepth, ev.LocalDepth)
		}
	}

	if opts.Metrics {
		if err := writeMetrics(w, result.Snapshot, mode); err != nil {
			return err
		}
	}

	for _, e := range result.Errors {
		fmt.Fprintf(w, "\n✗ %s", e)
	}
	return nil
}
