package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tinyprof/internal/harness"
)

// errCodeScenariosFailed is the envelope error code when any scenario fails.
const errCodeScenariosFailed = "E201"

// Golden file states of a scenario.
const (
	GoldenNone     = "none"
	GoldenMatch    = "match"
	GoldenMismatch = "mismatch"
	GoldenUpdated  = "updated"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // rewrite golden reports
	Filter string // glob on the scenario file name without extension
}

// GapSummary is one gap of a terminated scenario.
type GapSummary struct {
	Name       string `json:"name"`
	Ticks      uint64 `json:"ticks"`
	Count      uint64 `json:"count"`
	Percentage string `json:"percentage"`
	Underrun   bool   `json:"underrun,omitempty"`
}

// ScenarioSummary is the outcome of one scenario file.
type ScenarioSummary struct {
	File             string       `json:"file"`
	Name             string       `json:"name,omitempty"`
	Pass             bool         `json:"pass"`
	Total            uint64       `json:"total"`
	OuterViolated    bool         `json:"outer_violated"`
	StackUnderrun    bool         `json:"stack_underrun"`
	Assertions       int          `json:"assertions"`
	AssertionsFailed int          `json:"assertions_failed"`
	Golden           string       `json:"golden"`
	Gaps             []GapSummary `json:"gaps,omitempty"`
	Errors           []string     `json:"errors,omitempty"`
}

// Anomalous reports whether the session raised a global anomaly flag.
func (s ScenarioSummary) Anomalous() bool {
	return s.OuterViolated || s.StackUnderrun
}

// TestReport collects the summaries of a test run.
type TestReport struct {
	Scenarios []ScenarioSummary `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Anomalous int               `json:"anomalous"`
}

func (r *TestReport) add(s ScenarioSummary) {
	r.Scenarios = append(r.Scenarios, s)
	if s.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
	if s.Anomalous() {
		r.Anomalous++
	}
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scripted profiling scenarios",
		Long: `Replay every scenario under a directory and summarise each session:
terminate total, anomaly flags, assertion results and per-gap ticks.

A scenario passes when all its assertions hold and its report matches
golden/<file>.golden next to it (when that file exists). Scenarios that raise
outer_violated or stack_underrun are counted as anomalous; they still pass if
their assertions expect it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing directory, bad filter)

Examples:
  tinyprof test ./scenarios
  tinyprof test ./scenarios --filter "nested*"
  tinyprof test ./scenarios --update
  tinyprof test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden reports")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenario files matching this glob")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	if _, err := os.Stat(dir); err != nil {
		return WrapExitError(ExitCommandError, "scenarios directory not found", err)
	}

	files, err := scenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list scenarios", err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	out := newOutput(opts.RootOptions, cmd)

	rep := TestReport{Scenarios: make([]ScenarioSummary, 0, len(files))}
	for _, path := range files {
		logger.Debug("running scenario", "file", path)
		rep.add(checkScenario(path, opts.Update, logger))
	}

	if out.JSON() {
		return outputTestJSON(out, rep)
	}
	return outputTestText(out.W, rep)
}

// scenarioFiles lists the .yaml/.yml files under dir, skipping golden
// directories.
func scenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern %q: %w", filter, err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// checkScenario replays one scenario file and compares or rewrites its
// golden report.
func checkScenario(path string, update bool, logger *slog.Logger) ScenarioSummary {
	sum := ScenarioSummary{File: filepath.Base(path), Golden: GoldenNone}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return sum.fail(fmt.Sprintf("load: %v", err))
	}
	sum.Name = scenario.Name

	result, err := harness.RunWithLogger(scenario, logger)
	if err != nil {
		return sum.fail(fmt.Sprintf("run: %v", err))
	}
	sum.record(len(scenario.Assertions), result)

	golden := goldenFilePath(path)
	if update {
		if err := writeGolden(golden, result.Report); err != nil {
			return sum.fail(fmt.Sprintf("golden: %v", err))
		}
		sum.Golden = GoldenUpdated
	} else {
		want, err := os.ReadFile(golden)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return sum.fail(fmt.Sprintf("golden: %v", err))
		case string(want) == result.Report:
			sum.Golden = GoldenMatch
		default:
			sum.Golden = GoldenMismatch
			sum.Errors = append(sum.Errors, "report does not match golden file (run with --update to regenerate)")
		}
	}

	sum.Pass = len(sum.Errors) == 0
	return sum
}

func (s ScenarioSummary) fail(msg string) ScenarioSummary {
	s.Pass = false
	s.Errors = append(s.Errors, msg)
	return s
}

// record copies the terminated session into the summary.
func (s *ScenarioSummary) record(assertions int, result *harness.Result) {
	snap := result.Snapshot
	s.Total = uint64(result.Total)
	s.OuterViolated = snap.Global.OuterViolated
	s.StackUnderrun = snap.Global.Underrun
	s.Assertions = assertions
	s.AssertionsFailed = len(result.Errors)
	s.Errors = append(s.Errors, result.Errors...)

	s.Gaps = make([]GapSummary, 0, len(snap.Gaps))
	for _, g := range snap.Gaps {
		s.Gaps = append(s.Gaps, GapSummary{
			Name:       g.Name,
			Ticks:      uint64(g.Cumulative),
			Count:      g.Count,
			Percentage: strconv.FormatFloat(g.Percentage, 'f', 1, 64),
			Underrun:   g.Underrun,
		})
	}
}

// goldenFilePath returns golden/<file>.golden next to the scenario.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

func writeGolden(path, report string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(report), 0644)
}

func outputTestJSON(out *Output, rep TestReport) error {
	if rep.Failed == 0 {
		return out.OK("", rep)
	}
	msg := fmt.Sprintf("%d scenario(s) failed", rep.Failed)
	if err := out.Fail(errCodeScenariosFailed, msg, rep); err != nil {
		return err
	}
	return NewExitError(ExitFailure, msg)
}

func outputTestText(w io.Writer, rep TestReport) error {
	if len(rep.Scenarios) == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	for _, s := range rep.Scenarios {
		printSummary(w, s)
	}

	fmt.Fprintf(w, "\nscenarios: %d passed, %d failed, %d with anomalies\n", rep.Passed, rep.Failed, rep.Anomalous)
	if rep.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", rep.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}

func printSummary(w io.Writer, s ScenarioSummary) {
	mark := "✓"
	if !s.Pass {
		mark = "✗"
	}
	if s.Name == "" {
		fmt.Fprintf(w, "%s %s\n", mark, s.File)
	} else {
		fmt.Fprintf(w, "%s %s  total=%d assertions=%d/%d golden=%s\n",
			mark, s.Name, s.Total, s.Assertions-s.AssertionsFailed, s.Assertions, s.Golden)
	}

	if s.OuterViolated {
		fmt.Fprintln(w, "    ! outer violated: percentages are -1.0")
	}
	if s.StackUnderrun {
		fmt.Fprintln(w, "    ! stack underrun")
	}
	for _, g := range s.Gaps {
		note := ""
		if g.Underrun {
			note = "  unbalanced"
		}
		fmt.Fprintf(w, "    %-16s ticks=%-8d count=%-5d %6s%%%s\n", g.Name, g.Ticks, g.Count, g.Percentage, note)
	}
	for _, e := range s.Errors {
		fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(strings.TrimRight(e, "\n"), "\n", "\n    "))
	}
}
