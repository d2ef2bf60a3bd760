package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tinyprof/internal/canonical"
)

// TraceSnapshot captures the replay trace and terminate total of a scenario.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Total        uint64       `json:"total"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"seq":          event.Seq,
			"op":           event.Op,
			"tick":         event.Tick,
			"global_depth": event.GlobalDepth,
			"local_depth":  event.LocalDepth,
		}
		if event.Gap != "" {
			eventMap["gap"] = event.Gap
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"total":         s.Total,
		"trace":         traceList,
	}
}

// TraceJSON renders the result's trace as canonical JSON.
func TraceJSON(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Total:        uint64(result.Total),
		Trace:        result.Trace,
	}
	return canonical.Marshal(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the text report against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the report doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	AssertGolden(t, scenario.Name, result)
	return nil
}

// AssertGolden compares an already computed result's report against the
// golden file for scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, []byte(result.Report))
}

// AssertTraceGolden compares the result's canonical trace against
// testdata/golden/{scenarioName}.trace.golden.
func AssertTraceGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := TraceJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".trace.golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
