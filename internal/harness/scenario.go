package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tinyprof/internal/config"
)

// Scenario defines a scripted profiling session.
// Events are replayed against a fresh registry whose tick source reads the
// value each event carries, so every span has an exact, known length.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Table is the path to a .cue or .yaml gap table, relative to the
	// scenario file. Exactly one of Table and Config must be set.
	Table string `yaml:"table,omitempty"`

	// Config is an inline gap table.
	Config *config.GapTable `yaml:"config,omitempty"`

	// Events are replayed in order.
	Events []Event `yaml:"events"`

	// Assertions validate the terminated statistics.
	Assertions []Assertion `yaml:"assertions"`

	// Session is an optional fixed session id stamped on JSON reports.
	// If empty, "test-session-default" is used for deterministic output.
	Session string `yaml:"session,omitempty"`
}

// Event is one profiler call at a given tick.
type Event struct {
	// Op is one of start, stop, suspend, resume or init.
	Op string `yaml:"op"`

	// Gap names the gap. Unused by init.
	Gap string `yaml:"gap,omitempty"`

	// At is the tick source reading when the call is made.
	At uint64 `yaml:"at"`
}

// Event op constants.
const (
	OpStart   = "start"
	OpStop    = "stop"
	OpSuspend = "suspend"
	OpResume  = "resume"
	OpInit    = "init"
)

// Assertion validates the statistics after terminate.
// Only the fields that are set are compared.
type Assertion struct {
	// Type specifies the assertion type:
	// - "gap": compare fields of the named gap
	// - "global": compare global flags and the terminate total
	Type string `yaml:"type"`

	// Gap is the gap name (used by gap).
	Gap string `yaml:"gap,omitempty"`

	Ticks          *uint64  `yaml:"ticks,omitempty"`
	Count          *uint64  `yaml:"count,omitempty"`
	Min            *uint64  `yaml:"min,omitempty"`
	Max            *uint64  `yaml:"max,omitempty"`
	Average        *uint64  `yaml:"average,omitempty"`
	TrimmedAverage *uint64  `yaml:"trimmed_average,omitempty"`
	Percentage     *float64 `yaml:"percentage,omitempty"`
	MaxRecursion   *int32   `yaml:"max_recursion,omitempty"`
	Depth          *int32   `yaml:"depth,omitempty"`
	Underrun       *bool    `yaml:"underrun,omitempty"`

	// Used by global.
	Total         *uint64 `yaml:"total,omitempty"`
	GlobalDepth   *int32  `yaml:"global_depth,omitempty"`
	OuterViolated *bool   `yaml:"outer_violated,omitempty"`
	StackUnderrun *bool   `yaml:"stack_underrun,omitempty"`
}

// Assertion type constants.
const (
	AssertGap    = "gap"
	AssertGlobal = "global"
)

// TableNotFoundError is returned when a scenario references a gap table
// file that doesn't exist.
type TableNotFoundError struct {
	Scenario     string
	TablePath    string
	ResolvedPath string
}

// Error implements the error interface.
func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf(
		"scenario %q references gap table %q which does not exist (resolved to: %s)",
		e.Scenario,
		e.TablePath,
		e.ResolvedPath,
	)
}

// LoadScenario reads and parses a scenario YAML file.
// A referenced gap table is resolved relative to the scenario file and
// loaded into Config. Returns an error if the file doesn't exist, is
// malformed, contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Table != "" {
		if !filepath.IsAbs(scenario.Table) {
			scenario.Table = filepath.Join(filepath.Dir(path), scenario.Table)
		}
		if err := scenario.resolveTable(); err != nil {
			return nil, err
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML with strict field validation
// (catches typos like "assertion:" vs "assertions:"). Table paths are left
// unresolved.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// resolveTable loads the referenced gap table into Config.
func (s *Scenario) resolveTable() error {
	if s.Config != nil {
		return fmt.Errorf("invalid scenario: table and config are mutually exclusive")
	}
	if _, err := os.Stat(s.Table); os.IsNotExist(err) {
		return &TableNotFoundError{Scenario: s.Name, TablePath: filepath.Base(s.Table), ResolvedPath: s.Table}
	}
	table, err := config.Load(s.Table)
	if err != nil {
		return fmt.Errorf("failed to load gap table: %w", err)
	}
	s.Config = table
	return nil
}

// validateScenario checks that required fields are present and valid.
// Config must already be resolved.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Config == nil {
		return fmt.Errorf("either table or config is required")
	}
	s.Config.ApplyDefaults()
	if err := s.Config.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if len(s.Events) == 0 {
		return fmt.Errorf("events list is required and must be non-empty")
	}

	gaps := make(map[string]bool, len(s.Config.Gaps))
	for _, name := range s.Config.Gaps {
		gaps[name] = true
	}

	for i, ev := range s.Events {
		switch ev.Op {
		case OpStart, OpStop, OpSuspend, OpResume:
			if ev.Gap == "" {
				return fmt.Errorf("events[%d]: gap is required for %s", i, ev.Op)
			}
			if !gaps[ev.Gap] {
				return fmt.Errorf("events[%d]: unknown gap %q", i, ev.Gap)
			}
		case OpInit:
			if ev.Gap != "" {
				return fmt.Errorf("events[%d]: init takes no gap", i)
			}
		case "":
			return fmt.Errorf("events[%d]: op is required", i)
		default:
			return fmt.Errorf("events[%d]: unknown op %q", i, ev.Op)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, gaps); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, gaps map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertGap:
		if a.Gap == "" {
			return fmt.Errorf("assertions[%d]: gap is required for gap assertions", index)
		}
		if !gaps[a.Gap] {
			return fmt.Errorf("assertions[%d]: unknown gap %q", index, a.Gap)
		}
	case AssertGlobal:
		if a.Gap != "" {
			return fmt.Errorf("assertions[%d]: global assertions take no gap", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
