// Package config loads gap tables: the named gaps of a profiling session and
// the settings that travel with them.
//
// A gap table is written in CUE or YAML:
//
//	name:            "parser"
//	gaps:            ["main", "lex", "parse", "emit"]
//	tick_width:      64        // 32 | 64
//	reference:       "main"    // a gap name, or "all"
//	average:         "trimmed" // "simple" | "trimmed"
//	track_recursion: true
//
// CUE files are unified with a closed schema, so unknown fields and
// out-of-range values are reported with source positions. YAML files are
// decoded strictly and checked by Validate.
package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/tinyprof/prof"
	"github.com/roach88/tinyprof/report"
)

// ReferenceAll selects every gap as the percentage reference.
const ReferenceAll = "all"

// GapTable describes the gaps of a profiling session.
type GapTable struct {
	Name           string   `json:"name,omitempty" yaml:"name,omitempty"`
	Gaps           []string `json:"gaps" yaml:"gaps"`
	TickWidth      int      `json:"tick_width,omitempty" yaml:"tick_width,omitempty"`
	Reference      string   `json:"reference,omitempty" yaml:"reference,omitempty"`
	Average        string   `json:"average,omitempty" yaml:"average,omitempty"`
	TrackRecursion *bool    `json:"track_recursion,omitempty" yaml:"track_recursion,omitempty"`
}

// Load reads a gap table from a .cue, .yaml or .yml file and validates it.
func Load(path string) (*GapTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: ErrCodeRead, Message: err.Error()}
	}

	var table *GapTable
	switch ext := filepath.Ext(path); ext {
	case ".cue":
		table, err = ParseCUE(data, path)
	case ".yaml", ".yml":
		table, err = ParseYAML(data)
	default:
		return nil, newError(ErrCodeFormat, "unsupported gap table format %q: use .cue, .yaml or .yml", ext)
	}
	if err != nil {
		return nil, err
	}
	return table, nil
}

// ApplyDefaults fills unset fields with their defaults.
func (t *GapTable) ApplyDefaults() {
	if t.TickWidth == 0 {
		t.TickWidth = int(prof.Width64)
	}
	if t.Reference == "" {
		t.Reference = ReferenceAll
	}
	if t.Average == "" {
		t.Average = report.Simple.String()
	}
	if t.TrackRecursion == nil {
		track := true
		t.TrackRecursion = &track
	}
}

// Validate checks the table and returns every problem found, joined.
func (t *GapTable) Validate() error {
	var errs []error

	if len(t.Gaps) == 0 {
		errs = append(errs, newError(ErrCodeNoGaps, "gaps list is required and must be non-empty"))
	}
	seen := make(map[string]int, len(t.Gaps))
	for i, name := range t.Gaps {
		if name == "" {
			errs = append(errs, newError(ErrCodeEmptyName, "gaps[%d]: name is empty", i))
			continue
		}
		if first, dup := seen[name]; dup {
			errs = append(errs, newError(ErrCodeDuplicate, "gaps[%d]: %q already used by gaps[%d]", i, name, first))
			continue
		}
		seen[name] = i
	}

	if !prof.TickWidth(t.TickWidth).Valid() {
		errs = append(errs, newError(ErrCodeTickWidth, "tick_width must be 32 or 64, got %d", t.TickWidth))
	}
	if t.Reference != ReferenceAll && t.Reference != "" {
		if _, ok := seen[t.Reference]; !ok {
			errs = append(errs, newError(ErrCodeReference, "reference %q is not a gap", t.Reference))
		}
	}
	if _, err := report.ParseMode(t.Average); err != nil {
		errs = append(errs, newError(ErrCodeAverageMode, "%v", err))
	}

	return errors.Join(errs...)
}

// Width returns the configured tick width.
func (t *GapTable) Width() prof.TickWidth {
	return prof.TickWidth(t.TickWidth)
}

// Mode returns the configured average mode, Simple if it does not parse.
func (t *GapTable) Mode() report.Mode {
	m, _ := report.ParseMode(t.Average)
	return m
}

// Ref resolves the reference against reg.
func (t *GapTable) Ref(reg *prof.Registry) prof.Reference {
	if t.Reference == "" || t.Reference == ReferenceAll {
		return prof.AllGaps
	}
	g, ok := reg.Lookup(t.Reference)
	if !ok {
		return prof.AllGaps
	}
	return prof.RefGap(g)
}

// ProfConfig returns the registry configuration for this table.
func (t *GapTable) ProfConfig(ticks prof.TickSource, logger *slog.Logger) prof.Config {
	return prof.Config{
		Names:               t.Gaps,
		Ticks:               ticks,
		Width:               t.Width(),
		NoRecursionTracking: t.TrackRecursion != nil && !*t.TrackRecursion,
		Logger:              logger,
	}
}
