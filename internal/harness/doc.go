// Package harness replays scripted profiling sessions.
//
// A scenario names a gap table and lists profiler calls, each stamped with
// the tick the source reads at that moment. The harness replays the calls
// against a fresh registry, terminates it and checks the statistics.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: nested_main
//	description: "parse runs inside main"
//	config:
//	  gaps: [main, parse]
//	  reference: main
//	events:
//	  - { op: start, gap: main,  at: 0 }
//	  - { op: start, gap: parse, at: 2 }
//	  - { op: stop,  gap: parse, at: 10 }
//	  - { op: stop,  gap: main,  at: 20 }
//	assertions:
//	  - type: gap
//	    gap: parse
//	    ticks: 8
//	    percentage: 40.0
//	  - type: global
//	    outer_violated: false
//
// A scenario may reference a .cue or .yaml gap table with "table:" instead
// of an inline "config:". The path is relative to the scenario file.
//
// # Assertion Types
//
//   - gap: compares ticks, count, min, max, average, trimmed_average,
//     percentage, max_recursion, depth and underrun of one gap
//   - global: compares total, global_depth, outer_violated and stack_underrun
//
// Only the fields a scenario sets are compared.
//
// # Deterministic Testing
//
// The tick source is a testutil.ManualTicks set to each event's "at" value,
// and the session id comes from scenario.session (or a fixed default), so
// reports are byte-identical across runs and suit golden comparison.
package harness
