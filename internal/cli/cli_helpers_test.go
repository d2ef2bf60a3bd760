package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const nestedScenario = `
name: nested
description: "parse runs inside main"
config:
  gaps: [main, parse]
  reference: main
events:
  - { op: start, gap: main,  at: 0 }
  - { op: start, gap: parse, at: 2 }
  - { op: stop,  gap: parse, at: 10 }
  - { op: stop,  gap: main,  at: 20 }
assertions:
  - type: gap
    gap: parse
    ticks: 8
    percentage: 40.0
`

const failingScenario = `
name: failing
description: "expects the wrong tick count"
config:
  gaps: [main]
events:
  - { op: start, gap: main, at: 0 }
  - { op: stop,  gap: main, at: 5 }
assertions:
  - type: gap
    gap: main
    ticks: 6
`

const underrunScenario = `
name: underrun
description: "one stop too many"
config:
  gaps: [main]
events:
  - { op: start, gap: main, at: 0 }
  - { op: stop,  gap: main, at: 4 }
  - { op: stop,  gap: main, at: 5 }
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout, stderr and the
// command error.
func execute(args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
