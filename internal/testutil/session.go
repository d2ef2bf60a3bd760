package testutil

// FixedSessionGenerator returns the same session id every time.
//
// Reports stamped with a fixed id are byte-identical across runs, which keeps
// golden comparisons stable.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a fixed session id generator.
//
// The id is typically set in the scenario YAML:
//
//	session: "test-session-00000000-0000-0000-0000-000000000001"
//
// If id is empty, Generate() returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
