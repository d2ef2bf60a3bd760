package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedSessionGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedSessionGenerator("test-session-123")

	assert.Equal(t, "test-session-123", gen.Generate())
	assert.Equal(t, "test-session-123", gen.Generate())
}

func TestFixedSessionGenerator_EmptyIDDefault(t *testing.T) {
	gen := NewFixedSessionGenerator("")

	assert.Equal(t, "test-session-default", gen.Generate())
}

func TestFixedSessionGenerator_ConcurrentUse(t *testing.T) {
	gen := NewFixedSessionGenerator("shared")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "shared", gen.Generate())
			}
		}()
	}
	wg.Wait()
}
