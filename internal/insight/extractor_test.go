package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_Empty(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("   ")
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Count())
}

func TestExtract_Definitions(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("Latency means the time between request and first byte. By throughput I mean requests per second.")

	require.GreaterOrEqual(t, len(res.Definitions), 2)
	assert.Contains(t, res.Definitions[0], "Latency")
}

func TestExtract_Assumptions(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("I assume the cache is warm. Obviously the database is the bottleneck here.")

	require.Len(t, res.Assumptions, 2)
	assert.Equal(t, "the cache is warm", res.Assumptions[0])
}

func TestExtract_Contradictions(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("We need strong consistency. But earlier we agreed eventual consistency was fine.")

	require.Len(t, res.Contradictions, 1)
}

func TestExtract_ConceptsAndDedup(t *testing.T) {
	e := NewExtractor()
	res := e.Extract(`The "event bus" handles Order Processing. The "event bus" is overloaded.`)

	count := 0
	for _, c := range res.Concepts {
		if c == "event bus" {
			count++
		}
	}
	assert.Equal(t, 1, count, "repeated concept must be deduplicated")
	assert.Contains(t, res.Concepts, "Order Processing")
}

func TestExtract_StopwordsFiltered(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("This is fine. The answer works. It helps.")

	for _, c := range res.Concepts {
		assert.NotEqual(t, "This", c)
		assert.NotEqual(t, "The", c)
		assert.NotEqual(t, "It", c)
	}
}
