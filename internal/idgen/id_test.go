package idgen

import (
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_RunIDUniqueAndOrdered(t *testing.T) {
	g := NewGenerator(7)

	seen := make(map[string]struct{})
	var prev int64
	for i := 0; i < 1000; i++ {
		id := g.RunID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}

		n, err := strconv.ParseInt(id, 10, 64)
		require.NoError(t, err)
		assert.Greater(t, n, prev)
		prev = n
	}
}

func TestGenerator_FallsBackToKSUID(t *testing.T) {
	g := NewGenerator(5000)

	id := g.RunID()
	_, err := ksuid.Parse(id)
	assert.NoError(t, err)

	var nilGen *Generator
	_, err = ksuid.Parse(nilGen.RunID())
	assert.NoError(t, err)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("SNOWFLAKE_NODE", "12")
	g := FromEnv()
	require.NotNil(t, g.node)

	t.Setenv("SNOWFLAKE_NODE", "not-a-number")
	g = FromEnv()
	require.NotNil(t, g.node)
}

func TestRequestID(t *testing.T) {
	a, b := RequestID(), RequestID()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestPackageRunID(t *testing.T) {
	assert.NotEqual(t, RunID(), RunID())
}
