package snowflake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadWorker(t *testing.T) {
	_, err := New(maxWorkerValue + 1)
	assert.Error(t, err)

	_, err = New(-1)
	assert.Error(t, err)
}

func TestGenerateSnowflake(t *testing.T) {
	g, err := New(3)
	require.NoError(t, err)

	id, at, err := g.Generate()
	require.NoError(t, err)

	parts := Extract(id)
	assert.Equal(t, int64(3), parts.WorkerID)
	assert.Equal(t, at, ExtractTime(id))
}

func TestGenerateIsMonotonic(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g, err := New(1)
	require.NoError(t, err)
	g.WithClock(func() time.Time { return fixed })

	var last int64
	for i := 0; i < 100; i++ {
		id, at, err := g.Generate()
		require.NoError(t, err)
		assert.Greater(t, id, last)
		assert.Equal(t, fixed.UTC(), at)
		last = id
	}
}

func TestGenerateSurvivesClockGoingBack(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	g, err := New(1)
	require.NoError(t, err)
	g.WithClock(func() time.Time { return now })

	first, _, err := g.Generate()
	require.NoError(t, err)

	now = now.Add(-time.Second)
	second, _, err := g.Generate()
	require.NoError(t, err)

	assert.Greater(t, second, first)
}

func TestSnowflakeIncrementOverflow(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g, err := New(0)
	require.NoError(t, err)
	g.WithClock(func() time.Time { return fixed })

	for range 100000 {
		_, _, err := g.Generate()
		if err != nil {
			return
		}
	}
	t.Error("Expected increment overflow, but there wasn't")
}
