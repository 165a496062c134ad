package intgen

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viablespark/persist/ref"
)

func assertUniqueAndIncreasing(t *testing.T, g IntGenerator) {
	const n = 10000
	prev := int64(-1)
	for i := 0; i < n; i++ {
		id := g.Generate()
		require.Greater(t, id, prev)
		prev = id
	}
}

func assertUniqueConcurrently(t *testing.T, g IntGenerator) {
	const workers, perWorker = 8, 2000
	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, perWorker)
			for i := range ids {
				ids[i] = g.Generate()
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers*perWorker)
}

func TestSnowflakeGenerator(t *testing.T) {
	machineID := int64(513)
	g := NewSnowflakeGeneratorWithOptions(&SnowflakeOptions{MachineID: &machineID})
	assert.Equal(t, int64(513), g.MachineID())

	id := g.Generate()
	assert.Equal(t, machineID, (id>>machineIDShift)&maxMachineID)
	assert.Greater(t, id, int64(0))

	elapsed := id >> timestampShift
	expected := time.Now().UnixMilli() - time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	assert.InDelta(t, expected, elapsed, 1000)

	assertUniqueAndIncreasing(t, g)
	assertUniqueConcurrently(t, g)

	overflow := int64(4096 + 7)
	assert.Equal(t, int64(7), NewSnowflakeGeneratorWithOptions(&SnowflakeOptions{MachineID: &overflow}).MachineID())
}

func TestTimestampSeqGenerator(t *testing.T) {
	g := NewTimestampSeqGenerator()
	id := g.Generate()
	assert.InDelta(t, time.Now().UnixMilli(), id>>sequenceBits, 1000)

	assertUniqueAndIncreasing(t, g)
	assertUniqueConcurrently(t, g)
}

func TestSequenceGenerator(t *testing.T) {
	g := NewSequenceGeneratorWithOptions(&SequenceOptions{Start: 100})
	assert.Equal(t, int64(100), g.Generate())
	assert.Equal(t, int64(101), g.Generate())

	assert.Equal(t, int64(1), NewSequenceGeneratorWithOptions(nil).Generate())
	assertUniqueConcurrently(t, NewSequenceGeneratorWithOptions(nil))
}

func TestNewIntGeneratorWithOptions(t *testing.T) {
	g, err := NewIntGeneratorWithOptions(&ref.TypeOptions{
		Type:    "SnowflakeGenerator",
		Options: map[string]any{"machineID": 3},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), g.(*SnowflakeGenerator).MachineID())

	g, err = NewIntGeneratorWithOptions(&ref.TypeOptions{Type: "SequenceGenerator"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), g.Generate())

	g, err = NewIntGeneratorWithOptions(&ref.TypeOptions{Type: "TimestampSeqGenerator"})
	require.NoError(t, err)
	assert.NotZero(t, g.Generate())

	_, err = NewIntGeneratorWithOptions(&ref.TypeOptions{Type: "SnowflakeGenerator", Options: map[string]any{"machineID": 5000}})
	assert.Error(t, err)

	_, err = NewIntGeneratorWithOptions(&ref.TypeOptions{Type: "RedisGenerator"})
	assert.Error(t, err)

	_, err = NewIntGeneratorWithOptions(nil)
	assert.Error(t, err)
}
