package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MeKo-Tech/noiselab/internal/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockGenerator simulates tile rendering for testing
type mockGenerator struct {
	delay     time.Duration
	failTiles map[string]bool // tiles that should fail
	existing  map[string]bool // tiles that are skipped unless forced
	callCount atomic.Int32
}

func (m *mockGenerator) Generate(ctx context.Context, coords tile.Coords, force bool) (Output, error) {
	m.callCount.Add(1)

	select {
	case <-ctx.Done():
		return Output{}, ctx.Err()
	case <-time.After(m.delay):
	}

	if m.failTiles[coords.String()] {
		return Output{}, errors.New("simulated failure")
	}
	if m.existing[coords.String()] && !force {
		return Output{Location: coords.Path("png"), Skipped: true}, nil
	}

	return Output{Location: coords.Path("png"), Bytes: 100}, nil
}

func row(n int) []tile.Coords {
	coords := make([]tile.Coords, n)
	for i := range coords {
		coords[i] = tile.NewCoords(5, uint32(i), 7)
	}
	return coords
}

func TestPool_BasicExecution(t *testing.T) {
	gen := &mockGenerator{delay: 5 * time.Millisecond}
	pool := New(Config{Workers: 2, Generator: gen})

	tasks := TasksFor(row(3), false)
	results := pool.Run(context.Background(), tasks)

	require.Len(t, results, len(tasks))
	for _, r := range results {
		assert.NoError(t, r.Err)
		assert.Equal(t, r.Task.Coords.Path("png"), r.Output.Location)
	}
	assert.Equal(t, int32(len(tasks)), gen.callCount.Load())
}

func TestPool_Parallelism(t *testing.T) {
	gen := &mockGenerator{delay: 50 * time.Millisecond}
	pool := New(Config{Workers: 4, Generator: gen})

	start := time.Now()
	results := pool.Run(context.Background(), TasksFor(row(8), false))
	elapsed := time.Since(start)

	// 8 tasks of 50ms on 4 workers run in two waves.
	assert.Less(t, elapsed, 300*time.Millisecond)
	assert.Len(t, results, 8)
}

func TestPool_ErrorHandling(t *testing.T) {
	coords := row(3)
	gen := &mockGenerator{
		delay:     time.Millisecond,
		failTiles: map[string]bool{coords[1].String(): true},
	}
	pool := New(Config{Workers: 2, Generator: gen})

	results := pool.Run(context.Background(), TasksFor(coords, false))
	require.Len(t, results, 3)

	summary, err := Summarize(results)
	require.Error(t, err)
	assert.Contains(t, err.Error(), coords[1].String())
	assert.Equal(t, 2, summary.Rendered)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 200, summary.Bytes)
}

func TestPool_SkipAndForce(t *testing.T) {
	coords := row(4)
	gen := &mockGenerator{existing: map[string]bool{coords[0].String(): true, coords[2].String(): true}}
	pool := New(Config{Workers: 3, Generator: gen})

	summary, err := Summarize(pool.Run(context.Background(), TasksFor(coords, false)))
	require.NoError(t, err)
	assert.Equal(t, Summary{Rendered: 2, Skipped: 2, Bytes: 200, Elapsed: summary.Elapsed}, summary)

	summary, err = Summarize(pool.Run(context.Background(), TasksFor(coords, true)))
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Rendered)
	assert.Zero(t, summary.Skipped)
}

func TestPool_Cancellation(t *testing.T) {
	gen := &mockGenerator{delay: 100 * time.Millisecond}
	pool := New(Config{Workers: 2, Generator: gen})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := pool.Run(ctx, TasksFor(row(10), false))
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 500*time.Millisecond)
	require.Len(t, results, 10)

	cancelled := 0
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			cancelled++
		}
	}
	assert.Equal(t, 10, cancelled)
	// Only the two in-flight tasks reached the generator.
	assert.Equal(t, int32(2), gen.callCount.Load())
}

func TestPool_ProgressCallback(t *testing.T) {
	coords := row(3)
	gen := &mockGenerator{
		delay:     time.Millisecond,
		failTiles: map[string]bool{coords[0].String(): true},
		existing:  map[string]bool{coords[2].String(): true},
	}

	var calls atomic.Int32
	var lastCompleted, lastTotal, lastFailed, lastSkipped int
	pool := New(Config{
		Workers:   2,
		Generator: gen,
		OnProgress: func(completed, total, failed, skipped int) {
			calls.Add(1)
			lastCompleted, lastTotal, lastFailed, lastSkipped = completed, total, failed, skipped
		},
	})

	pool.Run(context.Background(), TasksFor(coords, false))

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 3, lastCompleted)
	assert.Equal(t, 3, lastTotal)
	assert.Equal(t, 1, lastFailed)
	assert.Equal(t, 1, lastSkipped)
}

func TestPool_EmptyTasks(t *testing.T) {
	gen := &mockGenerator{}
	pool := New(Config{Workers: 0, Generator: gen})

	assert.Empty(t, pool.Run(context.Background(), nil))
	assert.Zero(t, gen.callCount.Load())
}
