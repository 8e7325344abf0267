// Package worker renders tile pyramids in parallel.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MeKo-Tech/noiselab/internal/tile"
)

// Generator renders one tile. pipeline.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, coords tile.Coords, force bool) (Output, error)
}

// Output describes what a Generator produced for a tile.
type Output struct {
	Location string // file path or "mbtiles:z/x/y"
	Bytes    int    // encoded size, 0 when skipped
	Skipped  bool   // tile already existed and force was not set
}

// Task represents a single tile generation task.
type Task struct {
	Coords tile.Coords
	Force  bool
}

// Result represents the outcome of a tile generation task.
type Result struct {
	Task    Task
	Output  Output
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed, skipped int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Generator  Generator
	OnProgress ProgressFunc
}

// Pool manages parallel tile generation.
type Pool struct {
	workers    int
	generator  Generator
	onProgress ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		generator:  cfg.Generator,
		onProgress: cfg.OnProgress,
	}
}

// TasksFor builds one task per tile.
func TasksFor(coords []tile.Coords, force bool) []Task {
	tasks := make([]Task, len(coords))
	for i, c := range coords {
		tasks[i] = Task{Coords: c, Force: force}
	}
	return tasks
}

// Run executes all tasks and returns one result per task.
// Tasks are processed in parallel by the configured number of workers.
// Once ctx is cancelled, tasks not yet started are reported with ctx.Err().
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task, len(tasks))
	resultCh := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	// The task channel is buffered for every task, so feeding never blocks.
	for _, task := range tasks {
		taskCh <- task
	}
	close(taskCh)

	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		var completed, failed, skipped int
		for result := range resultCh {
			results = append(results, result)

			completed++
			switch {
			case result.Err != nil:
				failed++
			case result.Output.Skipped:
				skipped++
			}

			if p.onProgress != nil {
				p.onProgress(completed, len(tasks), failed, skipped)
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)
	<-done

	return results
}

func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		if err := ctx.Err(); err != nil {
			results <- Result{Task: task, Err: err}
			continue
		}

		start := time.Now()
		out, err := p.generator.Generate(ctx, task.Coords, task.Force)
		results <- Result{
			Task:    task,
			Output:  out,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}

// Summary aggregates a batch of results.
type Summary struct {
	Rendered int
	Skipped  int
	Failed   int
	Bytes    int
	Elapsed  time.Duration // summed render time across workers
}

// Summarize counts results and joins every failure into one error.
func Summarize(results []Result) (Summary, error) {
	var s Summary
	var errs []error
	for _, r := range results {
		s.Elapsed += r.Elapsed
		switch {
		case r.Err != nil:
			s.Failed++
			errs = append(errs, fmt.Errorf("tile %s: %w", r.Task.Coords, r.Err))
		case r.Output.Skipped:
			s.Skipped++
		default:
			s.Rendered++
			s.Bytes += r.Output.Bytes
		}
	}
	return s, errors.Join(errs...)
}
