package stress

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/df07/go-shape-kernel/pkg/core"
)

// SeedTask is one shape instance for the worker pool to stress
type SeedTask struct {
	Case   Case
	Seed   int64
	TaskID int // For deterministic ordering
}

// SeedResult contains the outcome of a seed task
type SeedResult struct {
	TaskID int
	Stats  Stats
	Error  error
}

// WorkerPool manages parallel seed evaluation
type WorkerPool struct {
	taskQueue   chan SeedTask
	resultQueue chan SeedResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual seed tasks
type Worker struct {
	ID          int
	ctx         context.Context
	raysPerHit  int
	taskQueue   chan SeedTask
	resultQueue chan SeedResult
}

// NewWorkerPool creates a worker pool sized for maxTasks queued tasks.
// Workers stop doing work once ctx is cancelled but still answer every task.
func NewWorkerPool(ctx context.Context, raysPerHit, maxTasks, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan SeedTask, maxTasks),   // Buffer for every task
		resultQueue: make(chan SeedResult, maxTasks), // Buffer for every result
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		worker := &Worker{
			ID:          i,
			ctx:         ctx,
			raysPerHit:  raysPerHit,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		}
		wp.workers = append(wp.workers, worker)
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a seed task to the worker pool
func (wp *WorkerPool) SubmitTask(task SeedTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed seed result
func (wp *WorkerPool) GetResult() (SeedResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		result := SeedResult{TaskID: task.TaskID}
		if err := w.ctx.Err(); err != nil {
			result.Error = err
			w.resultQueue <- result
			continue
		}

		// Each seed owns its generator, so results do not depend on scheduling
		sampler := core.NewRandomSampler(rand.New(rand.NewSource(task.Seed)))
		shape, err := task.Case.New(sampler)
		if err != nil {
			result.Error = fmt.Errorf("case %s seed %d: %w", task.Case.Name, task.Seed, err)
			w.resultQueue <- result
			continue
		}

		result.Stats = Reintersect(task.Case, shape, sampler, w.raysPerHit)
		if result.Stats.Failures > 0 {
			result.Stats.FailedSeeds = []int64{task.Seed}
		}
		w.resultQueue <- result
	}
}
