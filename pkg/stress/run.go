package stress

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// CaseResult pairs a case name with its statistics
type CaseResult struct {
	Name  string
	Stats Stats
}

// RunCase stresses cfg.Seeds instances of c on a worker pool. Results are
// merged in seed order, so the outcome is independent of the worker count.
func RunCase(ctx context.Context, c Case, cfg Config) (Stats, error) {
	cfg = MergeConfig(cfg)
	startTime := time.Now()

	pool := NewWorkerPool(ctx, cfg.RaysPerHit, cfg.Seeds, cfg.NumWorkers)
	cfg.Logger.Printf("%s: %d seeds on %d workers\n", c.Name, cfg.Seeds, pool.GetNumWorkers())
	pool.Start()
	for i := 0; i < cfg.Seeds; i++ {
		pool.SubmitTask(SeedTask{Case: c, Seed: cfg.FirstSeed + int64(i), TaskID: i})
	}

	results := make([]SeedResult, cfg.Seeds)
	for i := 0; i < cfg.Seeds; i++ {
		result, ok := pool.GetResult()
		if !ok {
			return Stats{}, fmt.Errorf("worker pool closed unexpectedly")
		}
		results[result.TaskID] = result
	}
	pool.Stop()

	var stats Stats
	for _, result := range results {
		if result.Error != nil {
			return Stats{}, result.Error
		}
		stats.Merge(result.Stats)
	}
	stats.Duration = time.Since(startTime)

	cfg.Logger.Printf("%s: %v\n", c.Name, stats)
	if stats.Failures > 0 {
		cfg.Logger.Printf("%s: failing seeds %v\n", c.Name, stats.FailedSeeds)
	}
	return stats, nil
}

// RunAll runs every case concurrently and returns the results in case
// order. The first error cancels the remaining cases.
func RunAll(ctx context.Context, cases []Case, cfg Config) ([]CaseResult, error) {
	cfg = MergeConfig(cfg)
	results := make([]CaseResult, len(cases))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range cases {
		g.Go(func() error {
			stats, err := RunCase(gctx, c, cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", c.Name, err)
			}
			results[i] = CaseResult{Name: c.Name, Stats: stats}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
