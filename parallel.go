package galleon

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ============================================================================
// Parallel Execution Configuration
// ============================================================================

// ParallelConfig controls how many independent joins run at once.
// A single join always runs on the calling goroutine.
type ParallelConfig struct {
	// MaxWorkers limits the number of worker goroutines (0 = GOMAXPROCS)
	MaxWorkers int

	// Enabled controls whether parallelism is used at all
	Enabled bool
}

// DefaultParallelConfig returns sensible defaults
func DefaultParallelConfig() *ParallelConfig {
	return &ParallelConfig{
		MaxWorkers: 0, // Use all CPUs
		Enabled:    true,
	}
}

// globalConfig is the default configuration
var globalConfig atomic.Pointer[ParallelConfig]

func init() {
	globalConfig.Store(DefaultParallelConfig())
}

// SetParallelConfig sets the global parallelization configuration
func SetParallelConfig(cfg *ParallelConfig) {
	if cfg != nil {
		globalConfig.Store(cfg)
	}
}

// GetParallelConfig returns the current configuration
func GetParallelConfig() *ParallelConfig {
	return globalConfig.Load()
}

// numWorkers returns the number of workers to use
func (cfg *ParallelConfig) numWorkers() int {
	if !cfg.Enabled {
		return 1
	}
	if cfg.MaxWorkers > 0 {
		return cfg.MaxWorkers
	}
	return runtime.GOMAXPROCS(0)
}

// ============================================================================
// Independent Joins
// ============================================================================

// JoinTask is one join of a batch.
type JoinTask struct {
	Name    string
	Left    *DataFrame
	Right   *DataFrame
	Options JoinOptions
}

// JoinAll runs independent joins concurrently and returns their results in
// task order. The tasks share no mutable state: every join builds its own
// row group dict and only reads its inputs. The first failure cancels the
// tasks that have not started yet and is returned.
func JoinAll(ctx context.Context, tasks []JoinTask) ([]*DataFrame, error) {
	results := make([]*DataFrame, len(tasks))
	workers := GetParallelConfig().numWorkers()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	logger().Debug("join batch started", "tasks", len(tasks), "workers", workers)

	for i, task := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := Join(task.Left, task.Right, task.Options)
			if err != nil {
				return fmt.Errorf("join task %d (%s): %w", i, task.Name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// nextPowerOf2 returns the next power of 2 >= n
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
