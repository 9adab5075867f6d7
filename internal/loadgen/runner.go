package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/riskpoll/internal/adapters/mq/queue"
	"github.com/okian/riskpoll/internal/adapters/mq/worker"
	"github.com/okian/riskpoll/internal/domain/model"
	"github.com/okian/riskpoll/pkg/logger"
)

const (
	directoryPermission = 0o750
	outputPermission    = 0o600
	maxQueueCapacity    = 10_000
	enqueueRetryDelay   = time.Millisecond
)

// Run executes a complete load run and verifies the result.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	if cfg.MetricsAddr != "" {
		stop, err := serveMetrics(ctx, cfg.MetricsAddr, log)
		if err != nil {
			return nil, fmt.Errorf("metrics listener: %w", err)
		}
		defer stop()
	}

	stats := &Stats{RunID: uuid.NewString(), StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting riskpoll load run",
		logger.String("runID", stats.RunID),
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("submissions", cfg.Submissions),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	// Step 1: Check service health
	backend, err := client.Health(ctx)
	if err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	stats.Backend = backend
	log.Info(ctx, "service is healthy", logger.String("backend", backend))

	// Step 2: Baseline report
	before, err := client.Report(ctx)
	if err != nil {
		return stats, fmt.Errorf("baseline report failed: %w", err)
	}

	// Step 3: Generate submissions
	subs := Generate(cfg.Submissions)
	stats.Generated = len(subs)

	// Step 4: Send them through the queue and worker pool
	accepted, err := send(ctx, cfg, client, subs, stats, log)
	if err != nil {
		return stats, fmt.Errorf("submission failed: %w", err)
	}

	// Step 5: Verify the report moved by exactly the accepted submissions
	after, err := client.Report(ctx)
	if err != nil {
		return stats, fmt.Errorf("final report failed: %w", err)
	}
	if err := Verify(before, after, accepted); err != nil {
		return stats, err
	}
	log.Info(ctx, "report verified", logger.Int("rows", len(after.Rows)), logger.Int("totalRecords", after.TotalRecords))

	// Step 6: Save submissions to file
	if cfg.OutputFile != "" {
		if err := saveSubmissions(cfg.OutputFile, subs); err != nil {
			log.Warn(ctx, "failed to save submissions to file", logger.Error(err))
		} else {
			log.Info(ctx, "submissions saved to file", logger.String("filename", cfg.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

// send pushes subs through an in-memory queue drained by a worker pool and
// returns the accepted ones, grouped in submission order.
func send(ctx context.Context, cfg *Config, client *Client, subs []model.Submission, stats *Stats, log logger.Logger) (model.Groups, error) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(min(len(subs), maxQueueCapacity)))

	var mu sync.Mutex
	ok := make([]bool, len(subs))
	sink := worker.SinkFunc(func(ctx context.Context, j queue.Job) error {
		return client.Submit(ctx, j.Submission)
	})
	pool := worker.NewPool(cfg.Workers, q, sink,
		worker.WithPoolLogger(log),
		worker.WithPoolObserver(func(j queue.Job, err error) {
			if err != nil {
				if cfg.Verbose {
					log.Warn(ctx, "submission failed", logger.Int("seq", j.Seq), logger.Error(err))
				}
				return
			}
			mu.Lock()
			ok[j.Seq] = true
			mu.Unlock()
		}),
	)
	pool.Start(ctx)
	log.Info(ctx, "submitting", logger.Int("submissions", len(subs)), logger.Int("workers", pool.Size()))

	for i, s := range subs {
		if err := enqueue(ctx, q, queue.Job{Seq: i, Submission: s}); err != nil {
			_ = pool.Shutdown(ctx)
			return nil, err
		}
	}
	_ = q.Close()
	pool.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats.Successful = int(pool.Processed())
	stats.Failed = int(pool.Failed())

	b := model.NewGroupsBuilder()
	for i, s := range subs {
		if ok[i] {
			b.Add(s.RiskPercentage, s.Record())
		}
	}
	return b.Groups(), nil
}

// enqueue retries while the queue is full.
func enqueue(ctx context.Context, q *queue.InMemoryQueue, j queue.Job) error {
	for {
		err := q.Enqueue(ctx, j)
		if !errors.Is(err, queue.ErrFull) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(enqueueRetryDelay):
		}
	}
}

// saveSubmissions writes subs as an indented JSON array.
func saveSubmissions(filename string, subs []model.Submission) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal submissions: %w", err)
	}
	return os.WriteFile(filename, data, outputPermission)
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Generated) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.String("runID", stats.RunID),
		logger.String("backend", stats.Backend),
		logger.Int("generated", stats.Generated),
		logger.Int("successful", stats.Successful),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", stats.SuccessRate()),
		logger.Float64("submissionsPerSecond", perSecond),
	)
}
