package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"phishguard/internal/models"
	"phishguard/internal/queue"
	"phishguard/internal/scanner"
	"phishguard/internal/storage"
)

// Runner consumes scan tasks from the queue, runs the engine and
// persists results.
type Runner struct {
	store       storage.Storer
	engine      *scanner.Scanner
	scanTimeout time.Duration
}

func NewRunner(store storage.Storer, engine *scanner.Scanner, scanTimeout time.Duration) *Runner {
	return &Runner{store: store, engine: engine, scanTimeout: scanTimeout}
}

// Start launches the worker loop. It blocks until the context is
// cancelled, waiting for tasks.
func (r *Runner) Start(ctx context.Context) {
	log.Println("👷 Worker started. Waiting for tasks...")

	for {
		if ctx.Err() != nil {
			log.Println("👋 Worker stopping")
			return
		}

		// BLPOP returns [queue_name, value].
		result, err := queue.Client.BLPop(ctx, 5*time.Second, queue.QueueName).Result()
		if err != nil {
			if ctx.Err() != nil {
				log.Println("👋 Worker stopping")
				return
			}
			// redis.Nil just means the wait timed out; anything else is a
			// real failure (Redis down, network), so back off instead of
			// spinning on an error that returns immediately.
			if delay := retryDelay(err); delay > 0 {
				log.Printf("❌ Redis error: %v\n", err)
				time.Sleep(delay)
			}
			continue
		}

		var task queue.Task
		if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
			log.Printf("❌ Malformed task: %s\n", result[1])
			continue
		}

		r.process(ctx, task)
	}
}

// retryDelay returns how long to pause after a failed pop. An empty-queue
// timeout (redis.Nil) needs no pause; the blocking pop already waited.
func retryDelay(err error) time.Duration {
	if errors.Is(err, redis.Nil) {
		return 0
	}
	return 1 * time.Second
}

func (r *Runner) process(ctx context.Context, task queue.Task) {
	scanCtx, cancel := context.WithTimeout(ctx, r.scanTimeout)
	scan, err := r.engine.Scan(scanCtx, task.URL)
	cancel()
	if err != nil {
		// Invalid input or an interrupted scan still counts against the
		// job total, so the batch can complete.
		scan = models.ScanResult{
			URL:    task.URL,
			Result: models.VerdictUnknown,
			Error:  err.Error(),
		}
	}

	data, err := json.Marshal(scan)
	if err != nil {
		log.Printf("❌ Failed to encode result for %s: %v\n", task.URL, err)
		return
	}

	row := &storage.ScanRow{
		JobID:     task.JobID,
		URL:       task.URL,
		RiskScore: scan.RiskScore,
		Verdict:   scan.Result,
		Data:      data,
	}
	if err := r.store.SaveScan(ctx, row); err != nil {
		log.Printf("❌ Failed to save result for %s: %v\n", task.URL, err)
		return
	}

	log.Printf("✅ Processed: %s (Risk: %d, %s)\n", task.URL, scan.RiskScore, scan.Result)
}
