package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// QueueName is the Redis list the API pushes scan tasks onto and the
// worker pops from.
const QueueName = "phishguard:scan_tasks"

var Client *redis.Client

// Task is one URL queued for scanning as part of a batch job.
type Task struct {
	JobID string `json:"job_id"`
	URL   string `json:"url"`
}

// Init connects to Redis and pings it to ensure it's alive.
func Init(addr string) error {
	Client = redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    "",
		DB:          0,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}

// Enqueue pushes a task onto the scan queue.
func Enqueue(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshaling task: %w", err)
	}
	if err := Client.RPush(ctx, QueueName, payload).Err(); err != nil {
		return fmt.Errorf("pushing task: %w", err)
	}
	return nil
}
