package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReceipt = "jobs:receipt"
	QueueEmail   = "jobs:email"

	// maxJobAttempts bounds in-process retries before a job is dead-lettered.
	maxJobAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ReceiptPayload asks the receipt worker to render and deliver the receipt
// for one completed transaction.
type ReceiptPayload struct {
	TransactionID string `json:"transaction_id"`
}

// EmailPayload is a pre-rendered receipt ready to be mailed.
type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReceipt pushes a receipt-generation job to Redis.
func (d *Dispatcher) EnqueueReceipt(ctx context.Context, payload ReceiptPayload) error {
	return d.enqueue(ctx, QueueReceipt, "receipt", payload)
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailPayload) error {
	return d.enqueue(ctx, QueueEmail, "email", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Handlers holds the per-queue job processors, wired at the composition root.
type Handlers struct {
	Receipt *ReceiptWorker
	Email   *EmailWorker
}

// StartPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartPool(ctx context.Context, rdb *redis.Client, handlers *Handlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *Handlers, id int) {
	queues := []string{QueueReceipt, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers *Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, rdb, queue, "unknown", json.RawMessage(raw), "unmarshal: "+err.Error(), 0)
		return
	}

	var run func(context.Context) error
	switch job.Type {
	case "receipt":
		var payload ReceiptPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			log.Error().Err(err).Msg("invalid receipt payload")
			SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, "invalid payload: "+err.Error(), 0)
			return
		}
		if handlers.Receipt == nil {
			return
		}
		run = func(ctx context.Context) error { return handlers.Receipt.Process(ctx, payload) }
	case "email":
		var payload EmailPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			log.Error().Err(err).Msg("invalid email payload")
			SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, "invalid payload: "+err.Error(), 0)
			return
		}
		if handlers.Email == nil {
			return
		}
		run = func(ctx context.Context) error { return handlers.Email.Process(ctx, payload) }
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("unknown job type")
		return
	}

	var err error
	for attempt := 1; attempt <= maxJobAttempts; attempt++ {
		if err = run(ctx); err == nil {
			return
		}
		log.Warn().Err(err).Str("queue", queue).Str("type", job.Type).Int("attempt", attempt).Msg("job attempt failed")
		if attempt == maxJobAttempts {
			break
		}
		// Linear backoff between attempts, cut short on shutdown
		select {
		case <-ctx.Done():
			// ctx is gone; the DLQ write needs its own context
			SendToDLQ(context.Background(), rdb, queue, job.Type, job.Payload, err.Error(), attempt)
			return
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), maxJobAttempts)
}
