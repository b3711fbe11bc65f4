package judge

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"gavel/internal/model"
	"gavel/internal/queue"
	"gavel/pkg/logger"
)

// Consumer pulls judge jobs from the queue and dispatches them to the
// processor one at a time.
type Consumer struct {
	queue     queue.JobQueue
	processor *Processor
	popWait   time.Duration
	backoff   time.Duration
}

// NewConsumer wires a consumer. popWait bounds each blocking pop;
// backoff is the pause after a queue or processing error.
func NewConsumer(q queue.JobQueue, processor *Processor, popWait, backoff time.Duration) *Consumer {
	if popWait <= 0 {
		popWait = time.Second
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Consumer{queue: q, processor: processor, popWait: popWait, backoff: backoff}
}

// Run consumes jobs until ctx is cancelled. Individual job failures are
// logged and never stop the loop.
func (c *Consumer) Run(ctx context.Context) error {
	logger.Info(ctx, "judge consumer started")
	for {
		if err := ctx.Err(); err != nil {
			logger.Info(ctx, "judge consumer stopped")
			return err
		}

		payload, err := c.queue.Pop(ctx, c.popWait)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logger.Error(ctx, "pop judge job failed", zap.Error(err))
			c.sleep(ctx)
			continue
		}
		if payload == "" {
			continue
		}

		var job model.Job
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			logger.Error(ctx, "decode judge job failed", zap.Error(err))
			continue
		}
		if job.SubmissionID == "" {
			logger.Error(ctx, "judge job missing submission id")
			continue
		}

		if err := c.processor.Process(ctx, job); err != nil {
			logger.Error(ctx, "process judge job failed",
				zap.String("submission_id", job.SubmissionID), zap.Error(err))
			c.sleep(ctx)
		}
	}
}

func (c *Consumer) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(c.backoff):
	}
}
