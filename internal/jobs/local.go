package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
)

// LocalQueue is an in-process queue used with sqlite databases, where river is unavailable.
type LocalQueue struct {
	mu      sync.Mutex
	pending []river.JobArgs
}

func NewLocalQueue() *LocalQueue {
	return &LocalQueue{}
}

func (q *LocalQueue) Enqueue(_ context.Context, args river.JobArgs) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, args)
	return nil
}

// Drain returns and forgets every pending message in insertion order.
func (q *LocalQueue) Drain() []river.JobArgs {
	q.mu.Lock()
	defer q.mu.Unlock()
	msgs := q.pending
	q.pending = nil
	return msgs
}

// Run flushes the queue into the processor every interval until ctx is done.
func (q *LocalQueue) Run(ctx context.Context, processor Processor, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.Flush(ctx, processor)
		}
	}
}

// Flush hands pending scheduled-job messages to the processor. Email messages have no
// local consumer and are only logged. It returns the number of processing failures.
func (q *LocalQueue) Flush(ctx context.Context, processor Processor) int {
	logger := zap.S().Named("local_queue")

	failures := 0
	for _, args := range q.Drain() {
		scheduled, ok := args.(ScheduledArgs)
		if !ok {
			logger.Infow("email job enqueued", "kind", args.Kind(), "args", args)
			continue
		}
		if err := processor.Process(ctx, scheduled.Kind(), scheduled.Message()); err != nil {
			logger.Errorw("failed to process scheduled job", "kind", scheduled.Kind(), "id", scheduled.Message().ID, "error", err)
			failures++
		}
	}
	return failures
}
