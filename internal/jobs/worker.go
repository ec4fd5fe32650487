package jobs

import (
	"context"
	"time"

	"github.com/riverqueue/river"
)

const JobTimeout = 5 * time.Minute

// Processor executes a scheduled job message for the given job kind.
type Processor interface {
	Process(ctx context.Context, name string, msg ScheduledJobMessage) error
}

// ScheduledJobWorker hands messages of one scheduled-job kind over to the processor.
type ScheduledJobWorker[T ScheduledArgs] struct {
	river.WorkerDefaults[T]
	processor Processor
}

func NewScheduledJobWorker[T ScheduledArgs](processor Processor) *ScheduledJobWorker[T] {
	return &ScheduledJobWorker[T]{processor: processor}
}

func (w *ScheduledJobWorker[T]) Timeout(job *river.Job[T]) time.Duration {
	return JobTimeout
}

func (w *ScheduledJobWorker[T]) Work(ctx context.Context, job *river.Job[T]) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.processor.Process(ctx, job.Args.Kind(), job.Args.Message())
}
