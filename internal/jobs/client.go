package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"
)

type Client struct {
	*river.Client[pgx.Tx]
}

// NewClient builds a river client working the scheduled-jobs queue. Email jobs are inserted
// only; they are consumed by the email service.
func NewClient(pool *pgxpool.Pool, processor Processor, maxWorkers int) (*Client, error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, NewScheduledJobWorker[TaskDueArgs](processor))
	river.AddWorker(workers, NewScheduledJobWorker[ReportReminderArgs](processor))
	river.AddWorker(workers, NewScheduledJobWorker[SiteAndNurseryReminderArgs](processor))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			ScheduledJobsQueue: {MaxWorkers: maxWorkers},
		},
		Workers:             workers,
		SkipUnknownJobCheck: true,

		FetchCooldown:     100 * time.Millisecond,
		FetchPollInterval: time.Second,

		CancelledJobRetentionPeriod: 24 * time.Hour,
		CompletedJobRetentionPeriod: 24 * time.Hour,
		DiscardedJobRetentionPeriod: 7 * 24 * time.Hour,
	})
	if err != nil {
		return nil, err
	}

	return &Client{Client: riverClient}, nil
}

// NewInsertOnlyClient builds a client that only enqueues, for one-shot commands.
func NewInsertOnlyClient(pool *pgxpool.Pool) (*Client, error) {
	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		SkipUnknownJobCheck: true,
	})
	if err != nil {
		return nil, err
	}
	return &Client{Client: riverClient}, nil
}

func (c *Client) Enqueue(ctx context.Context, args river.JobArgs) error {
	res, err := c.Insert(ctx, args, nil)
	if err != nil {
		return err
	}
	logInserted(args.Kind(), res)
	return nil
}

func logInserted(kind string, res *rivertype.JobInsertResult) {
	if res == nil || res.Job == nil {
		return
	}
	zap.S().Named("river").Debugw("job enqueued", "kind", kind, "id", res.Job.ID, "queue", res.Job.Queue, "duplicate", res.UniqueSkippedAsDuplicate)
}
