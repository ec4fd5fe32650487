package service

import (
	"context"

	"github.com/riverqueue/river"
)

// WorkQueue is the durable queue scheduled jobs and emails are pushed onto.
type WorkQueue interface {
	Enqueue(ctx context.Context, args river.JobArgs) error
}
