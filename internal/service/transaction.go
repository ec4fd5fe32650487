package service

import (
	"context"

	"github.com/riverqueue/river"
	"github.com/wri/terramatch-workflow/internal/store"
	"go.uber.org/zap"
)

type afterCommitKey struct{}

// afterCommitHooks collects work that must only happen once the transaction owned by
// withTransaction has committed.
type afterCommitHooks struct {
	fns []func(ctx context.Context)
}

// withTransaction runs fn inside a transaction. When ctx already carries one, fn joins it
// and the outer owner decides whether to commit. Hooks registered with afterCommit run only
// after a successful commit of the transaction begun here.
func withTransaction(ctx context.Context, s store.Store, fn func(ctx context.Context) error) error {
	if store.FromContext(ctx) != nil {
		return fn(ctx)
	}

	ctx, err := s.NewTransactionContext(ctx)
	if err != nil {
		return err
	}

	hooks := &afterCommitHooks{}
	txCtx := context.WithValue(ctx, afterCommitKey{}, hooks)

	if err := fn(txCtx); err != nil {
		if _, rerr := store.Rollback(ctx); rerr != nil {
			zap.S().Named("transaction").Errorw("failed to rollback transaction", "error", rerr)
		}
		return err
	}

	committed, err := store.Commit(ctx)
	if err != nil {
		return err
	}

	for _, hook := range hooks.fns {
		hook(committed)
	}
	return nil
}

// afterCommit defers fn until the enclosing withTransaction commits. Outside of one,
// fn runs immediately.
func afterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if hooks, ok := ctx.Value(afterCommitKey{}).(*afterCommitHooks); ok && hooks != nil {
		hooks.fns = append(hooks.fns, fn)
		return
	}
	fn(ctx)
}

// enqueueAfterCommit pushes args once the status change is durable. A failure at that
// point cannot undo the change, so it is logged.
func enqueueAfterCommit(ctx context.Context, queue WorkQueue, args river.JobArgs) {
	afterCommit(ctx, func(ctx context.Context) {
		if err := queue.Enqueue(ctx, args); err != nil {
			zap.S().Named("transaction").Errorw("failed to enqueue job after commit", "kind", args.Kind(), "error", err)
		}
	})
}
