package store

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type txContextKey struct{}

// Tx is a gorm transaction carried by a context. pgTxID is the postgres txid, zero on sqlite;
// it is only meaningful for log correlation.
type Tx struct {
	pgTxID int64
	db     *gorm.DB
}

// Commit commits the transaction carried by ctx. The returned context no longer carries it.
// A context without a transaction is returned unchanged.
func Commit(ctx context.Context) (context.Context, error) {
	tx, ok := ctx.Value(txContextKey{}).(*Tx)
	if !ok || tx == nil {
		return ctx, nil
	}
	return context.WithValue(ctx, txContextKey{}, nil), tx.commit()
}

// Rollback is the Commit counterpart.
func Rollback(ctx context.Context) (context.Context, error) {
	tx, ok := ctx.Value(txContextKey{}).(*Tx)
	if !ok || tx == nil {
		return ctx, nil
	}
	return context.WithValue(ctx, txContextKey{}, nil), tx.rollback()
}

// FromContext returns the open transaction of ctx, or nil.
func FromContext(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txContextKey{}).(*Tx)
	if !ok || tx == nil {
		return nil
	}
	return tx.db
}

func newTransactionContext(ctx context.Context, db *gorm.DB) (context.Context, error) {
	if FromContext(ctx) != nil {
		return ctx, nil
	}

	gormTx := db.Session(&gorm.Session{Context: ctx}).Begin()
	if gormTx.Error != nil {
		return ctx, gormTx.Error
	}

	tx := &Tx{db: gormTx}
	if gormTx.Dialector.Name() == "postgres" {
		var row struct{ ID int64 }
		gormTx.Raw("select txid_current() as id").Scan(&row)
		tx.pgTxID = row.ID
	}

	return context.WithValue(ctx, txContextKey{}, tx), nil
}

func (t *Tx) commit() error {
	if t.db == nil {
		return ErrNoTransaction
	}
	if err := t.db.Commit().Error; err != nil {
		zap.S().Named("store").Errorw("failed to commit transaction", "txid", t.pgTxID, "error", err)
		return err
	}
	t.db = nil
	zap.S().Named("store").Debugw("transaction committed", "txid", t.pgTxID)
	return nil
}

func (t *Tx) rollback() error {
	if t.db == nil {
		return ErrNoTransaction
	}
	if err := t.db.Rollback().Error; err != nil {
		zap.S().Named("store").Errorw("failed to rollback transaction", "txid", t.pgTxID, "error", err)
		return err
	}
	t.db = nil
	zap.S().Named("store").Debugw("transaction rolled back", "txid", t.pgTxID)
	return nil
}
