package bunrepo

import (
	"context"

	"github.com/goliatone/go-crypta/pkg/interfaces/store"
	"github.com/uptrace/bun"
)

type txKey struct{}

// TransactionManager runs callbacks inside a bun transaction carried by the
// context. Nested calls join the outer transaction.
type TransactionManager struct {
	db *bun.DB
}

var _ store.TransactionManager = (*TransactionManager)(nil)

func NewTransactionManager(db *bun.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

func (m *TransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return nil
	}
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}
	return m.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func txFromContext(ctx context.Context) (bun.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(bun.Tx)
	return tx, ok
}

func conn(ctx context.Context, db *bun.DB) bun.IDB {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return db
}
