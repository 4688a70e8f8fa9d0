package store

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type contextKey int

const (
	transactionKey contextKey = iota
)

type Tx struct {
	txId int64
	tx   *gorm.DB
	log  *zap.SugaredLogger
}

func Commit(ctx context.Context) (context.Context, error) {
	tx, ok := ctx.Value(transactionKey).(*Tx)
	if !ok {
		return ctx, nil
	}

	newCtx := context.WithValue(ctx, transactionKey, nil)
	return newCtx, tx.Commit()
}

func Rollback(ctx context.Context) (context.Context, error) {
	tx, ok := ctx.Value(transactionKey).(*Tx)
	if !ok {
		return ctx, nil
	}

	newCtx := context.WithValue(ctx, transactionKey, nil)
	return newCtx, tx.Rollback()
}

func FromContext(ctx context.Context) *gorm.DB {
	if tx, found := ctx.Value(transactionKey).(*Tx); found {
		if dbTx, err := tx.Db(); err == nil {
			return dbTx
		}
	}
	return nil
}

// WithTransaction runs fn inside a transaction carried by the context. A transaction already
// present in ctx is reused and left to its owner to finish.
func WithTransaction(ctx context.Context, s Store, fn func(ctx context.Context) error) error {
	if _, found := ctx.Value(transactionKey).(*Tx); found {
		return fn(ctx)
	}

	txCtx, err := s.NewTransactionContext(ctx)
	if err != nil {
		return err
	}

	if err := fn(txCtx); err != nil {
		_, _ = Rollback(txCtx)
		return err
	}

	_, err = Commit(txCtx)
	return err
}

func newTransactionContext(ctx context.Context, db *gorm.DB) (context.Context, error) {
	_, found := ctx.Value(transactionKey).(*Tx)
	if found {
		return ctx, nil
	}

	conn := db.Session(&gorm.Session{
		Context: ctx,
	})

	tx, err := newTransaction(conn)
	if err != nil {
		return ctx, err
	}

	ctx = context.WithValue(ctx, transactionKey, tx)
	return ctx, nil
}

func newTransaction(db *gorm.DB) (*Tx, error) {
	// must call begin on 'db', which is Gorm.
	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	// txid_current is only used to correlate log lines, sqlite has no equivalent.
	var txid struct{ ID int64 }
	if tx.Dialector.Name() == "postgres" {
		tx.Raw("select txid_current() as id").Scan(&txid)
	}

	return &Tx{
		txId: txid.ID,
		tx:   tx,
		log:  zap.S().Named("store"),
	}, nil
}

func (t *Tx) Db() (*gorm.DB, error) {
	if t.tx != nil {
		return t.tx, nil
	}
	return nil, errors.New("transaction hasn't started yet")
}

func (t *Tx) Commit() error {
	if t.tx == nil {
		return errors.New("transaction hasn't started yet")
	}

	if err := t.tx.Commit().Error; err != nil {
		t.log.Errorw("failed to commit transaction", "txid", t.txId, "error", err)
		return err
	}
	t.log.Debugw("transaction committed", "txid", t.txId)
	t.tx = nil // in case we call commit twice
	return nil
}

func (t *Tx) Rollback() error {
	if t.tx == nil {
		return errors.New("transaction hasn't started yet")
	}

	if err := t.tx.Rollback().Error; err != nil {
		t.log.Errorw("failed to rollback transaction", "txid", t.txId, "error", err)
		return err
	}
	t.tx = nil

	t.log.Debugw("transaction rolled back", "txid", t.txId)
	return nil
}
