// Package dbx runs functions inside database transactions.
package dbx

import (
	"context"
	"database/sql"
	"errors"
)

// InTx begins a transaction, runs fn and commits when fn succeeds. On error
// or panic the transaction is rolled back; panics are rethrown.
func InTx[T any](ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) (T, error)) (value T, err error) {
	var zero T
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	value, err = fn(tx)
	if err != nil {
		return zero, errors.Join(err, ignoreDone(tx.Rollback()))
	}
	return value, tx.Commit()
}

func InTxSimple(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	_, err := InTx(ctx, db, func(tx *sql.Tx) (struct{}, error) { return struct{}{}, fn(tx) })
	return err
}

func ignoreDone(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
