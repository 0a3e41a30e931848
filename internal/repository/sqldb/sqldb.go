// Package sqldb implements the repositories over database/sql through sqlx.
// Queries use $n placeholders, which both pgx and modernc sqlite accept.
package sqldb

import (
	"alcyxob/fittrack/internal/repository"
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"go.uber.org/multierr"
)

type txKey struct{}

// base resolves the connection for a call: the transaction carried by ctx, if any.
type base struct {
	db *sqlx.DB
}

func (b base) conn(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return b.db
}

// sqlTransactor implements repository.Transactor with database transactions.
type sqlTransactor struct {
	db *sqlx.DB
}

// NewTransactor creates a repository.Transactor for db.
func NewTransactor(db *sqlx.DB) repository.Transactor {
	return &sqlTransactor{db: db}
}

// WithinTransaction commits when fn succeeds and rolls back otherwise. Nested
// calls join the outer transaction.
func (t *sqlTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = multierr.Append(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// NewStore wires every SQL repository for db.
func NewStore(db *sqlx.DB) *repository.Store {
	return &repository.Store{
		Users:      NewUserRepository(db),
		Exercises:  NewExerciseRepository(db),
		Plans:      NewWorkoutPlanRepository(db),
		Sessions:   NewWorkoutSessionRepository(db),
		Logs:       NewExerciseLogRepository(db),
		Transactor: NewTransactor(db),
		Close: func(context.Context) error {
			return db.Close()
		},
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}
