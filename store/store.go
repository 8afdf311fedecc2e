package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"messenger/observability"
)

// Store wraps a sqlx connection pool with dialect awareness, instrumented
// query execution, and transaction-in-context support. All repository
// queries go through it.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
}

// Open connects to the database identified by driver name and DSN.
func Open(driverName, dsn string) (*Store, error) {
	dialect, err := DialectFor(driverName)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if driverName == "sqlite" {
		// single writer keeps modernc happy and keeps :memory: databases
		// on one connection
		db.SetMaxOpenConns(1)
	}
	return &Store{db: db, dialect: dialect}, nil
}

// New wraps an existing connection pool owned by the host.
func New(db *sqlx.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect returns the store's SQL dialect.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Builder returns a statement builder with the dialect's placeholder format.
func (s *Store) Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(s.dialect.Placeholder())
}

type txKey struct{}

// WithinTx runs fn inside a transaction carried through the context; every
// store call made with that context joins it. A nested call reuses the
// open transaction instead of starting a second one.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		observability.ObserveTransaction(false)
		return err
	}
	if err := tx.Commit(); err != nil {
		observability.ObserveTransaction(false)
		return fmt.Errorf("commit tx: %w", err)
	}
	observability.ObserveTransaction(true)
	return nil
}

// ext returns the transaction bound to the context when present, otherwise
// the pool.
func (s *Store) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return s.db
}

// Get executes a single-row query built from qb and scans it into dest.
// sql.ErrNoRows passes through untouched so callers can translate it.
func (s *Store) Get(ctx context.Context, op string, dest interface{}, qb sq.Sqlizer) error {
	query, args, err := qb.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}
	ctx, span := observability.StartQuerySpan(ctx, op)
	defer span.End()
	done := observability.ObserveQuery(op)
	err = sqlx.GetContext(ctx, s.ext(ctx), dest, query, args...)
	done(err)
	if err != nil && err != sql.ErrNoRows {
		span.RecordError(err)
	}
	return err
}

// Select executes a multi-row query built from qb and scans it into dest.
func (s *Store) Select(ctx context.Context, op string, dest interface{}, qb sq.Sqlizer) error {
	query, args, err := qb.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sql query: %v", err)
	}
	ctx, span := observability.StartQuerySpan(ctx, op)
	defer span.End()
	done := observability.ObserveQuery(op)
	err = sqlx.SelectContext(ctx, s.ext(ctx), dest, query, args...)
	done(err)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// Exec executes a statement built from qb.
func (s *Store) Exec(ctx context.Context, op string, qb sq.Sqlizer) (sql.Result, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sql query: %v", err)
	}
	ctx, span := observability.StartQuerySpan(ctx, op)
	defer span.End()
	done := observability.ObserveQuery(op)
	res, err := s.ext(ctx).ExecContext(ctx, query, args...)
	done(err)
	if err != nil {
		span.RecordError(err)
	}
	return res, err
}
