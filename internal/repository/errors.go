// Package repository holds the SQL data access for room types, carts and
// bookings. Every query uses "?" placeholders and portable SQL so the same
// code runs against MySQL and SQLite.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrStaleWrite is returned when a conditional UPDATE matched no row
// because another writer changed it first.
var ErrStaleWrite = errors.New("stale write")

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can be
// bound to either.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InTx runs fn inside a transaction and commits when it returns nil.
// Any error, or a panic, rolls the transaction back.
func InTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ts normalises a timestamp before it is written or compared. SQLite
// compares DATETIME values as text, which is only ordered correctly
// when every value carries the same zone and precision.
func ts(t time.Time) time.Time { return t.UTC().Truncate(time.Second) }

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return ts(*t)
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func ptrString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func ptrTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
