package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a lookup matches no row in the caller's company.
var ErrNotFound = errors.New("not found")

// Table names
const (
	tableCompanies = "companies"
	tableUsers     = "users"
	tableTasks     = "tasks"
	tableComments  = "comments"
)

// Clock returns the current time. Repositories stamp rows in UTC.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// getOne runs a single-row query built by q into dest.
func getOne(ctx context.Context, db sqlx.QueryerContext, dest any, q entsql.Querier) error {
	query, args := q.Query()
	if err := sqlx.GetContext(ctx, db, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// selectAll runs a multi-row query built by q into dest.
func selectAll(ctx context.Context, db sqlx.QueryerContext, dest any, q entsql.Querier) error {
	query, args := q.Query()
	return sqlx.SelectContext(ctx, db, dest, query, args...)
}

// exec runs a statement built by q.
func exec(ctx context.Context, db sqlx.ExecerContext, q entsql.Querier) (sql.Result, error) {
	query, args := q.Query()
	return db.ExecContext(ctx, query, args...)
}

// execOne runs a statement that must affect exactly one row.
func execOne(ctx context.Context, db sqlx.ExecerContext, q entsql.Querier) error {
	res, err := exec(ctx, db, q)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
