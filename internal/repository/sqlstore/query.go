package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/blog-api/internal/repository"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// queryAll runs a select and scans every row with scan.
func queryAll[T any](ctx context.Context, s *Store, q sq.Sqlizer, scan func(rowScanner) (T, error)) ([]T, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// queryOne returns (nil, nil) when the query matches no row.
func queryOne[T any](ctx context.Context, s *Store, q sq.Sqlizer, scan func(rowScanner) (T, error)) (*T, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	item, err := scan(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) count(ctx context.Context, q sq.SelectBuilder) (int64, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("building query: %w", err)
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// insert runs an INSERT ... RETURNING id.
func (s *Store) insert(ctx context.Context, q sq.InsertBuilder) (int64, error) {
	query, args, err := q.Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("building query: %w", err)
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) exec(ctx context.Context, q sq.Sqlizer) (sql.Result, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	return s.db.ExecContext(ctx, query, args...)
}

// applyFindOptions adds the id filter, then pagination. Negative values are
// ignored rather than sent to the database.
func applyFindOptions(q sq.SelectBuilder, opts repository.FindOptions) sq.SelectBuilder {
	if opts.ID != nil {
		q = q.Where(sq.Eq{"id": *opts.ID})
	}

	hasLimit := opts.Limit != nil && *opts.Limit >= 0
	hasOffset := opts.Offset != nil && *opts.Offset > 0

	if hasLimit {
		q = q.Limit(uint64(*opts.Limit))
	}
	if hasOffset {
		// SQLite rejects OFFSET without LIMIT.
		if !hasLimit {
			q = q.Limit(math.MaxInt64)
		}
		q = q.Offset(uint64(*opts.Offset))
	}
	return q
}

// constraintKind classifies integrity violations from either driver.
type constraintKind int

const (
	constraintNone constraintKind = iota
	constraintUnique
	constraintForeignKey
)

// classifyConstraint also returns the constraint or column text the driver
// reported, e.g. "users.email" or "users_email_key".
func classifyConstraint(err error) (constraintKind, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return constraintUnique, pgErr.ConstraintName
		case "23503":
			return constraintForeignKey, pgErr.ConstraintName
		}
		return constraintNone, ""
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		msg := liteErr.Error()
		switch {
		case strings.Contains(msg, "UNIQUE constraint failed"):
			return constraintUnique, msg
		case strings.Contains(msg, "FOREIGN KEY constraint failed"):
			return constraintForeignKey, msg
		}
	}
	return constraintNone, ""
}
