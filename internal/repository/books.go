// Package repository translates books between Go values and rows of the
// books table.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/snnyvrz/shelfshare-books/internal/metrics"
	"github.com/snnyvrz/shelfshare-books/internal/model"
)

const (
	insertBookSQL   = "INSERT INTO books (title, price) VALUES (?, ?)"
	selectBookSQL   = "SELECT * FROM books WHERE id = ?"
	selectBooksSQL  = "SELECT * FROM books"
	updateBookSQL   = "UPDATE books SET title = ?, price = ? WHERE id = ?"
	deleteBookSQL   = "DELETE FROM books WHERE id = ?"
	bookIDColumn    = "id"
	bookTitleColumn = "title"
	bookPriceColumn = "price"
)

// Operation names used in errors, logs and metrics.
const (
	OpCreate     = "create"
	OpFindByID   = "find_by_id"
	OpFindAll    = "find_all"
	OpUpdate     = "update"
	OpDeleteByID = "delete_by_id"
)

// BookRepository is the data-access contract for books. A missing row is
// reported through the bool results, never as an error.
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) (*model.Book, error)
	FindByID(ctx context.Context, id int64) (*model.Book, bool, error)
	FindAll(ctx context.Context) ([]model.Book, error)
	Update(ctx context.Context, book *model.Book) (*model.Book, bool, error)
	DeleteByID(ctx context.Context, id int64) (bool, error)
}

// Connector hands out a dedicated connection per call. *sql.DB satisfies it.
type Connector interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// ConnFunc adapts a plain function to Connector.
type ConnFunc func(ctx context.Context) (*sql.Conn, error)

func (f ConnFunc) Conn(ctx context.Context) (*sql.Conn, error) {
	return f(ctx)
}

// SQLBookRepository implements BookRepository with hand-written SQL over
// database/sql. It keeps no state between calls and is safe for concurrent
// use.
type SQLBookRepository struct {
	conns   Connector
	dialect Dialect
	log     zerolog.Logger
	metrics *metrics.Repository
}

var _ BookRepository = (*SQLBookRepository)(nil)

// NewSQLBookRepository builds a repository on top of conns. m may be nil.
func NewSQLBookRepository(conns Connector, dialect Dialect, log zerolog.Logger, m *metrics.Repository) *SQLBookRepository {
	return &SQLBookRepository{
		conns:   conns,
		dialect: dialect,
		log:     log.With().Str("component", "book_repository").Str("dialect", dialect.Name).Logger(),
		metrics: m,
	}
}

// Create inserts book and stores the generated id on it. The same pointer is
// returned.
func (r *SQLBookRepository) Create(ctx context.Context, book *model.Book) (_ *model.Book, err error) {
	start := time.Now()
	defer func() { r.record(OpCreate, book.Persisted(), bookID(book), start, true, err) }()

	if book == nil {
		return nil, newDataAccessError(OpCreate, "", ErrNilBook)
	}
	if book.ID != nil {
		return nil, newDataAccessError(OpCreate, idDetail(*book.ID), ErrIDAssigned)
	}

	err = r.withStatement(ctx, r.dialect.insert(insertBookSQL, bookIDColumn), func(stmt *sql.Stmt) error {
		id, err := r.insertReturningID(ctx, stmt, book.Title, book.Price)
		if err != nil {
			return err
		}
		book.ID = &id
		return nil
	})
	if err != nil {
		return nil, newDataAccessError(OpCreate, "", err)
	}

	return book, nil
}

func (r *SQLBookRepository) insertReturningID(ctx context.Context, stmt *sql.Stmt, title string, price decimal.Decimal) (int64, error) {
	if r.dialect.returning {
		var id int64
		if err := stmt.QueryRowContext(ctx, title, price).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, ErrNoRowsAffected
			}
			return 0, err
		}
		return id, nil
	}

	res, err := stmt.ExecContext(ctx, title, price)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected < 1 {
		return 0, ErrNoRowsAffected
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoGeneratedKey, err)
	}
	return id, nil
}

// FindByID loads the book with the given id. found is false when no row
// matches.
func (r *SQLBookRepository) FindByID(ctx context.Context, id int64) (book *model.Book, found bool, err error) {
	start := time.Now()
	defer func() { r.record(OpFindByID, true, id, start, found, err) }()

	err = r.withStatement(ctx, r.dialect.Bind(selectBookSQL), func(stmt *sql.Stmt) error {
		rows, err := stmt.QueryContext(ctx, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		scan, err := newBookScanner(rows)
		if err != nil {
			return err
		}
		if rows.Next() {
			b, err := scan()
			if err != nil {
				return err
			}
			book, found = &b, true
		}
		return rows.Err()
	})
	if err != nil {
		return nil, false, newDataAccessError(OpFindByID, idDetail(id), err)
	}

	return book, found, nil
}

// FindAll loads every book. An empty table yields an empty, non-nil slice.
func (r *SQLBookRepository) FindAll(ctx context.Context) (books []model.Book, err error) {
	start := time.Now()
	defer func() { r.record(OpFindAll, false, 0, start, true, err) }()

	books = []model.Book{}
	err = r.withStatement(ctx, r.dialect.Bind(selectBooksSQL), func(stmt *sql.Stmt) error {
		rows, err := stmt.QueryContext(ctx)
		if err != nil {
			return err
		}
		defer rows.Close()

		scan, err := newBookScanner(rows)
		if err != nil {
			return err
		}
		for rows.Next() {
			b, err := scan()
			if err != nil {
				return err
			}
			books = append(books, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, newDataAccessError(OpFindAll, "", err)
	}

	return books, nil
}

// Update overwrites title and price of the row identified by book.ID. When
// no row matches, it returns (nil, false, nil) and leaves the table as is.
func (r *SQLBookRepository) Update(ctx context.Context, book *model.Book) (_ *model.Book, found bool, err error) {
	start := time.Now()
	defer func() { r.record(OpUpdate, book.Persisted(), bookID(book), start, found, err) }()

	if book == nil {
		return nil, false, newDataAccessError(OpUpdate, "", ErrNilBook)
	}
	if book.ID == nil {
		return nil, false, newDataAccessError(OpUpdate, "", ErrIDMissing)
	}
	id := *book.ID

	var affected int64
	err = r.withStatement(ctx, r.dialect.Bind(updateBookSQL), func(stmt *sql.Stmt) error {
		res, err := stmt.ExecContext(ctx, book.Title, book.Price, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return nil, false, newDataAccessError(OpUpdate, idDetail(id), err)
	}

	if affected == 0 {
		return nil, false, nil
	}
	found = true
	return book, true, nil
}

// DeleteByID removes the row with the given id and reports whether anything
// was deleted.
func (r *SQLBookRepository) DeleteByID(ctx context.Context, id int64) (deleted bool, err error) {
	start := time.Now()
	defer func() { r.record(OpDeleteByID, true, id, start, deleted, err) }()

	var affected int64
	err = r.withStatement(ctx, r.dialect.Bind(deleteBookSQL), func(stmt *sql.Stmt) error {
		res, err := stmt.ExecContext(ctx, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, newDataAccessError(OpDeleteByID, idDetail(id), err)
	}

	return affected > 0, nil
}

// withStatement acquires a connection, prepares query on it and hands the
// statement to fn. Statement and connection are released before it returns.
func (r *SQLBookRepository) withStatement(ctx context.Context, query string, fn func(*sql.Stmt) error) error {
	conn, err := r.conns.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	stmt, err := conn.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	return fn(stmt)
}

// record reports a finished call to metrics and the log. hasID is false for
// calls that do not concern a single row.
func (r *SQLBookRepository) record(op string, hasID bool, id int64, start time.Time, found bool, err error) {
	elapsed := time.Since(start)

	outcome := metrics.OutcomeOK
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
	case !found:
		outcome = metrics.OutcomeNotFound
	}
	r.metrics.Observe(op, outcome, elapsed)

	evt := r.log.Debug()
	msg := "book repository call"
	if err != nil {
		evt = r.log.Warn().Err(err)
		msg = "book repository call failed"
	}
	evt = evt.Str("op", op)
	if hasID {
		evt = evt.Int64("id", id)
	}
	evt.Str("outcome", outcome).Dur("duration", elapsed).Msg(msg)
}

func bookID(b *model.Book) int64 {
	if !b.Persisted() {
		return 0
	}
	return *b.ID
}

// newBookScanner maps the result columns by name, so "SELECT *" decodes the
// same way whatever order the table declares its columns in.
func newBookScanner(rows *sql.Rows) (func() (model.Book, error), error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var (
		id    int64
		title string
		price decimal.Decimal
		hasID bool
	)
	dest := make([]any, len(cols))
	for i, col := range cols {
		switch strings.ToLower(col) {
		case bookIDColumn:
			dest[i] = &id
			hasID = true
		case bookTitleColumn:
			dest[i] = &title
		case bookPriceColumn:
			dest[i] = &price
		default:
			dest[i] = new(any)
		}
	}
	if !hasID {
		return nil, errMissingIDColumn
	}

	return func() (model.Book, error) {
		if err := rows.Scan(dest...); err != nil {
			return model.Book{}, fmt.Errorf("scan book: %w", err)
		}
		bookID := id
		return model.Book{ID: &bookID, Title: title, Price: price}, nil
	}, nil
}

func idDetail(id int64) string {
	return fmt.Sprintf("id=%d", id)
}
