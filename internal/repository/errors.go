package repository

import (
	"errors"
	"fmt"

	"github.com/snnyvrz/shelfshare-books/internal/sqlerr"
)

// ErrDataAccess matches every *DataAccessError through errors.Is.
var ErrDataAccess = errors.New("data access failure")

var (
	ErrNilBook         = errors.New("book is nil")
	ErrIDAssigned      = errors.New("book already has an id")
	ErrIDMissing       = errors.New("book has no id")
	ErrNoRowsAffected  = errors.New("no rows affected")
	ErrNoGeneratedKey  = errors.New("database returned no generated key")
	ErrUnknownDialect  = errors.New("unknown sql dialect")
	errMissingIDColumn = errors.New("result set has no id column")
)

// DataAccessError is returned by every repository operation that could not
// complete: connection acquisition, statement preparation, execution or
// row decoding. A missing row is never reported through it.
type DataAccessError struct {
	Op     string
	Detail string
	Code   sqlerr.Code
	Err    error
}

func newDataAccessError(op, detail string, err error) *DataAccessError {
	return &DataAccessError{
		Op:     op,
		Detail: detail,
		Code:   sqlerr.Classify(err),
		Err:    err,
	}
}

func (e *DataAccessError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("books: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("books: %s %s: %v", e.Op, e.Detail, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

func (e *DataAccessError) Is(target error) bool {
	return target == ErrDataAccess
}

// AsDataAccessError returns the *DataAccessError in err's chain, if any.
func AsDataAccessError(err error) (*DataAccessError, bool) {
	var dae *DataAccessError
	if errors.As(err, &dae) {
		return dae, true
	}
	return nil, false
}
