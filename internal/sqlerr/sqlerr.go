// Package sqlerr classifies database driver errors.
//
// The repository layer talks to sqlite, MySQL and PostgreSQL through
// database/sql, and each driver reports constraint failures with its own
// error type. Classify folds them into one small set of codes so callers
// can react to "already exists" or "missing field" without importing a
// driver package.
package sqlerr

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

type Code int

const (
	Other Code = iota
	UniqueViolation
	NotNullViolation
	CheckViolation
	ForeignKeyViolation
)

func (c Code) String() string {
	switch c {
	case UniqueViolation:
		return "unique_violation"
	case NotNullViolation:
		return "not_null_violation"
	case CheckViolation:
		return "check_violation"
	case ForeignKeyViolation:
		return "foreign_key_violation"
	default:
		return "other"
	}
}

// IsConstraint reports whether the code is one of the integrity constraint
// classes, i.e. the statement was rejected because of the data it carried.
func (c Code) IsConstraint() bool {
	return c != Other
}

// SQLSTATE class 23 codes used by PostgreSQL.
const (
	pgUniqueViolation     = "23505"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgForeignKeyViolation = "23503"
)

// MySQL server error numbers.
const (
	myDupEntry          = 1062
	myBadNull           = 1048
	myNoDefaultForField = 1364
	myCheckViolated     = 3819
	myRowIsReferenced   = 1451
	myNoReferencedRow   = 1452
)

// Classify walks the error chain and maps the first driver error it finds.
// Errors that are not driver errors, or driver errors outside the
// constraint classes, map to Other.
func Classify(err error) Code {
	if err == nil {
		return Other
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPostgres(pgErr.Code)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return mapMySQL(myErr.Number)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return mapSQLite(liteErr)
	}

	return Other
}

func mapPostgres(code string) Code {
	switch code {
	case pgUniqueViolation:
		return UniqueViolation
	case pgNotNullViolation:
		return NotNullViolation
	case pgCheckViolation:
		return CheckViolation
	case pgForeignKeyViolation:
		return ForeignKeyViolation
	}
	return Other
}

func mapMySQL(number uint16) Code {
	switch number {
	case myDupEntry:
		return UniqueViolation
	case myBadNull, myNoDefaultForField:
		return NotNullViolation
	case myCheckViolated:
		return CheckViolation
	case myRowIsReferenced, myNoReferencedRow:
		return ForeignKeyViolation
	}
	return Other
}

func mapSQLite(e sqlite3.Error) Code {
	if e.Code != sqlite3.ErrConstraint {
		return Other
	}
	switch e.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return UniqueViolation
	case sqlite3.ErrConstraintNotNull:
		return NotNullViolation
	case sqlite3.ErrConstraintCheck:
		return CheckViolation
	case sqlite3.ErrConstraintForeignKey:
		return ForeignKeyViolation
	}
	return Other
}
