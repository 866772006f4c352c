package repository

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect adapts the repository's statements to a driver. The statements are
// written with "?" placeholders; drivers that number their parameters get
// them rebound, and drivers without LastInsertId get the key back through a
// RETURNING clause.
type Dialect struct {
	Name string

	numbered  bool
	returning bool
}

var (
	SQLite   = Dialect{Name: "sqlite"}
	MySQL    = Dialect{Name: "mysql"}
	Postgres = Dialect{Name: "postgres", numbered: true, returning: true}
)

// DialectFor resolves a configured driver name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
}

// Bind rewrites query's placeholders for the dialect.
func (d Dialect) Bind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// insert returns the INSERT statement that also yields the generated id.
func (d Dialect) insert(query, idColumn string) string {
	q := d.Bind(query)
	if d.returning {
		q += " RETURNING " + idColumn
	}
	return q
}

func (d Dialect) String() string {
	return d.Name
}
