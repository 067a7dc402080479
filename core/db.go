package core

import (
	"context"
	"database/sql"
	"strings"
)

type (
	DBExecutor interface {
		Exec(query string, args ...interface{}) (sql.Result, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		Query(query string, args ...interface{}) (*sql.Rows, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRow(query string, args ...interface{}) *sql.Row
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	DB interface {
		DBExecutor

		Begin() (*sql.Tx, error)
		BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error)
	}

	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrdering parses a comma separated list of fields, descending ones prefixed with "-".
// eg: "name,-created_at"
func ParseOrdering(s string) []DBOrdering {
	var ordering []DBOrdering
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = strings.TrimSpace(field[1:]) // drop "-"
		}
		if field == "" {
			continue
		}
		ordering = append(ordering, DBOrdering{Field: field, Ascending: !descending})
	}
	return ordering
}

// Filter matches rows by column equality; all conditions are AND-ed.
// A slice value matches any of its elements (IN).
type Filter map[string]interface{}

// Query is the generic read request understood by every repository.
type Query struct {
	Filter   Filter
	Ordering []DBOrdering
	Limit    uint64 // 0: no limit
	Offset   uint64
}

// Only drops the filter and ordering columns that are not in `allowed`.
func (q Query) Only(allowed ...string) Query {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	filter := make(Filter, len(q.Filter))
	for col, val := range q.Filter {
		if _, ok := set[col]; ok {
			filter[col] = val
		}
	}
	ordering := make([]DBOrdering, 0, len(q.Ordering))
	for _, ord := range q.Ordering {
		if _, ok := set[ord.Field]; ok {
			ordering = append(ordering, ord)
		}
	}
	q.Filter = filter
	q.Ordering = ordering
	return q
}
