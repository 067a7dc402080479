package inmemdb

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx/reflectx"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/storage/database"
)

// table is a mutex-guarded list of rows, queried through their `db` struct tags.
// Rows are kept in insertion order, which is the order of unordered queries.
type table[T any] struct {
	sync.RWMutex
	name     string
	rows     []T
	unique   [][]string // unique column sets; NULLs and blanks never conflict
	notFound error
	notify   func(ev core.ChangeEvent)
}

func newTable[T any](name string, notFound error, notify func(core.ChangeEvent), unique ...[]string) *table[T] {
	return &table[T]{
		name:     name,
		rows:     make([]T, 0),
		unique:   unique,
		notFound: notFound,
		notify:   notify,
	}
}

func (t *table[T]) publish(op, id string) {
	if t.notify != nil {
		t.notify(core.ChangeEvent{Table: t.name, Op: op, ID: id, At: time.Now().UTC()})
	}
}

func rowID(row interface{}) string {
	id, _ := database.ColumnValue(row, "id")
	s, _ := id.(string)
	return s
}

func isNull(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// equal compares a column value with a filter value. Values of different types are compared by their text.
func equal(colVal, val interface{}) bool {
	if colVal == nil || val == nil {
		return colVal == nil && val == nil
	}
	if ct, ok := colVal.(time.Time); ok {
		if vt, ok := val.(time.Time); ok {
			return ct.Equal(vt)
		}
		return ct.Format(time.RFC3339Nano) == fmt.Sprint(val)
	}
	if reflect.TypeOf(colVal) == reflect.TypeOf(val) && reflect.TypeOf(val).Comparable() {
		return colVal == val
	}
	return fmt.Sprint(colVal) == fmt.Sprint(val)
}

func matchValue(colVal, val interface{}) bool {
	if val != nil {
		rv := reflect.ValueOf(val)
		if rv.Kind() == reflect.Ptr {
			if rv.IsNil() {
				val = nil
			} else {
				val = rv.Elem().Interface()
			}
		}
	}
	if val != nil {
		rv := reflect.ValueOf(val)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			for i := 0; i < rv.Len(); i++ {
				if equal(colVal, rv.Index(i).Interface()) {
					return true
				}
			}
			return false
		}
	}
	return equal(colVal, val)
}

func match(row interface{}, filter core.Filter) bool {
	for col, val := range filter {
		colVal, ok := database.ColumnValue(row, col)
		if !ok || !matchValue(colVal, val) {
			return false
		}
	}
	return true
}

// compare orders values like Postgres: NULLs come last in ascending order.
func compare(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			switch {
			case av.Before(bv):
				return -1
			case av.After(bv):
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ra.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		x, y := ra.Int(), rb.Int()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case reflect.Float32, reflect.Float64:
		x, y := ra.Float(), rb.Float()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func sortRows[T any](rows []T, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			a, _ := database.ColumnValue(rows[i], ord.Field)
			b, _ := database.ColumnValue(rows[j], ord.Field)
			c := compare(a, b)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func paginate[T any](rows []T, limit, offset uint64) []T {
	if offset >= uint64(len(rows)) {
		return make([]T, 0)
	}
	rows = rows[offset:]
	if limit > 0 && limit < uint64(len(rows)) {
		rows = rows[:limit]
	}
	return rows
}

// filter must be called with the lock held.
func (t *table[T]) filter(pred func(T) bool) []T {
	rows := make([]T, 0)
	for _, row := range t.rows {
		if pred(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

func filterPred[T any](filter core.Filter) func(T) bool {
	return func(row T) bool { return match(row, filter) }
}

func (t *table[T]) Select(q core.Query) []T {
	t.RLock()
	rows := t.filter(filterPred[T](q.Filter))
	t.RUnlock()

	sortRows(rows, q.Ordering)
	return paginate(rows, q.Limit, q.Offset)
}

func (t *table[T]) Find(pred func(T) bool) (T, error) {
	t.RLock()
	defer t.RUnlock()
	for _, row := range t.rows {
		if pred(row) {
			return row, nil
		}
	}
	var zero T
	return zero, t.notFound
}

func (t *table[T]) Get(filter core.Filter) (T, error) {
	return t.Find(filterPred[T](filter))
}

func (t *table[T]) Count(filter core.Filter) int {
	t.RLock()
	defer t.RUnlock()
	return len(t.filter(filterPred[T](filter)))
}

// conflict returns the index of the row (other than `row` itself) violating a unique constraint, or -1.
// Must be called with the lock held.
func (t *table[T]) conflict(row T, cols []string) int {
	id := rowID(row)
	vals := make([]interface{}, len(cols))
	for i, col := range cols {
		vals[i], _ = database.ColumnValue(row, col)
		if isNull(vals[i]) {
			return -1
		}
	}
	for idx, other := range t.rows {
		if rowID(other) == id {
			continue
		}
		same := true
		for i, col := range cols {
			v, _ := database.ColumnValue(other, col)
			if !equal(v, vals[i]) {
				same = false
				break
			}
		}
		if same {
			return idx
		}
	}
	return -1
}

func (t *table[T]) checkUnique(row T) error {
	for _, cols := range t.unique {
		if t.conflict(row, cols) >= 0 {
			return errors.Errorf("%s: duplicate key value violates unique constraint (%s)", t.name, strings.Join(cols, ", "))
		}
	}
	return nil
}

func (t *table[T]) index(id string) int {
	for i, row := range t.rows {
		if rowID(row) == id {
			return i
		}
	}
	return -1
}

// insert must be called with the lock held.
func (t *table[T]) insert(row T) error {
	id := rowID(row)
	if id == "" || t.index(id) >= 0 {
		return errors.Errorf("%s: invalid or duplicate id %q", t.name, id)
	}
	if err := t.checkUnique(row); err != nil {
		return err
	}
	t.rows = append(t.rows, row)
	return nil
}

func (t *table[T]) Insert(row T) (T, error) {
	t.Lock()
	err := t.insert(row)
	t.Unlock()
	if err != nil {
		var zero T
		return zero, err
	}

	t.publish(core.OpInsert, rowID(row))
	return row, nil
}

func (t *table[T]) Update(row T) (T, error) {
	return t.UpdateWhere(row, nil)
}

// UpdateWhere replaces the stored row with the same id, as long as it still matches cond.
func (t *table[T]) UpdateWhere(row T, cond core.Filter) (T, error) {
	id := rowID(row)
	t.Lock()
	idx := t.index(id)
	if idx < 0 || !match(t.rows[idx], cond) {
		t.Unlock()
		var zero T
		return zero, t.notFound
	}
	if err := t.checkUnique(row); err != nil {
		t.Unlock()
		var zero T
		return zero, err
	}
	t.rows[idx] = row
	t.Unlock()

	t.publish(core.OpUpdate, id)
	return row, nil
}

// Upsert inserts row, or updates the `update` columns of the row having the same `conflict` columns.
func (t *table[T]) Upsert(row T, conflict, update []string) (T, error) {
	t.Lock()
	idx := t.conflict(row, conflict)
	if idx < 0 {
		err := t.insert(row)
		t.Unlock()
		if err != nil {
			var zero T
			return zero, err
		}
		t.publish(core.OpInsert, rowID(row))
		return row, nil
	}

	existing := &t.rows[idx]
	src := reflect.ValueOf(row)
	dst := reflect.ValueOf(existing).Elem()
	names := database.Mapper.TypeMap(dst.Type()).Names
	for _, col := range update {
		if fi, ok := names[col]; ok {
			reflectx.FieldByIndexesReadOnly(dst, fi.Index).Set(reflectx.FieldByIndexesReadOnly(src, fi.Index))
		}
	}
	res := *existing
	t.Unlock()

	if len(update) > 0 {
		t.publish(core.OpUpdate, rowID(res))
	}
	return res, nil
}

func (t *table[T]) DeleteWhere(pred func(T) bool) int {
	t.Lock()
	kept := make([]T, 0, len(t.rows))
	var deleted []string
	for _, row := range t.rows {
		if pred(row) {
			deleted = append(deleted, rowID(row))
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
	t.Unlock()

	for _, id := range deleted {
		t.publish(core.OpDelete, id)
	}
	return len(deleted)
}

func (t *table[T]) Delete(filter core.Filter) int {
	return t.DeleteWhere(filterPred[T](filter))
}
