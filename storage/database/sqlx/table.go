package sqlxrepos

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/storage/database"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Table implements the generic query operations on one table.
// Rows are scanned into the models with their `db` struct tags.
type Table struct {
	Name     string
	NotFound error // returned when no row matches
}

func where(filter core.Filter) sq.Sqlizer {
	return sq.Eq(filter)
}

func (t Table) selectBuilder(q core.Query) sq.SelectBuilder {
	b := psql.Select("*").From(t.Name)
	if len(q.Filter) > 0 {
		b = b.Where(where(q.Filter))
	}
	for _, ord := range q.Ordering {
		b = b.OrderBy(ord.String())
	}
	if q.Limit > 0 {
		b = b.Limit(q.Limit)
	}
	if q.Offset > 0 {
		b = b.Offset(q.Offset)
	}
	return b
}

func (t Table) query(ctx context.Context, exec core.DBExecutor, b sq.Sqlizer) (*sqlx.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrapf(err, "building %s query", t.Name)
	}
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", t.Name)
	}
	return &sqlx.Rows{Rows: rows, Mapper: database.Mapper}, nil
}

// scanOne scans the first row into dest, or returns t.NotFound.
func (t Table) scanOne(rows *sqlx.Rows, dest interface{}) error {
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return errors.Wrapf(err, "reading %s", t.Name)
		}
		return t.NotFound
	}
	if err := rows.StructScan(dest); err != nil {
		return errors.Wrapf(err, "scanning %s", t.Name)
	}
	return nil
}

// Select scans the rows matching q into dest, a pointer to a slice of models.
func (t Table) Select(ctx context.Context, exec core.DBExecutor, q core.Query, dest interface{}) error {
	rows, err := t.query(ctx, exec, t.selectBuilder(q))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	if err = sqlx.StructScan(rows, dest); err != nil {
		return errors.Wrapf(err, "scanning %s", t.Name)
	}
	return nil
}

// Get scans the first row matching filter into dest, a pointer to a model.
func (t Table) Get(ctx context.Context, exec core.DBExecutor, filter core.Filter, dest interface{}) error {
	rows, err := t.query(ctx, exec, t.selectBuilder(core.Query{Filter: filter, Limit: 1}))
	if err != nil {
		return err
	}
	return t.scanOne(rows, dest)
}

func (t Table) Count(ctx context.Context, exec core.DBExecutor, filter core.Filter) (int, error) {
	b := psql.Select("COUNT(*)").From(t.Name)
	if len(filter) > 0 {
		b = b.Where(where(filter))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, errors.Wrapf(err, "building %s count", t.Name)
	}
	var cnt int
	if err = exec.QueryRowContext(ctx, query, args...).Scan(&cnt); err != nil {
		return 0, errors.Wrapf(err, "counting %s", t.Name)
	}
	return cnt, nil
}

func (t Table) insertBuilder(model interface{}) sq.InsertBuilder {
	return psql.Insert(t.Name).SetMap(database.ColumnMap(model))
}

// Insert inserts model and scans the inserted row into dest.
func (t Table) Insert(ctx context.Context, exec core.DBExecutor, model, dest interface{}) error {
	rows, err := t.query(ctx, exec, t.insertBuilder(model).Suffix("RETURNING *"))
	if err != nil {
		return err
	}
	return t.scanOne(rows, dest)
}

func (t Table) updateBuilder(model interface{}, cond core.Filter) (sq.UpdateBuilder, error) {
	cols := database.ColumnMap(model)
	id, ok := cols["id"]
	if !ok {
		return sq.UpdateBuilder{}, errors.Errorf("%s: model has no id column", t.Name)
	}
	delete(cols, "id")
	b := psql.Update(t.Name).SetMap(cols).Where(sq.Eq{"id": id})
	if len(cond) > 0 {
		b = b.Where(where(cond))
	}
	return b, nil
}

// Update saves all the columns of model (matched by id) and scans the updated row into dest.
func (t Table) Update(ctx context.Context, exec core.DBExecutor, model, dest interface{}) error {
	return t.UpdateWhere(ctx, exec, model, nil, dest)
}

// UpdateWhere is Update, limited to a stored row that still matches cond. Otherwise t.NotFound is returned.
func (t Table) UpdateWhere(ctx context.Context, exec core.DBExecutor, model interface{}, cond core.Filter, dest interface{}) error {
	b, err := t.updateBuilder(model, cond)
	if err != nil {
		return err
	}
	rows, err := t.query(ctx, exec, b.Suffix("RETURNING *"))
	if err != nil {
		return err
	}
	return t.scanOne(rows, dest)
}

func upsertSuffix(conflict, update []string) string {
	set := make([]string, 0, len(update))
	for _, col := range update {
		set = append(set, col+" = EXCLUDED."+col)
	}
	if len(set) == 0 {
		// no-op update so that RETURNING yields the existing row
		set = append(set, conflict[0]+" = EXCLUDED."+conflict[0])
	}
	return "ON CONFLICT (" + strings.Join(conflict, ", ") + ") DO UPDATE SET " + strings.Join(set, ", ") + " RETURNING *"
}

// Upsert inserts model or, when a row with the same `conflict` columns exists, updates its `update` columns.
// With no `update` columns, the existing row is left as is. The resulting row is scanned into dest.
func (t Table) Upsert(ctx context.Context, exec core.DBExecutor, conflict, update []string, model, dest interface{}) error {
	if len(conflict) == 0 {
		return errors.Errorf("%s: upsert needs conflict columns", t.Name)
	}
	rows, err := t.query(ctx, exec, t.insertBuilder(model).Suffix(upsertSuffix(conflict, update)))
	if err != nil {
		return err
	}
	return t.scanOne(rows, dest)
}

func (t Table) Delete(ctx context.Context, exec core.DBExecutor, filter core.Filter) (int, error) {
	b := psql.Delete(t.Name)
	if len(filter) > 0 {
		b = b.Where(where(filter))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, errors.Wrapf(err, "building %s delete", t.Name)
	}
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrapf(err, "deleting %s", t.Name)
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrapf(err, "deleting %s", t.Name)
	}
	return int(cnt), nil
}
