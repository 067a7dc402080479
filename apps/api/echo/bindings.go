package echoapi

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/portal/core"
)

const (
	orderingParam = "ordering"
	limitParam    = "limit"
	offsetParam   = "offset"
	nullValue     = "null"

	maxLimit = 500

	headerTotalCount = "X-Total-Count"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	if val := ctx.QueryParam(orderingParam); val != "" {
		ord.Orderings = core.ParseOrdering(val)
	}
}

func isIDColumn(col string) bool {
	return col == "id" || strings.HasSuffix(col, "_id")
}

// bindListQuery binds `ordering`, `limit`, `offset` and the equality filters on `columns`.
// Repeated params match any of their values; ID columns accept UUIDs or "null".
func bindListQuery(ctx echo.Context, columns []string) (core.Query, error) {
	params := ctx.QueryParams()
	q := core.Query{Filter: make(core.Filter)}

	ordering := new(Ordering)
	ordering.Bind(ctx)
	q.Ordering = ordering.Orderings

	var err error
	if q.Limit, err = parseUintParam(params, limitParam); err != nil {
		return q, err
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Offset, err = parseUintParam(params, offsetParam); err != nil {
		return q, err
	}

	for _, col := range columns {
		vals, ok := params[col]
		if !ok || len(vals) == 0 {
			continue
		}
		if isIDColumn(col) {
			for _, v := range vals {
				if v == nullValue && col != "id" {
					continue
				}
				if _, err := uuid.Parse(v); err != nil {
					return q, core.NewValidationError(nil, core.FieldError{Field: col, Error: "invalid UUID"})
				}
			}
			if len(vals) == 1 && vals[0] == nullValue {
				q.Filter[col] = nil
				continue
			}
		}
		if len(vals) == 1 {
			q.Filter[col] = vals[0]
		} else {
			q.Filter[col] = vals
		}
	}
	return q, nil
}

func parseUintParam(params url.Values, name string) (uint64, error) {
	val := params.Get(name)
	if val == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, core.NewValidationError(nil, core.FieldError{Field: name, Error: "must be a positive integer"})
	}
	return n, nil
}

func setTotalCount(ctx echo.Context, count int) {
	ctx.Response().Header().Set(headerTotalCount, strconv.Itoa(count))
}
