package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	orderingParam = "ordering"

	errNotSortable = errors.New("field is not sortable")
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses the "ordering" query param ("field" or "-field", comma-separated)
// into column orderings. Fields outside the sortable allow-list are rejected;
// ordering fields end up verbatim in SQL text.
func (ord *Ordering) Bind(ctx echo.Context, sortable ...string) error {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return nil
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return nil
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if !isSortable(field, sortable) {
			return core.NewValidationError(errNotSortable, core.FieldError{
				Field: orderingParam,
				Error: errNotSortable.Error(),
			})
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
	return nil
}

func isSortable(field string, sortable []string) bool {
	for _, col := range sortable {
		if field == col {
			return true
		}
	}
	return false
}
