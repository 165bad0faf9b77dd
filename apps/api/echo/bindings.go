package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// paged is the response of every paginated listing: {<items>: [...], total_pages, current_page, total}.
func paged(key string, items interface{}, page core.Page, total int) echo.Map {
	return echo.Map{
		key:            items,
		"total_pages":  page.TotalPages(total),
		"current_page": page.Number,
		"total":        total,
	}
}

type successResponse struct {
	Success string `json:"success"`
}
