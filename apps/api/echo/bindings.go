package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/absensi/core"
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
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// ReportQuery selects the range of an attendance report: either a period around Date, or From-To.
type ReportQuery struct {
	Period string `query:"period"`
	Date   string `query:"date"`
	From   string `query:"from"`
	To     string `query:"to"`
}

func (rq *ReportQuery) Clean() {
	rq.Period = core.CleanString(rq.Period, true /* lower */)
	rq.Date = core.CleanString(rq.Date)
	rq.From = core.CleanString(rq.From)
	rq.To = core.CleanString(rq.To)
}
