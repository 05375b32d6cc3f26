package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/attendance"
)

var (
	errRangeRequired = errors.New("either period or from and to are required")
	errInvalidDate   = "must be a date formatted as YYYY-MM-DD"
)

type attendanceApi struct {
	conf     *core.Config
	svc      attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{
		conf:     deps.Conf,
		svc:      deps.AttendanceSvc,
		validate: deps.Validate,
	}

	ag := g.Group("/attendance", jwt, activeUserMiddleware(deps.UserSvc))
	ag.GET("", api.query)
	ag.PUT("", api.upsert, teacherOrAdminMiddleware())
	ag.GET("/:id", api.retrieve)
	ag.DELETE("/:id", api.destroy, adminMiddleware())
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{
		conf:     deps.Conf,
		svc:      deps.AttendanceSvc,
		validate: deps.Validate,
	}

	rg := g.Group("/reports", jwt, activeUserMiddleware(deps.UserSvc), teacherOrAdminMiddleware())
	rg.GET("/attendance", api.report)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Attendance{})
	}
	records, err := api.svc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []attendance.Attendance{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	a, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding attendance by ID")
	}
	return ctx.JSON(http.StatusOK, a)
}

// upsert answers 201 when the record is new, 200 when it replaced the existing one.
func (api *attendanceApi) upsert(ctx echo.Context) error {
	var data attendance.UpsertAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, created, err := api.svc.Upsert(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "upserting attendance")
	}
	if created {
		return ctx.JSON(http.StatusCreated, a)
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// report builds the recap of a period around `date` (defaults to today), or of `from`-`to`.
func (api *attendanceApi) report(ctx echo.Context) error {
	query := new(ReportQuery)
	if err := ctx.Bind(query); err != nil {
		return errors.Wrap(err, "binding to ReportQuery")
	}
	query.Clean()

	var (
		rep attendance.Report
		err error
	)
	switch {
	case query.Period != "":
		p, pErr := attendance.ParsePeriod(query.Period)
		if pErr != nil {
			return core.NewValidationError(pErr, core.FieldError{Field: "period", Error: pErr.Error()})
		}
		ref := api.conf.Today()
		if query.Date != "" {
			if ref, err = core.ParseDate(query.Date); err != nil {
				return core.NewValidationError(err, core.FieldError{Field: "date", Error: errInvalidDate})
			}
		}
		rep, err = api.svc.PeriodReport(ctx.Request().Context(), p, ref)
	case query.From != "" || query.To != "":
		if _, fErr := core.ParseDate(query.From); fErr != nil {
			return core.NewValidationError(fErr, core.FieldError{Field: "from", Error: errInvalidDate})
		}
		r, rErr := attendance.ParseRange(query.From, query.To)
		if rErr != nil {
			return core.NewValidationError(rErr, core.FieldError{Field: "to", Error: errInvalidDate})
		}
		rep, err = api.svc.Report(ctx.Request().Context(), r)
	default:
		return core.NewValidationError(errRangeRequired)
	}
	if err != nil {
		return errors.Wrap(err, "building attendance report")
	}
	return ctx.JSON(http.StatusOK, rep)
}
